package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/coffersTech/objectfilter/filter"
	"github.com/coffersTech/objectfilter/internal/catalog"
	"github.com/coffersTech/objectfilter/internal/config"
	"github.com/coffersTech/objectfilter/internal/logger"
	"github.com/coffersTech/objectfilter/internal/pkg/ofql"
	"github.com/coffersTech/objectfilter/wire"
	"github.com/spf13/cobra"
)

type outputOptions struct {
	pretty bool
	format string
}

func newRootCmd(cfg config.Config, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "objectfilter",
		Short:         "Build SoftLayer object filters from OFQL expressions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&cfg.Catalog, "catalog", cfg.Catalog, "filter-set file")
	root.PersistentFlags().BoolVar(&cfg.Strict, "strict", cfg.Strict, "reject conflicting operations on one property")

	root.AddCommand(
		newBuildCmd(&cfg),
		newSaveCmd(&cfg),
		newListCmd(&cfg),
		newShowCmd(&cfg),
		newDeleteCmd(&cfg),
		newPruneCmd(&cfg),
	)
	return root
}

func addOutputFlags(cmd *cobra.Command, o *outputOptions) {
	cmd.Flags().BoolVar(&o.pretty, "pretty", false, "indent JSON output")
	cmd.Flags().StringVar(&o.format, "format", "json", "output format: json or query")
}

func newBuildCmd(cfg *config.Config) *cobra.Command {
	var o outputOptions
	cmd := &cobra.Command{
		Use:   "build <expression>",
		Short: "Compile an expression and print the object filter",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := compile(cfg, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), root, o)
		},
	}
	addOutputFlags(cmd, &o)
	return cmd
}

func newSaveCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "save <name> <expression>",
		Short: "Compile an expression and store it in the catalog",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := strings.Join(args[1:], " ")
			root, err := compile(cfg, expr)
			if err != nil {
				return err
			}

			store, err := catalog.Open(cfg.Catalog)
			if err != nil {
				return err
			}
			entry, err := store.Put(args[0], expr, root)
			if err != nil {
				return err
			}
			if dup, ok := store.DuplicateOf(entry.Name); ok {
				logger.Get().Warn("identical filter already saved", "name", entry.Name, "existing", dup.Name)
			}
			if err := store.Flush(); err != nil {
				return err
			}

			logger.Get().Info("filter saved", "name", entry.Name, "id", entry.ID)
			fmt.Fprintln(cmd.OutOrStdout(), entry.ID)
			return nil
		},
	}
}

func newListCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := catalog.Open(cfg.Catalog)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tID\tSAVED\tDIGEST")
			for _, e := range store.List() {
				saved := time.Unix(0, e.SavedAt).UTC().Format(time.RFC3339)
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Name, e.ID, saved, e.Digest[:min(12, len(e.Digest))])
			}
			return tw.Flush()
		},
	}
}

func newShowCmd(cfg *config.Config) *cobra.Command {
	var o outputOptions
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a saved filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := catalog.Open(cfg.Catalog)
			if err != nil {
				return err
			}
			root, err := store.Node(args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), root, o)
		},
	}
	addOutputFlags(cmd, &o)
	return cmd
}

func newDeleteCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a saved filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := catalog.Open(cfg.Catalog)
			if err != nil {
				return err
			}
			if !store.Delete(args[0]) {
				return fmt.Errorf("%w: %s", catalog.ErrNotFound, args[0])
			}
			logger.Get().Info("filter deleted", "name", args[0])
			return store.Flush()
		},
	}
}

func newPruneCmd(cfg *config.Config) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove filters saved longer ago than --older-than",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			store, err := catalog.Open(cfg.Catalog)
			if err != nil {
				return err
			}
			n := store.Prune(olderThan)
			if err := store.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age cutoff")
	return cmd
}

func compile(cfg *config.Config, expr string) (*filter.Node, error) {
	root := filter.New()
	if cfg.Strict {
		root = filter.NewStrict()
	}
	if err := ofql.ApplyString(root, expr); err != nil {
		return nil, err
	}
	if err := root.Err(); err != nil {
		return nil, err
	}
	return root, nil
}

func render(w io.Writer, root *filter.Node, o outputOptions) error {
	switch o.format {
	case "query":
		q, err := wire.QueryParam(root)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, q)
		return err
	case "json", "":
		data, err := wire.Marshal(root)
		if err != nil {
			return err
		}
		if o.pretty {
			var buf bytes.Buffer
			if err := json.Indent(&buf, data, "", "  "); err != nil {
				return err
			}
			data = buf.Bytes()
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	default:
		return fmt.Errorf("unknown format %q", o.format)
	}
}
