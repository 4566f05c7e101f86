package main

import (
	"fmt"
	"os"

	"github.com/coffersTech/objectfilter/internal/config"
	"github.com/coffersTech/objectfilter/internal/logger"
)

func main() {
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "objectfilter: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log)

	if err := newRootCmd(cfg, os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "objectfilter: %v\n", err)
		os.Exit(1)
	}
}
