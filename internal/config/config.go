package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/coffersTech/objectfilter/internal/logger"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by the CLI.
const EnvPrefix = "OBJECTFILTER_"

// Config is the CLI configuration.
type Config struct {
	Catalog string        `mapstructure:"catalog"` // Path of the filter-set file
	Strict  bool          `mapstructure:"strict"`  // Build with strict roots by default
	Log     logger.Config `mapstructure:"log"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	catalog := "filters.ofs"
	if home, err := os.UserHomeDir(); err == nil {
		catalog = filepath.Join(home, ".objectfilter", "filters.ofs")
	}
	return Config{
		Catalog: catalog,
		Log:     logger.Config{Level: "WARN", Format: "text"},
	}
}

// LoadDefault loads Default overlaid with .env and OBJECTFILTER_* variables.
func LoadDefault() (Config, error) {
	cfg := Default()
	if err := Load(EnvPrefix, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load loads configuration from .env file and environment variables
// prefix: Environment variable prefix (e.g. "OBJECTFILTER_")
// target: Pointer to the config struct to load into. Fields already set on
// target are kept unless a source overrides them.
func Load(prefix string, target interface{}) error {
	return load(".env", os.Environ(), prefix, target)
}

func load(envFile string, environ []string, prefix string, target interface{}) error {
	v := viper.New()

	// 1. Load from .env file (if exists)
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	// .env keys use the same PREFIX_A_B form as the environment.
	settings := make(map[string]string)
	for _, key := range v.AllKeys() {
		settings[strings.ToUpper(key)] = v.GetString(key)
	}

	// 2. Environment variables win over .env
	for _, envStr := range environ {
		pair := strings.SplitN(envStr, "=", 2)
		if len(pair) == 2 {
			settings[pair[0]] = pair[1]
		}
	}

	out := viper.New()
	prefixUpper := strings.ToUpper(prefix)
	for key, value := range settings {
		if !strings.HasPrefix(key, prefixUpper) {
			continue
		}
		// OBJECTFILTER_LOG_LEVEL -> log.level
		propKey := strings.TrimPrefix(key, prefixUpper)
		propKey = strings.ToLower(strings.ReplaceAll(propKey, "_", "."))
		propKey = strings.TrimPrefix(propKey, ".")
		if propKey == "log.add.source" {
			propKey = "log.add_source"
		}
		out.Set(propKey, value)
	}

	// 3. Unmarshal into struct
	if err := out.Unmarshal(target); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}
