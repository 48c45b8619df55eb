package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/respawnmetrics/respawn/pkg/constants"
	"github.com/respawnmetrics/respawn/pkg/errors"
)

// EnvPrefix prefixes the environment variables read into the config.
const EnvPrefix = "RESPAWN"

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Pipeline configuration
	RawDir      string
	InputDir    string
	OutputDir   string
	SQLitePath  string
	Clean       bool
	Concurrency int
	LoadTimeout time.Duration

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (applied later with UpdateFromFlags)
// 2. Environment variables (RESPAWN_INPUT_DIR, ...)
// 3. .env files
// 4. Config file (path, or ~/.respawn.yaml and ./.respawn.yaml)
// 5. Defaults
func LoadConfig(path string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("raw_dir", constants.DefaultRawDir)
	v.SetDefault("input_dir", constants.DefaultInputDir)
	v.SetDefault("output_dir", constants.DefaultOutputDir)
	v.SetDefault("concurrency", constants.MaxConcurrentLoads)
	v.SetDefault("load_timeout", constants.LoadTimeout)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "reading "+path, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(constants.DefaultConfigFile)

		// Read config file (ignore error if not found)
		_ = v.ReadInConfig()
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color") || os.Getenv("NO_COLOR") != "",
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		RawDir:      v.GetString("raw_dir"),
		InputDir:    v.GetString("input_dir"),
		OutputDir:   v.GetString("output_dir"),
		SQLitePath:  v.GetString("sqlite_path"),
		Clean:       v.GetBool("clean"),
		Concurrency: v.GetInt("concurrency"),
		LoadTimeout: v.GetDuration("load_timeout"),

		// Logging stays unprefixed to match the library's LOG_* variables
		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values that cannot be repaired with a default.
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return errors.NewConfigError("concurrency", "must be at least 1", nil)
	}
	if c.LoadTimeout < 0 {
		return errors.NewConfigError("load_timeout", "cannot be negative", nil)
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// .env.local overrides .env
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
