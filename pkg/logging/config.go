package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/respawnmetrics/respawn/pkg/constants"
)

// Config describes how a logger is built.
type Config struct {
	// Level is trace, debug, info, warn, error or off.
	Level string

	// Format is json, console or auto. Auto picks console on a terminal.
	Format string

	// Output is stderr, stdout, discard or a file path to append to.
	Output string

	// TimeFormat applies to console output: kitchen, rfc3339, unix or a layout.
	TimeFormat string

	NoColor   bool
	AddCaller bool

	// Fields are attached to every event.
	Fields map[string]any
}

// DefaultConfig is info level, auto format, on stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "auto",
		Output:     "stderr",
		TimeFormat: "kitchen",
		NoColor:    os.Getenv("NO_COLOR") != "",
	}
}

// ConfigFromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT, LOG_TIME_FORMAT,
// LOG_CALLER, LOG_FIELDS and NO_COLOR on top of DefaultConfig. DEBUG
// selects debug level when LOG_LEVEL is unset.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	if os.Getenv("DEBUG") != "" {
		cfg.Level = "debug"
	}
	for env, field := range map[string]*string{
		"LOG_LEVEL":       &cfg.Level,
		"LOG_FORMAT":      &cfg.Format,
		"LOG_OUTPUT":      &cfg.Output,
		"LOG_TIME_FORMAT": &cfg.TimeFormat,
	} {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
	cfg.AddCaller = os.Getenv("LOG_CALLER") == "true"
	cfg.Fields = parseFields(os.Getenv("LOG_FIELDS"))
	return cfg
}

// NewLoggerFromConfig builds a logger and sets zerolog's global level to
// match. Debug and trace always carry the caller.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	lc := zerolog.New(writerFor(cfg)).Level(level).With().Timestamp()
	if cfg.AddCaller || level <= zerolog.DebugLevel {
		lc = lc.Caller()
	}
	for k, v := range cfg.Fields {
		lc = addField(lc, k, v)
	}
	return lc.Logger()
}

// Configure builds a logger from cfg and installs it as the default.
func Configure(cfg *Config) {
	SetDefault(NewLoggerFromConfig(cfg))
}

func writerFor(cfg *Config) io.Writer {
	out, tty := openOutput(cfg.Output)

	switch strings.ToLower(cfg.Format) {
	case "json":
		return out
	case "console", "pretty":
	default:
		if !tty {
			return out
		}
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: parseTimeFormat(cfg.TimeFormat),
		NoColor:    cfg.NoColor,
	}
}

// openOutput resolves an output name. The flag reports an interactive
// stderr. An unopenable file falls back to stderr.
func openOutput(name string) (io.Writer, bool) {
	switch strings.ToLower(name) {
	case "", "stderr":
		return os.Stderr, stderrIsTerminal()
	case "stdout":
		return os.Stdout, false
	case "discard", "none":
		return io.Discard, false
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return os.Stderr, stderrIsTerminal()
	}
	return f, false
}

func parseLevel(level string) zerolog.Level {
	switch l := strings.ToLower(strings.TrimSpace(level)); l {
	case "":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "none", "off":
		return zerolog.Disabled
	default:
		parsed, err := zerolog.ParseLevel(l)
		if err != nil {
			return zerolog.InfoLevel
		}
		return parsed
	}
}

var timeLayouts = map[string]string{
	"kitchen":     time.Kitchen,
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"stamp":       time.Stamp,
	"unix":        "",
	"epoch":       "",
}

func parseTimeFormat(format string) string {
	if layout, ok := timeLayouts[strings.ToLower(format)]; ok {
		return layout
	}
	if strings.Contains(format, "2006") || strings.Contains(format, "15:04") {
		return format
	}
	return time.Kitchen
}

// parseFields reads "k=v,k2=v2". Entries without '=' are ignored.
func parseFields(s string) map[string]any {
	fields := map[string]any{}
	for _, pair := range strings.Split(s, ",") {
		if k, v, ok := strings.Cut(pair, "="); ok {
			fields[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return fields
}

func addField(lc zerolog.Context, key string, value any) zerolog.Context {
	switch v := value.(type) {
	case string:
		return lc.Str(key, v)
	case int:
		return lc.Int(key, v)
	case float64:
		return lc.Float64(key, v)
	case bool:
		return lc.Bool(key, v)
	case time.Duration:
		return lc.Dur(key, v)
	case error:
		if key == zerolog.ErrorFieldName {
			return lc.Err(v)
		}
		return lc.Str(key, v.Error())
	default:
		return lc.Interface(key, v)
	}
}
