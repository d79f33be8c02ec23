// Package config loads the server settings.
//
// Values are layered, later sources winning:
//
//	defaults → environment variables → command-line flags
//
// Load never exits the process; it returns an error and cmd/server decides
// what to do with it.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/notes-api/internal/auth"
)

// Config holds runtime settings for the notes server.
//
// Fields:
//   - Port: TCP port the HTTP server listens on.
//   - DatabaseURL: postgres://…, sqlite://path, file:…, :memory: or a bare path.
//   - TokenSecret: HMAC secret for signing session tokens (HS256).
//   - TokenTTL: lifetime of issued tokens.
//   - RequestTimeout: per-request deadline applied by the router.
//   - ShutdownTimeout: how long in-flight requests get on SIGINT/SIGTERM.
//   - CORSOrigins: allowed browser origins; "*" allows any.
//   - LogLevel / LogFormat: slog level and handler ("text" or "json").
type Config struct {
	Port            int
	DatabaseURL     string
	TokenSecret     string
	TokenTTL        time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	LogLevel        string
	LogFormat       string
}

// Environment variable names.
const (
	EnvPort           = "PORT"
	EnvDatabaseURL    = "DATABASE_URL"
	EnvTokenSecret    = "ACCESS_TOKEN_SECRET"
	EnvTokenTTL       = "TOKEN_TTL"
	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvCORSOrigins    = "CORS_ORIGINS"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
)

// Defaults returns the settings used when nothing else is given. The
// database URL and token secret have no default: they must be supplied.
func Defaults() Config {
	return Config{
		Port:            8000,
		TokenTTL:        auth.DefaultTokenTTL,
		RequestTimeout:  15 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load builds a Config from defaults, then getenv, then args (usually
// os.Args[1:]), and validates the result.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := Defaults()

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.applyFlags(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid %s %q: %w", EnvPort, v, err)
		}
		c.Port = port
	}
	if v := getenv(EnvDatabaseURL); v != "" {
		c.DatabaseURL = v
	}
	if v := getenv(EnvTokenSecret); v != "" {
		c.TokenSecret = v
	}
	if v := getenv(EnvTokenTTL); v != "" {
		d, err := parseMinutes(v)
		if err != nil {
			return fmt.Errorf("config: invalid %s: %w", EnvTokenTTL, err)
		}
		c.TokenTTL = d
	}
	if v := getenv(EnvRequestTimeout); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return fmt.Errorf("config: invalid %s: %w", EnvRequestTimeout, err)
		}
		c.RequestTimeout = d
	}
	if v := getenv(EnvCORSOrigins); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		c.LogFormat = v
	}
	return nil
}

// applyFlags overlays command-line flags.
//
// Supported flags:
//
//	-p int       HTTP port
//	-d string    database URL
//	-s string    token signing secret
//	-t duration  token lifetime (e.g. 36000m, 24h)
//	-T duration  per-request timeout
//	-o string    comma-separated CORS origins
//	-l string    log level (debug, info, warn, error)
//	-f string    log format (text, json)
func (c *Config) applyFlags(args []string) error {
	fs := flag.NewFlagSet("notes-api", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.IntVar(&c.Port, "p", c.Port, "HTTP port")
	fs.StringVar(&c.DatabaseURL, "d", c.DatabaseURL, "database URL")
	fs.StringVar(&c.TokenSecret, "s", c.TokenSecret, "token signing secret")
	fs.DurationVar(&c.TokenTTL, "t", c.TokenTTL, "token lifetime")
	fs.DurationVar(&c.RequestTimeout, "T", c.RequestTimeout, "per-request timeout")
	origins := fs.String("o", strings.Join(c.CORSOrigins, ","), "comma-separated CORS origins")
	fs.StringVar(&c.LogLevel, "l", c.LogLevel, "log level")
	fs.StringVar(&c.LogFormat, "f", c.LogFormat, "log format")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("config: parsing flags: %w", err)
	}

	c.CORSOrigins = splitList(*origins)
	return nil
}

// Validate reports every setting that would stop the server from starting.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d is out of range", c.Port))
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, fmt.Errorf("database URL is required (%s or -d)", EnvDatabaseURL))
	}
	if c.TokenSecret == "" {
		errs = append(errs, fmt.Errorf("token secret is required (%s or -s)", EnvTokenSecret))
	} else if len(c.TokenSecret) < auth.MinSecretLength {
		errs = append(errs, fmt.Errorf("token secret must be at least %d characters", auth.MinSecretLength))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token lifetime must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown timeout must be positive"))
	}
	if len(c.CORSOrigins) == 0 {
		errs = append(errs, errors.New("at least one CORS origin is required"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log format %q must be text or json", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// NewLogger builds the process logger described by LogLevel and LogFormat.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch c.LogFormat {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("config: log format %q must be text or json", c.LogFormat)
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level %q must be debug, info, warn or error", s)
	}
	return level, nil
}

// parseMinutes accepts Go duration syntax ("36000m", "24h") or a bare
// integer, read as minutes for compatibility with TOKEN_TTL=36000.
func parseMinutes(s string) (time.Duration, error) {
	return parseDuration(s, time.Minute)
}

// parseSeconds reads a bare integer as seconds: REQUEST_TIMEOUT=15 is 15s.
func parseSeconds(s string) (time.Duration, error) {
	return parseDuration(s, time.Second)
}

func parseDuration(s string, unit time.Duration) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * unit, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a duration", s)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
