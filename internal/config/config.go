package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config holds the server settings
type Config struct {
	Port           string
	LogLevel       string
	LogFormat      string
	SessionTTL     time.Duration
	SweepInterval  time.Duration
	AllowedOrigins []string // empty allows any origin
	EnvFile        string
}

// Default returns the settings used when nothing else is given
func Default() Config {
	return Config{
		Port:          "8080",
		LogLevel:      "info",
		LogFormat:     "text",
		SessionTTL:    30 * time.Minute,
		SweepInterval: time.Minute,
		EnvFile:       ".env",
	}
}

// Load builds the configuration from defaults, the .env file, the process
// environment and args, each overriding the previous one. args excludes the
// program name.
func Load(args []string) (Config, error) {
	cfg := Default()

	fset := pflag.NewFlagSet("server", pflag.ContinueOnError)
	port := fset.StringP("port", "p", "", "port to listen on")
	logLevel := fset.String("log-level", "", "log level (debug, info, warn, error)")
	logFormat := fset.String("log-format", "", "log format (text, json)")
	ttl := fset.Duration("session-ttl", 0, "idle time before a session without clients is removed")
	sweep := fset.Duration("sweep-interval", 0, "how often expired sessions are removed")
	origins := fset.StringSlice("allowed-origins", nil, "origins accepted by the WebSocket endpoint")
	envFile := fset.String("env-file", cfg.EnvFile, "path of the .env file")

	if err := fset.Parse(args); err != nil {
		return cfg, err
	}

	// Variables already set in the environment win over the file
	cfg.EnvFile = *envFile
	if err := godotenv.Load(cfg.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("loading %s: %w", cfg.EnvFile, err)
	}

	if err := cfg.fromEnv(); err != nil {
		return cfg, err
	}

	if fset.Changed("port") {
		cfg.Port = *port
	}
	if fset.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if fset.Changed("log-format") {
		cfg.LogFormat = *logFormat
	}
	if fset.Changed("session-ttl") {
		cfg.SessionTTL = *ttl
	}
	if fset.Changed("sweep-interval") {
		cfg.SweepInterval = *sweep
	}
	if fset.Changed("allowed-origins") {
		cfg.AllowedOrigins = *origins
	}

	return cfg, cfg.Validate()
}

func (c *Config) fromEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SESSION_TTL: %w", err)
		}
		c.SessionTTL = d
	}
	if v := os.Getenv("SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SWEEP_INTERVAL: %w", err)
		}
		c.SweepInterval = d
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	return nil
}

// Validate checks that the settings are usable
func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval)
	}
	return nil
}

// Addr returns the listen address for Port
func (c Config) Addr() string {
	return ":" + c.Port
}

// OriginAllowed reports whether a WebSocket handshake from origin is accepted
func (c Config) OriginAllowed(origin string) bool {
	if len(c.AllowedOrigins) == 0 || origin == "" {
		return true
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
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
