// Package config loads the process-wide settings once at startup.
//
// LAYERS (later wins):
//  1. Defaults()
//  2. a YAML file named by --config or TODO_CONFIG
//  3. environment variables (PORT, DATABASE_URL, JWT_SECRET, ...)
//  4. command-line flags that were explicitly set
//
// The result is validated before anyone sees it: Load fails without a
// database URL. The signing secret is only needed by commands that issue or
// check sessions, which call ValidateSecret.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/sakif/todolist/internal/auth"
)

// Config holds every runtime setting.
type Config struct {
	// Port is the HTTP listen port.
	Port int `yaml:"port"`
	// DatabaseURL selects the backend by scheme: sqlite://, postgres://,
	// mongodb:// (see repository/store).
	DatabaseURL string `yaml:"database_url"`
	// JWTSecret signs session tokens (HS256).
	JWTSecret string `yaml:"jwt_secret"`
	// TokenTTL is the session lifetime, for both the JWT and the cookie.
	TokenTTL time.Duration `yaml:"token_ttl"`
	// CookieSecure marks the session cookie Secure. Turn it off only for
	// plain-HTTP local development.
	CookieSecure bool `yaml:"cookie_secure"`
	// BcryptCost is the password hashing work factor.
	BcryptCost int `yaml:"bcrypt_cost"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogFormat is text or json.
	LogFormat string `yaml:"log_format"`
}

// Defaults returns the development defaults. JWTSecret is deliberately
// empty: there is no safe default for it.
func Defaults() *Config {
	return &Config{
		Port:         8080,
		DatabaseURL:  "sqlite://data/todos.db",
		TokenTTL:     auth.DefaultTokenTTL,
		CookieSecure: true,
		BcryptCost:   auth.DefaultCost,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// flagValues receives the raw flag values; only flags the user actually
// set are copied onto the Config.
type flagValues struct {
	configPath   string
	port         int
	databaseURL  string
	jwtSecret    string
	tokenTTL     time.Duration
	cookieSecure bool
	bcryptCost   int
	logLevel     string
	logFormat    string
}

func registerFlags(fs *pflag.FlagSet) *flagValues {
	v := &flagValues{}
	fs.StringVarP(&v.configPath, "config", "c", "", "path to a YAML config file (env TODO_CONFIG)")
	fs.IntVarP(&v.port, "port", "p", 0, "HTTP listen port (env PORT)")
	fs.StringVar(&v.databaseURL, "database-url", "", "sqlite://, postgres:// or mongodb:// URL (env DATABASE_URL)")
	fs.StringVar(&v.jwtSecret, "jwt-secret", "", fmt.Sprintf("session signing secret, at least %d chars (env JWT_SECRET)", auth.MinSecretLength))
	fs.DurationVar(&v.tokenTTL, "token-ttl", 0, "session lifetime (env TOKEN_TTL)")
	fs.BoolVar(&v.cookieSecure, "cookie-secure", true, "mark the session cookie Secure (env COOKIE_SECURE)")
	fs.IntVar(&v.bcryptCost, "bcrypt-cost", 0, "bcrypt work factor (env BCRYPT_COST)")
	fs.StringVar(&v.logLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
	fs.StringVar(&v.logFormat, "log-format", "", "text or json (env LOG_FORMAT)")
	return v
}

// Load parses args with fs (created if nil) and resolves the layered
// configuration. getenv is os.Getenv in production and a map lookup in
// tests. Callers may register their own flags on fs before calling Load.
func Load(fs *pflag.FlagSet, args []string, getenv func(string) string) (*Config, error) {
	if fs == nil {
		fs = pflag.NewFlagSet("todolist", pflag.ContinueOnError)
	}
	if getenv == nil {
		getenv = os.Getenv
	}

	flags := registerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Defaults()

	path := flags.configPath
	if path == "" {
		path = getenv("TODO_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = flags.port
		case "database-url":
			cfg.DatabaseURL = flags.databaseURL
		case "jwt-secret":
			cfg.JWTSecret = flags.jwtSecret
		case "token-ttl":
			cfg.TokenTTL = flags.tokenTTL
		case "cookie-secure":
			cfg.CookieSecure = flags.cookieSecure
		case "bcrypt-cost":
			cfg.BcryptCost = flags.bcryptCost
		case "log-level":
			cfg.LogLevel = flags.logLevel
		case "log-format":
			cfg.LogFormat = flags.logFormat
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays the YAML file at path. Keys absent from the file keep
// their current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid TOKEN_TTL %q: %w", v, err)
		}
		c.TokenTTL = ttl
	}
	if v := getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: invalid COOKIE_SECURE %q: %w", v, err)
		}
		c.CookieSecure = secure
	}
	if v := getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid BCRYPT_COST %q: %w", v, err)
		}
		c.BcryptCost = cost
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	return nil
}

// ValidateSecret checks the session signing secret. The server and
// "todoctl useradd" call it; "todoctl migrate" never touches sessions.
func (c *Config) ValidateSecret() error {
	if len(c.JWTSecret) < auth.MinSecretLength {
		return fmt.Errorf("config: jwt secret must be at least %d characters (set JWT_SECRET)", auth.MinSecretLength)
	}
	return nil
}

// Validate reports every problem at once. It does not check the signing
// secret; see ValidateSecret.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("database url is required (set DATABASE_URL)"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log format must be text or json, got %q", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
