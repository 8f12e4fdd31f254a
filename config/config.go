// Package config loads server settings from defaults, an optional config
// file, environment variables and command-line flags, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stevemurr/cafe-server/store"
)

// Keys double as environment variable names.
const (
	KeyHost            = "HOST"
	KeyPort            = "PORT"
	KeyDataDir         = "DATA_DIR"
	KeyBackend         = "STORE_BACKEND"
	KeyDatabaseURL     = "DATABASE_URL"
	KeyFrontendDir     = "FRONTEND_DIR"
	KeyAllowedOrigins  = "ALLOWED_ORIGINS"
	KeyLogLevel        = "LOG_LEVEL"
	KeyLogFormat       = "LOG_FORMAT"
	KeyShutdownTimeout = "SHUTDOWN_TIMEOUT"
)

// Config holds everything the server needs at startup.
type Config struct {
	Host            string
	Port            int
	DataDir         string
	Backend         string
	DatabaseURL     string
	FrontendDir     string
	AllowedOrigins  []string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyHost, "0.0.0.0")
	v.SetDefault(KeyPort, 4000)
	v.SetDefault(KeyDataDir, "./data")
	v.SetDefault(KeyBackend, "json")
	v.SetDefault(KeyDatabaseURL, "")
	v.SetDefault(KeyFrontendDir, "./my-app/build")
	v.SetDefault(KeyAllowedOrigins, "*")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyShutdownTimeout, 10*time.Second)
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"host":             KeyHost,
	"port":             KeyPort,
	"data-dir":         KeyDataDir,
	"backend":          KeyBackend,
	"database-url":     KeyDatabaseURL,
	"frontend-dir":     KeyFrontendDir,
	"allowed-origins":  KeyAllowedOrigins,
	"log-level":        KeyLogLevel,
	"log-format":       KeyLogFormat,
	"shutdown-timeout": KeyShutdownTimeout,
}

// RegisterFlags adds one flag per key to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("host", "0.0.0.0", "listen host")
	fs.Int("port", 4000, "listen port")
	fs.String("data-dir", "./data", "directory holding the collection files")
	fs.String("backend", "json", "store backend ("+strings.Join(store.Backends, ", ")+")")
	fs.String("database-url", "", "Postgres DSN for the postgres backend")
	fs.String("frontend-dir", "./my-app/build", "directory of the built front-end")
	fs.String("allowed-origins", "*", "comma-separated CORS origins")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "json", "log format (json, console)")
	fs.Duration("shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
}

// BindFlags binds the flags registered by RegisterFlags that exist in fs.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// NewViper returns a viper instance with defaults and environment lookup set
// up. When configFile is non-empty it is read; its format follows the file
// extension.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	return v, nil
}

// Load resolves a Config from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	c := Config{
		Host:            v.GetString(KeyHost),
		Port:            v.GetInt(KeyPort),
		DataDir:         v.GetString(KeyDataDir),
		Backend:         strings.ToLower(v.GetString(KeyBackend)),
		DatabaseURL:     v.GetString(KeyDatabaseURL),
		FrontendDir:     v.GetString(KeyFrontendDir),
		AllowedOrigins:  splitList(v.GetString(KeyAllowedOrigins)),
		LogLevel:        v.GetString(KeyLogLevel),
		LogFormat:       v.GetString(KeyLogFormat),
		ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
	}
	return c, c.Validate()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if !slices.Contains(store.Backends, c.Backend) {
		return fmt.Errorf("%w: %q", store.ErrUnknownBackend, c.Backend)
	}
	if c.Backend == "postgres" && c.DatabaseURL == "" {
		return errors.New("postgres backend requires " + KeyDatabaseURL)
	}
	if (c.Backend == "json" || strings.HasPrefix(c.Backend, "sqlite")) && c.DataDir == "" {
		return errors.New(KeyDataDir + " must not be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout %s", c.ShutdownTimeout)
	}
	return nil
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
