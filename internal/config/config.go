// Package config provides functionality for managing configuration options
// for the server and the client using command-line flags, an optional JSON
// config file and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"
)

// ServerOptions holds the configuration values for the reference backend.
type ServerOptions struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// JWTSecret signs access tokens.
	JWTSecret string `json:"jwt_secret"`

	// AccessTokenTTL is the lifetime of an access token.
	AccessTokenTTL Duration `json:"access_token_ttl"`

	// RefreshTokenTTL is the lifetime of a refresh token.
	RefreshTokenTTL Duration `json:"refresh_token_ttl"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// LogLevel is passed to the zap logger.
	LogLevel string `json:"log_level"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// ClientOptions holds the configuration values for the mobile client shell.
type ClientOptions struct {
	// APIURL is the backend base URL.
	APIURL string `json:"api_url"`

	// DataDir is where credentials and the device key are kept.
	DataDir string `json:"data_dir"`

	// CAFile optionally pins the CA used to verify the backend.
	CAFile string `json:"ca_file"`

	// RequestTimeout bounds every HTTP request.
	RequestTimeout Duration `json:"request_timeout"`

	// SyncInterval is the period of the weekly-count background sync.
	SyncInterval Duration `json:"sync_interval"`

	// LogLevel is passed to the zap logger.
	LogLevel string `json:"log_level"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// Duration is a time.Duration that reads "15m"-style strings from JSON.
type Duration struct {
	time.Duration
}

// UnmarshalJSON accepts either a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		d.Duration = parsed
	case float64:
		d.Duration = time.Duration(val)
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

// ParseServer parses args, the config file and environment variables into
// ServerOptions. Environment variables win over the config file, and the
// config file wins over flags, including flags set explicitly.
func ParseServer(args []string) (*ServerOptions, error) {
	options := &ServerOptions{}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.JWTSecret, "jwt-secret", "dev-secret-change-me", "secret used to sign access tokens")
	fs.DurationVar(&options.AccessTokenTTL.Duration, "access-ttl", 15*time.Minute, "access token lifetime")
	fs.DurationVar(&options.RefreshTokenTTL.Duration, "refresh-ttl", 7*24*time.Hour, "refresh token lifetime")
	fs.StringVar(&options.TLSCert, "tls-cert", "", "path to server TLS certificate")
	fs.StringVar(&options.TLSKey, "tls-key", "", "path to server TLS key")
	fs.StringVar(&options.LogLevel, "log-level", "info", "log level")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}
	if err := loadFile(options.Config, options); err != nil {
		return nil, err
	}

	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		options.Port = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		options.DatabaseDSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		options.JWTSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		options.LogLevel = v
	}
	if err := durationEnv("ACCESS_TOKEN_TTL", &options.AccessTokenTTL); err != nil {
		return nil, err
	}
	if err := durationEnv("REFRESH_TOKEN_TTL", &options.RefreshTokenTTL); err != nil {
		return nil, err
	}

	return options, nil
}

// ParseClient parses args, the config file and environment variables into
// ClientOptions with the same precedence as ParseServer.
func ParseClient(args []string) (*ClientOptions, error) {
	options := &ClientOptions{}
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.StringVar(&options.APIURL, "url", "http://localhost:8080", "server base URL")
	fs.StringVar(&options.DataDir, "data", ".gymkeeper", "directory for credentials and device key")
	fs.StringVar(&options.CAFile, "ca", "", "path to CA cert used to verify the server")
	fs.DurationVar(&options.RequestTimeout.Duration, "timeout", 10*time.Second, "HTTP request timeout")
	fs.DurationVar(&options.SyncInterval.Duration, "sync", time.Minute, "weekly exercise count sync interval")
	fs.StringVar(&options.LogLevel, "log-level", "warn", "log level")
	fs.StringVar(&options.Config, "config", "client.json", "path to config file")
	fs.StringVar(&options.Config, "c", "client.json", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}
	if err := loadFile(options.Config, options); err != nil {
		return nil, err
	}

	if v := os.Getenv("API_URL"); v != "" {
		options.APIURL = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		options.DataDir = v
	}
	if v := os.Getenv("CA_FILE"); v != "" {
		options.CAFile = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		options.LogLevel = v
	}
	if err := durationEnv("SYNC_INTERVAL", &options.SyncInterval); err != nil {
		return nil, err
	}
	if err := durationEnv("REQUEST_TIMEOUT", &options.RequestTimeout); err != nil {
		return nil, err
	}

	if options.SyncInterval.Duration <= 0 {
		return nil, fmt.Errorf("sync interval must be positive, got %s", options.SyncInterval.Duration)
	}
	if options.RequestTimeout.Duration <= 0 {
		return nil, fmt.Errorf("request timeout must be positive, got %s", options.RequestTimeout.Duration)
	}

	return options, nil
}

// loadFile overlays the JSON document at path onto dst. A missing file is
// not an error.
func loadFile(path string, dst any) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func durationEnv(key string, dst *Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	dst.Duration = parsed
	return nil
}
