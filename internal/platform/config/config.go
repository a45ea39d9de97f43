package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile       = ".env"
	defaultPort          = "8080"
	defaultReadTimeout   = 15 * time.Second
	defaultWriteTimeout  = 15 * time.Second
	defaultIdleTimeout   = 60 * time.Second
	defaultContentDir    = "content"
	defaultPingInterval  = 30 * time.Second
	defaultMaxFrameBytes = 64 * 1024
	defaultSyncTokenTTL  = 12 * time.Hour

	minSyncSecretLength = 16
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server  ServerConfig
	Content ContentConfig
	Bridge  BridgeConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// ContentConfig locates the vendor template documents seeded at startup.
type ContentConfig struct {
	Dir string
}

// BridgeConfig controls the inline editing bridge.
type BridgeConfig struct {
	// AllowedOrigins lists parent editor origins the bridge may talk to.
	// A single "*" entry disables the origin check.
	AllowedOrigins  []string
	CommitOnUnmount bool
	PingInterval    time.Duration
	MaxFrameBytes   int64
	// SyncSecret signs the tokens a parent editor presents with template-sync.
	// Empty disables template-sync.
	SyncSecret      string
	SyncTokenTTL    time.Duration
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// and environment variables.
func Load(_ context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	// Cloud Run injects PORT; the prefixed key wins when both are set.
	port := stringWithDefault(lookup, "PORT", defaultPort)
	port = stringWithDefault(lookup, "STOREFRONT_SERVER_PORT", port)

	cfg := Config{
		Server: ServerConfig{
			Port:         port,
			ReadTimeout:  durationWithDefault(lookup, "STOREFRONT_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "STOREFRONT_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "STOREFRONT_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Content: ContentConfig{
			Dir: stringWithDefault(lookup, "STOREFRONT_CONTENT_DIR", defaultContentDir),
		},
		Bridge: BridgeConfig{
			AllowedOrigins:  normalizeOrigins(csvWithDefault(lookup, "STOREFRONT_BRIDGE_ALLOWED_ORIGINS")),
			CommitOnUnmount: boolWithDefault(lookup, "STOREFRONT_BRIDGE_COMMIT_ON_UNMOUNT", false),
			PingInterval:    durationWithDefault(lookup, "STOREFRONT_BRIDGE_PING_INTERVAL", defaultPingInterval),
			MaxFrameBytes:   int64(intWithDefault(lookup, "STOREFRONT_BRIDGE_MAX_FRAME_BYTES", defaultMaxFrameBytes)),
			SyncSecret:      stringWithDefault(lookup, "STOREFRONT_BRIDGE_SYNC_SECRET", ""),
			SyncTokenTTL:    durationWithDefault(lookup, "STOREFRONT_BRIDGE_SYNC_TOKEN_TTL", defaultSyncTokenTTL),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if strings.TrimSpace(cfg.Server.Port) == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Server.ReadTimeout <= 0 {
		missing = append(missing, "Server.ReadTimeout")
	}
	if cfg.Server.WriteTimeout <= 0 {
		missing = append(missing, "Server.WriteTimeout")
	}
	if strings.TrimSpace(cfg.Content.Dir) == "" {
		missing = append(missing, "Content.Dir")
	}
	for _, origin := range cfg.Bridge.AllowedOrigins {
		if origin == "*" {
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			missing = append(missing, "Bridge.AllowedOrigins")
			break
		}
	}
	if cfg.Bridge.PingInterval <= 0 {
		missing = append(missing, "Bridge.PingInterval")
	}
	if cfg.Bridge.MaxFrameBytes <= 0 {
		missing = append(missing, "Bridge.MaxFrameBytes")
	}
	if cfg.Bridge.SyncSecret != "" && len(cfg.Bridge.SyncSecret) < minSyncSecretLength {
		missing = append(missing, "Bridge.SyncSecret")
	}
	if cfg.Bridge.SyncTokenTTL <= 0 {
		missing = append(missing, "Bridge.SyncTokenTTL")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

// normalizeOrigins lower-cases origins and drops trailing slashes so they compare
// equal to the origin strings browsers report.
func normalizeOrigins(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimRight(strings.ToLower(strings.TrimSpace(v)), "/")
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(parts[1]), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
