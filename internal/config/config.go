// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Storage   StorageConfig
	Server    ServerConfig
	Providers ProvidersConfig
	Import    ImportConfig
	Analytics AnalyticsConfig
	Defaults  DefaultsConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig holds locations and policies for both cache tiers.
type StorageConfig struct {
	DataPath      string        // Root directory (default: ~/ListenUp/aggregator)
	CachePath     string        // Badger directory (default: {data}/cache)
	DatabasePath  string        // SQLite file (default: {data}/library.db)
	CacheTTL      time.Duration // Default entry TTL (default: 24h)
	CompressCache bool          // zstd-compress cache values (default: true)
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           string        // Server port (default: 8080)
	ReadTimeout    time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout   time.Duration // HTTP write timeout (default: 60s, imports run long)
	IdleTimeout    time.Duration // HTTP idle timeout (default: 60s)
	RateLimitRPS   float64       // Inbound requests per second per client (default: 5)
	RateLimitBurst int           // Inbound burst per client (default: 20)
	CORSOrigins    []string      // Allowed origins for the admin UI (default: none)
}

// ProvidersConfig holds outbound provider call settings.
type ProvidersConfig struct {
	CallTimeout      time.Duration // Per-provider call bound inside a fan-out (default: 10s)
	BlockingPoolSize int           // Off-load slots for blocking adapters (default: 4)
	UserAgent        string
	AudibleRegion    string // Audible marketplace (default: us)
}

// ImportConfig holds list import settings.
type ImportConfig struct {
	ChunkSize  int           // Identifiers resolved per chunk (default: 10)
	ChunkPause time.Duration // Pause after each chunk (default: 200ms)
	Workers    int           // Background import workers (default: 2)
	QueueSize  int           // Pending background imports (default: 32)
}

// AnalyticsConfig holds anonymized attribution settings.
type AnalyticsConfig struct {
	DeviceSecret string // Key for device tokens
	GeoEndpoint  string // Country lookup base URL (default: http://ip-api.com/json)
}

// DefaultsConfig seeds runtime settings the first time the store is opened.
// After that, runtime settings are read from the store on every request.
type DefaultsConfig struct {
	SearchLimit     int
	ScrapePageLimit int
	PRHKey          string
	HardcoverKey    string
	GoogleBooksKey  string
}

// LoadConfig loads configuration from the process arguments with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load parses args as flags and builds the configuration. A nil args slice
// skips flag parsing entirely, which lets other binaries reuse the env layer.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("aggregator", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for cache and database")
	cachePath := fs.String("cache-path", "", "Path for the ephemeral cache")
	dbPath := fs.String("db-path", "", "Path for the durable library database")
	cacheTTL := fs.String("cache-ttl", "", "Default cache entry TTL (default: 24h)")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 60s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	callTimeout := fs.String("provider-timeout", "", "Per-provider call timeout (default: 10s)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if args != nil {
		if err := fs.Parse(args); err != nil {
			return nil, fmt.Errorf("parse flags: %w", err)
		}
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			DataPath:      getConfigValue(*dataPath, "DATA_PATH", ""),
			CachePath:     getConfigValue(*cachePath, "CACHE_PATH", ""),
			DatabasePath:  getConfigValue(*dbPath, "DB_PATH", ""),
			CompressCache: getBoolConfigValue("", "CACHE_COMPRESS", true),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			RateLimitRPS:   getFloatConfigValue("", "RATE_LIMIT_RPS", 5),
			RateLimitBurst: getIntConfigValue("", "RATE_LIMIT_BURST", 20),
			CORSOrigins:    splitList(getConfigValue("", "CORS_ORIGINS", "")),
		},
		Providers: ProvidersConfig{
			BlockingPoolSize: getIntConfigValue("", "PROVIDER_BLOCKING_POOL", 4),
			UserAgent:        getConfigValue("", "PROVIDER_USER_AGENT", "Mozilla/5.0 (compatible; AudiobookAggregator/1.0)"),
			AudibleRegion:    getConfigValue("", "AUDIBLE_REGION", "us"),
		},
		Import: ImportConfig{
			ChunkSize: getIntConfigValue("", "IMPORT_CHUNK_SIZE", 10),
			Workers:   getIntConfigValue("", "IMPORT_WORKERS", 2),
			QueueSize: getIntConfigValue("", "IMPORT_QUEUE_SIZE", 32),
		},
		Analytics: AnalyticsConfig{
			DeviceSecret: getConfigValue("", "DEVICE_SECRET", ""),
			GeoEndpoint:  getConfigValue("", "GEO_ENDPOINT", "http://ip-api.com/json"),
		},
		Defaults: DefaultsConfig{
			SearchLimit:     getIntConfigValue("", "SEARCH_LIMIT", 5),
			ScrapePageLimit: getIntConfigValue("", "SCRAPE_PAGE_LIMIT", 100),
			PRHKey:          getConfigValue("", "PRH_API_KEY", ""),
			HardcoverKey:    getConfigValue("", "HARDCOVER_API_KEY", ""),
			GoogleBooksKey:  getConfigValue("", "GOOGLE_BOOKS_API_KEY", ""),
		},
	}

	durations := []struct {
		flagValue, envKey, def string
		dest                   *time.Duration
	}{
		{*cacheTTL, "CACHE_TTL", "24h", &cfg.Storage.CacheTTL},
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "60s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{*callTimeout, "PROVIDER_TIMEOUT", "10s", &cfg.Providers.CallTimeout},
		{"", "IMPORT_CHUNK_PAUSE", "200ms", &cfg.Import.ChunkPause},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dest = parsed
	}

	if err := cfg.expandStoragePaths(); err != nil {
		return nil, fmt.Errorf("invalid storage path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.CachePath == "" || c.Storage.DatabasePath == "" {
		return errors.New("storage paths cannot be empty after expansion")
	}

	if c.Storage.CacheTTL <= 0 {
		return errors.New("cache TTL must be positive")
	}

	if c.Providers.CallTimeout <= 0 {
		return errors.New("provider timeout must be positive")
	}

	if c.Providers.BlockingPoolSize < 1 {
		return errors.New("blocking pool size must be at least 1")
	}

	if c.Import.ChunkSize < 1 {
		return errors.New("import chunk size must be at least 1")
	}

	if c.Import.Workers < 1 || c.Import.QueueSize < 1 {
		return errors.New("import workers and queue size must be at least 1")
	}

	if c.App.Environment == "production" && c.Analytics.DeviceSecret == "" {
		return errors.New("DEVICE_SECRET is required in production")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandStoragePaths resolves the data root first, then derives the cache
// and database locations from it when they were not set explicitly.
func (c *Config) expandStoragePaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	data, err := expandPath(c.Storage.DataPath, filepath.Join(homeDir, "ListenUp", "aggregator"))
	if err != nil {
		return err
	}
	c.Storage.DataPath = data

	cache, err := expandPath(c.Storage.CachePath, filepath.Join(data, "cache"))
	if err != nil {
		return err
	}
	c.Storage.CachePath = cache

	db, err := expandPath(c.Storage.DatabasePath, filepath.Join(data, "library.db"))
	if err != nil {
		return err
	}
	c.Storage.DatabasePath = db

	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
