package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig       `toml:"server"`
	Database     DatabaseConfig     `toml:"database"`
	CORS         CORSConfig         `toml:"cors"`
	CoinCap      CoinCapConfig      `toml:"coincap"`
	PriceRefresh PriceRefreshConfig `toml:"price_refresh"`
	Logging      LoggingConfig      `toml:"logging"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string `toml:"port"`
	Host string `toml:"host"`
	Addr string `toml:"-"` // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

// CoinCapConfig holds settings for the CoinCap price source.
// APIKeyEncrypted is a fernet token; when set it is decrypted with SECRET_KEY
// and replaces APIKey.
type CoinCapConfig struct {
	BaseURL         string   `toml:"base_url"`
	APIKey          string   `toml:"api_key"`
	APIKeyEncrypted string   `toml:"api_key_encrypted"`
	RateLimit       int      `toml:"rate_limit"` // requests per second
	Timeout         Duration `toml:"timeout"`
}

// Duration is a time.Duration that decodes from strings such as "10s" in TOML files.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// PriceRefreshConfig holds settings for the scheduled price refresh.
type PriceRefreshConfig struct {
	Cron    string `toml:"cron"`     // six-field cron spec (with seconds) or descriptor
	Workers int    `toml:"workers"`  // worker pool size, bounds concurrent fetches
	OnStart bool   `toml:"on_start"` // run one batch at start-up
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "5001",
			Host: "localhost",
		},
		Database: DatabaseConfig{
			Path: "./data/crypto_wallet.db",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
		CoinCap: CoinCapConfig{
			BaseURL:   "https://rest.coincap.io/v3",
			RateLimit: 5,
			Timeout:   Duration(10 * time.Second),
		},
		PriceRefresh: PriceRefreshConfig{
			Cron:    "0 */5 * * * *",
			Workers: 4,
			OnStart: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from an optional TOML file, the .env file and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}

	if err := config.resolveSecrets(os.Getenv("SECRET_KEY")); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// loadFile merges a TOML file into config.
func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides config values with any environment variables that are set.
func applyEnv(config *Config) error {
	var err error

	config.Server.Port = getEnv("SERVER_PORT", config.Server.Port)
	config.Server.Host = getEnv("SERVER_HOST", config.Server.Host)
	config.Database.Path = getEnv("DB_PATH", config.Database.Path)

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		config.CORS.AllowedOrigins = splitList(origins)
	}

	config.CoinCap.BaseURL = getEnv("COINCAP_BASE_URL", config.CoinCap.BaseURL)
	config.CoinCap.APIKey = getEnv("COINCAP_API_KEY", config.CoinCap.APIKey)
	config.CoinCap.APIKeyEncrypted = getEnv("COINCAP_API_KEY_ENCRYPTED", config.CoinCap.APIKeyEncrypted)
	if config.CoinCap.RateLimit, err = getEnvInt("COINCAP_RATE_LIMIT", config.CoinCap.RateLimit); err != nil {
		return err
	}
	timeout, err := getEnvDuration("COINCAP_TIMEOUT", time.Duration(config.CoinCap.Timeout))
	if err != nil {
		return err
	}
	config.CoinCap.Timeout = Duration(timeout)

	config.PriceRefresh.Cron = getEnv("PRICE_REFRESH_CRON", config.PriceRefresh.Cron)
	if config.PriceRefresh.Workers, err = getEnvInt("PRICE_REFRESH_WORKERS", config.PriceRefresh.Workers); err != nil {
		return err
	}
	if config.PriceRefresh.OnStart, err = getEnvBool("PRICE_REFRESH_ON_START", config.PriceRefresh.OnStart); err != nil {
		return err
	}

	config.Logging.Level = getEnv("LOG_LEVEL", config.Logging.Level)
	config.Logging.Format = getEnv("LOG_FORMAT", config.Logging.Format)

	return nil
}

// resolveSecrets decrypts the encrypted CoinCap API key, if one is configured.
func (c *Config) resolveSecrets(secretKey string) error {
	if c.CoinCap.APIKeyEncrypted == "" {
		return nil
	}
	if secretKey == "" {
		return fmt.Errorf("COINCAP_API_KEY_ENCRYPTED is set but SECRET_KEY is empty")
	}

	key, err := fernet.DecodeKey(secretKey)
	if err != nil {
		return fmt.Errorf("invalid SECRET_KEY: %w", err)
	}

	plain := fernet.VerifyAndDecrypt([]byte(c.CoinCap.APIKeyEncrypted), 0, []*fernet.Key{key})
	if plain == nil {
		return fmt.Errorf("failed to decrypt COINCAP_API_KEY_ENCRYPTED")
	}

	c.CoinCap.APIKey = string(plain)
	return nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.PriceRefresh.Workers < 1 {
		return fmt.Errorf("PRICE_REFRESH_WORKERS must be at least 1, got %d", c.PriceRefresh.Workers)
	}
	if c.CoinCap.RateLimit < 1 {
		return fmt.Errorf("COINCAP_RATE_LIMIT must be at least 1, got %d", c.CoinCap.RateLimit)
	}
	if c.CoinCap.Timeout <= 0 {
		return fmt.Errorf("COINCAP_TIMEOUT must be positive, got %s", time.Duration(c.CoinCap.Timeout))
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.PriceRefresh.Cron); err != nil {
		return fmt.Errorf("invalid PRICE_REFRESH_CRON %q: %w", c.PriceRefresh.Cron, err)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
