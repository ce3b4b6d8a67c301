package config

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the geocoding service.
// It includes the environment, server port, provider settings, batch size,
// interval for processing, and database configuration.
type Config struct {
	Env        string         // Env is the current environment: local, development, production.
	Port       int            // Port is the monitoring server port.
	Provider   ProviderConfig // Provider holds the geocoding provider settings.
	BatchSize  int            // BatchSize is the maximum number of tasks geocoded per poll.
	Interval   time.Duration  // Interval is the duration between polls.
	AddrPrefix string         // AddrPrefix is prepended to addresses for more accurate geocoding.
	Database   PostgresConfig // Database holds the postgres database configuration.
}

// ProviderConfig holds the geocoding provider settings.
type ProviderConfig struct {
	Type      string        // Type is the provider to use: azure, maptiler, tomtom, google.
	APIKey    string        // APIKey is the API or subscription key.
	Domain    string        // Domain overrides the vendor host.
	Scheme    string        // Scheme is http or https.
	Timeout   time.Duration // Timeout is the default per-request timeout.
	Proxy     string        // Proxy is an optional proxy URL.
	UserAgent string        // UserAgent overrides the default User-Agent header.
	Languages []string      // Languages are the preferred result languages.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

var defaults = map[string]string{
	"MERIDIAN_ENV":              "production",
	"MERIDIAN_HEALTH_PORT":      "8080",
	"MERIDIAN_PROVIDER_TYPE":    "azure",
	"MERIDIAN_PROVIDER_SCHEME":  "https",
	"MERIDIAN_PROVIDER_TIMEOUT": "10s",
	"MERIDIAN_INTERVAL":         "10m",
	"MERIDIAN_BATCH_SIZE":       "100",
	"DB_PORT":                   "5432",
}

// MustLoad loads the configuration and panics if it is invalid.
func MustLoad(envFiles ...string) *Config {
	cfg, err := Load(envFiles...)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

// Load reads the configuration from environment variables. Values found in
// the given .env files (".env" when none are given) fill in variables that are
// not set in the environment.
func Load(envFiles ...string) (*Config, error) {
	vpr := viper.New()
	vpr.AutomaticEnv()
	for key, value := range defaults {
		vpr.SetDefault(key, value)
	}

	fileValues, err := godotenv.Read(envFiles...)
	if err != nil && (len(envFiles) > 0 || !errors.Is(err, fs.ErrNotExist)) {
		return nil, errors.New("failed to read env file")
	}
	for key, value := range fileValues {
		vpr.SetDefault(key, value)
	}

	interval, err := time.ParseDuration(vpr.GetString("MERIDIAN_INTERVAL"))
	if err != nil {
		return nil, errors.New("failed to parse interval from configuration")
	}

	timeout, err := time.ParseDuration(vpr.GetString("MERIDIAN_PROVIDER_TIMEOUT"))
	if err != nil {
		return nil, errors.New("failed to parse provider timeout from configuration")
	}

	healthPort, err := strconv.Atoi(vpr.GetString("MERIDIAN_HEALTH_PORT"))
	if err != nil {
		return nil, errors.New("failed to parse port for monitoring server from configuration")
	}

	batchSize, err := strconv.Atoi(vpr.GetString("MERIDIAN_BATCH_SIZE"))
	if err != nil || batchSize <= 0 {
		return nil, errors.New("failed to parse batch size from configuration, must be a positive integer")
	}

	return &Config{
		Env:  vpr.GetString("MERIDIAN_ENV"),
		Port: healthPort,
		Provider: ProviderConfig{
			Type:      vpr.GetString("MERIDIAN_PROVIDER_TYPE"),
			APIKey:    vpr.GetString("MERIDIAN_PROVIDER_KEY"),
			Domain:    vpr.GetString("MERIDIAN_PROVIDER_DOMAIN"),
			Scheme:    vpr.GetString("MERIDIAN_PROVIDER_SCHEME"),
			Timeout:   timeout,
			Proxy:     vpr.GetString("MERIDIAN_PROXY"),
			UserAgent: vpr.GetString("MERIDIAN_USER_AGENT"),
			Languages: splitList(vpr.GetString("MERIDIAN_LANGUAGE")),
		},
		BatchSize:  batchSize,
		Interval:   interval,
		AddrPrefix: vpr.GetString("MERIDIAN_ADDRESS_PREFIX"),
		Database: PostgresConfig{
			Host:     vpr.GetString("DB_HOST"),
			Port:     vpr.GetString("DB_PORT"),
			User:     vpr.GetString("DB_USERNAME"),
			Password: vpr.GetString("DB_PASSWORD"),
			Name:     vpr.GetString("DB_NAME"),
		},
	}, nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
