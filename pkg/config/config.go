package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/jjpenad/cfma-acgi-integration/pkg/common"
)

// Config represents the main configuration structure. Credentials come from
// the environment (optionally a .env file); tuning knobs may additionally be
// set through a JSON config file.
type Config struct {
	// ACGI source system configuration
	ACGI ACGIConfig `json:"acgi"`

	// HubSpot destination configuration
	HubSpot HubSpotConfig `json:"hubspot"`

	// Store is the MongoDB-backed configuration/mapping store
	Store StoreConfig `json:"store"`

	// Sync tuning
	Sync SyncSettings `json:"sync"`

	// Logging level: debug, info, warn, error
	LogLevel string `json:"logLevel"`
}

// ACGIConfig represents the source system credentials and endpoint.
type ACGIConfig struct {
	BaseURL     string `json:"baseUrl"`     // Service base URL
	Username    string `json:"username"`    // Integrator username (vendor id)
	Password    string `json:"password"`    // Integrator password
	Environment string `json:"environment"` // "test" or "production"
	TimeoutSecs int    `json:"timeoutSecs"` // Per-request timeout in seconds
}

// EnvironmentSegment returns the URL path segment for the configured
// environment.
func (c ACGIConfig) EnvironmentSegment() string {
	if c.Environment == "test" {
		return "cetdigitdev"
	}
	return "cetdigit"
}

// HubSpotConfig represents the destination API configuration. Each object
// type may carry its own API key with its own rate-limit budget; KeyFor
// resolves the precedence.
type HubSpotConfig struct {
	BaseURL           string            `json:"baseUrl"`
	APIKey            string            `json:"apiKey"`            // General key
	ObjectTypeKeys    map[string]string `json:"objectTypeKeys"`    // Optional per-object-type keys
	CustomObjectTypes map[string]string `json:"customObjectTypes"` // object type -> custom object type id
	RequestsPerSecond float64           `json:"requestsPerSecond"` // Client-side request budget per key
	TimeoutSecs       int               `json:"timeoutSecs"`
}

// KeyFor returns the API key to use for an object type: the object-type key
// when set and non-empty, otherwise the general key.
func (c HubSpotConfig) KeyFor(objectType common.ObjectType) string {
	if key, ok := c.ObjectTypeKeys[string(objectType)]; ok && key != "" {
		return key
	}
	return c.APIKey
}

// CustomObjectTypeID returns the destination type id for a custom object
// family, falling back to the object type name itself so sandbox portals with
// fully-qualified schema names keep working.
func (c HubSpotConfig) CustomObjectTypeID(objectType common.ObjectType) string {
	if id, ok := c.CustomObjectTypes[string(objectType)]; ok && id != "" {
		return id
	}
	return string(objectType)
}

// StoreConfig represents the MongoDB record store configuration.
type StoreConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

// SyncSettings represents orchestration tuning.
type SyncSettings struct {
	DefaultIntervalMinutes int         `json:"defaultIntervalMinutes"` // Used when no persisted config exists
	InterRequestDelayMs    int         `json:"interRequestDelayMs"`    // Fixed delay between source calls
	Retry                  RetryConfig `json:"retry"`
}

// RetryConfig represents retry configuration for destination writes.
type RetryConfig struct {
	MaxRetries  int `json:"maxRetries"`  // Maximum number of retries
	BaseDelayMs int `json:"baseDelayMs"` // Base delay in milliseconds
	MaxDelayMs  int `json:"maxDelayMs"`  // Maximum delay in milliseconds
}

// AllowedIntervals are the discrete scheduling intervals, in minutes.
var AllowedIntervals = []int{5, 10, 15, 30, 60}

// ValidInterval reports whether minutes is one of the allowed interval values.
func ValidInterval(minutes int) bool {
	for _, v := range AllowedIntervals {
		if v == minutes {
			return true
		}
	}
	return false
}

// Load builds the configuration: .env file (if present), then environment
// variables, then an optional JSON config file for tuning, then defaults.
func Load(configPath string) (*Config, error) {
	// Missing .env is fine; environment variables may already be set.
	_ = godotenv.Load()

	config := &Config{}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	applyEnv(config)
	applyDefaults(config)

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnv overlays environment variables onto the config. Environment wins
// over the file for credential material.
func applyEnv(config *Config) {
	setString(&config.ACGI.BaseURL, "ACGI_API_URL")
	setString(&config.ACGI.Username, "ACGI_USERNAME")
	setString(&config.ACGI.Password, "ACGI_PASSWORD")
	setString(&config.ACGI.Environment, "ACGI_ENVIRONMENT")

	setString(&config.HubSpot.APIKey, "HUBSPOT_API_KEY")
	if config.HubSpot.ObjectTypeKeys == nil {
		config.HubSpot.ObjectTypeKeys = make(map[string]string)
	}
	for _, objectType := range common.PipelineObjectTypes {
		envName := "HUBSPOT_API_KEY_" + strings.ToUpper(string(objectType))
		if v := os.Getenv(envName); v != "" {
			config.HubSpot.ObjectTypeKeys[string(objectType)] = v
		}
	}

	setString(&config.Store.URI, "MONGODB_URI")
	setString(&config.Store.Database, "MONGODB_DATABASE")
	setString(&config.LogLevel, "LOG_LEVEL")

	if v := os.Getenv("SYNC_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Sync.DefaultIntervalMinutes = n
		}
	}
}

func setString(dst *string, envName string) {
	if v := os.Getenv(envName); v != "" {
		*dst = v
	}
}

// applyDefaults fills in defaults for unset tuning values.
func applyDefaults(config *Config) {
	if config.ACGI.BaseURL == "" {
		config.ACGI.BaseURL = "https://ams.cfma.org"
	}

	if config.ACGI.Environment == "" {
		config.ACGI.Environment = "production"
	}

	if config.ACGI.TimeoutSecs <= 0 {
		config.ACGI.TimeoutSecs = 30 // Default to 30 seconds per request
	}

	if config.HubSpot.BaseURL == "" {
		config.HubSpot.BaseURL = "https://api.hubapi.com"
	}

	if config.HubSpot.TimeoutSecs <= 0 {
		config.HubSpot.TimeoutSecs = 30
	}

	if config.HubSpot.RequestsPerSecond <= 0 {
		config.HubSpot.RequestsPerSecond = 5 // Conservative per-key budget
	}

	if config.Store.Database == "" {
		config.Store.Database = "acgi_integration"
	}

	if config.Sync.DefaultIntervalMinutes <= 0 {
		config.Sync.DefaultIntervalMinutes = 15
	}

	if config.Sync.Retry.MaxRetries <= 0 {
		config.Sync.Retry.MaxRetries = 3
	}

	if config.Sync.Retry.BaseDelayMs <= 0 {
		config.Sync.Retry.BaseDelayMs = 500
	}

	if config.Sync.Retry.MaxDelayMs <= 0 {
		config.Sync.Retry.MaxDelayMs = 10000
	}

	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.ACGI.Username == "" {
		return fmt.Errorf("ACGI username is required (ACGI_USERNAME)")
	}

	if config.ACGI.Password == "" {
		return fmt.Errorf("ACGI password is required (ACGI_PASSWORD)")
	}

	if config.ACGI.Environment != "test" && config.ACGI.Environment != "production" {
		return fmt.Errorf("invalid ACGI environment %q: must be 'test' or 'production'", config.ACGI.Environment)
	}

	hasTypeKey := false
	for _, key := range config.HubSpot.ObjectTypeKeys {
		if key != "" {
			hasTypeKey = true
			break
		}
	}
	if config.HubSpot.APIKey == "" && !hasTypeKey {
		return fmt.Errorf("at least one HubSpot API key is required (HUBSPOT_API_KEY)")
	}

	if config.Store.URI == "" {
		return fmt.Errorf("MongoDB connection string is required (MONGODB_URI)")
	}

	if !ValidInterval(config.Sync.DefaultIntervalMinutes) {
		return fmt.Errorf("invalid sync interval %d: allowed values are %v",
			config.Sync.DefaultIntervalMinutes, AllowedIntervals)
	}

	return nil
}
