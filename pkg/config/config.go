package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Settings-store backends
const (
	StoreBackendFile  = "file"
	StoreBackendRedis = "redis"
)

// Config holds the configuration for the eyeguard daemon
type Config struct {
	// MQTT configuration
	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string

	// Settings store configuration
	StoreBackend  string // "file" or "redis"
	SettingsPath  string // file backend
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Usage history (optional, disabled when PostgresHost is empty)
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Service configuration
	ServiceName string
	HealthPort  int
	LogLevel    string

	// Eye-care defaults applied when no persisted settings exist
	DefaultTemperatureK     int
	DefaultBrightnessPct    int
	DefaultReminderEnabled  bool
	DefaultReminderMinutes  int
	CompensationPolicy      string
	CompensationStrengthPct int
	LuminanceCap            float64

	// Deployment clamp for user-facing temperature commands. The model
	// itself accepts [1000, 40000]; this narrows what the UI can request.
	MinTemperatureK int
	MaxTemperatureK int

	// Automatic color temperature from sun position
	AutoTempEnabled     bool
	Latitude            float64
	Longitude           float64
	AutoTempDayK        int
	AutoTempNightK      int
	AutoTempIntervalSec int
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		MQTTBroker:   "localhost",
		MQTTPort:     1883,
		MQTTClientID: "",

		StoreBackend: StoreBackendFile,
		SettingsPath: "eyeguard-settings.json",
		RedisHost:    "localhost",
		RedisPort:    6379,
		RedisDB:      0,

		PostgresHost:    "",
		PostgresPort:    5432,
		PostgresUser:    "eyeguard",
		PostgresDB:      "eyeguard",
		PostgresSSLMode: "disable",

		ServiceName: "eyecare-agent",
		HealthPort:  8080,
		LogLevel:    "info",

		DefaultTemperatureK:     5000,
		DefaultBrightnessPct:    90,
		DefaultReminderEnabled:  true,
		DefaultReminderMinutes:  45,
		CompensationPolicy:      "strength_blend",
		CompensationStrengthPct: 85,
		LuminanceCap:            1.5,

		MinTemperatureK: 2400,
		MaxTemperatureK: 6500,

		// Helsinki coordinates
		AutoTempEnabled:     false,
		Latitude:            60.1695,
		Longitude:           24.9354,
		AutoTempDayK:        6500,
		AutoTempNightK:      3400,
		AutoTempIntervalSec: 60,
	}
}

// LoadFromFile merges values from an optional YAML document. A missing
// file is not an error; a malformed one is, since an explicitly named
// config file that cannot be read is a deployment mistake.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var doc struct {
		MQTTBroker   *string `yaml:"mqtt_broker"`
		MQTTPort     *int    `yaml:"mqtt_port"`
		MQTTUser     *string `yaml:"mqtt_user"`
		MQTTPassword *string `yaml:"mqtt_password"`

		StoreBackend  *string `yaml:"store_backend"`
		SettingsPath  *string `yaml:"settings_path"`
		RedisHost     *string `yaml:"redis_host"`
		RedisPort     *int    `yaml:"redis_port"`
		RedisPassword *string `yaml:"redis_password"`
		RedisDB       *int    `yaml:"redis_db"`

		PostgresHost     *string `yaml:"postgres_host"`
		PostgresPort     *int    `yaml:"postgres_port"`
		PostgresUser     *string `yaml:"postgres_user"`
		PostgresPassword *string `yaml:"postgres_password"`
		PostgresDB       *string `yaml:"postgres_db"`

		HealthPort *int    `yaml:"health_port"`
		LogLevel   *string `yaml:"log_level"`

		MinTemperatureK *int `yaml:"min_temperature_k"`
		MaxTemperatureK *int `yaml:"max_temperature_k"`

		AutoTempEnabled *bool    `yaml:"auto_temp_enabled"`
		Latitude        *float64 `yaml:"latitude"`
		Longitude       *float64 `yaml:"longitude"`
		AutoTempDayK    *int     `yaml:"auto_temp_day_k"`
		AutoTempNightK  *int     `yaml:"auto_temp_night_k"`
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}

	setString(&c.MQTTBroker, doc.MQTTBroker)
	setInt(&c.MQTTPort, doc.MQTTPort)
	setString(&c.MQTTUser, doc.MQTTUser)
	setString(&c.MQTTPassword, doc.MQTTPassword)
	setString(&c.StoreBackend, doc.StoreBackend)
	setString(&c.SettingsPath, doc.SettingsPath)
	setString(&c.RedisHost, doc.RedisHost)
	setInt(&c.RedisPort, doc.RedisPort)
	setString(&c.RedisPassword, doc.RedisPassword)
	setInt(&c.RedisDB, doc.RedisDB)
	setString(&c.PostgresHost, doc.PostgresHost)
	setInt(&c.PostgresPort, doc.PostgresPort)
	setString(&c.PostgresUser, doc.PostgresUser)
	setString(&c.PostgresPassword, doc.PostgresPassword)
	setString(&c.PostgresDB, doc.PostgresDB)
	setInt(&c.HealthPort, doc.HealthPort)
	setString(&c.LogLevel, doc.LogLevel)
	setInt(&c.MinTemperatureK, doc.MinTemperatureK)
	setInt(&c.MaxTemperatureK, doc.MaxTemperatureK)
	if doc.AutoTempEnabled != nil {
		c.AutoTempEnabled = *doc.AutoTempEnabled
	}
	if doc.Latitude != nil {
		c.Latitude = *doc.Latitude
	}
	if doc.Longitude != nil {
		c.Longitude = *doc.Longitude
	}
	setInt(&c.AutoTempDayK, doc.AutoTempDayK)
	setInt(&c.AutoTempNightK, doc.AutoTempNightK)

	return nil
}

// LoadFromEnv loads configuration from environment variables with EYEGUARD_ prefix
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	if v := os.Getenv("EYEGUARD_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("EYEGUARD_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("EYEGUARD_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("EYEGUARD_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("EYEGUARD_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}

	// Settings store configuration
	if v := os.Getenv("EYEGUARD_STORE_BACKEND"); v != "" {
		c.StoreBackend = v
	}
	if v := os.Getenv("EYEGUARD_SETTINGS_PATH"); v != "" {
		c.SettingsPath = v
	}
	if v := os.Getenv("EYEGUARD_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("EYEGUARD_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("EYEGUARD_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("EYEGUARD_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// Usage history configuration
	if v := os.Getenv("EYEGUARD_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("EYEGUARD_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PostgresPort = port
		}
	}
	if v := os.Getenv("EYEGUARD_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("EYEGUARD_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("EYEGUARD_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("EYEGUARD_POSTGRES_SSLMODE"); v != "" {
		c.PostgresSSLMode = v
	}

	// Service configuration
	if v := os.Getenv("EYEGUARD_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("EYEGUARD_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("EYEGUARD_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	// Eye-care defaults
	if v := os.Getenv("EYEGUARD_DEFAULT_TEMPERATURE_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			c.DefaultTemperatureK = k
		}
	}
	if v := os.Getenv("EYEGUARD_DEFAULT_BRIGHTNESS_PCT"); v != "" {
		if pct, err := strconv.Atoi(v); err == nil {
			c.DefaultBrightnessPct = pct
		}
	}
	if v := os.Getenv("EYEGUARD_DEFAULT_REMINDER_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil {
			c.DefaultReminderMinutes = minutes
		}
	}
	if v := os.Getenv("EYEGUARD_COMPENSATION_POLICY"); v != "" {
		c.CompensationPolicy = v
	}
	if v := os.Getenv("EYEGUARD_COMPENSATION_STRENGTH_PCT"); v != "" {
		if pct, err := strconv.Atoi(v); err == nil {
			c.CompensationStrengthPct = pct
		}
	}

	// Automatic color temperature
	if v := os.Getenv("EYEGUARD_AUTO_TEMP_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.AutoTempEnabled = enabled
		}
	}
	if v := os.Getenv("EYEGUARD_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.Latitude = lat
		}
	}
	if v := os.Getenv("EYEGUARD_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			c.Longitude = lon
		}
	}
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	// MQTT flags
	pflag.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	pflag.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	pflag.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	pflag.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	pflag.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Settings store flags
	pflag.StringVar(&c.StoreBackend, "store-backend", c.StoreBackend, "Settings store backend (file or redis)")
	pflag.StringVar(&c.SettingsPath, "settings-path", c.SettingsPath, "Settings file path (file backend)")
	pflag.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	pflag.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	pflag.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	pflag.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Usage history flags
	pflag.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname (empty disables usage history)")
	pflag.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	pflag.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres username")
	pflag.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	pflag.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database name")

	// Service flags
	pflag.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	pflag.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	pflag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	// Eye-care flags
	pflag.IntVar(&c.DefaultTemperatureK, "default-temperature", c.DefaultTemperatureK, "Default color temperature in Kelvin")
	pflag.IntVar(&c.DefaultBrightnessPct, "default-brightness", c.DefaultBrightnessPct, "Default brightness percentage")
	pflag.IntVar(&c.DefaultReminderMinutes, "default-reminder-minutes", c.DefaultReminderMinutes, "Default rest reminder interval in minutes")
	pflag.StringVar(&c.CompensationPolicy, "compensation-policy", c.CompensationPolicy, "Brightness compensation policy (none, luminance, max_channel, strength_blend)")
	pflag.IntVar(&c.CompensationStrengthPct, "compensation-strength", c.CompensationStrengthPct, "Strength blend percentage (0-100)")
	pflag.IntVar(&c.MinTemperatureK, "min-temperature", c.MinTemperatureK, "Lowest temperature accepted from commands")
	pflag.IntVar(&c.MaxTemperatureK, "max-temperature", c.MaxTemperatureK, "Highest temperature accepted from commands")

	// Automatic color temperature flags
	pflag.BoolVar(&c.AutoTempEnabled, "auto-temp", c.AutoTempEnabled, "Derive color temperature from sun position")
	pflag.Float64Var(&c.Latitude, "latitude", c.Latitude, "Geographic latitude for sun position")
	pflag.Float64Var(&c.Longitude, "longitude", c.Longitude, "Geographic longitude for sun position")
	pflag.IntVar(&c.AutoTempDayK, "auto-temp-day", c.AutoTempDayK, "Daytime target temperature in Kelvin")
	pflag.IntVar(&c.AutoTempNightK, "auto-temp-night", c.AutoTempNightK, "Nighttime target temperature in Kelvin")
	pflag.IntVar(&c.AutoTempIntervalSec, "auto-temp-interval", c.AutoTempIntervalSec, "Sun position evaluation interval in seconds")

	pflag.Parse()
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}

	switch c.StoreBackend {
	case StoreBackendFile:
		if c.SettingsPath == "" {
			return fmt.Errorf("settings path is required for the file backend")
		}
	case StoreBackendRedis:
		if c.RedisHost == "" {
			return fmt.Errorf("Redis host is required for the redis backend")
		}
		if c.RedisPort <= 0 || c.RedisPort > 65535 {
			return fmt.Errorf("Redis port must be between 1 and 65535")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be file or redis)", c.StoreBackend)
	}

	if c.CompensationStrengthPct < 0 || c.CompensationStrengthPct > 100 {
		return fmt.Errorf("compensation strength must be between 0 and 100")
	}
	if c.MinTemperatureK >= c.MaxTemperatureK {
		return fmt.Errorf("min temperature must be below max temperature")
	}
	if c.AutoTempIntervalSec <= 0 {
		return fmt.Errorf("auto temp interval must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString builds a lib/pq DSN from the postgres fields
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}

// HistoryEnabled reports whether the optional usage-history recorder is configured
func (c *Config) HistoryEnabled() bool {
	return c.PostgresHost != ""
}
