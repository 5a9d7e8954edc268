package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"p2000-receiver/common/config"
)

// DefaultDecoderCmd tunes to 169.65 MHz and decodes FLEX.
const DefaultDecoderCmd = "rtl_fm -f 169.65M -M fm -s 22050 | multimon-ng -a FLEX -t raw -"

// Config is the receiver configuration.
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig

	Receiver struct {
		DataDir          string
		DecoderCmd       string // "-" reads stdin
		SensorsFile      string
		SettleDelay      time.Duration
		DispatchInterval time.Duration
		BufferSize       int
	}

	HomeAssistant struct {
		Enabled bool
		BaseURL string
		Token   string
		Timeout time.Duration
	}

	MQTTSink struct {
		Enabled  bool
		Topic    string
		Retained bool
	}

	RedisSink struct {
		Enabled bool
		Stream  string
		MaxLen  int64
	}

	NATS struct {
		Enabled bool
		URL     string
		Subject string
	}

	OpenCage struct {
		Enabled           bool
		BaseURL           string
		Token             string
		CountryCode       string
		RequestsPerSecond float64
	}

	Journal struct {
		Enabled bool
	}

	Metrics struct {
		Addr string // empty disables the endpoint
	}

	Log struct {
		Level  string
		Format string
		File   string
	}
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "p2000"
	cfg.Database.SSLMode = "disable"
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "p2000-receiver"
	cfg.MQTT.QoS = 0
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Receiver.DataDir = getEnv("DATA_DIR", ".")
	cfg.Receiver.DecoderCmd = getEnv("DECODER_CMD", DefaultDecoderCmd)
	cfg.Receiver.SensorsFile = getEnv("SENSORS_FILE", filepath.Join(cfg.Receiver.DataDir, "sensors.yaml"))
	cfg.Receiver.SettleDelay = getEnvMillis("SETTLE_DELAY_MS", time.Second)
	cfg.Receiver.DispatchInterval = getEnvMillis("DISPATCH_INTERVAL_MS", time.Second)
	cfg.Receiver.BufferSize = getEnvInt("BUFFER_SIZE", 100)

	cfg.HomeAssistant.Enabled = getEnvBool("HASS_ENABLED", false)
	cfg.HomeAssistant.BaseURL = getEnv("HASS_BASE_URL", "http://homeassistant.local:8123")
	cfg.HomeAssistant.Token = getEnv("HASS_TOKEN", "")
	cfg.HomeAssistant.Timeout = getEnvMillis("HASS_TIMEOUT_MS", 10*time.Second)

	cfg.MQTTSink.Enabled = getEnvBool("MQTT_ENABLED", false)
	cfg.MQTTSink.Topic = getEnv("MQTT_TOPIC", "p2000")
	cfg.MQTTSink.Retained = getEnvBool("MQTT_RETAINED", false)

	cfg.RedisSink.Enabled = getEnvBool("REDIS_ENABLED", false)
	cfg.RedisSink.Stream = getEnv("REDIS_STREAM", "p2000:messages")
	cfg.RedisSink.MaxLen = int64(getEnvInt("REDIS_STREAM_MAXLEN", 10000))

	cfg.NATS.Enabled = getEnvBool("NATS_ENABLED", false)
	cfg.NATS.URL = getEnv("NATS_URL", "nats://localhost:4222")
	cfg.NATS.Subject = getEnv("NATS_SUBJECT", "p2000.messages")

	cfg.OpenCage.Enabled = getEnvBool("OPENCAGE_ENABLED", false)
	cfg.OpenCage.BaseURL = getEnv("OPENCAGE_BASE_URL", "https://api.opencagedata.com")
	cfg.OpenCage.Token = getEnv("OPENCAGE_TOKEN", "")
	cfg.OpenCage.CountryCode = getEnv("OPENCAGE_COUNTRY", "nl")
	cfg.OpenCage.RequestsPerSecond = getEnvFloat("OPENCAGE_RPS", 1)

	cfg.Journal.Enabled = getEnvBool("JOURNAL_ENABLED", false)

	cfg.Metrics.Addr = getEnv("METRICS_ADDR", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")
	cfg.Log.File = getEnv("LOG_FILE", "")

	return cfg, nil
}

// DataPath returns name inside the data directory.
func (c *Config) DataPath(name string) string {
	return filepath.Join(c.Receiver.DataDir, name)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil && v >= 0 {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvMillis(key string, defaultValue time.Duration) time.Duration {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil && v > 0 {
		return time.Duration(v) * time.Millisecond
	}
	return defaultValue
}
