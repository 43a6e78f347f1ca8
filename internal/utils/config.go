package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/benmeehan/hydro-controller/internal/constants"
	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/benmeehan/hydro-controller/pkg/file"
	"github.com/joho/godotenv"
)

// Config represents the structure of the configuration file.
type Config struct {
	Logging struct {
		Level  string `yaml:"level"`  // zerolog level name
		Pretty bool   `yaml:"pretty"` // Human readable console output instead of JSON
	} `yaml:"logging"`

	Identity struct {
		DeviceFile string `yaml:"device_file"` // Path to the device identity file
	} `yaml:"identity"`

	Gateway struct {
		Transport      string        `yaml:"transport"`       // "mqtt" or "http"
		RequestTimeout time.Duration `yaml:"request_timeout"` // Bound for every command or status fetch

		HTTP struct {
			BaseURL      string        `yaml:"base_url"`      // Device base URL, e.g. http://192.168.1.50
			PollInterval time.Duration `yaml:"poll_interval"` // Status refresh interval
		} `yaml:"http"`

		MQTT struct {
			Broker         string        `yaml:"broker"`          // MQTT broker address
			ClientID       string        `yaml:"client_id"`       // MQTT client ID prefix
			CACertificate  string        `yaml:"ca_certificate"`  // Optional path to a CA certificate
			Username       string        `yaml:"username"`        // Optional broker username
			Password       string        `yaml:"password"`        // Optional broker password
			CommandTopic   string        `yaml:"command_topic"`   // Topic for pump ON/OFF commands
			TelemetryTopic string        `yaml:"telemetry_topic"` // Topic the device publishes readings on
			QOS            int           `yaml:"qos"`             // MQTT QoS level
			ConnectTimeout time.Duration `yaml:"connect_timeout"` // Initial connection timeout
		} `yaml:"mqtt"`
	} `yaml:"gateway"`

	Storage struct {
		Enabled bool   `yaml:"enabled"` // Persist readings, schedules and pump actions
		Driver  string `yaml:"driver"`  // "sqlite" or "postgres"
		DSN     string `yaml:"dsn"`     // File path for sqlite, connection string for postgres
		Workers int    `yaml:"workers"` // Background writers
	} `yaml:"storage"`

	Dashboard struct {
		ListenAddr     string        `yaml:"listen_addr"`     // HTTP listen address
		AllowedOrigins []string      `yaml:"allowed_origins"` // CORS origins
		SessionTTL     time.Duration `yaml:"session_ttl"`     // Idle time before a session is torn down
		ReapInterval   time.Duration `yaml:"reap_interval"`   // How often idle sessions are collected
	} `yaml:"dashboard"`

	Metrics models.MetricsConfig `yaml:"metrics"`
}

// LoadConfig loads the YAML configuration from the specified file, applies
// HYDRO_* environment overrides and fills defaults.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", filename, err)
	}

	config.applyEnv()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadEnvFile loads KEY=VALUE pairs from an .env file into the process
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"HYDRO_TRANSPORT":     &c.Gateway.Transport,
		"HYDRO_DEVICE_URL":    &c.Gateway.HTTP.BaseURL,
		"HYDRO_MQTT_BROKER":   &c.Gateway.MQTT.Broker,
		"HYDRO_MQTT_USERNAME": &c.Gateway.MQTT.Username,
		"HYDRO_MQTT_PASSWORD": &c.Gateway.MQTT.Password,
		"HYDRO_STORAGE_DSN":   &c.Storage.DSN,
		"HYDRO_LISTEN_ADDR":   &c.Dashboard.ListenAddr,
	}
	for key, target := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*target = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Identity.DeviceFile == "" {
		c.Identity.DeviceFile = "configs/device.json"
	}

	c.Gateway.Transport = strings.ToLower(c.Gateway.Transport)
	if c.Gateway.Transport == "" {
		c.Gateway.Transport = constants.TransportMQTT
	}
	if c.Gateway.RequestTimeout <= 0 {
		c.Gateway.RequestTimeout = constants.DefaultRequestTimeout
	}
	if c.Gateway.HTTP.PollInterval <= 0 {
		c.Gateway.HTTP.PollInterval = constants.DefaultPollInterval
	}

	mqtt := &c.Gateway.MQTT
	if mqtt.Broker == "" {
		mqtt.Broker = constants.DefaultMQTTBroker
	}
	if mqtt.ClientID == "" {
		mqtt.ClientID = constants.DefaultMQTTClientID
	}
	if mqtt.CommandTopic == "" {
		mqtt.CommandTopic = constants.DefaultCommandTopic
	}
	if mqtt.TelemetryTopic == "" {
		mqtt.TelemetryTopic = constants.DefaultTelemetryTopic
	}
	if mqtt.ConnectTimeout <= 0 {
		mqtt.ConnectTimeout = 10 * time.Second
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = constants.StorageDriverSQLite
	}
	if c.Storage.DSN == "" && c.Storage.Driver == constants.StorageDriverSQLite {
		c.Storage.DSN = "hydro.db"
	}
	if c.Storage.Workers <= 0 {
		c.Storage.Workers = 2
	}

	if c.Dashboard.ListenAddr == "" {
		c.Dashboard.ListenAddr = constants.DefaultListenAddr
	}
	if c.Dashboard.SessionTTL <= 0 {
		c.Dashboard.SessionTTL = constants.DefaultSessionTTL
	}
	if c.Dashboard.ReapInterval <= 0 {
		c.Dashboard.ReapInterval = constants.DefaultReapInterval
	}
}

// Validate reports configuration values that cannot work together.
func (c *Config) Validate() error {
	switch c.Gateway.Transport {
	case constants.TransportMQTT:
	case constants.TransportHTTP:
		if c.Gateway.HTTP.BaseURL == "" {
			return errors.New("gateway.http.base_url is required for the http transport")
		}
	default:
		return fmt.Errorf("unknown gateway transport %q", c.Gateway.Transport)
	}

	if c.Gateway.MQTT.QOS < 0 || c.Gateway.MQTT.QOS > 2 {
		return fmt.Errorf("gateway.mqtt.qos must be 0, 1 or 2, got %d", c.Gateway.MQTT.QOS)
	}

	if c.Storage.Enabled {
		switch c.Storage.Driver {
		case constants.StorageDriverSQLite, constants.StorageDriverPostgres:
		default:
			return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
		}
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required when storage is enabled")
		}
	}
	return nil
}
