package config

import (
	"os"
	"strings"
	"time"

	"github.com/bluetuith-org/blz/api/errorkinds"
	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// The default adapter name.
	DefaultAdapter = "hci0"

	// The default timeout duration for synchronous remote calls.
	DefaultCallTimeout = 25 * time.Second

	// The default timeout duration for connecting to a device that was not yet discovered.
	DefaultConnectNewTimeout = 30 * time.Second

	// The default timeout duration for GATT service resolution after a connection.
	DefaultServicesResolvedTimeout = 30 * time.Second

	// The default timeout duration for enabling notifications on a characteristic.
	DefaultNotifyTimeout = 5 * time.Second
)

// Configuration describes a general configuration.
type Configuration struct {
	// Adapter holds the name of the local adapter, for example "hci0".
	Adapter string `yaml:"adapter" default:"hci0"`

	// CallTimeout holds the timeout for synchronous remote calls.
	CallTimeout time.Duration `yaml:"call_timeout" default:"25s"`

	// ConnectNewTimeout holds the timeout for connecting to a device
	// that is not yet known to the daemon.
	ConnectNewTimeout time.Duration `yaml:"connect_new_timeout" default:"30s"`

	// ServicesResolvedTimeout holds the timeout for GATT service resolution.
	ServicesResolvedTimeout time.Duration `yaml:"services_resolved_timeout" default:"30s"`

	// NotifyTimeout holds the timeout for enabling notifications.
	NotifyTimeout time.Duration `yaml:"notify_timeout" default:"5s"`

	// LogLevel holds the logging level name ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level" default:"info"`
}

// New returns a new configuration with the default values.
func New() Configuration {
	var cfg Configuration
	defaults.SetDefaults(&cfg)

	return cfg
}

// Load reads a YAML configuration file. Values absent from the file keep
// their defaults.
func Load(path string) (Configuration, error) {
	cfg := New()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// Validate checks the configuration for unusable values.
func (c Configuration) Validate() error {
	if c.Adapter == "" || strings.ContainsAny(c.Adapter, "/ ") {
		return errorkinds.ErrPathConstruction
	}

	for _, d := range []time.Duration{c.CallTimeout, c.ConnectNewTimeout, c.ServicesResolvedTimeout, c.NotifyTimeout} {
		if d <= 0 {
			return errorkinds.ErrInvalidState
		}
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// NewLogger creates a configured logger instance.
func (c Configuration) NewLogger() *logrus.Logger {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
