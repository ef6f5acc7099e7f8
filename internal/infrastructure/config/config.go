package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for all environment variable overrides.
// It matches the variables understood by earlier alexa2mqtt deployments.
const EnvPrefix = "ALEXA_"

// Config is the root configuration structure for huebridge.
// Values come from defaults, an optional settings file, the environment and
// command-line flags, in increasing order of precedence.
type Config struct {
	Bridge   BridgeConfig   `yaml:"bridge"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	API      APIConfig      `yaml:"api"`
	SSDP     SSDPConfig     `yaml:"ssdp"`
	Devices  DevicesConfig  `yaml:"devices"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`

	// SettingsPath is the settings file this config was read from, if any.
	SettingsPath string `yaml:"-"`
}

// BridgeConfig contains the identity of this bridge instance.
type BridgeConfig struct {
	// Name is the instance name. It prefixes the connectivity topic and is
	// the default MQTT client ID.
	Name string `yaml:"name"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	URL       string              `yaml:"url"`
	ClientID  string              `yaml:"client_id"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains the Hue control plane HTTP settings.
type APIConfig struct {
	// Bind is the address the HTTP listener binds to.
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`

	// Publish is the host advertised in the description document.
	// Empty means the first non-loopback IPv4 address of this host.
	Publish string `yaml:"publish"`

	// SetupTemplate is an optional path to a replacement setup.xml.
	SetupTemplate string `yaml:"setup_template"`

	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// SSDPConfig contains the discovery responder settings.
type SSDPConfig struct {
	Enabled bool `yaml:"enabled"`

	// Address is the multicast group and port to listen on.
	Address string `yaml:"address"`

	// Interface restricts the group join to one interface by name.
	// Empty joins every multicast-capable interface.
	Interface string `yaml:"interface"`

	DeviceType string `yaml:"device_type"`
	Server     string `yaml:"server"`
	USN        string `yaml:"usn"`
	SetupPath  string `yaml:"setup_path"`
}

// DevicesConfig points at the declarative device list.
type DevicesConfig struct {
	Path string `yaml:"path"`

	// ReloadDelay is the debounce after the last file event (milliseconds).
	ReloadDelay int `yaml:"reload_delay"`

	// MaxFileSize bounds the device list read (bytes).
	MaxFileSize int64 `yaml:"max_file_size"`
}

// MetricsConfig contains the Prometheus listener settings.
type MetricsConfig struct {
	// Listen is the address for the metrics listener. Empty disables it.
	Listen string `yaml:"listen"`
}

// InfluxDBConfig contains InfluxDB connection settings for command telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Defaults carried over from the original alexa2mqtt command line.
const (
	DefaultName        = "fakehue"
	DefaultURL         = "mqtt://127.0.0.1"
	DefaultBind        = "0.0.0.0"
	DefaultPort        = 8082
	DefaultDevicesPath = "./config.yml"
	DefaultLevel       = "info"

	DefaultSSDPAddress    = "239.255.255.250:1900"
	DefaultSSDPDeviceType = "urn:schemas-upnp-org:device:basic:1"
	DefaultSSDPServer     = "node.js/0.10.28 UPnP/1.1"
	DefaultSSDPUSN        = "uuid:Socket-1_0-221438K0100073::urn:Belkin:device:**"
	DefaultSetupPath      = "/upnp/amazon-ha-bridge/setup.xml"

	defaultReloadDelayMS = 1500
	defaultMaxFileSize   = 1 << 20 // 1MB
)

// FromArgs builds the configuration from defaults, the settings file, the
// environment and the given command-line arguments (without the program name).
//
// The settings file is taken from -s/--settings, then ALEXA_SETTINGS.
// A missing settings file is only an error when one was named explicitly.
//
// Returns flag.ErrHelp when -h/--help was requested.
func FromArgs(args []string, getenv func(string) string) (*Config, error) {
	fs, values := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := defaultConfig()

	settings := values.settings
	if settings == "" {
		settings = getenv(EnvPrefix + "SETTINGS")
	}
	if settings != "" {
		if err := cfg.loadFile(settings); err != nil {
			return nil, err
		}
		cfg.SettingsPath = settings
	}

	if err := applyEnvOverrides(cfg, getenv); err != nil {
		return nil, err
	}
	applyFlags(cfg, fs, values)

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = cfg.Bridge.Name
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables that are already set are left untouched, and a missing file is
// not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Usage writes the flag help text to w.
func Usage(w io.Writer) {
	fs, _ := newFlagSet()
	fs.SetOutput(w)
	fmt.Fprintln(w, "huebridge - emulate a Hue bridge and translate light commands to MQTT")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: huebridge [options]")
	fs.PrintDefaults()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Name: DefaultName,
		},
		MQTT: MQTTConfig{
			URL: DefaultURL,
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Bind: DefaultBind,
			Port: DefaultPort,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		SSDP: SSDPConfig{
			Enabled:    true,
			Address:    DefaultSSDPAddress,
			DeviceType: DefaultSSDPDeviceType,
			Server:     DefaultSSDPServer,
			USN:        DefaultSSDPUSN,
			SetupPath:  DefaultSetupPath,
		},
		Devices: DevicesConfig{
			Path:        DefaultDevicesPath,
			ReloadDelay: defaultReloadDelayMS,
			MaxFileSize: defaultMaxFileSize,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  DefaultLevel,
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ALEXA_KEY
func applyEnvOverrides(cfg *Config, getenv func(string) string) error {
	if v := getenv(EnvPrefix + "NAME"); v != "" {
		cfg.Bridge.Name = v
	}
	if v := getenv(EnvPrefix + "URL"); v != "" {
		cfg.MQTT.URL = v
	}
	if v := getenv(EnvPrefix + "BIND"); v != "" {
		cfg.API.Bind = v
	}
	if v := getenv(EnvPrefix + "PUBLISH"); v != "" {
		cfg.API.Publish = v
	}
	if v := getenv(EnvPrefix + "PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPORT: %w", EnvPrefix, err)
		}
		cfg.API.Port = port
	}
	if v := getenv(EnvPrefix + "CONFIG"); v != "" {
		cfg.Devices.Path = v
	}
	if v := getenv(EnvPrefix + "VERBOSE"); v != "" {
		cfg.Logging.Level = v
	}

	// Credentials are only ever taken from the environment or settings file.
	if v := getenv(EnvPrefix + "MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := getenv(EnvPrefix + "MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := getenv(EnvPrefix + "INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := getenv(EnvPrefix + "METRICS_LISTEN"); v != "" {
		cfg.Metrics.Listen = v
	}
	return nil
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Bridge.Name) == "" {
		errs = append(errs, "bridge.name is required")
	}
	if strings.ContainsAny(c.Bridge.Name, "+#") {
		errs = append(errs, "bridge.name must not contain MQTT wildcards")
	}

	if c.MQTT.URL == "" {
		errs = append(errs, "mqtt.url is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.SSDP.Enabled && c.SSDP.Address == "" {
		errs = append(errs, "ssdp.address is required when ssdp is enabled")
	}

	if c.Devices.Path == "" {
		errs = append(errs, "devices.path is required")
	}
	if c.Devices.ReloadDelay <= 0 {
		errs = append(errs, "devices.reload_delay must be positive")
	}
	if c.Devices.MaxFileSize <= 0 {
		errs = append(errs, "devices.max_file_size must be positive")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q must be one of error, warn, info, debug", c.Logging.Level))
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the HTTP read timeout as a Duration.
func (c APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the HTTP write timeout as a Duration.
func (c APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the HTTP idle timeout as a Duration.
func (c APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}

// GetReloadDelay returns the device list debounce delay as a Duration.
func (c *Config) GetReloadDelay() time.Duration {
	return time.Duration(c.Devices.ReloadDelay) * time.Millisecond
}
