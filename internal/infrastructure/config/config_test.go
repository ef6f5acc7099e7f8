package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
)

// envMap returns a getenv function backed by a map.
func envMap(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestFromArgs_Defaults(t *testing.T) {
	cfg, err := FromArgs(nil, envMap(nil))
	if err != nil {
		t.Fatalf("FromArgs() error = %v", err)
	}

	if cfg.Bridge.Name != "fakehue" {
		t.Errorf("Bridge.Name = %q, want %q", cfg.Bridge.Name, "fakehue")
	}
	if cfg.MQTT.URL != "mqtt://127.0.0.1" {
		t.Errorf("MQTT.URL = %q, want %q", cfg.MQTT.URL, "mqtt://127.0.0.1")
	}
	if cfg.MQTT.ClientID != "fakehue" {
		t.Errorf("MQTT.ClientID = %q, want name as default", cfg.MQTT.ClientID)
	}
	if cfg.API.Bind != "0.0.0.0" {
		t.Errorf("API.Bind = %q, want %q", cfg.API.Bind, "0.0.0.0")
	}
	if cfg.API.Port != 8082 {
		t.Errorf("API.Port = %d, want 8082", cfg.API.Port)
	}
	if cfg.Devices.Path != "./config.yml" {
		t.Errorf("Devices.Path = %q, want %q", cfg.Devices.Path, "./config.yml")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if !cfg.SSDP.Enabled {
		t.Error("SSDP.Enabled = false, want true")
	}
	if got := cfg.GetReloadDelay().Milliseconds(); got != 1500 {
		t.Errorf("GetReloadDelay() = %dms, want 1500ms", got)
	}
}

func TestFromArgs_EnvOverrides(t *testing.T) {
	env := envMap(map[string]string{
		"ALEXA_NAME":           "kitchen",
		"ALEXA_URL":            "mqtt://broker.lan:1884",
		"ALEXA_BIND":           "192.168.1.10",
		"ALEXA_PUBLISH":        "192.168.1.10",
		"ALEXA_PORT":           "8090",
		"ALEXA_CONFIG":         "/etc/huebridge/devices.yml",
		"ALEXA_VERBOSE":        "debug",
		"ALEXA_MQTT_USERNAME":  "bridge",
		"ALEXA_MQTT_PASSWORD":  "secret",
		"ALEXA_METRICS_LISTEN": ":9102",
	})

	cfg, err := FromArgs(nil, env)
	if err != nil {
		t.Fatalf("FromArgs() error = %v", err)
	}

	if cfg.Bridge.Name != "kitchen" {
		t.Errorf("Bridge.Name = %q, want %q", cfg.Bridge.Name, "kitchen")
	}
	if cfg.MQTT.URL != "mqtt://broker.lan:1884" {
		t.Errorf("MQTT.URL = %q", cfg.MQTT.URL)
	}
	if cfg.API.Bind != "192.168.1.10" || cfg.API.Publish != "192.168.1.10" {
		t.Errorf("API = %+v", cfg.API)
	}
	if cfg.API.Port != 8090 {
		t.Errorf("API.Port = %d, want 8090", cfg.API.Port)
	}
	if cfg.Devices.Path != "/etc/huebridge/devices.yml" {
		t.Errorf("Devices.Path = %q", cfg.Devices.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.MQTT.Auth.Username != "bridge" || cfg.MQTT.Auth.Password != "secret" {
		t.Errorf("MQTT.Auth = %+v", cfg.MQTT.Auth)
	}
	if cfg.Metrics.Listen != ":9102" {
		t.Errorf("Metrics.Listen = %q, want :9102", cfg.Metrics.Listen)
	}
	if cfg.MQTT.ClientID != "kitchen" {
		t.Errorf("MQTT.ClientID = %q, want kitchen", cfg.MQTT.ClientID)
	}
}

func TestFromArgs_InvalidEnvPort(t *testing.T) {
	_, err := FromArgs(nil, envMap(map[string]string{"ALEXA_PORT": "eighty"}))
	if err == nil {
		t.Fatal("FromArgs() expected error for non-numeric ALEXA_PORT")
	}
}

func TestFromArgs_FlagsOverrideEnv(t *testing.T) {
	env := envMap(map[string]string{
		"ALEXA_NAME": "from-env",
		"ALEXA_PORT": "9000",
	})

	cfg, err := FromArgs([]string{"-n", "from-flag", "--url", "tcp://10.0.0.2:1883", "-v", "warn"}, env)
	if err != nil {
		t.Fatalf("FromArgs() error = %v", err)
	}

	if cfg.Bridge.Name != "from-flag" {
		t.Errorf("Bridge.Name = %q, want from-flag", cfg.Bridge.Name)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("API.Port = %d, want env value 9000 when flag unset", cfg.API.Port)
	}
	if cfg.MQTT.URL != "tcp://10.0.0.2:1883" {
		t.Errorf("MQTT.URL = %q", cfg.MQTT.URL)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestFromArgs_Help(t *testing.T) {
	_, err := FromArgs([]string{"-h"}, envMap(nil))
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("FromArgs(-h) error = %v, want flag.ErrHelp", err)
	}
}

func TestFromArgs_SettingsFile(t *testing.T) {
	content := `
bridge:
  name: "living"
mqtt:
  url: "mqtts://broker.example.com"
  client_id: "living-bridge"
  qos: 0
api:
  port: 8181
  publish: "hub.lan"
ssdp:
  enabled: false
devices:
  path: "/data/devices.yml"
  reload_delay: 250
metrics:
  listen: "127.0.0.1:9100"
`
	tmpDir := t.TempDir()
	settingsPath := filepath.Join(tmpDir, "settings.yaml")
	if err := os.WriteFile(settingsPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test settings: %v", err)
	}

	cfg, err := FromArgs([]string{"--settings", settingsPath, "-p", "8282"}, envMap(nil))
	if err != nil {
		t.Fatalf("FromArgs() error = %v", err)
	}

	if cfg.SettingsPath != settingsPath {
		t.Errorf("SettingsPath = %q, want %q", cfg.SettingsPath, settingsPath)
	}
	if cfg.Bridge.Name != "living" {
		t.Errorf("Bridge.Name = %q, want living", cfg.Bridge.Name)
	}
	if cfg.MQTT.ClientID != "living-bridge" {
		t.Errorf("MQTT.ClientID = %q, want living-bridge", cfg.MQTT.ClientID)
	}
	if cfg.MQTT.QoS != 0 {
		t.Errorf("MQTT.QoS = %d, want 0", cfg.MQTT.QoS)
	}
	if cfg.API.Port != 8282 {
		t.Errorf("API.Port = %d, want flag value 8282", cfg.API.Port)
	}
	if cfg.API.Publish != "hub.lan" {
		t.Errorf("API.Publish = %q, want hub.lan", cfg.API.Publish)
	}
	if cfg.SSDP.Enabled {
		t.Error("SSDP.Enabled = true, want false")
	}
	if cfg.SSDP.Address != DefaultSSDPAddress {
		t.Errorf("SSDP.Address = %q, want default kept", cfg.SSDP.Address)
	}
	if cfg.Devices.ReloadDelay != 250 {
		t.Errorf("Devices.ReloadDelay = %d, want 250", cfg.Devices.ReloadDelay)
	}
}

func TestFromArgs_SettingsFromEnv(t *testing.T) {
	tmpDir := t.TempDir()
	settingsPath := filepath.Join(tmpDir, "settings.yaml")
	if err := os.WriteFile(settingsPath, []byte("bridge:\n  name: envfile\n"), 0600); err != nil {
		t.Fatalf("failed to write test settings: %v", err)
	}

	cfg, err := FromArgs(nil, envMap(map[string]string{"ALEXA_SETTINGS": settingsPath}))
	if err != nil {
		t.Fatalf("FromArgs() error = %v", err)
	}
	if cfg.Bridge.Name != "envfile" {
		t.Errorf("Bridge.Name = %q, want envfile", cfg.Bridge.Name)
	}
}

func TestFromArgs_SettingsMissingFile(t *testing.T) {
	_, err := FromArgs([]string{"--settings", "/nonexistent/path/settings.yaml"}, envMap(nil))
	if err == nil {
		t.Error("FromArgs() expected error for missing file, got nil")
	}
}

func TestFromArgs_SettingsInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "settings.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := FromArgs([]string{"--settings", configPath}, envMap(nil))
	if err == nil {
		t.Error("FromArgs() expected error for invalid YAML, got nil")
	}
}

func TestFromArgs_SettingsValidationFailure(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "settings.yaml")
	if err := os.WriteFile(configPath, []byte("api:\n  port: 70000\n"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := FromArgs([]string{"--settings", configPath}, envMap(nil))
	if err == nil {
		t.Error("FromArgs() expected validation error for port 70000, got nil")
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("LoadDotEnv() on missing file error = %v, want nil", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ALEXA_TEST_DOTENV=from-file\n"), 0600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Setenv("ALEXA_TEST_DOTENV", "")
	os.Unsetenv("ALEXA_TEST_DOTENV")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("ALEXA_TEST_DOTENV"); got != "from-file" {
		t.Errorf("ALEXA_TEST_DOTENV = %q, want from-file", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing name",
			mutate:  func(c *Config) { c.Bridge.Name = " " },
			wantErr: true,
		},
		{
			name:    "wildcard in name",
			mutate:  func(c *Config) { c.Bridge.Name = "hue/#" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "unknown verbosity",
			mutate:  func(c *Config) { c.Logging.Level = "chatty" },
			wantErr: true,
		},
		{
			name:    "zero reload delay",
			mutate:  func(c *Config) { c.Devices.ReloadDelay = 0 },
			wantErr: true,
		},
		{
			name:    "ssdp enabled without address",
			mutate:  func(c *Config) { c.SSDP.Address = "" },
			wantErr: true,
		},
		{
			name:    "ssdp disabled without address",
			mutate:  func(c *Config) { c.SSDP.Enabled = false; c.SSDP.Address = "" },
			wantErr: false,
		},
		{
			name:    "influxdb enabled without bucket",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true; c.InfluxDB.URL = "http://influx:8086" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.API.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.API.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.API.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}
