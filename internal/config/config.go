// Package config handles configuration loading, validation, and persistence
// for the furcwire client.
package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultConfigDir   = "config"
	DefaultConfigFile  = "config.json"
	DefaultHost        = "lightbringer.furcadia.com"
	DefaultPort        = 6500
	DefaultAPIPort     = 5080
	DefaultCapturePath = "data/captures.db"
)

// Credential kinds as written in the config file.
const (
	CredentialPlain  = "plain"
	CredentialLinked = "linked"
)

// Config is the root configuration structure.
type Config struct {
	mu   sync.RWMutex
	path string

	Connection      ConnectionConfig `json:"connection"`
	ApplicationData ApplicationData  `json:"application_data"`
}

// ConnectionConfig describes the game server and the character to log in.
type ConnectionConfig struct {
	Host                string           `json:"host"`
	Port                int              `json:"port"`
	HandshakeTimeoutSec int              `json:"handshake_timeout_sec"`
	WriteTimeoutSec     int              `json:"write_timeout_sec"`
	ReconnectDelaySec   int              `json:"reconnect_delay_sec"`
	AutoLogin           bool             `json:"auto_login"`
	Credential          CredentialConfig `json:"credential"`
	TileBindings        []TileBinding    `json:"tile_bindings"`
}

// CredentialConfig holds login details. Passwords are normally supplied by
// the environment and are not written back to disk.
type CredentialConfig struct {
	Kind            string `json:"kind"`
	Name            string `json:"name"`
	Password        string `json:"-"`
	Account         string `json:"account"`
	AccountPassword string `json:"-"`
}

// TileBinding routes an extra primary opcode to a tile-sync layer.
type TileBinding struct {
	Opcode int    `json:"opcode"`
	Kind   string `json:"kind"`
}

// ApplicationData contains settings for everything around the protocol session.
type ApplicationData struct {
	Logging LoggingConfig `json:"logging"`
	API     APIConfig     `json:"api"`
	MQTT    MQTTConfig    `json:"mqtt"`
	Capture CaptureConfig `json:"capture"`
	Metrics MetricsConfig `json:"metrics"`
	Bus     BusConfig     `json:"bus"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `json:"level"`
	Directory string `json:"directory"`
}

// APIConfig holds the control API settings.
type APIConfig struct {
	Enabled        bool     `json:"enabled"`
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	AllowedOrigins []string `json:"allowed_origins"`
	RateLimitRPS   int      `json:"rate_limit_rps"`
	Token          string   `json:"-"`
}

// MQTTConfig holds MQTT telemetry settings.
type MQTTConfig struct {
	Enabled     bool   `json:"enabled"`
	BrokerURL   string `json:"broker_url"`
	Port        int    `json:"port"`
	UseTLS      bool   `json:"use_tls"`
	ClientID    string `json:"client_id"`
	TopicPrefix string `json:"topic_prefix"`
	Commands    bool   `json:"accept_commands"`
}

// CaptureConfig controls the journal of undecoded traffic.
type CaptureConfig struct {
	Enabled       bool   `json:"enabled"`
	Path          string `json:"path"`
	RetentionDays int    `json:"retention_days"`
	CleanupTime   string `json:"cleanup_time"`
}

// MetricsConfig controls the Prometheus collectors.
type MetricsConfig struct {
	Enabled bool `json:"enabled"`
}

// BusConfig controls event delivery.
type BusConfig struct {
	FailurePolicy string `json:"failure_policy"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Connection: ConnectionConfig{
			Host:                DefaultHost,
			Port:                DefaultPort,
			HandshakeTimeoutSec: 5,
			WriteTimeoutSec:     10,
			ReconnectDelaySec:   30,
			AutoLogin:           true,
			Credential:          CredentialConfig{Kind: CredentialPlain},
			TileBindings:        []TileBinding{},
		},
		ApplicationData: ApplicationData{
			Logging: LoggingConfig{
				Level:     "info",
				Directory: "logs",
			},
			API: APIConfig{
				Enabled:        true,
				Host:           "127.0.0.1",
				Port:           DefaultAPIPort,
				AllowedOrigins: []string{"http://localhost:3000"},
				RateLimitRPS:   20,
			},
			MQTT: MQTTConfig{
				Enabled:     false,
				BrokerURL:   "localhost",
				Port:        1883,
				TopicPrefix: "furcwire",
			},
			Capture: CaptureConfig{
				Enabled:       true,
				Path:          DefaultCapturePath,
				RetentionDays: 14,
				CleanupTime:   "04:00",
			},
			Metrics: MetricsConfig{Enabled: true},
			Bus:     BusConfig{FailurePolicy: "continue"},
		},
	}
}

// Load reads configuration from a JSON file.
func Load(configDir string) (*Config, error) {
	configPath := filepath.Join(configDir, DefaultConfigFile)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", configPath).Msg("config file not found, creating default")
			cfg := DefaultConfig()
			cfg.path = configPath
			if saveErr := cfg.Save(); saveErr != nil {
				return nil, fmt.Errorf("failed to save default config: %w", saveErr)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	cfg.path = configPath
	log.Info().Str("path", configPath).Msg("configuration loaded")

	// Re-save so the file always lists every option the code knows about.
	if saveErr := cfg.Save(); saveErr != nil {
		log.Warn().Err(saveErr).Msg("failed to re-save config with updated defaults")
	}

	return cfg, nil
}

// Save writes the current configuration to disk.
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Debug().Str("path", c.path).Msg("configuration saved")
	return nil
}

// GetConnection returns a copy of the connection configuration.
func (c *Config) GetConnection() ConnectionConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Connection
}

// SetConnection updates the connection configuration.
func (c *Config) SetConnection(data ConnectionConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Connection = data
}

// GetApplicationData returns a copy of the application data configuration.
func (c *Config) GetApplicationData() ApplicationData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ApplicationData
}

// SetApplicationData updates the application data configuration.
func (c *Config) SetApplicationData(data ApplicationData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ApplicationData = data
}

// Path returns the config file path.
func (c *Config) Path() string {
	return c.path
}

// Addr returns host:port of the game server.
func (cc ConnectionConfig) Addr() string {
	return net.JoinHostPort(cc.Host, strconv.Itoa(cc.Port))
}

// HandshakeTimeout returns the handshake deadline.
func (cc ConnectionConfig) HandshakeTimeout() time.Duration {
	return time.Duration(cc.HandshakeTimeoutSec) * time.Second
}

// ReconnectDelay returns the pause before reconnecting, zero when the
// client should stop after the first session.
func (cc ConnectionConfig) ReconnectDelay() time.Duration {
	return time.Duration(cc.ReconnectDelaySec) * time.Second
}

// WriteTimeout returns the per-line write deadline.
func (cc ConnectionConfig) WriteTimeout() time.Duration {
	return time.Duration(cc.WriteTimeoutSec) * time.Second
}
