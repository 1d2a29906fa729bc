package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default configuration values
const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 10000
	DefaultSendBuffer     = 256
	DefaultMaxMessageSize = 16 << 20 // 16 MiB
)

// Config holds application configuration
type Config struct {
	// Host and Port form the listen address of the relay.
	Host string
	Port int

	// KeepAlive is the ping interval for websocket peers.
	// Zero disables pings and read deadlines entirely.
	KeepAlive time.Duration

	// SendBuffer is the per-connection outbound queue length.
	SendBuffer int

	// MaxMessageSize bounds a single inbound frame.
	MaxMessageSize int64

	// RelayURL is the base HTTP URL used by the client-side commands.
	RelayURL string
}

// Options for loading config with CLI flag overrides.
// Empty strings and nil pointers mean "not set", so an explicit zero
// port or keepalive still wins over the environment.
type Options struct {
	Host      string
	Port      *int
	KeepAlive *time.Duration
	RelayURL  string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	host := opts.Host
	if host == "" {
		host = getEnvOrDefault("HOST", DefaultHost)
	}

	var port int
	if opts.Port != nil {
		port = *opts.Port
	} else {
		p, err := getEnvAsInt("PORT", DefaultPort)
		if err != nil {
			return nil, err
		}
		port = p
	}

	var keepAlive time.Duration
	if opts.KeepAlive != nil {
		keepAlive = *opts.KeepAlive
	} else {
		d, err := getEnvAsDuration("KEEPALIVE_INTERVAL", 0)
		if err != nil {
			return nil, err
		}
		keepAlive = d
	}

	sendBuffer, err := getEnvAsInt("SEND_BUFFER", DefaultSendBuffer)
	if err != nil {
		return nil, err
	}

	maxMessageSize, err := getEnvAsInt("MAX_MESSAGE_SIZE", DefaultMaxMessageSize)
	if err != nil {
		return nil, err
	}

	relayURL := opts.RelayURL
	if relayURL == "" {
		relayURL = os.Getenv("RELAY_URL")
	}
	if relayURL == "" {
		relayURL = fmt.Sprintf("http://localhost:%d", port)
	}

	cfg := &Config{
		Host:           host,
		Port:           port,
		KeepAlive:      keepAlive,
		SendBuffer:     sendBuffer,
		MaxMessageSize: int64(maxMessageSize),
		RelayURL:       relayURL,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.KeepAlive < 0 {
		return fmt.Errorf("invalid keepalive interval: %s", c.KeepAlive)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("invalid send buffer: %d", c.SendBuffer)
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("invalid max message size: %d", c.MaxMessageSize)
	}
	return nil
}

// Address returns the listen address of the relay.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
