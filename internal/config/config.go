package config

import "time"

// Config holds server configuration values.
type Config struct {
	// Addr is the TCP listen address for the line protocol.
	Addr string `mapstructure:"addr" yaml:"addr"`
	// HTTPAddr serves the status API and the WebSocket bridge.
	HTTPAddr string `mapstructure:"http_addr" yaml:"http_addr"`
	// WordsPath points at the dictionary file, one word per line.
	WordsPath string `mapstructure:"words_path" yaml:"words_path"`
	// FrequenciesPath points at the word-frequency file, "word count" per line.
	FrequenciesPath string `mapstructure:"frequencies_path" yaml:"frequencies_path"`
	// SendQueueSize is the per-connection outbound line buffer.
	SendQueueSize   int           `mapstructure:"send_queue_size" yaml:"send_queue_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:            ":5001",
		HTTPAddr:        ":8080",
		WordsPath:       "data/words.txt",
		FrequenciesPath: "data/en_full.txt",
		SendQueueSize:   64,
		ShutdownTimeout: 5 * time.Second,
		LogLevel:        "info",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.HTTPAddr != "" {
		c.HTTPAddr = other.HTTPAddr
	}
	if other.WordsPath != "" {
		c.WordsPath = other.WordsPath
	}
	if other.FrequenciesPath != "" {
		c.FrequenciesPath = other.FrequenciesPath
	}
	if other.SendQueueSize != 0 {
		c.SendQueueSize = other.SendQueueSize
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}
