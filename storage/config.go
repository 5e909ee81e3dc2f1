package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config holds buffer pool engine configuration.
type Config struct {
	// Buffer Pool Configuration
	BufferPoolSize    uint32 `json:"buffer_pool_size"`    // Number of frames in the buffer pool
	CacheReplacer     string `json:"cache_replacer"`      // Cache replacement policy (lru-k, 2q, arc)
	ReplacerK         uint32 `json:"replacer_k"`          // K for the LRU-K replacer
	EnablePrefetching bool   `json:"enable_prefetching"`  // Enable sequential prefetching

	// Disk Configuration
	DataDirectory string `json:"data_directory"` // Directory for data files
	PageSize      uint32 `json:"page_size"`      // Page size in bytes (default: 4096)

	// Write-back Configuration
	CompressionAlg      string `json:"compression_alg"`       // Page write-back compression (snappy, lz4, none)
	AdaptiveFlushEnabled bool  `json:"adaptive_flush_enabled"` // Background dirty-page flusher

	// Performance Configuration
	EnableMetrics bool   `json:"enable_metrics"` // Whether to collect performance metrics
	LogLevel      string `json:"log_level"`      // Log level (debug, info, warn, error)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BufferPoolSize:       100,
		CacheReplacer:        "lru-k",
		ReplacerK:            2,
		EnablePrefetching:    true,
		DataDirectory:        "./data",
		PageSize:             PageSize,
		CompressionAlg:       "none",
		AdaptiveFlushEnabled: false,
		EnableMetrics:        true,
		LogLevel:             "info",
	}
}

// LoadConfigFromFile loads configuration from a JSON file.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	err = json.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadConfigFromEnv loads configuration from environment variables, falling
// back to default values if unset.
func LoadConfigFromEnv() *Config {
	config := DefaultConfig()

	if val := os.Getenv("BUSTUB_BUFFER_POOL_SIZE"); val != "" {
		if size, err := strconv.ParseUint(val, 10, 32); err == nil {
			config.BufferPoolSize = uint32(size)
		}
	}

	if val := os.Getenv("BUSTUB_CACHE_REPLACER"); val != "" {
		config.CacheReplacer = val
	}

	if val := os.Getenv("BUSTUB_REPLACER_K"); val != "" {
		if k, err := strconv.ParseUint(val, 10, 32); err == nil {
			config.ReplacerK = uint32(k)
		}
	}

	if val := os.Getenv("BUSTUB_DATA_DIRECTORY"); val != "" {
		config.DataDirectory = val
	}

	if val := os.Getenv("BUSTUB_PAGE_SIZE"); val != "" {
		if size, err := strconv.ParseUint(val, 10, 32); err == nil {
			config.PageSize = uint32(size)
		}
	}

	if val := os.Getenv("BUSTUB_COMPRESSION_ALG"); val != "" {
		config.CompressionAlg = val
	}

	if val := os.Getenv("BUSTUB_ADAPTIVE_FLUSH_ENABLED"); val != "" {
		config.AdaptiveFlushEnabled = val == "true" || val == "1"
	}

	if val := os.Getenv("BUSTUB_ENABLE_METRICS"); val != "" {
		config.EnableMetrics = val == "true" || val == "1"
	}

	if val := os.Getenv("BUSTUB_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	return config
}

// SaveToFile saves the configuration to a JSON file.
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", " ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.BufferPoolSize == 0 {
		return fmt.Errorf("buffer pool size must be greater than 0")
	}

	if c.PageSize == 0 {
		return fmt.Errorf("page size must be greater than 0")
	}

	if c.PageSize%512 != 0 {
		return fmt.Errorf("page size must be a multiple of 512")
	}

	if c.DataDirectory == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	validReplacers := map[string]bool{"lru-k": true, "2q": true, "arc": true}
	if !validReplacers[c.CacheReplacer] {
		return fmt.Errorf("invalid cache replacer: %s (must be lru-k, 2q, or arc)", c.CacheReplacer)
	}

	if c.CacheReplacer == "lru-k" && c.ReplacerK == 0 {
		return fmt.Errorf("replacer k must be greater than 0")
	}

	validCompressionAlgs := map[string]bool{"none": true, "snappy": true, "lz4": true}
	if !validCompressionAlgs[c.CompressionAlg] {
		return fmt.Errorf("invalid compression algorithm: %s (must be none, snappy, or lz4)", c.CompressionAlg)
	}

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

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
