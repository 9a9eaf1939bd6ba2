package model

import "time"

// Config holds the complete llmmapper configuration
type Config struct {
	Input        InputConfig       `yaml:"input" mapstructure:"input"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Store        StoreConfig       `yaml:"store" mapstructure:"store"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
}

// InputConfig describes where buysheet text comes from and how it is chunked
type InputConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`             // file path, "-" for stdin, or http(s) URL
	ChunkSize int    `yaml:"chunk_size" mapstructure:"chunk_size"` // lines per model request
}

// LLMConfig holds model endpoint settings
type LLMConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"` // azure, openai, ollama
	Endpoint    string        `yaml:"endpoint" mapstructure:"endpoint"` // Azure resource endpoint
	Deployment  string        `yaml:"deployment" mapstructure:"deployment"`
	APIVersion  string        `yaml:"api_version" mapstructure:"api_version"`
	APIKey      string        `yaml:"api_key" mapstructure:"api_key"`
	Model       string        `yaml:"model" mapstructure:"model"`       // openai/ollama model name
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"` // openai-compatible or ollama base URL
	Prompt      string        `yaml:"prompt" mapstructure:"prompt"`     // verbatim override for every chunk
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32       `yaml:"temperature" mapstructure:"temperature"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"` // 0 = transport default
}

// HTTPConfig holds settings for fetching URL input and for proxying model calls
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Path    string `yaml:"path" mapstructure:"path"`
	XLSX    string `yaml:"xlsx" mapstructure:"xlsx"`
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// CacheConfig controls the model reply cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RateLimitConfig caps model calls per endpoint host
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"` // 0 disables
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// StoreConfig points at the optional SQLite run history
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // empty disables
}

// ConcurrencyConfig controls how many input files the batch command runs at once
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// DefaultChunkSize is the number of input lines sent per model request
const DefaultChunkSize = 20

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			ChunkSize: DefaultChunkSize,
		},
		LLM: LLMConfig{
			Provider:    "azure",
			APIVersion:  "2024-02-15-preview",
			MaxTokens:   1000,
			Temperature: 0.2,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "llmmapper/0.1",
			MaxBodyBytes: 10_000_000,
		},
		Output: OutputConfig{
			Path: "output.json",
		},
		Cache: CacheConfig{
			Enabled:   false,
			Dir:       "~/.llmmapper/cache",
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 0,
			BurstSize:         1,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 1,
		},
	}
}
