package config

import (
	"fmt"
	"time"
)

// FutabaConfig locates the monitored thread.
type FutabaConfig struct {
	Domain string
	Board  string
	Thread string
}

// MonitorConfig controls the polling loop.
type MonitorConfig struct {
	Interval         time.Duration
	FetchTimeout     time.Duration
	DownloadTimeout  time.Duration
	Classify         bool
	ClassifyExisting bool
	Concurrency      int
	TempDir          string
}

// ClassifierConfig selects the classification backend and threshold.
type ClassifierConfig struct {
	Provider          string
	Threshold         float64
	AllowedExtensions []string
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GetFutaba returns the board configuration
func (c *Config) GetFutaba() FutabaConfig {
	return FutabaConfig{
		Domain: c.GetString("futaba.domain"),
		Board:  c.GetString("futaba.board"),
		Thread: c.GetString("futaba.thread"),
	}
}

// GetMonitor returns the monitor configuration. Durations fall back to zero
// on parse failure; Validate rejects those before the loop starts.
func (c *Config) GetMonitor() MonitorConfig {
	interval, _ := c.GetDuration("monitor.interval")
	fetchTimeout, _ := c.GetDuration("monitor.fetch_timeout")
	downloadTimeout, _ := c.GetDuration("monitor.download_timeout")
	return MonitorConfig{
		Interval:         interval,
		FetchTimeout:     fetchTimeout,
		DownloadTimeout:  downloadTimeout,
		Classify:         c.GetBool("monitor.classify"),
		ClassifyExisting: c.GetBool("monitor.classify_existing"),
		Concurrency:      c.GetInt("monitor.concurrency"),
		TempDir:          c.GetString("monitor.temp_dir"),
	}
}

// GetClassifier returns the classifier configuration
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		Provider:          c.GetString("classifier.provider"),
		Threshold:         c.GetFloat64("classifier.threshold"),
		AllowedExtensions: c.GetStringSlice("classifier.allowed_extensions"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// Validate checks the configuration before the polling loop starts. Any
// error here is fatal: the process refuses to monitor with a bad threshold
// or interval rather than misbehaving at runtime.
func (c *Config) Validate() error {
	if c.GetString("futaba.thread") == "" {
		return fmt.Errorf("futaba.thread is required")
	}

	interval, err := c.GetDuration("monitor.interval")
	if err != nil {
		return fmt.Errorf("invalid monitor.interval: %w", err)
	}
	if interval <= 0 {
		return fmt.Errorf("monitor.interval must be greater than zero, got %v", interval)
	}

	if _, err := c.GetDuration("monitor.fetch_timeout"); err != nil {
		return fmt.Errorf("invalid monitor.fetch_timeout: %w", err)
	}
	if _, err := c.GetDuration("monitor.download_timeout"); err != nil {
		return fmt.Errorf("invalid monitor.download_timeout: %w", err)
	}

	threshold := c.GetFloat64("classifier.threshold")
	if threshold < 0.0 || threshold > 1.0 {
		return fmt.Errorf("classifier.threshold must be within [0.0, 1.0], got %g", threshold)
	}

	if c.GetInt("monitor.concurrency") < 1 {
		return fmt.Errorf("monitor.concurrency must be at least 1")
	}

	switch provider := c.GetString("classifier.provider"); provider {
	case "gemini", "openai", "bedrock":
	default:
		return fmt.Errorf("unsupported classifier provider: %s", provider)
	}

	switch cacheType := c.GetString("cache.type"); cacheType {
	case "memory", "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported cache type: %s", cacheType)
	}

	if c.GetBool("cache.enabled") {
		if _, err := c.GetDuration("cache.ttl"); err != nil {
			return fmt.Errorf("invalid cache.ttl: %w", err)
		}
		if _, err := c.GetDuration("cache.cleanup_frequency"); err != nil {
			return fmt.Errorf("invalid cache.cleanup_frequency: %w", err)
		}
	}

	if c.GetBool("handlers.smtp.enabled") {
		if c.GetString("handlers.smtp.from") == "" {
			return fmt.Errorf("handlers.smtp.from is required when the SMTP handler is enabled")
		}
		if len(c.GetStringSlice("handlers.smtp.to")) == 0 {
			return fmt.Errorf("handlers.smtp.to is required when the SMTP handler is enabled")
		}
	}

	return nil
}
