package insight

import "time"

// Config holds insight generation settings.
type Config struct {
	// Timeout bounds each provider call, retries included. Zero disables it.
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults for insight generation.
func DefaultConfig() Config {
	return Config{
		Timeout:     20 * time.Second,
		MaxTokens:   512,
		Temperature: 0.4,
	}
}
