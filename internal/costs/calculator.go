// Package costs provides cost estimation for provider API usage.
package costs

import (
	"os"
	"strconv"
)

// Pricing constants (in cents per unit for precision).
// These can be overridden via environment variables.
var (
	// SpeechifyCentsPerThousandChars is the cost per 1K billable characters for Speechify TTS.
	// Default: $10/1M chars = 1 cent/1K chars
	SpeechifyCentsPerThousandChars = getEnvFloat("COST_SPEECHIFY_CENTS_PER_1K_CHARS", 1.0)

	// SpeechifyCentsPerClone is the cost of creating one voice clone.
	// Default: free
	SpeechifyCentsPerClone = getEnvFloat("COST_SPEECHIFY_CENTS_PER_CLONE", 0)
)

// Usage contains the raw provider usage of one request.
type Usage struct {
	BillableCharacters int // Characters billed by the speech endpoint (markup excluded)
	ClonedVoices       int // Voices created from a sample
}

// Costs contains the estimated costs of one request in cents.
type Costs struct {
	SynthesisCents float64
	CloneCents     float64
	TotalCents     float64
}

// Calculate estimates the cost of a request from its usage.
func Calculate(u Usage) Costs {
	c := Costs{
		SynthesisCents: TTSCostCents(u.BillableCharacters),
		CloneCents:     float64(u.ClonedVoices) * SpeechifyCentsPerClone,
	}
	c.TotalCents = c.SynthesisCents + c.CloneCents
	return c
}

// TTSCostCents returns the synthesis cost of chars billable characters.
func TTSCostCents(chars int) float64 {
	if chars <= 0 {
		return 0
	}
	return (float64(chars) / 1000.0) * SpeechifyCentsPerThousandChars
}

// RoundedCents rounds a cent amount to the nearest integer for reporting.
func RoundedCents(f float64) int {
	return roundToInt(f)
}

// roundToInt rounds a float to the nearest integer.
func roundToInt(f float64) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}

// getEnvFloat returns an environment variable as float64, or the default if not set.
func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
