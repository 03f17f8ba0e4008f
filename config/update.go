package config

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnknownProvider is returned when an update selects a provider id the registry
	// does not know.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrInvalidMaxTokens is returned when an update carries a non-positive token limit.
	ErrInvalidMaxTokens = errors.New("max tokens must be a positive integer")

	// ErrInvalidTemperature is returned when an update carries a NaN or infinite temperature.
	ErrInvalidTemperature = errors.New("temperature must be a finite number")
)

// Update is a partial ActiveConfig: nil fields are left untouched.
// Use the swag pointer helpers (swag.String, swag.Float64, swag.Int) to build one.
type Update struct {
	ProviderID  *string
	APIKey      *string
	BaseURL     *string
	Model       *string
	Temperature *float64
	MaxTokens   *int
}

// IsEmpty reports whether the update carries no fields at all.
func (u Update) IsEmpty() bool {
	return u.ProviderID == nil && u.APIKey == nil && u.BaseURL == nil &&
		u.Model == nil && u.Temperature == nil && u.MaxTokens == nil
}

func (u Update) validate() error {
	if u.MaxTokens != nil && *u.MaxTokens <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxTokens, *u.MaxTokens)
	}
	if u.Temperature != nil && (math.IsNaN(*u.Temperature) || math.IsInf(*u.Temperature, 0)) {
		return fmt.Errorf("%w: %v", ErrInvalidTemperature, *u.Temperature)
	}
	return nil
}

func clampTemperature(t float64) float64 {
	return min(max(t, MinTemperature), MaxTemperature)
}
