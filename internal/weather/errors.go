package weather

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrConfiguration marks a missing or invalid setting, such as an absent
	// API key for the selected provider. No network call is made.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation marks bad user input: a malformed coordinate, an unknown
	// provider or an unsupported output format.
	ErrValidation = errors.New("validation error")

	// ErrProvider marks a failed provider call. Every *ProviderError matches it.
	ErrProvider = errors.New("provider error")
)

// ConfigurationErrorf returns an error wrapping ErrConfiguration.
func ConfigurationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// ValidationErrorf returns an error wrapping ErrValidation.
func ValidationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ProviderError describes a failed call to an upstream weather provider:
// a non-2xx status, a timeout, a connection failure or an unreadable payload.
type ProviderError struct {
	Provider   string
	StatusCode int  // 0 when no response was received
	Timeout    bool // the call hit its deadline
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	b.WriteString(" error")
	if e.StatusCode != 0 {
		b.WriteString(" ")
		b.WriteString(strconv.Itoa(e.StatusCode))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrProvider) match any *ProviderError.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// AsProviderError extracts a *ProviderError from err's chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
