package gateAuth

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/gateAuth/internal/rate"
)

var (
	// ErrConfig is matched by every *ConfigError.
	ErrConfig = errors.New("invalid configuration")
	// ErrTokenMissing is returned when a request carries no usable bearer token.
	ErrTokenMissing = errors.New("token not provided")
	// ErrInvalidToken is returned when a token fails verification or its user claim cannot be opened.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnauthorized is returned by Authorize when no principal is present.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned by Authorize when the principal's role is not permitted.
	ErrForbidden = errors.New("forbidden")
	// ErrRateLimited is returned when a request key exceeded its window budget.
	ErrRateLimited = fmt.Errorf("%w", rate.ErrRateLimited)
	// ErrInvalidCredentials is returned by Login for unknown users and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEngineNotReady is returned by Engine methods called on a nil or closed engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ConfigError reports a single invalid configuration field. It is returned by
// [Config.Validate], [Builder.Build] and the envconfig loader.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config: " + e.Reason
	}
	return "config: " + e.Field + ": " + e.Reason
}

// Unwrap lets errors.Is(err, ErrConfig) match any ConfigError.
func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

func configError(field, reason string) error {
	return &ConfigError{Field: field, Reason: reason}
}
