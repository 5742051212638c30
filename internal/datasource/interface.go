// Package datasource fetches daily OHLC bars from external price providers.
package datasource

import (
	"context"
	"errors"

	"github.com/yourusername/aurum/internal/models"
)

// PriceSource defines the interface for fetching daily bars from a provider
type PriceSource interface {
	// FetchDaily retrieves the provider's daily series for symbol in ascending date order
	FetchDaily(ctx context.Context, symbol string) ([]models.PriceBar, error)

	// Name returns the name of the data source
	Name() string
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Unwrap exposes the underlying error
func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error for the error code
func (e DataSourceError) Is(target error) bool {
	sentinel, ok := codeSentinels[e.Code]
	return ok && sentinel == target
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeUnknown              = "unknown"
)

// Sentinel errors, matched by errors.Is against a DataSourceError code
var (
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotFound             = errors.New("data not found")
	ErrInvalidData          = errors.New("invalid data format")
	ErrNetworkError         = errors.New("network error")
	ErrServerError          = errors.New("server error")
)

var codeSentinels = map[string]error{
	ErrCodeRateLimitExceeded:    ErrRateLimitExceeded,
	ErrCodeAuthenticationFailed: ErrAuthenticationFailed,
	ErrCodeNotFound:             ErrNotFound,
	ErrCodeInvalidData:          ErrInvalidData,
	ErrCodeNetworkError:         ErrNetworkError,
	ErrCodeServerError:          ErrServerError,
}

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ErrorCode extracts the code of a DataSourceError, or ErrCodeUnknown
func ErrorCode(err error) string {
	var dsErr DataSourceError
	if errors.As(err, &dsErr) {
		return dsErr.Code
	}
	return ErrCodeUnknown
}
