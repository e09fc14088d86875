package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrConfiguration        = errors.New("invalid carrier configuration")
	ErrTransport            = errors.New("carrier transport failed")
	ErrCarrierRejected      = errors.New("carrier rejected request")
	ErrMalformedResponse    = errors.New("malformed carrier response")
	ErrUnsupportedOperation = errors.New("operation not supported by carrier")

	ErrUnknownCarrier = errors.New("unknown carrier")
	ErrDuplicateLabel = errors.New("label already purchased for transaction")
)

// ValidationError lists every required field missing from a request.
type ValidationError struct {
	Carrier string
	Prefix  string
	Missing []string
}

func (e *ValidationError) Error() string {
	prefix := e.Prefix
	if prefix == "" {
		prefix = "missing required fields"
	}
	return fmt.Sprintf("%s: %s", prefix, strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConfigurationError reports absent or invalid credentials and billing setup.
type ConfigurationError struct {
	Carrier string
	Detail  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Carrier, e.Detail)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// TransportError wraps a network failure or a non-2xx HTTP status.
type TransportError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("post %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("post %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// CarrierRejected is returned when the carrier answered but reported failure.
type CarrierRejected struct {
	Carrier string
	Message string
}

func (e *CarrierRejected) Error() string {
	return fmt.Sprintf("%s rejected request: %s", e.Carrier, e.Message)
}

func (e *CarrierRejected) Is(target error) bool { return target == ErrCarrierRejected }

// MalformedResponse is returned when a successful response lacks the fields
// needed to build a result.
type MalformedResponse struct {
	Carrier string
	Detail  string
}

func (e *MalformedResponse) Error() string {
	return fmt.Sprintf("%s response: %s", e.Carrier, e.Detail)
}

func (e *MalformedResponse) Is(target error) bool { return target == ErrMalformedResponse }
