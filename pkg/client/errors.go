package client

import (
	"fmt"

	"github.com/kailas-cloud/searchcore/internal/domain"
	chiTransport "github.com/kailas-cloud/searchcore/internal/transport/chi"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidRequest = domain.ErrInvalidRequest
	ErrUnknownProfile = domain.ErrUnknownProfile
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("searchcore: %d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap maps server error codes back to domain sentinels.
func (e *APIError) Unwrap() error {
	switch chiTransport.ErrorCode(e.Code) {
	case chiTransport.ErrorCodeBadRequest:
		return ErrInvalidRequest
	case chiTransport.ErrorCodeUnknownProfile:
		return ErrUnknownProfile
	default:
		return nil
	}
}
