package sessionsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/covergate/sessiond/pkg/httpx"
)

// Error type identifiers carried in the errorType response field.
const (
	ErrorTypeCredentialNotSupplied   = "CREDENTIAL_NOT_SUPPLIED"
	ErrorTypeInvalidCredentials      = "INVALID_CREDENTIALS"
	ErrorTypeIllegalToken            = "ILLEGAL_TOKEN"
	ErrorTypeRefreshTokenAlreadyUsed = "REFRESH_TOKEN_ALREADY_USED"
	ErrorTypeStaleCredential         = "STALE_CREDENTIAL"
	ErrorTypePrincipalNotFound       = "CLAIMED_PRINCIPAL_NOT_FOUND"
	ErrorTypePrincipalSuspended      = "PRINCIPAL_SUSPENDED"
	ErrorTypeInvalidRequest          = "INVALID_REQUEST"
	ErrorTypeInternalServerError     = "INTERNAL_SERVER_ERROR"
	ErrorTypeAuthenticationRequired  = "AUTHENTICATION_REQUIRED"
)

// APIError is the uniform error envelope written by every endpoint. It
// implements the error interface so the SDK client can surface it directly.
type APIError struct {
	// StatusCode is the HTTP status for this error. Not serialized.
	StatusCode int `json:"-"`

	// Type is the machine-readable error identifier.
	Type string `json:"errorType"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// WriteError writes the error envelope to an HTTP response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

var (
	ErrCredentialNotSupplied = &APIError{
		StatusCode: http.StatusBadRequest,
		Type:       ErrorTypeCredentialNotSupplied,
		Message:    "exactly one credential must be supplied",
	}

	ErrInvalidCredentials = &APIError{
		StatusCode: http.StatusUnauthorized,
		Type:       ErrorTypeInvalidCredentials,
		Message:    "invalid credentials",
	}

	ErrIllegalToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Type:       ErrorTypeIllegalToken,
		Message:    "the presented token is not valid",
	}

	ErrRefreshTokenAlreadyUsed = &APIError{
		StatusCode: http.StatusUnauthorized,
		Type:       ErrorTypeRefreshTokenAlreadyUsed,
		Message:    "the refresh token has already been used",
	}

	ErrStaleCredential = &APIError{
		StatusCode: http.StatusUnauthorized,
		Type:       ErrorTypeStaleCredential,
		Message:    "credentials have changed since the token was issued",
	}

	ErrPrincipalNotFound = &APIError{
		StatusCode: http.StatusUnauthorized,
		Type:       ErrorTypePrincipalNotFound,
		Message:    "the token's principal no longer exists",
	}

	ErrPrincipalSuspended = &APIError{
		StatusCode: http.StatusForbidden,
		Type:       ErrorTypePrincipalSuspended,
		Message:    "the account is suspended",
	}

	ErrInvalidRequest = &APIError{
		StatusCode: http.StatusBadRequest,
		Type:       ErrorTypeInvalidRequest,
		Message:    "the request is malformed or missing required parameters",
	}

	ErrAuthenticationRequired = &APIError{
		StatusCode: http.StatusUnauthorized,
		Type:       ErrorTypeAuthenticationRequired,
		Message:    "a bearer token is required",
	}

	ErrInternalServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Type:       ErrorTypeInternalServerError,
		Message:    "an internal error occurred",
	}
)
