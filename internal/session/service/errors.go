package service

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalToken covers every token presented with a bad signature,
	// bad structure, wrong kind, unknown authentication method or past
	// its expiry. Callers get one opaque failure; details go to logs.
	ErrIllegalToken = errors.New("illegal_token")

	// ErrClaimedPrincipalNotFound means a token named a principal that no
	// longer exists.
	ErrClaimedPrincipalNotFound = errors.New("claimed_principal_not_found")

	// ErrStaleCredential means the token's credential revision no longer
	// matches the principal's live revision, usually after a password change.
	ErrStaleCredential = errors.New("stale_credential")

	ErrPrincipalSuspended = errors.New("principal_suspended")

	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrCredentialNotSupplied rejects login requests that carry zero or
	// more than one credential.
	ErrCredentialNotSupplied = errors.New("credential_not_supplied")
)

// RefreshTokenAlreadyUsedError reports a refresh token that was already
// redeemed once. Seeing it means either a client retry bug or a stolen
// token being replayed, so handlers log it loudly.
type RefreshTokenAlreadyUsedError struct {
	TokenID string
}

func (e *RefreshTokenAlreadyUsedError) Error() string {
	return fmt.Sprintf("refresh token %s has already been used", e.TokenID)
}
