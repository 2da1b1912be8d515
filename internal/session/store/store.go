package store

import (
	"context"
	"errors"
	"time"

	"github.com/covergate/sessiond/internal/session/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement it and
// expose sub-repositories to keep concerns tidy and testable.
//
// There is deliberately no transaction surface: the only mutable shared
// resource in this subsystem is the used-refresh-token ledger, and its single
// atomic insert carries the whole correctness burden. Everything else is
// reads or independent single-row writes.
type Store interface {
	Principals() Principals
	InternalManagers() InternalManagers
	ExternalManagers() ExternalManagers
	UsedRefreshTokens() UsedRefreshTokens
	OneTimeCodes() OneTimeCodes

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Principals interface {
	// GetPrincipalByID returns a principal by id.
	GetPrincipalByID(ctx context.Context, id string) (domain.Principal, error)

	// GetPrincipalByEmail is used during credential verification.
	GetPrincipalByEmail(ctx context.Context, email string) (domain.Principal, error)

	// CreatePrincipal inserts a new principal (id and credential revision are
	// ULIDs provided by the caller).
	CreatePrincipal(ctx context.Context, p domain.Principal) error

	// UpdatePassword replaces the password hash and stamps a new credential
	// revision, killing every outstanding token at its next use.
	UpdatePassword(ctx context.Context, principalID, newHash, newRevision string) error

	// SetSuspended flips the suspension flag. Suspended principals fail
	// every login and every token validation.
	SetSuspended(ctx context.Context, principalID string, suspended bool) error
}

type InternalManagers interface {
	// GetByPrincipalID returns the internal-manager record for a principal,
	// or ErrNotFound. Absence is ordinary, not exceptional.
	GetByPrincipalID(ctx context.Context, principalID string) (domain.InternalManager, error)

	CreateInternalManager(ctx context.Context, m domain.InternalManager) error
}

type ExternalManagers interface {
	// GetByPrincipalID returns the external-manager record for a principal,
	// or ErrNotFound.
	GetByPrincipalID(ctx context.Context, principalID string) (domain.ExternalManager, error)

	CreateExternalManager(ctx context.Context, m domain.ExternalManager) error
}

// UsedRefreshTokens is the replay ledger. Rows are created exactly once per
// token id and never updated.
type UsedRefreshTokens interface {
	// HasBeenUsed is a read-only pre-check. A negative answer is advisory:
	// only MarkUsed decides under race.
	HasBeenUsed(ctx context.Context, tokenID string) (bool, error)

	// MarkUsed inserts the consumption record. The insert is guarded by the
	// primary-key uniqueness constraint; a violation surfaces as
	// ErrAlreadyExists and must hold even when two callers race on the same
	// token id.
	MarkUsed(ctx context.Context, tokenID string, issuedAt time.Time, usedAt time.Time) error

	// DeleteIssuedBefore purges rows whose token was issued before the
	// cutoff. Safe once cutoff trails the refresh TTL: such tokens fail
	// expiry validation before the ledger is ever consulted.
	DeleteIssuedBefore(ctx context.Context, cutoff time.Time) error
}

type OneTimeCodes interface {
	// CreateOneTimeCode stores a freshly generated code secret.
	CreateOneTimeCode(ctx context.Context, c domain.OneTimeCode) error

	// GetActiveByPrincipalID returns the newest unconsumed, unexpired code
	// row for a principal, or ErrNotFound.
	GetActiveByPrincipalID(ctx context.Context, principalID string, now time.Time) (domain.OneTimeCode, error)

	// ConsumeOneTimeCode marks a code consumed. Returns ErrNotFound when the
	// row is already consumed, so a code cannot be redeemed twice.
	ConsumeOneTimeCode(ctx context.Context, id string, consumedAt time.Time) error

	// DeleteExpired removes expired code rows (housekeeping).
	DeleteExpired(ctx context.Context, now time.Time) error
}
