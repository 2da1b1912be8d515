package domain

import "time"

// Principal is an authenticated account. CredentialRevision is an opaque
// version stamp (ULID) on the credential state; bumping it invalidates every
// outstanding token minted under the previous revision at its next use.
type Principal struct {
	ID                 string
	Email              string
	Name               string
	PasswordHash       string // argon2id encoded
	CredentialRevision string
	Suspended          bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// InternalManager is the internal-organization role record for a principal.
// At most one exists per principal.
type InternalManager struct {
	ID          string
	PrincipalID string
	Name        string
	CreatedAt   time.Time
}

// ExternalManager is the partner-organization role record for a principal.
// At most one exists per principal.
type ExternalManager struct {
	ID             string
	PrincipalID    string
	OrganizationID string
	Name           string
	CreatedAt      time.Time
}
