package domain

import (
	"fmt"
	"time"
)

// AuthenticationMethod records how a session was originally established. The
// value is carried forward unchanged across refresh rotations so a current
// token can always be traced back to how the session began.
type AuthenticationMethod string

const (
	MethodPassword    AuthenticationMethod = "ID_PW_LOGIN"
	MethodOneTimeCode AuthenticationMethod = "TEMPORAL_CODE"
)

// ParseAuthenticationMethod validates a raw claim value against the known
// enumeration.
func ParseAuthenticationMethod(s string) (AuthenticationMethod, error) {
	switch AuthenticationMethod(s) {
	case MethodPassword, MethodOneTimeCode:
		return AuthenticationMethod(s), nil
	}
	return "", fmt.Errorf("unknown authentication method %q", s)
}

// IdentityClaims is the semantic payload minted into tokens. Manager ids are
// role hints for client convenience only and are never trusted for
// authorization.
type IdentityClaims struct {
	SubjectID          string
	CredentialRevision string
	InternalManagerID  string
	ExternalManagerIDs []string
}

// TokenPair is what a successful login or rotation returns: a short-lived
// access token and a single-use refresh token sharing one issuedAt.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // always "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // access-token lifetime
}

// UsedRefreshToken is the durable ledger row recording a consumed refresh
// token. Created exactly once per token id, never updated. The uniqueness
// constraint on TokenID is the enforcement mechanism for single use.
type UsedRefreshToken struct {
	TokenID  string
	IssuedAt time.Time // copied from the token
	UsedAt   time.Time // server time of redemption
}

// OneTimeCode is the stored secret backing an emailed login code. The code
// itself is derived from the secret over a short validity window and is
// consumed on first successful use.
type OneTimeCode struct {
	ID          string
	PrincipalID string
	Secret      string // base32, feeds OTP derivation
	ExpiresAt   time.Time
	ConsumedAt  *time.Time
	CreatedAt   time.Time
}
