package tokenx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kinds carried in the "typ" claim. A token of one kind must never be
// accepted where the other is required; callers enforce this, not the codec.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Default token TTLs. Access tokens are short-lived; refresh tokens carry the
// session across access expiries and are single-use.
const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 14 * 24 * time.Hour
)

// Claims is the semantic payload carried by both token kinds.
//
// Role hints (InternalManagerID, ExternalManagerIDs) are embedded in access
// tokens for client convenience only. They are never trusted for
// authorization; the subject resolver always re-derives membership from live
// lookups.
type Claims struct {
	jwt.RegisteredClaims

	// Kind discriminates access from refresh tokens.
	Kind string `json:"typ"`

	// CredentialRevision is the principal's credential version stamp at mint
	// time. A live mismatch invalidates the token.
	CredentialRevision string `json:"credentialRevision,omitempty"`

	// AuthenticationMethod records how the session was originally
	// established. It survives every refresh rotation unchanged.
	AuthenticationMethod string `json:"authenticationMethod,omitempty"`

	// InternalManagerID hints at an internal-manager association.
	InternalManagerID string `json:"internalManagerId,omitempty"`

	// ExternalManagerIDs hints at external-manager associations.
	ExternalManagerIDs []string `json:"externalManagerIds,omitempty"`
}

// IsAccess reports whether the claims describe an access token.
func (c Claims) IsAccess() bool { return c.Kind == KindAccess }

// IsRefresh reports whether the claims describe a refresh token.
func (c Claims) IsRefresh() bool { return c.Kind == KindRefresh }

// TokenID returns the "jti" claim. Only refresh tokens carry one; it is the
// replay-detection key.
func (c Claims) TokenID() string { return c.ID }
