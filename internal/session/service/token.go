package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/covergate/sessiond/internal/session/domain"
	"github.com/covergate/sessiond/internal/session/store"
	"github.com/covergate/sessiond/pkg/clockx"
	"github.com/covergate/sessiond/pkg/idx"
	"github.com/covergate/sessiond/pkg/slogx"
	"github.com/covergate/sessiond/pkg/tokenx"
)

// TokenService mints access/refresh token pairs and rotates refresh tokens.
//
// Rotation is the security-critical path: a refresh token is valid for
// exactly one redemption, enforced by the used-token ledger's uniqueness
// constraint rather than by any in-process locking.
type TokenService struct {
	Codec      *tokenx.Codec
	Store      store.Store
	Clock      clockx.Clock
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (s *TokenService) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return time.Now()
}

// Issue mints a fresh token pair for a principal. The access token carries
// manager-role hints for client convenience; the refresh token carries a
// unique jti instead, since it alone participates in replay detection.
// Issue never touches the ledger.
func (s *TokenService) Issue(
	ctx context.Context,
	principal domain.Principal,
	method domain.AuthenticationMethod,
) (*domain.TokenPair, error) {
	internalID, externalIDs, err := s.loadRoleHints(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	identity := domain.IdentityClaims{
		SubjectID:          principal.ID,
		CredentialRevision: principal.CredentialRevision,
		InternalManagerID:  internalID,
		ExternalManagerIDs: externalIDs,
	}
	return s.mintPair(identity, method, s.now())
}

// Rotate redeems a refresh token and returns a replacement pair.
//
// The ledger insert happens before any principal validation so that the
// outcome under race is decided in exactly one place. A token burned by a
// rotation attempt that later fails validation stays burned; it was invalid
// anyway.
func (s *TokenService) Rotate(ctx context.Context, rawRefresh string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := s.now()

	claims, err := s.decodeRefresh(ctx, rawRefresh)
	if err != nil {
		return nil, err
	}

	method, err := domain.ParseAuthenticationMethod(claims.AuthenticationMethod)
	if err != nil {
		l.Info("refresh token carries unknown authentication method")
		return nil, ErrIllegalToken
	}

	issuedAt := now
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	if err := s.Store.UsedRefreshTokens().MarkUsed(ctx, claims.TokenID(), issuedAt, now); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			l.Warn("refresh token replay detected",
				slog.String("token_id", claims.TokenID()),
				slog.String("subject_id", claims.Subject),
			)
			return nil, &RefreshTokenAlreadyUsedError{TokenID: claims.TokenID()}
		}
		return nil, err
	}

	principal, err := s.livePrincipal(ctx, claims)
	if err != nil {
		return nil, err
	}

	internalID, externalIDs, err := s.loadRoleHints(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	// The session keeps its original authentication method across every
	// rotation; only the revision and role hints are refreshed.
	identity := domain.IdentityClaims{
		SubjectID:          principal.ID,
		CredentialRevision: principal.CredentialRevision,
		InternalManagerID:  internalID,
		ExternalManagerIDs: externalIDs,
	}
	return s.mintPair(identity, method, now)
}

// EnsureNotYetUsed checks a refresh token against the ledger without
// consuming it. The answer is advisory: a clean result can be stale by the
// time the caller acts on it, and only Rotate decides under race.
func (s *TokenService) EnsureNotYetUsed(ctx context.Context, rawRefresh string) error {
	claims, err := s.decodeRefresh(ctx, rawRefresh)
	if err != nil {
		return err
	}

	used, err := s.Store.UsedRefreshTokens().HasBeenUsed(ctx, claims.TokenID())
	if err != nil {
		return err
	}
	if used {
		return &RefreshTokenAlreadyUsedError{TokenID: claims.TokenID()}
	}
	return nil
}

func (s *TokenService) decodeRefresh(ctx context.Context, raw string) (tokenx.Claims, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Codec.Decode(raw)
	if err != nil {
		if errors.Is(err, tokenx.ErrExpired) {
			l.Info("refresh token expired")
		} else {
			l.Info("refresh token malformed")
		}
		return tokenx.Claims{}, ErrIllegalToken
	}
	if !claims.IsRefresh() || claims.TokenID() == "" {
		l.Info("token presented for refresh is not a refresh token")
		return tokenx.Claims{}, ErrIllegalToken
	}
	return claims, nil
}

func (s *TokenService) livePrincipal(ctx context.Context, claims tokenx.Claims) (domain.Principal, error) {
	principal, err := s.Store.Principals().GetPrincipalByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Principal{}, ErrClaimedPrincipalNotFound
		}
		return domain.Principal{}, err
	}
	if principal.Suspended {
		return domain.Principal{}, ErrPrincipalSuspended
	}
	if principal.CredentialRevision != claims.CredentialRevision {
		return domain.Principal{}, ErrStaleCredential
	}
	return principal, nil
}

func (s *TokenService) loadRoleHints(ctx context.Context, principalID string) (string, []string, error) {
	var internalID string
	internal, err := s.Store.InternalManagers().GetByPrincipalID(ctx, principalID)
	switch {
	case err == nil:
		internalID = internal.ID
	case !errors.Is(err, store.ErrNotFound):
		return "", nil, err
	}

	var externalIDs []string
	external, err := s.Store.ExternalManagers().GetByPrincipalID(ctx, principalID)
	switch {
	case err == nil:
		externalIDs = []string{external.ID}
	case !errors.Is(err, store.ErrNotFound):
		return "", nil, err
	}

	return internalID, externalIDs, nil
}

// mintPair builds both tokens off one issuedAt so the pair is traceable to a
// single issuance event.
func (s *TokenService) mintPair(
	identity domain.IdentityClaims,
	method domain.AuthenticationMethod,
	now time.Time,
) (*domain.TokenPair, error) {
	base := jwt.RegisteredClaims{
		Issuer:   s.Issuer,
		Subject:  identity.SubjectID,
		IssuedAt: jwt.NewNumericDate(now),
	}

	accessClaims := tokenx.Claims{
		RegisteredClaims:     base,
		Kind:                 tokenx.KindAccess,
		CredentialRevision:   identity.CredentialRevision,
		AuthenticationMethod: string(method),
		InternalManagerID:    identity.InternalManagerID,
		ExternalManagerIDs:   identity.ExternalManagerIDs,
	}
	accessClaims.ExpiresAt = jwt.NewNumericDate(now.Add(s.AccessTTL))

	refreshClaims := tokenx.Claims{
		RegisteredClaims:     base,
		Kind:                 tokenx.KindRefresh,
		CredentialRevision:   identity.CredentialRevision,
		AuthenticationMethod: string(method),
	}
	refreshClaims.ID = idx.New().String()
	refreshClaims.ExpiresAt = jwt.NewNumericDate(now.Add(s.RefreshTTL))

	access, err := s.Codec.Encode(accessClaims)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Codec.Encode(refreshClaims)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
	}, nil
}
