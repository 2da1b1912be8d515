package service

import (
	"context"
	"errors"

	"github.com/covergate/sessiond/internal/session/domain"
	"github.com/covergate/sessiond/internal/session/store"
	"github.com/covergate/sessiond/pkg/slogx"
	"github.com/covergate/sessiond/pkg/tokenx"
)

// SubjectService turns a bearer token into the request-scoped composite
// Subject used for authorization decisions.
//
// The token is treated as a claim ticket, not as the source of truth: the
// principal and both manager roles are always re-read from the store, and
// the token's credential revision must match the live one. Role hints inside
// the token are ignored here.
type SubjectService struct {
	Codec *tokenx.Codec
	Store store.Store
}

// Resolve builds the Subject for a request. An empty bearer string is an
// anonymous request and yields (nil, nil); handlers that require identity
// check for the nil subject themselves.
func (s *SubjectService) Resolve(ctx context.Context, bearer, clientIP string) (*domain.Subject, error) {
	if bearer == "" {
		return nil, nil
	}

	l := slogx.FromContext(ctx)

	claims, err := s.Codec.Decode(bearer)
	if err != nil {
		return nil, ErrIllegalToken
	}
	if !claims.IsAccess() || claims.Subject == "" {
		l.Info("non-access token presented as bearer credential")
		return nil, ErrIllegalToken
	}

	// An absent method claim contributes nothing; only a present value that
	// fails the enumeration rejects the token.
	var methodFragment domain.Fragment
	if claims.AuthenticationMethod != "" {
		method, err := domain.ParseAuthenticationMethod(claims.AuthenticationMethod)
		if err != nil {
			l.Info("bearer token carries unknown authentication method")
			return nil, ErrIllegalToken
		}
		methodFragment = domain.AuthMethodFragment(method)
	}

	principal, err := s.Store.Principals().GetPrincipalByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrClaimedPrincipalNotFound
		}
		return nil, err
	}
	if principal.Suspended {
		return nil, ErrPrincipalSuspended
	}
	if principal.CredentialRevision != claims.CredentialRevision {
		return nil, ErrStaleCredential
	}

	fragments := []domain.Fragment{
		domain.PrincipalFragment(principal),
	}
	if methodFragment != nil {
		fragments = append(fragments, methodFragment)
	}

	internal, err := s.Store.InternalManagers().GetByPrincipalID(ctx, principal.ID)
	switch {
	case err == nil:
		fragments = append(fragments, domain.InternalRoleFragment(internal))
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	external, err := s.Store.ExternalManagers().GetByPrincipalID(ctx, principal.ID)
	switch {
	case err == nil:
		fragments = append(fragments, domain.ExternalRoleFragment(external))
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	if clientIP != "" {
		fragments = append(fragments, domain.OriginFragment(clientIP))
	}

	return domain.CombineFragments(fragments...), nil
}
