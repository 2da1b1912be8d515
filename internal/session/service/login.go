package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/covergate/sessiond/internal/session/domain"
	"github.com/covergate/sessiond/internal/session/store"
	"github.com/covergate/sessiond/pkg/clockx"
	"github.com/covergate/sessiond/pkg/cryptox"
	"github.com/covergate/sessiond/pkg/idx"
	"github.com/covergate/sessiond/pkg/slogx"
)

// DefaultOneTimeCodeTTL is how long an emailed login code stays redeemable.
const DefaultOneTimeCodeTTL = 5 * time.Minute

// Credentials is a login request. Exactly one of Password, OneTimeCode or
// RefreshToken must be set; Email is required alongside the first two.
type Credentials struct {
	Email        string
	Password     string
	OneTimeCode  string
	RefreshToken string
}

func (c Credentials) supplied() int {
	n := 0
	if c.Password != "" {
		n++
	}
	if c.OneTimeCode != "" {
		n++
	}
	if c.RefreshToken != "" {
		n++
	}
	return n
}

// LoginService verifies credentials and starts or extends sessions. It owns
// the exactly-one-credential rule; token mechanics live in TokenService.
type LoginService struct {
	Tokens  *TokenService
	Store   store.Store
	Clock   clockx.Clock
	CodeTTL time.Duration
}

func (s *LoginService) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return time.Now()
}

func (s *LoginService) codeTTL() time.Duration {
	if s.CodeTTL > 0 {
		return s.CodeTTL
	}
	return DefaultOneTimeCodeTTL
}

func (s *LoginService) codeOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(s.codeTTL() / time.Second),
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// Login authenticates with exactly one credential and returns a token pair.
// The resulting session records which method established it, and that record
// survives every subsequent refresh.
func (s *LoginService) Login(ctx context.Context, creds Credentials) (*domain.TokenPair, error) {
	if creds.supplied() != 1 {
		return nil, ErrCredentialNotSupplied
	}

	switch {
	case creds.Password != "":
		return s.loginWithPassword(ctx, creds.Email, creds.Password)
	case creds.OneTimeCode != "":
		return s.loginWithOneTimeCode(ctx, creds.Email, creds.OneTimeCode)
	default:
		return s.Tokens.Rotate(ctx, creds.RefreshToken)
	}
}

func (s *LoginService) loginWithPassword(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	principal, err := s.activePrincipalByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, principal.PasswordHash); err != nil {
		l.Info("password login failed", slog.String("principal_id", principal.ID))
		return nil, ErrInvalidCredentials
	}

	return s.Tokens.Issue(ctx, principal, domain.MethodPassword)
}

func (s *LoginService) loginWithOneTimeCode(ctx context.Context, email, code string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := s.now()

	principal, err := s.activePrincipalByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	active, err := s.Store.OneTimeCodes().GetActiveByPrincipalID(ctx, principal.ID, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := totp.ValidateCustom(code, active.Secret, now, s.codeOpts())
	if err != nil || !ok {
		l.Info("one-time code login failed", slog.String("principal_id", principal.ID))
		return nil, ErrInvalidCredentials
	}

	// Consume before issuing; a consumed row ends the code's life even if
	// issuance fails afterwards.
	if err := s.Store.OneTimeCodes().ConsumeOneTimeCode(ctx, active.ID, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return s.Tokens.Issue(ctx, principal, domain.MethodOneTimeCode)
}

// RequestOneTimeCode generates a login code for the principal behind the
// email and returns it for delivery. Unknown or suspended accounts report
// ErrInvalidCredentials so the endpoint does not confirm account existence.
func (s *LoginService) RequestOneTimeCode(ctx context.Context, email string) (string, error) {
	now := s.now()

	principal, err := s.activePrincipalByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	secret, err := cryptox.GenerateSecret(cryptox.SecretSize160)
	if err != nil {
		return "", err
	}

	row := domain.OneTimeCode{
		ID:          idx.New().String(),
		PrincipalID: principal.ID,
		Secret:      secret,
		ExpiresAt:   now.Add(s.codeTTL()),
	}
	if err := s.Store.OneTimeCodes().CreateOneTimeCode(ctx, row); err != nil {
		return "", err
	}

	code, err := totp.GenerateCodeCustom(secret, now, s.codeOpts())
	if err != nil {
		return "", err
	}

	slogx.FromContext(ctx).Info("one-time code issued",
		slog.String("principal_id", principal.ID),
		slog.String("code_id", row.ID),
	)
	return code, nil
}

// ChangePassword verifies the current password, stores the new hash and
// stamps a fresh credential revision, which invalidates every outstanding
// token at its next use.
func (s *LoginService) ChangePassword(ctx context.Context, principalID, current, next string) error {
	principal, err := s.Store.Principals().GetPrincipalByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrClaimedPrincipalNotFound
		}
		return err
	}
	if principal.Suspended {
		return ErrPrincipalSuspended
	}

	if err := cryptox.VerifyPassword(current, principal.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := cryptox.HashPassword(next)
	if err != nil {
		return err
	}

	return s.Store.Principals().UpdatePassword(ctx, principalID, hash, idx.New().String())
}

func (s *LoginService) activePrincipalByEmail(ctx context.Context, email string) (domain.Principal, error) {
	if email == "" {
		return domain.Principal{}, ErrCredentialNotSupplied
	}

	principal, err := s.Store.Principals().GetPrincipalByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Principal{}, ErrInvalidCredentials
		}
		return domain.Principal{}, err
	}
	if principal.Suspended {
		return domain.Principal{}, ErrPrincipalSuspended
	}
	return principal, nil
}
