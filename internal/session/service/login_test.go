package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/covergate/sessiond/internal/session/domain"
	"github.com/covergate/sessiond/pkg/clockx"
)

func newLoginService(t *testing.T, clock clockx.Clock) (*LoginService, domain.Principal) {
	t.Helper()

	st := newTestStore(t)
	tokens := newTokenService(t, st, clock)
	p := seedPrincipal(t, st, "correct horse")

	return &LoginService{Tokens: tokens, Store: st, Clock: clock}, p
}

func TestLoginRequiresExactlyOneCredential(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := clockx.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc, p := newLoginService(t, clock)

	cases := map[string]Credentials{
		"none":                {Email: p.Email},
		"password and code":   {Email: p.Email, Password: "x", OneTimeCode: "123456"},
		"password and token":  {Email: p.Email, Password: "x", RefreshToken: "y"},
		"all three":           {Email: p.Email, Password: "x", OneTimeCode: "123456", RefreshToken: "y"},
		"email without creds": {Email: p.Email},
	}
	for name, creds := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Login(ctx, creds)
			require.ErrorIs(t, err, ErrCredentialNotSupplied)
		})
	}
}

func TestPasswordLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := clockx.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc, p := newLoginService(t, clock)

	pair, err := svc.Login(ctx, Credentials{Email: p.Email, Password: "correct horse"})
	require.NoError(t, err)

	claims, err := svc.Tokens.Codec.Decode(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, p.ID, claims.Subject)
	require.Equal(t, string(domain.MethodPassword), claims.AuthenticationMethod)

	_, err = svc.Login(ctx, Credentials{Email: p.Email, Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, Credentials{Email: "nobody@example.com", Password: "correct horse"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestOneTimeCodeLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := clockx.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc, p := newLoginService(t, clock)

	code, err := svc.RequestOneTimeCode(ctx, p.Email)
	require.NoError(t, err)
	require.Len(t, code, 6)

	pair, err := svc.Login(ctx, Credentials{Email: p.Email, OneTimeCode: code})
	require.NoError(t, err)

	claims, err := svc.Tokens.Codec.Decode(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, string(domain.MethodOneTimeCode), claims.AuthenticationMethod)

	// A code row is consumed on first successful use.
	_, err = svc.Login(ctx, Credentials{Email: p.Email, OneTimeCode: code})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestOneTimeCodeExpires(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := clockx.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc, p := newLoginService(t, clock)

	code, err := svc.RequestOneTimeCode(ctx, p.Email)
	require.NoError(t, err)

	clock.Advance(svc.codeTTL() + time.Minute)

	_, err = svc.Login(ctx, Credentials{Email: p.Email, OneTimeCode: code})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestOneTimeCodeRejectsWrongCode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := clockx.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc, p := newLoginService(t, clock)

	_, err := svc.RequestOneTimeCode(ctx, p.Email)
	require.NoError(t, err)

	_, err = svc.Login(ctx, Credentials{Email: p.Email, OneTimeCode: "000000"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshLoginRotates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := clockx.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc, p := newLoginService(t, clock)

	first, err := svc.Login(ctx, Credentials{Email: p.Email, Password: "correct horse"})
	require.NoError(t, err)

	second, err := svc.Login(ctx, Credentials{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The refresh login keeps reporting the original method.
	claims, err := svc.Tokens.Codec.Decode(second.AccessToken)
	require.NoError(t, err)
	require.Equal(t, string(domain.MethodPassword), claims.AuthenticationMethod)

	var replay *RefreshTokenAlreadyUsedError
	_, err = svc.Login(ctx, Credentials{RefreshToken: first.RefreshToken})
	require.ErrorAs(t, err, &replay)
}

func TestChangePasswordInvalidatesOutstandingTokens(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := clockx.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc, p := newLoginService(t, clock)

	pair, err := svc.Login(ctx, Credentials{Email: p.Email, Password: "correct horse"})
	require.NoError(t, err)

	require.ErrorIs(t,
		svc.ChangePassword(ctx, p.ID, "wrong", "battery staple"),
		ErrInvalidCredentials,
	)
	require.NoError(t, svc.ChangePassword(ctx, p.ID, "correct horse", "battery staple"))

	_, err = svc.Tokens.Rotate(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrStaleCredential)

	_, err = svc.Login(ctx, Credentials{Email: p.Email, Password: "battery staple"})
	require.NoError(t, err)
}

func TestSuspendedPrincipalCannotLoginOrRefresh(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := clockx.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	st := newTestStore(t)
	tokens := newTokenService(t, st, clock)
	svc := &LoginService{Tokens: tokens, Store: st, Clock: clock}

	p := seedPrincipal(t, st, "correct horse")
	pair, err := svc.Login(ctx, Credentials{Email: p.Email, Password: "correct horse"})
	require.NoError(t, err)

	require.NoError(t, st.Principals().SetSuspended(ctx, p.ID, true))

	_, err = svc.Login(ctx, Credentials{Email: p.Email, Password: "correct horse"})
	require.ErrorIs(t, err, ErrPrincipalSuspended)

	_, err = svc.Login(ctx, Credentials{RefreshToken: pair.RefreshToken})
	require.ErrorIs(t, err, ErrPrincipalSuspended)
}
