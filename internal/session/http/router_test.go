package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/covergate/sessiond/internal/session/domain"
	"github.com/covergate/sessiond/internal/session/service"
	"github.com/covergate/sessiond/internal/session/store"
	"github.com/covergate/sessiond/internal/session/store/drivers/sqlite"
	"github.com/covergate/sessiond/pkg/cryptox"
	"github.com/covergate/sessiond/pkg/idx"
	"github.com/covergate/sessiond/pkg/sessionsdk"
	"github.com/covergate/sessiond/pkg/tokenx"
)

const testSecret = "dGVzdC1zZWNyZXQtdGVzdC1zZWNyZXQtdGVzdC1zZWNyZXQ="

type testEnv struct {
	store  store.Store
	server *httptest.Server
	client *sessionsdk.Client

	deliveredCodes chan string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		filepath.Join(t.TempDir(), "http_test.db"),
	)
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	codec, err := tokenx.NewCodec(testSecret, nil)
	require.NoError(t, err)

	tokens := &service.TokenService{
		Codec:      codec,
		Store:      st,
		Issuer:     "sessiond-test",
		AccessTTL:  tokenx.DefaultAccessTokenTTL,
		RefreshTTL: tokenx.DefaultRefreshTokenTTL,
	}

	env := &testEnv{
		store:          st,
		deliveredCodes: make(chan string, 8),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter("test", st, logger)
	router.TokenService = tokens
	router.LoginService = &service.LoginService{Tokens: tokens, Store: st}
	router.SubjectService = &service.SubjectService{Codec: codec, Store: st}
	router.DeliverCode = func(ctx context.Context, email, code string) error {
		env.deliveredCodes <- code
		return nil
	}
	router.ApplyRoutes()

	env.server = httptest.NewServer(router)
	t.Cleanup(env.server.Close)
	env.client = sessionsdk.NewClient(env.server.URL)

	return env
}

func (e *testEnv) seedPrincipal(t *testing.T, password string) domain.Principal {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	p := domain.Principal{
		ID:                 idx.New().String(),
		Email:              idx.New().String() + "@example.com",
		Name:               "Test Principal",
		PasswordHash:       hash,
		CredentialRevision: idx.New().String(),
	}
	require.NoError(t, e.store.Principals().CreatePrincipal(context.Background(), p))
	return p
}

func requireAPIError(t *testing.T, err error, errorType string) {
	t.Helper()

	var apiErr *sessionsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, errorType, apiErr.Type)
}

func TestLoginAndWhoami(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	p := env.seedPrincipal(t, "correct horse")

	require.NoError(t, env.store.ExternalManagers().CreateExternalManager(ctx, domain.ExternalManager{
		ID:             idx.New().String(),
		PrincipalID:    p.ID,
		OrganizationID: "org-1",
		Name:           "Partner",
	}))

	tokens, err := env.client.Login(ctx, sessionsdk.LoginRequest{
		Email:    p.Email,
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.Equal(t, "Bearer", tokens.TokenType)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	subject, err := env.client.Whoami(ctx, tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, []string{p.ID}, subject.Attributes[string(domain.AttributeUserID)])
	require.Equal(t, []string{"org-1"}, subject.Attributes[string(domain.AttributeOrganizationID)])
	require.Equal(t, []string{domain.UserTypeExternal}, subject.Attributes[string(domain.AttributeUserType)])
	require.NotEmpty(t, subject.Attributes[string(domain.AttributeClientIP)])
	require.Equal(t,
		[]string{string(domain.MethodPassword)},
		subject.Attributes[string(domain.AttributeAuthenticationMethod)],
	)
}

func TestLoginRejectsCredentialMixing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	p := env.seedPrincipal(t, "correct horse")

	_, err := env.client.Login(ctx, sessionsdk.LoginRequest{Email: p.Email})
	requireAPIError(t, err, sessionsdk.ErrorTypeCredentialNotSupplied)

	_, err = env.client.Login(ctx, sessionsdk.LoginRequest{
		Email:        p.Email,
		Password:     "correct horse",
		RefreshToken: "something",
	})
	requireAPIError(t, err, sessionsdk.ErrorTypeCredentialNotSupplied)

	_, err = env.client.Login(ctx, sessionsdk.LoginRequest{Email: p.Email, Password: "wrong"})
	requireAPIError(t, err, sessionsdk.ErrorTypeInvalidCredentials)
}

func TestRefreshRotationAndReplayOverHTTP(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	p := env.seedPrincipal(t, "correct horse")

	first, err := env.client.Login(ctx, sessionsdk.LoginRequest{Email: p.Email, Password: "correct horse"})
	require.NoError(t, err)

	check, err := env.client.CheckRefresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.True(t, check.Usable)

	second, err := env.client.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	check, err = env.client.CheckRefresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.False(t, check.Usable)

	_, err = env.client.Refresh(ctx, first.RefreshToken)
	requireAPIError(t, err, sessionsdk.ErrorTypeRefreshTokenAlreadyUsed)

	_, err = env.client.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
}

func TestOneTimeCodeLoginOverHTTP(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	p := env.seedPrincipal(t, "correct horse")

	require.NoError(t, env.client.RequestOneTimeCode(ctx, p.Email))
	code := <-env.deliveredCodes

	tokens, err := env.client.Login(ctx, sessionsdk.LoginRequest{Email: p.Email, OneTimeCode: code})
	require.NoError(t, err)

	subject, err := env.client.Whoami(ctx, tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t,
		[]string{string(domain.MethodOneTimeCode)},
		subject.Attributes[string(domain.AttributeAuthenticationMethod)],
	)

	// Unknown accounts get the same 202 so the endpoint can't leak account
	// existence.
	require.NoError(t, env.client.RequestOneTimeCode(ctx, "nobody@example.com"))
}

func TestChangePasswordKillsOutstandingTokens(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	p := env.seedPrincipal(t, "correct horse")

	tokens, err := env.client.Login(ctx, sessionsdk.LoginRequest{Email: p.Email, Password: "correct horse"})
	require.NoError(t, err)

	require.NoError(t, env.client.ChangePassword(ctx, tokens.AccessToken, sessionsdk.ChangePasswordRequest{
		CurrentPassword: "correct horse",
		NewPassword:     "battery staple",
	}))

	_, err = env.client.Whoami(ctx, tokens.AccessToken)
	requireAPIError(t, err, sessionsdk.ErrorTypeStaleCredential)

	_, err = env.client.Refresh(ctx, tokens.RefreshToken)
	requireAPIError(t, err, sessionsdk.ErrorTypeStaleCredential)

	_, err = env.client.Login(ctx, sessionsdk.LoginRequest{Email: p.Email, Password: "battery staple"})
	require.NoError(t, err)
}

func TestWhoamiRequiresBearer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.client.Whoami(ctx, "")
	requireAPIError(t, err, sessionsdk.ErrorTypeAuthenticationRequired)

	_, err = env.client.Whoami(ctx, "garbage")
	requireAPIError(t, err, sessionsdk.ErrorTypeIllegalToken)
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)

	health, err := env.client.Livez(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "test", health.Version)

	resp, err := env.server.Client().Get(env.server.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
}
