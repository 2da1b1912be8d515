package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/covergate/sessiond/internal/session/domain"
	"github.com/covergate/sessiond/internal/session/service"
	"github.com/covergate/sessiond/pkg/httpx"
	"github.com/covergate/sessiond/pkg/sessionsdk"
	"github.com/covergate/sessiond/pkg/slogx"
)

// SessionHandler serves the session lifecycle endpoints.
type SessionHandler struct {
	Login       *service.LoginService
	Tokens      *service.TokenService
	DeliverCode func(ctx context.Context, email, code string) error
}

// HandleLogin starts or extends a session. The request must carry exactly
// one credential: password, one-time code, or refresh token.
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req sessionsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sessionsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.Login.Login(r.Context(), service.Credentials{
		Email:        req.Email,
		Password:     req.Password,
		OneTimeCode:  req.OneTimeCode,
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse(pair))
}

// HandleRequestOneTimeCode issues a login code for an account. The response
// is 202 regardless of whether the account exists, so the endpoint cannot be
// used to enumerate accounts.
func (h *SessionHandler) HandleRequestOneTimeCode(w http.ResponseWriter, r *http.Request) {
	var req sessionsdk.OneTimeCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		sessionsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	ctx := r.Context()
	code, err := h.Login.RequestOneTimeCode(ctx, req.Email)
	switch {
	case err == nil:
		if h.DeliverCode != nil {
			if err := h.DeliverCode(ctx, req.Email, code); err != nil {
				slogx.FromContext(ctx).Error("one-time code delivery failed", "error", err)
			}
		}
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrPrincipalSuspended):
		// Swallowed on purpose.
	default:
		writeServiceError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// HandleRefreshCheck reports whether a refresh token is still redeemable
// without consuming it. The answer is advisory; only an actual refresh
// decides under race.
func (h *SessionHandler) HandleRefreshCheck(w http.ResponseWriter, r *http.Request) {
	var req sessionsdk.RefreshCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		sessionsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	err := h.Tokens.EnsureNotYetUsed(r.Context(), req.RefreshToken)

	var replay *service.RefreshTokenAlreadyUsedError
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, sessionsdk.RefreshCheckResponse{Usable: true})
	case errors.As(err, &replay):
		httpx.WriteJSON(w, http.StatusOK, sessionsdk.RefreshCheckResponse{Usable: false})
	default:
		writeServiceError(r.Context(), w, err)
	}
}

// HandleChangePassword replaces the caller's password, which invalidates
// every outstanding token at its next use. Requires an authenticated
// subject.
func (h *SessionHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	subject := SubjectFromContext(r.Context())
	if subject == nil {
		sessionsdk.ErrAuthenticationRequired.WriteError(w)
		return
	}

	var req sessionsdk.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.CurrentPassword == "" || req.NewPassword == "" {
		sessionsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	ids := subject.Get(domain.AttributeUserID)
	if len(ids) != 1 {
		sessionsdk.ErrAuthenticationRequired.WriteError(w)
		return
	}

	if err := h.Login.ChangePassword(r.Context(), ids[0], req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleWhoami renders the resolved subject. Requires an authenticated
// subject.
func HandleWhoami(w http.ResponseWriter, r *http.Request) {
	subject := SubjectFromContext(r.Context())
	if subject == nil {
		sessionsdk.ErrAuthenticationRequired.WriteError(w)
		return
	}

	attrs := make(map[string][]string)
	for _, attr := range subject.Attributes() {
		attrs[string(attr)] = subject.Get(attr)
	}

	httpx.WriteJSON(w, http.StatusOK, sessionsdk.SubjectResponse{Attributes: attrs})
}

func tokenResponse(pair *domain.TokenPair) sessionsdk.TokenResponse {
	return sessionsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int64(pair.ExpiresIn.Seconds()),
	}
}
