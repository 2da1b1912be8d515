package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/covergate/sessiond/internal/session/service"
	"github.com/covergate/sessiond/pkg/sessionsdk"
	"github.com/covergate/sessiond/pkg/slogx"
)

// writeServiceError maps service-layer failures onto the uniform error
// envelope. Anything unmapped is an internal error and gets logged with its
// cause; the client only ever sees the opaque envelope.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var replay *service.RefreshTokenAlreadyUsedError
	if errors.As(err, &replay) {
		sessionsdk.ErrRefreshTokenAlreadyUsed.WriteError(w)
		return
	}

	switch {
	case errors.Is(err, service.ErrCredentialNotSupplied):
		sessionsdk.ErrCredentialNotSupplied.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		sessionsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrIllegalToken):
		sessionsdk.ErrIllegalToken.WriteError(w)
	case errors.Is(err, service.ErrStaleCredential):
		sessionsdk.ErrStaleCredential.WriteError(w)
	case errors.Is(err, service.ErrClaimedPrincipalNotFound):
		sessionsdk.ErrPrincipalNotFound.WriteError(w)
	case errors.Is(err, service.ErrPrincipalSuspended):
		sessionsdk.ErrPrincipalSuspended.WriteError(w)
	default:
		slogx.FromContext(ctx).Error("request failed", "error", err)
		sessionsdk.ErrInternalServerError.WriteError(w)
	}
}
