package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/covergate/sessiond/internal/session/domain"
	"github.com/covergate/sessiond/internal/session/service"
	"github.com/covergate/sessiond/pkg/httpx"
)

type subjectCtxKey struct{}

// SubjectFromContext returns the resolved subject for the request, or nil
// for an anonymous request.
func SubjectFromContext(ctx context.Context) *domain.Subject {
	s, _ := ctx.Value(subjectCtxKey{}).(*domain.Subject)
	return s
}

// ResolveSubject resolves the bearer token (if any) into a composite subject
// and stores it in the request context. A missing Authorization header passes
// through as anonymous; a present-but-invalid token is rejected here, so
// handlers behind this middleware never see half-validated identities.
func ResolveSubject(subjects *service.SubjectService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearer := bearerToken(r)

			subject, err := subjects.Resolve(r.Context(), bearer, httpx.ExtractClientOrigin(r))
			if err != nil {
				writeServiceError(r.Context(), w, err)
				return
			}
			if subject == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), subjectCtxKey{}, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
