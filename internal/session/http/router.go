package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/covergate/sessiond/internal/session/service"
	"github.com/covergate/sessiond/internal/session/store"
	"github.com/covergate/sessiond/pkg/httpx"
	"github.com/covergate/sessiond/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	LoginService   *service.LoginService
	TokenService   *service.TokenService
	SubjectService *service.SubjectService

	// DeliverCode hands an issued one-time login code to a delivery channel
	// (mail, SMS). Nil means the code is only logged, which is enough for
	// development setups.
	DeliverCode func(ctx context.Context, email, code string) error
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSessions()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSessions() {
	sessions := &SessionHandler{
		Login:       r.LoginService,
		Tokens:      r.TokenService,
		DeliverCode: r.DeliverCode,
	}

	// Credential-presenting endpoints get the strict limit; brute force on
	// any of them is an attack on the same surface.
	r.Mux.Handle("POST /v1/sessions",
		httpx.Chain(http.HandlerFunc(sessions.HandleLogin),
			httpx.RateLimitByOrigin(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/sessions/one-time-code",
		httpx.Chain(http.HandlerFunc(sessions.HandleRequestOneTimeCode),
			httpx.RateLimitByOrigin(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/sessions/refresh-check",
		httpx.Chain(http.HandlerFunc(sessions.HandleRefreshCheck),
			httpx.RateLimitByOrigin(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /v1/sessions/me",
		httpx.Chain(http.HandlerFunc(HandleWhoami),
			httpx.RateLimitByOrigin(httpx.LenientLimit),
			ResolveSubject(r.SubjectService),
		),
	)
	r.Mux.Handle("POST /v1/sessions/password",
		httpx.Chain(http.HandlerFunc(sessions.HandleChangePassword),
			httpx.RateLimitByOrigin(httpx.StrictLimit),
			ResolveSubject(r.SubjectService),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
