package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openfab/gatekeeper/internal/auth/domain"
	"github.com/openfab/gatekeeper/internal/auth/service"
	"github.com/openfab/gatekeeper/internal/auth/store"
	"github.com/openfab/gatekeeper/pkg/httpx"
	"github.com/openfab/gatekeeper/pkg/metricx"
	"github.com/openfab/gatekeeper/pkg/slogx"

	_ "github.com/openfab/gatekeeper/api/gatekeeper" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	metrics      *metricx.Collector

	store            store.Store
	AuthService      *service.AuthService
	UserService      *service.UserService
	InviteService    *service.InviteService
	BootstrapService *service.BootstrapService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
	registry *prometheus.Registry,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		metrics:      metricx.NewCollector(registry),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		r.metrics.HTTPMiddleware,
	}

	return r
}

func (r *Router) ApplyRoutes(registry *prometheus.Registry) {
	r.registerAuth()
	r.registerMe()
	r.registerInvites()
	r.registerUsers()
	r.registerSystem(registry)

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Gatekeeper Authentication Service API
//	@version		0.1.0
//	@description	Hybrid token/session authentication with hierarchical role-based access control
//	@description	and bounded-use invite codes. Tokens are HS256-signed and self-contained; a
//	@description	server-side session record makes them revocable before their embedded expiry.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) authn() httpx.Middleware {
	return AuthnMiddleware(r.AuthService, r.metrics)
}

func (r *Router) registerAuth() {
	// POST /login - strict limit by IP, this is the credential guessing surface
	loginHandler := &LoginHandler{AuthService: r.AuthService, Metrics: r.metrics}
	r.Mux.Handle("POST /v1/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /signup - strict limit by IP, public invite redemption surface
	signupHandler := &SignupHandler{InviteService: r.InviteService, Metrics: r.metrics}
	r.Mux.Handle("POST /v1/signup",
		httpx.Chain(signupHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /logout - authenticated, lenient
	logoutHandler := &LogoutHandler{AuthService: r.AuthService}
	r.Mux.Handle("POST /v1/logout",
		httpx.Chain(logoutHandler,
			r.authn(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// POST /bootstrap - strict limit by IP, only useful on an empty database
	bootstrapHandler := &BootstrapHandler{BootstrapService: r.BootstrapService}
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(bootstrapHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerMe() {
	h := &MeHandler{AuthService: r.AuthService, UserService: r.UserService}

	r.Mux.Handle("GET /v1/me",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			r.authn(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PATCH /v1/me",
		httpx.Chain(http.HandlerFunc(h.HandlePatch),
			r.authn(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	// Password changes re-run the slow hash twice; keep them strict.
	r.Mux.Handle("POST /v1/me/password",
		httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
			r.authn(),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerInvites() {
	h := &InviteHandler{InviteService: r.InviteService, Metrics: r.metrics}

	r.Mux.Handle("POST /v1/invites",
		httpx.Chain(http.HandlerFunc(h.HandleMint),
			r.authn(),
			RequirePermission(domain.PermManageInvites),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/invites",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			r.authn(),
			RequirePermission(domain.PermManageInvites),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/invites/{code}",
		httpx.Chain(http.HandlerFunc(h.HandleRevoke),
			r.authn(),
			RequirePermission(domain.PermManageInvites),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}

	r.Mux.Handle("GET /v1/users",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			r.authn(),
			RequirePermission(domain.PermManageUsers),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PATCH /v1/users/{id}/role",
		httpx.Chain(http.HandlerFunc(h.HandleChangeRole),
			r.authn(),
			RequirePermission(domain.PermManageUsers),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/users/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDeactivate),
			r.authn(),
			RequirePermission(domain.PermManageUsers),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem(registry *prometheus.Registry) {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
	r.Mux.Handle("GET /metrics", metricx.Handler(registry))
}
