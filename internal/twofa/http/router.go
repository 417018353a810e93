package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/huddlehq/twofa/internal/twofa/service"
	"github.com/huddlehq/twofa/internal/twofa/store"
	"github.com/huddlehq/twofa/pkg/httpx"
	"github.com/huddlehq/twofa/pkg/jwtx"
	"github.com/huddlehq/twofa/pkg/slogx"

	_ "github.com/huddlehq/twofa/api/twofa" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store               store.Store
	ProvisioningService *service.ProvisioningService
	GrantService        *service.GrantService
	Registry            *service.ChallengeRegistry

	// EnrollmentSettleDelay and step-up tick interval are threaded into the
	// flow instances the handlers create. Tests compress both.
	EnrollmentSettleDelay time.Duration
	StepUpTickInterval    time.Duration
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerEnrollment()
	r.registerChallenges()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Huddle Two-Factor Service API
//	@version		0.1.0
//	@description	Enrollment and verification engine for two-factor authentication: TOTP enrollment with
//	@description	one-time backup codes, attempt-limited verification challenges, and time-boxed step-up
//	@description	re-authentication minting short-lived EdDSA grants.
//
//	@contact.name				Huddle Platform Team
//	@contact.url				https://github.com/huddlehq/twofa
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
//	@description				JWT identity token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerEnrollment() {
	h := &EnrollmentHandler{
		Provisioning: r.ProvisioningService,
		Registry:     r.Registry,
		SettleDelay:  r.EnrollmentSettleDelay,
	}

	authn := httpx.AuthnMiddleware(r.verifier)

	// Enrollment start/verify are strict: they gate credential creation.
	r.Mux.Handle("POST /v1/2fa/enroll",
		httpx.Chain(http.HandlerFunc(h.HandleStart),
			authn,
			httpx.RateLimitBySubject(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/2fa/enroll/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			authn,
			httpx.RateLimitBySubject(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/2fa/enroll/ack",
		httpx.Chain(http.HandlerFunc(h.HandleAck),
			authn,
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/2fa/enroll",
		httpx.Chain(http.HandlerFunc(h.HandleStatus),
			authn,
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		),
	)

	// Disabling 2FA is a sensitive admin-ish action gated by scope.
	r.Mux.Handle("DELETE /v1/2fa/enroll",
		httpx.Chain(http.HandlerFunc(h.HandleDisable),
			authn,
			httpx.RequireScopes("2fa:manage"),
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /v1/2fa/backup-codes",
		httpx.Chain(http.HandlerFunc(h.HandleRegenerateBackupCodes),
			authn,
			httpx.RequireScopes("2fa:manage"),
			httpx.RateLimitBySubject(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerChallenges() {
	h := &ChallengeHandler{
		Provisioning: r.ProvisioningService,
		Grants:       r.GrantService,
		Registry:     r.Registry,
		TickInterval: r.StepUpTickInterval,
	}

	authn := httpx.AuthnMiddleware(r.verifier)

	r.Mux.Handle("POST /v1/2fa/challenges",
		httpx.Chain(http.HandlerFunc(h.HandleStart),
			authn,
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		),
	)

	// Code submission is the brute-force surface.
	r.Mux.Handle("POST /v1/2fa/challenges/{id}/verify",
		httpx.Chain(http.HandlerFunc(h.HandleSubmit),
			authn,
			httpx.RateLimitBySubject(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/2fa/challenges/{id}/path",
		httpx.Chain(http.HandlerFunc(h.HandleSwitchPath),
			authn,
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/2fa/challenges/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleCancel),
			authn,
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
