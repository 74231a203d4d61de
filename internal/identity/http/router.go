package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/nexusai/careerid/internal/identity/service"
	"github.com/nexusai/careerid/internal/identity/store"
	"github.com/nexusai/careerid/pkg/httpx"
	"github.com/nexusai/careerid/pkg/jwtx"
	"github.com/nexusai/careerid/pkg/slogx"

	_ "github.com/nexusai/careerid/api/identity" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer       jwtx.Signer
	verifier     jwtx.Verifier
	issuer       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store            store.Store
	AuthService      *service.AuthService
	MFAService       *service.MFAService
	BootstrapService *service.BootstrapService
	AdminService     *service.AdminService
	ProfileService   *service.ProfileService
}

func NewRouter(
	signer jwtx.Signer,
	verifier jwtx.Verifier,
	issuer, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		signer:       signer,
		verifier:     verifier,
		issuer:       issuer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain. CORS runs outermost so preflight
	// requests never reach the handlers.
	r.middlewares = []httpx.Middleware{
		httpx.CORSMiddleware(),
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerMFA()
	r.registerFunctions()
	r.registerAdmin()
	r.registerProfile()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			CareerID Identity Service API
//	@version		0.1.0
//	@description	Identity and session gateway: registration with email confirmation,
//	@description	password sign in with optional TOTP second factor, refresh token
//	@description	rotation, and privileged administrative user management with an
//	@description	append-only audit trail.
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
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	signUp := &SignUpHandler{AuthService: r.AuthService}
	signIn := &SignInHandler{AuthService: r.AuthService}
	session := &SessionHandler{AuthService: r.AuthService}
	emailFlows := &EmailFlowsHandler{AuthService: r.AuthService}

	// Registration and credential endpoints take the strict profile: they
	// are the brute-force surface.
	r.Mux.Handle("POST /v1/auth/signup",
		httpx.Chain(signUp,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/signin",
		httpx.Chain(http.HandlerFunc(signIn.HandleSignIn),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/mfa/verify",
		httpx.Chain(http.HandlerFunc(signIn.HandleMFAVerify),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(session.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/signout",
		httpx.Chain(http.HandlerFunc(session.HandleSignOut),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/confirm",
		httpx.Chain(http.HandlerFunc(emailFlows.HandleConfirm),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/resend-confirmation",
		httpx.Chain(http.HandlerFunc(emailFlows.HandleResendConfirmation),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/password-reset",
		httpx.Chain(http.HandlerFunc(emailFlows.HandleResetRequest),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/password-reset/confirm",
		httpx.Chain(http.HandlerFunc(emailFlows.HandleResetConfirm),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	userInfo := &UserInfoHandler{Store: r.store}
	r.Mux.Handle("GET /v1/auth/userinfo",
		httpx.Chain(userInfo,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("profile:read"),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFAService: r.MFAService}

	secured := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("profile:write"),
			httpx.RateLimitByUser(httpx.StrictLimit),
		)
	}

	r.Mux.Handle("POST /v1/mfa/totp/enroll", secured(h.HandleEnroll))
	r.Mux.Handle("POST /v1/mfa/totp/verify", secured(h.HandleVerify))
	r.Mux.Handle("POST /v1/mfa/totp/unenroll", secured(h.HandleUnenroll))
}

func (r *Router) registerFunctions() {
	h := &FunctionsHandler{
		BootstrapService: r.BootstrapService,
		AdminService:     r.AdminService,
		Verifier:         r.verifier,
	}

	// The function endpoints authenticate in-handler to keep their flat
	// error shape; only rate limiting is applied here.
	r.Mux.Handle("POST /functions/create-admin",
		httpx.Chain(http.HandlerFunc(h.HandleCreateAdmin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /functions/delete-user",
		httpx.Chain(http.HandlerFunc(h.HandleDeleteUser),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{AdminService: r.AdminService}

	read := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("admin:read"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}
	// Mutations need the full admin grant, not just the write scope.
	write := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAllScopes("admin:read", "admin:write"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /v1/admin/users", read(h.HandleListUsers))
	r.Mux.Handle("PUT /v1/admin/users/{id}/role", write(h.HandleSetRole))
	r.Mux.Handle("GET /v1/admin/audit", read(h.HandleListAuditLog))
}

func (r *Router) registerProfile() {
	h := &ProfileHandler{ProfileService: r.ProfileService}

	r.Mux.Handle("GET /v1/profile",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("profile:read"),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PATCH /v1/profile",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("profile:write"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.signer))
}
