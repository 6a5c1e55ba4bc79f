package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"fundbridge.io/internal/auth"
	"fundbridge.io/internal/config"
	"fundbridge.io/internal/merchant"
	"fundbridge.io/internal/obs"
)

// ReadyProbe checks downstream readiness (DB ping when configured).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer: the auth chain (extract, verify, guard) plus the
// service endpoints it protects.
type API struct {
	tokens     *auth.Service
	merchants  merchant.Store
	readyProbe ReadyProbe
	validate   *validator.Validate
	router     chi.Router
	version    string

	cookieName       string
	legacyCookieName string
	adminPathPrefix  string
	accessTTL        int // cookie max-age seconds
	rememberTTL      int
	secureCookies    bool
}

// New wires routes, middleware and guards.
func New(cfg *config.Config, tokens *auth.Service, merchants merchant.Store, rp ReadyProbe, version string) *API {
	a := &API{
		tokens:     tokens,
		merchants:  merchants,
		readyProbe: rp,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		version:    version,

		cookieName:       cfg.Auth.CookieName,
		legacyCookieName: cfg.Auth.LegacyCookieName,
		adminPathPrefix:  cfg.Auth.AdminPathPrefix,
		accessTTL:        int(cfg.Auth.AccessTTL.Seconds()),
		rememberTTL:      int(cfg.Auth.RememberTTL.Seconds()),
		secureCookies:    cfg.Server.IsProduction(),
	}

	r := chi.NewRouter()
	r.Use(SecurityHeaders)
	r.Use(RequestLogging)
	r.Use(MaxBodyBytes(cfg.Limits.MaxBodyBytes))
	r.Use(RateLimit(cfg.Limits.RateBurst, cfg.Limits.RatePerSecond))

	r.Get("/healthz", a.handleHealthz)
	r.Get("/readyz", a.handleReady)
	r.Get("/openapi.yaml", handleOpenAPISpec)
	r.Method(http.MethodGet, "/metrics", obs.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/info", a.handleInfo)
		r.Post("/auth/token", a.handleIssueToken)

		r.Group(func(r chi.Router) {
			r.Use(a.withAuth)

			r.With(a.isAdmin()).Get("/admin/overview", a.handleAdminOverview)
			r.With(a.isMerchant()).Get("/merchant/profile", a.handleMerchantProfile)
			r.With(a.isCustomer()).Get("/account", a.handleAccount)
			r.With(a.isInvestor()).Get("/portfolio", a.handlePortfolio)
			r.With(a.isSalesRep()).Get("/sales/pipeline", a.handleSalesPipeline)
			r.With(a.isAdminOrMerchant()).Get("/contracts", a.handleContracts)
			r.With(a.authenticateToken()).Get("/me", a.handleMe)
		})
	})

	a.router = r
	return a
}

// Handler returns the instrumented root handler.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.router)
}
