package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/agendafacil/booking-api/internal/handler"
	authhandler "github.com/agendafacil/booking-api/internal/handler/auth"
	bookinghandler "github.com/agendafacil/booking-api/internal/handler/booking"
	cataloghandler "github.com/agendafacil/booking-api/internal/handler/catalog"
	feedhandler "github.com/agendafacil/booking-api/internal/handler/feed"
	"github.com/agendafacil/booking-api/internal/middleware"
	"github.com/agendafacil/booking-api/pkg/metrics"
)

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
	CORS           middleware.CORSConfig
	Timeout        middleware.TimeoutConfig
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	authH    *authhandler.Handler
	catalogH *cataloghandler.Handler
	bookingH *bookinghandler.Handler
	feedH    *feedhandler.Handler
	h        *handler.Handler
	cfg      Config
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH *authhandler.Handler,
	catalogH *cataloghandler.Handler,
	bookingH *bookinghandler.Handler,
	feedH *feedhandler.Handler,
	h *handler.Handler,
	m *metrics.Metrics,
	logger zerolog.Logger,
	cfg Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Metrics(m),
		middleware.CORS(cfg.CORS),
	)

	if cfg.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		engine.Use(limiter.RateLimit())
	}

	return &Router{
		engine:   engine,
		auth:     auth,
		authH:    authH,
		catalogH: catalogH,
		bookingH: bookingH,
		feedH:    feedH,
		h:        h,
		cfg:      cfg,
	}
}

// Setup wires all route groups. The event streams skip the timeout
// middleware; everything else is bounded.
func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.setupHealthCheck(api)

	timeout := middleware.Timeout(r.cfg.Timeout)

	public := api.Group("")
	public.Use(timeout)
	r.authH.RegisterRoutes(public)
	r.catalogH.RegisterRoutes(public)
	r.bookingH.RegisterRoutes(public)

	protected := api.Group("")
	protected.Use(timeout, r.auth.Authenticate())
	r.authH.RegisterProtectedRoutes(protected)
	r.bookingH.RegisterProtectedRoutes(protected)

	admin := api.Group("/admin")
	admin.Use(r.auth.Authenticate(), r.auth.RequireAdmin())

	adminREST := admin.Group("")
	adminREST.Use(timeout)
	r.catalogH.RegisterAdminRoutes(adminREST)
	r.bookingH.RegisterAdminRoutes(adminREST)

	r.feedH.RegisterAdminRoutes(admin)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}
}

// Engine exposes the underlying gin engine for the HTTP server.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
