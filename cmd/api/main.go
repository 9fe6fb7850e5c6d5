package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agendafacil/booking-api/internal/config"
	"github.com/agendafacil/booking-api/internal/email"
	"github.com/agendafacil/booking-api/internal/handler"
	authHandler "github.com/agendafacil/booking-api/internal/handler/auth"
	bookingHandler "github.com/agendafacil/booking-api/internal/handler/booking"
	catalogHandler "github.com/agendafacil/booking-api/internal/handler/catalog"
	feedHandler "github.com/agendafacil/booking-api/internal/handler/feed"
	"github.com/agendafacil/booking-api/internal/middleware"
	"github.com/agendafacil/booking-api/internal/repository/postgres"
	"github.com/agendafacil/booking-api/internal/router"
	authService "github.com/agendafacil/booking-api/internal/service/auth"
	bookingService "github.com/agendafacil/booking-api/internal/service/booking"
	catalogService "github.com/agendafacil/booking-api/internal/service/catalog"
	feedService "github.com/agendafacil/booking-api/internal/service/feed"
	"github.com/agendafacil/booking-api/pkg/auth"
	"github.com/agendafacil/booking-api/pkg/logger"
	"github.com/agendafacil/booking-api/pkg/messaging/redis"
	"github.com/agendafacil/booking-api/pkg/metrics"
	"github.com/agendafacil/booking-api/pkg/security"
)

func main() {
	log := logger.New(&logger.Config{Level: os.Getenv("LOG_LEVEL")})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	m := metrics.New(cfg.Metrics.Namespace)

	userRepo := postgres.NewUserRepository(db)
	serviceRepo := postgres.NewServiceRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)

	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	tokens := auth.NewJWTService(cfg.JWT)
	mailer := email.NewMailer(cfg.SMTP, log)

	feedSvc := feedService.NewService(broker, m, log)
	authSvc := authService.NewService(userRepo, hasher, tokens, log)
	catalogSvc := catalogService.NewService(serviceRepo, bookingRepo, feedSvc, log)
	bookingSvc := bookingService.NewService(bookingRepo, serviceRepo, userRepo, feedSvc, mailer, m, log)

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authSvc.EnsureAdmin(seedCtx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure admin account")
	}
	seedCancel()

	handler.RegisterValidators()

	authMiddleware := middleware.NewAuthMiddleware(tokens, userRepo)

	h := handler.NewHandler(db)
	authH := authHandler.NewHandler(authSvc)
	catalogH := catalogHandler.NewHandler(catalogSvc)
	bookingH := bookingHandler.NewHandler(bookingSvc)
	feedH := feedHandler.NewHandler(feedSvc, m, log)

	routerCfg := router.Config{
		CORS:    middleware.DefaultCORSConfig(),
		Timeout: middleware.TimeoutConfig{Duration: cfg.Server.RequestTimeout},
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		routerCfg.CORS.AllowOrigins = cfg.Security.AllowedOrigins
	}
	if cfg.RateLimit.Enabled {
		routerCfg.RateLimitRPS = cfg.RateLimit.RequestsPerSecond
		routerCfg.RateLimitBurst = cfg.RateLimit.Burst
	}

	r := router.NewRouter(authMiddleware, authH, catalogH, bookingH, feedH, h, m, log, routerCfg)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
