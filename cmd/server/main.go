package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/artist-map-tracker/internal/config"
	"github.com/iliyamo/artist-map-tracker/internal/database"
	"github.com/iliyamo/artist-map-tracker/internal/geocoding"
	"github.com/iliyamo/artist-map-tracker/internal/handler"
	"github.com/iliyamo/artist-map-tracker/internal/lib/logger/sl"
	"github.com/iliyamo/artist-map-tracker/internal/metrics"
	"github.com/iliyamo/artist-map-tracker/internal/middleware"
	"github.com/iliyamo/artist-map-tracker/internal/obs"
	"github.com/iliyamo/artist-map-tracker/internal/queue"
	"github.com/iliyamo/artist-map-tracker/internal/repository"
	"github.com/iliyamo/artist-map-tracker/internal/router"
	"github.com/iliyamo/artist-map-tracker/internal/service"
)

const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

func main() {
	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)
	log.Info("starting server", slog.String("env", cfg.Env), slog.String("port", cfg.Port))

	loc, err := cfg.Location()
	if err != nil {
		log.Error("invalid time zone", sl.Err(err))
		os.Exit(1)
	}

	shutdownTracer := obs.InitTracer(log, cfg.OTLPEndpoint, cfg.Env)
	m := metrics.New()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Error("failed to connect to database", sl.Err(err))
		os.Exit(1)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; response cache, rate limiting and geocode cache disabled")
	} else {
		defer rdb.Close()
	}

	cacheCfg, err := config.LoadCacheConfig()
	if err != nil {
		log.Error("invalid cache config", sl.Err(err))
		os.Exit(1)
	}
	rlCfg, err := config.LoadRateLimitConfig()
	if err != nil {
		log.Error("invalid rate limit config", sl.Err(err))
		os.Exit(1)
	}

	accounts := repository.NewAccountRepo(db)
	tokens := repository.NewTokenRepo(db)
	artists := repository.NewArtistRepo(db)
	venues := repository.NewVenueRepo(db)
	events := repository.NewEventRepo(db)
	bookings := repository.NewBookingRepo(db, events)

	geo := geocoding.NewCached(geocoding.NewNominatim(cfg.GeocodingConfig, m), rdb, cfg.CacheTTL, log, m)
	pub := queue.NewPublisher(cfg.RabbitURL, log)

	svc := service.NewEventService(log, service.Deps{
		Venues:   venues,
		Events:   events,
		Bookings: bookings,
		Artists:  artists,
		Geocoder: geo,
		Pub:      pub,
		Metrics:  m,
		Location: loc,
	})

	cache := middleware.NewResponseCache(cacheCfg, rdb, log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = middleware.NewValidator()
	e.HTTPErrorHandler = middleware.HTTPErrorHandler(log)
	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			m.PanicRecovered()
			log.Error("panic recovered", slog.String("path", c.Path()), sl.Err(err))
			return err
		},
	}))
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.CORS())
	e.Use(middleware.RequestLogger(log))
	e.Use(m.Middleware())

	router.RegisterRoutes(e, m.Handler())
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, accounts, tokens, m, log), cfg.JWTSecret)
	router.RegisterArtist(e, handler.NewArtistHandler(artists, log), cfg.JWTSecret)
	router.RegisterEvents(e, handler.NewEventHandler(svc, cache, log), cfg.JWTSecret,
		middleware.NewTokenBucket(rlCfg, rdb, log, m),
		cache.Middleware(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.ConsumerEnabled {
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.ActivityLogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("activity consumer stopped", sl.Err(err))
			}
		}()
	}

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("stopping server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop server", sl.Err(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("failed to flush traces", sl.Err(err))
	}
	log.Info("server stopped")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envDev:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	return log
}
