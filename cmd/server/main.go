package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/movie-review-api/internal/config"
	"github.com/iliyamo/movie-review-api/internal/database"
	"github.com/iliyamo/movie-review-api/internal/handler"
	"github.com/iliyamo/movie-review-api/internal/middleware"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/repository"
	"github.com/iliyamo/movie-review-api/internal/router"
	"github.com/iliyamo/movie-review-api/internal/storage"
)

func main() {
	bootLog := hclog.New(&hclog.LoggerOptions{Name: "movie-review-api"})
	if err := config.LoadDotEnv(); err != nil {
		bootLog.Error("read .env", "error", err)
		os.Exit(1)
	}
	cfg := config.Load()

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "movie-review-api",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})
	// run returns only after its deferred cleanup has closed the database
	// and Redis.
	if err := run(cfg, logger); err != nil {
		logger.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger hclog.Logger) error {
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if cfg.DBMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	posters, err := storage.NewPosterStore(cfg.StorageDir, cfg.AppURL)
	if err != nil {
		return fmt.Errorf("poster storage: %w", err)
	}

	rdb := config.NewRedisClient(logger)
	if rdb != nil {
		defer rdb.Close()
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	movies := repository.NewMovieRepo(db)
	reviews := repository.NewReviewRepo(db)
	directors := repository.NewReferenceRepo(db, model.DirectorKind)
	actors := repository.NewReferenceRepo(db, model.ActorKind)
	genres := repository.NewReferenceRepo(db, model.GenreKind)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(logger.Named("http"))

	httpLog := logger.Named("http")
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			args := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "ip", v.RemoteIP}
			if v.Error != nil {
				args = append(args, "error", v.Error)
			}
			httpLog.Info("request", args...)
			return nil
		},
	}))
	e.Use(echomw.BodyLimit("4M"))
	e.Static("/storage", cfg.StorageDir)

	routes := router.Table(router.Handlers{
		Health:    handler.Health(db),
		Auth:      handler.NewAuthHandler(cfg, users, tokens, logger),
		Movies:    handler.NewMovieHandler(movies, reviews, directors, genres, posters, logger),
		Reviews:   handler.NewReviewHandler(reviews, movies, logger),
		Cast:      handler.NewCastHandler(repository.NewCastRepo(db), movies, actors, logger),
		Directors: handler.NewReferenceHandler(directors, logger),
		Actors:    handler.NewReferenceHandler(actors, logger),
		Genres:    handler.NewReferenceHandler(genres, logger),
	})
	router.Register(e, routes, router.Guards{
		JWTSecret: cfg.JWTSecret,
		Tokens:    tokens,
		RateLimit: limiter,
		Log:       logger.Named("auth"),
	})

	logger.Info("starting", "env", cfg.Env, "routes", len(routes))
	return serve(e, ":"+cfg.Port, logger)
}

// serve runs e until it fails or the process is asked to stop, then shuts
// it down gracefully.
func serve(e *echo.Echo, addr string, logger hclog.Logger) error {
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errc:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(ctx)
}
