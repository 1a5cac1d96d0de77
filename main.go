package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/padraicbc/racingdb/config"
	"github.com/padraicbc/racingdb/db"
	"github.com/padraicbc/racingdb/handlers"
	applog "github.com/padraicbc/racingdb/logger"
	"github.com/padraicbc/racingdb/metrics"
	mw "github.com/padraicbc/racingdb/middleware"
	"github.com/padraicbc/racingdb/procs"
	"github.com/padraicbc/racingdb/web"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	logger, err := applog.New("racingdb", cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	bdb, err := db.Setup(cfg)
	if err != nil {
		logger.Fatal("database setup failed", zap.Error(err))
	}
	pool := db.NewPool(bdb, db.PoolOptions{
		Limit:      cfg.ConnectionLimit,
		Wait:       cfg.WaitForConnections,
		QueueLimit: cfg.QueueLimit,
	})
	defer pool.Close()

	startupChecks(pool, cfg, logger)

	var users handlers.UserStore
	if cfg.AdminAuth {
		users = db.NewUserStore(pool)
	}
	h := handlers.New(procs.NewGateway(pool, logger), users, logger, handlers.Options{
		JWTKey:      cfg.JWTKey(),
		AdminAuth:   cfg.AdminAuth,
		Development: cfg.Development(),
		Version:     version,
	})

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = h.HTTPErrorHandler

	recoverCfg := echomw.DefaultRecoverConfig
	recoverCfg.LogErrorFunc = h.Recovered

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogError:     true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.String("request_id", v.RequestID),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			switch {
			case v.Status >= 500:
				logger.Error("http request", fields...)
			case v.Status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
			return nil
		},
	}))
	e.Use(mw.Metrics("/metrics"))
	e.Use(echomw.RecoverWithConfig(recoverCfg))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"*", echo.HeaderAuthorization},
	}))

	h.Routes(e)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/*", web.Handler(web.FS()))

	for _, r := range e.Routes() {
		logger.Debug("route", zap.String("method", r.Method), zap.String("path", r.Path))
	}

	if cfg.Debug || len(cfg.TLSDomains) == 0 {
		serve(&http.Server{Addr: cfg.Port, Handler: e}, false, logger)
		return
	}

	autoTLS := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache(".cache"),
		HostPolicy: autocert.HostWhitelist(cfg.TLSDomains...),
	}

	s := &http.Server{
		Addr:         ":443",
		Handler:      e,
		TLSConfig:    autoTLS.TLSConfig(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	serve(s, true, logger)
}

// startupChecks logs, but never fails on, an unreachable database or a
// schema missing the procedures the API calls.
func startupChecks(pool *db.Pool, cfg *config.Config, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		logger.Warn("database unreachable at startup", zap.Error(err))
		return
	}
	logger.Info("database connected", zap.Int("connection_limit", cfg.ConnectionLimit))

	missing, err := db.MissingProcedures(ctx, pool.DB(), procs.Names())
	if err != nil {
		logger.Warn("could not list stored procedures", zap.Error(err))
	} else if len(missing) > 0 {
		logger.Warn("stored procedures missing", zap.Strings("procedures", missing))
	}

	if cfg.AdminAuth {
		if err := db.CreateTables(ctx, pool.DB()); err != nil {
			logger.Warn("create tables failed", zap.Error(err))
		}
	}
}

func serve(s *http.Server, tls bool, logger *zap.Logger) {
	go func() {
		logger.Info("starting server", zap.String("addr", s.Addr), zap.Bool("tls", tls))
		var err error
		if tls {
			err = s.ListenAndServeTLS("", "")
		} else {
			err = s.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server exited", zap.Error(err))
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
}
