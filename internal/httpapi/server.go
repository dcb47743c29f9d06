// Package httpapi exposes the deduplication engine over HTTP: a login-guarded
// dedup endpoint, run browsing when a database is configured, and a health
// probe. Responses follow the jsend convention.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/bibliojobs/sift/internal/auth"
	"github.com/bibliojobs/sift/internal/dedup"
	"github.com/bibliojobs/sift/internal/globaltime"
	"github.com/bibliojobs/sift/internal/store"
)

const maxRequestBodyBytes = 32 << 20

type Options struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	AdminUser         string
	AdminPasswordHash string
	SessionTTL        time.Duration
	SessionCookie     string
	SessionSecure     bool

	EngineOptions dedup.Options
}

// Server wires the engine, optional run store, and session handling behind
// an echo router. A nil store disables the run browsing endpoints.
type Server struct {
	runs     *store.Store
	sessions *auth.SessionManager
	logger   zerolog.Logger
	opts     Options
}

func NewServer(runs *store.Store, logger zerolog.Logger, opts Options) *Server {
	if strings.TrimSpace(opts.ListenAddr) == "" {
		opts.ListenAddr = ":8080"
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Minute
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if strings.TrimSpace(opts.SessionCookie) == "" {
		opts.SessionCookie = "sift_session"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 168 * time.Hour
	}

	return &Server{
		runs:     runs,
		sessions: auth.NewSessionManager(opts.SessionTTL),
		logger:   logger,
		opts:     opts,
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.buildRouter()

	httpServer := &http.Server{
		Addr:         s.opts.ListenAddr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", s.opts.ListenAddr).Msg("sift api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("sift api server stopped")
	return nil
}

func (s *Server) buildRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit("32M"))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.POST("/login", s.handleLogin)
	api.POST("/logout", s.handleLogout)

	protected := api.Group("", s.requireAuth())
	protected.POST("/dedup", s.handleDedup)
	protected.GET("/runs", s.handleRuns)
	protected.GET("/runs/:run_uuid", s.handleRunDetail)

	return e
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	data := map[string]any{
		"service": "sift",
		"time":    globaltime.UTC(),
	}
	if s.runs != nil {
		if err := s.runs.Ping(c.Request().Context()); err != nil {
			data["database"] = "unreachable"
			s.logger.Warn().Err(err).Msg("health database ping failed")
		} else {
			data["database"] = "ok"
		}
	}
	return success(c, data)
}

func decodeJSONBody(c echo.Context, target any) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxRequestBodyBytes))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	decoder := json.NewDecoder(strings.NewReader(string(body)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
