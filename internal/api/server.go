// Package api exposes quotes, history, news, search and forecasts over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"stock-forecaster/internal/logging"
	"stock-forecaster/internal/predictor"
	"stock-forecaster/internal/resilience"
	"stock-forecaster/internal/stream"
)

// RequestIDHeader carries the request ID in requests and responses.
const RequestIDHeader = "X-Request-ID"

// Server is the HTTP front end of the forecasting service.
type Server struct {
	echo            *echo.Echo
	handler         *Handler
	listen          string
	shutdownTimeout time.Duration
	logger          zerolog.Logger
}

// NewServer creates a server bound to listen.
func NewServer(svc *predictor.Service, listen string, shutdownTimeout time.Duration, logger zerolog.Logger) *Server {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(requestLogger(logger))

	h := NewHandler(svc, logger)
	h.RegisterRoutes(e)

	return &Server{
		echo:            e,
		handler:         h,
		listen:          listen,
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
	}
}

// WatchBreakers reports the given circuit breakers on /healthz.
func (s *Server) WatchBreakers(breakers ...*resilience.Breaker) {
	s.handler.breakers = append(s.handler.breakers, breakers...)
}

// StreamFrom serves hub's forecasts on /api/stream.
func (s *Server) StreamFrom(hub *stream.Hub) {
	s.handler.hub = hub
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", s.listen).Msg("HTTP server starting")
		if err := s.echo.Start(s.listen); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

// requestLogger assigns every request an ID, attaches a request-scoped
// logger to its context and logs the outcome.
func requestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			requestID := req.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Response().Header().Set(RequestIDHeader, requestID)

			reqLogger := logging.WithRequestID(logger, requestID)
			ctx := logging.ContextWithRequestID(req.Context(), requestID)
			ctx = logging.WithLogger(ctx, reqLogger)
			c.SetRequest(req.WithContext(ctx))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			reqLogger.Debug().
				Str("method", req.Method).
				Str("path", c.Path()).
				Int("status", c.Response().Status).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
			return nil
		}
	}
}
