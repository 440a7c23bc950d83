package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/forecast"
	"stock-forecaster/internal/models"
	"stock-forecaster/internal/predictor"
	"stock-forecaster/internal/resilience"
	"stock-forecaster/internal/security"
	"stock-forecaster/internal/sentiment"
	"stock-forecaster/internal/stream"
)

const (
	maxHistoryDays  = 365
	maxNewsLimit    = 50
	maxSearchLimit  = 15
	defaultDays     = 30
	defaultNewsSize = 10
)

// Handler serves the stock and forecast routes.
type Handler struct {
	svc      *predictor.Service
	breakers []*resilience.Breaker
	hub      *stream.Hub
	logger   zerolog.Logger
}

// NewHandler creates a Handler.
func NewHandler(svc *predictor.Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes registers every route on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/stock/:symbol", h.GetQuote)
	g.GET("/stock/:symbol/historical", h.GetHistory)
	g.GET("/stock/:symbol/news", h.GetNews)
	g.GET("/stock/:symbol/predict", h.Predict)
	g.GET("/search-stocks", h.Search)
	g.POST("/forecast", h.Forecast)
	g.POST("/sentiment", h.Sentiment)
	g.GET("/stream", h.Stream)
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status   string             `json:"status"`
	Circuits []resilience.Stats `json:"circuits,omitempty"`
}

// Health reports liveness. The status is "degraded" while any upstream
// circuit is open; forecasts are still served from fallback data.
func (h *Handler) Health(c echo.Context) error {
	resp := HealthResponse{Status: "ok"}
	for _, b := range h.breakers {
		stats := b.Stats()
		if stats.State != resilience.CircuitClosed {
			resp.Status = "degraded"
		}
		resp.Circuits = append(resp.Circuits, stats)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetQuote returns the latest quote.
func (h *Handler) GetQuote(c echo.Context) error {
	symbol, err := symbolParam(c)
	if err != nil {
		return h.fail(c, err)
	}

	q, err := h.svc.Quote(c.Request().Context(), symbol)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

// GetHistory returns daily candles, oldest first.
func (h *Handler) GetHistory(c echo.Context) error {
	symbol, err := symbolParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	days, err := intQuery(c, "days", defaultDays, maxHistoryDays)
	if err != nil {
		return h.fail(c, err)
	}

	points, err := h.svc.History(c.Request().Context(), symbol, days)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, points)
}

// GetNews returns recent news, newest first.
func (h *Handler) GetNews(c echo.Context) error {
	symbol, err := symbolParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	limit, err := intQuery(c, "limit", defaultNewsSize, maxNewsLimit)
	if err != nil {
		return h.fail(c, err)
	}

	items, err := h.svc.News(c.Request().Context(), symbol, limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Predict gathers data for the symbol and forecasts it.
func (h *Handler) Predict(c echo.Context) error {
	symbol, err := symbolParam(c)
	if err != nil {
		return h.fail(c, err)
	}

	set, err := h.svc.Predict(c.Request().Context(), symbol)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, set)
}

// Search looks up listings by symbol or name.
func (h *Handler) Search(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return h.fail(c, errors.NewValidationError("q", query, "query parameter is required"))
	}

	results, err := h.svc.Search(c.Request().Context(), query, maxSearchLimit)
	if err != nil {
		return h.fail(c, err)
	}
	if results == nil {
		results = []models.Listing{}
	}
	return c.JSON(http.StatusOK, echo.Map{"result": results})
}

// Forecast runs the engine over a caller-supplied history, news list and
// current price.
func (h *Handler) Forecast(c echo.Context) error {
	var in forecast.Input
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request payload"})
	}
	in.Symbol = models.NormalizeSymbol(in.Symbol)

	return c.JSON(http.StatusOK, h.svc.Forecast(c.Request().Context(), in))
}

type sentimentRequest struct {
	Text string `json:"text"`
}

// Sentiment scores a piece of text.
func (h *Handler) Sentiment(c echo.Context) error {
	var req sentimentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request payload"})
	}
	text, err := security.ValidateText("text", req.Text, security.MaxTextLength)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, sentiment.Analyze(text))
}

// Stream relays scheduled forecasts as server-sent events until the client
// disconnects. ?symbol= restricts the stream to one symbol.
func (h *Handler) Stream(c echo.Context) error {
	if h.hub == nil {
		return h.fail(c, errors.Wrap(errors.ErrNoData, "forecast streaming is not enabled"))
	}

	symbol := stream.AllSymbols
	if raw := c.QueryParam("symbol"); raw != "" {
		var err error
		if symbol, err = security.ValidateSymbol(raw); err != nil {
			return h.fail(c, err)
		}
	}

	sub := h.hub.Subscribe(symbol)
	defer h.hub.Unsubscribe(sub)

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			data, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "event: forecast\ndata: %s\n\n", data); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func (h *Handler) fail(c echo.Context, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrSymbolNotFound), errors.Is(err, errors.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, errors.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errors.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func symbolParam(c echo.Context) (string, error) {
	return security.ValidateSymbol(c.Param("symbol"))
}

func intQuery(c echo.Context, name string, def, limit int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > limit {
		return 0, errors.NewValidationError(name, raw, "must be an integer between 1 and "+strconv.Itoa(limit))
	}
	return n, nil
}
