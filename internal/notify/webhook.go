// Package notify delivers scheduled forecasts to external endpoints.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"stock-forecaster/internal/config"
	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/models"
	"stock-forecaster/pkg/utils"
)

// Payload is the JSON body posted for every forecast.
type Payload struct {
	Type      string               `json:"type"`
	Symbol    string               `json:"symbol"`
	Timestamp string               `json:"timestamp"`
	Forecast  models.PredictionSet `json:"forecast"`
}

// Webhook posts forecasts to an HTTP endpoint.
type Webhook struct {
	url    string
	client *http.Client
	retry  utils.RetryConfig
	logger zerolog.Logger
}

// NewWebhook creates a Webhook from the watch configuration. It returns
// nil when no URL is configured.
func NewWebhook(cfg config.WatchConfig, logger zerolog.Logger) *Webhook {
	if cfg.WebhookURL == "" {
		return nil
	}
	timeout := cfg.WebhookTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	retry := utils.DefaultRetryConfig()
	retry.Retryable = errors.Retryable

	return &Webhook{
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: timeout},
		retry:  retry,
		logger: logger.With().Str("component", "webhook").Logger(),
	}
}

// Name returns the name of the notifier.
func (w *Webhook) Name() string {
	return "webhook"
}

// Send posts one forecast, retrying transient failures.
func (w *Webhook) Send(ctx context.Context, symbol string, set models.PredictionSet) error {
	body, err := json.Marshal(Payload{
		Type:      "forecast",
		Symbol:    symbol,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Forecast:  set,
	})
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	return utils.Retry(ctx, w.retry, func() error {
		return w.post(ctx, body)
	})
}

func (w *Webhook) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "stock-forecaster")

	resp, err := w.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrUpstreamUnavailable, err.Error())
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &errors.StatusError{URL: w.url, Status: resp.StatusCode}
	}
	return nil
}

// Sink adapts the webhook to a scheduler sink. Delivery failures are
// logged and never stop the run.
func (w *Webhook) Sink(ctx context.Context) func(symbol string, set models.PredictionSet) {
	return func(symbol string, set models.PredictionSet) {
		if err := w.Send(ctx, symbol, set); err != nil {
			w.logger.Warn().Err(err).Str("symbol", symbol).Msg("Webhook delivery failed")
			return
		}
		w.logger.Debug().Str("symbol", symbol).Msg("Webhook delivered")
	}
}
