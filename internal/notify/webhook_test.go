package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-forecaster/internal/config"
	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/models"
)

func sampleSet() models.PredictionSet {
	return models.PredictionSet{
		Predictions: []models.Prediction{{DayOffset: 1, Price: 101.5, Confidence: 0.8}},
		Metadata:    models.Metadata{Symbol: "AAPL", Method: "ensemble", CurrentPrice: 100},
	}
}

func TestNewWebhook_DisabledWithoutURL(t *testing.T) {
	assert.Nil(t, NewWebhook(config.WatchConfig{}, zerolog.Nop()))
}

func TestWebhook_SendRetriesTransientFailures(t *testing.T) {
	var calls int32
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	hook := NewWebhook(config.WatchConfig{WebhookURL: srv.URL, WebhookTimeout: time.Second}, zerolog.Nop())
	require.NotNil(t, hook)

	require.NoError(t, hook.Send(context.Background(), "AAPL", sampleSet()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, "forecast", got.Type)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.NotEmpty(t, got.Timestamp)
	assert.Equal(t, 101.5, got.Forecast.Predictions[0].Price)
}

func TestWebhook_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	hook := NewWebhook(config.WatchConfig{WebhookURL: srv.URL}, zerolog.Nop())
	err := hook.Send(context.Background(), "AAPL", sampleSet())

	var status *errors.StatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, http.StatusBadRequest, status.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWebhook_SinkSwallowsErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	hook := NewWebhook(config.WatchConfig{WebhookURL: srv.URL}, zerolog.Nop())
	sink := hook.Sink(context.Background())

	assert.NotPanics(t, func() { sink("AAPL", sampleSet()) })
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
