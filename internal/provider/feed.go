package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/logging"
	"stock-forecaster/internal/models"
	"stock-forecaster/internal/resilience"
	"stock-forecaster/pkg/utils"
)

// FeedConfig configures the upstream HTTP feed.
type FeedConfig struct {
	BaseURL           string
	Token             string
	RequestsPerMinute int
	Timeout           time.Duration
	Retry             utils.RetryConfig
	Breaker           resilience.BreakerConfig
}

// Feed reads quotes, history and news from an upstream HTTP service that
// speaks this repository's own JSON shapes:
//
//	GET {base}/stock/{symbol}
//	GET {base}/stock/{symbol}/historical?days=N
//	GET {base}/stock/{symbol}/news?limit=N
//
// Points and items without an isRealData flag are treated as live data.
type Feed struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	retry   utils.RetryConfig
	breaker *resilience.Breaker
	logger  zerolog.Logger
}

// NewFeed creates a feed client.
func NewFeed(cfg FeedConfig, logger zerolog.Logger) *Feed {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = utils.DefaultRetryConfig()
	}
	if retry.Retryable == nil {
		retry.Retryable = errors.Retryable
	}

	breakerCfg := cfg.Breaker
	if breakerCfg.Counts == nil {
		breakerCfg.Counts = errors.Retryable
	}

	return &Feed{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
		retry:   retry,
		breaker: resilience.NewBreaker("feed", breakerCfg, logger),
		logger:  logger,
	}
}

// Breaker returns the feed's circuit breaker.
func (f *Feed) Breaker() *resilience.Breaker {
	return f.breaker
}

func (f *Feed) Name() string { return "feed" }

type feedQuote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	PreviousClose float64 `json:"previousClose"`
	Timestamp     int64   `json:"timestamp"`
	IsRealData    *bool   `json:"isRealData"`
}

type feedPoint struct {
	T          int64   `json:"t"`
	O          float64 `json:"o"`
	H          float64 `json:"h"`
	L          float64 `json:"l"`
	C          float64 `json:"c"`
	V          float64 `json:"v"`
	IsRealData *bool   `json:"isRealData"`
}

type feedNews struct {
	Headline   string                `json:"headline"`
	Summary    string                `json:"summary"`
	URL        string                `json:"url"`
	Datetime   int64                 `json:"datetime"`
	Sentiment  models.SentimentLabel `json:"sentiment"`
	Score      float64               `json:"score"`
	IsRealData *bool                 `json:"isRealData"`
}

func live(flag *bool) bool {
	return flag == nil || *flag
}

// Quote fetches the latest quote.
func (f *Feed) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	var q feedQuote
	if err := f.get(ctx, "quote", symbol, "", nil, &q); err != nil {
		return models.Quote{}, err
	}
	if q.Price <= 0 {
		return models.Quote{}, errors.NewProviderError(f.Name(), "quote", symbol, errors.ErrNoData)
	}

	if q.Symbol == "" {
		q.Symbol = symbol
	}
	if q.Timestamp == 0 {
		q.Timestamp = time.Now().Unix()
	}
	return models.Quote{
		Symbol:        q.Symbol,
		Price:         q.Price,
		Change:        q.Change,
		ChangePercent: q.ChangePercent,
		High:          orPrice(q.High, q.Price),
		Low:           orPrice(q.Low, q.Price),
		Open:          orPrice(q.Open, q.Price),
		PreviousClose: orPrice(q.PreviousClose, q.Price),
		Timestamp:     q.Timestamp,
		IsRealData:    live(q.IsRealData),
	}, nil
}

// History fetches daily candles. Points that break the OHLCV invariants are
// dropped.
func (f *Feed) History(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	if days <= 0 {
		days = defaultHistoryDays
	}

	var raw []feedPoint
	query := url.Values{"days": {strconv.Itoa(days)}}
	if err := f.get(ctx, "history", symbol, "/historical", query, &raw); err != nil {
		return nil, err
	}

	points := make([]models.PricePoint, 0, len(raw))
	for _, r := range raw {
		p := models.PricePoint{
			Timestamp:  r.T,
			Open:       r.O,
			High:       r.H,
			Low:        r.L,
			Close:      r.C,
			Volume:     r.V,
			IsRealData: live(r.IsRealData),
		}
		if !p.Valid() {
			continue
		}
		points = append(points, p)
	}

	if len(raw) > 0 && len(points) < len(raw) {
		f.logger.Debug().
			Str("symbol", symbol).
			Int("dropped", len(raw)-len(points)).
			Msg("Dropped invalid price points")
	}
	if len(points) == 0 {
		return nil, errors.NewProviderError(f.Name(), "history", symbol, errors.ErrNoData)
	}
	return points, nil
}

// News fetches recent news.
func (f *Feed) News(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	if limit <= 0 {
		limit = defaultNewsLimit
	}

	var raw []feedNews
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := f.get(ctx, "news", symbol, "/news", query, &raw); err != nil {
		return nil, err
	}

	items := make([]models.NewsItem, 0, len(raw))
	for _, r := range raw {
		if r.Headline == "" && r.Summary == "" {
			continue
		}
		items = append(items, models.NewsItem{
			Headline:    r.Headline,
			Summary:     r.Summary,
			URL:         r.URL,
			PublishedAt: r.Datetime,
			Sentiment:   r.Sentiment,
			Score:       r.Score,
			IsRealData:  live(r.IsRealData),
		})
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (f *Feed) get(ctx context.Context, operation, symbol, suffix string, query url.Values, out interface{}) error {
	endpoint := fmt.Sprintf("%s/stock/%s%s", f.baseURL, url.PathEscape(symbol), suffix)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	start := time.Now()
	err := f.breaker.Do(func() error {
		return utils.Retry(ctx, f.retry, func() error {
			return f.do(ctx, endpoint, out)
		})
	})
	logging.LogAPICall(f.logger, http.MethodGet, endpoint, time.Since(start), err)

	if err != nil {
		return errors.NewProviderError(f.Name(), operation, symbol, err)
	}
	return nil
}

func (f *Feed) do(ctx context.Context, endpoint string, out interface{}) error {
	if err := f.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// The limiter refuses waits that would outlive the deadline.
		return fmt.Errorf("%s: %w", err.Error(), context.DeadlineExceeded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errors.Wrap(errors.ErrUpstreamUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &errors.StatusError{URL: endpoint, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", endpoint, err)
	}
	return nil
}

func orPrice(v, price float64) float64 {
	if v > 0 {
		return v
	}
	return price
}
