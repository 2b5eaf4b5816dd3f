// Package marketdata fetches end-of-day price history from the upstream
// market data provider.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/fintrackit/portfolio-analytics/internal/models"
)

const (
	defaultBaseURL     = "https://eodhd.com/api"
	defaultTimeout     = 30 * time.Second
	defaultRateLimit   = 5
	defaultBurstLimit  = 5
	historyDateLayout  = "2006-01-02"
	volumeDivisorThous = 1000
)

// APIError describes a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("market data request to %s failed: %s", e.Endpoint, e.Status)
}

// RateLimited reports whether the provider throttled the request.
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Client is a rate-limited HTTP client for the provider's EOD endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the provider base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithRateLimit sets the sustained requests-per-second budget.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), defaultBurstLimit) }
}

// WithLogger attaches a logger to the client.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger.With().Str("component", "marketdata").Logger() }
}

// NewClient creates a provider client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurstLimit),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// historyRow is the provider's EOD record. Prices arrive as JSON numbers
// with fractional digits; decimals keep the cents exact until conversion.
type historyRow struct {
	Date     string          `json:"date"`
	Close    decimal.Decimal `json:"close"`
	AdjClose decimal.Decimal `json:"adjusted_close"`
	Volume   int64           `json:"volume"`
}

// FetchHistory returns daily bars for symbol in [start, end), ascending by
// date. Closing prices are converted to the smallest currency unit and
// volumes to thousands of shares.
func (c *Client) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]models.SourceBar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	endpoint := fmt.Sprintf("%s/eod/%s", c.baseURL, url.PathEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build history request: %w", err)
	}

	q := req.URL.Query()
	q.Set("api_token", c.apiKey)
	q.Set("from", start.Format(historyDateLayout))
	q.Set("to", end.Format(historyDateLayout))
	q.Set("period", "d")
	q.Set("fmt", "json")
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history request for %s failed: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Endpoint: req.URL.Path}
	}

	var rows []historyRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode history for %s: %w", symbol, err)
	}

	bars := make([]models.SourceBar, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(historyDateLayout, row.Date)
		if err != nil {
			c.logger.Warn().Str("symbol", symbol).Str("date", row.Date).Msg("skipping bar with malformed date")
			continue
		}
		// end is exclusive: the provider's "to" bound is inclusive.
		if !date.Before(end) {
			continue
		}
		price := row.AdjClose
		if price.IsZero() {
			price = row.Close
		}
		bars = append(bars, models.SourceBar{
			Date:            date.UTC(),
			ClosingPrice:    price.Round(0).IntPart(),
			VolumeThousands: row.Volume / volumeDivisorThous,
		})
	}

	c.logger.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("fetched price history")
	return bars, nil
}
