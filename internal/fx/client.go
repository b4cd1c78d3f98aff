package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wealthlog/wealthlog/internal/domain"
	"github.com/wealthlog/wealthlog/internal/rate"
)

// Quote is one fetched set of rates, currency-per-base.
type Quote struct {
	Date  time.Time
	Rates domain.RateMap
}

// response matches Frankfurter-style APIs:
// {"base":"CNY","date":"2024-01-15","rates":{"USD":0.1368}}
type response struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Client fetches exchange rates from an HTTP rates API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	delay      time.Duration
	maxRetries int
}

// NewClient creates a new rates API client.
func NewClient(baseURL string, delay time.Duration, maxRetries int) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		delay:      delay,
		maxRetries: maxRetries,
	}
}

// FetchRates fetches rates for codes against the base currency.
// Codes the API does not return are absent from the result.
func (c *Client) FetchRates(ctx context.Context, codes []string) (Quote, error) {
	q := url.Values{}
	q.Set("from", domain.BaseCurrency)
	if len(codes) > 0 {
		q.Set("to", strings.Join(codes, ","))
	}

	body, err := c.fetchWithRetry(ctx, c.baseURL+"?"+q.Encode())
	if err != nil {
		return Quote{}, err
	}

	var raw response
	if err := json.Unmarshal(body, &raw); err != nil {
		return Quote{}, fmt.Errorf("parsing rates response: %w", err)
	}
	if raw.Base != "" && domain.NormalizeCode(raw.Base) != domain.BaseCurrency {
		return Quote{}, fmt.Errorf("rates response has base %s, want %s", raw.Base, domain.BaseCurrency)
	}

	quote := Quote{Rates: make(domain.RateMap, len(raw.Rates)+1)}
	quote.Date = rate.Day(time.Now())
	if raw.Date != "" {
		if d, err := rate.ParseDate(raw.Date); err == nil {
			quote.Date = d
		}
	}
	for code, r := range raw.Rates {
		if r.IsPositive() {
			quote.Rates[domain.NormalizeCode(code)] = r
		}
	}
	quote.Rates[domain.BaseCurrency] = decimal.NewFromInt(1)
	return quote, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if attempt > 0 {
			baseDelay := c.delay
			if baseDelay == 0 {
				baseDelay = 2 * time.Second
			}
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating rates request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("rates request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading rates response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("rates API HTTP %d (attempt %d/%d)", resp.StatusCode, attempt+1, c.maxRetries+1)
			continue
		}

		return nil, fmt.Errorf("rates API HTTP %d: %s", resp.StatusCode, string(body))
	}

	return nil, lastErr
}
