// Package stockdash is a Go SDK for the stocks price API: symbol catalog,
// paged price history, price on a date, and cumulative return over a range.
package stockdash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stockdash/internal/domain"
)

// DefaultLimit is the page size used when GetPriceSeries is called with a
// non-positive limit.
const DefaultLimit = 100

// ErrInvalidFormat reports a response with a success status whose body does
// not have the expected shape.
var ErrInvalidFormat = domain.ErrInvalidFormat

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Op         string
	StatusCode int
	Status     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Status)
}

// Client provides a Go SDK for interacting with the stocks API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the diagnostic logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithTimeout sets the default HTTP client's timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// NewClient creates a client for the API rooted at baseURL, e.g.
// http://localhost:8000/api/stocks.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With("component", "api-client")
	return c
}

// BaseURL returns the API root the client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// ListSymbols returns every symbol the API knows, in server order.
//
// Transport failures, non-2xx statuses and malformed bodies are logged and
// degrade to an empty slice with a nil error. Non-string elements, null
// included, are dropped.
// An error is returned only when the request cannot be built or ctx is done.
func (c *Client) ListSymbols(ctx context.Context) ([]string, error) {
	endpoint := c.baseURL + "/"
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building symbols request: %w", err)
	}

	c.log.Debug("fetching stocks", "url", endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.Error("error fetching stocks", "endpoint", endpoint, "error", err)
		return []string{}, nil
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) {
		c.log.Error("failed to fetch stocks", "status", resp.StatusCode, "statusText", resp.Status, "url", endpoint)
		drain(resp.Body)
		return []string{}, nil
	}

	var items []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		c.log.Error("invalid response format for stocks", "error", err)
		return []string{}, nil
	}

	symbols := make([]string, 0, len(items))
	dropped := 0
	for _, raw := range items {
		// null decodes into a string without error, so decode via a pointer.
		var s *string
		if err := json.Unmarshal(raw, &s); err != nil || s == nil {
			dropped++
			continue
		}
		symbols = append(symbols, *s)
	}
	if dropped > 0 {
		c.log.Error("invalid stock data format", "dropped", dropped, "kept", len(symbols))
	}
	return symbols, nil
}

// GetPriceSeries returns one page of the symbol's price history. skip < 0 is
// treated as 0 and limit <= 0 as DefaultLimit. A body whose data field is not
// an array yields an error wrapping ErrInvalidFormat.
func (c *Client) GetPriceSeries(ctx context.Context, symbol string, skip, limit int) (*domain.PriceSeries, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))
	endpoint := c.symbolURL(symbol, "prices") + "?" + q.Encode()
	op := "failed to fetch prices for " + symbol

	var body struct {
		Data  json.RawMessage `json:"data"`
		Total int             `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, op, &body); err != nil {
		c.log.Error("error fetching stock prices", "stock", symbol, "endpoint", endpoint, "error", err)
		return nil, err
	}

	trimmed := bytes.TrimSpace(body.Data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		c.log.Error("invalid stock price data format", "stock", symbol)
		return nil, fmt.Errorf("%s: data is not an array: %w", op, ErrInvalidFormat)
	}
	series := &domain.PriceSeries{Total: body.Total}
	if err := json.Unmarshal(trimmed, &series.Data); err != nil {
		c.log.Error("invalid stock price entry", "stock", symbol, "error", err)
		return nil, fmt.Errorf("%s: %v: %w", op, err, ErrInvalidFormat)
	}
	return series, nil
}

// GetPriceAtDate returns the price point for the calendar day containing date.
// The date travels as an ISO-8601 instant in the path.
func (c *Client) GetPriceAtDate(ctx context.Context, symbol string, date time.Time) (*domain.PricePoint, error) {
	instant := domain.FormatInstant(date)
	endpoint := c.symbolURL(symbol, "prices", instant)
	op := fmt.Sprintf("failed to fetch price for %s at %s", symbol, instant)

	var p domain.PricePoint
	if err := c.do(ctx, http.MethodGet, endpoint, nil, op, &p); err != nil {
		c.log.Error("error fetching price at date", "stock", symbol, "date", instant, "error", err)
		return nil, err
	}
	return &p, nil
}

// CalculateReturn asks the API for the cumulative return between the query's
// start and end dates. The dates are sent as given.
func (c *Client) CalculateReturn(ctx context.Context, symbol string, q domain.ReturnQuery) (*domain.ReturnResult, error) {
	payload, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encoding return request: %w", err)
	}
	endpoint := c.symbolURL(symbol, "returns")
	op := "failed to calculate returns for " + symbol

	var r domain.ReturnResult
	if err := c.do(ctx, http.MethodPost, endpoint, payload, op, &r); err != nil {
		c.log.Error("error calculating returns", "stock", symbol, "start", q.StartDate, "end", q.EndDate, "error", err)
		return nil, err
	}
	return &r, nil
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

func (c *Client) symbolURL(symbol string, parts ...string) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteByte('/')
	b.WriteString(url.PathEscape(symbol))
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do issues the request and decodes a 2xx JSON body into target.
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, op string, target any) error {
	req, err := c.newRequest(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.log.Debug("api request", "method", method, "url", endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) {
		drain(resp.Body)
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Status: resp.Status, URL: endpoint}
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%s: decoding response: %v: %w", op, err, ErrInvalidFormat)
	}
	return nil
}

func ok(status int) bool { return status >= 200 && status < 300 }

// drain discards a bounded amount of the body so the connection can be reused.
func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64<<10))
}
