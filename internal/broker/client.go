package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/risk-monitor/internal/greeks"
	"github.com/dgnsrekt/risk-monitor/internal/position"
)

// MarketData is the surface the engine consumes. The HTTP client below is one
// implementation; tests substitute their own.
type MarketData interface {
	UnderlyingPrice(ctx context.Context, symbol string) (float64, error)
	NextExDividend(ctx context.Context, symbol string) (time.Time, error)
	OptionGreeksBatch(ctx context.Context, symbol string, expiration time.Time, contracts []greeks.ContractRef) ([]greeks.Snapshot, error)
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	retryCount int
	retryDelay time.Duration
	logger     *zap.Logger
}

type priceResponse struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

type dividendResponse struct {
	Symbol string `json:"symbol"`
	ExDate string `json:"ex_date"`
}

type greekRow struct {
	Strike float64 `json:"strike"`
	Type   string  `json:"type"`
	Delta  float64 `json:"delta"`
	Gamma  float64 `json:"gamma"`
	Theta  float64 `json:"theta"`
	Vega   float64 `json:"vega"`
	Rho    float64 `json:"rho"`
}

func NewClient(baseURL, apiKey string, ratePerSec int, timeout, retryDelay time.Duration, retryCount int, logger *zap.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:       100,
		MaxConnsPerHost:    10,
		IdleConnTimeout:    90 * time.Second,
		DisableCompression: false,
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "broker",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A symbol with no data is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec*2),
		breaker:    breaker,
		retryCount: retryCount,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// UnderlyingPrice fetches the current price for a symbol.
func (c *Client) UnderlyingPrice(ctx context.Context, symbol string) (float64, error) {
	body, err := c.get(ctx, fmt.Sprintf("/v1/price/%s", url.PathEscape(symbol)))
	if err != nil {
		return 0, err
	}

	var resp priceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decoding price response: %w", err)
	}
	if resp.Price <= 0 {
		return 0, ErrUnavailable
	}
	return resp.Price, nil
}

// NextExDividend fetches the next ex-dividend date for a symbol. Symbols with
// no upcoming dividend return ErrNotFound.
func (c *Client) NextExDividend(ctx context.Context, symbol string) (time.Time, error) {
	body, err := c.get(ctx, fmt.Sprintf("/v1/dividends/%s", url.PathEscape(symbol)))
	if err != nil {
		return time.Time{}, err
	}

	var resp dividendResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return time.Time{}, fmt.Errorf("decoding dividend response: %w", err)
	}
	exDate, err := time.Parse("2006-01-02", resp.ExDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing ex-date %q: %w", resp.ExDate, err)
	}
	return exDate, nil
}

// OptionGreeksBatch fetches Greeks for every requested contract on one
// (symbol, expiration) pair in a single call.
func (c *Client) OptionGreeksBatch(ctx context.Context, symbol string, expiration time.Time, contracts []greeks.ContractRef) ([]greeks.Snapshot, error) {
	strikes := make([]string, 0, len(contracts))
	for _, ref := range contracts {
		strikes = append(strikes, fmt.Sprintf("%g%s", ref.Strike, strings.ToLower(string(ref.Type))[:1]))
	}

	path := fmt.Sprintf("/v1/greeks/%s/%s?contracts=%s",
		url.PathEscape(symbol),
		expiration.Format("2006-01-02"),
		url.QueryEscape(strings.Join(strikes, ",")),
	)

	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var rows []greekRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decoding greeks response: %w", err)
	}

	snaps := make([]greeks.Snapshot, 0, len(rows))
	for _, row := range rows {
		snaps = append(snaps, greeks.Snapshot{
			Symbol:     symbol,
			Strike:     row.Strike,
			Expiration: expiration,
			Type:       position.OptionType(strings.ToUpper(row.Type)),
			Delta:      row.Delta,
			Gamma:      row.Gamma,
			Theta:      row.Theta,
			Vega:       row.Vega,
			Rho:        row.Rho,
			Source:     greeks.SourceAPI,
		})
	}
	return snaps, nil
}

// get performs a rate-limited, breaker-guarded GET with retries.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.getWithRetry(ctx, path)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}
	return result.([]byte), nil
}

func (c *Client) getWithRetry(ctx context.Context, path string) ([]byte, error) {
	reqURL := c.baseURL + path
	c.logger.Debug("requesting", zap.String("url", reqURL))

	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // Exponential backoff
			c.logger.Debug("retrying request", zap.Int("attempt", attempt), zap.Duration("delay", delay))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if readErr != nil {
			lastErr = readErr
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
			return nil, ErrAuthFailed
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = ErrRateLimited
			continue
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		return body, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
