// Package pricing fetches token prices for display purposes. Prices never
// gate a state transition; a fetch failure degrades to an omitted price.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lending-engine/internal/logging"
	"github.com/lending-engine/internal/storage"
)

// Client fetches token prices in USD from an HTTP price API, with a short
// Redis-backed cache in front.
type Client struct {
	endpoint string
	http     *http.Client
	cache    *storage.ScoreCache
}

// NewClient creates a price client. cache may be nil, in which case every
// lookup hits the API.
func NewClient(endpoint string, cache *storage.ScoreCache) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 5 * time.Second},
		cache:    cache,
	}
}

// priceResponse is the price API payload: {"prices": {"SOL": 142.3}}
type priceResponse struct {
	Prices map[string]float64 `json:"prices"`
}

// GetPrice returns the USD price for a token symbol.
func (c *Client) GetPrice(ctx context.Context, token string) (float64, error) {
	token = strings.ToUpper(token)

	if c.cache != nil {
		price, found, err := c.cache.GetTokenPrice(ctx, token)
		if err != nil {
			logging.FromContext(ctx).WithError(err).Warn("Price cache read failed")
		} else if found {
			return price, nil
		}
	}

	if c.endpoint == "" {
		return 0, fmt.Errorf("price API endpoint not configured")
	}

	reqURL := fmt.Sprintf("%s?symbols=%s", c.endpoint, url.QueryEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create price request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("price fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price fetch failed: status %d", resp.StatusCode)
	}

	var payload priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("failed to decode price response: %w", err)
	}

	price, ok := payload.Prices[token]
	if !ok {
		return 0, fmt.Errorf("no price for token %s", token)
	}

	if c.cache != nil {
		if err := c.cache.SetTokenPrice(ctx, token, price); err != nil {
			logging.FromContext(ctx).WithError(err).Warn("Price cache write failed")
		}
	}
	return price, nil
}
