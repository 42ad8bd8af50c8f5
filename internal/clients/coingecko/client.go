// Package coingecko provides a client for the public CoinGecko market data API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/domain"
)

// DefaultBaseURL is the public v3 API.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Client for api.coingecko.com
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new CoinGecko client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("client", "coingecko").Logger(),
	}
}

// SimplePrice is the USD price of one coin. USD is nil when CoinGecko sent
// an entry without a price.
type SimplePrice struct {
	USD          *float64 `json:"usd"`
	USD24hChange *float64 `json:"usd_24h_change"`
}

// GetSimplePrices fetches USD prices and 24h change for the given coin ids.
// Ids CoinGecko does not know are absent from the result.
func (c *Client) GetSimplePrices(ctx context.Context, ids []string) (map[string]SimplePrice, error) {
	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "true")

	var result map[string]SimplePrice
	if err := c.getJSON(ctx, "/simple/price", params, &result); err != nil {
		return nil, err
	}

	c.log.Debug().Int("requested", len(ids)).Int("received", len(result)).Msg("Fetched simple prices")
	return result, nil
}

// GetMarketChart fetches the USD price history of a coin over the last days.
// Points are returned in upstream order, which is oldest first.
func (c *Client) GetMarketChart(ctx context.Context, id string, days int) ([]domain.SeriesPoint, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", strconv.Itoa(days))

	var result struct {
		Prices [][2]float64 `json:"prices"`
	}
	if err := c.getJSON(ctx, "/coins/"+url.PathEscape(id)+"/market_chart", params, &result); err != nil {
		return nil, err
	}

	points := make([]domain.SeriesPoint, 0, len(result.Prices))
	for _, p := range result.Prices {
		points = append(points, domain.SeriesPoint{
			Timestamp: time.UnixMilli(int64(p[0])).UTC(),
			Price:     p[1],
		})
	}

	c.log.Debug().Str("id", id).Int("days", days).Int("points", len(points)).Msg("Fetched market chart")
	return points, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dst interface{}) error {
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("CoinGecko request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("CoinGecko API returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to parse CoinGecko response: %w", err)
	}
	return nil
}
