package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultHistoricalURL = "https://min-api.cryptocompare.com/data/pricehistorical"

// CryptoCompareClient fetches historical prices for a single symbol pair.
type CryptoCompareClient struct {
	baseURL      string
	apiKey       string
	symbol       string
	currency     string
	client       *http.Client
	apiCallCount int64
	apiCallMutex sync.Mutex
}

var _ CallCounter = (*CryptoCompareClient)(nil)

func NewCryptoCompareClient(baseURL, apiKey, symbol, currency string) *CryptoCompareClient {
	if baseURL == "" {
		baseURL = DefaultHistoricalURL
	}
	return &CryptoCompareClient{
		baseURL:  baseURL,
		apiKey:   apiKey,
		symbol:   symbol,
		currency: currency,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// IncrementAPICall safely increments the API call counter
func (c *CryptoCompareClient) IncrementAPICall() {
	c.apiCallMutex.Lock()
	c.apiCallCount++
	c.apiCallMutex.Unlock()
}

// GetAPICallCount returns the current API call count
func (c *CryptoCompareClient) GetAPICallCount() int64 {
	c.apiCallMutex.Lock()
	defer c.apiCallMutex.Unlock()
	return c.apiCallCount
}

// ResetAPICallCount resets the API call counter to zero
func (c *CryptoCompareClient) ResetAPICallCount() {
	c.apiCallMutex.Lock()
	c.apiCallCount = 0
	c.apiCallMutex.Unlock()
}

// FetchPrice returns the symbol's price in the configured currency at ts.
// The response must have the shape {"<symbol>": {"<currency>": <number>}}.
func (c *CryptoCompareClient) FetchPrice(ctx context.Context, ts time.Time) (float64, error) {
	params := url.Values{}
	params.Set("fsym", c.symbol)
	params.Set("tsyms", c.currency)
	params.Set("ts", strconv.FormatInt(ts.Unix(), 10))
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Apikey "+c.apiKey)
	}

	// Increment API call counter
	c.IncrementAPICall()

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response body: %w", err)
	}

	var result map[string]map[string]float64
	if err := json.Unmarshal(body, &result); err != nil {
		log.Debug().
			Err(err).
			Str("response_body", string(body)).
			Msg("Unexpected price response shape")
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	price, ok := result[c.symbol][c.currency]
	if !ok {
		return 0, fmt.Errorf("price for %s/%s missing from response", c.symbol, c.currency)
	}

	log.Debug().
		Int64("ts", ts.Unix()).
		Float64("price", price).
		Msg("Fetched historical price")
	return price, nil
}
