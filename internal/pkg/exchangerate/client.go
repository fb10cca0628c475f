package exchangerate

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
)

// Client talks to an ExchangeRate-API compatible endpoint:
// GET {baseURL}/latest/{base} returns every rate against base.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type latestResponse struct {
	Result    string                     `json:"result"`
	ErrorType string                     `json:"error-type"`
	BaseCode  string                     `json:"base_code"`
	Rates     map[string]decimal.Decimal `json:"rates"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Latest returns how many units of each currency one unit of base buys.
func (c *Client) Latest(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	endpoint := c.baseURL + "/latest/" + url.PathEscape(base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build exchange rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call exchange rate api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("exchange rate api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode exchange rate response: %w", err)
	}

	if payload.Result != "success" {
		return nil, fmt.Errorf("exchange rate api error: %s", payload.ErrorType)
	}
	if !strings.EqualFold(payload.BaseCode, base) {
		return nil, fmt.Errorf("exchange rate api answered for %s, asked for %s", payload.BaseCode, base)
	}

	return payload.Rates, nil
}
