package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nft-marketplace/internal/domain"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// CoinGeckoClient reads spot prices from a CoinGecko-compatible /simple/price endpoint.
type CoinGeckoClient struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

func NewCoinGeckoClient(baseURL string, timeout time.Duration) *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

func (c *CoinGeckoClient) FetchPrice(ctx context.Context, token, currency string) (*domain.TokenPrice, error) {
	token = strings.ToLower(token)
	currency = strings.ToLower(currency)

	q := url.Values{}
	q.Set("ids", token)
	q.Set("vs_currencies", currency)
	endpoint := fmt.Sprintf("%s/simple/price?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "price request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("price request: unexpected status %d", resp.StatusCode)
	}

	// {"oasis-network":{"usd":0.0612}}
	var body map[string]map[string]json.Number
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, errors.Wrap(err, "decode price response")
	}

	raw, ok := body[token][currency]
	if !ok {
		return nil, errors.Errorf("no %s price for %s", currency, token)
	}
	price, err := decimal.NewFromString(raw.String())
	if err != nil {
		return nil, errors.Wrapf(err, "parse price %q", raw)
	}

	return &domain.TokenPrice{
		Token:     token,
		Currency:  currency,
		Price:     price,
		FetchedAt: c.now().UTC(),
	}, nil
}
