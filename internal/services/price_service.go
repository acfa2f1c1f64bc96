package services

import (
	"context"
	"strings"
	"time"

	"nft-marketplace/internal/domain"
	"nft-marketplace/pkg/logger"
)

const DefaultFiatCurrency = "usd"

// PriceService converts the chain token to fiat, caching oracle answers for ttl.
type PriceService struct {
	oracle domain.PriceOracle
	cache  domain.PriceCache
	token  string
	ttl    time.Duration
	log    logger.Logger
}

func NewPriceService(oracle domain.PriceOracle, cache domain.PriceCache, token string, ttl time.Duration, log logger.Logger) *PriceService {
	return &PriceService{oracle: oracle, cache: cache, token: token, ttl: ttl, log: log}
}

func (s *PriceService) GetPrice(ctx context.Context, currency string) (*domain.TokenPrice, error) {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultFiatCurrency
	}
	for _, r := range currency {
		if r < 'a' || r > 'z' {
			return nil, invalid("currency %q is not a currency code", currency)
		}
	}

	if s.cache != nil {
		cached, err := s.cache.GetPrice(ctx, s.token, currency)
		if err != nil {
			s.log.Warn("Price cache read failed", "currency", currency, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	price, err := s.oracle.FetchPrice(ctx, s.token, currency)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetPrice(ctx, price, s.ttl); err != nil {
			s.log.Warn("Price cache write failed", "currency", currency, "error", err)
		}
	}
	return price, nil
}
