package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/mquintana/divscope/internal/config"
	"github.com/mquintana/divscope/internal/marketdata"
	"github.com/mquintana/divscope/internal/models"
)

// historyYears is the lookback for price and dividend series.
const historyYears = 5

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.^-]{1,10}$`)

// MarketService serves ticker data through the read-through cache: every
// lookup first consults the cache under a provider-scoped key and only on
// a miss calls the provider and stores the result with the panel's TTL.
type MarketService struct {
	provider marketdata.Client
	cache    *CacheService
	cfg      config.ProviderConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewMarketService(provider marketdata.Client, cache *CacheService, cfg config.ProviderConfig, logger *slog.Logger) *MarketService {
	return &MarketService{
		provider: provider,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// TickerOverview is the metered search result: the headline panels for one
// symbol in a single payload.
type TickerOverview struct {
	Ticker   string               `json:"ticker"`
	Quote    *models.Quote        `json:"quote"`
	Profile  *models.Profile      `json:"profile"`
	KeyStats *models.KeyStats     `json:"key_stats"`
	KPIs     *models.DividendKPIs `json:"dividend_kpis"`
}

// DividendHistory pairs the per-year totals with the long-run growth rate.
type DividendHistory struct {
	Annual []AnnualDividend `json:"annual"`
	CAGR   *float64         `json:"cagr_pct"`
}

// NormalizeTicker validates and canonicalizes a ticker symbol.
func NormalizeTicker(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !tickerPattern.MatchString(symbol) {
		return "", models.ErrBadRequest
	}
	return symbol, nil
}

// Quote returns the price snapshot for a symbol, cached briefly.
func (s *MarketService) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	var quote models.Quote
	err := s.readThrough(ctx, cacheKey("quote", symbol), s.cfg.QuoteTTL, &quote, func() (any, error) {
		return s.provider.FetchQuote(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// Profile returns the company profile, cached long since it rarely changes.
func (s *MarketService) Profile(ctx context.Context, symbol string) (*models.Profile, error) {
	var profile models.Profile
	err := s.readThrough(ctx, cacheKey("profile", symbol), s.cfg.ProfileTTL, &profile, func() (any, error) {
		return s.provider.FetchProfile(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// KeyStats projects valuation figures out of the cached profile.
func (s *MarketService) KeyStats(ctx context.Context, symbol string) (*models.KeyStats, error) {
	profile, err := s.Profile(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return KeyStatsFromProfile(profile), nil
}

// History returns daily closes over the lookback window.
func (s *MarketService) History(ctx context.Context, symbol string) ([]models.PricePoint, error) {
	var points []models.PricePoint
	key := fmt.Sprintf("yf:history:%s:%dy", symbol, historyYears)
	err := s.readThrough(ctx, key, s.cfg.HistoryTTL, &points, func() (any, error) {
		return s.provider.FetchHistory(ctx, symbol, historyYears)
	})
	if err != nil {
		return nil, err
	}
	return points, nil
}

// Dividends returns dividend events over the lookback window, oldest first.
func (s *MarketService) Dividends(ctx context.Context, symbol string) ([]models.DividendEvent, error) {
	var events []models.DividendEvent
	key := fmt.Sprintf("yf:dividends:%s:%dy", symbol, historyYears)
	err := s.readThrough(ctx, key, s.cfg.HistoryTTL, &events, func() (any, error) {
		return s.provider.FetchDividends(ctx, symbol, historyYears)
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// DividendKPIs derives yield and payout figures, cached daily as a unit so
// the panel does not recompute against a moving price all day.
func (s *MarketService) DividendKPIs(ctx context.Context, symbol string) (*models.DividendKPIs, error) {
	var kpis models.DividendKPIs
	err := s.readThrough(ctx, cacheKey("divkpis", symbol), s.cfg.KPIsTTL, &kpis, func() (any, error) {
		return s.computeKPIs(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	return &kpis, nil
}

// DividendHistory returns the annual totals and growth rate.
func (s *MarketService) DividendHistory(ctx context.Context, symbol string) (*DividendHistory, error) {
	events, err := s.Dividends(ctx, symbol)
	if err != nil {
		return nil, err
	}

	annual := AnnualDividends(events)
	return &DividendHistory{
		Annual: annual,
		CAGR:   DividendCAGR(annual),
	}, nil
}

// DividendSafety returns the per-year free-cash-flow payout view.
func (s *MarketService) DividendSafety(ctx context.Context, symbol string) ([]SafetyYear, error) {
	var years []models.CashflowYear
	err := s.readThrough(ctx, cacheKey("cashflow", symbol), s.cfg.HistoryTTL, &years, func() (any, error) {
		return s.provider.FetchCashflow(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	return DividendSafety(years), nil
}

// YieldBands returns the historical-yield valuation channel.
func (s *MarketService) YieldBands(ctx context.Context, symbol string) ([]YieldBandPoint, error) {
	history, err := s.History(ctx, symbol)
	if err != nil {
		return nil, err
	}
	events, err := s.Dividends(ctx, symbol)
	if err != nil {
		return nil, err
	}

	annual := AnnualDividends(events)
	return YieldBands(history, annual, DividendCAGR(annual), s.now().UTC()), nil
}

// Overview assembles the headline panels for one symbol. This is the
// payload a metered search buys.
func (s *MarketService) Overview(ctx context.Context, symbol string) (*TickerOverview, error) {
	quote, err := s.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	// The remaining panels degrade to empty rather than failing the search.
	profile, err := s.Profile(ctx, symbol)
	if err != nil {
		s.logger.Warn("profile unavailable", slog.String("ticker", symbol), slog.Any("error", err))
		profile = &models.Profile{}
	}

	kpis, err := s.DividendKPIs(ctx, symbol)
	if err != nil {
		s.logger.Warn("dividend KPIs unavailable", slog.String("ticker", symbol), slog.Any("error", err))
		kpis = &models.DividendKPIs{}
	}

	return &TickerOverview{
		Ticker:   symbol,
		Quote:    quote,
		Profile:  profile,
		KeyStats: KeyStatsFromProfile(profile),
		KPIs:     kpis,
	}, nil
}

func (s *MarketService) computeKPIs(ctx context.Context, symbol string) (*models.DividendKPIs, error) {
	events, err := s.Dividends(ctx, symbol)
	if err != nil {
		return nil, err
	}

	quote, err := s.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	var epsTTM *float64
	if profile, err := s.Profile(ctx, symbol); err == nil {
		epsTTM = KeyStatsFromProfile(profile).EPSTTM
	}

	return ComputeDividendKPIs(events, quote.LastPrice, epsTTM, s.now().UTC()), nil
}

// readThrough fills out from the cache when fresh, otherwise fetches and
// caches. Cache write failures are logged and swallowed so a broken cache
// degrades to pass-through instead of taking the panels down.
func (s *MarketService) readThrough(ctx context.Context, key string, ttl time.Duration, out any, fetch func() (any, error)) error {
	hit, err := s.cache.GetJSON(ctx, key, out)
	if err != nil {
		return err
	}
	if hit {
		return nil
	}

	fresh, err := fetch()
	if err != nil {
		return err
	}

	if err := s.cache.SetJSON(ctx, key, fresh, ttl); err != nil {
		s.logger.Warn("failed to cache provider payload",
			slog.String("key", key), slog.Any("error", err))
	}

	raw, err := json.Marshal(fresh)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func cacheKey(kind, symbol string) string {
	return fmt.Sprintf("yf:%s:%s", kind, symbol)
}
