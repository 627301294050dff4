package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mquintana/divscope/internal/auth"
	"github.com/mquintana/divscope/internal/models"
	"github.com/mquintana/divscope/internal/services"
	pkghttp "github.com/mquintana/divscope/pkg/http"
)

// MarketServiceInterface defines the interface for ticker data lookups
type MarketServiceInterface interface {
	Overview(ctx context.Context, symbol string) (*services.TickerOverview, error)
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
	Profile(ctx context.Context, symbol string) (*models.Profile, error)
	KeyStats(ctx context.Context, symbol string) (*models.KeyStats, error)
	DividendKPIs(ctx context.Context, symbol string) (*models.DividendKPIs, error)
	DividendHistory(ctx context.Context, symbol string) (*services.DividendHistory, error)
	DividendSafety(ctx context.Context, symbol string) ([]services.SafetyYear, error)
	YieldBands(ctx context.Context, symbol string) ([]services.YieldBandPoint, error)
}

// UsageServiceInterface defines the interface for quota enforcement
type UsageServiceInterface interface {
	Status(ctx context.Context, user *models.User) (*services.UsageStatus, error)
	Consume(ctx context.Context, user *models.User, cost int) error
}

// searchCost is what one overview lookup spends from the daily quota.
const searchCost = 1

// UserFetcher looks up the current credential record for the session
type UserFetcher interface {
	GetUser(email string) (*models.User, error)
}

// TickerHandler serves the dashboard's ticker panels. Only Overview is
// metered: it is the entry point of a search, and the panel endpoints
// below it ride on data the search already paid for.
type TickerHandler struct {
	market MarketServiceInterface
	usage  UsageServiceInterface
	users  UserFetcher
}

func NewTickerHandler(market MarketServiceInterface, usage UsageServiceInterface, users UserFetcher) *TickerHandler {
	return &TickerHandler{
		market: market,
		usage:  usage,
		users:  users,
	}
}

// Overview handles GET /tickers/{symbol}. It consumes one search from the
// user's daily quota before touching the provider.
func (h *TickerHandler) Overview(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	symbol, ok := h.symbol(w, r)
	if !ok {
		return
	}

	if err := h.usage.Consume(r.Context(), user, searchCost); err != nil {
		if errors.Is(err, models.ErrQuotaExceeded) {
			pkghttp.WriteTooManyRequests(w, "Daily search limit reached")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	overview, err := h.market.Overview(r.Context(), symbol)
	if err != nil {
		h.writeMarketError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, overview)
}

// Quote handles GET /tickers/{symbol}/quote.
func (h *TickerHandler) Quote(w http.ResponseWriter, r *http.Request) {
	h.panel(w, r, func(ctx context.Context, symbol string) (any, error) {
		return h.market.Quote(ctx, symbol)
	})
}

// Profile handles GET /tickers/{symbol}/profile.
func (h *TickerHandler) Profile(w http.ResponseWriter, r *http.Request) {
	h.panel(w, r, func(ctx context.Context, symbol string) (any, error) {
		return h.market.Profile(ctx, symbol)
	})
}

// KeyStats handles GET /tickers/{symbol}/key-stats.
func (h *TickerHandler) KeyStats(w http.ResponseWriter, r *http.Request) {
	h.panel(w, r, func(ctx context.Context, symbol string) (any, error) {
		return h.market.KeyStats(ctx, symbol)
	})
}

// DividendKPIs handles GET /tickers/{symbol}/dividends/kpis.
func (h *TickerHandler) DividendKPIs(w http.ResponseWriter, r *http.Request) {
	h.panel(w, r, func(ctx context.Context, symbol string) (any, error) {
		return h.market.DividendKPIs(ctx, symbol)
	})
}

// DividendAnnual handles GET /tickers/{symbol}/dividends/annual.
func (h *TickerHandler) DividendAnnual(w http.ResponseWriter, r *http.Request) {
	h.panel(w, r, func(ctx context.Context, symbol string) (any, error) {
		return h.market.DividendHistory(ctx, symbol)
	})
}

// DividendSafety handles GET /tickers/{symbol}/dividends/safety.
func (h *TickerHandler) DividendSafety(w http.ResponseWriter, r *http.Request) {
	h.panel(w, r, func(ctx context.Context, symbol string) (any, error) {
		return h.market.DividendSafety(ctx, symbol)
	})
}

// YieldBands handles GET /tickers/{symbol}/dividends/yield-bands.
func (h *TickerHandler) YieldBands(w http.ResponseWriter, r *http.Request) {
	h.panel(w, r, func(ctx context.Context, symbol string) (any, error) {
		return h.market.YieldBands(ctx, symbol)
	})
}

// Usage handles GET /usage and reports the caller's quota standing.
func (h *TickerHandler) Usage(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	status, err := h.usage.Status(r.Context(), user)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, status)
}

func (h *TickerHandler) panel(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context, symbol string) (any, error)) {
	symbol, ok := h.symbol(w, r)
	if !ok {
		return
	}

	payload, err := fetch(r.Context(), symbol)
	if err != nil {
		h.writeMarketError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, payload)
}

func (h *TickerHandler) symbol(w http.ResponseWriter, r *http.Request) (string, bool) {
	symbol, err := services.NormalizeTicker(chi.URLParam(r, "symbol"))
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid ticker symbol")
		return "", false
	}
	return symbol, true
}

func (h *TickerHandler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	claims := auth.GetSessionFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return nil, false
	}

	user, err := h.users.GetUser(claims.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteUnauthorized(w, "unauthorized")
			return nil, false
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return nil, false
	}
	return user, true
}

func (h *TickerHandler) writeMarketError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNoData):
		pkghttp.WriteNotFound(w, "No data for this ticker")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid ticker symbol")
	default:
		pkghttp.WriteBadGateway(w, "Market data provider unavailable")
	}
}
