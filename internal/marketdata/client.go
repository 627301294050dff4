package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/mquintana/divscope/internal/models"
	"github.com/sethvargo/go-retry"
)

// Client is the core's only expectation of the market-data provider:
// given a ticker, return price, profile, dividend, and cash-flow payloads.
// Callers treat the results as opaque, cacheable-by-TTL data.
type Client interface {
	FetchQuote(ctx context.Context, symbol string) (*models.Quote, error)
	FetchProfile(ctx context.Context, symbol string) (*models.Profile, error)
	FetchHistory(ctx context.Context, symbol string, years int) ([]models.PricePoint, error)
	FetchDividends(ctx context.Context, symbol string, years int) ([]models.DividendEvent, error)
	FetchCashflow(ctx context.Context, symbol string) ([]models.CashflowYear, error)
}

// HTTPClient talks to a Yahoo-style finance API. Every outbound call is
// wrapped in a fixed-count exponential backoff with jitter; after the last
// attempt the provider error surfaces to the caller as-is.
type HTTPClient struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	backoffBase time.Duration
	logger      *slog.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, maxAttempts int, logger *slog.Logger) *HTTPClient {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &HTTPClient{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		backoffBase: 1 * time.Second,
		logger:      logger,
	}
}

// statusError distinguishes provider HTTP failures from transport errors.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("provider returned status %d", e.code)
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	backoff := retry.WithMaxRetries(uint64(c.maxAttempts-1),
		retry.WithJitter(c.backoffBase/2, retry.NewExponential(c.backoffBase)))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", "divscope/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("provider request failed", slog.String("path", path), slog.Any("error", err))
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			// fall through to decode
		case resp.StatusCode == http.StatusNotFound:
			return models.ErrNoData
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			c.logger.Warn("provider request throttled or failed",
				slog.String("path", path), slog.Int("status", resp.StatusCode))
			io.Copy(io.Discard, resp.Body)
			return retry.RetryableError(&statusError{code: resp.StatusCode})
		default:
			return &statusError{code: resp.StatusCode}
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode provider response: %w", err)
		}
		return nil
	})
}

func (c *HTTPClient) fetchChart(ctx context.Context, symbol, rng string, withDividends bool) (*chartResult, error) {
	query := url.Values{}
	query.Set("range", rng)
	query.Set("interval", "1d")
	if withDividends {
		query.Set("events", "div")
	}

	var resp chartResponse
	if err := c.getJSON(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), query, &resp); err != nil {
		return nil, err
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrNoData, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, models.ErrNoData
	}
	return &resp.Chart.Result[0], nil
}

// FetchQuote builds a price snapshot from the last two trading days.
func (c *HTTPClient) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	result, err := c.fetchChart(ctx, symbol, "5d", false)
	if err != nil {
		return nil, err
	}

	quote := &models.Quote{
		Ticker:   symbol,
		Exchange: result.Meta.ExchangeName,
		Currency: result.Meta.Currency,
	}

	closes, volumes, stamps := compactSeries(result)
	n := len(closes)

	if n > 0 {
		last := closes[n-1]
		quote.LastPrice = &last
		quote.AsOf = time.Unix(stamps[n-1], 0).UTC().Format("2006-01-02")
		if volumes[n-1] != nil {
			quote.Volume = volumes[n-1]
		}
	}

	// Prefer the provider's live price when present.
	if result.Meta.RegularMarketPrice != nil {
		quote.LastPrice = result.Meta.RegularMarketPrice
	}

	if n >= 2 && quote.LastPrice != nil {
		prev := closes[n-2]
		if prev != 0 {
			net := *quote.LastPrice - prev
			pct := net / prev * 100
			quote.NetChange = &net
			quote.PctChange = &pct
		}
	}

	if quote.LastPrice == nil {
		return nil, models.ErrNoData
	}
	return quote, nil
}

// FetchProfile merges the provider's profile modules into one payload.
// Valuation figures land in Raw so derived metrics can read them without
// another provider round trip.
func (c *HTTPClient) FetchProfile(ctx context.Context, symbol string) (*models.Profile, error) {
	query := url.Values{}
	query.Set("modules", "assetProfile,price,summaryDetail,defaultKeyStatistics,financialData")

	var resp quoteSummaryResponse
	if err := c.getJSON(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(symbol), query, &resp); err != nil {
		return nil, err
	}

	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrNoData, resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, models.ErrNoData
	}
	result := resp.QuoteSummary.Result[0]

	profile := &models.Profile{Raw: map[string]any{}}

	if ap := result.AssetProfile; ap != nil {
		profile.Website = ap.Website
		profile.Sector = ap.Sector
		profile.Industry = ap.Industry
		profile.Country = ap.Country
		profile.City = ap.City
		profile.BusinessSummary = ap.LongBusinessSummary
		profile.FullTimeEmployees = ap.FullTimeEmployees
	}
	if p := result.Price; p != nil {
		profile.ShortName = p.ShortName
		if profile.ShortName == "" {
			profile.ShortName = p.LongName
		}
		setRaw(profile.Raw, "shortName", p.ShortName)
		setRaw(profile.Raw, "longName", p.LongName)
	}
	if sd := result.SummaryDetail; sd != nil {
		setRawFloat(profile.Raw, "beta", sd.Beta.Raw)
		setRawFloat(profile.Raw, "trailingPE", sd.TrailingPE.Raw)
		setRawFloat(profile.Raw, "dividendRate", sd.DividendRate.Raw)
		setRawFloat(profile.Raw, "dividendYield", sd.DividendYield.Raw)
	}
	if ks := result.DefaultKeyStatistics; ks != nil {
		setRawFloat(profile.Raw, "trailingEps", ks.TrailingEps.Raw)
	}
	if fd := result.FinancialData; fd != nil {
		setRawFloat(profile.Raw, "targetMeanPrice", fd.TargetMeanPrice.Raw)
		setRawFloat(profile.Raw, "targetMedianPrice", fd.TargetMedianPrice.Raw)
		setRawFloat(profile.Raw, "currentPrice", fd.CurrentPrice.Raw)
	}

	return profile, nil
}

// FetchHistory returns daily closes over the given number of years.
func (c *HTTPClient) FetchHistory(ctx context.Context, symbol string, years int) ([]models.PricePoint, error) {
	result, err := c.fetchChart(ctx, symbol, fmt.Sprintf("%dy", years), false)
	if err != nil {
		return nil, err
	}

	closes, _, stamps := compactSeries(result)
	points := make([]models.PricePoint, 0, len(closes))
	for i, cl := range closes {
		points = append(points, models.PricePoint{
			Date:  time.Unix(stamps[i], 0).UTC(),
			Close: cl,
		})
	}

	if len(points) == 0 {
		return nil, models.ErrNoData
	}
	return points, nil
}

// FetchDividends returns dividend events over the given number of years,
// oldest first.
func (c *HTTPClient) FetchDividends(ctx context.Context, symbol string, years int) ([]models.DividendEvent, error) {
	result, err := c.fetchChart(ctx, symbol, fmt.Sprintf("%dy", years), true)
	if err != nil {
		return nil, err
	}

	events := make([]models.DividendEvent, 0, len(result.Events.Dividends))
	for _, d := range result.Events.Dividends {
		if d.Amount <= 0 {
			continue
		}
		events = append(events, models.DividendEvent{
			Date:   time.Unix(d.Date, 0).UTC(),
			Amount: d.Amount,
		})
	}

	sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events, nil
}

// FetchCashflow returns annual free cash flow and dividends paid, oldest
// fiscal year first. Dividends paid arrive negative and are stored as
// absolute values.
func (c *HTTPClient) FetchCashflow(ctx context.Context, symbol string) ([]models.CashflowYear, error) {
	query := url.Values{}
	query.Set("modules", "cashflowStatementHistory")

	var resp quoteSummaryResponse
	if err := c.getJSON(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(symbol), query, &resp); err != nil {
		return nil, err
	}

	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrNoData, resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 || resp.QuoteSummary.Result[0].CashflowStatementHistory == nil {
		return nil, models.ErrNoData
	}

	statements := resp.QuoteSummary.Result[0].CashflowStatementHistory.CashflowStatements
	years := make([]models.CashflowYear, 0, len(statements))
	for _, st := range statements {
		if st.EndDate.Raw == nil {
			continue
		}
		year := models.CashflowYear{
			Year: time.Unix(*st.EndDate.Raw, 0).UTC().Year(),
		}

		if op := st.TotalCashFromOperatingActivities.Raw; op != nil {
			fcf := *op
			if capex := st.CapitalExpenditures.Raw; capex != nil {
				fcf += *capex // capex is reported negative
			}
			year.FreeCashFlow = &fcf
		}
		if dp := st.DividendsPaid.Raw; dp != nil {
			paid := *dp
			if paid < 0 {
				paid = -paid
			}
			year.DividendsPaid = &paid
		}

		years = append(years, year)
	}

	sort.Slice(years, func(i, j int) bool { return years[i].Year < years[j].Year })
	if len(years) == 0 {
		return nil, models.ErrNoData
	}
	return years, nil
}

// compactSeries drops the null points the provider pads series with.
func compactSeries(result *chartResult) ([]float64, []*int64, []int64) {
	if len(result.Indicators.Quote) == 0 {
		return nil, nil, nil
	}
	q := result.Indicators.Quote[0]

	closes := make([]float64, 0, len(result.Timestamp))
	volumes := make([]*int64, 0, len(result.Timestamp))
	stamps := make([]int64, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		closes = append(closes, *q.Close[i])
		if i < len(q.Volume) {
			volumes = append(volumes, q.Volume[i])
		} else {
			volumes = append(volumes, nil)
		}
		stamps = append(stamps, ts)
	}
	return closes, volumes, stamps
}

func setRaw(raw map[string]any, key, value string) {
	if value != "" {
		raw[key] = value
	}
}

func setRawFloat(raw map[string]any, key string, value *float64) {
	if value != nil {
		raw[key] = *value
	}
}
