package services

import (
	"math"
	"sort"
	"time"

	"github.com/mquintana/divscope/internal/models"
)

// Derived dividend metrics. Everything in this file is a pure function of
// provider payloads so it can be computed from cached data without another
// provider round trip.

// AnnualDividend is the total cash dividend paid in one calendar year.
type AnnualDividend struct {
	Year  int     `json:"year"`
	Total float64 `json:"total"`
}

// SafetyYear pairs a fiscal year's free cash flow with the dividends paid
// out of it.
type SafetyYear struct {
	Year          int      `json:"year"`
	FreeCashFlow  *float64 `json:"fcf"`
	DividendsPaid *float64 `json:"dividends_paid"`
	FCFPayoutPct  *float64 `json:"fcf_payout_pct"`
}

// YieldBandPoint is one monthly sample of the historical-yield valuation
// channel: the close alongside the prices the stock would trade at if it
// yielded its historical maximum (undervalue) or minimum (overvalue).
type YieldBandPoint struct {
	Date       time.Time `json:"date"`
	Close      float64   `json:"close"`
	AnnualDiv  float64   `json:"annual_div"`
	Undervalue *float64  `json:"undervalue"`
	Overvalue  *float64  `json:"overvalue"`
}

// AnnualDividends aggregates dividend events into calendar-year totals,
// oldest year first.
func AnnualDividends(events []models.DividendEvent) []AnnualDividend {
	totals := map[int]float64{}
	for _, e := range events {
		totals[e.Date.UTC().Year()] += e.Amount
	}

	out := make([]AnnualDividend, 0, len(totals))
	for year, total := range totals {
		out = append(out, AnnualDividend{Year: year, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// DividendCAGR computes the compound annual growth rate, in percent,
// between the first and the penultimate year of the annual series. The
// final year is skipped because it is usually still accumulating. Needs at
// least three years of data; returns nil otherwise.
func DividendCAGR(annuals []AnnualDividend) *float64 {
	if len(annuals) < 3 {
		return nil
	}

	first := annuals[0]
	last := annuals[len(annuals)-2]

	periods := last.Year - first.Year
	if periods <= 0 || first.Total <= 0 || last.Total <= 0 {
		return nil
	}

	cagr := (math.Pow(last.Total/first.Total, 1/float64(periods)) - 1) * 100
	return &cagr
}

// KeyStatsFromProfile projects valuation figures out of the profile's raw
// document. Missing fields stay nil.
func KeyStatsFromProfile(profile *models.Profile) *models.KeyStats {
	stats := &models.KeyStats{}
	if profile == nil || profile.Raw == nil {
		return stats
	}

	stats.Beta = rawFloat(profile.Raw, "beta")
	stats.PETTM = rawFloat(profile.Raw, "trailingPE")
	stats.EPSTTM = rawFloat(profile.Raw, "trailingEps")
	stats.Target1Y = rawFloat(profile.Raw, "targetMeanPrice")
	if stats.Target1Y == nil {
		stats.Target1Y = rawFloat(profile.Raw, "targetMedianPrice")
	}
	return stats
}

// ComputeDividendKPIs derives yield and payout figures from the dividend
// history, the current price, and trailing EPS. The forward yield
// annualizes the most recent payment by the observed payment frequency,
// clamped to between one and twelve payments a year.
func ComputeDividendKPIs(events []models.DividendEvent, price, epsTTM *float64, asOf time.Time) *models.DividendKPIs {
	kpis := &models.DividendKPIs{}
	if len(events) == 0 {
		return kpis
	}

	cutoff := asOf.AddDate(-1, 0, 0)
	var ttm float64
	var ttmCount int
	for _, e := range events {
		if e.Date.After(cutoff) && !e.Date.After(asOf) {
			ttm += e.Amount
			ttmCount++
		}
	}

	// A payer whose next payment is slightly late has no event in the
	// trailing window; fall back to the last four payments so the annual
	// figure does not vanish.
	annual := ttm
	if ttmCount == 0 {
		start := len(events) - 4
		if start < 0 {
			start = 0
		}
		for _, e := range events[start:] {
			annual += e.Amount
		}
	}

	if annual > 0 {
		kpis.AnnualDiv = &annual
	}

	if price != nil && *price > 0 {
		if annual > 0 {
			y := annual / *price * 100
			kpis.TrailingYield = &y
		}

		last := events[len(events)-1]
		freq := ttmCount
		if freq < 1 {
			freq = 1
		}
		if freq > 12 {
			freq = 12
		}
		fwd := last.Amount * float64(freq) / *price * 100
		kpis.ForwardYield = &fwd
	}

	if epsTTM != nil && *epsTTM > 0 && annual > 0 {
		payout := annual / *epsTTM * 100
		kpis.Payout = &payout
	}

	return kpis
}

// DividendSafety computes the free-cash-flow payout ratio per fiscal year.
func DividendSafety(years []models.CashflowYear) []SafetyYear {
	out := make([]SafetyYear, 0, len(years))
	for _, y := range years {
		row := SafetyYear{
			Year:          y.Year,
			FreeCashFlow:  y.FreeCashFlow,
			DividendsPaid: y.DividendsPaid,
		}
		if y.FreeCashFlow != nil && *y.FreeCashFlow > 0 && y.DividendsPaid != nil {
			pct := *y.DividendsPaid / *y.FreeCashFlow * 100
			row.FCFPayoutPct = &pct
		}
		out = append(out, row)
	}
	return out
}

// YieldBands builds the historical-yield valuation channel. The history is
// resampled to the last close of each calendar month and each sample
// carries its calendar year's dividend total; the still-accumulating
// current year is extrapolated from the prior year by the growth rate.
// Band edges are the prices implied by the highest and lowest yields
// observed across the samples. Months in a year with no known dividend
// are dropped.
func YieldBands(history []models.PricePoint, annuals []AnnualDividend, cagr *float64, asOf time.Time) []YieldBandPoint {
	if len(history) == 0 {
		return nil
	}

	totals := make(map[int]float64, len(annuals))
	for _, a := range annuals {
		totals[a.Year] = a.Total
	}

	divForYear := func(year int) *float64 {
		if total, ok := totals[year]; ok {
			return &total
		}
		if year == asOf.UTC().Year() && cagr != nil {
			if base, ok := totals[year-1]; ok {
				extrapolated := base * (1 + *cagr/100)
				return &extrapolated
			}
		}
		return nil
	}

	points := make([]YieldBandPoint, 0, len(history))
	minYield := math.Inf(1)
	maxYield := math.Inf(-1)

	for _, p := range monthlyCloses(history) {
		dv := divForYear(p.Date.UTC().Year())
		if dv == nil || p.Close <= 0 {
			continue
		}
		points = append(points, YieldBandPoint{Date: p.Date, Close: p.Close, AnnualDiv: *dv})

		yield := *dv / p.Close
		if yield < minYield {
			minYield = yield
		}
		if yield > maxYield {
			maxYield = yield
		}
	}

	if len(points) == 0 {
		return nil
	}

	for i := range points {
		under := points[i].AnnualDiv / maxYield
		over := points[i].AnnualDiv / minYield
		points[i].Undervalue = &under
		points[i].Overvalue = &over
	}
	return points
}

// monthlyCloses keeps the last close of each calendar month. Assumes the
// history is in date order, which the provider guarantees.
func monthlyCloses(history []models.PricePoint) []models.PricePoint {
	out := make([]models.PricePoint, 0, len(history))
	for _, p := range history {
		d := p.Date.UTC()
		if n := len(out); n > 0 {
			last := out[n-1].Date.UTC()
			if last.Year() == d.Year() && last.Month() == d.Month() {
				out[n-1] = p
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

func rawFloat(raw map[string]any, key string) *float64 {
	if v, ok := raw[key].(float64); ok {
		return &v
	}
	return nil
}
