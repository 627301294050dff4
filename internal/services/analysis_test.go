package services

import (
	"testing"
	"time"

	"github.com/mquintana/divscope/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dividend(date string, amount float64) models.DividendEvent {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return models.DividendEvent{Date: d.UTC(), Amount: amount}
}

func TestAnnualDividends_GroupsByCalendarYear(t *testing.T) {
	events := []models.DividendEvent{
		dividend("2023-03-15", 0.44),
		dividend("2023-06-15", 0.44),
		dividend("2023-12-15", 0.44),
		dividend("2024-03-15", 0.46),
		dividend("2024-06-15", 0.46),
	}

	annual := AnnualDividends(events)
	require.Len(t, annual, 2)
	assert.Equal(t, 2023, annual[0].Year)
	assert.InDelta(t, 1.32, annual[0].Total, 0.0001)
	assert.Equal(t, 2024, annual[1].Year)
	assert.InDelta(t, 0.92, annual[1].Total, 0.0001)
}

func TestDividendCAGR_FirstToPenultimateYear(t *testing.T) {
	annual := []AnnualDividend{
		{Year: 2021, Total: 1.00},
		{Year: 2022, Total: 1.10},
		{Year: 2023, Total: 1.21},
		{Year: 2024, Total: 0.30}, // partial current year, excluded
	}

	cagr := DividendCAGR(annual)
	require.NotNil(t, cagr)
	// 1.00 -> 1.21 over two years is 10% a year.
	assert.InDelta(t, 10.0, *cagr, 0.001)
}

func TestDividendCAGR_NeedsThreeYears(t *testing.T) {
	annual := []AnnualDividend{
		{Year: 2023, Total: 1.00},
		{Year: 2024, Total: 1.10},
	}
	assert.Nil(t, DividendCAGR(annual))
	assert.Nil(t, DividendCAGR(nil))
}

func TestDividendCAGR_ZeroBaseYear(t *testing.T) {
	annual := []AnnualDividend{
		{Year: 2021, Total: 0},
		{Year: 2022, Total: 1.10},
		{Year: 2023, Total: 1.21},
	}
	assert.Nil(t, DividendCAGR(annual))
}

func TestKeyStatsFromProfile(t *testing.T) {
	profile := &models.Profile{Raw: map[string]any{
		"beta":            0.59,
		"trailingPE":      26.1,
		"trailingEps":     2.39,
		"targetMeanPrice": 70.5,
	}}

	stats := KeyStatsFromProfile(profile)
	require.NotNil(t, stats.Beta)
	assert.Equal(t, 0.59, *stats.Beta)
	require.NotNil(t, stats.PETTM)
	assert.Equal(t, 26.1, *stats.PETTM)
	require.NotNil(t, stats.EPSTTM)
	assert.Equal(t, 2.39, *stats.EPSTTM)
	require.NotNil(t, stats.Target1Y)
	assert.Equal(t, 70.5, *stats.Target1Y)
}

func TestKeyStatsFromProfile_FallsBackToMedianTarget(t *testing.T) {
	profile := &models.Profile{Raw: map[string]any{"targetMedianPrice": 68.0}}

	stats := KeyStatsFromProfile(profile)
	require.NotNil(t, stats.Target1Y)
	assert.Equal(t, 68.0, *stats.Target1Y)
}

func TestKeyStatsFromProfile_EmptyProfile(t *testing.T) {
	stats := KeyStatsFromProfile(nil)
	assert.Nil(t, stats.Beta)
	assert.Nil(t, stats.PETTM)
	assert.Nil(t, stats.EPSTTM)
	assert.Nil(t, stats.Target1Y)
}

func TestComputeDividendKPIs(t *testing.T) {
	asOf := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	events := []models.DividendEvent{
		dividend("2023-12-15", 0.44), // outside trailing year
		dividend("2024-03-15", 0.46),
		dividend("2024-06-15", 0.46),
		dividend("2024-09-15", 0.46),
		dividend("2024-12-15", 0.46),
	}
	price := 62.50
	eps := 2.39

	kpis := ComputeDividendKPIs(events, &price, &eps, asOf)

	require.NotNil(t, kpis.AnnualDiv)
	assert.InDelta(t, 1.84, *kpis.AnnualDiv, 0.0001)

	require.NotNil(t, kpis.TrailingYield)
	assert.InDelta(t, 1.84/62.50*100, *kpis.TrailingYield, 0.0001)

	// Four payments in the trailing year, so the last one annualizes x4.
	require.NotNil(t, kpis.ForwardYield)
	assert.InDelta(t, 0.46*4/62.50*100, *kpis.ForwardYield, 0.0001)

	require.NotNil(t, kpis.Payout)
	assert.InDelta(t, 1.84/2.39*100, *kpis.Payout, 0.0001)
}

func TestComputeDividendKPIs_NoEvents(t *testing.T) {
	price := 62.50
	kpis := ComputeDividendKPIs(nil, &price, nil, time.Now())

	assert.Nil(t, kpis.AnnualDiv)
	assert.Nil(t, kpis.TrailingYield)
	assert.Nil(t, kpis.ForwardYield)
	assert.Nil(t, kpis.Payout)
}

func TestComputeDividendKPIs_FallsBackToLastFourPayments(t *testing.T) {
	// The last payment is over a year old, so the trailing window is
	// empty; the annual figure comes from the last four payments instead.
	asOf := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	events := []models.DividendEvent{
		dividend("2022-12-15", 0.44), // outside the last four
		dividend("2023-03-15", 0.44),
		dividend("2023-06-15", 0.46),
		dividend("2023-09-15", 0.46),
		dividend("2023-12-15", 0.46),
	}
	price := 62.50

	kpis := ComputeDividendKPIs(events, &price, nil, asOf)

	require.NotNil(t, kpis.AnnualDiv)
	assert.InDelta(t, 1.82, *kpis.AnnualDiv, 0.0001)

	require.NotNil(t, kpis.TrailingYield)
	assert.InDelta(t, 1.82/62.50*100, *kpis.TrailingYield, 0.0001)

	// No payment in the trailing window, so the last payment annualizes x1.
	require.NotNil(t, kpis.ForwardYield)
	assert.InDelta(t, 0.46/62.50*100, *kpis.ForwardYield, 0.0001)
}

func TestComputeDividendKPIs_FrequencyClamped(t *testing.T) {
	asOf := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	// Monthly payer plus extras: more than twelve events in the year.
	var events []models.DividendEvent
	for month := 1; month <= 12; month++ {
		events = append(events,
			models.DividendEvent{Date: time.Date(2024, time.Month(month), 5, 0, 0, 0, 0, time.UTC), Amount: 0.10},
			models.DividendEvent{Date: time.Date(2024, time.Month(month), 20, 0, 0, 0, 0, time.UTC), Amount: 0.02},
		)
	}
	price := 10.0

	kpis := ComputeDividendKPIs(events, &price, nil, asOf)
	require.NotNil(t, kpis.ForwardYield)
	// Last amount 0.02 annualized at the 12-payment cap.
	assert.InDelta(t, 0.02*12/10.0*100, *kpis.ForwardYield, 0.0001)
}

func TestDividendSafety_PayoutRatio(t *testing.T) {
	fcf2023, paid2023 := 9747000000.0, 7952000000.0
	fcf2024 := 4741000000.0
	negFCF := -500000000.0
	paid2022 := 7616000000.0

	years := []models.CashflowYear{
		{Year: 2022, FreeCashFlow: &negFCF, DividendsPaid: &paid2022},
		{Year: 2023, FreeCashFlow: &fcf2023, DividendsPaid: &paid2023},
		{Year: 2024, FreeCashFlow: &fcf2024, DividendsPaid: nil},
	}

	safety := DividendSafety(years)
	require.Len(t, safety, 3)

	// Negative free cash flow yields no ratio.
	assert.Nil(t, safety[0].FCFPayoutPct)

	require.NotNil(t, safety[1].FCFPayoutPct)
	assert.InDelta(t, paid2023/fcf2023*100, *safety[1].FCFPayoutPct, 0.0001)

	// Missing dividends paid yields no ratio.
	assert.Nil(t, safety[2].FCFPayoutPct)
}

func TestYieldBands(t *testing.T) {
	annual := []AnnualDividend{
		{Year: 2023, Total: 1.00},
		{Year: 2024, Total: 1.00},
	}
	history := []models.PricePoint{
		{Date: time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC), Close: 20.0}, // yield 5%
		{Date: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), Close: 40.0}, // yield 2.5%
	}
	asOf := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	points := YieldBands(history, annual, nil, asOf)
	require.Len(t, points, 2)

	assert.Equal(t, 1.00, points[0].AnnualDiv)
	require.NotNil(t, points[0].Undervalue)
	require.NotNil(t, points[0].Overvalue)

	// Band edges are prices at the historical max and min yields.
	assert.InDelta(t, 1.00/0.05, *points[0].Undervalue, 0.0001)
	assert.InDelta(t, 1.00/0.025, *points[0].Overvalue, 0.0001)

	// Every point's bands come from the same global yield extremes.
	assert.InDelta(t, *points[0].Undervalue, *points[1].Undervalue, 0.0001)
}

func TestYieldBands_UsesCalendarYearDividend(t *testing.T) {
	// Quarterly payer that raised from 0.25 to 0.30: 1.00 paid over 2021,
	// 1.20 over 2022. A January 2022 close carries the 2022 calendar total
	// even though only a fraction of it has been paid by then.
	events := []models.DividendEvent{
		dividend("2021-03-15", 0.25),
		dividend("2021-06-15", 0.25),
		dividend("2021-09-15", 0.25),
		dividend("2021-12-15", 0.25),
		dividend("2022-03-15", 0.30),
		dividend("2022-06-15", 0.30),
		dividend("2022-09-15", 0.30),
		dividend("2022-12-15", 0.30),
	}
	annual := AnnualDividends(events)
	history := []models.PricePoint{
		{Date: time.Date(2021, 6, 30, 0, 0, 0, 0, time.UTC), Close: 50.0},
		{Date: time.Date(2022, 1, 31, 0, 0, 0, 0, time.UTC), Close: 60.0},
	}
	asOf := time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC)

	points := YieldBands(history, annual, nil, asOf)
	require.Len(t, points, 2)
	assert.InDelta(t, 1.00, points[0].AnnualDiv, 0.0001)
	assert.InDelta(t, 1.20, points[1].AnnualDiv, 0.0001)
}

func TestYieldBands_ResamplesToMonthlyCloses(t *testing.T) {
	annual := []AnnualDividend{{Year: 2024, Total: 1.00}}
	history := []models.PricePoint{
		{Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), Close: 55.0},
		{Date: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), Close: 60.0},
		{Date: time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), Close: 62.0},
	}
	asOf := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	points := YieldBands(history, annual, nil, asOf)
	require.Len(t, points, 2)

	// January keeps only its last close.
	assert.Equal(t, 60.0, points[0].Close)
	assert.Equal(t, 62.0, points[1].Close)
}

func TestYieldBands_ExtrapolatesCurrentYearByCAGR(t *testing.T) {
	annual := []AnnualDividend{
		{Year: 2021, Total: 1.00},
		{Year: 2022, Total: 1.10},
		{Year: 2023, Total: 1.21},
	}
	cagr := DividendCAGR(annual)
	require.NotNil(t, cagr)

	history := []models.PricePoint{
		{Date: time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC), Close: 50.0},
	}
	asOf := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	points := YieldBands(history, annual, cagr, asOf)
	require.Len(t, points, 1)

	// 2024 has no total yet, so it grows the 2023 total by the 10% CAGR.
	assert.InDelta(t, 1.21*1.10, points[0].AnnualDiv, 0.0001)
}

func TestYieldBands_DropsYearsWithoutDividend(t *testing.T) {
	annual := []AnnualDividend{{Year: 2023, Total: 1.00}}
	history := []models.PricePoint{
		{Date: time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC), Close: 30.0},
		{Date: time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC), Close: 40.0},
	}
	asOf := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	points := YieldBands(history, annual, nil, asOf)
	require.Len(t, points, 1)
	assert.Equal(t, 2023, points[0].Date.Year())
}

func TestYieldBands_NoDividendsNoPoints(t *testing.T) {
	history := []models.PricePoint{
		{Date: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), Close: 40.0},
	}
	assert.Nil(t, YieldBands(history, nil, nil, time.Now()))
}

func TestYieldBands_EmptyHistory(t *testing.T) {
	assert.Nil(t, YieldBands(nil, nil, nil, time.Now()))
}
