package models

import "time"

// Quote is a point-in-time price snapshot for a ticker.
type Quote struct {
	Ticker    string   `json:"ticker"`
	Exchange  string   `json:"exchange,omitempty"`
	LastPrice *float64 `json:"last_price"`
	NetChange *float64 `json:"net_change"`
	PctChange *float64 `json:"pct_change"`
	Volume    *int64   `json:"volume"`
	Currency  string   `json:"currency,omitempty"`
	AsOf      string   `json:"asof,omitempty"` // trading day, YYYY-MM-DD
}

// Profile is the free-form company description payload. Raw carries the
// provider's merged info document so derived metrics can pick fields the
// typed projection does not cover.
type Profile struct {
	ShortName         string         `json:"short_name,omitempty"`
	Website           string         `json:"website,omitempty"`
	Sector            string         `json:"sector,omitempty"`
	Industry          string         `json:"industry,omitempty"`
	Country           string         `json:"country,omitempty"`
	City              string         `json:"city,omitempty"`
	BusinessSummary   string         `json:"long_business_summary,omitempty"`
	FullTimeEmployees *int64         `json:"full_time_employees,omitempty"`
	Raw               map[string]any `json:"raw,omitempty"`
}

// KeyStats are valuation figures extracted from the profile payload.
type KeyStats struct {
	Beta     *float64 `json:"beta"`
	PETTM    *float64 `json:"pe_ttm"`
	EPSTTM   *float64 `json:"eps_ttm"`
	Target1Y *float64 `json:"target_1y"`
}

// DividendEvent is a single cash dividend payment.
type DividendEvent struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// DividendKPIs summarize the trailing and estimated forward dividend.
type DividendKPIs struct {
	TrailingYield *float64 `json:"div_yield"`     // percent
	ForwardYield  *float64 `json:"fwd_div_yield"` // percent
	AnnualDiv     *float64 `json:"annual_div"`
	Payout        *float64 `json:"payout"` // percent of trailing EPS
}

// PricePoint is one daily close of a price history series.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// CashflowYear carries the cash-flow statement lines needed for the
// dividend-safety view, keyed by fiscal year.
type CashflowYear struct {
	Year          int      `json:"year"`
	FreeCashFlow  *float64 `json:"fcf"`
	DividendsPaid *float64 `json:"dividends_paid"` // absolute value
}
