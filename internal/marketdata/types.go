package marketdata

// Wire types for the provider's chart and quoteSummary endpoints. Numeric
// fields arrive wrapped as {"raw": 1.23, "fmt": "1.23"}; only the raw
// value matters here.

type wrappedValue struct {
	Raw *float64 `json:"raw"`
}

type wrappedInt struct {
	Raw *int64 `json:"raw"`
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Currency           string   `json:"currency"`
		Symbol             string   `json:"symbol"`
		ExchangeName       string   `json:"exchangeName"`
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
	Events struct {
		Dividends map[string]struct {
			Amount float64 `json:"amount"`
			Date   int64   `json:"date"`
		} `json:"dividends"`
	} `json:"events"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []quoteSummaryResult `json:"result"`
		Error  *apiError            `json:"error"`
	} `json:"quoteSummary"`
}

type quoteSummaryResult struct {
	AssetProfile *struct {
		Website             string `json:"website"`
		Industry            string `json:"industry"`
		Sector              string `json:"sector"`
		LongBusinessSummary string `json:"longBusinessSummary"`
		FullTimeEmployees   *int64 `json:"fullTimeEmployees"`
		Country             string `json:"country"`
		City                string `json:"city"`
		Address1            string `json:"address1"`
		Phone               string `json:"phone"`
	} `json:"assetProfile"`
	Price *struct {
		ShortName string `json:"shortName"`
		LongName  string `json:"longName"`
	} `json:"price"`
	SummaryDetail *struct {
		Beta          wrappedValue `json:"beta"`
		TrailingPE    wrappedValue `json:"trailingPE"`
		DividendRate  wrappedValue `json:"dividendRate"`
		DividendYield wrappedValue `json:"dividendYield"`
	} `json:"summaryDetail"`
	DefaultKeyStatistics *struct {
		TrailingEps wrappedValue `json:"trailingEps"`
	} `json:"defaultKeyStatistics"`
	FinancialData *struct {
		TargetMeanPrice   wrappedValue `json:"targetMeanPrice"`
		TargetMedianPrice wrappedValue `json:"targetMedianPrice"`
		CurrentPrice      wrappedValue `json:"currentPrice"`
	} `json:"financialData"`
	CashflowStatementHistory *struct {
		CashflowStatements []struct {
			EndDate                            wrappedInt   `json:"endDate"`
			TotalCashFromOperatingActivities   wrappedValue `json:"totalCashFromOperatingActivities"`
			CapitalExpenditures                wrappedValue `json:"capitalExpenditures"`
			DividendsPaid                      wrappedValue `json:"dividendsPaid"`
		} `json:"cashflowStatements"`
	} `json:"cashflowStatementHistory"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
