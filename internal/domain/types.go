// Package domain defines the core price types shared by the dashboard client,
// the CLI and the reference backend.
package domain

// Symbol identifies a tradable instrument. The catalog treats it as an opaque
// string and preserves server order.
type Symbol = string

// PricePoint is one trading day's closing data for one symbol.
type PricePoint struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	AsOf         Date    `json:"asof"`
	Volume       int64   `json:"volume"`
	CloseUSD     float64 `json:"close_usd"`
	SectorLevel1 string  `json:"sector_level1"`
	SectorLevel2 string  `json:"sector_level2"`
}

// PriceSeries is an ordered slice of price points for one symbol. Total is the
// full server-side series length; Data may be a smaller page of it.
type PriceSeries struct {
	Data  []PricePoint `json:"data"`
	Total int          `json:"total"`
}

// ReturnQuery is a user-supplied date range. Dates are plain YYYY-MM-DD
// strings and are passed to the backend unvalidated.
type ReturnQuery struct {
	Symbol    string `json:"-"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ReturnResult is a server-computed cumulative return. CumulativeReturn is a
// percentage, (end-start)/start*100, and is never recomputed by the client.
type ReturnResult struct {
	Name             string  `json:"name"`
	StartDate        Date    `json:"start_date"`
	EndDate          Date    `json:"end_date"`
	StartPrice       float64 `json:"start_price"`
	EndPrice         float64 `json:"end_price"`
	CumulativeReturn float64 `json:"cumulative_return"`
}
