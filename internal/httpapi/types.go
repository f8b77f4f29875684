// Package httpapi serves the stocks price API over HTTP: symbol catalog,
// paged price history, price on a date, and cumulative return.
package httpapi

// ReturnRequest is the POST /{symbol}/returns body. Dates are YYYY-MM-DD.
type ReturnRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status string `json:"status"`
}
