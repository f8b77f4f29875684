package stockdash

import "stockdash/internal/domain"

// Wire types returned by the Client.
type (
	PricePoint   = domain.PricePoint
	PriceSeries  = domain.PriceSeries
	ReturnQuery  = domain.ReturnQuery
	ReturnResult = domain.ReturnResult
	Date         = domain.Date
)
