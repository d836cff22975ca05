package ports

import (
	"github.com/draff227/bslc/internal/core/domain"
)

type PriceCalculator interface {
	Calculate(req domain.QuoteRequest) (domain.Quote, error)
	CalculatePublic(req domain.PublicQuoteRequest) (domain.Quote, error)
	Stations() []domain.Station
}
