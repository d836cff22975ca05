package services

import (
	"fmt"
	"math"

	"github.com/draff227/bslc/internal/core/domain"
	"github.com/draff227/bslc/internal/core/ports"
)

const (
	DefaultCollateralPercentage = 0.01
	DefaultMaxVolume            = 360_000
	DefaultMaxCollateral        = 10_000_000_000
)

var _ ports.PriceCalculator = (*PricingService)(nil)

// PricingService calcula cotações a partir de uma tabela de rotas fixa.
type PricingService struct {
	routes ports.RouteTable
	rules  domain.PricingRules
}

func NewPricingService(routes ports.RouteTable, rules domain.PricingRules) (*PricingService, error) {
	if routes == nil {
		return nil, fmt.Errorf("route table is required")
	}
	if rules.CollateralPercentage < 0 || rules.CollateralPercentage > 1 {
		return nil, fmt.Errorf("collateral percentage must be between 0 and 1")
	}
	if rules.MaxVolume <= 0 || rules.MaxCollateral <= 0 {
		return nil, fmt.Errorf("pricing bounds must have positive values")
	}
	return &PricingService{routes: routes, rules: rules}, nil
}

func DefaultPricingRules() domain.PricingRules {
	return domain.PricingRules{
		CollateralPercentage: DefaultCollateralPercentage,
		MaxVolume:            DefaultMaxVolume,
		MaxCollateral:        DefaultMaxCollateral,
	}
}

func (s *PricingService) Calculate(req domain.QuoteRequest) (domain.Quote, error) {
	if err := s.validateBounds(req.Volume, req.Collateral); err != nil {
		return domain.Quote{}, err
	}

	pickup, ok := s.routes.Station(req.PickupStationID)
	if !ok {
		return domain.Quote{}, domain.NewValidationError("unknown pickup station %d", req.PickupStationID)
	}
	destination, ok := s.routes.Station(req.DestinationStationID)
	if !ok {
		return domain.Quote{}, domain.NewValidationError("unknown destination station %d", req.DestinationStationID)
	}
	rate, ok := s.routes.Rate(pickup.ID, destination.ID)
	if !ok {
		return domain.Quote{}, domain.NewValidationError("no route from %s to %s", pickup.Name, destination.Name)
	}

	basePrice := rate * req.Volume
	collateralFee := req.Collateral * s.rules.CollateralPercentage

	return domain.Quote{
		BasePrice:          basePrice,
		CollateralFee:      collateralFee,
		TotalPrice:         basePrice + collateralFee,
		PickupStation:      pickup,
		DestinationStation: destination,
		Volume:             req.Volume,
		Collateral:         req.Collateral,
	}, nil
}

// CalculatePublic resolve cada ponta por estação ou por sistema antes de calcular.
func (s *PricingService) CalculatePublic(req domain.PublicQuoteRequest) (domain.Quote, error) {
	pickup, err := s.ResolveStation(req.PickupStationID, req.PickupSystemID)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("pickup: %w", err)
	}
	destination, err := s.ResolveStation(req.DestinationStationID, req.DestinationSystemID)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("destination: %w", err)
	}

	return s.Calculate(domain.QuoteRequest{
		PickupStationID:      pickup.ID,
		DestinationStationID: destination.ID,
		Volume:               req.Volume,
		Collateral:           req.Collateral,
	})
}

// ResolveStation prefere o id da estação; sem ele, o sistema deve conter exatamente uma estação.
func (s *PricingService) ResolveStation(stationID, systemID int64) (domain.Station, error) {
	if stationID != 0 {
		station, ok := s.routes.Station(stationID)
		if !ok {
			return domain.Station{}, domain.NewValidationError("unknown station %d", stationID)
		}
		return station, nil
	}
	if systemID == 0 {
		return domain.Station{}, domain.NewValidationError("a station id or system id is required")
	}

	candidates := s.routes.StationsInSystem(systemID)
	switch len(candidates) {
	case 0:
		return domain.Station{}, domain.NewValidationError("no station found in system %d", systemID)
	case 1:
		return candidates[0], nil
	default:
		return domain.Station{}, domain.NewValidationError("system %d has %d stations, specify a station id", systemID, len(candidates))
	}
}

func (s *PricingService) Stations() []domain.Station {
	return s.routes.Stations()
}

func (s *PricingService) Rules() domain.PricingRules {
	return s.rules
}

func (s *PricingService) validateBounds(volume, collateral float64) error {
	if math.IsNaN(volume) || math.IsInf(volume, 0) {
		return domain.NewValidationError("volume must be a finite number")
	}
	if math.IsNaN(collateral) || math.IsInf(collateral, 0) {
		return domain.NewValidationError("collateral must be a finite number")
	}
	if volume <= 0 || volume > s.rules.MaxVolume {
		return domain.NewValidationError("volume must be greater than 0 and at most %.0f m³", s.rules.MaxVolume)
	}
	if collateral < 0 || collateral > s.rules.MaxCollateral {
		return domain.NewValidationError("collateral must be between 0 and %.0f ISK", s.rules.MaxCollateral)
	}
	return nil
}
