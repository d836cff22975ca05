package domain

// Station representa uma estação de coleta ou entrega.
type Station struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	SystemID   int64  `json:"systemId"`
	SystemName string `json:"systemName"`
}

// Route define a tarifa (ISK por m³) de um par ordenado de estações.
type Route struct {
	PickupStationID      int64
	DestinationStationID int64
	Rate                 float64
}

// RouteTableData é o conteúdo bruto carregado por uma RouteSource.
type RouteTableData struct {
	Stations []Station
	Routes   []Route
}

type PricingRules struct {
	CollateralPercentage float64
	MaxVolume            float64
	MaxCollateral        float64
}

type QuoteRequest struct {
	PickupStationID      int64
	DestinationStationID int64
	Volume               float64
	Collateral           float64
}

// PublicQuoteRequest aceita, para cada ponta, o id da estação ou o id do sistema.
type PublicQuoteRequest struct {
	PickupStationID      int64
	PickupSystemID       int64
	DestinationStationID int64
	DestinationSystemID  int64
	Volume               float64
	Collateral           float64
}

// Quote é serializado da mesma forma pela API HTTP e pela CLI.
type Quote struct {
	BasePrice          float64 `json:"basePrice"`
	CollateralFee      float64 `json:"collateralFee"`
	TotalPrice         float64 `json:"totalPrice"`
	PickupStation      Station `json:"pickupStation"`
	DestinationStation Station `json:"destinationStation"`
	Volume             float64 `json:"volume"`
	Collateral         float64 `json:"collateral"`
}
