// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"

	"github.com/draff227/bslc/internal/core/domain"
)

// RouteSource carrega a tabela de rotas uma única vez, na inicialização.
type RouteSource interface {
	Load(ctx context.Context) (domain.RouteTableData, error)
}

// RouteTable é a visão somente leitura usada pelo cálculo de preço.
type RouteTable interface {
	Station(id int64) (domain.Station, bool)
	StationsInSystem(systemID int64) []domain.Station
	Rate(pickupStationID, destinationStationID int64) (float64, bool)
	Stations() []domain.Station
}
