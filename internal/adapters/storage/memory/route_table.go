// Package memory disponibiliza a tabela de rotas em memória e a tabela embutida padrão.
package memory

import (
	"fmt"
	"math"
	"sort"

	"github.com/draff227/bslc/internal/core/domain"
	"github.com/draff227/bslc/internal/core/ports"
)

type routeKey struct {
	pickup      int64
	destination int64
}

// RouteTable é imutável depois de construída, portanto segura para leitura concorrente.
type RouteTable struct {
	stations map[int64]domain.Station
	bySystem map[int64][]domain.Station
	rates    map[routeKey]float64
	ordered  []domain.Station
}

var _ ports.RouteTable = (*RouteTable)(nil)

func NewRouteTable(data domain.RouteTableData) (*RouteTable, error) {
	table := &RouteTable{
		stations: make(map[int64]domain.Station, len(data.Stations)),
		bySystem: make(map[int64][]domain.Station),
		rates:    make(map[routeKey]float64, len(data.Routes)),
	}

	for _, station := range data.Stations {
		if station.ID == 0 {
			return nil, fmt.Errorf("station %q has no id", station.Name)
		}
		if _, exists := table.stations[station.ID]; exists {
			return nil, fmt.Errorf("duplicate station %d", station.ID)
		}
		table.stations[station.ID] = station
		table.bySystem[station.SystemID] = append(table.bySystem[station.SystemID], station)
		table.ordered = append(table.ordered, station)
	}
	sort.Slice(table.ordered, func(i, j int) bool { return table.ordered[i].ID < table.ordered[j].ID })

	for _, route := range data.Routes {
		if _, ok := table.stations[route.PickupStationID]; !ok {
			return nil, fmt.Errorf("route references unknown pickup station %d", route.PickupStationID)
		}
		if _, ok := table.stations[route.DestinationStationID]; !ok {
			return nil, fmt.Errorf("route references unknown destination station %d", route.DestinationStationID)
		}
		if route.Rate <= 0 || math.IsNaN(route.Rate) || math.IsInf(route.Rate, 0) {
			return nil, fmt.Errorf("route %d -> %d has invalid rate %v", route.PickupStationID, route.DestinationStationID, route.Rate)
		}
		table.rates[routeKey{route.PickupStationID, route.DestinationStationID}] = route.Rate
	}

	return table, nil
}

func (t *RouteTable) Station(id int64) (domain.Station, bool) {
	station, ok := t.stations[id]
	return station, ok
}

func (t *RouteTable) StationsInSystem(systemID int64) []domain.Station {
	stations := t.bySystem[systemID]
	out := make([]domain.Station, len(stations))
	copy(out, stations)
	return out
}

func (t *RouteTable) Rate(pickupStationID, destinationStationID int64) (float64, bool) {
	rate, ok := t.rates[routeKey{pickupStationID, destinationStationID}]
	return rate, ok
}

func (t *RouteTable) Stations() []domain.Station {
	out := make([]domain.Station, len(t.ordered))
	copy(out, t.ordered)
	return out
}
