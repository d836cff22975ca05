package memory

import (
	"context"

	"github.com/draff227/bslc/internal/core/domain"
	"github.com/draff227/bslc/internal/core/ports"
)

const (
	JitaStationID    int64 = 60003760
	AmarrStationID   int64 = 60008494
	DodixieStationID int64 = 60011866
	RensStationID    int64 = 60004588
	HekStationID     int64 = 60005686

	JitaSystemID    int64 = 30000142
	AmarrSystemID   int64 = 30002187
	DodixieSystemID int64 = 30002659
	RensSystemID    int64 = 30002510
	HekSystemID     int64 = 30002053
)

var builtinStations = []domain.Station{
	{ID: JitaStationID, Name: "Jita IV - Moon 4 - Caldari Navy Assembly Plant", SystemID: JitaSystemID, SystemName: "Jita"},
	{ID: AmarrStationID, Name: "Amarr VIII (Oris) - Emperor Family Academy", SystemID: AmarrSystemID, SystemName: "Amarr"},
	{ID: DodixieStationID, Name: "Dodixie IX - Moon 20 - Federation Navy Assembly Plant", SystemID: DodixieSystemID, SystemName: "Dodixie"},
	{ID: RensStationID, Name: "Rens VI - Moon 8 - Brutor Tribe Treasury", SystemID: RensSystemID, SystemName: "Rens"},
	{ID: HekStationID, Name: "Hek VIII - Moon 12 - Boundless Creation Factory", SystemID: HekSystemID, SystemName: "Hek"},
}

// Tarifas em ISK/m³. Os pares são ordenados e nem todo par é atendido.
var builtinRoutes = []domain.Route{
	{PickupStationID: JitaStationID, DestinationStationID: AmarrStationID, Rate: 300},
	{PickupStationID: AmarrStationID, DestinationStationID: JitaStationID, Rate: 300},
	{PickupStationID: JitaStationID, DestinationStationID: DodixieStationID, Rate: 250},
	{PickupStationID: DodixieStationID, DestinationStationID: JitaStationID, Rate: 250},
	{PickupStationID: JitaStationID, DestinationStationID: RensStationID, Rate: 275},
	{PickupStationID: RensStationID, DestinationStationID: JitaStationID, Rate: 275},
	{PickupStationID: JitaStationID, DestinationStationID: HekStationID, Rate: 225},
	{PickupStationID: HekStationID, DestinationStationID: JitaStationID, Rate: 225},
	{PickupStationID: AmarrStationID, DestinationStationID: DodixieStationID, Rate: 400},
	{PickupStationID: DodixieStationID, DestinationStationID: AmarrStationID, Rate: 400},
	{PickupStationID: RensStationID, DestinationStationID: HekStationID, Rate: 125},
	{PickupStationID: HekStationID, DestinationStationID: RensStationID, Rate: 125},
}

// BuiltinData devolve uma cópia da tabela embutida.
func BuiltinData() domain.RouteTableData {
	stations := make([]domain.Station, len(builtinStations))
	copy(stations, builtinStations)
	routes := make([]domain.Route, len(builtinRoutes))
	copy(routes, builtinRoutes)
	return domain.RouteTableData{Stations: stations, Routes: routes}
}

type BuiltinSource struct{}

var _ ports.RouteSource = BuiltinSource{}

func (BuiltinSource) Load(_ context.Context) (domain.RouteTableData, error) {
	return BuiltinData(), nil
}
