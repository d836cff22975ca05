package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draff227/bslc/internal/core/domain"
)

func TestNewRouteTable_BuiltinData(t *testing.T) {
	data, err := BuiltinSource{}.Load(context.Background())
	require.NoError(t, err)

	table, err := NewRouteTable(data)
	require.NoError(t, err)

	rate, ok := table.Rate(JitaStationID, AmarrStationID)
	require.True(t, ok)
	assert.Equal(t, 300.0, rate)

	_, ok = table.Rate(DodixieStationID, HekStationID)
	assert.False(t, ok, "not every pair is served")

	station, ok := table.Station(JitaStationID)
	require.True(t, ok)
	assert.Equal(t, "Jita", station.SystemName)

	assert.Len(t, table.StationsInSystem(AmarrSystemID), 1)
	assert.Empty(t, table.StationsInSystem(1))

	stations := table.Stations()
	require.Len(t, stations, 5)
	for i := 1; i < len(stations); i++ {
		assert.Less(t, stations[i-1].ID, stations[i].ID, "stations are sorted by id")
	}
}

func TestNewRouteTable_ReturnsCopies(t *testing.T) {
	table, err := NewRouteTable(BuiltinData())
	require.NoError(t, err)

	stations := table.Stations()
	stations[0].Name = "mutated"
	assert.NotEqual(t, "mutated", table.Stations()[0].Name)

	inSystem := table.StationsInSystem(JitaSystemID)
	inSystem[0].Name = "mutated"
	assert.NotEqual(t, "mutated", table.StationsInSystem(JitaSystemID)[0].Name)
}

func TestNewRouteTable_RejectsInvalidData(t *testing.T) {
	stations := []domain.Station{
		{ID: 1, Name: "A", SystemID: 10},
		{ID: 2, Name: "B", SystemID: 20},
	}

	cases := map[string]domain.RouteTableData{
		"missing station id":  {Stations: []domain.Station{{Name: "nameless"}}},
		"duplicate station":   {Stations: []domain.Station{stations[0], stations[0]}},
		"unknown pickup":      {Stations: stations, Routes: []domain.Route{{PickupStationID: 9, DestinationStationID: 2, Rate: 1}}},
		"unknown destination": {Stations: stations, Routes: []domain.Route{{PickupStationID: 1, DestinationStationID: 9, Rate: 1}}},
		"zero rate":           {Stations: stations, Routes: []domain.Route{{PickupStationID: 1, DestinationStationID: 2, Rate: 0}}},
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewRouteTable(data)
			assert.Error(t, err)
		})
	}
}

func TestBuiltinData_IsIndependentCopy(t *testing.T) {
	first := BuiltinData()
	first.Routes[0].Rate = 1

	second := BuiltinData()
	assert.Equal(t, 300.0, second.Routes[0].Rate)
}
