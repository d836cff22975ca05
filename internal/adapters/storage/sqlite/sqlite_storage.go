// Package sqlite disponibiliza a fonte da tabela de rotas baseada em SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/draff227/bslc/internal/core/domain"
	"github.com/draff227/bslc/internal/core/ports"
)

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
}

const schema = `
CREATE TABLE IF NOT EXISTS stations (
	id          INTEGER PRIMARY KEY,
	name        TEXT    NOT NULL,
	system_id   INTEGER NOT NULL,
	system_name TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_stations_system ON stations(system_id);
CREATE TABLE IF NOT EXISTS routes (
	pickup_station_id      INTEGER NOT NULL REFERENCES stations(id),
	destination_station_id INTEGER NOT NULL REFERENCES stations(id),
	rate                   REAL    NOT NULL CHECK (rate > 0),
	PRIMARY KEY (pickup_station_id, destination_station_id)
);`

type Storage struct {
	db *sql.DB
}

var _ ports.RouteSource = (*Storage)(nil)

func Open(path string) (*Storage, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}

	database.SetMaxOpenConns(4)
	database.SetMaxIdleConns(2)
	database.SetConnMaxIdleTime(30 * time.Minute)

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	for _, pragma := range sqlitePragmas {
		if _, err := database.Exec(pragma); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	return &Storage{db: database}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Storage) Load(ctx context.Context) (domain.RouteTableData, error) {
	var data domain.RouteTableData

	stationRows, err := s.db.QueryContext(ctx, `SELECT id, name, system_id, system_name FROM stations ORDER BY id`)
	if err != nil {
		return domain.RouteTableData{}, fmt.Errorf("query stations: %w", err)
	}
	defer stationRows.Close()
	for stationRows.Next() {
		var station domain.Station
		if err := stationRows.Scan(&station.ID, &station.Name, &station.SystemID, &station.SystemName); err != nil {
			return domain.RouteTableData{}, fmt.Errorf("scan station: %w", err)
		}
		data.Stations = append(data.Stations, station)
	}
	if err := stationRows.Err(); err != nil {
		return domain.RouteTableData{}, fmt.Errorf("iterate stations: %w", err)
	}

	routeRows, err := s.db.QueryContext(ctx, `SELECT pickup_station_id, destination_station_id, rate FROM routes`)
	if err != nil {
		return domain.RouteTableData{}, fmt.Errorf("query routes: %w", err)
	}
	defer routeRows.Close()
	for routeRows.Next() {
		var route domain.Route
		if err := routeRows.Scan(&route.PickupStationID, &route.DestinationStationID, &route.Rate); err != nil {
			return domain.RouteTableData{}, fmt.Errorf("scan route: %w", err)
		}
		data.Routes = append(data.Routes, route)
	}
	if err := routeRows.Err(); err != nil {
		return domain.RouteTableData{}, fmt.Errorf("iterate routes: %w", err)
	}

	if len(data.Stations) == 0 {
		return domain.RouteTableData{}, fmt.Errorf("no stations found in sqlite database")
	}
	return data, nil
}

// Seed aplica o schema e substitui todas as estações e rotas em uma transação.
func (s *Storage) Seed(ctx context.Context, data domain.RouteTableData) error {
	if err := s.Migrate(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM routes`); err != nil {
		return fmt.Errorf("clear routes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM stations`); err != nil {
		return fmt.Errorf("clear stations: %w", err)
	}
	for _, station := range data.Stations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stations (id, name, system_id, system_name) VALUES (?, ?, ?, ?)`,
			station.ID, station.Name, station.SystemID, station.SystemName,
		); err != nil {
			return fmt.Errorf("insert station %d: %w", station.ID, err)
		}
	}
	for _, route := range data.Routes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO routes (pickup_station_id, destination_station_id, rate) VALUES (?, ?, ?)`,
			route.PickupStationID, route.DestinationStationID, route.Rate,
		); err != nil {
			return fmt.Errorf("insert route %d -> %d: %w", route.PickupStationID, route.DestinationStationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}
