// Package redis disponibiliza a fonte da tabela de rotas baseada em Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/draff227/bslc/internal/core/domain"
	"github.com/draff227/bslc/internal/core/ports"
)

const DefaultKeyPrefix = "bslc:"

type Storage struct {
	client    *redis.Client
	keyPrefix string
}

var _ ports.RouteSource = (*Storage)(nil)

type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

func New(cfg Config) (*Storage, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Storage{client: client, keyPrefix: cfg.KeyPrefix}, nil
}

func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) stationsKey() string {
	return s.keyPrefix + "stations"
}

func (s *Storage) routesKey() string {
	return s.keyPrefix + "routes"
}

// Load lê o hash de estações (id -> JSON) e o hash de rotas ("origem:destino" -> tarifa).
func (s *Storage) Load(ctx context.Context) (domain.RouteTableData, error) {
	pipe := s.client.Pipeline()
	stationsCmd := pipe.HGetAll(ctx, s.stationsKey())
	routesCmd := pipe.HGetAll(ctx, s.routesKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.RouteTableData{}, fmt.Errorf("read route table: %w", err)
	}

	var data domain.RouteTableData
	for field, raw := range stationsCmd.Val() {
		var station domain.Station
		if err := json.Unmarshal([]byte(raw), &station); err != nil {
			return domain.RouteTableData{}, fmt.Errorf("decode station %s: %w", field, err)
		}
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return domain.RouteTableData{}, fmt.Errorf("invalid station field %q: %w", field, err)
		}
		if station.ID != 0 && station.ID != id {
			return domain.RouteTableData{}, fmt.Errorf("station field %s holds id %d", field, station.ID)
		}
		station.ID = id
		data.Stations = append(data.Stations, station)
	}

	for field, raw := range routesCmd.Val() {
		pickup, destination, err := parseRouteField(field)
		if err != nil {
			return domain.RouteTableData{}, err
		}
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.RouteTableData{}, fmt.Errorf("invalid rate for route %s: %w", field, err)
		}
		data.Routes = append(data.Routes, domain.Route{
			PickupStationID:      pickup,
			DestinationStationID: destination,
			Rate:                 rate,
		})
	}

	if len(data.Stations) == 0 {
		return domain.RouteTableData{}, fmt.Errorf("no stations found under %s", s.stationsKey())
	}
	return data, nil
}

// Seed substitui o conteúdo dos dois hashes em uma única transação.
func (s *Storage) Seed(ctx context.Context, data domain.RouteTableData) error {
	stations := make(map[string]any, len(data.Stations))
	for _, station := range data.Stations {
		encoded, err := json.Marshal(station)
		if err != nil {
			return fmt.Errorf("encode station %d: %w", station.ID, err)
		}
		stations[strconv.FormatInt(station.ID, 10)] = string(encoded)
	}
	routes := make(map[string]any, len(data.Routes))
	for _, route := range data.Routes {
		routes[routeField(route.PickupStationID, route.DestinationStationID)] = strconv.FormatFloat(route.Rate, 'f', -1, 64)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.stationsKey(), s.routesKey())
	if len(stations) > 0 {
		pipe.HSet(ctx, s.stationsKey(), stations)
	}
	if len(routes) > 0 {
		pipe.HSet(ctx, s.routesKey(), routes)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write route table: %w", err)
	}
	return nil
}

func routeField(pickup, destination int64) string {
	return strconv.FormatInt(pickup, 10) + ":" + strconv.FormatInt(destination, 10)
}

func parseRouteField(field string) (int64, int64, error) {
	pickupRaw, destinationRaw, ok := strings.Cut(field, ":")
	if !ok {
		return 0, 0, fmt.Errorf("route field must follow PICKUP:DESTINATION: %s", field)
	}
	pickup, err := strconv.ParseInt(pickupRaw, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid pickup in route %s: %w", field, err)
	}
	destination, err := strconv.ParseInt(destinationRaw, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid destination in route %s: %w", field, err)
	}
	return pickup, destination, nil
}
