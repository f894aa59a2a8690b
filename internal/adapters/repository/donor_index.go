package repository

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/uyirthuli/donor-match-service/internal/config"
	"github.com/uyirthuli/donor-match-service/internal/core/domain"
	"github.com/uyirthuli/donor-match-service/internal/core/ports"
)

// donorGeoKey is the Redis GEO sorted set holding donor locations.
const donorGeoKey = "donors:geo"

// RedisDonorIndex implements ports.DonorIndex on a Redis GEO set. All
// calls go through a circuit breaker; when Redis is degraded the
// matching service falls back to the bounding-box database query.
type RedisDonorIndex struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
}

var _ ports.DonorIndex = (*RedisDonorIndex)(nil)

func NewRedisDonorIndex(client *redis.Client) *RedisDonorIndex {
	return &RedisDonorIndex{
		client: client,
		cb:     config.NewCircuitBreaker("Redis-DonorIndex"),
	}
}

func (i *RedisDonorIndex) Upsert(ctx context.Context, donorID string, loc domain.Coordinates) error {
	_, err := i.cb.Execute(func() (interface{}, error) {
		return nil, i.client.GeoAdd(ctx, donorGeoKey, &redis.GeoLocation{
			Name:      donorID,
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
		}).Err()
	})
	return domain.Upstream("geo index upsert", err)
}

func (i *RedisDonorIndex) Remove(ctx context.Context, donorID string) error {
	_, err := i.cb.Execute(func() (interface{}, error) {
		return nil, i.client.ZRem(ctx, donorGeoKey, donorID).Err()
	})
	return domain.Upstream("geo index remove", err)
}

func (i *RedisDonorIndex) Near(ctx context.Context, center domain.Coordinates, radiusKm float64) ([]string, error) {
	ids, err := i.cb.Execute(func() (interface{}, error) {
		return i.client.GeoSearch(ctx, donorGeoKey, &redis.GeoSearchQuery{
			Latitude:   center.Latitude,
			Longitude:  center.Longitude,
			Radius:     radiusKm,
			RadiusUnit: "km",
		}).Result()
	})
	if err != nil {
		return nil, domain.Upstream("geo index search", err)
	}
	return ids.([]string), nil
}
