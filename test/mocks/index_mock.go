package mocks

import (
	"context"
	"sync"

	"github.com/uyirthuli/donor-match-service/internal/core/domain"
	"github.com/uyirthuli/donor-match-service/internal/core/geo"
	"github.com/uyirthuli/donor-match-service/internal/core/ports"
)

// MockDonorIndex implements ports.DonorIndex with an in-memory map and
// exact haversine lookups.
type MockDonorIndex struct {
	mu        sync.Mutex
	locations map[string]domain.Coordinates

	UpsertCalls []string
	RemoveCalls []string

	UpsertError error
	RemoveError error
	NearError   error
}

var _ ports.DonorIndex = (*MockDonorIndex)(nil)

func NewMockDonorIndex() *MockDonorIndex {
	return &MockDonorIndex{locations: make(map[string]domain.Coordinates)}
}

func (m *MockDonorIndex) Seed(donorID string, loc domain.Coordinates) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[donorID] = loc
}

func (m *MockDonorIndex) Upsert(ctx context.Context, donorID string, loc domain.Coordinates) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls = append(m.UpsertCalls, donorID)
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.locations[donorID] = loc
	return nil
}

func (m *MockDonorIndex) Remove(ctx context.Context, donorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoveCalls = append(m.RemoveCalls, donorID)
	if m.RemoveError != nil {
		return m.RemoveError
	}
	delete(m.locations, donorID)
	return nil
}

func (m *MockDonorIndex) Near(ctx context.Context, center domain.Coordinates, radiusKm float64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.NearError != nil {
		return nil, m.NearError
	}
	var ids []string
	for id, loc := range m.locations {
		if geo.DistanceKm(center, loc) <= radiusKm {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
