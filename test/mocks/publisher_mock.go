package mocks

import (
	"context"
	"sync"

	"github.com/uyirthuli/donor-match-service/internal/core/ports"
)

// MockAlertPublisher implements ports.AlertPublisher for testing.
type MockAlertPublisher struct {
	mu sync.Mutex

	DonorAlerts    []ports.DonorAlertEvent
	AcceptedEvents []ports.MatchAcceptedEvent

	PublishError error
}

var _ ports.AlertPublisher = (*MockAlertPublisher)(nil)

func NewMockAlertPublisher() *MockAlertPublisher {
	return &MockAlertPublisher{}
}

func (m *MockAlertPublisher) PublishDonorAlert(ctx context.Context, evt ports.DonorAlertEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishError != nil {
		return m.PublishError
	}
	m.DonorAlerts = append(m.DonorAlerts, evt)
	return nil
}

func (m *MockAlertPublisher) PublishMatchAccepted(ctx context.Context, evt ports.MatchAcceptedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishError != nil {
		return m.PublishError
	}
	m.AcceptedEvents = append(m.AcceptedEvents, evt)
	return nil
}
