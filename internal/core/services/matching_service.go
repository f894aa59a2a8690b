package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/uyirthuli/donor-match-service/internal/core/domain"
	"github.com/uyirthuli/donor-match-service/internal/core/geo"
	"github.com/uyirthuli/donor-match-service/internal/core/matching"
	"github.com/uyirthuli/donor-match-service/internal/core/ports"
	"github.com/uyirthuli/donor-match-service/internal/metrics"
)

type MatchingService struct {
	donors   ports.DonorRepository
	requests ports.RequestRepository
	index    ports.DonorIndex
	metrics  *metrics.Metrics
	now      func() time.Time
}

var _ ports.MatchingService = (*MatchingService)(nil)

func NewMatchingService(
	donors ports.DonorRepository,
	requests ports.RequestRepository,
	index ports.DonorIndex,
	m *metrics.Metrics,
) *MatchingService {
	return &MatchingService{
		donors:   donors,
		requests: requests,
		index:    index,
		metrics:  m,
		now:      time.Now,
	}
}

const defaultRadiusKm = 10.0

func (s *MatchingService) MatchRequest(ctx context.Context, input ports.CreateRequestInput) (*domain.EmergencyRequest, []domain.RequestMatch, error) {
	req, err := s.buildRequest(input)
	if err != nil {
		return nil, nil, err
	}

	pool, err := s.candidatePool(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	ranked := matching.Rank(req, pool, input.MaxMatches)

	now := s.now()
	matches := make([]domain.RequestMatch, 0, len(ranked))
	events := make([]ports.OutboxEvent, 0, len(ranked))
	for _, c := range ranked {
		m := domain.RequestMatch{
			ID:         uuid.NewString(),
			RequestID:  req.ID,
			DonorID:    c.Donor.ID,
			DistanceKm: c.DistanceKm,
			Score:      c.Score,
			Status:     domain.MatchNotified,
			NotifiedAt: now,
		}
		matches = append(matches, m)

		payload, err := json.Marshal(ports.DonorAlertEvent{
			MatchID:    m.ID,
			RequestID:  req.ID,
			DonorID:    m.DonorID,
			BloodGroup: req.Blood.String(),
			Urgency:    string(req.Urgency),
			DistanceKm: m.DistanceKm,
		})
		if err != nil {
			return nil, nil, err
		}
		events = append(events, ports.OutboxEvent{
			ID:      uuid.NewString(),
			Type:    ports.EventDonorAlert,
			Payload: payload,
		})
	}

	if err := s.requests.CreateRequestWithMatches(ctx, req, matches, events); err != nil {
		return nil, nil, err
	}

	s.metrics.RequestsCreated.Inc()
	s.metrics.MatchesNotified.Add(float64(len(matches)))
	return req, matches, nil
}

func (s *MatchingService) buildRequest(input ports.CreateRequestInput) (*domain.EmergencyRequest, error) {
	if input.RequesterID == "" {
		return nil, &domain.ValidationError{Field: "requesterId", Reason: "caller identity is required"}
	}
	if input.Latitude == nil {
		return nil, &domain.ValidationError{Field: "latitude", Reason: "latitude is required"}
	}
	if input.Longitude == nil {
		return nil, &domain.ValidationError{Field: "longitude", Reason: "longitude is required"}
	}
	if input.BloodType == "" {
		return nil, &domain.ValidationError{Field: "bloodType", Reason: "blood type is required"}
	}
	if input.Urgency == "" {
		return nil, &domain.ValidationError{Field: "urgency", Reason: "urgency is required"}
	}

	blood, err := domain.ParseBloodGroup(input.BloodType, input.Rh)
	if err != nil {
		return nil, err
	}
	urgency, err := domain.ParseUrgency(input.Urgency)
	if err != nil {
		return nil, err
	}

	units := input.UnitsNeeded
	if units <= 0 {
		units = 1
	}
	radius := input.RadiusKm
	if radius <= 0 {
		radius = defaultRadiusKm
	}

	now := s.now()
	return &domain.EmergencyRequest{
		ID:          uuid.NewString(),
		RequesterID: input.RequesterID,
		Blood:       blood,
		Urgency:     urgency,
		UnitsNeeded: units,
		Location:    domain.Coordinates{Latitude: *input.Latitude, Longitude: *input.Longitude},
		RadiusKm:    radius,
		Status:      domain.RequestOpen,
		CreatedAt:   now,
		ExpiresAt:   now.Add(domain.RequestTTL),
	}, nil
}

// candidatePool pulls nearby donors from the geo index and hydrates
// their profiles. When the index is down it falls back to a
// bounding-box database query; both paths over-approximate and rely on
// the exact distance filter downstream.
func (s *MatchingService) candidatePool(ctx context.Context, req *domain.EmergencyRequest) ([]domain.DonorProfile, error) {
	ids, err := s.index.Near(ctx, req.Location, req.RadiusKm)
	if err == nil {
		return s.donors.DonorsByID(ctx, ids)
	}

	log.Printf("matching: geo index unavailable, falling back to bounding-box query: %v", err)
	s.metrics.PoolFallbacks.Inc()

	pool, err := s.donors.DonorsWithin(ctx, geo.BoundsAround(req.Location, req.RadiusKm))
	if err != nil {
		return nil, err
	}
	return pool, nil
}
