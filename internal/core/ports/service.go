package ports

import (
	"context"
	"time"

	"github.com/uyirthuli/donor-match-service/internal/core/domain"
)

// CreateRequestInput carries the raw fields of a request-creation
// call. Validation happens in the matching service so every transport
// shares the same rules.
type CreateRequestInput struct {
	RequesterID string
	BloodType   string
	Rh          string
	Urgency     string
	UnitsNeeded int
	Latitude    *float64
	Longitude   *float64
	RadiusKm    float64
	MaxMatches  int
}

type MatchingService interface {
	// MatchRequest creates the request, ranks the candidate pool and
	// persists the top candidates as NOTIFIED matches. An empty match
	// list is a valid outcome.
	MatchRequest(ctx context.Context, input CreateRequestInput) (*domain.EmergencyRequest, []domain.RequestMatch, error)
}

type LifecycleService interface {
	Accept(ctx context.Context, callerID, requestID string) (*domain.RequestMatch, error)
	Decline(ctx context.Context, callerID, requestID string) (*domain.RequestMatch, error)
	Advance(ctx context.Context, callerID, matchID string, next domain.MatchStatus) (*domain.RequestMatch, error)
	Fulfill(ctx context.Context, callerID, requestID string) error
	Cancel(ctx context.Context, callerID, requestID string) error
	GetRequest(ctx context.Context, requestID string) (*domain.EmergencyRequest, []domain.RequestMatch, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

type DonorService interface {
	UpdateLocation(ctx context.Context, donorID string, loc domain.Coordinates) error
	UpdateAvailability(ctx context.Context, donorID string, availability domain.Availability) error
}
