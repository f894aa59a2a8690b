package ports

import (
	"context"
	"time"

	"github.com/uyirthuli/donor-match-service/internal/core/domain"
	"github.com/uyirthuli/donor-match-service/internal/core/geo"
)

// OutboxEvent is a pending notification row written in the same
// transaction as the state change that caused it.
type OutboxEvent struct {
	ID      string
	Type    string
	Payload []byte
}

type DonorRepository interface {
	GetDonor(ctx context.Context, donorID string) (*domain.DonorProfile, error)
	// DonorsByID hydrates profiles for ids returned by the geo index;
	// unknown ids are skipped, not errors.
	DonorsByID(ctx context.Context, donorIDs []string) ([]domain.DonorProfile, error)
	// DonorsWithin is the bounding-box fallback pool query used when
	// the geo index is unavailable. False positives are expected and
	// removed by the exact distance filter.
	DonorsWithin(ctx context.Context, box geo.BoundingBox) ([]domain.DonorProfile, error)
	UpdateLocation(ctx context.Context, donorID string, loc domain.Coordinates) error
	UpdateAvailability(ctx context.Context, donorID string, availability domain.Availability) error
	// RecordResponse moves the donor's response rate toward 1 on
	// accept and toward 0 on decline.
	RecordResponse(ctx context.Context, donorID string, accepted bool, respondedIn time.Duration) error
	// CreditFulfillment increments the donor's donation count after a
	// confirmed donation.
	CreditFulfillment(ctx context.Context, donorID string) error
}

type RequestRepository interface {
	// CreateRequestWithMatches persists the request, its NOTIFIED
	// matches and the donor-alert outbox rows in one transaction.
	CreateRequestWithMatches(ctx context.Context, req *domain.EmergencyRequest, matches []domain.RequestMatch, events []OutboxEvent) error
	GetRequest(ctx context.Context, requestID string) (*domain.EmergencyRequest, error)
	MatchesForRequest(ctx context.Context, requestID string) ([]domain.RequestMatch, error)
	GetMatch(ctx context.Context, matchID string) (*domain.RequestMatch, error)

	// AcceptMatch is the single atomic accept primitive: within one
	// transaction it conditionally moves the request OPEN->MATCHED and
	// the caller's match to ACCEPTED (inserting fallback when the
	// donor responded without having been notified). Exactly one
	// concurrent caller succeeds; losers get a ConflictError whose
	// reason distinguishes already_matched, already_responded and
	// request_closed.
	AcceptMatch(ctx context.Context, requestID, donorID string, fallback *domain.RequestMatch, now time.Time) (*domain.RequestMatch, error)

	// DeclineMatch marks the donor's match DECLINED without touching
	// the request status, inserting the row if the donor was never
	// notified.
	DeclineMatch(ctx context.Context, requestID, donorID string, fallback *domain.RequestMatch, now time.Time) (*domain.RequestMatch, error)

	// AdvanceMatch conditionally moves a match from one status to
	// another; zero rows affected means the match changed underneath
	// the caller and surfaces as an illegal-transition conflict.
	AdvanceMatch(ctx context.Context, matchID string, from, to domain.MatchStatus, now time.Time) error

	// MarkFulfilled moves a MATCHED request to FULFILLED.
	MarkFulfilled(ctx context.Context, requestID string) error

	// CancelRequest moves an OPEN request to CANCELED.
	CancelRequest(ctx context.Context, requestID string) error

	// ExpireStale reclassifies OPEN requests past their deadline as
	// EXPIRED and returns how many rows changed. Idempotent.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}
