package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/uyirthuli/donor-match-service/internal/core/domain"
	"github.com/uyirthuli/donor-match-service/internal/core/geo"
	"github.com/uyirthuli/donor-match-service/internal/core/matching"
	"github.com/uyirthuli/donor-match-service/internal/core/ports"
	"github.com/uyirthuli/donor-match-service/internal/metrics"
)

// LifecycleService owns every state transition on requests and
// matches. All operations take the caller's identity explicitly; there
// is no ambient user lookup below the handler layer.
type LifecycleService struct {
	donors   ports.DonorRepository
	requests ports.RequestRepository
	metrics  *metrics.Metrics
	now      func() time.Time
}

var _ ports.LifecycleService = (*LifecycleService)(nil)

func NewLifecycleService(
	donors ports.DonorRepository,
	requests ports.RequestRepository,
	m *metrics.Metrics,
) *LifecycleService {
	return &LifecycleService{
		donors:   donors,
		requests: requests,
		metrics:  m,
		now:      time.Now,
	}
}

// Accept commits the calling donor to the request. The single-winner
// guarantee lives in the repository's atomic accept primitive; this
// layer validates the caller, prepares the fallback match snapshot for
// donors that respond without having been notified, and records stats.
func (s *LifecycleService) Accept(ctx context.Context, callerID, requestID string) (*domain.RequestMatch, error) {
	if callerID == "" {
		return nil, &domain.ValidationError{Field: "callerId", Reason: "caller identity is required"}
	}

	req, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RequesterID == callerID {
		return nil, &domain.ValidationError{Field: "callerId", Reason: "requester cannot accept their own request"}
	}

	donor, err := s.donors.GetDonor(ctx, callerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	fallback := s.walkInMatch(req, donor, now)

	match, err := s.requests.AcceptMatch(ctx, requestID, callerID, fallback, now)
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			s.metrics.AcceptConflicts.WithLabelValues(string(conflict.Reason)).Inc()
		}
		return nil, err
	}

	s.metrics.AcceptsWon.Inc()
	if err := s.donors.RecordResponse(ctx, callerID, true, now.Sub(match.NotifiedAt)); err != nil {
		log.Printf("lifecycle: failed to record accept response for donor %s: %v", callerID, err)
	}
	return match, nil
}

// Decline marks the donor's match DECLINED. The request stays open for
// the remaining candidates.
func (s *LifecycleService) Decline(ctx context.Context, callerID, requestID string) (*domain.RequestMatch, error) {
	if callerID == "" {
		return nil, &domain.ValidationError{Field: "callerId", Reason: "caller identity is required"}
	}

	req, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RequesterID == callerID {
		return nil, &domain.ValidationError{Field: "callerId", Reason: "requester cannot respond to their own request"}
	}

	donor, err := s.donors.GetDonor(ctx, callerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	fallback := s.walkInMatch(req, donor, now)

	match, err := s.requests.DeclineMatch(ctx, requestID, callerID, fallback, now)
	if err != nil {
		return nil, err
	}

	if err := s.donors.RecordResponse(ctx, callerID, false, now.Sub(match.NotifiedAt)); err != nil {
		log.Printf("lifecycle: failed to record decline response for donor %s: %v", callerID, err)
	}
	return match, nil
}

// Advance moves an accepted match along EN_ROUTE -> ARRIVED. Skipping
// EN_ROUTE is legal; accept and decline have their own operations and
// are rejected here.
func (s *LifecycleService) Advance(ctx context.Context, callerID, matchID string, next domain.MatchStatus) (*domain.RequestMatch, error) {
	if next != domain.MatchEnRoute && next != domain.MatchArrived {
		return nil, domain.NewConflict(domain.ConflictIllegalTransition,
			"matches can only advance to EN_ROUTE or ARRIVED")
	}

	match, err := s.requests.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.DonorID != callerID {
		return nil, &domain.ValidationError{Field: "callerId", Reason: "caller is not the donor on this match"}
	}
	if !match.Status.CanTransition(next) {
		return nil, domain.NewConflict(domain.ConflictIllegalTransition,
			"match cannot move from "+string(match.Status)+" to "+string(next))
	}

	if err := s.requests.AdvanceMatch(ctx, matchID, match.Status, next, s.now()); err != nil {
		return nil, err
	}

	match.Status = next
	return match, nil
}

// Fulfill is called by the donation-confirmation flow after the donor
// arrived: the request becomes FULFILLED and the committed donor's
// stats are credited.
func (s *LifecycleService) Fulfill(ctx context.Context, callerID, requestID string) error {
	req, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.RequesterID != callerID {
		return &domain.ValidationError{Field: "callerId", Reason: "only the requester can confirm fulfillment"}
	}

	if err := s.requests.MarkFulfilled(ctx, requestID); err != nil {
		return err
	}

	matches, err := s.requests.MatchesForRequest(ctx, requestID)
	if err != nil {
		log.Printf("lifecycle: failed to load matches for fulfilled request %s: %v", requestID, err)
		return nil
	}
	for _, m := range matches {
		if m.Status == domain.MatchAccepted || m.Status == domain.MatchEnRoute || m.Status == domain.MatchArrived {
			if err := s.donors.CreditFulfillment(ctx, m.DonorID); err != nil {
				log.Printf("lifecycle: failed to credit donor %s: %v", m.DonorID, err)
			}
		}
	}
	return nil
}

// Cancel is the requester withdrawing an OPEN request.
func (s *LifecycleService) Cancel(ctx context.Context, callerID, requestID string) error {
	req, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.RequesterID != callerID {
		return &domain.ValidationError{Field: "callerId", Reason: "only the requester can cancel a request"}
	}
	return s.requests.CancelRequest(ctx, requestID)
}

// GetRequest returns the request and its matches, lazily reclassifying
// a stale OPEN request as EXPIRED on the way out.
func (s *LifecycleService) GetRequest(ctx context.Context, requestID string) (*domain.EmergencyRequest, []domain.RequestMatch, error) {
	req, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}

	if req.StaleOpen(s.now()) {
		if _, err := s.ExpireStale(ctx, s.now()); err != nil {
			return nil, nil, err
		}
		req, err = s.requests.GetRequest(ctx, requestID)
		if err != nil {
			return nil, nil, err
		}
	}

	matches, err := s.requests.MatchesForRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	return req, matches, nil
}

// ExpireStale sweeps OPEN requests past their deadline. Safe to call
// repeatedly; a second sweep over the same request changes nothing.
func (s *LifecycleService) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.requests.ExpireStale(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.metrics.RequestsExpired.Add(float64(n))
		log.Printf("lifecycle: expired %d stale request(s)", n)
	}
	return n, nil
}

// walkInMatch builds the match snapshot used when a donor responds
// without having been pre-notified. Distance and score are computed
// from the donor's current shareable location, or left zero when there
// is none.
func (s *LifecycleService) walkInMatch(req *domain.EmergencyRequest, donor *domain.DonorProfile, now time.Time) *domain.RequestMatch {
	match := &domain.RequestMatch{
		ID:         uuid.NewString(),
		RequestID:  req.ID,
		DonorID:    donor.ID,
		Status:     domain.MatchNotified,
		NotifiedAt: now,
	}
	if loc := donor.KnownLocation(); loc != nil {
		match.DistanceKm = geo.DistanceKm(req.Location, *loc)
		match.Score = matching.Score(req, donor, match.DistanceKm)
	}
	return match
}
