// Package mocks provides in-memory implementations of the persistence
// and messaging ports for testing. The store mirrors the transactional
// semantics of the SQL repository under a mutex, including the
// single-winner accept, so concurrency properties can be exercised
// without a database.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/uyirthuli/donor-match-service/internal/core/domain"
	"github.com/uyirthuli/donor-match-service/internal/core/geo"
	"github.com/uyirthuli/donor-match-service/internal/core/ports"
)

type AcceptCall struct {
	RequestID string
	DonorID   string
}

type ResponseCall struct {
	DonorID  string
	Accepted bool
}

type MockStore struct {
	mu sync.Mutex

	donors   map[string]*domain.DonorProfile
	requests map[string]*domain.EmergencyRequest
	matches  map[string]*domain.RequestMatch
	Events   []ports.OutboxEvent

	// Call tracking for verification
	AcceptCalls    []AcceptCall
	ResponseCalls  []ResponseCall
	CreditedDonors []string

	// Error injection for testing error scenarios
	GetDonorError       error
	DonorsByIDError     error
	DonorsWithinError   error
	CreateRequestError  error
	AcceptMatchError    error
	DeclineMatchError   error
	AdvanceMatchError   error
	ExpireStaleError    error
	RecordResponseError error
}

// Ensure MockStore implements both persistence ports at compile time.
var (
	_ ports.DonorRepository   = (*MockStore)(nil)
	_ ports.RequestRepository = (*MockStore)(nil)
)

func NewMockStore() *MockStore {
	return &MockStore{
		donors:   make(map[string]*domain.DonorProfile),
		requests: make(map[string]*domain.EmergencyRequest),
		matches:  make(map[string]*domain.RequestMatch),
	}
}

func (m *MockStore) SeedDonor(donor domain.DonorProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.donors[donor.ID] = &donor
}

func (m *MockStore) SeedRequest(req domain.EmergencyRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = &req
}

func (m *MockStore) SeedMatch(match domain.RequestMatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches[match.ID] = &match
}

// Request returns a copy of the stored request for assertions.
func (m *MockStore) Request(id string) (domain.EmergencyRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return domain.EmergencyRequest{}, false
	}
	return *req, true
}

func (m *MockStore) matchFor(requestID, donorID string) *domain.RequestMatch {
	for _, match := range m.matches {
		if match.RequestID == requestID && match.DonorID == donorID {
			return match
		}
	}
	return nil
}

func (m *MockStore) GetDonor(ctx context.Context, donorID string) (*domain.DonorProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetDonorError != nil {
		return nil, m.GetDonorError
	}
	donor, ok := m.donors[donorID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *donor
	return &copied, nil
}

func (m *MockStore) DonorsByID(ctx context.Context, donorIDs []string) ([]domain.DonorProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DonorsByIDError != nil {
		return nil, m.DonorsByIDError
	}
	var donors []domain.DonorProfile
	for _, id := range donorIDs {
		if donor, ok := m.donors[id]; ok {
			donors = append(donors, *donor)
		}
	}
	return donors, nil
}

func (m *MockStore) DonorsWithin(ctx context.Context, box geo.BoundingBox) ([]domain.DonorProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DonorsWithinError != nil {
		return nil, m.DonorsWithinError
	}
	var donors []domain.DonorProfile
	for _, donor := range m.donors {
		if donor.Location == nil || donor.Availability != domain.Available {
			continue
		}
		if donor.Location.Latitude < box.MinLat || donor.Location.Latitude > box.MaxLat {
			continue
		}
		if donor.Location.Longitude < box.MinLon || donor.Location.Longitude > box.MaxLon {
			continue
		}
		donors = append(donors, *donor)
	}
	return donors, nil
}

func (m *MockStore) UpdateLocation(ctx context.Context, donorID string, loc domain.Coordinates) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	donor, ok := m.donors[donorID]
	if !ok {
		return domain.ErrNotFound
	}
	donor.Location = &loc
	return nil
}

func (m *MockStore) UpdateAvailability(ctx context.Context, donorID string, availability domain.Availability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	donor, ok := m.donors[donorID]
	if !ok {
		return domain.ErrNotFound
	}
	donor.Availability = availability
	return nil
}

func (m *MockStore) RecordResponse(ctx context.Context, donorID string, accepted bool, respondedIn time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResponseCalls = append(m.ResponseCalls, ResponseCall{DonorID: donorID, Accepted: accepted})
	if m.RecordResponseError != nil {
		return m.RecordResponseError
	}
	return nil
}

func (m *MockStore) CreditFulfillment(ctx context.Context, donorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreditedDonors = append(m.CreditedDonors, donorID)
	if donor, ok := m.donors[donorID]; ok {
		if donor.Stats == nil {
			donor.Stats = &domain.DonorStats{ResponseRate: 0.5}
		}
		donor.Stats.DonationCount++
	}
	return nil
}

func (m *MockStore) CreateRequestWithMatches(ctx context.Context, req *domain.EmergencyRequest, matches []domain.RequestMatch, events []ports.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateRequestError != nil {
		return m.CreateRequestError
	}
	stored := *req
	m.requests[req.ID] = &stored
	for _, match := range matches {
		copied := match
		m.matches[match.ID] = &copied
	}
	m.Events = append(m.Events, events...)
	return nil
}

func (m *MockStore) GetRequest(ctx context.Context, requestID string) (*domain.EmergencyRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[requestID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *req
	return &copied, nil
}

func (m *MockStore) MatchesForRequest(ctx context.Context, requestID string) ([]domain.RequestMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matches []domain.RequestMatch
	for _, match := range m.matches {
		if match.RequestID == requestID {
			matches = append(matches, *match)
		}
	}
	return matches, nil
}

func (m *MockStore) GetMatch(ctx context.Context, matchID string) (*domain.RequestMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[matchID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *match
	return &copied, nil
}

// AcceptMatch reproduces the SQL repository's accept transaction under
// the store mutex: prior-response check, conditional OPEN claim with
// conflict classification, then the match upsert.
func (m *MockStore) AcceptMatch(ctx context.Context, requestID, donorID string, fallback *domain.RequestMatch, now time.Time) (*domain.RequestMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AcceptCalls = append(m.AcceptCalls, AcceptCall{RequestID: requestID, DonorID: donorID})
	if m.AcceptMatchError != nil {
		return nil, m.AcceptMatchError
	}

	req, ok := m.requests[requestID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	existing := m.matchFor(requestID, donorID)
	if existing != nil && existing.Status != domain.MatchNotified {
		return nil, domain.NewConflict(domain.ConflictAlreadyResponded,
			"you have already responded to this request")
	}

	if req.StaleOpen(now) {
		req.Status = domain.RequestExpired
		return nil, domain.NewConflict(domain.ConflictRequestClosed, "this request has expired")
	}
	switch req.Status {
	case domain.RequestOpen:
		// claim succeeds below
	case domain.RequestMatched, domain.RequestFulfilled:
		return nil, domain.NewConflict(domain.ConflictAlreadyMatched,
			"this request has already been matched")
	default:
		return nil, domain.NewConflict(domain.ConflictRequestClosed,
			"this request is no longer open")
	}

	req.Status = domain.RequestMatched
	req.MatchedAt = &now

	match := existing
	if match == nil {
		copied := *fallback
		match = &copied
		m.matches[match.ID] = match
	}
	match.Status = domain.MatchAccepted
	match.RespondedAt = &now

	result := *match
	return &result, nil
}

func (m *MockStore) DeclineMatch(ctx context.Context, requestID, donorID string, fallback *domain.RequestMatch, now time.Time) (*domain.RequestMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeclineMatchError != nil {
		return nil, m.DeclineMatchError
	}

	req, ok := m.requests[requestID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	match := m.matchFor(requestID, donorID)
	if match != nil && match.Status != domain.MatchNotified {
		return nil, domain.NewConflict(domain.ConflictAlreadyResponded,
			"you have already responded to this request")
	}
	if match == nil {
		open := req.Status == domain.RequestOpen && now.Before(req.ExpiresAt)
		if !open && req.Status != domain.RequestMatched {
			return nil, domain.NewConflict(domain.ConflictRequestClosed,
				"this request is no longer open")
		}
		copied := *fallback
		match = &copied
		m.matches[match.ID] = match
	}
	match.Status = domain.MatchDeclined
	match.RespondedAt = &now

	result := *match
	return &result, nil
}

func (m *MockStore) AdvanceMatch(ctx context.Context, matchID string, from, to domain.MatchStatus, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AdvanceMatchError != nil {
		return m.AdvanceMatchError
	}

	match, ok := m.matches[matchID]
	if !ok {
		return domain.ErrNotFound
	}
	if match.Status != from {
		return domain.NewConflict(domain.ConflictIllegalTransition,
			"match cannot move from "+string(match.Status)+" to "+string(to))
	}
	match.Status = to
	return nil
}

func (m *MockStore) MarkFulfilled(ctx context.Context, requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[requestID]
	if !ok {
		return domain.ErrNotFound
	}
	switch req.Status {
	case domain.RequestMatched:
		req.Status = domain.RequestFulfilled
		return nil
	case domain.RequestFulfilled:
		return nil
	case domain.RequestOpen:
		return domain.NewConflict(domain.ConflictIllegalTransition,
			"request has no committed donor")
	default:
		return domain.NewConflict(domain.ConflictRequestClosed,
			"this request is no longer open")
	}
}

func (m *MockStore) CancelRequest(ctx context.Context, requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[requestID]
	if !ok {
		return domain.ErrNotFound
	}
	switch req.Status {
	case domain.RequestOpen:
		req.Status = domain.RequestCanceled
		return nil
	case domain.RequestCanceled:
		return nil
	case domain.RequestMatched:
		return domain.NewConflict(domain.ConflictAlreadyMatched,
			"this request has already been matched")
	default:
		return domain.NewConflict(domain.ConflictRequestClosed,
			"this request is no longer open")
	}
}

func (m *MockStore) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ExpireStaleError != nil {
		return 0, m.ExpireStaleError
	}
	var n int64
	for _, req := range m.requests {
		if req.StaleOpen(now) {
			req.Status = domain.RequestExpired
			n++
		}
	}
	return n, nil
}
