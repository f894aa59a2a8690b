package domain

import "time"

type MatchStatus string

const (
	MatchNotified MatchStatus = "NOTIFIED"
	MatchAccepted MatchStatus = "ACCEPTED"
	MatchDeclined MatchStatus = "DECLINED"
	MatchEnRoute  MatchStatus = "EN_ROUTE"
	MatchArrived  MatchStatus = "ARRIVED"
)

// matchTransitions is the closed set of legal match state changes.
// EN_ROUTE may be skipped; DECLINED and ARRIVED are terminal.
var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchNotified: {MatchAccepted, MatchDeclined},
	MatchAccepted: {MatchEnRoute, MatchArrived},
	MatchEnRoute:  {MatchArrived},
}

// CanTransition reports whether a match in status s may move to next.
func (s MatchStatus) CanTransition(next MatchStatus) bool {
	for _, allowed := range matchTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s MatchStatus) Terminal() bool {
	return s == MatchDeclined || s == MatchArrived
}

func ParseMatchStatus(s string) (MatchStatus, error) {
	switch MatchStatus(s) {
	case MatchNotified, MatchAccepted, MatchDeclined, MatchEnRoute, MatchArrived:
		return MatchStatus(s), nil
	}
	return "", &ValidationError{Field: "status", Reason: "unknown match status " + s}
}

// RequestMatch links one emergency request to one donor. Distance and
// score are snapshots taken at creation time and never recomputed as
// the donor moves.
type RequestMatch struct {
	ID          string      `json:"id"`
	RequestID   string      `json:"request_id"`
	DonorID     string      `json:"donor_id"`
	DistanceKm  float64     `json:"distance_km"`
	Score       float64     `json:"score"`
	Status      MatchStatus `json:"status"`
	NotifiedAt  time.Time   `json:"notified_at"`
	RespondedAt *time.Time  `json:"responded_at,omitempty"`
}
