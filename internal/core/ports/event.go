package ports

import (
	"context"
)

// Event types written to the outbox and relayed to the broker.
const (
	EventDonorAlert    = "donor.alert"
	EventMatchAccepted = "match.accepted"
)

// DonorAlertEvent tells the notification fan-out (push/SMS, external
// to this service) that a donor was matched to a request.
type DonorAlertEvent struct {
	MatchID    string  `json:"match_id"`
	RequestID  string  `json:"request_id"`
	DonorID    string  `json:"donor_id"`
	BloodGroup string  `json:"blood_group"`
	Urgency    string  `json:"urgency"`
	DistanceKm float64 `json:"distance_km"`
}

// MatchAcceptedEvent tells the requester's side that a donor committed
// to their request.
type MatchAcceptedEvent struct {
	MatchID     string `json:"match_id"`
	RequestID   string `json:"request_id"`
	DonorID     string `json:"donor_id"`
	RequesterID string `json:"requester_id"`
}

type AlertPublisher interface {
	PublishDonorAlert(ctx context.Context, evt DonorAlertEvent) error
	PublishMatchAccepted(ctx context.Context, evt MatchAcceptedEvent) error
}
