package outbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/uyirthuli/donor-match-service/internal/core/ports"
	"github.com/uyirthuli/donor-match-service/test/mocks"
)

func newTestRelay(publisher ports.AlertPublisher) *Relay {
	return NewRelay(nil, "", publisher, nil)
}

func TestDispatch_DonorAlert(t *testing.T) {
	publisher := mocks.NewMockAlertPublisher()
	relay := newTestRelay(publisher)

	payload, _ := json.Marshal(ports.DonorAlertEvent{
		MatchID:    "m1",
		RequestID:  "req-1",
		DonorID:    "d1",
		BloodGroup: "O+",
		Urgency:    "CRITICAL",
		DistanceKm: 3.2,
	})

	if err := relay.dispatch(context.Background(), "evt-1", ports.EventDonorAlert, payload); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	if len(publisher.DonorAlerts) != 1 {
		t.Fatalf("expected 1 donor alert, got %d", len(publisher.DonorAlerts))
	}
	alert := publisher.DonorAlerts[0]
	if alert.DonorID != "d1" || alert.RequestID != "req-1" {
		t.Errorf("published alert = %+v, want donor d1 on request req-1", alert)
	}
}

func TestDispatch_MatchAccepted(t *testing.T) {
	publisher := mocks.NewMockAlertPublisher()
	relay := newTestRelay(publisher)

	payload, _ := json.Marshal(ports.MatchAcceptedEvent{
		MatchID:     "m1",
		RequestID:   "req-1",
		DonorID:     "d1",
		RequesterID: "requester-1",
	})

	if err := relay.dispatch(context.Background(), "evt-1", ports.EventMatchAccepted, payload); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if len(publisher.AcceptedEvents) != 1 {
		t.Fatalf("expected 1 accepted event, got %d", len(publisher.AcceptedEvents))
	}
}

// Malformed and unknown events must be skipped, not returned as errors;
// an error would keep the row unprocessed and retried forever.
func TestDispatch_SkipsPoisonEvents(t *testing.T) {
	publisher := mocks.NewMockAlertPublisher()
	relay := newTestRelay(publisher)
	ctx := context.Background()

	if err := relay.dispatch(ctx, "evt-1", ports.EventDonorAlert, []byte("{not json")); err != nil {
		t.Errorf("malformed payload: got %v, want nil", err)
	}
	if err := relay.dispatch(ctx, "evt-2", "something.else", []byte("{}")); err != nil {
		t.Errorf("unknown event type: got %v, want nil", err)
	}
	if len(publisher.DonorAlerts) != 0 || len(publisher.AcceptedEvents) != 0 {
		t.Error("poison events must not reach the publisher")
	}
}

func TestDispatch_PropagatesPublisherError(t *testing.T) {
	publisher := mocks.NewMockAlertPublisher()
	publisher.PublishError = context.DeadlineExceeded
	relay := newTestRelay(publisher)

	payload, _ := json.Marshal(ports.DonorAlertEvent{MatchID: "m1"})
	if err := relay.dispatch(context.Background(), "evt-1", ports.EventDonorAlert, payload); err == nil {
		t.Error("publisher errors must propagate so the event is retried")
	}
}

func TestRelayHealth(t *testing.T) {
	relay := newTestRelay(mocks.NewMockAlertPublisher())

	if !relay.IsHealthy() {
		t.Error("new relay should report healthy")
	}
	if !relay.IsReady() {
		t.Error("new relay should report ready")
	}
}
