package domain

import (
	"fmt"
	"time"
)

type Urgency string

const (
	UrgencyLow      Urgency = "LOW"
	UrgencyMedium   Urgency = "MEDIUM"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyCritical Urgency = "CRITICAL"
)

func ParseUrgency(s string) (Urgency, error) {
	switch Urgency(s) {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return Urgency(s), nil
	}
	return "", &ValidationError{Field: "urgency", Reason: fmt.Sprintf("unknown urgency tier %q", s)}
}

type RequestStatus string

const (
	RequestOpen      RequestStatus = "OPEN"
	RequestMatched   RequestStatus = "MATCHED"
	RequestFulfilled RequestStatus = "FULFILLED"
	RequestCanceled  RequestStatus = "CANCELED"
	RequestExpired   RequestStatus = "EXPIRED"
)

// Terminal reports whether the status is final; terminal requests are
// immutable.
func (s RequestStatus) Terminal() bool {
	return s == RequestFulfilled || s == RequestCanceled || s == RequestExpired
}

// RequestTTL is the fixed offset between creation and expiry.
const RequestTTL = 24 * time.Hour

type EmergencyRequest struct {
	ID          string        `json:"id"`
	RequesterID string        `json:"requester_id"`
	Blood       BloodGroup    `json:"blood"`
	Urgency     Urgency       `json:"urgency"`
	UnitsNeeded int           `json:"units_needed"`
	Location    Coordinates   `json:"location"`
	RadiusKm    float64       `json:"radius_km"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	ExpiresAt   time.Time     `json:"expires_at"`
	MatchedAt   *time.Time    `json:"matched_at,omitempty"`
}

// StaleOpen reports whether the request is still marked OPEN but past
// its expiry deadline, i.e. due for reclassification as EXPIRED.
func (r *EmergencyRequest) StaleOpen(now time.Time) bool {
	return r.Status == RequestOpen && now.After(r.ExpiresAt)
}
