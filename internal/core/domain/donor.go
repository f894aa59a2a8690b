package domain

import "time"

type Availability string

const (
	Available   Availability = "AVAILABLE"
	Unavailable Availability = "UNAVAILABLE"
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ConsentFlags replaces the free-form consent notes the mobile client
// used to send with named fields.
type ConsentFlags struct {
	ContactConsent bool `json:"contact_consent"`
	EmergencyOnly  bool `json:"emergency_only"`
	ShareLocation  bool `json:"share_location"`
}

// DonorStats is maintained by the lifecycle manager: fulfillment
// credits the donation count, accept/decline responses move the
// response rate. A donor without a stats row scores with neutral
// defaults.
type DonorStats struct {
	DonationCount      int     `json:"donation_count"`
	ResponseRate       float64 `json:"response_rate"`
	AvgResponseMinutes float64 `json:"avg_response_minutes"`
}

type DonorProfile struct {
	ID           string       `json:"id"`
	FullName     string       `json:"full_name"`
	Blood        BloodGroup   `json:"blood"`
	Availability Availability `json:"availability"`
	Location     *Coordinates `json:"location,omitempty"`
	Consent      ConsentFlags `json:"consent"`
	Stats        *DonorStats  `json:"stats,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// KnownLocation returns the donor's coordinates only when they exist
// and the donor consents to sharing them.
func (d *DonorProfile) KnownLocation() *Coordinates {
	if d.Location == nil || !d.Consent.ShareLocation {
		return nil
	}
	return d.Location
}
