package mocks

import (
	"time"

	"github.com/uyirthuli/donor-match-service/internal/core/domain"
)

// TestDonor builds an available donor with full consent at the given
// coordinates.
func TestDonor(id string, blood domain.BloodGroup, lat, lon float64) domain.DonorProfile {
	return domain.DonorProfile{
		ID:           id,
		FullName:     "Donor " + id,
		Blood:        blood,
		Availability: domain.Available,
		Location:     &domain.Coordinates{Latitude: lat, Longitude: lon},
		Consent: domain.ConsentFlags{
			ContactConsent: true,
			ShareLocation:  true,
		},
		CreatedAt: time.Now(),
	}
}

// TestRequest builds an OPEN request expiring 24h out.
func TestRequest(id, requesterID string, blood domain.BloodGroup, urgency domain.Urgency, lat, lon, radiusKm float64) domain.EmergencyRequest {
	now := time.Now()
	return domain.EmergencyRequest{
		ID:          id,
		RequesterID: requesterID,
		Blood:       blood,
		Urgency:     urgency,
		UnitsNeeded: 1,
		Location:    domain.Coordinates{Latitude: lat, Longitude: lon},
		RadiusKm:    radiusKm,
		Status:      domain.RequestOpen,
		CreatedAt:   now,
		ExpiresAt:   now.Add(domain.RequestTTL),
	}
}

func MustBlood(abo, rh string) domain.BloodGroup {
	group, err := domain.ParseBloodGroup(abo, rh)
	if err != nil {
		panic(err)
	}
	return group
}
