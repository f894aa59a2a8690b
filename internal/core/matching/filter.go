// Package matching implements the donor-matching pipeline: candidate
// filtering, urgency-weighted scoring and ranking. Everything here is
// pure compute over in-memory values; persistence stays in the
// adapters.
package matching

import (
	"github.com/uyirthuli/donor-match-service/internal/core/domain"
	"github.com/uyirthuli/donor-match-service/internal/core/geo"
)

// Candidate is a donor that survived filtering, paired with the exact
// distance to the request.
type Candidate struct {
	Donor      domain.DonorProfile
	DistanceKm float64
}

// Filter retains donors that are blood-compatible with the request,
// marked available, have a shareable location and sit within the
// request's search radius. The requester themselves never qualifies.
func Filter(req *domain.EmergencyRequest, pool []domain.DonorProfile) []Candidate {
	candidates := make([]Candidate, 0, len(pool))
	for _, donor := range pool {
		if donor.ID == req.RequesterID {
			continue
		}
		if donor.Availability != domain.Available {
			continue
		}
		if !domain.Compatible(req.Blood, donor.Blood) {
			continue
		}
		if donor.Consent.EmergencyOnly && req.Urgency == domain.UrgencyLow {
			continue
		}
		loc := donor.KnownLocation()
		if loc == nil {
			continue
		}
		dist := geo.DistanceKm(req.Location, *loc)
		if dist > req.RadiusKm {
			continue
		}
		candidates = append(candidates, Candidate{Donor: donor, DistanceKm: dist})
	}
	return candidates
}
