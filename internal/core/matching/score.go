package matching

import "github.com/uyirthuli/donor-match-service/internal/core/domain"

// Weights reweight the scoring terms per urgency tier. The
// compatibility term always contributes its full 1.0 on top, so
// totals can slightly exceed 1.0; ranking relies on that behavior.
type Weights struct {
	Distance        float64
	DonationHistory float64
	ResponseRate    float64
	Availability    float64
}

var urgencyWeights = map[domain.Urgency]Weights{
	domain.UrgencyLow:      {Distance: 0.3, DonationHistory: 0.3, ResponseRate: 0.2, Availability: 0.2},
	domain.UrgencyMedium:   {Distance: 0.4, DonationHistory: 0.3, ResponseRate: 0.2, Availability: 0.1},
	domain.UrgencyHigh:     {Distance: 0.5, DonationHistory: 0.2, ResponseRate: 0.2, Availability: 0.1},
	domain.UrgencyCritical: {Distance: 0.6, DonationHistory: 0.1, ResponseRate: 0.2, Availability: 0.1},
}

// WeightsFor returns the weight set for the urgency tier. Higher
// urgency weights distance more and donor history less: speed
// dominates donor "quality" in critical cases.
func WeightsFor(u domain.Urgency) Weights {
	if w, ok := urgencyWeights[u]; ok {
		return w
	}
	return urgencyWeights[domain.UrgencyMedium]
}

const (
	// neutralStat substitutes for donation history and response rate
	// when a donor has no stats row yet.
	neutralStat = 0.5

	// historySaturation is the donation count at which the history
	// term maxes out.
	historySaturation = 10.0
)

// Score computes the composite suitability score for a donor that has
// already passed filtering (so the compatibility and availability
// terms are both fixed at 1.0).
func Score(req *domain.EmergencyRequest, donor *domain.DonorProfile, distanceKm float64) float64 {
	w := WeightsFor(req.Urgency)

	distanceScore := 0.0
	if req.RadiusKm > 0 {
		distanceScore = 1 - distanceKm/req.RadiusKm
		if distanceScore < 0 {
			distanceScore = 0
		}
	}

	history := neutralStat
	responseRate := neutralStat
	if donor.Stats != nil {
		history = float64(donor.Stats.DonationCount) / historySaturation
		if history > 1 {
			history = 1
		}
		responseRate = donor.Stats.ResponseRate
	}

	const compatibility = 1.0
	const availability = 1.0

	return compatibility +
		distanceScore*w.Distance +
		availability*w.Availability +
		history*w.DonationHistory +
		responseRate*w.ResponseRate
}
