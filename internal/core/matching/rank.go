package matching

import (
	"sort"

	"github.com/uyirthuli/donor-match-service/internal/core/domain"
)

// DefaultMaxMatches caps the match list when the caller does not ask
// for a specific size.
const DefaultMaxMatches = 10

// RankedCandidate is a filtered candidate with its computed score.
type RankedCandidate struct {
	Candidate
	Score float64
}

// Rank runs the full pipeline: filter the pool, score each survivor,
// sort descending by score (ties broken by ascending distance, then
// donor id for stability) and truncate to maxMatches. An empty result
// is a valid outcome, not an error.
func Rank(req *domain.EmergencyRequest, pool []domain.DonorProfile, maxMatches int) []RankedCandidate {
	if maxMatches <= 0 {
		maxMatches = DefaultMaxMatches
	}

	candidates := Filter(req, pool)
	ranked := make([]RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, RankedCandidate{
			Candidate: c,
			Score:     Score(req, &c.Donor, c.DistanceKm),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].Donor.ID < ranked[j].Donor.ID
	})

	if len(ranked) > maxMatches {
		ranked = ranked[:maxMatches]
	}
	return ranked
}
