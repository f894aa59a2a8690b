package matching_test

import (
	"math"
	"testing"

	"github.com/uyirthuli/donor-match-service/internal/core/domain"
	"github.com/uyirthuli/donor-match-service/internal/core/matching"
	"github.com/uyirthuli/donor-match-service/test/mocks"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScore_NeutralDefaultsWithoutStats(t *testing.T) {
	// CRITICAL weights: distance 0.6, history 0.1, response 0.2,
	// availability 0.1. Donor at 2km of a 10km radius with no stats:
	// 1.0 + 0.8*0.6 + 1.0*0.1 + 0.5*0.1 + 0.5*0.2 = 1.73
	req := mocks.TestRequest("req-1", "requester-1", mocks.MustBlood("O", "+"), domain.UrgencyCritical, reqLat, reqLon, 10)
	donor := mocks.TestDonor("donor-1", mocks.MustBlood("O", "-"), reqLat, reqLon)

	got := matching.Score(&req, &donor, 2.0)
	if !almostEqual(got, 1.73) {
		t.Errorf("Score = %v, want 1.73", got)
	}
}

func TestScore_CanExceedOne(t *testing.T) {
	// The compatibility term contributes a fixed 1.0 on top of the
	// weighted terms, so every score is strictly above 1.0.
	for _, urgency := range []domain.Urgency{domain.UrgencyLow, domain.UrgencyMedium, domain.UrgencyHigh, domain.UrgencyCritical} {
		req := mocks.TestRequest("req-1", "requester-1", mocks.MustBlood("O", "+"), urgency, reqLat, reqLon, 10)
		donor := mocks.TestDonor("donor-1", mocks.MustBlood("O", "-"), reqLat, reqLon)
		if got := matching.Score(&req, &donor, 0); got <= 1.0 {
			t.Errorf("urgency %s: Score = %v, want > 1.0", urgency, got)
		}
	}
}

func TestScore_DistanceTermClampsAtRadius(t *testing.T) {
	req := mocks.TestRequest("req-1", "requester-1", mocks.MustBlood("O", "+"), domain.UrgencyMedium, reqLat, reqLon, 10)
	donor := mocks.TestDonor("donor-1", mocks.MustBlood("O", "-"), reqLat, reqLon)

	atRadius := matching.Score(&req, &donor, 10)
	beyond := matching.Score(&req, &donor, 15)
	if !almostEqual(atRadius, beyond) {
		t.Errorf("distance term should clamp at zero: %v vs %v", atRadius, beyond)
	}
}

func TestScore_HistorySaturatesAtTenDonations(t *testing.T) {
	req := mocks.TestRequest("req-1", "requester-1", mocks.MustBlood("O", "+"), domain.UrgencyLow, reqLat, reqLon, 10)

	ten := mocks.TestDonor("ten", mocks.MustBlood("O", "-"), reqLat, reqLon)
	ten.Stats = &domain.DonorStats{DonationCount: 10, ResponseRate: 0.5}
	fifty := mocks.TestDonor("fifty", mocks.MustBlood("O", "-"), reqLat, reqLon)
	fifty.Stats = &domain.DonorStats{DonationCount: 50, ResponseRate: 0.5}

	if a, b := matching.Score(&req, &ten, 1), matching.Score(&req, &fifty, 1); !almostEqual(a, b) {
		t.Errorf("history term should saturate at 10 donations: %v vs %v", a, b)
	}
}

func TestScore_UrgencyReweightsDistance(t *testing.T) {
	// A distant experienced donor outranks on LOW urgency but the gap
	// narrows on CRITICAL, where distance dominates history.
	donorNear := mocks.TestDonor("near", mocks.MustBlood("O", "-"), reqLat, reqLon)
	donorFar := mocks.TestDonor("far", mocks.MustBlood("O", "-"), reqLat, reqLon)
	donorFar.Stats = &domain.DonorStats{DonationCount: 10, ResponseRate: 1.0}

	low := mocks.TestRequest("req-low", "requester-1", mocks.MustBlood("O", "+"), domain.UrgencyLow, reqLat, reqLon, 10)
	critical := mocks.TestRequest("req-crit", "requester-1", mocks.MustBlood("O", "+"), domain.UrgencyCritical, reqLat, reqLon, 10)

	lowGap := matching.Score(&low, &donorFar, 9) - matching.Score(&low, &donorNear, 1)
	critGap := matching.Score(&critical, &donorFar, 9) - matching.Score(&critical, &donorNear, 1)

	if critGap >= lowGap {
		t.Errorf("critical urgency should punish distance harder: low gap %v, critical gap %v", lowGap, critGap)
	}
}

func TestWeightsFor_Table(t *testing.T) {
	tests := []struct {
		urgency domain.Urgency
		want    matching.Weights
	}{
		{domain.UrgencyLow, matching.Weights{Distance: 0.3, DonationHistory: 0.3, ResponseRate: 0.2, Availability: 0.2}},
		{domain.UrgencyMedium, matching.Weights{Distance: 0.4, DonationHistory: 0.3, ResponseRate: 0.2, Availability: 0.1}},
		{domain.UrgencyHigh, matching.Weights{Distance: 0.5, DonationHistory: 0.2, ResponseRate: 0.2, Availability: 0.1}},
		{domain.UrgencyCritical, matching.Weights{Distance: 0.6, DonationHistory: 0.1, ResponseRate: 0.2, Availability: 0.1}},
	}
	for _, tt := range tests {
		if got := matching.WeightsFor(tt.urgency); got != tt.want {
			t.Errorf("WeightsFor(%s) = %+v, want %+v", tt.urgency, got, tt.want)
		}
	}
}
