package domain_test

import (
	"testing"

	"github.com/uyirthuli/donor-match-service/internal/core/domain"
)

var allGroups = []domain.BloodGroup{
	{ABO: domain.ABOGroupO, Rh: domain.RhNegative},
	{ABO: domain.ABOGroupO, Rh: domain.RhPositive},
	{ABO: domain.ABOGroupA, Rh: domain.RhNegative},
	{ABO: domain.ABOGroupA, Rh: domain.RhPositive},
	{ABO: domain.ABOGroupB, Rh: domain.RhNegative},
	{ABO: domain.ABOGroupB, Rh: domain.RhPositive},
	{ABO: domain.ABOGroupAB, Rh: domain.RhNegative},
	{ABO: domain.ABOGroupAB, Rh: domain.RhPositive},
}

// canGiveTo is the canonical transfusion chart, donor -> allowed
// recipients. TestCompatible_FullChart checks every donor/recipient
// combination against it.
var canGiveTo = map[string][]string{
	"O-":  {"O-", "O+", "A-", "A+", "B-", "B+", "AB-", "AB+"},
	"O+":  {"O+", "A+", "B+", "AB+"},
	"A-":  {"A-", "A+", "AB-", "AB+"},
	"A+":  {"A+", "AB+"},
	"B-":  {"B-", "B+", "AB-", "AB+"},
	"B+":  {"B+", "AB+"},
	"AB-": {"AB-", "AB+"},
	"AB+": {"AB+"},
}

func TestCompatible_FullChart(t *testing.T) {
	for _, donor := range allGroups {
		allowed := make(map[string]bool)
		for _, recipient := range canGiveTo[donor.String()] {
			allowed[recipient] = true
		}

		for _, recipient := range allGroups {
			want := allowed[recipient.String()]
			got := domain.Compatible(recipient, donor)
			if got != want {
				t.Errorf("Compatible(recipient=%s, donor=%s) = %v, want %v",
					recipient, donor, got, want)
			}
		}
	}
}

func TestParseBloodGroup(t *testing.T) {
	tests := []struct {
		name    string
		abo     string
		rh      string
		want    string
		wantErr bool
	}{
		{name: "valid_o_negative", abo: "O", rh: "-", want: "O-"},
		{name: "valid_ab_positive", abo: "AB", rh: "+", want: "AB+"},
		{name: "invalid_abo", abo: "C", rh: "+", wantErr: true},
		{name: "invalid_rh", abo: "A", rh: "pos", wantErr: true},
		{name: "empty", abo: "", rh: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group, err := domain.ParseBloodGroup(tt.abo, tt.rh)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", group)
				}
				var validation *domain.ValidationError
				if !asValidation(err, &validation) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if group.String() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, group)
			}
		})
	}
}
