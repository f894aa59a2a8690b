package domain

import "fmt"

type ABOGroup string

const (
	ABOGroupA  ABOGroup = "A"
	ABOGroupB  ABOGroup = "B"
	ABOGroupAB ABOGroup = "AB"
	ABOGroupO  ABOGroup = "O"
)

type RhFactor string

const (
	RhPositive RhFactor = "+"
	RhNegative RhFactor = "-"
)

// BloodGroup combines the two classification axes that govern
// transfusion compatibility.
type BloodGroup struct {
	ABO ABOGroup `json:"abo"`
	Rh  RhFactor `json:"rh"`
}

func (b BloodGroup) String() string {
	return string(b.ABO) + string(b.Rh)
}

func ParseBloodGroup(abo, rh string) (BloodGroup, error) {
	var group BloodGroup
	switch ABOGroup(abo) {
	case ABOGroupA, ABOGroupB, ABOGroupAB, ABOGroupO:
		group.ABO = ABOGroup(abo)
	default:
		return BloodGroup{}, &ValidationError{Field: "bloodType", Reason: fmt.Sprintf("unknown ABO group %q", abo)}
	}
	switch RhFactor(rh) {
	case RhPositive, RhNegative:
		group.Rh = RhFactor(rh)
	default:
		return BloodGroup{}, &ValidationError{Field: "rh", Reason: fmt.Sprintf("unknown Rh factor %q", rh)}
	}
	return group, nil
}

// Compatible reports whether blood from the donor group can be
// transfused to a recipient of the given group. ABO follows the
// standard subset rule (O is the universal donor, AB the universal
// recipient); Rh-negative blood goes to anyone, Rh-positive blood
// only to Rh-positive recipients.
func Compatible(recipient, donor BloodGroup) bool {
	return aboCompatible(recipient.ABO, donor.ABO) &&
		(donor.Rh == RhNegative || recipient.Rh == RhPositive)
}

func aboCompatible(recipient, donor ABOGroup) bool {
	switch donor {
	case ABOGroupO:
		return true
	case ABOGroupA:
		return recipient == ABOGroupA || recipient == ABOGroupAB
	case ABOGroupB:
		return recipient == ABOGroupB || recipient == ABOGroupAB
	case ABOGroupAB:
		return recipient == ABOGroupAB
	}
	return false
}
