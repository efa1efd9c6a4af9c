// Package eligibility turns a donor's recorded answers into a donation
// verdict. It has no I/O and no dependency on how answers are collected.
package eligibility

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	StatusEligible    = "Eligible"
	StatusNotEligible = "Not Eligible"
)

const (
	ReasonUnderAge        = "Donor must be at least 18 years old."
	ReasonOverAge         = "The maximum age is 65 years for blood donation."
	ReasonUnderWeight     = "Weight is below the minimum weight 50 kg."
	ReasonDiabetes        = "Donors with diabetes are not eligible to donate blood."
	ReasonAnemia          = "Donors with anemia are not eligible to donate blood."
	ReasonInfectious      = "Donors with an infectious disease are not eligible to donate blood."
	ReasonPregnant        = "Pregnant donors are not eligible to donate blood."
	ReasonBreastfeeding   = "Breastfeeding donors are not eligible to donate blood."
	ReasonTattoo          = "After a tattoo or piercing you must wait 6 months before donating."
	ReasonSurgery         = "After recent surgery you must wait 6 months before donating."
	ReasonCovid           = "After COVID-19 you must wait 28 days post-recovery before donating."
	ReasonMedications     = "You are taking medications. Please confirm with the blood bank staff that they do not affect donation."
	ReasonAppearsEligible = "You appear eligible to donate blood. Final screening happens at the donation center."
)

const (
	minAge              = 18
	maxAge              = 65
	minWeightKg         = 50.0
	minHemoglobinFemale = 12.5
	minHemoglobinOther  = 13.5
)

// Facts is the subset of a health profile the rules read. Flags are
// tri-state: nil means the question was never answered.
type Facts struct {
	Age                  *int
	Weight               *float64
	Gender               string
	HemoglobinLevel      string
	HasDiabetes          *bool
	HasAnemia            *bool
	HadCovid             *bool
	TakingMedications    *bool
	HasInfectiousDisease *bool
	HasTattooOrPiercing  *bool
	IsPregnant           *bool
	IsBreastfeeding      *bool
	HadRecentSurgery     *bool
}

// Result is the verdict. Reasons keep rule order.
type Result struct {
	Eligible bool
	Reasons  []string
}

// Status returns the persisted form of the verdict.
func (r Result) Status() string {
	if r.Eligible {
		return StatusEligible
	}
	return StatusNotEligible
}

// JoinedReasons returns the reasons newline-joined, as stored on the profile.
func (r Result) JoinedReasons() string {
	return strings.Join(r.Reasons, "\n")
}

// SplitReasons reverses JoinedReasons.
func SplitReasons(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// rule reports a reason and whether it disqualifies the donor. An empty
// reason means the rule did not fire.
type rule func(f Facts) (reason string, disqualifies bool)

var rules = []rule{
	func(f Facts) (string, bool) {
		if f.Age != nil && *f.Age < minAge {
			return ReasonUnderAge, true
		}
		return "", false
	},
	func(f Facts) (string, bool) {
		if f.Age != nil && *f.Age > maxAge {
			return ReasonOverAge, true
		}
		return "", false
	},
	func(f Facts) (string, bool) {
		if f.Weight != nil && *f.Weight < minWeightKg {
			return ReasonUnderWeight, true
		}
		return "", false
	},
	flagRule(func(f Facts) *bool { return f.HasDiabetes }, ReasonDiabetes, true),
	flagRule(func(f Facts) *bool { return f.HasAnemia }, ReasonAnemia, true),
	hemoglobinRule,
	flagRule(func(f Facts) *bool { return f.HasInfectiousDisease }, ReasonInfectious, true),
	flagRule(func(f Facts) *bool { return f.IsPregnant }, ReasonPregnant, true),
	flagRule(func(f Facts) *bool { return f.IsBreastfeeding }, ReasonBreastfeeding, true),
	flagRule(func(f Facts) *bool { return f.HasTattooOrPiercing }, ReasonTattoo, true),
	flagRule(func(f Facts) *bool { return f.HadRecentSurgery }, ReasonSurgery, true),
	flagRule(func(f Facts) *bool { return f.HadCovid }, ReasonCovid, true),
	flagRule(func(f Facts) *bool { return f.TakingMedications }, ReasonMedications, false),
}

func flagRule(get func(Facts) *bool, reason string, disqualifies bool) rule {
	return func(f Facts) (string, bool) {
		if v := get(f); v != nil && *v {
			return reason, disqualifies
		}
		return "", false
	}
}

func hemoglobinRule(f Facts) (string, bool) {
	level, ok := ParseHemoglobin(f.HemoglobinLevel)
	if !ok {
		return "", false
	}
	threshold := minHemoglobinOther
	if strings.Contains(strings.ToLower(f.Gender), "female") {
		threshold = minHemoglobinFemale
	}
	if level < threshold {
		return fmt.Sprintf("Hemoglobin level %.1f g/dL is below the minimum of %.1f g/dL.", level, threshold), true
	}
	return "", false
}

// Evaluate runs every rule in order and collects all reasons. It never stops
// at the first failure.
func Evaluate(f Facts) Result {
	res := Result{Eligible: true}
	for _, r := range rules {
		reason, disqualifies := r(f)
		if reason == "" {
			continue
		}
		if disqualifies {
			res.Eligible = false
		}
		res.Reasons = append(res.Reasons, reason)
	}
	if res.Eligible && len(res.Reasons) == 0 {
		res.Reasons = append(res.Reasons, ReasonAppearsEligible)
	}
	return res
}

var leadingDecimal = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)`)

// ParseHemoglobin reads the leading decimal of a free-text level such as
// "13.2 g/dL". ok is false when there is none.
func ParseHemoglobin(s string) (float64, bool) {
	m := leadingDecimal.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
