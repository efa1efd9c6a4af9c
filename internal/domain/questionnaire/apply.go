package questionnaire

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

type setter func(p *HealthProfile, raw string)

// affirmative extends the base yes words with per-question synonyms.
func affirmative(extra ...string) map[string]bool {
	set := map[string]bool{"yes": true, "y": true, "true": true, "1": true}
	for _, w := range extra {
		set[w] = true
	}
	return set
}

func flag(target func(p *HealthProfile) **bool, yes map[string]bool) setter {
	return func(p *HealthProfile, raw string) {
		v := yes[normalize(raw)]
		*target(p) = &v
	}
}

func text(target func(p *HealthProfile) *string) setter {
	return func(p *HealthProfile, raw string) {
		*target(p) = raw
	}
}

// setters is indexed by question number; entry 0 is unused.
var setters = [TotalQuestions + 1]setter{
	1:  func(p *HealthProfile, raw string) { p.Name = strings.TrimSpace(raw) },
	2:  func(p *HealthProfile, raw string) { p.Age = parseFirstInt(raw) },
	3:  func(p *HealthProfile, raw string) { p.Weight = parseFirstFloat(raw) },
	4:  func(p *HealthProfile, raw string) { p.Gender = raw },
	5:  func(p *HealthProfile, raw string) { p.BloodGroup = extractBloodGroup(raw) },
	6:  flag(func(p *HealthProfile) **bool { return &p.HasDiabetes }, affirmative("diabetic")),
	7:  flag(func(p *HealthProfile) **bool { return &p.HasAnemia }, affirmative("anemic", "anaemic")),
	8:  text(func(p *HealthProfile) *string { return &p.HemoglobinLevel }),
	9:  text(func(p *HealthProfile) *string { return &p.BloodPressure }),
	10: flag(func(p *HealthProfile) **bool { return &p.HadCovid }, affirmative("infected", "positive")),
	11: flag(func(p *HealthProfile) **bool { return &p.HasAllergies }, affirmative("allergic")),
	12: text(func(p *HealthProfile) *string { return &p.AllergiesDetails }),
	13: flag(func(p *HealthProfile) **bool { return &p.TakingMedications }, affirmative("taking")),
	14: text(func(p *HealthProfile) *string { return &p.MedicationsDetails }),
	15: flag(func(p *HealthProfile) **bool { return &p.DonatedBefore }, affirmative("donated")),
	16: text(func(p *HealthProfile) *string { return &p.LastDonationDate }),
	17: flag(func(p *HealthProfile) **bool { return &p.HasChronicDiseases }, affirmative("suffering")),
	18: text(func(p *HealthProfile) *string { return &p.ChronicDiseasesDetails }),
	19: flag(func(p *HealthProfile) **bool { return &p.HasInfectiousDisease }, affirmative("infected", "positive", "suffering")),
	20: text(func(p *HealthProfile) *string { return &p.InfectiousDiseaseDetails }),
	21: flag(func(p *HealthProfile) **bool { return &p.HasTattooOrPiercing }, affirmative("tattoo", "piercing")),
	22: text(func(p *HealthProfile) *string { return &p.TattooPiercingDate }),
	23: flag(func(p *HealthProfile) **bool { return &p.IsPregnant }, affirmative("pregnant")),
	24: flag(func(p *HealthProfile) **bool { return &p.IsBreastfeeding }, affirmative("breastfeeding")),
	25: flag(func(p *HealthProfile) **bool { return &p.HadRecentSurgery }, affirmative("operated")),
	26: func(p *HealthProfile, raw string) {
		p.SurgeryDetails = raw
		p.Completed = true
	},
}

// Apply writes an accepted answer into the profile and stamps UpdatedAt.
// Unknown indices leave the profile untouched.
func Apply(p *HealthProfile, index int, raw string, now time.Time) {
	if index < 1 || index > TotalQuestions {
		return
	}
	setters[index](p, raw)
	p.UpdatedAt = now
}

// parseFirstInt returns the first digit run as an int, or nil.
func parseFirstInt(s string) *int {
	m := digitRun.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &v
}

// parseFirstFloat returns the first decimal number, or nil.
func parseFirstFloat(s string) *float64 {
	m := decimalRun.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &v
}

// AB is tried first so "AB+" is not read as "A".
var bloodGroupToken = regexp.MustCompile(`AB[+-]?|[ABO][+-]?`)

func extractBloodGroup(raw string) string {
	if tok := bloodGroupToken.FindString(strings.ToUpper(stripSpaces(raw))); tok != "" {
		return tok
	}
	return raw
}
