package assistant

import (
	"strings"
	"unicode"
)

// Topic is one built-in FAQ answer.
type Topic struct {
	Key       string
	Keywords  []string
	Answer    string
	FollowUps []string
}

var defaultFollowUps = []string{
	"Am I eligible to donate blood?",
	"How should I prepare for blood donation?",
	"Where can I donate blood near me?",
}

var knowledge = []Topic{
	{
		Key:      "eligibility",
		Keywords: []string{"eligible", "eligibility", "who can donate", "age", "weight"},
		Answer: "Most healthy adults aged 18 to 65 who weigh at least 50 kg can donate blood. " +
			"You should not donate if you have diabetes, anemia, an infectious disease, are pregnant or breastfeeding, " +
			"or had a tattoo, piercing or surgery in the last 6 months. Take the assessment for a personal answer.",
		FollowUps: []string{
			"What hemoglobin level do I need?",
			"How often can I donate blood?",
			"Can I donate after a tattoo?",
		},
	},
	{
		Key:      "hemoglobin",
		Keywords: []string{"hemoglobin", "haemoglobin", "hb", "iron"},
		Answer: "Hemoglobin is the protein in red blood cells that carries oxygen. " +
			"Donors need at least 12.5 g/dL (women) or 13.5 g/dL (men). Iron-rich food such as leafy greens, lentils and dates helps keep it up.",
		FollowUps: []string{
			"How can I increase my hemoglobin?",
			"Am I eligible to donate blood?",
			"What should I eat before donating?",
		},
	},
	{
		Key:      "frequency",
		Keywords: []string{"how often", "frequency", "again", "interval", "every"},
		Answer:   "Whole blood can usually be donated every 3 months (90 days) for men and every 4 months (120 days) for women.",
		FollowUps: []string{
			"How long does a donation take?",
			"What should I do after donating?",
			"Am I eligible to donate blood?",
		},
	},
	{
		Key:      "tattoo",
		Keywords: []string{"tattoo", "piercing", "pierced"},
		Answer:   "After a tattoo or piercing you must wait 6 months before donating blood, because of the small risk of infection.",
		FollowUps: []string{
			"Can I donate after surgery?",
			"Am I eligible to donate blood?",
			"How often can I donate blood?",
		},
	},
	{
		Key:      "covid",
		Keywords: []string{"covid", "corona", "coronavirus", "vaccine", "vaccination"},
		Answer:   "If you had COVID-19, wait 28 days after full recovery before donating. Vaccination alone does not usually prevent donation.",
		FollowUps: []string{
			"Am I eligible to donate blood?",
			"How should I prepare for blood donation?",
			"Where can I donate blood near me?",
		},
	},
	{
		Key:      "preparation",
		Keywords: []string{"prepare", "preparation", "before donating", "eat", "drink", "food"},
		Answer: "Sleep well, eat a healthy meal and drink plenty of water before donating. " +
			"Avoid fatty food and alcohol for 24 hours, and bring a photo ID.",
		FollowUps: []string{
			"What should I do after donating?",
			"How long does a donation take?",
			"Is blood donation safe?",
		},
	},
	{
		Key:      "aftercare",
		Keywords: []string{"after donating", "after donation", "recover", "recovery", "rest"},
		Answer: "After donating, rest for 10 to 15 minutes, have a snack and extra fluids, " +
			"and avoid heavy exercise or lifting for the rest of the day.",
		FollowUps: []string{
			"Is blood donation safe?",
			"How often can I donate blood?",
			"Where can I donate blood near me?",
		},
	},
	{
		Key:      "safety",
		Keywords: []string{"safe", "safety", "risk", "side effect", "pain", "hurt", "dizzy"},
		Answer: "Blood donation is safe. A new sterile needle is used for every donor. " +
			"Some people feel slightly dizzy or bruised afterwards, which passes quickly.",
		FollowUps: []string{
			"What should I do after donating?",
			"How long does a donation take?",
			"Am I eligible to donate blood?",
		},
	},
	{
		Key:      "blood_types",
		Keywords: []string{"blood group", "blood type", "universal", "o negative", "o-", "ab+"},
		Answer: "O negative donors are universal red cell donors and AB positive patients are universal recipients. " +
			"Every blood group is needed, so all healthy donors are welcome.",
		FollowUps: []string{
			"Am I eligible to donate blood?",
			"Where can I donate blood near me?",
			"How often can I donate blood?",
		},
	},
	{
		Key:      "duration",
		Keywords: []string{"how long", "duration", "time", "minutes"},
		Answer:   "The donation itself takes about 10 minutes. With registration, screening and rest, plan for about an hour.",
		FollowUps: []string{
			"How should I prepare for blood donation?",
			"What should I do after donating?",
			"Where can I donate blood near me?",
		},
	},
}

// matchTopic returns the topic whose keywords best match question. Single
// words match on word boundaries, phrases as substrings.
func matchTopic(question string) (Topic, bool) {
	q := strings.ToLower(question)
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '-'
	}) {
		words[w] = true
	}

	best, bestScore := Topic{}, 0
	for _, t := range knowledge {
		score := 0
		for _, k := range t.Keywords {
			if strings.Contains(k, " ") {
				if strings.Contains(q, k) {
					score += 2
				}
			} else if words[k] {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = t, score
		}
	}
	return best, bestScore > 0
}
