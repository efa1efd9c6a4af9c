package questionnaire

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation is the outcome of checking a raw answer. A rejected answer
// carries the message to show before the same question is asked again.
type Validation struct {
	Accepted   bool
	Correction string
}

const (
	MsgUncertain  = "We need a clear answer to assess your eligibility. If you are not sure, please check with a doctor or your records and answer again."
	MsgNumber     = "Please enter a number (for example 25)."
	MsgDecimal    = "Please enter a number in kg (for example 62.5)."
	MsgGender     = "Please answer Male, Female or Other."
	MsgBloodGroup = "Please enter a valid blood group: A, A+, A-, B, B+, B-, AB, AB+, AB-, O, O+ or O-."
	MsgYesNo      = "Please answer Yes or No only."
	MsgHasDigit   = "Please enter your blood pressure using numbers, for example 120/80."
)

var uncertainPhrases = []string{
	"dont know", "don't know", "do not know", "idk", "dk", "no idea",
	"not sure", "unsure", "n/a", "na", "none", "nothing",
}

var (
	digitRun   = regexp.MustCompile(`\d+`)
	decimalRun = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

var validGenders = map[string]bool{
	"male": true, "female": true, "other": true, "m": true, "f": true, "o": true,
}

var validBloodGroups = map[string]bool{
	"A": true, "A+": true, "A-": true,
	"B": true, "B+": true, "B-": true,
	"AB": true, "AB+": true, "AB-": true,
	"O": true, "O+": true, "O-": true,
}

var (
	yesWords = map[string]bool{"yes": true, "y": true, "true": true, "1": true}
	noWords  = map[string]bool{"no": true, "n": true, "false": true, "0": true}
)

func normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// IsUncertain reports whether an answer is empty, a single character, or
// expresses not knowing.
func IsUncertain(raw string) bool {
	n := normalize(raw)
	if utf8.RuneCountInString(n) <= 1 {
		return true
	}
	// Substring match: "Anna" and "Naproxen" contain "na" and are rejected.
	for _, p := range uncertainPhrases {
		if strings.Contains(n, p) {
			return true
		}
	}
	return false
}

// Validate checks a raw answer for the question at index. The uncertainty
// check runs first for every question.
func Validate(index int, raw string) Validation {
	if IsUncertain(raw) {
		return reject(MsgUncertain)
	}
	q, err := Lookup(index)
	if err != nil {
		return reject(MsgUncertain)
	}

	n := normalize(raw)
	switch q.Class {
	case ClassNumber:
		if !digitRun.MatchString(raw) {
			return reject(MsgNumber)
		}
	case ClassDecimal:
		if !decimalRun.MatchString(raw) {
			return reject(MsgDecimal)
		}
	case ClassGender:
		if !validGenders[n] {
			return reject(MsgGender)
		}
	case ClassBloodGroup:
		if !validBloodGroups[strings.ToUpper(stripSpaces(n))] {
			return reject(MsgBloodGroup)
		}
	case ClassYesNo:
		if !yesWords[n] && !noWords[n] {
			return reject(MsgYesNo)
		}
	case ClassHasDigit:
		if !strings.ContainsAny(raw, "0123456789") {
			return reject(MsgHasDigit)
		}
	}
	return Validation{Accepted: true}
}

func reject(msg string) Validation {
	return Validation{Correction: msg}
}
