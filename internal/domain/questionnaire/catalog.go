package questionnaire

import "fmt"

// TotalQuestions is the length of the catalog.
const TotalQuestions = 26

// ValidationClass selects the per-question answer rule.
type ValidationClass int

const (
	ClassFreeText ValidationClass = iota
	ClassNumber
	ClassDecimal
	ClassGender
	ClassBloodGroup
	ClassYesNo
	ClassHasDigit
)

func (c ValidationClass) String() string {
	switch c {
	case ClassNumber:
		return "number"
	case ClassDecimal:
		return "decimal"
	case ClassGender:
		return "gender"
	case ClassBloodGroup:
		return "blood-group"
	case ClassYesNo:
		return "yes-no"
	case ClassHasDigit:
		return "has-digit"
	default:
		return "free-text"
	}
}

// Question is one immutable catalog entry.
type Question struct {
	Index  int
	Prompt string
	Field  string
	Class  ValidationClass
	// Detail questions are only asked after a "yes" to the previous question.
	Detail bool
}

var catalog = [TotalQuestions]Question{
	{1, "What is your full name?", "name", ClassFreeText, false},
	{2, "How old are you? (in years)", "age", ClassNumber, false},
	{3, "What is your weight? (in kg)", "weight", ClassDecimal, false},
	{4, "What is your gender? (Male/Female/Other)", "gender", ClassGender, false},
	{5, "What is your blood group? (e.g. A+, O-, AB+)", "bloodGroup", ClassBloodGroup, false},
	{6, "Do you have diabetes? (Yes/No)", "hasDiabetes", ClassYesNo, false},
	{7, "Do you have anemia? (Yes/No)", "hasAnemia", ClassYesNo, false},
	{8, "What is your hemoglobin level? (in g/dL, e.g. 13.5)", "hemoglobinLevel", ClassFreeText, false},
	{9, "What is your blood pressure? (e.g. 120/80)", "bloodPressure", ClassHasDigit, false},
	{10, "Have you had COVID-19 in the last 28 days? (Yes/No)", "hadCovid", ClassYesNo, false},
	{11, "Do you have any allergies? (Yes/No)", "hasAllergies", ClassYesNo, false},
	{12, "Please describe your allergies.", "allergiesDetails", ClassFreeText, true},
	{13, "Are you currently taking any medications? (Yes/No)", "takingMedications", ClassYesNo, false},
	{14, "Which medications are you taking?", "medicationsDetails", ClassFreeText, true},
	{15, "Have you donated blood before? (Yes/No)", "donatedBefore", ClassYesNo, false},
	{16, "When did you last donate blood?", "lastDonationDate", ClassFreeText, true},
	{17, "Do you have any chronic diseases? (Yes/No)", "hasChronicDiseases", ClassYesNo, false},
	{18, "Please describe your chronic diseases.", "chronicDiseasesDetails", ClassFreeText, true},
	{19, "Do you have any infectious disease (e.g. hepatitis, HIV)? (Yes/No)", "hasInfectiousDisease", ClassYesNo, false},
	{20, "Please describe the infectious disease.", "infectiousDiseaseDetails", ClassFreeText, true},
	{21, "Have you had a tattoo or piercing in the last 6 months? (Yes/No)", "hasTattooOrPiercing", ClassYesNo, false},
	{22, "When did you get the tattoo or piercing?", "tattooPiercingDate", ClassFreeText, true},
	{23, "Are you currently pregnant? (Yes/No)", "isPregnant", ClassYesNo, false},
	{24, "Are you currently breastfeeding? (Yes/No)", "isBreastfeeding", ClassYesNo, false},
	{25, "Have you had any surgery in the last 6 months? (Yes/No)", "hadRecentSurgery", ClassYesNo, false},
	{26, "Please describe the surgery and when it took place.", "surgeryDetails", ClassFreeText, true},
}

// Lookup returns the question at a 1-based index.
func Lookup(index int) (Question, error) {
	if index < 1 || index > TotalQuestions {
		return Question{}, fmt.Errorf("question index %d out of range 1..%d", index, TotalQuestions)
	}
	return catalog[index-1], nil
}

// Questions returns a copy of the whole catalog in order.
func Questions() []Question {
	out := make([]Question, TotalQuestions)
	copy(out, catalog[:])
	return out
}
