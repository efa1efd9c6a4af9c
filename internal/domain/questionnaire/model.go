package questionnaire

import (
	"time"

	"github.com/google/uuid"

	"github.com/lifeline/donor-assistant/internal/domain/eligibility"
)

// HealthProfile maps to the health_profile table. One row per session.
// Medical flags are tri-state: nil means the question was not answered.
type HealthProfile struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	SessionID string     `db:"session_id" json:"session_id"`
	OwnerID   *uuid.UUID `db:"owner_id" json:"owner_id,omitempty"`

	Name       string   `db:"name" json:"name,omitempty"`
	Age        *int     `db:"age" json:"age,omitempty"`
	Weight     *float64 `db:"weight" json:"weight,omitempty"`
	Gender     string   `db:"gender" json:"gender,omitempty"`
	BloodGroup string   `db:"blood_group" json:"blood_group,omitempty"`

	HasDiabetes     *bool  `db:"has_diabetes" json:"has_diabetes,omitempty"`
	HasAnemia       *bool  `db:"has_anemia" json:"has_anemia,omitempty"`
	HemoglobinLevel string `db:"hemoglobin_level" json:"hemoglobin_level,omitempty"`
	BloodPressure   string `db:"blood_pressure" json:"blood_pressure,omitempty"`
	HadCovid        *bool  `db:"had_covid" json:"had_covid,omitempty"`

	HasAllergies             *bool  `db:"has_allergies" json:"has_allergies,omitempty"`
	AllergiesDetails         string `db:"allergies_details" json:"allergies_details,omitempty"`
	TakingMedications        *bool  `db:"taking_medications" json:"taking_medications,omitempty"`
	MedicationsDetails       string `db:"medications_details" json:"medications_details,omitempty"`
	DonatedBefore            *bool  `db:"donated_before" json:"donated_before,omitempty"`
	LastDonationDate         string `db:"last_donation_date" json:"last_donation_date,omitempty"`
	HasChronicDiseases       *bool  `db:"has_chronic_diseases" json:"has_chronic_diseases,omitempty"`
	ChronicDiseasesDetails   string `db:"chronic_diseases_details" json:"chronic_diseases_details,omitempty"`
	HasInfectiousDisease     *bool  `db:"has_infectious_disease" json:"has_infectious_disease,omitempty"`
	InfectiousDiseaseDetails string `db:"infectious_disease_details" json:"infectious_disease_details,omitempty"`
	HasTattooOrPiercing      *bool  `db:"has_tattoo_or_piercing" json:"has_tattoo_or_piercing,omitempty"`
	TattooPiercingDate       string `db:"tattoo_piercing_date" json:"tattoo_piercing_date,omitempty"`
	IsPregnant               *bool  `db:"is_pregnant" json:"is_pregnant,omitempty"`
	IsBreastfeeding          *bool  `db:"is_breastfeeding" json:"is_breastfeeding,omitempty"`
	HadRecentSurgery         *bool  `db:"had_recent_surgery" json:"had_recent_surgery,omitempty"`
	SurgeryDetails           string `db:"surgery_details" json:"surgery_details,omitempty"`

	EligibilityStatus  string `db:"eligibility_status" json:"eligibility_status,omitempty"`
	EligibilityReasons string `db:"eligibility_reasons" json:"eligibility_reasons,omitempty"`
	Completed          bool   `db:"completed" json:"completed"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy so a submission can be applied and discarded
// without touching the stored profile.
func (p *HealthProfile) Clone() *HealthProfile {
	c := *p
	c.OwnerID = clonePtr(p.OwnerID)
	c.Age = clonePtr(p.Age)
	c.Weight = clonePtr(p.Weight)
	c.HasDiabetes = clonePtr(p.HasDiabetes)
	c.HasAnemia = clonePtr(p.HasAnemia)
	c.HadCovid = clonePtr(p.HadCovid)
	c.HasAllergies = clonePtr(p.HasAllergies)
	c.TakingMedications = clonePtr(p.TakingMedications)
	c.DonatedBefore = clonePtr(p.DonatedBefore)
	c.HasChronicDiseases = clonePtr(p.HasChronicDiseases)
	c.HasInfectiousDisease = clonePtr(p.HasInfectiousDisease)
	c.HasTattooOrPiercing = clonePtr(p.HasTattooOrPiercing)
	c.IsPregnant = clonePtr(p.IsPregnant)
	c.IsBreastfeeding = clonePtr(p.IsBreastfeeding)
	c.HadRecentSurgery = clonePtr(p.HadRecentSurgery)
	return &c
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// ClearAnswers wipes every answer and the verdict while keeping identity and
// createdAt. Used when a session restarts the questionnaire.
func (p *HealthProfile) ClearAnswers() {
	*p = HealthProfile{
		ID:        p.ID,
		SessionID: p.SessionID,
		OwnerID:   p.OwnerID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// Facts projects the fields the eligibility rules read.
func (p *HealthProfile) Facts() eligibility.Facts {
	return eligibility.Facts{
		Age:                  p.Age,
		Weight:               p.Weight,
		Gender:               p.Gender,
		HemoglobinLevel:      p.HemoglobinLevel,
		HasDiabetes:          p.HasDiabetes,
		HasAnemia:            p.HasAnemia,
		HadCovid:             p.HadCovid,
		TakingMedications:    p.TakingMedications,
		HasInfectiousDisease: p.HasInfectiousDisease,
		HasTattooOrPiercing:  p.HasTattooOrPiercing,
		IsPregnant:           p.IsPregnant,
		IsBreastfeeding:      p.IsBreastfeeding,
		HadRecentSurgery:     p.HadRecentSurgery,
	}
}

// Evaluate runs the eligibility rules and records the verdict on the profile.
func (p *HealthProfile) Evaluate(now time.Time) eligibility.Result {
	res := eligibility.Evaluate(p.Facts())
	p.EligibilityStatus = res.Status()
	p.EligibilityReasons = res.JoinedReasons()
	p.UpdatedAt = now
	return res
}

// Reasons returns the stored reasons as a list.
func (p *HealthProfile) Reasons() []string {
	return eligibility.SplitReasons(p.EligibilityReasons)
}

// Progress is the per-session pointer into the catalog.
// CurrentIndex 0 means not started, 1..TotalQuestions is the question
// awaiting an answer.
type Progress struct {
	SessionID    string    `json:"session_id"`
	Active       bool      `json:"question_flow_active"`
	CurrentIndex int       `json:"current_question_index"`
	ProfileID    uuid.UUID `json:"profile_id"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProfileFilter holds the admin listing filters. Empty fields are ignored.
type ProfileFilter struct {
	Completed         *bool
	EligibilityStatus string
	BloodGroup        string
	Query             string
	HasDiabetes       *bool
	HadCovid          *bool
	HasAnemia         *bool
}
