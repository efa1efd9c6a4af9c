package report

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lifeline/donor-assistant/internal/domain/eligibility"
	"github.com/lifeline/donor-assistant/internal/domain/questionnaire"
)

var ErrNotFound = errors.New("report not found")

// ProfileSource resolves a profile with a stored verdict.
type ProfileSource interface {
	EnsureEvaluated(ctx context.Context, id uuid.UUID) (*questionnaire.HealthProfile, error)
}

type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Section struct {
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

type Verdict struct {
	Status   string   `json:"status"`
	Eligible bool     `json:"eligible"`
	Reasons  []string `json:"reasons"`
}

type Report struct {
	ProfileID   uuid.UUID `json:"profile_id"`
	Name        string    `json:"name"`
	Completed   bool      `json:"completed"`
	Eligibility Verdict   `json:"eligibility"`
	Sections    []Section `json:"sections"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	GeneratedAt time.Time `json:"generated_at"`
}

type Service struct {
	profiles ProfileSource
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(profiles ProfileSource, logger zerolog.Logger) *Service {
	return &Service{
		profiles: profiles,
		logger:   logger.With().Str("component", "report").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get builds the report for a profile, evaluating eligibility first when no
// verdict is stored.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Report, error) {
	p, err := s.profiles.EnsureEvaluated(ctx, id)
	if errors.Is(err, questionnaire.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", id, err)
	}
	return Build(p, s.now()), nil
}

// Build lays the profile out in the sections staff review it by.
func Build(p *questionnaire.HealthProfile, generatedAt time.Time) *Report {
	return &Report{
		ProfileID: p.ID,
		Name:      p.Name,
		Completed: p.Completed,
		Eligibility: Verdict{
			Status:   p.EligibilityStatus,
			Eligible: p.EligibilityStatus == eligibility.StatusEligible,
			Reasons:  p.Reasons(),
		},
		Sections: []Section{
			{Title: "Personal Information", Fields: []Field{
				{"Name", p.Name},
				{"Age", intValue(p.Age)},
				{"Weight (kg)", floatValue(p.Weight)},
				{"Gender", p.Gender},
				{"Blood Group", p.BloodGroup},
			}},
			{Title: "Health Information", Fields: []Field{
				{"Diabetes", yesNo(p.HasDiabetes)},
				{"Anemia", yesNo(p.HasAnemia)},
				{"Hemoglobin Level", p.HemoglobinLevel},
				{"Blood Pressure", p.BloodPressure},
				{"COVID-19 in last 28 days", yesNo(p.HadCovid)},
				{"Allergies", yesNo(p.HasAllergies)},
				{"Allergy Details", p.AllergiesDetails},
				{"Taking Medications", yesNo(p.TakingMedications)},
				{"Medication Details", p.MedicationsDetails},
				{"Chronic Diseases", yesNo(p.HasChronicDiseases)},
				{"Chronic Disease Details", p.ChronicDiseasesDetails},
				{"Infectious Disease", yesNo(p.HasInfectiousDisease)},
				{"Infectious Disease Details", p.InfectiousDiseaseDetails},
			}},
			{Title: "Donation History", Fields: []Field{
				{"Donated Before", yesNo(p.DonatedBefore)},
				{"Last Donation", p.LastDonationDate},
			}},
			{Title: "Other Factors", Fields: []Field{
				{"Tattoo or Piercing (6 months)", yesNo(p.HasTattooOrPiercing)},
				{"Tattoo or Piercing Date", p.TattooPiercingDate},
				{"Pregnant", yesNo(p.IsPregnant)},
				{"Breastfeeding", yesNo(p.IsBreastfeeding)},
				{"Recent Surgery (6 months)", yesNo(p.HadRecentSurgery)},
				{"Surgery Details", p.SurgeryDetails},
			}},
		},
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		GeneratedAt: generatedAt,
	}
}

const notAnswered = "Not answered"

func yesNo(b *bool) string {
	switch {
	case b == nil:
		return notAnswered
	case *b:
		return "Yes"
	default:
		return "No"
	}
}

func intValue(v *int) string {
	if v == nil {
		return notAnswered
	}
	return strconv.Itoa(*v)
}

func floatValue(v *float64) string {
	if v == nil {
		return notAnswered
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
