package questionnaire

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lifeline/donor-assistant/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type profileRepoPG struct{ pool *pgxpool.Pool }

func NewProfileRepoPG(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepoPG{pool: pool}
}

func (r *profileRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const profileCols = `id, session_id, owner_id, name, age, weight, gender, blood_group,
	has_diabetes, has_anemia, hemoglobin_level, blood_pressure, had_covid,
	has_allergies, allergies_details, taking_medications, medications_details,
	donated_before, last_donation_date, has_chronic_diseases, chronic_diseases_details,
	has_infectious_disease, infectious_disease_details, has_tattoo_or_piercing, tattoo_piercing_date,
	is_pregnant, is_breastfeeding, had_recent_surgery, surgery_details,
	eligibility_status, eligibility_reasons, completed, created_at, updated_at`

func (r *profileRepoPG) scanProfile(row pgx.Row) (*HealthProfile, error) {
	var p HealthProfile
	err := row.Scan(&p.ID, &p.SessionID, &p.OwnerID, &p.Name, &p.Age, &p.Weight, &p.Gender, &p.BloodGroup,
		&p.HasDiabetes, &p.HasAnemia, &p.HemoglobinLevel, &p.BloodPressure, &p.HadCovid,
		&p.HasAllergies, &p.AllergiesDetails, &p.TakingMedications, &p.MedicationsDetails,
		&p.DonatedBefore, &p.LastDonationDate, &p.HasChronicDiseases, &p.ChronicDiseasesDetails,
		&p.HasInfectiousDisease, &p.InfectiousDiseaseDetails, &p.HasTattooOrPiercing, &p.TattooPiercingDate,
		&p.IsPregnant, &p.IsBreastfeeding, &p.HadRecentSurgery, &p.SurgeryDetails,
		&p.EligibilityStatus, &p.EligibilityReasons, &p.Completed, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepoPG) Create(ctx context.Context, p *HealthProfile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO health_profile (id, session_id, owner_id)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		p.ID, p.SessionID, p.OwnerID).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *profileRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*HealthProfile, error) {
	return r.scanProfile(r.conn(ctx).QueryRow(ctx, `SELECT `+profileCols+` FROM health_profile WHERE id = $1`, id))
}

func (r *profileRepoPG) GetBySessionID(ctx context.Context, sessionID string) (*HealthProfile, error) {
	return r.scanProfile(r.conn(ctx).QueryRow(ctx, `SELECT `+profileCols+` FROM health_profile WHERE session_id = $1`, sessionID))
}

func (r *profileRepoPG) Update(ctx context.Context, p *HealthProfile) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE health_profile SET owner_id=$2, name=$3, age=$4, weight=$5, gender=$6, blood_group=$7,
			has_diabetes=$8, has_anemia=$9, hemoglobin_level=$10, blood_pressure=$11, had_covid=$12,
			has_allergies=$13, allergies_details=$14, taking_medications=$15, medications_details=$16,
			donated_before=$17, last_donation_date=$18, has_chronic_diseases=$19, chronic_diseases_details=$20,
			has_infectious_disease=$21, infectious_disease_details=$22, has_tattoo_or_piercing=$23, tattoo_piercing_date=$24,
			is_pregnant=$25, is_breastfeeding=$26, had_recent_surgery=$27, surgery_details=$28,
			eligibility_status=$29, eligibility_reasons=$30, completed=$31, updated_at=$32
		WHERE id = $1`,
		p.ID, p.OwnerID, p.Name, p.Age, p.Weight, p.Gender, p.BloodGroup,
		p.HasDiabetes, p.HasAnemia, p.HemoglobinLevel, p.BloodPressure, p.HadCovid,
		p.HasAllergies, p.AllergiesDetails, p.TakingMedications, p.MedicationsDetails,
		p.DonatedBefore, p.LastDonationDate, p.HasChronicDiseases, p.ChronicDiseasesDetails,
		p.HasInfectiousDisease, p.InfectiousDiseaseDetails, p.HasTattooOrPiercing, p.TattooPiercingDate,
		p.IsPregnant, p.IsBreastfeeding, p.HadRecentSurgery, p.SurgeryDetails,
		p.EligibilityStatus, p.EligibilityReasons, p.Completed, p.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *profileRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM health_profile WHERE id = $1`, id)
	return err
}

func (r *profileRepoPG) DeleteBySessionID(ctx context.Context, sessionID string) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM health_profile WHERE session_id = $1`, sessionID)
	return err
}

func (r *profileRepoPG) List(ctx context.Context, limit, offset int) ([]*HealthProfile, int, error) {
	return r.Search(ctx, ProfileFilter{}, limit, offset)
}

func (r *profileRepoPG) Search(ctx context.Context, f ProfileFilter, limit, offset int) ([]*HealthProfile, int, error) {
	where, args := buildProfileWhere(f)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM health_profile`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT `+profileCols+` FROM health_profile%s ORDER BY updated_at DESC LIMIT $%d OFFSET $%d`, where, n+1, n+2),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*HealthProfile
	for rows.Next() {
		p, err := r.scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// buildProfileWhere renders the admin filters as a WHERE clause with
// positional arguments.
func buildProfileWhere(f ProfileFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Completed != nil {
		add("completed = $%d", *f.Completed)
	}
	if f.EligibilityStatus != "" {
		add("eligibility_status = $%d", f.EligibilityStatus)
	}
	if f.BloodGroup != "" {
		add("blood_group = $%d", f.BloodGroup)
	}
	if f.HasDiabetes != nil {
		add("has_diabetes = $%d", *f.HasDiabetes)
	}
	if f.HadCovid != nil {
		add("had_covid = $%d", *f.HadCovid)
	}
	if f.HasAnemia != nil {
		add("has_anemia = $%d", *f.HasAnemia)
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR session_id ILIKE $%d OR blood_group ILIKE $%d)", n, n, n))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
