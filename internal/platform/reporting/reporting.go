package reporting

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/lifeline/donor-assistant/internal/platform/auth"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Parameter is a positional query argument. Value is taken from the query
// string and must parse as an integer; Default applies when it is absent.
type Parameter struct {
	Name    string `json:"name"`
	Default int    `json:"default"`
	Min     int    `json:"min"`
	Max     int    `json:"max"`
}

// MeasureDefinition defines a reporting measure with its SQL query.
type MeasureDefinition struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	SQL         string      `json:"-"`
	Parameters  []Parameter `json:"parameters"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string           `json:"measure_id"`
	MeasureName string           `json:"measure_name"`
	GeneratedAt time.Time        `json:"generated_at"`
	Results     []map[string]any `json:"results"`
	Parameters  map[string]int   `json:"parameters,omitempty"`
}

// PredefinedMeasures is the list of available reporting measures.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "assessment-summary",
		Name:        "Assessment Summary",
		Description: "Total, completed and eligible assessments",
		SQL: `SELECT COUNT(*) AS total,
	COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) AS completed,
	COALESCE(SUM(CASE WHEN eligibility_status = 'Eligible' THEN 1 ELSE 0 END), 0) AS eligible,
	COALESCE(SUM(CASE WHEN eligibility_status = 'Not Eligible' THEN 1 ELSE 0 END), 0) AS not_eligible
FROM health_profile`,
	},
	{
		ID:          "eligibility-by-status",
		Name:        "Eligibility by Status",
		Description: "Assessments grouped by eligibility verdict",
		SQL:         `SELECT COALESCE(eligibility_status, 'Pending') AS status, COUNT(*) AS total FROM health_profile GROUP BY 1 ORDER BY total DESC`,
	},
	{
		ID:          "blood-group-distribution",
		Name:        "Blood Group Distribution",
		Description: "Completed assessments grouped by blood group and verdict",
		SQL: `SELECT COALESCE(NULLIF(blood_group, ''), 'unknown') AS blood_group,
	COUNT(*) AS total,
	COALESCE(SUM(CASE WHEN eligibility_status = 'Eligible' THEN 1 ELSE 0 END), 0) AS eligible
FROM health_profile WHERE completed GROUP BY 1 ORDER BY total DESC`,
	},
	{
		ID:          "top-deferral-reasons",
		Name:        "Top Deferral Reasons",
		Description: "Most frequent reasons recorded for ineligible donors",
		SQL: `SELECT reason, COUNT(*) AS total
FROM health_profile, unnest(string_to_array(eligibility_reasons, E'\n')) AS reason
WHERE eligibility_status = 'Not Eligible' AND reason <> ''
GROUP BY reason ORDER BY total DESC LIMIT $1`,
		Parameters: []Parameter{{Name: "limit", Default: 10, Min: 1, Max: 100}},
	},
	{
		ID:          "completions-by-day",
		Name:        "Completions by Day",
		Description: "Completed assessments per day over a trailing window",
		SQL: `SELECT date_trunc('day', updated_at)::date AS day, COUNT(*) AS total
FROM health_profile
WHERE completed AND updated_at >= now() - make_interval(days => $1)
GROUP BY 1 ORDER BY 1`,
		Parameters: []Parameter{{Name: "days", Default: 30, Min: 1, Max: 365}},
	},
}

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	db Querier
}

func NewHandler(db Querier) *Handler {
	return &Handler{db: db}
}

// RegisterRoutes registers the reporting API routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	reportGroup := api.Group("/reports", auth.RequireRole("staff"))
	reportGroup.GET("/measures", h.ListMeasures)
	reportGroup.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

// ListMeasures returns all available measure definitions.
func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

// EvaluateMeasure executes a measure's SQL and returns the results.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}

	params, args, err := bindParameters(measure.Parameters, c.QueryParam)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	results, err := h.executeSQL(c.Request().Context(), measure.SQL, args...)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "query failed").SetInternal(err)
	}

	return c.JSON(http.StatusOK, MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: time.Now().UTC(),
		Results:     results,
		Parameters:  params,
	})
}

func bindParameters(defs []Parameter, lookup func(string) string) (map[string]int, []any, error) {
	if len(defs) == 0 {
		return nil, nil, nil
	}
	params := make(map[string]int, len(defs))
	args := make([]any, 0, len(defs))
	for _, p := range defs {
		v := p.Default
		if raw := lookup(p.Name); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, nil, fmt.Errorf("parameter %s must be an integer", p.Name)
			}
			if n < p.Min || n > p.Max {
				return nil, nil, fmt.Errorf("parameter %s must be between %d and %d", p.Name, p.Min, p.Max)
			}
			v = n
		}
		params[p.Name] = v
		args = append(args, v)
	}
	return params, args, nil
}

// executeSQL runs a SQL query and returns results as a slice of maps.
func (h *Handler) executeSQL(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	rows, err := h.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	results := []map[string]any{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		row := make(map[string]any, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[fd.Name] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}
