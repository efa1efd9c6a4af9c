package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lifeline/donor-assistant/internal/config"
	"github.com/lifeline/donor-assistant/internal/domain/questionnaire"
	"github.com/lifeline/donor-assistant/internal/platform/search"
	"github.com/lifeline/donor-assistant/internal/platform/session"
)

// memProfiles is a minimal ProfileRepository for wiring tests.
type memProfiles struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*questionnaire.HealthProfile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{profiles: map[uuid.UUID]*questionnaire.HealthProfile{}}
}

func (m *memProfiles) Create(_ context.Context, p *questionnaire.HealthProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.profiles[p.ID] = p.Clone()
	return nil
}

func (m *memProfiles) GetByID(_ context.Context, id uuid.UUID) (*questionnaire.HealthProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[id]; ok {
		return p.Clone(), nil
	}
	return nil, questionnaire.ErrNotFound
}

func (m *memProfiles) GetBySessionID(_ context.Context, sid string) (*questionnaire.HealthProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.SessionID == sid {
			return p.Clone(), nil
		}
	}
	return nil, questionnaire.ErrNotFound
}

func (m *memProfiles) Update(_ context.Context, p *questionnaire.HealthProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; !ok {
		return questionnaire.ErrNotFound
	}
	m.profiles[p.ID] = p.Clone()
	return nil
}

func (m *memProfiles) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, id)
	return nil
}

func (m *memProfiles) DeleteBySessionID(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.profiles {
		if p.SessionID == sid {
			delete(m.profiles, id)
		}
	}
	return nil
}

func (m *memProfiles) List(ctx context.Context, limit, offset int) ([]*questionnaire.HealthProfile, int, error) {
	return m.Search(ctx, questionnaire.ProfileFilter{}, limit, offset)
}

func (m *memProfiles) Search(_ context.Context, _ questionnaire.ProfileFilter, _, _ int) ([]*questionnaire.HealthProfile, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*questionnaire.HealthProfile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p.Clone())
	}
	return out, len(out), nil
}

type stubExplainer struct{}

func (stubExplainer) Explain(context.Context, string) (string, error) { return "explained", nil }
func (stubExplainer) Generate(context.Context, string) (string, error) { return "generated", nil }
func (stubExplainer) Model() string { return "test/model" }

type stubFinder struct{}

func (stubFinder) FindLocations(context.Context, string) (*search.Locations, error) {
	return &search.Locations{Banks: []search.Place{}, Camps: []search.Place{}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Env:         "development",
		SessionTTL:  time.Hour,
		BodyLimit:   "64K",
		CORSOrigins: []string{"http://localhost:3000"},
	}
}

func testServer(cfg *config.Config) *echo.Echo {
	return newServer(cfg, zerolog.Nop(), deps{
		profiles:  newMemProfiles(),
		progress:  questionnaire.NewMemoryProgressStore(),
		explainer: stubExplainer{},
		finder:    stubFinder{},
		health: func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
		},
	})
}

func TestRateLimitConfig(t *testing.T) {
	cfg := testConfig()
	got := rateLimitConfig(cfg)
	if got.RequestsPerSecond != 20 || got.BurstSize != 40 {
		t.Errorf("expected defaults 20/40, got %v/%d", got.RequestsPerSecond, got.BurstSize)
	}

	cfg.RateLimitRPS = 5
	cfg.RateLimitBurst = 7
	got = rateLimitConfig(cfg)
	if got.RequestsPerSecond != 5 || got.BurstSize != 7 {
		t.Errorf("expected overrides 5/7, got %v/%d", got.RequestsPerSecond, got.BurstSize)
	}
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := newRedisClient(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rdb.Close()

	if err := rdb.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := mr.Exists("k"); !got {
		t.Error("expected key to be written to redis")
	}
}

func TestNewRedisClient_BadURL(t *testing.T) {
	if _, err := newRedisClient(context.Background(), "not a url"); err == nil {
		t.Error("expected an error for an invalid url")
	}
}

func TestServer_Health(t *testing.T) {
	e := testServer(testConfig())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers on every response")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id")
	}
}

func TestServer_StartAssessment(t *testing.T) {
	e := testServer(testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/assessment/start", nil)
	req.Header.Set(session.HeaderName, "wiring-test")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var reply questionnaire.Reply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply.QuestionNumber != 1 || reply.TotalQuestions != questionnaire.TotalQuestions {
		t.Errorf("unexpected reply %+v", reply)
	}
	if rec.Header().Get(session.HeaderName) != "wiring-test" {
		t.Error("expected the session id to be echoed")
	}
}

func TestServer_DevAuthReachesAdminRoutes(t *testing.T) {
	e := testServer(testConfig())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profiles", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestServer_ProductionRequiresToken(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "production"
	cfg.AuthSigningKey = "test-signing-key"
	e := testServer(cfg)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profiles", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous admin access, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a malformed token, got %d", rec.Code)
	}
}

func TestServer_Chat(t *testing.T) {
	e := testServer(testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/chat/", strings.NewReader(`{"question":"Por qué importa la hemoglobina?"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"answer"`) {
		t.Errorf("expected an answer, got %s", rec.Body.String())
	}
}

func TestServer_MeasuresNotMountedWithoutDatabase(t *testing.T) {
	e := testServer(testConfig())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/measures", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
