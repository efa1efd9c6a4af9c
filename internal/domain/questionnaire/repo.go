package questionnaire

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("health profile not found")
	ErrFlowNotActive = errors.New("questionnaire is not in progress for this session")
)

type ProfileRepository interface {
	Create(ctx context.Context, p *HealthProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*HealthProfile, error)
	GetBySessionID(ctx context.Context, sessionID string) (*HealthProfile, error)
	Update(ctx context.Context, p *HealthProfile) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteBySessionID(ctx context.Context, sessionID string) error
	List(ctx context.Context, limit, offset int) ([]*HealthProfile, int, error)
	Search(ctx context.Context, f ProfileFilter, limit, offset int) ([]*HealthProfile, int, error)
}

// ProgressStore keeps the per-session question pointer. Get returns
// (nil, nil) when the session has no progress.
type ProgressStore interface {
	Get(ctx context.Context, sessionID string) (*Progress, error)
	Save(ctx context.Context, p *Progress) error
	Delete(ctx context.Context, sessionID string) error
}

// CompletionEvent is published once per finished questionnaire.
type CompletionEvent struct {
	ProfileID   uuid.UUID `json:"profile_id"`
	SessionID   string    `json:"session_id"`
	Eligible    bool      `json:"eligible"`
	Status      string    `json:"status"`
	Reasons     []string  `json:"reasons"`
	CompletedAt string    `json:"completed_at"`
}

type CompletionPublisher interface {
	PublishCompleted(ctx context.Context, ev CompletionEvent) error
}
