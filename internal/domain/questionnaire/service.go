package questionnaire

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lifeline/donor-assistant/internal/platform/db"
)

// Reply is what the caller sees after starting or answering. Exactly one of
// the question, correction or completion shapes is filled in.
type Reply struct {
	Question       string     `json:"question,omitempty"`
	QuestionNumber int        `json:"question_number,omitempty"`
	TotalQuestions int        `json:"total_questions"`
	Correction     string     `json:"correction,omitempty"`
	Completed      bool       `json:"completed"`
	Eligible       *bool      `json:"eligible,omitempty"`
	Reasons        []string   `json:"reasons,omitempty"`
	ProfileID      *uuid.UUID `json:"profile_id,omitempty"`
}

// StatusView describes where a session is in the questionnaire.
type StatusView struct {
	Active         bool       `json:"question_flow_active"`
	State          string     `json:"state"`
	QuestionNumber int        `json:"question_number"`
	TotalQuestions int        `json:"total_questions"`
	Question       string     `json:"question,omitempty"`
	ProfileID      *uuid.UUID `json:"profile_id,omitempty"`
}

type Service struct {
	profiles ProfileRepository
	progress ProgressStore
	events   CompletionPublisher
	tx       db.Transactor
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(profiles ProfileRepository, progress ProgressStore, events CompletionPublisher, tx db.Transactor, logger zerolog.Logger) *Service {
	if events == nil {
		events = NopCompletionPublisher{}
	}
	if tx == nil {
		tx = db.NopTransactor{}
	}
	return &Service{
		profiles: profiles,
		progress: progress,
		events:   events,
		tx:       tx,
		logger:   logger.With().Str("component", "questionnaire").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func questionReply(index int) *Reply {
	q, _ := Lookup(index)
	return &Reply{Question: q.Prompt, QuestionNumber: index, TotalQuestions: TotalQuestions}
}

func activeProgress(p *Progress) bool {
	return p != nil && p.Active && StateOf(p.CurrentIndex) == StateAwaiting
}

// Start begins the questionnaire for a session, or resumes it when one is
// already in progress. A fresh start reuses the session's profile record with
// all answers cleared.
func (s *Service) Start(ctx context.Context, sessionID string, ownerID *uuid.UUID) (*Reply, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	prev, err := s.progress.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	if activeProgress(prev) {
		return questionReply(prev.CurrentIndex), nil
	}

	now := s.now()
	next := &Progress{SessionID: sessionID, Active: true, CurrentIndex: 1, UpdatedAt: now}
	err = s.persist(ctx, sessionID, prev, next, func(ctx context.Context) error {
		p, err := s.profiles.GetBySessionID(ctx, sessionID)
		switch {
		case errors.Is(err, ErrNotFound):
			p = &HealthProfile{SessionID: sessionID, OwnerID: ownerID}
			if err := s.profiles.Create(ctx, p); err != nil {
				return fmt.Errorf("create profile: %w", err)
			}
		case err != nil:
			return fmt.Errorf("load profile: %w", err)
		default:
			p.ClearAnswers()
			if ownerID != nil {
				p.OwnerID = ownerID
			}
			p.UpdatedAt = now
			if err := s.profiles.Update(ctx, p); err != nil {
				return fmt.Errorf("reset profile: %w", err)
			}
		}
		next.ProfileID = p.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("session_id", sessionID).Str("profile_id", next.ProfileID.String()).Msg("questionnaire started")
	return questionReply(1), nil
}

// Submit validates and records an answer for the current question. A
// rejected answer changes nothing. When the last question is passed the
// eligibility rules run once and the session's progress is cleared.
func (s *Service) Submit(ctx context.Context, sessionID, answer string) (*Reply, error) {
	prev, err := s.progress.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	if !activeProgress(prev) {
		return nil, ErrFlowNotActive
	}
	index := prev.CurrentIndex

	if v := Validate(index, answer); !v.Accepted {
		s.logger.Debug().Str("session_id", sessionID).Int("question", index).Msg("answer rejected")
		reply := questionReply(index)
		reply.Correction = v.Correction
		return reply, nil
	}

	current, err := s.profiles.GetByID(ctx, prev.ProfileID)
	if errors.Is(err, ErrNotFound) {
		if err := s.progress.Delete(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("clear stale progress: %w", err)
		}
		return nil, ErrFlowNotActive
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	now := s.now()
	updated := current.Clone()
	Apply(updated, index, answer, now)
	nextIndex := NextIndex(index, updated)

	if StateOf(nextIndex) != StateComplete {
		next := &Progress{SessionID: sessionID, Active: true, CurrentIndex: nextIndex, ProfileID: updated.ID, UpdatedAt: now}
		if err := s.persist(ctx, sessionID, prev, next, func(ctx context.Context) error {
			return s.profiles.Update(ctx, updated)
		}); err != nil {
			return nil, fmt.Errorf("save answer: %w", err)
		}
		return questionReply(nextIndex), nil
	}

	updated.Completed = true
	res := updated.Evaluate(now)
	if err := s.persist(ctx, sessionID, prev, nil, func(ctx context.Context) error {
		return s.profiles.Update(ctx, updated)
	}); err != nil {
		return nil, fmt.Errorf("save verdict: %w", err)
	}

	s.logger.Info().Str("session_id", sessionID).Str("profile_id", updated.ID.String()).
		Str("eligibility_status", updated.EligibilityStatus).Msg("questionnaire completed")

	ev := CompletionEvent{
		ProfileID:   updated.ID,
		SessionID:   sessionID,
		Eligible:    res.Eligible,
		Status:      updated.EligibilityStatus,
		Reasons:     res.Reasons,
		CompletedAt: now.Format(time.RFC3339),
	}
	if err := s.events.PublishCompleted(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("profile_id", updated.ID.String()).Msg("completion event not published")
	}

	eligible := res.Eligible
	id := updated.ID
	return &Reply{
		TotalQuestions: TotalQuestions,
		Completed:      true,
		Eligible:       &eligible,
		Reasons:        res.Reasons,
		ProfileID:      &id,
	}, nil
}

// Reset clears the session's progress and deletes its profile. Resetting a
// session with nothing stored is a no-op.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	prev, err := s.progress.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	if err := s.persist(ctx, sessionID, prev, nil, func(ctx context.Context) error {
		return s.profiles.DeleteBySessionID(ctx, sessionID)
	}); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	s.logger.Info().Str("session_id", sessionID).Msg("questionnaire reset")
	return nil
}

func (s *Service) Status(ctx context.Context, sessionID string) (*StatusView, error) {
	p, err := s.progress.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	view := &StatusView{State: StateNotStarted.String(), TotalQuestions: TotalQuestions}
	if !activeProgress(p) {
		return view, nil
	}
	q, _ := Lookup(p.CurrentIndex)
	id := p.ProfileID
	view.Active = true
	view.State = StateOf(p.CurrentIndex).String()
	view.QuestionNumber = p.CurrentIndex
	view.Question = q.Prompt
	view.ProfileID = &id
	return view, nil
}

func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*HealthProfile, error) {
	return s.profiles.GetByID(ctx, id)
}

func (s *Service) ListProfiles(ctx context.Context, limit, offset int) ([]*HealthProfile, int, error) {
	return s.profiles.List(ctx, limit, offset)
}

func (s *Service) SearchProfiles(ctx context.Context, f ProfileFilter, limit, offset int) ([]*HealthProfile, int, error) {
	return s.profiles.Search(ctx, f, limit, offset)
}

// EnsureEvaluated returns the profile, running and persisting the
// eligibility rules first if no verdict is stored yet.
func (s *Service) EnsureEvaluated(ctx context.Context, id uuid.UUID) (*HealthProfile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.EligibilityStatus != "" {
		return p, nil
	}
	return s.evaluateAndStore(ctx, p)
}

// Reevaluate always re-runs the rules. The verdict is a pure function of the
// answers, so repeated runs store the same result.
func (s *Service) Reevaluate(ctx context.Context, id uuid.UUID) (*HealthProfile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.evaluateAndStore(ctx, p)
}

func (s *Service) evaluateAndStore(ctx context.Context, p *HealthProfile) (*HealthProfile, error) {
	updated := p.Clone()
	updated.Evaluate(s.now())
	if err := s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.profiles.Update(ctx, updated)
	}); err != nil {
		return nil, fmt.Errorf("save verdict: %w", err)
	}
	return updated, nil
}

// persist runs write and the progress change as one unit. Progress is
// written last inside the transaction and restored to prev if the commit
// fails. A nil next deletes the session's progress.
func (s *Service) persist(ctx context.Context, sessionID string, prev, next *Progress, write func(ctx context.Context) error) error {
	progressWritten := false
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := write(ctx); err != nil {
			return err
		}
		if err := s.storeProgress(ctx, sessionID, next); err != nil {
			return err
		}
		progressWritten = true
		return nil
	})
	if err != nil && progressWritten {
		if rerr := s.storeProgress(ctx, sessionID, prev); rerr != nil {
			s.logger.Error().Err(rerr).Str("session_id", sessionID).Msg("restore progress after failed commit")
		}
	}
	return err
}

func (s *Service) storeProgress(ctx context.Context, sessionID string, p *Progress) error {
	if p == nil {
		return s.progress.Delete(ctx, sessionID)
	}
	return s.progress.Save(ctx, p)
}
