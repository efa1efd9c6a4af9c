package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/lifeline/donor-assistant/internal/platform/ai"
	"github.com/lifeline/donor-assistant/internal/platform/search"
)

var ErrEmptyQuestion = errors.New("empty question")

const (
	SourceKnowledge = "Knowledge Base"
	SourceAI        = "Generative AI"
	SourceFallback  = "Fallback"

	fallbackAnswer = "Sorry, I cannot answer that right now. Please try again later, or ask the staff at your nearest blood bank."
)

// Explainer is the text-generation backend.
type Explainer interface {
	Explain(ctx context.Context, question string) (string, error)
	Generate(ctx context.Context, input string) (string, error)
	Model() string
}

type LocationFinder interface {
	FindLocations(ctx context.Context, city string) (*search.Locations, error)
}

type Answer struct {
	Answer     string   `json:"answer"`
	Source     string   `json:"source"`
	Language   string   `json:"language"`
	Confidence float64  `json:"confidence"`
	FollowUps  []string `json:"suggested_followups"`
	Degraded   bool     `json:"degraded,omitempty"`
}

type Centers struct {
	City     string         `json:"city"`
	Banks    []search.Place `json:"banks"`
	Camps    []search.Place `json:"camps"`
	Degraded bool           `json:"degraded,omitempty"`
}

type ModelInfo struct {
	Name      string   `json:"name"`
	Task      string   `json:"task"`
	Languages []string `json:"languages"`
	Default   bool     `json:"default"`
}

// Service answers donor questions and finds donation centers. It never
// reads or writes questionnaire state.
type Service struct {
	explainer Explainer
	finder    LocationFinder
	logger    zerolog.Logger
}

func NewService(explainer Explainer, finder LocationFinder, logger zerolog.Logger) *Service {
	return &Service{
		explainer: explainer,
		finder:    finder,
		logger:    logger.With().Str("component", "assistant").Logger(),
	}
}

// Ask answers from the built-in knowledge base when an English question
// matches a topic, and from the model otherwise. Model failures produce a
// fallback answer marked degraded.
func (s *Service) Ask(ctx context.Context, question, lang string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	tag := ai.DetectLanguage(question, lang)
	ans := &Answer{Language: ai.Base(tag), FollowUps: defaultFollowUps}

	topic, ok := matchTopic(question)
	if ok {
		ans.FollowUps = topic.FollowUps
	}
	if ok && tag == language.English {
		ans.Answer = topic.Answer
		ans.Source = SourceKnowledge
		ans.Confidence = 1.0
		return ans, nil
	}

	text, err := s.explainer.Explain(ctx, question)
	if err != nil {
		s.logger.Warn().Err(err).Str("language", ans.Language).Msg("ai explainer degraded")
		ans.Answer = fallbackAnswer
		ans.Source = SourceFallback
		ans.Degraded = true
		return ans, nil
	}
	ans.Answer = text
	ans.Source = SourceAI
	ans.Confidence = 1.0
	return ans, nil
}

// Respond passes msg to the model as is.
func (s *Service) Respond(ctx context.Context, msg string) (*Answer, error) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return nil, ErrEmptyQuestion
	}
	ans := &Answer{Language: ai.Base(ai.DetectLanguage(msg, "")), FollowUps: defaultFollowUps}
	text, err := s.explainer.Generate(ctx, msg)
	if err != nil {
		s.logger.Warn().Err(err).Msg("ai generator degraded")
		ans.Answer = fallbackAnswer
		ans.Source = SourceFallback
		ans.Degraded = true
		return ans, nil
	}
	ans.Answer = text
	ans.Source = SourceAI
	ans.Confidence = 1.0
	return ans, nil
}

// FindCenters never fails on provider errors; it returns empty lists marked
// degraded instead.
func (s *Service) FindCenters(ctx context.Context, city string) *Centers {
	out := &Centers{City: strings.TrimSpace(city), Banks: []search.Place{}, Camps: []search.Place{}}
	locs, err := s.finder.FindLocations(ctx, out.City)
	if err != nil {
		s.logger.Warn().Err(err).Str("city", out.City).Msg("location search degraded")
		out.Degraded = true
		return out
	}
	out.Banks = locs.Banks
	out.Camps = locs.Camps
	return out
}

func (s *Service) Models() []ModelInfo {
	langs := make([]string, len(ai.Supported))
	for i, t := range ai.Supported {
		langs[i] = ai.Base(t)
	}
	return []ModelInfo{{
		Name:      s.explainer.Model(),
		Task:      "text2text-generation",
		Languages: langs,
		Default:   true,
	}}
}
