package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/prepwise/internal/cache"
	"github.com/yoockh/prepwise/internal/models"
	"github.com/yoockh/prepwise/internal/prompts"
	"github.com/yoockh/prepwise/internal/providers/llm"
	pgrepo "github.com/yoockh/prepwise/internal/repositories/postgres"
	"github.com/yoockh/prepwise/internal/utils"
)

type QuestionService interface {
	// Generate creates the question set once. Later calls return the stored set.
	Generate(ctx context.Context, sessionID string) ([]models.Question, error)
	List(ctx context.Context, sessionID string) ([]models.Question, error)
}

// GenerationConfig tunes the cache and lock used by the generation steps.
type GenerationConfig struct {
	CacheTTL time.Duration
	LockTTL  time.Duration
}

func (c GenerationConfig) withDefaults() GenerationConfig {
	if c.CacheTTL <= 0 {
		c.CacheTTL = 10 * time.Minute
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 2 * time.Minute
	}
	return c
}

type questionService struct {
	sessions  pgrepo.SessionRepository
	questions pgrepo.QuestionRepository
	llm       llm.Provider
	prompts   *prompts.Set
	cache     cache.Cache
	locker    cache.Locker
	events    EventRecorder
	log       *logrus.Logger
	cfg       GenerationConfig
}

func NewQuestionService(
	sessions pgrepo.SessionRepository,
	questions pgrepo.QuestionRepository,
	provider llm.Provider,
	ps *prompts.Set,
	c cache.Cache,
	locker cache.Locker,
	events EventRecorder,
	log *logrus.Logger,
	cfg GenerationConfig,
) QuestionService {
	if log == nil {
		log = logrus.New()
	}
	cfg = cfg.withDefaults()
	return &questionService{
		sessions: sessions, questions: questions, llm: provider, prompts: ps,
		cache: c, locker: locker, events: events, log: log, cfg: cfg,
	}
}

type generatedQuestions struct {
	Questions []struct {
		Text string `json:"text"`
		Type string `json:"type"`
	} `json:"questions"`
}

func (s *questionService) Generate(ctx context.Context, sessionID string) ([]models.Question, error) {
	const op = "QuestionService.Generate"
	started := nowFunc()

	session, err := loadSession(ctx, s.sessions, op, sessionID)
	if err != nil {
		return nil, err
	}
	log := s.log.WithFields(logrus.Fields{"op": op, "session_id": session.ID})

	if !session.Status.In(models.StatusCreated, models.StatusResumeParsed) {
		return s.existing(ctx, op, session, started)
	}

	release, err := acquire(ctx, s.locker, s.cfg.LockTTL, log, op, session.ID, StepGenerateQuestions)
	if err != nil {
		return nil, err
	}
	defer release()

	resume, err := session.Resume()
	if err != nil {
		// unreadable resume_data is treated like a missing resume
		log.WithError(err).Warn("stored resume_data undecodable")
		resume = nil
	}

	req, err := s.prompts.QuestionsRequest(session.Category, resume)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to generate questions", err)
	}
	raw, err := s.llm.GenerateStructured(ctx, req)
	if err != nil {
		log.WithError(err).Error("question generation failed")
		s.fail(ctx, session.ID, started, err)
		return nil, utils.E(utils.CodeInternal, op, "Failed to generate questions", err)
	}

	var gen generatedQuestions
	if err := json.Unmarshal(raw, &gen); err != nil || len(gen.Questions) != models.QuestionsPerSession {
		if err == nil {
			err = llm.ErrNoStructuredResult
		}
		log.WithError(err).Error("question generation returned an unusable result")
		s.fail(ctx, session.ID, started, err)
		return nil, utils.E(utils.CodeInternal, op, "Failed to generate questions", err)
	}

	now := nowFunc().UTC()
	rows := make([]models.Question, 0, len(gen.Questions))
	for i, q := range gen.Questions {
		typ := q.Type
		if typ == "" {
			typ = string(session.Category)
		}
		rows = append(rows, models.Question{
			ID:            uuid.NewString(),
			SessionID:     session.ID,
			QuestionText:  q.Text,
			QuestionType:  typ,
			QuestionOrder: i + 1,
			CreatedAt:     now,
		})
	}

	if err := s.questions.CreateForSession(ctx, session.ID, rows); err != nil {
		switch {
		case errors.Is(err, utils.ErrConflict):
			// another request finished first; its set wins
			return s.existing(ctx, op, session, started)
		case errors.Is(err, utils.ErrNotFound):
			return nil, utils.E(utils.CodeNotFound, op, "Session not found", err)
		}
		log.WithError(err).Error("save questions failed")
		s.fail(ctx, session.ID, started, err)
		return nil, utils.E(utils.CodeInternal, op, "Failed to save questions", err)
	}

	s.invalidate(ctx, session.ID)
	ev := newEvent(session.ID, StepGenerateQuestions, OutcomeOK, started)
	ev.Status = models.StatusQuestionsGenerated
	s.events.Record(ctx, ev)
	return rows, nil
}

func (s *questionService) existing(ctx context.Context, op string, session *models.Session, started time.Time) ([]models.Question, error) {
	rows, err := s.questions.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to fetch questions", err)
	}
	ev := newEvent(session.ID, StepGenerateQuestions, OutcomeNoop, started)
	ev.Status = session.Status
	s.events.Record(ctx, ev)
	return rows, nil
}

func (s *questionService) fail(ctx context.Context, sessionID string, started time.Time, err error) {
	ev := newEvent(sessionID, StepGenerateQuestions, OutcomeFailed, started)
	ev.Detail = err.Error()
	s.events.Record(ctx, ev)
}

func (s *questionService) invalidate(ctx context.Context, sessionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cache.QuestionsKey(sessionID)); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("questions cache invalidation failed")
	}
}

func (s *questionService) List(ctx context.Context, sessionID string) ([]models.Question, error) {
	const op = "QuestionService.List"

	session, err := loadSession(ctx, s.sessions, op, sessionID)
	if err != nil {
		return nil, err
	}

	key := cache.QuestionsKey(session.ID)
	if s.cache != nil {
		var cached []models.Question
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	rows, err := s.questions.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to fetch questions", err)
	}
	if rows == nil {
		rows = []models.Question{}
	}
	// only complete sets are immutable enough to cache
	if s.cache != nil && len(rows) > 0 {
		_ = s.cache.SetJSON(ctx, key, rows, s.cfg.CacheTTL)
	}
	return rows, nil
}
