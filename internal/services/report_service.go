package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/prepwise/internal/cache"
	"github.com/yoockh/prepwise/internal/models"
	"github.com/yoockh/prepwise/internal/prompts"
	"github.com/yoockh/prepwise/internal/providers/llm"
	pgrepo "github.com/yoockh/prepwise/internal/repositories/postgres"
	"github.com/yoockh/prepwise/internal/utils"
	"gorm.io/datatypes"
)

// ReportView is a stored report plus statistics derived at read time.
type ReportView struct {
	models.Report
	Statistics Statistics `json:"statistics"`
}

type ReportService interface {
	// Generate evaluates the session once. Later calls return the stored report.
	Generate(ctx context.Context, sessionID string) (*ReportView, error)
	Get(ctx context.Context, sessionID string) (*ReportView, error)
}

// Evaluation is the scoring returned by the generative text service.
type Evaluation struct {
	ClarityScore    Score                     `json:"clarity_score" validate:"min=0,max=100"`
	ContentScore    Score                     `json:"content_score" validate:"min=0,max=100"`
	ConfidenceScore Score                     `json:"confidence_score" validate:"min=0,max=100"`
	StructureScore  Score                     `json:"structure_score" validate:"min=0,max=100"`
	Strengths       []string                  `json:"strengths" validate:"min=3,max=5,dive,required"`
	Improvements    []string                  `json:"improvements" validate:"min=3,max=5,dive,required"`
	Feedback        []models.QuestionFeedback `json:"feedback"`
}

var validate = validator.New()

// Score is an integer sub-score. Whole numbers written with a fraction part,
// ex: 85.0, are accepted the same way the response schema accepts them.
type Score int

func (s *Score) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return fmt.Errorf("score %s is not a whole number", b)
	}
	*s = Score(f)
	return nil
}

type reportService struct {
	sessions  pgrepo.SessionRepository
	questions pgrepo.QuestionRepository
	answers   pgrepo.AnswerRepository
	reports   pgrepo.ReportRepository
	llm       llm.Provider
	prompts   *prompts.Set
	cache     cache.Cache
	locker    cache.Locker
	events    EventRecorder
	log       *logrus.Logger
	cfg       GenerationConfig
}

func NewReportService(
	sessions pgrepo.SessionRepository,
	questions pgrepo.QuestionRepository,
	answers pgrepo.AnswerRepository,
	reports pgrepo.ReportRepository,
	provider llm.Provider,
	ps *prompts.Set,
	c cache.Cache,
	locker cache.Locker,
	events EventRecorder,
	log *logrus.Logger,
	cfg GenerationConfig,
) ReportService {
	if log == nil {
		log = logrus.New()
	}
	return &reportService{
		sessions: sessions, questions: questions, answers: answers, reports: reports,
		llm: provider, prompts: ps, cache: c, locker: locker, events: events, log: log,
		cfg: cfg.withDefaults(),
	}
}

func (s *reportService) Generate(ctx context.Context, sessionID string) (*ReportView, error) {
	const op = "ReportService.Generate"
	started := nowFunc()

	session, err := loadSession(ctx, s.sessions, op, sessionID)
	if err != nil {
		return nil, err
	}
	log := s.log.WithFields(logrus.Fields{"op": op, "session_id": session.ID})

	if session.Status == models.StatusReported {
		return s.existing(ctx, op, session, started)
	}

	release, err := acquire(ctx, s.locker, s.cfg.LockTTL, log, op, session.ID, StepGenerateReport)
	if err != nil {
		return nil, err
	}
	defer release()

	questions, err := s.questions.ListBySession(ctx, session.ID)
	if err != nil {
		log.WithError(err).Error("fetch questions failed")
		return nil, utils.E(utils.CodeInternal, op, "Failed to fetch questions", err)
	}
	answers, err := s.answers.ListBySession(ctx, session.ID)
	if err != nil {
		log.WithError(err).Error("fetch answers failed")
		return nil, utils.E(utils.CodeInternal, op, "Failed to fetch answers", err)
	}

	req, err := s.prompts.EvaluationRequest(session.Category, session.ResumeData, Transcript(questions, answers))
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to evaluate interview", err)
	}
	raw, err := s.llm.GenerateStructured(ctx, req)
	if err != nil {
		log.WithError(err).Error("evaluation failed")
		s.fail(ctx, session.ID, started, err)
		return nil, utils.E(utils.CodeInternal, op, "Failed to evaluate interview", err)
	}
	eval, err := decodeEvaluation(raw)
	if err != nil {
		log.WithError(err).Error("evaluation returned an unusable result")
		s.fail(ctx, session.ID, started, err)
		return nil, utils.E(utils.CodeInternal, op, "Failed to evaluate interview", err)
	}

	feedback := eval.Feedback
	if feedback == nil {
		feedback = []models.QuestionFeedback{}
	}
	if len(feedback) > len(questions) {
		feedback = feedback[:len(questions)]
	}

	report := &models.Report{
		ID:              uuid.NewString(),
		SessionID:       session.ID,
		OverallScore:    OverallScore(int(eval.ClarityScore), int(eval.ContentScore), int(eval.ConfidenceScore), int(eval.StructureScore)),
		ClarityScore:    int(eval.ClarityScore),
		ContentScore:    int(eval.ContentScore),
		ConfidenceScore: int(eval.ConfidenceScore),
		StructureScore:  int(eval.StructureScore),
		Strengths:       pq.StringArray(eval.Strengths),
		Improvements:    pq.StringArray(eval.Improvements),
		Feedback:        datatypes.JSONSlice[models.QuestionFeedback](feedback),
		GeneratedAt:     nowFunc().UTC(),
	}

	if err := s.reports.CreateForSession(ctx, report); err != nil {
		switch {
		case errors.Is(err, utils.ErrConflict):
			// another request finished first; its report wins
			session.Status = models.StatusReported
			return s.existing(ctx, op, session, started)
		case errors.Is(err, utils.ErrNotFound):
			return nil, utils.E(utils.CodeNotFound, op, "Session not found", err)
		}
		log.WithError(err).Error("save report failed")
		s.fail(ctx, session.ID, started, err)
		return nil, utils.E(utils.CodeInternal, op, "Failed to save report", err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, cache.ReportKey(session.ID)); err != nil {
			log.WithError(err).Warn("report cache invalidation failed")
		}
	}
	ev := newEvent(session.ID, StepGenerateReport, OutcomeOK, started)
	ev.Status = models.StatusReported
	s.events.Record(ctx, ev)

	return &ReportView{Report: *report, Statistics: ComputeStatistics(questions, answers)}, nil
}

func decodeEvaluation(raw json.RawMessage) (*Evaluation, error) {
	var eval Evaluation
	if err := json.Unmarshal(raw, &eval); err != nil {
		return nil, err
	}
	if err := validate.Struct(&eval); err != nil {
		return nil, err
	}
	return &eval, nil
}

// Transcript pairs each question, in order, with its answer. Questions
// without an answer are marked as skipped.
func Transcript(questions []models.Question, answers []models.Answer) []prompts.QA {
	byQuestion := make(map[string]models.Answer, len(answers))
	for _, a := range answers {
		if _, seen := byQuestion[a.QuestionID]; !seen {
			byQuestion[a.QuestionID] = a
		}
	}
	out := make([]prompts.QA, 0, len(questions))
	for _, q := range questions {
		qa := prompts.QA{Question: q.QuestionText, Answer: prompts.NoAnswer, Mode: "none"}
		if a, ok := byQuestion[q.ID]; ok {
			if a.AnswerText != "" {
				qa.Answer = a.AnswerText
			}
			qa.Mode = string(a.AnswerMode)
			qa.ResponseTime = a.ResponseTime
		}
		out = append(out, qa)
	}
	return out
}

func (s *reportService) existing(ctx context.Context, op string, session *models.Session, started time.Time) (*ReportView, error) {
	view, err := s.load(ctx, op, session.ID)
	if err != nil {
		return nil, err
	}
	ev := newEvent(session.ID, StepGenerateReport, OutcomeNoop, started)
	ev.Status = session.Status
	s.events.Record(ctx, ev)
	return view, nil
}

func (s *reportService) fail(ctx context.Context, sessionID string, started time.Time, err error) {
	ev := newEvent(sessionID, StepGenerateReport, OutcomeFailed, started)
	ev.Detail = err.Error()
	s.events.Record(ctx, ev)
}

func (s *reportService) Get(ctx context.Context, sessionID string) (*ReportView, error) {
	const op = "ReportService.Get"

	session, err := loadSession(ctx, s.sessions, op, sessionID)
	if err != nil {
		return nil, err
	}

	key := cache.ReportKey(session.ID)
	if s.cache != nil {
		var cached ReportView
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	view, err := s.load(ctx, op, session.ID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, view, s.cfg.CacheTTL)
	}
	return view, nil
}

func (s *reportService) load(ctx context.Context, op, sessionID string) (*ReportView, error) {
	report, err := s.reports.GetBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Report not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "Failed to fetch report", err)
	}
	questions, err := s.questions.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to fetch questions", err)
	}
	answers, err := s.answers.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to fetch answers", err)
	}
	return &ReportView{Report: *report, Statistics: ComputeStatistics(questions, answers)}, nil
}
