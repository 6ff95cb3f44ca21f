package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/prepwise/internal/models"
)

// Steps of the interview workflow, as recorded on session events.
const (
	StepCreateSession     = "create_session"
	StepParseResume       = "parse_resume"
	StepGenerateQuestions = "generate_questions"
	StepSubmitAnswer      = "submit_answer"
	StepVoiceUpload       = "voice_upload"
	StepTranscribe        = "transcribe"
	StepGenerateReport    = "generate_report"
)

type Policy string

const (
	// PolicyFatal fails the request when the dependency fails.
	PolicyFatal Policy = "fatal"
	// PolicyDegrade substitutes a safe default and lets the request succeed.
	PolicyDegrade Policy = "degrade"
)

// StepPolicies is how each step reacts to a failing external service.
// Questions and scores have no safe default, so those steps are fatal.
var StepPolicies = map[string]Policy{
	StepCreateSession:     PolicyFatal,
	StepParseResume:       PolicyDegrade,
	StepGenerateQuestions: PolicyFatal,
	StepSubmitAnswer:      PolicyFatal,
	StepVoiceUpload:       PolicyDegrade,
	StepTranscribe:        PolicyDegrade,
	StepGenerateReport:    PolicyFatal,
}

const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeNoop     = "noop"
	OutcomeFailed   = "failed"
)

type EventRecorder interface {
	Record(ctx context.Context, e models.SessionEvent)
}

// EventQueue hands events to the background writer.
type EventQueue interface {
	Enqueue(ctx context.Context, e *models.SessionEvent) error
}

type eventRecorder struct {
	q   EventQueue
	log *logrus.Logger
}

// NewEventRecorder never fails the caller: a queue error is only logged.
func NewEventRecorder(q EventQueue, log *logrus.Logger) EventRecorder {
	if log == nil {
		log = logrus.New()
	}
	return &eventRecorder{q: q, log: log}
}

func (r *eventRecorder) Record(ctx context.Context, e models.SessionEvent) {
	if e.Timestamp.IsZero() {
		e.Timestamp = nowFunc().UTC()
	}
	if e.Policy == "" {
		e.Policy = string(StepPolicies[e.Step])
	}
	e.Degraded = e.Degraded || e.Outcome == OutcomeDegraded
	if err := r.q.Enqueue(ctx, &e); err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"session_id": e.SessionID,
			"step":       e.Step,
		}).Warn("session event dropped")
	}
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, models.SessionEvent) {}

// NopRecorder discards events.
func NopRecorder() EventRecorder { return nopRecorder{} }

var nowFunc = time.Now

func newEvent(sessionID, step, outcome string, started time.Time) models.SessionEvent {
	return models.SessionEvent{
		SessionID: sessionID,
		Step:      step,
		Outcome:   outcome,
		LatencyMS: nowFunc().Sub(started).Milliseconds(),
	}
}
