package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/prepwise/internal/audio"
	"github.com/yoockh/prepwise/internal/models"
	"github.com/yoockh/prepwise/internal/providers/stt"
	pgrepo "github.com/yoockh/prepwise/internal/repositories/postgres"
	"github.com/yoockh/prepwise/internal/storage"
	"github.com/yoockh/prepwise/internal/utils"
)

// TranscriptionUnavailable replaces the answer text when a recording was
// stored but could not be transcribed.
const TranscriptionUnavailable = "[Voice answer recorded - transcription unavailable]"

type SubmitAnswerInput struct {
	SessionID     string
	QuestionID    string
	AnswerText    string
	AnswerMode    string
	ResponseTime  int
	AudioData     string // base64, optionally a data URL
	AudioDuration int
}

type AnswerService interface {
	Submit(ctx context.Context, in SubmitAnswerInput) (*models.Answer, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.Answer, error)
}

type answerService struct {
	sessions  pgrepo.SessionRepository
	questions pgrepo.QuestionRepository
	answers   pgrepo.AnswerRepository
	bucket    storage.Uploader
	stt       stt.Provider // nil disables transcription
	language  string
	events    EventRecorder
	log       *logrus.Logger
}

func NewAnswerService(
	sessions pgrepo.SessionRepository,
	questions pgrepo.QuestionRepository,
	answers pgrepo.AnswerRepository,
	bucket storage.Uploader,
	transcriber stt.Provider,
	language string,
	events EventRecorder,
	log *logrus.Logger,
) AnswerService {
	if log == nil {
		log = logrus.New()
	}
	return &answerService{
		sessions: sessions, questions: questions, answers: answers, bucket: bucket,
		stt: transcriber, language: language, events: events, log: log,
	}
}

func (s *answerService) Submit(ctx context.Context, in SubmitAnswerInput) (*models.Answer, error) {
	const op = "AnswerService.Submit"
	started := nowFunc()

	if in.SessionID == "" || in.QuestionID == "" || in.AnswerMode == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Session ID, question ID, and answer mode are required", nil)
	}
	mode := models.AnswerMode(in.AnswerMode)
	if !mode.Valid() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Answer mode must be text or voice", nil)
	}
	if in.ResponseTime < 0 || in.AudioDuration < 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Response time and audio duration must not be negative", nil)
	}
	if _, err := uuid.Parse(in.QuestionID); err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Question ID is not a valid UUID", err)
	}

	session, err := loadSession(ctx, s.sessions, op, in.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.Status.In(models.StatusQuestionsGenerated, models.StatusAnswering) {
		return nil, utils.E(utils.CodeConflict, op, "Session is not accepting answers", utils.ErrConflict)
	}
	q, err := s.questions.GetByID(ctx, in.QuestionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Question not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "Failed to fetch question", err)
	}
	if q.SessionID != session.ID {
		return nil, utils.E(utils.CodeNotFound, op, "Question not found", utils.ErrNotFound)
	}

	log := s.log.WithFields(logrus.Fields{"op": op, "session_id": session.ID, "question_id": q.ID})

	answer := &models.Answer{
		ID:            uuid.NewString(),
		SessionID:     session.ID,
		QuestionID:    q.ID,
		AnswerText:    in.AnswerText,
		AnswerMode:    mode,
		ResponseTime:  in.ResponseTime,
		AudioDuration: in.AudioDuration,
	}

	degraded := false
	if mode == models.AnswerModeVoice && in.AudioData != "" {
		recording, err := audio.DecodeBase64Chunked(in.AudioData, audio.DefaultChunkSize)
		if err != nil {
			return nil, utils.E(utils.CodeInvalidArgument, op, "Audio data is not valid base64", err)
		}
		degraded = s.processRecording(ctx, log, answer, recording)
	}

	if err := s.answers.Create(ctx, answer); err != nil {
		switch {
		case errors.Is(err, utils.ErrNotFound):
			return nil, utils.E(utils.CodeNotFound, op, "Session not found", err)
		case errors.Is(err, utils.ErrConflict):
			return nil, utils.E(utils.CodeConflict, op, "Question has already been answered", err)
		}
		log.WithError(err).Error("save answer failed")
		ev := newEvent(session.ID, StepSubmitAnswer, OutcomeFailed, started)
		ev.Detail = err.Error()
		s.events.Record(ctx, ev)
		return nil, utils.E(utils.CodeInternal, op, "Failed to save answer", err)
	}

	outcome := OutcomeOK
	if degraded {
		outcome = OutcomeDegraded
	}
	ev := newEvent(session.ID, StepSubmitAnswer, outcome, started)
	ev.Status = models.StatusAnswering
	s.events.Record(ctx, ev)
	return answer, nil
}

// processRecording stores the audio and, when no text was typed, fills the
// answer text from a transcription. Both steps degrade instead of failing.
func (s *answerService) processRecording(ctx context.Context, log *logrus.Entry, a *models.Answer, recording []byte) bool {
	started := nowFunc()
	objectName := fmt.Sprintf("%s/%s_%d.webm", a.SessionID, a.QuestionID, nowFunc().UnixMilli())

	stored, err := s.bucket.Upload(ctx, objectName, "audio/webm", bytes.NewReader(recording))
	if err != nil {
		log.WithError(err).WithField("degraded", true).Warn("voice upload failed")
		ev := newEvent(a.SessionID, StepVoiceUpload, OutcomeDegraded, started)
		ev.Detail = err.Error()
		s.events.Record(ctx, ev)
		return true
	}
	a.AudioURL = &stored

	if s.stt == nil || a.AnswerText != "" {
		return false
	}

	started = nowFunc()
	text, conf, err := s.stt.Transcribe(ctx, recording, s.language)
	if err != nil {
		log.WithError(err).WithField("degraded", true).Warn("transcription failed")
		a.AnswerText = TranscriptionUnavailable
		ev := newEvent(a.SessionID, StepTranscribe, OutcomeDegraded, started)
		ev.Detail = err.Error()
		s.events.Record(ctx, ev)
		return true
	}
	log.WithField("confidence", conf).Debug("transcription done")
	a.AnswerText = text
	s.events.Record(ctx, newEvent(a.SessionID, StepTranscribe, OutcomeOK, started))
	return false
}

func (s *answerService) ListBySession(ctx context.Context, sessionID string) ([]models.Answer, error) {
	const op = "AnswerService.ListBySession"

	session, err := loadSession(ctx, s.sessions, op, sessionID)
	if err != nil {
		return nil, err
	}
	rows, err := s.answers.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to fetch answers", err)
	}
	if rows == nil {
		rows = []models.Answer{}
	}
	return rows, nil
}
