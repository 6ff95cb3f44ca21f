package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/prepwise/internal/models"
	"github.com/yoockh/prepwise/internal/utils"
)

var recording = []byte("\x1aE\xdf\xa3 fake webm payload")

func voiceAnswer(sessionID, questionID, text string) SubmitAnswerInput {
	return SubmitAnswerInput{
		SessionID:     sessionID,
		QuestionID:    questionID,
		AnswerText:    text,
		AnswerMode:    "voice",
		ResponseTime:  42,
		AudioData:     "data:audio/webm;base64," + base64.StdEncoding.EncodeToString(recording),
		AudioDuration: 40,
	}
}

func TestSubmitTextAnswerNeverTranscribes(t *testing.T) {
	e := newTestEnv(t)
	s, qs := e.withQuestions(t)

	in := textAnswer(s.ID, qs[0].ID, 1)
	in.AudioData = base64.StdEncoding.EncodeToString(recording)
	a, err := e.answers.Submit(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, in.AnswerText, a.AnswerText)
	assert.Equal(t, models.AnswerModeText, a.AnswerMode)
	assert.Equal(t, 0, a.AudioDuration)
	assert.Nil(t, a.AudioURL)
	assert.Zero(t, e.stt.calls)
	assert.Empty(t, e.voices.names())
	assert.Equal(t, models.StatusAnswering, e.status(t, s.ID))
}

func TestSubmitVoiceAnswerTranscribes(t *testing.T) {
	e := newTestEnv(t)
	s, qs := e.withQuestions(t)

	a, err := e.answers.Submit(context.Background(), voiceAnswer(s.ID, qs[1].ID, ""))
	require.NoError(t, err)

	wantPath := fmt.Sprintf("%s/%s_%d.webm", s.ID, qs[1].ID, fixedNow.UnixMilli())
	require.NotNil(t, a.AudioURL)
	assert.Equal(t, wantPath, *a.AudioURL)
	assert.Equal(t, "audio/webm", e.voices.types[wantPath])
	assert.Equal(t, recording, e.voices.objects[wantPath])
	assert.Equal(t, "transcribed answer", a.AnswerText)
	assert.Equal(t, 40, a.AudioDuration)
	assert.Equal(t, 1, e.stt.calls)
}

func TestSubmitVoiceAnswerKeepsTypedText(t *testing.T) {
	e := newTestEnv(t)
	s, qs := e.withQuestions(t)

	a, err := e.answers.Submit(context.Background(), voiceAnswer(s.ID, qs[0].ID, "typed as well"))
	require.NoError(t, err)
	assert.Equal(t, "typed as well", a.AnswerText)
	assert.NotNil(t, a.AudioURL)
	assert.Zero(t, e.stt.calls)
}

func TestSubmitVoiceAnswerTranscriptionFailure(t *testing.T) {
	e := newTestEnv(t)
	e.stt.err = errBoom
	s, qs := e.withQuestions(t)

	a, err := e.answers.Submit(context.Background(), voiceAnswer(s.ID, qs[0].ID, ""))
	require.NoError(t, err)
	assert.Equal(t, TranscriptionUnavailable, a.AnswerText)
	assert.NotNil(t, a.AudioURL)
	assert.Equal(t, []string{OutcomeDegraded}, e.events.outcomes(StepTranscribe))
	assert.Equal(t, []string{OutcomeDegraded}, e.events.outcomes(StepSubmitAnswer))
}

func TestSubmitVoiceAnswerUploadFailureStillInserts(t *testing.T) {
	for _, text := range []string{"", "spoken and typed"} {
		t.Run(fmt.Sprintf("text=%q", text), func(t *testing.T) {
			e := newTestEnv(t)
			e.voices.uploadErr = errBoom
			s, qs := e.withQuestions(t)

			a, err := e.answers.Submit(context.Background(), voiceAnswer(s.ID, qs[0].ID, text))
			require.NoError(t, err)
			assert.Nil(t, a.AudioURL)
			assert.Equal(t, text, a.AnswerText)
			assert.Zero(t, e.stt.calls)

			stored, err := e.answers.ListBySession(context.Background(), s.ID)
			require.NoError(t, err)
			require.Len(t, stored, 1)
			assert.Nil(t, stored[0].AudioURL)
		})
	}
}

func TestSubmitVoiceAnswerWithoutTranscriber(t *testing.T) {
	e := newTestEnv(t)
	e.answers = NewAnswerService(memSessions{e.store}, memQuestions{e.store}, memAnswers{e.store}, e.voices, nil, "", e.events, nil)
	s, qs := e.withQuestions(t)

	a, err := e.answers.Submit(context.Background(), voiceAnswer(s.ID, qs[0].ID, ""))
	require.NoError(t, err)
	assert.Equal(t, "", a.AnswerText)
	assert.NotNil(t, a.AudioURL)
}

func TestSubmitAnswerValidation(t *testing.T) {
	e := newTestEnv(t)
	s, qs := e.withQuestions(t)
	required := "Session ID, question ID, and answer mode are required"

	tests := []struct {
		name    string
		in      SubmitAnswerInput
		code    utils.Code
		message string
	}{
		{"missing session", SubmitAnswerInput{QuestionID: qs[0].ID, AnswerMode: "text"}, utils.CodeInvalidArgument, required},
		{"missing question", SubmitAnswerInput{SessionID: s.ID, AnswerMode: "text"}, utils.CodeInvalidArgument, required},
		{"missing mode", SubmitAnswerInput{SessionID: s.ID, QuestionID: qs[0].ID}, utils.CodeInvalidArgument, required},
		{"bad mode", SubmitAnswerInput{SessionID: s.ID, QuestionID: qs[0].ID, AnswerMode: "video"}, utils.CodeInvalidArgument, "Answer mode must be text or voice"},
		{"negative time", SubmitAnswerInput{SessionID: s.ID, QuestionID: qs[0].ID, AnswerMode: "text", ResponseTime: -1}, utils.CodeInvalidArgument, "Response time and audio duration must not be negative"},
		{"bad audio", SubmitAnswerInput{SessionID: s.ID, QuestionID: qs[0].ID, AnswerMode: "voice", AudioData: "%%%"}, utils.CodeInvalidArgument, "Audio data is not valid base64"},
		{"unknown question", SubmitAnswerInput{SessionID: s.ID, QuestionID: uuid.NewString(), AnswerMode: "text"}, utils.CodeNotFound, "Question not found"},
		{"unknown session", SubmitAnswerInput{SessionID: uuid.NewString(), QuestionID: qs[0].ID, AnswerMode: "text"}, utils.CodeNotFound, "Session not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.answers.Submit(context.Background(), tt.in)
			require.Error(t, err)
			assert.True(t, utils.IsCode(err, tt.code), err.Error())
			assert.Equal(t, tt.message, utils.PublicMessage(err))
		})
	}
	assert.Empty(t, e.store.answers)
}

func TestSubmitAnswerStateRules(t *testing.T) {
	t.Run("before questions", func(t *testing.T) {
		e := newTestEnv(t)
		s := e.newSession(t, models.CategoryTechnical)
		_, err := e.answers.Submit(context.Background(), textAnswer(s.ID, uuid.NewString(), 1))
		assert.True(t, utils.IsCode(err, utils.CodeConflict))
	})

	t.Run("question from another session", func(t *testing.T) {
		e := newTestEnv(t)
		s, _ := e.withQuestions(t)
		_, other := e.withQuestions(t)
		_, err := e.answers.Submit(context.Background(), textAnswer(s.ID, other[0].ID, 1))
		assert.True(t, utils.IsCode(err, utils.CodeNotFound))
	})

	t.Run("second answer for a question", func(t *testing.T) {
		e := newTestEnv(t)
		s, qs := e.withQuestions(t)
		_, err := e.answers.Submit(context.Background(), textAnswer(s.ID, qs[0].ID, 1))
		require.NoError(t, err)
		_, err = e.answers.Submit(context.Background(), textAnswer(s.ID, qs[0].ID, 2))
		assert.True(t, utils.IsCode(err, utils.CodeConflict))
		assert.Equal(t, "Question has already been answered", utils.PublicMessage(err))
	})

	t.Run("after report", func(t *testing.T) {
		e := newTestEnv(t)
		s, qs := e.withQuestions(t)
		_, err := e.reports.Generate(context.Background(), s.ID)
		require.NoError(t, err)
		_, err = e.answers.Submit(context.Background(), textAnswer(s.ID, qs[0].ID, 1))
		assert.True(t, utils.IsCode(err, utils.CodeConflict))
	})

	t.Run("insert failure", func(t *testing.T) {
		e := newTestEnv(t)
		s, qs := e.withQuestions(t)
		e.store.failCreateAnswer = errBoom
		_, err := e.answers.Submit(context.Background(), textAnswer(s.ID, qs[0].ID, 1))
		assert.Equal(t, 500, utils.HTTPStatus(err))
		assert.Equal(t, "Failed to save answer", utils.PublicMessage(err))
	})
}
