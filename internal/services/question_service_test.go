package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/prepwise/internal/cache"
	"github.com/yoockh/prepwise/internal/models"
	"github.com/yoockh/prepwise/internal/utils"
)

func TestGenerateQuestionsInsertsFiveInOrder(t *testing.T) {
	e := newTestEnv(t)
	s := e.newSession(t, models.CategoryTechnical)

	qs, err := e.questions.Generate(context.Background(), s.ID)
	require.NoError(t, err)
	require.Len(t, qs, 5)

	for i, q := range qs {
		assert.Equal(t, i+1, q.QuestionOrder)
		assert.Equal(t, s.ID, q.SessionID)
	}
	assert.Equal(t, "Walk me through a Go service you built.", qs[0].QuestionText)
	assert.Equal(t, "technical", qs[2].QuestionType, "empty type falls back to the category")
	assert.Equal(t, models.StatusQuestionsGenerated, e.status(t, s.ID))

	stored, err := e.questions.List(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, qs, stored)

	req := e.llm.calls[0]
	assert.Contains(t, req.Prompt, "Skills: Not specified")
	assert.Contains(t, req.System, "(technical)")
}

func TestGenerateQuestionsIsOneTime(t *testing.T) {
	e := newTestEnv(t)
	s, first := e.withQuestions(t)

	second, err := e.questions.Generate(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, e.llm.callCount("generate_questions"))
	assert.Equal(t, []string{OutcomeOK, OutcomeNoop}, e.events.outcomes(StepGenerateQuestions))
}

func TestGenerateQuestionsUsesParsedResume(t *testing.T) {
	e := newTestEnv(t)
	s := e.newSession(t, models.CategoryCommunication)
	_, err := e.resume.Parse(context.Background(), resumeInput(s.ID))
	require.NoError(t, err)

	_, err = e.questions.Generate(context.Background(), s.ID)
	require.NoError(t, err)

	req := e.llm.calls[len(e.llm.calls)-1]
	assert.Contains(t, req.Prompt, "Name: Ada Lovelace")
	assert.Contains(t, req.Prompt, "Skills: Go, Postgres")
	assert.Contains(t, req.System, "stakeholder management")
}

func TestGenerateQuestionsFailures(t *testing.T) {
	t.Run("ai error is fatal", func(t *testing.T) {
		e := newTestEnv(t)
		e.llm.errs["generate_questions"] = errBoom
		s := e.newSession(t, models.CategoryTechnical)

		_, err := e.questions.Generate(context.Background(), s.ID)
		require.Error(t, err)
		assert.Equal(t, 500, utils.HTTPStatus(err))
		assert.Equal(t, "Failed to generate questions", utils.PublicMessage(err))
		assert.Equal(t, models.StatusCreated, e.status(t, s.ID))
		assert.Equal(t, []string{OutcomeFailed}, e.events.outcomes(StepGenerateQuestions))
	})

	t.Run("wrong question count", func(t *testing.T) {
		e := newTestEnv(t)
		e.llm.responses["generate_questions"] = `{"questions":[{"text":"only one","type":"x"}]}`
		s := e.newSession(t, models.CategoryTechnical)

		_, err := e.questions.Generate(context.Background(), s.ID)
		assert.Equal(t, "Failed to generate questions", utils.PublicMessage(err))
	})

	t.Run("save fails", func(t *testing.T) {
		e := newTestEnv(t)
		e.store.failCreateQuestions = errBoom
		s := e.newSession(t, models.CategoryTechnical)

		_, err := e.questions.Generate(context.Background(), s.ID)
		assert.Equal(t, "Failed to save questions", utils.PublicMessage(err))
	})

	t.Run("session missing", func(t *testing.T) {
		e := newTestEnv(t)
		_, err := e.questions.Generate(context.Background(), uuid.NewString())
		assert.True(t, utils.IsCode(err, utils.CodeNotFound))

		_, err = e.questions.Generate(context.Background(), "")
		assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	})
}

func TestGenerateQuestionsLock(t *testing.T) {
	e := newTestEnv(t)
	s := e.newSession(t, models.CategoryTechnical)

	release, ok, err := e.locker.Acquire(context.Background(), cache.LockKey(s.ID, StepGenerateQuestions), 0)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = e.questions.Generate(context.Background(), s.ID)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
	assert.Equal(t, "Generation already in progress", utils.PublicMessage(err))
	assert.Zero(t, e.llm.callCount("generate_questions"))

	release()
	_, err = e.questions.Generate(context.Background(), s.ID)
	require.NoError(t, err)
}

func TestGenerateQuestionsProceedsWithoutLockStore(t *testing.T) {
	e := newTestEnv(t)
	e.locker.err = errBoom
	s := e.newSession(t, models.CategoryTechnical)

	qs, err := e.questions.Generate(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Len(t, qs, 5)
}

func TestListQuestionsCachesCompleteSet(t *testing.T) {
	e := newTestEnv(t)
	s := e.newSession(t, models.CategoryTechnical)

	empty, err := e.questions.List(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotContains(t, e.cache.data, cache.QuestionsKey(s.ID))

	_, err = e.questions.Generate(context.Background(), s.ID)
	require.NoError(t, err)
	qs, err := e.questions.List(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Len(t, qs, 5)
	assert.Contains(t, e.cache.data, cache.QuestionsKey(s.ID))
}
