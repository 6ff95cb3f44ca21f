package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/prepwise/internal/models"
	"github.com/yoockh/prepwise/internal/prompts"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

const questionsJSON = `{"questions":[
	{"text":"Walk me through a Go service you built.","type":"technical"},
	{"text":"How do you design a database schema?","type":"technical"},
	{"text":"Describe a hard production incident.","type":""},
	{"text":"How would you test an AI integration?","type":"technical"},
	{"text":"Explain a trade-off you made recently.","type":"technical"}
]}`

// sub-scores sum to 298, a mean of 74.5
const evaluationJSON = `{
	"clarity_score": 80, "content_score": 75, "confidence_score": 70, "structure_score": 73,
	"strengths": ["Clear examples", "Good structure", "Relevant depth"],
	"improvements": ["Be concise", "Quantify impact", "Slow down"],
	"feedback": [
		{"question":"q1","feedback":"f1"},{"question":"q2","feedback":"f2"},{"question":"q3","feedback":"f3"},
		{"question":"q4","feedback":"f4"},{"question":"q5","feedback":"f5"},{"question":"q6","feedback":"f6"}
	]
}`

const resumeJSON = `{"name":"Ada Lovelace","email":"ada@example.com","skills":["Go","Postgres"]}`

type testEnv struct {
	store   *memStore
	llm     *fakeLLM
	resumes *memBucket
	voices  *memBucket
	stt     *fakeSTT
	events  *captureRecorder
	cache   *memCache
	locker  *memLocker

	sessions  SessionService
	resume    ResumeService
	questions QuestionService
	answers   AnswerService
	reports   ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	prev := nowFunc
	nowFunc = func() time.Time { return fixedNow }
	t.Cleanup(func() { nowFunc = prev })

	ps, err := prompts.Default()
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	e := &testEnv{
		store: newMemStore(),
		llm: &fakeLLM{
			responses: map[string]string{
				"parse_resume":       resumeJSON,
				"generate_questions": questionsJSON,
				"evaluate_interview": evaluationJSON,
			},
			errs: map[string]error{},
		},
		resumes: newMemBucket(),
		voices:  newMemBucket(),
		stt:     &fakeSTT{text: "transcribed answer"},
		events:  &captureRecorder{},
		cache:   newMemCache(),
		locker:  newMemLocker(),
	}
	sessions := memSessions{e.store}
	questions := memQuestions{e.store}
	answers := memAnswers{e.store}
	reports := memReports{e.store}
	cfg := GenerationConfig{CacheTTL: time.Minute, LockTTL: time.Minute}

	e.sessions = NewSessionService(sessions, e.events)
	e.resume = NewResumeService(sessions, e.resumes, e.llm, ps, e.events, log)
	e.questions = NewQuestionService(sessions, questions, e.llm, ps, e.cache, e.locker, e.events, log, cfg)
	e.answers = NewAnswerService(sessions, questions, answers, e.voices, e.stt, "en-US", e.events, log)
	e.reports = NewReportService(sessions, questions, answers, reports, e.llm, ps, e.cache, e.locker, e.events, log, cfg)
	return e
}

func (e *testEnv) newSession(t *testing.T, category models.Category) *models.Session {
	t.Helper()
	s, err := e.sessions.Create(context.Background(), string(category))
	require.NoError(t, err)
	return s
}

func (e *testEnv) withQuestions(t *testing.T) (*models.Session, []models.Question) {
	t.Helper()
	s := e.newSession(t, models.CategoryTechnical)
	qs, err := e.questions.Generate(context.Background(), s.ID)
	require.NoError(t, err)
	require.Len(t, qs, models.QuestionsPerSession)
	return s, qs
}

func (e *testEnv) status(t *testing.T, id string) models.SessionStatus {
	t.Helper()
	s, err := e.sessions.Get(context.Background(), id)
	require.NoError(t, err)
	return s.Status
}

func textAnswer(sessionID, questionID string, i int) SubmitAnswerInput {
	return SubmitAnswerInput{
		SessionID:    sessionID,
		QuestionID:   questionID,
		AnswerText:   fmt.Sprintf("A thoughtful answer number %d. %s", i, strings.Repeat("detail ", 3)),
		AnswerMode:   "text",
		ResponseTime: 10 * i,
	}
}
