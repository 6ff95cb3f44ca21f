package handlers

import (
	"context"

	"github.com/yoockh/prepwise/internal/models"
	"github.com/yoockh/prepwise/internal/services"
	"github.com/yoockh/prepwise/internal/utils"
)

const testSessionID = "0b6f2c52-3f0e-4d57-9a55-7c3c1b0e9d11"

type fakeSessions struct {
	created  string
	sessions map[string]*models.Session
	err      error
}

func (f *fakeSessions) Create(_ context.Context, category string) (*models.Session, error) {
	f.created = category
	if f.err != nil {
		return nil, f.err
	}
	if !models.Category(category).Valid() {
		return nil, utils.E(utils.CodeInvalidArgument, "SessionService.Create", "Category must be one of technical, behavioral, communication", nil)
	}
	return &models.Session{ID: testSessionID, Category: models.Category(category), Status: models.StatusCreated}, nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (*models.Session, error) {
	if s, ok := f.sessions[id]; ok {
		return s, nil
	}
	return nil, utils.E(utils.CodeNotFound, "SessionService.Get", "Session not found", utils.ErrNotFound)
}

type fakeResume struct {
	got services.ParseResumeInput
	err error
}

func (f *fakeResume) Parse(_ context.Context, in services.ParseResumeInput) (*services.ParseResumeResult, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	if len(in.Data) == 0 || in.Category == "" {
		return nil, utils.E(utils.CodeInvalidArgument, "ResumeService.Parse", "File and category are required", nil)
	}
	return &services.ParseResumeResult{SessionID: in.SessionID, ParsedData: models.DefaultResumeData(), Degraded: true}, nil
}

type fakeQuestions struct {
	generated string
	list      []models.Question
	err       error
}

func (f *fakeQuestions) Generate(_ context.Context, sessionID string) ([]models.Question, error) {
	f.generated = sessionID
	return f.list, f.err
}

func (f *fakeQuestions) List(context.Context, string) ([]models.Question, error) {
	return f.list, f.err
}

type fakeAnswers struct {
	got services.SubmitAnswerInput
	err error
}

func (f *fakeAnswers) Submit(_ context.Context, in services.SubmitAnswerInput) (*models.Answer, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Answer{ID: "a1", SessionID: in.SessionID, QuestionID: in.QuestionID, AnswerText: in.AnswerText, AnswerMode: models.AnswerMode(in.AnswerMode)}, nil
}

func (f *fakeAnswers) ListBySession(context.Context, string) ([]models.Answer, error) {
	return nil, f.err
}

type fakeReports struct {
	view *services.ReportView
	err  error
}

func (f *fakeReports) Generate(context.Context, string) (*services.ReportView, error) {
	return f.view, f.err
}

func (f *fakeReports) Get(context.Context, string) (*services.ReportView, error) {
	return f.view, f.err
}

type fakeEventLog struct {
	events []models.SessionEvent
	err    error
}

func (f *fakeEventLog) Insert(context.Context, *models.SessionEvent) error { return nil }

func (f *fakeEventLog) ListBySession(context.Context, string, int64) ([]models.SessionEvent, error) {
	return f.events, f.err
}
