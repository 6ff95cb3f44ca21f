package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/yoockh/prepwise/internal/models"
	pgrepo "github.com/yoockh/prepwise/internal/repositories/postgres"
	"github.com/yoockh/prepwise/internal/utils"
)

type SessionService interface {
	Create(ctx context.Context, category string) (*models.Session, error)
	Get(ctx context.Context, sessionID string) (*models.Session, error)
}

type sessionService struct {
	sessions pgrepo.SessionRepository
	events   EventRecorder
}

func NewSessionService(sessions pgrepo.SessionRepository, events EventRecorder) SessionService {
	return &sessionService{sessions: sessions, events: events}
}

func (s *sessionService) Create(ctx context.Context, category string) (*models.Session, error) {
	const op = "SessionService.Create"
	started := nowFunc()

	cat := models.Category(category)
	if !cat.Valid() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Category must be one of technical, behavioral, communication", nil)
	}

	now := nowFunc().UTC()
	session := &models.Session{
		ID:        uuid.NewString(),
		Category:  cat,
		Status:    models.StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to create session", err)
	}

	ev := newEvent(session.ID, StepCreateSession, OutcomeOK, started)
	ev.Status = session.Status
	s.events.Record(ctx, ev)
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	return loadSession(ctx, s.sessions, "SessionService.Get", sessionID)
}

// loadSession validates the id and maps repository errors the same way for
// every step.
func loadSession(ctx context.Context, repo pgrepo.SessionRepository, op, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Session ID is required", nil)
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Session ID is not a valid UUID", err)
	}

	out, err := repo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "Failed to fetch session", err)
	}
	return out, nil
}
