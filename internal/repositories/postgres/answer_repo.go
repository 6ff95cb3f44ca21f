package postgres

import (
	"context"

	"github.com/yoockh/prepwise/internal/models"
	"gorm.io/gorm"
)

type AnswerRepository interface {
	// Create inserts the answer and moves the session to answering. A second
	// answer for the same question returns utils.ErrConflict.
	Create(ctx context.Context, a *models.Answer) error
	ListBySession(ctx context.Context, sessionID string) ([]models.Answer, error)
}

type answerRepo struct {
	db *gorm.DB
}

func NewAnswerRepo(db *gorm.DB) AnswerRepository {
	return &answerRepo{db: db}
}

func (r *answerRepo) Create(ctx context.Context, a *models.Answer) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transition(tx, a.SessionID, models.StatusAnswering,
			models.StatusQuestionsGenerated, models.StatusAnswering); err != nil {
			return err
		}
		return tx.Omit("Session", "Question").Create(a).Error
	})
	return translate(err)
}

func (r *answerRepo) ListBySession(ctx context.Context, sessionID string) ([]models.Answer, error) {
	var rows []models.Answer
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, translate(err)
}
