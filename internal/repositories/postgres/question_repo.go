package postgres

import (
	"context"

	"github.com/yoockh/prepwise/internal/models"
	"gorm.io/gorm"
)

type QuestionRepository interface {
	// CreateForSession inserts the full question set and moves the session to
	// questions_generated in one transaction.
	CreateForSession(ctx context.Context, sessionID string, qs []models.Question) error
	ListBySession(ctx context.Context, sessionID string) ([]models.Question, error)
	GetByID(ctx context.Context, id string) (*models.Question, error)
}

type questionRepo struct {
	db *gorm.DB
}

func NewQuestionRepo(db *gorm.DB) QuestionRepository {
	return &questionRepo{db: db}
}

func (r *questionRepo) CreateForSession(ctx context.Context, sessionID string, qs []models.Question) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transition(tx, sessionID, models.StatusQuestionsGenerated,
			models.StatusCreated, models.StatusResumeParsed); err != nil {
			return err
		}
		return tx.Omit("Session").Create(&qs).Error
	})
	return translate(err)
}

func (r *questionRepo) ListBySession(ctx context.Context, sessionID string) ([]models.Question, error) {
	var rows []models.Question
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("question_order ASC").
		Find(&rows).Error
	return rows, translate(err)
}

func (r *questionRepo) GetByID(ctx context.Context, id string) (*models.Question, error) {
	var row models.Question
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}
