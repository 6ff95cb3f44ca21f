package postgres

import (
	"context"

	"github.com/yoockh/prepwise/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, s *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	// SaveResume overwrites resume_data and moves the session to resume_parsed.
	SaveResume(ctx context.Context, id string, data datatypes.JSON) (*models.Session, error)
}

type sessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.Session) error {
	return translate(r.db.WithContext(ctx).Create(s).Error)
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var row models.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (r *sessionRepo) SaveResume(ctx context.Context, id string, data datatypes.JSON) (*models.Session, error) {
	var row models.Session
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transition(tx, id, models.StatusResumeParsed, models.StatusCreated, models.StatusResumeParsed); err != nil {
			return err
		}
		if err := tx.Model(&models.Session{}).Where("id = ?", id).Update("resume_data", data).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Take(&row).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &row, nil
}
