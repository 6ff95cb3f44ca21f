package postgres

import (
	"context"

	"github.com/yoockh/prepwise/internal/models"
	"gorm.io/gorm"
)

type ReportRepository interface {
	// CreateForSession inserts the report and moves the session to reported.
	CreateForSession(ctx context.Context, r *models.Report) error
	GetBySession(ctx context.Context, sessionID string) (*models.Report, error)
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db: db}
}

func (r *reportRepo) CreateForSession(ctx context.Context, rep *models.Report) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transition(tx, rep.SessionID, models.StatusReported,
			models.StatusCreated, models.StatusResumeParsed,
			models.StatusQuestionsGenerated, models.StatusAnswering); err != nil {
			return err
		}
		return tx.Omit("Session").Create(rep).Error
	})
	return translate(err)
}

func (r *reportRepo) GetBySession(ctx context.Context, sessionID string) (*models.Report, error) {
	var row models.Report
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}
