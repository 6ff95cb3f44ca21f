package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type QuestionFeedback struct {
	Question string `json:"question"`
	Feedback string `json:"feedback"`
}

type Report struct {
	ID              string                                `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID       string                                `gorm:"column:session_id;type:uuid;not null;uniqueIndex" json:"session_id"`
	OverallScore    int                                   `gorm:"column:overall_score;not null" json:"overall_score"`
	ClarityScore    int                                   `gorm:"column:clarity_score;not null" json:"clarity_score"`
	ContentScore    int                                   `gorm:"column:content_score;not null" json:"content_score"`
	ConfidenceScore int                                   `gorm:"column:confidence_score;not null" json:"confidence_score"`
	StructureScore  int                                   `gorm:"column:structure_score;not null" json:"structure_score"`
	Strengths       pq.StringArray                        `gorm:"column:strengths;type:text[]" json:"strengths"`
	Improvements    pq.StringArray                        `gorm:"column:improvements;type:text[]" json:"improvements"`
	Feedback        datatypes.JSONSlice[QuestionFeedback] `gorm:"column:feedback;type:jsonb" json:"feedback"`
	GeneratedAt     time.Time                             `gorm:"column:generated_at;type:timestamptz" json:"generated_at"`

	Session *Session `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Report) TableName() string { return "reports" }
