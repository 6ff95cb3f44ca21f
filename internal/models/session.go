package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type Category string

const (
	CategoryTechnical     Category = "technical"
	CategoryBehavioral    Category = "behavioral"
	CategoryCommunication Category = "communication"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryTechnical, CategoryBehavioral, CategoryCommunication:
		return true
	}
	return false
}

// SessionStatus tracks how far a session has progressed. Each write step moves
// the status forward with a conditional update, so a step attempted from the
// wrong state touches no rows.
type SessionStatus string

const (
	StatusCreated            SessionStatus = "created"
	StatusResumeParsed       SessionStatus = "resume_parsed"
	StatusQuestionsGenerated SessionStatus = "questions_generated"
	StatusAnswering          SessionStatus = "answering"
	StatusReported           SessionStatus = "reported"
)

// In reports whether s is one of the given statuses.
func (s SessionStatus) In(statuses ...SessionStatus) bool {
	for _, v := range statuses {
		if s == v {
			return true
		}
	}
	return false
}

type Session struct {
	ID         string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Category   Category       `gorm:"column:category;type:text;not null" json:"category"`
	Status     SessionStatus  `gorm:"column:status;type:text;not null;default:created" json:"status"`
	ResumeData datatypes.JSON `gorm:"column:resume_data;type:jsonb" json:"resume_data"`
	CreatedAt  time.Time      `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Session) TableName() string { return "sessions" }

// Resume decodes resume_data. It returns nil when the resume was never parsed.
func (s *Session) Resume() (*ResumeData, error) {
	if len(s.ResumeData) == 0 || string(s.ResumeData) == "null" {
		return nil, nil
	}
	var r ResumeData
	if err := json.Unmarshal(s.ResumeData, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
