package models

import "time"

type AnswerMode string

const (
	AnswerModeText  AnswerMode = "text"
	AnswerModeVoice AnswerMode = "voice"
)

func (m AnswerMode) Valid() bool { return m == AnswerModeText || m == AnswerModeVoice }

type Answer struct {
	ID            string     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID     string     `gorm:"column:session_id;type:uuid;not null;index;uniqueIndex:uniq_answer_question,priority:1" json:"session_id"`
	QuestionID    string     `gorm:"column:question_id;type:uuid;not null;index;uniqueIndex:uniq_answer_question,priority:2" json:"question_id"`
	AnswerText    string     `gorm:"column:answer_text;type:text;not null" json:"answer_text"`
	AnswerMode    AnswerMode `gorm:"column:answer_mode;type:text;not null" json:"answer_mode"`
	ResponseTime  int        `gorm:"column:response_time;not null;default:0" json:"response_time"`   // seconds
	AudioDuration int        `gorm:"column:audio_duration;not null;default:0" json:"audio_duration"` // seconds
	AudioURL      *string    `gorm:"column:audio_url;type:text" json:"audio_url"`
	CreatedAt     time.Time  `gorm:"column:created_at;type:timestamptz" json:"created_at"`

	Session  *Session  `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
	Question *Question `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Answer) TableName() string { return "answers" }
