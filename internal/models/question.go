package models

import "time"

// QuestionsPerSession is the fixed size of a generated question set.
const QuestionsPerSession = 5

type Question struct {
	ID            string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID     string    `gorm:"column:session_id;type:uuid;not null;index;uniqueIndex:uniq_question_order,priority:1" json:"session_id"`
	QuestionText  string    `gorm:"column:question_text;type:text;not null" json:"question_text"`
	QuestionType  string    `gorm:"column:question_type;type:text;not null" json:"question_type"`
	QuestionOrder int       `gorm:"column:question_order;not null;uniqueIndex:uniq_question_order,priority:2" json:"question_order"`
	CreatedAt     time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`

	Session *Session `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Question) TableName() string { return "questions" }
