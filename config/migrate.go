package config

import (
	"fmt"

	"github.com/yoockh/prepwise/internal/models"
	"gorm.io/gorm"
)

// constraints are re-created on every migrate so changes to the allowed
// values take effect without a manual step.
var constraints = []struct{ table, name, check string }{
	{"sessions", "chk_sessions_category", "category IN ('technical', 'behavioral', 'communication')"},
	{"sessions", "chk_sessions_status", "status IN ('created', 'resume_parsed', 'questions_generated', 'answering', 'reported')"},
	{"answers", "chk_answers_mode", "answer_mode IN ('text', 'voice')"},
	{"answers", "chk_answers_times", "response_time >= 0 AND audio_duration >= 0"},
	{"reports", "chk_reports_scores", "overall_score BETWEEN 0 AND 100 AND clarity_score BETWEEN 0 AND 100 AND content_score BETWEEN 0 AND 100 AND confidence_score BETWEEN 0 AND 100 AND structure_score BETWEEN 0 AND 100"},
}

// Migrate creates or updates the relational schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Session{}, &models.Question{}, &models.Answer{}, &models.Report{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, c := range constraints {
			if err := tx.Exec(fmt.Sprintf(`ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s`, c.table, c.name)).Error; err != nil {
				return fmt.Errorf("drop %s: %w", c.name, err)
			}
			if err := tx.Exec(fmt.Sprintf(`ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)`, c.table, c.name, c.check)).Error; err != nil {
				return fmt.Errorf("add %s: %w", c.name, err)
			}
		}
		return nil
	})
}

// SchemaSQL is the equivalent DDL, for databases managed outside of Migrate.
const SchemaSQL = `CREATE TABLE IF NOT EXISTS sessions (
  id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
  category text NOT NULL CONSTRAINT chk_sessions_category CHECK (category IN ('technical', 'behavioral', 'communication')),
  status text NOT NULL DEFAULT 'created' CONSTRAINT chk_sessions_status CHECK (status IN ('created', 'resume_parsed', 'questions_generated', 'answering', 'reported')),
  resume_data jsonb,
  created_at timestamptz DEFAULT now(),
  updated_at timestamptz DEFAULT now()
);

CREATE TABLE IF NOT EXISTS questions (
  id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
  session_id uuid NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
  question_text text NOT NULL,
  question_type text NOT NULL,
  question_order int NOT NULL,
  created_at timestamptz DEFAULT now()
);

CREATE TABLE IF NOT EXISTS answers (
  id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
  session_id uuid NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
  question_id uuid NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  answer_text text NOT NULL,
  answer_mode text NOT NULL CONSTRAINT chk_answers_mode CHECK (answer_mode IN ('text', 'voice')),
  response_time int NOT NULL DEFAULT 0,
  audio_duration int NOT NULL DEFAULT 0,
  audio_url text,
  created_at timestamptz DEFAULT now(),
  CONSTRAINT chk_answers_times CHECK (response_time >= 0 AND audio_duration >= 0)
);

CREATE TABLE IF NOT EXISTS reports (
  id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
  session_id uuid NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
  overall_score int NOT NULL,
  clarity_score int NOT NULL,
  content_score int NOT NULL,
  confidence_score int NOT NULL,
  structure_score int NOT NULL,
  strengths text[],
  improvements text[],
  feedback jsonb,
  generated_at timestamptz DEFAULT now(),
  CONSTRAINT chk_reports_scores CHECK (overall_score BETWEEN 0 AND 100 AND clarity_score BETWEEN 0 AND 100 AND content_score BETWEEN 0 AND 100 AND confidence_score BETWEEN 0 AND 100 AND structure_score BETWEEN 0 AND 100)
);

CREATE INDEX IF NOT EXISTS idx_questions_session_id ON questions(session_id);
CREATE UNIQUE INDEX IF NOT EXISTS uniq_question_order ON questions(session_id, question_order);
CREATE INDEX IF NOT EXISTS idx_answers_session_id ON answers(session_id);
CREATE INDEX IF NOT EXISTS idx_answers_question_id ON answers(question_id);
CREATE UNIQUE INDEX IF NOT EXISTS uniq_answer_question ON answers(session_id, question_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_reports_session_id ON reports(session_id);
`
