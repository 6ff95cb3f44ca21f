package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/prepwise/internal/models"
	"github.com/yoockh/prepwise/internal/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const sessionID = "3d9a4a0e-7c2b-4f55-8f0e-6b1a2c3d4e5f"

type capturedStmt struct {
	SQL  string
	Vars []any
}

// stubDB builds SQL with the postgres dialect without a server. Updates
// report `updated` affected rows and counts return `existing`.
func stubDB(t *testing.T, updated, existing int64) (*gorm.DB, *[]capturedStmt) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 port=1 user=prepwise dbname=prepwise sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)

	var stmts []capturedStmt
	capture := func(tx *gorm.DB) {
		stmts = append(stmts, capturedStmt{SQL: tx.Statement.SQL.String(), Vars: tx.Statement.Vars})
	}
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("stub:update", func(tx *gorm.DB) {
		capture(tx)
		tx.RowsAffected = updated
	}))
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("stub:query", func(tx *gorm.DB) {
		capture(tx)
		if n, ok := tx.Statement.Dest.(*int64); ok {
			*n = existing
		}
		tx.RowsAffected = 1
	}))
	return db, &stmts
}

func TestTransitionConditionalUpdate(t *testing.T) {
	db, stmts := stubDB(t, 1, 1)

	err := transition(db, sessionID, models.StatusResumeParsed, models.StatusCreated, models.StatusResumeParsed)
	require.NoError(t, err)

	require.Len(t, *stmts, 1, "no lookup after a successful update")
	update := (*stmts)[0]
	assert.Contains(t, update.SQL, `UPDATE "sessions" SET`)
	assert.Contains(t, update.SQL, `"status"=$1`)
	assert.Contains(t, update.SQL, `"updated_at"=now()`)
	assert.Contains(t, update.SQL, `WHERE id = $2 AND status IN ($3,$4)`)
	require.Len(t, update.Vars, 4)
	assert.EqualValues(t, models.StatusResumeParsed, update.Vars[0])
	assert.Equal(t, sessionID, update.Vars[1])
	assert.EqualValues(t, models.StatusCreated, update.Vars[2])
	assert.EqualValues(t, models.StatusResumeParsed, update.Vars[3])
}

func TestTransitionWrongStateIsConflict(t *testing.T) {
	db, stmts := stubDB(t, 0, 1)

	err := transition(db, sessionID, models.StatusAnswering, models.StatusQuestionsGenerated, models.StatusAnswering)
	assert.ErrorIs(t, err, utils.ErrConflict)

	require.Len(t, *stmts, 2)
	lookup := (*stmts)[1]
	assert.Contains(t, lookup.SQL, `SELECT count(*) FROM "sessions" WHERE id = $1`)
	assert.Equal(t, []any{sessionID}, lookup.Vars)
}

func TestTransitionMissingSessionIsNotFound(t *testing.T) {
	db, stmts := stubDB(t, 0, 0)

	err := transition(db, sessionID, models.StatusReported,
		models.StatusCreated, models.StatusResumeParsed, models.StatusQuestionsGenerated, models.StatusAnswering)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	require.Len(t, *stmts, 2)
	assert.Contains(t, (*stmts)[0].SQL, `status IN ($3,$4,$5,$6)`)
}

func TestTranslate(t *testing.T) {
	other := errors.New("connection reset")

	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), utils.ErrNotFound)
	assert.ErrorIs(t, translate(fmt.Errorf("insert answer: %w", gorm.ErrDuplicatedKey)), utils.ErrConflict)
	assert.ErrorIs(t, translate(utils.ErrConflict), utils.ErrConflict)
	assert.Same(t, other, translate(other))
}
