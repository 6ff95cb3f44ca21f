package postgres

import (
	"errors"

	"github.com/yoockh/prepwise/internal/models"
	"github.com/yoockh/prepwise/internal/utils"
	"gorm.io/gorm"
)

// transition moves a session to `to` only when its current status is one of
// `from`. It must run inside the transaction that writes the step's rows.
func transition(tx *gorm.DB, sessionID string, to models.SessionStatus, from ...models.SessionStatus) error {
	res := tx.Model(&models.Session{}).
		Where("id = ? AND status IN ?", sessionID, from).
		Updates(map[string]any{"status": to, "updated_at": gorm.Expr("now()")})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var n int64
	if err := tx.Model(&models.Session{}).Where("id = ?", sessionID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return utils.ErrNotFound
	}
	return utils.ErrConflict
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return utils.ErrConflict
	}
	return err
}
