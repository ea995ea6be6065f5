package ledger

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dot-file/accountant-telegram-bot/model"
)

// UpsertPending replaces the querier's pending row in place. The
// single ON CONFLICT statement keeps the row from ever being observed
// half-written and never leaves two rows for one querier.
func (s *Store) UpsertPending(q model.PendingQuery) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "querier_id"}},
		UpdateAll: true,
	}).Create(&q).Error
}

// GetPending returns the current snapshot of the querier's pending
// query, or found=false if there is none.
func (s *Store) GetPending(querierID int64) (model.PendingQuery, bool, error) {
	var q model.PendingQuery
	err := s.db.First(&q, "querier_id = ?", querierID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PendingQuery{}, false, nil
	}
	if err != nil {
		return model.PendingQuery{}, false, err
	}
	return q, true, nil
}

// ClearPending removes the querier's pending query. Clearing an
// absent row is a no-op, not an error.
func (s *Store) ClearPending(querierID int64) error {
	return s.db.Delete(&model.PendingQuery{}, "querier_id = ?", querierID).Error
}
