package ledger

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dot-file/accountant-telegram-bot/model"
)

var (
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
	ErrSelfTransfer  = errors.New("ledger: from and to must differ")
)

// Store is the append-only ledger plus the per-querier pending-query
// table. It is the sole source of truth for balances; nothing else
// stores cumulative totals.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Append writes one immutable transfer entry.
func (s *Store) Append(from, to, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if from == to {
		return ErrSelfTransfer
	}
	entry := model.Entry{
		FromUserID: from,
		ToUserID:   to,
		Amount:     amount,
		CreatedAt:  time.Now(),
	}
	return s.db.Create(&entry).Error
}

// SumAmount returns the total transferred in the exact from→to
// direction, 0 if there are no such entries.
func (s *Store) SumAmount(from, to int64) (int64, error) {
	var total int64
	err := s.db.Model(&model.Entry{}).
		Where("from_user_id = ? AND to_user_id = ?", from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// NetBalance returns SumAmount(a, b) - SumAmount(b, a). Positive
// means b owes a. Each entry contributes to exactly one of the two
// directional sums.
func (s *Store) NetBalance(a, b int64) (int64, error) {
	gave, err := s.SumAmount(a, b)
	if err != nil {
		return 0, err
	}
	received, err := s.SumAmount(b, a)
	if err != nil {
		return 0, err
	}
	return gave - received, nil
}

// HistoryBetween streams every entry between a and b, either
// direction, in timestamp order. The scan stops as soon as fn returns
// false; rows are read lazily from the cursor, and every call opens a
// fresh cursor so the scan is restartable.
func (s *Store) HistoryBetween(a, b int64, fn func(model.Entry) bool) error {
	rows, err := s.db.Model(&model.Entry{}).
		Where("from_user_id IN (?, ?) AND to_user_id IN (?, ?)", a, b, a, b).
		Order("created_at").
		Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var entry model.Entry
		if err := s.db.ScanRows(rows, &entry); err != nil {
			return err
		}
		if !fn(entry) {
			return nil
		}
	}
	return rows.Err()
}

// Partners returns the distinct counterparties the user shares ledger
// entries with.
func (s *Store) Partners(userID int64) ([]int64, error) {
	type pair struct {
		FromUserID int64
		ToUserID   int64
	}
	var pairs []pair
	err := s.db.Model(&model.Entry{}).
		Distinct("from_user_id", "to_user_id").
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Scan(&pairs).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var partners []int64
	for _, p := range pairs {
		for _, id := range [2]int64{p.FromUserID, p.ToUserID} {
			if id != userID && !seen[id] {
				seen[id] = true
				partners = append(partners, id)
			}
		}
	}
	return partners, nil
}

// Participants returns every distinct user id appearing in the
// ledger, on either side of an entry.
func (s *Store) Participants() ([]int64, error) {
	var from, to []int64
	if err := s.db.Model(&model.Entry{}).Distinct().Pluck("from_user_id", &from).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&model.Entry{}).Distinct().Pluck("to_user_id", &to).Error; err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var ids []int64
	for _, id := range append(from, to...) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}
