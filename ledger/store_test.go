package ledger

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/dot-file/accountant-telegram-bot/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// In-memory sqlite is per-connection; keep the pool at one.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&model.Entry{}, &model.PendingQuery{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(db)
}

func countEntries(t *testing.T, s *Store) int64 {
	t.Helper()
	var n int64
	if err := s.db.Model(&model.Entry{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestAppendRejectsBadInput(t *testing.T) {
	s := newTestStore(t)

	if err := s.Append(1, 2, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("amount 0: got %v, want ErrInvalidAmount", err)
	}
	if err := s.Append(1, 2, -5); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative amount: got %v, want ErrInvalidAmount", err)
	}
	if err := s.Append(7, 7, 10); !errors.Is(err, ErrSelfTransfer) {
		t.Errorf("self transfer: got %v, want ErrSelfTransfer", err)
	}
	if n := countEntries(t, s); n != 0 {
		t.Errorf("rejected appends wrote %d entries", n)
	}
}

func TestSumAmountIsDirectional(t *testing.T) {
	s := newTestStore(t)

	for _, amount := range []int64{10, 20} {
		if err := s.Append(1, 2, amount); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := s.Append(2, 1, 5); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.SumAmount(1, 2)
	if err != nil || got != 30 {
		t.Errorf("SumAmount(1,2) = %d, %v; want 30", got, err)
	}
	got, err = s.SumAmount(2, 1)
	if err != nil || got != 5 {
		t.Errorf("SumAmount(2,1) = %d, %v; want 5", got, err)
	}
	got, err = s.SumAmount(1, 3)
	if err != nil || got != 0 {
		t.Errorf("SumAmount(1,3) = %d, %v; want 0", got, err)
	}
}

func TestNetBalanceAntisymmetry(t *testing.T) {
	s := newTestStore(t)

	if err := s.Append(1, 2, 50); err != nil {
		t.Fatalf("append: %v", err)
	}

	ab, err := s.NetBalance(1, 2)
	if err != nil {
		t.Fatalf("net balance: %v", err)
	}
	ba, err := s.NetBalance(2, 1)
	if err != nil {
		t.Fatalf("net balance: %v", err)
	}

	// Positive means the second user owes the first.
	if ab != 50 {
		t.Errorf("NetBalance(1,2) = %d, want 50", ab)
	}
	if ba != -ab {
		t.Errorf("NetBalance(2,1) = %d, want %d", ba, -ab)
	}

	if err := s.Append(2, 1, 20); err != nil {
		t.Fatalf("append: %v", err)
	}
	ab, _ = s.NetBalance(1, 2)
	if ab != 30 {
		t.Errorf("NetBalance(1,2) after repayment = %d, want 30", ab)
	}
}

func TestHistoryBetweenOrderAndScope(t *testing.T) {
	s := newTestStore(t)

	if err := s.Append(1, 2, 10); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(2, 1, 4); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Unrelated pair must not show up
	if err := s.Append(1, 3, 99); err != nil {
		t.Fatalf("append: %v", err)
	}

	var got []model.Entry
	err := s.HistoryBetween(1, 2, func(e model.Entry) bool {
		got = append(got, e)
		return true
	})
	if err != nil {
		t.Fatalf("history: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("history returned %d entries, want 2", len(got))
	}
	if got[0].FromUserID != 1 || got[0].ToUserID != 2 || got[0].Amount != 10 {
		t.Errorf("first entry = %+v, want 1→2 amount 10", got[0])
	}
	if got[1].FromUserID != 2 || got[1].ToUserID != 1 || got[1].Amount != 4 {
		t.Errorf("second entry = %+v, want 2→1 amount 4", got[1])
	}
	if !got[0].CreatedAt.Before(got[1].CreatedAt) {
		t.Errorf("entries out of timestamp order: %v, %v", got[0].CreatedAt, got[1].CreatedAt)
	}
}

func TestHistoryBetweenStopsAndRestarts(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		if err := s.Append(1, 2, int64(i+1)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	var first []int64
	err := s.HistoryBetween(1, 2, func(e model.Entry) bool {
		first = append(first, e.Amount)
		return len(first) < 2
	})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(first) != 2 || first[0] != 1 || first[1] != 2 {
		t.Errorf("truncated scan = %v, want [1 2]", first)
	}

	// A second call starts over from the beginning.
	var second []int64
	err = s.HistoryBetween(1, 2, func(e model.Entry) bool {
		second = append(second, e.Amount)
		return true
	})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(second) != 5 || second[0] != 1 {
		t.Errorf("restarted scan = %v, want all five from the start", second)
	}
}

func TestPartners(t *testing.T) {
	s := newTestStore(t)

	if err := s.Append(1, 2, 10); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(3, 1, 7); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(2, 1, 3); err != nil {
		t.Fatalf("append: %v", err)
	}

	partners, err := s.Partners(1)
	if err != nil {
		t.Fatalf("partners: %v", err)
	}

	seen := make(map[int64]bool)
	for _, id := range partners {
		if id == 1 {
			t.Errorf("partners include the user itself")
		}
		if seen[id] {
			t.Errorf("duplicate partner %d", id)
		}
		seen[id] = true
	}
	if !seen[2] || !seen[3] {
		t.Errorf("partners = %v, want 2 and 3", partners)
	}
}

func TestParticipants(t *testing.T) {
	s := newTestStore(t)

	participants, err := s.Participants()
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(participants) != 0 {
		t.Errorf("empty ledger has participants %v", participants)
	}

	if err := s.Append(1, 2, 10); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(2, 3, 5); err != nil {
		t.Fatalf("append: %v", err)
	}

	participants, err = s.Participants()
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(participants) != 3 {
		t.Errorf("participants = %v, want ids 1, 2, 3", participants)
	}
}
