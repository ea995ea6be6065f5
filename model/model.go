package model

import (
	"time"
)

// Action is the canonical form of a pending query. The six main-menu
// commands collapse onto these four actions.
type Action string

const (
	ActionGive        Action = "give"
	ActionTake        Action = "take"
	ActionShowDebts   Action = "show_debts"
	ActionShowHistory Action = "show_history"
)

// NormalizeCommand maps a main-menu command to its canonical action.
// "lend" and "give_back" both record money leaving the querier;
// "borrow" and "take_back" both record money reaching the querier.
func NormalizeCommand(command string) (Action, bool) {
	switch command {
	case "lend", "give_back":
		return ActionGive, true
	case "borrow", "take_back":
		return ActionTake, true
	case "show_debts":
		return ActionShowDebts, true
	case "show_history":
		return ActionShowHistory, true
	}
	return "", false
}

// NeedsAmount reports whether the action writes a transfer and
// therefore needs the amount slot filled.
func (a Action) NeedsAmount() bool {
	return a == ActionGive || a == ActionTake
}

// Entry is one immutable ledger row: a transfer of Amount from one
// user to another. Entries are never updated or deleted, and the
// creation timestamp is unique and increases with insertion order.
type Entry struct {
	ID         uint      `gorm:"primaryKey"`
	FromUserID int64     `gorm:"not null;index:idx_entries_pair"`
	ToUserID   int64     `gorm:"not null;index:idx_entries_pair"`
	Amount     int64     `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;uniqueIndex"`
}

// QueryState is the explicit conversation state derived from a
// pending query's filled slots.
type QueryState int

const (
	AwaitingCounterparty QueryState = iota
	AwaitingAmount
	Ready
)

// PendingQuery is the single in-flight, partially-filled request of a
// querier. The row is replaced in place every time a slot is filled
// and deleted when the action completes or the conversation restarts.
type PendingQuery struct {
	QuerierID  int64  `gorm:"primaryKey;autoIncrement:false"`
	Action     Action `gorm:"not null"`
	FromUserID *int64
	ToUserID   *int64
	Amount     *int64
}

// NewPendingQuery starts a query with the known side pre-filled: for
// "take" the querier is the payee-to-be, for everything else the
// payer.
func NewPendingQuery(querierID int64, action Action) PendingQuery {
	q := PendingQuery{QuerierID: querierID, Action: action}
	if action == ActionTake {
		q.ToUserID = &querierID
	} else {
		q.FromUserID = &querierID
	}
	return q
}

// State collapses the nullable slots into the explicit conversation
// state. Callers branch on this, never on the raw pointers, so each
// state only touches the fields valid for it.
func (q *PendingQuery) State() QueryState {
	if q.FromUserID == nil || q.ToUserID == nil {
		return AwaitingCounterparty
	}
	if q.Action.NeedsAmount() && q.Amount == nil {
		return AwaitingAmount
	}
	return Ready
}

// KnownSide returns the identity pre-filled at creation.
func (q *PendingQuery) KnownSide() int64 {
	if q.Action == ActionTake {
		return *q.ToUserID
	}
	return *q.FromUserID
}

// CounterpartyID returns the identity supplied in a later turn. Only
// valid once the counterparty slot is filled.
func (q *PendingQuery) CounterpartyID() int64 {
	if q.Action == ActionTake {
		return *q.FromUserID
	}
	return *q.ToUserID
}

// SetCounterparty fills whichever of the from/to slots is still empty.
func (q *PendingQuery) SetCounterparty(userID int64) {
	if q.FromUserID == nil {
		q.FromUserID = &userID
		return
	}
	if q.ToUserID == nil {
		q.ToUserID = &userID
	}
}

// ClearCounterparty blanks the counterparty slot while keeping the
// action and the pre-filled side, so a rejected self-selection can be
// re-prompted without aborting the conversation.
func (q *PendingQuery) ClearCounterparty() {
	if q.Action == ActionTake {
		q.FromUserID = nil
		return
	}
	q.ToUserID = nil
}
