package model

import "testing"

func TestNormalizeCommand(t *testing.T) {
	cases := []struct {
		command string
		action  Action
		ok      bool
	}{
		{"lend", ActionGive, true},
		{"give_back", ActionGive, true},
		{"borrow", ActionTake, true},
		{"take_back", ActionTake, true},
		{"show_debts", ActionShowDebts, true},
		{"show_history", ActionShowHistory, true},
		{"start", "", false},
		{"", "", false},
	}

	for _, c := range cases {
		action, ok := NormalizeCommand(c.command)
		if action != c.action || ok != c.ok {
			t.Errorf("NormalizeCommand(%q) = %q, %v; want %q, %v", c.command, action, ok, c.action, c.ok)
		}
	}
}

func TestNewPendingQueryPrefill(t *testing.T) {
	give := NewPendingQuery(10, ActionGive)
	if give.FromUserID == nil || *give.FromUserID != 10 {
		t.Errorf("give must pre-fill the querier as payer, got %v", give.FromUserID)
	}
	if give.ToUserID != nil {
		t.Errorf("give must leave the payee empty, got %v", *give.ToUserID)
	}

	take := NewPendingQuery(10, ActionTake)
	if take.ToUserID == nil || *take.ToUserID != 10 {
		t.Errorf("take must pre-fill the querier as payee, got %v", take.ToUserID)
	}
	if take.FromUserID != nil {
		t.Errorf("take must leave the payer empty, got %v", *take.FromUserID)
	}
}

func TestPendingQueryStateProgression(t *testing.T) {
	q := NewPendingQuery(10, ActionGive)
	if q.State() != AwaitingCounterparty {
		t.Fatalf("fresh give query state = %v, want AwaitingCounterparty", q.State())
	}

	q.SetCounterparty(20)
	if q.State() != AwaitingAmount {
		t.Fatalf("give with counterparty state = %v, want AwaitingAmount", q.State())
	}
	if q.CounterpartyID() != 20 || q.KnownSide() != 10 {
		t.Errorf("counterparty=%d known=%d, want 20 and 10", q.CounterpartyID(), q.KnownSide())
	}

	amount := int64(50)
	q.Amount = &amount
	if q.State() != Ready {
		t.Fatalf("filled give query state = %v, want Ready", q.State())
	}
}

func TestPendingQueryStateNoAmountActions(t *testing.T) {
	q := NewPendingQuery(10, ActionShowDebts)
	q.SetCounterparty(20)
	if q.State() != Ready {
		t.Errorf("show_debts with counterparty state = %v, want Ready", q.State())
	}
}

func TestClearCounterpartyKeepsPrefilledSide(t *testing.T) {
	q := NewPendingQuery(10, ActionTake)
	q.SetCounterparty(10) // self-pick
	q.ClearCounterparty()

	if q.FromUserID != nil {
		t.Errorf("counterparty slot not cleared: %v", *q.FromUserID)
	}
	if q.ToUserID == nil || *q.ToUserID != 10 {
		t.Errorf("pre-filled side lost: %v", q.ToUserID)
	}
	if q.Action != ActionTake {
		t.Errorf("action changed to %q", q.Action)
	}
	if q.State() != AwaitingCounterparty {
		t.Errorf("state = %v, want AwaitingCounterparty again", q.State())
	}
}
