package flow

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/dot-file/accountant-telegram-bot/ledger"
	"github.com/dot-file/accountant-telegram-bot/model"
)

// Messenger is the outbound side of a conversation: everything the
// resolver needs from the messaging platform.
type Messenger interface {
	// Notify sends plain text (HTML markup allowed) to a user.
	Notify(userID int64, text string) error
	// PresentOptions sends a prompt with a set of pickable options.
	// Picking an option delivers its Value back through Supply, the
	// same channel typed text arrives on.
	PresentOptions(userID int64, prompt string, options []Option) error
	// ResolveDisplayName returns a human-readable name for the user.
	// It degrades to a placeholder instead of failing.
	ResolveDisplayName(userID int64) string
}

// Option is one pickable choice: a display label and the raw value
// delivered when it is picked.
type Option struct {
	Label string
	Value string
}

// MainMenu lists the user-facing commands in display order. Option
// values double as slash-command names.
var MainMenu = []Option{
	{Label: "Lend", Value: "lend"},
	{Label: "Borrow", Value: "borrow"},
	{Label: "Give back", Value: "give_back"},
	{Label: "Take back", Value: "take_back"},
	{Label: "Show debts", Value: "show_debts"},
	{Label: "Show history", Value: "show_history"},
}

// Resolver drives the multi-turn query flow: each inbound value fills
// the first empty slot of the querier's pending query, and once the
// query is complete the terminal action runs against the ledger.
type Resolver struct {
	store *ledger.Store
	out   Messenger
}

func NewResolver(store *ledger.Store, out Messenger) *Resolver {
	return &Resolver{store: store, out: out}
}

// Reset discards any in-flight query and shows the main menu.
func (r *Resolver) Reset(querierID int64) error {
	if err := r.store.ClearPending(querierID); err != nil {
		return r.abort(querierID, err)
	}
	return r.ShowMainMenu(querierID)
}

// ShowMainMenu presents the welcome message with the action buttons.
func (r *Resolver) ShowMainMenu(querierID int64) error {
	return r.out.PresentOptions(querierID, msgWelcome, MainMenu)
}

// Start begins a fresh query for a main-menu command, discarding any
// query already in flight for the querier.
func (r *Resolver) Start(querierID int64, command string) error {
	action, ok := model.NormalizeCommand(command)
	if !ok {
		return fmt.Errorf("flow: unknown command %q", command)
	}
	q := model.NewPendingQuery(querierID, action)
	if err := r.store.UpsertPending(q); err != nil {
		return r.abort(querierID, err)
	}
	return r.promptCounterparty(querierID, q)
}

// Supply feeds one inbound value into the querier's pending query.
// Typed text and picked options arrive through this same entry point;
// the resolver cannot tell them apart.
func (r *Resolver) Supply(querierID int64, raw string) error {
	q, found, err := r.store.GetPending(querierID)
	if err != nil {
		return r.abort(querierID, err)
	}
	if !found {
		return r.ShowMainMenu(querierID)
	}

	value, ok := parseNumeric(raw)
	if !ok {
		return r.out.Notify(querierID, msgNumbersOnly)
	}

	switch q.State() {
	case model.AwaitingCounterparty:
		q.SetCounterparty(value)
	case model.AwaitingAmount:
		q.Amount = &value
	}
	return r.advance(querierID, q)
}

// advance persists the updated snapshot and either asks for the next
// missing slot or executes the completed query.
func (r *Resolver) advance(querierID int64, q model.PendingQuery) error {
	if q.FromUserID != nil && q.ToUserID != nil && *q.FromUserID == *q.ToUserID {
		q.ClearCounterparty()
		if err := r.store.UpsertPending(q); err != nil {
			return r.abort(querierID, err)
		}
		return r.out.Notify(querierID, msgSelfPick)
	}

	switch q.State() {
	case model.AwaitingCounterparty:
		if err := r.store.UpsertPending(q); err != nil {
			return r.abort(querierID, err)
		}
		return r.promptCounterparty(querierID, q)

	case model.AwaitingAmount:
		if err := r.store.UpsertPending(q); err != nil {
			return r.abort(querierID, err)
		}
		chosen := r.linkedName(q.CounterpartyID())
		return r.out.Notify(querierID, fmt.Sprintf(msgAmountPrompt, chosen))

	default:
		return r.complete(querierID, q)
	}
}

// complete runs the terminal action and clears the pending query.
func (r *Resolver) complete(querierID int64, q model.PendingQuery) error {
	switch q.Action {
	case model.ActionGive, model.ActionTake:
		err := r.store.Append(*q.FromUserID, *q.ToUserID, *q.Amount)
		if errors.Is(err, ledger.ErrInvalidAmount) {
			// Stored snapshot still has no amount; the slot is
			// simply asked again.
			return r.out.Notify(querierID, msgAmountPositive)
		}
		if err != nil {
			return r.abort(querierID, err)
		}
		r.announceTransfer(q)

	case model.ActionShowDebts:
		if err := r.reportBalance(*q.FromUserID, *q.ToUserID); err != nil {
			return r.abort(querierID, err)
		}

	case model.ActionShowHistory:
		if err := r.reportHistory(querierID, *q.FromUserID, *q.ToUserID); err != nil {
			return r.abort(querierID, err)
		}
	}

	return r.store.ClearPending(querierID)
}

// promptCounterparty asks "who is the other user", offering the
// querier's known prior counterparties as buttons. A raw id typed as
// text goes through the exact same Supply path as a pressed button.
func (r *Resolver) promptCounterparty(querierID int64, q model.PendingQuery) error {
	partners, err := r.store.Partners(q.KnownSide())
	if err != nil {
		return r.abort(querierID, err)
	}

	options := make([]Option, 0, len(partners))
	for _, id := range partners {
		options = append(options, Option{
			Label: r.out.ResolveDisplayName(id),
			Value: strconv.FormatInt(id, 10),
		})
	}
	return r.out.PresentOptions(querierID, msgCounterpartyPrompt, options)
}

// announceTransfer tells both parties about the recorded transfer,
// each followed by their resulting balance with the other. The two
// fan-outs are independent: one unreachable recipient must not
// silence the other, and the ledger write already happened either way.
func (r *Resolver) announceTransfer(q model.PendingQuery) {
	from, to, amount := *q.FromUserID, *q.ToUserID, *q.Amount
	fromName := r.linkedName(from)
	toName := r.linkedName(to)

	if err := r.out.Notify(from, fmt.Sprintf(msgGiven, amount, toName)); err != nil {
		log.Printf("flow: notify payer %d: %v", from, err)
	} else if err := r.reportBalance(from, to); err != nil {
		log.Printf("flow: balance for payer %d: %v", from, err)
	}

	if err := r.out.Notify(to, fmt.Sprintf(msgReceived, amount, fromName)); err != nil {
		log.Printf("flow: notify payee %d: %v", to, err)
	} else if err := r.reportBalance(to, from); err != nil {
		log.Printf("flow: balance for payee %d: %v", to, err)
	}
}

// reportBalance sends userID their net balance with otherID, phrased
// from userID's point of view.
func (r *Resolver) reportBalance(userID, otherID int64) error {
	diff, err := r.store.NetBalance(userID, otherID)
	if err != nil {
		return err
	}
	return r.out.Notify(userID, renderBalance(diff, r.linkedName(otherID)))
}

// reportHistory sends the transfer history between from and to,
// truncated to the outbound size ceiling.
func (r *Resolver) reportHistory(recipientID, fromID, toID int64) error {
	text, err := renderHistory(r.store, fromID, toID, r.linkedName(fromID), r.linkedName(toID))
	if err != nil {
		return err
	}
	return r.out.Notify(recipientID, text)
}

// RemindOutstanding sends every ledger participant a summary of their
// nonzero balances. Wired to the cron scheduler; all sends are best
// effort.
func (r *Resolver) RemindOutstanding() {
	ids, err := r.store.Participants()
	if err != nil {
		log.Printf("flow: reminder: %v", err)
		return
	}

	for _, id := range ids {
		partners, err := r.store.Partners(id)
		if err != nil {
			log.Printf("flow: reminder partners for %d: %v", id, err)
			continue
		}

		var lines []string
		for _, partner := range partners {
			diff, err := r.store.NetBalance(id, partner)
			if err != nil {
				log.Printf("flow: reminder balance %d/%d: %v", id, partner, err)
				continue
			}
			if diff == 0 {
				continue
			}
			lines = append(lines, renderBalance(diff, r.linkedName(partner)))
		}
		if len(lines) == 0 {
			continue
		}

		text := msgReminderHeader
		for _, line := range lines {
			text += line + "\n"
		}
		if err := r.out.Notify(id, text); err != nil {
			log.Printf("flow: reminder to %d: %v", id, err)
		}
	}
}

// abort surfaces a persistence failure as a generic message and drops
// the pending query so no half-finished conversation lingers.
func (r *Resolver) abort(querierID int64, err error) error {
	log.Printf("flow: aborting query for %d: %v", querierID, err)
	if e := r.store.ClearPending(querierID); e != nil {
		log.Printf("flow: clear pending for %d: %v", querierID, e)
	}
	if e := r.out.Notify(querierID, msgFailure); e != nil {
		log.Printf("flow: failure notice to %d: %v", querierID, e)
	}
	return err
}

func (r *Resolver) linkedName(userID int64) string {
	return userLink(userID, r.out.ResolveDisplayName(userID))
}
