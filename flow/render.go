package flow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dot-file/accountant-telegram-bot/ledger"
	"github.com/dot-file/accountant-telegram-bot/model"
)

// historyByteLimit is the platform ceiling on one outbound message.
const historyByteLimit = 4096

const (
	msgWelcome = "<b>Welcome to Accountant Bot!</b>\n" +
		"This bot keeps track of debts between people.\n\n" +
		"Press a button to proceed."
	msgCounterpartyPrompt = "<b>Who is the other user?</b>\n\n" +
		"Click a button with the user's name.\n" +
		"To add a new user, enter their ID (they can get it with /show_my_id)"
	msgNumbersOnly    = "Your message should only contain a number."
	msgSelfPick       = "You can't choose yourself. Choose someone else."
	msgAmountPrompt   = "<b>%s</b> was chosen.\n\n<b>What's the amount?</b>"
	msgAmountPositive = "The amount must be greater than zero."
	msgGiven          = "The amount of <b>%d</b> was given to <b>%s</b>"
	msgReceived       = "You have just received the amount of <b>%d</b> from <b>%s</b>"
	msgFailure        = "Something went wrong. Please try again."
	msgHistoryHeader  = "<b>Last several dozen entries</b>\n\n"
	msgHistoryEmpty   = "Empty :("
	msgReminderHeader = "<b>Outstanding debts</b>\n\n"
)

// parseNumeric accepts unsigned digit strings only: no sign, no
// decimals, no expressions.
func parseNumeric(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// userLink renders a tg://user mention so clients show the name as a
// clickable profile link.
func userLink(userID int64, name string) string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, userID, name)
}

// renderBalance phrases a net balance from the perspective of the
// recipient: diff is their NetBalance with other, so positive means
// other owes them.
func renderBalance(diff int64, other string) string {
	switch {
	case diff == 0:
		return fmt.Sprintf("No one among you and <b>%s</b> is in debt", other)
	case diff < 0:
		return fmt.Sprintf("You owe <b>%s</b>: %d", other, -diff)
	default:
		return fmt.Sprintf("<b>%s</b> owes you: %d", other, diff)
	}
}

// renderHistoryRow formats one entry with a directional marker:
// outgoing when the entry runs conversation-from → conversation-to,
// incoming for the reverse. The marker is derived purely from the
// entry's two identities against the conversation's two.
func renderHistoryRow(e model.Entry, fromID, toID int64, fromName, toName string) string {
	var marker string
	switch {
	case e.FromUserID == fromID && e.ToUserID == toID:
		marker = "--&gt;"
	case e.FromUserID == toID && e.ToUserID == fromID:
		marker = "&lt;--"
	}
	return fmt.Sprintf("%s\n<b>%s</b> %s <b>%s</b>: <i><b>%d</b></i>\n\n",
		e.CreatedAt.Format(time.DateTime), fromName, marker, toName, e.Amount)
}

// renderHistory assembles the history message, accumulating size row
// by row and stopping before the row that would push the message over
// the platform ceiling. Rows already emitted are kept.
func renderHistory(store *ledger.Store, fromID, toID int64, fromName, toName string) (string, error) {
	var b strings.Builder
	b.WriteString(msgHistoryHeader)

	empty := true
	err := store.HistoryBetween(fromID, toID, func(e model.Entry) bool {
		row := renderHistoryRow(e, fromID, toID, fromName, toName)
		if b.Len()+len(row) >= historyByteLimit {
			return false
		}
		b.WriteString(row)
		empty = false
		return true
	})
	if err != nil {
		return "", err
	}

	if empty {
		b.WriteString(msgHistoryEmpty)
	}
	return b.String(), nil
}
