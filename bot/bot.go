package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/telebot.v3"

	"github.com/dot-file/accountant-telegram-bot/flow"
	"github.com/dot-file/accountant-telegram-bot/ledger"
	"github.com/dot-file/accountant-telegram-bot/model"
)

// uniquePartner tags counterparty buttons so the callback handler can
// route their payload into the resolver.
const uniquePartner = "partner"

// Bot wires Telegram updates into the query resolver and implements
// the resolver's outbound Messenger capability.
type Bot struct {
	B        *telebot.Bot
	resolver *flow.Resolver
}

func New(token string, store *ledger.Store) (*Bot, error) {
	pref := telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := telebot.NewBot(pref)
	if err != nil {
		return nil, err
	}

	bot := &Bot{B: b}
	bot.resolver = flow.NewResolver(store, bot)

	bot.registerHandlers()
	if err := bot.registerCommands(); err != nil {
		return nil, err
	}
	return bot, nil
}

func (bot *Bot) Start() {
	bot.B.Start()
}

// RemindOutstanding is the cron entry point.
func (bot *Bot) RemindOutstanding() {
	bot.resolver.RemindOutstanding()
}

func (bot *Bot) registerHandlers() {
	// Commands
	bot.B.Handle("/start", bot.handleStart)
	bot.B.Handle("/show_my_id", bot.handleShowMyID)

	// The six main-menu actions double as slash commands
	for _, opt := range flow.MainMenu {
		command := opt.Value
		bot.B.Handle("/"+command, func(c telebot.Context) error {
			return bot.resolver.Start(c.Sender().ID, command)
		})
	}

	// Free text supplies a value to the pending query
	bot.B.Handle(telebot.OnText, bot.handleText)

	// Inline buttons (main menu and counterparty picks)
	bot.B.Handle(telebot.OnCallback, bot.handleCallback)
}

// registerCommands publishes the command menu shown by Telegram
// clients.
func (bot *Bot) registerCommands() error {
	commands := []telebot.Command{
		{Text: "start", Description: "Main menu"},
		{Text: "show_my_id", Description: "Show your ID"},
	}
	for _, opt := range flow.MainMenu {
		commands = append(commands, telebot.Command{Text: opt.Value, Description: opt.Label})
	}
	return bot.B.SetCommands(commands)
}

func (bot *Bot) handleStart(c telebot.Context) error {
	return bot.resolver.Reset(c.Sender().ID)
}

func (bot *Bot) handleShowMyID(c telebot.Context) error {
	return c.Send(strconv.FormatInt(c.Sender().ID, 10))
}

func (bot *Bot) handleText(c telebot.Context) error {
	return bot.resolver.Supply(c.Sender().ID, c.Text())
}

// handleCallback routes inline-button presses: main-menu buttons start
// a fresh query, partner buttons feed their value into the resolver
// exactly like typed text would.
func (bot *Bot) handleCallback(c telebot.Context) error {
	unique := strings.TrimSpace(c.Callback().Unique)
	data := strings.TrimSpace(c.Callback().Data)

	if _, ok := model.NormalizeCommand(unique); ok {
		bot.feedbackPressed(c, unique)
		return bot.resolver.Start(c.Sender().ID, unique)
	}

	if unique == uniquePartner {
		_ = c.Respond()
		// Drop the keyboard so the same option is not pressed twice
		_, _ = bot.B.EditReplyMarkup(c.Message(), nil)
		return bot.resolver.Supply(c.Sender().ID, data)
	}

	return c.Respond()
}

// feedbackPressed replaces the menu message with an acknowledgement of
// the pressed button.
func (bot *Bot) feedbackPressed(c telebot.Context, command string) {
	label := command
	for _, opt := range flow.MainMenu {
		if opt.Value == command {
			label = opt.Label
			break
		}
	}
	_ = c.Respond()
	_ = c.Edit(fmt.Sprintf("<b>You pressed</b>: %s", label), telebot.ModeHTML)
}

// --- flow.Messenger ---

func (bot *Bot) Notify(userID int64, text string) error {
	_, err := bot.B.Send(&telebot.User{ID: userID}, text, telebot.ModeHTML)
	return err
}

func (bot *Bot) PresentOptions(userID int64, prompt string, options []flow.Option) error {
	menu := &telebot.ReplyMarkup{}

	var rows []telebot.Row
	for _, opt := range options {
		var btn telebot.Btn
		if _, ok := model.NormalizeCommand(opt.Value); ok {
			btn = menu.Data(opt.Label, opt.Value)
		} else {
			btn = menu.Data(opt.Label, uniquePartner, opt.Value)
		}
		rows = append(rows, menu.Row(btn))
	}
	menu.Inline(rows...)

	_, err := bot.B.Send(&telebot.User{ID: userID}, prompt, menu, telebot.ModeHTML)
	return err
}

// ResolveDisplayName looks up a user's visible name, preferring the
// username over first/last name, always suffixed with the numeric id.
// Unresolvable ids degrade to a placeholder instead of failing the
// caller.
func (bot *Bot) ResolveDisplayName(userID int64) string {
	name := "User not found"

	chat, err := bot.B.ChatByID(userID)
	if err == nil {
		name = strings.TrimSpace(chat.FirstName + " " + chat.LastName)
		if chat.Username != "" {
			name = chat.Username
		}
	}

	return fmt.Sprintf("%s (%d)", name, userID)
}
