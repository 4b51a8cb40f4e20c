package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/condor-estates/condorbot/dialog"
	"github.com/condor-estates/condorbot/logger"
	"github.com/condor-estates/condorbot/telegram/keyboard"
	tgsender "github.com/condor-estates/condorbot/telegram/sender"
)

// BotSender adapts the telebot transport to the dialog engine. Chat replies
// go out synchronously so their message ids are known; keyboard cleanup and
// operator notifications are fire-and-forget through the dispatcher.
type BotSender struct {
	dispatcher   *tgsender.Dispatcher
	managerGroup int64

	mu  sync.RWMutex
	bot *tele.Bot
}

func NewBotSender(d *tgsender.Dispatcher, managerGroup int64) *BotSender {
	return &BotSender{dispatcher: d, managerGroup: managerGroup}
}

// Bind attaches the live bot once it exists. Called from the run lifecycle.
func (s *BotSender) Bind(bot *tele.Bot) {
	s.mu.Lock()
	s.bot = bot
	s.mu.Unlock()
}

func (s *BotSender) current() *tele.Bot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bot
}

func (s *BotSender) Send(ctx context.Context, chatID int64, msg dialog.Message) (int, error) {
	bot := s.current()
	if bot == nil {
		return 0, fmt.Errorf("telegram: sender not bound")
	}

	opts := &tele.SendOptions{
		ParseMode:   parseMode(msg.Mode),
		ReplyMarkup: buildMarkup(msg),
	}
	sent, err := bot.Send(tele.ChatID(chatID), msg.Text, opts)
	if err != nil {
		return 0, fmt.Errorf("telegram: send to chat %d: %w", chatID, err)
	}
	return sent.ID, nil
}

func (s *BotSender) ClearInlineKeyboard(ctx context.Context, chatID int64, messageID int) {
	bot := s.current()
	if bot == nil || messageID == 0 {
		return
	}
	ref := &tele.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    chatID,
	}
	run := func() error {
		_, err := bot.EditReplyMarkup(ref, &tele.ReplyMarkup{})
		return err
	}
	if err := s.dispatcher.Enqueue(ctx, "keyboard.clear", "editMessageReplyMarkup", run); err != nil {
		// Stripping an already consumed keyboard is best effort.
		if runErr := run(); runErr != nil {
			logger.TG.Debug("keyboard clear failed",
				slog.String("event", "keyboard.clear"),
				slog.Int64("chat_id", chatID),
				slog.String("err", runErr.Error()),
			)
		}
	}
}

func (s *BotSender) NotifyOperator(ctx context.Context, text string, html bool) error {
	bot := s.current()
	if bot == nil {
		return fmt.Errorf("telegram: sender not bound")
	}
	opts := &tele.SendOptions{}
	if html {
		opts.ParseMode = tele.ModeHTML
	}
	run := func() error {
		_, err := bot.Send(tele.ChatID(s.managerGroup), text, opts)
		return err
	}
	if err := s.dispatcher.Enqueue(ctx, "operator.notify", "sendMessage", run); err != nil {
		return run()
	}
	return nil
}

func parseMode(mode string) tele.ParseMode {
	switch mode {
	case dialog.ModeHTML:
		return tele.ModeHTML
	case dialog.ModeMarkdown:
		return tele.ModeMarkdown
	default:
		return tele.ModeDefault
	}
}

func buildMarkup(msg dialog.Message) *tele.ReplyMarkup {
	switch {
	case len(msg.Buttons) > 0:
		rows := make([][]keyboard.InlineBtn, 0, len(msg.Buttons))
		for _, row := range msg.Buttons {
			r := make([]keyboard.InlineBtn, 0, len(row))
			for _, b := range row {
				r = append(r, keyboard.InlineBtn{Text: b.Text, Unique: b.Key, URL: b.URL})
			}
			rows = append(rows, r)
		}
		return keyboard.InlineRows(rows...)
	case len(msg.Options) > 0:
		return keyboard.OneTimeButtons(msg.Options...)
	case msg.RemoveKeyboard:
		return keyboard.RemoveKeyboard()
	default:
		return nil
	}
}
