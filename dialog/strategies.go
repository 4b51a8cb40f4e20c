package dialog

import (
	"context"
	"log/slog"

	"github.com/condor-estates/condorbot/logger"
	"github.com/condor-estates/condorbot/session"
)

// Strategy screen callback keys.
const (
	StrategyRental = "rental_strategy"
	StrategyResale = "resale_strategy"
	StrategyLease  = "lease_strategy"
)

// ShowStrategies opens the investment-strategies overview and moves the
// chat into the strategies state.
func (e *Engine) ShowStrategies(ctx context.Context, chatID int64, messageID int) error {
	e.sender.ClearInlineKeyboard(ctx, chatID, messageID)

	sess, ok := e.sessions.Session(chatID)
	if !ok {
		logger.DLG.Warn("strategies without session",
			slog.String("event", "flow.begin"),
			slog.String("flow", "strategies"),
			slog.Int64("chat_id", chatID),
			slog.String("outcome", "drop"),
		)
		return nil
	}
	lang := sess.Locale(e.defaultLang)

	if err := e.sessions.SetState(ctx, chatID, session.StateStrategiesMenu); err != nil {
		return err
	}
	if err := e.sessions.SetLastMessageID(ctx, chatID, messageID); err != nil {
		return err
	}

	_, err := e.sender.Send(ctx, chatID, Message{
		Text: e.t(ctx, lang, strategiesMenuText),
		Mode: ModeMarkdown,
		Buttons: [][]Button{
			{{Text: e.t(ctx, lang, btnRental), Key: StrategyRental}},
			{{Text: e.t(ctx, lang, btnResale), Key: StrategyResale}},
			{{Text: e.t(ctx, lang, btnLease), Key: StrategyLease}},
		},
	})
	return err
}

// ShowStrategy renders a single strategy screen. The screens are stateless:
// they cross-link the other two strategies and the main menu.
func (e *Engine) ShowStrategy(ctx context.Context, chatID int64, messageID int, key string) error {
	e.sender.ClearInlineKeyboard(ctx, chatID, messageID)
	lang := e.chatLang(chatID)

	var (
		text  string
		cross []Button
	)
	switch key {
	case StrategyRental:
		text = rentalStrategyText
		cross = []Button{
			{Text: e.t(ctx, lang, btnResale), Key: StrategyResale},
			{Text: e.t(ctx, lang, btnLease), Key: StrategyLease},
		}
	case StrategyResale:
		text = resaleStrategyText
		cross = []Button{
			{Text: e.t(ctx, lang, btnRental), Key: StrategyRental},
			{Text: e.t(ctx, lang, btnLease), Key: StrategyLease},
		}
	case StrategyLease:
		text = leaseStrategyText
		cross = []Button{
			{Text: e.t(ctx, lang, btnRental), Key: StrategyRental},
			{Text: e.t(ctx, lang, btnResale), Key: StrategyResale},
		}
	default:
		logger.DLG.Warn("unknown strategy",
			slog.String("event", "flow.step"),
			slog.String("flow", "strategies"),
			slog.Int64("chat_id", chatID),
			slog.String("cb_key", key),
		)
		return nil
	}

	_, err := e.sender.Send(ctx, chatID, Message{
		Text: e.t(ctx, lang, text),
		Mode: ModeHTML,
		Buttons: [][]Button{
			cross,
			{{Text: e.t(ctx, lang, btnMainMenu), Key: "help_again"}},
		},
	})
	return err
}
