package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/condor-estates/condorbot/logger"
	"github.com/condor-estates/condorbot/session"
)

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-z]+\.[a-z]+$`)
	phoneRe = regexp.MustCompile(`^\+\d{6,16}$`)
)

// OpenExpertIntake starts (or restarts) the expert-help contact flow.
func (e *Engine) OpenExpertIntake(ctx context.Context, chatID int64, messageID int) error {
	e.sender.ClearInlineKeyboard(ctx, chatID, messageID)

	if err := e.sessions.Reload(ctx); err != nil {
		logger.DLG.Error("state reload failed",
			slog.String("event", "flow.begin"),
			slog.String("flow", "intake"),
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}

	sess, ok := e.sessions.Session(chatID)
	if !ok {
		logger.DLG.Warn("intake without session",
			slog.String("event", "flow.begin"),
			slog.String("flow", "intake"),
			slog.Int64("chat_id", chatID),
			slog.String("outcome", "drop"),
		)
		return nil
	}
	lang := sess.Locale(e.defaultLang)

	token, err := e.sessions.BeginIntake(ctx, chatID)
	if err != nil {
		return err
	}
	if err := e.sessions.SetState(ctx, chatID, session.StateAwaitingEmail); err != nil {
		return err
	}
	if err := e.sessions.SetLastMessageID(ctx, chatID, messageID); err != nil {
		return err
	}
	e.registerActive(chatID, token, flowIntake)

	logger.DLG.Info("intake started",
		slog.String("event", "flow.begin"),
		slog.String("flow", "intake"),
		slog.Int64("chat_id", chatID),
		slog.String("state", string(session.StateAwaitingEmail)),
	)

	_, err = e.sender.Send(ctx, chatID, Message{Text: e.t(ctx, lang, promptEmail)})
	return err
}

func (e *Engine) handleIntakeText(ctx context.Context, chatID int64, flow session.FlowState, text string) error {
	switch flow.Step {
	case session.StepEmail:
		return e.handleEmail(ctx, chatID, text)
	case session.StepPhone:
		return e.handlePhone(ctx, chatID, text)
	case session.StepFIO:
		return e.handleFIO(ctx, chatID, text)
	}
	return nil
}

func (e *Engine) handleEmail(ctx context.Context, chatID int64, text string) error {
	lang := e.chatLang(chatID)
	if !emailRe.MatchString(text) {
		_, err := e.sender.Send(ctx, chatID, Message{Text: e.t(ctx, lang, promptEmailInvalid)})
		return err
	}

	if err := e.sessions.BeginIntakeRecord(ctx, chatID, intakeDescription, text); err != nil {
		return err
	}
	if err := e.sessions.AdvanceIntake(ctx, chatID, session.StepPhone); err != nil {
		return err
	}
	if err := e.sessions.SetState(ctx, chatID, session.StateAwaitingPhone); err != nil {
		return err
	}

	logger.DLG.Debug("intake step",
		slog.String("event", "flow.step"),
		slog.String("flow", "intake"),
		slog.Int64("chat_id", chatID),
		slog.String("step", string(session.StepPhone)),
	)
	_, err := e.sender.Send(ctx, chatID, Message{Text: e.t(ctx, lang, promptPhone)})
	return err
}

func (e *Engine) handlePhone(ctx context.Context, chatID int64, text string) error {
	lang := e.chatLang(chatID)
	if !phoneRe.MatchString(text) {
		_, err := e.sender.Send(ctx, chatID, Message{Text: e.t(ctx, lang, promptPhoneInvalid)})
		return err
	}

	if err := e.sessions.SetIntakePhone(ctx, chatID, text); err != nil {
		return err
	}
	if err := e.sessions.AdvanceIntake(ctx, chatID, session.StepFIO); err != nil {
		return err
	}
	if err := e.sessions.SetState(ctx, chatID, session.StateAwaitingFIO); err != nil {
		return err
	}

	logger.DLG.Debug("intake step",
		slog.String("event", "flow.step"),
		slog.String("flow", "intake"),
		slog.Int64("chat_id", chatID),
		slog.String("step", string(session.StepFIO)),
	)
	_, err := e.sender.Send(ctx, chatID, Message{Text: e.t(ctx, lang, promptFIO)})
	return err
}

func (e *Engine) handleFIO(ctx context.Context, chatID int64, text string) error {
	lang := e.chatLang(chatID)

	if err := e.sessions.SetIntakeFIO(ctx, chatID, text); err != nil {
		return err
	}

	_, err := e.sender.Send(ctx, chatID, Message{
		Text:    e.t(ctx, lang, intakeDoneText),
		Buttons: e.followUpButtons(ctx, lang),
	})
	if err != nil {
		return err
	}

	rec, ok := e.sessions.Intake(chatID)
	if ok {
		summary := fmt.Sprintf(
			"💡 Тема: %s\n📧 Адрес электронной почты: %s\n📱 Номер телефона: %s\n👨🏻‍💻 ФИО: %s",
			rec.Description, rec.Email, rec.Phone, rec.FIO,
		)
		if err := e.sender.NotifyOperator(ctx, summary, false); err != nil {
			logger.DLG.Error("operator notify failed",
				slog.String("event", "flow.complete"),
				slog.String("flow", "intake"),
				slog.Int64("chat_id", chatID),
				slog.String("err", err.Error()),
			)
		}
	}

	if err := e.sessions.ClearFlow(ctx, chatID); err != nil {
		return err
	}
	if err := e.sessions.ClearIntake(ctx, chatID); err != nil {
		return err
	}
	e.dropActive(chatID)
	if err := e.sessions.SetState(ctx, chatID, session.StateStart); err != nil {
		return err
	}

	logger.DLG.Info("intake complete",
		slog.String("event", "flow.complete"),
		slog.String("flow", "intake"),
		slog.Int64("chat_id", chatID),
		slog.String("outcome", "ok"),
	)
	return nil
}

// followUpButtons are offered after a completed flow: the three strategy
// screens plus a way back to the main menu.
func (e *Engine) followUpButtons(ctx context.Context, lang string) [][]Button {
	return [][]Button{
		{{Text: e.t(ctx, lang, btnRental), Key: "rental_strategy"}},
		{{Text: e.t(ctx, lang, btnResale), Key: "resale_strategy"}},
		{{Text: e.t(ctx, lang, btnLease), Key: "lease_strategy"}},
		{{Text: e.t(ctx, lang, btnMainMenu), Key: "help_again"}},
	}
}
