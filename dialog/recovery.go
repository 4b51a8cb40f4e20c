package dialog

import (
	"context"
	"log/slog"

	"github.com/condor-estates/condorbot/logger"
	"github.com/condor-estates/condorbot/session"
)

// Recover walks every persisted session after a restart and tells each chat
// how to pick up where it left off. Flows themselves are not resumed here;
// the user re-enters them through the offered buttons, which re-mints the
// flow token.
func (e *Engine) Recover(ctx context.Context) {
	sessions := e.sessions.Sessions()
	logger.DLG.Info("recovery started",
		slog.String("event", "recover.begin"),
		slog.Int("messages", len(sessions)),
	)

	for _, sess := range sessions {
		if err := e.recoverChat(ctx, sess); err != nil {
			logger.DLG.Error("recovery failed for chat",
				slog.String("event", "recover.chat"),
				slog.Int64("chat_id", sess.ChatID),
				slog.String("state", string(sess.State)),
				slog.String("err", err.Error()),
			)
		}
	}
}

func (e *Engine) recoverChat(ctx context.Context, sess session.Session) error {
	lang := sess.Locale(e.defaultLang)

	switch sess.State {
	case session.StateQuestionnaire:
		_, err := e.sender.Send(ctx, sess.ChatID, Message{
			Text: e.t(ctx, lang, recoverQuestionnaireText),
			Buttons: [][]Button{
				{{Text: e.t(ctx, lang, btnResumeForm), Key: "questionnaire"}},
				{{Text: e.t(ctx, lang, btnMainMenu), Key: "help_again"}},
			},
		})
		return err

	case session.StateStrategiesMenu:
		_, err := e.sender.Send(ctx, sess.ChatID, Message{
			Text: e.t(ctx, lang, recoverStrategiesText),
			Buttons: [][]Button{
				{{Text: e.t(ctx, lang, btnStrategies), Key: "strategies"}},
				{{Text: e.t(ctx, lang, btnMainMenu), Key: "help_again"}},
			},
		})
		return err

	case session.StateAwaitingEmail, session.StateAwaitingPhone, session.StateAwaitingFIO:
		// Contact details are not re-prompted directly: the flow token died
		// with the previous process, so the chat is offered a fresh start.
		_, err := e.sender.Send(ctx, sess.ChatID, Message{
			Text: e.t(ctx, lang, recoverIntakeText),
			Buttons: [][]Button{
				{{Text: e.t(ctx, lang, btnExpertHelp), Key: "expert_help"}},
				{{Text: e.t(ctx, lang, btnMainMenu), Key: "help_again"}},
			},
		})
		return err

	case session.StateStart:
		if err := e.sessions.PutSession(ctx, session.Session{
			ChatID:   sess.ChatID,
			Language: sess.Language,
			State:    session.StateStart,
		}); err != nil {
			return err
		}
		return e.sendMainMenu(ctx, sess.ChatID, lang)

	default:
		logger.DLG.Warn("unknown state skipped",
			slog.String("event", "recover.chat"),
			slog.Int64("chat_id", sess.ChatID),
			slog.String("state", string(sess.State)),
			slog.String("outcome", "drop"),
		)
		return nil
	}
}
