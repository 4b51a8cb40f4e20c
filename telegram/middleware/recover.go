package middleware

import (
	"log/slog"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"

	"github.com/condor-estates/condorbot/logger"
)

// RecoverMiddleware contains handler panics so one bad update cannot take
// the bot down. The panic value and stack go to the error log.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				var chatID int64
				if chat := c.Chat(); chat != nil {
					chatID = chat.ID
				}
				logger.TG.Error("panic recovered",
					slog.String("event", "tg.panic"),
					slog.Int64("chat_id", chatID),
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		return next(c)
	}
}
