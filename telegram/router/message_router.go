package router

import (
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/condor-estates/condorbot/telegram"
	"github.com/condor-estates/condorbot/telegram/middleware"
)

// CommandRoute wraps a command handler with shared middleware and summary logging.
func CommandRoute(command string, h tele.HandlerFunc) tg.Route {
	name := normalizeHandlerName(command)
	handler := func(c tele.Context) error {
		start := time.Now()
		return handleWithSummary(c, name, start, "", "", func() error {
			return h(c)
		})
	}
	return tg.Route{
		Endpoint: command,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}

// TextRoute routes plain text messages into the provided handler. Text that
// the handler drops (no in-flight flow, stale token) still gets a summary line.
func TextRoute(h tele.HandlerFunc) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if h == nil {
			logHandlerSummary(c, "text", start, "skip", "ok", nil)
			return nil
		}
		return handleWithSummary(c, "text", start, "", "", func() error {
			return h(c)
		})
	}
	return tg.Route{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}

// ContactRoute handles shared-contact updates the same way as text.
func ContactRoute(h tele.HandlerFunc) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if h == nil {
			logHandlerSummary(c, "contact", start, "skip", "ok", nil)
			return nil
		}
		return handleWithSummary(c, "contact", start, "", "", func() error {
			return h(c)
		})
	}
	return tg.Route{
		Endpoint: tele.OnContact,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
