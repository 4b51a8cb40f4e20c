package middleware

import (
	tele "gopkg.in/telebot.v4"
)

const (
	counterMessages = "messages"
	counterKeyboard = "kb"
)

// metricsContext wraps tele.Context so every successful send through it
// bumps the per-update message counter and keyboard flag.
type metricsContext struct{ tele.Context }

func (m metricsContext) record(opts []interface{}) {
	n, _ := m.Get(counterMessages).(int)
	m.Set(counterMessages, n+1)
	if carriesKeyboard(opts) {
		m.Set(counterKeyboard, true)
	}
}

func carriesKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (m metricsContext) Send(what interface{}, opts ...interface{}) error {
	if err := m.Context.Send(what, opts...); err != nil {
		return err
	}
	m.record(opts)
	return nil
}

func (m metricsContext) Reply(what interface{}, opts ...interface{}) error {
	if err := m.Context.Reply(what, opts...); err != nil {
		return err
	}
	m.record(opts)
	return nil
}

func (m metricsContext) Edit(what interface{}, opts ...interface{}) error {
	if err := m.Context.Edit(what, opts...); err != nil {
		return err
	}
	m.record(opts)
	return nil
}

func (m metricsContext) EditOrSend(what interface{}, opts ...interface{}) error {
	if err := m.Context.EditOrSend(what, opts...); err != nil {
		return err
	}
	m.record(opts)
	return nil
}

// MessageMetricsMiddleware instruments the context so the handler summary
// can report how many messages an update produced.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(counterMessages, 0)
		c.Set(counterKeyboard, false)
		return next(metricsContext{Context: c})
	}
}

// GetCounters reads the message count and keyboard flag for the update.
func GetCounters(c tele.Context) (int, bool) {
	msgs, _ := c.Get(counterMessages).(int)
	kb, _ := c.Get(counterKeyboard).(bool)
	return msgs, kb
}
