// Package dialog implements the conversation machine: the main menu, the
// expert-help intake, the questionnaire, strategy screens and restart
// recovery. It is transport-free; outgoing messages go through Sender.
package dialog

import (
	"context"
	"log/slog"
	"sync"

	"github.com/condor-estates/condorbot/i18n"
	"github.com/condor-estates/condorbot/logger"
	"github.com/condor-estates/condorbot/session"
)

// Parse modes for outgoing messages.
const (
	ModeHTML     = "html"
	ModeMarkdown = "markdown"
)

// Button is one inline-keyboard button. Key buttons fire callbacks,
// URL buttons open a link.
type Button struct {
	Text string
	Key  string
	URL  string
}

// Message is a transport-neutral outgoing message. At most one of Buttons,
// Options or RemoveKeyboard is set: Buttons render an inline keyboard,
// Options a one-time reply keyboard, RemoveKeyboard hides the reply keyboard.
type Message struct {
	Text           string
	Mode           string
	Buttons        [][]Button
	Options        [][]string
	RemoveKeyboard bool
}

// Sender delivers engine output to the chat transport.
type Sender interface {
	// Send delivers a message to a chat and returns the sent message id.
	Send(ctx context.Context, chatID int64, msg Message) (int, error)
	// ClearInlineKeyboard strips the inline keyboard from a previously sent
	// message. Failures are not fatal and are handled inside.
	ClearInlineKeyboard(ctx context.Context, chatID int64, messageID int)
	// NotifyOperator forwards a completed record to the operator channel.
	NotifyOperator(ctx context.Context, text string, html bool) error
}

type flowKind int

const (
	flowIntake flowKind = iota
	flowQuestionnaire
)

// activeFlow marks a flow started by this process incarnation. Free text is
// only routed while the persisted token matches; records restored from the
// store without a matching entry stay inert until the flow is restarted.
type activeFlow struct {
	token string
	kind  flowKind
}

// Options configures a new Engine.
type Options struct {
	DefaultLanguage string
	AboutURL        string
}

// Engine drives all chat conversations.
type Engine struct {
	sessions    *session.Registry
	sender      Sender
	tr          i18n.Translator
	defaultLang string
	aboutURL    string

	mu     sync.Mutex
	active map[int64]activeFlow
}

func New(sessions *session.Registry, sender Sender, tr i18n.Translator, opts Options) *Engine {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "ru"
	}
	return &Engine{
		sessions:    sessions,
		sender:      sender,
		tr:          tr,
		defaultLang: opts.DefaultLanguage,
		aboutURL:    opts.AboutURL,
		active:      make(map[int64]activeFlow),
	}
}

// HandleStart handles the /start command: it overwrites the chat session
// with a fresh start-state record and shows the main menu.
func (e *Engine) HandleStart(ctx context.Context, chatID int64, messageID int, langHint string) error {
	if err := e.sessions.Reload(ctx); err != nil {
		logger.DLG.Error("state reload failed",
			slog.String("event", "flow.begin"),
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}

	lang := i18n.ResolveHint(langHint, e.defaultLang)
	if err := e.sessions.PutSession(ctx, session.Session{
		ChatID:        chatID,
		Language:      lang,
		State:         session.StateStart,
		LastMessageID: messageID,
	}); err != nil {
		return err
	}

	logger.DLG.Info("start",
		slog.String("event", "flow.begin"),
		slog.Int64("chat_id", chatID),
		slog.String("lang", lang),
		slog.String("state", string(session.StateStart)),
	)
	return e.sendMainMenu(ctx, chatID, lang)
}

// ShowMainMenu re-sends the welcome message. The session state is left
// untouched; the button consuming keyboard is cleared.
func (e *Engine) ShowMainMenu(ctx context.Context, chatID int64, messageID int) error {
	e.sender.ClearInlineKeyboard(ctx, chatID, messageID)
	lang := e.chatLang(chatID)
	return e.sendMainMenu(ctx, chatID, lang)
}

// HandleText routes free text into the in-flight flow for the chat, if any.
// Text without a flow, or belonging to a flow started by a previous process
// incarnation, is dropped.
func (e *Engine) HandleText(ctx context.Context, chatID int64, text string) error {
	flow, ok := e.sessions.Flow(chatID)
	if !ok {
		logger.DLG.Debug("text dropped",
			slog.String("event", "text.drop"),
			slog.Int64("chat_id", chatID),
			slog.String("outcome", "drop"),
		)
		return nil
	}

	e.mu.Lock()
	af, live := e.active[chatID]
	e.mu.Unlock()
	if !live || af.token != flow.Token {
		logger.DLG.Debug("stale flow text dropped",
			slog.String("event", "text.drop"),
			slog.Int64("chat_id", chatID),
			slog.String("outcome", "drop"),
		)
		return nil
	}

	switch af.kind {
	case flowIntake:
		return e.handleIntakeText(ctx, chatID, flow, text)
	case flowQuestionnaire:
		return e.handleQuestionnaireText(ctx, chatID, flow, text)
	}
	return nil
}

func (e *Engine) sendMainMenu(ctx context.Context, chatID int64, lang string) error {
	_, err := e.sender.Send(ctx, chatID, Message{
		Text: e.t(ctx, lang, welcomeText),
		Buttons: [][]Button{
			{{Text: e.t(ctx, lang, btnQuestionnaire), Key: "questionnaire"}},
			{{Text: e.t(ctx, lang, btnExpertHelp), Key: "expert_help"}},
			{{Text: e.t(ctx, lang, btnAbout), URL: e.aboutURL}},
			{{Text: e.t(ctx, lang, btnStrategies), Key: "strategies"}},
		},
	})
	return err
}

// registerActive marks the flow token as owned by this process.
func (e *Engine) registerActive(chatID int64, token string, kind flowKind) {
	e.mu.Lock()
	e.active[chatID] = activeFlow{token: token, kind: kind}
	e.mu.Unlock()
}

func (e *Engine) dropActive(chatID int64) {
	e.mu.Lock()
	delete(e.active, chatID)
	e.mu.Unlock()
}

// chatLang returns the message language for a chat: the stored session
// language when present, the configured default otherwise.
func (e *Engine) chatLang(chatID int64) string {
	sess, ok := e.sessions.Session(chatID)
	if !ok {
		return e.defaultLang
	}
	return sess.Locale(e.defaultLang)
}

func (e *Engine) t(ctx context.Context, lang, text string) string {
	return e.tr.Localize(ctx, text, lang)
}
