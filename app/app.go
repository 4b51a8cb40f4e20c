package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/condor-estates/condorbot/config"
	"github.com/condor-estates/condorbot/dialog"
	"github.com/condor-estates/condorbot/i18n"
	"github.com/condor-estates/condorbot/logger"
	"github.com/condor-estates/condorbot/session"
	"github.com/condor-estates/condorbot/store"
	"github.com/condor-estates/condorbot/telegram"
	"github.com/condor-estates/condorbot/telegram/helpers"
	"github.com/condor-estates/condorbot/telegram/middleware"
	"github.com/condor-estates/condorbot/telegram/router"
	tgsender "github.com/condor-estates/condorbot/telegram/sender"
)

// App wires configuration, persistence, localization, and the dialogue
// engine into a runnable Telegram bot.
type App struct {
	cfg        *config.Config
	store      store.Store
	sessions   *session.Registry
	dispatcher *tgsender.Dispatcher
	sender     *telegram.BotSender
	engine     *dialog.Engine
}

// New initializes the logger, opens the configured store backend, and
// builds the dialogue engine on top of it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}
	if err := logger.Init(cfg); err != nil {
		return nil, fmt.Errorf("app: logger init failed: %w", err)
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("app: store initialization failed: %w", err)
	}

	sessions := session.NewRegistry(st)
	dispatcher := tgsender.NewDispatcher(tgsender.Options{})
	sender := telegram.NewBotSender(dispatcher, cfg.Bot.ManagerGroup)
	engine := dialog.New(sessions, sender, i18n.NewGoogle(cfg.Translate), dialog.Options{
		DefaultLanguage: cfg.Bot.DefaultLanguage,
		AboutURL:        cfg.Bot.AboutURL,
	})

	return &App{
		cfg:        cfg,
		store:      st,
		sessions:   sessions,
		dispatcher: dispatcher,
		sender:     sender,
		engine:     engine,
	}, nil
}

// TelegramRunOptions assembles routes, callbacks, and lifecycle hooks for
// telegram.RunTelegram.
func (a *App) TelegramRunOptions() (telegram.RunOptions, error) {
	reg := telegram.NewRegistry()

	callbacks := map[string]tele.HandlerFunc{
		"questionnaire":       a.callback(a.engine.OpenQuestionnaire),
		"expert_help":         a.callback(a.engine.OpenExpertIntake),
		"strategies":          a.callback(a.engine.ShowStrategies),
		"help_again":          a.callback(a.engine.ShowMainMenu),
		dialog.StrategyRental: a.strategyCallback(dialog.StrategyRental),
		dialog.StrategyResale: a.strategyCallback(dialog.StrategyResale),
		dialog.StrategyLease:  a.strategyCallback(dialog.StrategyLease),
	}
	for key, h := range callbacks {
		if err := reg.RegisterCallback(key, h); err != nil {
			return telegram.RunOptions{}, fmt.Errorf("app: callback %q registration failed: %w", key, err)
		}
	}

	routes := []telegram.Route{
		router.CommandRoute("/start", a.handleStart),
		router.TextRoute(a.handleText),
		router.ContactRoute(a.handleContact),
		router.CallbackRoute(reg, router.CallbackOptions{}),
	}

	exclude := map[string]struct{}{}
	for _, kind := range a.cfg.RateLimit.ExcludeUpdates {
		exclude[kind] = struct{}{}
	}
	middlewares := []telegram.Middleware{
		{Name: "rate_limit", Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
			Interval: time.Duration(a.cfg.RateLimit.IntervalMS) * time.Millisecond,
			Exclude:  exclude,
		})},
		{Name: "message_metrics", Use: middleware.MessageMetricsMiddleware},
	}

	return telegram.RunOptions{
		Config:     a.cfg,
		Registry:   reg,
		Dispatcher: a.dispatcher,

		Middlewares: middlewares,
		Routes:      routes,

		Commands: []tele.Command{
			{Text: "/start", Description: "Перезапустить бота"},
		},

		OnStart: a.onStart,
		OnStop:  a.onStop,
	}, nil
}

// onStart binds the live bot to the outbound sender, restores persisted
// sessions, and replays the recovery notices.
func (a *App) onStart(ctx context.Context, rt telegram.Runtime) error {
	a.sender.Bind(rt.Bot)

	if err := a.sessions.Reload(ctx); err != nil {
		return fmt.Errorf("app: session reload failed: %w", err)
	}
	a.engine.Recover(ctx)
	return nil
}

func (a *App) onStop(ctx context.Context, rt telegram.Runtime) error {
	if err := a.store.Close(); err != nil {
		logger.STORE.Warn("store close failed",
			slog.String("event", "store.close"),
			slog.String("err", err.Error()),
		)
	}
	return nil
}

func (a *App) handleStart(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	var hint string
	if c.Sender() != nil {
		hint = c.Sender().LanguageCode
	}
	return a.engine.HandleStart(ctx, c.Chat().ID, messageID(c), hint)
}

func (a *App) handleText(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	return a.engine.HandleText(ctx, c.Chat().ID, strings.TrimSpace(c.Text()))
}

// handleContact feeds a shared contact into the flow as if the phone number
// had been typed, normalizing the missing plus sign Telegram omits.
func (a *App) handleContact(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	contact := c.Message().Contact
	if contact == nil {
		return nil
	}
	phone := contact.PhoneNumber
	if phone != "" && !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}
	return a.engine.HandleText(ctx, c.Chat().ID, phone)
}

// callback adapts an engine operation taking (chatID, messageID) into a
// telebot handler. The message ID points at the message whose inline
// keyboard the engine clears before answering.
func (a *App) callback(fn func(ctx context.Context, chatID int64, messageID int) error) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := helpers.BuildContext(c)
		return fn(ctx, c.Chat().ID, messageID(c))
	}
}

func (a *App) strategyCallback(key string) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := helpers.BuildContext(c)
		return a.engine.ShowStrategy(ctx, c.Chat().ID, messageID(c), key)
	}
}

func messageID(c tele.Context) int {
	if msg := c.Message(); msg != nil {
		return msg.ID
	}
	return 0
}
