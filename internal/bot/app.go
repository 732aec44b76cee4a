// Package bot wires the dialog engine into the Telegram transport: commands
// and callbacks become typed events, engine replies become outbound messages.
package bot

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "taskbot/core/config"
	"taskbot/core/logger"
	tg "taskbot/core/telegram"
	"taskbot/core/telegram/router"
	tgsender "taskbot/core/telegram/sender"
	"taskbot/internal/backend"
	"taskbot/internal/dialog"
	"taskbot/internal/session"

	"log/slog"
)

// App assembles the conversational service around one Telegram bot.
type App struct {
	cfg        *coreconfig.Config
	store      *session.Store
	engine     *dialog.Engine
	registry   *tg.Registry
	dispatcher *tgsender.Dispatcher

	evictStop chan struct{}
	evictDone chan struct{}
}

// New builds the application: backend client, session store, dialog engine,
// and the command/callback registry.
func New(cfg *coreconfig.Config) (*App, error) {
	client := backend.New(cfg.Backend.BaseURL, time.Duration(cfg.Backend.TimeoutSeconds)*time.Second)
	store := session.NewStore()
	engine := dialog.NewEngine(store, client, time.Duration(cfg.Backend.TimeoutSeconds)*time.Second)

	a := &App{
		cfg:      cfg,
		store:    store,
		engine:   engine,
		registry: tg.NewRegistry(),
	}
	a.registerCommands()
	a.registerCallbacks()
	return a, nil
}

// InProgress reports whether the user already has a session. Free text from
// such users is routed into the state machine instead of command lookup.
func (a *App) InProgress(userID int64) bool {
	_, ok := a.store.Peek(userID)
	return ok
}

// ManagerHandler feeds a text update of an in-dialog user into the engine.
func (a *App) ManagerHandler(c tele.Context) error {
	return a.handleText(c)
}

// TelegramRunOptions builds the runtime wiring consumed by core/telegram.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	a.dispatcher = tgsender.NewDispatcher(tgsender.Options{})

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
	})
	routes = append(routes, router.TextRoutes(a, a.registry, router.TextOptions{
		UnknownText: a.handleText,
	})...)
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))

	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    a.registry,
		Dispatcher:  a.dispatcher,
		Middlewares: tg.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			a.startEviction()
			return nil
		},
		OnStop: func(ctx context.Context, rt tg.Runtime) error {
			a.stopEviction()
			return nil
		},
	}, nil
}

// startEviction runs the periodic idle-session sweep. Draft data in evicted
// sessions is dropped; the next event from such a user starts fresh.
func (a *App) startEviction() {
	ttl := time.Duration(a.cfg.Session.IdleTTLMinutes) * time.Minute
	interval := time.Duration(a.cfg.Session.EvictIntervalMinutes) * time.Minute
	a.evictStop = make(chan struct{})
	a.evictDone = make(chan struct{})

	go func() {
		defer close(a.evictDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-a.evictStop:
				return
			case now := <-ticker.C:
				if evicted := a.store.EvictIdle(now, ttl); evicted > 0 {
					logger.Sess.Info("idle sessions evicted",
						slog.String("event", "evict"),
						slog.Int("evicted", evicted),
						slog.Int("sessions", a.store.Len()),
					)
				}
			}
		}
	}()
}

func (a *App) stopEviction() {
	if a.evictStop == nil {
		return
	}
	close(a.evictStop)
	<-a.evictDone
	a.evictStop = nil
}
