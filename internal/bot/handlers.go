package bot

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"taskbot/core/telegram/commands"
	tghelpers "taskbot/core/telegram/helpers"
	"taskbot/internal/dialog"
)

const helpText = "ToDo List Bot.\n\n" +
	"/start - open the main menu\n" +
	"/tasks - view your tasks\n" +
	"/add - add a new task\n" +
	"/skip - skip the optional description\n" +
	"/cancel - abort the current flow"

// dispatch feeds one typed event into the dialog engine and renders the reply.
func (a *App) dispatch(c tele.Context, ev dialog.Event) error {
	ctx := tghelpers.WithHandler(c, "dialog."+ev.Kind.String())
	reply := a.engine.Handle(ctx, c.Sender().ID, ev)
	return a.send(c, reply)
}

func (a *App) send(c tele.Context, reply dialog.Reply) error {
	if reply.Text == "" {
		return nil
	}
	if markup := markupFor(reply.Menu); markup != nil {
		return tghelpers.SendText(c, reply.Text, &tele.SendOptions{ReplyMarkup: markup})
	}
	return tghelpers.SendText(c, reply.Text)
}

func (a *App) eventHandler(kind dialog.Kind) tele.HandlerFunc {
	return func(c tele.Context) error {
		return a.dispatch(c, dialog.Event{Kind: kind})
	}
}

// handleText routes free-text messages into the state machine.
func (a *App) handleText(c tele.Context) error {
	return a.dispatch(c, dialog.Event{Kind: dialog.KindText, Text: c.Text()})
}

func (a *App) handleStats(c tele.Context) error {
	errCount := uint64(0)
	if d := a.dispatcher; d != nil {
		errCount = d.ErrorCount()
	}
	text := fmt.Sprintf("Active sessions: %d\nSend errors: %d", a.store.Len(), errCount)
	return tghelpers.SendText(c, text)
}

func (a *App) registerCommands() {
	a.registry.RegisterCommand("/start", commands.Command{
		Handler:     a.eventHandler(dialog.KindStart),
		Description: "Open the main menu",
	})
	a.registry.RegisterCommand("/tasks", commands.Command{
		Handler:     a.eventHandler(dialog.KindMenuView),
		Description: "View your tasks",
		Aliases:     []string{"todo"},
	})
	a.registry.RegisterCommand("/add", commands.Command{
		Handler:     a.eventHandler(dialog.KindMenuAdd),
		Description: "Add a new task",
		Aliases:     []string{"add_task"},
	})
	a.registry.RegisterCommand("/skip", commands.Command{
		Handler:     a.eventHandler(dialog.KindSkip),
		Description: "Skip the optional description",
	})
	a.registry.RegisterCommand("/cancel", commands.Command{
		Handler:     a.eventHandler(dialog.KindCancel),
		Description: "Abort the current flow",
	})
	a.registry.RegisterCommand("/help", commands.Command{
		Handler: func(c tele.Context) error {
			return tghelpers.SendText(c, helpText)
		},
		Description: "Show available commands",
	})
	a.registry.RegisterCommand("/stats", commands.Command{
		Handler:     a.handleStats,
		Description: "Runtime counters",
		AdminOnly:   true,
		Hidden:      true,
	})
	// Command aliases from the original bot keep working for muscle memory.
	a.registry.RegisterCommand("/todo", commands.Command{
		Handler:     a.eventHandler(dialog.KindMenuView),
		Description: "View your tasks",
		Hidden:      true,
	})
	a.registry.RegisterCommand("/add_task", commands.Command{
		Handler:     a.eventHandler(dialog.KindMenuAdd),
		Description: "Add a new task",
		Hidden:      true,
	})
}

func (a *App) registerCallbacks() {
	_ = a.registry.RegisterCallback(cbMenuView, a.eventHandler(dialog.KindMenuView))
	_ = a.registry.RegisterCallback(cbMenuAdd, a.eventHandler(dialog.KindMenuAdd))
	_ = a.registry.RegisterCallback(cbMenuBack, a.eventHandler(dialog.KindBack))
	_ = a.registry.RegisterCallback(cbSkipDesc, a.eventHandler(dialog.KindSkip))
	a.registry.SetTextFallback(a.handleText)
}
