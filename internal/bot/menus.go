package bot

import (
	tele "gopkg.in/telebot.v4"

	"taskbot/core/telegram/keyboard"
	"taskbot/internal/dialog"
)

// Callback keys for the inline menus. They must stay stable: Telegram
// re-delivers them from old messages long after the menu was sent.
const (
	cbMenuView = "menu_view"
	cbMenuAdd  = "menu_add"
	cbMenuBack = "menu_back"
	cbSkipDesc = "skip_desc"
)

func markupFor(menu dialog.Menu) *tele.ReplyMarkup {
	switch menu {
	case dialog.MenuMain:
		return keyboard.InlineButtons([]keyboard.InlineBtn{
			{Text: "📋 View Tasks", Unique: cbMenuView},
			{Text: "➕ Add Task", Unique: cbMenuAdd},
		})
	case dialog.MenuAddTitle:
		return keyboard.InlineButtons([]keyboard.InlineBtn{
			{Text: "⬅️ Back", Unique: cbMenuBack},
		})
	case dialog.MenuAddDescription:
		return keyboard.InlineButtons([]keyboard.InlineBtn{
			{Text: "Skip Description", Unique: cbSkipDesc},
			{Text: "⬅️ Back", Unique: cbMenuBack},
		})
	case dialog.MenuViewing:
		return keyboard.InlineButtons([]keyboard.InlineBtn{
			{Text: "⬅️ Back", Unique: cbMenuBack},
		})
	default:
		return nil
	}
}
