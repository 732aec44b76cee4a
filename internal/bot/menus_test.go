package bot

import (
	"testing"

	"taskbot/internal/dialog"
)

func TestMarkupFor(t *testing.T) {
	cases := []struct {
		menu    dialog.Menu
		buttons int
	}{
		{dialog.MenuNone, 0},
		{dialog.MenuMain, 2},
		{dialog.MenuAddTitle, 1},
		{dialog.MenuAddDescription, 2},
		{dialog.MenuViewing, 1},
	}

	for _, tc := range cases {
		markup := markupFor(tc.menu)
		if tc.buttons == 0 {
			if markup != nil {
				t.Fatalf("menu %d: expected no markup", tc.menu)
			}
			continue
		}
		if markup == nil {
			t.Fatalf("menu %d: expected markup", tc.menu)
		}
		if got := len(markup.InlineKeyboard); got != tc.buttons {
			t.Fatalf("menu %d: rows = %d, expected %d", tc.menu, got, tc.buttons)
		}
	}
}
