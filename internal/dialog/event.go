package dialog

// Kind enumerates the inbound event kinds the transport adapter can produce.
type Kind int

const (
	// KindText is a free-text message.
	KindText Kind = iota
	// KindStart is the /start command.
	KindStart
	// KindMenuView selects the "view tasks" menu action.
	KindMenuView
	// KindMenuAdd selects the "add task" menu action.
	KindMenuAdd
	// KindBack navigates back to the main menu.
	KindBack
	// KindSkip skips the optional description.
	KindSkip
	// KindCancel aborts the current flow.
	KindCancel
)

var kindNames = map[Kind]string{
	KindText:     "text",
	KindStart:    "start",
	KindMenuView: "menu_view",
	KindMenuAdd:  "menu_add",
	KindBack:     "back",
	KindSkip:     "skip",
	KindCancel:   "cancel",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is one inbound unit from the chat transport, already tagged with the
// sender identity by the caller.
type Event struct {
	Kind Kind
	// Text carries the message body for KindText events.
	Text string
}

// Menu selects which button menu accompanies an outbound reply.
type Menu int

const (
	// MenuNone sends the reply without buttons.
	MenuNone Menu = iota
	// MenuMain offers the view/add actions.
	MenuMain
	// MenuAddTitle offers a back button while a title is awaited.
	MenuAddTitle
	// MenuAddDescription offers skip and back while a description is awaited.
	MenuAddDescription
	// MenuViewing offers a back button under the task list.
	MenuViewing
)

// Reply is the engine's outbound result for one event.
type Reply struct {
	Text string
	Menu Menu
}
