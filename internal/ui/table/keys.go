package table

import "github.com/charmbracelet/bubbles/key"

type tableKeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	ShiftUp     key.Binding
	ShiftDown   key.Binding
	ShiftLeft   key.Binding
	ShiftRight  key.Binding
	NextPage    key.Binding
	PrevPage    key.Binding
	FirstPage   key.Binding
	LastPage    key.Binding
	PageSize    key.Binding
	Sort        key.Binding
	Filter      key.Binding
	Search      key.Binding
	Columns     key.Binding
	Resize      key.Binding
	Open        key.Binding
	Reset       key.Binding
	Quit        key.Binding
	YankCell    key.Binding
	YankRow     key.Binding
	Export      key.Binding
	ExportJSON  key.Binding
	ExportRaw   key.Binding
	ExportPlain key.Binding
}

var tableKeys = tableKeyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev column")),
	Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next column")),
	ShiftUp:     key.NewBinding(key.WithKeys("shift+up"), key.WithHelp("⇧↑", "half screen up")),
	ShiftDown:   key.NewBinding(key.WithKeys("shift+down"), key.WithHelp("⇧↓", "half screen down")),
	ShiftLeft:   key.NewBinding(key.WithKeys("shift+left"), key.WithHelp("⇧←", "scroll half left")),
	ShiftRight:  key.NewBinding(key.WithKeys("shift+right"), key.WithHelp("⇧→", "scroll half right")),
	NextPage:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d", "n"), key.WithHelp("n", "next page")),
	PrevPage:    key.NewBinding(key.WithKeys("pgup", "ctrl+u", "p"), key.WithHelp("p", "prev page")),
	FirstPage:   key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first page")),
	LastPage:    key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last page")),
	PageSize:    key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "page size")),
	Sort:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
	Filter:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter column")),
	Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "quick filter")),
	Columns:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "columns")),
	Resize:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resize")),
	Open:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open row")),
	Reset:       key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "reset view")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	YankCell:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy cell")),
	YankRow:     key.NewBinding(key.WithKeys("Y"), key.WithHelp("Y", "copy row")),
	Export:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export file")),
	ExportJSON:  key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "print as JSON")),
	ExportRaw:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "print raw")),
	ExportPlain: key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "print table")),
}

// Keys used inside the filter, quick filter, column and resize modes.
var (
	keyConfirm = key.NewBinding(key.WithKeys("enter"))
	keyCancel  = key.NewBinding(key.WithKeys("esc", "ctrl+c"))
	keyClear   = key.NewBinding(key.WithKeys("ctrl+x"))
	keyToggle  = key.NewBinding(key.WithKeys(" ", "enter"))
	keyClose   = key.NewBinding(key.WithKeys("esc", "c", "q"))
)
