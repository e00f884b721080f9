package table

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/imgajeed76/pgrid/internal/export"
	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/ui/styles"
	"github.com/imgajeed76/pgrid/internal/viewstate"
)

const (
	// pxPerCell converts column sizes to terminal cells.
	pxPerCell   = 8
	minColWidth = 3
	colGap      = 2
)

type tableMode int

const (
	tableModeNormal tableMode = iota
	tableModeSearch
	tableModeFilter
	tableModeColumns
	tableModeResize
)

// Exit mode: what to print after quitting the TUI
type exitMode int

const (
	exitNormal exitMode = iota
	exitJSON
	exitRaw
	exitPlain
)

func (e exitMode) format() (export.Format, bool) {
	switch e {
	case exitJSON:
		return export.FormatJSON, true
	case exitRaw:
		return export.FormatTSV, true
	case exitPlain:
		return export.FormatPlain, true
	}
	return "", false
}

// ═══════════════════════════════════════════════════════════════════════════
// Model
// ═══════════════════════════════════════════════════════════════════════════

type tableModel[T any] struct {
	grid         *grid.Grid[T]
	exportFormat export.Format

	cursor    int // focused row within the page
	colCursor int // focused visible column
	scrollX   int // horizontal scroll offset in cells
	scrollY   int // vertical scroll offset in rows
	width     int
	height    int
	ready     bool
	mode      tableMode
	exitMode  exitMode

	searchInput  textinput.Model
	searchBefore string // quick filter to restore on cancel
	filterInput  textinput.Model
	filterColumn string
	menuCursor   int
	resizeDelta  int // pixels from where the drag began
	spin         spinner.Model

	animating   bool
	animTargetX int
	animTargetY int

	statusMsg   string
	statusUntil time.Time
}

func newTableModel[T any](g *grid.Grid[T], exportFormat export.Format) tableModel[T] {
	search := textinput.New()
	search.Placeholder = "filter all columns..."
	search.CharLimit = 100
	search.Width = 30
	search.SetValue(g.State().GlobalFilter)

	filter := textinput.New()
	filter.Placeholder = "contains..."
	filter.CharLimit = 100
	filter.Width = 30

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(styles.Accent)

	if exportFormat == "" {
		exportFormat = export.FormatPlain
	}
	return tableModel[T]{
		grid:         g,
		exportFormat: exportFormat,
		searchInput:  search,
		filterInput:  filter,
		spin:         spin,
		width:        80,
		height:       24,
	}
}

// RunTableTUI launches the interactive grid. It blocks until the user
// quits. If the user asked for a printout (J/R/P), the filtered rows are
// written to out after the TUI exits.
func RunTableTUI[T any](g *grid.Grid[T], out io.Writer, exportFormat export.Format) error {
	p := tea.NewProgram(newTableModel(g, exportFormat), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	if fm, ok := finalModel.(tableModel[T]); ok {
		if f, ok := fm.exitMode.format(); ok {
			return export.Write(out, f, g.Snapshot(grid.ExportFiltered))
		}
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Bubble Tea Interface
// ═══════════════════════════════════════════════════════════════════════════

func (m tableModel[T]) Init() tea.Cmd {
	if m.grid.Loading() && !styles.IsAccessible() {
		return m.spin.Tick
	}
	return nil
}

// LoadedMsg replaces the rows of a grid that was started in the loading
// state.
type LoadedMsg[T any] struct {
	Rows        []T
	RecordCount int
}

func (m tableModel[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.clampCursor()

	case LoadedMsg[T]:
		m.grid.SetRows(msg.Rows, msg.RecordCount)
		m.grid.SetLoading(false)
		m.clampCursor()

	case spinner.TickMsg:
		if !m.grid.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case animTickMsg:
		cmd := m.updateAnimation()
		return m, cmd

	case statusClearMsg:
		if !m.statusUntil.IsZero() && time.Now().After(m.statusUntil) {
			m.statusMsg = ""
			m.statusUntil = time.Time{}
		}
		return m, nil

	case tea.KeyMsg:
		m.cancelAnimation()

		switch m.mode {
		case tableModeSearch:
			return m.updateSearch(msg)
		case tableModeFilter:
			return m.updateFilter(msg)
		case tableModeColumns:
			return m.updateColumns(msg)
		case tableModeResize:
			return m.updateResize(msg)
		}
		return m.updateNormal(msg)
	}

	return m, nil
}

func (m tableModel[T]) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	g := m.grid

	switch {
	case key.Matches(msg, tableKeys.Quit):
		return m, tea.Quit

	case key.Matches(msg, tableKeys.Search):
		m.mode = tableModeSearch
		m.searchBefore = g.State().GlobalFilter
		m.searchInput.SetValue(m.searchBefore)
		m.searchInput.CursorEnd()
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, tableKeys.Filter):
		col, ok := m.focusedColumn()
		if !ok || !g.Filters().Open(col.ID) {
			return m, m.setStatus("column is not filterable")
		}
		m.mode = tableModeFilter
		m.filterColumn = col.ID
		m.filterInput.Prompt = col.Label + ": "
		m.filterInput.SetValue(g.Filters().Buffer(col.ID))
		m.filterInput.CursorEnd()
		m.filterInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, tableKeys.Columns):
		m.mode = tableModeColumns
		m.menuCursor = 0

	case key.Matches(msg, tableKeys.Resize):
		col, ok := m.focusedColumn()
		if !ok || !g.BeginResize(col.ID) {
			return m, m.setStatus("column is not resizable")
		}
		m.mode = tableModeResize
		m.resizeDelta = 0

	case key.Matches(msg, tableKeys.Sort):
		if col, ok := m.focusedColumn(); ok && col.Sortable {
			g.ClickHeader(col.ID)
			m.cursor, m.scrollY = 0, 0
		}

	case key.Matches(msg, tableKeys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.ensureRowVisible()
		}

	case key.Matches(msg, tableKeys.Down):
		if m.cursor < m.pageRowCount()-1 {
			m.cursor++
			m.ensureRowVisible()
		}

	case key.Matches(msg, tableKeys.Left):
		colStartX := m.getColStartX(m.colCursor)
		if colStartX < m.scrollX {
			m.scrollX = max(colStartX, m.scrollX-3, 0)
		} else if m.colCursor > 0 {
			m.colCursor--
			m.ensureColVisibleFromRight()
		}

	case key.Matches(msg, tableKeys.Right):
		colEndX := m.getColEndX(m.colCursor)
		if colEndX > m.scrollX+m.viewportWidth() {
			m.scrollX = min(m.scrollX+3, m.getMaxScrollX())
		} else if m.colCursor < len(g.Headers())-1 {
			m.colCursor++
			m.ensureColVisibleFromLeft()
		}

	case key.Matches(msg, tableKeys.ShiftLeft):
		return m, m.startAnimation(m.scrollX-max(m.width/2, 1), m.scrollY)

	case key.Matches(msg, tableKeys.ShiftRight):
		return m, m.startAnimation(m.scrollX+max(m.width/2, 1), m.scrollY)

	case key.Matches(msg, tableKeys.ShiftUp):
		half := max(m.visibleRowCount()/2, 1)
		m.cursor = max(m.cursor-half, 0)
		return m, m.startAnimation(m.scrollX, m.scrollY-half)

	case key.Matches(msg, tableKeys.ShiftDown):
		half := max(m.visibleRowCount()/2, 1)
		m.cursor = min(m.cursor+half, max(m.pageRowCount()-1, 0))
		return m, m.startAnimation(m.scrollX, m.scrollY+half)

	case key.Matches(msg, tableKeys.NextPage):
		m.goToPage(g.Pagination().Next())
	case key.Matches(msg, tableKeys.PrevPage):
		m.goToPage(g.Pagination().Prev())
	case key.Matches(msg, tableKeys.FirstPage):
		m.goToPage(g.Pagination().First())
	case key.Matches(msg, tableKeys.LastPage):
		m.goToPage(g.Pagination().Last())

	case key.Matches(msg, tableKeys.PageSize):
		pv := g.Pagination()
		m.goToPage(pv.SelectSize(pv.NextSize()))
		return m, m.setStatus(fmt.Sprintf("%d rows per page", g.Pagination().PageSize))

	case key.Matches(msg, tableKeys.Open):
		g.ClickRow(m.cursor)

	case key.Matches(msg, tableKeys.Reset):
		m.cursor, m.scrollY, m.colCursor, m.scrollX = 0, 0, 0, 0
		if err := g.Reset(); err != nil {
			return m, m.setStatus(fmt.Sprintf("reset: %s", err))
		}
		return m, m.setStatus("View reset")

	case key.Matches(msg, tableKeys.YankCell):
		return m, m.yankCell()

	case key.Matches(msg, tableKeys.YankRow):
		return m, m.yankRow()

	case key.Matches(msg, tableKeys.Export):
		return m, m.exportFile()

	case key.Matches(msg, tableKeys.ExportJSON):
		m.exitMode = exitJSON
		return m, tea.Quit

	case key.Matches(msg, tableKeys.ExportRaw):
		m.exitMode = exitRaw
		return m, tea.Quit

	case key.Matches(msg, tableKeys.ExportPlain):
		m.exitMode = exitPlain
		return m, tea.Quit
	}

	return m, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Quick filter
// ═══════════════════════════════════════════════════════════════════════════

// updateSearch applies the quick filter as the user types. Esc restores
// the filter that was active before.
func (m tableModel[T]) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keyConfirm):
		m.mode = tableModeNormal
		m.searchInput.Blur()
		return m, nil

	case key.Matches(msg, keyCancel):
		m.mode = tableModeNormal
		m.searchInput.Blur()
		m.grid.SetGlobalFilter(m.searchBefore)
		m.clampCursor()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.grid.SetGlobalFilter(m.searchInput.Value()) {
		m.cursor, m.scrollY = 0, 0
	}
	return m, cmd
}

// ═══════════════════════════════════════════════════════════════════════════
// Column filter popover
// ═══════════════════════════════════════════════════════════════════════════

// updateFilter stages edits in the popover. Only enter and ctrl+x change
// the rows shown.
func (m tableModel[T]) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.grid.Filters()

	switch {
	case key.Matches(msg, keyConfirm):
		f.Apply(m.filterColumn)
		m.closeFilter()
		return m, nil

	case key.Matches(msg, keyClear):
		f.Clear(m.filterColumn)
		m.closeFilter()
		return m, nil

	case key.Matches(msg, keyCancel):
		f.Close(m.filterColumn)
		m.closeFilter()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	f.Type(m.filterColumn, m.filterInput.Value())
	return m, cmd
}

func (m *tableModel[T]) closeFilter() {
	m.mode = tableModeNormal
	m.filterColumn = ""
	m.filterInput.Blur()
	m.filterInput.SetValue("")
	m.clampCursor()
}

// ═══════════════════════════════════════════════════════════════════════════
// Column visibility menu
// ═══════════════════════════════════════════════════════════════════════════

func (m tableModel[T]) updateColumns(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	menu := m.grid.VisibilityMenu()

	switch {
	case key.Matches(msg, keyToggle):
		if m.menuCursor < len(menu) {
			m.grid.ToggleVisibility(menu[m.menuCursor].ID)
			m.colCursor = min(m.colCursor, max(len(m.grid.Headers())-1, 0))
			m.scrollX = min(m.scrollX, m.getMaxScrollX())
		}

	case key.Matches(msg, keyClose):
		m.mode = tableModeNormal

	case key.Matches(msg, tableKeys.Up):
		if m.menuCursor > 0 {
			m.menuCursor--
		}

	case key.Matches(msg, tableKeys.Down):
		if m.menuCursor < len(menu)-1 {
			m.menuCursor++
		}
	}
	return m, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Resize
// ═══════════════════════════════════════════════════════════════════════════

func (m tableModel[T]) updateResize(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keyConfirm):
		m.grid.EndResize()
		m.mode = tableModeNormal

	case key.Matches(msg, keyCancel):
		m.grid.CancelResize()
		m.mode = tableModeNormal

	case key.Matches(msg, tableKeys.Left), key.Matches(msg, tableKeys.ShiftLeft):
		m.resizeDelta -= pxPerCell
		m.grid.DragResize(m.resizeDelta)

	case key.Matches(msg, tableKeys.Right), key.Matches(msg, tableKeys.ShiftRight):
		m.resizeDelta += pxPerCell
		m.grid.DragResize(m.resizeDelta)
	}
	return m, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Row / Column Helpers
// ═══════════════════════════════════════════════════════════════════════════

func (m tableModel[T]) focusedColumn() (grid.HeaderView, bool) {
	headers := m.grid.Headers()
	if m.colCursor < 0 || m.colCursor >= len(headers) {
		return grid.HeaderView{}, false
	}
	return headers[m.colCursor], true
}

func (m tableModel[T]) pageRowCount() int {
	return len(m.grid.Projection().Rows)
}

func (m *tableModel[T]) goToPage(a viewstate.Action) {
	m.grid.Dispatch(a)
	m.cursor, m.scrollY = 0, 0
}

func (m *tableModel[T]) clampCursor() {
	m.cursor = min(m.cursor, max(m.pageRowCount()-1, 0))
	m.scrollY = min(m.scrollY, m.getMaxScrollY())
	m.colCursor = min(m.colCursor, max(len(m.grid.Headers())-1, 0))
}

// colWidths returns the terminal width of each visible column. The row
// actions column is not included.
func (m tableModel[T]) colWidths() []int {
	px := m.grid.Widths()
	out := make([]int, len(px))
	for i, w := range px {
		out[i] = max(w/pxPerCell, minColWidth)
	}
	return out
}

func (m tableModel[T]) getColStartX(colIdx int) int {
	x := 0
	for i, w := range m.colWidths() {
		if i == colIdx {
			break
		}
		x += w + colGap
	}
	return x
}

func (m tableModel[T]) getColEndX(colIdx int) int {
	widths := m.colWidths()
	if colIdx < 0 || colIdx >= len(widths) {
		return m.getColStartX(colIdx)
	}
	return m.getColStartX(colIdx) + widths[colIdx]
}

func (m tableModel[T]) getTotalWidth() int {
	total := 0
	for _, w := range m.colWidths() {
		total += w + colGap
	}
	return total + m.actionsWidth()
}

func (m tableModel[T]) viewportWidth() int {
	return max(m.width-2, 1)
}

func (m tableModel[T]) getMaxScrollX() int {
	return max(m.getTotalWidth()-m.viewportWidth(), 0)
}

func (m tableModel[T]) getMaxScrollY() int {
	return max(m.pageRowCount()-m.visibleRowCount(), 0)
}

// ═══════════════════════════════════════════════════════════════════════════
// Animation
// ═══════════════════════════════════════════════════════════════════════════

type animTickMsg time.Time

const animationFrameInterval = 16 * time.Millisecond
const animationFraction = 0.25
const animationSnapThreshold = 1

func animTick() tea.Cmd {
	return tea.Tick(animationFrameInterval, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}

func (m *tableModel[T]) startAnimation(targetX, targetY int) tea.Cmd {
	targetX = min(max(targetX, 0), m.getMaxScrollX())
	targetY = min(max(targetY, 0), m.getMaxScrollY())

	m.animTargetX = targetX
	m.animTargetY = targetY

	if targetX == m.scrollX && targetY == m.scrollY {
		m.animating = false
		return nil
	}
	if styles.IsAccessible() {
		m.scrollX, m.scrollY = targetX, targetY
		return nil
	}
	if !m.animating {
		m.animating = true
		return animTick()
	}
	return nil
}

func (m *tableModel[T]) updateAnimation() tea.Cmd {
	if !m.animating {
		return nil
	}

	remainingX := m.animTargetX - m.scrollX
	remainingY := m.animTargetY - m.scrollY

	if abs(remainingX) <= animationSnapThreshold && abs(remainingY) <= animationSnapThreshold {
		m.scrollX = m.animTargetX
		m.scrollY = m.animTargetY
		m.animating = false
		return nil
	}

	m.scrollX += step(remainingX)
	m.scrollY += step(remainingY)
	return animTick()
}

// step is the distance covered by one animation frame.
func step(remaining int) int {
	if remaining == 0 {
		return 0
	}
	d := int(float64(remaining) * animationFraction)
	if d == 0 {
		if remaining > 0 {
			return 1
		}
		return -1
	}
	return d
}

func (m *tableModel[T]) cancelAnimation() {
	m.animating = false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ═══════════════════════════════════════════════════════════════════════════
// Status Message (flash notification)
// ═══════════════════════════════════════════════════════════════════════════

type statusClearMsg struct{}

const statusDuration = 2 * time.Second

// setStatus sets a temporary status message that auto-clears.
func (m *tableModel[T]) setStatus(msg string) tea.Cmd {
	m.statusMsg = msg
	m.statusUntil = time.Now().Add(statusDuration)
	return tea.Tick(statusDuration, func(t time.Time) tea.Msg {
		return statusClearMsg{}
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// Clipboard (yank) and export
// ═══════════════════════════════════════════════════════════════════════════

// focusedRow returns the plain text of the focused row's visible cells.
func (m tableModel[T]) focusedRow() []string {
	rows := m.grid.Table(m.cursor).Rows
	if m.cursor < 0 || m.cursor >= len(rows) {
		return nil
	}
	cells := rows[m.cursor].Cells
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.Text
	}
	return out
}

// yankCell copies the selected cell value to the system clipboard.
func (m *tableModel[T]) yankCell() tea.Cmd {
	row := m.focusedRow()
	if row == nil {
		return nil
	}
	var val string
	if m.colCursor < len(row) {
		val = row[m.colCursor]
	}
	if err := clipboard.WriteAll(val); err != nil {
		return m.setStatus(fmt.Sprintf("clipboard error: %s", err))
	}
	return m.setStatus(fmt.Sprintf("Copied: %s", Truncate(val, 40)))
}

// yankRow copies the entire selected row (tab-separated) to the clipboard.
func (m *tableModel[T]) yankRow() tea.Cmd {
	row := m.focusedRow()
	if row == nil {
		return nil
	}
	if err := clipboard.WriteAll(strings.Join(row, "\t")); err != nil {
		return m.setStatus(fmt.Sprintf("clipboard error: %s", err))
	}
	return m.setStatus(fmt.Sprintf("Copied row (%d columns)", len(row)))
}

// exportFile writes the filtered rows to the grid's export file name in
// the current directory.
func (m *tableModel[T]) exportFile() tea.Cmd {
	name := m.grid.FileName(m.exportFormat)
	f, err := os.Create(name)
	if err != nil {
		return m.setStatus(fmt.Sprintf("export: %s", err))
	}
	err = m.grid.Export(f, m.exportFormat)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(name)
		return m.setStatus(fmt.Sprintf("export: %s", err))
	}
	return m.setStatus("Exported " + name)
}
