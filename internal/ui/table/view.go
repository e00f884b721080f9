package table

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/ui/styles"
	"github.com/mattn/go-runewidth"
)

// Lines around the rows: title, filter bar, header, separator, scroll
// indicators, pagination and help.
const chromeLines = 7

func (m tableModel[T]) visibleRowCount() int {
	count := m.height - chromeLines
	if m.grid.Table(-1).Footer != nil {
		count -= 2
	}
	return max(count, 1)
}

// ═══════════════════════════════════════════════════════════════════════════
// Scroll Helpers
// ═══════════════════════════════════════════════════════════════════════════

func (m *tableModel[T]) ensureRowVisible() {
	visibleRows := m.visibleRowCount()
	if m.cursor < m.scrollY {
		m.scrollY = m.cursor
	} else if m.cursor >= m.scrollY+visibleRows {
		m.scrollY = m.cursor - visibleRows + 1
	}
}

func (m *tableModel[T]) clampScrollX() {
	m.scrollX = min(max(m.scrollX, 0), m.getMaxScrollX())
}

func (m *tableModel[T]) ensureColVisibleFromLeft() {
	m.scrollX = m.getColStartX(m.colCursor)
	m.clampScrollX()
}

func (m *tableModel[T]) ensureColVisibleFromRight() {
	colStartX := m.getColStartX(m.colCursor)
	colEndX := m.getColEndX(m.colCursor)
	viewportWidth := m.viewportWidth()

	m.scrollX = colEndX - viewportWidth
	if colEndX-colStartX <= viewportWidth && m.scrollX < colStartX {
		m.scrollX = colStartX
	}
	m.clampScrollX()
}

// ═══════════════════════════════════════════════════════════════════════════
// View
// ═══════════════════════════════════════════════════════════════════════════

func (m tableModel[T]) View() string {
	if !m.ready {
		return "Loading..."
	}

	g := m.grid
	tv := g.Table(m.cursor)
	pv := g.Pagination()
	var sb strings.Builder

	// Title line
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.Accent)
	title := tv.Title
	if title == "" {
		title = "pgrid"
	}
	p := g.Projection()
	if p.TotalFiltered != p.Total {
		sb.WriteString(headerStyle.Render(fmt.Sprintf("%s: %d/%d rows, %d columns", title, p.TotalFiltered, p.Total, len(tv.Headers))))
	} else {
		sb.WriteString(headerStyle.Render(fmt.Sprintf("%s: %d rows, %d columns", title, p.Total, len(tv.Headers))))
	}
	if hidden := len(g.Columns()) - len(tv.Headers); hidden > 0 {
		sb.WriteString(styles.MutedMsg(fmt.Sprintf("  [%d hidden]", hidden)))
	}
	sb.WriteString("\n")

	// Filter bar
	switch {
	case m.mode == tableModeSearch:
		sb.WriteString(fmt.Sprintf("/%s\n", m.searchInput.View()))
	case m.mode == tableModeFilter:
		sb.WriteString(m.filterInput.View() + "\n")
	default:
		sb.WriteString(m.filterSummary() + "\n")
	}

	switch {
	case m.mode == tableModeColumns:
		sb.WriteString(m.renderColumnsMenu())
	case tv.State == grid.StateLoading:
		spin := m.spin.View() + " "
		if styles.IsAccessible() {
			spin = ""
		}
		sb.WriteString(m.renderHeader(tv))
		sb.WriteString(spin + "Loading...\n")
	case tv.State == grid.StateEmpty:
		sb.WriteString(m.renderHeader(tv))
		sb.WriteString(styles.MutedMsg(tv.Message) + "\n")
	default:
		sb.WriteString(m.renderTable(tv))
	}

	// Pagination
	sb.WriteString(m.renderPagination(pv))
	sb.WriteString("\n")

	// Help
	if m.statusMsg != "" && time.Now().Before(m.statusUntil) {
		sb.WriteString(styles.SuccessMsg(m.statusMsg))
	} else {
		sb.WriteString(styles.MutedMsg(m.helpLine()))
	}

	return sb.String()
}

func (m tableModel[T]) helpLine() string {
	switch m.mode {
	case tableModeSearch:
		return "type to filter  enter confirm  esc cancel"
	case tableModeFilter:
		return "enter apply  ctrl+x clear  esc discard"
	case tableModeColumns:
		return "↑↓ select  space toggle  esc close"
	case tableModeResize:
		return "←→ resize  enter commit  esc cancel"
	}
	return "↑↓←→ nav  s sort  f filter  / quick filter  c columns  r resize  n/p page  z size  y copy  e export  J/R/P print  q quit"
}

// filterSummary lists the active quick filter and column filters.
func (m tableModel[T]) filterSummary() string {
	s := m.grid.State()
	var parts []string
	if s.GlobalFilter != "" {
		parts = append(parts, "/"+s.GlobalFilter)
	}
	for _, c := range m.grid.Columns() {
		if v, ok := s.FilterValue(c.ID()); ok && v != nil && v != "" {
			parts = append(parts, fmt.Sprintf("%s~%v", c.Label(), v))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return styles.MutedMsg("filter: " + strings.Join(parts, "  "))
}

func (m tableModel[T]) renderPagination(pv grid.PaginationView) string {
	var sb strings.Builder
	prev, next := "‹", "›"
	if !pv.CanPrev {
		prev = " "
	}
	if !pv.CanNext {
		next = " "
	}
	sb.WriteString(fmt.Sprintf("%s Page %d of %d %s", prev, pv.Page, max(pv.PageCount, 1), next))
	if pv.To > 0 {
		sb.WriteString(styles.MutedMsg(fmt.Sprintf("  rows %d-%d of %d", pv.From, pv.To, pv.Total)))
	}
	sb.WriteString(styles.MutedMsg(fmt.Sprintf("  %d per page", pv.PageSize)))
	return sb.String()
}

func (m tableModel[T]) renderColumnsMenu() string {
	var sb strings.Builder
	sb.WriteString(styles.SectionHeader("Columns") + "\n")
	for i, t := range m.grid.VisibilityMenu() {
		box := "[ ]"
		if t.Visible {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s", box, t.Label)
		if i == m.menuCursor {
			line = styles.SelectedStyle.Render(line)
		}
		sb.WriteString("  " + line + "\n")
	}
	return sb.String()
}

// ═══════════════════════════════════════════════════════════════════════════
// Render Table
// ═══════════════════════════════════════════════════════════════════════════

var (
	headerStyle         = lipgloss.NewStyle().Bold(true).Foreground(styles.Info)
	selectedHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Accent)
	separatorStyle      = lipgloss.NewStyle().Foreground(styles.Muted)
	selectedSepStyle    = lipgloss.NewStyle().Foreground(styles.Accent)
	selectedRowStyle    = lipgloss.NewStyle().Background(styles.BgHighlight)
	selectedCellStyle   = lipgloss.NewStyle().Background(styles.Accent).Foreground(lipgloss.Color("#000000"))
	resizingStyle       = lipgloss.NewStyle().Foreground(styles.Warning)
	footerStyle         = lipgloss.NewStyle().Bold(true)
	normalStyle         = lipgloss.NewStyle()
)

func (m tableModel[T]) renderHeader(tv grid.TableView) string {
	vw := m.viewportWidth()
	return applyViewport(m.buildFullHeaderLine(tv), m.scrollX, vw) + "\n" +
		applyViewport(m.buildFullSeparatorLine(), m.scrollX, vw) + "\n"
}

func (m tableModel[T]) renderTable(tv grid.TableView) string {
	var sb strings.Builder
	vw := m.viewportWidth()

	sb.WriteString(m.renderHeader(tv))

	visibleRows := m.visibleRowCount()
	endRow := min(m.scrollY+visibleRows, len(tv.Rows))
	for i := m.scrollY; i < endRow; i++ {
		sb.WriteString(applyViewport(m.buildFullRowLine(tv.Rows[i]), m.scrollX, vw))
		sb.WriteString("\n")
	}

	if tv.Footer != nil {
		sb.WriteString(applyViewport(m.buildFullSeparatorLine(), m.scrollX, vw) + "\n")
		sb.WriteString(applyViewport(m.buildFooterLine(tv.Footer), m.scrollX, vw) + "\n")
	}

	// Scroll indicators
	var indicators []string
	if m.scrollX > 0 {
		indicators = append(indicators, "◀")
	}
	if m.scrollX+vw < m.getTotalWidth() {
		indicators = append(indicators, "▶")
	}
	if m.scrollY > 0 {
		indicators = append(indicators, "▲")
	}
	if m.scrollY+visibleRows < len(tv.Rows) {
		indicators = append(indicators, "▼")
	}
	sb.WriteString(styles.MutedMsg(strings.Join(indicators, " ")) + "\n")

	return sb.String()
}

// headerLabel is the label with the sort icon and a filter marker.
func headerLabel(h grid.HeaderView) string {
	label := h.Label
	if icon := h.Icon(); icon != "" {
		label += " " + icon
	}
	if h.Filtered {
		label += " *"
	}
	return label
}

func (m tableModel[T]) buildFullHeaderLine(tv grid.TableView) string {
	var sb strings.Builder
	widths := m.colWidths()

	for i, h := range tv.Headers {
		name := PadOrTruncate(headerLabel(h), widths[i])
		switch {
		case h.Resizing:
			sb.WriteString(render(resizingStyle, name))
		case i == m.colCursor:
			sb.WriteString(render(selectedHeaderStyle, name))
		default:
			sb.WriteString(render(headerStyle, name))
		}
		sb.WriteString(strings.Repeat(" ", colGap))
	}
	return sb.String()
}

func (m tableModel[T]) buildFullSeparatorLine() string {
	var sb strings.Builder
	for i, w := range m.colWidths() {
		sep := strings.Repeat("─", w)
		if i == m.colCursor {
			sb.WriteString(render(selectedSepStyle, sep))
		} else {
			sb.WriteString(render(separatorStyle, sep))
		}
		sb.WriteString(strings.Repeat(" ", colGap))
	}
	return sb.String()
}

func (m tableModel[T]) buildFullRowLine(row grid.RowView) string {
	var sb strings.Builder
	widths := m.colWidths()

	for i, c := range row.Cells {
		if i >= len(widths) {
			break
		}
		val := fitCell(c, widths[i])
		switch {
		case row.Focused && i == m.colCursor:
			sb.WriteString(render(selectedCellStyle, PadOrTruncate(c.Text, widths[i])))
		case row.Focused:
			sb.WriteString(render(selectedRowStyle, PadOrTruncate(c.Text, widths[i])))
		default:
			sb.WriteString(render(normalStyle, val))
		}
		sb.WriteString(strings.Repeat(" ", colGap))
	}

	if aw := m.actionsWidth(); aw > 0 {
		actions := fitCell(row.Actions, aw-colGap)
		if row.Dimmed {
			actions = styles.Mute(PadOrTruncate(row.Actions.Text, aw-colGap))
		}
		sb.WriteString(actions)
	}
	return sb.String()
}

func (m tableModel[T]) buildFooterLine(footer []grid.Cell) string {
	var sb strings.Builder
	widths := m.colWidths()
	for i, c := range footer {
		if i >= len(widths) {
			break
		}
		sb.WriteString(render(footerStyle, PadOrTruncate(c.Text, widths[i])))
		sb.WriteString(strings.Repeat(" ", colGap))
	}
	return sb.String()
}

// actionsWidth is the width of the row actions column including its gap,
// or 0 when the grid has no row actions.
func (m tableModel[T]) actionsWidth() int {
	tv := m.grid.Table(-1)
	if !tv.HasActions {
		return 0
	}
	w := 0
	for _, r := range tv.Rows {
		w = max(w, runewidth.StringWidth(r.Actions.Text))
	}
	if w == 0 {
		return 0
	}
	return w + colGap
}

// fitCell pads the styled form of c to width. Cells too wide for the
// column fall back to truncated plain text.
func fitCell(c grid.Cell, width int) string {
	w := runewidth.StringWidth(c.Text)
	if w > width || c.Styled == "" || styles.NoColor() {
		return PadOrTruncate(c.Text, width)
	}
	return c.Styled + strings.Repeat(" ", width-w)
}

func render(s lipgloss.Style, text string) string {
	if styles.NoColor() {
		return text
	}
	return s.Render(text)
}

// ═══════════════════════════════════════════════════════════════════════════
// ANSI-aware Viewport Slicing
// ═══════════════════════════════════════════════════════════════════════════

// applyViewport extracts a horizontal slice of a string, handling ANSI escape
// codes properly. It returns the portion of the string from visual column
// startX with the given width.
func applyViewport(s string, startX, width int) string {
	if width <= 0 {
		return ""
	}
	if startX < 0 {
		startX = 0
	}

	var result strings.Builder
	result.Grow(width + 64)

	visualPos := 0
	outputCells := 0
	stylesApplied := false
	inEscape := false
	var escapeSeq strings.Builder
	var activeStyles []string

	runes := []rune(s)
	for i := 0; i < len(runes) && outputCells < width; i++ {
		r := runes[i]

		if r == '\x1b' && i+1 < len(runes) && runes[i+1] == '[' {
			inEscape = true
			escapeSeq.Reset()
			escapeSeq.WriteRune(r)
			continue
		}

		if inEscape {
			escapeSeq.WriteRune(r)
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEscape = false
				seq := escapeSeq.String()
				if r == 'm' {
					if seq == "\x1b[0m" || seq == "\x1b[m" {
						activeStyles = nil
					} else {
						activeStyles = append(activeStyles, seq)
					}
				}
				if visualPos >= startX {
					result.WriteString(seq)
				}
			}
			continue
		}

		rw := runewidth.RuneWidth(r)
		if visualPos >= startX {
			if outputCells+rw > width {
				break
			}
			if !stylesApplied && len(activeStyles) > 0 {
				for _, style := range activeStyles {
					result.WriteString(style)
				}
				stylesApplied = true
			}
			result.WriteRune(r)
			outputCells += rw
		}
		visualPos += rw
	}

	if len(activeStyles) > 0 && outputCells > 0 {
		result.WriteString("\x1b[0m")
	}
	if outputCells < width {
		result.WriteString(strings.Repeat(" ", width-outputCells))
	}
	return result.String()
}
