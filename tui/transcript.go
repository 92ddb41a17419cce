// transcript.go renders the conversation log and owns the per-block render
// state: SQL execution results, chart view cycling, suggestion selection,
// and request-id panel expansion.
//
// Render order is exactly the log order: for each turn, the role banner,
// the request-id panel (assistant turns with an id), then every content
// block in the order the reply carried them. Nothing is reordered or
// dropped.
package tui

import (
	"fmt"
	"strings"

	"snowchat/analyst"
	"snowchat/snowflake"
)

// resultView selects how one SQL result is displayed.
type resultView int

const (
	viewData resultView = iota
	viewLine
	viewBar
	viewCount // number of views to cycle through
)

func (v resultView) label() string {
	switch v {
	case viewLine:
		return "Line Chart"
	case viewBar:
		return "Bar Chart"
	default:
		return "Data"
	}
}

// blockKey locates one content block: (turn index, block index).
type blockKey struct {
	Turn  int
	Block int
}

// queryState tracks the execution of one SQLBlock.
type queryState struct {
	pending bool
	result  *snowflake.QueryResult
	err     error
}

// Transcript is the render model over a Conversation.
type Transcript struct {
	conv    *analyst.Conversation
	results map[blockKey]*queryState
	views   map[blockKey]resultView

	// sendErrs holds the inline error for assistant turns whose dispatch
	// failed (the turn itself stays in the log with empty content).
	sendErrs map[int]error

	// expanded toggles the request-id panel per assistant turn.
	expanded map[int]bool

	// Suggestion selection, keyed (turn, suggestion) so identical texts
	// in different turns never collide.
	selTurn int
	selIdx  int // -1 = nothing selected

	width       int
	chartWidth  int
	chartHeight int
}

func newTranscript(conv *analyst.Conversation) *Transcript {
	return &Transcript{
		conv:        conv,
		results:     make(map[blockKey]*queryState),
		views:       make(map[blockKey]resultView),
		sendErrs:    make(map[int]error),
		expanded:    make(map[int]bool),
		selIdx:      -1,
		width:       80,
		chartWidth:  60,
		chartHeight: 10,
	}
}

func (t *Transcript) setSize(width int) {
	t.width = width
	t.chartWidth = width - 6
	if t.chartWidth > 72 {
		t.chartWidth = 72
	}
	if t.chartWidth < 20 {
		t.chartWidth = 20
	}
}

// ── SQL execution state ──

func (t *Transcript) markPending(turn, block int) {
	t.results[blockKey{turn, block}] = &queryState{pending: true}
}

func (t *Transcript) setResult(turn, block int, result *snowflake.QueryResult, err error) {
	t.results[blockKey{turn, block}] = &queryState{result: result, err: err}
}

func (t *Transcript) setSendErr(turn int, err error) {
	t.sendErrs[turn] = err
}

// cycleViews advances the chart view of every multi-row result in the
// given turn. Single-row results only ever show the table.
func (t *Transcript) cycleViews(turn int) {
	for key, state := range t.results {
		if key.Turn != turn || state.result == nil || state.result.RowCount <= 1 {
			continue
		}
		t.views[key] = (t.views[key] + 1) % viewCount
	}
}

func (t *Transcript) toggleRequestID(turn int) {
	t.expanded[turn] = !t.expanded[turn]
}

// ── Suggestion selection ──

// latestAssistantTurn returns the index of the newest assistant turn, or
// -1 when there is none. Only its suggestions are actionable.
func (t *Transcript) latestAssistantTurn() int {
	for i := t.conv.Len() - 1; i >= 0; i-- {
		if t.conv.Turn(i).Role == analyst.RoleAssistant {
			return i
		}
	}
	return -1
}

func (t *Transcript) suggestionsAt(turn int) []string {
	if turn < 0 || turn >= t.conv.Len() {
		return nil
	}
	var out []string
	for _, block := range t.conv.Turn(turn).Content {
		if s, ok := block.(analyst.SuggestionsBlock); ok {
			out = append(out, s.Suggestions...)
		}
	}
	return out
}

// cycleSelection moves the selection through the newest assistant turn's
// suggestions, wrapping back to "nothing selected" after the last one.
func (t *Transcript) cycleSelection() {
	turn := t.latestAssistantTurn()
	suggestions := t.suggestionsAt(turn)
	if len(suggestions) == 0 {
		t.selIdx = -1
		return
	}

	if t.selTurn != turn {
		t.selTurn = turn
		t.selIdx = -1
	}
	t.selIdx++
	if t.selIdx >= len(suggestions) {
		t.selIdx = -1
	}
}

// selectedSuggestion returns the currently highlighted suggestion text.
// Only the newest assistant turn's suggestions are actionable: a selection
// left over from an older turn is not rendered highlighted, so it must not
// be promotable either.
func (t *Transcript) selectedSuggestion() (string, bool) {
	if t.selTurn != t.latestAssistantTurn() {
		return "", false
	}
	suggestions := t.suggestionsAt(t.selTurn)
	if t.selIdx < 0 || t.selIdx >= len(suggestions) {
		return "", false
	}
	return suggestions[t.selIdx], true
}

func (t *Transcript) clearSelection() {
	t.selIdx = -1
}

// ── Rendering ──

// render produces the full transcript as lines for the viewport.
func (t *Transcript) render() []string {
	var lines []string
	for i := 0; i < t.conv.Len(); i++ {
		lines = append(lines, t.renderTurn(i)...)
		lines = append(lines, "")
	}
	return lines
}

func (t *Transcript) renderTurn(index int) []string {
	turn := t.conv.Turn(index)

	var lines []string
	switch turn.Role {
	case analyst.RoleUser:
		lines = append(lines, StyleUser.Render("You ▸"))
	default:
		lines = append(lines, StyleAnalyst.Render("Analyst ▸"))
	}

	if turn.Role == analyst.RoleAssistant && turn.RequestID != "" {
		lines = append(lines, t.renderRequestID(index, turn.RequestID))
	}

	if err, ok := t.sendErrs[index]; ok {
		lines = append(lines, "  "+StyleError.Render("✗ "+err.Error()))
	}

	for blockIdx, block := range turn.Content {
		switch b := block.(type) {
		case analyst.TextBlock:
			for _, line := range wrapText(b.Text, t.width-2) {
				lines = append(lines, "  "+line)
			}
		case analyst.SuggestionsBlock:
			lines = append(lines, t.renderSuggestions(index, blockIdx, b)...)
		case analyst.SQLBlock:
			lines = append(lines, t.renderSQL(index, blockIdx, b)...)
		}
	}
	return lines
}

// renderRequestID is the collapsed auxiliary panel: one dimmed line,
// expandable to show the full id.
func (t *Transcript) renderRequestID(turn int, id string) string {
	if t.expanded[turn] {
		return "  " + StyleDimmed.Render("▾ Request ID: ") + StyleNormal.Render(id)
	}
	return "  " + StyleDimmed.Render("▸ Request ID (ctrl+o)")
}

func (t *Transcript) renderSuggestions(turn, blockIdx int, block analyst.SuggestionsBlock) []string {
	lines := []string{"  " + StyleDimmed.Render("Suggestions:")}

	// Flattened suggestion index across the turn's suggestion blocks,
	// matching suggestionsAt's order.
	offset := 0
	for i, prior := range t.conv.Turn(turn).Content {
		if i >= blockIdx {
			break
		}
		if s, ok := prior.(analyst.SuggestionsBlock); ok {
			offset += len(s.Suggestions)
		}
	}

	actionable := turn == t.latestAssistantTurn()
	for i, suggestion := range block.Suggestions {
		flatIdx := offset + i
		marker := fmt.Sprintf("  %d. ", flatIdx+1)
		line := StyleSuggestion.Render(marker + suggestion)
		if actionable && t.selTurn == turn && t.selIdx == flatIdx {
			line = StyleSelected.Render("▸ " + marker[2:] + suggestion)
			line = "  " + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	if actionable && len(block.Suggestions) > 0 {
		lines = append(lines, "  "+StyleDimmed.Render("tab to select, enter to ask"))
	}
	return lines
}

func (t *Transcript) renderSQL(turn, blockIdx int, block analyst.SQLBlock) []string {
	lines := []string{"  " + StyleDimmed.Render("SQL:")}
	for _, line := range strings.Split(strings.TrimSpace(block.Statement), "\n") {
		lines = append(lines, "  "+StyleCode.Render("│ "+line))
	}

	key := blockKey{turn, blockIdx}
	state := t.results[key]
	switch {
	case state == nil:
		// Executed turns always have state; a missing entry means the
		// reply was rendered before execution was scheduled.
		lines = append(lines, "  "+StyleDimmed.Render("… not executed"))
	case state.pending:
		lines = append(lines, "  "+StyleDimmed.Render("⏳ running query..."))
	case state.err != nil:
		lines = append(lines, "  "+StyleError.Render("✗ query failed: "+state.err.Error()))
	default:
		lines = append(lines, t.renderResult(key, state.result)...)
	}
	return lines
}

func (t *Transcript) renderResult(key blockKey, res *snowflake.QueryResult) []string {
	view := t.views[key]
	multiRow := res.RowCount > 1
	if !multiRow {
		view = viewData // single-row results only get the table
	}

	var lines []string
	if multiRow {
		lines = append(lines, "  "+renderViewTabs(view))
	}

	var body []string
	switch view {
	case viewLine:
		body = renderLineChart(res, t.chartWidth, t.chartHeight)
	case viewBar:
		body = renderBarChart(res, t.chartWidth, t.chartHeight)
	default:
		body = renderTable(res)
	}
	for _, line := range body {
		lines = append(lines, "  "+line)
	}
	return lines
}

func renderViewTabs(active resultView) string {
	parts := make([]string, 0, int(viewCount))
	for v := resultView(0); v < viewCount; v++ {
		label := v.label()
		if v == active {
			parts = append(parts, StyleSelected.Render("["+label+"]"))
		} else {
			parts = append(parts, StyleDimmed.Render(" "+label+" "))
		}
	}
	return strings.Join(parts, " ") + StyleDimmed.Render("  (ctrl+v to switch)")
}

// wrapText word-wraps s to the given width. Width <= 0 returns the text
// unchanged.
func wrapText(s string, width int) []string {
	if width <= 0 {
		return strings.Split(s, "\n")
	}

	var out []string
	for _, paragraph := range strings.Split(s, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}

		line := words[0]
		for _, word := range words[1:] {
			if len(line)+1+len(word) > width {
				out = append(out, line)
				line = word
				continue
			}
			line += " " + word
		}
		out = append(out, line)
	}
	return out
}
