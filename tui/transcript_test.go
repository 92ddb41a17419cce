package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowchat/analyst"
	"snowchat/snowflake"
)

func multiRowResult() *snowflake.QueryResult {
	return &snowflake.QueryResult{
		Columns:  []string{"REGION", "REVENUE"},
		Rows:     [][]string{{"EMEA", "2100000"}, {"APAC", "1700000"}, {"AMER", "1200000"}},
		RowCount: 3,
	}
}

func singleRowResult() *snowflake.QueryResult {
	return &snowflake.QueryResult{
		Columns:  []string{"TOTAL"},
		Rows:     [][]string{{"5000000"}},
		RowCount: 1,
	}
}

// lineIndex finds the first rendered line containing the substring.
func lineIndex(t *testing.T, lines []string, substr string) int {
	t.Helper()
	for i, line := range lines {
		if strings.Contains(line, substr) {
			return i
		}
	}
	t.Fatalf("no line contains %q in:\n%s", substr, strings.Join(lines, "\n"))
	return -1
}

func TestRenderPreservesBlockOrder(t *testing.T) {
	conv := analyst.NewConversation()
	conv.AppendUser("What is total revenue?")
	conv.AppendAssistant(analyst.Content{
		analyst.TextBlock{Text: "Revenue is $5M"},
		analyst.SuggestionsBlock{Suggestions: []string{"By region?"}},
		analyst.SQLBlock{Statement: "SELECT SUM(revenue) FROM sales"},
	}, "abc-123")

	tr := newTranscript(conv)
	lines := tr.render()

	// Role banners frame the turns in log order.
	userAt := lineIndex(t, lines, "You ▸")
	analystAt := lineIndex(t, lines, "Analyst ▸")
	assert.Less(t, userAt, analystAt)

	// Request id panel first, then blocks in reply order.
	idAt := lineIndex(t, lines, "Request ID")
	textAt := lineIndex(t, lines, "Revenue is $5M")
	suggAt := lineIndex(t, lines, "By region?")
	sqlAt := lineIndex(t, lines, "SELECT SUM(revenue)")
	assert.Less(t, analystAt, idAt)
	assert.Less(t, idAt, textAt)
	assert.Less(t, textAt, suggAt)
	assert.Less(t, suggAt, sqlAt)
}

func TestRequestIDCollapsedByDefault(t *testing.T) {
	conv := analyst.NewConversation()
	conv.AppendUser("q")
	conv.AppendAssistant(analyst.Content{analyst.TextBlock{Text: "a"}}, "abc-123")

	tr := newTranscript(conv)

	joined := strings.Join(tr.render(), "\n")
	assert.Contains(t, joined, "Request ID")
	assert.NotContains(t, joined, "abc-123", "id hidden while collapsed")

	tr.toggleRequestID(1)
	joined = strings.Join(tr.render(), "\n")
	assert.Contains(t, joined, "abc-123")

	tr.toggleRequestID(1)
	assert.NotContains(t, strings.Join(tr.render(), "\n"), "abc-123")
}

func TestNoRequestIDPanelWithoutID(t *testing.T) {
	conv := analyst.NewConversation()
	conv.AppendUser("q")
	conv.AppendAssistant(nil, "")

	joined := strings.Join(newTranscript(conv).render(), "\n")
	assert.NotContains(t, joined, "Request ID")
}

func TestMultiRowResultHasThreeViews(t *testing.T) {
	conv := analyst.NewConversation()
	conv.AppendUser("q")
	conv.AppendAssistant(analyst.Content{analyst.SQLBlock{Statement: "SELECT 1"}}, "id")

	tr := newTranscript(conv)
	tr.setResult(1, 0, multiRowResult(), nil)

	joined := strings.Join(tr.render(), "\n")
	assert.Contains(t, joined, "Data")
	assert.Contains(t, joined, "Line Chart")
	assert.Contains(t, joined, "Bar Chart")
	assert.Contains(t, joined, "EMEA")

	// Cycling walks data → line → bar → data.
	key := blockKey{1, 0}
	assert.Equal(t, viewData, tr.views[key])
	tr.cycleViews(1)
	assert.Equal(t, viewLine, tr.views[key])
	tr.cycleViews(1)
	assert.Equal(t, viewBar, tr.views[key])
	tr.cycleViews(1)
	assert.Equal(t, viewData, tr.views[key])
}

func TestSingleRowResultTableOnly(t *testing.T) {
	conv := analyst.NewConversation()
	conv.AppendUser("q")
	conv.AppendAssistant(analyst.Content{analyst.SQLBlock{Statement: "SELECT 1"}}, "id")

	tr := newTranscript(conv)
	tr.setResult(1, 0, singleRowResult(), nil)

	joined := strings.Join(tr.render(), "\n")
	assert.Contains(t, joined, "5000000")
	assert.NotContains(t, joined, "Line Chart")
	assert.NotContains(t, joined, "Bar Chart")

	// Cycling must not move a single-row result off the table.
	tr.cycleViews(1)
	assert.Equal(t, viewData, tr.views[blockKey{1, 0}])
}

func TestPendingAndFailedQueries(t *testing.T) {
	conv := analyst.NewConversation()
	conv.AppendUser("q")
	conv.AppendAssistant(analyst.Content{
		analyst.SQLBlock{Statement: "SELECT 1"},
		analyst.SQLBlock{Statement: "SELECT bad"},
	}, "id")

	tr := newTranscript(conv)
	tr.markPending(1, 0)
	tr.setResult(1, 1, nil, errors.New("syntax error"))

	joined := strings.Join(tr.render(), "\n")
	assert.Contains(t, joined, "running query")
	// One block's failure renders inline without hiding the other block.
	assert.Contains(t, joined, "syntax error")
	assert.Contains(t, joined, "SELECT 1")
}

func TestSendErrorRendersInline(t *testing.T) {
	conv := analyst.NewConversation()
	conv.AppendUser("boom")
	conv.AppendAssistant(nil, "")

	tr := newTranscript(conv)
	tr.setSendErr(1, errors.New("analyst request failed with status 500"))

	joined := strings.Join(tr.render(), "\n")
	assert.Contains(t, joined, "status 500")
}

func TestSuggestionCycling(t *testing.T) {
	conv := analyst.NewConversation()
	conv.AppendUser("q")
	conv.AppendAssistant(analyst.Content{
		analyst.SuggestionsBlock{Suggestions: []string{"a", "b"}},
	}, "id")

	tr := newTranscript(conv)

	_, ok := tr.selectedSuggestion()
	assert.False(t, ok)

	tr.cycleSelection()
	s, ok := tr.selectedSuggestion()
	require.True(t, ok)
	assert.Equal(t, "a", s)

	tr.cycleSelection()
	s, _ = tr.selectedSuggestion()
	assert.Equal(t, "b", s)

	// Wraps back to no selection.
	tr.cycleSelection()
	_, ok = tr.selectedSuggestion()
	assert.False(t, ok)
}

func TestSuggestionSelectionKeyedByTurn(t *testing.T) {
	conv := analyst.NewConversation()
	conv.AppendUser("q1")
	conv.AppendAssistant(analyst.Content{
		analyst.SuggestionsBlock{Suggestions: []string{"old"}},
	}, "id1")

	tr := newTranscript(conv)
	tr.cycleSelection()
	s, _ := tr.selectedSuggestion()
	require.Equal(t, "old", s)

	// A newer assistant turn retargets selection; the stale (turn, index)
	// key never resolves against the new turn.
	conv.AppendUser("q2")
	conv.AppendAssistant(analyst.Content{
		analyst.SuggestionsBlock{Suggestions: []string{"new-a", "new-b"}},
	}, "id2")

	tr.cycleSelection()
	s, ok := tr.selectedSuggestion()
	require.True(t, ok)
	assert.Equal(t, "new-a", s)
}

func TestSelectionFromOlderTurnNotActionable(t *testing.T) {
	conv := analyst.NewConversation()
	conv.AppendUser("q1")
	conv.AppendAssistant(analyst.Content{
		analyst.SuggestionsBlock{Suggestions: []string{"old"}},
	}, "id1")

	tr := newTranscript(conv)
	tr.cycleSelection()
	s, ok := tr.selectedSuggestion()
	require.True(t, ok)
	require.Equal(t, "old", s)

	// A newer assistant turn retires the old selection entirely, even when
	// the new turn carries no suggestions of its own.
	conv.AppendUser("q2")
	conv.AppendAssistant(analyst.Content{analyst.TextBlock{Text: "a"}}, "id2")

	_, ok = tr.selectedSuggestion()
	assert.False(t, ok, "selection in a superseded turn is not actionable")
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"short", "hello world", 20, []string{"hello world"}},
		{"wraps", "this is a longer text that needs wrapping", 20,
			[]string{"this is a longer", "text that needs", "wrapping"}},
		{"zero width", "hello world", 0, []string{"hello world"}},
		{"empty", "", 20, []string{""}},
		{"keeps paragraphs", "a\nb", 20, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapText(tt.text, tt.width))
		})
	}
}
