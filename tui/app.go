// app.go is the top-level Bubble Tea model.
//
// Flow:
//  1. Start in PhaseConnecting: establish the Snowflake session behind a
//     spinner. Failure is fatal — the error is shown and any key exits.
//  2. On success → PhaseChat: a single transcript view with a prompt line.
//
// Key design decisions:
//   - One prompt in flight at a time. While a reply is pending the prompt
//     line shows a spinner and submits are ignored; typing still works.
//   - SQL blocks execute once, asynchronously, when their reply arrives;
//     results land in the transcript via QueryResultMsg. ctrl+r re-runs
//     the newest turn's queries on demand.
//   - A failed send appends an empty assistant turn and an inline error;
//     the conversation continues.
package tui

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"snowchat/analyst"
	"snowchat/applog"
	"snowchat/config"
	"snowchat/snowflake"
)

const appVersion = "0.1.0"

// AppPhase tracks where we are in the session lifecycle.
type AppPhase int

const (
	PhaseConnecting AppPhase = iota
	PhaseChat
	PhaseFatal
)

// App is the root Bubble Tea model.
type App struct {
	cfg      config.Config
	phase    AppPhase
	fatalErr error

	session    *snowflake.Session
	client     *analyst.Client
	conv       *analyst.Conversation
	transcript *Transcript
	viewport   *Viewport
	spin       spinner.Model

	input     string
	loading   bool
	showHelp  bool
	statusMsg string

	width  int
	height int
}

// NewApp creates the application in the connecting phase.
func NewApp(cfg config.Config) *App {
	conv := analyst.NewConversation()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorAccent)

	return &App{
		cfg:        cfg,
		phase:      PhaseConnecting,
		conv:       conv,
		transcript: newTranscript(conv),
		viewport:   NewViewport(80, 20),
		spin:       sp,
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spin.Tick, a.connectCmd())
}

func (a *App) connectCmd() tea.Cmd {
	cfg := a.cfg
	return func() tea.Msg {
		session, err := snowflake.Connect(context.Background(), cfg)
		if err != nil {
			return ConnectErrorMsg{Err: err}
		}
		return ConnectedMsg{Session: session}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.setSize(msg.Width, msg.Height)
		return a, nil

	case spinner.TickMsg:
		if a.phase == PhaseConnecting || a.loading {
			var cmd tea.Cmd
			a.spin, cmd = a.spin.Update(msg)
			return a, cmd
		}
		return a, nil

	case ConnectedMsg:
		a.session = msg.Session
		a.client = analyst.NewClient(a.cfg, msg.Session)
		a.phase = PhaseChat
		a.statusMsg = "connected — ask a question about " + a.cfg.File
		a.refresh(true)
		return a, nil

	case ConnectErrorMsg:
		a.phase = PhaseFatal
		a.fatalErr = msg.Err
		applog.Error("connect: %v", msg.Err)
		return a, nil

	case ReplyMsg:
		return a, a.handleReply(msg)

	case QueryResultMsg:
		a.transcript.setResult(msg.Turn, msg.Block, msg.Result, msg.Err)
		if msg.Err != nil {
			applog.Error("query for turn %d block %d: %v", msg.Turn, msg.Block, msg.Err)
		}
		a.refresh(a.viewport.AtBottom())
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a *App) setSize(width, height int) {
	a.width = width
	a.height = height

	// header(1) + border(2) + status(1) = 4 lines of chrome
	contentW := width - 2
	contentH := height - 4

	a.transcript.setSize(contentW - 2)
	// prompt line + spacer above it
	a.viewport.SetSize(contentW, contentH-2)
	a.refresh(a.viewport.AtBottom())
}

// ── Key handling ──

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.phase {
	case PhaseConnecting:
		return a, nil
	case PhaseFatal:
		// Any key acknowledges the fatal error and exits.
		return a, tea.Quit
	}

	switch msg.String() {
	case "enter":
		return a, a.submit()

	case "tab":
		if !a.loading {
			a.transcript.cycleSelection()
			a.refresh(false)
		}
		return a, nil

	case "ctrl+v":
		a.transcript.cycleViews(a.transcript.latestAssistantTurn())
		a.refresh(false)
		return a, nil

	case "ctrl+o":
		a.transcript.toggleRequestID(a.transcript.latestAssistantTurn())
		a.refresh(false)
		return a, nil

	case "ctrl+r":
		return a, a.rerunLatest()

	case "f1":
		a.showHelp = !a.showHelp
		return a, nil

	case "ctrl+k", "up":
		a.viewport.ScrollUp(1)
		return a, nil
	case "ctrl+j", "down":
		a.viewport.ScrollDown(1)
		return a, nil
	case "pgup":
		a.viewport.PageUp()
		return a, nil
	case "pgdown":
		a.viewport.PageDown()
		return a, nil
	case "home":
		a.viewport.Home()
		return a, nil
	case "end":
		a.viewport.End()
		return a, nil

	case "backspace":
		if len(a.input) > 0 {
			_, size := utf8.DecodeLastRuneInString(a.input)
			a.input = a.input[:len(a.input)-size]
		}
		return a, nil

	default:
		if msg.Type == tea.KeyRunes {
			a.input += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			a.input += " "
		}
		return a, nil
	}
}

// submit turns the prompt line — or the selected suggestion when the line
// is empty — into the next processed message.
func (a *App) submit() tea.Cmd {
	if a.loading {
		return nil
	}

	prompt := strings.TrimSpace(a.input)
	if prompt != "" {
		return a.process(prompt)
	}

	// Empty input: promote the selected suggestion through the one-slot
	// pending state, then consume it immediately (single-shot).
	if suggestion, ok := a.transcript.selectedSuggestion(); ok {
		a.conv.SetPending(suggestion)
		a.transcript.clearSelection()
	}
	if pending, ok := a.conv.TakePending(); ok {
		return a.process(pending)
	}
	return nil
}

// process appends the user turn, renders it immediately, and dispatches
// the prompt. Exactly one user turn and (via handleReply) exactly one
// assistant turn per call, in that order.
func (a *App) process(prompt string) tea.Cmd {
	a.conv.AppendUser(prompt)
	a.input = ""
	a.loading = true
	a.statusMsg = ""
	a.refresh(true)

	client := a.client
	return tea.Batch(a.spin.Tick, func() tea.Msg {
		reply, err := client.Send(context.Background(), prompt)
		return ReplyMsg{Reply: reply, Err: err}
	})
}

// handleReply appends the assistant turn and schedules one execution per
// SQL block. A failed send yields an empty turn plus an inline error.
func (a *App) handleReply(msg ReplyMsg) tea.Cmd {
	a.loading = false
	turnIdx := a.conv.Len() // index the assistant turn is about to get

	if msg.Err != nil {
		a.conv.AppendAssistant(nil, "")
		a.transcript.setSendErr(turnIdx, msg.Err)
		a.refresh(true)
		return nil
	}

	a.conv.AppendAssistant(msg.Reply.Content, msg.Reply.RequestID)

	var cmds []tea.Cmd
	for blockIdx, block := range msg.Reply.Content {
		if sqlBlock, ok := block.(analyst.SQLBlock); ok {
			a.transcript.markPending(turnIdx, blockIdx)
			cmds = append(cmds, a.executeBlock(turnIdx, blockIdx, sqlBlock.Statement))
		}
	}
	a.refresh(true)
	return tea.Batch(cmds...)
}

// executeBlock runs one SQL statement asynchronously.
func (a *App) executeBlock(turn, block int, statement string) tea.Cmd {
	session := a.session
	return func() tea.Msg {
		result, err := session.Execute(context.Background(), statement)
		return QueryResultMsg{Turn: turn, Block: block, Result: result, Err: err}
	}
}

// rerunLatest re-executes every SQL block of the newest assistant turn.
func (a *App) rerunLatest() tea.Cmd {
	turnIdx := a.transcript.latestAssistantTurn()
	if turnIdx < 0 {
		return nil
	}

	var cmds []tea.Cmd
	for blockIdx, block := range a.conv.Turn(turnIdx).Content {
		if sqlBlock, ok := block.(analyst.SQLBlock); ok {
			a.transcript.markPending(turnIdx, blockIdx)
			cmds = append(cmds, a.executeBlock(turnIdx, blockIdx, sqlBlock.Statement))
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	a.statusMsg = "re-running queries..."
	a.refresh(false)
	return tea.Batch(cmds...)
}

// refresh re-renders the transcript into the viewport.
func (a *App) refresh(stickToBottom bool) {
	a.viewport.SetContentLines(a.transcript.render())
	if stickToBottom {
		a.viewport.End()
	}
}

// ── Rendering ──

// View implements tea.Model.
func (a *App) View() string {
	if a.width == 0 {
		return "loading..."
	}

	header := a.renderHeader()

	frameHeight := a.height - 4
	if frameHeight < 0 {
		frameHeight = 0
	}
	frame := StyleBorder.
		Width(a.width - 2).
		Height(frameHeight)

	var content string
	switch a.phase {
	case PhaseConnecting:
		content = a.renderConnecting()
	case PhaseFatal:
		content = a.renderFatal()
	default:
		if a.showHelp {
			content = a.renderHelp()
		} else {
			content = a.renderChat()
		}
	}

	return header + "\n" + frame.Render(content) + "\n" + a.renderStatusBar()
}

func (a *App) renderConnecting() string {
	return "\n " + a.spin.View() + " Connecting to Snowflake (" + a.cfg.Account + ")..."
}

func (a *App) renderFatal() string {
	lines := []string{
		"",
		" " + StyleError.Render("✗ "+a.fatalErr.Error()),
		"",
		" " + StyleDimmed.Render("press any key to exit"),
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderChat() string {
	prompt := StylePrompt.Render("Ask> ") + a.input + "█"
	if a.loading {
		prompt = StylePrompt.Render("Ask> ") + a.spin.View() + StyleDimmed.Render(" generating response...")
	}

	return lipgloss.JoinVertical(lipgloss.Left, a.viewport.Render(), "", prompt)
}

// renderHeader draws a simple text bar: logo + version + session info.
func (a *App) renderHeader() string {
	logo := StyleBold.Render("❄ snowchat")
	version := StyleDimmed.Render(" v" + appVersion)

	left := logo + version

	var sessionInfo string
	if a.phase == PhaseChat {
		details := fmt.Sprintf("%s@%s/%s", a.cfg.User, a.cfg.Account, a.cfg.Database)
		sessionInfo = StyleSuccess.Render("  ⚡ "+details) +
			StyleDimmed.Render("  model: "+a.cfg.File)
	}

	content := left + sessionInfo

	right := StyleDimmed.Render(fmt.Sprintf("%d×%d", a.width, a.height))
	gap := a.width - lipgloss.Width(content) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Render(content + strings.Repeat(" ", gap) + right)
}

func (a *App) renderStatusBar() string {
	var content string
	if a.statusMsg != "" {
		content = a.statusMsg
	} else {
		var parts []string
		for _, h := range a.helpItems() {
			parts = append(parts,
				StyleHelpKey.Render(h.Key)+" "+StyleHelpDesc.Render(h.Desc))
		}
		content = strings.Join(parts, "  │  ")
	}
	return StyleStatusBar.Width(a.width).Render(content)
}

// KeyBinding describes a keyboard shortcut for the status bar.
type KeyBinding struct {
	Key  string
	Desc string
}

func (a *App) helpItems() []KeyBinding {
	switch a.phase {
	case PhaseConnecting:
		return []KeyBinding{{Key: "Ctrl+C", Desc: "quit"}}
	case PhaseFatal:
		return []KeyBinding{{Key: "any key", Desc: "exit"}}
	}
	return []KeyBinding{
		{Key: "Enter", Desc: "send"},
		{Key: "Tab", Desc: "suggestions"},
		{Key: "Ctrl+V", Desc: "chart view"},
		{Key: "F1", Desc: "help"},
		{Key: "Ctrl+C", Desc: "quit"},
	}
}

func (a *App) renderHelp() string {
	help := []string{
		StyleTitle.Render("⌨ snowchat Keyboard Shortcuts"),
		"",
		StyleHelpKey.Render("Enter") + "            Send the prompt (or the selected suggestion)",
		StyleHelpKey.Render("Tab") + "              Cycle through the latest suggestions",
		StyleHelpKey.Render("Ctrl+V") + "           Switch result view: data / line chart / bar chart",
		StyleHelpKey.Render("Ctrl+O") + "           Expand or collapse the request id",
		StyleHelpKey.Render("Ctrl+R") + "           Re-run the latest turn's SQL",
		"",
		StyleHelpKey.Render("↑/↓ Ctrl+K/J") + "     Scroll the transcript",
		StyleHelpKey.Render("PgUp/PgDn") + "        Page up/down",
		StyleHelpKey.Render("Home/End") + "         Jump to top/bottom",
		"",
		StyleHelpKey.Render("Ctrl+C") + "           Quit",
		"",
		StyleDimmed.Render("Press F1 to close"),
	}
	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(strings.Join(help, "\n"))
}
