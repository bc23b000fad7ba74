package researchcmder

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/client"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/session"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/stream"
)

func init() {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)
}

type researchTab int

const (
	tabActivity researchTab = iota
	tabSources
	tabReport
)

var tabNames = []string{"activity", "sources", "report"}

var (
	tuiTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	tuiMutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	tuiDimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	tuiStageStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	tuiTabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	tuiActiveTabStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("235")).Background(lipgloss.Color("212"))
	tuiSourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	tuiErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	tuiOKStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	tuiDividerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
)

var tuiSpinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

type researchKeyMap struct {
	NextTab key.Binding
	PrevTab key.Binding
	Tabs    key.Binding
	Stop    key.Binding
}

func (k researchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Tabs, k.Stop}
}

func (k researchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.NextTab, k.PrevTab}, {k.Tabs, k.Stop}}
}

func defaultResearchKeyMap() researchKeyMap {
	return researchKeyMap{
		NextTab: key.NewBinding(key.WithKeys("tab", "l", "right"), key.WithHelp("tab", "next tab")),
		PrevTab: key.NewBinding(key.WithKeys("shift+tab", "h", "left"), key.WithHelp("shift+tab", "prev tab")),
		Tabs:    key.NewBinding(key.WithKeys("1", "2", "3"), key.WithHelp("1-3", "tabs")),
		Stop:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "stop")),
	}
}

type snapshotMsg stream.Snapshot

type sessionDoneMsg struct {
	err error
}

type spinnerTickMsg time.Time

type researchModel struct {
	query   string
	model   string
	started time.Time
	cancel  context.CancelFunc
	msgCh   <-chan bubbletea.Msg

	keys researchKeyMap
	help help.Model

	snap   stream.Snapshot
	tab    researchTab
	width  int
	height int
	frame  int
	done   bool
	runErr error
}

// runTUI drives the live view. The session runs on its own goroutine and
// feeds snapshots through a channel; the program quits once the session is
// terminal, and the final report is printed by the command afterwards.
func (c *researchCommander) runTUI(ctx context.Context, cancel context.CancelFunc, cl *client.Client, query, apiKey string, reducerOpts []stream.Option) (*session.Session, error) {
	msgCh := make(chan bubbletea.Msg, 64)

	sess := session.New(query, c.model,
		session.WithLogger(c.logger),
		session.WithReducerOptions(reducerOpts...),
		session.WithUpdateFunc(func(snap stream.Snapshot) {
			msgCh <- snapshotMsg(snap)
		}),
	)

	go func() {
		err := sess.Run(ctx, cl, apiKey)
		msgCh <- sessionDoneMsg{err: err}
	}()

	model := researchModel{
		query:   query,
		model:   c.model,
		started: time.Now(),
		cancel:  cancel,
		msgCh:   msgCh,
		keys:    defaultResearchKeyMap(),
		help:    help.New(),
	}

	program := bubbletea.NewProgram(model, bubbletea.WithAltScreen())
	finalModel, err := program.Run()
	if err != nil {
		cancel()
		return sess, err
	}

	if m, ok := finalModel.(researchModel); ok {
		return sess, m.runErr
	}
	return sess, nil
}

func (m researchModel) Init() bubbletea.Cmd {
	return bubbletea.Batch(m.listen(), spinnerTick())
}

func (m researchModel) listen() bubbletea.Cmd {
	return func() bubbletea.Msg {
		return <-m.msgCh
	}
}

func spinnerTick() bubbletea.Cmd {
	return bubbletea.Tick(120*time.Millisecond, func(t time.Time) bubbletea.Msg {
		return spinnerTickMsg(t)
	})
}

func (m researchModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case snapshotMsg:
		m.snap = stream.Snapshot(msg)
		return m, m.listen()

	case sessionDoneMsg:
		m.done = true
		m.runErr = msg.err
		return m, bubbletea.Quit

	case spinnerTickMsg:
		m.frame++
		if m.done {
			return m, nil
		}
		return m, spinnerTick()

	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m researchModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Stop):
		// Stop the session; the quit follows on sessionDoneMsg so the
		// reducer reaches its terminal state first.
		m.cancel()
		return m, nil
	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % researchTab(len(tabNames))
	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab + researchTab(len(tabNames)) - 1) % researchTab(len(tabNames))
	case key.Matches(msg, m.keys.Tabs):
		switch msg.String() {
		case "1":
			m.tab = tabActivity
		case "2":
			m.tab = tabSources
		case "3":
			m.tab = tabReport
		}
	}
	return m, nil
}

func (m researchModel) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	lines := []string{m.viewHeader(width), m.viewRule(width), m.viewTabs(), ""}

	bodyHeight := m.height - len(lines) - 2
	if bodyHeight < 4 {
		bodyHeight = 4
	}

	var body []string
	switch m.tab {
	case tabSources:
		body = m.viewSources()
	case tabReport:
		body = m.viewReport(width)
	default:
		body = m.viewActivity()
	}
	if len(body) > bodyHeight {
		body = body[len(body)-bodyHeight:]
	}
	lines = append(lines, body...)

	for len(lines) < m.height-1 && m.height > 0 {
		lines = append(lines, "")
	}
	lines = append(lines, m.viewFooter())

	return strings.Join(lines, "\n")
}

func (m researchModel) viewHeader(width int) string {
	left := tuiTitleStyle.Render("deepresearch") + " " + tuiMutedStyle.Render(truncate(m.query, max(10, width-40)))

	indicator := ""
	switch {
	case m.snap.Status == stream.StatusCompleted:
		indicator = tuiOKStyle.Render("✓ completed")
	case m.snap.Status == stream.StatusFailed:
		indicator = tuiErrorStyle.Render("✗ failed")
	case m.snap.Status == stream.StatusStopped:
		indicator = tuiMutedStyle.Render("■ stopped")
	case m.snap.Typing:
		indicator = tuiSpinnerFrames[m.frame%len(tuiSpinnerFrames)] + " working…"
	default:
		indicator = tuiSpinnerFrames[m.frame%len(tuiSpinnerFrames)]
	}

	stage := m.snap.Stage
	if stage == "" {
		stage = "connecting"
	}
	right := tuiMutedStyle.Render(fmt.Sprintf("%s · %s · %s · %s",
		m.model, tuiStageStyle.Render(stage), indicator, formatElapsed(time.Since(m.started))))

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left + " " + right
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m researchModel) viewRule(width int) string {
	return tuiDividerStyle.Render(strings.Repeat("─", width))
}

func (m researchModel) viewTabs() string {
	parts := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf(" %d:%s ", i+1, name)
		if researchTab(i) == m.tab {
			parts = append(parts, tuiActiveTabStyle.Render(label))
		} else {
			parts = append(parts, tuiTabStyle.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

// viewActivity interleaves the transcript tail with the API-call log tail.
func (m researchModel) viewActivity() []string {
	if len(m.snap.Transcript) == 0 && len(m.snap.LogTail) == 0 {
		return []string{tuiMutedStyle.Render("  waiting for events…")}
	}

	lines := make([]string, 0, len(m.snap.Transcript)+len(m.snap.LogTail))
	for _, seg := range m.snap.Transcript {
		switch seg.Kind {
		case stream.SegmentStage:
			lines = append(lines, "", tuiStageStyle.Render("── "+seg.Stage+" ──"))
			if seg.Text != "" {
				lines = append(lines, "  "+seg.Text)
			}
		default:
			lines = append(lines, "  "+seg.Text)
		}
	}

	if len(m.snap.LogTail) > 0 {
		lines = append(lines, "", tuiMutedStyle.Render("  api calls"))
		for _, line := range m.snap.LogTail {
			lines = append(lines, tuiDimStyle.Render("  "+line))
		}
	}

	if m.snap.Error != "" {
		lines = append(lines, "", tuiErrorStyle.Render("  "+m.snap.Error))
	}

	return lines
}

func (m researchModel) viewSources() []string {
	if len(m.snap.Sources) == 0 {
		return []string{tuiMutedStyle.Render("  no sources discovered yet")}
	}

	lines := make([]string, 0, len(m.snap.Sources))
	for i, src := range m.snap.Sources {
		lines = append(lines, fmt.Sprintf("  %2d. %s", i+1, tuiSourceStyle.Render(src)))
	}
	return lines
}

// viewReport shows the raw markdown of the best report candidate so far.
// The rendered version prints after the TUI exits.
func (m researchModel) viewReport(width int) []string {
	if m.snap.Report == "" {
		return []string{tuiMutedStyle.Render("  no report yet")}
	}

	wrapped := lipgloss.NewStyle().Width(max(20, width-4)).Render(m.snap.Report)
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return lines
}

func (m researchModel) viewFooter() string {
	counts := fmt.Sprintf("%d events · %d sources", m.snap.Events, len(m.snap.Sources))
	return "  " + m.help.View(m.keys) + tuiMutedStyle.Render("  ·  "+counts)
}

func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	if limit <= 3 {
		return s[:limit]
	}
	return s[:limit-3] + "..."
}
