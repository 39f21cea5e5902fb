package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/drawreel/pkg/observability"
)

// Progress styles
var (
	barDoneStyle = lipgloss.NewStyle().Foreground(colorCyan)
	barTodoStyle = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	swatchWidth = 2
	barWidth    = 24
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// =============================================================================
// Messages
// =============================================================================

type (
	stageMsg struct {
		stage string
		done  bool
		err   error
	}
	colorMsg struct {
		color   string
		index   int
		total   int
		regions int
	}
	frameMsg struct{ index int }
	toolMsg  struct {
		tool, op string
		done     bool
	}
	tickMsg time.Time
	quitMsg struct{}
)

// =============================================================================
// ProgressModel - Non-interactive drawing progress
// =============================================================================

// ProgressModel is the bubbletea model of the drawing progress line.
type ProgressModel struct {
	Stage   string
	Tool    string // running external tool, empty when idle
	Color   string
	Index   int // zero-based index of the color being drawn
	Colors  int
	Regions int // regions of the current color
	Frames  int
	Failed  bool
	Done    bool

	tick int
}

// NewProgressModel creates an empty progress model.
func NewProgressModel() ProgressModel {
	return ProgressModel{}
}

func (m ProgressModel) Init() tea.Cmd {
	return tickEvery()
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stageMsg:
		if !msg.done {
			m.Stage = msg.stage
		} else if msg.err != nil {
			m.Failed = true
		}
	case colorMsg:
		m.Color = msg.color
		m.Index = msg.index
		m.Colors = msg.total
		m.Regions = msg.regions
	case frameMsg:
		m.Frames = msg.index + 1
	case toolMsg:
		if msg.done {
			m.Tool = ""
		} else {
			m.Tool = msg.tool + " " + msg.op
		}
	case tickMsg:
		m.tick++
		return m, tickEvery()
	case quitMsg:
		m.Done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m ProgressModel) View() string {
	if m.Done {
		return ""
	}

	var b strings.Builder
	b.WriteString(styleIconSpinner.Render(spinnerFrames[m.tick%len(spinnerFrames)]))
	b.WriteString(" ")
	b.WriteString(StyleTitle.Render(fallback(m.Stage, "starting")))

	if m.Colors > 0 {
		b.WriteString("  ")
		b.WriteString(progressBar(m.Index, m.Colors, barWidth))
		b.WriteString(StyleDim.Render(fmt.Sprintf(" color %d/%d ", m.Index+1, m.Colors)))
		b.WriteString(swatch(m.Color))
		b.WriteString(StyleDim.Render(fmt.Sprintf(" %s · %d regions", m.Color, m.Regions)))
	}
	b.WriteString(StyleDim.Render(" · "))
	b.WriteString(StyleNumber.Render(fmt.Sprintf("%d", m.Frames)))
	b.WriteString(StyleDim.Render(" frames"))

	if m.Tool != "" {
		b.WriteString(StyleDim.Render(" · " + m.Tool))
	}
	return b.String()
}

// progressBar renders done/total as a fixed-width bar.
func progressBar(done, total, width int) string {
	if total <= 0 {
		return barTodoStyle.Render(strings.Repeat("░", width))
	}
	n := min(done*width/total, width)
	return barDoneStyle.Render(strings.Repeat("█", n)) + barTodoStyle.Render(strings.Repeat("░", width-n))
}

// swatch renders a small block in the given hex color.
func swatch(hex string) string {
	if hex == "" {
		return strings.Repeat(" ", swatchWidth)
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render(strings.Repeat(" ", swatchWidth))
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func tickEvery() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// =============================================================================
// Hooks - Observability events forwarded to the program
// =============================================================================

// progressHooks translates pipeline and tool events into model messages.
type progressHooks struct {
	send func(tea.Msg)
}

func (h progressHooks) OnStageStart(_ context.Context, stage string) {
	h.send(stageMsg{stage: stage})
}

func (h progressHooks) OnStageComplete(_ context.Context, stage string, _ time.Duration, err error) {
	h.send(stageMsg{stage: stage, done: true, err: err})
}

func (h progressHooks) OnColorStart(_ context.Context, color string, index, total, regions int) {
	h.send(colorMsg{color: color, index: index, total: total, regions: regions})
}

func (h progressHooks) OnFrame(_ context.Context, index int) {
	h.send(frameMsg{index: index})
}

func (progressHooks) OnEncode(context.Context, string, int, time.Duration, error) {}

func (h progressHooks) OnToolStart(_ context.Context, tool, op string) {
	h.send(toolMsg{tool: tool, op: op})
}

func (h progressHooks) OnToolComplete(_ context.Context, tool, op string, _ time.Duration, _ error) {
	h.send(toolMsg{tool: tool, op: op, done: true})
}

// =============================================================================
// progressView - Program lifecycle
// =============================================================================

// progressView runs the progress program on its own goroutine. It is an
// io.Writer so log lines print above the progress line instead of through it.
type progressView struct {
	p    *tea.Program
	w    io.Writer
	done chan struct{}

	mu      sync.Mutex
	stopped bool
	once    sync.Once
}

// startProgress starts the progress view on w and registers it as pipeline
// and tool hooks until Stop is called.
func startProgress(ctx context.Context, w io.Writer) *progressView {
	p := tea.NewProgram(NewProgressModel(),
		tea.WithContext(ctx),
		tea.WithOutput(w),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	v := &progressView{p: p, w: w, done: make(chan struct{})}

	hooks := progressHooks{send: p.Send}
	observability.SetPipelineHooks(hooks)
	observability.SetToolHooks(hooks)

	go func() {
		defer close(v.done)
		_, _ = p.Run()
	}()
	return v
}

// Write prints one log record above the progress line. After Stop it writes
// straight to the underlying writer.
func (v *progressView) Write(b []byte) (int, error) {
	v.mu.Lock()
	stopped := v.stopped
	v.mu.Unlock()
	if stopped {
		return v.w.Write(b)
	}
	v.p.Println(strings.TrimRight(string(b), "\n"))
	return len(b), nil
}

// Stop unregisters the hooks, clears the progress line and waits for the
// program to exit. Stop is idempotent and safe on a nil view.
func (v *progressView) Stop() {
	if v == nil {
		return
	}
	v.once.Do(func() {
		observability.SetPipelineHooks(observability.NoopPipelineHooks{})
		observability.SetToolHooks(observability.NoopToolHooks{})
		v.p.Send(quitMsg{})
		<-v.done
		v.mu.Lock()
		v.stopped = true
		v.mu.Unlock()
	})
}
