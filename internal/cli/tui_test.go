package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func update(t *testing.T, m ProgressModel, msgs ...tea.Msg) ProgressModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		if m, ok = next.(ProgressModel); !ok {
			t.Fatalf("Update() returned %T, want ProgressModel", next)
		}
	}
	return m
}

func TestProgressModelTransitions(t *testing.T) {
	m := update(t, NewProgressModel(),
		stageMsg{stage: "resize"},
		stageMsg{stage: "resize", done: true},
		stageMsg{stage: "draw"},
		colorMsg{color: "#ff0000", index: 0, total: 2, regions: 3},
		frameMsg{index: 0},
		frameMsg{index: 1},
		colorMsg{color: "#0000ff", index: 1, total: 2, regions: 1},
		frameMsg{index: 2},
	)

	if m.Stage != "draw" {
		t.Errorf("Stage = %q, want %q", m.Stage, "draw")
	}
	if m.Color != "#0000ff" || m.Index != 1 || m.Colors != 2 || m.Regions != 1 {
		t.Errorf("color state = %s %d/%d (%d regions), want #0000ff 1/2 (1 regions)", m.Color, m.Index, m.Colors, m.Regions)
	}
	if m.Frames != 3 {
		t.Errorf("Frames = %d, want 3", m.Frames)
	}
	if m.Failed {
		t.Error("Failed should be false without stage errors")
	}
}

func TestProgressModelStageError(t *testing.T) {
	m := update(t, NewProgressModel(),
		stageMsg{stage: "quantize"},
		stageMsg{stage: "quantize", done: true, err: errors.New("boom")},
	)
	if !m.Failed {
		t.Error("Failed should be set after a stage error")
	}
}

func TestProgressModelTool(t *testing.T) {
	m := update(t, NewProgressModel(), toolMsg{tool: "ffmpeg", op: "encode"})
	if m.Tool != "ffmpeg encode" {
		t.Errorf("Tool = %q, want %q", m.Tool, "ffmpeg encode")
	}
	if !strings.Contains(m.View(), "ffmpeg encode") {
		t.Errorf("View() should mention the running tool: %q", m.View())
	}

	m = update(t, m, toolMsg{tool: "ffmpeg", op: "encode", done: true})
	if m.Tool != "" {
		t.Errorf("Tool = %q after completion, want empty", m.Tool)
	}
}

func TestProgressModelQuit(t *testing.T) {
	next, cmd := NewProgressModel().Update(quitMsg{})
	if cmd == nil {
		t.Fatal("quitMsg should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quitMsg should return tea.Quit")
	}
	m := next.(ProgressModel)
	if !m.Done {
		t.Error("Done should be set after quitMsg")
	}
	if v := m.View(); v != "" {
		t.Errorf("View() after quit = %q, want empty", v)
	}
}

func TestProgressModelView(t *testing.T) {
	m := update(t, NewProgressModel(),
		stageMsg{stage: "draw"},
		colorMsg{color: "#00ff00", index: 2, total: 4, regions: 7},
		frameMsg{index: 41},
	)

	v := m.View()
	for _, want := range []string{"draw", "color 3/4", "#00ff00", "7 regions", "42", "frames"} {
		if !strings.Contains(v, want) {
			t.Errorf("View() = %q, missing %q", v, want)
		}
	}

	if v := NewProgressModel().View(); !strings.Contains(v, "starting") {
		t.Errorf("initial View() = %q, want it to contain %q", v, "starting")
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		done, total, width int
		full               int
	}{
		{0, 4, 8, 0},
		{1, 4, 8, 2},
		{4, 4, 8, 8},
		{9, 4, 8, 8},
		{0, 0, 8, 0},
	}
	for _, tt := range tests {
		bar := progressBar(tt.done, tt.total, tt.width)
		if got := strings.Count(bar, "█"); got != tt.full {
			t.Errorf("progressBar(%d, %d, %d) has %d full cells, want %d", tt.done, tt.total, tt.width, got, tt.full)
		}
		if got := strings.Count(bar, "█") + strings.Count(bar, "░"); got != tt.width {
			t.Errorf("progressBar(%d, %d, %d) has %d cells, want %d", tt.done, tt.total, tt.width, got, tt.width)
		}
	}
}

func TestProgressHooksForward(t *testing.T) {
	var got []tea.Msg
	h := progressHooks{send: func(msg tea.Msg) { got = append(got, msg) }}
	ctx := context.Background()

	h.OnStageStart(ctx, "draw")
	h.OnColorStart(ctx, "#ff0000", 0, 1, 2)
	h.OnFrame(ctx, 0)
	h.OnToolStart(ctx, "ffmpeg", "encode")
	h.OnToolComplete(ctx, "ffmpeg", "encode", 0, nil)
	h.OnStageComplete(ctx, "draw", 0, nil)
	h.OnEncode(ctx, "out.mp4", 1, 0, nil)

	want := []tea.Msg{
		stageMsg{stage: "draw"},
		colorMsg{color: "#ff0000", index: 0, total: 1, regions: 2},
		frameMsg{index: 0},
		toolMsg{tool: "ffmpeg", op: "encode"},
		toolMsg{tool: "ffmpeg", op: "encode", done: true},
		stageMsg{stage: "draw", done: true},
	}
	if len(got) != len(want) {
		t.Fatalf("hooks sent %d messages, want %d: %#v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %#v, want %#v", i, got[i], want[i])
		}
	}
}

func TestProgressViewStopNil(t *testing.T) {
	var v *progressView
	v.Stop() // must not panic
}
