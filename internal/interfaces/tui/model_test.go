package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odyscribe-api/internal/application/narration"
)

type fakeController struct {
	snap     narration.Snapshot
	toggles  int
	skips    []int
	voices   []string
	toggleFn func() error
}

func (f *fakeController) TogglePlay() error {
	f.toggles++
	if f.toggleFn != nil {
		return f.toggleFn()
	}
	return nil
}
func (f *fakeController) SkipBack() error    { f.skips = append(f.skips, -1); return nil }
func (f *fakeController) SkipForward() error { f.skips = append(f.skips, 1); return nil }
func (f *fakeController) SetVolume(p int) error {
	f.snap.Volume = p
	return nil
}
func (f *fakeController) SelectVoice(n string) error {
	f.voices = append(f.voices, n)
	f.snap.Narrator = n
	return nil
}
func (f *fakeController) ToggleMusic() error {
	f.snap.Music = !f.snap.Music
	return nil
}
func (f *fakeController) Snapshot() narration.Snapshot { return f.snap }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func newModel(ctrl *fakeController) Model {
	return New("The Quiet Harbor", ctrl, make(chan narration.Snapshot, 1))
}

func TestModel_KeysDriveSession(t *testing.T) {
	ctrl := &fakeController{snap: narration.Snapshot{Volume: 80, Narrator: "wise-sage"}}
	m := newModel(ctrl)

	m, _ = press(t, m, runes("p"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m, _ = press(t, m, runes("+"))
	m, _ = press(t, m, runes("m"))

	assert.Equal(t, 1, ctrl.toggles)
	assert.Equal(t, []int{-1, 1}, ctrl.skips)
	assert.Equal(t, 85, m.snap.Volume)
	assert.True(t, m.snap.Music)

	m, _ = press(t, m, runes("-"))
	m, _ = press(t, m, runes("-"))
	assert.Equal(t, 75, m.snap.Volume)
}

func TestModel_VoiceCycles(t *testing.T) {
	ctrl := &fakeController{snap: narration.Snapshot{Narrator: "stoic-chronicler"}}
	m := newModel(ctrl)

	m, _ = press(t, m, runes("v"))
	m, _ = press(t, m, runes("v"))

	assert.Equal(t, []string{"wise-sage", "cheeky-bard"}, ctrl.voices)
	assert.Equal(t, "cheeky-bard", m.snap.Narrator)
}

func TestModel_UnsupportedShowsHint(t *testing.T) {
	ctrl := &fakeController{toggleFn: func() error { return narration.ErrUnsupported }}
	m := newModel(ctrl)

	m, _ = press(t, m, runes("p"))
	assert.Contains(t, m.View(), "not available with the system voice")

	ctrl.toggleFn = func() error { return narration.ErrNotReady }
	m, _ = press(t, m, runes("p"))
	assert.Empty(t, m.err)

	ctrl.toggleFn = func() error { return errors.New("device gone") }
	m, _ = press(t, m, runes("p"))
	assert.Equal(t, "device gone", m.err)
}

func TestModel_QuitReturnsQuitCmd(t *testing.T) {
	m := newModel(&fakeController{})

	_, cmd := press(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_SnapshotMessagesRefreshView(t *testing.T) {
	updates := make(chan narration.Snapshot, 1)
	m := New("The Quiet Harbor", &fakeController{}, updates)

	m, cmd := press(t, m, snapshotMsg(narration.Snapshot{
		State:    narration.StatePlaying,
		Backend:  narration.KindRemote,
		Position: 75 * time.Second,
		Duration: 3 * time.Minute,
		Volume:   80,
		Narrator: "cheeky-bard",
		Notice:   "Using your device's voice",
	}))
	require.NotNil(t, cmd)

	view := m.View()
	assert.Contains(t, view, "The Quiet Harbor")
	assert.Contains(t, view, "playing")
	assert.Contains(t, view, "01:15 / 03:00")
	assert.Contains(t, view, "cheeky-bard")
	assert.Contains(t, view, "Using your device's voice")

	updates <- narration.Snapshot{State: narration.StateEnded}
	msg := cmd()
	assert.Equal(t, narration.StateEnded, narration.Snapshot(msg.(snapshotMsg)).State)
}

func TestModel_SystemBackendHidesNarrator(t *testing.T) {
	m := newModel(&fakeController{})
	m, _ = press(t, m, snapshotMsg(narration.Snapshot{
		State:    narration.StatePlaying,
		Backend:  narration.KindSystem,
		Narrator: "wise-sage",
	}))

	assert.Contains(t, m.View(), "system voice")
	assert.NotContains(t, m.View(), "wise-sage")
}

func TestListener_KeepsLatestWhenFull(t *testing.T) {
	updates := make(chan narration.Snapshot, 1)
	listen := Listener(updates)

	listen(narration.Snapshot{Volume: 1})
	listen(narration.Snapshot{Volume: 2})
	listen(narration.Snapshot{Volume: 3})

	assert.Equal(t, 3, (<-updates).Volume)
	select {
	case s := <-updates:
		t.Fatalf("unexpected extra snapshot %+v", s)
	default:
	}
}

func TestClock(t *testing.T) {
	assert.Equal(t, "00:00", clock(-time.Second))
	assert.Equal(t, "02:05", clock(125*time.Second))
	assert.Equal(t, "61:01", clock(time.Hour+61*time.Second))
}
