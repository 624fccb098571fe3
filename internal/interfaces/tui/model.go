// Package tui 终端朗读器界面
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"odyscribe-api/internal/application/narration"
	"odyscribe-api/internal/domain/entity"
)

const (
	volumeStep    = 5
	maxProgressW  = 60
	framePaddingW = 4
)

var narrators = []entity.Narrator{
	entity.NarratorWiseSage,
	entity.NarratorCheekyBard,
	entity.NarratorStoicChronicler,
}

// Controller 界面驱动的朗读会话
type Controller interface {
	TogglePlay() error
	SkipBack() error
	SkipForward() error
	SetVolume(percent int) error
	SelectVoice(narrator string) error
	ToggleMusic() error
	Snapshot() narration.Snapshot
}

type snapshotMsg narration.Snapshot

// Listener 把会话回调转发到 updates，不阻塞会话；积压时只保留最新快照
func Listener(updates chan narration.Snapshot) narration.Listener {
	return func(s narration.Snapshot) {
		select {
		case updates <- s:
			return
		default:
		}
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- s:
		default:
		}
	}
}

func waitForSnapshot(updates <-chan narration.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-updates)
	}
}

// Model bubbletea 模型
type Model struct {
	title    string
	session  Controller
	updates  <-chan narration.Snapshot
	snap     narration.Snapshot
	keys     KeyMap
	help     help.Model
	progress progress.Model
	err      string
}

// New 创建模型，updates 由 Listener 填充
func New(title string, session Controller, updates <-chan narration.Snapshot) Model {
	return Model{
		title:    title,
		session:  session,
		updates:  updates,
		snap:     session.Snapshot(),
		keys:     DefaultKeyMap(),
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = min(msg.Width-framePaddingW*2, maxProgressW)
		m.help.Width = msg.Width
		return m, nil

	case snapshotMsg:
		m.snap = narration.Snapshot(msg)
		return m, waitForSnapshot(m.updates)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Play):
			m.report(m.session.TogglePlay())
		case key.Matches(msg, m.keys.Back):
			m.report(m.session.SkipBack())
		case key.Matches(msg, m.keys.Forward):
			m.report(m.session.SkipForward())
		case key.Matches(msg, m.keys.VolUp):
			m.report(m.session.SetVolume(m.session.Snapshot().Volume + volumeStep))
		case key.Matches(msg, m.keys.VolDown):
			m.report(m.session.SetVolume(m.session.Snapshot().Volume - volumeStep))
		case key.Matches(msg, m.keys.Voice):
			m.report(m.session.SelectVoice(nextNarrator(m.session.Snapshot().Narrator)))
		case key.Matches(msg, m.keys.Music):
			m.report(m.session.ToggleMusic())
		default:
			return m, nil
		}
		m.snap = m.session.Snapshot()
		return m, nil
	}
	return m, nil
}

// report 把操作错误转为界面提示
func (m *Model) report(err error) {
	switch {
	case err == nil, errors.Is(err, narration.ErrNotReady):
		m.err = ""
	case errors.Is(err, narration.ErrUnsupported):
		m.err = "not available with the system voice"
	default:
		m.err = err.Error()
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	state := string(m.snap.State)
	if m.snap.Loading {
		state = "summoning the narrator…"
	}
	b.WriteString(stateStyle.Render(state))
	b.WriteString("\n\n")

	ratio := 0.0
	if m.snap.Duration > 0 {
		ratio = float64(m.snap.Position) / float64(m.snap.Duration)
	}
	b.WriteString(m.progress.ViewAs(ratio))
	b.WriteString("\n")
	b.WriteString(metaStyle.Render(fmt.Sprintf("%s / %s", clock(m.snap.Position), clock(m.snap.Duration))))
	b.WriteString("\n\n")

	voice := m.snap.Narrator
	if m.snap.Backend == narration.KindSystem {
		voice = "system voice"
	}
	music := "off"
	if m.snap.Music {
		music = "on"
	}
	b.WriteString(metaStyle.Render(fmt.Sprintf("narrator %s · volume %d%% · music %s", voice, m.snap.Volume, music)))
	b.WriteString("\n")

	if m.snap.Notice != "" {
		b.WriteString("\n")
		b.WriteString(noticeStyle.Render(m.snap.Notice))
		b.WriteString("\n")
	}
	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return frameStyle.Render(b.String())
}

func nextNarrator(current string) string {
	for i, n := range narrators {
		if string(n) == current {
			return string(narrators[(i+1)%len(narrators)])
		}
	}
	return string(narrators[0])
}

func clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
