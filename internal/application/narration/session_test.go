package narration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chapterText = "## The Long Road\n\nMile after mile, the **hero** pressed on."

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

type sessionFixture struct {
	synth  *fakeSynth
	audio  *fakeAudio
	speech *fakeSpeech
	music  *fakeMusic
	rec    *recorder
	s      *Session
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		synth: &fakeSynth{audio: []byte("mp3")},
		audio: &fakeAudio{dur: 60 * time.Second},
		speech: &fakeSpeech{voices: []Voice{
			{Name: "English (Great Britain)", Lang: "en-gb"},
			{Name: "Deutsch", Lang: "de", Default: true},
		}},
		music: &fakeMusic{},
		rec:   &recorder{},
	}
	f.s = NewSession(Config{
		Synthesizer:  f.synth,
		Audio:        f.audio,
		Speech:       f.speech,
		Music:        f.music,
		Listener:     f.rec.listen,
		PollInterval: 10 * time.Millisecond,
	})
	t.Cleanup(func() { _ = f.s.Close() })
	return f
}

func (f *sessionFixture) waitState(t *testing.T, want State) Snapshot {
	t.Helper()
	require.Eventually(t, func() bool { return f.s.Snapshot().State == want }, waitFor, tick, "state %s", want)
	return f.s.Snapshot()
}

// assertSilentAfterClose 关闭后不再有任何回调
func (f *sessionFixture) assertSilentAfterClose(t *testing.T) {
	t.Helper()
	require.NoError(t, f.s.Close())
	n := f.rec.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, f.rec.count(), "listener fired after close")
	assert.Equal(t, StateIdle, f.s.Snapshot().State)
}

func TestSession_RemotePlayback(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.s.Start(context.Background(), chapterText, "epic-fantasy", "cheeky-bard"))
	snap := f.waitState(t, StatePlaying)

	assert.Equal(t, KindRemote, snap.Backend)
	assert.False(t, snap.Fallback)
	assert.False(t, snap.Loading)
	assert.Equal(t, []byte("mp3"), f.audio.state().loaded)
	assert.Equal(t, DefaultVolume, f.audio.state().volume)

	reqs := f.synth.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "The Long Road Mile after mile, the hero pressed on.", reqs[0].Text)
	assert.Equal(t, "cheeky-bard", reqs[0].Narrator)
	assert.Equal(t, "epic-fantasy", reqs[0].Tone)
}

func TestSession_TransportControls(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.s.Start(context.Background(), chapterText, "whimsical", "wise-sage"))
	f.waitState(t, StatePlaying)

	require.NoError(t, f.audio.Seek(10*time.Second))
	require.NoError(t, f.s.SkipBack())
	assert.Equal(t, time.Duration(0), f.audio.state().pos)

	require.NoError(t, f.audio.Seek(50*time.Second))
	require.NoError(t, f.s.SkipForward())
	assert.Equal(t, 60*time.Second, f.audio.state().pos)

	require.NoError(t, f.audio.Seek(20*time.Second))
	require.NoError(t, f.s.SkipForward())
	assert.Equal(t, 35*time.Second, f.audio.state().pos)

	require.NoError(t, f.s.SetVolume(150))
	assert.Equal(t, 100, f.audio.state().volume)
	require.NoError(t, f.s.SetVolume(-5))
	assert.Equal(t, 0, f.audio.state().volume)
	assert.Equal(t, 0, f.s.Snapshot().Volume)

	require.NoError(t, f.s.TogglePlay())
	assert.Equal(t, StatePaused, f.s.Snapshot().State)
	assert.True(t, f.audio.state().paused)

	require.NoError(t, f.s.TogglePlay())
	assert.Equal(t, StatePlaying, f.s.Snapshot().State)
	assert.False(t, f.audio.state().paused)

	require.NoError(t, f.s.ToggleMusic())
	assert.True(t, f.music.isRunning())
	assert.True(t, f.s.Snapshot().Music)
}

func TestSession_PollsProgressWhilePlaying(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.s.Start(context.Background(), chapterText, "whimsical", "wise-sage"))
	f.waitState(t, StatePlaying)

	require.NoError(t, f.audio.Seek(7*time.Second))
	require.Eventually(t, func() bool {
		snap := f.s.Snapshot()
		return snap.Position == 7*time.Second && snap.Duration == 60*time.Second
	}, waitFor, tick)

	require.NoError(t, f.s.TogglePlay())
	require.NoError(t, f.audio.Seek(9*time.Second))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 7*time.Second, f.s.Snapshot().Position, "poll must stop while paused")
}

func TestSession_EndedThenRestart(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.s.Start(context.Background(), chapterText, "whimsical", "wise-sage"))
	f.waitState(t, StatePlaying)

	f.audio.finish()
	snap := f.waitState(t, StateEnded)
	assert.Equal(t, snap.Duration, snap.Position)

	require.NoError(t, f.s.TogglePlay())
	assert.Equal(t, StatePlaying, f.s.Snapshot().State)
	assert.Equal(t, 2, f.audio.state().loads)
}

func TestSession_FallbackOnRemoteFailure(t *testing.T) {
	f := newSessionFixture(t)
	f.synth.err = errors.New("quota exceeded")

	require.NoError(t, f.s.Start(context.Background(), chapterText, "whimsical", "wise-sage"))
	snap := f.waitState(t, StatePlaying)

	assert.Equal(t, KindSystem, snap.Backend)
	assert.True(t, snap.Fallback)
	assert.Equal(t, "Using system voice: quota exceeded", snap.Notice)
	assert.Equal(t, []string{StripMarkdown(chapterText)}, f.speech.spokenTexts())
	assert.Equal(t, "en-gb", f.speech.voice.Lang)
	assert.Zero(t, f.audio.state().loads)

	assert.ErrorIs(t, f.s.SkipForward(), ErrUnsupported)
	assert.ErrorIs(t, f.s.SkipBack(), ErrUnsupported)
	assert.ErrorIs(t, f.s.SetVolume(10), ErrUnsupported)
	assert.ErrorIs(t, f.s.SelectVoice("cheeky-bard"), ErrUnsupported)
	assert.ErrorIs(t, f.s.ToggleMusic(), ErrUnsupported)

	after := f.s.Snapshot()
	assert.Equal(t, DefaultVolume, after.Volume)
	assert.Equal(t, "wise-sage", after.Narrator)

	require.NoError(t, f.s.TogglePlay())
	assert.Equal(t, StatePaused, f.s.Snapshot().State)
	require.NoError(t, f.s.TogglePlay())
	assert.Equal(t, StatePlaying, f.s.Snapshot().State)
}

func TestSession_FallbackEngagesOncePerSession(t *testing.T) {
	f := newSessionFixture(t)
	f.synth.err = errors.New("network down")

	require.NoError(t, f.s.Start(context.Background(), chapterText, "whimsical", "wise-sage"))
	f.waitState(t, StatePlaying)

	require.NoError(t, f.s.Start(context.Background(), "A second chapter to read aloud.", "whimsical", "wise-sage"))
	snap := f.waitState(t, StatePlaying)

	assert.Equal(t, KindSystem, snap.Backend)
	assert.Len(t, f.synth.requests(), 1)
	assert.Len(t, f.speech.spokenTexts(), 2)
}

func TestSession_FallbackOnLoadFailure(t *testing.T) {
	f := newSessionFixture(t)
	f.audio.loadErr = errors.New("mpg123 not found")

	require.NoError(t, f.s.Start(context.Background(), chapterText, "whimsical", "wise-sage"))
	snap := f.waitState(t, StatePlaying)
	assert.Equal(t, KindSystem, snap.Backend)
	assert.Equal(t, "Using system voice: mpg123 not found", snap.Notice)
}

func TestSession_NothingToNarrate(t *testing.T) {
	f := newSessionFixture(t)

	err := f.s.Start(context.Background(), "# **Hi**", "whimsical", "wise-sage")
	require.ErrorIs(t, err, ErrNothingToNarrate)
	assert.Equal(t, StateIdle, f.s.Snapshot().State)
	assert.Empty(t, f.synth.requests())
	assert.Zero(t, f.rec.count())
}

func TestSession_LoadingIndicatorTimesOut(t *testing.T) {
	f := newSessionFixture(t)
	f.synth.gate = make(chan struct{})
	defer close(f.synth.gate)
	f.s.cfg.LoadingTimeout = 20 * time.Millisecond

	require.NoError(t, f.s.Start(context.Background(), chapterText, "whimsical", "wise-sage"))
	assert.True(t, f.s.Snapshot().Loading)

	require.Eventually(t, func() bool { return !f.s.Snapshot().Loading }, waitFor, tick)
	assert.Equal(t, StateLoading, f.s.Snapshot().State)
}

func TestSession_SelectVoiceResynthesizes(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.s.Start(context.Background(), chapterText, "whimsical", "wise-sage"))
	f.waitState(t, StatePlaying)

	require.NoError(t, f.s.SelectVoice("stoic-chronicler"))
	require.Eventually(t, func() bool { return len(f.synth.requests()) == 2 }, waitFor, tick)
	f.waitState(t, StatePlaying)

	assert.Equal(t, "stoic-chronicler", f.synth.requests()[1].Narrator)
	assert.Equal(t, "stoic-chronicler", f.s.Snapshot().Narrator)
	assert.Equal(t, 2, f.audio.state().loads)

	assert.Error(t, f.s.SelectVoice("pirate"))
}

func TestSession_CloseFromEveryState(t *testing.T) {
	t.Run("idle", func(t *testing.T) {
		f := newSessionFixture(t)
		f.assertSilentAfterClose(t)
	})

	t.Run("loading", func(t *testing.T) {
		f := newSessionFixture(t)
		f.synth.gate = make(chan struct{})
		require.NoError(t, f.s.Start(context.Background(), chapterText, "whimsical", "wise-sage"))
		assert.Equal(t, StateLoading, f.s.Snapshot().State)

		f.assertSilentAfterClose(t)

		// 关闭后才返回的合成结果被丢弃
		close(f.synth.gate)
		time.Sleep(30 * time.Millisecond)
		assert.Zero(t, f.audio.state().loads)
		assert.Empty(t, f.speech.spokenTexts())
		assert.Equal(t, StateIdle, f.s.Snapshot().State)
	})

	t.Run("playing", func(t *testing.T) {
		f := newSessionFixture(t)
		require.NoError(t, f.s.Start(context.Background(), chapterText, "whimsical", "wise-sage"))
		f.waitState(t, StatePlaying)
		require.NoError(t, f.s.ToggleMusic())

		f.assertSilentAfterClose(t)
		assert.True(t, f.audio.state().stopped)
		assert.False(t, f.music.isRunning())
	})

	t.Run("paused", func(t *testing.T) {
		f := newSessionFixture(t)
		require.NoError(t, f.s.Start(context.Background(), chapterText, "whimsical", "wise-sage"))
		f.waitState(t, StatePlaying)
		require.NoError(t, f.s.TogglePlay())

		f.assertSilentAfterClose(t)
		assert.True(t, f.audio.state().stopped)
	})

	t.Run("ended", func(t *testing.T) {
		f := newSessionFixture(t)
		require.NoError(t, f.s.Start(context.Background(), chapterText, "whimsical", "wise-sage"))
		f.waitState(t, StatePlaying)
		f.audio.finish()
		f.waitState(t, StateEnded)

		f.assertSilentAfterClose(t)
	})

	t.Run("fallback", func(t *testing.T) {
		f := newSessionFixture(t)
		f.synth.err = errors.New("quota exceeded")
		require.NoError(t, f.s.Start(context.Background(), chapterText, "whimsical", "wise-sage"))
		f.waitState(t, StatePlaying)

		f.assertSilentAfterClose(t)
		f.speech.mu.Lock()
		defer f.speech.mu.Unlock()
		assert.True(t, f.speech.cancelled)
	})
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.s.Start(context.Background(), chapterText, "whimsical", "wise-sage"))
	f.waitState(t, StatePlaying)

	require.NoError(t, f.s.Close())
	require.NoError(t, f.s.Close())

	assert.ErrorIs(t, f.s.Start(context.Background(), chapterText, "whimsical", "wise-sage"), ErrClosed)
	assert.ErrorIs(t, f.s.TogglePlay(), ErrClosed)
	assert.ErrorIs(t, f.s.SkipForward(), ErrClosed)
	assert.ErrorIs(t, f.s.SetVolume(10), ErrClosed)
}

func TestSession_ContextCancelCloses(t *testing.T) {
	f := newSessionFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, f.s.Start(ctx, chapterText, "whimsical", "wise-sage"))
	f.waitState(t, StatePlaying)

	cancel()
	require.Eventually(t, func() bool {
		return errors.Is(f.s.TogglePlay(), ErrClosed)
	}, waitFor, tick)
	assert.Equal(t, StateIdle, f.s.Snapshot().State)
	assert.True(t, f.audio.state().stopped)
}

func TestWithSession_ClosesOnEveryExit(t *testing.T) {
	audio := &fakeAudio{dur: time.Minute}
	cfg := Config{Synthesizer: &fakeSynth{audio: []byte("mp3")}, Audio: audio}

	var captured *Session
	boom := errors.New("boom")
	err := WithSession(context.Background(), cfg, func(ctx context.Context, s *Session) error {
		captured = s
		require.NoError(t, s.Start(ctx, chapterText, "whimsical", "wise-sage"))
		require.Eventually(t, func() bool { return s.Snapshot().State == StatePlaying }, waitFor, tick)
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.ErrorIs(t, captured.TogglePlay(), ErrClosed)
	assert.True(t, audio.state().stopped)
}

func TestSession_NoSpeechDeviceGoesIdleWithNotice(t *testing.T) {
	rec := &recorder{}
	s := NewSession(Config{
		Synthesizer: &fakeSynth{err: errors.New("401 unauthorized")},
		Audio:       &fakeAudio{},
		Listener:    rec.listen,
	})
	defer s.Close()

	require.NoError(t, s.Start(context.Background(), chapterText, "whimsical", "wise-sage"))
	require.Eventually(t, func() bool { return s.Snapshot().Notice != "" }, waitFor, tick)

	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.False(t, snap.Fallback)
	assert.Equal(t, "Narration unavailable: 401 unauthorized", snap.Notice)
}
