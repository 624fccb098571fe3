package narration

import (
	"context"
	"sync"
	"time"
)

type fakeAudio struct {
	mu      sync.Mutex
	loads   int
	loaded  []byte
	paused  bool
	stopped bool
	pos     time.Duration
	dur     time.Duration
	volume  int
	done    chan struct{}
	loadErr error
}

func (a *fakeAudio) Load(_ context.Context, audio []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loadErr != nil {
		return a.loadErr
	}
	a.loads++
	a.loaded = audio
	a.paused = false
	a.stopped = false
	a.pos = 0
	a.done = make(chan struct{})
	return nil
}

func (a *fakeAudio) Resume() error { a.set(func() { a.paused = false }); return nil }
func (a *fakeAudio) Pause() error  { a.set(func() { a.paused = true }); return nil }
func (a *fakeAudio) Stop() error   { a.set(func() { a.stopped = true }); return nil }

func (a *fakeAudio) Seek(pos time.Duration) error { a.set(func() { a.pos = pos }); return nil }

func (a *fakeAudio) Position() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pos
}

func (a *fakeAudio) Duration() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dur
}

func (a *fakeAudio) SetVolume(percent int) error { a.set(func() { a.volume = percent }); return nil }

func (a *fakeAudio) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

func (a *fakeAudio) finish() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pos = a.dur
	close(a.done)
}

func (a *fakeAudio) set(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn()
}

type audioState struct {
	loads   int
	loaded  []byte
	paused  bool
	stopped bool
	volume  int
	pos     time.Duration
}

func (a *fakeAudio) state() audioState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return audioState{loads: a.loads, loaded: a.loaded, paused: a.paused, stopped: a.stopped, volume: a.volume, pos: a.pos}
}

type fakeSpeech struct {
	mu        sync.Mutex
	voices    []Voice
	spoken    []string
	voice     Voice
	paused    bool
	cancelled bool
	done      chan struct{}
}

func (s *fakeSpeech) Voices() []Voice { return s.voices }

func (s *fakeSpeech) Speak(_ context.Context, text string, voice Voice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	s.voice = voice
	s.done = make(chan struct{})
	return nil
}

func (s *fakeSpeech) Pause() error  { s.set(func() { s.paused = true }); return nil }
func (s *fakeSpeech) Resume() error { s.set(func() { s.paused = false }); return nil }
func (s *fakeSpeech) Cancel() error { s.set(func() { s.cancelled = true }); return nil }

func (s *fakeSpeech) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *fakeSpeech) set(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *fakeSpeech) spokenTexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

type fakeSynth struct {
	mu    sync.Mutex
	calls []Request
	audio []byte
	err   error
	gate  chan struct{}
}

func (f *fakeSynth) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	gate, audio, err := f.gate, f.audio, f.err
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return audio, err
}

func (f *fakeSynth) requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.calls...)
}

type fakeMusic struct {
	mu      sync.Mutex
	running bool
}

func (m *fakeMusic) Start(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
	return nil
}

func (m *fakeMusic) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	return nil
}

func (m *fakeMusic) isRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// recorder 记录监听回调
type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) listen(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}
