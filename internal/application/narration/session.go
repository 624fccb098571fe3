package narration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"odyscribe-api/internal/domain/entity"
	"odyscribe-api/pkg/logger"
	"odyscribe-api/pkg/metrics"
)

// State 播放状态
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateEnded   State = "ended"
)

const (
	DefaultPollInterval   = 100 * time.Millisecond
	DefaultLoadingTimeout = 5 * time.Second
	SkipStep              = 15 * time.Second
	DefaultVolume         = 75
)

var (
	ErrClosed           = errors.New("narration: session closed")
	ErrNothingToNarrate = errors.New("narration: nothing to narrate")
	ErrNotReady         = errors.New("narration: nothing is playing")
)

// Snapshot 会话状态快照
type Snapshot struct {
	State    State
	Backend  Kind
	Loading  bool
	Position time.Duration
	Duration time.Duration
	Volume   int
	Narrator string
	Music    bool
	Fallback bool
	Notice   string
}

// Listener 接收状态变化。回调在会话的内部 goroutine 上执行，
// 不得同步调用 Close。
type Listener func(Snapshot)

// Config 会话依赖
type Config struct {
	Synthesizer    Synthesizer
	Audio          AudioDevice
	Speech         SpeechDevice
	Music          MusicPlayer
	Listener       Listener
	PollInterval   time.Duration
	LoadingTimeout time.Duration
}

// Session 一次朗读会话
//
// 会话优先使用远端合成，失败后整个会话改用系统语音（只切换一次）。
// Close 可在任意状态、任意次数调用，返回后不会再有 Listener 回调。
type Session struct {
	cfg Config

	emitMu sync.Mutex
	mu     sync.Mutex

	closed   bool
	active   bool
	gen      uint64
	state    State
	backend  Backend
	loading  bool
	fallback bool
	notice   string
	volume   int
	position time.Duration
	duration time.Duration
	music    bool

	text     string
	tone     string
	narrator string

	runCtx     context.Context
	cancelRun  context.CancelFunc
	stopParent func() bool
	cancelLoad context.CancelFunc
	loadTimer  *time.Timer
	pollStop   chan struct{}
	watchStop  chan struct{}
}

// NewSession 创建空闲会话
func NewSession(cfg Config) *Session {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.LoadingTimeout <= 0 {
		cfg.LoadingTimeout = DefaultLoadingTimeout
	}
	return &Session{
		cfg:      cfg,
		state:    StateIdle,
		volume:   DefaultVolume,
		narrator: string(defaultNarrator),
	}
}

// WithSession 创建会话并保证 fn 返回后关闭
func WithSession(ctx context.Context, cfg Config, fn func(ctx context.Context, s *Session) error) (err error) {
	s := NewSession(cfg)
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(ctx, s)
}

// Start 清洗文本并开始朗读。文本过短时返回 ErrNothingToNarrate，会话不变。
// ctx 被取消时会话自动关闭。
func (s *Session) Start(ctx context.Context, text, tone, narrator string) error {
	plain := StripMarkdown(text)
	if !IsNarratable(plain) {
		return ErrNothingToNarrate
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.teardownLocked()

	s.active = true
	s.text, s.tone = plain, tone
	if narrator != "" {
		s.narrator = narrator
	}
	s.runCtx, s.cancelRun = context.WithCancel(ctx)
	s.stopParent = context.AfterFunc(ctx, func() { _ = s.Close() })

	gen, loadCtx := s.beginLoadingLocked()
	if s.fallback {
		s.startSystemLocked(gen)
		s.mu.Unlock()
		s.emit()
		return nil
	}
	req := Request{Text: s.text, Tone: s.tone, Narrator: s.narrator}
	s.mu.Unlock()

	s.emit()
	go s.synthesize(loadCtx, gen, req)
	return nil
}

// TogglePlay 播放/暂停；播放结束后再次调用从头开始
func (s *Session) TogglePlay() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}

	var err error
	switch s.state {
	case StatePlaying:
		if err = s.backend.Pause(); err == nil {
			s.state = StatePaused
			s.stopPollLocked()
		}
	case StatePaused:
		if err = s.backend.Play(s.runCtx); err == nil {
			s.state = StatePlaying
			s.startPollLocked(s.gen)
		}
	case StateEnded:
		if err = s.backend.Play(s.runCtx); err == nil {
			s.position = 0
			s.state = StatePlaying
			s.watchLocked(s.gen)
		}
	default:
		err = ErrNotReady
	}
	s.mu.Unlock()

	if err == nil {
		s.emit()
	}
	return err
}

// SkipBack 后退一个步长
func (s *Session) SkipBack() error { return s.skip(-SkipStep) }

// SkipForward 前进一个步长
func (s *Session) SkipForward() error { return s.skip(SkipStep) }

func (s *Session) skip(delta time.Duration) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.backend == nil {
		s.mu.Unlock()
		return ErrNotReady
	}
	sk, ok := s.backend.(Seeker)
	if !ok {
		s.mu.Unlock()
		return ErrUnsupported
	}

	pos := sk.Position() + delta
	if dur := sk.Duration(); dur > 0 && pos > dur {
		pos = dur
	}
	if pos < 0 {
		pos = 0
	}
	if err := sk.Seek(pos); err != nil {
		s.mu.Unlock()
		return err
	}
	s.position = pos
	s.mu.Unlock()

	s.emit()
	return nil
}

// SetVolume 设置音量，范围 0-100
func (s *Session) SetVolume(percent int) error {
	percent = min(max(percent, 0), 100)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.fallback {
		s.mu.Unlock()
		return ErrUnsupported
	}
	if s.backend != nil {
		vc, ok := s.backend.(VolumeControl)
		if !ok {
			s.mu.Unlock()
			return ErrUnsupported
		}
		if err := vc.SetVolume(percent); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.volume = percent
	s.mu.Unlock()

	s.emit()
	return nil
}

// SelectVoice 切换叙述者并重新合成，系统语音模式下不可用
func (s *Session) SelectVoice(narrator string) error {
	if !entity.Narrator(narrator).IsValid() {
		return fmt.Errorf("narration: unknown narrator %q", narrator)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.fallback {
		s.mu.Unlock()
		return ErrUnsupported
	}
	if narrator == s.narrator {
		s.mu.Unlock()
		return nil
	}
	s.narrator = narrator
	if !s.active {
		s.mu.Unlock()
		s.emit()
		return nil
	}

	s.stopPlaybackLocked()
	gen, loadCtx := s.beginLoadingLocked()
	req := Request{Text: s.text, Tone: s.tone, Narrator: s.narrator}
	s.mu.Unlock()

	s.emit()
	go s.synthesize(loadCtx, gen, req)
	return nil
}

// ToggleMusic 开关背景音乐，系统语音模式下不可用
func (s *Session) ToggleMusic() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.fallback || s.cfg.Music == nil {
		s.mu.Unlock()
		return ErrUnsupported
	}

	var err error
	if s.music {
		err = s.cfg.Music.Stop()
		s.music = false
	} else {
		ctx := s.runCtx
		if ctx == nil {
			ctx = context.Background()
		}
		if err = s.cfg.Music.Start(ctx); err == nil {
			s.music = true
		}
	}
	s.mu.Unlock()

	s.emit()
	return err
}

// Snapshot 当前状态
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close 取消合成与播放，停止轮询和计时器，回到 Idle。可重复调用。
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	err := s.teardownLocked()
	s.mu.Unlock()

	// 等待进行中的回调结束
	s.emitMu.Lock()
	s.emitMu.Unlock()
	return err
}

func (s *Session) synthesize(ctx context.Context, gen uint64, req Request) {
	var (
		audio []byte
		err   error
	)
	if s.cfg.Synthesizer == nil || s.cfg.Audio == nil {
		err = errors.New("remote narration is not configured")
	} else {
		audio, err = s.cfg.Synthesizer.Synthesize(ctx, req)
		if err == nil && len(audio) == 0 {
			err = errors.New("empty audio response")
		}
	}

	s.mu.Lock()
	if !s.currentLocked(gen) {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.engageFallbackLocked(gen, err)
	} else {
		s.playLocked(gen, newRemoteBackend(s.cfg.Audio, audio))
	}
	s.mu.Unlock()

	s.emit()
}

func (s *Session) engageFallbackLocked(gen uint64, cause error) {
	logger.Warn(s.runCtx, "remote narration failed, using system voice",
		"narrator", s.narrator, "error", cause.Error())

	if s.cfg.Speech == nil {
		s.stopLoadingLocked()
		s.backend = nil
		s.state = StateIdle
		s.notice = "Narration unavailable: " + cause.Error()
		return
	}

	s.fallback = true
	s.notice = "Using system voice: " + cause.Error()
	metrics.PlaybackFallbackTotal.WithLabelValues(s.narrator).Inc()
	if s.music && s.cfg.Music != nil {
		_ = s.cfg.Music.Stop()
		s.music = false
	}
	s.startSystemLocked(gen)
}

func (s *Session) startSystemLocked(gen uint64) {
	voice, _ := PickSystemVoice(s.cfg.Speech.Voices(), s.narrator)
	s.playLocked(gen, newSystemBackend(s.cfg.Speech, s.text, voice))
}

func (s *Session) playLocked(gen uint64, b Backend) {
	s.stopLoadingLocked()
	s.backend = b

	if err := b.Play(s.runCtx); err != nil {
		s.backend = nil
		if b.Kind() == KindRemote && !s.fallback {
			s.engageFallbackLocked(gen, err)
			return
		}
		s.state = StateIdle
		s.notice = "Playback failed: " + err.Error()
		return
	}
	if vc, ok := b.(VolumeControl); ok {
		_ = vc.SetVolume(s.volume)
	}
	s.position, s.duration = 0, 0
	s.state = StatePlaying
	s.watchLocked(gen)
}

// watchLocked 监听播放结束并在 Playing 时轮询进度
func (s *Session) watchLocked(gen uint64) {
	s.stopWatchLocked()
	stop := make(chan struct{})
	s.watchStop = stop
	b := s.backend
	done := b.Done()
	go func() {
		select {
		case <-done:
			s.onEnded(gen, b)
		case <-stop:
		}
	}()
	s.startPollLocked(gen)
}

func (s *Session) startPollLocked(gen uint64) {
	s.stopPollLocked()
	sk, ok := s.backend.(Seeker)
	if !ok {
		return
	}
	stop := make(chan struct{})
	s.pollStop = stop
	interval := s.cfg.PollInterval
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
			}
			s.mu.Lock()
			if !s.currentLocked(gen) || s.state != StatePlaying {
				s.mu.Unlock()
				return
			}
			s.position, s.duration = sk.Position(), sk.Duration()
			s.mu.Unlock()
			s.emit()
		}
	}()
}

func (s *Session) onEnded(gen uint64, b Backend) {
	s.mu.Lock()
	if !s.currentLocked(gen) || s.backend != b || s.state == StateEnded {
		s.mu.Unlock()
		return
	}
	if sk, ok := b.(Seeker); ok {
		s.duration = sk.Duration()
		s.position = s.duration
	}
	s.state = StateEnded
	s.stopPollLocked()
	s.mu.Unlock()

	s.emit()
}

func (s *Session) beginLoadingLocked() (uint64, context.Context) {
	s.gen++
	gen := s.gen
	s.state = StateLoading
	s.loading = true
	s.loadTimer = time.AfterFunc(s.cfg.LoadingTimeout, func() {
		s.mu.Lock()
		if !s.currentLocked(gen) || !s.loading {
			s.mu.Unlock()
			return
		}
		s.loading = false
		s.mu.Unlock()
		s.emit()
	})

	var loadCtx context.Context
	loadCtx, s.cancelLoad = context.WithCancel(s.runCtx)
	return gen, loadCtx
}

func (s *Session) stopLoadingLocked() {
	s.loading = false
	if s.loadTimer != nil {
		s.loadTimer.Stop()
		s.loadTimer = nil
	}
}

func (s *Session) stopPollLocked() {
	if s.pollStop != nil {
		close(s.pollStop)
		s.pollStop = nil
	}
}

func (s *Session) stopWatchLocked() {
	if s.watchStop != nil {
		close(s.watchStop)
		s.watchStop = nil
	}
}

// stopPlaybackLocked 停止当前合成与播放，保留会话上下文
func (s *Session) stopPlaybackLocked() error {
	s.gen++
	s.stopLoadingLocked()
	s.stopPollLocked()
	s.stopWatchLocked()
	if s.cancelLoad != nil {
		s.cancelLoad()
		s.cancelLoad = nil
	}
	var err error
	if s.backend != nil {
		err = s.backend.Cancel()
		s.backend = nil
	}
	s.state = StateIdle
	s.position, s.duration = 0, 0
	return err
}

func (s *Session) teardownLocked() error {
	errs := []error{s.stopPlaybackLocked()}
	if s.music && s.cfg.Music != nil {
		errs = append(errs, s.cfg.Music.Stop())
		s.music = false
	}
	if s.stopParent != nil {
		s.stopParent()
		s.stopParent = nil
	}
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
	s.active = false
	return errors.Join(errs...)
}

func (s *Session) currentLocked(gen uint64) bool {
	return s.active && !s.closed && s.gen == gen
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:    s.state,
		Loading:  s.loading,
		Position: s.position,
		Duration: s.duration,
		Volume:   s.volume,
		Narrator: s.narrator,
		Music:    s.music,
		Fallback: s.fallback,
		Notice:   s.notice,
	}
	if s.backend != nil {
		snap.Backend = s.backend.Kind()
	}
	return snap
}

func (s *Session) emit() {
	if s.cfg.Listener == nil {
		return
	}
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.cfg.Listener(snap)
}
