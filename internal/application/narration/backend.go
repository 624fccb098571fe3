package narration

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrUnsupported 当前后端不具备该能力
var ErrUnsupported = errors.New("narration: operation not supported by active backend")

// Kind 播放后端类型
type Kind string

const (
	KindNone   Kind = ""
	KindRemote Kind = "remote"
	KindSystem Kind = "system"
)

// Backend 两种后端共有的播放能力
//
// Done 在当前内容播放完毕时关闭；Play 在播放结束后调用会从头开始。
type Backend interface {
	Play(ctx context.Context) error
	Pause() error
	Cancel() error
	Kind() Kind
	Done() <-chan struct{}
}

// Seeker 可定位、可报告进度的后端
type Seeker interface {
	Seek(pos time.Duration) error
	Position() time.Duration
	Duration() time.Duration
}

// VolumeControl 可调音量的后端，音量范围 0-100
type VolumeControl interface {
	SetVolume(percent int) error
}

// Synthesizer 远端语音合成
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// AudioDevice 播放远端合成音频的输出设备
//
// Load 载入音频并从头开始播放；Done 返回当前音轨的结束信号。
type AudioDevice interface {
	Load(ctx context.Context, audio []byte) error
	Resume() error
	Pause() error
	Stop() error
	Seek(pos time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	SetVolume(percent int) error
	Done() <-chan struct{}
}

// SpeechDevice 平台内置语音合成器，只支持开始、暂停、继续、取消
type SpeechDevice interface {
	Voices() []Voice
	Speak(ctx context.Context, text string, voice Voice) error
	Pause() error
	Resume() error
	Cancel() error
	Done() <-chan struct{}
}

// MusicPlayer 背景音乐
type MusicPlayer interface {
	Start(ctx context.Context) error
	Stop() error
}

// remoteBackend 远端合成音频，支持定位与音量
type remoteBackend struct {
	mu      sync.Mutex
	device  AudioDevice
	audio   []byte
	started bool
}

func newRemoteBackend(device AudioDevice, audio []byte) *remoteBackend {
	return &remoteBackend{device: device, audio: audio}
}

func (b *remoteBackend) Play(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started || isClosed(b.device.Done()) {
		b.started = true
		return b.device.Load(ctx, b.audio)
	}
	return b.device.Resume()
}

func (b *remoteBackend) Pause() error  { return b.device.Pause() }
func (b *remoteBackend) Cancel() error { return b.device.Stop() }
func (b *remoteBackend) Kind() Kind    { return KindRemote }

func (b *remoteBackend) Done() <-chan struct{} { return b.device.Done() }

func (b *remoteBackend) Seek(pos time.Duration) error { return b.device.Seek(pos) }
func (b *remoteBackend) Position() time.Duration      { return b.device.Position() }
func (b *remoteBackend) Duration() time.Duration      { return b.device.Duration() }

func (b *remoteBackend) SetVolume(percent int) error { return b.device.SetVolume(percent) }

// systemBackend 内置语音合成，无定位与音量能力
type systemBackend struct {
	mu      sync.Mutex
	device  SpeechDevice
	text    string
	voice   Voice
	started bool
}

func newSystemBackend(device SpeechDevice, text string, voice Voice) *systemBackend {
	return &systemBackend{device: device, text: text, voice: voice}
}

func (b *systemBackend) Play(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started || isClosed(b.device.Done()) {
		b.started = true
		return b.device.Speak(ctx, b.text, b.voice)
	}
	return b.device.Resume()
}

func (b *systemBackend) Pause() error          { return b.device.Pause() }
func (b *systemBackend) Cancel() error         { return b.device.Cancel() }
func (b *systemBackend) Kind() Kind            { return KindSystem }
func (b *systemBackend) Done() <-chan struct{} { return b.device.Done() }

func isClosed(ch <-chan struct{}) bool {
	if ch == nil {
		return false
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
