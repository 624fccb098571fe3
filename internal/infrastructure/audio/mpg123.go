// Package audio 提供朗读命令行使用的本地播放设备
package audio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultMPG123 默认的 mpg123 可执行文件
const DefaultMPG123 = "mpg123"

// DefaultLoadTimeout 等待 mpg123 确认 LOAD 的最长时间
const DefaultLoadTimeout = 5 * time.Second

// ErrNotStarted 播放进程未启动
var ErrNotStarted = errors.New("audio: player not started")

// Player 通过 mpg123 远程控制模式（-R）播放音频
//
// 进程在第一次 Load 时启动，之后复用；进度来自 @F 帧报告，@P 0 表示播放结束。
// Load 等到首个 @F 才返回，@E 或进程退出时返回错误。
type Player struct {
	bin         string
	loadTimeout time.Duration

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	exited  chan struct{}
	file    string
	pos     time.Duration
	dur     time.Duration
	paused  bool
	done    chan struct{}
	loading bool
	ready   chan error
}

// NewPlayer 创建 mpg123 播放器
func NewPlayer(bin string) *Player {
	if bin == "" {
		bin = DefaultMPG123
	}
	return &Player{bin: bin, loadTimeout: DefaultLoadTimeout}
}

// Load 写入临时文件并从头播放
func (p *Player) Load(ctx context.Context, audio []byte) error {
	ready, err := p.startLoad(audio)
	if err != nil {
		return err
	}

	timer := time.NewTimer(p.loadTimeout)
	defer timer.Stop()
	select {
	case err := <-ready:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("mpg123: no playback within %s", p.loadTimeout)
	}
}

func (p *Player) startLoad(audio []byte) (chan error, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureStartedLocked(); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp("", "odyscribe-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("create audio file: %w", err)
	}
	if _, err := f.Write(audio); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("close audio file: %w", err)
	}

	p.removeFileLocked()
	p.file = f.Name()
	p.pos, p.dur = 0, 0
	p.paused = false
	p.done = make(chan struct{})
	// LOAD 会先上报上一首的 @P 0，忽略到首个 @F 为止
	p.loading = true
	ready := make(chan error, 1)
	p.ready = ready
	if err := p.sendLocked("LOAD " + p.file); err != nil {
		p.ready = nil
		return nil, err
	}
	return ready, nil
}

// Resume 继续播放
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		return nil
	}
	if err := p.sendLocked("PAUSE"); err != nil {
		return err
	}
	p.paused = false
	return nil
}

// Pause 暂停
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		return nil
	}
	if err := p.sendLocked("PAUSE"); err != nil {
		return err
	}
	p.paused = true
	return nil
}

// Stop 结束播放并退出进程
func (p *Player) Stop() error {
	p.mu.Lock()
	if p.cmd == nil {
		p.mu.Unlock()
		return nil
	}
	_ = p.sendLocked("QUIT")
	_ = p.stdin.Close()
	cmd, exited := p.cmd, p.exited
	p.cmd, p.stdin, p.exited = nil, nil, nil
	p.removeFileLocked()
	p.mu.Unlock()

	select {
	case <-exited:
	case <-time.After(time.Second):
		_ = cmd.Process.Kill()
		<-exited
	}
	return nil
}

// Seek 跳到绝对位置
func (p *Player) Seek(pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.sendLocked(fmt.Sprintf("JUMP %.2fs", pos.Seconds())); err != nil {
		return err
	}
	p.pos = pos
	return nil
}

// Position 当前播放位置
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}

// Duration 当前音轨总时长
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dur
}

// SetVolume 设置音量 0-100
func (p *Player) SetVolume(percent int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sendLocked("VOLUME " + strconv.Itoa(percent))
}

// Done 当前音轨的结束信号
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

func (p *Player) ensureStartedLocked() error {
	if p.cmd != nil {
		return nil
	}

	cmd := exec.Command(p.bin, "-R")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("mpg123 stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("mpg123 stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.bin, err)
	}

	exited := make(chan struct{})
	p.cmd, p.stdin, p.exited = cmd, stdin, exited
	go func() {
		p.readLoop(cmd, stdout)
		_ = cmd.Wait()
		close(exited)

		// 进程意外退出时结束当前音轨，下次 Load 重新启动
		p.mu.Lock()
		if p.cmd == cmd {
			p.settleLoadLocked(errors.New("mpg123: process exited"))
			p.finishLocked()
			p.cmd, p.stdin, p.exited = nil, nil, nil
		}
		p.mu.Unlock()
	}()
	return nil
}

func (p *Player) readLoop(cmd *exec.Cmd, r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		ev, ok := parseEvent(sc.Text())
		if !ok {
			continue
		}
		p.mu.Lock()
		if p.cmd != cmd {
			p.mu.Unlock()
			continue
		}
		switch ev.kind {
		case eventFrame:
			p.loading = false
			p.settleLoadLocked(nil)
			p.pos = ev.elapsed
			p.dur = ev.elapsed + ev.remaining
		case eventError:
			// 打开失败后的 @P 0 仍处于 loading，会被忽略
			if p.loading {
				p.settleLoadLocked(fmt.Errorf("mpg123: %s", ev.message))
			}
		case eventStopped:
			if !p.loading {
				p.finishLocked()
			}
		}
		p.mu.Unlock()
	}
}

func (p *Player) settleLoadLocked(err error) {
	if p.ready == nil {
		return
	}
	p.ready <- err
	p.ready = nil
}

func (p *Player) finishLocked() {
	if p.done == nil {
		return
	}
	select {
	case <-p.done:
	default:
		p.pos = p.dur
		close(p.done)
	}
}

func (p *Player) sendLocked(command string) error {
	if p.stdin == nil {
		return ErrNotStarted
	}
	_, err := io.WriteString(p.stdin, command+"\n")
	return err
}

func (p *Player) removeFileLocked() {
	if p.file != "" {
		os.Remove(p.file)
		p.file = ""
	}
}

type eventKind int

const (
	eventFrame eventKind = iota + 1
	eventStopped
	eventError
)

type event struct {
	kind      eventKind
	elapsed   time.Duration
	remaining time.Duration
	message   string
}

// parseEvent 解析 mpg123 远程控制输出行
//
//	@F <frame> <frames-left> <seconds> <seconds-left>
//	@P 0|1|2
//	@E <message>
func parseEvent(line string) (event, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return event{}, false
	}
	switch fields[0] {
	case "@F":
		if len(fields) < 5 {
			return event{}, false
		}
		elapsed, err1 := strconv.ParseFloat(fields[3], 64)
		remaining, err2 := strconv.ParseFloat(fields[4], 64)
		if err1 != nil || err2 != nil {
			return event{}, false
		}
		return event{kind: eventFrame, elapsed: seconds(elapsed), remaining: seconds(remaining)}, true
	case "@P":
		if len(fields) == 2 && fields[1] == "0" {
			return event{kind: eventStopped}, true
		}
	case "@E":
		msg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "@E"))
		if msg == "" {
			msg = "unknown error"
		}
		return event{kind: eventError, message: msg}, true
	}
	return event{}, false
}

func seconds(f float64) time.Duration {
	if f < 0 {
		f = 0
	}
	return time.Duration(f * float64(time.Second))
}
