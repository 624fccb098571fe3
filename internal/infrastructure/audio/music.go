package audio

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
)

// Music 循环播放背景音乐的 mpg123 进程
type Music struct {
	bin  string
	file string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewMusic 创建背景音乐播放器，file 为空时 Start 报错
func NewMusic(bin, file string) *Music {
	if bin == "" {
		bin = DefaultMPG123
	}
	return &Music{bin: bin, file: file}
}

// Start 开始循环播放
func (m *Music) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cmd != nil {
		return nil
	}
	if m.file == "" {
		return fmt.Errorf("audio: no background music file configured")
	}

	cmd := exec.CommandContext(ctx, m.bin, "--quiet", "--loop", "-1", "--scale", "8000", m.file)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", m.bin, err)
	}
	m.cmd = cmd
	go func() { _ = cmd.Wait() }()
	return nil
}

// Stop 停止背景音乐
func (m *Music) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cmd == nil {
		return nil
	}
	err := m.cmd.Process.Kill()
	m.cmd = nil
	return err
}
