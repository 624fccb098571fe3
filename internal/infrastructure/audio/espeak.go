package audio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"odyscribe-api/internal/application/narration"
)

// DefaultESpeak 默认的 espeak-ng 可执行文件
const DefaultESpeak = "espeak-ng"

// Speech 以 espeak-ng 进程实现的系统语音，暂停/继续通过挂起进程完成
type Speech struct {
	bin string

	voicesOnce sync.Once
	voices     []narration.Voice

	mu     sync.Mutex
	cmd    *exec.Cmd
	done   chan struct{}
	paused bool
}

// NewSpeech 创建 espeak-ng 语音设备
func NewSpeech(bin string) *Speech {
	if bin == "" {
		bin = DefaultESpeak
	}
	return &Speech{bin: bin}
}

// Voices 列出已安装的声音，首次调用时读取 --voices
func (s *Speech) Voices() []narration.Voice {
	s.voicesOnce.Do(func() {
		out, err := exec.Command(s.bin, "--voices").Output()
		if err != nil {
			return
		}
		s.voices = parseVoices(out)
	})
	return s.voices
}

// Speak 开始朗读，立即返回
func (s *Speech) Speak(ctx context.Context, text string, voice narration.Voice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	args := []string{"--stdin"}
	if voice.Lang != "" {
		args = append(args, "-v", voice.Lang)
	}
	cmd := exec.CommandContext(ctx, s.bin, args...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.bin, err)
	}

	done := make(chan struct{})
	s.cmd, s.done, s.paused = cmd, done, false
	go func() {
		_ = cmd.Wait()
		close(done)
	}()
	return nil
}

// Pause 挂起朗读进程
func (s *Speech) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.paused {
		return nil
	}
	if err := suspend(s.cmd.Process); err != nil {
		return err
	}
	s.paused = true
	return nil
}

// Resume 继续朗读
func (s *Speech) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || !s.paused {
		return nil
	}
	if err := resume(s.cmd.Process); err != nil {
		return err
	}
	s.paused = false
	return nil
}

// Cancel 终止朗读
func (s *Speech) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return nil
}

// Done 当前朗读的结束信号
func (s *Speech) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *Speech) stopLocked() {
	if s.cmd == nil {
		return
	}
	if s.paused {
		_ = resume(s.cmd.Process)
	}
	_ = s.cmd.Process.Kill()
	s.cmd = nil
	s.paused = false
}

// parseVoices 解析 espeak-ng --voices 输出
//
//	Pty Language       Age/Gender VoiceName          File        Other Languages
//	 5  en-gb           M  English_(Great_Britain) gmw/en      (en 2)
func parseVoices(out []byte) []narration.Voice {
	var voices []narration.Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		lang := fields[1]
		name := strings.ReplaceAll(fields[3], "_", " ")
		voices = append(voices, narration.Voice{
			Name:    name,
			Lang:    lang,
			Default: lang == "en",
		})
	}
	return voices
}
