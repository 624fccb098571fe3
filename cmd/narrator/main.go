// Package main 终端章节朗读器
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"odyscribe-api/internal/application/narration"
	"odyscribe-api/internal/infrastructure/audio"
	"odyscribe-api/internal/interfaces/apiclient"
	"odyscribe-api/internal/interfaces/http/dto"
	"odyscribe-api/internal/interfaces/tui"
	"odyscribe-api/pkg/logger"
)

type cli struct {
	API     string        `help:"Odyscribe API base URL." default:"http://localhost:8080" env:"ODYSCRIBE_API"`
	Token   string        `help:"Bearer token for the API." env:"ODYSCRIBE_TOKEN" required:""`
	Chapter string        `help:"Chapter ID to narrate. A picker is shown when empty."`
	Timeout time.Duration `help:"Request timeout for API calls." default:"60s"`
	Mpg123  string        `help:"mpg123 binary used for synthesized audio." default:"mpg123"`
	Espeak  string        `help:"espeak binary used for the system voice." default:"espeak-ng"`
	Music   string        `help:"Optional background music file." type:"existingfile"`
	LogFile string        `help:"Log file path." default:"~/.odyscribe/narrator.log" type:"path"`
	Debug   bool          `help:"Verbose logging."`
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("narrator"),
		kong.Description("Listen to your Odyscribe chapters in the terminal."),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(run(&c))
}

func run(c *cli) error {
	if err := initLogging(c.LogFile, c.Debug); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := apiclient.New(c.API, c.Token, c.Timeout)

	id := c.Chapter
	if id == "" {
		picked, err := pickChapter(ctx, client)
		if err != nil {
			return err
		}
		id = picked
	}

	ch, err := client.Chapter(ctx, id)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return fmt.Errorf("the API rejected the token, mint a new one with bootstrap token")
		}
		return fmt.Errorf("failed to load chapter: %w", err)
	}

	updates := make(chan narration.Snapshot, 1)
	cfg := narration.Config{
		Synthesizer: client,
		Audio:       audio.NewPlayer(c.Mpg123),
		Speech:      audio.NewSpeech(c.Espeak),
		Listener:    tui.Listener(updates),
	}
	if c.Music != "" {
		cfg.Music = audio.NewMusic(c.Mpg123, c.Music)
	}

	return narration.WithSession(ctx, cfg, func(ctx context.Context, s *narration.Session) error {
		if err := s.Start(ctx, ch.Content, ch.StoryTone, ch.Narrator); err != nil {
			if errors.Is(err, narration.ErrNothingToNarrate) {
				return fmt.Errorf("chapter %q has nothing to narrate yet", ch.Title)
			}
			return err
		}
		logger.Info(ctx, "narration started", "chapter_id", ch.ID, "narrator", ch.Narrator)

		p := tea.NewProgram(tui.New(ch.Title, s, updates), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("narrator ui: %w", err)
		}
		return nil
	})
}

// initLogging 日志写入滚动文件，避免干扰终端界面
func initLogging(path string, debug bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	handler := log.NewWithOptions(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}, log.Options{
		ReportTimestamp: true,
		ReportCaller:    debug,
		Level:           level,
		Prefix:          "narrator",
	})
	logger.InitWithHandler(handler)
	return nil
}

func pickChapter(ctx context.Context, client *apiclient.Client) (string, error) {
	chapters, err := client.Chapters(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list chapters: %w", err)
	}
	if len(chapters) == 0 {
		return "", errors.New("no chapters yet, generate one first")
	}

	options := make([]huh.Option[string], 0, len(chapters))
	for _, ch := range chapters {
		options = append(options, huh.NewOption(chapterLabel(ch), ch.ID))
	}

	var id string
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which chapter should be read aloud?").
				Options(options...).
				Value(&id),
		),
	).RunWithContext(ctx)
	if err != nil {
		return "", err
	}
	return id, nil
}

func chapterLabel(ch *dto.ChapterResponse) string {
	title := ch.Title
	if title == "" {
		title = "Untitled chapter"
	}
	if day, err := time.Parse(time.RFC3339, ch.CreatedAt); err == nil {
		return fmt.Sprintf("%s · %s · %s", day.Format("Jan 2"), title, ch.Narrator)
	}
	return fmt.Sprintf("%s · %s", title, ch.Narrator)
}
