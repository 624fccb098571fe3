// Package tts 提供远端语音合成客户端
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"odyscribe-api/internal/application/narration"
	"odyscribe-api/internal/config"
	"odyscribe-api/pkg/logger"
	"odyscribe-api/pkg/metrics"
)

const (
	providerName   = "elevenlabs"
	defaultBaseURL = "https://api.elevenlabs.io/v1"
	defaultModelID = "eleven_monolingual_v1"
	// errorBodyLimit 失败时记录的响应体长度上限
	errorBodyLimit = 512
	// maxAudioBytes 单次合成音频上限
	maxAudioBytes = 32 << 20
)

var (
	// ErrEmptyAudio 提供方返回了空音频
	ErrEmptyAudio = errors.New("tts: provider returned empty audio")
	// ErrAudioTooLarge 音频超过单次合成上限
	ErrAudioTooLarge = errors.New("tts: provider audio exceeds size limit")
)

// StatusError 非 2xx 响应
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tts: provider returned status %d", e.StatusCode)
}

type synthesizeRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings narration.VoiceSettings `json:"voice_settings"`
}

// Client ElevenLabs 文本转语音客户端
type Client struct {
	apiKey     string
	baseURL    string
	modelID    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	maxAudio   int64
}

// NewClient 创建 ElevenLabs 客户端
func NewClient(cfg *config.ElevenLabsConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	modelID := cfg.ModelID
	if modelID == "" {
		modelID = defaultModelID
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		modelID: modelID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker:  newBreaker(providerName, cfg.Breaker),
		maxAudio: maxAudioBytes,
	}
}

func newBreaker(name string, cfg config.BreakerConfig) *gobreaker.CircuitBreaker {
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	metrics.TTSBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.TTSBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn(context.Background(), "tts circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// 调用方取消不计入失败
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// Synthesize 调用 text-to-speech 接口，返回 audio/mpeg 字节
func (c *Client) Synthesize(ctx context.Context, req narration.Request) ([]byte, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, errors.New("tts: elevenlabs api key is not configured")
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (any, error) {
		return c.doSynthesize(ctx, req)
	})
	metrics.TTSRequestDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())

	if err != nil {
		status := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			status = "rejected"
		}
		metrics.TTSRequestTotal.WithLabelValues(providerName, status).Inc()
		return nil, err
	}
	metrics.TTSRequestTotal.WithLabelValues(providerName, "success").Inc()
	return out.([]byte), nil
}

func (c *Client) doSynthesize(ctx context.Context, req narration.Request) ([]byte, error) {
	body, err := json.Marshal(&synthesizeRequest{
		Text:          req.Text,
		ModelID:       c.modelID,
		VoiceSettings: narration.SettingsForTone(req.Tone),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tts request: %w", err)
	}

	endpoint := c.baseURL + "/text-to-speech/" + narration.VoiceID(req.Narrator)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create tts request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(httpResp.Body, errorBodyLimit))
		logger.Error(ctx, "tts provider returned error status", nil,
			"status", httpResp.StatusCode,
			"body", string(excerpt),
		)
		return nil, &StatusError{StatusCode: httpResp.StatusCode, Body: string(excerpt)}
	}

	audio, err := io.ReadAll(io.LimitReader(httpResp.Body, c.maxAudio+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read tts audio: %w", err)
	}
	if int64(len(audio)) > c.maxAudio {
		logger.Error(ctx, "tts audio exceeds size limit", ErrAudioTooLarge, "limit_bytes", c.maxAudio)
		return nil, ErrAudioTooLarge
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}
	return audio, nil
}
