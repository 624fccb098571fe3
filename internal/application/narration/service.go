package narration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	apperrors "odyscribe-api/pkg/errors"
	"odyscribe-api/pkg/logger"
	"odyscribe-api/pkg/metrics"
	"odyscribe-api/pkg/tracer"
)

// AudioCache 合成音频缓存
type AudioCache interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) ([]byte, error)) ([]byte, bool, error)
}

// Service 服务端朗读代理：清洗文本、查缓存、调用远端合成
type Service struct {
	synth    Synthesizer
	cache    AudioCache
	cacheTTL time.Duration
}

// NewService 创建朗读服务，cache 可为 nil
func NewService(synth Synthesizer, cache AudioCache, cacheTTL time.Duration) *Service {
	return &Service{synth: synth, cache: cache, cacheTTL: cacheTTL}
}

// Narrate 返回 audio/mpeg 字节
func (s *Service) Narrate(ctx context.Context, text, tone, narrator string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "narration.Service.Narrate")
	defer span.End()

	plain := StripMarkdown(text)
	if !IsNarratable(plain) {
		return nil, apperrors.ErrNothingToNarrate
	}
	req := Request{Text: plain, Tone: tone, Narrator: narrator}

	load := func(ctx context.Context) ([]byte, error) {
		return s.synth.Synthesize(ctx, req)
	}

	if s.cache == nil || s.cacheTTL <= 0 {
		audio, err := load(ctx)
		if err != nil {
			return nil, s.providerError(ctx, err)
		}
		return audio, nil
	}

	audio, hit, err := s.cache.GetOrLoad(ctx, cacheKey(req), s.cacheTTL, load)
	if err != nil {
		return nil, s.providerError(ctx, err)
	}
	if hit {
		metrics.NarrationCacheTotal.WithLabelValues("hit").Inc()
	} else {
		metrics.NarrationCacheTotal.WithLabelValues("miss").Inc()
	}
	return audio, nil
}

func (s *Service) providerError(ctx context.Context, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	logger.Error(ctx, "narration synthesis failed", err)
	return apperrors.ErrTTSUnavailable.WithError(err)
}

// cacheKey 声音、参数与文本共同决定音频内容
func cacheKey(req Request) string {
	vs := SettingsForTone(req.Tone)
	h := sha256.New()
	h.Write([]byte(VoiceID(req.Narrator)))
	h.Write([]byte{0})
	h.Write([]byte(formatSettings(vs)))
	h.Write([]byte{0})
	h.Write([]byte(req.Text))
	return "narration:" + hex.EncodeToString(h.Sum(nil))
}

func formatSettings(vs VoiceSettings) string {
	return strconv.FormatFloat(vs.Stability, 'f', 2, 64) + "/" + strconv.FormatFloat(vs.SimilarityBoost, 'f', 2, 64)
}
