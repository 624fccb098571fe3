// Package wire 提供依赖注入配置
package wire

import (
	"github.com/google/wire"

	"odyscribe-api/internal/application/journal"
	"odyscribe-api/internal/application/narration"
	storychapter "odyscribe-api/internal/application/story/chapter"
	"odyscribe-api/internal/config"
	"odyscribe-api/internal/domain/repository"
	"odyscribe-api/internal/infrastructure/llm"
	"odyscribe-api/internal/infrastructure/persistence/postgres"
	"odyscribe-api/internal/infrastructure/persistence/redis"
	"odyscribe-api/internal/infrastructure/tts"
	"odyscribe-api/internal/interfaces/http/handler"
	"odyscribe-api/internal/interfaces/http/middleware"
	"odyscribe-api/internal/interfaces/http/router"
	workflowport "odyscribe-api/internal/workflow/port"
)

// PostgresOnlyDataLayer 仅包含 PostgreSQL 的数据层（用于 bootstrap）
type PostgresOnlyDataLayer struct {
	PgClient *postgres.Client
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewEntryRepository,
	postgres.NewChapterRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.EntryRepository), new(*postgres.EntryRepository)),
	wire.Bind(new(repository.ChapterRepository), new(*postgres.ChapterRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	redis.NewLocker,
	wire.Bind(new(narration.AudioCache), new(*redis.Cache)),
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
	wire.Bind(new(repository.Locker), new(*redis.Locker)),
)

// ApplicationSet 用例层提供者集合
var ApplicationSet = wire.NewSet(
	llm.NewEinoFactory,
	wire.Bind(new(workflowport.ChatModelSource), new(*llm.EinoFactory)),
	ProvideGenerator,
	wire.Bind(new(storychapter.NarrativeGenerator), new(*storychapter.Generator)),
	ProvideOrchestrator,
	storychapter.NewService,
	journal.NewService,
	ProvideTTSClient,
	wire.Bind(new(narration.Synthesizer), new(*tts.Client)),
	ProvideNarrationService,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideAuthConfig,
	ProvideHealthHandler,
	wire.Bind(new(handler.EntryService), new(*journal.Service)),
	wire.Bind(new(handler.ChapterService), new(*storychapter.Service)),
	wire.Bind(new(handler.ChapterOrchestrator), new(*storychapter.Orchestrator)),
	wire.Bind(new(handler.NarrativeGenerator), new(*storychapter.Generator)),
	wire.Bind(new(handler.Narrator), new(*narration.Service)),
	handler.NewEntryHandler,
	handler.NewChapterHandler,
	handler.NewGenerateHandler,
	handler.NewNarrationHandler,
	handler.NewProfileHandler,
	wire.Struct(new(router.RouterHandlers), "*"),
	router.NewWithDeps,
)

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideGenerator 按默认提供商配置创建叙事生成器
func ProvideGenerator(cfg *config.Config, models workflowport.ChatModelSource) *storychapter.Generator {
	provider := cfg.LLM.DefaultProvider
	p := cfg.LLM.Providers[provider]
	return storychapter.NewGenerator(models, storychapter.GeneratorOptions{
		Provider:    provider,
		Model:       p.Model,
		Temperature: float32(p.Temperature),
		MaxTokens:   p.MaxTokens,
	})
}

// ProvideOrchestrator 提供章节生成编排器
func ProvideOrchestrator(
	cfg *config.Config,
	entries repository.EntryRepository,
	chapters repository.ChapterRepository,
	tx repository.Transactor,
	generator storychapter.NarrativeGenerator,
	locker repository.Locker,
) *storychapter.Orchestrator {
	return storychapter.NewOrchestrator(entries, chapters, tx, generator, locker, cfg.Generation.LockTTL)
}

// ProvideTTSClient 提供 ElevenLabs 客户端
func ProvideTTSClient(cfg *config.Config) *tts.Client {
	return tts.NewClient(&cfg.TTS.ElevenLabs)
}

// ProvideNarrationService 提供朗读服务
func ProvideNarrationService(cfg *config.Config, synth narration.Synthesizer, cache narration.AudioCache) *narration.Service {
	return narration.NewService(synth, cache, cfg.TTS.CacheTTL)
}

// ProvideHealthHandler 就绪检查覆盖 postgres 与 redis
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, rdb *redis.Client) *handler.HealthHandler {
	return handler.NewHealthHandler(cfg.App.Version, map[string]handler.HealthChecker{
		"postgres": pg,
		"redis":    rdb,
	})
}

// ProvideAuthConfig 提供认证配置
func ProvideAuthConfig(cfg *config.Config) middleware.AuthConfig {
	return middleware.AuthConfig{
		Secret:    cfg.Security.JWT.Secret,
		Issuer:    cfg.Security.JWT.Issuer,
		SkipPaths: middleware.DefaultSkipPaths,
		Enabled:   cfg.Security.JWT.Enabled,
	}
}
