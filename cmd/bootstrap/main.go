// Package main 数据库迁移与开发令牌工具
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"odyscribe-api/internal/config"
	"odyscribe-api/internal/wire"
	"odyscribe-api/pkg/logger"
	"odyscribe-api/pkg/utils"
)

// Globals 全局参数
type Globals struct {
	ConfigDir string `help:"Directory holding config.yaml." default:"configs" type:"path"`
}

// MigrateCmd 同步表结构
type MigrateCmd struct{}

// Run 执行 AutoMigrate
func (c *MigrateCmd) Run(g *Globals) error {
	cfg, err := config.LoadFrom(g.ConfigDir)
	if err != nil {
		return err
	}
	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	ctx := context.Background()
	data, cleanup, err := wire.InitializePostgresOnly(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize data layer: %w", err)
	}
	defer cleanup()

	if err := data.PgClient.AutoMigrate(ctx); err != nil {
		return err
	}
	logger.Info(ctx, "schema migrated", "database", cfg.Database.Postgres.Database)
	return nil
}

// TokenCmd 签发开发用 access token
type TokenCmd struct {
	User  string        `help:"User ID (sub claim). A random UUID is used when empty."`
	Email string        `help:"Email claim." default:"writer@odyscribe.local"`
	TTL   time.Duration `help:"Token lifetime." default:"24h"`
}

// Run 打印 token
func (c *TokenCmd) Run(g *Globals) error {
	cfg, err := config.LoadFrom(g.ConfigDir)
	if err != nil {
		return err
	}
	if cfg.Security.JWT.Secret == "" {
		return fmt.Errorf("security.jwt.secret is not configured")
	}

	userID := c.User
	if userID == "" {
		userID = uuid.NewString()
	}
	token, err := utils.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer).GenerateToken(userID, c.Email, c.TTL)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	fmt.Fprintf(os.Stderr, "user: %s\n", userID)
	fmt.Println(token)
	return nil
}

var cli struct {
	Globals

	Migrate MigrateCmd `cmd:"" help:"Create or update the journal_entries and journal_chapters tables."`
	Token   TokenCmd   `cmd:"" help:"Mint a development bearer token."`
}

func main() {
	_ = godotenv.Load()

	ctx := kong.Parse(&cli,
		kong.Name("bootstrap"),
		kong.Description("Odyscribe schema and credential bootstrap"),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&cli.Globals); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
