// Package middleware 提供 HTTP 中间件
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"odyscribe-api/internal/interfaces/http/dto"
	"odyscribe-api/pkg/logger"
	"odyscribe-api/pkg/utils"
)

// UserIDKey gin 上下文中的用户 ID
const UserIDKey = "user_id"

// AuthConfig 认证配置
type AuthConfig struct {
	Secret string
	Issuer string
	// SkipPaths 按前缀跳过认证
	SkipPaths []string
	Enabled   bool
}

// DefaultSkipPaths 默认跳过认证的路径
var DefaultSkipPaths = []string{
	"/health",
	"/metrics",
}

// Auth 校验 Bearer Token，并把用户 ID 注入 gin 与日志上下文
//
// 校验失败统一返回 401 {"error":"Unauthorized"}，不会触达任何存储。
func Auth(cfg AuthConfig) gin.HandlerFunc {
	jwtManager := utils.NewJWTManager(cfg.Secret, cfg.Issuer)

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		for _, path := range cfg.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, path) {
				c.Next()
				return
			}
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims, err := jwtManager.ParseToken(token)
		if err != nil {
			reason := "invalid token"
			if errors.Is(err, utils.ErrExpiredToken) {
				reason = "token expired"
			}
			abortUnauthorized(c, reason)
			return
		}

		userID := claims.UserID()
		if userID == "" {
			abortUnauthorized(c, "token has no subject")
			return
		}

		c.Set(UserIDKey, userID)
		ctx := logger.WithContext(c.Request.Context(), logger.UserIDKey, userID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// CurrentUserID 返回已认证用户 ID
func CurrentUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, reason string) {
	logger.Debug(c.Request.Context(), "request rejected by auth", "reason", reason, "path", c.Request.URL.Path)
	dto.AbortError(c, http.StatusUnauthorized, "Unauthorized")
}
