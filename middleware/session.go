package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"clinical-trials-agent-backend/config"
	"clinical-trials-agent-backend/service/session"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// SessionKey gin 上下文中保存当前会话的键
const SessionKey = "session"

type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// GenerateToken 为会话签发访问令牌
func GenerateToken(sessionID string) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(config.Cfg.JWT.Expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	secretKey := []byte(config.Cfg.JWT.SecretKey)
	return token.SignedString(secretKey)
}

// SessionMiddleware 校验令牌并从存储中取出对应会话
func SessionMiddleware(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			slog.Info("Authorization header required")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			slog.Info("Invalid authorization format")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(config.Cfg.JWT.SecretKey), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil || !token.Valid {
			slog.Info("Invalid token", "err", err, "session_id", claims.SessionID)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		s, ok := store.Get(claims.SessionID)
		if !ok {
			slog.Info("Session expired or ended", "session_id", claims.SessionID)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(SessionKey, s)
		c.Next()
	}
}

func CurrentSession(c *gin.Context) *session.Session {
	return c.MustGet(SessionKey).(*session.Session)
}
