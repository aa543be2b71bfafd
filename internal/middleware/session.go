package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ==================== Session 配置 ====================

// SessionConfig 会话 Token 配置
type SessionConfig struct {
	SecretKey       string        // 签名密钥
	AccessTokenTTL  time.Duration // Access Token 有效期
	RefreshTokenTTL time.Duration // Refresh Token 有效期
	Issuer          string        // 签发者
}

// DefaultSessionConfig 默认配置
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		SecretKey:       "smarthub-secret-key-change-in-production",
		AccessTokenTTL:  2 * time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "smarthub",
	}
}

// 全局配置
var sessionConfig = DefaultSessionConfig()

// SetSessionConfig 设置会话配置
func SetSessionConfig(cfg *SessionConfig) {
	sessionConfig = cfg
}

// ==================== Claims 定义 ====================

// SessionClaims 会话声明
// Identity 为认证身份标识，与 shops.owner_id 对应
type SessionClaims struct {
	Identity string `json:"identity"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// ==================== Token 生成 ====================

func generateToken(identity, username, role, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		Identity: identity,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionConfig.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(sessionConfig.SecretKey))
}

// GenerateTokenPair 生成 Access/Refresh Token 对
func GenerateTokenPair(identity, username, role string) (accessToken, refreshToken string, err error) {
	accessToken, err = generateToken(identity, username, role, "access", sessionConfig.AccessTokenTTL)
	if err != nil {
		return "", "", err
	}

	refreshToken, err = generateToken(identity, username, role, "refresh", sessionConfig.RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// ==================== Token 解析 ====================

// ParseToken 解析 Token
func ParseToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(sessionConfig.SecretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// ==================== Gin 中间件 ====================

// Context Keys
const (
	ContextKeyIdentity = "identity"
	ContextKeyUsername = "username"
	ContextKeyRole     = "role"

	// HeaderShopID 前端切换店铺后携带的租户提示头
	// 只是提示：归属必须在 ShopService 里用 identity 重新核对
	HeaderShopID = "X-Shop-ID"
)

// SessionAuth 会话认证中间件
// 未解析出身份一律 401，绝不回退到任何默认身份
func SessionAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "未提供认证信息"})
			c.Abort()
			return
		}

		claims, err := ParseToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token 无效或已过期"})
			c.Abort()
			return
		}

		// 只接受 Access Token
		if claims.Subject != "access" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token 类型错误"})
			c.Abort()
			return
		}

		c.Set(ContextKeyIdentity, claims.Identity)
		c.Set(ContextKeyUsername, claims.Username)
		c.Set(ContextKeyRole, claims.Role)

		c.Next()
	}
}

// extractToken 从 Authorization 头或 Cookie 中取 Token
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	// 浏览器侧用 Cookie
	if cookie, err := c.Cookie("session_token"); err == nil {
		return cookie
	}
	return ""
}

// ==================== 辅助函数 ====================

// GetIdentity 从 Context 获取认证身份标识
func GetIdentity(c *gin.Context) string {
	if id, exists := c.Get(ContextKeyIdentity); exists {
		return id.(string)
	}
	return ""
}

// GetUsername 从 Context 获取用户名
func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		return name.(string)
	}
	return ""
}

// GetShopHint 读取租户提示头，未携带返回 0
func GetShopHint(c *gin.Context) int64 {
	raw := c.GetHeader(HeaderShopID)
	if raw == "" {
		return 0
	}
	var id int64
	for _, ch := range raw {
		if ch < '0' || ch > '9' {
			return 0
		}
		id = id*10 + int64(ch-'0')
	}
	return id
}
