package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// ==================== Token 签发与解析 ====================

func TestTokenPairRoundTrip(t *testing.T) {
	access, refresh, err := GenerateTokenPair("usr_abc", "merchant1", "merchant")
	assert.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	claims, err := ParseToken(access)
	assert.NoError(t, err)
	assert.Equal(t, "usr_abc", claims.Identity)
	assert.Equal(t, "merchant1", claims.Username)
	assert.Equal(t, "access", claims.Subject)

	refreshClaims, err := ParseToken(refresh)
	assert.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.Subject)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := ParseToken("not.a.token")
	assert.Error(t, err)
}

func TestParseToken_WrongSecret(t *testing.T) {
	access, _, err := GenerateTokenPair("usr_abc", "merchant1", "merchant")
	assert.NoError(t, err)

	// 换密钥后旧 Token 必须失效
	old := sessionConfig
	SetSessionConfig(&SessionConfig{
		SecretKey:      "another-secret",
		AccessTokenTTL: time.Hour,
		Issuer:         "smarthub",
	})
	defer SetSessionConfig(old)

	_, err = ParseToken(access)
	assert.Error(t, err)
}

// ==================== 认证中间件 ====================

func setupSessionRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", SessionAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"identity": GetIdentity(c),
			"shop":     GetShopHint(c),
		})
	})
	return r
}

func TestSessionAuth_MissingToken(t *testing.T) {
	r := setupSessionRouter()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionAuth_RefreshTokenRejected(t *testing.T) {
	r := setupSessionRouter()

	// Refresh Token 不能当 Access Token 用
	_, refresh, err := GenerateTokenPair("usr_abc", "merchant1", "merchant")
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionAuth_BearerHeader(t *testing.T) {
	r := setupSessionRouter()

	access, _, err := GenerateTokenPair("usr_abc", "merchant1", "merchant")
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	req.Header.Set(HeaderShopID, "42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "usr_abc")
	assert.Contains(t, w.Body.String(), "42")
}

func TestSessionAuth_Cookie(t *testing.T) {
	r := setupSessionRouter()

	access, _, err := GenerateTokenPair("usr_abc", "merchant1", "merchant")
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: access})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// ==================== 租户提示头 ====================

func TestGetShopHint_Malformed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/hint", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"shop": GetShopHint(c)})
	})

	cases := map[string]string{
		"12abc": `"shop":0`, // 非纯数字按未携带处理
		"-5":    `"shop":0`,
		"":      `"shop":0`,
		"7":     `"shop":7`,
	}

	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/hint", nil)
		if header != "" {
			req.Header.Set(HeaderShopID, header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Contains(t, w.Body.String(), want, "header=%q", header)
	}
}

// ==================== 回复冷却器 ====================

func TestReplyRateLimiter(t *testing.T) {
	limiter := &ReplyRateLimiter{}
	key := ReplyKey(1, 2)

	first := limiter.Check(key, 50*time.Millisecond)
	assert.True(t, first.Allowed)

	// 冷却期内第二次必须被拒，且给出剩余时间
	second := limiter.Check(key, 50*time.Millisecond)
	assert.False(t, second.Allowed)
	assert.Greater(t, second.RetryAfter, time.Duration(0))

	// 不同客户互不影响
	other := limiter.Check(ReplyKey(1, 3), 50*time.Millisecond)
	assert.True(t, other.Allowed)

	// 冷却期过后恢复
	time.Sleep(60 * time.Millisecond)
	third := limiter.Check(key, 50*time.Millisecond)
	assert.True(t, third.Allowed)
}

func TestReplyRateLimiter_Reset(t *testing.T) {
	limiter := &ReplyRateLimiter{}
	key := ReplyKey(9, 9)

	limiter.Check(key, time.Hour)
	limiter.Reset(key)

	again := limiter.Check(key, time.Hour)
	assert.True(t, again.Allowed)
}
