package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"beta-signup/internal/domain"
	"beta-signup/pkg/apperror"
	"beta-signup/pkg/i18n"
	"beta-signup/pkg/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCSRFMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CSRFMiddleware(false, "/v1/health"))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CSRFContextKey)) })
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/v1/health", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := cookieNamed(rec, CSRFTokenCookieName)
	require.NotNil(t, cookie)
	assert.Len(t, cookie.Value, CSRFTokenLength*2)
	assert.Equal(t, cookie.Value, rec.Body.String())

	t.Run("Should reject a post without token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "Missing CSRF token")
	})

	t.Run("Should reject a mismatched header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.AddCookie(cookie)
		req.Header.Set(CSRFTokenHeaderName, "nope")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Should accept the header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.AddCookie(cookie)
		req.Header.Set(CSRFTokenHeaderName, cookie.Value)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("Should accept the form field", func(t *testing.T) {
		form := url.Values{CSRFTokenFormField: {cookie.Value}}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("Should skip exempt paths", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/health", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://beta.example.com"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("Should echo an allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://beta.example.com")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, "https://beta.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Should not echo an unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Should forbid preflight from unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeadersMiddleware(true))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "form-action 'self'")
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.Request.Context().Value(domain.KeyRequestID).(string))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "6f1c7d1e-4b0a-4a52-9c3f-2f1f6a9e8b7d")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "6f1c7d1e-4b0a-4a52-9c3f-2f1f6a9e8b7d", rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.NotEqual(t, "<script>", rec.Header().Get(RequestIDHeader))
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware(), ErrorHandler())
	r.GET("/app", func(c *gin.Context) { _ = c.Error(apperror.Conflict("busy", errors.New("inner"))) })
	r.GET("/raw", func(c *gin.Context) { _ = c.Error(errors.New("db password leaked")) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"busy"`)
	assert.Contains(t, rec.Body.String(), `"request_id"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/raw", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "leaked")
}

func TestRateLimitInMemory(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(DefaultRateLimitConfig(2, time.Minute)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestMemoryLimiterSweepsEndedWindows(t *testing.T) {
	l := &memoryLimiter{}
	cfg := DefaultRateLimitConfig(5, time.Minute)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	countKeys := func() []string {
		var keys []string
		l.entries.Range(func(key, _ interface{}) bool {
			keys = append(keys, key.(string))
			return true
		})
		return keys
	}

	for i := 0; i < 100; i++ {
		l.hit(fmt.Sprintf("rl:ip:10.0.0.%d", i), cfg, start)
	}
	require.Len(t, countKeys(), 100)

	t.Run("Should keep entries before the sweep interval", func(t *testing.T) {
		l.hit("rl:ip:10.0.1.1", cfg, start.Add(2*time.Minute))
		assert.Len(t, countKeys(), 101)
	})

	t.Run("Should drop ended windows after the sweep interval", func(t *testing.T) {
		later := start.Add(memorySweepInterval + time.Second)
		count, _ := l.hit("rl:ip:10.0.2.2", cfg, later)
		assert.Equal(t, 1, count)
		assert.Equal(t, []string{"rl:ip:10.0.2.2"}, countKeys())
	})
}

func TestRateLimitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := SubmitRateLimitConfig(1, time.Minute)
	cfg.Client = client

	r := gin.New()
	r.Use(RateLimitMiddleware(cfg))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "rl:submit:"))

	mr.FastForward(time.Minute)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionMiddleware(t *testing.T) {
	mgr, err := session.NewManager("secret", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.Use(SessionMiddleware(SessionConfig{Manager: mgr, DefaultLanguage: i18n.Chinese}))
	r.GET("/", func(c *gin.Context) {
		ctx := c.Request.Context()
		id, _ := ctx.Value(domain.KeySessionID).(string)
		lang, _ := ctx.Value(domain.KeyPreferredLanguage).(i18n.Language)
		c.String(http.StatusOK, id+"|"+string(lang))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := cookieNamed(rec, SessionCookieName)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	parts := strings.Split(rec.Body.String(), "|")
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], 36)
	assert.Equal(t, "zh", parts[1])

	t.Run("Should keep the session on a valid cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, parts[0]+"|en", rec.Body.String())
		assert.Nil(t, cookieNamed(rec, SessionCookieName))
	})

	t.Run("Should start over on a tampered cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie.Value + "x"})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.NotContains(t, rec.Body.String(), parts[0])
		assert.NotNil(t, cookieNamed(rec, SessionCookieName))
	})
}
