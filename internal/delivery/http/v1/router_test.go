package v1_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"beta-signup/config"
	"beta-signup/internal/delivery/http/middleware"
	v1 "beta-signup/internal/delivery/http/v1"
	"beta-signup/internal/repository/httpapi"
	"beta-signup/internal/repository/memory"
	"beta-signup/internal/usecase"
	"beta-signup/pkg/session"
	"beta-signup/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeBackend records the beta tester POSTs it receives. With gate set it
// signals arrived and holds each POST until gate is closed.
type fakeBackend struct {
	mu      sync.Mutex
	status  int
	bodies  []string
	server  *httptest.Server
	arrived chan struct{}
	gate    chan struct{}
}

func newFakeBackend(t *testing.T, status int) *fakeBackend {
	b := &fakeBackend{status: status}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.bodies = append(b.bodies, string(body))
		b.mu.Unlock()
		if b.gate != nil {
			b.arrived <- struct{}{}
			<-b.gate
		}
		w.WriteHeader(b.status)
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) received() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.bodies...)
}

func newRouter(t *testing.T, backend *fakeBackend) *gin.Engine {
	t.Helper()
	cfg := &config.Config{
		DefaultLanguage:          "zh",
		AllowedOrigins:           []string{"http://localhost:5173"},
		RateLimitWindowSeconds:   60,
		RateLimitSubmitThreshold: 100,
		RateLimitGlobalThreshold: 1000,
	}

	betaRepo := httpapi.NewBetaTesterRepository(backend.server.URL+"/beta_testers/", 0)
	signupUC := usecase.NewSignupUsecase(
		memory.NewFormSessionRepository(time.Hour),
		betaRepo,
		validation.New(),
		usecase.SignupOptions{Policy: usecase.NewSubmissionErrorPolicy("status", nil)},
	)
	mgr, err := session.NewManager("test-secret", time.Hour)
	require.NoError(t, err)

	return v1.NewRouter(v1.RouterDeps{
		SignupUC: signupUC,
		HealthUC: usecase.NewHealthUsecase(betaRepo, nil),
		Sessions: mgr,
		Config:   cfg,
	})
}

// browser keeps cookies between requests like a real client.
type browser struct {
	handler  http.Handler
	cookies  map[string]*http.Cookie
	language string
}

func newBrowser(h http.Handler, language string) *browser {
	return &browser{handler: h, cookies: map[string]*http.Cookie{}, language: language}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	if b.language != "" {
		req.Header.Set("Accept-Language", b.language)
	}
	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return rec
}

// clone copies the cookie jar so the copy can be used from another goroutine.
func (b *browser) clone() *browser {
	c := newBrowser(b.handler, b.language)
	for name, cookie := range b.cookies {
		c.cookies[name] = cookie
	}
	return c
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) csrf() string {
	if c, ok := b.cookies[middleware.CSRFTokenCookieName]; ok {
		return c.Value
	}
	return ""
}

func (b *browser) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	values.Set(middleware.CSRFTokenFormField, b.csrf())
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) sendJSON(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.CSRFTokenHeaderName, b.csrf())
	return b.do(req)
}

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestSignupPage(t *testing.T) {
	backend := newFakeBackend(t, http.StatusCreated)
	b := newBrowser(newRouter(t, backend), "")

	rec := b.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "加入内测队列计划")
	assert.Contains(t, rec.Body.String(), b.csrf())

	t.Run("Should toggle the language", func(t *testing.T) {
		rec := b.postForm("/language", url.Values{})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))

		rec = b.get("/")
		assert.Contains(t, rec.Body.String(), "Join Beta Testing Program")
	})

	t.Run("Should show the validation error without calling the backend", func(t *testing.T) {
		rec := b.postForm("/", url.Values{"email": {"ab"}})
		assert.Equal(t, http.StatusSeeOther, rec.Code)

		rec = b.get("/")
		assert.Contains(t, rec.Body.String(), "Email must be between 5 and 50 characters")
		assert.Empty(t, backend.received())
	})

	t.Run("Should submit and celebrate", func(t *testing.T) {
		rec := b.postForm("/", url.Values{"email": {"a@b.co"}, "phone": {""}, "remarks": {""}})
		assert.Equal(t, http.StatusSeeOther, rec.Code)

		require.Len(t, backend.received(), 1)
		assert.JSONEq(t, `{"email":"a@b.co"}`, backend.received()[0])

		rec = b.get("/")
		body := rec.Body.String()
		assert.Contains(t, body, "Thank you for signing up for beta testing!")
		assert.Contains(t, body, `http-equiv="refresh"`)
		assert.NotContains(t, body, `value="a@b.co"`)
	})

	t.Run("Should reject a form post without CSRF token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("email=a%40b.co"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := b.do(req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestFormAPI(t *testing.T) {
	backend := newFakeBackend(t, http.StatusConflict)
	b := newBrowser(newRouter(t, backend), "en-US,en;q=0.8")

	rec := b.get("/v1/form")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "en", env.Data["language"])
	assert.Equal(t, "Join Beta Testing Program", env.Data["translations"].(map[string]interface{})["title"])

	t.Run("Should validate the email on every edit", func(t *testing.T) {
		rec := b.sendJSON(http.MethodPatch, "/v1/form", `{"field":"email","value":"abcde@bad"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Invalid email format", decode(t, rec).Data["email_error"])

		rec = b.sendJSON(http.MethodPatch, "/v1/form", `{"field":"email","value":"a@b.co"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "", decode(t, rec).Data["email_error"])
	})

	t.Run("Should reject an unknown field", func(t *testing.T) {
		rec := b.sendJSON(http.MethodPatch, "/v1/form", `{"field":"name","value":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should report a duplicate email", func(t *testing.T) {
		rec := b.sendJSON(http.MethodPost, "/v1/form/submit", `{"phone":"123"}`)
		require.Equal(t, http.StatusConflict, rec.Code)

		env := decode(t, rec)
		assert.False(t, env.Success)
		assert.Equal(t, "email already exists: Conflict", env.Message)
		assert.Equal(t, "a@b.co", env.Data["email"])
		assert.Equal(t, false, env.Data["submitted"])

		require.Len(t, backend.received(), 1)
		assert.JSONEq(t, `{"email":"a@b.co","phone":"123"}`, backend.received()[0])
	})

	t.Run("Should reject an invalid submit", func(t *testing.T) {
		rec := b.sendJSON(http.MethodPost, "/v1/form/submit", `{"email":"ab"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "Email must be between 5 and 50 characters", decode(t, rec).Message)
		assert.Len(t, backend.received(), 1)
	})

	t.Run("Should toggle the language", func(t *testing.T) {
		rec := b.sendJSON(http.MethodPost, "/v1/form/language", "")
		require.Equal(t, http.StatusOK, rec.Code)
		env := decode(t, rec)
		assert.Equal(t, "zh", env.Data["language"])
		assert.Equal(t, "邮箱长度应在 5 到 50 个字符之间", env.Data["email_error"])
	})

	t.Run("Should require the CSRF header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/v1/form", strings.NewReader(`{"field":"email","value":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := b.do(req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestSubmitSuccessAPI(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK)
	b := newBrowser(newRouter(t, backend), "en")
	b.get("/v1/form")

	rec := b.sendJSON(http.MethodPost, "/v1/form/submit", `{"email":"tester@example.com","remarks":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "Thank you for signing up for beta testing! We will contact you soon.", env.Message)
	assert.Equal(t, true, env.Data["submitted"])
	assert.Equal(t, true, env.Data["celebrating"])
	assert.Equal(t, "", env.Data["email"])
	assert.Greater(t, env.Data["celebration_remaining_ms"].(float64), float64(0))
}

func TestSubmitEmptyChunkedBody(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK)
	b := newBrowser(newRouter(t, backend), "en")
	b.get("/v1/form")

	rec := b.sendJSON(http.MethodPatch, "/v1/form", `{"field":"email","value":"a@b.co"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/form/submit", strings.NewReader(""))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.CSRFTokenHeaderName, b.csrf())
	rec = b.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(t, rec).Success)
	require.Len(t, backend.received(), 1)
	assert.JSONEq(t, `{"email":"a@b.co"}`, backend.received()[0])

	t.Run("Should still reject a malformed body", func(t *testing.T) {
		rec := b.sendJSON(http.MethodPost, "/v1/form/submit", `{"email":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSubmitWhileInFlight(t *testing.T) {
	backend := newFakeBackend(t, http.StatusCreated)
	backend.arrived = make(chan struct{}, 1)
	backend.gate = make(chan struct{})
	b := newBrowser(newRouter(t, backend), "en")
	b.get("/")

	first := b.clone()
	done := make(chan int, 1)
	go func() {
		done <- first.postForm("/", url.Values{"email": {"a@b.co"}}).Code
	}()

	select {
	case <-backend.arrived:
	case <-time.After(5 * time.Second):
		close(backend.gate)
		t.Fatal("first submit never reached the backend")
	}

	t.Run("Should show the in-flight message on the page", func(t *testing.T) {
		rec := b.postForm("/", url.Values{"email": {"a@b.co"}})
		assert.Equal(t, http.StatusSeeOther, rec.Code)

		rec = b.get("/")
		assert.Contains(t, rec.Body.String(), "Your application is already being submitted")
	})

	t.Run("Should answer 409 with the message over JSON", func(t *testing.T) {
		rec := b.sendJSON(http.MethodPost, "/v1/form/submit", `{}`)
		require.Equal(t, http.StatusConflict, rec.Code)
		env := decode(t, rec)
		assert.Equal(t, "Your application is already being submitted", env.Message)
		assert.Equal(t, true, env.Data["submitting"])
	})

	close(backend.gate)
	assert.Equal(t, http.StatusSeeOther, <-done)
	assert.Len(t, backend.received(), 1)

	rec := b.get("/")
	assert.NotContains(t, rec.Body.String(), "Your application is already being submitted")
	assert.Contains(t, rec.Body.String(), "Thank you for signing up for beta testing!")
}

func TestSubmitBackendDown(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK)
	b := newBrowser(newRouter(t, backend), "en")
	b.get("/v1/form")
	backend.server.Close()

	rec := b.sendJSON(http.MethodPost, "/v1/form/submit", `{"email":"tester@example.com"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.True(t, strings.HasPrefix(decode(t, rec).Message, "error submitting form: "))
}

func TestTranslations(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK)
	r := newRouter(t, backend)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/translations/en", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "Submit Application", env.Data["submit"])
	assert.Equal(t, "中/EN", env.Data["toggle"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/translations/fr", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	backend := newFakeBackend(t, http.StatusOK)
	r := newRouter(t, backend)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec).Data["backend"])

	backend.server.Close()
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", decode(t, rec).Data["status"])
}
