package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"NetworkingServer/apps/networking/internal/repository"
	"NetworkingServer/config"
	"NetworkingServer/consts"
	"NetworkingServer/model"
	"NetworkingServer/pkg/notify"
	"NetworkingServer/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== fakes ====================

type fakeUserRepo struct {
	GetByIDFn         func(ctx context.Context, id int64) (*model.User, error)
	GetByTelegramIDFn func(ctx context.Context, telegramID int64) (*model.User, error)
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if f.GetByIDFn == nil {
		return nil, repository.ErrRecordNotFound
	}
	return f.GetByIDFn(ctx, id)
}

func (f *fakeUserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	if f.GetByTelegramIDFn == nil {
		return nil, repository.ErrRecordNotFound
	}
	return f.GetByTelegramIDFn(ctx, telegramID)
}

func (f *fakeUserRepo) ListAttendees(context.Context, repository.AttendeeQuery) ([]*model.User, int64, error) {
	return nil, 0, errors.New("unexpected ListAttendees call")
}

type fakeVerifier struct {
	VerifyFn func(ctx context.Context, txID string, amount *decimal.Decimal, recipient string) (bool, error)
	calls    int
}

func (f *fakeVerifier) Verify(ctx context.Context, txID string, amount *decimal.Decimal, recipient string) (bool, error) {
	f.calls++
	return f.VerifyFn(ctx, txID, amount, recipient)
}

func (f *fakeVerifier) Refund(context.Context, string, decimal.Decimal, string) (string, error) {
	return "", errors.New("unexpected Refund call")
}

type capturingNotifier struct {
	mu     sync.Mutex
	audits []notify.AuditRecord
	alerts []notify.Alert
	done   chan struct{}
}

func newCapturingNotifier() *capturingNotifier {
	return &capturingNotifier{done: make(chan struct{}, 8)}
}

func (n *capturingNotifier) Audit(_ context.Context, rec notify.AuditRecord) error {
	n.mu.Lock()
	n.audits = append(n.audits, rec)
	n.mu.Unlock()
	n.done <- struct{}{}
	return nil
}

func (n *capturingNotifier) Alert(_ context.Context, a notify.Alert) error {
	n.mu.Lock()
	n.alerts = append(n.alerts, a)
	n.mu.Unlock()
	n.done <- struct{}{}
	return nil
}

func (n *capturingNotifier) wait(t *testing.T, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		select {
		case <-n.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for notification %d", i+1)
		}
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func okHandler(c *gin.Context) { c.String(http.StatusOK, "ok") }

// ==================== auth ====================

func TestJWTAuth(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret"}
	tgActive, tgInactive := int64(501), int64(502)
	users := &fakeUserRepo{GetByTelegramIDFn: func(_ context.Context, telegramID int64) (*model.User, error) {
		switch telegramID {
		case tgActive:
			u := &model.User{Id: 7, TelegramId: &tgActive, IsStaff: true}
			u.IsActive = true
			return u, nil
		case tgInactive:
			return &model.User{Id: 8, TelegramId: &tgInactive}, nil
		}
		return nil, repository.ErrRecordNotFound
	}}

	r := gin.New()
	r.GET("/me", JWTAuth(cfg, users), func(c *gin.Context) {
		id, _ := GetUserID(c)
		user, found := CurrentUser(c)
		assert.True(t, found)
		assert.Equal(t, int64(7), user.Id)
		assert.Equal(t, int64(7), util.GetUserIDFromContext(c.Request.Context()))
		c.JSON(http.StatusOK, gin.H{"id": id, "staff": IsStaff(c)})
	})

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}
	token := func(tgID int64) string {
		s, err := util.GenerateToken(cfg.Secret, tgID, "", time.Hour)
		require.NoError(t, err)
		return "Bearer " + s
	}

	t.Run("missing", func(t *testing.T) {
		w := call("")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, float64(consts.CodeUnauthorized), decode(t, w)["code"])
	})

	t.Run("invalid", func(t *testing.T) {
		w := call("Bearer not.a.jwt")
		assert.Equal(t, float64(consts.CodeInvalidToken), decode(t, w)["code"])
	})

	t.Run("unknown_user", func(t *testing.T) {
		w := call(token(999))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, float64(consts.CodeInvalidToken), decode(t, w)["code"])
	})

	t.Run("inactive_user", func(t *testing.T) {
		w := call(token(tgInactive))
		assert.Equal(t, float64(consts.CodeUserDisabled), decode(t, w)["code"])
	})

	t.Run("ok", func(t *testing.T) {
		w := call(token(tgActive))
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, float64(7), body["id"])
		assert.Equal(t, true, body["staff"])
	})
}

func TestRequireStaff(t *testing.T) {
	r := gin.New()
	r.GET("/admin", func(c *gin.Context) { c.Set(util.ContextKeyIsStaff, false) }, RequireStaff(), okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, float64(consts.CodePermissionDeny), decode(t, w)["code"])
}

// ==================== transaction verify ====================

func TestTransactionVerify(t *testing.T) {
	newRouter := func(v *fakeVerifier) (*gin.Engine, *string) {
		var seen string
		r := gin.New()
		r.POST("/send", TransactionVerify(v, "platform"), func(c *gin.Context) {
			b, _ := io.ReadAll(c.Request.Body)
			seen = string(b)
			c.String(http.StatusCreated, "created")
		})
		return r, &seen
	}
	post := func(r *gin.Engine, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(body)))
		return w
	}

	t.Run("rejects_unverified", func(t *testing.T) {
		v := &fakeVerifier{VerifyFn: func(_ context.Context, txID string, amount *decimal.Decimal, recipient string) (bool, error) {
			assert.Equal(t, "tx1", txID)
			assert.Equal(t, "platform", recipient)
			assert.True(t, amount.Equal(decimal.RequireFromString("2.5")))
			return false, nil
		}}
		r, _ := newRouter(v)
		w := post(r, `{"transaction_id":"tx1","amount_staked":"2.5"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, float64(consts.CodeTransactionInvalid), body["code"])
		assert.Equal(t, "FAILURE", body["status"])
	})

	t.Run("verified_body_is_restored", func(t *testing.T) {
		v := &fakeVerifier{VerifyFn: func(context.Context, string, *decimal.Decimal, string) (bool, error) { return true, nil }}
		r, seen := newRouter(v)
		payload := `{"transaction_id":"tx1","amount_staked":3}`
		w := post(r, payload)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, payload, *seen)
	})

	t.Run("fails_open_on_upstream_error", func(t *testing.T) {
		v := &fakeVerifier{VerifyFn: func(context.Context, string, *decimal.Decimal, string) (bool, error) {
			return false, errors.New("rpc down")
		}}
		r, _ := newRouter(v)
		assert.Equal(t, http.StatusCreated, post(r, `{"transaction_id":"tx1","amount_staked":"1"}`).Code)
	})

	t.Run("skips_without_both_fields", func(t *testing.T) {
		v := &fakeVerifier{}
		r, _ := newRouter(v)
		assert.Equal(t, http.StatusCreated, post(r, `{"transaction_id":"tx1"}`).Code)
		assert.Equal(t, http.StatusCreated, post(r, `{"amount_staked":"1"}`).Code)
		assert.Equal(t, 0, v.calls)
	})

	t.Run("fails_open_on_malformed_body", func(t *testing.T) {
		v := &fakeVerifier{}
		r, seen := newRouter(v)
		assert.Equal(t, http.StatusCreated, post(r, `{not json`).Code)
		assert.Equal(t, `{not json`, *seen)
		assert.Equal(t, 0, v.calls)
	})
}

// ==================== rate limit ====================

func TestUserRateLimitMiddleware(t *testing.T) {
	limiter := NewUserRateLimiter(0.001, 1)
	r := gin.New()
	r.POST("/send", func(c *gin.Context) { c.Set(util.ContextKeyUserID, int64(3)) }, UserRateLimitMiddleware(limiter), okHandler)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/send", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/send", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, float64(consts.CodeTooManyRequests), decode(t, second)["code"])
	assert.Equal(t, 1, limiter.Len())
}

func TestUserRateLimitRequiresAuth(t *testing.T) {
	r := gin.New()
	r.POST("/send", UserRateLimitMiddleware(NewUserRateLimiter(1, 1)), okHandler)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/send", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserRateLimiterCleanup(t *testing.T) {
	limiter := NewUserRateLimiter(1000, 2)
	limiter.GetLimiter(1)
	limiter.GetLimiter(2).Allow()
	limiter.GetLimiter(2).Allow()
	limiter.Cleanup()
	assert.Equal(t, 1, limiter.Len())
}

func TestIPRateLimitWithoutRedisPasses(t *testing.T) {
	r := gin.New()
	r.Use(ClientIPMiddleware(nil), IPRateLimitMiddleware(nil, config.RateLimitConfig{IPRate: 1, IPBurst: 1, BlacklistKey: "bl"}))
	r.GET("/x", okHandler)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

// ==================== recovery / audit ====================

func TestGinRecovery(t *testing.T) {
	n := newCapturingNotifier()
	r := gin.New()
	r.Use(util.TraceLogger(), GinRecovery(true, notify.NewDispatcher(n, time.Second)))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, float64(consts.CodeInternalError), decode(t, w)["code"])

	n.wait(t, 1)
	n.mu.Lock()
	defer n.mu.Unlock()
	require.Len(t, n.alerts, 1)
	assert.Equal(t, "boom", n.alerts[0].Message)
	assert.NotEmpty(t, n.alerts[0].TraceID)
	assert.NotEmpty(t, n.alerts[0].Stack)
}

func TestAudit(t *testing.T) {
	n := newCapturingNotifier()
	r := gin.New()
	r.Use(util.TraceLogger(), Audit(notify.NewDispatcher(n, time.Second)))
	r.POST("/items/:id", func(c *gin.Context) {
		c.Set(util.ContextKeyUserID, int64(9))
		c.JSON(http.StatusConflict, gin.H{})
		c.Set("business_code", consts.CodeRequestAlreadyExists)
		c.Set("result_status", "FAILURE")
	})
	r.GET("/items/:id", okHandler)

	get := httptest.NewRecorder()
	r.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/items/1", nil))

	req := httptest.NewRequest(http.MethodPost, "/items/1", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	n.wait(t, 1)
	n.mu.Lock()
	defer n.mu.Unlock()
	require.Len(t, n.audits, 1)
	rec := n.audits[0]
	assert.Equal(t, "/items/:id", rec.Route)
	assert.Equal(t, http.StatusConflict, rec.StatusCode)
	assert.Equal(t, consts.CodeRequestAlreadyExists, rec.Code)
	assert.Equal(t, int64(9), rec.UserID)
	assert.False(t, rec.Succeeded())

	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-token")
	assert.Empty(t, n.alerts)
}

// ==================== misc ====================

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware(DefaultCORSConfig([]string{"https://app.example"})))
	r.GET("/x", okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func clientIPRouter(trusted []string) *gin.Engine {
	r := gin.New()
	r.Use(ClientIPMiddleware(trusted))
	r.GET("/ip", func(c *gin.Context) {
		ip, _ := GetClientIPSafe(c)
		fromCtx, _ := c.Request.Context().Value(util.ContextKeyClientIP).(string)
		c.String(http.StatusOK, ip+"|"+fromCtx)
	})
	return r
}

func TestClientIPMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Forwarded-For", "garbage, 203.0.113.7, 10.0.0.1")
	w := httptest.NewRecorder()
	clientIPRouter(nil).ServeHTTP(w, req)
	assert.Equal(t, "203.0.113.7|203.0.113.7", w.Body.String())
}

func TestClientIPIgnoresUntrustedForwarding(t *testing.T) {
	// httptest 请求的对端地址为 192.0.2.1
	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Real-IP", "203.0.113.7")
	w := httptest.NewRecorder()
	clientIPRouter([]string{"10.0.0.0/8"}).ServeHTTP(w, req)
	assert.Equal(t, "192.0.2.1|192.0.2.1", w.Body.String())

	w = httptest.NewRecorder()
	clientIPRouter([]string{"10.0.0.0/8", "192.0.2.1"}).ServeHTTP(w, req)
	assert.Equal(t, "203.0.113.7|203.0.113.7", w.Body.String())

	// 全部条目非法时不信任任何转发头
	w = httptest.NewRecorder()
	clientIPRouter([]string{"not-an-ip"}).ServeHTTP(w, req)
	assert.Equal(t, "192.0.2.1|192.0.2.1", w.Body.String())
}

func TestClientIPReachesServiceContext(t *testing.T) {
	r := gin.New()
	r.Use(util.TraceLogger(), ClientIPMiddleware(nil))
	var got string
	r.GET("/ctx", func(c *gin.Context) {
		got, _ = NewContextWithGin(c).Value(util.ContextKeyClientIP).(string)
		c.Status(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/ctx", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.4")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "198.51.100.4", got)
}
