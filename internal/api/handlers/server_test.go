package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eventfin.io/eventfin/internal/api/middleware"
	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/governance/approval"
	"eventfin.io/eventfin/internal/governance/audit"
	"eventfin.io/eventfin/internal/notification"
	"eventfin.io/eventfin/internal/pkg/logger"
	"eventfin.io/eventfin/internal/service"
	"eventfin.io/eventfin/internal/testutil"
	"eventfin.io/eventfin/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

var testJWT = middleware.JWTConfig{
	SigningKey: []byte("handler-test-key-0123456789abcdef"),
	Issuer:     "eventfin",
	ExpiresIn:  time.Hour,
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type testEnv struct {
	store  *testutil.MemStore
	engine *gin.Engine
	org    uuid.UUID
	event  domain.Event
	// finance is a finance user of org; member is a plain member of org.
	finance domain.Principal
	member  domain.Principal
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithPinger(t, fakePinger{})
}

func newTestEnvWithPinger(t *testing.T, db Pinger) *testEnv {
	t.Helper()
	store := testutil.NewMemStore()
	org := uuid.New()
	event := store.AddEvent(org)
	finance := store.AddUser(org, domain.RoleFinance, true)
	member := store.AddUser(org, domain.RoleMember, true)

	auditLogger := audit.NewLogger(store)
	gateway := approval.NewGateway(store, approval.NewRouter(store, approval.DefaultPolicy()), auditLogger,
		usecase.NewApprovalAtomicWriter(store, nil))
	gateway.SetNotifier(notification.NewTriggers(notification.NewInboxSender(store), notification.InlineDispatcher{}))

	srv := NewServer(ServerDeps{
		Budgets:  usecase.NewBudgetUseCase(store).WithAuditLogger(auditLogger),
		Expenses: usecase.NewExpenseUseCase(store, gateway).WithAuditLogger(auditLogger),
		Insights: usecase.NewInsightUseCase(store, service.NewROIService(store, auditLogger, 0)),
		Inbox:    usecase.NewInboxUseCase(store),
		DB:       db,
	})

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.ErrorHandler())
	v1 := engine.Group("/api/v1")
	srv.RegisterPublicRoutes(v1)
	authed := v1.Group("", middleware.JWTAuth(testJWT))
	srv.RegisterRoutes(authed, middleware.RequireRole(domain.FinanceRoles...))

	return &testEnv{
		store:   store,
		engine:  engine,
		org:     org,
		event:   event,
		finance: domain.Principal{UserID: finance.ID, OrganizationID: org, Role: domain.RoleFinance},
		member:  domain.Principal{UserID: member.ID, OrganizationID: org, Role: domain.RoleMember},
	}
}

// do sends a JSON request as p (anonymous when p is nil).
func (e *testEnv) do(t *testing.T, p *domain.Principal, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if p != nil {
		token, _, err := middleware.GenerateToken(testJWT, *p)
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %T: %v body=%s", out, err, w.Body.String())
	}
	return out
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d body=%s", w.Code, want, w.Body.String())
	}
}

func expectErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, w, status)
	body := decode[middleware.ErrorResponse](t, w)
	if body.Code != code {
		t.Fatalf("code = %q, want %q", body.Code, code)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	expectStatus(t, env.do(t, nil, http.MethodGet, "/health/live", nil), http.StatusOK)
	expectStatus(t, env.do(t, nil, http.MethodGet, "/health/ready", nil), http.StatusOK)

	down := newTestEnvWithPinger(t, fakePinger{err: errors.New("connection refused")})
	w := down.do(t, nil, http.MethodGet, "/health/ready", nil)
	expectStatus(t, w, http.StatusServiceUnavailable)
	if got := decode[Health](t, w); got.Checks["database"] != "error" {
		t.Fatalf("checks = %+v", got.Checks)
	}
}
