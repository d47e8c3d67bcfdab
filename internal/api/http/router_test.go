package http

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/api/http/handlers"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/service"
	"github.com/spec-kit/sla-engine/internal/sla"
)

var opened = time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) (*fiber.App, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	require.NoError(t, store.CreatePolicy(context.Background(), &domain.Policy{
		Name:                  "high",
		Priority:              domain.PriorityHigh,
		ResponseTimeMinutes:   60,
		ResolutionTimeMinutes: 480,
		IsActive:              true,
	}))

	now := func() time.Time { return opened.Add(30 * time.Minute) }
	assigner := sla.NewAssigner(sla.AssignerDependencies{
		Catalog:  sla.NewCatalog(store, nil),
		Calendar: sla.NewCalendar(sla.WithLocation(time.UTC)),
		Store:    store,
		Now:      now,
	})
	slaService := service.NewSLAService(service.SLADependencies{
		Assigner:   assigner,
		Reconciler: sla.NewReconciler(sla.ReconcilerDependencies{Tickets: store, Records: store, Assigner: assigner}),
		Aggregator: sla.NewAggregator(store),
		Records:    store,
		Now:        now,
	})

	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:   handlers.NewHealthHandler("sla-engine", "test", nil),
		SLA:      handlers.NewSLAHandler(slaService),
		Policies: handlers.NewPoliciesHandler(service.NewPolicyService(store.Policies(), nil)),
		Metrics:  metrics,
	})
	return app, store
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp.StatusCode, decoded
}

func TestStats_EmptyShape(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, nethttp.MethodGet, "/sla/stats", "")

	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, map[string]any{
		"total":              float64(0),
		"onTrack":            float64(0),
		"atRisk":             float64(0),
		"breached":           float64(0),
		"responseBreaches":   float64(0),
		"resolutionBreaches": float64(0),
		"complianceRate":     "100.0",
	}, body)
}

func TestTicketLifecycle(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, nethttp.MethodPost, "/sla/tickets",
		`{"id":"t-1","priority":"HIGH","created_at":"2024-06-03T10:00:00Z"}`)
	require.Equal(t, nethttp.StatusCreated, status, body)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["created"])
	record := data["record"].(map[string]any)
	assert.Equal(t, "on_track", record["status"])
	assert.Equal(t, "2024-06-03T11:00:00Z", record["response_deadline"])

	status, _ = do(t, app, nethttp.MethodPost, "/sla/tickets",
		`{"id":"t-1","priority":"high","created_at":"2024-06-03T10:00:00Z"}`)
	assert.Equal(t, nethttp.StatusOK, status)

	status, body = do(t, app, nethttp.MethodPost, "/sla/tickets/t-1/first-response", `{"at":"2024-06-03T11:30:00Z"}`)
	require.Equal(t, nethttp.StatusOK, status, body)
	record = body["data"].(map[string]any)
	assert.Equal(t, true, record["response_breached"])
	assert.Equal(t, "breached", record["status"])

	status, body = do(t, app, nethttp.MethodPost, "/sla/tickets/t-1/resolve", "")
	require.Equal(t, nethttp.StatusOK, status, body)
	record = body["data"].(map[string]any)
	assert.NotEmpty(t, record["resolved_at"])

	status, body = do(t, app, nethttp.MethodGet, "/sla/stats", "")
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, float64(0), body["total"])
	assert.Equal(t, float64(1), body["responseBreaches"])
	assert.Equal(t, "0.0", body["complianceRate"])
}

func TestRegisterTicket_Validation(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, nethttp.MethodPost, "/sla/tickets", `{"id":"t-1","priority":"eventually"}`)

	require.Equal(t, nethttp.StatusBadRequest, status)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
	assert.Equal(t, "priority", errBody["details"].(map[string]any)["priority"])
}

func TestRegisterTicket_WithoutPolicyIsSkipped(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, nethttp.MethodPost, "/sla/tickets", `{"id":"t-1","priority":"low"}`)

	require.Equal(t, nethttp.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["skipped"])
	assert.Nil(t, data["record"])
}

func TestGetRecord_NotFound(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, nethttp.MethodGet, "/sla/tickets/missing", "")

	require.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}

func TestReconcileEndpoint(t *testing.T) {
	app, store := newTestApp(t)
	store.PutTicket(domain.TicketRef{ID: "legacy", Priority: domain.PriorityHigh, CreatedAt: opened})

	status, body := do(t, app, nethttp.MethodPost, "/sla/reconcile", "")

	require.Equal(t, nethttp.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["created"])
	assert.Equal(t, float64(0), data["skipped"])
}

func TestPolicyEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, nethttp.MethodPost, "/sla/policies",
		`{"name":"low","priority":"low","response_time_minutes":240,"resolution_time_minutes":2400}`)
	require.Equal(t, nethttp.StatusCreated, status, body)
	policy := body["data"].(map[string]any)
	assert.Equal(t, true, policy["is_active"])
	id := policy["id"].(string)

	status, body = do(t, app, nethttp.MethodPost, "/sla/policies",
		`{"name":"high again","priority":"high","response_time_minutes":30,"resolution_time_minutes":240}`)
	require.Equal(t, nethttp.StatusConflict, status)
	assert.Equal(t, "CONFLICT", body["error"].(map[string]any)["code"])

	status, body = do(t, app, nethttp.MethodPost, "/sla/policies",
		`{"name":"bad","priority":"medium","response_time_minutes":60,"resolution_time_minutes":30}`)
	require.Equal(t, nethttp.StatusBadRequest, status, body)

	status, body = do(t, app, nethttp.MethodGet, "/sla/policies", "")
	require.Equal(t, nethttp.StatusOK, status)
	assert.Len(t, body["data"].([]any), 2)

	status, body = do(t, app, nethttp.MethodPost, "/sla/policies/"+id+"/deactivate", "")
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, false, body["data"].(map[string]any)["is_active"])
}

func TestHealthAndMetrics(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, nethttp.MethodGet, "/health/ready", "")
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	_, _ = do(t, app, nethttp.MethodGet, "/sla/stats", "")

	req := httptest.NewRequest(nethttp.MethodGet, "/metrics", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "http_requests_total")
}

func TestMetricsAfterErrors(t *testing.T) {
	app, _ := newTestApp(t)

	for _, id := range []string{"a1", "b2", "c3"} {
		status, _ := do(t, app, nethttp.MethodGet, "/sla/tickets/"+id, "")
		require.Equal(t, nethttp.StatusNotFound, status)
	}

	req := httptest.NewRequest(nethttp.MethodGet, "/metrics", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Equal(t, nethttp.StatusOK, resp.StatusCode, string(raw))
	assert.Contains(t, string(raw), `route="/sla/tickets/:id"`)
	assert.NotContains(t, string(raw), "/sla/tickets/a1")
}

func TestUnknownRoute(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, nethttp.MethodGet, "/nope", "")

	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}
