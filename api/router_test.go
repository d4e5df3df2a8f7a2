package api

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace/api/admin"
	"marketplace/api/health"
	"marketplace/api/middleware"
	"marketplace/api/order"
	orderapp "marketplace/application/order"
	"marketplace/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubService 满足订单与管理员两个控制器
type stubService struct{}

func (stubService) CreateOrder(context.Context, orderapp.Caller, orderapp.CreateOrderRequest) ([]*orderapp.OrderResponse, error) {
	return nil, nil
}

func (stubService) Pay(_ context.Context, _ orderapp.Caller, id string) (*orderapp.OrderResponse, error) {
	return &orderapp.OrderResponse{ID: id, Status: "PAID"}, nil
}

func (stubService) Cancel(context.Context, orderapp.Caller, string, string) (*orderapp.OrderResponse, error) {
	return nil, nil
}

func (stubService) Ship(context.Context, orderapp.Caller, string, orderapp.ShipRequest) (*orderapp.OrderResponse, error) {
	return nil, nil
}

func (stubService) ConfirmReceive(context.Context, orderapp.Caller, string) (*orderapp.OrderResponse, error) {
	return nil, nil
}

func (stubService) RequestRefund(context.Context, orderapp.Caller, string, string) (*orderapp.OrderResponse, error) {
	return nil, nil
}

func (stubService) HandleRefund(context.Context, orderapp.Caller, string, bool, string) (*orderapp.OrderResponse, error) {
	return nil, nil
}

func (stubService) DeleteOrder(context.Context, orderapp.Caller, string) error { return nil }

func (stubService) GetOrder(context.Context, orderapp.Caller, string) (*orderapp.OrderResponse, error) {
	return nil, nil
}

func (stubService) ListBuyerOrders(context.Context, orderapp.Caller, orderapp.ListOrdersQuery) (*orderapp.OrderPageResponse, error) {
	return &orderapp.OrderPageResponse{}, nil
}

func (stubService) ListSellerOrders(context.Context, orderapp.Caller, orderapp.ListOrdersQuery) (*orderapp.OrderPageResponse, error) {
	return &orderapp.OrderPageResponse{}, nil
}

func (stubService) ListDisputes(context.Context, orderapp.Caller, orderapp.ListOrdersQuery) (*orderapp.DisputePageResponse, error) {
	return &orderapp.DisputePageResponse{}, nil
}

func (stubService) ResolveDispute(context.Context, orderapp.Caller, string, orderapp.ResolveDisputeRequest) (*orderapp.OrderResponse, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) (*Router, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		App:  config.AppConfig{Name: "marketplace", Version: "test", Env: "test"},
		Auth: config.AuthConfig{JWTSecret: "router-secret", Issuer: "marketplace", TokenTTL: time.Hour},
		CORS: config.CORSConfig{AllowOrigins: []string{"*"}, AllowMethods: []string{"GET", "POST"}},
	}
	reg := prometheus.NewRegistry()
	svc := stubService{}

	r := NewRouter(cfg,
		middleware.NewHTTPMetrics(reg),
		reg,
		health.NewController(cfg, nil),
		order.NewController(svc),
		admin.NewController(svc),
	)
	r.SetupRoutes()
	return r, cfg
}

func serve(r *Router, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, req)
	return w
}

func TestRouterAuthBoundaries(t *testing.T) {
	r, cfg := newTestRouter(t)
	userToken, err := middleware.IssueToken(&cfg.Auth, "u-1", orderapp.RoleUser, time.Now())
	require.NoError(t, err)
	adminToken, err := middleware.IssueToken(&cfg.Auth, "admin-1", orderapp.RoleAdmin, time.Now())
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"health is public", http.MethodGet, "/api/v1/health", "", http.StatusOK},
		{"readiness is public", http.MethodGet, "/api/v1/health/ready", "", http.StatusOK},
		{"orders need a token", http.MethodPost, "/api/v1/orders/o-1/pay", "", http.StatusUnauthorized},
		{"user pays", http.MethodPost, "/api/v1/orders/o-1/pay", userToken, http.StatusOK},
		{"user cannot open admin", http.MethodGet, "/api/v1/admin/disputes", userToken, http.StatusForbidden},
		{"admin lists disputes", http.MethodGet, "/api/v1/admin/disputes", adminToken, http.StatusOK},
		{"root info", http.MethodGet, "/", "", http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, serve(r, tc.method, tc.path, tc.token).Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, cfg := newTestRouter(t)
	token, err := middleware.IssueToken(&cfg.Auth, "u-1", orderapp.RoleUser, time.Now())
	require.NoError(t, err)

	serve(r, http.MethodPost, "/api/v1/orders/o-1/pay", token)

	w := serve(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="POST",path="/api/v1/orders/:id/pay",status="200"} 1`)
}

func TestGzipResponses(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, req)

	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"status":"healthy"`)
}
