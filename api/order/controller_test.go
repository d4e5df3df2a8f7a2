package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"marketplace/api/ctxutil"
	"marketplace/api/response"
	orderapp "marketplace/application/order"
	"marketplace/domain/order"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	caller    orderapp.Caller
	orderID   string
	reason    string
	approved  bool
	createReq orderapp.CreateOrderRequest
	query     orderapp.ListOrdersQuery
	err       error
}

func (f *fakeService) resp(status order.Status) *orderapp.OrderResponse {
	return &orderapp.OrderResponse{ID: f.orderID, Status: string(status)}
}

func (f *fakeService) CreateOrder(_ context.Context, caller orderapp.Caller, req orderapp.CreateOrderRequest) ([]*orderapp.OrderResponse, error) {
	f.caller, f.createReq = caller, req
	if f.err != nil {
		return nil, f.err
	}
	return []*orderapp.OrderResponse{{ID: "o-1", Status: string(order.StatusPendingPay)}}, nil
}

func (f *fakeService) Pay(_ context.Context, caller orderapp.Caller, orderID string) (*orderapp.OrderResponse, error) {
	f.caller, f.orderID = caller, orderID
	if f.err != nil {
		return nil, f.err
	}
	return f.resp(order.StatusPaid), nil
}

func (f *fakeService) Cancel(_ context.Context, caller orderapp.Caller, orderID, reason string) (*orderapp.OrderResponse, error) {
	f.caller, f.orderID, f.reason = caller, orderID, reason
	return f.resp(order.StatusCanceled), f.err
}

func (f *fakeService) Ship(_ context.Context, caller orderapp.Caller, orderID string, _ orderapp.ShipRequest) (*orderapp.OrderResponse, error) {
	f.caller, f.orderID = caller, orderID
	return f.resp(order.StatusShipped), f.err
}

func (f *fakeService) ConfirmReceive(_ context.Context, caller orderapp.Caller, orderID string) (*orderapp.OrderResponse, error) {
	f.caller, f.orderID = caller, orderID
	return f.resp(order.StatusCompleted), f.err
}

func (f *fakeService) RequestRefund(_ context.Context, caller orderapp.Caller, orderID, reason string) (*orderapp.OrderResponse, error) {
	f.caller, f.orderID, f.reason = caller, orderID, reason
	if errors.Is(f.err, order.ErrRefundEscalated) {
		return f.resp(order.StatusDisputed), f.err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.resp(order.StatusRefunding), nil
}

func (f *fakeService) HandleRefund(_ context.Context, caller orderapp.Caller, orderID string, approved bool, _ string) (*orderapp.OrderResponse, error) {
	f.caller, f.orderID, f.approved = caller, orderID, approved
	return f.resp(order.StatusRefunded), f.err
}

func (f *fakeService) DeleteOrder(_ context.Context, caller orderapp.Caller, orderID string) error {
	f.caller, f.orderID = caller, orderID
	return f.err
}

func (f *fakeService) GetOrder(_ context.Context, caller orderapp.Caller, orderID string) (*orderapp.OrderResponse, error) {
	f.caller, f.orderID = caller, orderID
	if f.err != nil {
		return nil, f.err
	}
	return f.resp(order.StatusPaid), nil
}

func (f *fakeService) ListBuyerOrders(_ context.Context, caller orderapp.Caller, q orderapp.ListOrdersQuery) (*orderapp.OrderPageResponse, error) {
	f.caller, f.query = caller, q
	return &orderapp.OrderPageResponse{Page: q.Page, Size: q.Size}, f.err
}

func (f *fakeService) ListSellerOrders(_ context.Context, caller orderapp.Caller, q orderapp.ListOrdersQuery) (*orderapp.OrderPageResponse, error) {
	f.caller, f.query = caller, q
	return &orderapp.OrderPageResponse{Page: q.Page, Size: q.Size}, f.err
}

var buyer = orderapp.Caller{ID: "buyer-1", Role: orderapp.RoleUser}

func newEngine(svc Service, caller *orderapp.Caller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set(response.RequestIDKey, "req-1")
		if caller != nil {
			ctxutil.SetCaller(c, *caller)
		}
	})
	NewController(svc).RegisterRoutes(api)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestCreateOrder(t *testing.T) {
	svc := &fakeService{}
	r := newEngine(svc, &buyer)

	w, env := do(t, r, http.MethodPost, "/api/v1/orders",
		`{"address_id":"addr-1","items":[{"goods_id":"g-1","quantity":2}]}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, response.CodeSuccess, env.Code)
	assert.Equal(t, buyer, svc.caller)
	assert.Equal(t, "addr-1", svc.createReq.AddressID)
	assert.Equal(t, 2, svc.createReq.Items[0].Quantity)
}

func TestCreateOrderValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing address", `{"items":[{"goods_id":"g-1","quantity":1}]}`},
		{"no items", `{"address_id":"addr-1","items":[]}`},
		{"zero quantity", `{"address_id":"addr-1","items":[{"goods_id":"g-1","quantity":0}]}`},
		{"not json", `address_id=addr-1`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, env := do(t, newEngine(&fakeService{}, &buyer), http.MethodPost, "/api/v1/orders", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, 40000, env.Code)
		})
	}
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status string
	}{
		{"pay", http.MethodPost, "/api/v1/orders/o-9/pay", "", "PAID"},
		{"cancel", http.MethodPost, "/api/v1/orders/o-9/cancel?reason=changed+mind", "", "CANCELED"},
		{"ship", http.MethodPost, "/api/v1/orders/o-9/ship", `{"ship_company":"SF","tracking_no":"SF1"}`, "SHIPPED"},
		{"receive", http.MethodPost, "/api/v1/orders/o-9/receive", "", "COMPLETED"},
		{"refund", http.MethodPost, "/api/v1/orders/o-9/refund?reason=broken", "", "REFUNDING"},
		{"handle refund", http.MethodPost, "/api/v1/orders/o-9/refund/handle?approved=true", "", "REFUNDED"},
		{"get", http.MethodGet, "/api/v1/orders/o-9", "", "PAID"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{}
			w, env := do(t, newEngine(svc, &buyer), tc.method, tc.path, tc.body)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, response.CodeSuccess, env.Code)
			assert.Equal(t, "o-9", svc.orderID)
			assert.Equal(t, tc.status, env.Data.(map[string]interface{})["status"])
		})
	}
}

func TestCancelPassesReason(t *testing.T) {
	svc := &fakeService{}
	do(t, newEngine(svc, &buyer), http.MethodPost, "/api/v1/orders/o-9/cancel?reason=changed+mind", "")
	assert.Equal(t, "changed mind", svc.reason)
}

func TestHandleRefundRequiresDecision(t *testing.T) {
	w, env := do(t, newEngine(&fakeService{}, &buyer), http.MethodPost, "/api/v1/orders/o-9/refund/handle?approved=maybe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40000, env.Code)
}

func TestDomainErrorsMapToEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"not found", order.NewOrderNotFoundError("o-9"), http.StatusNotFound, 40401},
		{"forbidden", order.NewForbiddenError("o-9", "buyer-1", "pay"), http.StatusForbidden, 40300},
		{"invalid state", order.NewInvalidOrderStateError(order.StatusCanceled, "pay"), http.StatusUnprocessableEntity, 42201},
		{"conflict", order.NewConcurrentModificationError("o-9"), http.StatusConflict, 40902},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, env := do(t, newEngine(&fakeService{err: tc.err}, &buyer), http.MethodPost, "/api/v1/orders/o-9/pay", "")
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, env.Code)
			assert.Nil(t, env.Data)
		})
	}
}

func TestRefundEscalationKeepsOrder(t *testing.T) {
	svc := &fakeService{err: order.NewRefundEscalatedError("o-9")}
	w, env := do(t, newEngine(svc, &buyer), http.MethodPost, "/api/v1/orders/o-9/refund?reason=again", "")

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 20201, env.Code)
	assert.Equal(t, "DISPUTED", env.Data.(map[string]interface{})["status"])
}

func TestListOrders(t *testing.T) {
	svc := &fakeService{}
	r := newEngine(svc, &buyer)

	w, _ := do(t, r, http.MethodGet, "/api/v1/orders?status=PAID&page=2&size=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, orderapp.ListOrdersQuery{Status: "PAID", Page: 2, Size: 5}, svc.query)

	w, _ = do(t, r, http.MethodGet, "/api/v1/orders/seller", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, orderapp.ListOrdersQuery{}, svc.query)
}

func TestDeleteOrder(t *testing.T) {
	svc := &fakeService{}
	w, env := do(t, newEngine(svc, &buyer), http.MethodDelete, "/api/v1/orders/o-9", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, env.Data)
	assert.Equal(t, "o-9", svc.orderID)
}

func TestRequiresCaller(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{"pay", "/api/v1/orders/o-9/pay", ""},
		{"ship with bad body", "/api/v1/orders/o-9/ship", "{"},
		{"handle refund with bad flag", "/api/v1/orders/o-9/refund/handle?approved=maybe", ""},
		{"create with bad body", "/api/v1/orders", "{"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{}
			w, env := do(t, newEngine(svc, nil), http.MethodPost, tc.path, tc.body)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, 40100, env.Code)
			assert.Empty(t, svc.orderID)
		})
	}
}
