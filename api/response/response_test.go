package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace/domain/order"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/orders/o-1", nil)
	c.Set(RequestIDKey, "req-1")
	handler(c)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHandleSuccess(t *testing.T) {
	w, body := perform(t, func(c *gin.Context) {
		HandleSuccess(c, gin.H{"id": "o-1"}, "ok")
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, CodeSuccess, body.Code)
	assert.Equal(t, "ok", body.Message)
	assert.Equal(t, "req-1", body.RequestID)
	assert.Positive(t, body.Timestamp)
	assert.Equal(t, map[string]interface{}{"id": "o-1"}, body.Data)
}

func TestHandleAppError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    int
		message string
	}{
		{"not found", order.NewOrderNotFoundError("o-1"), http.StatusNotFound, 40401, ""},
		{"invalid state", order.NewInvalidOrderStateError(order.StatusPaid, "pay"), http.StatusUnprocessableEntity, 42201, ""},
		{"conflict", fmt.Errorf("save: %w", order.NewConcurrentModificationError("o-1")), http.StatusConflict, 40902, ""},
		{"internal hides message", errors.New("dial tcp: i/o timeout"), http.StatusInternalServerError, 50000, "internal server error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, body := perform(t, func(c *gin.Context) { HandleAppError(c, tc.err) })

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, body.Code)
			assert.Nil(t, body.Data)
			assert.Equal(t, "req-1", body.RequestID)
			if tc.message != "" {
				assert.Equal(t, tc.message, body.Message)
			}
		})
	}
}

func TestHandleAppErrorWithData(t *testing.T) {
	w, body := perform(t, func(c *gin.Context) {
		HandleAppErrorWithData(c, order.NewRefundEscalatedError("o-1"), gin.H{"status": "DISPUTED"})
	})

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 20201, body.Code)
	assert.Equal(t, "REFUND_ESCALATED", body.Error)
	assert.Equal(t, map[string]interface{}{"status": "DISPUTED"}, body.Data)
}

func TestHandleError(t *testing.T) {
	w, body := perform(t, func(c *gin.Context) {
		HandleError(c, errors.New("EOF"), "invalid request parameters")
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40000, body.Code)
	assert.Equal(t, "invalid request parameters", body.Message)
}
