package ctxutil

import (
	"context"

	"marketplace/api/response"
	apporder "marketplace/application/order"
	"marketplace/infrastructure/persistence"

	"github.com/gin-gonic/gin"
)

const callerKey = "caller"

// WithRequestID 把请求 ID 放进标准 context，供仓储和日志使用
func WithRequestID(ctx *gin.Context) context.Context {
	requestID := response.GetRequestID(ctx)
	return persistence.ContextWithRequestID(ctx.Request.Context(), requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	return persistence.RequestIDFromContext(ctx)
}

// SetCaller 由认证中间件写入
func SetCaller(ctx *gin.Context, caller apporder.Caller) {
	ctx.Set(callerKey, caller)
}

// CallerFrom 返回认证后的调用方，未认证时 ok=false
func CallerFrom(ctx *gin.Context) (apporder.Caller, bool) {
	v, exists := ctx.Get(callerKey)
	if !exists {
		return apporder.Caller{}, false
	}
	caller, ok := v.(apporder.Caller)
	return caller, ok && caller.ID != ""
}
