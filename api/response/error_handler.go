package response

import (
	stdErrors "errors"
	"net/http"
	"runtime"
	"time"

	"marketplace/domain/shared"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get(RequestIDKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

func GetRequestID(c *gin.Context) string {
	return getRequestID(c)
}

func captureStack(skip int) []string {
	var pcs [16]uintptr
	n := runtime.Callers(skip, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		frame, more := frames.Next()
		if frame.Function != "" {
			stack = append(stack, frame.Function)
		}
		if !more {
			break
		}
	}
	return stack
}

// HandleError 处理参数绑定等框架层错误，固定返回 400。
func HandleError(c *gin.Context, err error, message string) {
	requestID := getRequestID(c)

	logger.Warn(message,
		zap.String("request_id", requestID),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Error(err))

	Abort(c, errors.BadRequest(message))
}

// Abort 直接写出应用错误，不记日志。中间件拒绝请求时使用。
func Abort(c *gin.Context, appErr *errors.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPStatusCode(), &Response{
		Code:      appErr.NumericCode(),
		Message:   appErr.Message,
		Error:     string(appErr.Code),
		Timestamp: time.Now().UnixMilli(),
		RequestID: getRequestID(c),
	})
}

// HandleAppError 按应用错误码自动映射 HTTP 状态码。
func HandleAppError(c *gin.Context, err error) {
	HandleAppErrorWithData(c, err, nil)
}

// HandleAppErrorWithData 同 HandleAppError，但信封里带上 data。
// 退款升级为纠纷时订单已经提交，客户端需要拿到最新状态。
func HandleAppErrorWithData(c *gin.Context, err error, data interface{}) {
	requestID := getRequestID(c)
	appErr := errors.FromDomainError(err)
	httpStatus := appErr.HTTPStatusCode()

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.String("error_code", string(appErr.Code)),
		zap.Int("http_status", httpStatus),
	}
	if appErr.Err != nil {
		fields = append(fields, zap.Error(appErr.Err))
	}

	switch {
	case appErr.IsInternal():
		fields = append(fields, zap.Strings("stack", extractStack(err)))
		logger.Error(appErr.Message, fields...)
	case httpStatus < http.StatusBadRequest:
		logger.Info(appErr.Message, fields...)
	default:
		logger.Warn(appErr.Message, fields...)
	}

	userMessage := appErr.Message
	if appErr.IsInternal() {
		userMessage = "internal server error"
	}

	c.JSON(httpStatus, &Response{
		Code:      appErr.NumericCode(),
		Message:   userMessage,
		Data:      data,
		Error:     string(appErr.Code),
		Timestamp: time.Now().UnixMilli(),
		RequestID: requestID,
	})
}

func extractStack(err error) []string {
	var stacker shared.Stacker
	if stdErrors.As(err, &stacker) {
		if stack := stacker.Stack(); len(stack) > 0 {
			return stack
		}
	}
	return captureStack(5)
}
