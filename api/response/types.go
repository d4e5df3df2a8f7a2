/*
Package response API 层统一响应

	成功: { code: 0, message: "...", data: {...}, timestamp: 1735689600000, request_id: "..." }
	失败: { code: 40401, message: "用户可见消息", error: "ORDER_NOT_FOUND", timestamp: ..., request_id: "..." }

HTTP 状态码由应用错误码决定；内部错误只返回 "internal server error"，真实错误只进日志。
*/
package response

// RequestIDKey 是 gin context 中保存请求 ID 的键。
const RequestIDKey = "request_id"

// CodeSuccess 信封中表示成功的数值码
const CodeSuccess = 0

// Response 是统一响应结构。timestamp 为毫秒。
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
	Error     string      `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}
