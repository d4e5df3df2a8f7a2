/*
Package errors 应用层错误：错误码、信封数值码与 HTTP 状态码的映射，
以及领域哨兵错误到应用错误的转换。
*/
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"marketplace/domain/address"
	"marketplace/domain/goods"
	"marketplace/domain/order"
	"marketplace/domain/shared"
	"marketplace/pkg/idgen"
)

// ErrorCode 错误码
type ErrorCode string

const (
	// 通用错误码
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	CodeForbidden      ErrorCode = "FORBIDDEN"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeConflict       ErrorCode = "CONFLICT"
	CodeTooManyRequest ErrorCode = "TOO_MANY_REQUESTS"
	CodeValidation     ErrorCode = "VALIDATION_ERROR"

	// 业务错误码
	CodeOrderNotFound          ErrorCode = "ORDER_NOT_FOUND"
	CodeGoodsNotFound          ErrorCode = "GOODS_NOT_FOUND"
	CodeAddressNotFound        ErrorCode = "ADDRESS_NOT_FOUND"
	CodeInvalidOrderState      ErrorCode = "INVALID_ORDER_STATE"
	CodeStockInsufficient      ErrorCode = "STOCK_INSUFFICIENT"
	CodeActiveOrderLimit       ErrorCode = "ACTIVE_ORDER_LIMIT"
	CodeSelfPurchase           ErrorCode = "SELF_PURCHASE"
	CodeGoodsNotPurchasable    ErrorCode = "GOODS_NOT_PURCHASABLE"
	CodeRefundEscalated        ErrorCode = "REFUND_ESCALATED"
	CodeConcurrentModification ErrorCode = "CONCURRENT_MODIFICATION"
	CodeClockRollback          ErrorCode = "CLOCK_ROLLBACK"
)

type codeInfo struct {
	numeric int
	status  int
}

// 信封中的数值码，0 表示成功
var codeTable = map[ErrorCode]codeInfo{
	CodeBadRequest:             {40000, http.StatusBadRequest},
	CodeValidation:             {40000, http.StatusBadRequest},
	CodeUnauthorized:           {40100, http.StatusUnauthorized},
	CodeForbidden:              {40300, http.StatusForbidden},
	CodeNotFound:               {40400, http.StatusNotFound},
	CodeOrderNotFound:          {40401, http.StatusNotFound},
	CodeGoodsNotFound:          {40402, http.StatusNotFound},
	CodeAddressNotFound:        {40403, http.StatusNotFound},
	CodeConflict:               {40900, http.StatusConflict},
	CodeStockInsufficient:      {40901, http.StatusConflict},
	CodeConcurrentModification: {40902, http.StatusConflict},
	CodeInvalidOrderState:      {42201, http.StatusUnprocessableEntity},
	CodeSelfPurchase:           {42203, http.StatusUnprocessableEntity},
	CodeGoodsNotPurchasable:    {42204, http.StatusUnprocessableEntity},
	CodeTooManyRequest:         {42900, http.StatusTooManyRequests},
	CodeActiveOrderLimit:       {42902, http.StatusTooManyRequests},
	CodeRefundEscalated:        {20201, http.StatusAccepted},
	CodeInternal:               {50000, http.StatusInternalServerError},
	CodeClockRollback:          {50001, http.StatusInternalServerError},
}

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode 返回对应的HTTP状态码
func (e *AppError) HTTPStatusCode() int {
	if info, ok := codeTable[e.Code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// NumericCode 响应信封中的 code 字段
func (e *AppError) NumericCode() int {
	if info, ok := codeTable[e.Code]; ok {
		return info.numeric
	}
	return codeTable[CodeInternal].numeric
}

// IsInternal 内部错误的消息不对外暴露
func (e *AppError) IsInternal() bool {
	return e.HTTPStatusCode() >= http.StatusInternalServerError
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 常用错误构造函数

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message)
}

func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

func TooManyRequests(message string) *AppError {
	return New(CodeTooManyRequest, message)
}

func Validation(message string) *AppError {
	return New(CodeValidation, message)
}

// Is 检查是否为特定错误码
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// 哨兵错误 → 错误码，按顺序匹配，具体的在前
var domainMappings = []struct {
	sentinel error
	code     ErrorCode
}{
	{order.ErrOrderNotFound, CodeOrderNotFound},
	{goods.ErrGoodsNotFound, CodeGoodsNotFound},
	{address.ErrAddressNotFound, CodeAddressNotFound},
	{order.ErrOrderForbidden, CodeForbidden},
	{order.ErrInvalidOrderState, CodeInvalidOrderState},
	{goods.ErrStockInsufficient, CodeStockInsufficient},
	{goods.ErrGoodsNotPurchasable, CodeGoodsNotPurchasable},
	{order.ErrActiveOrderLimit, CodeActiveOrderLimit},
	{order.ErrSelfPurchase, CodeSelfPurchase},
	{order.ErrRefundEscalated, CodeRefundEscalated},
	{order.ErrConcurrentModification, CodeConcurrentModification},
	{order.ErrStockAlreadyReleased, CodeConflict},
	{order.ErrEmptyOrderItems, CodeValidation},
	{order.ErrInvalidQuantity, CodeValidation},
	{order.ErrInvalidShipment, CodeValidation},
	{idgen.ErrClockMovedBackwards, CodeClockRollback},
	{shared.ErrNotFound, CodeNotFound},
	{shared.ErrConflict, CodeConflict},
	{shared.ErrInvalidInput, CodeValidation},
	{shared.ErrUnauthorized, CodeUnauthorized},
	{shared.ErrForbidden, CodeForbidden},
}

// FromDomainError 将领域错误映射为应用错误，保留原始错误链。
// 无法识别的错误视为内部错误。
func FromDomainError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	for _, m := range domainMappings {
		if errors.Is(err, m.sentinel) {
			return Wrap(err, m.code, err.Error())
		}
	}
	return Wrap(err, CodeInternal, "internal server error")
}
