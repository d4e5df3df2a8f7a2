/*
Package order 订单 API 控制器

参数绑定错误用 response.HandleError 直接返回 400；
业务错误交给 response.HandleAppError，由错误码决定状态码。
调用方身份只来自认证中间件，不接受请求体里的用户 ID。
*/
package order

import (
	"context"
	"strconv"

	"marketplace/api/ctxutil"
	"marketplace/api/response"
	orderapp "marketplace/application/order"
	"marketplace/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Service 控制器依赖的订单用例
type Service interface {
	CreateOrder(ctx context.Context, caller orderapp.Caller, req orderapp.CreateOrderRequest) ([]*orderapp.OrderResponse, error)
	Pay(ctx context.Context, caller orderapp.Caller, orderID string) (*orderapp.OrderResponse, error)
	Cancel(ctx context.Context, caller orderapp.Caller, orderID, reason string) (*orderapp.OrderResponse, error)
	Ship(ctx context.Context, caller orderapp.Caller, orderID string, req orderapp.ShipRequest) (*orderapp.OrderResponse, error)
	ConfirmReceive(ctx context.Context, caller orderapp.Caller, orderID string) (*orderapp.OrderResponse, error)
	RequestRefund(ctx context.Context, caller orderapp.Caller, orderID, reason string) (*orderapp.OrderResponse, error)
	HandleRefund(ctx context.Context, caller orderapp.Caller, orderID string, approved bool, remark string) (*orderapp.OrderResponse, error)
	DeleteOrder(ctx context.Context, caller orderapp.Caller, orderID string) error
	GetOrder(ctx context.Context, caller orderapp.Caller, orderID string) (*orderapp.OrderResponse, error)
	ListBuyerOrders(ctx context.Context, caller orderapp.Caller, q orderapp.ListOrdersQuery) (*orderapp.OrderPageResponse, error)
	ListSellerOrders(ctx context.Context, caller orderapp.Caller, q orderapp.ListOrdersQuery) (*orderapp.OrderPageResponse, error)
}

// Controller 订单控制器
type Controller struct {
	orderService Service
}

// NewController 创建订单控制器
func NewController(orderService Service) *Controller {
	return &Controller{
		orderService: orderService,
	}
}

// RegisterRoutes 注册订单路由，router 需已挂载认证中间件
func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	orderGroup := router.Group("/orders")
	{
		orderGroup.POST("", c.CreateOrder)
		orderGroup.GET("", c.ListBuyerOrders)
		orderGroup.GET("/seller", c.ListSellerOrders)
		orderGroup.GET("/:id", c.GetOrder)
		orderGroup.DELETE("/:id", c.DeleteOrder)
		orderGroup.POST("/:id/pay", c.Pay)
		orderGroup.POST("/:id/cancel", c.Cancel)
		orderGroup.POST("/:id/ship", c.Ship)
		orderGroup.POST("/:id/receive", c.ConfirmReceive)
		orderGroup.POST("/:id/refund", c.RequestRefund)
		orderGroup.POST("/:id/refund/handle", c.HandleRefund)
	}
}

// CreateOrder 下单，一次请求可能按卖家拆成多笔订单
// POST /api/v1/orders
func (c *Controller) CreateOrder(ctx *gin.Context) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}

	var req orderapp.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters")
		return
	}

	orders, err := c.orderService.CreateOrder(ctxutil.WithRequestID(ctx), caller, req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleCreated(ctx, orders, "order created successfully")
}

// GetOrder 买家、卖家或管理员可见
// GET /api/v1/orders/:id
func (c *Controller) GetOrder(ctx *gin.Context) {
	c.query(ctx, func(reqCtx context.Context, caller orderapp.Caller, orderID string) (interface{}, error) {
		return c.orderService.GetOrder(reqCtx, caller, orderID)
	}, "order retrieved successfully")
}

// ListBuyerOrders GET /api/v1/orders?status=&page=&size=
func (c *Controller) ListBuyerOrders(ctx *gin.Context) {
	c.list(ctx, c.orderService.ListBuyerOrders)
}

// ListSellerOrders GET /api/v1/orders/seller?status=&page=&size=
func (c *Controller) ListSellerOrders(ctx *gin.Context) {
	c.list(ctx, c.orderService.ListSellerOrders)
}

// DeleteOrder 买家删除已结束的订单
// DELETE /api/v1/orders/:id
func (c *Controller) DeleteOrder(ctx *gin.Context) {
	c.query(ctx, func(reqCtx context.Context, caller orderapp.Caller, orderID string) (interface{}, error) {
		return nil, c.orderService.DeleteOrder(reqCtx, caller, orderID)
	}, "order deleted successfully")
}

// Pay POST /api/v1/orders/:id/pay
func (c *Controller) Pay(ctx *gin.Context) {
	c.query(ctx, func(reqCtx context.Context, caller orderapp.Caller, orderID string) (interface{}, error) {
		return c.orderService.Pay(reqCtx, caller, orderID)
	}, "order paid successfully")
}

// Cancel POST /api/v1/orders/:id/cancel?reason=
func (c *Controller) Cancel(ctx *gin.Context) {
	reason := ctx.Query("reason")
	c.query(ctx, func(reqCtx context.Context, caller orderapp.Caller, orderID string) (interface{}, error) {
		return c.orderService.Cancel(reqCtx, caller, orderID, reason)
	}, "order canceled successfully")
}

// Ship 卖家发货
// POST /api/v1/orders/:id/ship
func (c *Controller) Ship(ctx *gin.Context) {
	// 先认证再解析请求体
	if _, ok := requireCaller(ctx); !ok {
		return
	}
	var req orderapp.ShipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters")
		return
	}
	c.query(ctx, func(reqCtx context.Context, caller orderapp.Caller, orderID string) (interface{}, error) {
		return c.orderService.Ship(reqCtx, caller, orderID, req)
	}, "order shipped successfully")
}

// ConfirmReceive POST /api/v1/orders/:id/receive
func (c *Controller) ConfirmReceive(ctx *gin.Context) {
	c.query(ctx, func(reqCtx context.Context, caller orderapp.Caller, orderID string) (interface{}, error) {
		return c.orderService.ConfirmReceive(reqCtx, caller, orderID)
	}, "order received successfully")
}

// RequestRefund 达到次数阈值时升级为纠纷，返回 202 与最新订单
// POST /api/v1/orders/:id/refund?reason=
func (c *Controller) RequestRefund(ctx *gin.Context) {
	reason := ctx.Query("reason")
	c.query(ctx, func(reqCtx context.Context, caller orderapp.Caller, orderID string) (interface{}, error) {
		return c.orderService.RequestRefund(reqCtx, caller, orderID, reason)
	}, "refund requested successfully")
}

// HandleRefund 卖家处理退款
// POST /api/v1/orders/:id/refund/handle?approved=&remark=
func (c *Controller) HandleRefund(ctx *gin.Context) {
	if _, ok := requireCaller(ctx); !ok {
		return
	}
	approved, err := strconv.ParseBool(ctx.Query("approved"))
	if err != nil {
		response.HandleError(ctx, err, "approved must be true or false")
		return
	}
	remark := ctx.Query("remark")
	c.query(ctx, func(reqCtx context.Context, caller orderapp.Caller, orderID string) (interface{}, error) {
		return c.orderService.HandleRefund(reqCtx, caller, orderID, approved, remark)
	}, "refund handled successfully")
}

type listFunc func(ctx context.Context, caller orderapp.Caller, q orderapp.ListOrdersQuery) (*orderapp.OrderPageResponse, error)

func (c *Controller) list(ctx *gin.Context, fn listFunc) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}

	var q orderapp.ListOrdersQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		response.HandleError(ctx, err, "invalid query parameters")
		return
	}

	page, err := fn(ctxutil.WithRequestID(ctx), caller, q)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, page, "orders retrieved successfully")
}

type orderFunc func(ctx context.Context, caller orderapp.Caller, orderID string) (interface{}, error)

// query 处理 /orders/:id 形式的请求。出错但带回了订单时（退款升级），信封里保留订单数据
func (c *Controller) query(ctx *gin.Context, fn orderFunc, message string) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}
	orderID := ctx.Param("id")
	if orderID == "" {
		response.HandleError(ctx, errors.BadRequest("order ID is required"), "order ID is required")
		return
	}

	data, err := fn(ctxutil.WithRequestID(ctx), caller, orderID)
	if err != nil {
		if resp, ok := data.(*orderapp.OrderResponse); ok && resp != nil {
			response.HandleAppErrorWithData(ctx, err, resp)
			return
		}
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, data, message)
}

func requireCaller(ctx *gin.Context) (orderapp.Caller, bool) {
	caller, ok := ctxutil.CallerFrom(ctx)
	if !ok {
		response.Abort(ctx, errors.Unauthorized("authentication required"))
	}
	return caller, ok
}
