// Package admin 管理员接口：纠纷列表、仲裁、代卖家发货
package admin

import (
	"context"

	"marketplace/api/ctxutil"
	"marketplace/api/response"
	orderapp "marketplace/application/order"
	"marketplace/pkg/errors"

	"github.com/gin-gonic/gin"
)

type Service interface {
	ListDisputes(ctx context.Context, caller orderapp.Caller, q orderapp.ListOrdersQuery) (*orderapp.DisputePageResponse, error)
	ResolveDispute(ctx context.Context, caller orderapp.Caller, orderID string, req orderapp.ResolveDisputeRequest) (*orderapp.OrderResponse, error)
	Ship(ctx context.Context, caller orderapp.Caller, orderID string, req orderapp.ShipRequest) (*orderapp.OrderResponse, error)
}

type Controller struct {
	orderService Service
}

func NewController(orderService Service) *Controller {
	return &Controller{orderService: orderService}
}

// RegisterRoutes router 需已挂载认证与 RequireAdmin
func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	adminGroup := router.Group("/admin")
	{
		adminGroup.GET("/disputes", c.ListDisputes)
		adminGroup.POST("/orders/:id/resolve", c.ResolveDispute)
		adminGroup.POST("/orders/:id/ship", c.Ship)
	}
}

// ListDisputes GET /api/v1/admin/disputes?page=&size=
func (c *Controller) ListDisputes(ctx *gin.Context) {
	caller, ok := ctxutil.CallerFrom(ctx)
	if !ok {
		response.Abort(ctx, errors.Unauthorized("authentication required"))
		return
	}

	var q orderapp.ListOrdersQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		response.HandleError(ctx, err, "invalid query parameters")
		return
	}

	page, err := c.orderService.ListDisputes(ctxutil.WithRequestID(ctx), caller, q)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, page, "disputes retrieved successfully")
}

// ResolveDispute POST /api/v1/admin/orders/:id/resolve
func (c *Controller) ResolveDispute(ctx *gin.Context) {
	caller, ok := ctxutil.CallerFrom(ctx)
	if !ok {
		response.Abort(ctx, errors.Unauthorized("authentication required"))
		return
	}

	var req orderapp.ResolveDisputeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters")
		return
	}

	order, err := c.orderService.ResolveDispute(ctxutil.WithRequestID(ctx), caller, ctx.Param("id"), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, order, "dispute resolved successfully")
}

// Ship 管理员代卖家发货
// POST /api/v1/admin/orders/:id/ship
func (c *Controller) Ship(ctx *gin.Context) {
	caller, ok := ctxutil.CallerFrom(ctx)
	if !ok {
		response.Abort(ctx, errors.Unauthorized("authentication required"))
		return
	}

	var req orderapp.ShipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters")
		return
	}

	order, err := c.orderService.Ship(ctxutil.WithRequestID(ctx), caller, ctx.Param("id"), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, order, "order shipped successfully")
}
