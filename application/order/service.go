/*
Package order 订单应用服务 - 下单与订单状态机的用例编排

1. 每个用例使用一个新的 UnitOfWork：订单、库存、纠纷记录与 outbox 事件同一事务提交
2. 领域规则（守卫、状态迁移）在聚合根内，这里只负责加载、保存、调用库存台账
3. 审计在事务提交后异步记录，失败不影响订单操作
4. 不自动重试：并发修改冲突时只重新加载订单判断守卫，把确定的结果返回给调用方
*/
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/domain/audit"
	"marketplace/domain/dispute"
	"marketplace/domain/goods"
	"marketplace/domain/order"
	"marketplace/domain/shared"
	"marketplace/pkg/logger"

	"go.uber.org/zap"
)

// Role 调用方角色，由认证层提供
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Caller 已认证的调用方。是买家还是卖家取决于其与订单的关系
type Caller struct {
	ID   string
	Role Role
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// NumberGenerator 订单号生成器
type NumberGenerator interface {
	Generate() (string, error)
}

// errNoop 迁移的前置条件已不成立且按约定不算错误（超时取消遇到已支付订单）
var errNoop = errors.New("no-op transition")

type ApplicationService struct {
	uowFactory shared.UnitOfWorkFactory
	orders     order.Repository
	checkout   *order.CheckoutService
	ledger     goods.StockLedger
	disputes   dispute.Repository
	auditSink  audit.Sink
	numbers    NumberGenerator

	refundThreshold int
	now             func() time.Time
}

type Option func(*ApplicationService)

func WithClock(now func() time.Time) Option {
	return func(s *ApplicationService) { s.now = now }
}

func WithRefundEscalationThreshold(threshold int) Option {
	return func(s *ApplicationService) {
		if threshold > 0 {
			s.refundThreshold = threshold
		}
	}
}

func NewApplicationService(
	uowFactory shared.UnitOfWorkFactory,
	orders order.Repository,
	checkout *order.CheckoutService,
	ledger goods.StockLedger,
	disputes dispute.Repository,
	auditSink audit.Sink,
	numbers NumberGenerator,
	opts ...Option,
) *ApplicationService {
	if auditSink == nil {
		auditSink = audit.Discard
	}
	s := &ApplicationService{
		uowFactory:      uowFactory,
		orders:          orders,
		checkout:        checkout,
		ledger:          ledger,
		disputes:        disputes,
		auditSink:       auditSink,
		numbers:         numbers,
		refundThreshold: order.DefaultRefundEscalationThreshold,
		now:             func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ============================================================================
// 下单
// ============================================================================

// CreateOrder 校验后按卖家拆单：每个卖家一个订单，逐行扣减库存。
// 任一行扣减失败或保存失败，整个调用回滚，不会留下部分订单或部分扣减。
func (s *ApplicationService) CreateOrder(ctx context.Context, caller Caller, req CreateOrderRequest) ([]*OrderResponse, error) {
	var created []*order.Order
	uow := s.uowFactory.New()

	err := uow.Execute(ctx, func(ctx context.Context) error {
		plan, err := s.checkout.Plan(ctx, toCheckoutRequest(caller.ID, req))
		if err != nil {
			return err
		}

		now := s.now()
		for _, group := range plan.Groups {
			for _, line := range group.Lines {
				ok, err := s.ledger.Deduct(ctx, line.Goods.ID, line.Quantity)
				if err != nil {
					return err
				}
				if !ok {
					// 预检之后被并发下单抢走
					return goods.NewStockInsufficientError(line.Goods.ID)
				}
			}

			orderNo, err := s.numbers.Generate()
			if err != nil {
				return fmt.Errorf("failed to generate order number: %w", err)
			}
			o, err := order.NewOrder(order.NewOrderParams{
				OrderNo:   orderNo,
				BuyerID:   caller.ID,
				SellerID:  group.SellerID,
				Address:   plan.Address,
				Lines:     group.Lines,
				CreatedAt: now,
			})
			if err != nil {
				return err
			}
			if err := s.orders.Save(ctx, o); err != nil {
				return err
			}
			uow.RegisterNew(o)
			created = append(created, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, o := range created {
		s.record(ctx, o.ID(), audit.ActionCreate, caller.ID, audit.RoleBuyer, "")
	}
	logger.FromContext(ctx).Info("Orders created",
		zap.String("buyer_id", caller.ID),
		zap.Int("order_count", len(created)),
	)
	return toOrderResponses(created), nil
}

// ============================================================================
// 状态机入口
// ============================================================================

func (s *ApplicationService) Pay(ctx context.Context, caller Caller, orderID string) (*OrderResponse, error) {
	o, err := s.transition(ctx, orderID, func(o *order.Order) error {
		return o.Pay(caller.ID, s.now())
	}, nil)
	if err != nil {
		return nil, err
	}
	s.record(ctx, o.ID(), audit.ActionPay, caller.ID, audit.RoleBuyer, "")
	return toOrderResponse(o), nil
}

func (s *ApplicationService) Cancel(ctx context.Context, caller Caller, orderID, reason string) (*OrderResponse, error) {
	o, err := s.transition(ctx, orderID, func(o *order.Order) error {
		return o.Cancel(caller.ID, reason, s.now())
	}, nil)
	if err != nil {
		return nil, err
	}
	s.record(ctx, o.ID(), audit.ActionCancel, caller.ID, audit.RoleBuyer, reason)
	return toOrderResponse(o), nil
}

// CancelBySystem 超时取消。订单已离开待支付（例如刚被支付）时返回 Canceled=false 且不报错。
func (s *ApplicationService) CancelBySystem(ctx context.Context, orderID string) (*SystemCancelResult, error) {
	o, err := s.transition(ctx, orderID, func(o *order.Order) error {
		canceled, err := o.CancelBySystem(s.now())
		if err != nil {
			return err
		}
		if !canceled {
			return errNoop
		}
		return nil
	}, nil)

	noop := errors.Is(err, errNoop)
	if err != nil && !noop {
		return nil, err
	}

	result := &SystemCancelResult{
		OrderID:      o.ID(),
		OrderNo:      o.OrderNo(),
		Canceled:     !noop,
		Status:       string(o.Status()),
		CancelReason: string(o.CancelReason()),
	}
	if result.Canceled {
		s.record(ctx, o.ID(), audit.ActionTimeoutCancel, "", audit.RoleSystem, string(order.CancelReasonTimeout))
	}
	return result, nil
}

func (s *ApplicationService) Ship(ctx context.Context, caller Caller, orderID string, req ShipRequest) (*OrderResponse, error) {
	shipment := order.Shipment{Company: req.ShipCompany, TrackingNo: req.TrackingNo}
	o, err := s.transition(ctx, orderID, func(o *order.Order) error {
		return o.Ship(caller.ID, caller.IsAdmin(), shipment, s.now())
	}, nil)
	if err != nil {
		return nil, err
	}

	role := audit.RoleSeller
	if caller.IsAdmin() && caller.ID != o.SellerID() {
		role = audit.RoleAdmin
	}
	s.record(ctx, o.ID(), audit.ActionShip, caller.ID, role, req.ShipCompany+" "+req.TrackingNo)
	return toOrderResponse(o), nil
}

func (s *ApplicationService) ConfirmReceive(ctx context.Context, caller Caller, orderID string) (*OrderResponse, error) {
	o, err := s.transition(ctx, orderID, func(o *order.Order) error {
		return o.ConfirmReceive(caller.ID, s.now())
	}, nil)
	if err != nil {
		return nil, err
	}
	s.record(ctx, o.ID(), audit.ActionConfirmReceive, caller.ID, audit.RoleBuyer, "")
	return toOrderResponse(o), nil
}

// RequestRefund 申请退款。达到升级阈值时订单转为 DISPUTED 并开立纠纷记录，
// 变更已提交，但返回 ErrRefundEscalated 以区别于普通的退款申请。
func (s *ApplicationService) RequestRefund(ctx context.Context, caller Caller, orderID, reason string) (*OrderResponse, error) {
	var escalated bool
	o, err := s.transition(ctx, orderID, func(o *order.Order) error {
		var err error
		escalated, err = o.RequestRefund(caller.ID, reason, s.refundThreshold, s.now())
		return err
	}, func(ctx context.Context, o *order.Order) error {
		if !escalated {
			return nil
		}
		return s.disputes.Open(ctx, &dispute.Dispute{
			OrderID:  o.ID(),
			OrderNo:  o.OrderNo(),
			BuyerID:  o.BuyerID(),
			SellerID: o.SellerID(),
			Reason:   reason,
			OpenedAt: s.now(),
		})
	})
	if err != nil {
		return nil, err
	}

	if escalated {
		s.record(ctx, o.ID(), audit.ActionEscalateDispute, caller.ID, audit.RoleBuyer, reason)
		logger.FromContext(ctx).Info("Refund request escalated to dispute",
			zap.String("order_id", o.ID()),
			zap.Int("refund_request_count", o.RefundRequestCount()),
		)
		return toOrderResponse(o), order.NewRefundEscalatedError(o.ID())
	}
	s.record(ctx, o.ID(), audit.ActionRequestRefund, caller.ID, audit.RoleBuyer, reason)
	return toOrderResponse(o), nil
}

func (s *ApplicationService) HandleRefund(ctx context.Context, caller Caller, orderID string, approved bool, remark string) (*OrderResponse, error) {
	o, err := s.transition(ctx, orderID, func(o *order.Order) error {
		return o.HandleRefund(caller.ID, approved, remark, s.now())
	}, nil)
	if err != nil {
		return nil, err
	}

	action := audit.ActionRejectRefund
	if approved {
		action = audit.ActionApproveRefund
	}
	s.record(ctx, o.ID(), action, caller.ID, audit.RoleSeller, remark)
	return toOrderResponse(o), nil
}

// ResolveDispute 管理员仲裁 DISPUTED 订单，并在同一事务内关闭纠纷记录
func (s *ApplicationService) ResolveDispute(ctx context.Context, caller Caller, orderID string, req ResolveDisputeRequest) (*OrderResponse, error) {
	if !caller.IsAdmin() {
		return nil, order.NewForbiddenError(orderID, caller.ID, "resolve dispute of")
	}
	resolution := order.DisputeResolution(req.Resolution)

	o, err := s.transition(ctx, orderID, func(o *order.Order) error {
		return o.ResolveDispute(resolution, caller.ID, req.Note, s.now())
	}, func(ctx context.Context, o *order.Order) error {
		return s.disputes.Resolve(ctx, dispute.Resolve{
			OrderID:    o.ID(),
			Resolution: dispute.Resolution(resolution),
			AdminID:    caller.ID,
			Note:       req.Note,
			ResolvedAt: s.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, o.ID(), audit.ActionResolveDispute, caller.ID, audit.RoleAdmin, req.Resolution+": "+req.Note)
	return toOrderResponse(o), nil
}

// DeleteOrder 买家逻辑删除终态订单
func (s *ApplicationService) DeleteOrder(ctx context.Context, caller Caller, orderID string) error {
	o, err := s.transition(ctx, orderID, func(o *order.Order) error {
		return o.MarkDeleted(caller.ID, s.now())
	}, nil)
	if err != nil {
		return err
	}
	s.record(ctx, o.ID(), audit.ActionDelete, caller.ID, audit.RoleBuyer, "")
	return nil
}

// ============================================================================
// 查询
// ============================================================================

// GetOrder 仅买家、卖家与管理员可见
func (s *ApplicationService) GetOrder(ctx context.Context, caller Caller, orderID string) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !o.IsParty(caller.ID) {
		return nil, order.NewForbiddenError(orderID, caller.ID, "view")
	}
	return toOrderResponse(o), nil
}

func (s *ApplicationService) ListBuyerOrders(ctx context.Context, caller Caller, q ListOrdersQuery) (*OrderPageResponse, error) {
	return s.list(ctx, order.NewByBuyerSpecification(caller.ID), q)
}

func (s *ApplicationService) ListSellerOrders(ctx context.Context, caller Caller, q ListOrdersQuery) (*OrderPageResponse, error) {
	return s.list(ctx, order.NewBySellerSpecification(caller.ID), q)
}

func (s *ApplicationService) list(ctx context.Context, owner shared.Specification[*order.Order], q ListOrdersQuery) (*OrderPageResponse, error) {
	spec := owner
	if q.Status != "" {
		status := order.Status(q.Status)
		if !status.Valid() {
			return nil, shared.NewValidationError("order", "status", "unknown order status "+q.Status)
		}
		spec = shared.And[*order.Order](owner, order.NewByStatusSpecification(status))
	}

	page := order.Page{Number: q.Page, Size: q.Size}.Normalize()
	orders, total, err := s.orders.List(ctx, spec, page)
	if err != nil {
		return nil, err
	}
	return &OrderPageResponse{
		Items: toOrderResponses(orders),
		Total: total,
		Page:  page.Number,
		Size:  page.Size,
	}, nil
}

// ListDisputes 管理员查看未决纠纷，最早的在前
func (s *ApplicationService) ListDisputes(ctx context.Context, caller Caller, q ListOrdersQuery) (*DisputePageResponse, error) {
	if !caller.IsAdmin() {
		return nil, shared.NewForbiddenError("dispute", "only admins can list disputes")
	}
	page := order.Page{Number: q.Page, Size: q.Size}.Normalize()
	disputes, total, err := s.disputes.ListOpen(ctx, page.Offset(), page.Size)
	if err != nil {
		return nil, err
	}

	items := make([]*DisputeResponse, len(disputes))
	for i, d := range disputes {
		items[i] = toDisputeResponse(d)
	}
	return &DisputePageResponse{Items: items, Total: total, Page: page.Number, Size: page.Size}, nil
}

// ============================================================================
// 内部
// ============================================================================

// transition 在一个事务内：加载 → 领域方法 → 条件更新保存 → 归还库存 → afterSave。
// mutate 返回错误时不做任何写入。
func (s *ApplicationService) transition(
	ctx context.Context,
	orderID string,
	mutate func(o *order.Order) error,
	afterSave func(ctx context.Context, o *order.Order) error,
) (*order.Order, error) {
	var result *order.Order
	uow := s.uowFactory.New()

	err := uow.Execute(ctx, func(ctx context.Context) error {
		o, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		result = o
		if err := mutate(o); err != nil {
			return err
		}
		if err := s.orders.Save(ctx, o); err != nil {
			return err
		}
		if err := s.releaseStock(ctx, o); err != nil {
			return err
		}
		if afterSave != nil {
			if err := afterSave(ctx, o); err != nil {
				return err
			}
		}
		uow.RegisterDirty(o)
		return nil
	})

	if errors.Is(err, order.ErrConcurrentModification) {
		return s.resolveConflict(ctx, orderID, mutate, err)
	}
	return result, err
}

// resolveConflict 条件更新落空后重新加载订单，只在内存中重放守卫：
// 守卫已不成立则返回该确定错误（或空操作），否则仍返回冲突。不做任何写入。
func (s *ApplicationService) resolveConflict(ctx context.Context, orderID string, mutate func(o *order.Order) error, conflict error) (*order.Order, error) {
	current, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, conflict
	}
	if guardErr := mutate(current); guardErr != nil {
		return current, guardErr
	}
	logger.FromContext(ctx).Warn("Order transition lost optimistic lock",
		zap.String("order_id", orderID),
		zap.String("status", string(current.Status())),
	)
	return nil, conflict
}

// releaseStock 订单进入 CANCELED / REFUNDED 时恰好归还一次库存
func (s *ApplicationService) releaseStock(ctx context.Context, o *order.Order) error {
	for _, line := range o.TakeStockRelease() {
		ok, err := s.ledger.Release(ctx, line.GoodsID, line.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			logger.FromContext(ctx).Warn("Stock release skipped, goods no longer exists",
				zap.String("order_id", o.ID()),
				zap.String("goods_id", line.GoodsID),
				zap.Int("quantity", line.Quantity),
			)
		}
	}
	return nil
}

func (s *ApplicationService) record(ctx context.Context, orderID string, action audit.Action, operatorID string, role audit.Role, reason string) {
	entry := audit.Entry{
		OrderID:      orderID,
		Action:       action,
		OperatorID:   operatorID,
		OperatorRole: role,
		Reason:       reason,
		OccurredAt:   s.now(),
	}
	if err := s.auditSink.Record(ctx, entry); err != nil {
		logger.FromContext(ctx).Warn("Failed to record audit entry",
			zap.String("order_id", orderID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}
