/*
Package order 订单子域 - 订单聚合根与状态机

Order 与其 OrderItem 构成一个聚合：
  - 订单项只在创建订单时生成，之后不增删、不换父订单
  - 每次状态变更都在同一个方法内同步修改所有订单项的 itemStatus / orderStatus
  - 守卫失败（调用者不对、状态不对）时不做任何修改
  - 库存归还只允许发生一次（stockReleased）

版本号、已加载状态由仓储层用于乐观锁：
UPDATE ... WHERE id = ? AND version = ? AND status = <loadedStatus>
*/
package order

import (
	"fmt"
	"time"

	"marketplace/domain/address"
	"marketplace/domain/goods"
	"marketplace/domain/shared"

	"github.com/google/uuid"
)

// Order 订单聚合根，一个 (买家, 卖家) 组合一单
type Order struct {
	id                 string
	orderNo            string
	buyerID            string
	sellerID           string
	items              []OrderItem
	totalAmount        shared.Money
	shippingFee        shared.Money
	status             Status
	cancelReason       CancelReason
	refundRequestCount int
	receiverName       string
	receiverPhone      string
	receiverAddress    string
	createdAt          time.Time
	updatedAt          time.Time
	payTime            *time.Time
	cancelTime         *time.Time
	disputeTime        *time.Time
	settledTime        *time.Time
	isSettled          bool
	stockReleased      bool
	deleted            bool

	version      int    // 乐观锁版本号，保存成功后由仓储递增
	loadedStatus Status // 从数据库加载时的状态，作为条件更新的守卫

	events []shared.DomainEvent

	isNew          bool
	releasePending bool // 本次变更需要归还库存，由应用服务取走
}

// Line 下单行：商品快照 + 数量
type Line struct {
	Goods    goods.Goods
	Quantity int
}

// NewOrderParams 创建订单参数（同一卖家的一组商品）
type NewOrderParams struct {
	OrderNo   string
	BuyerID   string
	SellerID  string
	Address   address.Address
	Lines     []Line
	CreatedAt time.Time
}

// NewOrder 创建待支付订单，总金额为各订单项金额之和，创建后不再变化
func NewOrder(p NewOrderParams) (*Order, error) {
	if p.BuyerID == "" || p.SellerID == "" {
		return nil, shared.NewValidationError("order", "buyer_id", "buyer and seller are required")
	}
	if p.OrderNo == "" {
		return nil, shared.NewValidationError("order", "order_no", "order number is required")
	}
	if len(p.Lines) == 0 {
		return nil, NewEmptyOrderItemsError()
	}

	orderID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate order ID: %w", err)
	}

	items := make([]OrderItem, 0, len(p.Lines))
	total := shared.Zero
	for _, line := range p.Lines {
		if line.Quantity <= 0 {
			return nil, NewInvalidQuantityError(line.Goods.ID, line.Quantity)
		}
		if line.Goods.SellerID != p.SellerID {
			return nil, shared.NewValidationError("order_item", "seller_id",
				"goods "+line.Goods.ID+" does not belong to seller "+p.SellerID)
		}
		if line.Goods.Price.IsNegative() {
			return nil, shared.NewValidationError("order_item", "unit_price", "negative price for goods "+line.Goods.ID)
		}

		itemID, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate order item ID: %w", err)
		}
		amount := line.Goods.Price.Times(line.Quantity)
		items = append(items, OrderItem{
			id:          itemID.String(),
			goodsID:     line.Goods.ID,
			sellerID:    line.Goods.SellerID,
			goodsTitle:  line.Goods.Title,
			goodsCover:  line.Goods.CoverImage,
			unitPrice:   line.Goods.Price,
			quantity:    line.Quantity,
			amount:      amount,
			itemStatus:  ItemPendingPay,
			orderStatus: StatusPendingPay,
		})
		total = total.Add(amount)
	}

	o := &Order{
		id:              orderID.String(),
		orderNo:         p.OrderNo,
		buyerID:         p.BuyerID,
		sellerID:        p.SellerID,
		items:           items,
		totalAmount:     total,
		shippingFee:     shared.Zero,
		status:          StatusPendingPay,
		receiverName:    p.Address.ReceiverName,
		receiverPhone:   p.Address.ReceiverPhone,
		receiverAddress: p.Address.FullAddress,
		createdAt:       p.CreatedAt,
		updatedAt:       p.CreatedAt,
		loadedStatus:    StatusPendingPay,
		isNew:           true,
	}
	o.record(NewOrderPlacedEvent(o, p.CreatedAt))
	return o, nil
}

// ReconstructionDTO 仅供仓储层从数据库重建聚合
type ReconstructionDTO struct {
	ID                 string
	OrderNo            string
	BuyerID            string
	SellerID           string
	Items              []OrderItem
	TotalAmount        shared.Money
	ShippingFee        shared.Money
	Status             Status
	CancelReason       CancelReason
	RefundRequestCount int
	ReceiverName       string
	ReceiverPhone      string
	ReceiverAddress    string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	PayTime            *time.Time
	CancelTime         *time.Time
	DisputeTime        *time.Time
	SettledTime        *time.Time
	IsSettled          bool
	StockReleased      bool
	Deleted            bool
	Version            int
}

func RebuildFromDTO(dto ReconstructionDTO) *Order {
	return &Order{
		id:                 dto.ID,
		orderNo:            dto.OrderNo,
		buyerID:            dto.BuyerID,
		sellerID:           dto.SellerID,
		items:              dto.Items,
		totalAmount:        dto.TotalAmount,
		shippingFee:        dto.ShippingFee,
		status:             dto.Status,
		cancelReason:       dto.CancelReason,
		refundRequestCount: dto.RefundRequestCount,
		receiverName:       dto.ReceiverName,
		receiverPhone:      dto.ReceiverPhone,
		receiverAddress:    dto.ReceiverAddress,
		createdAt:          dto.CreatedAt,
		updatedAt:          dto.UpdatedAt,
		payTime:            dto.PayTime,
		cancelTime:         dto.CancelTime,
		disputeTime:        dto.DisputeTime,
		settledTime:        dto.SettledTime,
		isSettled:          dto.IsSettled,
		stockReleased:      dto.StockReleased,
		deleted:            dto.Deleted,
		version:            dto.Version,
		loadedStatus:       dto.Status,
	}
}

// ============================================================================
// 状态机
// ============================================================================

// Pay 买家支付：PENDING_PAY → PAID
func (o *Order) Pay(buyerID string, at time.Time) error {
	if o.buyerID != buyerID {
		return NewForbiddenError(o.id, buyerID, "pay")
	}
	if o.status != StatusPendingPay {
		return NewInvalidOrderStateError(o.status, "pay")
	}
	o.payTime = timePtr(at)
	o.transitionTo(StatusPaid, at)
	o.record(newStatusEvent(EventOrderPaid, o, at))
	return nil
}

// Cancel 买家取消待支付订单，归还库存。reason 为买家填写的说明，只进入事件与审计。
func (o *Order) Cancel(buyerID, reason string, at time.Time) error {
	if o.buyerID != buyerID {
		return NewForbiddenError(o.id, buyerID, "cancel")
	}
	if o.status != StatusPendingPay {
		return NewInvalidOrderStateError(o.status, "cancel")
	}
	return o.cancel(CancelReasonUser, reason, at)
}

// CancelBySystem 超时取消。订单已不是待支付时视为成功的空操作，返回 false。
func (o *Order) CancelBySystem(at time.Time) (bool, error) {
	if o.status != StatusPendingPay {
		return false, nil
	}
	if err := o.cancel(CancelReasonTimeout, "payment timeout", at); err != nil {
		return false, err
	}
	return true, nil
}

func (o *Order) cancel(cr CancelReason, reason string, at time.Time) error {
	if err := o.releaseStock(); err != nil {
		return err
	}
	o.cancelReason = cr
	o.cancelTime = timePtr(at)
	o.transitionTo(StatusCanceled, at)
	o.record(NewOrderCanceledEvent(o, reason, at))
	return nil
}

// Shipment 物流信息，对本系统是不透明字符串
type Shipment struct {
	Company    string
	TrackingNo string
}

// Ship 卖家（或代卖家操作的管理员）发货：PAID → SHIPPED，物流信息记录到每个订单项
func (o *Order) Ship(callerID string, isAdmin bool, shipment Shipment, at time.Time) error {
	if !isAdmin && o.sellerID != callerID {
		return NewForbiddenError(o.id, callerID, "ship")
	}
	if o.status != StatusPaid {
		return NewInvalidOrderStateError(o.status, "ship")
	}
	if shipment.Company == "" || shipment.TrackingNo == "" {
		return NewInvalidShipmentError()
	}
	for i := range o.items {
		o.items[i].shipCompany = shipment.Company
		o.items[i].trackingNo = shipment.TrackingNo
		o.items[i].shipTime = timePtr(at)
	}
	o.transitionTo(StatusShipped, at)
	o.record(NewOrderShippedEvent(o, shipment, at))
	return nil
}

// ConfirmReceive 买家确认收货：SHIPPED → COMPLETED，订单结算
func (o *Order) ConfirmReceive(buyerID string, at time.Time) error {
	if o.buyerID != buyerID {
		return NewForbiddenError(o.id, buyerID, "confirm receipt of")
	}
	if o.status != StatusShipped {
		return NewInvalidOrderStateError(o.status, "confirm receipt of")
	}
	o.settle(at)
	o.record(newStatusEvent(EventOrderCompleted, o, at))
	return nil
}

// RequestRefund 买家申请退款（仅 PAID）。
// 已申请次数达到 threshold 时不再进入退款流程，而是转为 DISPUTED 并返回 escalated=true。
func (o *Order) RequestRefund(buyerID, reason string, threshold int, at time.Time) (escalated bool, err error) {
	if o.buyerID != buyerID {
		return false, NewForbiddenError(o.id, buyerID, "request refund for")
	}
	if o.status != StatusPaid {
		return false, NewInvalidOrderStateError(o.status, "request refund for")
	}
	if o.refundRequestCount >= threshold {
		o.disputeTime = timePtr(at)
		o.transitionTo(StatusDisputed, at)
		o.record(NewOrderDisputedEvent(o, reason, at))
		return true, nil
	}
	o.refundRequestCount++
	o.transitionTo(StatusRefunding, at)
	o.record(NewRefundRequestedEvent(o, reason, at))
	return false, nil
}

// HandleRefund 卖家处理退款。同意：REFUNDING → REFUNDED 并归还库存；
// 拒绝：回到 PAID，已累计的申请次数保留，继续计入升级阈值。
func (o *Order) HandleRefund(sellerID string, approved bool, remark string, at time.Time) error {
	if o.sellerID != sellerID {
		return NewForbiddenError(o.id, sellerID, "handle refund for")
	}
	if o.status != StatusRefunding {
		return NewInvalidOrderStateError(o.status, "handle refund for")
	}
	if !approved {
		o.transitionTo(StatusPaid, at)
		o.record(NewRefundRejectedEvent(o, remark, at))
		return nil
	}
	return o.refund(CancelReasonBuyerRefund, remark, at)
}

// ResolveDispute 仲裁纠纷订单：REFUND → REFUNDED（归还库存），COMPLETE → COMPLETED。
// 两种结果都把退款申请次数清零。
func (o *Order) ResolveDispute(resolution DisputeResolution, adminID, note string, at time.Time) error {
	if adminID == "" {
		return NewForbiddenError(o.id, adminID, "resolve dispute of")
	}
	if o.status != StatusDisputed {
		return NewInvalidOrderStateError(o.status, "resolve dispute of")
	}
	switch resolution {
	case ResolveRefund:
		if err := o.refund(CancelReasonAdmin, note, at); err != nil {
			return err
		}
	case ResolveComplete:
		o.settle(at)
		o.refundRequestCount = 0
	default:
		return shared.NewValidationError("dispute", "resolution", "unknown resolution "+string(resolution))
	}
	o.record(NewDisputeResolvedEvent(o, resolution, adminID, note, at))
	return nil
}

func (o *Order) refund(cr CancelReason, remark string, at time.Time) error {
	if err := o.releaseStock(); err != nil {
		return err
	}
	o.cancelReason = cr
	o.cancelTime = timePtr(at)
	o.refundRequestCount = 0
	o.transitionTo(StatusRefunded, at)
	o.record(NewOrderRefundedEvent(o, remark, at))
	return nil
}

func (o *Order) settle(at time.Time) {
	o.isSettled = true
	o.settledTime = timePtr(at)
	o.transitionTo(StatusCompleted, at)
}

// MarkDeleted 买家逻辑删除终态订单
func (o *Order) MarkDeleted(buyerID string, at time.Time) error {
	if o.buyerID != buyerID {
		return NewForbiddenError(o.id, buyerID, "delete")
	}
	if !o.status.IsTerminal() {
		return NewInvalidOrderStateError(o.status, "delete")
	}
	o.deleted = true
	o.updatedAt = at
	return nil
}

// transitionTo 订单与全部订单项的状态一起变更
func (o *Order) transitionTo(s Status, at time.Time) {
	o.status = s
	itemStatus := ItemStatusFor(s)
	for i := range o.items {
		o.items[i].orderStatus = s
		o.items[i].itemStatus = itemStatus
	}
	o.updatedAt = at
}

func (o *Order) releaseStock() error {
	if o.stockReleased {
		return NewStockAlreadyReleasedError(o.id)
	}
	o.stockReleased = true
	o.releasePending = true
	return nil
}

func (o *Order) record(e shared.DomainEvent) {
	o.events = append(o.events, e)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// ============================================================================
// 持久化协作
// ============================================================================

// TakeStockRelease 返回本次变更需要归还的库存行，并清除标记；无需归还时返回 nil
func (o *Order) TakeStockRelease() []StockLine {
	if !o.releasePending {
		return nil
	}
	o.releasePending = false
	lines := make([]StockLine, len(o.items))
	for i, item := range o.items {
		lines[i] = StockLine{GoodsID: item.goodsID, Quantity: item.quantity}
	}
	return lines
}

// IncrementVersionForSave 保存成功后由仓储调用
func (o *Order) IncrementVersionForSave() {
	o.version++
}

// MarkPersisted 保存成功后由仓储调用，当前状态成为下一次条件更新的守卫
func (o *Order) MarkPersisted() {
	o.isNew = false
	o.loadedStatus = o.status
}

func (o *Order) IsNew() bool          { return o.isNew }
func (o *Order) LoadedStatus() Status { return o.loadedStatus }

// PullEvents 获取并清空事件列表，由 UoW 在事务内写入 outbox
func (o *Order) PullEvents() []shared.DomainEvent {
	events := o.events
	o.events = nil
	return events
}

// ============================================================================
// Getters
// ============================================================================

func (o *Order) ID() string       { return o.id }
func (o *Order) OrderNo() string  { return o.orderNo }
func (o *Order) BuyerID() string  { return o.buyerID }
func (o *Order) SellerID() string { return o.sellerID }

// Items 返回副本
func (o *Order) Items() []OrderItem {
	items := make([]OrderItem, len(o.items))
	copy(items, o.items)
	return items
}

func (o *Order) TotalAmount() shared.Money  { return o.totalAmount }
func (o *Order) ShippingFee() shared.Money  { return o.shippingFee }
func (o *Order) Status() Status             { return o.status }
func (o *Order) CancelReason() CancelReason { return o.cancelReason }
func (o *Order) RefundRequestCount() int    { return o.refundRequestCount }
func (o *Order) ReceiverName() string       { return o.receiverName }
func (o *Order) ReceiverPhone() string      { return o.receiverPhone }
func (o *Order) ReceiverAddress() string    { return o.receiverAddress }
func (o *Order) CreatedAt() time.Time       { return o.createdAt }
func (o *Order) UpdatedAt() time.Time       { return o.updatedAt }
func (o *Order) PayTime() *time.Time        { return o.payTime }
func (o *Order) CancelTime() *time.Time     { return o.cancelTime }
func (o *Order) DisputeTime() *time.Time    { return o.disputeTime }
func (o *Order) SettledTime() *time.Time    { return o.settledTime }
func (o *Order) IsSettled() bool            { return o.isSettled }
func (o *Order) StockReleased() bool        { return o.stockReleased }
func (o *Order) Deleted() bool              { return o.deleted }
func (o *Order) Version() int               { return o.version }

// IsParty 买家或卖家
func (o *Order) IsParty(userID string) bool {
	return userID != "" && (userID == o.buyerID || userID == o.sellerID)
}

var _ shared.AggregateRoot = (*Order)(nil)
