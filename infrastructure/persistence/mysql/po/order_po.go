package po

import (
	"time"

	"marketplace/domain/order"
	"marketplace/domain/shared"

	"github.com/shopspring/decimal"
)

// OrderPO Order persistence object
// Note: Only used for database mapping, does not contain any business logic
// Defining GORM associations is prohibited here
type OrderPO struct {
	ID                 string          `gorm:"primaryKey;size:64"`
	OrderNo            string          `gorm:"size:32;uniqueIndex;not null"`
	BuyerID            string          `gorm:"size:64;index:idx_orders_buyer_status,priority:1;not null"`
	SellerID           string          `gorm:"size:64;index;not null"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	ShippingFee        decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Status             string          `gorm:"size:20;not null;index:idx_orders_buyer_status,priority:2;index:idx_orders_status_created,priority:1"`
	CancelReason       string          `gorm:"size:32"`
	RefundRequestCount int             `gorm:"not null;default:0"`
	ReceiverName       string          `gorm:"size:64"`
	ReceiverPhone      string          `gorm:"size:32"`
	ReceiverAddress    string          `gorm:"size:512"`
	PayTime            *time.Time
	CancelTime         *time.Time
	DisputeTime        *time.Time
	SettledTime        *time.Time
	IsSettled          bool      `gorm:"not null;default:false"`
	StockReleased      bool      `gorm:"not null;default:false"`
	IsDeleted          bool      `gorm:"not null;default:false"`
	Version            int       `gorm:"not null;default:0"`
	CreatedAt          time.Time `gorm:"not null;index:idx_orders_status_created,priority:2"`
	UpdatedAt          time.Time `gorm:"not null"`
}

func (OrderPO) TableName() string {
	return "orders"
}

// OrderItemPO Order item persistence object
type OrderItemPO struct {
	ID          string          `gorm:"primaryKey;size:64"`
	OrderID     string          `gorm:"size:64;index;not null"` // Only store ID, no GORM association
	GoodsID     string          `gorm:"size:64;index;not null"`
	SellerID    string          `gorm:"size:64;not null"`
	GoodsTitle  string          `gorm:"size:255;not null"`
	GoodsCover  string          `gorm:"size:512"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Quantity    int             `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	ItemStatus  string          `gorm:"size:20;not null"`
	OrderStatus string          `gorm:"size:20;not null"`
	ShipCompany string          `gorm:"size:64"`
	TrackingNo  string          `gorm:"size:64"`
	ShipTime    *time.Time
}

func (OrderItemPO) TableName() string {
	return "order_items"
}

// FromOrderDomain Convert domain model to persistence object
func FromOrderDomain(o *order.Order) (*OrderPO, []OrderItemPO) {
	orderPO := &OrderPO{
		ID:                 o.ID(),
		OrderNo:            o.OrderNo(),
		BuyerID:            o.BuyerID(),
		SellerID:           o.SellerID(),
		TotalAmount:        o.TotalAmount().Decimal(),
		ShippingFee:        o.ShippingFee().Decimal(),
		Status:             string(o.Status()),
		CancelReason:       string(o.CancelReason()),
		RefundRequestCount: o.RefundRequestCount(),
		ReceiverName:       o.ReceiverName(),
		ReceiverPhone:      o.ReceiverPhone(),
		ReceiverAddress:    o.ReceiverAddress(),
		PayTime:            o.PayTime(),
		CancelTime:         o.CancelTime(),
		DisputeTime:        o.DisputeTime(),
		SettledTime:        o.SettledTime(),
		IsSettled:          o.IsSettled(),
		StockReleased:      o.StockReleased(),
		IsDeleted:          o.Deleted(),
		Version:            o.Version(),
		CreatedAt:          o.CreatedAt(),
		UpdatedAt:          o.UpdatedAt(),
	}

	items := o.Items()
	itemPOs := make([]OrderItemPO, len(items))
	for i, item := range items {
		itemPOs[i] = OrderItemPO{
			ID:          item.ID(),
			OrderID:     o.ID(),
			GoodsID:     item.GoodsID(),
			SellerID:    item.SellerID(),
			GoodsTitle:  item.GoodsTitle(),
			GoodsCover:  item.GoodsCover(),
			UnitPrice:   item.UnitPrice().Decimal(),
			Quantity:    item.Quantity(),
			Amount:      item.Amount().Decimal(),
			ItemStatus:  string(item.ItemStatus()),
			OrderStatus: string(item.OrderStatus()),
			ShipCompany: item.ShipCompany(),
			TrackingNo:  item.TrackingNo(),
			ShipTime:    item.ShipTime(),
		}
	}

	return orderPO, itemPOs
}

// StatusColumns 条件更新时写回的列
func (po *OrderPO) StatusColumns() map[string]interface{} {
	return map[string]interface{}{
		"status":               po.Status,
		"cancel_reason":        po.CancelReason,
		"refund_request_count": po.RefundRequestCount,
		"pay_time":             po.PayTime,
		"cancel_time":          po.CancelTime,
		"dispute_time":         po.DisputeTime,
		"settled_time":         po.SettledTime,
		"is_settled":           po.IsSettled,
		"stock_released":       po.StockReleased,
		"is_deleted":           po.IsDeleted,
		"updated_at":           po.UpdatedAt,
	}
}

// StatusColumns 订单项可变列
func (po *OrderItemPO) StatusColumns() map[string]interface{} {
	return map[string]interface{}{
		"item_status":  po.ItemStatus,
		"order_status": po.OrderStatus,
		"ship_company": po.ShipCompany,
		"tracking_no":  po.TrackingNo,
		"ship_time":    po.ShipTime,
	}
}

// ToDomain Convert persistence object to domain model
func (po *OrderPO) ToDomain(itemPOs []OrderItemPO) *order.Order {
	items := make([]order.OrderItem, len(itemPOs))
	for i, itemPO := range itemPOs {
		items[i] = order.RebuildItemFromDTO(order.ItemReconstructionDTO{
			ID:          itemPO.ID,
			GoodsID:     itemPO.GoodsID,
			SellerID:    itemPO.SellerID,
			GoodsTitle:  itemPO.GoodsTitle,
			GoodsCover:  itemPO.GoodsCover,
			UnitPrice:   shared.NewMoney(itemPO.UnitPrice),
			Quantity:    itemPO.Quantity,
			Amount:      shared.NewMoney(itemPO.Amount),
			ItemStatus:  order.ItemStatus(itemPO.ItemStatus),
			OrderStatus: order.Status(itemPO.OrderStatus),
			ShipCompany: itemPO.ShipCompany,
			TrackingNo:  itemPO.TrackingNo,
			ShipTime:    itemPO.ShipTime,
		})
	}

	return order.RebuildFromDTO(order.ReconstructionDTO{
		ID:                 po.ID,
		OrderNo:            po.OrderNo,
		BuyerID:            po.BuyerID,
		SellerID:           po.SellerID,
		Items:              items,
		TotalAmount:        shared.NewMoney(po.TotalAmount),
		ShippingFee:        shared.NewMoney(po.ShippingFee),
		Status:             order.Status(po.Status),
		CancelReason:       order.CancelReason(po.CancelReason),
		RefundRequestCount: po.RefundRequestCount,
		ReceiverName:       po.ReceiverName,
		ReceiverPhone:      po.ReceiverPhone,
		ReceiverAddress:    po.ReceiverAddress,
		CreatedAt:          po.CreatedAt,
		UpdatedAt:          po.UpdatedAt,
		PayTime:            po.PayTime,
		CancelTime:         po.CancelTime,
		DisputeTime:        po.DisputeTime,
		SettledTime:        po.SettledTime,
		IsSettled:          po.IsSettled,
		StockReleased:      po.StockReleased,
		Deleted:            po.IsDeleted,
		Version:            po.Version,
	})
}
