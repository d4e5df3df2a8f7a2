package order

import (
	"time"

	"marketplace/domain/shared"
)

// OrderItem 订单项 - 聚合内实体，只能经由 Order 访问。
// 商品快照字段在创建时复制，之后不再刷新。
type OrderItem struct {
	id          string
	goodsID     string
	sellerID    string
	goodsTitle  string
	goodsCover  string
	unitPrice   shared.Money
	quantity    int
	amount      shared.Money
	itemStatus  ItemStatus
	orderStatus Status
	shipCompany string
	trackingNo  string
	shipTime    *time.Time
}

// StockLine 需要归还给库存台账的一行
type StockLine struct {
	GoodsID  string
	Quantity int
}

type ItemReconstructionDTO struct {
	ID          string
	GoodsID     string
	SellerID    string
	GoodsTitle  string
	GoodsCover  string
	UnitPrice   shared.Money
	Quantity    int
	Amount      shared.Money
	ItemStatus  ItemStatus
	OrderStatus Status
	ShipCompany string
	TrackingNo  string
	ShipTime    *time.Time
}

// RebuildItemFromDTO 仅供仓储层使用
func RebuildItemFromDTO(dto ItemReconstructionDTO) OrderItem {
	return OrderItem{
		id:          dto.ID,
		goodsID:     dto.GoodsID,
		sellerID:    dto.SellerID,
		goodsTitle:  dto.GoodsTitle,
		goodsCover:  dto.GoodsCover,
		unitPrice:   dto.UnitPrice,
		quantity:    dto.Quantity,
		amount:      dto.Amount,
		itemStatus:  dto.ItemStatus,
		orderStatus: dto.OrderStatus,
		shipCompany: dto.ShipCompany,
		trackingNo:  dto.TrackingNo,
		shipTime:    dto.ShipTime,
	}
}

func (item OrderItem) ID() string              { return item.id }
func (item OrderItem) GoodsID() string         { return item.goodsID }
func (item OrderItem) SellerID() string        { return item.sellerID }
func (item OrderItem) GoodsTitle() string      { return item.goodsTitle }
func (item OrderItem) GoodsCover() string      { return item.goodsCover }
func (item OrderItem) UnitPrice() shared.Money { return item.unitPrice }
func (item OrderItem) Quantity() int           { return item.quantity }
func (item OrderItem) Amount() shared.Money    { return item.amount }
func (item OrderItem) ItemStatus() ItemStatus  { return item.itemStatus }
func (item OrderItem) OrderStatus() Status     { return item.orderStatus }
func (item OrderItem) ShipCompany() string     { return item.shipCompany }
func (item OrderItem) TrackingNo() string      { return item.trackingNo }
func (item OrderItem) ShipTime() *time.Time    { return item.shipTime }
