package order

import "time"

// CreateOrderRequest 下单入参，买家身份来自认证信息
type CreateOrderRequest struct {
	AddressID string                   `json:"address_id" binding:"required"`
	Items     []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type CreateOrderItemRequest struct {
	GoodsID  string `json:"goods_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// ShipRequest 物流信息
type ShipRequest struct {
	ShipCompany string `json:"ship_company" binding:"required"`
	TrackingNo  string `json:"tracking_no" binding:"required"`
}

// ResolveDisputeRequest 仲裁入参
type ResolveDisputeRequest struct {
	Resolution string `json:"resolution" binding:"required,oneof=REFUND COMPLETE"`
	Note       string `json:"note"`
}

// ListOrdersQuery 分页与可选状态过滤
type ListOrdersQuery struct {
	Status string `form:"status"`
	Page   int    `form:"page"`
	Size   int    `form:"size"`
}

// OrderResponse 订单返回模型
type OrderResponse struct {
	ID                 string              `json:"id"`
	OrderNo            string              `json:"order_no"`
	BuyerID            string              `json:"buyer_id"`
	SellerID           string              `json:"seller_id"`
	Status             string              `json:"status"`
	TotalAmount        string              `json:"total_amount"`
	ShippingFee        string              `json:"shipping_fee"`
	CancelReason       string              `json:"cancel_reason,omitempty"`
	RefundRequestCount int                 `json:"refund_request_count"`
	ReceiverName       string              `json:"receiver_name"`
	ReceiverPhone      string              `json:"receiver_phone"`
	ReceiverAddress    string              `json:"receiver_address"`
	IsSettled          bool                `json:"is_settled"`
	Items              []OrderItemResponse `json:"items"`
	PayTime            *time.Time          `json:"pay_time,omitempty"`
	CancelTime         *time.Time          `json:"cancel_time,omitempty"`
	DisputeTime        *time.Time          `json:"dispute_time,omitempty"`
	SettledTime        *time.Time          `json:"settled_time,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// OrderItemResponse 订单项快照
type OrderItemResponse struct {
	ID          string     `json:"id"`
	GoodsID     string     `json:"goods_id"`
	GoodsTitle  string     `json:"goods_title"`
	GoodsCover  string     `json:"goods_cover"`
	UnitPrice   string     `json:"unit_price"`
	Quantity    int        `json:"quantity"`
	Amount      string     `json:"amount"`
	ItemStatus  string     `json:"item_status"`
	OrderStatus string     `json:"order_status"`
	ShipCompany string     `json:"ship_company,omitempty"`
	TrackingNo  string     `json:"tracking_no,omitempty"`
	ShipTime    *time.Time `json:"ship_time,omitempty"`
}

// OrderPageResponse 分页结果
type OrderPageResponse struct {
	Items []*OrderResponse `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
}

// DisputeResponse 纠纷记录
type DisputeResponse struct {
	ID         string     `json:"id"`
	OrderID    string     `json:"order_id"`
	OrderNo    string     `json:"order_no"`
	BuyerID    string     `json:"buyer_id"`
	SellerID   string     `json:"seller_id"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	Resolution string     `json:"resolution,omitempty"`
	AdminID    string     `json:"admin_id,omitempty"`
	Note       string     `json:"note,omitempty"`
	OpenedAt   time.Time  `json:"opened_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

type DisputePageResponse struct {
	Items []*DisputeResponse `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Size  int                `json:"size"`
}

// SystemCancelResult 超时取消的结果；Canceled=false 表示订单已不是待支付，未做任何修改
type SystemCancelResult struct {
	OrderID      string
	OrderNo      string
	Canceled     bool
	Status       string
	CancelReason string
}
