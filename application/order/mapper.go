package order

import (
	"marketplace/domain/dispute"
	"marketplace/domain/order"
)

func toCheckoutRequest(buyerID string, req CreateOrderRequest) order.CheckoutRequest {
	lines := make([]order.CheckoutLine, len(req.Items))
	for i, item := range req.Items {
		lines[i] = order.CheckoutLine{GoodsID: item.GoodsID, Quantity: item.Quantity}
	}
	return order.CheckoutRequest{BuyerID: buyerID, AddressID: req.AddressID, Lines: lines}
}

func toOrderResponse(o *order.Order) *OrderResponse {
	items := make([]OrderItemResponse, len(o.Items()))
	for i, item := range o.Items() {
		items[i] = OrderItemResponse{
			ID:          item.ID(),
			GoodsID:     item.GoodsID(),
			GoodsTitle:  item.GoodsTitle(),
			GoodsCover:  item.GoodsCover(),
			UnitPrice:   item.UnitPrice().String(),
			Quantity:    item.Quantity(),
			Amount:      item.Amount().String(),
			ItemStatus:  string(item.ItemStatus()),
			OrderStatus: string(item.OrderStatus()),
			ShipCompany: item.ShipCompany(),
			TrackingNo:  item.TrackingNo(),
			ShipTime:    item.ShipTime(),
		}
	}

	return &OrderResponse{
		ID:                 o.ID(),
		OrderNo:            o.OrderNo(),
		BuyerID:            o.BuyerID(),
		SellerID:           o.SellerID(),
		Status:             string(o.Status()),
		TotalAmount:        o.TotalAmount().String(),
		ShippingFee:        o.ShippingFee().String(),
		CancelReason:       string(o.CancelReason()),
		RefundRequestCount: o.RefundRequestCount(),
		ReceiverName:       o.ReceiverName(),
		ReceiverPhone:      o.ReceiverPhone(),
		ReceiverAddress:    o.ReceiverAddress(),
		IsSettled:          o.IsSettled(),
		Items:              items,
		PayTime:            o.PayTime(),
		CancelTime:         o.CancelTime(),
		DisputeTime:        o.DisputeTime(),
		SettledTime:        o.SettledTime(),
		CreatedAt:          o.CreatedAt(),
		UpdatedAt:          o.UpdatedAt(),
	}
}

func toOrderResponses(orders []*order.Order) []*OrderResponse {
	responses := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		responses[i] = toOrderResponse(o)
	}
	return responses
}

func toDisputeResponse(d *dispute.Dispute) *DisputeResponse {
	return &DisputeResponse{
		ID:         d.ID,
		OrderID:    d.OrderID,
		OrderNo:    d.OrderNo,
		BuyerID:    d.BuyerID,
		SellerID:   d.SellerID,
		Reason:     d.Reason,
		Status:     string(d.Status),
		Resolution: string(d.Resolution),
		AdminID:    d.AdminID,
		Note:       d.Note,
		OpenedAt:   d.OpenedAt,
		ResolvedAt: d.ResolvedAt,
	}
}
