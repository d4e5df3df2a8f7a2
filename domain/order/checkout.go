package order

import (
	"context"
	"math"

	"marketplace/domain/address"
	"marketplace/domain/goods"
	"marketplace/domain/shared"
)

// CheckoutLine 下单请求中的一行
type CheckoutLine struct {
	GoodsID  string
	Quantity int
}

type CheckoutRequest struct {
	BuyerID   string
	AddressID string
	Lines     []CheckoutLine
}

// SellerGroup 同一卖家的下单行，对应一个订单
type SellerGroup struct {
	SellerID string
	Lines    []Line
}

// CheckoutPlan 通过全部前置校验后的下单计划
type CheckoutPlan struct {
	Address address.Address
	Groups  []SellerGroup
}

// CheckoutService 下单领域服务
// 只做校验与分组，不扣库存、不保存；扣减与持久化由应用服务在同一事务内完成
type CheckoutService struct {
	orders         Repository
	addresses      address.Provider
	goods          goods.Provider
	activeOrderCap int
}

func NewCheckoutService(orders Repository, addresses address.Provider, goodsProvider goods.Provider, activeOrderCap int) *CheckoutService {
	return &CheckoutService{
		orders:         orders,
		addresses:      addresses,
		goods:          goodsProvider,
		activeOrderCap: activeOrderCap,
	}
}

// Plan 按顺序校验：
//  1. 进行中订单数 < 上限
//  2. 地址存在、属于买家且未删除
//  3. 商品全部存在
//  4. 商品全部为 APPROVED
//  5. 库存预检（扣减时再原子校验）
//  6. 不能购买自己的商品
//
// 任一失败整单拒绝。通过后按卖家首次出现的顺序分组，重复商品行合并数量。
func (s *CheckoutService) Plan(ctx context.Context, req CheckoutRequest) (*CheckoutPlan, error) {
	lines, err := mergeLines(req.Lines)
	if err != nil {
		return nil, err
	}

	active, err := s.orders.CountActiveByBuyer(ctx, req.BuyerID)
	if err != nil {
		return nil, err
	}
	if active >= int64(s.activeOrderCap) {
		return nil, NewActiveOrderLimitError(req.BuyerID, s.activeOrderCap)
	}

	addr, err := s.addresses.FindByID(ctx, req.AddressID)
	if err != nil {
		return nil, err
	}
	if !addr.UsableBy(req.BuyerID) {
		return nil, address.NewAddressNotFoundError(req.AddressID)
	}

	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.GoodsID
	}
	found, err := s.goods.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		if _, ok := found[l.GoodsID]; !ok {
			return nil, goods.NewGoodsNotFoundError(l.GoodsID)
		}
	}
	for _, l := range lines {
		if g := found[l.GoodsID]; !g.Purchasable() {
			return nil, goods.NewNotPurchasableError(g.ID, g.Status)
		}
	}
	for _, l := range lines {
		if found[l.GoodsID].Stock < l.Quantity {
			return nil, goods.NewStockInsufficientError(l.GoodsID)
		}
	}
	for _, l := range lines {
		if found[l.GoodsID].SellerID == req.BuyerID {
			return nil, NewSelfPurchaseError(l.GoodsID)
		}
	}

	plan := &CheckoutPlan{Address: *addr}
	index := make(map[string]int)
	for _, l := range lines {
		g := found[l.GoodsID]
		i, ok := index[g.SellerID]
		if !ok {
			i = len(plan.Groups)
			index[g.SellerID] = i
			plan.Groups = append(plan.Groups, SellerGroup{SellerID: g.SellerID})
		}
		plan.Groups[i].Lines = append(plan.Groups[i].Lines, Line{Goods: g, Quantity: l.Quantity})
	}
	return plan, nil
}

func mergeLines(in []CheckoutLine) ([]CheckoutLine, error) {
	if len(in) == 0 {
		return nil, NewEmptyOrderItemsError()
	}
	out := make([]CheckoutLine, 0, len(in))
	index := make(map[string]int, len(in))
	for _, l := range in {
		if l.GoodsID == "" {
			return nil, shared.NewValidationError("order_item", "goods_id", "goods id is required")
		}
		if l.Quantity <= 0 {
			return nil, NewInvalidQuantityError(l.GoodsID, l.Quantity)
		}
		if i, ok := index[l.GoodsID]; ok {
			// 合并后数量不能溢出
			if out[i].Quantity > math.MaxInt-l.Quantity {
				return nil, NewInvalidQuantityError(l.GoodsID, l.Quantity)
			}
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.GoodsID] = len(out)
		out = append(out, l)
	}
	return out, nil
}
