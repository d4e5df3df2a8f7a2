package order

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"marketplace/domain/address"
	"marketplace/domain/goods"
	"marketplace/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrders struct {
	Repository
	active int64
}

func (s stubOrders) CountActiveByBuyer(context.Context, string) (int64, error) { return s.active, nil }

type stubAddresses map[string]address.Address

func (s stubAddresses) FindByID(_ context.Context, id string) (*address.Address, error) {
	a, ok := s[id]
	if !ok {
		return nil, address.NewAddressNotFoundError(id)
	}
	return &a, nil
}

type stubGoods map[string]goods.Goods

func (s stubGoods) FindByIDs(_ context.Context, ids []string) (map[string]goods.Goods, error) {
	out := make(map[string]goods.Goods)
	for _, id := range ids {
		if g, ok := s[id]; ok {
			out[id] = g
		}
	}
	return out, nil
}

func checkoutFixture(active int64) *CheckoutService {
	addrs := stubAddresses{
		"home":    {ID: "home", OwnerUserID: buyer, ReceiverName: "Li Lei", FullAddress: "1 Main St"},
		"gone":    {ID: "gone", OwnerUserID: buyer, Deleted: true},
		"another": {ID: "another", OwnerUserID: "someone-else"},
	}
	catalog := stubGoods{
		"a1":      {ID: "a1", SellerID: "seller-a", Price: shared.MustMoney("10.00"), Stock: 5, Status: goods.StatusApproved},
		"a2":      {ID: "a2", SellerID: "seller-a", Price: shared.MustMoney("2.50"), Stock: 5, Status: goods.StatusApproved},
		"b1":      {ID: "b1", SellerID: "seller-b", Price: shared.MustMoney("7.00"), Stock: 1, Status: goods.StatusApproved},
		"draft":   {ID: "draft", SellerID: "seller-a", Stock: 5, Status: goods.StatusDraft},
		"mine":    {ID: "mine", SellerID: buyer, Stock: 5, Status: goods.StatusApproved},
		"soldout": {ID: "soldout", SellerID: "seller-a", Stock: 0, Status: goods.StatusApproved},
	}
	return NewCheckoutService(stubOrders{active: active}, addrs, catalog, 10)
}

func TestPlanGroupsBySellerInFirstSeenOrder(t *testing.T) {
	svc := checkoutFixture(0)

	plan, err := svc.Plan(context.Background(), CheckoutRequest{
		BuyerID:   buyer,
		AddressID: "home",
		Lines: []CheckoutLine{
			{GoodsID: "a1", Quantity: 1},
			{GoodsID: "b1", Quantity: 1},
			{GoodsID: "a2", Quantity: 2},
			{GoodsID: "a1", Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Li Lei", plan.Address.ReceiverName)
	require.Len(t, plan.Groups, 2)
	assert.Equal(t, "seller-a", plan.Groups[0].SellerID)
	assert.Equal(t, "seller-b", plan.Groups[1].SellerID)

	require.Len(t, plan.Groups[0].Lines, 2)
	assert.Equal(t, "a1", plan.Groups[0].Lines[0].Goods.ID)
	assert.Equal(t, 2, plan.Groups[0].Lines[0].Quantity, "duplicate lines are merged")
	assert.Equal(t, "a2", plan.Groups[0].Lines[1].Goods.ID)
	require.Len(t, plan.Groups[1].Lines, 1)
}

func TestPlanPreconditions(t *testing.T) {
	tests := []struct {
		name     string
		active   int64
		address  string
		lines    []CheckoutLine
		sentinel error
	}{
		{"empty request", 0, "home", nil, ErrEmptyOrderItems},
		{"non-positive quantity", 0, "home", []CheckoutLine{{GoodsID: "a1", Quantity: 0}}, ErrInvalidQuantity},
		{"active cap reached", 10, "home", []CheckoutLine{{GoodsID: "a1", Quantity: 1}}, ErrActiveOrderLimit},
		{"unknown address", 0, "nowhere", []CheckoutLine{{GoodsID: "a1", Quantity: 1}}, address.ErrAddressNotFound},
		{"deleted address", 0, "gone", []CheckoutLine{{GoodsID: "a1", Quantity: 1}}, address.ErrAddressNotFound},
		{"foreign address", 0, "another", []CheckoutLine{{GoodsID: "a1", Quantity: 1}}, address.ErrAddressNotFound},
		{"missing goods", 0, "home", []CheckoutLine{{GoodsID: "a1", Quantity: 1}, {GoodsID: "ghost", Quantity: 1}}, goods.ErrGoodsNotFound},
		{"unapproved goods", 0, "home", []CheckoutLine{{GoodsID: "draft", Quantity: 1}}, goods.ErrGoodsNotPurchasable},
		{"stock pre-check", 0, "home", []CheckoutLine{{GoodsID: "b1", Quantity: 2}}, goods.ErrStockInsufficient},
		{"merged lines exceed stock", 0, "home", []CheckoutLine{{GoodsID: "b1", Quantity: 1}, {GoodsID: "b1", Quantity: 1}}, goods.ErrStockInsufficient},
		{"merged quantity overflows", 0, "home", []CheckoutLine{{GoodsID: "a1", Quantity: math.MaxInt}, {GoodsID: "a1", Quantity: math.MaxInt}}, ErrInvalidQuantity},
		{"self purchase", 0, "home", []CheckoutLine{{GoodsID: "mine", Quantity: 1}}, ErrSelfPurchase},
		// 校验顺序：缺失商品先于库存、先于自购
		{"missing before stock", 0, "home", []CheckoutLine{{GoodsID: "soldout", Quantity: 1}, {GoodsID: "ghost", Quantity: 1}}, goods.ErrGoodsNotFound},
		{"stock before self purchase", 0, "home", []CheckoutLine{{GoodsID: "mine", Quantity: 1}, {GoodsID: "soldout", Quantity: 1}}, goods.ErrStockInsufficient},
		{"cap before address", 10, "nowhere", []CheckoutLine{{GoodsID: "a1", Quantity: 1}}, ErrActiveOrderLimit},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := checkoutFixture(tc.active).Plan(context.Background(), CheckoutRequest{
				BuyerID:   buyer,
				AddressID: tc.address,
				Lines:     tc.lines,
			})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.sentinel), "got %v", err)
		})
	}
}

func TestSpecifications(t *testing.T) {
	ctx := context.Background()
	o := newTestOrder(t)

	assert.True(t, NewByBuyerSpecification(buyer).IsSatisfiedBy(ctx, o))
	assert.False(t, NewBySellerSpecification(buyer).IsSatisfiedBy(ctx, o))
	assert.True(t, NewByStatusSpecification(StatusPaid, StatusPendingPay).IsSatisfiedBy(ctx, o))
	assert.Nil(t, NewByStatusSpecification())

	expired := ExpiredPendingSpecification(t0.Add(15 * time.Minute))
	assert.True(t, expired.IsSatisfiedBy(ctx, o))
	assert.False(t, ExpiredPendingSpecification(t0).IsSatisfiedBy(ctx, o))

	require.NoError(t, o.Pay(buyer, t0))
	assert.False(t, expired.IsSatisfiedBy(ctx, o))
}

func TestPageNormalize(t *testing.T) {
	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, Page{}.Normalize())
	assert.Equal(t, Page{Number: 3, Size: MaxPageSize}, Page{Number: 3, Size: 1000}.Normalize())
	assert.Equal(t, 40, Page{Number: 3, Size: 20}.Offset())
}
