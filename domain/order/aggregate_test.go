package order

import (
	"errors"
	"testing"
	"time"

	"marketplace/domain/address"
	"marketplace/domain/goods"
	"marketplace/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

const (
	buyer  = "buyer-1"
	seller = "seller-1"
)

func newTestOrder(t *testing.T, lines ...Line) *Order {
	t.Helper()
	if len(lines) == 0 {
		lines = []Line{{Goods: goods.Goods{ID: "g-1", SellerID: seller, Title: "Lamp", CoverImage: "lamp.jpg",
			Price: shared.MustMoney("10.00"), Stock: 5, Status: goods.StatusApproved}, Quantity: 1}}
	}
	o, err := NewOrder(NewOrderParams{
		OrderNo:  "100001",
		BuyerID:  buyer,
		SellerID: seller,
		Address: address.Address{ID: "addr-1", OwnerUserID: buyer, ReceiverName: "Li Lei",
			ReceiverPhone: "13800000000", FullAddress: "1 Main St"},
		Lines:     lines,
		CreatedAt: t0,
	})
	require.NoError(t, err)
	o.MarkPersisted()
	o.PullEvents()
	return o
}

// assertItemsInStep 订单与每个订单项状态一致
func assertItemsInStep(t *testing.T, o *Order) {
	t.Helper()
	for _, item := range o.Items() {
		assert.Equal(t, o.Status(), item.OrderStatus())
		assert.Equal(t, ItemStatusFor(o.Status()), item.ItemStatus())
	}
}

func eventNames(o *Order) []string {
	var names []string
	for _, e := range o.PullEvents() {
		names = append(names, e.EventName())
	}
	return names
}

func TestNewOrderSnapshotsAndTotals(t *testing.T) {
	o, err := NewOrder(NewOrderParams{
		OrderNo:  "1",
		BuyerID:  buyer,
		SellerID: seller,
		Address:  address.Address{ReceiverName: "Han Meimei", ReceiverPhone: "1", FullAddress: "2 Side St"},
		Lines: []Line{
			{Goods: goods.Goods{ID: "a", SellerID: seller, Title: "A", Price: shared.MustMoney("19.99")}, Quantity: 2},
			{Goods: goods.Goods{ID: "b", SellerID: seller, Title: "B", Price: shared.MustMoney("0.02")}, Quantity: 1},
		},
		CreatedAt: t0,
	})
	require.NoError(t, err)

	assert.True(t, o.IsNew())
	assert.Equal(t, StatusPendingPay, o.Status())
	assert.Equal(t, "40.00", o.TotalAmount().String())
	assert.Equal(t, "0.00", o.ShippingFee().String())
	assert.Equal(t, "Han Meimei", o.ReceiverName())
	require.Len(t, o.Items(), 2)
	assert.Equal(t, "39.98", o.Items()[0].Amount().String())
	assertItemsInStep(t, o)
	assert.Equal(t, []string{EventOrderPlaced}, eventNames(o))
}

func TestNewOrderValidation(t *testing.T) {
	base := NewOrderParams{OrderNo: "1", BuyerID: buyer, SellerID: seller, CreatedAt: t0}

	_, err := NewOrder(base)
	assert.True(t, errors.Is(err, ErrEmptyOrderItems))

	p := base
	p.Lines = []Line{{Goods: goods.Goods{ID: "a", SellerID: seller}, Quantity: 0}}
	_, err = NewOrder(p)
	assert.True(t, errors.Is(err, ErrInvalidQuantity))

	p.Lines = []Line{{Goods: goods.Goods{ID: "a", SellerID: "other"}, Quantity: 1}}
	_, err = NewOrder(p)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestHappyPathToCompletion(t *testing.T) {
	o := newTestOrder(t)

	require.NoError(t, o.Pay(buyer, t0.Add(time.Minute)))
	assert.Equal(t, StatusPaid, o.Status())
	require.NotNil(t, o.PayTime())
	assertItemsInStep(t, o)

	require.NoError(t, o.Ship(seller, false, Shipment{Company: "SF", TrackingNo: "SF123"}, t0.Add(time.Hour)))
	assert.Equal(t, StatusShipped, o.Status())
	for _, item := range o.Items() {
		assert.Equal(t, "SF", item.ShipCompany())
		assert.Equal(t, "SF123", item.TrackingNo())
		require.NotNil(t, item.ShipTime())
	}
	assertItemsInStep(t, o)

	require.NoError(t, o.ConfirmReceive(buyer, t0.Add(48*time.Hour)))
	assert.Equal(t, StatusCompleted, o.Status())
	assert.True(t, o.IsSettled())
	require.NotNil(t, o.SettledTime())
	assertItemsInStep(t, o)
	assert.Nil(t, o.TakeStockRelease())

	assert.Equal(t, []string{EventOrderPaid, EventOrderShipped, EventOrderCompleted}, eventNames(o))
}

func TestGuardFailuresLeaveOrderUntouched(t *testing.T) {
	tests := []struct {
		name     string
		prepare  func(o *Order)
		act      func(o *Order) error
		sentinel error
	}{
		{"pay by stranger", nil, func(o *Order) error { return o.Pay("stranger", t0) }, ErrOrderForbidden},
		{"pay twice", func(o *Order) { _ = o.Pay(buyer, t0) }, func(o *Order) error { return o.Pay(buyer, t0) }, ErrInvalidOrderState},
		{"cancel paid order", func(o *Order) { _ = o.Pay(buyer, t0) }, func(o *Order) error { return o.Cancel(buyer, "", t0) }, ErrInvalidOrderState},
		{"seller cancels", nil, func(o *Order) error { return o.Cancel(seller, "", t0) }, ErrOrderForbidden},
		{"ship unpaid", nil, func(o *Order) error {
			return o.Ship(seller, false, Shipment{Company: "SF", TrackingNo: "1"}, t0)
		}, ErrInvalidOrderState},
		{"buyer ships", func(o *Order) { _ = o.Pay(buyer, t0) }, func(o *Order) error {
			return o.Ship(buyer, false, Shipment{Company: "SF", TrackingNo: "1"}, t0)
		}, ErrOrderForbidden},
		{"ship without tracking", func(o *Order) { _ = o.Pay(buyer, t0) }, func(o *Order) error {
			return o.Ship(seller, false, Shipment{Company: "SF"}, t0)
		}, ErrInvalidShipment},
		{"receive unshipped", func(o *Order) { _ = o.Pay(buyer, t0) }, func(o *Order) error { return o.ConfirmReceive(buyer, t0) }, ErrInvalidOrderState},
		{"refund unpaid", nil, func(o *Order) error {
			_, err := o.RequestRefund(buyer, "", DefaultRefundEscalationThreshold, t0)
			return err
		}, ErrInvalidOrderState},
		{"handle refund without request", func(o *Order) { _ = o.Pay(buyer, t0) }, func(o *Order) error {
			return o.HandleRefund(seller, true, "", t0)
		}, ErrInvalidOrderState},
		{"resolve non-disputed", nil, func(o *Order) error {
			return o.ResolveDispute(ResolveRefund, "admin", "", t0)
		}, ErrInvalidOrderState},
		{"delete active order", nil, func(o *Order) error { return o.MarkDeleted(buyer, t0) }, ErrInvalidOrderState},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := newTestOrder(t)
			if tc.prepare != nil {
				tc.prepare(o)
				o.MarkPersisted()
				o.PullEvents()
			}
			before := o.Status()
			count := o.RefundRequestCount()

			err := tc.act(o)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.sentinel), "got %v", err)
			assert.Equal(t, before, o.Status())
			assert.Equal(t, count, o.RefundRequestCount())
			assert.Empty(t, o.PullEvents())
			assert.Nil(t, o.TakeStockRelease())
			assertItemsInStep(t, o)
		})
	}
}

func TestAdminMayShipOnSellersBehalf(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.Pay(buyer, t0))
	require.NoError(t, o.Ship("admin-1", true, Shipment{Company: "EMS", TrackingNo: "E1"}, t0))
	assert.Equal(t, StatusShipped, o.Status())
}

func TestCancelReleasesStockExactlyOnce(t *testing.T) {
	o := newTestOrder(t,
		Line{Goods: goods.Goods{ID: "a", SellerID: seller, Price: shared.MustMoney("1")}, Quantity: 2},
		Line{Goods: goods.Goods{ID: "b", SellerID: seller, Price: shared.MustMoney("3")}, Quantity: 1},
	)

	require.NoError(t, o.Cancel(buyer, "changed my mind", t0))
	assert.Equal(t, StatusCanceled, o.Status())
	assert.Equal(t, CancelReasonUser, o.CancelReason())
	require.NotNil(t, o.CancelTime())
	assert.True(t, o.StockReleased())
	assertItemsInStep(t, o)

	assert.Equal(t, []StockLine{{GoodsID: "a", Quantity: 2}, {GoodsID: "b", Quantity: 1}}, o.TakeStockRelease())
	assert.Nil(t, o.TakeStockRelease(), "release lines are handed out once")

	events := o.PullEvents()
	require.Len(t, events, 1)
	canceled, ok := events[0].(*OrderCanceledEvent)
	require.True(t, ok)
	assert.Equal(t, "changed my mind", canceled.Payload()["reason"])
}

func TestReleaseIsRefusedWhenAlreadyReleased(t *testing.T) {
	o := newTestOrder(t)
	o.stockReleased = true

	err := o.Cancel(buyer, "", t0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStockAlreadyReleased))
}

func TestCancelBySystemIsIdempotent(t *testing.T) {
	o := newTestOrder(t)

	canceled, err := o.CancelBySystem(t0.Add(16 * time.Minute))
	require.NoError(t, err)
	assert.True(t, canceled)
	assert.Equal(t, CancelReasonTimeout, o.CancelReason())
	assert.Len(t, o.TakeStockRelease(), 1)
	o.MarkPersisted()
	o.PullEvents()

	canceled, err = o.CancelBySystem(t0.Add(17 * time.Minute))
	require.NoError(t, err)
	assert.False(t, canceled)
	assert.Nil(t, o.TakeStockRelease())
	assert.Empty(t, o.PullEvents())
}

func TestCancelBySystemAfterPayIsNoop(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.Pay(buyer, t0.Add(time.Minute)))

	canceled, err := o.CancelBySystem(t0.Add(16 * time.Minute))
	require.NoError(t, err)
	assert.False(t, canceled)
	assert.Equal(t, StatusPaid, o.Status())
	assert.False(t, o.StockReleased())
}

func TestRefundEscalationIsDeterministic(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.Pay(buyer, t0))

	for attempt := 1; attempt <= 2; attempt++ {
		escalated, err := o.RequestRefund(buyer, "broken", DefaultRefundEscalationThreshold, t0)
		require.NoError(t, err)
		assert.False(t, escalated)
		assert.Equal(t, StatusRefunding, o.Status())
		assert.Equal(t, attempt, o.RefundRequestCount())
		assertItemsInStep(t, o)

		require.NoError(t, o.HandleRefund(seller, false, "no", t0))
		assert.Equal(t, StatusPaid, o.Status())
		assert.Equal(t, attempt, o.RefundRequestCount())
	}

	escalated, err := o.RequestRefund(buyer, "still broken", DefaultRefundEscalationThreshold, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, escalated)
	assert.Equal(t, StatusDisputed, o.Status())
	assert.Equal(t, 2, o.RefundRequestCount())
	require.NotNil(t, o.DisputeTime())
	assertItemsInStep(t, o)

	names := eventNames(o)
	assert.Equal(t, EventOrderDisputed, names[len(names)-1])
}

func TestSellerApprovesRefund(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.Pay(buyer, t0))
	_, err := o.RequestRefund(buyer, "", DefaultRefundEscalationThreshold, t0)
	require.NoError(t, err)

	err = o.HandleRefund("someone-else", true, "", t0)
	assert.True(t, errors.Is(err, ErrOrderForbidden))

	require.NoError(t, o.HandleRefund(seller, true, "ok", t0))
	assert.Equal(t, StatusRefunded, o.Status())
	assert.Equal(t, CancelReasonBuyerRefund, o.CancelReason())
	assert.Equal(t, 0, o.RefundRequestCount())
	assert.Len(t, o.TakeStockRelease(), 1)
	for _, item := range o.Items() {
		assert.Equal(t, ItemCanceled, item.ItemStatus())
		assert.Equal(t, StatusRefunded, item.OrderStatus())
	}
}

func disputedOrder(t *testing.T) *Order {
	t.Helper()
	o := newTestOrder(t)
	require.NoError(t, o.Pay(buyer, t0))
	for i := 0; i < DefaultRefundEscalationThreshold; i++ {
		_, err := o.RequestRefund(buyer, "", DefaultRefundEscalationThreshold, t0)
		require.NoError(t, err)
		require.NoError(t, o.HandleRefund(seller, false, "", t0))
	}
	escalated, err := o.RequestRefund(buyer, "", DefaultRefundEscalationThreshold, t0)
	require.NoError(t, err)
	require.True(t, escalated)
	o.PullEvents()
	return o
}

func TestResolveDispute(t *testing.T) {
	t.Run("refund", func(t *testing.T) {
		o := disputedOrder(t)
		require.NoError(t, o.ResolveDispute(ResolveRefund, "admin-1", "buyer is right", t0))
		assert.Equal(t, StatusRefunded, o.Status())
		assert.Equal(t, CancelReasonAdmin, o.CancelReason())
		assert.Equal(t, 0, o.RefundRequestCount())
		assert.Len(t, o.TakeStockRelease(), 1)
		assertItemsInStep(t, o)
		assert.Equal(t, []string{EventOrderRefunded, EventOrderDisputeResolved}, eventNames(o))
	})

	t.Run("complete", func(t *testing.T) {
		o := disputedOrder(t)
		require.NoError(t, o.ResolveDispute(ResolveComplete, "admin-1", "seller is right", t0))
		assert.Equal(t, StatusCompleted, o.Status())
		assert.True(t, o.IsSettled())
		assert.Equal(t, 0, o.RefundRequestCount())
		assert.Nil(t, o.TakeStockRelease())
		assertItemsInStep(t, o)
	})

	t.Run("unknown resolution", func(t *testing.T) {
		o := disputedOrder(t)
		err := o.ResolveDispute("SPLIT", "admin-1", "", t0)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Equal(t, StatusDisputed, o.Status())
	})
}

func TestMarkDeleted(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.Cancel(buyer, "", t0))

	assert.True(t, errors.Is(o.MarkDeleted(seller, t0), ErrOrderForbidden))
	require.NoError(t, o.MarkDeleted(buyer, t0))
	assert.True(t, o.Deleted())
}

func TestMarkPersistedMovesGuard(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.Pay(buyer, t0))
	assert.Equal(t, StatusPendingPay, o.LoadedStatus())

	o.IncrementVersionForSave()
	o.MarkPersisted()
	assert.Equal(t, StatusPaid, o.LoadedStatus())
	assert.Equal(t, 1, o.Version())
	assert.False(t, o.IsNew())
}
