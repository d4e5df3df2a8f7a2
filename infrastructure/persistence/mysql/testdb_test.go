package mysql

import (
	"context"
	"fmt"
	"testing"
	"time"

	"marketplace/domain/address"
	"marketplace/domain/goods"
	"marketplace/domain/order"
	"marketplace/domain/shared"
	"marketplace/infrastructure/persistence/mysql/po"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

// newTestDB 每个测试独享一个内存 sqlite，单连接保证事务与非事务语句看到同一份数据
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func seedGoods(t *testing.T, db *gorm.DB, id, sellerID string, stock int, status goods.Status) {
	t.Helper()
	require.NoError(t, db.Create(&po.GoodsPO{
		ID:       id,
		SellerID: sellerID,
		Title:    "goods " + id,
		Price:    decimal.RequireFromString("10.00"),
		Stock:    stock,
		Status:   string(status),
	}).Error)
}

func stockOf(t *testing.T, db *gorm.DB, id string) int {
	t.Helper()
	var row po.GoodsPO
	require.NoError(t, db.First(&row, "id = ?", id).Error)
	return row.Stock
}

var orderSeq int

func newPendingOrder(t *testing.T, buyerID string, createdAt time.Time) *order.Order {
	t.Helper()
	orderSeq++
	o, err := order.NewOrder(order.NewOrderParams{
		OrderNo:  fmt.Sprintf("9%05d", orderSeq),
		BuyerID:  buyerID,
		SellerID: "seller-1",
		Address: address.Address{ID: "addr-1", OwnerUserID: buyerID, ReceiverName: "Li Lei",
			ReceiverPhone: "13800000000", FullAddress: "1 Main St"},
		Lines: []order.Line{
			{Goods: goods.Goods{ID: "g-1", SellerID: "seller-1", Title: "Lamp",
				Price: shared.MustMoney("10.00"), Status: goods.StatusApproved}, Quantity: 2},
			{Goods: goods.Goods{ID: "g-2", SellerID: "seller-1", Title: "Desk",
				Price: shared.MustMoney("99.50"), Status: goods.StatusApproved}, Quantity: 1},
		},
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
	return o
}

func saveOrder(t *testing.T, repo *OrderRepository, o *order.Order) {
	t.Helper()
	require.NoError(t, repo.Save(context.Background(), o))
	o.PullEvents()
}
