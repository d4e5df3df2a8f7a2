package po

import (
	"time"

	"marketplace/domain/address"
	"marketplace/domain/goods"
	"marketplace/domain/shared"

	"github.com/shopspring/decimal"
)

// GoodsPO 商品表。本服务只读商品信息，stock 列只经由库存台账修改
type GoodsPO struct {
	ID         string          `gorm:"primaryKey;size:64"`
	SellerID   string          `gorm:"size:64;index;not null"`
	Title      string          `gorm:"size:255;not null"`
	CoverImage string          `gorm:"size:512"`
	Price      decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Stock      int             `gorm:"not null;default:0"`
	Status     string          `gorm:"size:20;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (GoodsPO) TableName() string {
	return "goods"
}

func (po *GoodsPO) ToDomain() goods.Goods {
	return goods.Goods{
		ID:         po.ID,
		SellerID:   po.SellerID,
		Title:      po.Title,
		CoverImage: po.CoverImage,
		Price:      shared.NewMoney(po.Price),
		Stock:      po.Stock,
		Status:     goods.Status(po.Status),
	}
}

// AddressPO 收货地址表（只读）
type AddressPO struct {
	ID            string `gorm:"primaryKey;size:64"`
	UserID        string `gorm:"size:64;index;not null"`
	ReceiverName  string `gorm:"size:64;not null"`
	ReceiverPhone string `gorm:"size:32;not null"`
	FullAddress   string `gorm:"size:512;not null"`
	IsDeleted     bool   `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (AddressPO) TableName() string {
	return "addresses"
}

func (po *AddressPO) ToDomain() *address.Address {
	return &address.Address{
		ID:            po.ID,
		OwnerUserID:   po.UserID,
		ReceiverName:  po.ReceiverName,
		ReceiverPhone: po.ReceiverPhone,
		FullAddress:   po.FullAddress,
		Deleted:       po.IsDeleted,
	}
}
