/*
Package goods holds the read-only goods snapshot the order core consumes and
the Stock Ledger contract, the only way goods stock is ever written.
*/
package goods

import (
	"context"
	"errors"

	"marketplace/domain/shared"
)

// Status 商品审核/上架状态
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusOffline  Status = "OFFLINE"
)

var (
	ErrGoodsNotFound       = errors.New("goods not found")
	ErrGoodsNotPurchasable = errors.New("goods is not purchasable")
	ErrStockInsufficient   = errors.New("stock insufficient")
)

// Goods is a snapshot of a catalog row at read time.
type Goods struct {
	ID         string
	SellerID   string
	Title      string
	CoverImage string
	Price      shared.Money
	Stock      int
	Status     Status
}

func (g Goods) Purchasable() bool { return g.Status == StatusApproved }

// Provider reads goods owned by the catalog.
type Provider interface {
	// FindByIDs returns the goods that exist, keyed by id. Missing ids are simply absent.
	FindByIDs(ctx context.Context, ids []string) (map[string]Goods, error)
}

// StockLedger performs single-statement conditional stock updates.
type StockLedger interface {
	// Deduct decrements stock only when stock >= qty. false means nothing changed.
	Deduct(ctx context.Context, goodsID string, qty int) (bool, error)
	// Release increments stock by qty. false means the goods row no longer exists.
	Release(ctx context.Context, goodsID string, qty int) (bool, error)
}

func NewGoodsNotFoundError(goodsID string) error {
	return shared.NewDomainError(ErrGoodsNotFound, "goods", "goods_id", "goods not found: "+goodsID)
}

func NewNotPurchasableError(goodsID string, status Status) error {
	return shared.NewDomainError(ErrGoodsNotPurchasable, "goods", "status",
		"goods "+goodsID+" is "+string(status)+", only APPROVED goods can be purchased")
}

func NewStockInsufficientError(goodsID string) error {
	return shared.NewDomainError(ErrStockInsufficient, "goods", "stock", "insufficient stock for goods "+goodsID)
}
