package mysql

import (
	"context"
	"errors"
	"fmt"

	"marketplace/domain/address"
	"marketplace/domain/goods"
	"marketplace/infrastructure/persistence"
	"marketplace/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
)

// GoodsRepository 商品读取 + 库存台账
// 库存只通过 Deduct / Release 两条单语句条件更新修改，不做读-改-写
type GoodsRepository struct {
	db *gorm.DB
}

func NewGoodsRepository(db *gorm.DB) *GoodsRepository {
	return &GoodsRepository{db: db}
}

func (r *GoodsRepository) FindByIDs(ctx context.Context, ids []string) (map[string]goods.Goods, error) {
	result := make(map[string]goods.Goods, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var goodsPOs []po.GoodsPO
	if err := persistence.DB(ctx, r.db).Where("id IN ?", ids).Find(&goodsPOs).Error; err != nil {
		return nil, fmt.Errorf("failed to load goods: %w", err)
	}
	for i := range goodsPOs {
		result[goodsPOs[i].ID] = goodsPOs[i].ToDomain()
	}
	return result, nil
}

// Deduct UPDATE goods SET stock = stock - ? WHERE id = ? AND stock >= ?
func (r *GoodsRepository) Deduct(ctx context.Context, goodsID string, qty int) (bool, error) {
	if qty <= 0 {
		return false, fmt.Errorf("deduct quantity must be positive, got %d", qty)
	}
	result := persistence.DB(ctx, r.db).Model(&po.GoodsPO{}).
		Where("id = ? AND stock >= ?", goodsID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return false, fmt.Errorf("failed to deduct stock of goods %s: %w", goodsID, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Release UPDATE goods SET stock = stock + ? WHERE id = ?
func (r *GoodsRepository) Release(ctx context.Context, goodsID string, qty int) (bool, error) {
	if qty <= 0 {
		return false, fmt.Errorf("release quantity must be positive, got %d", qty)
	}
	result := persistence.DB(ctx, r.db).Model(&po.GoodsPO{}).
		Where("id = ?", goodsID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if result.Error != nil {
		return false, fmt.Errorf("failed to release stock of goods %s: %w", goodsID, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// AddressRepository 收货地址读取
type AddressRepository struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) *AddressRepository {
	return &AddressRepository{db: db}
}

// FindByID 已删除的地址同样返回，由调用方判断是否可用
func (r *AddressRepository) FindByID(ctx context.Context, id string) (*address.Address, error) {
	var addressPO po.AddressPO
	err := persistence.DB(ctx, r.db).First(&addressPO, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, address.NewAddressNotFoundError(id)
		}
		return nil, err
	}
	return addressPO.ToDomain(), nil
}

var (
	_ goods.Provider    = (*GoodsRepository)(nil)
	_ goods.StockLedger = (*GoodsRepository)(nil)
	_ address.Provider  = (*AddressRepository)(nil)
)
