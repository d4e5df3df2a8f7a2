package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/domain/order"
	"marketplace/domain/shared"
	"marketplace/infrastructure/persistence"
	"marketplace/infrastructure/persistence/mysql/po"
	"marketplace/infrastructure/persistence/specification"

	"gorm.io/gorm"
)

// OrderRepository MySQL/GORM implementation of order repository
// DDD principle: Repository is only responsible for persistence of aggregate roots, not event publishing
// GORM usage specification: Association features are prohibited to maintain DDD aggregate boundaries
type OrderRepository struct {
	db         *gorm.DB
	translator *specification.OrderTranslator
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db, translator: specification.NewOrderTranslator()}
}

// Save 新订单插入订单与订单项；已有订单做条件更新：
//
//	UPDATE orders SET ..., version = version + 1
//	WHERE id = ? AND version = ? AND status = <加载时状态>
//
// 0 行受影响说明订单已被并发修改，返回 ErrConcurrentModification。
// 订单项状态在同一事务内随后更新。
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	orderPO, itemPOs := po.FromOrderDomain(o)

	save := func(tx *gorm.DB) error {
		if o.IsNew() {
			return r.insert(tx, orderPO, itemPOs)
		}
		return r.update(tx, o, orderPO, itemPOs)
	}

	var err error
	if tx := persistence.TxFromContext(ctx); tx != nil {
		err = save(tx)
	} else {
		err = r.db.WithContext(ctx).Transaction(save)
	}
	if err != nil {
		return err
	}

	o.IncrementVersionForSave()
	o.MarkPersisted()
	return nil
}

func (r *OrderRepository) insert(tx *gorm.DB, orderPO *po.OrderPO, itemPOs []po.OrderItemPO) error {
	orderPO.Version = 1
	if err := tx.Create(orderPO).Error; err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	if len(itemPOs) > 0 {
		if err := tx.Create(&itemPOs).Error; err != nil {
			return fmt.Errorf("failed to insert order items: %w", err)
		}
	}
	return nil
}

func (r *OrderRepository) update(tx *gorm.DB, o *order.Order, orderPO *po.OrderPO, itemPOs []po.OrderItemPO) error {
	columns := orderPO.StatusColumns()
	columns["version"] = gorm.Expr("version + 1")

	result := tx.Model(&po.OrderPO{}).
		Where("id = ? AND version = ? AND status = ?", o.ID(), o.Version(), string(o.LoadedStatus())).
		Updates(columns)
	if result.Error != nil {
		return fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return order.NewConcurrentModificationError(o.ID())
	}

	for i := range itemPOs {
		if err := tx.Model(&po.OrderItemPO{}).
			Where("id = ? AND order_id = ?", itemPOs[i].ID, o.ID()).
			Updates(itemPOs[i].StatusColumns()).Error; err != nil {
			return fmt.Errorf("failed to update order item: %w", err)
		}
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	return r.findOne(ctx, id, "id = ?", id)
}

func (r *OrderRepository) FindByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	return r.findOne(ctx, orderNo, "order_no = ?", orderNo)
}

func (r *OrderRepository) findOne(ctx context.Context, key, query string, arg interface{}) (*order.Order, error) {
	db := persistence.DB(ctx, r.db)

	var orderPO po.OrderPO
	err := db.Where(query, arg).Where("is_deleted = ?", false).First(&orderPO).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.NewOrderNotFoundError(key)
		}
		return nil, err
	}

	orders, err := r.assemble(db, []po.OrderPO{orderPO})
	if err != nil {
		return nil, err
	}
	return orders[0], nil
}

// List 非删除订单按规约分页，创建时间倒序
func (r *OrderRepository) List(ctx context.Context, spec shared.Specification[*order.Order], page order.Page) ([]*order.Order, int64, error) {
	page = page.Normalize()
	db := persistence.DB(ctx, r.db)

	query := db.Model(&po.OrderPO{})
	spec = shared.And[*order.Order](spec, order.NotDeletedSpecification{})
	if scope := r.translator.Translate(spec); scope != nil {
		query = query.Scopes(scope)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return nil, 0, nil
	}

	var orderPOs []po.OrderPO
	if err := query.Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Size).
		Find(&orderPOs).Error; err != nil {
		return nil, 0, err
	}

	orders, err := r.assemble(db, orderPOs)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *OrderRepository) CountActiveByBuyer(ctx context.Context, buyerID string) (int64, error) {
	spec := shared.And[*order.Order](
		order.NewByBuyerSpecification(buyerID),
		order.NewByStatusSpecification(order.ActiveStatuses...),
		order.NotDeletedSpecification{},
	)

	var count int64
	err := persistence.DB(ctx, r.db).Model(&po.OrderPO{}).
		Scopes(r.translator.Translate(spec)).
		Count(&count).Error
	return count, err
}

// FindExpiredPending 使用 (status, created_at) 索引，最早的订单在前
func (r *OrderRepository) FindExpiredPending(ctx context.Context, before time.Time, limit int) ([]*order.Order, error) {
	db := persistence.DB(ctx, r.db)

	var orderPOs []po.OrderPO
	if err := db.Model(&po.OrderPO{}).
		Scopes(r.translator.Translate(order.ExpiredPendingSpecification(before))).
		Order("created_at ASC").Order("id ASC").
		Limit(limit).
		Find(&orderPOs).Error; err != nil {
		return nil, err
	}
	return r.assemble(db, orderPOs)
}

// assemble 一次查询取回所有订单项，按订单手动组装（不使用 Preload）
func (r *OrderRepository) assemble(db *gorm.DB, orderPOs []po.OrderPO) ([]*order.Order, error) {
	if len(orderPOs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(orderPOs))
	for i := range orderPOs {
		ids[i] = orderPOs[i].ID
	}

	var itemPOs []po.OrderItemPO
	if err := db.Where("order_id IN ?", ids).Order("id ASC").Find(&itemPOs).Error; err != nil {
		return nil, err
	}

	byOrder := make(map[string][]po.OrderItemPO, len(orderPOs))
	for _, item := range itemPOs {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}

	orders := make([]*order.Order, len(orderPOs))
	for i := range orderPOs {
		orders[i] = orderPOs[i].ToDomain(byOrder[orderPOs[i].ID])
	}
	return orders, nil
}

// Compile-time interface implementation check
var _ order.Repository = (*OrderRepository)(nil)
