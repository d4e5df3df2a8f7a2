package specification

import (
	"marketplace/domain/order"
	"marketplace/domain/shared"

	"gorm.io/gorm"
)

// Scope is a GORM query modifier
type Scope = func(*gorm.DB) *gorm.DB

// OrderTranslator converts order specifications to GORM scopes
// DDD principle: Infrastructure layer handles framework-specific concerns
type OrderTranslator struct{}

func NewOrderTranslator() *OrderTranslator {
	return &OrderTranslator{}
}

// Translate returns nil for a nil specification.
// Unknown specification types yield a scope that matches nothing, never everything.
func (t *OrderTranslator) Translate(spec shared.Specification[*order.Order]) Scope {
	if spec == nil {
		return nil
	}

	switch s := spec.(type) {
	case shared.AndSpecification[*order.Order]:
		return t.translateAnd(s)
	case shared.OrSpecification[*order.Order]:
		return t.translateOr(s)
	case shared.NotSpecification[*order.Order]:
		return t.translateNot(s)
	}

	return t.translateConcrete(spec)
}

func (t *OrderTranslator) translateAnd(spec shared.AndSpecification[*order.Order]) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if left := t.Translate(spec.Left); left != nil {
			db = left(db)
		}
		if right := t.Translate(spec.Right); right != nil {
			db = right(db)
		}
		return db
	}
}

// translateOr 两侧分别作为分组条件，用 OR 连接
func (t *OrderTranslator) translateOr(spec shared.OrSpecification[*order.Order]) Scope {
	return func(db *gorm.DB) *gorm.DB {
		left := t.group(db, spec.Left)
		right := t.group(db, spec.Right)
		return db.Where(db.Session(&gorm.Session{NewDB: true}).Where(left).Or(right))
	}
}

func (t *OrderTranslator) translateNot(spec shared.NotSpecification[*order.Order]) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Not(t.group(db, spec.Spec))
	}
}

// group 将子规约翻译为一个独立的条件组
func (t *OrderTranslator) group(db *gorm.DB, spec shared.Specification[*order.Order]) *gorm.DB {
	sub := db.Session(&gorm.Session{NewDB: true})
	if scope := t.Translate(spec); scope != nil {
		return scope(sub)
	}
	return sub.Where("1 = 1")
}

func (t *OrderTranslator) translateConcrete(spec shared.Specification[*order.Order]) Scope {
	switch s := spec.(type) {
	case order.ByBuyerSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("buyer_id = ?", s.BuyerID)
		}
	case order.BySellerSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("seller_id = ?", s.SellerID)
		}
	case order.ByStatusSpecification:
		statuses := make([]string, len(s.Statuses))
		for i, st := range s.Statuses {
			statuses[i] = string(st)
		}
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("status IN ?", statuses)
		}
	case order.NotDeletedSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("is_deleted = ?", false)
		}
	case order.CreatedBeforeSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("created_at < ?", s.Before)
		}
	}

	return func(db *gorm.DB) *gorm.DB {
		return db.Where("1 = 0")
	}
}
