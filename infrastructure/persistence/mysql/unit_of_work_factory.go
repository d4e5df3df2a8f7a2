package mysql

import (
	"marketplace/domain/shared"

	"gorm.io/gorm"
)

type UnitOfWorkFactory struct {
	db *gorm.DB
}

func NewUnitOfWorkFactory(db *gorm.DB) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db}
}

// New returns a fresh UnitOfWork; instances are not shared between use cases
func (f *UnitOfWorkFactory) New() shared.UnitOfWork {
	return NewUnitOfWork(f.db)
}

var _ shared.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)
