package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/domain/audit"
	"marketplace/domain/dispute"
	"marketplace/infrastructure/persistence"
	"marketplace/infrastructure/persistence/mysql/po"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRepository writes audit_logs rows. Wrap it with AsyncAuditSink on request paths.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, entry audit.Entry) error {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	row := po.FromAuditEntry(uuid.NewString(), entry)
	if err := persistence.DB(ctx, r.db).Create(row).Error; err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// ListByOrder 按时间顺序返回订单的审计记录
func (r *AuditRepository) ListByOrder(ctx context.Context, orderID string) ([]audit.Entry, error) {
	var rows []po.AuditLogPO
	if err := persistence.DB(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]audit.Entry, len(rows))
	for i, row := range rows {
		entries[i] = audit.Entry{
			OrderID:      row.OrderID,
			Action:       audit.Action(row.Action),
			OperatorID:   row.OperatorID,
			OperatorRole: audit.Role(row.OperatorRole),
			Reason:       row.Reason,
			OccurredAt:   row.CreatedAt,
		}
	}
	return entries, nil
}

// DisputeRepository 纠纷记录
type DisputeRepository struct {
	db *gorm.DB
}

func NewDisputeRepository(db *gorm.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

func (r *DisputeRepository) Open(ctx context.Context, d *dispute.Dispute) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.Status = dispute.StatusOpen
	if err := persistence.DB(ctx, r.db).Create(po.FromDispute(d)).Error; err != nil {
		return fmt.Errorf("failed to open dispute: %w", err)
	}
	return nil
}

// Resolve 关闭订单的未决纠纷。没有未决记录时（例如历史数据）补写一条已解决记录。
func (r *DisputeRepository) Resolve(ctx context.Context, res dispute.Resolve) error {
	db := persistence.DB(ctx, r.db)

	result := db.Model(&po.DisputePO{}).
		Where("order_id = ? AND status = ?", res.OrderID, string(dispute.StatusOpen)).
		Updates(map[string]interface{}{
			"status":      string(dispute.StatusResolved),
			"resolution":  string(res.Resolution),
			"admin_id":    res.AdminID,
			"note":        res.Note,
			"resolved_at": res.ResolvedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to resolve dispute: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	resolvedAt := res.ResolvedAt
	row := &po.DisputePO{
		ID:         uuid.NewString(),
		OrderID:    res.OrderID,
		Status:     string(dispute.StatusResolved),
		Resolution: string(res.Resolution),
		AdminID:    res.AdminID,
		Note:       res.Note,
		OpenedAt:   res.ResolvedAt,
		ResolvedAt: &resolvedAt,
	}
	if err := db.Create(row).Error; err != nil {
		return fmt.Errorf("failed to record dispute resolution: %w", err)
	}
	return nil
}

func (r *DisputeRepository) ListOpen(ctx context.Context, offset, limit int) ([]*dispute.Dispute, int64, error) {
	query := persistence.DB(ctx, r.db).Model(&po.DisputePO{}).
		Where("status = ?", string(dispute.StatusOpen))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []po.DisputePO
	if err := query.Order("opened_at ASC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	disputes := make([]*dispute.Dispute, len(rows))
	for i := range rows {
		disputes[i] = rows[i].ToDomain()
	}
	return disputes, total, nil
}

// FindByOrder 最近一条纠纷记录
func (r *DisputeRepository) FindByOrder(ctx context.Context, orderID string) (*dispute.Dispute, error) {
	var row po.DisputePO
	err := persistence.DB(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("opened_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, dispute.ErrDisputeNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

var (
	_ audit.Sink         = (*AuditRepository)(nil)
	_ dispute.Repository = (*DisputeRepository)(nil)
)
