package po

import (
	"time"

	"marketplace/domain/audit"
	"marketplace/domain/dispute"
)

// AuditLogPO 操作审计
type AuditLogPO struct {
	ID           string    `gorm:"primaryKey;size:64"`
	OrderID      string    `gorm:"size:64;index;not null"`
	Action       string    `gorm:"size:64;not null"`
	OperatorID   string    `gorm:"size:64"`
	OperatorRole string    `gorm:"size:20;not null"`
	Reason       string    `gorm:"size:512"`
	CreatedAt    time.Time `gorm:"not null;index"`
}

func (AuditLogPO) TableName() string {
	return "audit_logs"
}

func FromAuditEntry(id string, e audit.Entry) *AuditLogPO {
	return &AuditLogPO{
		ID:           id,
		OrderID:      e.OrderID,
		Action:       string(e.Action),
		OperatorID:   e.OperatorID,
		OperatorRole: string(e.OperatorRole),
		Reason:       e.Reason,
		CreatedAt:    e.OccurredAt,
	}
}

// DisputePO 纠纷记录
type DisputePO struct {
	ID         string    `gorm:"primaryKey;size:64"`
	OrderID    string    `gorm:"size:64;index;not null"`
	OrderNo    string    `gorm:"size:32;not null"`
	BuyerID    string    `gorm:"size:64;not null"`
	SellerID   string    `gorm:"size:64;not null"`
	Reason     string    `gorm:"size:512"`
	Status     string    `gorm:"size:20;not null;index"`
	Resolution string    `gorm:"size:20"`
	AdminID    string    `gorm:"size:64"`
	Note       string    `gorm:"size:512"`
	OpenedAt   time.Time `gorm:"not null"`
	ResolvedAt *time.Time
}

func (DisputePO) TableName() string {
	return "disputes"
}

func FromDispute(d *dispute.Dispute) *DisputePO {
	return &DisputePO{
		ID:         d.ID,
		OrderID:    d.OrderID,
		OrderNo:    d.OrderNo,
		BuyerID:    d.BuyerID,
		SellerID:   d.SellerID,
		Reason:     d.Reason,
		Status:     string(d.Status),
		Resolution: string(d.Resolution),
		AdminID:    d.AdminID,
		Note:       d.Note,
		OpenedAt:   d.OpenedAt,
		ResolvedAt: d.ResolvedAt,
	}
}

func (po *DisputePO) ToDomain() *dispute.Dispute {
	return &dispute.Dispute{
		ID:         po.ID,
		OrderID:    po.OrderID,
		OrderNo:    po.OrderNo,
		BuyerID:    po.BuyerID,
		SellerID:   po.SellerID,
		Reason:     po.Reason,
		Status:     dispute.Status(po.Status),
		Resolution: dispute.Resolution(po.Resolution),
		AdminID:    po.AdminID,
		Note:       po.Note,
		OpenedAt:   po.OpenedAt,
		ResolvedAt: po.ResolvedAt,
	}
}
