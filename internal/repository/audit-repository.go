package repository

import (
	"errors"
	"log"

	"github.com/SundayYogurt/equipment_service/internal/domain"
	"gorm.io/gorm"
)

type AuditRepository interface {
	Append(entry *domain.AuditLog) error
	ListByToolKey(key string, limit int) ([]domain.AuditLog, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(entry *domain.AuditLog) error {
	if entry == nil {
		return errors.New("nil audit entry")
	}

	if err := r.db.Create(entry).Error; err != nil {
		log.Printf("append audit log error: %v", err)
		return errors.New("failed to append audit log")
	}
	return nil
}

func (r *auditRepository) ListByToolKey(key string, limit int) ([]domain.AuditLog, error) {
	var logs []domain.AuditLog

	err := r.db.
		Where("tool_key = ?", key).
		Order("created_at desc").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		log.Printf("list audit logs error: %v", err)
		return nil, errors.New("failed to list audit logs")
	}

	return logs, nil
}
