package repository

import (
	"errors"
	"log"

	"github.com/SundayYogurt/equipment_service/internal/domain"
	"gorm.io/gorm"
)

type ToolRepository interface {
	FindByKey(key string, kind domain.RegistryKind) (*domain.Tool, error)
	FindByDisplayName(name string, kind domain.RegistryKind) (*domain.Tool, error)
	ListByKind(kind domain.RegistryKind) ([]domain.Tool, error)
	UpsertTool(tool *domain.Tool) error
}

type toolRepository struct {
	db *gorm.DB
}

func NewToolRepository(db *gorm.DB) ToolRepository {
	return &toolRepository{db: db}
}

// FindByKey returns (nil, nil) on a miss — not found is a routine outcome of
// a scan, never an error.
func (r *toolRepository) FindByKey(key string, kind domain.RegistryKind) (*domain.Tool, error) {
	tool := &domain.Tool{}

	err := r.db.Where("registry_key = ? AND registry_kind = ?", key, kind).First(tool).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("find tool by key error: %v", err)
		return nil, errors.New("failed to find tool by key")
	}

	return tool, nil
}

func (r *toolRepository) FindByDisplayName(name string, kind domain.RegistryKind) (*domain.Tool, error) {
	tool := &domain.Tool{}

	err := r.db.Where("display_name = ? AND registry_kind = ?", name, kind).First(tool).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("find tool by display name error: %v", err)
		return nil, errors.New("failed to find tool by display name")
	}

	return tool, nil
}

func (r *toolRepository) ListByKind(kind domain.RegistryKind) ([]domain.Tool, error) {
	var tools []domain.Tool

	if err := r.db.Where("registry_kind = ?", kind).Order("registry_key asc").Find(&tools).Error; err != nil {
		log.Printf("list tools error: %v", err)
		return nil, errors.New("failed to list tools")
	}

	return tools, nil
}

// UpsertTool updates the row with the same (key, kind) or creates one. The
// in-memory record is the source of truth for every non-null column.
func (r *toolRepository) UpsertTool(tool *domain.Tool) error {
	if tool == nil {
		return errors.New("nil tool")
	}

	var existing domain.Tool
	err := r.db.Where("registry_key = ? AND registry_kind = ?", tool.RegistryKey, tool.RegistryKind).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.db.Create(tool).Error; err != nil {
			log.Printf("create tool error: %v", err)
			return errors.New("failed to create tool")
		}
		return nil
	}
	if err != nil {
		log.Printf("upsert tool lookup error: %v", err)
		return errors.New("failed to upsert tool")
	}

	tool.ID = existing.ID
	tool.CreatedAt = existing.CreatedAt
	if err := r.db.Save(tool).Error; err != nil {
		log.Printf("save tool error: %v", err)
		return errors.New("failed to save tool")
	}
	return nil
}
