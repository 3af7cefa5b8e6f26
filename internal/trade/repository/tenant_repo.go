package repository

import (
	"context"

	"github.com/huakang/medtrade/internal/trade/entity"
	"gorm.io/gorm"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// FindByID 获取租户
func (r *TenantRepository) FindByID(ctx context.Context, id string) (*entity.Tenant, error) {
	var tenant entity.Tenant
	err := r.db.WithContext(ctx).First(&tenant, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// ListByType 按类型列出租户
func (r *TenantRepository) ListByType(ctx context.Context, tenantType string) ([]entity.Tenant, error) {
	var tenants []entity.Tenant
	err := r.db.WithContext(ctx).
		Where("type = ?", tenantType).
		Order("name ASC").
		Find(&tenants).Error
	return tenants, err
}

// FindDrugByID 获取药品
func (r *TenantRepository) FindDrugByID(ctx context.Context, id string) (*entity.Drug, error) {
	var drug entity.Drug
	err := r.db.WithContext(ctx).First(&drug, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &drug, nil
}
