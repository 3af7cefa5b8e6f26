package repository

import (
	"context"

	"github.com/huakang/medtrade/internal/trade/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SupplyRepository struct {
	db *gorm.DB
}

func NewSupplyRepository(db *gorm.DB) *SupplyRepository {
	return &SupplyRepository{db: db}
}

// FindByID 获取供应信息
func (r *SupplyRepository) FindByID(ctx context.Context, id string) (*entity.SupplyInfo, error) {
	var info entity.SupplyInfo
	err := r.db.WithContext(ctx).
		Preload("Tenant").
		Preload("Drug").
		First(&info, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// SupplyForUpdate 按ID取供应信息并加行锁
func SupplyForUpdate(tx *gorm.DB, id string) (*entity.SupplyInfo, error) {
	var info entity.SupplyInfo
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&info, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// SupplyByDrugForUpdate 按 (tenant, drug) 取供应信息并加行锁，
// 优先 ACTIVE，其次 INACTIVE（补偿恢复时挂牌可能已自动下架）。
func SupplyByDrugForUpdate(tx *gorm.DB, tenantID, drugID string) (*entity.SupplyInfo, error) {
	var info entity.SupplyInfo
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND drug_id = ? AND status = ?", tenantID, drugID, entity.SupplyStatusActive).
		First(&info).Error
	if err == nil {
		return &info, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND drug_id = ? AND status = ?", tenantID, drugID, entity.SupplyStatusInactive).
		First(&info).Error
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// SupplyListParams 供应信息列表查询参数
type SupplyListParams struct {
	TenantID string
	DrugID   string
	Status   string
	Page     int
	PageSize int
}

func (r *SupplyRepository) List(ctx context.Context, params SupplyListParams) ([]entity.SupplyInfo, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.SupplyInfo{})
	if params.TenantID != "" {
		query = query.Where("tenant_id = ?", params.TenantID)
	}
	if params.DrugID != "" {
		query = query.Where("drug_id = ?", params.DrugID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 20
	}
	var infos []entity.SupplyInfo
	err := query.Preload("Tenant").Preload("Drug").
		Order("updated_at DESC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&infos).Error
	return infos, total, err
}

func (r *SupplyRepository) Create(ctx context.Context, info *entity.SupplyInfo) error {
	return r.db.WithContext(ctx).Create(info).Error
}

func (r *SupplyRepository) Update(ctx context.Context, info *entity.SupplyInfo) error {
	return r.db.WithContext(ctx).Save(info).Error
}

