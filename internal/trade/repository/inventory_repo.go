package repository

import (
	"context"

	"github.com/huakang/medtrade/internal/trade/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// FindByID 获取批次记录
func (r *InventoryRepository) FindByID(ctx context.Context, id string) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CandidateBatchesForUpdate 查询可扣减的候选批次并加行锁。
// 按效期升序、id升序排列（先进先出，优先消耗临期批次）；
// batchNumber 非空时精确匹配指定批号，不做替代。
func CandidateBatchesForUpdate(tx *gorm.DB, tenantID, drugID, batchNumber string) ([]entity.InventoryItem, error) {
	query := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND drug_id = ? AND quantity > 0", tenantID, drugID)
	if batchNumber != "" {
		query = query.Where("batch_number = ?", batchNumber)
	}
	var items []entity.InventoryItem
	err := query.Order("expiry_date ASC, id ASC").Find(&items).Error
	return items, err
}

// BatchForUpdate 按 (tenant, drug, batch) 取批次并加行锁，不存在时返回 gorm.ErrRecordNotFound
func BatchForUpdate(tx *gorm.DB, tenantID, drugID, batchNumber string) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND drug_id = ? AND batch_number = ?", tenantID, drugID, batchNumber).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// TotalQuantity 某租户某药品的在库总量
func (r *InventoryRepository) TotalQuantity(ctx context.Context, tenantID, drugID string) (int, error) {
	var result struct{ Total int }
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(quantity), 0) AS total
		FROM inventory_items
		WHERE tenant_id = ? AND drug_id = ? AND quantity > 0
	`, tenantID, drugID).Scan(&result).Error
	return result.Total, err
}

// FirstBatchNumber 取该租户该药品任一批次号（流通记录冗余用）
func (r *InventoryRepository) FirstBatchNumber(ctx context.Context, tenantID, drugID string) (string, error) {
	var item entity.InventoryItem
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND drug_id = ?", tenantID, drugID).
		Order("expiry_date ASC, id ASC").
		First(&item).Error
	if err != nil {
		return "", err
	}
	return item.BatchNumber, nil
}

// InventoryListParams 库存列表查询参数
type InventoryListParams struct {
	TenantID string
	DrugID   string
	Page     int
	PageSize int
}

func (r *InventoryRepository) List(ctx context.Context, params InventoryListParams) ([]entity.InventoryItem, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.InventoryItem{})
	if params.TenantID != "" {
		query = query.Where("tenant_id = ?", params.TenantID)
	}
	if params.DrugID != "" {
		query = query.Where("drug_id = ?", params.DrugID)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 20
	}
	var items []entity.InventoryItem
	err := query.Preload("Drug").
		Order("expiry_date ASC, id ASC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&items).Error
	return items, total, err
}

// ListTransactions 库存流水列表
func (r *InventoryRepository) ListTransactions(ctx context.Context, tenantID, inventoryItemID string, page, pageSize int) ([]entity.InventoryTransaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.InventoryTransaction{})
	if inventoryItemID != "" {
		query = query.Where("inventory_item_id = ?", inventoryItemID)
	} else if tenantID != "" {
		query = query.Where("inventory_item_id IN (?)",
			r.db.Model(&entity.InventoryItem{}).Select("id").Where("tenant_id = ?", tenantID))
	}
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	var txs []entity.InventoryTransaction
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&txs).Error
	return txs, total, err
}

