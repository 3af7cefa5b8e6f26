package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/huakang/medtrade/internal/trade/entity"
	"github.com/huakang/medtrade/internal/trade/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InventoryService 批次库存服务。任何数量变更都与对应流水同事务写入。
type InventoryService struct {
	inventory *repository.InventoryRepository
	db        *gorm.DB
	logger    *zap.Logger
}

func NewInventoryService(inventory *repository.InventoryRepository, db *gorm.DB, logger *zap.Logger) *InventoryService {
	return &InventoryService{inventory: inventory, db: db, logger: logger}
}

// InventoryItemView 批次视图，附带预警标记
type InventoryItemView struct {
	entity.InventoryItem
	IsLowStock   bool `json:"is_low_stock"`
	IsNearExpiry bool `json:"is_near_expiry"`
	IsExpired    bool `json:"is_expired"`
	DaysToExpiry int  `json:"days_to_expiry"`
}

func toView(item entity.InventoryItem) InventoryItemView {
	return InventoryItemView{
		InventoryItem: item,
		IsLowStock:    item.IsLowStock(),
		IsNearExpiry:  item.IsNearExpiry(),
		IsExpired:     item.IsExpired(),
		DaysToExpiry:  item.DaysToExpiry(),
	}
}

// List 本企业批次库存列表（监管与管理员可查任意企业）
func (s *InventoryService) List(ctx context.Context, actor Actor, params repository.InventoryListParams) ([]InventoryItemView, int64, error) {
	switch actor.Role {
	case RoleAdmin, RoleRegulator:
		// params.TenantID 按请求透传
	case RolePharmacy, RoleSupplier:
		if actor.TenantID == "" {
			return nil, 0, errValidation("用户未关联企业")
		}
		params.TenantID = actor.TenantID
	default:
		return nil, 0, errForbidden("权限不足")
	}

	items, total, err := s.inventory.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	views := make([]InventoryItemView, 0, len(items))
	for _, item := range items {
		views = append(views, toView(item))
	}
	return views, total, nil
}

// Get 批次详情
func (s *InventoryService) Get(ctx context.Context, actor Actor, id string) (*InventoryItemView, error) {
	item, err := s.inventory.FindByID(ctx, id)
	if err == gorm.ErrRecordNotFound {
		return nil, errNotFound("库存记录不存在")
	}
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleAdmin && actor.Role != RoleRegulator && item.TenantID != actor.TenantID {
		return nil, errForbidden("无权限访问此库存记录")
	}
	view := toView(*item)
	return &view, nil
}

// CreateBatchRequest 入库请求
type CreateBatchRequest struct {
	DrugID         string  `json:"drug_id" binding:"required"`
	BatchNumber    string  `json:"batch_number" binding:"required"`
	ProductionDate string  `json:"production_date" binding:"required"`
	ExpiryDate     string  `json:"expiry_date" binding:"required"`
	Quantity       int     `json:"quantity" binding:"required"`
	UnitPrice      float64 `json:"unit_price"`
	Notes          string  `json:"notes"`
}

// CreateBatch 手工入库。批次已存在则累加数量，否则新建，同事务写 IN 流水。
func (s *InventoryService) CreateBatch(ctx context.Context, actor Actor, req CreateBatchRequest) (*InventoryItemView, error) {
	if actor.Role != RolePharmacy && actor.Role != RoleSupplier && actor.Role != RoleAdmin {
		return nil, errForbidden("权限不足，需要药店或供应商角色")
	}
	if actor.TenantID == "" {
		return nil, errValidation("用户未关联企业")
	}
	if req.Quantity <= 0 {
		return nil, errValidation("入库数量必须大于0")
	}
	productionDate, err := time.Parse("2006-01-02", req.ProductionDate)
	if err != nil {
		return nil, errValidation("生产日期格式错误，请使用 YYYY-MM-DD")
	}
	expiryDate, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		return nil, errValidation("有效期格式错误，请使用 YYYY-MM-DD")
	}
	if !expiryDate.After(productionDate) {
		return nil, errValidation("有效期必须晚于生产日期")
	}

	var itemID string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := repository.BatchForUpdate(tx, actor.TenantID, req.DrugID, req.BatchNumber)
		if err != nil && err != gorm.ErrRecordNotFound {
			return err
		}
		if existing != nil {
			existing.Quantity += req.Quantity
			if err := tx.Save(existing).Error; err != nil {
				return err
			}
			itemID = existing.ID
		} else {
			item := &entity.InventoryItem{
				ID:             uuid.New().String(),
				TenantID:       actor.TenantID,
				DrugID:         req.DrugID,
				BatchNumber:    req.BatchNumber,
				ProductionDate: productionDate,
				ExpiryDate:     expiryDate,
				Quantity:       req.Quantity,
				UnitPrice:      req.UnitPrice,
			}
			if err := tx.Create(item).Error; err != nil {
				return err
			}
			itemID = item.ID
		}
		record := &entity.InventoryTransaction{
			ID:              uuid.New().String(),
			InventoryItemID: itemID,
			TransactionType: entity.TxTypeIn,
			QuantityDelta:   req.Quantity,
			Notes:           req.Notes,
			CreatedBy:       actor.UserID,
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, itemID)
}

// AdjustRequest 库存调整请求
type AdjustRequest struct {
	QuantityDelta int    `json:"quantity_delta" binding:"required"`
	Reason        string `json:"reason" binding:"required"`
}

// Adjust 库存盘点调整。结果不得为负，同事务写 ADJUST 流水。
func (s *InventoryService) Adjust(ctx context.Context, actor Actor, itemID string, req AdjustRequest) (*InventoryItemView, error) {
	if actor.Role != RolePharmacy && actor.Role != RoleSupplier && actor.Role != RoleAdmin {
		return nil, errForbidden("权限不足，需要药店或供应商角色")
	}
	if req.QuantityDelta == 0 {
		return nil, errValidation("调整数量不能为0")
	}

	item, err := s.inventory.FindByID(ctx, itemID)
	if err == gorm.ErrRecordNotFound {
		return nil, errNotFound("库存记录不存在")
	}
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleAdmin && item.TenantID != actor.TenantID {
		return nil, errForbidden("无权限调整此库存记录")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := repository.BatchForUpdate(tx, item.TenantID, item.DrugID, item.BatchNumber)
		if err != nil {
			return err
		}
		newQuantity := locked.Quantity + req.QuantityDelta
		if newQuantity < 0 {
			return errStateConflict("库存不足：当前 %d，调整 %d", locked.Quantity, req.QuantityDelta)
		}
		locked.Quantity = newQuantity
		if err := tx.Save(locked).Error; err != nil {
			return err
		}
		record := &entity.InventoryTransaction{
			ID:              uuid.New().String(),
			InventoryItemID: locked.ID,
			TransactionType: entity.TxTypeAdjust,
			QuantityDelta:   req.QuantityDelta,
			Notes:           req.Reason,
			CreatedBy:       actor.UserID,
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("库存已调整",
		zap.String("inventory_item_id", itemID),
		zap.Int("delta", req.QuantityDelta),
		zap.String("reason", req.Reason))
	return s.Get(ctx, actor, itemID)
}

// ListTransactions 库存流水查询
func (s *InventoryService) ListTransactions(ctx context.Context, actor Actor, inventoryItemID string, page, pageSize int) ([]entity.InventoryTransaction, int64, error) {
	tenantID := ""
	switch actor.Role {
	case RoleAdmin, RoleRegulator:
		// 全量可查
	case RolePharmacy, RoleSupplier:
		if actor.TenantID == "" {
			return nil, 0, errValidation("用户未关联企业")
		}
		tenantID = actor.TenantID
		if inventoryItemID != "" {
			item, err := s.inventory.FindByID(ctx, inventoryItemID)
			if err == gorm.ErrRecordNotFound {
				return nil, 0, errNotFound("库存记录不存在")
			}
			if err != nil {
				return nil, 0, err
			}
			if item.TenantID != actor.TenantID {
				return nil, 0, errForbidden("无权限查询此库存记录的流水")
			}
		}
	default:
		return nil, 0, errForbidden("权限不足")
	}
	return s.inventory.ListTransactions(ctx, tenantID, inventoryItemID, page, pageSize)
}
