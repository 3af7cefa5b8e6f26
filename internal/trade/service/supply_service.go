package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huakang/medtrade/internal/trade/entity"
	"github.com/huakang/medtrade/internal/trade/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SupplyService 供应信息（可售挂牌）服务。
// AvailableQuantity 只是预占计数器，挂牌时对照实物库存做一次上限校验，
// 之后与 InventoryItem.Quantity 各自独立变化。
type SupplyService struct {
	repo          *repository.SupplyRepository
	inventoryRepo *repository.InventoryRepository
	db            *gorm.DB
	logger        *zap.Logger
}

func NewSupplyService(repo *repository.SupplyRepository, inventoryRepo *repository.InventoryRepository, db *gorm.DB, logger *zap.Logger) *SupplyService {
	return &SupplyService{repo: repo, inventoryRepo: inventoryRepo, db: db, logger: logger}
}

// adjustSupplyQuantity 调整供应信息可供数量并重算上下架状态。
// delta 正数恢复、负数预占；结果为负时拒绝且不产生任何变更。
// 状态只由结果数量决定：0 下架，>0 上架。
func adjustSupplyQuantity(tx *gorm.DB, logger *zap.Logger, supplyInfoID, tenantID, drugID string, delta int, operationDesc string) (*entity.SupplyInfo, error) {
	var info *entity.SupplyInfo
	var err error
	if supplyInfoID != "" {
		info, err = repository.SupplyForUpdate(tx, supplyInfoID)
		if err == gorm.ErrRecordNotFound {
			return nil, errNotFound("供应信息不存在")
		}
		if err != nil {
			return nil, err
		}
		if info.TenantID != tenantID || info.DrugID != drugID {
			return nil, errValidation("供应信息与订单的企业或药品不匹配")
		}
	} else {
		info, err = repository.SupplyByDrugForUpdate(tx, tenantID, drugID)
		if err == gorm.ErrRecordNotFound {
			if logger != nil {
				logger.Warn("未找到可调整的供应信息",
					zap.String("tenant_id", tenantID),
					zap.String("drug_id", drugID),
					zap.String("operation", operationDesc))
			}
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
	}

	oldQuantity := info.AvailableQuantity
	newQuantity := oldQuantity + delta
	if newQuantity < 0 {
		return nil, errStateConflict("供应信息可供数量不足：当前 %d，请求变更 %d", oldQuantity, delta)
	}

	info.AvailableQuantity = newQuantity
	if newQuantity == 0 {
		info.Status = entity.SupplyStatusInactive
	} else {
		info.Status = entity.SupplyStatusActive
	}
	info.UpdatedAt = time.Now().UTC()

	if err := tx.Save(info).Error; err != nil {
		return nil, fmt.Errorf("更新供应信息失败: %w", err)
	}

	if logger != nil {
		logger.Info("供应信息数量已调整",
			zap.String("supply_info_id", info.ID),
			zap.Int("old_quantity", oldQuantity),
			zap.Int("new_quantity", newQuantity),
			zap.String("status", info.Status),
			zap.String("operation", operationDesc))
	}
	return info, nil
}

// CreateSupplyRequest 创建供应信息请求
type CreateSupplyRequest struct {
	DrugID            string  `json:"drug_id" binding:"required"`
	AvailableQuantity int     `json:"available_quantity" binding:"required,gt=0"`
	UnitPrice         float64 `json:"unit_price" binding:"required,gt=0"`
	ValidUntil        string  `json:"valid_until" binding:"required"` // YYYY-MM-DD
	MinOrderQuantity  int     `json:"min_order_quantity"`
	Description       string  `json:"description"`
}

// Create 创建供应信息。挂牌数量不得超过当前实物库存总量。
func (s *SupplyService) Create(ctx context.Context, actor Actor, req CreateSupplyRequest) (*entity.SupplyInfo, error) {
	if actor.TenantID == "" {
		return nil, errValidation("用户未关联企业，无法发布供应信息")
	}
	validUntil, err := time.Parse("2006-01-02", req.ValidUntil)
	if err != nil {
		return nil, errValidation("有效期格式错误，请使用 YYYY-MM-DD")
	}
	if !validUntil.After(time.Now().UTC()) {
		return nil, errValidation("有效期必须晚于今天")
	}
	minOrder := req.MinOrderQuantity
	if minOrder == 0 {
		minOrder = 1
	}
	if minOrder < 0 {
		return nil, errValidation("最小起订量必须大于0")
	}

	available, err := s.inventoryRepo.TotalQuantity(ctx, actor.TenantID, req.DrugID)
	if err != nil {
		return nil, fmt.Errorf("查询库存失败: %w", err)
	}
	if req.AvailableQuantity > available {
		return nil, errValidation("可供数量 %d 超出当前在库总量 %d", req.AvailableQuantity, available)
	}

	info := &entity.SupplyInfo{
		ID:                uuid.New().String(),
		TenantID:          actor.TenantID,
		DrugID:            req.DrugID,
		AvailableQuantity: req.AvailableQuantity,
		UnitPrice:         req.UnitPrice,
		ValidUntil:        validUntil,
		MinOrderQuantity:  minOrder,
		Description:       req.Description,
		Status:            entity.SupplyStatusActive,
	}
	if err := s.repo.Create(ctx, info); err != nil {
		return nil, fmt.Errorf("创建供应信息失败: %w", err)
	}
	return info, nil
}

// UpdateSupplyRequest 更新供应信息请求，零值字段不更新
type UpdateSupplyRequest struct {
	AvailableQuantity *int     `json:"available_quantity"`
	UnitPrice         *float64 `json:"unit_price"`
	ValidUntil        string   `json:"valid_until"`
	MinOrderQuantity  *int     `json:"min_order_quantity"`
	Description       *string  `json:"description"`
}

// Update 更新自己企业的供应信息，数量变更同样受在库总量约束
func (s *SupplyService) Update(ctx context.Context, actor Actor, id string, req UpdateSupplyRequest) (*entity.SupplyInfo, error) {
	info, err := s.repo.FindByID(ctx, id)
	if err == gorm.ErrRecordNotFound {
		return nil, errNotFound("供应信息不存在")
	}
	if err != nil {
		return nil, err
	}
	if info.TenantID != actor.TenantID && actor.Role != RoleAdmin {
		return nil, errForbidden("无权限修改此供应信息")
	}

	if req.AvailableQuantity != nil {
		if *req.AvailableQuantity < 0 {
			return nil, errValidation("可供数量不能为负数")
		}
		available, err := s.inventoryRepo.TotalQuantity(ctx, info.TenantID, info.DrugID)
		if err != nil {
			return nil, fmt.Errorf("查询库存失败: %w", err)
		}
		if *req.AvailableQuantity > available {
			return nil, errValidation("可供数量 %d 超出当前在库总量 %d", *req.AvailableQuantity, available)
		}
		info.AvailableQuantity = *req.AvailableQuantity
		if info.AvailableQuantity == 0 {
			info.Status = entity.SupplyStatusInactive
		} else {
			info.Status = entity.SupplyStatusActive
		}
	}
	if req.UnitPrice != nil {
		if *req.UnitPrice <= 0 {
			return nil, errValidation("单价必须大于0")
		}
		info.UnitPrice = *req.UnitPrice
	}
	if req.ValidUntil != "" {
		validUntil, err := time.Parse("2006-01-02", req.ValidUntil)
		if err != nil {
			return nil, errValidation("有效期格式错误，请使用 YYYY-MM-DD")
		}
		info.ValidUntil = validUntil
	}
	if req.MinOrderQuantity != nil {
		if *req.MinOrderQuantity <= 0 {
			return nil, errValidation("最小起订量必须大于0")
		}
		info.MinOrderQuantity = *req.MinOrderQuantity
	}
	if req.Description != nil {
		info.Description = *req.Description
	}

	if err := s.repo.Update(ctx, info); err != nil {
		return nil, fmt.Errorf("更新供应信息失败: %w", err)
	}
	return info, nil
}

// Get 供应信息详情
func (s *SupplyService) Get(ctx context.Context, id string) (*entity.SupplyInfo, error) {
	info, err := s.repo.FindByID(ctx, id)
	if err == gorm.ErrRecordNotFound {
		return nil, errNotFound("供应信息不存在")
	}
	return info, err
}

// List 供应信息列表
func (s *SupplyService) List(ctx context.Context, params repository.SupplyListParams) ([]entity.SupplyInfo, int64, error) {
	return s.repo.List(ctx, params)
}
