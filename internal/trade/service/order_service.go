package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huakang/medtrade/internal/config"
	"github.com/huakang/medtrade/internal/trade/entity"
	"github.com/huakang/medtrade/internal/trade/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderService 订单生命周期服务。所有涉及库存台账或挂牌数量的状态变更
// 都在单个数据库事务内完成，异常即整体回滚。
type OrderService struct {
	repos   *repository.Repositories
	db      *gorm.DB
	sm      *OrderStateMachine
	numbers *orderNumberGenerator
	logger  *zap.Logger
	cfg     config.OrderConfig
}

func NewOrderService(repos *repository.Repositories, db *gorm.DB, sm *OrderStateMachine, numbers *orderNumberGenerator, logger *zap.Logger, cfg config.OrderConfig) *OrderService {
	if cfg.PendingExpiry <= 0 {
		cfg.PendingExpiry = 24 * time.Hour
	}
	if cfg.DefaultShelfLifeDays <= 0 {
		cfg.DefaultShelfLifeDays = 365
	}
	return &OrderService{repos: repos, db: db, sm: sm, numbers: numbers, logger: logger, cfg: cfg}
}

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	SupplyInfoID         string `json:"supply_info_id" binding:"required"`
	Quantity             int    `json:"quantity" binding:"required"`
	BatchNumber          string `json:"batch_number"` // 指定批号（可选）
	ExpectedDeliveryDate string `json:"expected_delivery_date"`
	Notes                string `json:"notes"`
}

// Create 创建订单并预占挂牌数量
func (s *OrderService) Create(ctx context.Context, actor Actor, req CreateOrderRequest) (*entity.Order, error) {
	if actor.Role != RolePharmacy && actor.Role != RoleSupplier && actor.Role != RoleAdmin {
		return nil, errForbidden("权限不足，需要药店或供应商角色")
	}
	if actor.TenantID == "" {
		return nil, errValidation("用户未关联企业，无法下单")
	}
	if req.Quantity <= 0 {
		return nil, errValidation("订购数量必须大于0")
	}

	var expectedDate *time.Time
	if req.ExpectedDeliveryDate != "" {
		t, err := time.Parse("2006-01-02", req.ExpectedDeliveryDate)
		if err != nil {
			return nil, errValidation("期望交付日期格式错误，请使用 YYYY-MM-DD")
		}
		expectedDate = &t
	}

	supplyInfo, err := s.repos.Supply.FindByID(ctx, req.SupplyInfoID)
	if err == gorm.ErrRecordNotFound {
		return nil, errNotFound("供应信息不存在")
	}
	if err != nil {
		return nil, err
	}

	if supplyInfo.Status != entity.SupplyStatusActive {
		return nil, errValidation("供应信息已下架，无法下单")
	}
	if !supplyInfo.ValidUntil.After(time.Now().UTC()) {
		return nil, errValidation("供应信息已过期，无法下单")
	}
	if req.Quantity > supplyInfo.AvailableQuantity {
		return nil, errStateConflict("库存不足：可供 %d，请求 %d", supplyInfo.AvailableQuantity, req.Quantity)
	}
	if req.Quantity < supplyInfo.MinOrderQuantity {
		return nil, errValidation("订购数量不满足最小起订量 %d", supplyInfo.MinOrderQuantity)
	}
	if actor.TenantID == supplyInfo.TenantID {
		return nil, errValidation("不能向自己的企业下单")
	}

	buyer, err := s.repos.Tenant.FindByID(ctx, actor.TenantID)
	if err != nil {
		return nil, errValidation("用户关联的企业不存在")
	}

	supplyInfoID := supplyInfo.ID
	order := &entity.Order{
		ID:                   uuid.New().String(),
		OrderNumber:          s.numbers.Next(ctx, buyer.Type),
		BuyerTenantID:        actor.TenantID,
		SupplierTenantID:     supplyInfo.TenantID,
		SupplyInfoID:         &supplyInfoID,
		ExpectedDeliveryDate: expectedDate,
		Notes:                req.Notes,
		Status:               entity.OrderStatusPending,
		CreatedBy:            actor.UserID,
		Items: []entity.OrderItem{{
			ID:          uuid.New().String(),
			DrugID:      supplyInfo.DrugID,
			BatchNumber: req.BatchNumber,
			UnitPrice:   supplyInfo.UnitPrice, // 成交价以下单时挂牌价锁定
			Quantity:    req.Quantity,
		}},
	}
	order.Items[0].OrderID = order.ID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 预占挂牌数量，不足则整单失败
		if _, err := adjustSupplyQuantity(tx, s.logger, supplyInfo.ID, supplyInfo.TenantID, supplyInfo.DrugID,
			-req.Quantity, fmt.Sprintf("订单 %s 预占", order.OrderNumber)); err != nil {
			return err
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("创建订单失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repos.Order.FindByID(ctx, order.ID)
}

// ConfirmOrderRequest 供应商确认请求
type ConfirmOrderRequest struct {
	Action string `json:"action" binding:"required"` // accept | reject
	Reason string `json:"reason"`
}

// Confirm 供应商确认或拒绝订单。拒绝会恢复挂牌数量。
func (s *OrderService) Confirm(ctx context.Context, actor Actor, orderID string, req ConfirmOrderRequest) (*entity.Order, error) {
	if actor.Role != RoleSupplier && actor.Role != RoleAdmin {
		return nil, errForbidden("权限不足，需要供应商角色")
	}
	order, err := s.repos.Order.FindByID(ctx, orderID)
	if err == gorm.ErrRecordNotFound {
		return nil, errNotFound("订单不存在")
	}
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleAdmin && order.SupplierTenantID != actor.TenantID {
		return nil, errForbidden("无权限确认此订单")
	}

	now := time.Now().UTC()
	switch req.Action {
	case "accept":
		if _, err := s.sm.Check(order.Status, entity.OrderStatusConfirmed, ModeStrict); err != nil {
			return nil, err
		}
		order.Status = entity.OrderStatusConfirmed
		order.ConfirmedBy = actor.UserID
		order.ConfirmedAt = &now
		if err := s.db.WithContext(ctx).Save(order).Error; err != nil {
			return nil, fmt.Errorf("确认订单失败: %w", err)
		}
	case "reject":
		if req.Reason == "" {
			return nil, errValidation("拒绝订单时必须提供原因")
		}
		if _, err := s.sm.Check(order.Status, entity.OrderStatusCancelledBySupplier, ModeStrict); err != nil {
			return nil, err
		}
		if err := s.cancelWithCompensation(ctx, order, entity.OrderStatusCancelledBySupplier, actor.UserID, req.Reason); err != nil {
			return nil, err
		}
	default:
		return nil, errValidation("action 必须是 accept 或 reject")
	}
	return s.repos.Order.FindByID(ctx, orderID)
}

// CancelOrderRequest 买方取消请求
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// Cancel 买方取消待确认订单，恢复挂牌数量
func (s *OrderService) Cancel(ctx context.Context, actor Actor, orderID string, req CancelOrderRequest) (*entity.Order, error) {
	if actor.Role != RolePharmacy && actor.Role != RoleSupplier && actor.Role != RoleAdmin {
		return nil, errForbidden("权限不足，需要药店或供应商角色")
	}
	order, err := s.repos.Order.FindByID(ctx, orderID)
	if err == gorm.ErrRecordNotFound {
		return nil, errNotFound("订单不存在")
	}
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleAdmin && order.BuyerTenantID != actor.TenantID {
		return nil, errForbidden("无权限取消此订单")
	}
	if _, err := s.sm.Check(order.Status, entity.OrderStatusCancelledByPharmacy, ModeStrict); err != nil {
		return nil, err
	}

	reason := req.Reason
	if reason == "" {
		reason = "用户主动取消"
	}
	if err := s.cancelWithCompensation(ctx, order, entity.OrderStatusCancelledByPharmacy, actor.UserID, reason); err != nil {
		return nil, err
	}
	return s.repos.Order.FindByID(ctx, orderID)
}

// cancelWithCompensation 终止订单并在同一事务内恢复挂牌数量
func (s *OrderService) cancelWithCompensation(ctx context.Context, order *entity.Order, status, userID, reason string) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order.Status = status
		order.CancelledBy = userID
		order.CancelledAt = &now
		order.CancelReason = reason
		if err := tx.Save(order).Error; err != nil {
			return fmt.Errorf("更新订单失败: %w", err)
		}
		for _, item := range order.Items {
			supplyInfoID := ""
			if order.SupplyInfoID != nil {
				supplyInfoID = *order.SupplyInfoID
			}
			if _, err := adjustSupplyQuantity(tx, s.logger, supplyInfoID, order.SupplierTenantID, item.DrugID,
				item.Quantity, fmt.Sprintf("订单 %s 取消恢复", order.OrderNumber)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ShipOrderRequest 发货请求
type ShipOrderRequest struct {
	TrackingNumber    string `json:"tracking_number"`
	LogisticsTenantID string `json:"logistics_tenant_id"`
}

// Ship 供应商发货。在同一事务内按批次扣减实物库存（先进先出，按效期），
// 任一明细不足则整体失败，订单保持 CONFIRMED。
func (s *OrderService) Ship(ctx context.Context, actor Actor, orderID string, req ShipOrderRequest) (*entity.Order, error) {
	if actor.Role != RoleSupplier && actor.Role != RoleAdmin {
		return nil, errForbidden("权限不足，需要供应商角色")
	}
	order, err := s.repos.Order.FindByID(ctx, orderID)
	if err == gorm.ErrRecordNotFound {
		return nil, errNotFound("订单不存在")
	}
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleAdmin && order.SupplierTenantID != actor.TenantID {
		return nil, errForbidden("无权限操作此订单")
	}
	if _, err := s.sm.Check(order.Status, entity.OrderStatusShipped, ModeStrict); err != nil {
		return nil, err
	}

	var logisticsID *string
	if req.LogisticsTenantID != "" {
		logistics, err := s.repos.Tenant.FindByID(ctx, req.LogisticsTenantID)
		if err != nil || logistics.Type != entity.TenantTypeLogistics {
			return nil, errValidation("无效的物流公司")
		}
		logisticsID = &req.LogisticsTenantID
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.deductForShipment(tx, order, actor.UserID); err != nil {
			return err
		}
		order.Status = entity.OrderStatusShipped
		order.TrackingNumber = req.TrackingNumber
		order.LogisticsTenantID = logisticsID
		order.ShippedAt = &now
		if err := tx.Save(order).Error; err != nil {
			return fmt.Errorf("更新订单失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repos.Order.FindByID(ctx, orderID)
}

// deductForShipment 发货扣减：逐明细按效期升序消耗供应商批次，
// 每次消耗写一条 OUT 流水，对端为买方企业。候选批次全程持有行锁。
func (s *OrderService) deductForShipment(tx *gorm.DB, order *entity.Order, userID string) error {
	for _, item := range order.Items {
		candidates, err := repository.CandidateBatchesForUpdate(tx, order.SupplierTenantID, item.DrugID, item.BatchNumber)
		if err != nil {
			return fmt.Errorf("查询批次库存失败: %w", err)
		}
		if len(candidates) == 0 {
			if item.BatchNumber != "" {
				return errStateConflict("批号 %s 无可用库存，无法发货", item.BatchNumber)
			}
			return errStateConflict("药品无可用批次库存，无法发货")
		}

		required := item.Quantity
		for i := range candidates {
			if required == 0 {
				break
			}
			batch := &candidates[i]
			deduction := batch.Quantity
			if deduction > required {
				deduction = required
			}
			batch.Quantity -= deduction
			if err := tx.Save(batch).Error; err != nil {
				return fmt.Errorf("扣减批次库存失败: %w", err)
			}
			orderID := order.ID
			buyerID := order.BuyerTenantID
			record := &entity.InventoryTransaction{
				ID:              uuid.New().String(),
				InventoryItemID: batch.ID,
				TransactionType: entity.TxTypeOut,
				QuantityDelta:   -deduction,
				SourceTenantID:  &buyerID,
				RelatedOrderID:  &orderID,
				Notes:           fmt.Sprintf("订单 %s 发货出库", order.OrderNumber),
				CreatedBy:       userID,
			}
			if err := tx.Create(record).Error; err != nil {
				return fmt.Errorf("写入库存流水失败: %w", err)
			}
			required -= deduction
		}
		if required > 0 {
			return errStateConflict("批次库存不足：尚缺 %d 件，无法发货", required)
		}
	}
	return nil
}

// ReceiveOrderRequest 收货请求
type ReceiveOrderRequest struct {
	Notes string `json:"notes"`
}

// Receive 买方确认收货。在同一事务内按明细入库到买方租户，
// 已有批次做加权平均合并，否则新建批次，并逐条写 IN 流水。
func (s *OrderService) Receive(ctx context.Context, actor Actor, orderID string, req ReceiveOrderRequest) (*entity.Order, error) {
	if actor.Role != RolePharmacy && actor.Role != RoleSupplier && actor.Role != RoleAdmin {
		return nil, errForbidden("权限不足，需要药店或供应商角色")
	}
	order, err := s.repos.Order.FindByID(ctx, orderID)
	if err == gorm.ErrRecordNotFound {
		return nil, errNotFound("订单不存在")
	}
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleAdmin && order.BuyerTenantID != actor.TenantID {
		return nil, errForbidden("无权限操作此订单")
	}
	if _, err := s.sm.Check(order.Status, entity.OrderStatusCompleted, ModeStrict); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.mergeForReceipt(tx, order, actor.UserID); err != nil {
			return err
		}
		order.Status = entity.OrderStatusCompleted
		order.ReceivedConfirmedBy = actor.UserID
		order.ReceivedAt = &now
		if req.Notes != "" {
			order.Notes = order.Notes + "\n收货备注: " + req.Notes
		}
		if err := tx.Save(order).Error; err != nil {
			return fmt.Errorf("更新订单失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repos.Order.FindByID(ctx, orderID)
}

// receiptBaseDate 入库基准日期：送达、发货、确认、创建时间中第一个非空值的日期
func (s *OrderService) receiptBaseDate(order *entity.Order) time.Time {
	var base time.Time
	switch {
	case order.DeliveredAt != nil:
		base = *order.DeliveredAt
	case order.ShippedAt != nil:
		base = *order.ShippedAt
	case order.ConfirmedAt != nil:
		base = *order.ConfirmedAt
	default:
		base = order.CreatedAt
	}
	y, m, d := base.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// mergeForReceipt 收货入库。批号取明细指定批号，未指定时合成
// AUTO-{订单号}-{明细ID} 保证唯一。合并已有批次时单价按加权平均保留两位。
func (s *OrderService) mergeForReceipt(tx *gorm.DB, order *entity.Order, userID string) error {
	baseDate := s.receiptBaseDate(order)
	defaultExpiry := baseDate.AddDate(0, 0, s.cfg.DefaultShelfLifeDays)

	for _, item := range order.Items {
		if item.Quantity <= 0 {
			s.logger.Warn("收货明细数量非正，跳过入库",
				zap.String("order_number", order.OrderNumber),
				zap.String("order_item_id", item.ID),
				zap.Int("quantity", item.Quantity))
			continue
		}

		batchNumber := item.BatchNumber
		if batchNumber == "" {
			batchNumber = fmt.Sprintf("AUTO-%s-%s", order.OrderNumber, item.ID)
		}

		orderID := order.ID
		supplierID := order.SupplierTenantID

		existing, err := repository.BatchForUpdate(tx, order.BuyerTenantID, item.DrugID, batchNumber)
		if err != nil && err != gorm.ErrRecordNotFound {
			return fmt.Errorf("查询买方批次失败: %w", err)
		}

		var inventoryItemID string
		if existing != nil {
			newQuantity := existing.Quantity + item.Quantity
			oldValue := decimal.NewFromFloat(existing.UnitPrice).Mul(decimal.NewFromInt(int64(existing.Quantity)))
			incValue := decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity)))
			avgPrice, _ := oldValue.Add(incValue).
				Div(decimal.NewFromInt(int64(newQuantity))).
				Round(2).Float64()
			existing.Quantity = newQuantity
			existing.UnitPrice = avgPrice
			if err := tx.Save(existing).Error; err != nil {
				return fmt.Errorf("合并买方批次失败: %w", err)
			}
			inventoryItemID = existing.ID
		} else {
			batch := &entity.InventoryItem{
				ID:             uuid.New().String(),
				TenantID:       order.BuyerTenantID,
				DrugID:         item.DrugID,
				BatchNumber:    batchNumber,
				ProductionDate: baseDate,
				ExpiryDate:     defaultExpiry,
				Quantity:       item.Quantity,
				UnitPrice:      item.UnitPrice,
			}
			if err := tx.Create(batch).Error; err != nil {
				return fmt.Errorf("创建买方批次失败: %w", err)
			}
			inventoryItemID = batch.ID
		}

		record := &entity.InventoryTransaction{
			ID:              uuid.New().String(),
			InventoryItemID: inventoryItemID,
			TransactionType: entity.TxTypeIn,
			QuantityDelta:   item.Quantity,
			SourceTenantID:  &supplierID,
			RelatedOrderID:  &orderID,
			Notes:           fmt.Sprintf("订单 %s 收货入库", order.OrderNumber),
			CreatedBy:       userID,
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("写入库存流水失败: %w", err)
		}
	}
	return nil
}

// UpdateStatusCarrier 物流侧状态推进（幂等路径）。重复上报当前状态
// 视为成功空操作；首个上报的物流公司自动认领未分配的订单。
// 推进到 COMPLETED 同样触发收货入库，保证台账守恒。
func (s *OrderService) UpdateStatusCarrier(ctx context.Context, actor Actor, orderID, newStatus string) (*entity.Order, bool, error) {
	if actor.Role != RoleLogistics && actor.Role != RoleAdmin {
		return nil, false, errForbidden("权限不足，需要物流公司或管理员角色")
	}
	order, err := s.repos.Order.FindByID(ctx, orderID)
	if err == gorm.ErrRecordNotFound {
		return nil, false, errNotFound("订单不存在")
	}
	if err != nil {
		return nil, false, err
	}

	// 归属校验先于幂等空操作判定，未分配到的物流公司对任何上报都无权
	if actor.Role == RoleLogistics && order.LogisticsTenantID != nil && *order.LogisticsTenantID != actor.TenantID {
		return nil, false, errForbidden("权限不足，只能更新分配给本公司的订单")
	}

	noop, err := s.sm.Check(order.Status, newStatus, ModeIdempotent)
	if err != nil {
		return nil, false, err
	}
	if noop {
		return order, true, nil
	}

	if actor.Role == RoleLogistics && order.LogisticsTenantID == nil {
		tenantID := actor.TenantID
		order.LogisticsTenantID = &tenantID
	}

	now := time.Now().UTC()
	oldStatus := order.Status
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if newStatus == entity.OrderStatusCompleted {
			if err := s.mergeForReceipt(tx, order, actor.UserID); err != nil {
				return err
			}
			if order.ReceivedAt == nil {
				order.ReceivedAt = &now
			}
		}
		order.Status = newStatus
		// 时间戳只在首次进入该状态时落一次
		if newStatus == entity.OrderStatusInTransit && order.ShippedAt == nil {
			order.ShippedAt = &now
		}
		if newStatus == entity.OrderStatusDelivered && order.DeliveredAt == nil {
			order.DeliveredAt = &now
		}
		if err := tx.Save(order).Error; err != nil {
			return fmt.Errorf("更新订单状态失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	s.logger.Info("物流状态已推进",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("old_status", oldStatus),
		zap.String("new_status", newStatus))
	return order, false, nil
}

// ExpireOverdue 将超时未确认的 PENDING 订单标记为超时取消并恢复挂牌数量。
// 由管理员显式触发，逐单独立事务，单个失败不影响其余订单。
func (s *OrderService) ExpireOverdue(ctx context.Context, actor Actor) (int, error) {
	if actor.Role != RoleAdmin {
		return 0, errForbidden("权限不足，需要管理员角色")
	}
	cutoff := time.Now().UTC().Add(-s.cfg.PendingExpiry)
	orders, err := s.repos.Order.FindOverduePending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("查询超时订单失败: %w", err)
	}

	expired := 0
	for i := range orders {
		order := orders[i]
		reason := fmt.Sprintf("供应商 %d 小时内未确认，系统自动取消", int(s.cfg.PendingExpiry.Hours()))
		if err := s.cancelWithCompensation(ctx, &order, entity.OrderStatusExpiredCancelled, actor.UserID, reason); err != nil {
			s.logger.Error("处理超时订单失败",
				zap.String("order_number", order.OrderNumber),
				zap.Error(err))
			continue
		}
		expired++
	}
	return expired, nil
}

// Get 订单详情（相关方可见）
func (s *OrderService) Get(ctx context.Context, actor Actor, id string) (*entity.Order, error) {
	order, err := s.repos.Order.FindByID(ctx, id)
	if err == gorm.ErrRecordNotFound {
		return nil, errNotFound("订单不存在")
	}
	if err != nil {
		return nil, err
	}
	if !s.canAccess(actor, order) {
		return nil, errForbidden("无权限访问此订单")
	}
	return order, nil
}

func (s *OrderService) canAccess(actor Actor, order *entity.Order) bool {
	switch actor.Role {
	case RoleAdmin, RoleRegulator:
		return true
	case RolePharmacy, RoleSupplier:
		return order.BuyerTenantID == actor.TenantID || order.SupplierTenantID == actor.TenantID
	case RoleLogistics:
		return order.LogisticsTenantID != nil && *order.LogisticsTenantID == actor.TenantID
	}
	return false
}

// List 按角色过滤的订单列表
func (s *OrderService) List(ctx context.Context, actor Actor, params repository.OrderListParams) ([]entity.Order, int64, error) {
	switch actor.Role {
	case RolePharmacy:
		params.BuyerTenantID = actor.TenantID
	case RoleSupplier:
		params.SupplierTenantID = actor.TenantID
	case RoleLogistics:
		return nil, 0, errForbidden("权限不足：物流用户请使用物流专用订单接口")
	case RoleAdmin, RoleRegulator:
		// 不过滤
	default:
		return nil, 0, errForbidden("权限不足")
	}
	return s.repos.Order.List(ctx, params)
}

// ListForLogistics 物流公司订单列表，仅配送段状态
func (s *OrderService) ListForLogistics(ctx context.Context, actor Actor, params repository.OrderListParams) ([]entity.Order, int64, error) {
	if actor.Role != RoleLogistics && actor.Role != RoleAdmin {
		return nil, 0, errForbidden("权限不足，需要物流公司或管理员角色")
	}
	if actor.Role == RoleLogistics {
		params.LogisticsTenantID = actor.TenantID
	}
	params.Statuses = []string{
		entity.OrderStatusShipped,
		entity.OrderStatusInTransit,
		entity.OrderStatusDelivered,
	}
	return s.repos.Order.List(ctx, params)
}

// OrderStats 订单统计
type OrderStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Confirmed int64 `json:"confirmed"`
	Shipped   int64 `json:"shipped"`
	InTransit int64 `json:"in_transit"`
	Delivered int64 `json:"delivered"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
	ThisMonth int64 `json:"this_month"`
}

// Stats 按角色统计各状态订单数量
func (s *OrderService) Stats(ctx context.Context, actor Actor) (*OrderStats, error) {
	if actor.TenantID == "" && actor.Role != RoleAdmin {
		return nil, errValidation("用户未关联企业")
	}
	params := repository.OrderListParams{}
	switch actor.Role {
	case RolePharmacy:
		params.BuyerTenantID = actor.TenantID
	case RoleSupplier:
		params.SupplierTenantID = actor.TenantID
	case RoleAdmin:
		// 全量
	default:
		return nil, errForbidden("权限不足")
	}

	stats := &OrderStats{}
	counts := []struct {
		status string
		dest   *int64
	}{
		{"", &stats.Total},
		{entity.OrderStatusPending, &stats.Pending},
		{entity.OrderStatusConfirmed, &stats.Confirmed},
		{entity.OrderStatusShipped, &stats.Shipped},
		{entity.OrderStatusInTransit, &stats.InTransit},
		{entity.OrderStatusDelivered, &stats.Delivered},
		{entity.OrderStatusCompleted, &stats.Completed},
	}
	for _, c := range counts {
		n, err := s.repos.Order.CountByStatus(ctx, params, c.status)
		if err != nil {
			return nil, err
		}
		*c.dest = n
	}
	cancelled, err := s.repos.Order.CountCancelled(ctx, params)
	if err != nil {
		return nil, err
	}
	stats.Cancelled = cancelled

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	thisMonth, err := s.repos.Order.CountCreatedSince(ctx, params, monthStart)
	if err != nil {
		return nil, err
	}
	stats.ThisMonth = thisMonth
	return stats, nil
}

// TimelineEvent 订单时间线事件
type TimelineEvent struct {
	Status      string    `json:"status"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// Timeline 订单时间线，按已落的时间戳生成
func (s *OrderService) Timeline(ctx context.Context, actor Actor, id string) ([]TimelineEvent, error) {
	order, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	events := []TimelineEvent{{
		Status:      entity.OrderStatusPending,
		Description: "订单已创建，等待供应商确认",
		Timestamp:   order.CreatedAt,
	}}
	if order.ConfirmedAt != nil {
		events = append(events, TimelineEvent{
			Status:      entity.OrderStatusConfirmed,
			Description: "供应商已确认订单",
			Timestamp:   *order.ConfirmedAt,
		})
	}
	if order.ShippedAt != nil {
		desc := "已发货"
		if order.TrackingNumber != "" {
			desc = fmt.Sprintf("已发货，运单号：%s", order.TrackingNumber)
		}
		events = append(events, TimelineEvent{
			Status:      entity.OrderStatusShipped,
			Description: desc,
			Timestamp:   *order.ShippedAt,
		})
	}
	if order.DeliveredAt != nil {
		events = append(events, TimelineEvent{
			Status:      entity.OrderStatusDelivered,
			Description: "货物已送达目的地",
			Timestamp:   *order.DeliveredAt,
		})
	}
	if order.ReceivedAt != nil {
		events = append(events, TimelineEvent{
			Status:      entity.OrderStatusCompleted,
			Description: "买方已确认收货，订单完成",
			Timestamp:   *order.ReceivedAt,
		})
	}
	if order.CancelledAt != nil {
		desc := "订单已取消"
		if order.CancelReason != "" {
			desc = fmt.Sprintf("订单已取消，原因：%s", order.CancelReason)
		}
		events = append(events, TimelineEvent{
			Status:      order.Status,
			Description: desc,
			Timestamp:   *order.CancelledAt,
		})
	}
	return events, nil
}
