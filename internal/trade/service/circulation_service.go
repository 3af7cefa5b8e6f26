package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huakang/medtrade/internal/trade/entity"
	"github.com/huakang/medtrade/internal/trade/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CirculationService 药品流通追溯服务。流通记录按运单号只增不改，
// 上报同时联动推进关联订单的配送状态。
type CirculationService struct {
	circulation *repository.CirculationRepository
	orders      *repository.OrderRepository
	inventory   *repository.InventoryRepository
	db          *gorm.DB
	sm          *OrderStateMachine
	logger      *zap.Logger
}

func NewCirculationService(circulation *repository.CirculationRepository, orders *repository.OrderRepository, inventory *repository.InventoryRepository, db *gorm.DB, sm *OrderStateMachine, logger *zap.Logger) *CirculationService {
	return &CirculationService{
		circulation: circulation,
		orders:      orders,
		inventory:   inventory,
		db:          db,
		sm:          sm,
		logger:      logger,
	}
}

// ReportRequest 流通节点上报请求
type ReportRequest struct {
	TrackingNumber  string   `json:"tracking_number" binding:"required"`
	TransportStatus string   `json:"transport_status" binding:"required"`
	Timestamp       string   `json:"timestamp"`
	Latitude        *float64 `json:"latitude" binding:"required"`
	Longitude       *float64 `json:"longitude" binding:"required"`
	CurrentLocation string   `json:"current_location"`
	Remarks         string   `json:"remarks"`
}

// 运输状态推进规则：首报必须是 SHIPPED，送达前必须经过 IN_TRANSIT，
// IN_TRANSIT 可重复上报，DELIVERED 为终态。与订单侧物流流转表保持一致。
func transportTransitionAllowed(latest *entity.CirculationRecord, next string) bool {
	if latest == nil {
		return next == entity.TransportStatusShipped
	}
	switch latest.TransportStatus {
	case entity.TransportStatusShipped:
		return next == entity.TransportStatusInTransit
	case entity.TransportStatusInTransit:
		return next == entity.TransportStatusInTransit || next == entity.TransportStatusDelivered
	case entity.TransportStatusDelivered:
		return false
	}
	return false
}

// Report 物流公司上报流通节点
func (s *CirculationService) Report(ctx context.Context, actor Actor, req ReportRequest) (*entity.CirculationRecord, error) {
	if actor.Role != RoleLogistics && actor.Role != RoleAdmin {
		return nil, errForbidden("权限不足，需要物流公司角色")
	}

	status := strings.ToUpper(strings.TrimSpace(req.TransportStatus))
	switch status {
	case entity.TransportStatusShipped, entity.TransportStatusInTransit, entity.TransportStatusDelivered:
	default:
		return nil, errValidation("无效的运输状态: %s", req.TransportStatus)
	}

	if req.Latitude == nil || req.Longitude == nil {
		return nil, errValidation("GPS坐标是必填项")
	}
	if *req.Latitude < -90 || *req.Latitude > 90 {
		return nil, errValidation("纬度超出有效范围")
	}
	if *req.Longitude < -180 || *req.Longitude > 180 {
		return nil, errValidation("经度超出有效范围")
	}

	// 时间戳接受 ISO 格式，统一折算为 UTC 裸时间存储
	timestamp := time.Now().UTC()
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			parsed, err = time.Parse("2006-01-02T15:04:05", req.Timestamp)
			if err != nil {
				return nil, errValidation("时间戳格式错误，请使用 ISO 8601 格式")
			}
		}
		timestamp = parsed.UTC()
	}

	order, err := s.orders.FindByTrackingNumber(ctx, req.TrackingNumber)
	if err == gorm.ErrRecordNotFound {
		return nil, errNotFound("未找到运单号 %s 对应的订单", req.TrackingNumber)
	}
	if err != nil {
		return nil, err
	}

	if actor.Role == RoleLogistics {
		if order.LogisticsTenantID != nil && *order.LogisticsTenantID != actor.TenantID {
			return nil, errForbidden("权限不足，运单未分配给本公司")
		}
	}

	latest, err := s.circulation.LatestByTrackingNumber(ctx, req.TrackingNumber)
	if err != nil {
		return nil, err
	}
	if !transportTransitionAllowed(latest, status) {
		if latest == nil {
			return nil, errStateConflict("首次上报必须为 SHIPPED 状态")
		}
		return nil, errStateConflict("不能从 %s 状态上报 %s", latest.TransportStatus, status)
	}

	// 批号从订单首个明细冗余到流通记录，便于监管侧直接追溯
	batchNumber := ""
	for _, item := range order.Items {
		if item.BatchNumber != "" {
			batchNumber = item.BatchNumber
			break
		}
	}
	if batchNumber == "" && len(order.Items) > 0 {
		if bn, err := s.inventory.FirstBatchNumber(ctx, order.SupplierTenantID, order.Items[0].DrugID); err == nil {
			batchNumber = bn
		}
	}
	orderID := order.ID

	record := &entity.CirculationRecord{
		ID:              uuid.New().String(),
		TrackingNumber:  req.TrackingNumber,
		OrderID:         &orderID,
		BatchNumber:     batchNumber,
		TransportStatus: status,
		CurrentLocation: req.CurrentLocation,
		Latitude:        *req.Latitude,
		Longitude:       *req.Longitude,
		Timestamp:       timestamp,
		ReportedBy:      actor.UserID,
		Remarks:         req.Remarks,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		return s.syncOrderStatus(tx, actor, order, status, timestamp)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("流通节点已上报",
		zap.String("tracking_number", req.TrackingNumber),
		zap.String("status", status),
		zap.String("location", req.CurrentLocation))
	return record, nil
}

// syncOrderStatus 流通上报联动订单状态。重复上报当前状态视为空操作，
// 时间戳仅首次进入该状态时落一次。
func (s *CirculationService) syncOrderStatus(tx *gorm.DB, actor Actor, order *entity.Order, transportStatus string, timestamp time.Time) error {
	var target string
	switch transportStatus {
	case entity.TransportStatusShipped:
		target = entity.OrderStatusShipped
	case entity.TransportStatusInTransit:
		target = entity.OrderStatusInTransit
	case entity.TransportStatusDelivered:
		target = entity.OrderStatusDelivered
	default:
		return nil
	}

	noop, err := s.sm.Check(order.Status, target, ModeIdempotent)
	if err != nil || noop {
		// 流通记录本身合法（如重复 IN_TRANSIT），订单侧不推进也不报错
		return nil
	}

	if actor.Role == RoleLogistics && order.LogisticsTenantID == nil {
		tenantID := actor.TenantID
		order.LogisticsTenantID = &tenantID
	}

	order.Status = target
	if target == entity.OrderStatusShipped && order.ShippedAt == nil {
		order.ShippedAt = &timestamp
	}
	if target == entity.OrderStatusDelivered && order.DeliveredAt == nil {
		order.DeliveredAt = &timestamp
	}
	return tx.Save(order).Error
}

// Records 查询运单的全部流通记录，按时间倒序
func (s *CirculationService) Records(ctx context.Context, actor Actor, trackingNumber string) ([]entity.CirculationRecord, error) {
	if trackingNumber == "" {
		return nil, errValidation("运单号不能为空")
	}

	switch actor.Role {
	case RoleAdmin, RoleRegulator, RoleLogistics:
		// 监管与物流可直接查询
	case RolePharmacy, RoleSupplier:
		order, err := s.orders.FindByTrackingNumber(ctx, trackingNumber)
		if err == gorm.ErrRecordNotFound {
			return nil, errNotFound("运单不存在")
		}
		if err != nil {
			return nil, err
		}
		if order.BuyerTenantID != actor.TenantID && order.SupplierTenantID != actor.TenantID {
			return nil, errForbidden("无权限查询此运单的流通记录")
		}
	default:
		return nil, errForbidden("权限不足")
	}

	return s.circulation.ListByTrackingNumber(ctx, trackingNumber)
}
