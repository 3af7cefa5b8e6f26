package repository

import (
	"context"
	"time"

	"github.com/huakang/medtrade/internal/trade/entity"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// FindByID 获取订单（含明细和关联企业）
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Drug").
		Preload("BuyerTenant").
		Preload("SupplierTenant").
		Preload("LogisticsTenant").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByTrackingNumber 按运单号获取订单
func (r *OrderRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "tracking_number = ?", trackingNumber).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// OrderListParams 订单列表查询参数
type OrderListParams struct {
	BuyerTenantID     string
	SupplierTenantID  string
	LogisticsTenantID string
	Status            string
	Statuses          []string
	OrderNumber       string
	Page              int
	PageSize          int
}

func (r *OrderRepository) List(ctx context.Context, params OrderListParams) ([]entity.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Order{})
	if params.BuyerTenantID != "" {
		query = query.Where("buyer_tenant_id = ?", params.BuyerTenantID)
	}
	if params.SupplierTenantID != "" {
		query = query.Where("supplier_tenant_id = ?", params.SupplierTenantID)
	}
	if params.LogisticsTenantID != "" {
		query = query.Where("logistics_tenant_id = ?", params.LogisticsTenantID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if len(params.Statuses) > 0 {
		query = query.Where("status IN ?", params.Statuses)
	}
	if params.OrderNumber != "" {
		query = query.Where("order_number ILIKE ?", "%"+params.OrderNumber+"%")
	}

	var total int64
	query.Count(&total)

	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 20
	}
	if params.PageSize > 100 {
		params.PageSize = 100
	}

	var orders []entity.Order
	err := query.
		Preload("Items").
		Preload("Items.Drug").
		Preload("BuyerTenant").
		Preload("SupplierTenant").
		Preload("LogisticsTenant").
		Order("created_at DESC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&orders).Error
	return orders, total, err
}

// CountByStatus 按状态统计订单数量
func (r *OrderRepository) CountByStatus(ctx context.Context, params OrderListParams, status string) (int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Order{})
	if params.BuyerTenantID != "" {
		query = query.Where("buyer_tenant_id = ?", params.BuyerTenantID)
	}
	if params.SupplierTenantID != "" {
		query = query.Where("supplier_tenant_id = ?", params.SupplierTenantID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// CountCancelled 统计已取消订单数量
func (r *OrderRepository) CountCancelled(ctx context.Context, params OrderListParams) (int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Order{}).
		Where("status IN ?", []string{
			entity.OrderStatusCancelledByPharmacy,
			entity.OrderStatusCancelledBySupplier,
			entity.OrderStatusExpiredCancelled,
		})
	if params.BuyerTenantID != "" {
		query = query.Where("buyer_tenant_id = ?", params.BuyerTenantID)
	}
	if params.SupplierTenantID != "" {
		query = query.Where("supplier_tenant_id = ?", params.SupplierTenantID)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// CountCreatedSince 统计某时间之后创建的订单
func (r *OrderRepository) CountCreatedSince(ctx context.Context, params OrderListParams, since time.Time) (int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Order{}).Where("created_at >= ?", since)
	if params.BuyerTenantID != "" {
		query = query.Where("buyer_tenant_id = ?", params.BuyerTenantID)
	}
	if params.SupplierTenantID != "" {
		query = query.Where("supplier_tenant_id = ?", params.SupplierTenantID)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// FindOverduePending 查找超时未确认的 PENDING 订单
func (r *OrderRepository) FindOverduePending(ctx context.Context, cutoff time.Time) ([]entity.Order, error) {
	var orders []entity.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND created_at <= ?", entity.OrderStatusPending, cutoff).
		Find(&orders).Error
	return orders, err
}

