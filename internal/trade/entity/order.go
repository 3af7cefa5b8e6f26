package entity

import (
	"time"
)

// OrderStatus 订单状态
const (
	OrderStatusPending             = "PENDING"               // 待确认
	OrderStatusConfirmed           = "CONFIRMED"             // 已确认
	OrderStatusShipped             = "SHIPPED"               // 已发货
	OrderStatusInTransit           = "IN_TRANSIT"            // 运输中
	OrderStatusDelivered           = "DELIVERED"             // 已送达
	OrderStatusCompleted           = "COMPLETED"             // 已完成
	OrderStatusCancelledByPharmacy = "CANCELLED_BY_PHARMACY" // 药店取消
	OrderStatusCancelledBySupplier = "CANCELLED_BY_SUPPLIER" // 供应商取消
	OrderStatusExpiredCancelled    = "EXPIRED_CANCELLED"     // 超时取消
)

// OrderStatusDescriptions 状态中文描述
var OrderStatusDescriptions = map[string]string{
	OrderStatusPending:             "待确认",
	OrderStatusConfirmed:           "已确认",
	OrderStatusShipped:             "已发货",
	OrderStatusInTransit:           "运输中",
	OrderStatusDelivered:           "已送达",
	OrderStatusCompleted:           "已完成",
	OrderStatusCancelledByPharmacy: "药店取消",
	OrderStatusCancelledBySupplier: "供应商取消",
	OrderStatusExpiredCancelled:    "超时取消",
}

// StatusDescription 获取状态的中文描述，缺省返回原始值
func StatusDescription(status string) string {
	if desc, ok := OrderStatusDescriptions[status]; ok {
		return desc
	}
	return status
}

// Order 订单
type Order struct {
	ID                   string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	OrderNumber          string     `json:"order_number" gorm:"size:50;not null;uniqueIndex"`
	BuyerTenantID        string     `json:"buyer_tenant_id" gorm:"type:uuid;not null;index"`
	SupplierTenantID     string     `json:"supplier_tenant_id" gorm:"type:uuid;not null;index"`
	SupplyInfoID         *string    `json:"supply_info_id" gorm:"type:uuid;index"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date" gorm:"type:date"`
	Notes                string     `json:"notes" gorm:"type:text"`
	Status               string     `json:"status" gorm:"size:30;not null;default:PENDING;index"`
	LogisticsTenantID    *string    `json:"logistics_tenant_id" gorm:"type:uuid"`
	TrackingNumber       string     `json:"tracking_number" gorm:"size:100;index"`
	ShippedAt            *time.Time `json:"shipped_at"`
	DeliveredAt          *time.Time `json:"delivered_at"`
	ReceivedAt           *time.Time `json:"received_at"`
	CreatedBy            string     `json:"created_by" gorm:"size:64;not null"`
	ConfirmedBy          string     `json:"confirmed_by" gorm:"size:64"`
	ConfirmedAt          *time.Time `json:"confirmed_at"`
	ReceivedConfirmedBy  string     `json:"received_confirmed_by" gorm:"size:64"`
	CancelledBy          string     `json:"cancelled_by" gorm:"size:64"`
	CancelledAt          *time.Time `json:"cancelled_at"`
	CancelReason         string     `json:"cancel_reason" gorm:"type:text"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	BuyerTenant     *Tenant     `json:"buyer_tenant,omitempty" gorm:"foreignKey:BuyerTenantID"`
	SupplierTenant  *Tenant     `json:"supplier_tenant,omitempty" gorm:"foreignKey:SupplierTenantID"`
	LogisticsTenant *Tenant     `json:"logistics_tenant,omitempty" gorm:"foreignKey:LogisticsTenantID"`
	SupplyInfo      *SupplyInfo `json:"supply_info,omitempty" gorm:"foreignKey:SupplyInfoID"`
	Items           []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (Order) TableName() string {
	return "orders"
}

// TotalAmount 订单总金额
func (o *Order) TotalAmount() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// TotalQuantity 订单总数量
func (o *Order) TotalQuantity() int {
	var total int
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// OrderItem 订单明细。订单确认后不可变更。
type OrderItem struct {
	ID          string  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	OrderID     string  `json:"order_id" gorm:"type:uuid;not null;index"`
	DrugID      string  `json:"drug_id" gorm:"type:uuid;not null"`
	BatchNumber string  `json:"batch_number" gorm:"size:60"` // 指定批号（可选）
	UnitPrice   float64 `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	Quantity    int     `json:"quantity" gorm:"not null"`

	Drug *Drug `json:"drug,omitempty" gorm:"foreignKey:DrugID"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
