package entity

import (
	"time"
)

// SupplyInfoStatus 供应信息状态
const (
	SupplyStatusActive   = "ACTIVE"   // 上架中
	SupplyStatusInactive = "INACTIVE" // 已下架
	SupplyStatusExpired  = "EXPIRED"  // 已过期
)

// SupplyInfo 供应信息（可售挂牌）。AvailableQuantity 是预占计数器，
// 与 InventoryItem.Quantity 的实物库存相互独立。
type SupplyInfo struct {
	ID                string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	TenantID          string    `json:"tenant_id" gorm:"type:uuid;not null;index"`
	DrugID            string    `json:"drug_id" gorm:"type:uuid;not null;index"`
	AvailableQuantity int       `json:"available_quantity" gorm:"not null"`
	UnitPrice         float64   `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	ValidUntil        time.Time `json:"valid_until" gorm:"type:date;not null"`
	MinOrderQuantity  int       `json:"min_order_quantity" gorm:"not null;default:1"`
	Description       string    `json:"description" gorm:"type:text"`
	Status            string    `json:"status" gorm:"size:20;not null;default:ACTIVE"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
	Drug   *Drug   `json:"drug,omitempty" gorm:"foreignKey:DrugID"`
}

func (SupplyInfo) TableName() string {
	return "supply_info"
}
