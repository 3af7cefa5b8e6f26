package entity

import (
	"time"
)

// TransactionType 库存流水类型
const (
	TxTypeIn       = "IN"       // 入库
	TxTypeOut      = "OUT"      // 出库
	TxTypeAdjust   = "ADJUST"   // 库存调整
	TxTypeTransfer = "TRANSFER" // 库存调拨
)

// 库存预警阈值
const (
	LowStockThreshold = 10 // 低库存件数
	NearExpiryDays    = 30 // 近效期天数
)

// InventoryItem 批次库存记录，(tenant, drug, batch) 唯一。
// Quantity 任何时刻不得为负；每次变更必须同事务写入一条 InventoryTransaction。
type InventoryItem struct {
	ID             string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	TenantID       string    `json:"tenant_id" gorm:"type:uuid;not null;uniqueIndex:uk_tenant_drug_batch"`
	DrugID         string    `json:"drug_id" gorm:"type:uuid;not null;uniqueIndex:uk_tenant_drug_batch"`
	BatchNumber    string    `json:"batch_number" gorm:"size:60;not null;uniqueIndex:uk_tenant_drug_batch"`
	ProductionDate time.Time `json:"production_date" gorm:"type:date;not null"`
	ExpiryDate     time.Time `json:"expiry_date" gorm:"type:date;not null"`
	Quantity       int       `json:"quantity" gorm:"not null"`
	UnitPrice      float64   `json:"unit_price" gorm:"not null"` // 加权平均成本
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
	Drug   *Drug   `json:"drug,omitempty" gorm:"foreignKey:DrugID"`
}

func (InventoryItem) TableName() string {
	return "inventory_items"
}

// IsLowStock 是否低库存
func (i *InventoryItem) IsLowStock() bool {
	return i.Quantity < LowStockThreshold
}

// IsNearExpiry 是否近效期（30天内到期）
func (i *InventoryItem) IsNearExpiry() bool {
	threshold := time.Now().UTC().AddDate(0, 0, NearExpiryDays)
	return !i.ExpiryDate.After(threshold)
}

// IsExpired 是否已过期
func (i *InventoryItem) IsExpired() bool {
	return !i.ExpiryDate.After(time.Now().UTC())
}

// DaysToExpiry 距离过期天数
func (i *InventoryItem) DaysToExpiry() int {
	return int(time.Until(i.ExpiryDate).Hours() / 24)
}

// InventoryTransaction 库存流水，只增不改不删，作为永久审计记录。
// QuantityDelta 正=入，负=出。
type InventoryTransaction struct {
	ID              string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	InventoryItemID string    `json:"inventory_item_id" gorm:"type:uuid;not null;index"`
	TransactionType string    `json:"transaction_type" gorm:"size:20;not null"`
	QuantityDelta   int       `json:"quantity_delta" gorm:"not null"`
	SourceTenantID  *string   `json:"source_tenant_id" gorm:"type:uuid"` // 对端企业
	RelatedOrderID  *string   `json:"related_order_id" gorm:"type:uuid;index"`
	Notes           string    `json:"notes" gorm:"type:text"`
	CreatedBy       string    `json:"created_by" gorm:"size:64;not null"`
	CreatedAt       time.Time `json:"created_at"`

	InventoryItem *InventoryItem `json:"inventory_item,omitempty" gorm:"foreignKey:InventoryItemID"`
}

func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}
