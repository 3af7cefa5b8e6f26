package entity

import (
	"time"
)

// TenantType 企业租户类型
const (
	TenantTypePharmacy  = "PHARMACY"  // 药店
	TenantTypeSupplier  = "SUPPLIER"  // 供应商
	TenantTypeLogistics = "LOGISTICS" // 物流公司
	TenantTypeRegulator = "REGULATOR" // 监管机构
)

// Tenant 企业租户
type Tenant struct {
	ID                      string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name                    string    `json:"name" gorm:"size:160;not null"`
	Type                    string    `json:"type" gorm:"size:40;not null;index"`
	UnifiedSocialCreditCode string    `json:"unified_social_credit_code" gorm:"size:40;not null;uniqueIndex"`
	LegalRepresentative     string    `json:"legal_representative" gorm:"size:60"`
	ContactPerson           string    `json:"contact_person" gorm:"size:60"`
	ContactPhone            string    `json:"contact_phone" gorm:"size:40"`
	ContactEmail            string    `json:"contact_email" gorm:"size:120"`
	Address                 string    `json:"address" gorm:"size:255"`
	BusinessScope           string    `json:"business_scope" gorm:"type:text"`
	IsActive                bool      `json:"is_active" gorm:"not null;default:true"`
	Latitude                *float64  `json:"latitude"`
	Longitude               *float64  `json:"longitude"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func (Tenant) TableName() string {
	return "tenants"
}
