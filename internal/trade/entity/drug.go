package entity

import (
	"time"
)

// Drug 药品主数据
type Drug struct {
	ID               string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	GenericName      string    `json:"generic_name" gorm:"size:120;not null"`
	BrandName        string    `json:"brand_name" gorm:"size:120"`
	ApprovalNumber   string    `json:"approval_number" gorm:"size:50;not null;uniqueIndex"`
	DosageForm       string    `json:"dosage_form" gorm:"size:80"`
	Specification    string    `json:"specification" gorm:"size:80"`
	Manufacturer     string    `json:"manufacturer" gorm:"size:160"`
	Category         string    `json:"category" gorm:"size:80"`
	PrescriptionType string    `json:"prescription_type" gorm:"size:40"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Drug) TableName() string {
	return "drugs"
}
