package entity

import (
	"time"
)

// TransportStatus 运输状态
const (
	TransportStatusShipped   = "SHIPPED"    // 已揽收
	TransportStatusInTransit = "IN_TRANSIT" // 运输中
	TransportStatusDelivered = "DELIVERED"  // 已送达
)

// CirculationRecord 流通记录，按运单号追加存储，不可修改。
type CirculationRecord struct {
	ID              string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	TrackingNumber  string    `json:"tracking_number" gorm:"size:100;not null;index"`
	OrderID         *string   `json:"order_id" gorm:"type:uuid;index"`
	BatchNumber     string    `json:"batch_number" gorm:"size:60;index"` // 冗余批号，用于追溯
	TransportStatus string    `json:"transport_status" gorm:"size:20;not null"`
	ReportedBy      string    `json:"reported_by" gorm:"size:64;not null"`
	Timestamp       time.Time `json:"timestamp" gorm:"not null;index"`
	CurrentLocation string    `json:"current_location" gorm:"size:500"`
	Latitude        float64   `json:"latitude" gorm:"not null"`
	Longitude       float64   `json:"longitude" gorm:"not null"`
	Remarks         string    `json:"remarks" gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at"`

	Order *Order `json:"order,omitempty" gorm:"foreignKey:OrderID"`
}

func (CirculationRecord) TableName() string {
	return "circulation_records"
}
