package repository

import (
	"context"

	"github.com/huakang/medtrade/internal/trade/entity"
	"gorm.io/gorm"
)

type CirculationRepository struct {
	db *gorm.DB
}

func NewCirculationRepository(db *gorm.DB) *CirculationRepository {
	return &CirculationRepository{db: db}
}

// LatestByTrackingNumber 运单号下最新一条流通记录，无记录时返回 nil
func (r *CirculationRepository) LatestByTrackingNumber(ctx context.Context, trackingNumber string) (*entity.CirculationRecord, error) {
	var record entity.CirculationRecord
	err := r.db.WithContext(ctx).
		Where("tracking_number = ?", trackingNumber).
		// 同一时间戳的上报以落库顺序决出最新
		Order("timestamp DESC, created_at DESC, id DESC").
		First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByTrackingNumber 运单号下全部流通记录，按时间倒序
func (r *CirculationRepository) ListByTrackingNumber(ctx context.Context, trackingNumber string) ([]entity.CirculationRecord, error) {
	var records []entity.CirculationRecord
	err := r.db.WithContext(ctx).
		Where("tracking_number = ?", trackingNumber).
		Order("timestamp DESC").
		Find(&records).Error
	return records, err
}

