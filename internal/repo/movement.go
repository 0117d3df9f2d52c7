package repo

import (
	"context"

	"github.com/Skotchmaster/craft_store/internal/models"
)

func (r *GormRepo) MovementExists(ctx context.Context, key string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.StockMovement{}).Where("key = ?", key).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) RecordMovement(ctx context.Context, m *models.StockMovement) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

func (r *GormRepo) ListMovements(ctx context.Context, productID uint) ([]models.StockMovement, error) {
	var out []models.StockMovement
	if err := r.DB.WithContext(ctx).Where("product_id = ?", productID).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
