package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/craft_store/internal/models"
)

// LoadCart returns the stored lines for key, or an empty cart if none exist.
func (r *GormRepo) LoadCart(ctx context.Context, key string) ([]models.CartLine, error) {
	var snap models.CartSnapshot
	err := r.DB.WithContext(ctx).Where("key = ?", key).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []models.CartLine{}, nil
	}
	if err != nil {
		return nil, err
	}
	if snap.Lines == nil {
		snap.Lines = []models.CartLine{}
	}
	return snap.Lines, nil
}

func (r *GormRepo) SaveCart(ctx context.Context, key string, lines []models.CartLine) error {
	snap := models.CartSnapshot{Key: key, Lines: lines}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"lines", "updated_at"}),
	}).Create(&snap).Error
}

func (r *GormRepo) DeleteCart(ctx context.Context, key string) error {
	return r.DB.WithContext(ctx).Where("key = ?", key).Delete(&models.CartSnapshot{}).Error
}
