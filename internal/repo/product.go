package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/craft_store/internal/models"
)

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts pages through the active catalog.
func (r *GormRepo) ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{}).Where("active = ?", true).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var products []models.Product
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return 0, nil, err
	}
	return total, products, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	if prod.Version == 0 {
		prod.Version = 1
	}
	return r.DB.WithContext(ctx).Create(prod).Error
}

// UpdateStock writes stock only if the row still carries version, bumping it.
func (r *GormRepo) UpdateStock(ctx context.Context, id uint, stock, version int) error {
	res := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]any{
			"stock_quantity": stock,
			"version":        gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	return nil
}
