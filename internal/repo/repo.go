package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/craft_store/internal/models"
)

// ErrStaleVersion is returned by conditional writes when the row changed
// between read and write.
var ErrStaleVersion = errors.New("stale version")

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// Transaction runs fn against a repo bound to a single database transaction.
// Nested calls become savepoints.
func (r *GormRepo) Transaction(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Product{},
		&models.StockMovement{},
		&models.CartSnapshot{},
		&models.Order{},
		&models.OrderLineItem{},
	)
}
