package repository

import (
	"context"
	"time"

	"kasa-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleRepository interface {
	Create(tx *gorm.DB, sale *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	FindAll(ctx context.Context) ([]model.Sale, error)
	FindBetween(ctx context.Context, from, to time.Time) ([]model.Sale, error)
	Delete(tx *gorm.DB, id uuid.UUID) error
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

// Create inserts the sale and its items with the caller's transaction.
func (r *saleRepo) Create(tx *gorm.DB, sale *model.Sale) error {
	return tx.Create(sale).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := r.db.WithContext(ctx).Preload("Items").First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

// FindForUpdate locks the sale row so two admins cannot reverse it twice.
func (r *saleRepo) FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := tx.Where("sale_id = ?", sale.ID).Order("id ASC").Find(&sale.Items).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) FindAll(ctx context.Context) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).Preload("Items").Order("created_at DESC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) FindBetween(ctx context.Context, from, to time.Time) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("created_at BETWEEN ? AND ?", from.UTC(), to.UTC()).
		Order("created_at DESC").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("sale_id = ?", id).Delete(&model.SaleItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Sale{}, "id = ?", id).Error
}
