package repository

import (
	"context"

	"kasa-pos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ThresholdRepository interface {
	FindAll(ctx context.Context) ([]model.CategoryThreshold, error)
	AsMap(ctx context.Context) (map[string]int, error)
	Upsert(ctx context.Context, t *model.CategoryThreshold) error
	Delete(ctx context.Context, category string) (int64, error)
}

type thresholdRepo struct {
	db *gorm.DB
}

func NewThresholdRepo(db *gorm.DB) ThresholdRepository {
	return &thresholdRepo{db}
}

func (r *thresholdRepo) FindAll(ctx context.Context) ([]model.CategoryThreshold, error) {
	var out []model.CategoryThreshold
	err := r.db.WithContext(ctx).Order("category ASC").Find(&out).Error
	return out, err
}

func (r *thresholdRepo) AsMap(ctx context.Context) (map[string]int, error) {
	rows, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]int, len(rows))
	for _, t := range rows {
		m[t.Category] = t.Threshold
	}
	return m, nil
}

func (r *thresholdRepo) Upsert(ctx context.Context, t *model.CategoryThreshold) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "category"}},
		DoUpdates: clause.AssignmentColumns([]string{"threshold", "updated_by"}),
	}).Create(t).Error
}

func (r *thresholdRepo) Delete(ctx context.Context, category string) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&model.CategoryThreshold{}, "category = ?", category)
	return res.RowsAffected, res.Error
}
