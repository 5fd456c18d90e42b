package repository

import (
	"context"

	"gorm.io/gorm"

	"todo-list/internal/model"
)

// CategoryRepository reads the category labels stored on tasks.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListInUse returns the distinct categories currently attached to tasks, sorted by name.
func (r *CategoryRepository) ListInUse(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &names).Error; err != nil {
		return nil, newStoreError("load categories", ErrQuery, err)
	}
	return names, nil
}
