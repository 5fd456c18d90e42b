package repository

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"todo-list/internal/model"
)

var validate = validator.New()

// TaskRepository handles CRUD for tasks. Every method runs exactly one statement.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// EnsureSchema creates the tasks table if it is missing. Safe to call on every start.
func (r *TaskRepository) EnsureSchema(ctx context.Context) error {
	return migrate(ctx, r.db)
}

// ListAll returns every task in the order the database yields them.
func (r *TaskRepository) ListAll(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Find(&tasks).Error; err != nil {
		return nil, newStoreError("load tasks", ErrQuery, err)
	}
	return tasks, nil
}

// Create inserts a new, not yet done task and returns it with the assigned ID.
func (r *TaskRepository) Create(ctx context.Context, description, category string) (*model.Task, error) {
	if strings.TrimSpace(description) == "" {
		return nil, newStoreError("add task", ErrInvalidTask, nil)
	}
	if strings.TrimSpace(category) == "" {
		category = model.DefaultCategory
	}
	task := model.Task{
		Description: description,
		Category:    category,
	}
	if err := validate.Struct(task); err != nil {
		return nil, newStoreError("add task", ErrInvalidTask, err)
	}

	if err := r.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, newStoreError("add task", ErrWrite, err)
	}
	return &task, nil
}

// UpdateDescription rewrites one task's description. A missing ID is not an error.
func (r *TaskRepository) UpdateDescription(ctx context.Context, id uint, description string) error {
	if strings.TrimSpace(description) == "" {
		return newStoreError("edit task", ErrInvalidTask, nil)
	}
	if err := validate.Var(description, "max=255"); err != nil {
		return newStoreError("edit task", ErrInvalidTask, err)
	}

	if err := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", id).
		Update("description", description).Error; err != nil {
		return newStoreError("edit task", ErrWrite, err)
	}
	return nil
}

// UpdateDone sets the completion flag of one task.
func (r *TaskRepository) UpdateDone(ctx context.Context, id uint, done bool) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", id).
		Update("done", done).Error; err != nil {
		return newStoreError("update task", ErrWrite, err)
	}
	return nil
}

// Delete removes a task. Deleting an ID that no longer exists is a no-op.
func (r *TaskRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).
		Delete(&model.Task{}).Error; err != nil {
		return newStoreError("remove task", ErrWrite, err)
	}
	return nil
}
