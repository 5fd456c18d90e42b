package model

// DefaultCategory is stored when a task is created without a category.
const DefaultCategory = "General"

// SuggestedCategories are offered by the front ends. Storage accepts any label.
var SuggestedCategories = []string{DefaultCategory, "Work", "Personal", "Do Later", "Urgent"}

// Task is a single entry in the list.
type Task struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Description string `gorm:"size:255;not null" validate:"required,max=255"`
	Done        bool   `gorm:"default:false"`
	Category    string `gorm:"size:50;default:General" validate:"required,max=50"`
}

// Label renders the task the way list views show it.
func (t Task) Label() string {
	return t.Description + " (" + t.Category + ")"
}
