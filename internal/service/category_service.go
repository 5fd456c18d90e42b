package service

import (
	"context"
	"strings"

	"todo-list/internal/model"
)

// CategoryLister returns the category labels present in storage.
type CategoryLister interface {
	ListInUse(ctx context.Context) ([]string, error)
}

// CategoryService provides helpers around categories.
type CategoryService struct {
	repo CategoryLister
}

func NewCategoryService(repo CategoryLister) *CategoryService {
	return &CategoryService{repo: repo}
}

// Suggested returns the fixed list offered when adding a task.
func (s *CategoryService) Suggested() []string {
	out := make([]string, len(model.SuggestedCategories))
	copy(out, model.SuggestedCategories)
	return out
}

// List returns the suggested categories followed by any other label found in storage.
func (s *CategoryService) List(ctx context.Context) ([]string, error) {
	inUse, err := s.repo.ListInUse(ctx)
	if err != nil {
		return nil, err
	}

	out := s.Suggested()
	seen := make(map[string]struct{}, len(out)+len(inUse))
	for _, name := range out {
		seen[strings.ToLower(name)] = struct{}{}
	}
	for _, name := range inUse {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out, nil
}
