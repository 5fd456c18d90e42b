package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"todo-list/internal/model"
)

// TaskStore is the persistence contract the task list needs.
type TaskStore interface {
	ListAll(ctx context.Context) ([]model.Task, error)
	Create(ctx context.Context, description, category string) (*model.Task, error)
	UpdateDescription(ctx context.Context, id uint, description string) error
	UpdateDone(ctx context.Context, id uint, done bool) error
	Delete(ctx context.Context, id uint) error
}

// TaskService keeps an in-memory mirror of every stored task and reloads it in
// full after each mutation. All calls are serialized, so at most one statement
// is in flight at a time.
type TaskService struct {
	store TaskStore
	log   *slog.Logger

	mu    sync.Mutex
	tasks []model.Task
}

func NewTaskService(store TaskStore, log *slog.Logger) *TaskService {
	return &TaskService{store: store, log: log}
}

// Tasks returns a copy of the mirror as of the last refresh.
func (s *TaskService) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Refresh clears the mirror and reloads it from the store. On failure the
// mirror stays empty.
func (s *TaskService) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *TaskService) refreshLocked(ctx context.Context) error {
	s.tasks = nil
	tasks, err := s.store.ListAll(ctx)
	if err != nil {
		s.log.Error("refresh tasks", "error", err)
		return err
	}
	s.tasks = tasks
	s.log.Debug("tasks refreshed", "count", len(tasks))
	return nil
}

// AddTask stores a new task. A blank description is ignored without error.
func (s *TaskService) AddTask(ctx context.Context, description, category string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.store.Create(ctx, description, strings.TrimSpace(category))
	if err != nil {
		return err
	}
	s.log.Info("task created", "id", task.ID, "category", task.Category)
	return s.refreshLocked(ctx)
}

// ToggleDone flips task.Done and persists the new value. If the write fails the
// flag is restored.
func (s *TaskService) ToggleDone(ctx context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task.Done = !task.Done
	if err := s.store.UpdateDone(ctx, task.ID, task.Done); err != nil {
		task.Done = !task.Done
		return err
	}
	s.log.Info("task toggled", "id", task.ID, "done", task.Done)
	return s.refreshLocked(ctx)
}

// EditDescription replaces the description of task. A blank value discards the edit.
func (s *TaskService) EditDescription(ctx context.Context, task *model.Task, newDescription string) error {
	newDescription = strings.TrimSpace(newDescription)
	if newDescription == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.UpdateDescription(ctx, task.ID, newDescription); err != nil {
		return err
	}
	task.Description = newDescription
	s.log.Info("task edited", "id", task.ID)
	return s.refreshLocked(ctx)
}

// RemoveTask deletes task from the store.
func (s *TaskService) RemoveTask(ctx context.Context, task model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, task.ID); err != nil {
		return err
	}
	s.log.Info("task removed", "id", task.ID)
	return s.refreshLocked(ctx)
}

// Find looks a task up in the mirror by ID.
func (s *TaskService) Find(id uint) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, task := range s.tasks {
		if task.ID == id {
			return task, true
		}
	}
	return model.Task{}, false
}
