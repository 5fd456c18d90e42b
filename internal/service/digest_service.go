package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"todo-list/internal/model"
)

// DigestService builds the periodic summary of open tasks.
type DigestService struct {
	tasks *TaskService
}

func NewDigestService(tasks *TaskService) *DigestService {
	return &DigestService{tasks: tasks}
}

// Summary reloads the task list and renders it as HTML for the chat front end.
func (s *DigestService) Summary(ctx context.Context, now time.Time) (string, error) {
	if err := s.tasks.Refresh(ctx); err != nil {
		return "", err
	}
	return FormatDigest(s.tasks.Tasks(), now), nil
}

// FormatDigest groups open tasks by category. Groups follow the suggested
// category order, then any other label alphabetically.
func FormatDigest(tasks []model.Task, now time.Time) string {
	groups := make(map[string][]model.Task)
	done := 0
	for _, task := range tasks {
		if task.Done {
			done++
			continue
		}
		groups[task.Category] = append(groups[task.Category], task)
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Task digest</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("2006-01-02")))

	if len(groups) == 0 {
		builder.WriteString("— no open tasks\n\n")
	}
	for _, name := range categoryOrder(groups) {
		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(name)))
		for _, task := range groups[name] {
			builder.WriteString(fmt.Sprintf("⬜ %s\n", html.EscapeString(task.Description)))
		}
		builder.WriteByte('\n')
	}

	builder.WriteString(fmt.Sprintf("✅ Done: %d of %d", done, len(tasks)))
	return strings.TrimSpace(builder.String())
}

func categoryOrder(groups map[string][]model.Task) []string {
	rank := make(map[string]int, len(model.SuggestedCategories))
	for i, name := range model.SuggestedCategories {
		rank[name] = i
	}

	order := make([]string, 0, len(groups))
	for name := range groups {
		order = append(order, name)
	}
	sort.Slice(order, func(i, j int) bool {
		ri, iok := rank[order[i]]
		rj, jok := rank[order[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		case jok:
			return false
		default:
			return order[i] < order[j]
		}
	})
	return order
}
