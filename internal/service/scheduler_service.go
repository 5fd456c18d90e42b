package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"todo-list/internal/config"
)

// SchedulerService runs the digest job on a cron schedule.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
	}
}

// ScheduleDigest registers job according to cfg: daily at cfg.Time when set,
// otherwise every cfg.Interval. It reports false when the digest is disabled.
func (s *SchedulerService) ScheduleDigest(cfg config.DigestConfig, job func()) (bool, error) {
	var spec string
	switch {
	case cfg.Time != "":
		daily, err := dailySpec(cfg.Time)
		if err != nil {
			return false, err
		}
		spec = daily
	case cfg.Interval > 0:
		spec = everySpec(cfg.Interval)
	default:
		return false, nil
	}

	if _, err := s.cron.AddFunc(spec, job); err != nil {
		return false, fmt.Errorf("schedule digest %q: %w", spec, err)
	}
	return true, nil
}

// Entries reports how many jobs are registered.
func (s *SchedulerService) Entries() int {
	return len(s.cron.Entries())
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop waits for a running job to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// dailySpec turns HH:MM into a seconds-aware cron spec.
func dailySpec(hhmm string) (string, error) {
	hourPart, minutePart, ok := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !ok {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", hhmm)
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", hhmm)
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", hhmm)
	}
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}

func everySpec(interval time.Duration) string {
	seconds := int(interval.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("@every %ds", seconds)
}
