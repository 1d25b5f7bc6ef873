package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"famcal/internal/calendar"
	"famcal/internal/scope"
	"famcal/internal/service"
)

// MaxTitleLength is the longest title the backend accepts.
const MaxTitleLength = 120

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidationError is a local input error. No request is sent when one occurs.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// TaskDraft is the raw input of the task form.
type TaskDraft struct {
	Title       string
	Description string
	Date        string
	StartTime   string
	EndTime     string
	Scope       scope.Scope
	Color       string
	Tags        string // comma separated
	RemindDay   bool   // one day before
	RemindHour  bool   // one hour before, needs StartTime
}

// BuildPayload validates a draft and maps it to a creation request.
func BuildPayload(d TaskDraft) (service.TaskPayload, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return service.TaskPayload{}, &ValidationError{Field: "title", Err: errors.New("title required")}
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return service.TaskPayload{}, &ValidationError{Field: "title", Err: fmt.Errorf("longer than %d characters", MaxTitleLength)}
	}

	if _, err := calendar.FromDateKey(d.Date); err != nil {
		return service.TaskPayload{}, &ValidationError{Field: "date", Err: err}
	}

	start, err := parseClock(d.StartTime)
	if err != nil {
		return service.TaskPayload{}, &ValidationError{Field: "start time", Err: err}
	}
	end, err := parseClock(d.EndTime)
	if err != nil {
		return service.TaskPayload{}, &ValidationError{Field: "end time", Err: err}
	}
	if start != nil && end != nil && end.Before(*start) {
		return service.TaskPayload{}, &ValidationError{Field: "end time", Err: errors.New("end time is before start time")}
	}

	if err := d.Scope.Validate(); err != nil {
		return service.TaskPayload{}, &ValidationError{Field: "scope", Err: err}
	}

	p := service.TaskPayload{
		Title:     title,
		Date:      d.Date,
		StartTime: optional(d.StartTime),
		EndTime:   optional(d.EndTime),
		Scope:     scope.KindPersonal,
		Color:     normalizeColor(d.Color),
		Tags:      splitTags(d.Tags),
	}
	if desc := strings.TrimSpace(d.Description); desc != "" {
		p.Description = &desc
	}
	if !d.Scope.IsPersonal() {
		id := d.Scope.FamilyID
		p.Scope = scope.KindFamily
		p.FamilyID = &id
	}
	if d.RemindDay {
		p.NotifyBeforeDays = intPtr(1)
	}
	if d.RemindHour && p.StartTime != nil {
		p.NotifyBeforeHours = intPtr(1)
	}
	return p, nil
}

func parseClock(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("expected HH:MM or HH:MM:SS, got %q", s)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func normalizeColor(c string) string {
	c = strings.TrimSpace(c)
	if !colorPattern.MatchString(c) {
		return service.DefaultColor
	}
	return c
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func intPtr(n int) *int { return &n }

// CreateTask sends a new task and refetches the current window. The cache is
// not patched locally. If creation fails nothing is refetched.
func (e *Engine) CreateTask(ctx context.Context, d TaskDraft) (service.Task, error) {
	p, err := BuildPayload(d)
	if err != nil {
		return service.Task{}, err
	}
	task, err := e.svc.CreateTask(ctx, p)
	if err != nil {
		return service.Task{}, fmt.Errorf("create task: %w", err)
	}
	e.log.Debug("task created", "task", task.ID, "date", task.Date)
	return task, e.Refresh(ctx)
}

// DeleteTask deletes a task remotely and refetches the current window.
func (e *Engine) DeleteTask(ctx context.Context, id int64) error {
	if err := e.svc.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	e.log.Debug("task deleted", "task", id)
	return e.Refresh(ctx)
}
