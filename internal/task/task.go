package task

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/finboard/fundsync/internal/domain"
)

// Task represents one executable unit of work, polymorphic over its type.
// An instance is bound to exactly one task id and one execution; it owns no
// persistent state across invocations.
// Version: 1.0
type Task interface {
	// Execute runs the task logic with the caller-supplied parameters and
	// returns a result payload to be recorded on the task record.
	// Implementations signal user-addressable failures with *ParamError and
	// everything else as plain errors.
	Execute(ctx context.Context, params Params) (any, error)

	// Config returns the static type configuration. It must be pure: the
	// registry calls it before any execution happens.
	Config() domain.TaskTypeConfig
}

// Factory builds a fresh Task instance bound to a task id. The reporter lets
// the instance publish incremental progress for that id.
type Factory func(taskID uuid.UUID, reporter ProgressReporter) Task

// ProgressReporter receives incremental progress updates from running tasks.
// Version: 1.0
type ProgressReporter interface {
	// Update records the latest progress percentage (0-100) for a task id.
	Update(taskID uuid.UUID, progress int)
}

// Params is the caller-supplied parameter map of one task submission.
// Values arrive as loosely typed JSON data; the typed getters perform the
// coercion the registry's shallow validation deliberately skips.
type Params map[string]any

const dateLayout = "2006-01-02"

// String returns the parameter as a string, or def when absent.
func (p Params) String(key, def string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Int returns the parameter as an int, or def when absent or not coercible.
func (p Params) Int(key string, def int) int {
	v, ok := p[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return parsed
		}
	}
	return def
}

// Bool returns the parameter as a bool, or def when absent or not coercible.
func (p Params) Bool(key string, def bool) bool {
	v, ok := p[key]
	if !ok || v == nil {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	return def
}

// Date returns the parameter parsed as a YYYY-MM-DD date.
// Returns a *ParamError if the parameter is present but malformed and ok=false
// when the parameter is absent.
func (p Params) Date(key string) (time.Time, bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return time.Time{}, false, nil
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, true, NewParamError(key, fmt.Sprintf("invalid date %q, want YYYY-MM-DD", s))
	}
	return t, true, nil
}

// IsEmpty reports whether the parameter is absent or holds an empty value.
// Numbers and booleans are never considered empty.
func (p Params) IsEmpty(key string) bool {
	v, ok := p[key]
	if !ok || v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}
