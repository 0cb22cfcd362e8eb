package task

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/finboard/fundsync/internal/domain"
)

// Registration binds a task type's static configuration to its factory.
type Registration struct {
	Config domain.TaskTypeConfig
	New    Factory
}

// Registry is the process-wide catalogue of task types. It is constructed
// explicitly at startup and passed to the JobManager; registrations happen
// once during startup, reads happen concurrently for the process lifetime.
type Registry struct {
	mu     sync.RWMutex
	types  map[string]Registration
	order  []string
	logger *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		types:  make(map[string]Registration),
		order:  nil,
		logger: logger.With("component", "task_registry"),
	}
}

// Register stores the registration under its type name. Re-registering an
// existing name overwrites it (last writer wins); that usually points at a
// startup-order bug, so it is logged as a warning.
func (r *Registry) Register(reg Registration) error {
	if err := reg.Config.Validate(); err != nil {
		return fmt.Errorf("invalid task type config: %w", err)
	}
	if reg.New == nil {
		return fmt.Errorf("task type %q has no factory", reg.Config.TypeName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := reg.Config.TypeName
	if _, exists := r.types[name]; exists {
		r.logger.Warn("task type re-registered, overwriting previous registration",
			"task_type", name)
	} else {
		r.order = append(r.order, name)
	}
	r.types[name] = reg

	r.logger.Debug("registered task type", "task_type", name)
	return nil
}

// GetType returns the configuration registered under name.
func (r *Registry) GetType(name string) (domain.TaskTypeConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.types[name]
	if !ok {
		return domain.TaskTypeConfig{}, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return reg.Config, nil
}

// AllTypes returns the configurations of every registered type in
// registration order, for rendering available choices.
func (r *Registry) AllTypes() []domain.TaskTypeConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	configs := make([]domain.TaskTypeConfig, 0, len(r.order))
	for _, name := range r.order {
		configs = append(configs, r.types[name].Config)
	}
	return configs
}

// ValidateParams checks that every required parameter of the named type is
// present and non-empty. The check is deliberately shallow: it does not
// verify value types, which the task's own execution coerces and re-checks.
func (r *Registry) ValidateParams(name string, params Params) error {
	r.mu.RLock()
	reg, ok := r.types[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, name)
	}

	for _, spec := range reg.Config.Params {
		if !spec.Required {
			continue
		}
		if _, present := params[spec.Key]; !present {
			return NewValidationError("missing required parameter: %s", spec.Key)
		}
		if params.IsEmpty(spec.Key) {
			return NewValidationError("parameter %s cannot be empty", spec.Key)
		}
	}

	return nil
}

// NewInstance builds a fresh Task instance of the named type bound to the
// given task id.
func (r *Registry) NewInstance(name string, taskID uuid.UUID, reporter ProgressReporter) (Task, error) {
	r.mu.RLock()
	reg, ok := r.types[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return reg.New(taskID, reporter), nil
}
