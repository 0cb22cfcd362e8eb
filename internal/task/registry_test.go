package task

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finboard/fundsync/internal/domain"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// echoTask is a trivial Task for registry and manager tests.
type echoTask struct {
	taskID   uuid.UUID
	reporter ProgressReporter
	config   domain.TaskTypeConfig
	execFn   func(ctx context.Context, params Params) (any, error)
}

func (t *echoTask) Execute(ctx context.Context, params Params) (any, error) {
	if t.execFn != nil {
		return t.execFn(ctx, params)
	}
	t.reporter.Update(t.taskID, 100)
	return map[string]any{"echo": params.String("message", "")}, nil
}

func (t *echoTask) Config() domain.TaskTypeConfig {
	return t.config
}

func echoConfig() domain.TaskTypeConfig {
	return domain.TaskTypeConfig{
		TypeName:        "echo",
		DisplayName:     "Echo",
		Description:     "Echoes its message parameter",
		DefaultTimeout:  60,
		DefaultPriority: 1,
		Params: []domain.ParamSpec{
			{Key: "message", Name: "Message", Kind: domain.ParamKindString, Required: true},
			{Key: "shout", Name: "Shout", Kind: domain.ParamKindBoolean},
		},
	}
}

func echoRegistration(execFn func(ctx context.Context, params Params) (any, error)) Registration {
	cfg := echoConfig()
	return Registration{
		Config: cfg,
		New: func(taskID uuid.UUID, reporter ProgressReporter) Task {
			return &echoTask{taskID: taskID, reporter: reporter, config: cfg, execFn: execFn}
		},
	}
}

func TestRegisterAndGetType(t *testing.T) {
	r := NewRegistry(setupTestLogger())

	require.NoError(t, r.Register(echoRegistration(nil)))

	cfg, err := r.GetType("echo")
	require.NoError(t, err)
	assert.Equal(t, "Echo", cfg.DisplayName)

	_, err = r.GetType("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestRegisterValidatesConfig(t *testing.T) {
	r := NewRegistry(setupTestLogger())

	err := r.Register(Registration{
		Config: domain.TaskTypeConfig{},
		New:    func(uuid.UUID, ProgressReporter) Task { return nil },
	})
	require.Error(t, err)

	err = r.Register(Registration{Config: echoConfig()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no factory")
}

func TestRegisterOverwritesSilently(t *testing.T) {
	r := NewRegistry(setupTestLogger())

	first := echoRegistration(nil)
	first.Config.DisplayName = "First"
	require.NoError(t, r.Register(first))

	second := echoRegistration(nil)
	second.Config.DisplayName = "Second"
	require.NoError(t, r.Register(second))

	cfg, err := r.GetType("echo")
	require.NoError(t, err)
	assert.Equal(t, "Second", cfg.DisplayName)

	// No duplicate entry in the ordered listing.
	assert.Len(t, r.AllTypes(), 1)
}

func TestAllTypesPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry(setupTestLogger())

	for _, name := range []string{"zulu", "alpha", "mike"} {
		reg := echoRegistration(nil)
		reg.Config.TypeName = name
		require.NoError(t, r.Register(reg))
	}

	var names []string
	for _, cfg := range r.AllTypes() {
		names = append(names, cfg.TypeName)
	}
	assert.Equal(t, []string{"zulu", "alpha", "mike"}, names)
}

func TestValidateParams(t *testing.T) {
	r := NewRegistry(setupTestLogger())
	require.NoError(t, r.Register(echoRegistration(nil)))

	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{
			name:   "all_required_present",
			params: Params{"message": "hello"},
		},
		{
			name: "optional_type_mismatch_is_accepted",
			// Shallow validation does not check types of optional params.
			params: Params{"message": "hello", "shout": "not-a-bool"},
		},
		{
			name:    "missing_required",
			params:  Params{"shout": true},
			wantErr: true,
		},
		{
			name:    "empty_required",
			params:  Params{"message": ""},
			wantErr: true,
		},
		{
			name:    "nil_required",
			params:  Params{"message": nil},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.ValidateParams("echo", tt.params)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}

	err := r.ValidateParams("nope", Params{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.False(t, IsValidationError(err))
}

func TestNewInstance(t *testing.T) {
	r := NewRegistry(setupTestLogger())
	require.NoError(t, r.Register(echoRegistration(nil)))

	id := uuid.New()
	tracker := NewProgressTracker(NewMemoryTaskRecordStore(), 0, setupTestLogger())

	instance, err := r.NewInstance("echo", id, tracker)
	require.NoError(t, err)
	require.NotNil(t, instance)
	assert.Equal(t, "echo", instance.Config().TypeName)

	_, err = r.NewInstance("nope", id, tracker)
	assert.ErrorIs(t, err, ErrUnknownType)
}
