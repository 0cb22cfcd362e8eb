package logger

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finboard/fundsync/internal/config"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
	}{
		{name: "debug_level", logLevel: "debug"},
		{name: "info_level", logLevel: "info"},
		{name: "warn_level", logLevel: "warn"},
		{name: "error_level", logLevel: "error"},
		{name: "mixed_case", logLevel: "DeBuG"},
		{name: "invalid_falls_back_to_info", logLevel: "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := Setup(config.ServerConfig{LogLevel: tt.logLevel})
			require.NoError(t, err)
			assert.NotNil(t, logger)
			assert.Same(t, logger, slog.Default())
		})
	}
}

func TestFromContext(t *testing.T) {
	// Without a logger in context, the default is returned.
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	stored := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := WithContext(context.Background(), stored)
	assert.Same(t, stored, FromContext(ctx))
}

func TestFromContextOrDefault(t *testing.T) {
	def := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Empty context falls back to the provided default.
	assert.Same(t, def, FromContextOrDefault(context.Background(), def))

	// Nil default falls back to the process default.
	assert.Same(t, slog.Default(), FromContextOrDefault(context.Background(), nil))

	// A stored logger wins over the default.
	stored := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := WithContext(context.Background(), stored)
	assert.Same(t, stored, FromContextOrDefault(ctx, def))
}
