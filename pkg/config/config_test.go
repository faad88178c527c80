package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "snipgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadEmptyFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	grammar, err := cfg.Grammar()
	require.NoError(t, err)
	assert.Equal(t, ast.Light, grammar)

	size, err := cfg.MaxFileSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(4<<20), size)

	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
	assert.False(t, cfg.JSONLogs())
}

func TestLoadFileOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(writeConfig(t, `
synthesis:
  grammar: ts
  mode: object
runner:
  max_file_size: 512KB
  max_rounds: 3
logging:
  level: debug
  format: json
telemetry:
  otlp_endpoint: localhost:4317
  otlp_insecure: true
  metrics_addr: ":9464"
`))
	require.NoError(t, err)

	grammar, err := cfg.Grammar()
	require.NoError(t, err)
	assert.Equal(t, ast.Typed, grammar)
	assert.Equal(t, "object", cfg.Synthesis.Mode)

	size, err := cfg.MaxFileSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(512000), size)
	assert.Equal(t, 3, cfg.Runner.MaxRounds)

	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
	assert.True(t, cfg.JSONLogs())

	assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint)
	assert.True(t, cfg.Telemetry.OTLPInsecure)
	assert.Equal(t, ":9464", cfg.Telemetry.MetricsAddr)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SNIPGEN_SYNTHESIS_GRAMMAR", "css")
	t.Setenv("SNIPGEN_RUNNER_MAX_ROUNDS", "7")

	cfg, err := config.Load(writeConfig(t, "synthesis:\n  grammar: ts\n"))
	require.NoError(t, err)
	assert.Equal(t, "css", cfg.Synthesis.Grammar)
	assert.Equal(t, 7, cfg.Runner.MaxRounds)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"grammar", "synthesis:\n  grammar: ruby\n", config.ErrInvalidGrammar},
		{"mode", "synthesis:\n  mode: tree\n", config.ErrInvalidMode},
		{"file size", "runner:\n  max_file_size: lots\n", config.ErrInvalidFileSize},
		{"rounds", "runner:\n  max_rounds: 0\n", config.ErrInvalidRounds},
		{"level", "logging:\n  level: loud\n", config.ErrInvalidLogLevel},
		{"format", "logging:\n  format: xml\n", config.ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Load(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.want)
		})
	}
}
