package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mapnikgen/internal/config"
)

func TestSetupWithWriter_Levels(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		visible []string
		hidden  []string
	}{
		{
			name:    "debug shows everything",
			cfg:     config.Config{LogLevel: config.LogLevelDebug, LogFormat: config.LogFormatText},
			visible: []string{"watching", "rendered", "slow write", "render failed"},
		},
		{
			name:    "info hides debug",
			cfg:     config.Config{LogLevel: config.LogLevelInfo, LogFormat: config.LogFormatText},
			visible: []string{"rendered", "slow write", "render failed"},
			hidden:  []string{"watching"},
		},
		{
			name:    "warn hides info",
			cfg:     config.Config{LogLevel: config.LogLevelWarn, LogFormat: config.LogFormatText},
			visible: []string{"slow write", "render failed"},
			hidden:  []string{"watching", "rendered"},
		},
		{
			name:    "quiet keeps only errors",
			cfg:     config.Config{LogLevel: config.LogLevelDebug, LogFormat: config.LogFormatText, Quiet: true},
			visible: []string{"render failed"},
			hidden:  []string{"watching", "rendered", "slow write"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := SetupWithWriter(&tt.cfg, &buf)

			logger.Debug("watching")
			logger.Info("rendered")
			logger.Warn("slow write")
			logger.Error("render failed")

			for _, msg := range tt.visible {
				assert.Contains(t, buf.String(), msg)
			}

			for _, msg := range tt.hidden {
				assert.NotContains(t, buf.String(), msg)
			}
		})
	}
}

func TestSetupWithWriter_JSONCarriesApp(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithWriter(&config.Config{LogLevel: config.LogLevelInfo, LogFormat: config.LogFormatJSON}, &buf)

	logger.Info("rendered", slog.Int("bytes", 2048), slog.String("output", "style.xml"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record))

	assert.Equal(t, "INFO", record["level"])
	assert.Equal(t, "rendered", record["msg"])
	assert.Equal(t, "mapnikgen", record["app"])
	assert.Equal(t, "style.xml", record["output"])
	assert.InDelta(t, 2048, record["bytes"], 0)
}

func TestSetupWithWriter_TextCarriesApp(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithWriter(&config.Config{LogLevel: config.LogLevelInfo, LogFormat: config.LogFormatText}, &buf)

	logger.Info("rendered")
	assert.Contains(t, buf.String(), "app=mapnikgen")
}

func TestSetup_InstallsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := Setup(config.Default())
	assert.Same(t, logger.Handler(), slog.Default().Handler())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel(config.LogLevelDebug))
	assert.Equal(t, slog.LevelInfo, ParseLevel(config.LogLevelInfo))
	assert.Equal(t, slog.LevelWarn, ParseLevel(config.LogLevelWarn))
	assert.Equal(t, slog.LevelError, ParseLevel(config.LogLevelError))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestFromContext(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	assert.Same(t, logger, FromContext(NewContext(context.Background(), logger)))
}

func TestWith_Stacks(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := NewContext(context.Background(), base)
	ctx = With(ctx, slog.String("template", "roads.xml.j2"))
	ctx = With(ctx, slog.Int("pass", 3))

	FromContext(ctx).Info("rendered")
	base.Info("untouched")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	assert.Contains(t, lines[0], "template=roads.xml.j2")
	assert.Contains(t, lines[0], "pass=3")
	assert.NotContains(t, lines[1], "template=")
}
