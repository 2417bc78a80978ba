package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pable/cs-coach/internal/log"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, log.Info, cfg.Log.Level)
	require.Equal(t, 2, cfg.Parse.Jobs)
	require.Equal(t, "cscoach.db", filepath.Base(cfg.DBPath))

	opts := cfg.RatingOptions()
	require.Equal(t, 128.0, opts.Window.TradeWindowTicks)
	require.Equal(t, 96.0, opts.Window.FlashWindowTicks)
	require.Equal(t, 700*time.Millisecond, opts.Window.MinBlindDuration)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	body := "db_path: /tmp/x.db\nlog:\n  level: debug\nrating:\n  trade_window_ticks: 64\nparse:\n  jobs: 0\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	t.Setenv("CSCOACH_FACEIT_API_KEY", "fk")
	t.Setenv("CSCOACH_COACH_API_KEY", "ck")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/x.db", cfg.DBPath)
	require.Equal(t, log.Debug, cfg.Log.Level)
	require.Equal(t, 64.0, cfg.Rating.TradeWindowTicks)
	require.Equal(t, 96.0, cfg.Rating.FlashWindowTicks)
	require.Equal(t, "fk", cfg.Faceit.APIKey)
	require.Equal(t, "ck", cfg.Coach.APIKey)
	require.Equal(t, 1, cfg.Parse.Jobs)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestAnthropicKeyFallback(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "ak")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "ak", cfg.Coach.APIKey)
}
