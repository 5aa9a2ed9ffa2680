package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storywatch-backend/services/notify"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json5"))
	require.NoError(t, err)
	require.Equal(t, defaultConfig(), cfg)
}

func TestLoadConfigMerge(t *testing.T) {
	path := writeConfig(t, `{
		// comments and trailing commas are fine
		database: { file: "state/tracker.db" },
		server: { port: 9000, },
		notify: { feed: { path: "out/feed.atom" } },
	}`)
	require.NoError(t, os.WriteFile(
		filepath.Join(filepath.Dir(path), "config.local.json5"),
		[]byte(`{ server: { access_token: "local" } }`),
		0600,
	))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "state/tracker.db", cfg.Database.File)
	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, "local", cfg.Server.AccessToken)
	require.Equal(t, "@every 1h", cfg.Server.LiveStatsSchedule)
	require.Equal(t, "@every 15m", cfg.Server.RisingStarsSchedule)
	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, "out/feed.atom", cfg.Notify.Feed.Path)
}

func TestLoadConfigSecrets(t *testing.T) {
	path := writeConfig(t, `{ notify: { email: { smtp: { server: "localhost" } } } }`)
	t.Setenv("STORYWATCH_ACCESS_TOKEN", "from-env")
	t.Setenv("STORYWATCH_SMTP_PASSWORD", "hunter2")
	t.Setenv("STORYWATCH_PORT", "not a port")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Server.AccessToken)
	require.Equal(t, "hunter2", cfg.Notify.Email.Smtp.Password)
	require.Equal(t, 8110, cfg.Server.Port)
	require.Nil(t, cfg.Notify.Redis)
}

func TestNewSink(t *testing.T) {
	sink, closers, err := newSink(context.Background(), NotifyConfig{})
	require.NoError(t, err)
	require.Empty(t, closers)
	require.IsType(t, notify.LogSink{}, sink)

	feed := &notify.FeedConfig{Path: filepath.Join(t.TempDir(), "feed.atom")}
	sink, _, err = newSink(context.Background(), NotifyConfig{Feed: feed})
	require.NoError(t, err)
	require.IsType(t, notify.FeedSink{}, sink)

	sink, _, err = newSink(context.Background(), NotifyConfig{Feed: feed, Log: true})
	require.NoError(t, err)
	require.Len(t, sink, 2)

	_, _, err = newSink(context.Background(), NotifyConfig{Email: &notify.EmailConfig{}})
	require.Error(t, err)
}

func run(t *testing.T, args ...string) (string, error) {
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `{ database: { file: "`+filepath.ToSlash(filepath.Join(dir, "cli.db"))+`" } }`)

	out, err := run(t, "token", "--length", "24")
	require.NoError(t, err)
	require.Len(t, strings.TrimSpace(out), 24)

	out, err = run(t, "--config", path, "stories", "list")
	require.NoError(t, err)
	require.Contains(t, strings.ToUpper(out), "FOLLOWERS")

	out, err = run(t, "--config", path, "untrack", "g1", "m1")
	require.NoError(t, err)
	require.Contains(t, out, "removed 0 tracked stories")

	_, err = run(t, "--config", path, "track", "g1")
	require.Error(t, err)
}
