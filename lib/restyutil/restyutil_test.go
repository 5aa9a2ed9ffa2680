package restyutil

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestDumpClient(t *testing.T) {
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "yes")
		w.Write([]byte("<html>page</html>"))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "dump")
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	client := resty.New()
	DumpClient(client, output)

	_, err = client.R().Get(server.URL + "/fiction/1")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	contents, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	text := string(contents)
	require.True(t, strings.Contains(text, "GET "+server.URL+"/fiction/1"))
	require.True(t, strings.Contains(text, "X-Test: yes"))
	require.True(t, strings.Contains(text, "<html>page</html>"))
}

func TestDumpClientNilOutput(t *testing.T) {
	client := resty.New()
	DumpClient(client, nil)
}
