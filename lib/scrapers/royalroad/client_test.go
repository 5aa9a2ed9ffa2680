package royalroad

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	fiction, err := os.ReadFile("testdata/fiction.html")
	require.NoError(t, err)
	risingStars, err := os.ReadFile("testdata/rising_stars.html")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/fiction/12345/the-lantern-road", func(w http.ResponseWriter, r *http.Request) {
		w.Write(fiction)
	})
	mux.HandleFunc("/fictions/rising-stars", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("genre") == "horror" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(risingStars)
	})
	mux.HandleFunc("/fiction/1/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Millisecond * 500)
		w.Write(fiction)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestFetchStory(t *testing.T) {
	server := newTestServer(t)
	client, err := NewClient(ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)

	stats, err := client.FetchStory(context.Background(), server.URL+"/fiction/12345/the-lantern-road")
	require.NoError(t, err)
	require.Equal(t, str("The Lantern Road"), stats.Title)
	require.Equal(t, str("12345"), stats.FictionID)
	require.Equal(t, str("1,502"), stats.Followers)
}

func TestFetchStoryNotFound(t *testing.T) {
	server := newTestServer(t)
	client, err := NewClient(ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)

	_, err = client.FetchStory(context.Background(), server.URL+"/fiction/404/missing")
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, http.StatusNotFound, fetchErr.Status)
}

func TestFetchStoryTimeout(t *testing.T) {
	server := newTestServer(t)
	client, err := NewClient(ClientOptions{
		BaseUrl: server.URL,
		Timeout: time.Millisecond * 50,
	})
	require.NoError(t, err)

	_, err = client.FetchStory(context.Background(), server.URL+"/fiction/1/slow")
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Error(t, fetchErr.Err)
}

func TestFetchRisingStars(t *testing.T) {
	server := newTestServer(t)
	client, err := NewClient(ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)

	listed, err := client.FetchRisingStars(context.Background(), MainCategory)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	require.Equal(t, "12345", listed[1].FictionID)
	require.Equal(t, 2, listed[1].Position)

	_, err = client.FetchRisingStars(context.Background(), "horror")
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, http.StatusServiceUnavailable, fetchErr.Status)
}
