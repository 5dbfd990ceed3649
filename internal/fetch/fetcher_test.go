package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shape-cli/shape-launcher/internal/config"
)

func testConfig(attempts int) config.ReleaseConfig {
	return config.ReleaseConfig{
		Host:        "unused",
		Repo:        "unused",
		MaxAttempts: attempts,
		RetryDelay:  0,
	}
}

func TestFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("archive bytes"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "archive.tar.gz")
	f := NewFetcher(testConfig(3))

	err := f.Fetch(context.Background(), server.URL, dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "archive bytes", string(data))
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Fail twice, then succeed on the final allowed attempt
		if requests.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "out")
	f := NewFetcher(testConfig(3))

	err := f.Fetch(context.Background(), server.URL, dest)
	require.NoError(t, err)
	require.Equal(t, int32(3), requests.Load())
}

func TestFetchNotFoundAbortsImmediately(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "out")
	f := NewFetcher(testConfig(3))

	err := f.Fetch(context.Background(), server.URL, dest)

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, server.URL, notFound.URL)
	require.Equal(t, int32(1), requests.Load(), "not-found must not consume retries")

	_, statErr := os.Stat(dest)
	require.True(t, os.IsNotExist(statErr), "no file may exist after a failed fetch")
}

func TestFetchExhaustsRetries(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "out")
	f := NewFetcher(testConfig(3))

	err := f.Fetch(context.Background(), server.URL, dest)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, int32(3), requests.Load())

	_, statErr := os.Stat(dest)
	require.True(t, os.IsNotExist(statErr))
}

func TestFetchConnectionError(t *testing.T) {
	// A server that is immediately closed yields connection failures
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	dest := filepath.Join(t.TempDir(), "out")
	f := NewFetcher(testConfig(2))

	err := f.Fetch(context.Background(), url, dest)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
}
