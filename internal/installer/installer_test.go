package installer

import (
	stdtar "archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shape-cli/shape-launcher/internal/config"
	"github.com/shape-cli/shape-launcher/internal/fetch"
	"github.com/shape-cli/shape-launcher/internal/platform"
	"github.com/shape-cli/shape-launcher/internal/release"
	"github.com/shape-cli/shape-launcher/internal/verify"
)

// fakeStore is an in-memory release store for one version.
type fakeStore struct {
	version     string
	archiveName string
	archive     []byte
	manifest    []byte
	requests    atomic.Int32
	server      *httptest.Server
}

func newFakeStore(t *testing.T, version string, binaryContent []byte) *fakeStore {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake store builds tar.gz archives")
	}

	tag, err := platform.Current()
	require.NoError(t, err)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := stdtar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&stdtar.Header{
		Name: tag.BinaryName(),
		Mode: 0755,
		Size: int64(len(binaryContent)),
	}))
	_, err = tw.Write(binaryContent)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	archiveName := fmt.Sprintf("shape-%s.%s", tag, tag.ArchiveExt())
	sum := sha256.Sum256(buf.Bytes())

	s := &fakeStore{
		version:     version,
		archiveName: archiveName,
		archive:     buf.Bytes(),
		manifest:    []byte(hex.EncodeToString(sum[:]) + "  " + archiveName + "\n"),
	}

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		prefix := "/shape-cli/shape/releases/download/v" + s.version + "/"
		switch r.URL.Path {
		case prefix + s.archiveName:
			w.Write(s.archive)
		case prefix + release.ChecksumsFilename:
			w.Write(s.manifest)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *fakeStore) config(installDir string) *config.Config {
	return &config.Config{
		Release: config.ReleaseConfig{
			Host:        s.server.URL,
			Repo:        "shape-cli/shape",
			MaxAttempts: 3,
			RetryDelay:  0,
		},
		Install: config.InstallConfig{Dir: installDir},
	}
}

func TestInstallEndToEnd(t *testing.T) {
	store := newFakeStore(t, "1.2.3", []byte("#!/bin/sh\necho shape\n"))
	installDir := t.TempDir()

	inst := New(store.config(installDir))
	path, err := inst.Install(context.Background(), "1.2.3")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0100, "owner execute bit must be set")
	require.Equal(t, filepath.Dir(path), installDir)
}

func TestInstallIdempotent(t *testing.T) {
	store := newFakeStore(t, "1.2.3", []byte("binary"))
	installDir := t.TempDir()
	inst := New(store.config(installDir))

	first, err := inst.Install(context.Background(), "1.2.3")
	require.NoError(t, err)
	requestsAfterFirst := store.requests.Load()

	second, err := inst.Install(context.Background(), "1.2.3")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, requestsAfterFirst, store.requests.Load(),
		"second install must perform zero network requests")
}

func TestInstallChecksumMismatch(t *testing.T) {
	store := newFakeStore(t, "1.2.3", []byte("binary"))
	// Corrupt the published manifest
	store.manifest = []byte("ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff  " + store.archiveName + "\n")

	installDir := t.TempDir()
	inst := New(store.config(installDir))

	_, err := inst.Install(context.Background(), "1.2.3")
	var mismatch *verify.ChecksumMismatchError
	require.ErrorAs(t, err, &mismatch)

	// Nothing may reach the install directory
	entries, readErr := os.ReadDir(installDir)
	require.NoError(t, readErr)
	require.Empty(t, entries)
}

func TestInstallVersionNotFound(t *testing.T) {
	store := newFakeStore(t, "1.2.3", []byte("binary"))
	inst := New(store.config(t.TempDir()))

	_, err := inst.Install(context.Background(), "9.9.9")
	var notFound *fetch.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestForceInstallReplaces(t *testing.T) {
	store := newFakeStore(t, "1.2.3", []byte("old binary"))
	installDir := t.TempDir()
	inst := New(store.config(installDir))

	path, err := inst.Install(context.Background(), "1.2.3")
	require.NoError(t, err)

	// Publish new bytes for the same version
	newStore := newFakeStore(t, "1.2.3", []byte("new binary"))
	store.archive = newStore.archive
	store.manifest = newStore.manifest

	// Plain install short-circuits on the existing binary
	_, err = inst.Install(context.Background(), "1.2.3")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "old binary", string(data))

	// Force replaces it
	forced, err := inst.ForceInstall(context.Background(), "1.2.3")
	require.NoError(t, err)
	require.Equal(t, path, forced)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new binary", string(data))
}
