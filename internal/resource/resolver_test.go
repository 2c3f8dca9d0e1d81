package resource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotnet/docfx-sub027/internal/config"
	"github.com/dotnet/docfx-sub027/internal/errors"
	"github.com/dotnet/docfx-sub027/internal/retry"
)

func fastRetries(n int) retry.Policy {
	return retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, n)
}

func TestReadString_File(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "defs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "defs", "m.json"), []byte(`{"monikers":[]}`), 0o644))

	r := NewResolver(dir)
	s, err := r.ReadString(context.Background(), "defs/m.json")
	require.NoError(t, err)
	assert.Equal(t, `{"monikers":[]}`, s)

	_, err = r.ReadString(context.Background(), "missing.json")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileSystem))
}

func TestFileToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.json")
	assert.Equal(t, Token{Missing: true}, FileToken(path))

	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))
	first := FileToken(path)
	assert.Equal(t, first, FileToken(path))

	require.NoError(t, os.WriteFile(path, []byte("three"), 0o644))
	assert.NotEqual(t, first, FileToken(path))
}

func TestReadString_URLRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()

	r := NewResolver(".").WithRetryPolicy(fastRetries(3))
	s, err := r.ReadString(context.Background(), srv.URL+"/m.json")
	require.NoError(t, err)
	assert.Equal(t, "remote", s)
	assert.Equal(t, int32(3), calls.Load())
}

func TestReadString_URLNotFoundIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	r := NewResolver(".").WithRetryPolicy(fastRetries(3))
	_, err := r.ReadString(context.Background(), srv.URL)
	require.Error(t, err)
	assert.False(t, errors.IsRetryable(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestChangeToken_URL(t *testing.T) {
	etag := `"v1"`
	body := "a"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/etag" {
			w.Header().Set("ETag", etag)
		}
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(body))
		}
	}))
	defer srv.Close()

	r := NewResolver(".")
	ctx := context.Background()

	assert.Equal(t, Token{ETag: `"v1"`}, r.ChangeToken(ctx, srv.URL+"/etag"))
	etag = `"v2"`
	assert.Equal(t, Token{ETag: `"v2"`}, r.ChangeToken(ctx, srv.URL+"/etag"))

	plain := r.ChangeToken(ctx, srv.URL+"/plain")
	assert.Equal(t, int64(1), plain.Size)
	assert.Equal(t, plain, r.ChangeToken(ctx, srv.URL+"/plain"))
	body = "b"
	assert.NotEqual(t, plain, r.ChangeToken(ctx, srv.URL+"/plain"))
}

func TestResolve(t *testing.T) {
	r := NewResolver("/docs")
	assert.Equal(t, "https://x/y.json", r.Resolve("https://x/y.json"))
	assert.Equal(t, filepath.Join("/docs", "a", "b.json"), r.Resolve("a/b.json"))
	assert.True(t, IsURL("HTTP://x"))
	assert.False(t, IsURL("file.json"))
}
