// Package resource reads configuration-referenced resources (moniker
// definitions and the like) from the local docset or over http(s), and
// produces comparable change tokens for them.
package resource

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/dotnet/docfx-sub027/internal/errors"
	"github.com/dotnet/docfx-sub027/internal/logfields"
	"github.com/dotnet/docfx-sub027/internal/retry"
)

const defaultTimeout = 30 * time.Second

// Token identifies one observed state of a resource. Equal tokens mean the
// resource is unchanged. A token for an unreadable resource records the
// failure so recovering also counts as a change.
type Token struct {
	Missing bool
	Size    int64
	ModTime int64
	ETag    string
	Hash    uint64
	Err     string
}

// Resolver reads local files relative to a base directory and http(s) URLs.
type Resolver struct {
	baseDir string
	client  *http.Client
	policy  retry.Policy
	logger  *slog.Logger
}

// NewResolver creates a resolver for paths relative to baseDir.
func NewResolver(baseDir string) *Resolver {
	return &Resolver{
		baseDir: baseDir,
		client:  &http.Client{Timeout: defaultTimeout},
		policy:  retry.DefaultPolicy(),
		logger:  slog.Default(),
	}
}

// WithHTTPClient sets the client used for URLs.
func (r *Resolver) WithHTTPClient(c *http.Client) *Resolver {
	r.client = c
	return r
}

// WithRetryPolicy sets the retry policy for URL reads.
func (r *Resolver) WithRetryPolicy(p retry.Policy) *Resolver {
	r.policy = p
	return r
}

// WithLogger sets a custom logger.
func (r *Resolver) WithLogger(logger *slog.Logger) *Resolver {
	r.logger = logger
	return r
}

// IsURL reports whether path is an http(s) URL.
func IsURL(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Resolve returns the absolute location of path: the URL itself or a file
// path joined to the base directory.
func (r *Resolver) Resolve(path string) string {
	if IsURL(path) || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.baseDir, filepath.FromSlash(path))
}

// ReadString returns the content of a file or URL. URL reads are retried on
// transient failures.
func (r *Resolver) ReadString(ctx context.Context, path string) (string, error) {
	loc := r.Resolve(path)
	if !IsURL(loc) {
		data, err := os.ReadFile(loc)
		if err != nil {
			return "", errors.ResourceNotFound(loc, err)
		}
		return string(data), nil
	}

	var body []byte
	err := r.policy.Do(ctx, "fetch "+loc, func(ctx context.Context) error {
		b, _, err := r.get(ctx, http.MethodGet, loc)
		body = b
		return err
	})
	if err != nil {
		return "", err
	}
	r.logger.Debug("Fetched resource", logfields.URL(loc), logfields.Count(len(body)))
	return string(body), nil
}

// ChangeToken returns the current token of path. Files use size and
// modification time. URLs use the ETag or Last-Modified header of a HEAD
// request, falling back to a hash of the body.
func (r *Resolver) ChangeToken(ctx context.Context, path string) Token {
	loc := r.Resolve(path)
	if !IsURL(loc) {
		return FileToken(loc)
	}

	_, header, err := r.get(ctx, http.MethodHead, loc)
	if err == nil {
		if etag := header.Get("ETag"); etag != "" {
			return Token{ETag: etag}
		}
		if lm := header.Get("Last-Modified"); lm != "" {
			return Token{ETag: "lm:" + lm}
		}
	}

	body, _, err := r.get(ctx, http.MethodGet, loc)
	if err != nil {
		return Token{Err: err.Error()}
	}
	return Token{Size: int64(len(body)), Hash: xxhash.Sum64(body)}
}

// FileToken returns the stat-based token of a local file.
func FileToken(path string) Token {
	info, err := os.Stat(path)
	if err != nil {
		if stdErrors.Is(err, fs.ErrNotExist) {
			return Token{Missing: true}
		}
		return Token{Err: err.Error()}
	}
	return Token{Size: info.Size(), ModTime: info.ModTime().UnixNano()}
}

func (r *Resolver) get(ctx context.Context, method, url string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "invalid resource url").
			WithContext("url", url)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, nil, errors.NetworkFailure(url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil, errors.ResourceNotFound(url, fmt.Errorf("http %d", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, nil, errors.NetworkFailure(url, fmt.Errorf("http %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, nil, errors.Wrap(fmt.Errorf("http %d", resp.StatusCode), errors.CategoryNetwork, errors.SeverityFatal, "resource request rejected").
			WithContext("url", url)
	}

	if method == http.MethodHead {
		return nil, resp.Header, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errors.NetworkFailure(url, err)
	}
	return body, resp.Header, nil
}
