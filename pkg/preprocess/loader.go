package preprocess

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

const (
	cacheDirName    = ".cache"
	cacheMarkerName = ".gitignore"
)

// Loader resolves include names and URLs to raw content. Local names are
// looked up in the include tree, first literally and then with the default
// extension appended. URLs are fetched over HTTP and cached under a hidden
// directory inside the include tree so repeat builds stay offline.
//
// A Loader is safe for concurrent use: cache directory creation and the
// marker write are idempotent, and entry writes are atomic, so two workers
// racing on the same missing entry both fetch and the last write wins.
type Loader struct {
	logger     *slog.Logger
	client     *http.Client
	includeDir string
	defaultExt string
}

// NewLoader creates a Loader over the given include tree. client may be nil
// to use http.DefaultClient.
func NewLoader(logger *slog.Logger, includeDir, defaultExt string, client *http.Client) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		logger:     logger,
		client:     client,
		includeDir: includeDir,
		defaultExt: defaultExt,
	}
}

// IsURL reports whether a resource name is an absolute HTTP(S) URL rather
// than an include-tree path.
func IsURL(resource string) bool {
	return strings.HasPrefix(resource, "http://") || strings.HasPrefix(resource, "https://")
}

// Include returns the raw, unprocessed content of an include file. The
// extension may be omitted: the literal name is tried first, then the name
// with the default extension appended.
func (l *Loader) Include(name string) (string, error) {
	for _, p := range []string{name, name + l.defaultExt} {
		data, err := os.ReadFile(filepath.Join(l.includeDir, p))
		if err == nil {
			return string(data), nil
		}
	}
	return "", &MissingIncludeError{Name: name}
}

// Resource resolves a name to raw content, from the include tree or, for an
// absolute URL, through the cache and network.
func (l *Loader) Resource(resource string) (string, error) {
	if IsURL(resource) {
		return l.FetchURL(resource)
	}
	return l.Include(resource)
}

// FetchURL resolves a URL through the cache, downloading and persisting the
// content on a miss. Cache entries are keyed by the URL's filename and
// trusted indefinitely; there is no invalidation.
func (l *Loader) FetchURL(url string) (string, error) {
	filename, err := FilenameFromURL(url)
	if err != nil {
		return "", err
	}
	if content, ok := l.loadCached(filename); ok {
		return content, nil
	}
	l.logger.Debug("Fetching resource", "url", url)
	content, err := l.download(url)
	if err != nil {
		return "", err
	}
	if err = l.storeCached(filename, content); err != nil {
		return "", err
	}
	return content, nil
}

// FilenameFromURL returns the last non-empty path segment of a URL, the key
// used for cache entries and rehosted assets.
func FilenameFromURL(url string) (string, error) {
	parts := strings.Split(url, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i], nil
		}
	}
	return "", fmt.Errorf("could not determine a filename for %s", url)
}

func (l *Loader) download(url string) (string, error) {
	resp, err := l.client.Get(url)
	if err != nil {
		return "", &ResourceFetchError{URL: url, Err: err}
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", &ResourceFetchError{URL: url, Status: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ResourceFetchError{URL: url, Err: err}
	}
	return string(data), nil
}

// ensureCacheDir creates the cache directory and its version-control ignore
// marker. Both operations are idempotent so concurrent workers can race on
// them safely.
func (l *Loader) ensureCacheDir() (string, error) {
	dir := filepath.Join(l.includeDir, cacheDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	marker := filepath.Join(dir, cacheMarkerName)
	if _, err := os.Stat(marker); os.IsNotExist(err) {
		if err = atomic.WriteFile(marker, strings.NewReader("*")); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// loadCached returns the cached content for filename. An absent or
// unreadable entry reports false and will be fetched and overwritten.
func (l *Loader) loadCached(filename string) (string, bool) {
	dir, err := l.ensureCacheDir()
	if err != nil {
		return "", false
	}
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (l *Loader) storeCached(filename, content string) error {
	dir, err := l.ensureCacheDir()
	if err != nil {
		return err
	}
	return atomic.WriteFile(filepath.Join(dir, filename), strings.NewReader(content))
}
