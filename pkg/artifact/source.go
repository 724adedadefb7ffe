package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mchmarny/scorecard/pkg/net"
)

// Source reads named model documents from some location.
type Source interface {
	// Location identifies the source, e.g. an absolute directory or base URL.
	Location() string
	// Path returns the full path or URL of the named document.
	Path(name string) string
	// ReadFile returns the document content or an error wrapping
	// fs.ErrNotExist when the document does not exist.
	ReadFile(ctx context.Context, name string) ([]byte, error)
}

// NewSource returns an HTTP source for http(s) URLs and a directory source
// for anything else. client is only used by HTTP sources and may be nil.
func NewSource(location string, client *http.Client) (Source, error) {
	if isURL(location) {
		return NewHTTPSource(location, client)
	}
	return NewDirSource(location)
}

// IsRemote reports whether location names an HTTP(S) source.
func IsRemote(location string) bool {
	return isURL(location)
}

func isURL(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

type dirSource struct {
	dir string
}

// NewDirSource returns a source reading documents from dir.
func NewDirSource(dir string) (Source, error) {
	if dir == "" {
		return nil, errors.New("artifacts directory required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving artifacts directory %s: %w", dir, err)
	}
	return &dirSource{dir: abs}, nil
}

func (s *dirSource) Location() string {
	return s.dir
}

func (s *dirSource) Path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *dirSource) ReadFile(_ context.Context, name string) ([]byte, error) {
	return os.ReadFile(s.Path(name))
}

type httpSource struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPSource returns a source fetching documents relative to baseURL.
func NewHTTPSource(baseURL string, client *http.Client) (Source, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing artifacts URL %s: %w", baseURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("artifacts URL has no host: %s", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &httpSource{base: u, client: client}, nil
}

func (s *httpSource) Location() string {
	return s.base.String()
}

func (s *httpSource) Path(name string) string {
	return s.base.JoinPath(name).String()
}

func (s *httpSource) ReadFile(ctx context.Context, name string) ([]byte, error) {
	b, err := net.GetBytes(ctx, s.client, s.Path(name))
	if errors.Is(err, net.ErrorURLNotFound) {
		return nil, fmt.Errorf("%w: %w", fs.ErrNotExist, err)
	}
	return b, err
}

func joinLocation(location, name string) string {
	if isURL(location) {
		if u, err := url.Parse(location); err == nil {
			return u.JoinPath(name).String()
		}
	}
	return filepath.Join(location, name)
}
