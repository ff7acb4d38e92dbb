package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/stackadvisor/pkg/python"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a package or resource doesn't exist on the index.
	ErrNotFound = errors.New("not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")

	// ErrRateLimited is returned when the index answers 429 Too Many Requests.
	ErrRateLimited = errors.New("rate limited")
)

// NewHTTPClient creates an HTTP client with a standard timeout for index requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// NormalizePkgName converts a package name to its PEP 503 canonical form.
func NormalizePkgName(name string) string {
	return python.NormalizeName(name)
}

// URLEncode percent-encodes a path segment.
func URLEncode(s string) string { return url.PathEscape(s) }
