package pypi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/matzehuels/stackadvisor/pkg/cache"
	"github.com/matzehuels/stackadvisor/pkg/integrations"
)

// DefaultBaseURL is the PyPI JSON API root.
const DefaultBaseURL = "https://pypi.org/pypi"

// PackageInfo holds the project level metadata of a package.
//
// Package names are normalized following PEP 503. Versions lists every
// release that has at least one non-yanked file, in the order PyPI reports
// them (unsorted).
type PackageInfo struct {
	Name     string            `json:"name"`
	Latest   string            `json:"latest"`
	Summary  string            `json:"summary,omitempty"`
	Versions []string          `json:"versions"`
	Requires map[string]string `json:"requires_python,omitempty"` // version -> Requires-Python
}

// ReleaseInfo holds the metadata of one release.
type ReleaseInfo struct {
	Name            string          `json:"name"`
	Version         string          `json:"version"`
	RequiresDist    []string        `json:"requires_dist,omitempty"`
	RequiresPython  string          `json:"requires_python,omitempty"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities,omitempty"`
}

// Vulnerability is an advisory PyPI attaches to a release.
type Vulnerability struct {
	ID      string   `json:"id"`
	Aliases []string `json:"aliases,omitempty"`
	Summary string   `json:"summary,omitempty"`
	Details string   `json:"details,omitempty"`
	Link    string   `json:"link,omitempty"`
	FixedIn []string `json:"fixed_in,omitempty"`
}

// Client provides access to the PyPI JSON API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client caching decoded responses in backend for
// cacheTTL. Pass cache.NewNullCache() to disable caching.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "pypi", cacheTTL, nil),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at a different PyPI compatible JSON API.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// FetchPackage retrieves the release list of a package.
//
// Returns [integrations.ErrNotFound] if the package doesn't exist and
// [integrations.ErrNetwork] for HTTP failures.
func (c *Client) FetchPackage(ctx context.Context, pkg string, refresh bool) (*PackageInfo, error) {
	pkg = integrations.NormalizePkgName(pkg)

	var info PackageInfo
	err := c.Cached(ctx, pkg, refresh, &info, func() error {
		return c.fetchPackage(ctx, pkg, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// FetchRelease retrieves the metadata of one release: its requirements and
// known vulnerabilities.
func (c *Client) FetchRelease(ctx context.Context, pkg, version string, refresh bool) (*ReleaseInfo, error) {
	pkg = integrations.NormalizePkgName(pkg)

	var info ReleaseInfo
	err := c.Cached(ctx, pkg+"@"+version, refresh, &info, func() error {
		return c.fetchRelease(ctx, pkg, version, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetchPackage(ctx context.Context, pkg string, info *PackageInfo) error {
	var data apiResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/%s/json", c.baseURL, pkg), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: pypi package %s", err, pkg)
		}
		return err
	}

	*info = PackageInfo{
		Name:     integrations.NormalizePkgName(data.Info.Name),
		Latest:   data.Info.Version,
		Summary:  data.Info.Summary,
		Requires: make(map[string]string),
	}
	for v, files := range data.Releases {
		if !installable(files) {
			continue
		}
		info.Versions = append(info.Versions, v)
		if rp := files[0].RequiresPython; rp != "" {
			info.Requires[v] = rp
		}
	}
	sort.Strings(info.Versions)
	return nil
}

func (c *Client) fetchRelease(ctx context.Context, pkg, version string, info *ReleaseInfo) error {
	var data apiResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/%s/%s/json", c.baseURL, pkg, integrations.URLEncode(version)), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: pypi release %s==%s", err, pkg, version)
		}
		return err
	}

	*info = ReleaseInfo{
		Name:            integrations.NormalizePkgName(data.Info.Name),
		Version:         data.Info.Version,
		RequiresDist:    data.Info.RequiresDist,
		RequiresPython:  data.Info.RequiresPython,
		Vulnerabilities: data.Vulnerabilities,
	}
	return nil
}

// installable reports whether a release has at least one non-yanked file.
func installable(files []apiFile) bool {
	for _, f := range files {
		if !f.Yanked {
			return true
		}
	}
	return false
}

type apiResponse struct {
	Info            apiInfo              `json:"info"`
	Releases        map[string][]apiFile `json:"releases"`
	Vulnerabilities []Vulnerability      `json:"vulnerabilities"`
}

type apiInfo struct {
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	Summary        string   `json:"summary"`
	RequiresDist   []string `json:"requires_dist"`
	RequiresPython string   `json:"requires_python"`
}

type apiFile struct {
	Filename       string `json:"filename"`
	RequiresPython string `json:"requires_python"`
	Yanked         bool   `json:"yanked"`
}
