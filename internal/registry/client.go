package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/bloktastic/bloktastic/internal/errs"
	"github.com/bloktastic/bloktastic/internal/filemanager"
)

const maxResponseSize = 10 << 20 // 10 MB

// FetchError reports a non-success HTTP response from a remote registry.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

func (e *FetchError) Kind() errs.Kind {
	return errs.KindLoadFailure
}

// NotFoundError is returned when a package name is absent from the registry.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("package not found: %s", e.Name)
}

func (e *NotFoundError) Kind() errs.Kind {
	return errs.KindNotFound
}

// Option configures a Client.
type Option func(*Client)

// Client reads registry documents from a resolved Source.
type Client struct {
	source     Source
	httpClient *http.Client
	cache      *Cache
	logger     *slog.Logger
}

// NewClient creates a new registry client for source.
func NewClient(source Source, opts ...Option) *Client {
	c := &Client{
		source:     source,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      NewCache(0),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the debug logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Source returns the source the client reads from.
func (c *Client) Source() Source {
	return c.source
}

// FetchRegistry fetches and parses registry.json.
func (c *Client) FetchRegistry(ctx context.Context) (*Data, error) {
	if cached, ok := c.cache.GetRegistry(); ok {
		return cached, nil
	}

	raw, err := c.read(ctx, RegistryFile)
	if err != nil {
		return nil, errs.Wrap(fmt.Errorf("fetching registry: %w", err), errs.KindLoadFailure, "")
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errs.Wrap(fmt.Errorf("parsing registry: %w", err), errs.KindLoadFailure, "")
	}

	c.cache.SetRegistry(&data)
	return &data, nil
}

// FetchManifest fetches and parses a package's bloktastic.json.
func (c *Client) FetchManifest(ctx context.Context, pkgPath string) (*Manifest, error) {
	if cached, ok := c.cache.GetManifest(pkgPath); ok {
		return cached, nil
	}

	raw, err := c.read(ctx, path.Join(pkgPath, ManifestFile))
	if err != nil {
		return nil, errs.Wrap(fmt.Errorf("fetching manifest for %s: %w", pkgPath, err), errs.KindLoadFailure, "")
	}

	m, err := ParseManifest(raw)
	if err != nil {
		if errs.Is(err, errs.KindUnknownPackageType) {
			return nil, fmt.Errorf("manifest for %s: %w", pkgPath, err)
		}
		return nil, errs.Wrap(fmt.Errorf("parsing manifest for %s: %w", pkgPath, err), errs.KindLoadFailure, "")
	}

	c.cache.SetManifest(pkgPath, m)
	return m, nil
}

// FetchSchema fetches a component schema as a generic JSON object.
func (c *Client) FetchSchema(ctx context.Context, pkgPath, file string) (map[string]any, error) {
	raw, err := c.read(ctx, path.Join(pkgPath, file))
	if err != nil {
		return nil, errs.Wrap(fmt.Errorf("fetching %s for %s: %w", file, pkgPath, err), errs.KindLoadFailure, "")
	}

	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, errs.Wrap(fmt.Errorf("parsing %s for %s: %w", file, pkgPath, err), errs.KindLoadFailure, "")
	}
	return schema, nil
}

// FetchText fetches a text document such as prompt.md or README.md.
func (c *Client) FetchText(ctx context.Context, pkgPath, file string) (string, error) {
	raw, err := c.read(ctx, path.Join(pkgPath, file))
	if err != nil {
		return "", errs.Wrap(fmt.Errorf("fetching %s for %s: %w", file, pkgPath, err), errs.KindLoadFailure, "")
	}
	return string(raw), nil
}

// FindPackage looks a package up by exact name across all kinds.
func (c *Client) FindPackage(ctx context.Context, name string) (*Package, error) {
	data, err := c.FetchRegistry(ctx)
	if err != nil {
		return nil, err
	}
	pkg, ok := data.Find(name)
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return &pkg, nil
}

// AllPackages returns every package, or only those of kind when non-zero.
func (c *Client) AllPackages(ctx context.Context, kind Kind) ([]Package, error) {
	data, err := c.FetchRegistry(ctx)
	if err != nil {
		return nil, err
	}
	return data.All(kind), nil
}

// Search runs a registry search.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) ([]Package, error) {
	data, err := c.FetchRegistry(ctx)
	if err != nil {
		return nil, err
	}
	return data.Search(query, opts), nil
}

func (c *Client) read(ctx context.Context, rel string) ([]byte, error) {
	c.logger.Debug("registry read", slog.String("source", c.source.String()), slog.String("file", rel))
	if c.source.Local {
		full, err := filemanager.SafeJoin(c.source.Root, rel)
		if err != nil {
			return nil, err
		}
		return os.ReadFile(full)
	}
	return c.get(ctx, c.source.Location(rel))
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}

	ct := resp.Header.Get("Content-Type")
	if strings.Contains(ct, "text/html") {
		return nil, fmt.Errorf("received HTML response from %s; check the registry URL", url)
	}

	return data, nil
}
