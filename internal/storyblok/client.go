// Package storyblok talks to the Storyblok management API.
package storyblok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/bloktastic/bloktastic/internal/errs"
)

const (
	// TokenEnv holds the personal access token used for management calls.
	TokenEnv = "STORYBLOK_OAUTH_TOKEN"
	// TokenURL is where users generate a token.
	TokenURL = "https://app.storyblok.com/#/me/account?tab=token"

	maxErrorBody = 4 << 10
)

// Region selects the management API host of a space.
type Region string

const (
	RegionEU Region = "eu"
	RegionUS Region = "us"
	RegionCA Region = "ca"
	RegionAP Region = "ap"
)

// Regions lists the supported regions, default first.
var Regions = []Region{RegionEU, RegionUS, RegionCA, RegionAP}

// ParseRegion validates s. An empty string is the default region.
func ParseRegion(s string) (Region, error) {
	if s == "" {
		return RegionEU, nil
	}
	for _, r := range Regions {
		if string(r) == s {
			return r, nil
		}
	}
	return "", errs.New(errs.KindInvalidArgument, "unknown region %q (want eu, us, ca or ap)", s)
}

// BaseURL returns the management API base URL of the region.
func (r Region) BaseURL() string {
	switch r {
	case RegionUS:
		return "https://api-us.storyblok.com/v1"
	case RegionCA:
		return "https://api-ca.storyblok.com/v1"
	case RegionAP:
		return "https://api-ap.storyblok.com/v1"
	}
	return "https://mapi.storyblok.com/v1"
}

// RequestError reports a non-success response from the management API.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("storyblok %s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *RequestError) Kind() errs.Kind {
	return errs.KindRemoteRequestFailure
}

// Component is a component definition as stored in a space.
type Component struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name"`
	Schema      map[string]any `json:"schema"`

	// Raw holds every field the API returned.
	Raw map[string]any `json:"-"`
}

func (c *Component) UnmarshalJSON(data []byte) error {
	type plain Component
	if err := json.Unmarshal(data, (*plain)(c)); err != nil {
		return err
	}
	return json.Unmarshal(data, &c.Raw)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the region's API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithLogger sets the debug logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client performs authenticated component calls against one region.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for region. An empty token fails before any
// request is made.
func NewClient(token string, region Region, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errs.Newh(errs.KindRemoteAuthMissing,
			"Generate a token at "+TokenURL+" and export it as "+TokenEnv,
			"%s not found", TokenEnv)
	}
	c := &Client{
		baseURL:    region.BaseURL(),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewClientFromEnv reads the token from TokenEnv.
func NewClientFromEnv(region Region, opts ...Option) (*Client, error) {
	return NewClient(os.Getenv(TokenEnv), region, opts...)
}

// ListComponents returns every component of the space.
func (c *Client) ListComponents(ctx context.Context, spaceID string) ([]Component, error) {
	var resp struct {
		Components []Component `json:"components"`
	}
	if err := c.do(ctx, http.MethodGet, componentsPath(spaceID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Components, nil
}

// GetComponent returns the component called name, or nil when the space
// has none.
func (c *Client) GetComponent(ctx context.Context, spaceID, name string) (*Component, error) {
	components, err := c.ListComponents(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	for i := range components {
		if components[i].Name == name {
			return &components[i], nil
		}
	}
	return nil, nil
}

// CreateComponent creates a component from schema.
func (c *Client) CreateComponent(ctx context.Context, spaceID string, schema map[string]any) (*Component, error) {
	var resp struct {
		Component Component `json:"component"`
	}
	body := map[string]any{"component": CleanSchema(schema)}
	if err := c.do(ctx, http.MethodPost, componentsPath(spaceID), body, &resp); err != nil {
		return nil, err
	}
	return &resp.Component, nil
}

// UpdateComponent replaces the component with the given id.
func (c *Client) UpdateComponent(ctx context.Context, spaceID string, id int, schema map[string]any) (*Component, error) {
	var resp struct {
		Component Component `json:"component"`
	}
	body := map[string]any{"component": CleanSchema(schema)}
	p := fmt.Sprintf("%s/%d", componentsPath(spaceID), id)
	if err := c.do(ctx, http.MethodPut, p, body, &resp); err != nil {
		return nil, err
	}
	return &resp.Component, nil
}

func componentsPath(spaceID string) string {
	return "spaces/" + url.PathEscape(spaceID) + "/components"
}

func (c *Client) do(ctx context.Context, method, p string, body, out any) error {
	endpoint := c.baseURL + "/" + p

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("storyblok request", slog.String("method", method), slog.String("url", endpoint))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Wrap(fmt.Errorf("storyblok %s %s: %w", method, endpoint, err), errs.KindRemoteRequestFailure, "")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RequestError{
			Method:     method,
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(fmt.Errorf("decoding storyblok response: %w", err), errs.KindRemoteRequestFailure, "")
	}
	return nil
}
