package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bloktastic/bloktastic/internal/errs"
)

var testdataDir = filepath.Join("..", "..", "testdata", "registry")

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/registry/", func(w http.ResponseWriter, r *http.Request) {
		relPath := strings.TrimPrefix(r.URL.Path, "/registry/")
		data, err := os.ReadFile(filepath.Join(testdataDir, filepath.FromSlash(relPath)))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if filepath.Ext(relPath) == ".json" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.Write(data)
	})
	mux.HandleFunc("/html/registry.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html>login</html>"))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newRemoteClient(t *testing.T) *Client {
	t.Helper()
	server := setupTestServer(t)
	return NewClient(RemoteSource(server.URL+"/registry/"), WithHTTPClient(server.Client()))
}

func TestFetchRegistryRemote(t *testing.T) {
	client := newRemoteClient(t)

	ctx := context.Background()
	reg, err := client.FetchRegistry(ctx)
	if err != nil {
		t.Fatalf("FetchRegistry() error: %v", err)
	}

	if reg.Name != "bloktastic" {
		t.Errorf("Name = %q, want bloktastic", reg.Name)
	}
	if len(reg.Packages.Components) != 3 {
		t.Errorf("components = %d, want 3", len(reg.Packages.Components))
	}
	if reg.Packages.Presets[0].Category != nil {
		t.Error("preset category should decode as null")
	}

	// Second call is served from the cache.
	reg2, err := client.FetchRegistry(ctx)
	if err != nil {
		t.Fatalf("cached FetchRegistry() error: %v", err)
	}
	if reg2 != reg {
		t.Error("second call should return cached registry")
	}
}

func TestFetchRegistryLocal(t *testing.T) {
	client := NewClient(LocalSource(testdataDir))

	reg, err := client.FetchRegistry(context.Background())
	if err != nil {
		t.Fatalf("FetchRegistry() error: %v", err)
	}
	if len(reg.Packages.Plugins) != 1 {
		t.Errorf("plugins = %d, want 1", len(reg.Packages.Plugins))
	}
}

func TestFetchRegistryNotFound(t *testing.T) {
	server := setupTestServer(t)
	client := NewClient(RemoteSource(server.URL+"/nowhere"), WithHTTPClient(server.Client()))

	_, err := client.FetchRegistry(context.Background())
	if err == nil {
		t.Fatal("expected error for missing registry")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want FetchError", err)
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", fetchErr.StatusCode)
	}
	if !errs.Is(err, errs.KindLoadFailure) {
		t.Errorf("kind = %q, want load failure", errs.KindOf(err))
	}
}

func TestFetchRegistryRejectsHTML(t *testing.T) {
	server := setupTestServer(t)
	client := NewClient(RemoteSource(server.URL+"/html"), WithHTTPClient(server.Client()))

	_, err := client.FetchRegistry(context.Background())
	if err == nil || !strings.Contains(err.Error(), "HTML") {
		t.Fatalf("error = %v, want HTML rejection", err)
	}
}

func TestFetchManifest(t *testing.T) {
	client := newRemoteClient(t)

	m, err := client.FetchManifest(context.Background(), "components/hero-slider")
	if err != nil {
		t.Fatalf("FetchManifest() error: %v", err)
	}

	if m.Type != KindComponent {
		t.Errorf("Type = %v, want component", m.Type)
	}
	if got := m.DependencyNames(); len(got) != 1 || got[0] != "@bloktastic/button" {
		t.Errorf("DependencyNames() = %v", got)
	}
	if m.SchemaFile() != "schema.json" {
		t.Errorf("SchemaFile() = %q", m.SchemaFile())
	}
}

func TestFetchManifestUnknownType(t *testing.T) {
	dir := t.TempDir()
	pkgDir := filepath.Join(dir, "components", "odd")
	os.MkdirAll(pkgDir, 0755)
	os.WriteFile(filepath.Join(pkgDir, ManifestFile), []byte(`{"name":"@x/odd","type":"widget"}`), 0644)

	client := NewClient(LocalSource(dir))
	_, err := client.FetchManifest(context.Background(), "components/odd")

	var typeErr *UnknownTypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("error = %v, want UnknownTypeError", err)
	}
	if typeErr.Type != "widget" {
		t.Errorf("Type = %q, want widget", typeErr.Type)
	}
	if !errs.Is(err, errs.KindUnknownPackageType) {
		t.Errorf("kind = %q", errs.KindOf(err))
	}
}

func TestFetchSchemaAndText(t *testing.T) {
	client := newRemoteClient(t)
	ctx := context.Background()

	schema, err := client.FetchSchema(ctx, "components/button", "schema.json")
	if err != nil {
		t.Fatalf("FetchSchema() error: %v", err)
	}
	if schema["name"] != "button" {
		t.Errorf("schema name = %v, want button", schema["name"])
	}
	if _, ok := schema["$bloktastic"]; !ok {
		t.Error("fetched schema should keep $bloktastic")
	}

	prompt, err := client.FetchText(ctx, "components/button", "prompt.md")
	if err != nil {
		t.Fatalf("FetchText() error: %v", err)
	}
	if !strings.Contains(prompt, "## Purpose") {
		t.Error("prompt should contain the Purpose section")
	}
}

func TestLocalReadRejectsEscape(t *testing.T) {
	client := NewClient(LocalSource(testdataDir))
	_, err := client.FetchText(context.Background(), "../..", "go.mod")
	if err == nil {
		t.Fatal("expected error for path outside the registry")
	}
}

func TestFindPackage(t *testing.T) {
	client := NewClient(LocalSource(testdataDir))
	ctx := context.Background()

	pkg, err := client.FindPackage(ctx, "@bloktastic/hero-tool")
	if err != nil {
		t.Fatalf("FindPackage() error: %v", err)
	}
	if pkg.Kind != KindPlugin || pkg.Path != "plugins/hero-tool" {
		t.Errorf("package = %+v", pkg)
	}

	_, err = client.FindPackage(ctx, "@bloktastic/missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
	if !errs.Is(err, errs.KindNotFound) {
		t.Errorf("kind = %q", errs.KindOf(err))
	}
}
