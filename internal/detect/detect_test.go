package detect

import (
	"os"
	"path/filepath"
	"testing"
)

func writePackageJSON(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestDetectFramework(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"nuxt wins over vue", `{"dependencies": {"vue": "^3.4.0", "nuxt": "^3.11.2"}}`, "nuxt 3"},
		{"next is nextjs", `{"dependencies": {"react": "18.2.0", "next": "14.1.0"}}`, "nextjs 14"},
		{"astro from devDependencies", `{"devDependencies": {"astro": "~4.5.0"}}`, "astro 4"},
		{"sveltekit", `{"devDependencies": {"@sveltejs/kit": "^2.0.0"}}`, "svelte 2"},
		{"plain react", `{"dependencies": {"react": ">=18"}}`, "react 18"},
		{"workspace version", `{"dependencies": {"vue": "workspace:*"}}`, "vue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fw, ok, err := DetectFramework(writePackageJSON(t, tt.content))
			if err != nil {
				t.Fatalf("DetectFramework() error: %v", err)
			}
			if !ok {
				t.Fatal("expected a framework")
			}
			if fw.String() != tt.want {
				t.Errorf("DetectFramework() = %q, want %q", fw.String(), tt.want)
			}
		})
	}
}

func TestDetectFrameworkNone(t *testing.T) {
	if _, ok, err := DetectFramework(t.TempDir()); ok || err != nil {
		t.Errorf("missing package.json: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := DetectFramework(writePackageJSON(t, `{"dependencies": {"lodash": "4"}}`)); ok {
		t.Error("unrelated deps should not match")
	}
	if _, _, err := DetectFramework(writePackageJSON(t, `{`)); err == nil {
		t.Error("broken package.json should fail")
	}
}

func TestExtractMajorVersion(t *testing.T) {
	cases := map[string]string{
		"^3.4.0":     "3",
		"~10.2":      "10",
		">=2.0.0 <3": "2",
		"1.x || 2.x": "1",
		"v5":         "5",
		"":           "",
		"latest":     "",
	}
	for in, want := range cases {
		if got := extractMajorVersion(in); got != want {
			t.Errorf("extractMajorVersion(%q) = %q, want %q", in, got, want)
		}
	}
}
