package registry

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// versionTrees returns two copies of the fixture registry.
func versionTrees(t *testing.T) (base, head string) {
	t.Helper()
	return copyFixture(t), copyFixture(t)
}

func editFile(t *testing.T, file, old, new string) {
	t.Helper()
	raw, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if old == "" {
		raw = append(raw, new...)
	} else {
		if !strings.Contains(string(raw), old) {
			t.Fatalf("%s does not contain %q", file, old)
		}
		raw = []byte(strings.Replace(string(raw), old, new, 1))
	}
	if err := os.WriteFile(file, raw, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCheckVersionBumpsUnchanged(t *testing.T) {
	base, head := versionTrees(t)

	report, err := CheckVersionBumps(os.DirFS(base), os.DirFS(head))
	if err != nil {
		t.Fatalf("CheckVersionBumps() error: %v", err)
	}
	if len(report.Changed) != 0 || len(report.Failures) != 0 {
		t.Errorf("report = %+v, want empty", report)
	}
}

func TestCheckVersionBumpsFailures(t *testing.T) {
	base, head := versionTrees(t)
	pkg := func(rel string) string { return filepath.Join(head, filepath.FromSlash(rel)) }

	// Content change without touching the manifest.
	editFile(t, pkg("components/button/prompt.md"), "", "\nMore detail.\n")
	// Manifest touched, version kept.
	editFile(t, pkg("components/card/README.md"), "", "\nUsage notes.\n")
	editFile(t, pkg("components/card/bloktastic.json"), `"version": "1.1.0"`, `"version": "1.1.0", "category": "content"`)
	// Version lowered.
	editFile(t, pkg("components/hero-slider/schema.json"), "", "\n")
	editFile(t, pkg("components/hero-slider/bloktastic.json"), `"version": "1.2.0"`, `"version": "1.1.9"`)
	// Not MAJOR.MINOR.PATCH.
	editFile(t, pkg("presets/landing-kit/README.md"), "", "\nKit.\n")
	editFile(t, pkg("presets/landing-kit/bloktastic.json"), `"version": "1.0.0"`, `"version": "1.1.0-beta.1"`)
	// Proper bump.
	editFile(t, pkg("plugins/hero-tool/README.md"), "", "\nChangelog.\n")
	editFile(t, pkg("plugins/hero-tool/bloktastic.json"), `"version": "0.3.0"`, `"version": "0.10.0"`)
	// New package is not checked.
	if err := os.CopyFS(pkg("components/extra"), os.DirFS(pkg("components/button"))); err != nil {
		t.Fatal(err)
	}

	report, err := CheckVersionBumps(os.DirFS(base), os.DirFS(head))
	if err != nil {
		t.Fatalf("CheckVersionBumps() error: %v", err)
	}

	var got []string
	for _, f := range report.Failures {
		got = append(got, f.String())
	}
	want := []string{
		"components/button: changed prompt.md but did not update bloktastic.json",
		"components/card: changed README.md but version stayed at 1.1.0",
		"components/hero-slider: version must increase (1.2.0 -> 1.1.9)",
		"presets/landing-kit: invalid semver transition (1.0.0 -> 1.1.0-beta.1)",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("failures:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}

	wantChanged := "components/button,components/card,components/extra,components/hero-slider,plugins/hero-tool,presets/landing-kit"
	if strings.Join(report.Changed, ",") != wantChanged {
		t.Errorf("Changed = %v", report.Changed)
	}
}

func TestCheckVersionBumpsIgnoresManifestOnlyAndRemovedPackages(t *testing.T) {
	base, head := versionTrees(t)
	editFile(t, filepath.Join(head, "components", "card", ManifestFile), `"version": "1.1.0"`, `"version": "1.1.0", "category": "content"`)
	if err := os.RemoveAll(filepath.Join(head, "components", "button")); err != nil {
		t.Fatal(err)
	}

	report, err := CheckVersionBumps(os.DirFS(base), os.DirFS(head))
	if err != nil {
		t.Fatalf("CheckVersionBumps() error: %v", err)
	}
	if len(report.Failures) != 0 {
		t.Errorf("Failures = %v, want none", report.Failures)
	}
}

func TestExtractTarRejectsEscapingPaths(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	content := []byte("{}")
	tw.WriteHeader(&tar.Header{Name: "registry/components/a/bloktastic.json", Typeflag: tar.TypeReg, Mode: 0644, Size: int64(len(content))})
	tw.Write(content)
	tw.WriteHeader(&tar.Header{Name: "../evil", Typeflag: tar.TypeReg, Mode: 0644, Size: int64(len(content))})
	tw.Write(content)
	tw.Close()

	dest := t.TempDir()
	if err := extractTar(&buf, dest); err == nil {
		t.Fatal("extractTar() should reject ../evil")
	}
	if _, err := os.Stat(filepath.Join(dest, "registry", "components", "a", ManifestFile)); err != nil {
		t.Errorf("regular entry not extracted: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dest), "evil")); err == nil {
		t.Error("escaping entry was written outside dest")
	}
}

func TestSnapshotRevision(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	repo := t.TempDir()
	git := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", repo,
			"-c", "user.name=Test", "-c", "user.email=test@example.com", "-c", "commit.gpgsign=false"}, args...)...)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}

	if err := os.CopyFS(filepath.Join(repo, "registry"), os.DirFS(testdataDir)); err != nil {
		t.Fatal(err)
	}
	git("init", "-q")
	git("add", ".")
	git("commit", "-q", "-m", "registry")

	dir, cleanup, err := SnapshotRevision(context.Background(), repo, "HEAD", "registry")
	if err != nil {
		t.Fatalf("SnapshotRevision() error: %v", err)
	}
	defer cleanup()

	report, err := CheckVersionBumps(os.DirFS(dir), os.DirFS(filepath.Join(repo, "registry")))
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Changed) != 0 {
		t.Errorf("snapshot differs from the working tree: %v", report.Changed)
	}

	if _, _, err := SnapshotRevision(context.Background(), repo, "no-such-rev", "registry"); err == nil {
		t.Error("unknown revision should fail")
	}
}
