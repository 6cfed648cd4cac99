package registry

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/bloktastic/bloktastic/internal/errs"
	"github.com/bloktastic/bloktastic/internal/filemanager"
)

// VersionFailure is a package whose content changed without a valid
// version increase.
type VersionFailure struct {
	Dir     string
	Message string
}

func (f VersionFailure) String() string {
	return f.Dir + ": " + f.Message
}

// VersionReport is the outcome of CheckVersionBumps.
type VersionReport struct {
	// Changed lists package directories with changed files, manifests included.
	Changed  []string
	Failures []VersionFailure
}

// CheckVersionBumps compares the package directories of two registry trees.
// A package whose files other than bloktastic.json differ must raise its
// MAJOR.MINOR.PATCH version. Packages added or removed in head are not
// checked.
func CheckVersionBumps(base, head fs.FS) (*VersionReport, error) {
	report := &VersionReport{}
	for _, kind := range Kinds {
		baseDirs, err := packageDirs(base, kind)
		if err != nil {
			return nil, err
		}
		headDirs, err := packageDirs(head, kind)
		if err != nil {
			return nil, err
		}

		dirs := slices.Concat(baseDirs, headDirs)
		slices.Sort(dirs)
		for _, dir := range slices.Compact(dirs) {
			if err := checkPackageVersion(base, head, dir, report); err != nil {
				return nil, err
			}
		}
	}
	return report, nil
}

func checkPackageVersion(base, head fs.FS, dir string, report *VersionReport) error {
	baseFiles, err := fileDigests(base, dir)
	if err != nil {
		return err
	}
	headFiles, err := fileDigests(head, dir)
	if err != nil {
		return err
	}

	var changed []string
	manifestChanged := false
	for name := range joinKeys(baseFiles, headFiles) {
		if baseFiles[name] == headFiles[name] {
			continue
		}
		if name == ManifestFile {
			manifestChanged = true
		} else {
			changed = append(changed, name)
		}
	}
	if len(changed) > 0 || manifestChanged {
		report.Changed = append(report.Changed, dir)
	}
	if len(changed) == 0 {
		return nil
	}
	slices.Sort(changed)
	files := strings.Join(changed, ", ")

	if _, ok := headFiles[ManifestFile]; !ok {
		return nil
	}
	fail := func(format string, args ...any) {
		report.Failures = append(report.Failures, VersionFailure{Dir: dir, Message: fmt.Sprintf(format, args...)})
	}
	if !manifestChanged {
		fail("changed %s but did not update %s", files, ManifestFile)
		return nil
	}
	if _, ok := baseFiles[ManifestFile]; !ok {
		return nil
	}

	baseVersion, err := manifestVersion(base, dir)
	if err == nil {
		var headVersion string
		headVersion, err = manifestVersion(head, dir)
		if err == nil {
			compareVersions(baseVersion, headVersion, files, fail)
			return nil
		}
	}
	fail("unable to read manifest for version comparison (%v)", err)
	return nil
}

func compareVersions(baseVersion, headVersion, files string, fail func(string, ...any)) {
	if baseVersion == headVersion {
		fail("changed %s but version stayed at %s", files, baseVersion)
		return
	}
	b, bok := strictSemver(baseVersion)
	h, hok := strictSemver(headVersion)
	if !bok || !hok {
		fail("invalid semver transition (%s -> %s)", baseVersion, headVersion)
		return
	}
	if semver.Compare(h, b) <= 0 {
		fail("version must increase (%s -> %s)", baseVersion, headVersion)
	}
}

// strictSemver accepts MAJOR.MINOR.PATCH only, without pre-release or build
// suffixes.
func strictSemver(v string) (string, bool) {
	c := semver.Canonical("v" + v)
	return c, c == "v"+v && semver.Prerelease(c) == ""
}

func manifestVersion(fsys fs.FS, dir string) (string, error) {
	raw, err := fs.ReadFile(fsys, path.Join(dir, ManifestFile))
	if err != nil {
		return "", err
	}
	var doc struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", err
	}
	return doc.Version, nil
}

// fileDigests hashes every file below dir by its path relative to dir. A
// missing dir has no files.
func fileDigests(fsys fs.FS, dir string) (map[string]string, error) {
	digests := make(map[string]string)
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		digests[strings.TrimPrefix(p, dir+"/")] = filemanager.HashBytes(raw)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	return digests, nil
}

func joinKeys(a, b map[string]string) map[string]struct{} {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	return keys
}

// SnapshotRevision extracts dir as of a git revision of the repository at
// repoDir into a temporary directory. It returns the extracted dir and a
// cleanup func that removes the snapshot.
func SnapshotRevision(ctx context.Context, repoDir, rev, dir string) (string, func(), error) {
	tmp, err := os.MkdirTemp("", "bloktastic-rev-")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(tmp) }

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", "-C", repoDir, "archive", "--format=tar", rev, "--", dir)
	cmd.Stderr = &stderr
	out, err := cmd.StdoutPipe()
	if err != nil {
		cleanup()
		return "", nil, err
	}
	if err := cmd.Start(); err != nil {
		cleanup()
		return "", nil, errs.Wrap(fmt.Errorf("running git: %w", err), errs.KindLoadFailure, "install git or pass registry directories instead of revisions")
	}

	extractErr := extractTar(out, tmp)
	if extractErr != nil {
		io.Copy(io.Discard, out)
	}
	if err := cmd.Wait(); err != nil {
		cleanup()
		return "", nil, errs.Wrap(fmt.Errorf("git archive %s: %s", rev, strings.TrimSpace(stderr.String())),
			errs.KindLoadFailure, "pass a registry directory or a revision of the repository at --dir")
	}
	if extractErr != nil {
		cleanup()
		return "", nil, fmt.Errorf("extracting %s: %w", rev, extractErr)
	}
	return filepath.Join(tmp, filepath.FromSlash(dir)), cleanup, nil
}

// extractTar writes the directories and regular files of a tar stream below
// dest. Other entry types are ignored.
func extractTar(r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			target, err := filemanager.SafeJoin(dest, hdr.Name)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			target, err := filemanager.SafeJoin(dest, hdr.Name)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := writeEntry(target, tr); err != nil {
				return err
			}
		}
	}
}

func writeEntry(target string, r io.Reader) error {
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
