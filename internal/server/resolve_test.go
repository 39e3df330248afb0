package server

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func mkfile(t *testing.T, path, body string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func mkdir(t *testing.T, path string) {
	t.Helper()

	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
}

// newTree builds a small share:
//
//	share/
//	  Alpha/  docs/guide.txt  zeta/
//	  Apple.txt  archive.zip  README.md
//	share2/secret.txt
func newTree(t *testing.T) (string, ShareRoot) {
	t.Helper()

	base := t.TempDir()
	share := filepath.Join(base, "share")

	mkdir(t, filepath.Join(share, "Alpha"))
	mkdir(t, filepath.Join(share, "zeta"))
	mkfile(t, filepath.Join(share, "docs", "guide.txt"), "guide")
	mkfile(t, filepath.Join(share, "Apple.txt"), "apple")
	mkfile(t, filepath.Join(share, "archive.zip"), "PK")
	mkfile(t, filepath.Join(share, "README.md"), "# Hello\n\nshared files")
	mkfile(t, filepath.Join(base, "share2", "secret.txt"), "secret")

	root, err := NewShareRoot(share)
	if err != nil {
		t.Fatalf("share root: %v", err)
	}

	return base, root
}

func names(entries []DirectoryEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}

	return out
}

func TestNewShareRoot(t *testing.T) {
	_, root := newTree(t)
	if root.SingleFile {
		t.Error("expected directory share")
	}
	if !filepath.IsAbs(root.Path) {
		t.Errorf("expected absolute path, got %s", root.Path)
	}

	file, err := NewShareRoot(filepath.Join(root.Path, "Apple.txt"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !file.SingleFile {
		t.Error("expected single file share")
	}

	_, err = NewShareRoot(filepath.Join(root.Path, "missing"))
	if !errors.Is(err, ErrShareNotExist) {
		t.Errorf("expected ErrShareNotExist, got %v", err)
	}
}

func TestResolveListing(t *testing.T) {
	_, root := newTree(t)
	r := NewResolver(root, nil, true)

	outcome, err := r.Resolve("", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Listing == nil {
		t.Fatal("expected a listing")
	}

	listing := outcome.Listing
	if got, want := names(listing.Dirs), []string{"Alpha", "docs", "zeta"}; !reflect.DeepEqual(got, want) {
		t.Errorf("dirs: expected %v, got %v", want, got)
	}
	if got, want := names(listing.Files), []string{"Apple.txt", "archive.zip", "README.md"}; !reflect.DeepEqual(got, want) {
		t.Errorf("files: expected %v, got %v", want, got)
	}
	if listing.ParentPath != nil {
		t.Errorf("expected no parent at root, got %q", *listing.ParentPath)
	}
	if listing.Label != "share" {
		t.Errorf("expected label share, got %q", listing.Label)
	}

	for _, d := range listing.Dirs {
		if !d.IsDir || d.RelativePath != d.Name {
			t.Errorf("unexpected dir entry %+v", d)
		}
	}

	apple := listing.Files[0]
	if apple.Size != 5 || !apple.CanPreview || apple.RelativePath != "Apple.txt" {
		t.Errorf("unexpected file entry %+v", apple)
	}
	if listing.Files[1].CanPreview {
		t.Error("expected zip not to be previewable")
	}
}

func TestResolveSubdirectory(t *testing.T) {
	_, root := newTree(t)
	r := NewResolver(root, nil, true)

	outcome, err := r.Resolve("docs/", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	listing := outcome.Listing
	if listing.Label != "docs" || listing.Path != "docs" {
		t.Errorf("unexpected label/path %q %q", listing.Label, listing.Path)
	}
	if listing.ParentPath == nil || *listing.ParentPath != "" {
		t.Errorf("expected empty parent path, got %v", listing.ParentPath)
	}
	if len(listing.Files) != 1 || listing.Files[0].RelativePath != "docs/guide.txt" {
		t.Errorf("unexpected files %+v", listing.Files)
	}
}

func TestResolveEmptyDirectory(t *testing.T) {
	_, root := newTree(t)
	r := NewResolver(root, nil, true)

	outcome, err := r.Resolve("zeta", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Listing.Dirs == nil || outcome.Listing.Files == nil {
		t.Fatal("expected empty, non-nil groups")
	}
	if len(outcome.Listing.Dirs) != 0 || len(outcome.Listing.Files) != 0 {
		t.Errorf("expected empty listing, got %+v", outcome.Listing)
	}
}

func TestResolveFileDisposition(t *testing.T) {
	_, root := newTree(t)
	r := NewResolver(root, nil, true)

	tests := []struct {
		path     string
		download bool
		want     Disposition
	}{
		{"Apple.txt", false, Inline},
		{"Apple.txt", true, Attachment},
		{"archive.zip", false, Attachment},
		{"docs/guide.txt", false, Inline},
	}

	for _, tt := range tests {
		outcome, err := r.Resolve(tt.path, tt.download)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.path, err)
		}
		if outcome.File == nil {
			t.Fatalf("%s: expected a file", tt.path)
		}
		if outcome.File.Disposition != tt.want {
			t.Errorf("%s download=%v: expected %s, got %s", tt.path, tt.download, tt.want, outcome.File.Disposition)
		}
	}
}

func TestResolveInjectedGuesser(t *testing.T) {
	_, root := newTree(t)

	r := NewResolver(root, func(name string) string {
		if name == "archive.zip" {
			return "text/plain"
		}
		return ""
	}, true)

	outcome, err := r.Resolve("archive.zip", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.File.Disposition != Inline || outcome.File.ContentType != "text/plain" {
		t.Errorf("expected guesser result to be used, got %+v", outcome.File)
	}

	outcome, err = r.Resolve("Apple.txt", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.File.ContentType != defaultContentType || outcome.File.Disposition != Attachment {
		t.Errorf("expected octet-stream attachment fallback, got %+v", outcome.File)
	}
}

func TestResolveNotFound(t *testing.T) {
	_, root := newTree(t)
	r := NewResolver(root, nil, true)

	for _, p := range []string{
		"missing.txt",
		"../../etc/passwd",
		"../share2/secret.txt",
		"docs/../../share2/secret.txt",
		"..",
	} {
		outcome, err := r.Resolve(p, false)
		if !errors.Is(err, errNotFound) {
			t.Errorf("%q: expected not found, got %v %+v", p, err, outcome)
		}
	}
}

func TestResolveSingleFile(t *testing.T) {
	_, dir := newTree(t)

	root, err := NewShareRoot(filepath.Join(dir.Path, "Apple.txt"))
	if err != nil {
		t.Fatalf("share root: %v", err)
	}
	r := NewResolver(root, nil, true)

	for _, p := range []string{"", "Apple.txt", "any/other/path", "../../etc/passwd"} {
		outcome, err := r.Resolve(p, false)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", p, err)
		}
		if outcome.File == nil || outcome.File.Path != root.Path {
			t.Fatalf("%q: expected the shared file, got %+v", p, outcome)
		}
		if outcome.File.Disposition != Attachment {
			t.Errorf("%q: expected attachment, got %s", p, outcome.File.Disposition)
		}
	}
}

func TestResolveForbidden(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	_, root := newTree(t)
	locked := filepath.Join(root.Path, "Alpha")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	defer os.Chmod(locked, 0o755)

	r := NewResolver(root, nil, true)

	_, err := r.Resolve("Alpha", false)
	if !errors.Is(err, errForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestResolveSymlinks(t *testing.T) {
	base, root := newTree(t)

	link := filepath.Join(root.Path, "escape.txt")
	if err := os.Symlink(filepath.Join(base, "share2", "secret.txt"), link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(root.Path, "docs"), filepath.Join(root.Path, "docs-link")); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	if err := os.Symlink(filepath.Join(base, "nowhere"), filepath.Join(root.Path, "broken")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	following := NewResolver(root, nil, true)
	if _, err := following.Resolve("escape.txt", false); err != nil {
		t.Errorf("expected symlink to be followed, got %v", err)
	}

	confined := NewResolver(root, nil, false)
	if _, err := confined.Resolve("escape.txt", false); !errors.Is(err, errNotFound) {
		t.Errorf("expected escaping symlink to be rejected, got %v", err)
	}
	if _, err := confined.Resolve("docs-link/guide.txt", false); err != nil {
		t.Errorf("expected in-share symlink to resolve, got %v", err)
	}
	if _, err := confined.Resolve("broken", false); !errors.Is(err, errNotFound) {
		t.Errorf("expected broken symlink to be not found, got %v", err)
	}

	outcome, err := confined.Resolve("", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := names(outcome.Listing.Dirs), []string{"Alpha", "docs", "docs-link", "zeta"}; !reflect.DeepEqual(got, want) {
		t.Errorf("dirs: expected %v, got %v", want, got)
	}
	for _, f := range outcome.Listing.Files {
		if f.Name == "escape.txt" || f.Name == "broken" {
			t.Errorf("expected %s to be hidden", f.Name)
		}
	}
}

func TestLabel(t *testing.T) {
	r := NewResolver(ShareRoot{Path: string(filepath.Separator)}, nil, true)
	if got := r.label(string(filepath.Separator)); got != "Root" {
		t.Errorf("expected Root, got %q", got)
	}

	r = NewResolver(ShareRoot{Path: "/srv/media"}, nil, true)
	if got := r.label("/srv/media/films"); got != "films" {
		t.Errorf("expected films, got %q", got)
	}
}

func TestParentOf(t *testing.T) {
	if parentOf("") != nil {
		t.Error("expected nil parent for root")
	}

	tests := map[string]string{
		"docs":        "",
		"docs/guides": "docs",
		"a/b/c":       "a/b",
	}

	for in, want := range tests {
		got := parentOf(in)
		if got == nil || *got != want {
			t.Errorf("parentOf(%q): expected %q, got %v", in, want, got)
		}
	}
}
