package server

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DirectoryEntry is one child of a listed directory.
type DirectoryEntry struct {
	Name         string    `json:"name"`
	RelativePath string    `json:"path"`
	IsDir        bool      `json:"isDir"`
	Size         int64     `json:"size,omitempty"`
	ContentType  string    `json:"contentType,omitempty"`
	CanPreview   bool      `json:"canPreview,omitempty"`
	ModTime      time.Time `json:"modTime"`
}

// Listing is the payload for a directory request.
type Listing struct {
	Label      string           `json:"label"`
	ParentPath *string          `json:"parentPath"`
	Dirs       []DirectoryEntry `json:"dirs"`
	Files      []DirectoryEntry `json:"files"`
	Path       string           `json:"path"`

	dir string
}

// readDir is swapped out in tests to simulate unreadable directories.
var readDir = os.ReadDir

func (r *Resolver) list(absDir, rel string) (*Listing, error) {
	dirEntries, err := readDir(absDir)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrPermission):
			return nil, errForbidden
		case errors.Is(err, fs.ErrNotExist):
			return nil, errNotFound
		}

		return nil, err
	}

	listing := &Listing{
		Label:      r.label(absDir),
		ParentPath: parentOf(rel),
		Dirs:       []DirectoryEntry{},
		Files:      []DirectoryEntry{},
		Path:       rel,
		dir:        absDir,
	}

	for _, entry := range dirEntries {
		absPath := filepath.Join(absDir, entry.Name())
		if !r.confined(absPath) {
			continue
		}

		// Stat follows symlinks so a link to a directory lists as one.
		info, err := os.Stat(absPath)
		if err != nil {
			log.Printf("skipping %s: %v", absPath, err)
			continue
		}

		if info.IsDir() {
			listing.Dirs = append(listing.Dirs, DirectoryEntry{
				Name:         entry.Name(),
				RelativePath: joinRel(rel, entry.Name()),
				IsDir:        true,
				ModTime:      info.ModTime(),
			})

			continue
		}

		if !info.Mode().IsRegular() {
			continue
		}

		contentType := r.contentType(entry.Name())
		listing.Files = append(listing.Files, DirectoryEntry{
			Name:         entry.Name(),
			RelativePath: joinRel(rel, entry.Name()),
			Size:         info.Size(),
			ContentType:  contentType,
			CanPreview:   CanPreview(contentType),
			ModTime:      info.ModTime(),
		})
	}

	sortEntries(listing.Dirs)
	sortEntries(listing.Files)

	return listing, nil
}

func sortEntries(entries []DirectoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		left := strings.ToLower(entries[i].Name)
		right := strings.ToLower(entries[j].Name)
		if left != right {
			return left < right
		}

		return entries[i].Name < entries[j].Name
	})
}

// label names the listed directory, falling back to the share root's name
// and then to "Root" when both are a filesystem root.
func (r *Resolver) label(absDir string) string {
	for _, p := range []string{absDir, r.root.Path} {
		name := filepath.Base(p)
		if name != "" && name != "." && name != string(filepath.Separator) {
			return name
		}
	}

	return "Root"
}

func parentOf(rel string) *string {
	if rel == "" {
		return nil
	}

	parent := path.Dir(rel)
	if parent == "." {
		parent = ""
	}

	return &parent
}

func joinRel(parent, name string) string {
	if parent == "" {
		return name
	}

	return parent + "/" + name
}
