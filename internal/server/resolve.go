package server

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"time"
)

var ErrShareNotExist = errors.New("share path does not exist")

// ShareRoot is the file or directory being shared. It is fixed at startup.
type ShareRoot struct {
	Path       string
	SingleFile bool
}

// NewShareRoot makes path absolute and records whether it is a single file.
func NewShareRoot(path string) (ShareRoot, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ShareRoot{}, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ShareRoot{}, fmt.Errorf("%w: %s", ErrShareNotExist, abs)
		}

		return ShareRoot{}, err
	}

	if !info.IsDir() && !info.Mode().IsRegular() {
		return ShareRoot{}, fmt.Errorf("share path is neither a file nor a directory: %s", abs)
	}

	return ShareRoot{Path: abs, SingleFile: info.Mode().IsRegular()}, nil
}

type Disposition int

const (
	Inline Disposition = iota
	Attachment
)

func (d Disposition) String() string {
	if d == Attachment {
		return "attachment"
	}

	return "inline"
}

// FileTransfer describes a file to stream back.
type FileTransfer struct {
	Path        string
	Name        string
	ContentType string
	Size        int64
	ModTime     time.Time
	Disposition Disposition
}

func (f *FileTransfer) contentDisposition() string {
	if v := mime.FormatMediaType(f.Disposition.String(), map[string]string{"filename": f.Name}); v != "" {
		return v
	}

	return f.Disposition.String()
}

// Outcome is either a file transfer or a directory listing.
type Outcome struct {
	File    *FileTransfer
	Listing *Listing
}

// Resolver maps request paths inside a ShareRoot to outcomes. It holds no
// mutable state and is safe for concurrent use.
type Resolver struct {
	root           ShareRoot
	realRoot       string
	guess          TypeGuesser
	followSymlinks bool
}

func NewResolver(root ShareRoot, guess TypeGuesser, followSymlinks bool) *Resolver {
	if guess == nil {
		guess = GuessType
	}

	realRoot, err := filepath.EvalSymlinks(root.Path)
	if err != nil {
		realRoot = root.Path
	}

	return &Resolver{
		root:           root,
		realRoot:       realRoot,
		guess:          guess,
		followSymlinks: followSymlinks,
	}
}

// Resolve answers a request for requestPath. download forces an attachment
// for previewable files. Errors are errNotFound or errForbidden.
func (r *Resolver) Resolve(requestPath string, download bool) (*Outcome, error) {
	if r.root.SingleFile {
		info, err := os.Stat(r.root.Path)
		if err != nil || !info.Mode().IsRegular() {
			return nil, errNotFound
		}

		return &Outcome{File: r.transfer(r.root.Path, info, true)}, nil
	}

	abs, rel, info, err := r.locate(requestPath)
	if err != nil {
		return nil, err
	}

	switch {
	case info.Mode().IsRegular():
		return &Outcome{File: r.transfer(abs, info, download)}, nil
	case info.IsDir():
		listing, err := r.list(abs, rel)
		if err != nil {
			return nil, err
		}

		return &Outcome{Listing: listing}, nil
	}

	return nil, errNotFound
}

func (r *Resolver) transfer(abs string, info fs.FileInfo, forceAttachment bool) *FileTransfer {
	contentType := r.contentType(info.Name())

	disposition := Inline
	if forceAttachment || !CanPreview(contentType) {
		disposition = Attachment
	}

	return &FileTransfer{
		Path:        abs,
		Name:        info.Name(),
		ContentType: contentType,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		Disposition: disposition,
	}
}

func (r *Resolver) contentType(name string) string {
	if ct := r.guess(name); ct != "" {
		return ct
	}

	return defaultContentType
}
