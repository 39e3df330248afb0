package server

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// resolvePath maps a request path onto the share root. It returns the
// absolute candidate and its slash-separated path relative to the root, ""
// being the root itself.
func (r *Resolver) resolvePath(requestPath string) (string, string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(requestPath, "/")))
	if cleaned == "." {
		return r.root.Path, "", nil
	}

	candidate := filepath.Join(r.root.Path, cleaned)
	rel, ok := withinRoot(r.root.Path, candidate)
	if !ok {
		return "", "", errNotFound
	}

	return candidate, rel, nil
}

// withinRoot reports whether target lies inside root by comparing path
// components, so /share2 is never taken for a child of /share.
func withinRoot(root, target string) (string, bool) {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", false
	}

	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	if rel == "." {
		return "", true
	}

	return filepath.ToSlash(rel), true
}

// confined reports whether abs still resolves inside the share once symlinks
// are followed. It always holds when symlinks may leave the share.
func (r *Resolver) confined(abs string) bool {
	if r.followSymlinks {
		return true
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return false
	}

	_, ok := withinRoot(r.realRoot, resolved)

	return ok
}

// locate resolves requestPath and stats the result.
func (r *Resolver) locate(requestPath string) (string, string, fs.FileInfo, error) {
	abs, rel, err := r.resolvePath(requestPath)
	if err != nil {
		return "", "", nil, err
	}

	if !r.confined(abs) {
		return "", "", nil, errNotFound
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", "", nil, errNotFound
	}

	return abs, rel, info, nil
}
