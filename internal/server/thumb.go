package server

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	// decoders
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	thumbSize = 256

	// maxThumbPixels bounds the decoded source image (about 200 MB as RGBA).
	maxThumbPixels = 50_000_000
)

var errImageTooLarge = errors.New("image too large to thumbnail")

func isThumbable(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff":
		return true
	default:
		return false
	}
}

// thumbnailer renders JPEG thumbnails and keeps them in dir, keyed by source
// path, size and mtime so an edited image gets a fresh thumbnail. An empty dir
// disables the cache.
type thumbnailer struct {
	dir       string
	size      int
	maxPixels int
}

func newThumbnailer(dir string) *thumbnailer {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Printf("thumbnail cache disabled: %v", err)
			dir = ""
		}
	}

	return &thumbnailer{dir: dir, size: thumbSize, maxPixels: maxThumbPixels}
}

func (t *thumbnailer) get(absPath string, info fs.FileInfo) ([]byte, error) {
	var cached string
	if t.dir != "" {
		cached = filepath.Join(t.dir, thumbKey(absPath, info)+".jpg")
		if b, err := os.ReadFile(cached); err == nil {
			return b, nil
		}
	}

	b, err := t.render(absPath)
	if err != nil {
		return nil, err
	}

	if cached != "" {
		if err := writeFileAtomic(cached, b); err != nil {
			log.Printf("thumbnail cache %s: %v", cached, err)
		}
	}

	return b, nil
}

func (t *thumbnailer) render(absPath string) ([]byte, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, os.ErrInvalid
	}
	if cfg.Width*cfg.Height > t.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", errImageTooLarge, cfg.Width, cfg.Height)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	nw, nh := fitWithin(b.Dx(), b.Dy(), t.size)

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 82}); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// fitWithin scales w x h down so the longest side is at most limit, never
// below 1px and never up.
func fitWithin(w, h, limit int) (int, int) {
	longest := w
	if h > longest {
		longest = h
	}

	if longest <= limit {
		return w, h
	}

	nw := w * limit / longest
	nh := h * limit / longest

	return max(nw, 1), max(nh, 1)
}

func thumbKey(absPath string, info fs.FileInfo) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", absPath, info.Size(), info.ModTime().UnixNano())))
	return hex.EncodeToString(sum[:])
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".thumb-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}
