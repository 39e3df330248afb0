package server

import (
	"bytes"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

const maxReadmeSize = 256 << 10

func newMarkdown() goldmark.Markdown {
	// Raw HTML in the source is dropped; the renderer is not in unsafe mode.
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
}

// findReadme renders the listed directory's README.md, if any.
func (s *Server) findReadme(listing *Listing) template.HTML {
	for _, entry := range listing.Files {
		if !strings.EqualFold(entry.Name, "readme.md") || entry.Size > maxReadmeSize {
			continue
		}

		out, err := s.renderReadme(filepath.Join(listing.dir, entry.Name))
		if err != nil {
			log.Printf("readme %s: %v", entry.RelativePath, err)
			return ""
		}

		return out
	}

	return ""
}

func (s *Server) renderReadme(absPath string) (template.HTML, error) {
	src, err := os.ReadFile(absPath)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := s.markdown.Convert(src, &buf); err != nil {
		return "", err
	}

	return template.HTML(buf.String()), nil
}
