package server

import (
	"fmt"
	"html/template"
	"net/url"
	"path/filepath"
	"strings"
)

const listingTemplate = `<!DOCTYPE html>
<html>
  <head>
    <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style>
      body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Arial, sans-serif; max-width: 860px; margin: 0 auto; padding: 16px; }
      ul { list-style: none; padding: 0; }
      li { display: flex; align-items: center; gap: 12px; padding: 8px 4px; border-bottom: 1px solid #eee; }
      li .name { flex: 1; word-break: break-all; }
      li .meta { color: #777; font-size: 0.85em; white-space: nowrap; }
      li img { width: 48px; height: 48px; object-fit: cover; }
      .readme { margin-top: 24px; padding-top: 8px; border-top: 2px solid #ddd; }
    </style>
  </head>
  <body>
    <h3>{{.Title}}</h3>
    <p class="meta">{{.PathLabel}}</p>
    <ul>
      {{if .HasParent}}
        <li><a class="name" href="{{.ParentHref}}">..</a></li>
      {{end}}
      {{range .Dirs}}
        <li type="circle">
          <a class="name" href="{{.Href}}">{{.Name}}/</a>
        </li>
      {{end}}
      {{range .Files}}
        <li>
          {{if .ThumbHref}}<img src="{{.ThumbHref}}" alt="" loading="lazy">{{end}}
          {{if .CanPreview}}
            <a class="name" href="{{.Href}}" target="_blank">{{.Name}}</a>
          {{else}}
            <span class="name">{{.Name}}</span>
          {{end}}
          <span class="meta">{{.Size}}</span>
          <a class="meta" href="{{.DownloadHref}}">download</a>
        </li>
      {{end}}
    </ul>
    {{if .Empty}}<p class="meta">This folder is empty.</p>{{end}}
    {{if .Readme}}<div class="readme">{{.Readme}}</div>{{end}}
  </body>
</html>`

type listingPageData struct {
	Title      string
	PathLabel  string
	HasParent  bool
	ParentHref string
	Dirs       []entryView
	Files      []entryView
	Empty      bool
	Readme     template.HTML
}

type entryView struct {
	Name         string
	Href         string
	DownloadHref string
	ThumbHref    string
	Size         string
	CanPreview   bool
}

func newListingTemplate() (*template.Template, error) {
	return template.New("listing").Parse(listingTemplate)
}

func (s *Server) buildPageData(listing *Listing) listingPageData {
	data := listingPageData{
		Title:     listing.Label,
		PathLabel: "/" + listing.Path,
		Dirs:      make([]entryView, 0, len(listing.Dirs)),
		Files:     make([]entryView, 0, len(listing.Files)),
		Empty:     len(listing.Dirs) == 0 && len(listing.Files) == 0,
	}

	if listing.ParentPath != nil {
		data.HasParent = true
		data.ParentHref = buildDirHref(*listing.ParentPath)
	}

	for _, entry := range listing.Dirs {
		data.Dirs = append(data.Dirs, entryView{
			Name: entry.Name,
			Href: buildDirHref(entry.RelativePath),
		})
	}

	for _, entry := range listing.Files {
		view := entryView{
			Name:         entry.Name,
			Href:         buildFileHref(entry.RelativePath),
			DownloadHref: buildFileHref(entry.RelativePath) + "?download=true",
			Size:         humanSize(entry.Size),
			CanPreview:   entry.CanPreview,
		}

		if s.opts.Thumbnails && isThumbable(entry.Name) {
			view.ThumbHref = thumbPrefix + buildFileHref(entry.RelativePath)
		}

		data.Files = append(data.Files, view)
	}

	if s.opts.Readme {
		data.Readme = s.findReadme(listing)
	}

	return data
}

func buildFileHref(relative string) string {
	clean := strings.Trim(filepath.ToSlash(relative), "/")
	if clean == "" {
		return "/"
	}

	parts := strings.Split(clean, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}

	return "/" + strings.Join(parts, "/")
}

func buildDirHref(relative string) string {
	href := buildFileHref(relative)
	if href == "/" {
		return href
	}

	return href + "/"
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
