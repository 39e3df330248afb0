package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// handleShare serves every path of the share: a file, a directory listing or
// the single shared file.
func (s *Server) handleShare(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.Header("Allow", "GET, HEAD")
		s.respondError(c, errMethodNotAllowed)
		return
	}

	requested := strings.TrimPrefix(c.Request.URL.Path, "/")

	outcome, err := s.resolver.Resolve(requested, wantsDownload(c))
	if err != nil {
		s.respondError(c, err)
		return
	}

	if outcome.File != nil {
		s.sendFile(c, outcome.File)
		return
	}

	s.renderListing(c, outcome.Listing)
}

func wantsDownload(c *gin.Context) bool {
	return strings.EqualFold(strings.TrimSpace(c.DefaultQuery("download", "false")), "true")
}

func (s *Server) sendFile(c *gin.Context, file *FileTransfer) {
	f, err := os.Open(file.Path)
	if err != nil {
		log.Printf("open %s: %v", file.Path, err)
		s.respondError(c, errNotFound)
		return
	}
	defer f.Close()

	c.Header("Content-Type", file.ContentType)
	c.Header("Content-Disposition", file.contentDisposition())
	http.ServeContent(c.Writer, c.Request, file.Name, file.ModTime, f)
}

func (s *Server) renderListing(c *gin.Context, listing *Listing) {
	format := c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON)
	if strings.EqualFold(c.Query("format"), "json") {
		format = gin.MIMEJSON
	}

	var body bytes.Buffer

	if format == gin.MIMEJSON {
		if err := json.NewEncoder(&body).Encode(listing); err != nil {
			s.respondError(c, err)
			return
		}

		s.writeCompressed(c, "application/json; charset=utf-8", body.Bytes())
		return
	}

	if err := s.listing.Execute(&body, s.buildPageData(listing)); err != nil {
		s.respondError(c, err)
		return
	}

	s.writeCompressed(c, "text/html; charset=utf-8", body.Bytes())
}

func (s *Server) handleThumb(c *gin.Context) {
	abs, _, info, err := s.resolver.locate(c.Param("path"))
	if err != nil || !info.Mode().IsRegular() || !isThumbable(info.Name()) {
		s.respondError(c, errNotFound)
		return
	}

	thumb, err := s.thumbs.get(abs, info)
	if err != nil {
		log.Printf("thumbnail %s: %v", abs, err)
		s.respondError(c, errNotFound)
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/jpeg", thumb)
}

func (s *Server) handleQR(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", s.qrPNG)
}

func (s *Server) respondError(c *gin.Context, err error) {
	if err == nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	var httpErr *httpError
	if errors.As(err, &httpErr) {
		if httpErr.Status >= http.StatusInternalServerError {
			log.Printf("server error: %v", err)
		}

		c.String(httpErr.Status, httpErr.Message)
		return
	}

	log.Printf("unexpected error: %v", err)
	c.String(http.StatusInternalServerError, "internal server error")
}
