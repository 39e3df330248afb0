package server

import (
	"context"
	"errors"
	"html/template"
	"log"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"

	"quickshare/internal/auth"
	"quickshare/internal/config"
	"quickshare/internal/qr"
)

const (
	reservedPrefix = "/.quickshare"
	thumbPrefix    = reservedPrefix + "/thumb"
	davPrefix      = reservedPrefix + "/dav"
	qrPath         = reservedPrefix + "/qr.png"

	shutdownTimeout = 5 * time.Second
)

// Options configures a Server. Zero values disable the optional features.
type Options struct {
	Root ShareRoot

	// TypeGuesser overrides content type detection, GuessType by default.
	TypeGuesser TypeGuesser

	FollowSymlinks bool
	Thumbnails     bool
	Readme         bool
	WebDAV         bool

	Auth config.Auth

	// ThumbCacheDir keeps rendered thumbnails across requests; empty renders
	// every time.
	ThumbCacheDir string

	// AccessURL, when set, is served as a QR code PNG.
	AccessURL string
}

type Server struct {
	engine   *gin.Engine
	opts     Options
	resolver *Resolver
	listing  *template.Template
	markdown goldmark.Markdown
	compress func(http.Handler) http.HandlerFunc
	thumbs   *thumbnailer
	qrPNG    []byte
}

func New(opts Options) (*Server, error) {
	listing, err := newListingTemplate()
	if err != nil {
		return nil, err
	}

	compress, err := newCompressor()
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.LoggerWithConfig(gin.LoggerConfig{SkipPaths: []string{"/favicon.ico", qrPath}}))
	engine.Use(secureHeaders)
	engine.Use(auth.BasicAuth(opts.Auth))

	srv := &Server{
		engine:   engine,
		opts:     opts,
		resolver: NewResolver(opts.Root, opts.TypeGuesser, opts.FollowSymlinks),
		listing:  listing,
		markdown: newMarkdown(),
		compress: compress,
	}

	// Reserved routes only exist for directory shares; a single file share
	// answers every path with that file.
	if !opts.Root.SingleFile {
		if opts.AccessURL != "" {
			png, err := qr.PNG(opts.AccessURL, 256)
			if err != nil {
				return nil, err
			}

			srv.qrPNG = png
			engine.GET(qrPath, srv.reserved(srv.handleQR))
		}

		if opts.Thumbnails {
			srv.thumbs = newThumbnailer(opts.ThumbCacheDir)
			engine.GET(thumbPrefix+"/*path", srv.reserved(srv.handleThumb))
		}

		if opts.WebDAV {
			srv.mountWebDAV()
		}
	}

	engine.GET("/", srv.handleShare)
	engine.NoRoute(srv.handleShare)

	return srv, nil
}

// reserved lets a real entry under /.quickshare in the share win over the
// built-in route registered at the same path.
func (s *Server) reserved(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, _, err := s.resolver.locate(c.Request.URL.Path); err == nil {
			s.handleShare(c)
			return
		}

		h(c)
	}
}

// Handler exposes the engine, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
		log.Printf("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return httpServer.Shutdown(shutdownCtx)
	}
}

// AccessURL is the address printed and encoded in the QR code. Single file
// shares link straight to the file name.
func AccessURL(root ShareRoot, host string, port int) string {
	u := url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
	}

	if root.SingleFile {
		u.Path = "/" + filepath.Base(root.Path)
	}

	return u.String()
}

func secureHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Referrer-Policy", "no-referrer")
	c.Next()
}
