package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/webdav"
)

// davReadMethods are the only methods routed to WebDAV; writes fall through
// to the share handler and get 405.
var davReadMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodOptions,
	"PROPFIND",
}

func (s *Server) mountWebDAV() {
	if !s.opts.FollowSymlinks {
		// webdav.Dir follows symlinks on its own.
		log.Printf("webdav disabled: followSymlinks is off")
		return
	}

	dav := &webdav.Handler{
		Prefix:     davPrefix,
		FileSystem: webdav.Dir(s.opts.Root.Path),
		LockSystem: webdav.NewMemLS(),
		Logger: func(r *http.Request, err error) {
			if err != nil {
				log.Printf("webdav %s %s: %v", r.Method, r.URL.Path, err)
			}
		},
	}

	h := s.reserved(gin.WrapH(dav))
	for _, method := range davReadMethods {
		s.engine.Handle(method, davPrefix+"/*path", h)
	}
}
