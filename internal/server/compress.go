package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
)

func newCompressor() (func(http.Handler) http.HandlerFunc, error) {
	return gzhttp.NewWrapper(gzhttp.MinSize(1024))
}

// writeCompressed sends a generated body, gzip-encoded when the client
// accepts it. File transfers never go through here so Range keeps working.
func (s *Server) writeCompressed(c *gin.Context, contentType string, body []byte) {
	s.compress(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)

		if r.Method != http.MethodHead {
			_, _ = w.Write(body)
		}
	})).ServeHTTP(c.Writer, c.Request)
}
