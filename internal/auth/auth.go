package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"quickshare/internal/config"
)

const realm = `Basic realm="quickshare"`

// BasicAuth returns a middleware checking credentials against a bcrypt hash.
// It passes every request through when auth is not configured.
func BasicAuth(cfg config.Auth) gin.HandlerFunc {
	if !cfg.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok || !check(cfg, user, pass) {
			c.Header("WWW-Authenticate", realm)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(gin.AuthUserKey, user)
		c.Next()
	}
}

func check(cfg config.Auth, user, pass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(cfg.Username)) == 1
	passOK := bcrypt.CompareHashAndPassword([]byte(cfg.Bcrypt), []byte(pass)) == nil

	return userOK && passOK
}

// Hash returns the bcrypt hash of password for the config file.
func Hash(password string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}

	return string(h), nil
}
