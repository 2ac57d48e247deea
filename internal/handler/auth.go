package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// requireSecret rejects requests whose header does not carry secret. An
// empty secret rejects everything.
func requireSecret(header, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(header)
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			logrus.WithFields(logrus.Fields{
				"path":      c.FullPath(),
				"client_ip": c.ClientIP(),
			}).Warn("Rejected request with missing or wrong secret")
			abortError(c, http.StatusUnauthorized, "Unauthorized", "")
			return
		}
		c.Next()
	}
}
