// Package response writes the {ok, message?, ...} envelope the mobile
// client expects on every endpoint.
package response

import "github.com/gin-gonic/gin"

func Success(c *gin.Context, data gin.H) {
	out := gin.H{"ok": true}
	for k, v := range data {
		out[k] = v
	}
	c.JSON(200, out)
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"ok": false, "message": message})
}
