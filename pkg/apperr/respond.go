package apperr

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Respond writes err as a JSON error body. Server errors are logged and their
// text is not exposed to the client.
func Respond(c *gin.Context, logger *zap.Logger, msg string, err error) {
	status := HTTPStatus(err)
	if status >= 500 {
		logger.Error(msg, zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
