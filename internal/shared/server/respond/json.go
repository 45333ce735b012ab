package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes the payload with the given status. Handlers go through this
// rather than calling c.JSON directly so success and error bodies stay in one
// package.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 response, the common case for reads.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}
