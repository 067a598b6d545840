package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/romcom/romcom-auth/internal/server/results"
)

// respond writes the envelope with its status code as the HTTP status.
func respond(c *gin.Context, res results.Result) {
	c.JSON(res.StatusCode, res)
}

func respondError(c *gin.Context, err error) {
	respond(c, results.Failure(err))
}
