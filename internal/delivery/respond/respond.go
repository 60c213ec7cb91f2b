package respond

import (
	"errors"
	"net/http"

	"github.com/fekuna/commerce-service/internal/errs"
	"github.com/gin-gonic/gin"
)

// Error translates a domain error kind into an HTTP response. Stock
// shortfalls carry their per-product payload so the storefront can render a
// precise message.
func Error(c *gin.Context, err error) {
	status := errs.HTTPStatus(err)

	var noStock *errs.InsufficientStockError
	if errors.As(err, &noStock) {
		c.JSON(status, gin.H{"error": err.Error(), "shortfalls": noStock.Shortfalls})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
