package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError writes the error envelope and aborts the chain
func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondData writes the success envelope
func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondInternal logs the cause and returns a generic 500
func respondInternal(c *gin.Context, action string, err error) {
	log.Printf("Error: failed to %s: %v", action, err)
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
}
