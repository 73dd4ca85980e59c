package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every response uses the {success, message, data, error} envelope.

func respondOK(ctx *gin.Context, status int, message string, data any) {
	ctx.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func respondError(ctx *gin.Context, status int, message string, errDetail any) {
	body := gin.H{
		"success": false,
		"message": message,
	}
	if errDetail != nil {
		body["error"] = errDetail
	}
	ctx.JSON(status, body)
}

func respondValidationFailed(ctx *gin.Context, errs map[string]FieldError) {
	respondError(ctx, http.StatusBadRequest, "Validation failed", gin.H{
		"name":   "ValidationError",
		"errors": errs,
	})
}
