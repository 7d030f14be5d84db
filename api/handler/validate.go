package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/propscrape/models"
	"github.com/use-agent/propscrape/validator"
)

// Validate returns a handler for POST /api/v1/validate, which validates a
// listing the caller already has.
func Validate(defaults validator.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ValidateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, err.Error())
			return
		}

		report := validator.Validate(&req.Listing, defaults.Merge(req.Options))
		c.JSON(http.StatusOK, models.Envelope{
			Success:  true,
			Data:     report,
			Warnings: report.Warnings,
		})
	}
}
