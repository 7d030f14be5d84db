package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/propscrape/models"
	"github.com/use-agent/propscrape/source"
)

// CheckURL returns a handler for POST /api/v1/urls/check. It lets clients
// check a URL before paying for a scrape; nothing is fetched.
func CheckURL() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.URLCheckRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, err.Error())
			return
		}

		id, _ := source.ExtractListingID(req.URL)
		c.JSON(http.StatusOK, models.Envelope{
			Success: true,
			Data: models.URLCheckResponse{
				Supported: source.IsSupportedURL(req.URL),
				Source:    source.Resolve(req.URL),
				ListingID: id,
			},
		})
	}
}
