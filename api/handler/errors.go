package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/propscrape/models"
)

// respondError maps err to its HTTP status and writes the error envelope.
func respondError(c *gin.Context, err error) {
	se := models.AsScrapeError(err)
	c.JSON(statusFor(se.Code), models.Envelope{
		Success: false,
		Error:   se.ToDetail(),
	})
}

func respondInvalid(c *gin.Context, msg string) {
	respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, msg, nil))
}

// statusFor translates error codes to HTTP status codes.
func statusFor(code string) int {
	switch code {
	case models.ErrCodeInvalidInput, models.ErrCodeUnsupportedURL:
		return http.StatusBadRequest // 400
	case models.ErrCodeFetch, models.ErrCodeParse:
		return http.StatusBadGateway // 502
	case models.ErrCodeFetchTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeValidation:
		return http.StatusUnprocessableEntity // 422
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeInsufficientCredits:
		return http.StatusPaymentRequired // 402
	default:
		return http.StatusInternalServerError // 500
	}
}
