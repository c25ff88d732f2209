// Package handler provides HTTP request handlers for the application.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tubefeed/video-recommender-go/internal/catalog"
	"github.com/tubefeed/video-recommender-go/internal/recommend"
)

// translateError maps engine failures to the boundary's status codes.
// Gate and upstream failures become access-denied or gateway responses
// with generic bodies; internal detail stays in the logs.
func translateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, recommend.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, recommend.ErrUnverified):
		c.JSON(http.StatusForbidden, gin.H{"error": "account not verified"})
	case errors.Is(err, catalog.ErrUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
