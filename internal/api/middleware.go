package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const playerIDKey = "playerID"

// requireAuth validates the Bearer token and stores the caller's player id on
// the request context.
func (a *API) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User is not authenticated"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid Authorization header format"})
			return
		}

		claims, err := a.tokens.Verify(parts[1])
		if err != nil {
			abortWithError(c, err)
			return
		}

		playerID, err := claims.PlayerID()
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(playerIDKey, playerID)
		c.Next()
	}
}

func authedPlayerID(c *gin.Context) int {
	return c.GetInt(playerIDKey)
}
