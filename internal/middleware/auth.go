package middleware

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pointsdesk/pointsdesk-golang/internal/auth"
	"github.com/pointsdesk/pointsdesk-golang/internal/models"
)

// AuthMiddleware validates the bearer token and blocks banned or
// deactivated accounts. On success it stores userID, position and
// fullName in the context for the handlers.
func AuthMiddleware(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format (must be Bearer)"})
			c.Abort()
			return
		}

		// 2. --- Validate Token ---
		userID, _, err := auth.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// 3. --- Check Account State ---
		// The position comes from the database rather than the token so
		// a role change or a ban takes effect on the next request.
		var position, fullName string
		var isActivated, isBanned bool
		err = db.QueryRow(
			"SELECT position, full_name, is_activated, is_banned FROM users WHERE id = ?",
			userID,
		).Scan(&position, &fullName, &isActivated, &isBanned)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists"})
			c.Abort()
			return
		}

		if !isActivated {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is deactivated"})
			c.Abort()
			return
		}
		if isBanned {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is banned"})
			c.Abort()
			return
		}

		// 4. --- Success ---
		c.Set("userID", userID)
		c.Set("position", position)
		c.Set("fullName", fullName)
		c.Next()
	}
}

// SuperadminMiddleware only lets superadmin accounts through.
// Must run after AuthMiddleware.
func SuperadminMiddleware() gin.HandlerFunc {
	return requirePosition(models.PositionSuperadmin)
}

// SalesAgentMiddleware only lets sales agents through.
func SalesAgentMiddleware() gin.HandlerFunc {
	return requirePosition(models.PositionSalesAgent)
}

func requirePosition(position string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, _ := c.Get("position")
		if got != position {
			c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action"})
			c.Abort()
			return
		}
		c.Next()
	}
}
