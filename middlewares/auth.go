package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"order-management/models"
	"order-management/utils"
)

const currentUserKey = "currentUser"

type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthMiddleware resolves the bearer token to a stored user and keeps it in
// the request context.
func AuthMiddleware(secret string, users UserFinder, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			log.Warn("Invalid Authorization header format")
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		userID, err := utils.ParseToken(strings.TrimSpace(parts[1]), secret)
		if err != nil {
			log.WithError(err).Warn("Rejected token")
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid token")
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if errors.Is(err, models.ErrNotFound) {
			log.Warnf("Token subject %d does not exist", userID)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid token")
			return
		}
		if err != nil {
			utils.HandleError(c, log, err)
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by AuthMiddleware, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// RequireRole lets only users with role through.
func RequireRole(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
			return
		}
		if user.Role != role {
			utils.ErrorResponse(c, http.StatusForbidden, "access denied")
			return
		}
		c.Next()
	}
}
