// middleware/auth_middleware.go
package middleware

import (
	"net/http"

	"github.com/driverent/driverent_backend/config"
	"github.com/driverent/driverent_backend/models"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RequireRole checks that the authenticated user holds one of the allowed roles.
// The role is re-resolved from the users collection rather than trusted from the
// token's claims; only the subject ID comes from the credential.
func RequireRole(db *mongo.Client, allowedRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := GetUserIDFromToken(c)
			if userID == "" {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication failed: no user identity",
				})
			}

			objID, err := primitive.ObjectIDFromHex(userID)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication failed: invalid user identity",
				})
			}

			var user models.User
			err = config.GetCollection(db, "users").FindOne(c.Request().Context(), bson.M{"_id": objID}).Decode(&user)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication failed: user not found",
				})
			}

			if user.IsBlocked {
				return c.JSON(http.StatusForbidden, models.Response{
					Status:  http.StatusForbidden,
					Message: "Account is blocked",
				})
			}

			for _, allowed := range allowedRoles {
				if user.Role == allowed {
					return next(c)
				}
			}

			c.Logger().Errorf("Access denied for role: %s, allowed roles: %v", user.Role, allowedRoles)
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Access denied for your role",
			})
		}
	}
}
