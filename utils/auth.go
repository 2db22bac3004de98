// utils/auth.go
package utils

import (
	"context"
	"errors"
	"time"

	"github.com/driverent/driverent_backend/config"
	"github.com/driverent/driverent_backend/middleware"
	"github.com/driverent/driverent_backend/models"
	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetUserFromToken extracts the subject ID from the JWT token and retrieves the
// full user record from the database. Authorization decisions use the stored
// role, never the role claim embedded in the token.
func GetUserFromToken(c echo.Context, db *mongo.Client) (*models.User, error) {
	userToken := c.Get("user")
	if userToken == nil {
		return nil, errors.New("no token found")
	}

	token, ok := userToken.(*jwt.Token)
	if !ok {
		return nil, errors.New("invalid token type")
	}

	claims, ok := token.Claims.(*middleware.JwtCustomClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, errors.New("invalid user ID format")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = config.GetCollection(db, "users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("user not found")
		}
		return nil, errors.New("error retrieving user")
	}

	if user.IsBlocked {
		return nil, errors.New("user account is blocked")
	}

	// Don't return password in response
	user.Password = ""

	return &user, nil
}

// CanActOnBooking reports whether the actor may trigger a transition gated on
// the given party of a booking. Admins may trigger any transition.
func CanActOnBooking(actor *models.User, gatedPartyID primitive.ObjectID) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	return actor.ID == gatedPartyID
}
