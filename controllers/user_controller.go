// controllers/user_controller.go
package controllers

import (
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/driverent/driverent_backend/config"
	"github.com/driverent/driverent_backend/models"
	"github.com/driverent/driverent_backend/services"
	"github.com/driverent/driverent_backend/utils"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserController handles profile, favorites and device token endpoints
type UserController struct {
	db       *mongo.Client
	geocoder *services.GeocodingService
}

// NewUserController creates a new user controller
func NewUserController(db *mongo.Client, geocoder *services.GeocodingService) *UserController {
	return &UserController{db: db, geocoder: geocoder}
}

// GetProfile returns the authenticated user's profile
func (uc *UserController) GetProfile(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, uc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile retrieved successfully",
		Data:    user,
	})
}

// GetUser returns another user's public profile
func (uc *UserController) GetUser(ctx echo.Context) error {
	userID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var user models.User
	err = config.GetCollection(uc.db, "users").FindOne(ctx.Request().Context(), bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ctx.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
			})
		}
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error retrieving user",
		})
	}

	// Public view: strip credentials and device state
	user.Password = ""
	user.FCMToken = ""
	user.Favorites = nil

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "User retrieved successfully",
		Data:    user,
	})
}

// UpdateProfileRequest is the partial-update payload for profiles
type UpdateProfileRequest struct {
	FullName      string           `json:"fullName,omitempty"`
	Phone         string           `json:"phone,omitempty"`
	DateOfBirth   string           `json:"dateOfBirth,omitempty"`
	Location      *models.Location `json:"location,omitempty"`
	ProfilePic    string           `json:"profilePic,omitempty"` // Base64 encoded image
	ProfilePicExt string           `json:"profilePicExt,omitempty"`
}

// UpdateProfile updates the authenticated user's profile fields
func (uc *UserController) UpdateProfile(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, uc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var request UpdateProfileRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}

	reqCtx := ctx.Request().Context()
	set := bson.M{"updatedAt": time.Now()}

	if request.FullName != "" {
		set["fullName"] = request.FullName
	}
	if request.Phone != "" {
		set["phone"] = request.Phone
	}
	if request.DateOfBirth != "" {
		set["dateOfBirth"] = request.DateOfBirth
	}
	if request.Location != nil {
		// Fill in coordinates when the client sends an address only
		if request.Location.Lat == 0 && request.Location.Lng == 0 && request.Location.Address != "" {
			if lat, lng, ok := uc.geocoder.Geocode(reqCtx, request.Location.Address); ok {
				request.Location.Lat = lat
				request.Location.Lng = lng
			} else {
				log.Printf("Geocoding failed for user %s address", user.ID.Hex())
			}
		}
		set["location"] = request.Location
	}
	if request.ProfilePic != "" {
		decoded, err := base64.StdEncoding.DecodeString(request.ProfilePic)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid profile picture format",
			})
		}
		resized, err := utils.ResizeListingPhoto(decoded)
		if err != nil {
			log.Printf("Failed to resize profile picture for %s: %v", user.ID.Hex(), err)
			resized = decoded
		}
		ext := request.ProfilePicExt
		if ext == "" {
			ext = ".jpg"
		}
		filename := fmt.Sprintf("%s_%s%s", user.ID.Hex(), uuid.NewString(), ext)
		picURL, err := utils.UploadFile(resized, filename, "image")
		if err != nil {
			return ctx.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: fmt.Sprintf("Failed to upload profile picture: %v", err),
			})
		}
		set["profilePic"] = picURL
	}

	result := config.GetCollection(uc.db, "users").FindOneAndUpdate(reqCtx,
		bson.M{"_id": user.ID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var updated models.User
	if err := result.Decode(&updated); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update profile",
		})
	}
	updated.Password = ""

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile updated successfully",
		Data:    updated,
	})
}

// UpdateLocation updates only the authenticated user's location
func (uc *UserController) UpdateLocation(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, uc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var request models.UpdateLocationRequest
	if err := ctx.Bind(&request); err != nil || request.Location == nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "location is required",
		})
	}

	if _, err := config.GetCollection(uc.db, "users").UpdateOne(ctx.Request().Context(),
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"location": request.Location, "updatedAt": time.Now()}}); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update location",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Location updated successfully",
	})
}

// UpdateFCMToken stores the device's push token
func (uc *UserController) UpdateFCMToken(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, uc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var request models.UpdateFCMTokenRequest
	if err := ctx.Bind(&request); err != nil || request.FCMToken == "" {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "fcmToken is required",
		})
	}

	if _, err := config.GetCollection(uc.db, "users").UpdateOne(ctx.Request().Context(),
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"fcmToken": request.FCMToken, "updatedAt": time.Now()}}); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update FCM token",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "FCM token updated successfully",
	})
}

// AddFavorite adds a vehicle to the user's favorites
func (uc *UserController) AddFavorite(ctx echo.Context) error {
	return uc.updateFavorite(ctx, true)
}

// RemoveFavorite removes a vehicle from the user's favorites
func (uc *UserController) RemoveFavorite(ctx echo.Context) error {
	return uc.updateFavorite(ctx, false)
}

func (uc *UserController) updateFavorite(ctx echo.Context, add bool) error {
	user, err := utils.GetUserFromToken(ctx, uc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var request models.FavoriteRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}

	vehicleID, err := primitive.ObjectIDFromHex(request.VehicleID)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid vehicle ID",
		})
	}

	reqCtx := ctx.Request().Context()

	if add {
		count, err := config.GetCollection(uc.db, "vehicles").CountDocuments(reqCtx, bson.M{"_id": vehicleID})
		if err != nil || count == 0 {
			return ctx.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Vehicle not found",
			})
		}
	}

	var update bson.M
	if add {
		update = bson.M{"$addToSet": bson.M{"favorites": vehicleID}, "$set": bson.M{"updatedAt": time.Now()}}
	} else {
		update = bson.M{"$pull": bson.M{"favorites": vehicleID}, "$set": bson.M{"updatedAt": time.Now()}}
	}

	if _, err := config.GetCollection(uc.db, "users").UpdateOne(reqCtx, bson.M{"_id": user.ID}, update); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update favorites",
		})
	}

	message := "Vehicle added to favorites"
	if !add {
		message = "Vehicle removed from favorites"
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: message,
	})
}

// GetFavorites returns the user's favorite vehicles
func (uc *UserController) GetFavorites(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, uc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	reqCtx := ctx.Request().Context()

	if len(user.Favorites) == 0 {
		return ctx.JSON(http.StatusOK, models.VehiclesResponse{
			Status:  http.StatusOK,
			Message: "Favorites retrieved successfully",
			Data:    []models.Vehicle{},
		})
	}

	cursor, err := config.GetCollection(uc.db, "vehicles").Find(reqCtx, bson.M{"_id": bson.M{"$in": user.Favorites}})
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error retrieving favorites",
		})
	}
	defer cursor.Close(reqCtx)

	var vehicles []models.Vehicle
	if err := cursor.All(reqCtx, &vehicles); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error decoding favorites",
		})
	}

	return ctx.JSON(http.StatusOK, models.VehiclesResponse{
		Status:  http.StatusOK,
		Message: "Favorites retrieved successfully",
		Data:    vehicles,
	})
}
