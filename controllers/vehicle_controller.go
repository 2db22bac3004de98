package controllers

import (
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
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

// VehicleController handles vehicle listing endpoints
type VehicleController struct {
	db       *mongo.Client
	geocoder *services.GeocodingService
}

// NewVehicleController creates a new vehicle controller
func NewVehicleController(db *mongo.Client, geocoder *services.GeocodingService) *VehicleController {
	return &VehicleController{db: db, geocoder: geocoder}
}

// CreateVehicle creates a new listing for the authenticated owner. New
// listings start as pending until an admin approves them.
func (vc *VehicleController) CreateVehicle(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, vc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var request models.VehicleRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}

	if request.Make == "" || request.Model == "" {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "make and model are required",
		})
	}
	if request.RentalPricePerDay <= 0 {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "rentalPricePerDay must be positive",
		})
	}

	reqCtx := ctx.Request().Context()
	now := time.Now()

	vehicle := models.Vehicle{
		ID:                primitive.NewObjectID(),
		OwnerID:           user.ID,
		Make:              request.Make,
		Model:             request.Model,
		Year:              request.Year,
		PlateNumber:       request.PlateNumber,
		Transmission:      request.Transmission,
		FuelType:          request.FuelType,
		Seats:             request.Seats,
		Description:       request.Description,
		RentalPricePerDay: request.RentalPricePerDay,
		Availability:      []models.AvailabilityBlock{},
		Status:            models.VehicleStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if request.Address != "" || request.City != "" {
		location := &models.Location{Address: request.Address, City: request.City}
		if lat, lng, ok := vc.geocoder.Geocode(reqCtx, request.Address+" "+request.City); ok {
			location.Lat = lat
			location.Lng = lng
		} else {
			log.Printf("Geocoding failed for vehicle listing by %s", user.ID.Hex())
		}
		vehicle.Location = location
	}

	photoURLs, err := vc.uploadPhotos(vehicle.ID, request.Photos, request.PhotoNames)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}
	vehicle.PhotoURLs = photoURLs

	if _, err := config.GetCollection(vc.db, "vehicles").InsertOne(reqCtx, vehicle); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create vehicle listing",
		})
	}

	return ctx.JSON(http.StatusCreated, models.VehicleResponse{
		Status:  http.StatusCreated,
		Message: "Vehicle listing created, pending approval",
		Data:    &vehicle,
	})
}

// uploadPhotos decodes, resizes and stores base64 listing photos.
func (vc *VehicleController) uploadPhotos(vehicleID primitive.ObjectID, photos, names []string) ([]string, error) {
	var urls []string
	for i, photo := range photos {
		decoded, err := base64.StdEncoding.DecodeString(photo)
		if err != nil {
			return nil, fmt.Errorf("photo %d is not valid base64", i)
		}
		resized, err := utils.ResizeListingPhoto(decoded)
		if err != nil {
			log.Printf("Failed to resize photo %d for vehicle %s: %v", i, vehicleID.Hex(), err)
			resized = decoded
		}
		ext := ".jpg"
		if i < len(names) {
			if e := filepath.Ext(names[i]); e != "" {
				ext = e
			}
		}
		filename := fmt.Sprintf("%s_%s%s", vehicleID.Hex(), uuid.NewString(), ext)
		url, err := utils.UploadFileToPath(resized, filename, "image", "vehicles")
		if err != nil {
			return nil, fmt.Errorf("failed to store photo %d: %v", i, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// GetVehicles lists approved vehicles with optional filters
func (vc *VehicleController) GetVehicles(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	filter := bson.M{"status": models.VehicleStatusApproved}
	if city := ctx.QueryParam("city"); city != "" {
		filter["location.city"] = city
	}
	if transmission := ctx.QueryParam("transmission"); transmission != "" {
		filter["transmission"] = transmission
	}
	if maxPrice := ctx.QueryParam("maxPrice"); maxPrice != "" {
		if price, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			filter["rentalPricePerDay"] = bson.M{"$lte": price}
		}
	}
	if seats := ctx.QueryParam("minSeats"); seats != "" {
		if n, err := strconv.Atoi(seats); err == nil {
			filter["seats"] = bson.M{"$gte": n}
		}
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := config.GetCollection(vc.db, "vehicles").Find(reqCtx, filter, findOptions)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error retrieving vehicles",
		})
	}
	defer cursor.Close(reqCtx)

	var vehicles []models.Vehicle
	if err := cursor.All(reqCtx, &vehicles); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error decoding vehicles",
		})
	}

	return ctx.JSON(http.StatusOK, models.VehiclesResponse{
		Status:  http.StatusOK,
		Message: "Vehicles retrieved successfully",
		Data:    vehicles,
	})
}

// GetVehicle retrieves a single vehicle listing
func (vc *VehicleController) GetVehicle(ctx echo.Context) error {
	vehicleID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid vehicle ID",
		})
	}

	var vehicle models.Vehicle
	err = config.GetCollection(vc.db, "vehicles").FindOne(ctx.Request().Context(), bson.M{"_id": vehicleID}).Decode(&vehicle)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ctx.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Vehicle not found",
			})
		}
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error retrieving vehicle",
		})
	}

	return ctx.JSON(http.StatusOK, models.VehicleResponse{
		Status:  http.StatusOK,
		Message: "Vehicle retrieved successfully",
		Data:    &vehicle,
	})
}

// GetOwnerVehicles lists the authenticated owner's own vehicles in any status
func (vc *VehicleController) GetOwnerVehicles(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, vc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	reqCtx := ctx.Request().Context()

	cursor, err := config.GetCollection(vc.db, "vehicles").Find(reqCtx, bson.M{"ownerId": user.ID})
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error retrieving vehicles",
		})
	}
	defer cursor.Close(reqCtx)

	var vehicles []models.Vehicle
	if err := cursor.All(reqCtx, &vehicles); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error decoding vehicles",
		})
	}

	return ctx.JSON(http.StatusOK, models.VehiclesResponse{
		Status:  http.StatusOK,
		Message: "Vehicles retrieved successfully",
		Data:    vehicles,
	})
}

// ownedVehicle loads a vehicle and checks the caller may manage it.
func (vc *VehicleController) ownedVehicle(ctx echo.Context) (*models.User, *models.Vehicle, int, string) {
	user, err := utils.GetUserFromToken(ctx, vc.db)
	if err != nil {
		return nil, nil, http.StatusUnauthorized, "Unauthorized"
	}

	vehicleID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return nil, nil, http.StatusBadRequest, "Invalid vehicle ID"
	}

	var vehicle models.Vehicle
	err = config.GetCollection(vc.db, "vehicles").FindOne(ctx.Request().Context(), bson.M{"_id": vehicleID}).Decode(&vehicle)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil, http.StatusNotFound, "Vehicle not found"
		}
		return nil, nil, http.StatusInternalServerError, "Error retrieving vehicle"
	}

	if user.Role != models.RoleAdmin && vehicle.OwnerID != user.ID {
		return nil, nil, http.StatusForbidden, "Only the vehicle owner or an admin can perform this action"
	}
	return user, &vehicle, http.StatusOK, ""
}

// UpdateVehicle updates listing details. Changing core details moves an
// approved listing back to pending review.
func (vc *VehicleController) UpdateVehicle(ctx echo.Context) error {
	_, vehicle, status, msg := vc.ownedVehicle(ctx)
	if vehicle == nil {
		return ctx.JSON(status, models.Response{Status: status, Message: msg})
	}

	var request models.VehicleRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}

	reqCtx := ctx.Request().Context()
	set := bson.M{"updatedAt": time.Now()}

	if request.Make != "" {
		set["make"] = request.Make
	}
	if request.Model != "" {
		set["model"] = request.Model
	}
	if request.Year != 0 {
		set["year"] = request.Year
	}
	if request.PlateNumber != "" {
		set["plateNumber"] = request.PlateNumber
	}
	if request.Transmission != "" {
		set["transmission"] = request.Transmission
	}
	if request.FuelType != "" {
		set["fuelType"] = request.FuelType
	}
	if request.Seats != 0 {
		set["seats"] = request.Seats
	}
	if request.Description != "" {
		set["description"] = request.Description
	}
	if request.RentalPricePerDay > 0 {
		set["rentalPricePerDay"] = request.RentalPricePerDay
	}
	if request.Address != "" || request.City != "" {
		location := &models.Location{Address: request.Address, City: request.City}
		if lat, lng, ok := vc.geocoder.Geocode(reqCtx, request.Address+" "+request.City); ok {
			location.Lat = lat
			location.Lng = lng
		}
		set["location"] = location
	}
	if len(request.Photos) > 0 {
		urls, err := vc.uploadPhotos(vehicle.ID, request.Photos, request.PhotoNames)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		}
		set["photoUrls"] = urls
	}

	if vehicle.Status == models.VehicleStatusApproved {
		set["status"] = models.VehicleStatusPending
	}

	result := config.GetCollection(vc.db, "vehicles").FindOneAndUpdate(reqCtx,
		bson.M{"_id": vehicle.ID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var updated models.Vehicle
	if err := result.Decode(&updated); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update vehicle",
		})
	}

	return ctx.JSON(http.StatusOK, models.VehicleResponse{
		Status:  http.StatusOK,
		Message: "Vehicle updated successfully",
		Data:    &updated,
	})
}

// DeleteVehicle delists a vehicle. Listings with confirmed upcoming bookings
// cannot be removed.
func (vc *VehicleController) DeleteVehicle(ctx echo.Context) error {
	_, vehicle, status, msg := vc.ownedVehicle(ctx)
	if vehicle == nil {
		return ctx.JSON(status, models.Response{Status: status, Message: msg})
	}

	reqCtx := ctx.Request().Context()

	count, err := config.GetCollection(vc.db, "bookings").CountDocuments(reqCtx, bson.M{
		"vehicleId":     vehicle.ID,
		"paymentStatus": models.StatusConfirmed,
		"endDate":       bson.M{"$gt": time.Now()},
	})
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error checking active bookings",
		})
	}
	if count > 0 {
		return ctx.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Vehicle has confirmed upcoming bookings and cannot be delisted",
		})
	}

	if _, err := config.GetCollection(vc.db, "vehicles").UpdateOne(reqCtx,
		bson.M{"_id": vehicle.ID},
		bson.M{"$set": bson.M{"status": models.VehicleStatusDelisted, "updatedAt": time.Now()}}); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delist vehicle",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Vehicle delisted",
	})
}

// UploadWalkaroundVideo stores the vehicle's walkaround video and generates a
// thumbnail from its first frame
func (vc *VehicleController) UploadWalkaroundVideo(ctx echo.Context) error {
	_, vehicle, status, msg := vc.ownedVehicle(ctx)
	if vehicle == nil {
		return ctx.JSON(status, models.Response{Status: status, Message: msg})
	}

	var request struct {
		Video     string `json:"video"` // Base64 encoded video
		VideoName string `json:"videoName,omitempty"`
	}
	if err := ctx.Bind(&request); err != nil || request.Video == "" {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "video is required",
		})
	}

	decoded, err := base64.StdEncoding.DecodeString(request.Video)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid video format",
		})
	}

	ext := ".mp4"
	if e := filepath.Ext(request.VideoName); e != "" {
		ext = e
	}
	filename := fmt.Sprintf("%s_%s%s", vehicle.ID.Hex(), uuid.NewString(), ext)
	videoURL, err := utils.UploadFileToPath(decoded, filename, "video", "vehicles")
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("Failed to store video: %v", err),
		})
	}

	set := bson.M{"walkaroundVideoUrl": videoURL, "updatedAt": time.Now()}

	thumbnailURL, err := utils.GenerateVideoThumbnail(videoURL)
	if err != nil {
		log.Printf("Failed to generate thumbnail for vehicle %s: %v", vehicle.ID.Hex(), err)
		thumbnailURL = ""
	} else {
		set["videoThumbnailUrl"] = thumbnailURL
	}

	if _, err := config.GetCollection(vc.db, "vehicles").UpdateOne(ctx.Request().Context(),
		bson.M{"_id": vehicle.ID}, bson.M{"$set": set}); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update vehicle",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Walkaround video uploaded",
		Data: map[string]string{
			"walkaroundVideoUrl": videoURL,
			"videoThumbnailUrl":  thumbnailURL,
		},
	})
}

// AddAvailabilityBlock adds an owner-defined blocked interval to the calendar
func (vc *VehicleController) AddAvailabilityBlock(ctx echo.Context) error {
	_, vehicle, status, msg := vc.ownedVehicle(ctx)
	if vehicle == nil {
		return ctx.JSON(status, models.Response{Status: status, Message: msg})
	}

	var request models.AvailabilityBlockRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if !request.StartDate.Before(request.EndDate) {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "startDate must be before endDate",
		})
	}

	block := models.AvailabilityBlock{
		StartDate: request.StartDate,
		EndDate:   request.EndDate,
		Reason:    request.Reason,
	}

	if _, err := config.GetCollection(vc.db, "vehicles").UpdateOne(ctx.Request().Context(),
		bson.M{"_id": vehicle.ID},
		bson.M{"$push": bson.M{"availability": block}, "$set": bson.M{"updatedAt": time.Now()}}); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to add availability block",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Availability block added",
		Data:    block,
	})
}

// RemoveAvailabilityBlock removes an owner-defined block matching the given
// interval. Booking-derived blocks can only be released by cancellation.
func (vc *VehicleController) RemoveAvailabilityBlock(ctx echo.Context) error {
	_, vehicle, status, msg := vc.ownedVehicle(ctx)
	if vehicle == nil {
		return ctx.JSON(status, models.Response{Status: status, Message: msg})
	}

	var request models.AvailabilityBlockRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}

	result, err := config.GetCollection(vc.db, "vehicles").UpdateOne(ctx.Request().Context(),
		bson.M{"_id": vehicle.ID},
		bson.M{
			"$pull": bson.M{"availability": bson.M{
				"startDate": request.StartDate,
				"endDate":   request.EndDate,
				"bookingId": bson.M{"$exists": false},
			}},
			"$set": bson.M{"updatedAt": time.Now()},
		})
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to remove availability block",
		})
	}
	if result.ModifiedCount == 0 {
		return ctx.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "No matching owner-defined block found",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Availability block removed",
	})
}
