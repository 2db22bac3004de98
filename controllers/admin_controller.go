package controllers

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/driverent/driverent_backend/config"
	"github.com/driverent/driverent_backend/models"
	"github.com/driverent/driverent_backend/utils"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AdminController handles report arbitration, vehicle approval, user blocking
// and platform fee reporting
type AdminController struct {
	db *mongo.Client
}

// NewAdminController creates a new admin controller
func NewAdminController(db *mongo.Client) *AdminController {
	return &AdminController{db: db}
}

// FileReport lets either party of a booking file a dispute
func (ac *AdminController) FileReport(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, ac.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var request models.ReportRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if request.Description == "" || request.Category == "" {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "category and description are required",
		})
	}

	bookingID, err := primitive.ObjectIDFromHex(request.BookingID)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid booking ID",
		})
	}

	reqCtx := ctx.Request().Context()

	var booking models.Booking
	err = config.GetCollection(ac.db, "bookings").FindOne(reqCtx, bson.M{"_id": bookingID}).Decode(&booking)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ctx.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Booking not found",
			})
		}
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error retrieving booking",
		})
	}

	var reportedUserID primitive.ObjectID
	switch user.ID {
	case booking.RenterID:
		reportedUserID = booking.OwnerID
	case booking.OwnerID:
		reportedUserID = booking.RenterID
	default:
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Only a party to the booking can file a report",
		})
	}

	var evidenceURLs []string
	for i, encoded := range request.Evidence {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: fmt.Sprintf("evidence item %d is not valid base64", i),
			})
		}
		filename := fmt.Sprintf("%s_%s.jpg", bookingID.Hex(), uuid.NewString())
		url, err := utils.UploadFileToPath(decoded, filename, "image", "reports")
		if err != nil {
			return ctx.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: fmt.Sprintf("Failed to store evidence: %v", err),
			})
		}
		evidenceURLs = append(evidenceURLs, url)
	}

	now := time.Now()
	report := models.Report{
		ID:             primitive.NewObjectID(),
		BookingID:      bookingID,
		ReporterID:     user.ID,
		ReportedUserID: reportedUserID,
		Category:       request.Category,
		Description:    request.Description,
		EvidenceURLs:   evidenceURLs,
		Status:         models.ReportStatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := config.GetCollection(ac.db, "reports").InsertOne(reqCtx, report); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to file report",
		})
	}

	return ctx.JSON(http.StatusCreated, models.ReportResponse{
		Status:  http.StatusCreated,
		Message: "Report filed successfully",
		Data:    &report,
	})
}

// GetReports lists reports for admin review, open ones first
func (ac *AdminController) GetReports(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	filter := bson.M{}
	if status := ctx.QueryParam("status"); status != "" {
		filter["status"] = status
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "status", Value: -1}, {Key: "createdAt", Value: 1}})
	cursor, err := config.GetCollection(ac.db, "reports").Find(reqCtx, filter, findOptions)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error retrieving reports",
		})
	}
	defer cursor.Close(reqCtx)

	var reports []models.Report
	if err := cursor.All(reqCtx, &reports); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error decoding reports",
		})
	}

	return ctx.JSON(http.StatusOK, models.ReportsResponse{
		Status:  http.StatusOK,
		Message: "Reports retrieved successfully",
		Data:    reports,
	})
}

// ResolveReport records an admin decision on an open report
func (ac *AdminController) ResolveReport(ctx echo.Context) error {
	admin, err := utils.GetUserFromToken(ctx, ac.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	reportID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid report ID",
		})
	}

	var request models.ReportResolutionRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if request.Status != models.ReportStatusResolved && request.Status != models.ReportStatusDismissed {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "status must be \"resolved\" or \"dismissed\"",
		})
	}

	reqCtx := ctx.Request().Context()
	now := time.Now()

	result := config.GetCollection(ac.db, "reports").FindOneAndUpdate(reqCtx,
		bson.M{"_id": reportID, "status": models.ReportStatusOpen},
		bson.M{"$set": bson.M{
			"status":     request.Status,
			"resolution": request.Resolution,
			"resolvedBy": admin.ID,
			"resolvedAt": now,
			"updatedAt":  now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var report models.Report
	if err := result.Decode(&report); err != nil {
		if err == mongo.ErrNoDocuments {
			return ctx.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Report not found or already decided",
			})
		}
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve report",
		})
	}

	utils.NotifyUser(ac.db, report.ReporterID,
		"Report Decision",
		fmt.Sprintf("Your report was %s", request.Status),
		"report_update",
		"/reports/"+report.ID.Hex(),
		map[string]interface{}{"reportId": report.ID.Hex(), "status": request.Status})

	return ctx.JSON(http.StatusOK, models.ReportResponse{
		Status:  http.StatusOK,
		Message: "Report decided",
		Data:    &report,
	})
}

// SetVehicleApproval approves or rejects a pending vehicle listing
func (ac *AdminController) SetVehicleApproval(ctx echo.Context) error {
	vehicleID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid vehicle ID",
		})
	}

	var request struct {
		Status string `json:"status"` // "approved" or "rejected"
	}
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if request.Status != models.VehicleStatusApproved && request.Status != models.VehicleStatusRejected {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "status must be \"approved\" or \"rejected\"",
		})
	}

	reqCtx := ctx.Request().Context()

	result := config.GetCollection(ac.db, "vehicles").FindOneAndUpdate(reqCtx,
		bson.M{"_id": vehicleID},
		bson.M{"$set": bson.M{"status": request.Status, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var vehicle models.Vehicle
	if err := result.Decode(&vehicle); err != nil {
		if err == mongo.ErrNoDocuments {
			return ctx.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Vehicle not found",
			})
		}
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update vehicle",
		})
	}

	utils.NotifyUser(ac.db, vehicle.OwnerID,
		"Listing Update",
		fmt.Sprintf("Your %s %s listing was %s", vehicle.Make, vehicle.Model, request.Status),
		"vehicle_update",
		"/vehicles/"+vehicle.ID.Hex(),
		map[string]interface{}{"vehicleId": vehicle.ID.Hex(), "status": request.Status})

	return ctx.JSON(http.StatusOK, models.VehicleResponse{
		Status:  http.StatusOK,
		Message: fmt.Sprintf("Vehicle %s", request.Status),
		Data:    &vehicle,
	})
}

// SetUserBlocked blocks or unblocks a user account
func (ac *AdminController) SetUserBlocked(ctx echo.Context) error {
	userID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var request struct {
		Blocked bool `json:"blocked"`
	}
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}

	result, err := config.GetCollection(ac.db, "users").UpdateOne(ctx.Request().Context(),
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"isBlocked": request.Blocked, "updatedAt": time.Now()}})
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update user",
		})
	}
	if result.MatchedCount == 0 {
		return ctx.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	message := "User unblocked"
	if request.Blocked {
		message = "User blocked"
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: message,
	})
}

// ListUsers lists user accounts for the admin dashboard
func (ac *AdminController) ListUsers(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	filter := bson.M{}
	if role := ctx.QueryParam("role"); role != "" {
		filter["role"] = role
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetProjection(bson.M{"password": 0})
	cursor, err := config.GetCollection(ac.db, "users").Find(reqCtx, filter, findOptions)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error retrieving users",
		})
	}
	defer cursor.Close(reqCtx)

	var users []models.User
	if err := cursor.All(reqCtx, &users); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error decoding users",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Users retrieved successfully",
		Data:    users,
	})
}

// GetPlatformFees lists collected platform fees with their running total
func (ac *AdminController) GetPlatformFees(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	filter := bson.M{}
	if from := ctx.QueryParam("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filter["createdAt"] = bson.M{"$gte": t}
		}
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := config.GetCollection(ac.db, "platform_fees").Find(reqCtx, filter, findOptions)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error retrieving platform fees",
		})
	}
	defer cursor.Close(reqCtx)

	var fees []models.PlatformFee
	if err := cursor.All(reqCtx, &fees); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error decoding platform fees",
		})
	}

	var total float64
	for _, fee := range fees {
		total += fee.FeeAmount
	}

	return ctx.JSON(http.StatusOK, models.PlatformFeesResponse{
		Status:  http.StatusOK,
		Message: "Platform fees retrieved successfully",
		Data:    fees,
		Total:   utils.RoundMoney(total),
	})
}

// ListPendingVehicles lists vehicle listings awaiting approval
func (ac *AdminController) ListPendingVehicles(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := config.GetCollection(ac.db, "vehicles").Find(reqCtx,
		bson.M{"status": models.VehicleStatusPending}, findOptions)
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
		Message: "Pending vehicles retrieved",
		Data:    vehicles,
	})
}
