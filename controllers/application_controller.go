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

// ApplicationController handles host and drive application endpoints
type ApplicationController struct {
	db *mongo.Client
}

// NewApplicationController creates a new application controller
func NewApplicationController(db *mongo.Client) *ApplicationController {
	return &ApplicationController{db: db}
}

func (apc *ApplicationController) uploadDocument(userID primitive.ObjectID, encoded, label string) (string, error) {
	if encoded == "" {
		return "", nil
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%s is not valid base64", label)
	}
	filename := fmt.Sprintf("%s_%s_%s.jpg", userID.Hex(), label, uuid.NewString())
	return utils.UploadFileToPath(decoded, filename, "image", "applications")
}

// SubmitHostApplication files a request to become an owner
func (apc *ApplicationController) SubmitHostApplication(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, apc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}
	if user.Role == models.RoleOwner {
		return ctx.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "You are already an owner",
		})
	}

	var request models.HostApplicationRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}

	reqCtx := ctx.Request().Context()

	count, err := config.GetCollection(apc.db, "hostApplications").CountDocuments(reqCtx,
		bson.M{"userId": user.ID, "status": models.ApplicationStatusPending})
	if err == nil && count > 0 {
		return ctx.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "You already have a pending host application",
		})
	}

	govIDURL, err := apc.uploadDocument(user.ID, request.GovernmentID, "govid")
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}
	addressURL, err := apc.uploadDocument(user.ID, request.ProofOfAddress, "address")
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	now := time.Now()
	application := models.HostApplication{
		ID:             primitive.NewObjectID(),
		UserID:         user.ID,
		GovernmentID:   govIDURL,
		ProofOfAddress: addressURL,
		Motivation:     request.Motivation,
		Status:         models.ApplicationStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := config.GetCollection(apc.db, "hostApplications").InsertOne(reqCtx, application); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to submit application",
		})
	}

	return ctx.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Host application submitted",
		Data:    application,
	})
}

// SubmitDriveApplication files a licence verification request
func (apc *ApplicationController) SubmitDriveApplication(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, apc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}
	if user.CanDrive {
		return ctx.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Your licence is already verified",
		})
	}

	var request models.DriveApplicationRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if request.LicenseNumber == "" {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "licenseNumber is required",
		})
	}

	reqCtx := ctx.Request().Context()

	count, err := config.GetCollection(apc.db, "driveApplications").CountDocuments(reqCtx,
		bson.M{"userId": user.ID, "status": models.ApplicationStatusPending})
	if err == nil && count > 0 {
		return ctx.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "You already have a pending drive application",
		})
	}

	frontURL, err := apc.uploadDocument(user.ID, request.LicenseFront, "licfront")
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}
	backURL, err := apc.uploadDocument(user.ID, request.LicenseBack, "licback")
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	now := time.Now()
	application := models.DriveApplication{
		ID:            primitive.NewObjectID(),
		UserID:        user.ID,
		LicenseNumber: request.LicenseNumber,
		LicenseFront:  frontURL,
		LicenseBack:   backURL,
		ExpiryDate:    request.ExpiryDate,
		Status:        models.ApplicationStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := config.GetCollection(apc.db, "driveApplications").InsertOne(reqCtx, application); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to submit application",
		})
	}

	return ctx.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Drive application submitted",
		Data:    application,
	})
}

// GetMyApplications returns the caller's host and drive applications
func (apc *ApplicationController) GetMyApplications(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, apc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	reqCtx := ctx.Request().Context()
	filter := bson.M{"userId": user.ID}

	var hostApps []models.HostApplication
	if cursor, err := config.GetCollection(apc.db, "hostApplications").Find(reqCtx, filter); err == nil {
		defer cursor.Close(reqCtx)
		cursor.All(reqCtx, &hostApps)
	}

	var driveApps []models.DriveApplication
	if cursor, err := config.GetCollection(apc.db, "driveApplications").Find(reqCtx, filter); err == nil {
		defer cursor.Close(reqCtx)
		cursor.All(reqCtx, &driveApps)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Applications retrieved successfully",
		Data: map[string]interface{}{
			"hostApplications":  hostApps,
			"driveApplications": driveApps,
		},
	})
}

// ListPendingApplications lists pending applications for admin review
func (apc *ApplicationController) ListPendingApplications(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	filter := bson.M{"status": models.ApplicationStatusPending}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	var hostApps []models.HostApplication
	if cursor, err := config.GetCollection(apc.db, "hostApplications").Find(reqCtx, filter, findOptions); err == nil {
		defer cursor.Close(reqCtx)
		cursor.All(reqCtx, &hostApps)
	}

	var driveApps []models.DriveApplication
	if cursor, err := config.GetCollection(apc.db, "driveApplications").Find(reqCtx, filter, findOptions); err == nil {
		defer cursor.Close(reqCtx)
		cursor.All(reqCtx, &driveApps)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending applications retrieved",
		Data: map[string]interface{}{
			"hostApplications":  hostApps,
			"driveApplications": driveApps,
		},
	})
}

// DecideHostApplication approves or rejects a host application. Approval
// grants the owner role inside the same transaction that records the decision.
func (apc *ApplicationController) DecideHostApplication(ctx echo.Context) error {
	admin, err := utils.GetUserFromToken(ctx, apc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	applicationID, request, errStatus, errMsg := apc.bindDecision(ctx)
	if errStatus != 0 {
		return ctx.JSON(errStatus, models.Response{Status: errStatus, Message: errMsg})
	}

	reqCtx := ctx.Request().Context()

	session, err := apc.db.StartSession()
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to start transaction",
		})
	}
	defer session.EndSession(reqCtx)

	now := time.Now()
	var application models.HostApplication

	_, err = session.WithTransaction(reqCtx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := config.GetCollection(apc.db, "hostApplications").FindOne(sc, bson.M{"_id": applicationID}).Decode(&application); err != nil {
			return nil, err
		}
		if application.Status != models.ApplicationStatusPending {
			return nil, &reviewConflictError{message: "Application has already been decided"}
		}

		if _, err := config.GetCollection(apc.db, "hostApplications").UpdateOne(sc,
			bson.M{"_id": applicationID},
			bson.M{"$set": bson.M{
				"status":     request.Status,
				"reviewedBy": admin.ID,
				"reviewNote": request.ReviewNote,
				"updatedAt":  now,
			}}); err != nil {
			return nil, err
		}

		if request.Status == models.ApplicationStatusApproved {
			if _, err := config.GetCollection(apc.db, "users").UpdateOne(sc,
				bson.M{"_id": application.UserID},
				bson.M{"$set": bson.M{"role": models.RoleOwner, "updatedAt": now}}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})

	if err != nil {
		return apc.decisionError(ctx, err)
	}

	apc.notifyDecision(application.UserID, "host", request.Status)
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: fmt.Sprintf("Host application %s", request.Status),
	})
}

// DecideDriveApplication approves or rejects a drive application. Approval
// sets the applicant's canDrive flag in the same transaction.
func (apc *ApplicationController) DecideDriveApplication(ctx echo.Context) error {
	admin, err := utils.GetUserFromToken(ctx, apc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	applicationID, request, errStatus, errMsg := apc.bindDecision(ctx)
	if errStatus != 0 {
		return ctx.JSON(errStatus, models.Response{Status: errStatus, Message: errMsg})
	}

	reqCtx := ctx.Request().Context()

	session, err := apc.db.StartSession()
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to start transaction",
		})
	}
	defer session.EndSession(reqCtx)

	now := time.Now()
	var application models.DriveApplication

	_, err = session.WithTransaction(reqCtx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := config.GetCollection(apc.db, "driveApplications").FindOne(sc, bson.M{"_id": applicationID}).Decode(&application); err != nil {
			return nil, err
		}
		if application.Status != models.ApplicationStatusPending {
			return nil, &reviewConflictError{message: "Application has already been decided"}
		}

		if _, err := config.GetCollection(apc.db, "driveApplications").UpdateOne(sc,
			bson.M{"_id": applicationID},
			bson.M{"$set": bson.M{
				"status":     request.Status,
				"reviewedBy": admin.ID,
				"reviewNote": request.ReviewNote,
				"updatedAt":  now,
			}}); err != nil {
			return nil, err
		}

		if request.Status == models.ApplicationStatusApproved {
			if _, err := config.GetCollection(apc.db, "users").UpdateOne(sc,
				bson.M{"_id": application.UserID},
				bson.M{"$set": bson.M{"canDrive": true, "updatedAt": now}}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})

	if err != nil {
		return apc.decisionError(ctx, err)
	}

	apc.notifyDecision(application.UserID, "drive", request.Status)
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: fmt.Sprintf("Drive application %s", request.Status),
	})
}

func (apc *ApplicationController) bindDecision(ctx echo.Context) (primitive.ObjectID, *models.ApplicationDecisionRequest, int, string) {
	applicationID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return primitive.NilObjectID, nil, http.StatusBadRequest, "Invalid application ID"
	}

	var request models.ApplicationDecisionRequest
	if err := ctx.Bind(&request); err != nil {
		return primitive.NilObjectID, nil, http.StatusBadRequest, "Invalid request"
	}
	if request.Status != models.ApplicationStatusApproved && request.Status != models.ApplicationStatusRejected {
		return primitive.NilObjectID, nil, http.StatusBadRequest, "status must be \"approved\" or \"rejected\""
	}
	return applicationID, &request, 0, ""
}

func (apc *ApplicationController) decisionError(ctx echo.Context, err error) error {
	if err == mongo.ErrNoDocuments {
		return ctx.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Application not found",
		})
	}
	if conflict, ok := err.(*reviewConflictError); ok {
		return ctx.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: conflict.Error(),
		})
	}
	return ctx.JSON(http.StatusInternalServerError, models.Response{
		Status:  http.StatusInternalServerError,
		Message: "Failed to decide application",
	})
}

func (apc *ApplicationController) notifyDecision(userID primitive.ObjectID, kind, status string) {
	title := "Application Update"
	message := fmt.Sprintf("Your %s application was %s", kind, status)
	utils.NotifyUser(apc.db, userID, title, message, "application_update", "/applications",
		map[string]interface{}{"kind": kind, "status": status})
}
