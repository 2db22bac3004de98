package controllers

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/driverent/driverent_backend/config"
	"github.com/driverent/driverent_backend/models"
	"github.com/driverent/driverent_backend/services"
	"github.com/driverent/driverent_backend/utils"
	"github.com/driverent/driverent_backend/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BookingController handles booking-related API endpoints
type BookingController struct {
	db       *mongo.Client
	hub      *websocket.Hub
	payments *services.PayMongoService
}

// NewBookingController creates a new booking controller
func NewBookingController(db *mongo.Client, hub *websocket.Hub, payments *services.PayMongoService) *BookingController {
	return &BookingController{db: db, hub: hub, payments: payments}
}

// occupyingBookings fetches this vehicle's bookings in calendar-occupying states.
func (bc *BookingController) occupyingBookings(ctx context.Context, vehicleID primitive.ObjectID) ([]models.Booking, error) {
	cursor, err := config.GetCollection(bc.db, "bookings").Find(ctx, bson.M{
		"vehicleId":     vehicleID,
		"paymentStatus": models.StatusConfirmed,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// CheckAvailability returns an availability and cost quote for a vehicle and interval
func (bc *BookingController) CheckAvailability(ctx echo.Context) error {
	vehicleID, err := primitive.ObjectIDFromHex(ctx.Param("vehicleId"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid vehicle ID",
		})
	}

	startDate, err := time.Parse(time.RFC3339, ctx.QueryParam("startDate"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid startDate. Expected RFC3339 timestamp",
		})
	}
	endDate, err := time.Parse(time.RFC3339, ctx.QueryParam("endDate"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid endDate. Expected RFC3339 timestamp",
		})
	}

	reqCtx := ctx.Request().Context()

	var vehicle models.Vehicle
	err = config.GetCollection(bc.db, "vehicles").FindOne(reqCtx, bson.M{"_id": vehicleID}).Decode(&vehicle)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ctx.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Vehicle not found",
			})
		}
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error finding vehicle",
		})
	}

	bookings, err := bc.occupyingBookings(reqCtx, vehicleID)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error checking booking availability",
		})
	}

	quote, err := utils.Quote(&vehicle, bookings, startDate, endDate, nil)
	if err != nil {
		switch err {
		case utils.ErrInvalidInterval:
			return ctx.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		case utils.ErrPriceNotConfigured:
			return ctx.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: err.Error(),
			})
		default:
			return ctx.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Error computing quote",
			})
		}
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Availability checked",
		Data:    quote,
	})
}

// CreateBooking handles the creation of a new booking request
func (bc *BookingController) CreateBooking(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, bc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var request models.BookingRequest
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
	if request.StartDate.Before(time.Now()) {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "startDate must not be in the past",
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

	var vehicle models.Vehicle
	err = config.GetCollection(bc.db, "vehicles").FindOne(reqCtx, bson.M{"_id": vehicleID}).Decode(&vehicle)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ctx.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Vehicle not found",
			})
		}
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error finding vehicle",
		})
	}

	if vehicle.OwnerID == user.ID {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "You cannot book your own vehicle",
		})
	}
	if vehicle.Status != models.VehicleStatusApproved {
		return ctx.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Vehicle is not available for booking",
		})
	}
	if !user.CanDrive && user.Role != models.RoleAdmin {
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "An approved drive application is required before booking",
		})
	}

	bookings, err := bc.occupyingBookings(reqCtx, vehicleID)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error checking booking availability",
		})
	}

	// Recompute the cost server-side; the client total is never trusted.
	quote, err := utils.Quote(&vehicle, bookings, request.StartDate, request.EndDate, nil)
	if err != nil {
		if err == utils.ErrPriceNotConfigured {
			return ctx.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: err.Error(),
			})
		}
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}
	if !quote.Available {
		return ctx.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: fmt.Sprintf("Vehicle is not available for the requested dates (%s)", quote.Reason),
		})
	}

	now := time.Now()
	booking := models.Booking{
		ID:                primitive.NewObjectID(),
		VehicleID:         vehicleID,
		RenterID:          user.ID,
		OwnerID:           vehicle.OwnerID,
		StartDate:         request.StartDate,
		EndDate:           request.EndDate,
		TotalCost:         quote.TotalCost,
		DownPayment:       quote.DownPayment,
		RemainingBalance:  utils.RemainingBalanceFor(quote.TotalCost),
		PaymentStatus:     models.StatusPendingOwnerApproval,
		PaymentMethodType: request.PaymentMethodType,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if _, err := config.GetCollection(bc.db, "bookings").InsertOne(reqCtx, booking); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create booking",
		})
	}

	// Notify the owner; all channels are best-effort
	if err := bc.hub.NotifyBookingRequest(vehicle.OwnerID, booking); err != nil {
		log.Printf("Failed to send WebSocket notification to owner: %v", err)
	}
	utils.NotifyUser(bc.db, vehicle.OwnerID,
		"New Booking Request",
		fmt.Sprintf("%s requested %s %s for %s to %s", user.FullName, vehicle.Make, vehicle.Model,
			booking.StartDate.Format("2006-01-02"), booking.EndDate.Format("2006-01-02")),
		"booking_request",
		"/bookings/"+booking.ID.Hex(),
		map[string]interface{}{"bookingId": booking.ID.Hex()})

	return ctx.JSON(http.StatusCreated, models.BookingResponse{
		Status:  http.StatusCreated,
		Message: "Booking created successfully",
		Data:    &booking,
	})
}

// GetUserBookings retrieves all bookings made by the authenticated renter
func (bc *BookingController) GetUserBookings(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, bc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	return bc.listBookings(ctx, bson.M{"renterId": user.ID})
}

// GetOwnerBookings retrieves all bookings on the authenticated owner's vehicles
func (bc *BookingController) GetOwnerBookings(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, bc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	return bc.listBookings(ctx, bson.M{"ownerId": user.ID})
}

func (bc *BookingController) listBookings(ctx echo.Context, filter bson.M) error {
	reqCtx := ctx.Request().Context()

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := config.GetCollection(bc.db, "bookings").Find(reqCtx, filter, findOptions)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error retrieving bookings",
		})
	}
	defer cursor.Close(reqCtx)

	var bookings []models.Booking
	if err := cursor.All(reqCtx, &bookings); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error decoding bookings",
		})
	}

	return ctx.JSON(http.StatusOK, models.BookingsResponse{
		Status:  http.StatusOK,
		Message: "Bookings retrieved successfully",
		Data:    bookings,
	})
}

// GetBooking retrieves a single booking visible to its renter, owner or an admin
func (bc *BookingController) GetBooking(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, bc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	bookingID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid booking ID",
		})
	}

	var booking models.Booking
	err = config.GetCollection(bc.db, "bookings").FindOne(ctx.Request().Context(), bson.M{"_id": bookingID}).Decode(&booking)
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

	if user.Role != models.RoleAdmin && user.ID != booking.RenterID && user.ID != booking.OwnerID {
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "You are not a party to this booking",
		})
	}

	return ctx.JSON(http.StatusOK, models.BookingResponse{
		Status:  http.StatusOK,
		Message: "Booking retrieved successfully",
		Data:    &booking,
	})
}

// transitionBooking moves a booking to a new status inside a transaction,
// re-reading the current status so two concurrent attempts cannot both pass
// the precondition on stale reads. extra is merged into the $set document.
func (bc *BookingController) transitionBooking(ctx context.Context, bookingID primitive.ObjectID, to string, extra bson.M) (*models.Booking, int, string) {
	session, err := bc.db.StartSession()
	if err != nil {
		return nil, http.StatusInternalServerError, "Failed to start transaction"
	}
	defer session.EndSession(ctx)

	var booking models.Booking
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := config.GetCollection(bc.db, "bookings").FindOne(sc, bson.M{"_id": bookingID}).Decode(&booking); err != nil {
			return nil, err
		}

		if !models.CanTransition(booking.PaymentStatus, to) {
			return nil, &transitionConflictError{current: booking.PaymentStatus, requested: to}
		}

		set := bson.M{"paymentStatus": to, "updatedAt": time.Now()}
		for k, v := range extra {
			set[k] = v
		}

		if _, err := config.GetCollection(bc.db, "bookings").UpdateOne(sc,
			bson.M{"_id": bookingID}, bson.M{"$set": set}); err != nil {
			return nil, err
		}

		booking.PaymentStatus = to
		return nil, nil
	})

	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, http.StatusNotFound, "Booking not found"
		}
		if conflict, ok := err.(*transitionConflictError); ok {
			return nil, http.StatusConflict, conflict.Error()
		}
		log.Printf("Booking transition failed: %v", err)
		return nil, http.StatusInternalServerError, "Failed to update booking"
	}

	return &booking, http.StatusOK, ""
}

type transitionConflictError struct {
	current   string
	requested string
}

func (e *transitionConflictError) Error() string {
	return fmt.Sprintf("cannot move booking to %q: current status is %q", e.requested, e.current)
}

// ApproveBooking lets the owner or an admin approve a pending booking request
func (bc *BookingController) ApproveBooking(ctx echo.Context) error {
	return bc.ownerTransition(ctx, models.StatusPendingPayment, nil,
		"Booking Approved", "Your booking request was approved. Please submit the downpayment.")
}

// DeclineBooking lets the owner or an admin decline a pending booking request
func (bc *BookingController) DeclineBooking(ctx echo.Context) error {
	return bc.ownerTransition(ctx, models.StatusDeclinedByOwner, nil,
		"Booking Declined", "Your booking request was declined by the owner.")
}

// MarkReturned lets the owner or an admin mark a confirmed booking as returned
func (bc *BookingController) MarkReturned(ctx echo.Context) error {
	now := time.Now()
	return bc.ownerTransition(ctx, models.StatusReturned, bson.M{"returnedAt": now},
		"Vehicle Returned", "The owner marked the vehicle as returned. You can now leave a review.")
}

// ownerTransition is the shared path for owner/admin gated single-document transitions.
func (bc *BookingController) ownerTransition(ctx echo.Context, to string, extra bson.M, notifTitle, notifMsg string) error {
	user, err := utils.GetUserFromToken(ctx, bc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	bookingID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid booking ID",
		})
	}

	reqCtx := ctx.Request().Context()

	var booking models.Booking
	err = config.GetCollection(bc.db, "bookings").FindOne(reqCtx, bson.M{"_id": bookingID}).Decode(&booking)
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

	if !utils.CanActOnBooking(user, booking.OwnerID) {
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Only the vehicle owner or an admin can perform this action",
		})
	}

	updated, status, msg := bc.transitionBooking(reqCtx, bookingID, to, extra)
	if updated == nil {
		return ctx.JSON(status, models.Response{Status: status, Message: msg})
	}

	if err := bc.hub.NotifyBookingResponse(updated.RenterID, updated); err != nil {
		log.Printf("Failed to send WebSocket notification to renter: %v", err)
	}
	utils.NotifyUser(bc.db, updated.RenterID, notifTitle, notifMsg, "booking_update",
		"/bookings/"+updated.ID.Hex(),
		map[string]interface{}{"bookingId": updated.ID.Hex(), "paymentStatus": to})

	return ctx.JSON(http.StatusOK, models.BookingResponse{
		Status:  http.StatusOK,
		Message: "Booking updated successfully",
		Data:    updated,
	})
}

// SubmitDownpayment handles the renter's downpayment proof and moves the
// booking to downpayment_pending_verification
func (bc *BookingController) SubmitDownpayment(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, bc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	bookingID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid booking ID",
		})
	}

	var request models.PaymentProofRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}

	reqCtx := ctx.Request().Context()

	var booking models.Booking
	err = config.GetCollection(bc.db, "bookings").FindOne(reqCtx, bson.M{"_id": bookingID}).Decode(&booking)
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

	if !utils.CanActOnBooking(user, booking.RenterID) {
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Only the renter can submit the downpayment",
		})
	}

	extra := bson.M{}
	if request.ProofImage != "" {
		decoded, err := base64.StdEncoding.DecodeString(request.ProofImage)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid proof image format",
			})
		}
		ext := request.ProofImageExt
		if ext == "" {
			ext = ".jpg"
		}
		filename := fmt.Sprintf("%s_%s%s", booking.ID.Hex(), uuid.NewString(), ext)
		proofURL, err := utils.UploadFileToPath(decoded, filename, "image", "proofs")
		if err != nil {
			return ctx.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: fmt.Sprintf("Failed to upload payment proof: %v", err),
			})
		}
		extra["paymentProofUrl"] = proofURL
	}
	if request.ReferenceNo != "" {
		extra["paymentIntentId"] = request.ReferenceNo
	}

	updated, status, msg := bc.transitionBooking(reqCtx, bookingID, models.StatusDownpaymentPendingVerification, extra)
	if updated == nil {
		return ctx.JSON(status, models.Response{Status: status, Message: msg})
	}

	utils.NotifyUser(bc.db, updated.OwnerID,
		"Downpayment Submitted",
		fmt.Sprintf("%s submitted a downpayment of %.2f for verification", user.FullName, updated.DownPayment),
		"booking_update",
		"/bookings/"+updated.ID.Hex(),
		map[string]interface{}{"bookingId": updated.ID.Hex()})

	return ctx.JSON(http.StatusOK, models.BookingResponse{
		Status:  http.StatusOK,
		Message: "Downpayment submitted for verification",
		Data:    updated,
	})
}

// ConfirmPayment verifies the downpayment and confirms the booking. The booking
// update, the vehicle calendar append, the chat creation and the platform fee
// record commit in one transaction; the vehicle's availability is re-read inside
// it so concurrent confirmations on the same vehicle cannot double-book.
func (bc *BookingController) ConfirmPayment(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, bc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	bookingID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid booking ID",
		})
	}

	reqCtx := ctx.Request().Context()

	var booking models.Booking
	err = config.GetCollection(bc.db, "bookings").FindOne(reqCtx, bson.M{"_id": bookingID}).Decode(&booking)
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

	if !utils.CanActOnBooking(user, booking.OwnerID) {
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Only the vehicle owner or an admin can confirm payment",
		})
	}

	session, err := bc.db.StartSession()
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to start transaction",
		})
	}
	defer session.EndSession(reqCtx)

	now := time.Now()
	_, err = session.WithTransaction(reqCtx, func(sc mongo.SessionContext) (interface{}, error) {
		// Re-read the booking: its status may have moved since the gate check
		if err := config.GetCollection(bc.db, "bookings").FindOne(sc, bson.M{"_id": bookingID}).Decode(&booking); err != nil {
			return nil, err
		}
		if !models.CanTransition(booking.PaymentStatus, models.StatusConfirmed) {
			return nil, &transitionConflictError{current: booking.PaymentStatus, requested: models.StatusConfirmed}
		}

		// Re-read the vehicle's calendar inside the transaction to avoid lost
		// updates from a concurrent confirmation on the same vehicle
		var vehicle models.Vehicle
		if err := config.GetCollection(bc.db, "vehicles").FindOne(sc, bson.M{"_id": booking.VehicleID}).Decode(&vehicle); err != nil {
			return nil, err
		}
		for _, block := range vehicle.Availability {
			if block.BookingID != nil && *block.BookingID == booking.ID {
				continue
			}
			if utils.Overlaps(booking.StartDate, booking.EndDate, block.StartDate, block.EndDate) {
				return nil, &transitionConflictError{current: booking.PaymentStatus, requested: models.StatusConfirmed}
			}
		}

		if _, err := config.GetCollection(bc.db, "vehicles").UpdateOne(sc,
			bson.M{"_id": booking.VehicleID},
			bson.M{"$push": bson.M{"availability": models.AvailabilityBlock{
				StartDate: booking.StartDate,
				EndDate:   booking.EndDate,
				BookingID: &booking.ID,
			}}}); err != nil {
			return nil, err
		}

		if _, err := config.GetCollection(bc.db, "bookings").UpdateOne(sc,
			bson.M{"_id": bookingID},
			bson.M{"$set": bson.M{
				"paymentStatus":         models.StatusConfirmed,
				"amountPaid":            booking.DownPayment,
				"downpaymentReceivedAt": now,
				"updatedAt":             now,
			}}); err != nil {
			return nil, err
		}

		// Ensure the booking-linked chat exists; chat ID = booking ID
		chatID := booking.ID.Hex()
		chat := models.Chat{
			ID:           chatID,
			BookingID:    &booking.ID,
			Participants: []primitive.ObjectID{booking.RenterID, booking.OwnerID},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		upsert := options.Update().SetUpsert(true)
		if _, err := config.GetCollection(bc.db, "chats").UpdateOne(sc,
			bson.M{"_id": chatID},
			bson.M{"$setOnInsert": chat}, upsert); err != nil {
			return nil, err
		}
		welcome := models.ChatMessage{
			ID:        primitive.NewObjectID(),
			ChatID:    chatID,
			SenderID:  booking.OwnerID,
			Text:      "Booking confirmed. Use this chat to arrange pickup and return.",
			IsSystem:  true,
			Timestamp: now,
		}
		if _, err := config.GetCollection(bc.db, "messages").InsertOne(sc, welcome); err != nil {
			return nil, err
		}

		fee := models.PlatformFee{
			ID:          primitive.NewObjectID(),
			BookingID:   booking.ID,
			OwnerID:     booking.OwnerID,
			BookingCost: booking.TotalCost,
			FeeRate:     models.PlatformFeeRate,
			FeeAmount:   utils.PlatformFeeFor(booking.TotalCost),
			CreatedAt:   now,
		}
		if _, err := config.GetCollection(bc.db, "platform_fees").InsertOne(sc, fee); err != nil {
			return nil, err
		}

		return nil, nil
	})

	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ctx.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Booking not found",
			})
		}
		if conflict, ok := err.(*transitionConflictError); ok {
			return ctx.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: conflict.Error(),
			})
		}
		log.Printf("Booking confirmation failed: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to confirm booking",
		})
	}

	booking.PaymentStatus = models.StatusConfirmed
	booking.AmountPaid = booking.DownPayment

	if err := bc.hub.NotifyBookingResponse(booking.RenterID, booking); err != nil {
		log.Printf("Failed to send WebSocket notification to renter: %v", err)
	}
	utils.NotifyUser(bc.db, booking.RenterID,
		"Booking Confirmed",
		"Your downpayment was verified and your booking is confirmed.",
		"booking_update",
		"/bookings/"+booking.ID.Hex(),
		map[string]interface{}{"bookingId": booking.ID.Hex(), "paymentStatus": models.StatusConfirmed})

	return ctx.JSON(http.StatusOK, models.BookingResponse{
		Status:  http.StatusOK,
		Message: "Payment confirmed, booking is now confirmed",
		Data:    &booking,
	})
}

// CancelBooking lets the renter cancel before confirmation. Cancelling a
// confirmed booking is admin-only and releases the vehicle's calendar entry.
func (bc *BookingController) CancelBooking(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, bc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	bookingID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid booking ID",
		})
	}

	reqCtx := ctx.Request().Context()

	var booking models.Booking
	err = config.GetCollection(bc.db, "bookings").FindOne(reqCtx, bson.M{"_id": bookingID}).Decode(&booking)
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

	if !utils.CanActOnBooking(user, booking.RenterID) {
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Only the renter or an admin can cancel this booking",
		})
	}

	session, err := bc.db.StartSession()
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to start transaction",
		})
	}
	defer session.EndSession(reqCtx)

	now := time.Now()
	_, err = session.WithTransaction(reqCtx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := config.GetCollection(bc.db, "bookings").FindOne(sc, bson.M{"_id": bookingID}).Decode(&booking); err != nil {
			return nil, err
		}

		if !models.CanTransition(booking.PaymentStatus, models.StatusCancelledByRenter) {
			return nil, &transitionConflictError{current: booking.PaymentStatus, requested: models.StatusCancelledByRenter}
		}
		wasConfirmed := booking.PaymentStatus == models.StatusConfirmed
		if wasConfirmed && user.Role != models.RoleAdmin {
			return nil, &transitionConflictError{current: booking.PaymentStatus, requested: models.StatusCancelledByRenter}
		}

		if _, err := config.GetCollection(bc.db, "bookings").UpdateOne(sc,
			bson.M{"_id": bookingID},
			bson.M{"$set": bson.M{
				"paymentStatus": models.StatusCancelledByRenter,
				"cancelledAt":   now,
				"updatedAt":     now,
			}}); err != nil {
			return nil, err
		}

		// A confirmed booking occupies the calendar; release the tagged entry
		if wasConfirmed {
			if _, err := config.GetCollection(bc.db, "vehicles").UpdateOne(sc,
				bson.M{"_id": booking.VehicleID},
				bson.M{"$pull": bson.M{"availability": bson.M{"bookingId": booking.ID}}}); err != nil {
				return nil, err
			}
		}

		return nil, nil
	})

	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ctx.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Booking not found",
			})
		}
		if conflict, ok := err.(*transitionConflictError); ok {
			return ctx.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: conflict.Error(),
			})
		}
		log.Printf("Booking cancellation failed: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to cancel booking",
		})
	}

	booking.PaymentStatus = models.StatusCancelledByRenter

	utils.NotifyUser(bc.db, booking.OwnerID,
		"Booking Cancelled",
		fmt.Sprintf("%s cancelled their booking request", user.FullName),
		"booking_update",
		"/bookings/"+booking.ID.Hex(),
		map[string]interface{}{"bookingId": booking.ID.Hex()})

	return ctx.JSON(http.StatusOK, models.BookingResponse{
		Status:  http.StatusOK,
		Message: "Booking cancelled",
		Data:    &booking,
	})
}

// UpdateBookingStatus is the owner/admin generic transition endpoint; the
// requested status still has to be reachable from the current one.
func (bc *BookingController) UpdateBookingStatus(ctx echo.Context) error {
	var request models.BookingStatusUpdateRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}

	switch request.Status {
	case models.StatusPendingPayment, models.StatusDeclinedByOwner,
		models.StatusDownpaymentVerified, models.StatusReturned, models.StatusCompleted:
	default:
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Status %q cannot be set through this endpoint", request.Status),
		})
	}

	var extra bson.M
	if request.Status == models.StatusReturned {
		extra = bson.M{"returnedAt": time.Now()}
	}

	return bc.ownerTransition(ctx, request.Status, extra,
		"Booking Updated", fmt.Sprintf("Your booking status changed to %s", request.Status))
}

// GetPaymentQR returns QR-encoded manual payment instructions for a booking
func (bc *BookingController) GetPaymentQR(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, bc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	bookingID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid booking ID",
		})
	}

	var booking models.Booking
	err = config.GetCollection(bc.db, "bookings").FindOne(ctx.Request().Context(), bson.M{"_id": bookingID}).Decode(&booking)
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

	if !utils.CanActOnBooking(user, booking.RenterID) {
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Only the renter can request payment instructions",
		})
	}

	content := fmt.Sprintf("driverent:booking=%s;amount=%.2f;ref=%s",
		booking.ID.Hex(), booking.DownPayment, booking.ID.Hex())
	qrDataURI, err := utils.GeneratePaymentQRCode(content)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payment QR generated",
		Data: map[string]interface{}{
			"qrCode":    qrDataURI,
			"amount":    booking.DownPayment,
			"bookingId": booking.ID.Hex(),
		},
	})
}

// CreateCheckoutSession creates a gateway checkout session for the booking's
// downpayment and returns the redirect URL
func (bc *BookingController) CreateCheckoutSession(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, bc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	bookingID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid booking ID",
		})
	}

	reqCtx := ctx.Request().Context()

	var booking models.Booking
	err = config.GetCollection(bc.db, "bookings").FindOne(reqCtx, bson.M{"_id": bookingID}).Decode(&booking)
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

	if !utils.CanActOnBooking(user, booking.RenterID) {
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Only the renter can pay for this booking",
		})
	}

	if booking.PaymentStatus != models.StatusPendingPayment {
		return ctx.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: fmt.Sprintf("Booking is not awaiting payment: current status is %q", booking.PaymentStatus),
		})
	}

	checkoutURL, intentID, err := bc.payments.CreateCheckoutSession(reqCtx, &booking, user.ID.Hex())
	if err != nil {
		log.Printf("Failed to create checkout session for booking %s: %v", booking.ID.Hex(), err)
		return ctx.JSON(http.StatusBadGateway, models.Response{
			Status:  http.StatusBadGateway,
			Message: "Payment gateway error",
		})
	}

	if intentID != "" {
		if _, err := config.GetCollection(bc.db, "bookings").UpdateOne(reqCtx,
			bson.M{"_id": bookingID},
			bson.M{"$set": bson.M{"paymentIntentId": intentID, "updatedAt": time.Now()}}); err != nil {
			log.Printf("Failed to record payment intent for booking %s: %v", booking.ID.Hex(), err)
		}
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Checkout session created",
		Data:    map[string]string{"checkoutUrl": checkoutURL},
	})
}

// DeleteBooking removes a booking record entirely. Admin only.
func (bc *BookingController) DeleteBooking(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, bc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}
	if user.Role != models.RoleAdmin {
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Only admins can delete bookings",
		})
	}

	bookingID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid booking ID",
		})
	}

	reqCtx := ctx.Request().Context()

	// Release any calendar entry before deleting the record
	var booking models.Booking
	err = config.GetCollection(bc.db, "bookings").FindOne(reqCtx, bson.M{"_id": bookingID}).Decode(&booking)
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

	if _, err := config.GetCollection(bc.db, "vehicles").UpdateOne(reqCtx,
		bson.M{"_id": booking.VehicleID},
		bson.M{"$pull": bson.M{"availability": bson.M{"bookingId": booking.ID}}}); err != nil {
		log.Printf("Failed to release calendar entry for deleted booking %s: %v", booking.ID.Hex(), err)
	}

	if _, err := config.GetCollection(bc.db, "bookings").DeleteOne(reqCtx, bson.M{"_id": bookingID}); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete booking",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Booking deleted",
	})
}
