// controllers/review_controller.go
package controllers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/driverent/driverent_backend/config"
	"github.com/driverent/driverent_backend/models"
	"github.com/driverent/driverent_backend/utils"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReviewController handles review endpoints
type ReviewController struct {
	db *mongo.Client
}

// NewReviewController creates a new review controller
func NewReviewController(db *mongo.Client) *ReviewController {
	return &ReviewController{db: db}
}

type reviewConflictError struct {
	message string
}

func (e *reviewConflictError) Error() string { return e.message }

// CreateReview lets the renter review a returned or completed booking. The
// booking's reviewSubmitted flag and the review insert commit together, so a
// double submission cannot produce two reviews even under the unique index.
func (rc *ReviewController) CreateReview(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, rc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var request models.ReviewRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if request.Rating < 1 || request.Rating > 5 {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "rating must be between 1 and 5",
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

	session, err := rc.db.StartSession()
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to start transaction",
		})
	}
	defer session.EndSession(reqCtx)

	now := time.Now()
	var review models.Review
	var booking models.Booking

	_, err = session.WithTransaction(reqCtx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := config.GetCollection(rc.db, "bookings").FindOne(sc, bson.M{"_id": bookingID}).Decode(&booking); err != nil {
			return nil, err
		}

		if booking.RenterID != user.ID {
			return nil, &reviewConflictError{message: "Only the renter can review this booking"}
		}
		if !models.IsReviewEligible(booking.PaymentStatus) {
			return nil, &reviewConflictError{
				message: fmt.Sprintf("Booking cannot be reviewed in status %q", booking.PaymentStatus),
			}
		}
		if booking.ReviewSubmitted {
			return nil, &reviewConflictError{message: "A review was already submitted for this booking"}
		}

		review = models.Review{
			ID:         primitive.NewObjectID(),
			BookingID:  booking.ID,
			VehicleID:  booking.VehicleID,
			RenterID:   booking.RenterID,
			OwnerID:    booking.OwnerID,
			RenterName: user.FullName,
			Rating:     request.Rating,
			Categories: request.Categories,
			Comment:    utils.SanitizeInput(request.Comment),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if _, err := config.GetCollection(rc.db, "reviews").InsertOne(sc, review); err != nil {
			return nil, err
		}

		if _, err := config.GetCollection(rc.db, "bookings").UpdateOne(sc,
			bson.M{"_id": booking.ID},
			bson.M{"$set": bson.M{"reviewSubmitted": true, "updatedAt": now}}); err != nil {
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
		if conflict, ok := err.(*reviewConflictError); ok {
			return ctx.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: conflict.Error(),
			})
		}
		if mongo.IsDuplicateKeyError(err) {
			return ctx.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "A review was already submitted for this booking",
			})
		}
		log.Printf("Review creation failed: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create review",
		})
	}

	utils.NotifyUser(rc.db, booking.OwnerID,
		"New Review",
		fmt.Sprintf("%s left a %d-star review on your vehicle", user.FullName, review.Rating),
		"review",
		"/vehicles/"+booking.VehicleID.Hex(),
		map[string]interface{}{"reviewId": review.ID.Hex()})

	return ctx.JSON(http.StatusCreated, models.ReviewResponse{
		Status:  http.StatusCreated,
		Message: "Review created successfully",
		Data:    &review,
	})
}

// GetVehicleReviews lists reviews for a vehicle, newest first, along with the
// average rating
func (rc *ReviewController) GetVehicleReviews(ctx echo.Context) error {
	vehicleID, err := primitive.ObjectIDFromHex(ctx.Param("vehicleId"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid vehicle ID",
		})
	}

	reqCtx := ctx.Request().Context()

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := config.GetCollection(rc.db, "reviews").Find(reqCtx, bson.M{"vehicleId": vehicleID}, findOptions)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error retrieving reviews",
		})
	}
	defer cursor.Close(reqCtx)

	var reviews []models.Review
	if err := cursor.All(reqCtx, &reviews); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error decoding reviews",
		})
	}

	var average float64
	if len(reviews) > 0 {
		var sum int
		for _, r := range reviews {
			sum += r.Rating
		}
		average = utils.RoundMoney(float64(sum) / float64(len(reviews)))
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Reviews retrieved successfully",
		Data: map[string]interface{}{
			"reviews":       reviews,
			"averageRating": average,
			"count":         len(reviews),
		},
	})
}

// GetOwnerReviews lists reviews across all of an owner's vehicles
func (rc *ReviewController) GetOwnerReviews(ctx echo.Context) error {
	ownerID, err := primitive.ObjectIDFromHex(ctx.Param("hostId"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid owner ID",
		})
	}

	reqCtx := ctx.Request().Context()

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := config.GetCollection(rc.db, "reviews").Find(reqCtx, bson.M{"ownerId": ownerID}, findOptions)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error retrieving reviews",
		})
	}
	defer cursor.Close(reqCtx)

	var reviews []models.Review
	if err := cursor.All(reqCtx, &reviews); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error decoding reviews",
		})
	}

	return ctx.JSON(http.StatusOK, models.ReviewsResponse{
		Status:  http.StatusOK,
		Message: "Reviews retrieved successfully",
		Data:    reviews,
	})
}

// ReplyToReview lets the vehicle owner attach a single reply to a review
func (rc *ReviewController) ReplyToReview(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, rc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	reviewID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid review ID",
		})
	}

	var request models.ReviewReplyRequest
	if err := ctx.Bind(&request); err != nil || request.ReplyText == "" {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "replyText is required",
		})
	}

	reqCtx := ctx.Request().Context()

	var review models.Review
	err = config.GetCollection(rc.db, "reviews").FindOne(reqCtx, bson.M{"_id": reviewID}).Decode(&review)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ctx.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Review not found",
			})
		}
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error retrieving review",
		})
	}

	if user.Role != models.RoleAdmin && review.OwnerID != user.ID {
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Only the vehicle owner can reply to this review",
		})
	}
	if review.Reply != nil {
		return ctx.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "This review already has a reply",
		})
	}

	reply := &models.ReviewReply{
		OwnerID:   review.OwnerID,
		ReplyText: request.ReplyText,
		CreatedAt: time.Now(),
	}

	if _, err := config.GetCollection(rc.db, "reviews").UpdateOne(reqCtx,
		bson.M{"_id": reviewID, "reply": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"reply": reply, "updatedAt": time.Now()}}); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to save reply",
		})
	}

	review.Reply = reply

	utils.NotifyUser(rc.db, review.RenterID,
		"Review Reply",
		"The owner replied to your review",
		"review",
		"/vehicles/"+review.VehicleID.Hex(),
		map[string]interface{}{"reviewId": review.ID.Hex()})

	return ctx.JSON(http.StatusOK, models.ReviewResponse{
		Status:  http.StatusOK,
		Message: "Reply saved",
		Data:    &review,
	})
}
