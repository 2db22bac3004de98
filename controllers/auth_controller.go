package controllers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/driverent/driverent_backend/config"
	"github.com/driverent/driverent_backend/middleware"
	"github.com/driverent/driverent_backend/models"
	"github.com/driverent/driverent_backend/utils"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// AuthController handles signup, login and session management
type AuthController struct {
	db       *mongo.Client
	validate *validator.Validate
}

// NewAuthController creates a new auth controller
func NewAuthController(db *mongo.Client) *AuthController {
	return &AuthController{db: db, validate: validator.New()}
}

// Signup registers a new user. Everyone starts as a renter; the owner role is
// granted through an approved host application.
func (ac *AuthController) Signup(ctx echo.Context) error {
	var request models.SignupRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if err := ac.validate.Struct(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	email, err := utils.SanitizeEmail(request.Email)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email address",
		})
	}

	reqCtx := ctx.Request().Context()
	count, err := config.GetCollection(ac.db, "users").CountDocuments(reqCtx, bson.M{"email": email})
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error checking existing users",
		})
	}
	if count > 0 {
		return ctx.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "An account with this email already exists",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to secure password",
		})
	}

	now := time.Now()
	user := models.User{
		ID:             primitive.NewObjectID(),
		Email:          email,
		Password:       string(hashedPassword),
		FullName:       utils.SanitizeInput(request.FullName),
		Role:           models.RoleRenter,
		Phone:          request.Phone,
		DateOfBirth:    request.DateOfBirth,
		Location:       request.Location,
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := config.GetCollection(ac.db, "users").InsertOne(reqCtx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ctx.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "An account with this email already exists",
			})
		}
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create account",
		})
	}

	token, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	user.Password = ""
	return ctx.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Account created successfully",
		Data: models.LoginResponse{
			Token:        token,
			RefreshToken: refreshToken,
			User:         &user,
		},
	})
}

// Login authenticates a user with email and password
func (ac *AuthController) Login(ctx echo.Context) error {
	var request models.LoginRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if err := ac.validate.Struct(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	reqCtx := ctx.Request().Context()
	email, err := utils.SanitizeEmail(request.Email)
	if err != nil {
		// Same response for malformed email, unknown email and wrong password
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}

	var user models.User
	if err := config.GetCollection(ac.db, "users").FindOne(reqCtx, bson.M{"email": email}).Decode(&user); err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(request.Password)); err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}

	if user.IsBlocked {
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "This account has been blocked",
		})
	}

	token, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	now := time.Now()
	if _, err := config.GetCollection(ac.db, "users").UpdateOne(reqCtx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"lastActivityAt": now, "updatedAt": now}}); err != nil {
		log.Printf("Failed to record login activity for %s: %v", user.ID.Hex(), err)
	}

	user.Password = ""
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: models.LoginResponse{
			Token:        token,
			RefreshToken: refreshToken,
			User:         &user,
		},
	})
}

// RefreshToken exchanges a valid refresh token for a new token pair
func (ac *AuthController) RefreshToken(ctx echo.Context) error {
	var request struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := ctx.Bind(&request); err != nil || request.RefreshToken == "" {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "refreshToken is required",
		})
	}

	if middleware.IsTokenBlacklisted(request.RefreshToken) {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Refresh token has been revoked",
		})
	}

	claims := &middleware.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(request.RefreshToken, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(middleware.GetJWTSecret()), nil
	})
	if err != nil || !token.Valid {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid refresh token",
		})
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid refresh token",
		})
	}

	// Re-read the user so role changes and blocks take effect on refresh
	var user models.User
	err = config.GetCollection(ac.db, "users").FindOne(ctx.Request().Context(), bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Account no longer exists",
		})
	}
	if user.IsBlocked {
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "This account has been blocked",
		})
	}

	newToken, newRefreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	user.Password = ""
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Token refreshed",
		Data: models.LoginResponse{
			Token:        newToken,
			RefreshToken: newRefreshToken,
			User:         &user,
		},
	})
}

// Logout revokes the presented access token
func (ac *AuthController) Logout(ctx echo.Context) error {
	authHeader := ctx.Request().Header.Get("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" || tokenString == authHeader {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "No token provided",
		})
	}

	claims := middleware.GetUserFromToken(ctx)
	expiry := time.Now().Add(72 * time.Hour)
	if claims != nil && claims.ExpiresAt > 0 {
		expiry = time.Unix(claims.ExpiresAt, 0)
	}
	middleware.BlacklistToken(tokenString, expiry)

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Logged out successfully",
	})
}

// ForgotPassword emails a one-time reset code. The response is identical
// whether or not the email exists.
func (ac *AuthController) ForgotPassword(ctx echo.Context) error {
	var request struct {
		Email string `json:"email"`
	}
	if err := ctx.Bind(&request); err != nil || request.Email == "" {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "email is required",
		})
	}

	genericResponse := func() error {
		return ctx.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "If the email exists, a reset code was sent",
		})
	}

	rdb := config.GetRedisClient()
	if rdb == nil {
		log.Printf("Forgot password requested but Redis is unavailable")
		return genericResponse()
	}

	reqCtx := ctx.Request().Context()
	email, err := utils.SanitizeEmail(request.Email)
	if err != nil {
		return genericResponse()
	}

	var user models.User
	if err := config.GetCollection(ac.db, "users").FindOne(reqCtx, bson.M{"email": email}).Decode(&user); err != nil {
		return genericResponse()
	}

	if err := utils.ValidateOTPAttempts(user.ID.Hex(), rdb); err != nil {
		return ctx.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: "Too many reset attempts, try again later",
		})
	}

	code, err := utils.GenerateSecureOTP()
	if err != nil {
		log.Printf("Failed to generate reset code: %v", err)
		return genericResponse()
	}

	if err := rdb.Set(reqCtx, "pwreset:"+email, code, 15*time.Minute).Err(); err != nil {
		log.Printf("Failed to store reset code: %v", err)
		return genericResponse()
	}

	utils.EmailUser(ac.db, user.ID, "Password Reset",
		"Your password reset code is: "+code+"\nIt expires in 15 minutes.")

	return genericResponse()
}

// ResetPassword sets a new password given a valid reset code
func (ac *AuthController) ResetPassword(ctx echo.Context) error {
	var request struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"newPassword"`
	}
	if err := ctx.Bind(&request); err != nil || request.Email == "" || request.Code == "" {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "email and code are required",
		})
	}
	if len(request.NewPassword) < 8 {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "New password must be at least 8 characters",
		})
	}

	rdb := config.GetRedisClient()
	if rdb == nil {
		return ctx.JSON(http.StatusServiceUnavailable, models.Response{
			Status:  http.StatusServiceUnavailable,
			Message: "Password reset is temporarily unavailable",
		})
	}

	reqCtx := ctx.Request().Context()
	email, err := utils.SanitizeEmail(request.Email)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email address",
		})
	}

	stored, err := rdb.Get(reqCtx, "pwreset:"+email).Result()
	if err != nil || stored != request.Code {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid or expired reset code",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(request.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to secure password",
		})
	}

	result, err := config.GetCollection(ac.db, "users").UpdateOne(reqCtx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"password": string(hashedPassword), "updatedAt": time.Now()}})
	if err != nil || result.MatchedCount == 0 {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to reset password",
		})
	}

	rdb.Del(reqCtx, "pwreset:"+email)

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Password reset successfully",
	})
}

// ChangePassword updates the authenticated user's password
func (ac *AuthController) ChangePassword(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, ac.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var request models.ChangePasswordRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if len(request.NewPassword) < 8 {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "New password must be at least 8 characters",
		})
	}

	reqCtx := ctx.Request().Context()

	// GetUserFromToken clears the hash; reload it for comparison
	var stored models.User
	if err := config.GetCollection(ac.db, "users").FindOne(reqCtx, bson.M{"_id": user.ID}).Decode(&stored); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error retrieving account",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(request.OldPassword)); err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Current password is incorrect",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(request.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to secure password",
		})
	}

	if _, err := config.GetCollection(ac.db, "users").UpdateOne(reqCtx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"password": string(hashedPassword), "updatedAt": time.Now()}}); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update password",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Password changed successfully",
	})
}
