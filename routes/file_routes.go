package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/driverent/driverent_backend/models"
	"github.com/labstack/echo/v4"
)

// RegisterFileRoutes sets up routes serving uploaded media
func RegisterFileRoutes(e *echo.Echo) {
	e.GET("/uploads/*", ServeFile)
}

// ServeFile serves an uploaded file, rejecting directory traversal and listing
func ServeFile(c echo.Context) error {
	path := c.Param("*")
	if path == "" {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "File not found",
		})
	}

	cleanPath := filepath.Clean(path)
	if cleanPath == ".." || strings.HasPrefix(cleanPath, "../") {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Access denied",
		})
	}

	fullPath := filepath.Join("uploads", cleanPath)

	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "File not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error accessing file",
		})
	}

	if info.IsDir() {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Access denied",
		})
	}

	// Uploaded files are immutable; cache aggressively
	c.Response().Header().Set("Cache-Control", "public, max-age=31536000")
	c.Response().Header().Set("Expires", time.Now().AddDate(1, 0, 0).Format(time.RFC1123))

	return c.File(fullPath)
}
