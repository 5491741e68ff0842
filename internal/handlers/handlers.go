package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/argotrack/scan-api/internal/classifier"
	"github.com/argotrack/scan-api/internal/imaging"
	"github.com/argotrack/scan-api/internal/usecase"
)

// MaxUploadSize caps scan uploads at 2 MB.
const MaxUploadSize = 2 << 20

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, uc *usecase.ScanUseCase, middleware ...gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api", middleware...)

	api.POST("/scan", func(c *gin.Context) {
		userID := c.PostForm("userId")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}

		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
			return
		}
		if file.Size > MaxUploadSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Max Image 2 MB"})
			return
		}

		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unable to open image"})
			return
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
			return
		}

		upload := usecase.Upload{
			Filename:    file.Filename,
			ContentType: file.Header.Get("Content-Type"),
			Data:        data,
		}
		record, err := uc.CreateScan(c.Request.Context(), userID, upload)
		if err != nil {
			status, message := mapScanError(err)
			c.JSON(status, gin.H{"error": message})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message":  "Scan successful",
			"scanData": record,
		})
	})

	api.GET("/scan/:userId", func(c *gin.Context) {
		records, err := uc.ListScans(c.Request.Context(), c.Param("userId"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, records)
	})

	api.GET("/scan/:userId/:scanId", func(c *gin.Context) {
		record, err := uc.GetScan(c.Request.Context(), c.Param("userId"), c.Param("scanId"))
		if err != nil {
			status, message := mapScanError(err)
			c.JSON(status, gin.H{"error": message})
			return
		}
		c.JSON(http.StatusOK, record)
	})

	api.DELETE("/scan/:userId/:scanId", func(c *gin.Context) {
		if err := uc.DeleteScan(c.Request.Context(), c.Param("userId"), c.Param("scanId")); err != nil {
			status, message := mapScanError(err)
			c.JSON(status, gin.H{"error": message})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Scan deleted successfully"})
	})

	api.DELETE("/scans/:userId", func(c *gin.Context) {
		if err := uc.DeleteAllScans(c.Request.Context(), c.Param("userId")); err != nil {
			status, message := mapScanError(err)
			c.JSON(status, gin.H{"error": message})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "All scans for the user deleted successfully"})
	})

	api.GET("/metrics", func(c *gin.Context) {
		summary, err := uc.GetMetricsSummary(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, summary)
	})
}

// mapScanError translates pipeline errors into HTTP responses.
func mapScanError(err error) (int, string) {
	switch {
	case errors.Is(err, imaging.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, "Invalid file type. Only JPEG, PNG and JPG are allowed."
	case errors.Is(err, imaging.ErrInvalidImage):
		return http.StatusBadRequest, "The uploaded file is not a valid image."
	case errors.Is(err, usecase.ErrNotTomato):
		return http.StatusBadRequest, "The image is not a tomato."
	case errors.Is(err, classifier.ErrModelUnavailable):
		return http.StatusServiceUnavailable, "Classification model is unavailable."
	case errors.Is(err, usecase.ErrScanNotFound):
		return http.StatusNotFound, "Scan not found"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
