package postcontrol

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for postcontrol photos.
type Handler struct {
	service *Service
}

// NewHandler creates a new postcontrol handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers postcontrol routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	photos := r.Group("/orders/:id/postcontrol")
	{
		photos.POST("", h.UploadPhoto)
		photos.GET("", h.ListPhotos)
	}
	r.PUT("/postcontrol/:photo_id/resolution", h.ResolvePhoto)
}

// UploadPhoto accepts a multipart photo upload for an order.
func (h *Handler) UploadPhoto(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_order_id"})
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo_required"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_photo"})
		return
	}
	defer src.Close()

	var courierID *int64
	if raw := c.GetHeader("X-Actor-ID"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			courierID = &id
		}
	}

	photo, err := h.service.UploadPhoto(c.Request.Context(), orderID, courierID,
		file.Filename, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload_failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"photo": photo})
}

// ListPhotos returns an order's photos with download links.
func (h *Handler) ListPhotos(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_order_id"})
		return
	}

	photos, err := h.service.ListPhotos(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"photos": photos})
}

// ResolvePhotoRequest carries the review verdict.
type ResolvePhotoRequest struct {
	Resolution Resolution `json:"resolution" binding:"required,oneof=accepted declined"`
	Comment    *string    `json:"comment"`
}

// ResolvePhoto accepts or declines a pending photo.
func (h *Handler) ResolvePhoto(c *gin.Context) {
	photoID, err := strconv.ParseInt(c.Param("photo_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_photo_id"})
		return
	}

	var req ResolvePhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var reviewerID *int64
	if raw := c.GetHeader("X-Actor-ID"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			reviewerID = &id
		}
	}

	photo, err := h.service.Resolve(c.Request.Context(), photoID, req.Resolution, reviewerID, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, ErrPhotoNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "photo_not_found"})
		case errors.Is(err, ErrAlreadyResolved):
			c.JSON(http.StatusConflict, gin.H{"error": "photo_already_resolved"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"photo": photo})
}
