package controllers

import (
	"errors"
	"net/http"

	"github.com/aimoney/aimoney-api/logger"
	"github.com/aimoney/aimoney-api/middleware"
	"github.com/aimoney/aimoney-api/services"
	"github.com/aimoney/aimoney-api/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadController serves image uploads and, for the local store, the files themselves
type UploadController struct {
	images services.ImageService
	local  *services.LocalImageService
}

// NewUploadController creates an upload controller. local is nil when uploads go to S3.
func NewUploadController(images services.ImageService, local *services.LocalImageService) *UploadController {
	return &UploadController{images: images, local: local}
}

// UploadImage handles POST /api/v1/uploads - multipart "file" with an optional "folder"
func (ctrl *UploadController) UploadImage(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, utils.MaxFileSize+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ctrl.respondUploadError(c, session, &utils.FileUploadError{
				Code:    "FILE_TOO_LARGE",
				Message: "File size exceeds maximum allowed size of 5 MB",
			})
			return
		}
		respondError(c, http.StatusBadRequest, "NO_FILE", "An image file is required in the \"file\" field")
		return
	}

	folder, err := utils.SanitizeFolder(c.PostForm("folder"))
	if err != nil {
		ctrl.respondUploadError(c, session, err)
		return
	}

	image, err := ctrl.images.UploadImage(c.Request.Context(), folder, fileHeader)
	if err != nil {
		ctrl.respondUploadError(c, session, err)
		return
	}

	logger.FromCtx(c.Request.Context()).Info("Image uploaded",
		zap.String("key", image.Key),
		zap.String("uploaded_by", session.Email),
	)
	respondSuccess(c, http.StatusCreated, image)
}

func (ctrl *UploadController) respondUploadError(c *gin.Context, session *middleware.Session, err error) {
	var fileErr *utils.FileUploadError
	if errors.As(err, &fileErr) {
		respondError(c, http.StatusBadRequest, fileErr.Code, fileErr.Message)
		return
	}

	logger.FromCtx(c.Request.Context()).Error("Image upload failed", zap.String("uploaded_by", session.Email), zap.Error(err))
	respondError(c, http.StatusInternalServerError, "UPLOAD_ERROR", "Failed to upload image")
}

// GetUploadedImage handles GET /api/v1/uploads/:folder/:filename - serves locally stored images
func (ctrl *UploadController) GetUploadedImage(c *gin.Context) {
	if ctrl.local == nil {
		respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "Image not found")
		return
	}

	filePath, err := ctrl.local.Path(c.Param("folder"), c.Param("filename"))
	if err != nil {
		respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "Image not found")
		return
	}

	c.Header("Cache-Control", "public, max-age=86400") // Cache for 24 hours
	c.File(filePath)
}
