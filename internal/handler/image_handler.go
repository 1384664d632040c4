package handler

import (
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/parkingmate/service-parking/internal/application"
	"github.com/parkingmate/service-parking/internal/common/auth"
	"github.com/parkingmate/service-parking/internal/common/middleware"
	"github.com/parkingmate/service-parking/internal/common/response"
)

// ImageHandler handles image uploads.
type ImageHandler struct {
	service *application.ImageService
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(service *application.ImageService) *ImageHandler {
	return &ImageHandler{service: service}
}

// RegisterRoutes registers image routes.
func (h *ImageHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	images := r.Group("/api/v1/images")
	images.Use(middleware.AuthMiddleware(jwtManager))
	{
		images.POST("/parking-spaces", h.UploadSpaceImages)
		images.POST("/upload", h.UploadImage)
		images.DELETE("", h.DeleteImage)
	}
}

// UploadSpaceImages handles POST /api/v1/images/parking-spaces with multipart field "files".
func (h *ImageHandler) UploadSpaceImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "multipart form with files is required")
		return
	}

	headers := form.File["files"]
	files := make([]application.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, closer, err := openUpload(fh)
		if err != nil {
			response.BadRequest(c, "cannot read uploaded file "+fh.Filename)
			return
		}
		defer closer.Close()
		files = append(files, f)
	}

	result, err := h.service.UploadSpaceImages(c.Request.Context(), files)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// UploadImage handles POST /api/v1/images/upload with multipart fields "file" and "folder".
func (h *ImageHandler) UploadImage(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	f, closer, err := openUpload(fh)
	if err != nil {
		response.BadRequest(c, "cannot read uploaded file "+fh.Filename)
		return
	}
	defer closer.Close()

	result, err := h.service.UploadImage(c.Request.Context(), f, c.PostForm("folder"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// DeleteImage handles DELETE /api/v1/images?url=.
func (h *ImageHandler) DeleteImage(c *gin.Context) {
	if err := h.service.DeleteImage(c.Request.Context(), c.Query("url")); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "image deleted"})
}

func openUpload(fh *multipart.FileHeader) (application.UploadFile, io.Closer, error) {
	f, err := fh.Open()
	if err != nil {
		return application.UploadFile{}, nil, err
	}
	return application.UploadFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Content:     f,
	}, f, nil
}
