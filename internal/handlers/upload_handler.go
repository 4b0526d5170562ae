package handlers

import (
	"mime/multipart"

	"modelforge/internal/middleware"
	"modelforge/internal/models"
	"modelforge/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// UploadHandler handles HTTP requests for file uploads.
type UploadHandler struct {
	service  *services.UploadService
	sessions *session.Store
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(service *services.UploadService, sessions *session.Store) *UploadHandler {
	return &UploadHandler{
		service:  service,
		sessions: sessions,
	}
}

// RegisterRoutes registers the upload routes with the Fiber app. Every
// upload operation requires an authenticated session.
func (h *UploadHandler) RegisterRoutes(router fiber.Router) {
	uploadRoutes := router.Group("/upload", middleware.RequireAuth(h.sessions))
	uploadRoutes.Post("/avatar", h.HandleUploadAvatar)
	uploadRoutes.Post("/preview", h.HandleGeneratePreview)
	uploadRoutes.Post("/project/:projectId", h.HandleUploadProjectImages)
	uploadRoutes.Delete("/image/:imageId", h.HandleDeleteImage)
}

// HandleUploadAvatar stores a single image as the user's avatar.
func (h *UploadHandler) HandleUploadAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return fail(c, services.ErrNoFile)
	}

	userID, _ := middleware.UserID(c)
	avatarPath, err := h.service.UploadAvatar(userID, file)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Avatar updated",
		"avatarPath": avatarPath,
	})
}

// HandleGeneratePreview stores a single image and returns a preview
// artifact reference for it.
func (h *UploadHandler) HandleGeneratePreview(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return fail(c, services.ErrNoFile)
	}

	previewURL, err := h.service.GeneratePreview(file)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    "Preview ready",
		"previewUrl": previewURL,
	})
}

// uploadedFileResponse is the JSON shape of one stored image; file_path is
// the URL the file is served under, not its disk location.
type uploadedFileResponse struct {
	ID           uint   `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	FilePath     string `json:"file_path"`
	FileSize     int64  `json:"file_size"`
	MimeType     string `json:"mime_type"`
	CreatedAt    string `json:"created_at"`
}

// HandleUploadProjectImages stores a batch of up to MaxFilesPerBatch
// images for an owned project.
func (h *UploadHandler) HandleUploadProjectImages(c *fiber.Ctx) error {
	projectID, err := parseIDParam(c, "projectId")
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "InvalidID", "Project ID must be a number")
	}

	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files = form.File["images"]
	}

	userID, _ := middleware.UserID(c)
	images, err := h.service.UploadProjectImages(userID, projectID, files)
	if err != nil {
		return fail(c, err)
	}

	uploaded := make([]uploadedFileResponse, 0, len(images))
	for _, img := range images {
		uploaded = append(uploaded, toUploadedFileResponse(img))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Images uploaded successfully",
		"files":   uploaded,
	})
}

// HandleDeleteImage removes an image reachable through one of the user's
// projects.
func (h *UploadHandler) HandleDeleteImage(c *fiber.Ctx) error {
	imageID, err := parseIDParam(c, "imageId")
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "InvalidID", "Image ID must be a number")
	}

	userID, _ := middleware.UserID(c)
	if err := h.service.DeleteImage(userID, imageID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Image deleted successfully",
	})
}

func toUploadedFileResponse(img models.ProjectImage) uploadedFileResponse {
	return uploadedFileResponse{
		ID:           img.ID,
		Filename:     img.Filename,
		OriginalName: img.OriginalName,
		FilePath:     "/uploads/" + img.Filename,
		FileSize:     img.FileSize,
		MimeType:     img.MimeType,
		CreatedAt:    img.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
