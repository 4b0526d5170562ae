package handlers

import (
	"log"
	"strconv"

	"modelforge/internal/middleware"
	"modelforge/internal/repositories"
	"modelforge/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// ProjectHandler handles HTTP requests for projects.
type ProjectHandler struct {
	service  *services.ProjectService
	sessions *session.Store
	validate *validator.Validate
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(service *services.ProjectService, sessions *session.Store) *ProjectHandler {
	return &ProjectHandler{
		service:  service,
		sessions: sessions,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the project routes with the Fiber app. The
// public feed is registered before the parameterized routes so "/public"
// never matches as an ID.
func (h *ProjectHandler) RegisterRoutes(router fiber.Router) {
	projectRoutes := router.Group("/projects")
	projectRoutes.Get("/public", middleware.OptionalAuth(h.sessions), h.HandleListPublic)

	authed := middleware.RequireAuth(h.sessions)
	projectRoutes.Get("/", authed, h.HandleListOwn)
	projectRoutes.Post("/", authed, h.HandleCreate)
	projectRoutes.Get("/:id", authed, h.HandleGet)
	projectRoutes.Put("/:id", authed, h.HandleUpdate)
	projectRoutes.Delete("/:id", authed, h.HandleDelete)
}

// HandleListPublic returns the public feed, optionally searched and
// sorted. Unknown sort/order values fall back to the default instead of
// erroring.
func (h *ProjectHandler) HandleListPublic(c *fiber.Ctx) error {
	projects, err := h.service.ListPublic(repositories.PublicFilter{
		Query: c.Query("q"),
		Sort:  c.Query("sort"),
		Order: c.Query("order"),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"projects": projects,
	})
}

// HandleListOwn returns the authenticated user's projects, newest first.
func (h *ProjectHandler) HandleListOwn(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	projects, err := h.service.ListOwn(userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"projects": projects,
	})
}

// CreateProjectRequest represents the request body for project creation.
type CreateProjectRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	IsPublic    bool    `json:"is_public"`
}

// HandleCreate creates a new project owned by the authenticated user.
func (h *ProjectHandler) HandleCreate(c *fiber.Ctx) error {
	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create project request body: %v", err)
		return failBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return failValidation(c, err)
	}

	userID, _ := middleware.UserID(c)
	project, err := h.service.Create(userID, req.Name, req.Description, req.IsPublic)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Project created successfully",
		"project": project,
	})
}

// HandleGet returns an owned project with its full image list.
func (h *ProjectHandler) HandleGet(c *fiber.Ctx) error {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "InvalidID", "Project ID must be a number")
	}

	userID, _ := middleware.UserID(c)
	project, err := h.service.Get(userID, projectID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"project": project,
	})
}

// UpdateProjectRequest represents a partial project update; absent fields
// are left unchanged.
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	IsPublic    *bool   `json:"is_public"`
}

// HandleUpdate applies a partial update to an owned project.
func (h *ProjectHandler) HandleUpdate(c *fiber.Ctx) error {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "InvalidID", "Project ID must be a number")
	}

	var req UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing update project request body: %v", err)
		return failBody(c)
	}

	userID, _ := middleware.UserID(c)
	project, err := h.service.Update(userID, projectID, services.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Project updated successfully",
		"project": project,
	})
}

// HandleDelete removes an owned project.
func (h *ProjectHandler) HandleDelete(c *fiber.Ctx) error {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "InvalidID", "Project ID must be a number")
	}

	userID, _ := middleware.UserID(c)
	if err := h.service.Delete(userID, projectID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Project deleted successfully",
	})
}

// parseIDParam parses a numeric path parameter.
func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
