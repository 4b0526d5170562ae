package handlers

import (
	"log"

	"modelforge/internal/middleware"
	"modelforge/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// AuthHandler handles HTTP requests for registration, login and profile.
type AuthHandler struct {
	authService *services.AuthService
	sessions    *session.Store
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, sessions *session.Store) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", middleware.RequireGuest(h.sessions), h.HandleRegister)
	authRoutes.Post("/login", middleware.RequireGuest(h.sessions), h.HandleLogin)
	authRoutes.Post("/logout", middleware.RequireAuth(h.sessions), h.HandleLogout)
	authRoutes.Get("/me", middleware.RequireAuth(h.sessions), h.HandleMe)
	authRoutes.Get("/status", h.HandleStatus)
	authRoutes.Put("/profile", middleware.RequireAuth(h.sessions), h.HandleUpdateProfile)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// HandleRegister handles new user registration and opens a session for the
// created user.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing register request body: %v", err)
		return failBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return failValidation(c, err)
	}

	user, err := h.authService.Register(req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}

	if err := h.openSession(c, user.ID, user.Email); err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin authenticates a user and opens a session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login request body: %v", err)
		return failBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return failValidation(c, err)
	}

	user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}

	if err := h.openSession(c, user.ID, user.Email); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    user,
	})
}

// HandleLogout destroys the current session.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return fail(c, err)
	}
	if err := sess.Destroy(); err != nil {
		log.Printf("Error destroying session: %v", err)
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

// HandleMe returns the current user.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	user, err := h.authService.GetUser(userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"user": user,
	})
}

// HandleStatus reports whether the caller has an active session. It never
// fails; an anonymous caller simply gets authenticated:false.
func (h *AuthHandler) HandleStatus(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return c.JSON(fiber.Map{"authenticated": false})
	}

	userID := sess.Get(middleware.UserIDKey)
	if userID == nil {
		return c.JSON(fiber.Map{"authenticated": false})
	}
	return c.JSON(fiber.Map{
		"authenticated": true,
		"userId":        userID,
		"userEmail":     sess.Get(middleware.UserEmailKey),
	})
}

// UpdateProfileRequest represents the request body for a profile update.
type UpdateProfileRequest struct {
	Name *string `json:"name"`
}

// HandleUpdateProfile sets or clears the user's display name.
func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing profile request body: %v", err)
		return failBody(c)
	}

	userID, _ := middleware.UserID(c)
	user, err := h.authService.UpdateProfile(userID, req.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Profile updated",
		"user":    user,
	})
}

// openSession records the user identity in a fresh session cookie.
func (h *AuthHandler) openSession(c *fiber.Ctx, userID uint, email string) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return err
	}
	sess.Set(middleware.UserIDKey, userID)
	sess.Set(middleware.UserEmailKey, email)
	return sess.Save()
}
