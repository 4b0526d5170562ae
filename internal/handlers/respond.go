package handlers

import (
	"errors"
	"fmt"
	"log"

	"modelforge/internal/services"
	"modelforge/pkg/storage"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
)

// fail is the single place service failures become HTTP responses. Every
// error carries a short code-like string plus a human-readable message;
// unexpected errors are logged server-side and their detail is suppressed
// outside development mode.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return respondError(c, fiber.StatusBadRequest, "InvalidInput", err.Error())
	case errors.Is(err, services.ErrNoFields):
		return respondError(c, fiber.StatusBadRequest, "NoFields", "At least one field must be supplied")
	case errors.Is(err, services.ErrNoFile):
		return respondError(c, fiber.StatusBadRequest, "NoFileProvided", "Please select an image")
	case errors.Is(err, storage.ErrUnsupportedFileType):
		return respondError(c, fiber.StatusBadRequest, "UnsupportedFileType", "Only JPEG, PNG and WebP images are allowed")
	case errors.Is(err, storage.ErrFileTooLarge):
		return respondError(c, fiber.StatusBadRequest, "FileTooLarge", "File exceeds the maximum allowed size")
	case errors.Is(err, services.ErrTooManyFiles):
		return respondError(c, fiber.StatusBadRequest, "TooManyFiles", fmt.Sprintf("At most %d images can be uploaded at once", services.MaxFilesPerBatch))
	case errors.Is(err, services.ErrInvalidCredentials):
		return respondError(c, fiber.StatusUnauthorized, "InvalidCredentials", "Invalid email or password")
	case errors.Is(err, services.ErrNotFound):
		return respondError(c, fiber.StatusNotFound, "NotFound", "Resource does not exist or you have no access to it")
	case errors.Is(err, services.ErrEmailTaken):
		return respondError(c, fiber.StatusConflict, "Conflict", "A user with this email is already registered")
	default:
		log.Printf("Unexpected error handling %s %s: %v", c.Method(), c.Path(), err)
		message := "Something went wrong"
		if viper.GetString("APP_ENV") == "development" {
			message = err.Error()
		}
		return respondError(c, fiber.StatusInternalServerError, "ServerError", message)
	}
}

// respondError writes the common {error, message} error shape.
func respondError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

// failValidation reports the first struct validation failure as a 400.
func failValidation(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		e := validationErrors[0]
		return respondError(c, fiber.StatusBadRequest, "ValidationError",
			fmt.Sprintf("Field '%s' failed on the '%s' rule", e.Field(), e.Tag()))
	}
	return respondError(c, fiber.StatusBadRequest, "ValidationError", "Request validation failed")
}

// failBody reports an unparseable request body.
func failBody(c *fiber.Ctx) error {
	return respondError(c, fiber.StatusBadRequest, "InvalidBody", "Invalid request body")
}
