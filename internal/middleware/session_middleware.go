package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Session keys and the context-local key handlers read the user identity
// from.
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
)

// RequireAuth fails the request with 401 unless the session carries a user
// ID; on success the ID is attached to the request context. This gate is
// only half of the authorization story: every mutating operation re-checks
// row ownership inside its query, and both must hold.
func RequireAuth(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			log.Printf("Failed to load session: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "ServerError",
				"message": "Could not load session",
			})
		}

		userID, ok := sessionUserID(sess.Get(UserIDKey))
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Please log in",
			})
		}

		c.Locals(UserIDKey, userID)
		if email, ok := sess.Get(UserEmailKey).(string); ok {
			c.Locals(UserEmailKey, email)
		}
		return c.Next()
	}
}

// RequireGuest rejects requests from sessions that already carry a user ID.
func RequireGuest(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			log.Printf("Failed to load session: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "ServerError",
				"message": "Could not load session",
			})
		}

		if _, ok := sessionUserID(sess.Get(UserIDKey)); ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "AlreadyAuthenticated",
				"message": "You are already logged in",
			})
		}
		return c.Next()
	}
}

// OptionalAuth attaches the user ID when a session carries one and never
// fails the request.
func OptionalAuth(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err == nil {
			if userID, ok := sessionUserID(sess.Get(UserIDKey)); ok {
				c.Locals(UserIDKey, userID)
				if email, ok := sess.Get(UserEmailKey).(string); ok {
					c.Locals(UserEmailKey, email)
				}
			}
		}
		return c.Next()
	}
}

// UserID returns the authenticated user's ID attached by RequireAuth or
// OptionalAuth.
func UserID(c *fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals(UserIDKey).(uint)
	return userID, ok
}

// sessionUserID normalizes the session value to a uint. Session storage
// round-trips through gob, so be tolerant of the integer type it hands
// back.
func sessionUserID(v interface{}) (uint, bool) {
	switch id := v.(type) {
	case uint:
		return id, true
	case uint64:
		return uint(id), true
	case int:
		if id < 0 {
			return 0, false
		}
		return uint(id), true
	case int64:
		if id < 0 {
			return 0, false
		}
		return uint(id), true
	default:
		return 0, false
	}
}
