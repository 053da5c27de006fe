package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestID keeps an incoming X-Request-ID or mints a UUID, echoes it on the
// response and stores it in Locals("requestId").
func RequestID(c *fiber.Ctx) error {
	id := c.Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	c.Set(RequestIDHeader, id)
	c.Locals("requestId", id)
	return c.Next()
}
