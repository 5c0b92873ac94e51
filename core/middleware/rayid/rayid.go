package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const (
	// Header carries the ray id on requests and responses.
	Header = "X-Ray-ID"
	// LocalKey is the fiber.Ctx Locals key read by logger.WithRayID.
	LocalKey = "ray_id"
)

// New returns a middleware that tags each request with a ray id. An id sent
// by the caller is kept.
func New() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     Header,
		Generator:  uuid.NewString,
		ContextKey: LocalKey,
	})
}
