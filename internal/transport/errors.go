package transport

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/media"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/models"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

// ErrorHandler renders every failure as {"detail": "..."} with a status
// derived from the service sentinels.
func (s *HTTPServer) ErrorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	msg := err.Error()

	var fe *fiber.Error
	if errors.As(err, &fe) {
		msg = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		msg = "internal server error"
	}

	return c.Status(code).JSON(models.ErrorResp{Detail: msg})
}

func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrAlreadyExists),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrSelfSubscription),
		errors.Is(err, service.ErrBadCredentials),
		errors.Is(err, media.ErrMalformedDataURI):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
