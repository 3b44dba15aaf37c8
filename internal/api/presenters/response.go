package presenters

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/kazuki11111/expiry-tracker/domain"
)

var (
	notFoundErrors = []error{
		domain.ErrProductNotFound,
		domain.ErrMemoNotFound,
		domain.ErrScanSessionNotFound,
		domain.ErrDraftNotFound,
		domain.ErrReceiptNotFound,
	}
	validationErrors = []error{
		domain.ErrParseID,
		domain.ErrInvalidDate,
		domain.ErrEmptyName,
		domain.ErrInvalidQuantity,
		domain.ErrInvalidCategory,
		domain.ErrEmptyBatch,
		domain.ErrNoDraftItems,
		domain.ErrInvalidNotifyDays,
		domain.ErrInvalidNotifyTime,
		domain.ErrMissingImage,
		domain.ErrInvalidImage,
		domain.ErrInvalidMediaType,
	}
	collaboratorErrors = []error{
		domain.ErrOcrFailed,
		domain.ErrOcrMalformedResponse,
	}
)

func SuccessResponse(c *fiber.Ctx, data interface{}, code int, message string) error {
	return c.Status(code).JSON(domain.Response{
		Status:  domain.StatusSuccess,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *fiber.Ctx, code int, message string, err error) error {
	resp := domain.Response{
		Status:  domain.StatusError,
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return c.Status(code).JSON(resp)
}

// ServiceError writes err with the status its domain class maps to.
func ServiceError(c *fiber.Ctx, message string, err error) error {
	code := StatusFromError(err)
	if code >= fiber.StatusInternalServerError {
		log.Errorw(message, "path", c.Path(), "status", code, "error", err)
	}
	return ErrorResponse(c, code, message, err)
}

func StatusFromError(err error) int {
	var validationErr validator.ValidationErrors
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest
	case matchesAny(err, collaboratorErrors):
		return fiber.StatusBadGateway
	case matchesAny(err, notFoundErrors):
		return fiber.StatusNotFound
	case matchesAny(err, validationErrors):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrOcrNotConfigured):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
