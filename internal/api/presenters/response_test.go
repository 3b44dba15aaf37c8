package presenters

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/kazuki11111/expiry-tracker/domain"
)

func TestStatusFromError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{nil, fiber.StatusOK},
		{domain.ErrProductNotFound, fiber.StatusNotFound},
		{fmt.Errorf("update: %w", domain.ErrDraftNotFound), fiber.StatusNotFound},
		{domain.ErrInvalidQuantity, fiber.StatusBadRequest},
		{domain.ErrInvalidNotifyTime, fiber.StatusBadRequest},
		{fmt.Errorf("%w: %w", domain.ErrOcrFailed, errors.New("timeout")), fiber.StatusBadGateway},
		{fmt.Errorf("%w: %w", domain.ErrOcrFailed, domain.ErrOcrMalformedResponse), fiber.StatusBadGateway},
		{domain.ErrOcrNotConfigured, fiber.StatusServiceUnavailable},
		{errors.New("disk full"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.code, StatusFromError(tc.err), "%v", tc.err)
	}
}
