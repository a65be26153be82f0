package httpapi

import (
	"ColorPredict/internal/core/domain"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Envelope{Success: true, Message: message, Data: data})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Success: false, Message: message})
}

// statusFor maps domain errors onto HTTP status codes. The message is safe to
// show the caller; internal errors get a generic one.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidAction):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "verification not found"
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}

// verificationView is the JSON shape of a record in admin responses.
type verificationView struct {
	ID             int64   `json:"id"`
	ExternalUserID string  `json:"externalUserId"`
	Status         string  `json:"status"`
	Notes          *string `json:"notes"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

func toView(v *domain.Verification) verificationView {
	return verificationView{
		ID:             v.ID,
		ExternalUserID: v.ExternalUserID,
		Status:         string(v.Status),
		Notes:          v.Notes,
		CreatedAt:      v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toViews(recs []*domain.Verification) []verificationView {
	out := make([]verificationView, 0, len(recs))
	for _, v := range recs {
		out = append(out, toView(v))
	}
	return out
}
