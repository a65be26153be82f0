package httpapi

import (
	"ColorPredict/internal/core/ports"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type submitRequest struct {
	ExternalUserID string `json:"externalUserId" validate:"required,max=64"`
}

type submitResponse struct {
	VerificationID int64  `json:"verificationId"`
	Status         string `json:"status"`
	IsVerified     bool   `json:"isVerified"`
}

// handleSubmit is POST /api/verify-account.
func (s *Server) handleSubmit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.ExternalUserID = strings.TrimSpace(req.ExternalUserID)
	if err := s.validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, validationMessage(err))
	}

	outcome, err := s.deps.Store.Submit(c.UserContext(), req.ExternalUserID)
	if err != nil {
		return err
	}

	// Only a fresh request needs the admins' attention.
	if outcome.Created {
		if err := s.deps.Bus.Publish(c.UserContext(), ports.TopicVerificationSubmitted, outcome.Record); err != nil {
			s.log.Error().Err(err).Int64("verification_id", outcome.Record.ID).Msg("Failed to publish submission")
		}
	}

	return c.JSON(Envelope{
		Success: outcome.Success,
		Message: outcome.Message,
		Data: submitResponse{
			VerificationID: outcome.Record.ID,
			Status:         string(outcome.Record.Status),
			IsVerified:     outcome.IsVerified,
		},
	})
}

// newValidator reports json field names in validation errors.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage turns validator errors into one readable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}
