package httpapi

import (
	"ColorPredict/internal/core/domain"
	"ColorPredict/internal/core/ports"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/gofiber/fiber/v2"
)

type updateRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes" validate:"omitempty,max=1000"`
	Action string  `json:"action" validate:"omitempty,oneof=approve reject"`
}

// handleList is GET /api/admin/account-verifications.
func (s *Server) handleList(c *fiber.Ctx) error {
	recs, err := s.deps.Store.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return success(c, "Verifications listed", toViews(recs))
}

// handleListByStatus is GET /api/admin/account-verifications/status/:status.
func (s *Server) handleListByStatus(c *fiber.Ctx) error {
	recs, err := s.deps.Store.ListByStatus(c.UserContext(), c.Params("status"))
	if err != nil {
		return err
	}
	return success(c, "Verifications listed", toViews(recs))
}

// handleGet is GET /api/admin/account-verifications/:id behind the bearer check.
func (s *Server) handleGet(c *fiber.Ctx) error {
	id, err := domain.ParseVerificationID(c.Params("id"))
	if err != nil {
		return err
	}
	v, err := s.deps.Store.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
	}
	return success(c, "Verification found", toView(v))
}

// handleUpdate is POST /api/admin/account-verifications/:id.
func (s *Server) handleUpdate(c *fiber.Ctx) error {
	id, err := domain.ParseVerificationID(c.Params("id"))
	if err != nil {
		return err
	}

	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, validationMessage(err))
	}

	ctx := c.UserContext()
	if req.Action != "" {
		kind, err := domain.ParseActionKind(req.Action)
		if err != nil {
			return err
		}
		subject, _ := c.Locals(localsAdminSubject).(string)
		actor := domain.ActionActor{Name: subject, Transport: domain.SourceAdminAPI}
		v, err := s.apply(ctx, domain.Action{Kind: kind, VerificationID: id}, actor)
		if err != nil {
			return err
		}
		return success(c, "Verification "+string(v.Status), toView(v))
	}

	if req.Status == nil {
		return fail(c, fiber.StatusBadRequest, "status or action is required")
	}
	v, err := s.deps.Store.UpdateStatus(ctx, id, *req.Status, req.Notes)
	if err != nil {
		return err
	}
	return success(c, "Verification updated", toView(v))
}

// linkActionOr serves signed action links and hands every other request to next.
func (s *Server) linkActionOr(next fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("action") == "" {
			return next(c)
		}
		return s.handleLinkAction(c)
	}
}

// handleLinkAction applies an approve/reject link opened from an admin chat.
// The token in the link is the only credential.
func (s *Server) handleLinkAction(c *fiber.Ctx) error {
	source := c.Query("source", domain.SourceTelegramLink)
	render := func(err error, v *domain.Verification) error {
		if source == domain.SourceTelegramLink {
			return s.renderLinkPage(c, err, v)
		}
		if err != nil {
			return err
		}
		return success(c, "Verification "+string(v.Status), toView(v))
	}

	// 1. Parse
	id, err := domain.ParseVerificationID(c.Params("id"))
	if err != nil {
		return render(err, nil)
	}
	kind, err := domain.ParseActionKind(c.Query("action"))
	if err != nil {
		return render(err, nil)
	}

	// 2. Authorize
	claims, err := s.deps.Tokens.VerifyActionLink(c.Query("token"))
	if err != nil {
		s.log.Warn().Err(err).Int64("verification_id", id).Str("ip", c.IP()).Msg("Rejected action link")
		return render(err, nil)
	}
	if claims.VerificationID != id || claims.Action != kind {
		s.log.Warn().Int64("verification_id", id).Msg("Action link does not match its token")
		return render(fmt.Errorf("%w: link does not match token", domain.ErrUnauthorized), nil)
	}
	if !s.admins[claims.ChatID] {
		s.log.Warn().Int64("chat_id", claims.ChatID).Msg("Action link issued to a chat that is no longer an admin")
		return render(fmt.Errorf("%w: chat %d is not an admin", domain.ErrUnauthorized, claims.ChatID), nil)
	}

	// 3. Apply
	actor := domain.ActionActor{ChatID: claims.ChatID, Transport: domain.SourceTelegramLink}
	v, err := s.apply(c.UserContext(), domain.Action{Kind: kind, VerificationID: id}, actor)
	if err != nil {
		return render(err, nil)
	}

	// The decided event carries the acknowledgement to the admin chat.
	return render(nil, v)
}

// apply runs the action and announces the decision.
func (s *Server) apply(ctx context.Context, action domain.Action, actor domain.ActionActor) (*domain.Verification, error) {
	v, err := s.deps.Store.Apply(ctx, action, actor)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Bus.Publish(ctx, ports.TopicVerificationDecided, ports.VerificationDecidedEvent{
		Record: v,
		Action: action,
		Actor:  actor,
	}); err != nil {
		s.log.Error().Err(err).Int64("verification_id", v.ID).Msg("Failed to publish decided event")
	}
	return v, nil
}

var linkPage = template.Must(template.New("link").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>{{.Title}}</title></head>
<body style="font-family: sans-serif; max-width: 32rem; margin: 3rem auto; text-align: center;">
<h1>{{.Title}}</h1>
<p>{{.Body}}</p>
</body>
</html>`))

type linkPageData struct {
	Title string
	Body  string
}

// renderLinkPage answers a browser opened from a Telegram link.
func (s *Server) renderLinkPage(c *fiber.Ctx, err error, v *domain.Verification) error {
	status := fiber.StatusOK
	data := linkPageData{}
	switch {
	case err == nil && v.Status == domain.VerificationApproved:
		data = linkPageData{"✅ Approved", fmt.Sprintf("Verification #%d for %s was approved.", v.ID, v.ExternalUserID)}
	case err == nil:
		data = linkPageData{"❌ Rejected", fmt.Sprintf("Verification #%d for %s was rejected.", v.ID, v.ExternalUserID)}
	case errors.Is(err, domain.ErrUnauthorized):
		status = fiber.StatusUnauthorized
		data = linkPageData{"Link not valid", "This link is invalid or has expired."}
	default:
		var msg string
		status, msg = statusFor(err)
		if status == fiber.StatusInternalServerError {
			s.log.Error().Err(err).Msg("Action link failed")
		}
		data = linkPageData{"Action failed", msg}
	}

	c.Status(status)
	c.Type("html", "utf-8")
	return linkPage.Execute(c.Response().BodyWriter(), data)
}
