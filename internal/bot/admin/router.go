// Package admin routes admin bot updates to command and callback handlers.
package admin

import (
	"ColorPredict/internal/core/ports"
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Texts shown to the sender when a callback is rejected before any handler runs.
const (
	MsgNotAuthorized = "Not authorized"
	MsgInvalidAction = "Invalid action"
)

type callbackRoute struct {
	prefix  string
	handler ports.CallbackHandler
}

// Router authorizes admin updates and hands them to the registered handlers.
type Router struct {
	log             zerolog.Logger
	botClient       ports.BotClientPort
	admins          map[int64]bool
	commandHandlers map[string]ports.CommandHandler
	callbackRoutes  []callbackRoute
}

// NewRouter creates a new admin bot router. Only chats in adminChatIDs are served.
func NewRouter(
	adminChatIDs []int64,
	botClient ports.BotClientPort,
	baseLogger *zerolog.Logger,
) *Router {
	admins := make(map[int64]bool, len(adminChatIDs))
	for _, id := range adminChatIDs {
		admins[id] = true
	}
	return &Router{
		log:             baseLogger.With().Str("component", "admin_router").Logger(),
		botClient:       botClient,
		admins:          admins,
		commandHandlers: make(map[string]ports.CommandHandler),
	}
}

// RegisterCommandHandler adds a "plugin" to the router.
func (r *Router) RegisterCommandHandler(handler ports.CommandHandler) {
	cmd := handler.Command()
	r.commandHandlers[cmd] = handler
	r.log.Info().Str("command", cmd).Msg("Registered new admin command")
}

// RegisterCallbackHandler adds a "plugin" to the router. Prefixes are matched
// in registration order.
func (r *Router) RegisterCallbackHandler(handler ports.CallbackHandler) {
	for _, prefix := range handler.Prefixes() {
		r.callbackRoutes = append(r.callbackRoutes, callbackRoute{prefix: prefix, handler: handler})
		r.log.Info().Str("prefix", prefix).Msg("Registered new admin callback handler")
	}
}

// Subscribe attaches the router to the admin update topics.
func (r *Router) Subscribe(bus ports.EventBus) {
	bus.Subscribe(ports.TopicAdminCallbackQuery, r.handleEvent)
	bus.Subscribe(ports.TopicAdminMessage, r.handleEvent)
}

func (r *Router) handleEvent(ctx context.Context, event ports.Event) error {
	update, ok := event.Data.(tgbotapi.Update)
	if !ok {
		return fmt.Errorf("unexpected payload %T on %s", event.Data, event.Topic)
	}
	r.HandleUpdate(ctx, &update)
	return nil
}

// IsAdmin reports whether chatID is a configured admin chat.
func (r *Router) IsAdmin(chatID int64) bool {
	return r.admins[chatID]
}

// HandleUpdate is the main entry point for the admin bot.
// Handler errors are logged; they never stop the router.
func (r *Router) HandleUpdate(ctx context.Context, update *tgbotapi.Update) {
	// 1. Convert to our generic BotUpdate
	botUpdate, isSupported := parseUpdate(update)
	if !isSupported {
		r.log.Warn().Int("update_id", update.UpdateID).Msg("Received unsupported update type")
		return
	}

	// 2. Add logger context
	ctxLogger := r.log.With().
		Int("update_id", botUpdate.UpdateID).
		Int64("user_id", botUpdate.UserID).
		Int64("chat_id", botUpdate.ChatID).
		Logger()
	ctx = ctxLogger.WithContext(ctx)

	// 3. --- CRITICAL SECURITY CHECK ---
	if !r.IsAdmin(botUpdate.ChatID) {
		ctxLogger.Warn().Msg("Unauthorized chat tried to use the admin bot")
		if botUpdate.CallbackData != nil {
			r.answer(ctx, botUpdate, MsgNotAuthorized)
		}
		return
	}

	// 4. Route callbacks
	if botUpdate.CallbackData != nil {
		data := *botUpdate.CallbackData
		for _, route := range r.callbackRoutes {
			if strings.HasPrefix(data, route.prefix) {
				ctxLogger.Info().Str("handler", route.prefix).Str("data", data).Msg("Routing to callback handler")
				if err := route.handler.Handle(ctx, botUpdate); err != nil {
					ctxLogger.Error().Err(err).Msg("Callback handler failed")
				}
				return
			}
		}
		ctxLogger.Warn().Str("data", data).Msg("No callback handler found")
		r.answer(ctx, botUpdate, MsgInvalidAction)
		return
	}

	// 5. Route commands
	if botUpdate.Command != "" {
		if handler, ok := r.commandHandlers[botUpdate.Command]; ok {
			ctxLogger.Info().Str("handler", botUpdate.Command).Msg("Routing to admin command handler")
			if err := handler.Handle(ctx, botUpdate); err != nil {
				ctxLogger.Error().Err(err).Msg("Admin command handler failed")
			}
			return
		}
	}

	ctxLogger.Debug().Msg("Admin bot received unhandled update")
}

func (r *Router) answer(ctx context.Context, update *ports.BotUpdate, text string) {
	err := r.botClient.AnswerCallbackQuery(ctx, ports.AnswerCallbackParams{
		CallbackQueryID: update.CallbackQueryID,
		Text:            text,
		ShowAlert:       true,
	})
	if err != nil {
		r.log.Warn().Err(err).Msg("Failed to answer callback query")
	}
}

// parseUpdate converts a tgbotapi.Update into our internal, simplified struct.
func parseUpdate(update *tgbotapi.Update) (*ports.BotUpdate, bool) {
	if update.CallbackQuery != nil {
		cb := update.CallbackQuery
		data := cb.Data
		bu := &ports.BotUpdate{
			UpdateID:        update.UpdateID,
			CallbackQueryID: cb.ID,
			CallbackData:    &data,
		}
		// Inline-mode callbacks carry no message and therefore no chat.
		if cb.Message != nil {
			bu.MessageID = cb.Message.MessageID
			if cb.Message.Chat != nil {
				bu.ChatID = cb.Message.Chat.ID
			}
		}
		if cb.From != nil {
			bu.UserID = cb.From.ID
			bu.UserName = displayName(cb.From)
		}
		return bu, true
	}

	if update.Message != nil {
		msg := update.Message
		bu := &ports.BotUpdate{
			UpdateID:  update.UpdateID,
			MessageID: msg.MessageID,
			Text:      msg.Text,
			Command:   msg.Command(),
		}
		if msg.Chat != nil {
			bu.ChatID = msg.Chat.ID
		}
		if msg.From != nil {
			bu.UserID = msg.From.ID
			bu.UserName = displayName(msg.From)
		}
		return bu, true
	}

	return nil, false
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
