package admin

import (
	"ColorPredict/internal/core/ports"
	"ColorPredict/internal/core/verification"
	"ColorPredict/internal/shared/config"

	"github.com/rs/zerolog"
)

// Define constructor types for admin handlers
type CommandHandlerConstructor func(
	cfg *config.Config,
	store *verification.Store,
	botClient ports.BotClientPort,
	baseLogger *zerolog.Logger,
) ports.CommandHandler

type CallbackHandlerConstructor func(
	cfg *config.Config,
	store *verification.Store,
	botClient ports.BotClientPort,
	bus ports.EventBus,
	baseLogger *zerolog.Logger,
) ports.CallbackHandler

var (
	commandRegistry  []CommandHandlerConstructor
	callbackRegistry []CallbackHandlerConstructor
)

// RegisterCommand is called from handler init functions.
func RegisterCommand(constructor CommandHandlerConstructor) {
	commandRegistry = append(commandRegistry, constructor)
}

// RegisterCallback is called from handler init functions.
func RegisterCallback(constructor CallbackHandlerConstructor) {
	callbackRegistry = append(callbackRegistry, constructor)
}

// RegisterAllHandlers builds every registered handler and attaches it to router.
func RegisterAllHandlers(
	cfg *config.Config,
	router *Router,
	store *verification.Store,
	botClient ports.BotClientPort,
	bus ports.EventBus,
	baseLogger *zerolog.Logger,
) {
	log := baseLogger.With().Str("component", "admin_registry").Logger()

	for _, constructor := range commandRegistry {
		router.RegisterCommandHandler(constructor(cfg, store, botClient, baseLogger))
	}
	for _, constructor := range callbackRegistry {
		router.RegisterCallbackHandler(constructor(cfg, store, botClient, bus, baseLogger))
	}

	log.Info().
		Int("commands", len(commandRegistry)).
		Int("callbacks", len(callbackRegistry)).
		Msg("Admin handlers registered")
}
