// Package app wires the verification service together and runs it.
package app

import (
	"ColorPredict/internal/adapters/alert"
	"ColorPredict/internal/adapters/dedupe"
	"ColorPredict/internal/adapters/eventbus"
	"ColorPredict/internal/adapters/security"
	"ColorPredict/internal/adapters/telegram"
	"ColorPredict/internal/bot/admin"
	"ColorPredict/internal/bot/admin/handlers"
	"ColorPredict/internal/core/ports"
	"ColorPredict/internal/core/verification"
	"ColorPredict/internal/httpapi"
	"ColorPredict/internal/notification"
	"ColorPredict/internal/shared/config"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// updateDedupeTTL outlives Telegram's redelivery window for unacknowledged updates.
	updateDedupeTTL = 24 * time.Hour
	// longPollTimeout matches the getUpdates timeout used by the admin bot server.
	longPollTimeout = 60 * time.Second
	busDrainTimeout = 10 * time.Second
)

// Options replaces external collaborators, mainly for tests.
type Options struct {
	// BotClient replaces the Telegram library client; no bot server is started.
	BotClient ports.BotClientPort
	// Transports replaces the delivery tiers.
	Transports []ports.Transport
}

// App holds every long-lived component of the service.
type App struct {
	cfg *config.Config
	log zerolog.Logger

	Store      *verification.Store
	Bus        ports.EventBus
	Tokens     ports.TokenPort
	Dispatcher *notification.Dispatcher
	Router     *admin.Router
	HTTP       *httpapi.Server

	botServer *telegram.AdminServer
	dedupe    ports.UpdateDeduper
	closers   []func()
}

// New builds the whole service. Nothing is started until Run.
func New(ctx context.Context, cfg *config.Config, baseLogger *zerolog.Logger, opts Options) (*App, error) {
	a := &App{
		cfg: cfg,
		log: baseLogger.With().Str("component", "app").Logger(),
	}
	ok := false
	defer func() {
		if !ok {
			a.closeResources()
		}
	}()

	// 1. Storage
	repo, closeRepo, err := OpenRepository(ctx, &cfg.Storage, baseLogger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeRepo)
	a.Store = verification.NewStore(repo, baseLogger)

	// 2. Event bus and tokens
	a.Bus = eventbus.NewInMemoryEventBus(baseLogger)
	a.Tokens, err = security.NewJWTService([]byte(cfg.Auth.JWTSecret), cfg.Auth.LinkTTL, baseLogger)
	if err != nil {
		return nil, err
	}

	// 3. Telegram client and delivery tiers
	botClient := opts.BotClient
	if botClient == nil {
		api, err := telegram.NewAPI(cfg.Bot.Token, cfg.Bot.APIURL, longPollTimeout+cfg.Delivery.Timeout, cfg.IsDev())
		if err != nil {
			return nil, err
		}
		a.log.Info().Str("username", api.Self.UserName).Msg("Bot API connected")
		botClient = telegram.NewClient(api, baseLogger)

		a.dedupe, err = newDeduper(ctx, cfg, baseLogger)
		if err != nil {
			return nil, err
		}
		a.botServer = telegram.NewAdminServer(api, &cfg.Bot.Connection, a.Bus, a.dedupe, baseLogger)
	}

	transports := opts.Transports
	if transports == nil {
		direct := telegram.NewDirectTransport(
			&http.Client{Timeout: cfg.Delivery.Timeout},
			cfg.Bot.APIURL, cfg.Bot.Token, cfg.Delivery.RatePerSecond, baseLogger,
		)
		transports = []ports.Transport{direct, telegram.NewLibraryTransport(botClient)}
	}

	// 4. Metrics and failure alerts
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := notification.NewMetrics(registry)
	if err != nil {
		return nil, err
	}
	alerter, err := alert.NewShoutrrr(cfg.Delivery.FailureAlertURLs, cfg.Delivery.Timeout, baseLogger)
	if err != nil {
		return nil, err
	}

	// 5. Dispatcher and the handlers that use it
	composer := notification.NewComposer(cfg.HTTP.PublicBaseURL, a.Tokens, baseLogger)
	a.Dispatcher = notification.NewDispatcher(
		cfg.Bot.AdminChatIDs, transports, composer, cfg.Delivery.Timeout,
		notification.Options{Alerter: alerter, Metrics: metrics},
		baseLogger,
	)
	handlers.NewNotifyHandler(a.Dispatcher, cfg.Bot.AdminChatIDs, baseLogger).Subscribe(a.Bus)

	// 6. Admin bot router
	a.Router = admin.NewRouter(cfg.Bot.AdminChatIDs, botClient, baseLogger)
	admin.RegisterAllHandlers(cfg, a.Router, a.Store, botClient, a.Bus, baseLogger)
	a.Router.Subscribe(a.Bus)
	if err := botClient.SetMenuCommands(ctx); err != nil {
		a.log.Warn().Err(err).Msg("Failed to set bot menu commands")
	}

	// 7. HTTP facade
	a.HTTP = httpapi.NewServer(&cfg.HTTP, httpapi.Deps{
		Store:        a.Store,
		Tokens:       a.Tokens,
		Bus:          a.Bus,
		Gatherer:     registry,
		AdminChatIDs: cfg.Bot.AdminChatIDs,
	}, baseLogger)

	if len(cfg.Bot.AdminChatIDs) == 0 {
		a.log.Warn().Msg("BOT_ADMIN_CHAT_IDS is empty; nobody will be notified")
	}
	a.log.Info().
		Str("storage", cfg.Storage.Driver).
		Int("admins", len(cfg.Bot.AdminChatIDs)).
		Int("transports", len(transports)).
		Msg("All services initialized successfully")

	ok = true
	return a, nil
}

func newDeduper(ctx context.Context, cfg *config.Config, baseLogger *zerolog.Logger) (ports.UpdateDeduper, error) {
	if cfg.Storage.RedisURL != "" {
		return dedupe.NewRedis(ctx, cfg.Storage.RedisURL, updateDedupeTTL, baseLogger)
	}
	return dedupe.NewLocal(updateDedupeTTL, baseLogger), nil
}

// Run serves HTTP and the admin bot until ctx is cancelled or one of them
// fails, then drains the event bus and releases resources.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.HTTP.Start(gctx)
	})
	if a.botServer != nil {
		g.Go(func() error {
			return a.botServer.Start(gctx)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), busDrainTimeout)
	defer cancel()
	if cerr := a.Close(drainCtx); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Close waits for in-flight bus handlers, then closes storage and dedupe.
func (a *App) Close(ctx context.Context) error {
	err := a.Bus.Close(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("Event bus did not drain in time")
	}
	a.closeResources()
	a.log.Info().Msg("Shutdown complete")
	return err
}

func (a *App) closeResources() {
	if a.dedupe != nil {
		if err := a.dedupe.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close update dedupe")
		}
		a.dedupe = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
