package telegram

import (
	"ColorPredict/internal/core/ports"
	"ColorPredict/internal/shared/config"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// AdminServer receives updates for the admin bot and publishes them to the bus.
// It does no routing itself.
type AdminServer struct {
	api    *tgbotapi.BotAPI
	cfg    *config.BotConnectionConfig
	bus    ports.EventBus
	dedupe ports.UpdateDeduper
	log    zerolog.Logger
}

// NewAdminServer creates a new server instance
func NewAdminServer(
	api *tgbotapi.BotAPI,
	cfg *config.BotConnectionConfig,
	bus ports.EventBus,
	dedupe ports.UpdateDeduper,
	baseLogger *zerolog.Logger,
) *AdminServer {
	return &AdminServer{
		api:    api,
		cfg:    cfg,
		bus:    bus,
		dedupe: dedupe,
		log:    baseLogger.With().Str("component", "admin_bot_server").Logger(),
	}
}

// Start begins the bot server based on the config mode.
// It blocks until ctx is cancelled.
func (s *AdminServer) Start(ctx context.Context) error {
	s.log.Info().Str("mode", s.cfg.Mode).Msg("Starting admin bot server...")

	switch s.cfg.Mode {
	case config.BotModePolling:
		return s.startPolling(ctx)
	case config.BotModeWebhook:
		return s.startWebhook(ctx)
	default:
		return fmt.Errorf("unknown bot mode: %s", s.cfg.Mode)
	}
}

func (s *AdminServer) startPolling(ctx context.Context) error {
	// 1. Clear any existing webhook
	if _, err := s.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: false}); err != nil {
		s.log.Warn().Err(err).Msg("Failed to delete webhook (continuing anyway)")
	} else {
		s.log.Info().Msg("Webhook deleted successfully")
	}

	// 2. Listen for messages and callbacks
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query"}
	updates := s.api.GetUpdatesChan(u)

	err := s.serveUpdates(ctx, updates)
	s.api.StopReceivingUpdates()
	if err != nil {
		return err
	}
	s.log.Info().Msg("Polling stopped gracefully")
	return nil
}

// serveUpdates feeds updates to a pool of workers until ctx is done or the
// channel closes. Queued updates are handled before it returns.
func (s *AdminServer) serveUpdates(ctx context.Context, updates <-chan tgbotapi.Update) error {
	// 1. Start the worker pool
	workers := s.cfg.Polling.WorkerPoolSize
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan tgbotapi.Update, 100)
	var wg sync.WaitGroup
	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			log := s.log.With().Int("worker_id", id).Logger()
			log.Debug().Msg("Starting polling worker")
			for job := range jobs {
				s.HandleUpdate(ctx, job)
			}
			log.Debug().Msg("Stopping polling worker")
		}(w)
	}
	defer func() {
		close(jobs)
		wg.Wait()
	}()

	s.log.Info().Int("workers", workers).Msg("Polling update listener started")

	// 2. Main loop: hand updates to the workers
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("update channel closed")
			}
			select {
			case jobs <- update:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (s *AdminServer) startWebhook(ctx context.Context) error {
	// 1. Set the webhook
	path := "/webhook/" + s.api.Token
	wh, err := tgbotapi.NewWebhook(s.cfg.Webhook.URL + path)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to create webhook config")
		return err
	}
	if _, err = s.api.Request(wh); err != nil {
		s.log.Error().Err(err).Msg("Failed to set webhook")
		return err
	}
	info, err := s.api.GetWebhookInfo()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to get webhook info")
		return err
	}
	if info.LastErrorDate != 0 {
		s.log.Error().
			Str("error_message", info.LastErrorMessage).
			Msg("Telegram webhook has a last error")
	} else {
		s.log.Info().Msg("Webhook set successfully, no last error")
	}

	// 2. Serve the endpoint. A reverse proxy terminates TLS.
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		update, err := s.api.HandleUpdate(r)
		if err != nil {
			s.log.Warn().Err(err).Msg("Rejected webhook payload")
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		s.HandleUpdate(r.Context(), *update)
		w.WriteHeader(http.StatusOK)
	})

	listenAddr := fmt.Sprintf("127.0.0.1:%d", s.cfg.Webhook.ListenPort)
	httpServer := &http.Server{Addr: listenAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.Info().Str("addr", listenAddr).Msg("Webhook update listener started")

	// 3. Wait for shutdown
	select {
	case err := <-errCh:
		s.log.Error().Err(err).Msg("Webhook HTTP server failed")
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down webhook server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error().Err(err).Msg("Webhook server shutdown error")
	}
	s.log.Info().Msg("Webhook server stopped gracefully")
	return nil
}

// HandleUpdate drops redelivered updates and publishes the rest to the topic for their kind.
func (s *AdminServer) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	var topic string
	switch {
	case update.CallbackQuery != nil:
		topic = ports.TopicAdminCallbackQuery
	case update.Message != nil:
		topic = ports.TopicAdminMessage
	default:
		s.log.Debug().Int("update_id", update.UpdateID).Msg("Ignoring unsupported update type")
		return
	}

	if s.dedupe != nil {
		first, err := s.dedupe.FirstSeen(ctx, "update:"+strconv.Itoa(update.UpdateID))
		if err != nil {
			// Losing dedupe is better than losing the update.
			s.log.Warn().Err(err).Int("update_id", update.UpdateID).Msg("Dedupe check failed, publishing anyway")
		} else if !first {
			s.log.Info().Int("update_id", update.UpdateID).Msg("Dropping duplicate update")
			return
		}
	}

	if err := s.bus.Publish(ctx, topic, update); err != nil {
		s.log.Error().Err(err).Str("topic", topic).Msg("Failed to publish update")
	}
}
