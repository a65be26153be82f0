// Package notification tells admins about new verification requests.
package notification

import (
	"ColorPredict/internal/core/domain"
	"ColorPredict/internal/core/ports"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Attempt is one try of one transport tier for one recipient.
type Attempt struct {
	Transport string
	Err       error
	Duration  time.Duration
}

// RecipientResult is the outcome for one admin chat.
type RecipientResult struct {
	ChatID    int64
	Delivered bool
	Transport string // Tier that succeeded, empty when none did
	MessageID int
	Attempts  []Attempt
}

// DeliveryReport describes a whole dispatch.
type DeliveryReport struct {
	NotificationID uuid.UUID
	VerificationID int64
	Results        []RecipientResult
}

// Delivered counts recipients that received the message.
func (r *DeliveryReport) Delivered() int {
	n := 0
	for _, res := range r.Results {
		if res.Delivered {
			n++
		}
	}
	return n
}

// Dispatcher fans a notification out to every admin chat, trying transport
// tiers in order for each chat.
type Dispatcher struct {
	recipients []int64
	transports []ports.Transport
	composer   *Composer
	timeout    time.Duration
	alerter    ports.FailureAlerter
	metrics    *Metrics
	log        zerolog.Logger
}

// Options holds the optional collaborators of a Dispatcher.
type Options struct {
	Alerter ports.FailureAlerter
	Metrics *Metrics
}

// NewDispatcher creates a dispatcher. timeout bounds each tier attempt.
func NewDispatcher(
	recipients []int64,
	transports []ports.Transport,
	composer *Composer,
	timeout time.Duration,
	opts Options,
	baseLogger *zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		recipients: append([]int64(nil), recipients...),
		transports: transports,
		composer:   composer,
		timeout:    timeout,
		alerter:    opts.Alerter,
		metrics:    opts.Metrics,
		log:        baseLogger.With().Str("component", "notification_dispatcher").Logger(),
	}
}

// Dispatch notifies every recipient about v. Failures end up in the report
// and the logs; they are never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, v *domain.Verification) *DeliveryReport {
	report := &DeliveryReport{NotificationID: uuid.New(), VerificationID: v.ID}
	log := d.log.With().
		Str("notification_id", report.NotificationID.String()).
		Int64("verification_id", v.ID).
		Logger()

	if len(d.recipients) == 0 {
		log.Warn().Msg("No admin recipients configured, notification skipped")
		d.metrics.observeNotification("skipped")
		return report
	}

	// 1. One goroutine per recipient; results keep recipient order.
	report.Results = make([]RecipientResult, len(d.recipients))
	var wg sync.WaitGroup
	for i, chatID := range d.recipients {
		wg.Add(1)
		go func(i int, chatID int64) {
			defer wg.Done()
			params := d.composer.Compose(chatID, v)
			report.Results[i] = d.deliver(ctx, params, log)
		}(i, chatID)
	}
	wg.Wait()

	// 2. Summarize
	delivered := report.Delivered()
	switch {
	case delivered == len(report.Results):
		log.Info().Int("recipients", delivered).Msg("Notification delivered")
		d.metrics.observeNotification("delivered")
	case delivered > 0:
		log.Warn().Int("delivered", delivered).Int("recipients", len(report.Results)).Msg("Notification partially delivered")
		d.metrics.observeNotification("partial")
	default:
		log.Error().Int("recipients", len(report.Results)).Msg("Notification not delivered to any recipient")
		d.metrics.observeNotification("failed")
		d.alert(ctx, v, report, log)
	}
	return report
}

// Send delivers an arbitrary message to one chat through the same tiers.
func (d *Dispatcher) Send(ctx context.Context, params ports.SendMessageParams) RecipientResult {
	return d.deliver(ctx, params, d.log)
}

// deliver tries each tier until one succeeds.
func (d *Dispatcher) deliver(ctx context.Context, params ports.SendMessageParams, log zerolog.Logger) RecipientResult {
	res := RecipientResult{ChatID: params.ChatID}
	for _, t := range d.transports {
		attempt, messageID := d.try(ctx, t, params)
		res.Attempts = append(res.Attempts, attempt)

		l := log.With().Int64("chat_id", params.ChatID).Str("transport", t.Name()).Dur("took", attempt.Duration).Logger()
		if attempt.Err == nil {
			l.Info().Int("message_id", messageID).Msg("Delivery attempt succeeded")
			res.Delivered = true
			res.Transport = t.Name()
			res.MessageID = messageID
			return res
		}
		l.Warn().Err(attempt.Err).Msg("Delivery attempt failed")

		if ctx.Err() != nil {
			// The caller gave up; later tiers would fail the same way.
			break
		}
	}
	return res
}

func (d *Dispatcher) try(ctx context.Context, t ports.Transport, params ports.SendMessageParams) (Attempt, int) {
	attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	messageID, err := t.Send(attemptCtx, params)
	took := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			outcome = "timeout"
		}
		err = fmt.Errorf("%w: %s: %w", domain.ErrDelivery, t.Name(), err)
	}
	d.metrics.observeAttempt(t.Name(), outcome, took)
	return Attempt{Transport: t.Name(), Err: err, Duration: took}, messageID
}

func (d *Dispatcher) alert(ctx context.Context, v *domain.Verification, report *DeliveryReport, log zerolog.Logger) {
	if d.alerter == nil {
		return
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Verification %d (user %s) could not be delivered to any admin chat.\n", v.ID, v.ExternalUserID)
	for _, res := range report.Results {
		for _, a := range res.Attempts {
			fmt.Fprintf(&body, "chat %d via %s: %v\n", res.ChatID, a.Transport, a.Err)
		}
	}

	alertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()
	if err := d.alerter.Alert(alertCtx, "Admin notification failed", body.String()); err != nil {
		log.Error().Err(err).Msg("Failure alert not sent")
	}
}
