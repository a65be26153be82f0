// Package alert mirrors delivery failures to operator channels through shoutrrr.
package alert

import (
	"ColorPredict/internal/core/ports"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
	"github.com/rs/zerolog"
)

type shoutrrrAlerter struct {
	sender *router.ServiceRouter
	log    zerolog.Logger
}

var _ ports.FailureAlerter = (*shoutrrrAlerter)(nil) // Ensure compliance

// NewShoutrrr builds one sender for all urls. It returns nil, nil when urls is
// empty so callers can treat the alerter as optional.
func NewShoutrrr(urls []string, timeout time.Duration, baseLogger *zerolog.Logger) (ports.FailureAlerter, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		// The raw error may echo credentials embedded in the URLs.
		return nil, errors.New("invalid failure alert url")
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	l := baseLogger.With().Str("component", "failure_alerter").Logger()
	l.Info().Int("targets", len(urls)).Msg("Failure alerts enabled")
	return &shoutrrrAlerter{sender: sender, log: l}, nil
}

// Alert sends to every target and returns the first error, if any.
// The router enforces its own timeout.
func (a *shoutrrrAlerter) Alert(ctx context.Context, title, message string) error {
	params := types.Params{}
	if title != "" {
		params.SetTitle(title)
	}

	for _, err := range a.sender.Send(message, &params) {
		if err != nil {
			a.log.Error().Err(err).Msg("Failure alert not delivered")
			return fmt.Errorf("send failure alert: %w", err)
		}
	}
	return nil
}
