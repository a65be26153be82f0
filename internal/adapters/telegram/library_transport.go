package telegram

import (
	"ColorPredict/internal/core/ports"
	"context"
)

// TransportLibrary tags deliveries made through the client library.
const TransportLibrary = "telegram_library"

// libraryTransport is the fallback tier: the same message sent through tgbotapi.
type libraryTransport struct {
	client ports.BotClientPort
}

var _ ports.Transport = (*libraryTransport)(nil) // Ensure compliance

// NewLibraryTransport adapts a bot client into a delivery tier.
func NewLibraryTransport(client ports.BotClientPort) ports.Transport {
	return &libraryTransport{client: client}
}

func (t *libraryTransport) Name() string { return TransportLibrary }

type sendResult struct {
	messageID int
	err       error
}

// Send returns when ctx is done even though the library call cannot be
// cancelled; the call itself ends at the HTTP client timeout.
func (t *libraryTransport) Send(ctx context.Context, params ports.SendMessageParams) (int, error) {
	done := make(chan sendResult, 1)
	go func() {
		id, err := t.client.SendMessage(ctx, params)
		done <- sendResult{messageID: id, err: err}
	}()

	select {
	case r := <-done:
		return r.messageID, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
