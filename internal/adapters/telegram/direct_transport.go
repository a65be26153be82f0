package telegram

import (
	"ColorPredict/internal/core/ports"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// TransportDirect tags deliveries made with a raw Bot API call.
const TransportDirect = "telegram_direct"

const maxResponseBytes = 1 << 20

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

type inlineKeyboard struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type sendMessageRequest struct {
	ChatID                int64           `json:"chat_id"`
	Text                  string          `json:"text"`
	ParseMode             string          `json:"parse_mode,omitempty"`
	ReplyMarkup           *inlineKeyboard `json:"reply_markup,omitempty"`
	DisableWebPagePreview bool            `json:"disable_web_page_preview,omitempty"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
	Result      struct {
		MessageID int `json:"message_id"`
	} `json:"result"`
}

// APIError is a Bot API rejection ("ok": false or a non-2xx status).
type APIError struct {
	StatusCode  int
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d (http %d): %s", e.Code, e.StatusCode, e.Description)
}

// directTransport is the primary tier. It posts sendMessage without the
// client library so a library fault cannot block delivery.
type directTransport struct {
	httpClient *http.Client
	endpoint   string
	limiter    *rate.Limiter
	log        zerolog.Logger
}

var _ ports.Transport = (*directTransport)(nil) // Ensure compliance

// NewDirectTransport posts to {apiURL}/bot{token}/sendMessage.
// ratePerSecond caps outbound messages across all recipients.
func NewDirectTransport(httpClient *http.Client, apiURL, token string, ratePerSecond float64, baseLogger *zerolog.Logger) ports.Transport {
	burst := int(ratePerSecond)
	if burst < 1 {
		burst = 1
	}
	return &directTransport{
		httpClient: httpClient,
		endpoint:   fmt.Sprintf("%s/bot%s/sendMessage", apiURL, token),
		limiter:    rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		log:        baseLogger.With().Str("component", "tg_direct_transport").Logger(),
	}
}

func (t *directTransport) Name() string { return TransportDirect }

func (t *directTransport) Send(ctx context.Context, params ports.SendMessageParams) (int, error) {
	// 1. Respect the shared rate limit
	if err := t.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter: %w", err)
	}

	// 2. Encode
	body, err := json.Marshal(toSendMessageRequest(params))
	if err != nil {
		return 0, fmt.Errorf("encode sendMessage: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// 3. Send
	resp, err := t.httpClient.Do(req)
	if err != nil {
		// Drop the URL from the error: it carries the bot token.
		return 0, fmt.Errorf("sendMessage request failed: %w", unwrapURLError(err))
	}
	defer resp.Body.Close()

	// 4. Decode
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, fmt.Errorf("read sendMessage response: %w", err)
	}
	var out sendMessageResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, &APIError{StatusCode: resp.StatusCode, Description: "undecodable response"}
	}
	if resp.StatusCode/100 != 2 || !out.OK {
		return 0, &APIError{StatusCode: resp.StatusCode, Code: out.ErrorCode, Description: out.Description}
	}

	t.log.Debug().Int64("chat_id", params.ChatID).Int("message_id", out.Result.MessageID).Msg("Message sent")
	return out.Result.MessageID, nil
}

func toSendMessageRequest(p ports.SendMessageParams) sendMessageRequest {
	req := sendMessageRequest{
		ChatID:                p.ChatID,
		Text:                  p.Text,
		ParseMode:             p.ParseMode,
		DisableWebPagePreview: p.DisableWebPagePreview,
	}
	if p.ReplyMarkup != nil && len(p.ReplyMarkup.Buttons) > 0 {
		kb := &inlineKeyboard{}
		for _, row := range p.ReplyMarkup.Buttons {
			var r []inlineButton
			for _, b := range row {
				r = append(r, inlineButton{Text: b.Text, CallbackData: b.Data, URL: b.URL})
			}
			kb.InlineKeyboard = append(kb.InlineKeyboard, r)
		}
		req.ReplyMarkup = kb
	}
	return req
}

func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
