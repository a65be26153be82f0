package telegram

import (
	"ColorPredict/internal/core/ports"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIURL = "https://bot.test"
	testToken  = "123:secret"
	sendURL    = testAPIURL + "/bot" + testToken + "/sendMessage"
)

func newMockedTransport(t *testing.T) (ports.Transport, *httpmock.MockTransport) {
	t.Helper()
	mock := httpmock.NewMockTransport()
	client := &http.Client{Transport: mock}
	nopLogger := zerolog.Nop()
	return NewDirectTransport(client, testAPIURL, testToken, 100, &nopLogger), mock
}

func TestDirectTransport_Send_Success(t *testing.T) {
	transport, mock := newMockedTransport(t)

	var got sendMessageRequest
	mock.RegisterResponder(http.MethodPost, sendURL, func(req *http.Request) (*http.Response, error) {
		if err := json.NewDecoder(req.Body).Decode(&got); err != nil {
			return httpmock.NewStringResponse(http.StatusBadRequest, ""), nil
		}
		return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 77},
		})
	})

	id, err := transport.Send(context.Background(), ports.SendMessageParams{
		ChatID:    1001,
		Text:      "hello",
		ParseMode: "MarkdownV2",
		ReplyMarkup: &ports.ReplyMarkup{Buttons: [][]ports.Button{
			{{Text: "Approve", Data: "approve_1"}, {Text: "Reject", Data: "reject_1"}},
			{{Text: "Open", URL: "https://verify.example.com/x"}},
		}},
	})

	require.NoError(t, err)
	assert.Equal(t, 77, id)
	assert.Equal(t, 1, mock.GetTotalCallCount())

	assert.Equal(t, int64(1001), got.ChatID)
	assert.Equal(t, "MarkdownV2", got.ParseMode)
	require.NotNil(t, got.ReplyMarkup)
	require.Len(t, got.ReplyMarkup.InlineKeyboard, 2)
	assert.Equal(t, "approve_1", got.ReplyMarkup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "https://verify.example.com/x", got.ReplyMarkup.InlineKeyboard[1][0].URL)
}

func TestDirectTransport_Send_APIRejection(t *testing.T) {
	transport, mock := newMockedTransport(t)

	mock.RegisterResponder(http.MethodPost, sendURL,
		httpmock.NewStringResponder(http.StatusBadRequest,
			`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))

	_, err := transport.Send(context.Background(), ports.SendMessageParams{ChatID: 1, Text: "x"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Description, "chat not found")
}

func TestDirectTransport_Send_NetworkErrorHidesToken(t *testing.T) {
	transport, mock := newMockedTransport(t)

	mock.RegisterResponder(http.MethodPost, sendURL, httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := transport.Send(context.Background(), ports.SendMessageParams{ChatID: 1, Text: "x"})

	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), testToken), "error leaks bot token: %v", err)
}

func TestDirectTransport_Send_HonorsContext(t *testing.T) {
	transport, mock := newMockedTransport(t)

	mock.RegisterResponder(http.MethodPost, sendURL, func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := transport.Send(ctx, ports.SendMessageParams{ChatID: 1, Text: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDirectTransport_Name(t *testing.T) {
	transport, _ := newMockedTransport(t)
	assert.Equal(t, TransportDirect, transport.Name())
}
