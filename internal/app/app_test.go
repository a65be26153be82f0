package app

import (
	"ColorPredict/internal/core/domain"
	"ColorPredict/internal/core/ports"
	"ColorPredict/internal/shared/config"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBot records what the admin bot would have shown.
type fakeBot struct {
	mu      sync.Mutex
	edits   []ports.EditMessageParams
	answers []ports.AnswerCallbackParams
}

func (b *fakeBot) SendMessage(ctx context.Context, params ports.SendMessageParams) (int, error) {
	return 0, errors.New("library tier unused in this test")
}
func (b *fakeBot) EditMessageText(ctx context.Context, params ports.EditMessageParams) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.edits = append(b.edits, params)
	return nil
}
func (b *fakeBot) AnswerCallbackQuery(ctx context.Context, params ports.AnswerCallbackParams) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.answers = append(b.answers, params)
	return nil
}
func (b *fakeBot) SetMenuCommands(ctx context.Context) error { return nil }

func (b *fakeBot) editCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.edits)
}

// chatTransport stands in for the Telegram API.
type chatTransport struct {
	mu   sync.Mutex
	sent []ports.SendMessageParams
}

func (t *chatTransport) Name() string { return "fake" }
func (t *chatTransport) Send(ctx context.Context, params ports.SendMessageParams) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, params)
	return len(t.sent), nil
}

func (t *chatTransport) messages() []ports.SendMessageParams {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]ports.SendMessageParams(nil), t.sent...)
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv: "test",
		HTTP:   config.HTTPConfig{ListenAddr: ":0", CORSOrigins: "*", SubmitRateLimit: 100},
		Bot: config.BotConfig{
			AdminChatIDs: []int64{42, 43},
			Connection:   config.BotConnectionConfig{Mode: config.BotModePolling},
		},
		Delivery: config.DeliveryConfig{Timeout: time.Second, RatePerSecond: 10},
		Storage:  config.StorageConfig{Driver: config.StorageMemory},
		Auth:     config.AuthConfig{JWTSecret: "0123456789abcdef0123456789abcdef", LinkTTL: time.Hour},
	}
}

func submit(t *testing.T, a *App, externalUserID string) map[string]interface{} {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/verify-account", strings.NewReader(`{"externalUserId":"`+externalUserID+`"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.HTTP.App().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestApp_SubmitNotifyApproveResubmit(t *testing.T) {
	ctx := context.Background()
	nopLogger := zerolog.Nop()
	bot := &fakeBot{}
	transport := &chatTransport{}

	a, err := New(ctx, testConfig(), &nopLogger, Options{BotClient: bot, Transports: []ports.Transport{transport}})
	require.NoError(t, err)
	defer a.Close(ctx)

	// 1. Submit: one notification per admin.
	body := submit(t, a, "abc123")
	assert.Equal(t, true, body["success"])
	require.Eventually(t, func() bool { return len(transport.messages()) == 2 }, 2*time.Second, 10*time.Millisecond)

	var toFirstAdmin ports.SendMessageParams
	for _, m := range transport.messages() {
		if m.ChatID == 42 {
			toFirstAdmin = m
		}
	}
	require.NotNil(t, toFirstAdmin.ReplyMarkup)
	approveData := toFirstAdmin.ReplyMarkup.Buttons[0][0].Data
	assert.Equal(t, "approve_1", approveData)

	before, err := a.Store.GetByID(ctx, 1)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	// 2. The first admin taps approve.
	err = a.Bus.Publish(ctx, ports.TopicAdminCallbackQuery, tgbotapi.Update{
		UpdateID: 1,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb-1",
			Data:    approveData,
			From:    &tgbotapi.User{ID: 7, UserName: "alice"},
			Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: 42}},
		},
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return bot.editCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	after, err := a.Store.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationApproved, after.Status)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	require.NotNil(t, after.Notes)
	assert.Contains(t, *after.Notes, "@alice")

	bot.mu.Lock()
	assert.Equal(t, int64(42), bot.edits[0].ChatID)
	assert.Nil(t, bot.edits[0].ReplyMarkup)
	bot.mu.Unlock()

	// 3. The other admin hears about the decision.
	require.Eventually(t, func() bool { return len(transport.messages()) == 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(43), transport.messages()[2].ChatID)

	// 4. Resubmitting reports the verified state and notifies nobody.
	body = submit(t, a, "abc123")
	assert.Equal(t, true, body["success"])
	assert.Equal(t, domain.MsgAlreadyVerified, body["message"])
	assert.Equal(t, true, body["data"].(map[string]interface{})["isVerified"])

	require.NoError(t, a.Close(ctx))
	assert.Len(t, transport.messages(), 3)
}

func TestApp_UnauthorizedCallbackChangesNothing(t *testing.T) {
	ctx := context.Background()
	nopLogger := zerolog.Nop()
	bot := &fakeBot{}

	a, err := New(ctx, testConfig(), &nopLogger, Options{BotClient: bot, Transports: []ports.Transport{&chatTransport{}}})
	require.NoError(t, err)

	submit(t, a, "abc123")
	a.Router.HandleUpdate(ctx, &tgbotapi.Update{
		UpdateID: 2,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb-2",
			Data:    "approve_1",
			Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: 999}},
		},
	})

	v, err := a.Store.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationPending, v.Status)
	bot.mu.Lock()
	require.Len(t, bot.answers, 1)
	assert.True(t, bot.answers[0].ShowAlert)
	bot.mu.Unlock()

	require.NoError(t, a.Close(ctx))
}

func TestOpenRepository_UnknownDriver(t *testing.T) {
	nopLogger := zerolog.Nop()
	_, _, err := OpenRepository(context.Background(), &config.StorageConfig{Driver: "mongo"}, &nopLogger)
	assert.Error(t, err)
}
