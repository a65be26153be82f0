package notification

import (
	"ColorPredict/internal/core/domain"
	"ColorPredict/internal/core/ports"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTokens
type MockTokens struct {
	mock.Mock
}

func (m *MockTokens) IssueAdminToken(subject string, ttl time.Duration) (string, error) {
	args := m.Called(subject, ttl)
	return args.String(0), args.Error(1)
}
func (m *MockTokens) VerifyAdminToken(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}
func (m *MockTokens) IssueActionLink(claims ports.ActionLinkClaims) (string, error) {
	args := m.Called(claims)
	return args.String(0), args.Error(1)
}
func (m *MockTokens) VerifyActionLink(token string) (*ports.ActionLinkClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.ActionLinkClaims), args.Error(1)
}

func testRecord() *domain.Verification {
	created := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	return &domain.Verification{
		ID:             12,
		ExternalUserID: "john_doe.1",
		Status:         domain.VerificationPending,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

func TestComposer_CallbackButtonsOnly(t *testing.T) {
	nopLogger := zerolog.Nop()
	c := NewComposer("", nil, &nopLogger)

	params := c.Compose(1001, testRecord())

	assert.Equal(t, int64(1001), params.ChatID)
	assert.Equal(t, "MarkdownV2", params.ParseMode)
	assert.Contains(t, params.Text, "john\\_doe\\.1")
	assert.Contains(t, params.Text, "*Request ID:* 12")
	assert.Contains(t, params.Text, "pending")
	assert.Contains(t, params.Text, "2024\\-03\\-05 14:07:09 UTC")

	require.NotNil(t, params.ReplyMarkup)
	require.Len(t, params.ReplyMarkup.Buttons, 1)
	assert.Equal(t, "approve_12", params.ReplyMarkup.Buttons[0][0].Data)
	assert.Equal(t, "reject_12", params.ReplyMarkup.Buttons[0][1].Data)
}

func TestComposer_PublicBaseURLAddsLinkButtons(t *testing.T) {
	nopLogger := zerolog.Nop()
	tokens := new(MockTokens)
	tokens.On("IssueActionLink", ports.ActionLinkClaims{Action: domain.ActionApprove, VerificationID: 12, ChatID: 1001}).Return("tok-a", nil)
	tokens.On("IssueActionLink", ports.ActionLinkClaims{Action: domain.ActionReject, VerificationID: 12, ChatID: 1001}).Return("tok-r", nil)
	c := NewComposer("https://verify.example.com/", tokens, &nopLogger)

	params := c.Compose(1001, testRecord())

	require.Len(t, params.ReplyMarkup.Buttons, 2)
	link, err := url.Parse(params.ReplyMarkup.Buttons[1][0].URL)
	require.NoError(t, err)
	assert.Equal(t, "verify.example.com", link.Host)
	assert.Equal(t, "/api/admin/account-verifications/12", link.Path)
	assert.Equal(t, "approve", link.Query().Get("action"))
	assert.Equal(t, domain.SourceTelegramLink, link.Query().Get("source"))
	assert.Equal(t, "tok-a", link.Query().Get("token"))
	assert.False(t, params.DisableWebPagePreview)
	tokens.AssertExpectations(t)
}

func TestComposer_LocalBaseURLPutsLinksInText(t *testing.T) {
	nopLogger := zerolog.Nop()
	tokens := new(MockTokens)
	tokens.On("IssueActionLink", mock.Anything).Return("tok", nil)

	for _, base := range []string{"http://localhost:8080", "http://127.0.0.1:3000"} {
		c := NewComposer(base, tokens, &nopLogger)
		params := c.Compose(1, testRecord())

		assert.Len(t, params.ReplyMarkup.Buttons, 1, base)
		assert.True(t, params.DisableWebPagePreview, base)
		assert.Contains(t, params.Text, "Approve: ", base)
		assert.True(t, strings.Contains(params.Text, "action\\=reject"), base)
	}
}

func TestComposer_SigningFailureDropsLinks(t *testing.T) {
	nopLogger := zerolog.Nop()
	tokens := new(MockTokens)
	tokens.On("IssueActionLink", mock.Anything).Return("", errors.New("boom"))
	c := NewComposer("https://verify.example.com", tokens, &nopLogger)

	params := c.Compose(1, testRecord())

	assert.Len(t, params.ReplyMarkup.Buttons, 1)
}
