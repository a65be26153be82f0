package notification

import (
	"ColorPredict/internal/core/domain"
	"ColorPredict/internal/core/ports"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeTransport records calls and fails for the configured chats.
type fakeTransport struct {
	name   string
	failOn map[int64]bool
	block  bool // Wait for ctx instead of answering

	mu    sync.Mutex
	calls []int64
}

func (f *fakeTransport) Name() string { return f.name }

func (f *fakeTransport) Send(ctx context.Context, params ports.SendMessageParams) (int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, params.ChatID)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if f.failOn[params.ChatID] {
		return 0, errors.New(f.name + " unavailable")
	}
	return int(params.ChatID % 1000), nil
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingAlerter struct {
	mu     sync.Mutex
	titles []string
}

func (a *recordingAlerter) Alert(ctx context.Context, title, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.titles = append(a.titles, title)
	return nil
}

func newTestDispatcher(t *testing.T, recipients []int64, opts Options, transports ...ports.Transport) *Dispatcher {
	t.Helper()
	nopLogger := zerolog.Nop()
	return NewDispatcher(recipients, transports, NewComposer("", nil, &nopLogger), 50*time.Millisecond, opts, &nopLogger)
}

func TestDispatcher_OneAttemptPerRecipient(t *testing.T) {
	direct := &fakeTransport{name: "telegram_direct"}
	library := &fakeTransport{name: "telegram_library"}
	d := newTestDispatcher(t, []int64{1001, 1002, 1003}, Options{}, direct, library)

	report := d.Dispatch(context.Background(), testRecord())

	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", report.NotificationID.String())
	assert.Equal(t, 3, report.Delivered())
	assert.Equal(t, 3, direct.callCount())
	assert.Equal(t, 0, library.callCount())
	for i, res := range report.Results {
		assert.Equal(t, []int64{1001, 1002, 1003}[i], res.ChatID)
		assert.Equal(t, "telegram_direct", res.Transport)
		assert.Len(t, res.Attempts, 1)
	}
}

func TestDispatcher_FallsBackPerRecipient(t *testing.T) {
	direct := &fakeTransport{name: "telegram_direct", failOn: map[int64]bool{1002: true}}
	library := &fakeTransport{name: "telegram_library"}
	d := newTestDispatcher(t, []int64{1001, 1002}, Options{}, direct, library)

	report := d.Dispatch(context.Background(), testRecord())

	require.Len(t, report.Results, 2)
	assert.Equal(t, "telegram_direct", report.Results[0].Transport)

	fallback := report.Results[1]
	assert.True(t, fallback.Delivered)
	assert.Equal(t, "telegram_library", fallback.Transport)
	require.Len(t, fallback.Attempts, 2)
	assert.Equal(t, "telegram_direct", fallback.Attempts[0].Transport)
	assert.ErrorIs(t, fallback.Attempts[0].Err, domain.ErrDelivery)
	assert.Equal(t, "telegram_library", fallback.Attempts[1].Transport)
	assert.NoError(t, fallback.Attempts[1].Err)
	assert.Equal(t, 1, library.callCount())
}

func TestDispatcher_TimeoutCountsAsFailure(t *testing.T) {
	direct := &fakeTransport{name: "telegram_direct", block: true}
	library := &fakeTransport{name: "telegram_library"}
	d := newTestDispatcher(t, []int64{1001}, Options{}, direct, library)

	report := d.Dispatch(context.Background(), testRecord())

	res := report.Results[0]
	assert.True(t, res.Delivered)
	assert.Equal(t, "telegram_library", res.Transport)
	assert.ErrorIs(t, res.Attempts[0].Err, context.DeadlineExceeded)
}

func TestDispatcher_AllFailedAlertsAndNeverErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)
	alerter := &recordingAlerter{}

	failAll := map[int64]bool{1001: true, 1002: true}
	direct := &fakeTransport{name: "telegram_direct", failOn: failAll}
	library := &fakeTransport{name: "telegram_library", failOn: failAll}
	d := newTestDispatcher(t, []int64{1001, 1002}, Options{Alerter: alerter, Metrics: metrics}, direct, library)

	report := d.Dispatch(context.Background(), testRecord())

	assert.Equal(t, 0, report.Delivered())
	for _, res := range report.Results {
		assert.False(t, res.Delivered)
		assert.Len(t, res.Attempts, 2)
	}
	assert.Equal(t, []string{"Admin notification failed"}, alerter.titles)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.AttemptsTotal.WithLabelValues("telegram_direct", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.AttemptsTotal.WithLabelValues("telegram_library", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.NotificationsTotal.WithLabelValues("failed")))
}

func TestDispatcher_NoRecipientsIsNoop(t *testing.T) {
	direct := &fakeTransport{name: "telegram_direct"}
	d := newTestDispatcher(t, nil, Options{}, direct)

	report := d.Dispatch(context.Background(), testRecord())

	assert.Empty(t, report.Results)
	assert.Equal(t, 0, direct.callCount())
}

func TestDispatcher_Send(t *testing.T) {
	direct := &fakeTransport{name: "telegram_direct", failOn: map[int64]bool{7: true}}
	library := &fakeTransport{name: "telegram_library"}
	d := newTestDispatcher(t, nil, Options{}, direct, library)

	res := d.Send(context.Background(), ports.SendMessageParams{ChatID: 7, Text: "done"})

	assert.True(t, res.Delivered)
	assert.Equal(t, "telegram_library", res.Transport)
}

func TestNewMetrics_DuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}
