package reconciliation

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/marcelomar21/bets-estatistica/internal/clock"
	"github.com/marcelomar21/bets-estatistica/internal/config"
	memberdomain "github.com/marcelomar21/bets-estatistica/internal/member/domain"
	memberrepo "github.com/marcelomar21/bets-estatistica/internal/member/repository"
	membersvc "github.com/marcelomar21/bets-estatistica/internal/member/service"
	"github.com/marcelomar21/bets-estatistica/internal/observability/metrics"
	"github.com/marcelomar21/bets-estatistica/internal/providers/payment"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubProvider struct {
	subs map[string]*payment.Subscription
	errs map[string]error
}

func (s *stubProvider) GetSubscription(_ context.Context, id string) (*payment.Subscription, error) {
	if err, ok := s.errs[id]; ok {
		return nil, err
	}
	if sub, ok := s.subs[id]; ok {
		return sub, nil
	}
	return nil, &payment.Error{Code: payment.CodeNotFound, Message: "not found"}
}

func (s *stubProvider) GetPayment(_ context.Context, _ string) (*payment.Payment, error) {
	return nil, &payment.Error{Code: payment.CodeNotFound, Message: "not found"}
}

type recordingAlerter struct {
	alerts []string
}

func (a *recordingAlerter) Alert(_ context.Context, text string) {
	a.alerts = append(a.alerts, text)
}

type fixture struct {
	sweep    *Sweep
	members  memberdomain.Service
	provider *stubProvider
	alerter  *recordingAlerter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&memberdomain.Member{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	members := membersvc.NewService(membersvc.ServiceParam{
		DB:    gdb,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  memberrepo.Provide(),
		Cfg:   config.Config{TrialDays: 7},
	})

	provider := &stubProvider{subs: map[string]*payment.Subscription{}, errs: map[string]error{}}
	alerts := &recordingAlerter{}
	sweep := New(members, provider, alerts,
		metrics.NewForTest(prometheus.NewRegistry()),
		config.Config{ReconcileCallDelay: time.Millisecond},
		zap.NewNop())

	return &fixture{sweep: sweep, members: members, provider: provider, alerter: alerts}
}

func (f *fixture) newAtivo(t *testing.T, telegramID int64, subscriptionID string) memberdomain.Member {
	t.Helper()
	ctx := context.Background()

	member, err := f.members.CreateTrial(ctx, memberdomain.CreateTrialRequest{
		TelegramID:             &telegramID,
		ProviderSubscriptionID: &subscriptionID,
	})
	require.NoError(t, err)
	activated, err := f.members.TransitionStatus(ctx, memberdomain.TransitionRequest{
		MemberID: member.ID, ToStatus: memberdomain.StatusAtivo, Actor: "test", Reason: "setup",
	})
	require.NoError(t, err)
	return activated
}

func TestSweepReportsDesyncWithoutMutating(t *testing.T) {
	f := newFixture(t)
	cancelled := f.newAtivo(t, 10, "sub-cancelled")
	healthy := f.newAtivo(t, 11, "sub-healthy")

	f.provider.subs["sub-cancelled"] = &payment.Subscription{ID: "sub-cancelled", Status: payment.SubscriptionStatusCancelled}
	f.provider.subs["sub-healthy"] = &payment.Subscription{ID: "sub-healthy", Status: payment.SubscriptionStatusActive}

	require.NoError(t, f.sweep.RunOnce(context.Background()))

	require.Len(t, f.alerter.alerts, 1)
	assert.Contains(t, f.alerter.alerts[0], "dessincronizado")
	assert.Contains(t, f.alerter.alerts[0], payment.SubscriptionStatusCancelled)

	// Read-only: local state is untouched even when the provider disagrees.
	for _, id := range []snowflake.ID{cancelled.ID, healthy.ID} {
		current, err := f.members.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, memberdomain.StatusAtivo, current.Status)
	}
}

func TestSweepReportsMissingSubscriptionAsDesync(t *testing.T) {
	f := newFixture(t)
	f.newAtivo(t, 10, "sub-gone")

	require.NoError(t, f.sweep.RunOnce(context.Background()))

	require.Len(t, f.alerter.alerts, 1)
	assert.Contains(t, f.alerter.alerts[0], "not_found")
}

func TestSweepSkipsMembersWithoutSubscription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	telegramID := int64(10)
	member, err := f.members.CreateTrial(ctx, memberdomain.CreateTrialRequest{TelegramID: &telegramID})
	require.NoError(t, err)
	_, err = f.members.TransitionStatus(ctx, memberdomain.TransitionRequest{
		MemberID: member.ID, ToStatus: memberdomain.StatusAtivo, Actor: "test", Reason: "setup",
	})
	require.NoError(t, err)

	require.NoError(t, f.sweep.RunOnce(ctx))
	assert.Empty(t, f.alerter.alerts)
}

func TestSweepOutageRaisesCriticalAlert(t *testing.T) {
	f := newFixture(t)
	f.newAtivo(t, 10, "sub-1")
	f.newAtivo(t, 11, "sub-2")
	f.newAtivo(t, 12, "sub-3")

	outage := &payment.Error{Code: payment.CodeUnavailable, Message: "status 502"}
	f.provider.errs["sub-1"] = outage
	f.provider.errs["sub-2"] = outage
	f.provider.subs["sub-3"] = &payment.Subscription{ID: "sub-3", Status: payment.SubscriptionStatusActive}

	require.NoError(t, f.sweep.RunOnce(context.Background()))

	require.Len(t, f.alerter.alerts, 1)
	assert.Contains(t, f.alerter.alerts[0], "CRÍTICO")
	assert.Contains(t, f.alerter.alerts[0], payment.CodeUnavailable)
}
