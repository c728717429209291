package graceperiod

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/marcelomar21/bets-estatistica/internal/clock"
	"github.com/marcelomar21/bets-estatistica/internal/config"
	groupdomain "github.com/marcelomar21/bets-estatistica/internal/group/domain"
	memberdomain "github.com/marcelomar21/bets-estatistica/internal/member/domain"
	memberrepo "github.com/marcelomar21/bets-estatistica/internal/member/repository"
	membersvc "github.com/marcelomar21/bets-estatistica/internal/member/service"
	"github.com/marcelomar21/bets-estatistica/internal/providers/telegram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubMessenger struct {
	messages []string
	kicked   []int64
	kickErr  error
	sendErr  error
}

func (m *stubMessenger) SendPrivateMessage(_ context.Context, _ int64, text string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.messages = append(m.messages, text)
	return nil
}

func (m *stubMessenger) KickMember(_ context.Context, telegramID, _ int64) error {
	if m.kickErr != nil {
		return m.kickErr
	}
	m.kicked = append(m.kicked, telegramID)
	return nil
}

func (m *stubMessenger) UnbanMember(_ context.Context, _, _ int64) error { return nil }

type stubResolver struct {
	byID    map[snowflake.ID]*groupdomain.Group
	chatID  int64
	chatErr error
}

func (r *stubResolver) ResolveByPlanID(_ context.Context, _ string) (*groupdomain.Group, error) {
	return nil, groupdomain.ErrGroupNotFound
}

func (r *stubResolver) ResolveByID(_ context.Context, id snowflake.ID) (*groupdomain.Group, error) {
	if g, ok := r.byID[id]; ok {
		return g, nil
	}
	return nil, groupdomain.ErrGroupNotFound
}

func (r *stubResolver) ChatIDFor(_ context.Context, _ *snowflake.ID) (int64, error) {
	if r.chatErr != nil {
		return 0, r.chatErr
	}
	return r.chatID, nil
}

type recordingAlerter struct {
	alerts []string
}

func (a *recordingAlerter) Alert(_ context.Context, text string) {
	a.alerts = append(a.alerts, text)
}

type fixture struct {
	processor *Processor
	members   memberdomain.Service
	messenger *stubMessenger
	resolver  *stubResolver
	alerter   *recordingAlerter
	clock     *clock.FakeClock
}

func newFixture(t *testing.T, cfg config.Config) *fixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&memberdomain.Member{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	if cfg.TrialDays == 0 {
		cfg.TrialDays = 7
	}
	if cfg.GracePeriodDays == 0 {
		cfg.GracePeriodDays = 2
	}

	members := membersvc.NewService(membersvc.ServiceParam{
		DB:    gdb,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  memberrepo.Provide(),
		Cfg:   cfg,
	})

	messenger := &stubMessenger{}
	resolver := &stubResolver{byID: map[snowflake.ID]*groupdomain.Group{}, chatID: 555}
	alerts := &recordingAlerter{}

	return &fixture{
		processor: New(members, resolver, messenger, alerts, clk, cfg, zap.NewNop()),
		members:   members,
		messenger: messenger,
		resolver:  resolver,
		alerter:   alerts,
		clock:     clk,
	}
}

func (f *fixture) newInadimplente(t *testing.T, telegramID int64) memberdomain.Member {
	t.Helper()
	ctx := context.Background()

	member, err := f.members.CreateTrial(ctx, memberdomain.CreateTrialRequest{TelegramID: &telegramID})
	require.NoError(t, err)
	_, err = f.members.TransitionStatus(ctx, memberdomain.TransitionRequest{
		MemberID: member.ID, ToStatus: memberdomain.StatusAtivo, Actor: "test", Reason: "setup",
	})
	require.NoError(t, err)
	demoted, err := f.members.TransitionStatus(ctx, memberdomain.TransitionRequest{
		MemberID: member.ID, ToStatus: memberdomain.StatusInadimplente, Actor: "test", Reason: "setup",
	})
	require.NoError(t, err)
	return demoted
}

func TestSweepWarnsInsideGracePeriod(t *testing.T) {
	f := newFixture(t, config.Config{GracePeriodDays: 2, CheckoutURL: "https://pay.example.com"})
	member := f.newInadimplente(t, 10)

	f.clock.Advance(24 * time.Hour)
	require.NoError(t, f.processor.RunOnce(context.Background()))

	require.Len(t, f.messenger.messages, 1)
	assert.Contains(t, f.messenger.messages[0], "1 dia(s)")
	assert.Contains(t, f.messenger.messages[0], "https://pay.example.com")
	assert.Empty(t, f.messenger.kicked)

	current, err := f.members.GetByID(context.Background(), member.ID)
	require.NoError(t, err)
	assert.Equal(t, memberdomain.StatusInadimplente, current.Status)
}

func TestSweepKicksAfterGracePeriod(t *testing.T) {
	f := newFixture(t, config.Config{GracePeriodDays: 2})
	member := f.newInadimplente(t, 10)

	f.clock.Set(member.InadimplenteAt.Add(3 * 24 * time.Hour))
	require.NoError(t, f.processor.RunOnce(context.Background()))

	assert.Contains(t, f.messenger.kicked, int64(10))

	current, err := f.members.GetByID(context.Background(), member.ID)
	require.NoError(t, err)
	assert.Equal(t, memberdomain.StatusRemovido, current.Status)
	assert.Contains(t, current.Notes, "payment_failed")
	require.NotNil(t, current.KickedAt)
}

func TestSweepWarningFailureStillWarnsOthers(t *testing.T) {
	f := newFixture(t, config.Config{GracePeriodDays: 2})
	member := f.newInadimplente(t, 10)
	f.messenger.sendErr = &telegram.Error{Code: telegram.CodeUserBlockedBot, Message: "bot was blocked"}

	f.clock.Advance(24 * time.Hour)
	require.NoError(t, f.processor.RunOnce(context.Background()))

	// A failed warning never blocks the sweep or changes state.
	current, err := f.members.GetByID(context.Background(), member.ID)
	require.NoError(t, err)
	assert.Equal(t, memberdomain.StatusInadimplente, current.Status)
}

func TestSweepKickTreatsNotInGroupAsSuccess(t *testing.T) {
	f := newFixture(t, config.Config{GracePeriodDays: 2})
	member := f.newInadimplente(t, 10)
	f.messenger.kickErr = &telegram.Error{Code: telegram.CodeUserNotInGroup, Message: "user not found"}

	f.clock.Advance(3 * 24 * time.Hour)
	require.NoError(t, f.processor.RunOnce(context.Background()))

	current, err := f.members.GetByID(context.Background(), member.ID)
	require.NoError(t, err)
	assert.Equal(t, memberdomain.StatusRemovido, current.Status)
}

func TestSweepKickUnauthorizedAlerts(t *testing.T) {
	f := newFixture(t, config.Config{GracePeriodDays: 2})
	member := f.newInadimplente(t, 10)
	f.messenger.kickErr = &telegram.Error{Code: telegram.CodeUnauthorized, Message: "not enough rights"}

	f.clock.Advance(3 * 24 * time.Hour)
	require.NoError(t, f.processor.RunOnce(context.Background()))

	// Permission problems will not self-resolve: alert, do not transition.
	require.NotEmpty(t, f.alerter.alerts)
	current, err := f.members.GetByID(context.Background(), member.ID)
	require.NoError(t, err)
	assert.Equal(t, memberdomain.StatusInadimplente, current.Status)
}

func TestSweepTransientKickErrorLeftForNextRun(t *testing.T) {
	f := newFixture(t, config.Config{GracePeriodDays: 2})
	member := f.newInadimplente(t, 10)
	f.messenger.kickErr = &telegram.Error{Code: telegram.CodeUnavailable, Message: "timeout"}

	f.clock.Advance(3 * 24 * time.Hour)
	require.NoError(t, f.processor.RunOnce(context.Background()))

	assert.Empty(t, f.alerter.alerts)
	current, err := f.members.GetByID(context.Background(), member.ID)
	require.NoError(t, err)
	assert.Equal(t, memberdomain.StatusInadimplente, current.Status)

	// The next day's sweep succeeds once the transport recovers.
	f.messenger.kickErr = nil
	f.clock.Advance(24 * time.Hour)
	require.NoError(t, f.processor.RunOnce(context.Background()))

	current, err = f.members.GetByID(context.Background(), member.ID)
	require.NoError(t, err)
	assert.Equal(t, memberdomain.StatusRemovido, current.Status)
}

func TestSweepAbortsWhenConfiguredGroupUnresolvable(t *testing.T) {
	f := newFixture(t, config.Config{GracePeriodDays: 2, DefaultGroupID: 77})

	err := f.processor.RunOnce(context.Background())
	require.Error(t, err)
	require.NotEmpty(t, f.alerter.alerts)
}
