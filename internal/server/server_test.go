package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/marcelomar21/bets-estatistica/internal/clock"
	"github.com/marcelomar21/bets-estatistica/internal/config"
	eventdomain "github.com/marcelomar21/bets-estatistica/internal/webhookevent/domain"
	eventrepo "github.com/marcelomar21/bets-estatistica/internal/webhookevent/repository"
	eventsvc "github.com/marcelomar21/bets-estatistica/internal/webhookevent/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T) (*Server, eventdomain.Queue) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&eventdomain.WebhookEvent{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	queue := eventsvc.NewService(eventsvc.ServiceParam{
		DB:    gdb,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)),
		Repo:  eventrepo.Provide(),
	})
	return New(queue, config.Config{}, zap.NewNop()), queue
}

func post(s *Server, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIngestQueuesEvent(t *testing.T) {
	s, queue := newTestServer(t)

	rec := post(s, "/webhooks/mercadopago", `{"type":"payment.created","data":{"id":12345}}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	events, err := queue.FetchPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eventdomain.EventTypePaymentApproved, events[0].EventType)
}

func TestIngestDuplicateAnswersOK(t *testing.T) {
	s, queue := newTestServer(t)
	body := `{"type":"payment.created","data":{"id":12345}}`

	first := post(s, "/webhooks/mercadopago", body)
	second := post(s, "/webhooks/mercadopago", body)

	// The provider must stop redelivering, so a duplicate is a 200.
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), "duplicate")

	events, err := queue.FetchPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestIngestRejectsInvalidJSON(t *testing.T) {
	s, _ := newTestServer(t)

	rec := post(s, "/webhooks/cakto", "not-json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestUnknownEventTypePassesThrough(t *testing.T) {
	s, queue := newTestServer(t)

	rec := post(s, "/webhooks/cakto", `{"event":"refund_requested","id":"r-1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	events, err := queue.FetchPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "refund_requested", events[0].EventType)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNormalizeEventType(t *testing.T) {
	cases := map[string]string{
		`{"type":"subscription_preapproval"}`: eventdomain.EventTypeSubscriptionCreated,
		`{"event":"purchase_approved"}`:       eventdomain.EventTypePaymentApproved,
		`{"event":"purchase_refused"}`:        eventdomain.EventTypePaymentRejected,
		`{"event":"subscription_canceled"}`:   eventdomain.EventTypeSubscriptionCancelled,
		`{"type":"subscription.cancelled"}`:   eventdomain.EventTypeSubscriptionCancelled,
	}
	for payload, want := range cases {
		assert.Equal(t, want, normalizeEventType("any", []byte(payload)))
	}
	assert.Equal(t, "mercadopago.unknown", normalizeEventType("mercadopago", []byte(`{}`)))
}
