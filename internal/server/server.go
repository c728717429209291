// Package server exposes the webhook ingestion endpoint plus health and
// metrics. Ingestion does the minimum durable work — validate, normalize,
// enqueue — and answers fast; all business logic runs in the dispatcher.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marcelomar21/bets-estatistica/internal/config"
	eventdomain "github.com/marcelomar21/bets-estatistica/internal/webhookevent/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const maxPayloadBytes = 1 << 20

type Server struct {
	engine *gin.Engine
	queue  eventdomain.Queue
	logger *zap.Logger
}

func New(queue eventdomain.Queue, cfg config.Config, logger *zap.Logger) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		engine: gin.New(),
		queue:  queue,
		logger: logger.Named("server"),
	}
	s.engine.Use(gin.Recovery())

	s.engine.GET("/health", s.health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.POST("/webhooks/:provider", s.ingest)
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ingest accepts the provider callback and enqueues it. Duplicates answer
// 200: the provider must stop redelivering an event we already hold.
func (s *Server) ingest(c *gin.Context) {
	provider := c.Param("provider")

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	if !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	eventType := normalizeEventType(provider, body)
	key := idempotencyKey(c, eventType, body)

	event, err := s.queue.Enqueue(c.Request.Context(), eventdomain.EnqueueRequest{
		IdempotencyKey: key,
		EventType:      eventType,
		Payload:        body,
	})
	if errors.Is(err, eventdomain.ErrEventAlreadyQueued) {
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}
	if err != nil {
		s.logger.Error("webhook.enqueue_failed",
			zap.String("provider", provider),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue failed"})
		return
	}

	s.logger.Info("webhook.received",
		zap.String("provider", provider),
		zap.String("event_type", eventType),
		zap.Int64("event_id", int64(event.ID)),
	)
	c.JSON(http.StatusOK, gin.H{"status": "queued"})
}

// normalizeEventType maps provider-specific event names onto the internal
// ones. Unknown names pass through unchanged; the dispatcher completes them
// as unhandled instead of retrying forever.
func normalizeEventType(provider string, payload []byte) string {
	var body struct {
		Type   string `json:"type"`
		Event  string `json:"event"`
		Action string `json:"action"`
	}
	_ = json.Unmarshal(payload, &body)

	raw := body.Event
	if raw == "" {
		raw = body.Type
	}
	if raw == "" {
		raw = body.Action
	}

	switch raw {
	case eventdomain.EventTypeSubscriptionCreated,
		eventdomain.EventTypePaymentApproved,
		eventdomain.EventTypePaymentRejected,
		eventdomain.EventTypeSubscriptionCancelled:
		return raw
	case "subscription_preapproval", "preapproval":
		return eventdomain.EventTypeSubscriptionCreated
	case "purchase_approved", "payment.created":
		return eventdomain.EventTypePaymentApproved
	case "purchase_refused", "payment.refused":
		return eventdomain.EventTypePaymentRejected
	case "subscription_canceled", "subscription.canceled", "subscription.expired":
		return eventdomain.EventTypeSubscriptionCancelled
	default:
		if raw == "" {
			return provider + ".unknown"
		}
		return raw
	}
}

// idempotencyKey prefers the provider's own request id, then the referenced
// resource id combined with the event type, then a random key as last resort
// (a random key never dedups, but losing dedup beats rejecting the event).
func idempotencyKey(c *gin.Context, eventType string, payload []byte) string {
	if requestID := c.GetHeader("X-Request-Id"); requestID != "" {
		return requestID
	}

	var body struct {
		Data struct {
			ID json.RawMessage `json:"id"`
		} `json:"data"`
		ID json.RawMessage `json:"id"`
	}
	_ = json.Unmarshal(payload, &body)

	raw := body.Data.ID
	if len(raw) == 0 {
		raw = body.ID
	}
	if len(raw) > 0 {
		var asString string
		if err := json.Unmarshal(raw, &asString); err == nil && asString != "" {
			return eventType + ":" + asString
		}
		var asNumber json.Number
		if err := json.Unmarshal(raw, &asNumber); err == nil {
			return eventType + ":" + asNumber.String()
		}
	}
	return "anon:" + uuid.NewString()
}
