package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// PaymentReconciler receives the gateway's terminal payment outcomes.
type PaymentReconciler interface {
	OnSucceeded(ctx context.Context, intentID string, amountCents int64) error
	OnFailed(ctx context.Context, intentID, reason string) error
	OnCancelled(ctx context.Context, intentID, reason string) error
	OnExpired(ctx context.Context, intentID string) error
}

type WebhookHandler struct {
	reconciler    PaymentReconciler
	webhookSecret string
}

func NewWebhookHandler(reconciler PaymentReconciler, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, webhookSecret: webhookSecret}
}

func (h *WebhookHandler) Register(router *gin.RouterGroup) {
	router.POST("/stripe", h.stripe)
}

// stripe verifies and dispatches gateway callbacks. Events are
// processed in isolation and always acknowledged: one bad event must
// not block delivery of unrelated ones, and re-delivery cannot fix a
// reconciliation failure that needs an operator.
func (h *WebhookHandler) stripe(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		log.Printf("stripe webhook signature verification failed: %v", err)
		c.Status(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		pi, ok := parseIntent(event)
		if !ok {
			break
		}
		if err := h.reconciler.OnSucceeded(c.Request.Context(), pi.ID, pi.Amount); err != nil {
			log.Printf("reconcile success for intent %s: %v", pi.ID, err)
		}
	case "payment_intent.payment_failed":
		pi, ok := parseIntent(event)
		if !ok {
			break
		}
		if err := h.reconciler.OnFailed(c.Request.Context(), pi.ID, failureReason(pi)); err != nil {
			log.Printf("reconcile failure for intent %s: %v", pi.ID, err)
		}
	case "payment_intent.canceled":
		pi, ok := parseIntent(event)
		if !ok {
			break
		}
		reason := string(pi.CancellationReason)
		if reason == "abandoned" || reason == "automatic" {
			err = h.reconciler.OnExpired(c.Request.Context(), pi.ID)
		} else {
			err = h.reconciler.OnCancelled(c.Request.Context(), pi.ID, reason)
		}
		if err != nil {
			log.Printf("reconcile cancellation for intent %s: %v", pi.ID, err)
		}
	default:
		// Not a payment outcome; acknowledged and dropped.
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func parseIntent(event stripe.Event) (*stripe.PaymentIntent, bool) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Printf("parse payment intent from %s event: %v", event.Type, err)
		return nil, false
	}
	return &pi, true
}

func failureReason(pi *stripe.PaymentIntent) string {
	if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
		return pi.LastPaymentError.Msg
	}
	return "payment failed"
}
