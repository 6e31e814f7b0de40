package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v76"
)

// Event types the receiver recognizes. customer.subscription.updated is an
// addition to the eight kinds Stripe's subscription sample listens for; it keeps
// plan changes made in the Dashboard from failing delivery.
const (
	EventCustomerCreated             stripe.EventType = "customer.created"
	EventCustomerUpdated             stripe.EventType = "customer.updated"
	EventCustomerSubscriptionCreated stripe.EventType = "customer.subscription.created"
	EventCustomerSubscriptionUpdated stripe.EventType = "customer.subscription.updated"
	EventInvoiceUpcoming             stripe.EventType = "invoice.upcoming"
	EventInvoiceCreated              stripe.EventType = "invoice.created"
	EventInvoiceFinalized            stripe.EventType = "invoice.finalized"
	EventInvoicePaymentSucceeded     stripe.EventType = "invoice.payment_succeeded"
	EventInvoicePaymentFailed        stripe.EventType = "invoice.payment_failed"
)

// ErrUnrecognizedEvent is returned by Dispatch for event types that are not registered.
var ErrUnrecognizedEvent = errors.New("unrecognized webhook event type")

// WebhookOutcome tells how a recognized event was processed.
type WebhookOutcome int

const (
	// WebhookHandled means a handler ran for the event.
	WebhookHandled WebhookOutcome = iota + 1
	// WebhookAcknowledged means the type is known but has no handler yet.
	WebhookAcknowledged
)

func (o WebhookOutcome) String() string {
	switch o {
	case WebhookHandled:
		return "handled"
	case WebhookAcknowledged:
		return "acknowledged"
	default:
		return "unknown"
	}
}

// EventHandler processes one verified event.
type EventHandler func(ctx context.Context, event stripe.Event) error

// WebhookDispatcher routes verified events by type. A registered type with a
// nil handler is acknowledged without further processing.
type WebhookDispatcher struct {
	kinds map[stripe.EventType]EventHandler
}

// NewWebhookDispatcher returns a dispatcher with the default billing event
// kinds registered.
func NewWebhookDispatcher() *WebhookDispatcher {
	d := &WebhookDispatcher{kinds: make(map[stripe.EventType]EventHandler)}
	d.Acknowledge(
		EventCustomerCreated,
		EventCustomerUpdated,
		EventCustomerSubscriptionUpdated,
		EventInvoiceUpcoming,
		EventInvoiceCreated,
		EventInvoiceFinalized,
		EventInvoicePaymentSucceeded,
		EventInvoicePaymentFailed,
	)
	d.Handle(EventCustomerSubscriptionCreated, logSubscriptionCreated)
	return d
}

// Handle registers (or replaces) the handler for an event type.
func (d *WebhookDispatcher) Handle(t stripe.EventType, h EventHandler) {
	d.kinds[t] = h
}

// Acknowledge registers event types that are accepted without a handler.
func (d *WebhookDispatcher) Acknowledge(types ...stripe.EventType) {
	for _, t := range types {
		d.kinds[t] = nil
	}
}

// Dispatch runs the handler registered for the event's type.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event stripe.Event) (WebhookOutcome, error) {
	h, ok := d.kinds[event.Type]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnrecognizedEvent, event.Type)
	}
	fiberlog.Debugf("[Webhook] received %s (%s)", event.Type, event.ID)
	if h == nil {
		return WebhookAcknowledged, nil
	}
	if err := h(ctx, event); err != nil {
		return 0, fmt.Errorf("handle %s: %w", event.Type, err)
	}
	return WebhookHandled, nil
}

func logSubscriptionCreated(_ context.Context, event stripe.Event) error {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		fiberlog.Warnf("[Webhook] %s (%s) carried no data object", event.Type, event.ID)
		return nil
	}

	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		// Usually an API version mismatch; the event is still acknowledged.
		fiberlog.Warnf("[Webhook] could not decode subscription in %s: %v", event.ID, err)
		return nil
	}
	fiberlog.Infof("[Webhook] subscription %s created for customer %s (status %s)",
		sub.ID, customerID(sub.Customer), sub.Status)
	fiberlog.Debugf("[Webhook] %s payload: %s", event.ID, event.Data.Raw)
	return nil
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}
