package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v76"

	"github.com/ManuelReschke/SubscriptionCheckout/internal/pkg/billing"
)

// CheckoutService is the part of billing.Service the HTTP layer needs.
type CheckoutService interface {
	SetupPage(ctx context.Context) (*billing.SetupPageResponse, error)
	CreateCustomerSubscription(ctx context.Context, req billing.CreateCustomerRequest) (*stripe.Subscription, error)
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
}

// BillingController serves the checkout endpoints and the provider webhook.
type BillingController struct {
	svc        CheckoutService
	verifier   *billing.WebhookVerifier
	dispatcher *billing.WebhookDispatcher
}

// NewBillingController creates a billing controller with its dependencies
func NewBillingController(svc CheckoutService, verifier *billing.WebhookVerifier, dispatcher *billing.WebhookDispatcher) *BillingController {
	return &BillingController{
		svc:        svc,
		verifier:   verifier,
		dispatcher: dispatcher,
	}
}

// HandleSetupPage returns the publishable key, discount policy and catalog.
func (bc *BillingController) HandleSetupPage(c *fiber.Ctx) error {
	page, err := bc.svc.SetupPage(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(page)
}

// HandleCreateCustomer creates a customer and subscribes it to the selected prices.
func (bc *BillingController) HandleCreateCustomer(c *fiber.Ctx) error {
	var req billing.CreateCustomerRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return err
	}

	sub, err := bc.svc.CreateCustomerSubscription(c.UserContext(), req)
	if err != nil {
		return err
	}
	return sendSubscription(c, sub)
}

// HandleSubscription returns the current state of a subscription.
func (bc *BillingController) HandleSubscription(c *fiber.Ctx) error {
	var req billing.SubscriptionRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return err
	}

	sub, err := bc.svc.GetSubscription(c.UserContext(), req.SubscriptionID)
	if err != nil {
		return err
	}
	return sendSubscription(c, sub)
}

// HandleStripeWebhook verifies and dispatches a provider event. Responses
// carry no body: 400 for a bad signature or an unknown type, 200 otherwise.
func (bc *BillingController) HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("Stripe-Signature"))

	event, err := bc.verifier.ParseEvent(rawBody, signature)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) {
			fiberlog.Warnf("[Webhook] rejected delivery: %v", err)
			return c.Status(fiber.StatusBadRequest).Send(nil)
		}
		return err
	}

	outcome, err := bc.dispatcher.Dispatch(c.UserContext(), event)
	if err != nil {
		if errors.Is(err, billing.ErrUnrecognizedEvent) {
			fiberlog.Infof("[Webhook] unexpected event type %s (%s)", event.Type, event.ID)
			return c.Status(fiber.StatusBadRequest).Send(nil)
		}
		return err
	}

	fiberlog.Debugf("[Webhook] %s %s", event.ID, outcome)
	return c.Status(fiber.StatusOK).Send(nil)
}

// decodeJSONBody decodes the request body. A malformed body is an internal
// error like any other failure on these routes.
func decodeJSONBody(c *fiber.Ctx, out interface{}) error {
	if err := json.Unmarshal(c.Body(), out); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func sendSubscription(c *fiber.Ctx, sub *stripe.Subscription) error {
	raw, err := billing.SubscriptionJSON(sub)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(raw)
}
