package billing

import (
	"context"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Provider is the subset of the payment provider API the checkout flow uses.
type Provider interface {
	ListPrices(ctx context.Context, params *stripe.PriceListParams) ([]*stripe.Price, error)
	CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error)
	CreateSubscription(ctx context.Context, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
}

// StripeProviderConfig holds the configuration for creating a StripeProvider.
type StripeProviderConfig struct {
	SecretKey string
	BaseURL   string // Override for testing; defaults to the public Stripe API
	Timeout   time.Duration
	// Verbose forwards the client's debug and info logging, which includes
	// full response bodies. Development only.
	Verbose bool
}

// StripeProvider implements Provider on top of the stripe-go client. It owns
// its own backend so that several providers (tests, multiple keys) can coexist
// without touching the package-level stripe.Key.
type StripeProvider struct {
	api *client.API
}

// NewStripeProvider creates a provider with network retries disabled; a failed
// call surfaces to the caller as-is.
func NewStripeProvider(cfg StripeProviderConfig) *StripeProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 80 * time.Second
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		LeveledLogger:     stripeLogger{verbose: cfg.Verbose},
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripe.String(cfg.BaseURL)
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)
	return &StripeProvider{
		api: client.New(cfg.SecretKey, &stripe.Backends{
			API:     backend,
			Connect: backend,
			Uploads: backend,
		}),
	}
}

func (p *StripeProvider) ListPrices(ctx context.Context, params *stripe.PriceListParams) ([]*stripe.Price, error) {
	params.Context = ctx
	iter := p.api.Prices.List(params)

	var prices []*stripe.Price
	for iter.Next() {
		prices = append(prices, iter.Price())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return prices, nil
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	params.Context = ctx
	return p.api.Customers.New(params)
}

func (p *StripeProvider) CreateSubscription(ctx context.Context, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	params.Context = ctx
	return p.api.Subscriptions.New(params)
}

func (p *StripeProvider) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	return p.api.Subscriptions.Get(id, params)
}
