package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v76"

	"github.com/ManuelReschke/SubscriptionCheckout/internal/pkg/config"
)

// CatalogCache stores the shaped product list between /setup-page calls.
type CatalogCache interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Store(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Service shapes checkout requests into provider calls.
type Service struct {
	provider Provider
	cfg      config.Config
	cache    CatalogCache
}

// NewService creates a billing service from an injected provider and the
// startup configuration.
func NewService(provider Provider, cfg config.Config) *Service {
	return &Service{provider: provider, cfg: cfg}
}

// WithCatalogCache enables caching of the catalog for cfg.CatalogCacheTTL.
func (s *Service) WithCatalogCache(cache CatalogCache) *Service {
	s.cache = cache
	return s
}

// SetupPage returns the publishable key, the discount policy and one product
// per catalog name that has a matching price. Unmatched names are omitted.
func (s *Service) SetupPage(ctx context.Context) (*SetupPageResponse, error) {
	products, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}
	return &SetupPageResponse{
		PublicKey:              s.cfg.StripePublishableKey,
		MinProductsForDiscount: s.cfg.MinProductsForDiscount,
		DiscountFactor:         s.cfg.DiscountFactor,
		Products:               products,
	}, nil
}

func (s *Service) catalog(ctx context.Context) ([]Product, error) {
	keys := lookupKeys(s.cfg.CatalogNames, s.cfg.LookupKeySuffix)
	cacheKey := "catalog:" + strings.Join(keys, ",")

	if s.cachingEnabled() {
		if raw, ok, err := s.cache.Load(ctx, cacheKey); err != nil {
			fiberlog.Warnf("[Billing] catalog cache read failed: %v", err)
		} else if ok {
			var cached []Product
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			fiberlog.Warnf("[Billing] discarding unreadable catalog cache entry %s", cacheKey)
		}
	}

	params := &stripe.PriceListParams{
		LookupKeys: stripe.StringSlice(keys),
	}
	params.AddExpand("data.product")

	prices, err := s.provider.ListPrices(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}

	products := make([]Product, 0, len(prices))
	for _, p := range prices {
		products = append(products, productFromPrice(p))
	}

	if s.cachingEnabled() {
		if raw, err := json.Marshal(products); err == nil {
			if err := s.cache.Store(ctx, cacheKey, raw, s.cfg.CatalogCacheTTL); err != nil {
				fiberlog.Warnf("[Billing] catalog cache write failed: %v", err)
			}
		}
	}
	return products, nil
}

func (s *Service) cachingEnabled() bool {
	return s.cache != nil && s.cfg.CatalogCacheTTL > 0
}

// CreateCustomerSubscription creates a customer with the payment method as
// invoice default and subscribes it to every requested price. The coupon is
// attached once the number of prices reaches the discount threshold.
//
// There is no compensation: if the subscription call fails the customer
// stays behind at the provider.
func (s *Service) CreateCustomerSubscription(ctx context.Context, req CreateCustomerRequest) (*stripe.Subscription, error) {
	cust, err := s.provider.CreateCustomer(ctx, &stripe.CustomerParams{
		PaymentMethod: stripe.String(req.PaymentMethod),
		Email:         stripe.String(req.Email),
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(req.PaymentMethod),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(cust.ID),
		Items:    subscriptionItems(req.PriceIDs),
	}
	if eligibleForDiscount(len(req.PriceIDs), s.cfg.MinProductsForDiscount) && s.cfg.CouponID != "" {
		params.Coupon = stripe.String(s.cfg.CouponID)
	}
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := s.provider.CreateSubscription(ctx, params)
	if err != nil {
		fiberlog.Errorf("[Billing] subscription creation failed, customer %s left without subscription: %v", cust.ID, err)
		return nil, fmt.Errorf("create subscription for customer %s: %w", cust.ID, err)
	}
	return sub, nil
}

// GetSubscription fetches the current state of a subscription.
func (s *Service) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("subscriptionId is required")
	}
	sub, err := s.provider.GetSubscription(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("retrieve subscription %s: %w", id, err)
	}
	return sub, nil
}

// SubscriptionJSON returns the provider's own JSON for sub when available so
// clients see the object exactly as the provider sent it.
func SubscriptionJSON(sub *stripe.Subscription) ([]byte, error) {
	if sub == nil {
		return nil, errors.New("subscription is nil")
	}
	if sub.LastResponse != nil && len(sub.LastResponse.RawJSON) > 0 {
		return sub.LastResponse.RawJSON, nil
	}
	return json.Marshal(sub)
}
