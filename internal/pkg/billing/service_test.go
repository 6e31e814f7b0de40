package billing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"

	"github.com/ManuelReschke/SubscriptionCheckout/internal/pkg/config"
)

func testConfig() config.Config {
	return config.Config{
		StripePublishableKey:   "pk_test_123",
		CatalogNames:           []string{"fishfood", "cat", "unicorn"},
		LookupKeySuffix:        config.DefaultLookupKeySuffix,
		MinProductsForDiscount: 2,
		DiscountFactor:         0.8,
		CouponID:               "DISCOUNT20",
	}
}

func testCatalog() []*stripe.Price {
	return []*stripe.Price{
		catalogPrice("price_fish", "fishfood-monthly-usd", "Fish food", "🐟", 500),
		catalogPrice("price_cat", "cat-monthly-usd", "Cat food", "🐈", 1200),
		catalogPrice("price_dog", "dog-monthly-usd", "Dog food", "🐕", 1500),
	}
}

func TestSetupPageOmitsUnmatchedNames(t *testing.T) {
	provider := &fakeProvider{prices: testCatalog()}
	svc := NewService(provider, testConfig())

	page, err := svc.SetupPage(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "pk_test_123", page.PublicKey)
	assert.Equal(t, 2, page.MinProductsForDiscount)
	assert.InDelta(t, 0.8, page.DiscountFactor, 0.0001)
	require.Len(t, page.Products, 2)
	assert.Equal(t, Product{Price: ProductPrice{ID: "price_fish", UnitAmount: 500}, Title: "Fish food", Emoji: "🐟"}, page.Products[0])
	assert.Equal(t, "price_cat", page.Products[1].Price.ID)

	require.Len(t, provider.listCalls, 1)
	call := provider.listCalls[0]
	assert.Equal(t, []string{"fishfood-monthly-usd", "cat-monthly-usd", "unicorn-monthly-usd"}, stringValues(call.LookupKeys))
	assert.Equal(t, []string{"data.product"}, stringValues(call.Expand))
}

func TestSetupPageJSONShape(t *testing.T) {
	svc := NewService(&fakeProvider{prices: testCatalog()}, testConfig())
	page, err := svc.SetupPage(context.Background())
	require.NoError(t, err)

	raw, err := json.Marshal(page)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"publicKey": "pk_test_123",
		"minProductsForDiscount": 2,
		"discountFactor": 0.8,
		"products": [
			{"price": {"id": "price_fish", "unit_amount": 500}, "title": "Fish food", "emoji": "🐟"},
			{"price": {"id": "price_cat", "unit_amount": 1200}, "title": "Cat food", "emoji": "🐈"}
		]
	}`, string(raw))
}

func TestSetupPageProviderError(t *testing.T) {
	svc := NewService(&fakeProvider{listErr: errors.New("boom")}, testConfig())
	_, err := svc.SetupPage(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list prices")
}

func TestSetupPageUsesCatalogCache(t *testing.T) {
	cfg := testConfig()
	cfg.CatalogCacheTTL = time.Minute
	provider := &fakeProvider{prices: testCatalog()}
	cache := newMemoryCache()
	svc := NewService(provider, cfg).WithCatalogCache(cache)

	first, err := svc.SetupPage(context.Background())
	require.NoError(t, err)
	second, err := svc.SetupPage(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Products, second.Products)
	assert.Len(t, provider.listCalls, 1)
	for _, ttl := range cache.ttls {
		assert.Equal(t, time.Minute, ttl)
	}
}

func TestSetupPageIgnoresCacheWhenTTLZero(t *testing.T) {
	provider := &fakeProvider{prices: testCatalog()}
	svc := NewService(provider, testConfig()).WithCatalogCache(newMemoryCache())

	for i := 0; i < 2; i++ {
		_, err := svc.SetupPage(context.Background())
		require.NoError(t, err)
	}
	assert.Len(t, provider.listCalls, 2)
}

func TestSetupPageFallsBackWhenCacheFails(t *testing.T) {
	cfg := testConfig()
	cfg.CatalogCacheTTL = time.Minute
	cache := newMemoryCache()
	cache.loadErr = errors.New("connection refused")
	provider := &fakeProvider{prices: testCatalog()}

	page, err := NewService(provider, cfg).WithCatalogCache(cache).SetupPage(context.Background())
	require.NoError(t, err)
	assert.Len(t, page.Products, 2)
	assert.Len(t, provider.listCalls, 1)
}

func TestCreateCustomerSubscription(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewService(provider, testConfig())

	sub, err := svc.CreateCustomerSubscription(context.Background(), CreateCustomerRequest{
		PaymentMethod: "pm_card_visa",
		Email:         "jenny@example.com",
		PriceIDs:      []string{"price_fish"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sub_test", sub.ID)

	require.Len(t, provider.customerCalls, 1)
	cust := provider.customerCalls[0]
	assert.Equal(t, "pm_card_visa", stripe.StringValue(cust.PaymentMethod))
	assert.Equal(t, "jenny@example.com", stripe.StringValue(cust.Email))
	require.NotNil(t, cust.InvoiceSettings)
	assert.Equal(t, "pm_card_visa", stripe.StringValue(cust.InvoiceSettings.DefaultPaymentMethod))

	require.Len(t, provider.subscriptionCalls, 1)
	params := provider.subscriptionCalls[0]
	assert.Equal(t, "cus_test", stripe.StringValue(params.Customer))
	require.Len(t, params.Items, 1)
	assert.Equal(t, "price_fish", stripe.StringValue(params.Items[0].Price))
	assert.Equal(t, []string{"latest_invoice.payment_intent"}, stringValues(params.Expand))
}

func TestCreateCustomerSubscriptionCouponThreshold(t *testing.T) {
	tests := []struct {
		name       string
		priceIDs   []string
		wantCoupon bool
	}{
		{name: "below threshold", priceIDs: []string{"price_fish"}, wantCoupon: false},
		{name: "at threshold", priceIDs: []string{"price_fish", "price_cat"}, wantCoupon: true},
		{name: "above threshold", priceIDs: []string{"price_fish", "price_cat", "price_dog"}, wantCoupon: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{}
			svc := NewService(provider, testConfig())

			_, err := svc.CreateCustomerSubscription(context.Background(), CreateCustomerRequest{
				PaymentMethod: "pm_card_visa",
				Email:         "jenny@example.com",
				PriceIDs:      tt.priceIDs,
			})
			require.NoError(t, err)
			require.Len(t, provider.subscriptionCalls, 1)

			params := provider.subscriptionCalls[0]
			assert.Len(t, params.Items, len(tt.priceIDs))
			if tt.wantCoupon {
				assert.Equal(t, "DISCOUNT20", stripe.StringValue(params.Coupon))
			} else {
				assert.Nil(t, params.Coupon)
			}
		})
	}
}

func TestCreateCustomerSubscriptionWithoutPrices(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewService(provider, testConfig())

	_, err := svc.CreateCustomerSubscription(context.Background(), CreateCustomerRequest{
		PaymentMethod: "pm_card_visa",
		Email:         "jenny@example.com",
	})
	require.NoError(t, err)

	assert.Len(t, provider.customerCalls, 1)
	require.Len(t, provider.subscriptionCalls, 1)
	assert.Empty(t, provider.subscriptionCalls[0].Items)
	assert.Nil(t, provider.subscriptionCalls[0].Coupon)
}

func TestCreateCustomerSubscriptionNoCouponConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.CouponID = ""
	provider := &fakeProvider{}

	_, err := NewService(provider, cfg).CreateCustomerSubscription(context.Background(), CreateCustomerRequest{
		PaymentMethod: "pm_card_visa",
		Email:         "jenny@example.com",
		PriceIDs:      []string{"price_fish", "price_cat"},
	})
	require.NoError(t, err)
	assert.Nil(t, provider.subscriptionCalls[0].Coupon)
}

func TestCreateCustomerSubscriptionErrors(t *testing.T) {
	provider := &fakeProvider{customerErr: &stripe.Error{Msg: "No such PaymentMethod"}}
	_, err := NewService(provider, testConfig()).CreateCustomerSubscription(context.Background(), CreateCustomerRequest{})
	require.Error(t, err)
	var stripeErr *stripe.Error
	require.ErrorAs(t, err, &stripeErr)
	assert.Empty(t, provider.subscriptionCalls)

	// The customer is already created when the subscription call fails.
	provider = &fakeProvider{subscribeErr: errors.New("card declined")}
	_, err = NewService(provider, testConfig()).CreateCustomerSubscription(context.Background(), CreateCustomerRequest{
		PriceIDs: []string{"price_fish"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cus_test")
	assert.Len(t, provider.customerCalls, 1)
}

func TestGetSubscription(t *testing.T) {
	provider := &fakeProvider{subscriptionByID: map[string]*stripe.Subscription{
		"sub_123": {ID: "sub_123", Status: stripe.SubscriptionStatusActive},
	}}
	svc := NewService(provider, testConfig())

	sub, err := svc.GetSubscription(context.Background(), " sub_123 ")
	require.NoError(t, err)
	assert.Equal(t, stripe.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, []string{"sub_123"}, provider.retrievedIDs)

	_, err = svc.GetSubscription(context.Background(), "sub_missing")
	var stripeErr *stripe.Error
	require.ErrorAs(t, err, &stripeErr)
	assert.Equal(t, 404, stripeErr.HTTPStatusCode)

	_, err = svc.GetSubscription(context.Background(), "")
	require.Error(t, err)
	assert.Len(t, provider.retrievedIDs, 2)
}

func TestSubscriptionJSONPrefersRawResponse(t *testing.T) {
	sub := &stripe.Subscription{ID: "sub_123"}
	sub.LastResponse = &stripe.APIResponse{RawJSON: []byte(`{"id":"sub_123","object":"subscription"}`)}

	raw, err := SubscriptionJSON(sub)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"sub_123","object":"subscription"}`, string(raw))

	raw, err = SubscriptionJSON(&stripe.Subscription{ID: "sub_456"})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sub_456"`)

	_, err = SubscriptionJSON(nil)
	require.Error(t, err)
}
