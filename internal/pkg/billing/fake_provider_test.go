package billing

import (
	"context"
	"sync"
	"time"

	"github.com/stripe/stripe-go/v76"
)

// fakeProvider records the params it receives and answers from fixtures.
type fakeProvider struct {
	mu sync.Mutex

	prices       []*stripe.Price
	listErr      error
	customerErr  error
	subscribeErr error

	listCalls         []*stripe.PriceListParams
	customerCalls     []*stripe.CustomerParams
	subscriptionCalls []*stripe.SubscriptionParams
	retrievedIDs      []string
	subscriptionByID  map[string]*stripe.Subscription
}

func (f *fakeProvider) ListPrices(_ context.Context, params *stripe.PriceListParams) ([]*stripe.Price, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, params)
	if f.listErr != nil {
		return nil, f.listErr
	}

	wanted := make(map[string]struct{}, len(params.LookupKeys))
	for _, k := range params.LookupKeys {
		wanted[stripe.StringValue(k)] = struct{}{}
	}
	var out []*stripe.Price
	for _, p := range f.prices {
		if _, ok := wanted[p.LookupKey]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProvider) CreateCustomer(_ context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customerCalls = append(f.customerCalls, params)
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	return &stripe.Customer{ID: "cus_test", Email: stripe.StringValue(params.Email)}, nil
}

func (f *fakeProvider) CreateSubscription(_ context.Context, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscriptionCalls = append(f.subscriptionCalls, params)
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	return &stripe.Subscription{
		ID:       "sub_test",
		Status:   stripe.SubscriptionStatusIncomplete,
		Customer: &stripe.Customer{ID: stripe.StringValue(params.Customer)},
	}, nil
}

func (f *fakeProvider) GetSubscription(_ context.Context, id string) (*stripe.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retrievedIDs = append(f.retrievedIDs, id)
	if sub, ok := f.subscriptionByID[id]; ok {
		return sub, nil
	}
	return nil, &stripe.Error{
		HTTPStatusCode: 404,
		Type:           stripe.ErrorTypeInvalidRequest,
		Msg:            "No such subscription: '" + id + "'",
	}
}

func catalogPrice(id, lookupKey, title, emoji string, amount int64) *stripe.Price {
	return &stripe.Price{
		ID:         id,
		LookupKey:  lookupKey,
		UnitAmount: amount,
		Product: &stripe.Product{
			Metadata: map[string]string{"title": title, "emoji": emoji},
		},
	}
}

// memoryCache is a CatalogCache backed by a map.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	loadErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, false, m.loadErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryCache) Store(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	m.ttls[key] = ttl
	return nil
}

func stringValues(ptrs []*string) []string {
	out := make([]string, 0, len(ptrs))
	for _, p := range ptrs {
		out = append(out, stripe.StringValue(p))
	}
	return out
}
