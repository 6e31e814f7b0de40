package billing

import (
	"strings"

	"github.com/stripe/stripe-go/v76"
)

// lookupKeys derives the provider price lookup keys for the catalog names.
func lookupKeys(names []string, suffix string) []string {
	keys := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		key := name + suffix
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

func eligibleForDiscount(itemCount, minProducts int) bool {
	return itemCount >= minProducts
}

// productFromPrice shapes a price with an expanded product into a catalog entry.
func productFromPrice(p *stripe.Price) Product {
	out := Product{
		Price: ProductPrice{
			ID:         p.ID,
			UnitAmount: p.UnitAmount,
		},
	}
	if p.Product != nil {
		out.Title = p.Product.Metadata["title"]
		out.Emoji = p.Product.Metadata["emoji"]
	}
	return out
}

func subscriptionItems(priceIDs []string) []*stripe.SubscriptionItemsParams {
	items := make([]*stripe.SubscriptionItemsParams, 0, len(priceIDs))
	for _, id := range priceIDs {
		items = append(items, &stripe.SubscriptionItemsParams{
			Price: stripe.String(id),
		})
	}
	return items
}
