package billing

// SetupPageResponse is what the checkout page needs to render the catalog and
// compute the discounted total client side.
type SetupPageResponse struct {
	PublicKey              string    `json:"publicKey"`
	MinProductsForDiscount int       `json:"minProductsForDiscount"`
	DiscountFactor         float64   `json:"discountFactor"`
	Products               []Product `json:"products"`
}

// Product is one purchasable catalog entry, shaped from a provider price with
// its product expanded.
type Product struct {
	Price ProductPrice `json:"price"`
	Title string       `json:"title"`
	Emoji string       `json:"emoji"`
}

type ProductPrice struct {
	ID         string `json:"id"`
	UnitAmount int64  `json:"unit_amount"`
}

// CreateCustomerRequest is the body of POST /create-customer.
type CreateCustomerRequest struct {
	PaymentMethod string   `json:"payment_method"`
	Email         string   `json:"email"`
	PriceIDs      []string `json:"price_ids"`
}

// SubscriptionRequest is the body of POST /subscription.
type SubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId"`
}
