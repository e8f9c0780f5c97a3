package models

// Product is catalog entity as seen by checkout
type Product struct {
	ID              int64
	Identifier      string
	Title           string
	Subtitle        string
	Price           int64
	StripeProductID *string
	DefaultPrice    *Price
	// Prices are active prices, default first. Filled by catalog reads only.
	Prices []Price
}

// Price is a product price registered with the payment processor
type Price struct {
	ID            int64
	ProductID     int64
	StripePriceID string
	Amount        int64
	Currency      string
	IsActive      bool
	IsDefault     bool
}

// UnitAmount returns default price amount, product base price otherwise
func (p Product) UnitAmount() int64 {
	if p.DefaultPrice != nil {
		return p.DefaultPrice.Amount
	}
	return p.Price
}
