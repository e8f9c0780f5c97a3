package models

// Cart is user shopping cart, every user has at most one
type Cart struct {
	ID     int64
	UserID string
	Items  []CartItem
}

// CartItem is product quantity kept in a cart
type CartItem struct {
	ID        int64
	ProductID int64
	Quantity  int64
	Product   Product
}

// Subtotal returns product unit amount multiplied by quantity
func (i CartItem) Subtotal() int64 {
	return i.Product.UnitAmount() * i.Quantity
}

// Total sums item subtotals
func (c Cart) Total() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

// CartLine is cart item addressed by product catalog identifier
type CartLine struct {
	Identifier string
	Quantity   int64
}
