// Package cart keeps a user's pre-checkout cart as a normalized collection
// of line items with quantities clamped to available stock. Totals are
// recomputed from scratch after every mutation.
package cart

type Item struct {
	ProductID int     `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url,omitempty"`
	Category  string  `json:"category"`
	Stock     int     `json:"stock"`
	SedeID    int     `json:"sede_id"`
	Quantity  int     `json:"quantity"`
}

type Cart struct {
	Items     []Item  `json:"items"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"item_count"`
}

// AddItem inserts p at quantity 1, or bumps the existing entry by one,
// never past the available stock.
func (c Cart) AddItem(p Item) Cart {
	for i, it := range c.Items {
		if it.ProductID == p.ProductID {
			q := it.Quantity + 1
			if q > it.Stock {
				q = it.Stock
			}
			c.Items[i].Quantity = q
			return c.recompute()
		}
	}

	p.Quantity = 1
	if p.Stock < 1 {
		// Out-of-stock products never enter the cart.
		return c.recompute()
	}
	c.Items = append(c.Items, p)
	return c.recompute()
}

func (c Cart) RemoveItem(productID int) Cart {
	items := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			items = append(items, it)
		}
	}
	c.Items = items
	return c.recompute()
}

// UpdateQuantity sets the entry to min(quantity, stock); a quantity of zero
// or less removes the entry entirely.
func (c Cart) UpdateQuantity(productID, quantity int) Cart {
	if quantity <= 0 {
		return c.RemoveItem(productID)
	}
	for i, it := range c.Items {
		if it.ProductID == productID {
			if quantity > it.Stock {
				quantity = it.Stock
			}
			c.Items[i].Quantity = quantity
			break
		}
	}
	return c.recompute()
}

func (c Cart) Clear() Cart {
	return Cart{}
}

func (c Cart) recompute() Cart {
	total := 0.0
	count := 0
	for _, it := range c.Items {
		total += it.Price * float64(it.Quantity)
		count += it.Quantity
	}
	c.Total = total
	c.ItemCount = count
	return c
}
