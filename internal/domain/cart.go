package domain

// CartItem pairs a product with the quantity selected for it. Quantity is
// always >= 1; an item whose quantity would drop to zero is removed instead.
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// CartState is the active session's selection. TotalItems and TotalPriceCents
// are derived and recomputed on every mutation, never edited independently.
//
// TotalPriceCents sums full unit prices (discount excluded); discounts apply
// only at order settlement via OrderItemsTotal. The asymmetry reproduces the
// storefront's observed behaviour and is pinned by tests.
type CartState struct {
	Items           []CartItem `json:"cartItems"`
	TotalItems      int        `json:"totalItems"`
	TotalPriceCents int64      `json:"totalPrice"`
}

// EmptyCart returns a cart with no items and zeroed totals.
func EmptyCart() CartState {
	return CartState{Items: []CartItem{}}
}

// Add returns the state after adding one unit of the product: an existing
// line for the same product ID is incremented, otherwise a new line with
// quantity 1 is appended.
func (s CartState) Add(p Product) CartState {
	items := cloneCartItems(s.Items)
	for i := range items {
		if items[i].ID == p.ID {
			items[i].Quantity++
			return recompute(items)
		}
	}
	items = append(items, CartItem{Product: p, Quantity: 1})
	return recompute(items)
}

// Remove returns the state with the matching line filtered out. Removing an
// absent ID is a no-op.
func (s CartState) Remove(productID string) CartState {
	items := make([]CartItem, 0, len(s.Items))
	for _, item := range s.Items {
		if item.ID != productID {
			items = append(items, item)
		}
	}
	return recompute(items)
}

// SetQuantity returns the state with the matching line's quantity replaced.
// A quantity <= 0 is equivalent to Remove. No upper bound or stock check is
// applied.
func (s CartState) SetQuantity(productID string, quantity int) CartState {
	if quantity <= 0 {
		return s.Remove(productID)
	}
	items := cloneCartItems(s.Items)
	for i := range items {
		if items[i].ID == productID {
			items[i].Quantity = quantity
			break
		}
	}
	return recompute(items)
}

// Clear returns the empty state.
func (s CartState) Clear() CartState {
	return EmptyCart()
}

// Normalize re-derives the totals from the item list, dropping any line with
// a non-positive quantity. Used when hydrating persisted state that may be
// stale or hand-edited.
func (s CartState) Normalize() CartState {
	items := make([]CartItem, 0, len(s.Items))
	for _, item := range s.Items {
		if item.Quantity > 0 {
			items = append(items, item)
		}
	}
	return recompute(items)
}

func recompute(items []CartItem) CartState {
	state := CartState{Items: items}
	for _, item := range items {
		state.TotalItems += item.Quantity
		state.TotalPriceCents += item.PriceCents * int64(item.Quantity)
	}
	return state
}

func cloneCartItems(items []CartItem) []CartItem {
	if len(items) == 0 {
		return []CartItem{}
	}
	dup := make([]CartItem, len(items))
	copy(dup, items)
	return dup
}
