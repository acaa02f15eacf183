// Package view projects catalog and cart state into display view models.
// Projections are pure: no state of their own, no side effects.
//
// Every catalog-sourced title is HTML-escaped here, in the projection, so
// any adapter that renders these models verbatim is safe against markup
// injection. Adapters must not escape the fields again.
package view

import (
	"html"

	"github.com/shopspring/decimal"

	"github.com/olshop/online-store/internal/domain/cart"
	"github.com/olshop/online-store/internal/domain/catalog"
	"github.com/olshop/online-store/pkg/currency"
)

// Display placeholders, matching the storefront copy.
const (
	placeholderLoading   = "Loading products..."
	placeholderNoCatalog = "No products found."
	placeholderFetchFail = "Failed to load products."
	placeholderEmptyCart = "Your cart is empty."
)

// CatalogItem is one product entry in the catalog grid.
type CatalogItem struct {
	ID    int
	Title string // HTML-escaped
	Price string
	Image string
}

// CatalogView is the catalog grid, or a placeholder when there is nothing
// to show.
type CatalogView struct {
	Items       []CatalogItem
	Placeholder string
}

// CartItem is one line in the cart panel.
type CartItem struct {
	ID        int
	Title     string // HTML-escaped
	UnitPrice string
	Qty       int
	Amount    string
}

// CartView is the cart panel contents.
type CartView struct {
	Items       []CartItem
	Placeholder string
	Total       string
	Badge       Badge
}

// Badge is the navbar cart counter; visible only when the cart holds items.
type Badge struct {
	Visible bool
	Count   int
}

// ProjectCatalog maps the cached catalog to its grid representation.
// A fetch failure shows an error placeholder; a loaded-but-empty catalog
// shows the "none found" placeholder; a never-loaded cache shows the
// loading placeholder.
func ProjectCatalog(c *catalog.Cache) CatalogView {
	records := c.Products()
	if len(records) == 0 {
		switch {
		case c.LastError() != nil:
			return CatalogView{Placeholder: placeholderFetchFail}
		case c.Loaded():
			return CatalogView{Placeholder: placeholderNoCatalog}
		default:
			return CatalogView{Placeholder: placeholderLoading}
		}
	}

	items := make([]CatalogItem, len(records))
	for i, p := range records {
		items[i] = CatalogItem{
			ID:    p.ID,
			Title: html.EscapeString(p.Title),
			Price: currency.USD(p.Price),
			Image: p.Image,
		}
	}
	return CatalogView{Items: items}
}

// ProjectCart maps a cart snapshot to the cart panel representation,
// including the total line and badge.
func ProjectCart(lines []cart.Line) CartView {
	total := decimal.Zero
	qty := 0
	items := make([]CartItem, len(lines))
	for i, l := range lines {
		amount := l.Amount()
		total = total.Add(amount)
		qty += l.Qty
		items[i] = CartItem{
			ID:        l.ID,
			Title:     html.EscapeString(l.Title),
			UnitPrice: currency.USD(l.Price),
			Qty:       l.Qty,
			Amount:    currency.USD(amount),
		}
	}

	v := CartView{
		Items: items,
		Total: currency.USD(total),
		Badge: Badge{Visible: qty > 0, Count: qty},
	}
	if len(lines) == 0 {
		v.Items = nil
		v.Placeholder = placeholderEmptyCart
	}
	return v
}
