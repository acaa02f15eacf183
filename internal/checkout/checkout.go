// Package checkout turns a cart snapshot into the order message handed off
// to the external messaging channel, and records placed orders.
package checkout

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/olshop/online-store/internal/domain/cart"
	"github.com/olshop/online-store/pkg/currency"
)

// ErrEmptyCart is returned when a checkout is attempted on an empty cart.
// The handoff must be blocked, never sent with empty content.
var ErrEmptyCart = errors.New("cart is empty")

// Preamble opens every order message.
const Preamble = "Hello, I would like to place an order:"

// Format renders the order message: the fixed preamble, one line per cart
// line in cart order, and the grand total. The output is plain text, safe to
// URL-encode for the handoff channel.
func Format(lines []cart.Line) (string, error) {
	if len(lines) == 0 {
		return "", ErrEmptyCart
	}

	var b strings.Builder
	b.WriteString(Preamble)
	b.WriteString("\n\n")

	total := decimal.Zero
	for _, l := range lines {
		amount := l.Amount()
		total = total.Add(amount)

		b.WriteString(strconv.Itoa(l.Qty))
		b.WriteString(" x ")
		b.WriteString(l.Title)
		b.WriteString(" - ")
		b.WriteString(currency.USD(amount))
		b.WriteByte('\n')
	}

	b.WriteString("\nTotal: ")
	b.WriteString(currency.USD(total))
	return b.String(), nil
}

// HandoffURL builds the messaging-channel URL for the given destination and
// message text. No response from the channel is awaited or validated.
func HandoffURL(base, destination, message string) string {
	return strings.TrimSuffix(base, "/") + "/" + destination + "?text=" + url.QueryEscape(message)
}

// Order is a placed order recorded in the local history.
type Order struct {
	ID        string
	CreatedAt time.Time
	Lines     []cart.Line
	Total     decimal.Decimal
}

// Repository defines persistence for the order history.
type Repository interface {
	Append(ctx context.Context, o Order) error
	List(ctx context.Context) ([]Order, error)
}
