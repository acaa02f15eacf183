// Package controller maps user actions to cart store operations and owns
// the cart overlay state. Every mutation is followed by a persistence write
// and a fresh projection, so the caller always renders the state as of the
// action's completion.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/olshop/online-store/internal/checkout"
	"github.com/olshop/online-store/internal/domain/cart"
	"github.com/olshop/online-store/internal/view"
)

// Kind discriminates user actions.
type Kind string

const (
	KindAdd       Kind = "add-to-cart"
	KindIncrease  Kind = "increase"
	KindDecrease  Kind = "decrease"
	KindRemove    Kind = "remove"
	KindClear     Kind = "clear"
	KindCheckout  Kind = "checkout"
	KindOpenCart  Kind = "open-cart"
	KindCloseCart Kind = "close-cart"
)

// Action is one user input event. ID is meaningful for the per-product
// kinds; Confirmed carries the result of the blocking confirmation dialog
// and is only consulted for KindClear.
type Action struct {
	Kind      Kind
	ID        int
	Confirmed bool
}

// Result is the state to render after an action completes.
type Result struct {
	Cart        view.CartView
	OverlayOpen bool
	// Notice is a blocking user-facing message (empty-cart checkout).
	Notice string
	// HandoffURL is set on a successful checkout; the adapter opens it in a
	// new browsing context.
	HandoffURL string
}

// Config holds the controller's non-dependency settings.
type Config struct {
	// HandoffBase is the messaging-channel base URL (e.g. https://wa.me).
	HandoffBase string
	// HandoffPhone is the destination identifier on the channel.
	HandoffPhone string
	// CloseDelay defers the overlay auto-close after the cart becomes empty
	// so the user sees the final empty render. Zero closes synchronously.
	CloseDelay time.Duration
}

// Controller serializes all cart mutations under one mutex: no two actions
// interleave, so every save reflects the state as of its action.
type Controller struct {
	cfg    Config
	store  *cart.Store
	repo   cart.Repository
	orders checkout.Repository
	lg     *zap.Logger

	actions metric.Int64Counter

	mu          sync.Mutex
	overlayOpen bool
}

// New constructs a Controller. The meter registers a counter of dispatched
// actions by kind.
func New(
	cfg Config,
	store *cart.Store,
	repo cart.Repository,
	orders checkout.Repository,
	lg *zap.Logger,
	meter metric.Meter,
) (*Controller, error) {
	actions, err := meter.Int64Counter("store.cart.actions",
		metric.WithDescription("User cart actions dispatched, by kind."),
	)
	if err != nil {
		return nil, errors.Wrap(err, "register actions counter")
	}

	return &Controller{
		cfg:     cfg,
		store:   store,
		repo:    repo,
		orders:  orders,
		lg:      lg,
		actions: actions,
	}, nil
}

// Dispatch applies one action and returns the state to render. Unrecognized
// kinds are ignored. No error escapes: every failure is local recovery and
// the app stays interactive.
func (c *Controller) Dispatch(ctx context.Context, a Action) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.actions.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(a.Kind))))

	switch a.Kind {
	case KindAdd:
		ch, err := c.store.Add(a.ID)
		if err != nil {
			// Unknown product id, ignored.
			c.lg.Debug("add ignored", zap.Int("product_id", a.ID), zap.Error(err))
			break
		}
		c.overlayOpen = true
		c.afterMutation(ctx, ch)

	case KindIncrease:
		if ch := c.store.Increase(a.ID); ch.Mutated {
			c.afterMutation(ctx, ch)
		}

	case KindDecrease:
		if ch := c.store.Decrease(a.ID); ch.Mutated {
			c.afterMutation(ctx, ch)
		}

	case KindRemove:
		if ch := c.store.Remove(a.ID); ch.Mutated {
			c.afterMutation(ctx, ch)
		}

	case KindClear:
		if !a.Confirmed {
			// Declined confirmation: no mutation, no save.
			break
		}
		c.afterMutation(ctx, c.store.Clear())

	case KindCheckout:
		return c.checkout(ctx)

	case KindOpenCart:
		c.overlayOpen = true

	case KindCloseCart:
		c.overlayOpen = false

	default:
		// Unrecognized action tag: no-op, no error.
	}

	return c.result()
}

// Render projects the current state without applying any action, used for
// initial page loads.
func (c *Controller) Render() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result()
}

// Overlay reports whether the cart overlay is currently open.
func (c *Controller) Overlay() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlayOpen
}

// checkout formats the order message, records it in the history, and hands
// back the channel URL. An empty cart blocks the handoff with a notice.
func (c *Controller) checkout(ctx context.Context) Result {
	snapshot := c.store.Snapshot()

	msg, err := checkout.Format(snapshot)
	if err != nil {
		r := c.result()
		r.Notice = "Your cart is empty."
		return r
	}

	o := checkout.Order{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		Lines:     snapshot,
		Total:     c.store.TotalAmount(),
	}
	if err := c.orders.Append(ctx, o); err != nil {
		// History is best-effort; the handoff still goes out.
		c.lg.Warn("order history append failed", zap.Error(err))
	}

	r := c.result()
	r.HandoffURL = checkout.HandoffURL(c.cfg.HandoffBase, c.cfg.HandoffPhone, msg)
	return r
}

// afterMutation persists the cart and handles the became-empty transition.
// Must be called with c.mu held.
func (c *Controller) afterMutation(ctx context.Context, ch cart.Change) {
	if err := c.repo.Save(ctx, c.store.Snapshot()); err != nil {
		// Persistence failure never takes the app down; the in-memory cart
		// stays authoritative for this session.
		c.lg.Error("cart save failed", zap.Error(err))
	}

	if ch.Emptied {
		c.scheduleClose()
	}
}

// scheduleClose dismisses the overlay after the configured delay so the user
// observes the final empty render first. Must be called with c.mu held.
func (c *Controller) scheduleClose() {
	if c.cfg.CloseDelay <= 0 {
		c.overlayOpen = false
		return
	}
	time.AfterFunc(c.cfg.CloseDelay, func() {
		c.mu.Lock()
		c.overlayOpen = false
		c.mu.Unlock()
	})
}

// result projects the current cart state. Must be called with c.mu held.
func (c *Controller) result() Result {
	return Result{
		Cart:        view.ProjectCart(c.store.Snapshot()),
		OverlayOpen: c.overlayOpen,
	}
}
