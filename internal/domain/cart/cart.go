// Package cart implements the cart state machine: an ordered collection of
// line items keyed by product id, with all quantity bookkeeping and the
// empty-cart transition.
package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/olshop/online-store/internal/domain/catalog"
)

// ErrProductNotFound is returned by Add when the id does not resolve in the
// catalog. Callers treat it as a non-fatal no-op.
var ErrProductNotFound = errors.New("product not found in catalog")

// Line is one product entry in the cart. Title, price, and image are
// denormalized copies taken at add time: later catalog price changes do not
// affect lines already in the cart.
type Line struct {
	ID    int
	Title string
	Price decimal.Decimal
	Image string
	Qty   int
}

// Amount returns price * qty for this line.
func (l Line) Amount() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Change describes what a mutation did, so the caller can decide whether to
// persist and whether the cart just became empty.
type Change struct {
	// Mutated is false for no-ops (unknown id, absent line, unconfirmed clear).
	Mutated bool
	// Emptied is true when this mutation took the cart from non-empty to empty.
	Emptied bool
}

// Repository persists the cart to the durable slot. Save overwrites the full
// line sequence unconditionally; Load never fails upward — a missing or
// malformed slot yields an empty cart.
type Repository interface {
	Save(ctx context.Context, lines []Line) error
	Load(ctx context.Context) ([]Line, error)
}

// Resolver looks up a product by id; the catalog cache satisfies it.
type Resolver interface {
	Lookup(id int) (catalog.Product, error)
}

// Store owns the cart line sequence. Insertion order is first-add order and
// is preserved across persistence round trips. At most one line exists per
// product id, and every line has qty >= 1: a line decremented to zero is
// removed, never retained.
//
// Store itself is not safe for concurrent use; the controller serializes all
// mutations.
type Store struct {
	catalog Resolver
	lines   []Line
	index   map[int]int // product id -> position in lines
}

// NewStore returns an empty Store resolving products through the given catalog.
func NewStore(catalog Resolver) *Store {
	return &Store{
		catalog: catalog,
		index:   make(map[int]int),
	}
}

// Add puts one unit of the product with the given id into the cart. If a
// line already exists its quantity grows by one; otherwise a new line is
// appended with the product's title, price, and image copied at this
// instant. An id unknown to the catalog returns ErrProductNotFound and
// changes nothing.
func (s *Store) Add(id int) (Change, error) {
	if i, ok := s.index[id]; ok {
		s.lines[i].Qty++
		return Change{Mutated: true}, nil
	}

	p, err := s.catalog.Lookup(id)
	if err != nil {
		return Change{}, ErrProductNotFound
	}

	s.index[id] = len(s.lines)
	s.lines = append(s.lines, Line{
		ID:    p.ID,
		Title: p.Title,
		Price: p.Price,
		Image: p.Image,
		Qty:   1,
	})
	return Change{Mutated: true}, nil
}

// Increase grows the quantity of an existing line by one. Absent line: no-op.
func (s *Store) Increase(id int) Change {
	i, ok := s.index[id]
	if !ok {
		return Change{}
	}
	s.lines[i].Qty++
	return Change{Mutated: true}
}

// Decrease shrinks the quantity of an existing line by one, removing the
// line entirely when the quantity would reach zero. Absent line: no-op.
func (s *Store) Decrease(id int) Change {
	i, ok := s.index[id]
	if !ok {
		return Change{}
	}

	s.lines[i].Qty--
	if s.lines[i].Qty > 0 {
		return Change{Mutated: true}
	}
	return s.Remove(id)
}

// Remove deletes the line for id if present, keeping the order of the
// remaining lines.
func (s *Store) Remove(id int) Change {
	i, ok := s.index[id]
	if !ok {
		return Change{}
	}

	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.lines); j++ {
		s.index[s.lines[j].ID] = j
	}
	return Change{Mutated: true, Emptied: len(s.lines) == 0}
}

// Clear empties the cart. Confirmation is the caller's responsibility.
func (s *Store) Clear() Change {
	if len(s.lines) == 0 {
		return Change{Mutated: true}
	}
	s.lines = nil
	s.index = make(map[int]int)
	return Change{Mutated: true, Emptied: true}
}

// Replace swaps the whole line sequence, used when loading the persisted
// cart. Lines with non-positive quantities or duplicate ids are dropped so
// the store invariants hold regardless of what was on disk.
func (s *Store) Replace(lines []Line) {
	s.lines = nil
	s.index = make(map[int]int)
	for _, l := range lines {
		if l.Qty < 1 {
			continue
		}
		if _, ok := s.index[l.ID]; ok {
			continue
		}
		s.index[l.ID] = len(s.lines)
		s.lines = append(s.lines, l)
	}
}

// TotalQuantity returns the sum of all line quantities; 0 for an empty cart.
func (s *Store) TotalQuantity() int {
	total := 0
	for _, l := range s.lines {
		total += l.Qty
	}
	return total
}

// TotalAmount returns the sum of price * qty over all lines.
func (s *Store) TotalAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range s.lines {
		sum = sum.Add(l.Amount())
	}
	return sum
}

// Snapshot returns a copy of the line sequence in insertion order.
func (s *Store) Snapshot() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Len returns the number of distinct lines.
func (s *Store) Len() int {
	return len(s.lines)
}

// Empty reports whether the cart has no lines.
func (s *Store) Empty() bool {
	return len(s.lines) == 0
}
