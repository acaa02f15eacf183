package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olshop/online-store/internal/domain/catalog"
)

// --- Mock resolver ---

type mockResolver struct {
	byID map[int]catalog.Product
}

func (m *mockResolver) Lookup(id int) (catalog.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func newResolver(products ...catalog.Product) *mockResolver {
	byID := make(map[int]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockResolver{byID: byID}
}

func testProduct(id int, title, price string) catalog.Product {
	return catalog.Product{
		ID:    id,
		Title: title,
		Price: decimal.RequireFromString(price),
		Image: "img.jpg",
	}
}

// --- Tests ---

func TestAdd_NewLine(t *testing.T) {
	s := NewStore(newResolver(testProduct(1, "Shirt", "20.00")))

	ch, err := s.Add(1)
	require.NoError(t, err)
	assert.True(t, ch.Mutated)
	assert.False(t, ch.Emptied)

	lines := s.Snapshot()
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].ID)
	assert.Equal(t, "Shirt", lines[0].Title)
	assert.Equal(t, 1, lines[0].Qty)
	assert.True(t, decimal.RequireFromString("20.00").Equal(s.TotalAmount()))
}

func TestAdd_ExistingLineIncrements(t *testing.T) {
	s := NewStore(newResolver(testProduct(1, "Shirt", "20.00")))

	_, err := s.Add(1)
	require.NoError(t, err)
	_, err = s.Add(1)
	require.NoError(t, err)

	lines := s.Snapshot()
	require.Len(t, lines, 1, "add is idempotent in identity")
	assert.Equal(t, 2, lines[0].Qty)
	assert.True(t, decimal.RequireFromString("40.00").Equal(s.TotalAmount()))
}

func TestAdd_UnknownProduct(t *testing.T) {
	s := NewStore(newResolver())

	ch, err := s.Add(99)
	require.ErrorIs(t, err, ErrProductNotFound)
	assert.False(t, ch.Mutated)
	assert.True(t, s.Empty())
}

func TestAdd_PriceLockedAtAddTime(t *testing.T) {
	r := newResolver(testProduct(1, "Shirt", "20.00"))
	s := NewStore(r)

	_, err := s.Add(1)
	require.NoError(t, err)

	// Catalog price changes after the line exists.
	r.byID[1] = testProduct(1, "Shirt", "35.00")
	_, err = s.Add(1)
	require.NoError(t, err)

	lines := s.Snapshot()
	require.Len(t, lines, 1)
	assert.True(t, decimal.RequireFromString("20.00").Equal(lines[0].Price),
		"price must stay locked at add time")
	assert.True(t, decimal.RequireFromString("40.00").Equal(s.TotalAmount()))
}

func TestIncrease(t *testing.T) {
	s := NewStore(newResolver(testProduct(1, "Shirt", "20.00")))

	_, err := s.Add(1)
	require.NoError(t, err)

	ch := s.Increase(1)
	assert.True(t, ch.Mutated)
	assert.Equal(t, 2, s.TotalQuantity())

	ch = s.Increase(42)
	assert.False(t, ch.Mutated, "increase on absent line is a no-op")
	assert.Equal(t, 2, s.TotalQuantity())
}

func TestDecrease(t *testing.T) {
	s := NewStore(newResolver(testProduct(1, "Shirt", "20.00")))

	_, err := s.Add(1)
	require.NoError(t, err)
	s.Increase(1)

	ch := s.Decrease(1)
	assert.True(t, ch.Mutated)
	assert.False(t, ch.Emptied)
	assert.Equal(t, 1, s.TotalQuantity())

	ch = s.Decrease(42)
	assert.False(t, ch.Mutated, "decrease on absent line is a no-op")
}

func TestDecrease_ToZeroRemovesLine(t *testing.T) {
	s := NewStore(newResolver(testProduct(1, "Shirt", "20.00")))

	_, err := s.Add(1)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	ch := s.Decrease(1)
	assert.True(t, ch.Mutated)
	assert.True(t, ch.Emptied, "last line removed must signal the empty transition")
	assert.Equal(t, 0, s.Len())
	assert.True(t, s.Empty())
	assert.True(t, decimal.Zero.Equal(s.TotalAmount()))
}

func TestDecrease_ToZeroKeepsOtherLines(t *testing.T) {
	s := NewStore(newResolver(
		testProduct(1, "Shirt", "20.00"),
		testProduct(2, "Hat", "5.00"),
		testProduct(3, "Bag", "15.00"),
	))

	for _, id := range []int{1, 2, 3} {
		_, err := s.Add(id)
		require.NoError(t, err)
	}

	ch := s.Decrease(2)
	assert.True(t, ch.Mutated)
	assert.False(t, ch.Emptied)

	lines := s.Snapshot()
	require.Len(t, lines, 2)
	assert.Equal(t, 1, lines[0].ID)
	assert.Equal(t, 3, lines[1].ID)

	// Index stays consistent after the middle removal.
	ch = s.Decrease(3)
	assert.True(t, ch.Mutated)
	require.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.Snapshot()[0].ID)
}

func TestRemove(t *testing.T) {
	s := NewStore(newResolver(testProduct(1, "Shirt", "20.00")))

	_, err := s.Add(1)
	require.NoError(t, err)
	s.Increase(1)

	ch := s.Remove(1)
	assert.True(t, ch.Mutated)
	assert.True(t, ch.Emptied)
	assert.True(t, s.Empty())

	ch = s.Remove(1)
	assert.False(t, ch.Mutated, "remove on absent line is a no-op")
}

func TestClear(t *testing.T) {
	s := NewStore(newResolver(
		testProduct(1, "Shirt", "20.00"),
		testProduct(2, "Hat", "5.00"),
	))

	for _, id := range []int{1, 2} {
		_, err := s.Add(id)
		require.NoError(t, err)
	}

	ch := s.Clear()
	assert.True(t, ch.Mutated)
	assert.True(t, ch.Emptied)
	assert.True(t, s.Empty())
	assert.Equal(t, 0, s.TotalQuantity())
}

func TestInsertionOrderIsFirstAddOrder(t *testing.T) {
	s := NewStore(newResolver(
		testProduct(3, "Bag", "15.00"),
		testProduct(1, "Shirt", "20.00"),
		testProduct(2, "Hat", "5.00"),
	))

	for _, id := range []int{3, 1, 2, 3, 1} {
		_, err := s.Add(id)
		require.NoError(t, err)
	}

	lines := s.Snapshot()
	require.Len(t, lines, 3)
	assert.Equal(t, []int{3, 1, 2}, []int{lines[0].ID, lines[1].ID, lines[2].ID})
	assert.Equal(t, 5, s.TotalQuantity())
}

func TestQuantityNeverNonPositive(t *testing.T) {
	s := NewStore(newResolver(
		testProduct(1, "Shirt", "20.00"),
		testProduct(2, "Hat", "5.00"),
	))

	// Arbitrary op sequence; after every step no line may have qty < 1.
	ops := []func(){
		func() { _, _ = s.Add(1) },
		func() { s.Decrease(1) },
		func() { s.Decrease(1) }, // absent now
		func() { _, _ = s.Add(2) },
		func() { s.Increase(2) },
		func() { s.Decrease(2) },
		func() { s.Decrease(2) },
		func() { s.Remove(2) },
		func() { _, _ = s.Add(1) },
	}
	for _, op := range ops {
		op()
		for _, l := range s.Snapshot() {
			require.GreaterOrEqual(t, l.Qty, 1)
		}
		sum := 0
		for _, l := range s.Snapshot() {
			sum += l.Qty
		}
		require.Equal(t, sum, s.TotalQuantity())
	}
}

func TestReplace_DropsMalformedLines(t *testing.T) {
	s := NewStore(newResolver())

	s.Replace([]Line{
		{ID: 1, Title: "Shirt", Price: decimal.RequireFromString("20.00"), Qty: 2},
		{ID: 2, Title: "Hat", Price: decimal.RequireFromString("5.00"), Qty: 0},
		{ID: 1, Title: "Shirt dup", Price: decimal.RequireFromString("1.00"), Qty: 1},
		{ID: 3, Title: "Bag", Price: decimal.RequireFromString("15.00"), Qty: -4},
	})

	lines := s.Snapshot()
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].ID)
	assert.Equal(t, 2, lines[0].Qty)
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := NewStore(newResolver(testProduct(1, "Shirt", "20.00")))

	_, err := s.Add(1)
	require.NoError(t, err)

	snap := s.Snapshot()
	snap[0].Qty = 99

	assert.Equal(t, 1, s.TotalQuantity(), "mutating a snapshot must not touch the store")
}
