package dedup

import (
	"fmt"
	"testing"

	"sodatrack-backend/internal/catalog"

	"github.com/stretchr/testify/require"
)

type sliceLoader []catalog.Product

func (l sliceLoader) Load() ([]catalog.Product, error) {
	return l, nil
}

type failingLoader struct{}

func (failingLoader) Load() ([]catalog.Product, error) {
	return nil, fmt.Errorf("disk on fire")
}

func product(identifier string) catalog.Product {
	date, _ := catalog.ParseDate("2025-08-25")
	return catalog.Product{
		Name:       "Cola " + identifier,
		Identifier: identifier,
		Date:       date,
		Price:      5.99,
		Week:       3,
		Store:      "FL-1651 - Gainesville, FL",
	}
}

func TestDeduplicatorAgainstSnapshot(t *testing.T) {
	// 10 records where 3 collide with already persisted ones
	persisted := []catalog.Product{product("A"), product("B"), product("C")}

	var batch []catalog.Product
	for _, id := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"} {
		batch = append(batch, product(id))
	}

	d, err := NewDeduplicator(sliceLoader(persisted))
	require.NoError(t, err)

	fresh, duplicate := d.Filter(batch)
	require.Len(t, fresh, 7)
	require.Len(t, duplicate, 3)

	// order preserved on both sides
	require.Equal(t, "D", fresh[0].Identifier)
	require.Equal(t, "J", fresh[6].Identifier)
	require.Equal(t, "A", duplicate[0].Identifier)
}

func TestDeduplicatorWithinBatch(t *testing.T) {
	d, err := NewDeduplicator(sliceLoader(nil))
	require.NoError(t, err)

	fresh, duplicate := d.Filter([]catalog.Product{product("A"), product("A"), product("B")})
	require.Len(t, fresh, 2)
	require.Len(t, duplicate, 1)
}

func TestDeduplicatorIdempotent(t *testing.T) {
	batch := []catalog.Product{product("A"), product("B"), product("C")}

	d, err := NewDeduplicator(sliceLoader(nil))
	require.NoError(t, err)

	fresh, _ := d.Filter(batch)
	require.Len(t, fresh, 3)

	// filtering the accepted records again yields nothing new
	again, duplicate := d.Filter(fresh)
	require.Empty(t, again)
	require.Len(t, duplicate, 3)
}

func TestDeduplicatorLoadFailure(t *testing.T) {
	_, err := NewDeduplicator(failingLoader{})
	require.Error(t, err)
}

func TestIncrementalFilter(t *testing.T) {
	persisted := []catalog.Product{product("A"), product("B")}

	f, err := NewIncrementalFilter(sliceLoader(persisted))
	require.NoError(t, err)
	require.Equal(t, 2, f.Known())

	batch := []catalog.Product{product("A"), product("C"), product("D")}

	fresh := f.FilterNew(batch)
	require.Len(t, fresh, 2)
	require.Equal(t, "C", fresh[0].Identifier)
	require.Equal(t, "D", fresh[1].Identifier)

	// the set is seeded once, not updated mid-run: the same batch
	// filters identically a second time
	require.Equal(t, fresh, f.FilterNew(batch))
}

func TestKeyDistinguishesStoreWeekDate(t *testing.T) {
	d, err := NewDeduplicator(sliceLoader([]catalog.Product{product("A")}))
	require.NoError(t, err)

	other := product("A")
	other.Store = "GA-0440 - Atlanta, GA"
	differentWeek := product("A")
	differentWeek.Week = 4

	fresh, duplicate := d.Filter([]catalog.Product{other, differentWeek})
	require.Len(t, fresh, 2)
	require.Empty(t, duplicate)
}
