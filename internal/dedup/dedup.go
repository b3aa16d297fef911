// Package dedup holds the two uniqueness filters in the pipeline.
// the incremental filter skips records already persisted by earlier
// runs, the deduplicator prevents re-committing a record within the
// current run. both key records by catalog.Product.Key.
package dedup

import (
	"sodatrack-backend/internal/catalog"
)

// Loader is the slice of the storage adapter the filters need for
// seeding.
type Loader interface {
	Load() ([]catalog.Product, error)
}

// Deduplicator is seeded from a storage snapshot and updated as it
// accepts records, so a collision against either the snapshot or an
// earlier accept in the same batch counts as a duplicate.
type Deduplicator struct {
	seen map[string]struct{}
}

func NewDeduplicator(source Loader) (*Deduplicator, error) {
	existing, err := source.Load()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		seen[p.Key()] = struct{}{}
	}
	return &Deduplicator{seen: seen}, nil
}

// Filter partitions records into new and duplicate, preserving the
// input order of both. accepted records enter the seen set
// immediately, so filtering the same content twice yields zero new
// records the second time.
func (d *Deduplicator) Filter(products []catalog.Product) (fresh, duplicate []catalog.Product) {
	for _, p := range products {
		key := p.Key()
		if _, collision := d.seen[key]; collision {
			duplicate = append(duplicate, p)
			continue
		}
		d.seen[key] = struct{}{}
		fresh = append(fresh, p)
	}
	return fresh, duplicate
}

// Known reports how many distinct observations the deduplicator has
// seen, counting both the seed snapshot and this run's accepts.
func (d *Deduplicator) Known() int {
	return len(d.seen)
}

// IncrementalFilter is seeded once from long-lived output and never
// updated mid-run. it answers "was this observed by a prior run",
// independent of what the current run has accumulated so far.
type IncrementalFilter struct {
	seen map[string]struct{}
}

func NewIncrementalFilter(source Loader) (*IncrementalFilter, error) {
	existing, err := source.Load()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		seen[p.Key()] = struct{}{}
	}
	return &IncrementalFilter{seen: seen}, nil
}

// FilterNew returns the subset of records whose key no prior run has
// persisted, in original order.
func (f *IncrementalFilter) FilterNew(products []catalog.Product) []catalog.Product {
	fresh := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if _, known := f.seen[p.Key()]; known {
			continue
		}
		fresh = append(fresh, p)
	}
	return fresh
}

// Known reports how many observations prior runs persisted.
func (f *IncrementalFilter) Known() int {
	return len(f.seen)
}
