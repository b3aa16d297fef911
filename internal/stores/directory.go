// Package stores maintains the directory of tracked store locations,
// persisted as a single json file keyed by state.
package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/antzucaro/matchr"

	"sodatrack-backend/internal/catalog"
)

// directory contents older than this get refreshed before a run.
const staleAfter = 24 * time.Hour

var targetStates = []string{"FL", "GA"}

// Fetcher produces the current store list for one state, normally the
// publix locator sweep.
type Fetcher interface {
	FetchStores(ctx context.Context, state string) ([]catalog.Store, error)
}

type Directory struct {
	path    string
	fetcher Fetcher
}

func NewDirectory(path string, fetcher Fetcher) Directory {
	return Directory{path: path, fetcher: fetcher}
}

func (d Directory) Path() string {
	return d.path
}

func (d Directory) Load() (map[string][]catalog.Store, error) {
	raw, err := os.ReadFile(d.path)
	if os.IsNotExist(err) {
		return map[string][]catalog.Store{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return map[string][]catalog.Store{}, nil
	}

	var byState map[string][]catalog.Store
	err = json.Unmarshal(raw, &byState)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", d.path, err)
	}
	return byState, nil
}

// AllTargetStores returns every store in the tracked states, FL first
// then GA, in the order the locator reported them.
func (d Directory) AllTargetStores() ([]catalog.Store, error) {
	byState, err := d.Load()
	if err != nil {
		return nil, err
	}

	var all []catalog.Store
	for _, state := range targetStates {
		all = append(all, byState[state]...)
	}
	slog.Info(
		"loaded target stores",
		"total", len(all),
		"fl", len(byState["FL"]),
		"ga", len(byState["GA"]),
	)
	return all, nil
}

func (d Directory) ById(id string) (catalog.Store, error) {
	byState, err := d.Load()
	if err != nil {
		return catalog.Store{}, err
	}
	for _, state := range targetStates {
		for _, store := range byState[state] {
			if store.Id == id {
				return store, nil
			}
		}
	}
	return catalog.Store{}, fmt.Errorf("store %q not in directory", id)
}

// Stale reports whether the directory needs a refresh: missing,
// unreadable, older than 24 hours, or holding zero stores.
func (d Directory) Stale() bool {
	info, err := os.Stat(d.path)
	if err != nil {
		return true
	}
	if time.Since(info.ModTime()) > staleAfter {
		return true
	}

	byState, err := d.Load()
	if err != nil {
		return true
	}
	total := 0
	for _, stores := range byState {
		total += len(stores)
	}
	return total == 0
}

// Refresh sweeps the locator for every target state and rewrites the
// directory file. a fresh directory is left untouched unless force is
// set.
func (d Directory) Refresh(ctx context.Context, force bool) error {
	if !force && !d.Stale() {
		slog.InfoContext(ctx, "store directory is fresh, skipping refresh", "path", d.path)
		return nil
	}

	byState := map[string][]catalog.Store{}
	for _, state := range targetStates {
		found, err := d.fetcher.FetchStores(ctx, state)
		if err != nil {
			return fmt.Errorf("refresh %s stores: %w", state, err)
		}
		byState[state] = found
		slog.InfoContext(ctx, "refreshed state stores", "state", state, "stores", len(found))
	}

	return d.save(byState)
}

func (d Directory) save(byState map[string][]catalog.Store) error {
	raw, err := json.MarshalIndent(byState, "", "  ")
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(d.path), 0755)
	if err != nil {
		return err
	}
	return os.WriteFile(d.path, raw, 0644)
}

// Search ranks stores by fuzzy similarity between the query and each
// store's id, name and city, best first.
func (d Directory) Search(query string, limit int) ([]catalog.Store, error) {
	all, err := d.AllTargetStores()
	if err != nil {
		return nil, err
	}

	type scored struct {
		store      catalog.Store
		similarity float64
	}
	ranked := make([]scored, 0, len(all))
	query = strings.ToLower(query)
	for _, store := range all {
		similarity := 0.0
		for _, field := range []string{store.Id, store.Name, store.City} {
			sim := matchr.JaroWinkler(query, strings.ToLower(field), false)
			if sim > similarity {
				similarity = sim
			}
		}
		ranked = append(ranked, scored{store: store, similarity: similarity})
	}

	slices.SortStableFunc(ranked, func(a, b scored) int {
		// the 1 and -1 are flipped to make it sort descending (large values near the front)
		if a.similarity < b.similarity {
			return 1
		}
		if a.similarity > b.similarity {
			return -1
		}
		return 0
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]catalog.Store, len(ranked))
	for i, s := range ranked {
		out[i] = s.store
	}
	return out, nil
}
