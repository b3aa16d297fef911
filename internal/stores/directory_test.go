package stores

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sodatrack-backend/internal/catalog"
)

type fakeFetcher struct {
	calls   int
	byState map[string][]catalog.Store
	err     error
}

func (f *fakeFetcher) FetchStores(ctx context.Context, state string) ([]catalog.Store, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byState[state], nil
}

func testFetcher() *fakeFetcher {
	return &fakeFetcher{byState: map[string][]catalog.Store{
		"FL": {
			{Id: "FL-1651", Name: "Gainesville Shopping Center", City: "Gainesville", State: "FL"},
			{Id: "FL-524", Name: "Colonial Plaza", City: "Orlando", State: "FL"},
		},
		"GA": {
			{Id: "GA-602", Name: "Midtown Place", City: "Atlanta", State: "GA"},
		},
	}}
}

func TestRefreshAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stores.json")
	fetcher := testFetcher()
	dir := NewDirectory(path, fetcher)

	require.True(t, dir.Stale())
	require.NoError(t, dir.Refresh(context.Background(), false))
	require.Equal(t, 2, fetcher.calls)
	require.False(t, dir.Stale())

	{
		// FL stores come before GA, in locator order
		all, err := dir.AllTargetStores()
		require.NoError(t, err)
		require.Len(t, all, 3)
		require.Equal(t, "FL-1651", all[0].Id)
		require.Equal(t, "FL-524", all[1].Id)
		require.Equal(t, "GA-602", all[2].Id)
	}

	{
		store, err := dir.ById("GA-602")
		require.NoError(t, err)
		require.Equal(t, "Atlanta", store.City)

		_, err = dir.ById("FL-9999")
		require.Error(t, err)
	}
}

func TestRefreshSkipsFreshDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stores.json")
	fetcher := testFetcher()
	dir := NewDirectory(path, fetcher)

	require.NoError(t, dir.Refresh(context.Background(), false))
	require.NoError(t, dir.Refresh(context.Background(), false))
	require.Equal(t, 2, fetcher.calls)

	// force ignores freshness
	require.NoError(t, dir.Refresh(context.Background(), true))
	require.Equal(t, 4, fetcher.calls)
}

func TestStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stores.json")
	dir := NewDirectory(path, testFetcher())

	// missing file
	require.True(t, dir.Stale())

	// zero stores on disk still forces a refresh
	require.NoError(t, os.WriteFile(path, []byte(`{"FL": [], "GA": []}`), 0644))
	require.True(t, dir.Stale())

	require.NoError(t, dir.Refresh(context.Background(), true))
	require.False(t, dir.Stale())

	// age the file past the refresh window
	old := time.Now().Add(-25 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))
	require.True(t, dir.Stale())
}

func TestRefreshFailureLeavesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stores.json")
	fetcher := testFetcher()
	dir := NewDirectory(path, fetcher)
	require.NoError(t, dir.Refresh(context.Background(), false))

	fetcher.err = errors.New("locator down")
	err := dir.Refresh(context.Background(), true)
	require.Error(t, err)

	all, err := dir.AllTargetStores()
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestSearch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stores.json")
	dir := NewDirectory(path, testFetcher())
	require.NoError(t, dir.Refresh(context.Background(), false))

	results, err := dir.Search("gainesville", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "FL-1651", results[0].Id)

	results, err = dir.Search("atlanta", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "GA-602", results[0].Id)
}
