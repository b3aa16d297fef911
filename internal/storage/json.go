package storage

import (
	"encoding/json"
	"log/slog"
	"os"

	"sodatrack-backend/internal/catalog"
)

// json appends can't add to the array in place, so the existing
// records are read back, concatenated and the whole file rewritten.
func (s Store) saveJSON(products []catalog.Product, appendMode bool) error {
	out := products
	if appendMode && s.Exists() {
		existing, err := s.loadJSON()
		if err != nil {
			return err
		}
		out = append(existing, products...)
	}

	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0644)
}

func (s Store) loadJSON() ([]catalog.Product, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	// decode records individually so one malformed entry doesn't
	// discard the rest of the file
	var entries []json.RawMessage
	err = json.Unmarshal(raw, &entries)
	if err != nil {
		return nil, err
	}

	var products []catalog.Product
	for i, entry := range entries {
		var p catalog.Product
		err = json.Unmarshal(entry, &p)
		if err != nil {
			slog.Warn("skipping malformed record", "file", s.path, "index", i, "err", err)
			continue
		}
		products = append(products, p)
	}
	return products, nil
}
