package storage

import (
	"encoding/csv"
	"errors"
	"log/slog"
	"os"

	"sodatrack-backend/internal/catalog"
)

func (s Store) saveCSV(products []catalog.Product, appendMode bool) error {
	flags := os.O_CREATE | os.O_WRONLY
	writeHeader := true
	if appendMode && s.Exists() {
		flags |= os.O_APPEND
		writeHeader = false
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(s.path, flags, 0644)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if writeHeader {
		err = w.Write(header)
		if err != nil {
			f.Close()
			return err
		}
	}
	for _, p := range products {
		err = w.Write(row(p))
		if err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()

	return errors.Join(w.Error(), f.Close())
}

func (s Store) loadCSV() ([]catalog.Product, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	var products []catalog.Product
	for i, record := range records {
		if i == 0 && len(record) > 0 && record[0] == header[0] {
			continue
		}
		p, err := fromRow(record)
		if err != nil {
			slog.Warn("skipping malformed row", "file", s.path, "row", i, "err", err)
			continue
		}
		products = append(products, p)
	}
	return products, nil
}
