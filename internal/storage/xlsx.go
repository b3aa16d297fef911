package storage

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"sodatrack-backend/internal/catalog"
)

const sheetName = "Products"

func (s Store) saveXLSX(products []catalog.Product, appendMode bool) error {
	var f *excelize.File
	nextRow := 2

	if appendMode && s.Exists() {
		var err error
		f, err = excelize.OpenFile(s.path)
		if err != nil {
			return err
		}
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return err
		}
		nextRow = len(rows) + 1
	} else {
		f = excelize.NewFile()
		err := f.SetSheetName("Sheet1", sheetName)
		if err != nil {
			return err
		}
		headerRow := make([]interface{}, len(header))
		for i, h := range header {
			headerRow[i] = h
		}
		err = f.SetSheetRow(sheetName, "A1", &headerRow)
		if err != nil {
			return err
		}
	}
	defer f.Close()

	for i, p := range products {
		cells := make([]interface{}, 0, len(header))
		cells = append(cells, p.Name, p.Description, p.Identifier, p.Date.String(), p.Price, p.Ounces)
		if p.PricePerOunce != nil {
			cells = append(cells, *p.PricePerOunce)
		} else {
			cells = append(cells, "")
		}
		cells = append(cells, p.Promotion, p.Week, p.Store)

		err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", nextRow+i), &cells)
		if err != nil {
			return err
		}
	}

	return f.SaveAs(s.path)
}

func (s Store) loadXLSX() ([]catalog.Product, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	var products []catalog.Product
	for i, record := range rows {
		if i == 0 {
			continue
		}
		// trailing empty cells are dropped by GetRows
		for len(record) < len(header) {
			record = append(record, "")
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
