// Package export writes the admin product table as CSV.
package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.ProductsExporter = CSVExporter{}

type productRecord struct {
	ID       string  `csv:"ID"`
	Name     string  `csv:"Name"`
	Price    float64 `csv:"Price"`
	Stock    int     `csv:"Stock"`
	Category string  `csv:"Category"`
	Rating   float64 `csv:"Rating"`
	Featured bool    `csv:"Featured"`
}

type CSVExporter struct{}

func NewCSVExporter() CSVExporter {
	return CSVExporter{}
}

// Export writes the header and one row per product in input order.
// The header is written for an empty table too.
func (CSVExporter) Export(w io.Writer, vs []domain.Product) error {
	const op = "CSVExporter.Export"

	records := make([]productRecord, 0, len(vs))
	for _, v := range vs {
		records = append(records, productRecord{
			ID:       v.ID,
			Name:     v.Name,
			Price:    v.Price,
			Stock:    v.Stock,
			Category: v.Category,
			Rating:   v.Rating,
			Featured: v.Featured,
		})
	}

	if err := gocsv.Marshal(&records, w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
