package ingest

import (
	"io"

	"strom_dashboard/internal/model"
)

// Parser reads one day document and returns its readings in document order.
type Parser interface {
	Parse(r io.Reader) (model.DaySeries, error)
}
