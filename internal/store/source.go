package store

import (
	"context"
	"database/sql"

	"github.com/erazemk/mobilier/internal/geo"
	"github.com/erazemk/mobilier/internal/model"
)

// Source serves proximity candidates from the database, reading only the
// geohash cells that can hold records within the radius.
type Source struct {
	DB *sql.DB
}

// Candidates returns a superset of the records within radius meters of at.
func (s Source) Candidates(ctx context.Context, at geo.Point, radius float64) ([]model.Furniture, error) {
	return ListFurnitureInCells(ctx, s.DB, geo.Cover(at, radius))
}
