package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/erazemk/mobilier/internal/geo"
	"github.com/erazemk/mobilier/internal/imaging"
	"github.com/erazemk/mobilier/internal/model"
)

// ErrNotFound is returned when an update targets a record that does not exist.
var ErrNotFound = errors.New("not found")

// Filter narrows ListFurniture. Zero values match everything.
type Filter struct {
	Category  string
	State     string
	Manager   string
	Agent     string
	Query     string // case-insensitive match on type, comment and agent
	Processed *bool
}

const furnitureColumns = `id, type, category, state, latitude, longitude, manager, criticality,
	comment, photo IS NOT NULL, recorded_at, agent, distributor, technical_description,
	reference, installed_on`

type scanner interface {
	Scan(dest ...any) error
}

func scanFurniture(s scanner) (*model.Furniture, error) {
	f := &model.Furniture{}
	var id int64
	var comment, distributor, technical, reference, installedOn sql.NullString
	err := s.Scan(&id, &f.Type, &f.Category, &f.State, &f.Latitude, &f.Longitude, &f.Manager,
		&f.Criticality, &comment, &f.HasPhoto, &f.RecordedAt, &f.Agent, &distributor, &technical,
		&reference, &installedOn)
	if err != nil {
		return nil, err
	}
	f.ID = strconv.FormatInt(id, 10)
	f.Comment = comment.String
	f.Distributor = distributor.String
	f.TechnicalDescription = technical.String
	f.Reference = reference.String
	f.InstalledOn = installedOn.String
	return f, nil
}

// CreateFurniture stores a new record and returns it with its assigned id.
// The client id, if any, is discarded.
func CreateFurniture(ctx context.Context, db *sql.DB, f model.Furniture) (*model.Furniture, error) {
	photo, mime, err := photoColumns(f.Photo)
	if err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO furniture (type, category, state, latitude, longitude, geohash, manager,
		     criticality, comment, photo, photo_mime, recorded_at, agent, distributor,
		     technical_description, reference, installed_on)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Type, f.Category, f.State, f.Latitude, f.Longitude, geo.Hash(f.Position()), f.Manager,
		f.Criticality, nullable(f.Comment), photo, mime, time.Now().UTC(), f.Agent,
		nullable(f.Distributor), nullable(f.TechnicalDescription), nullable(f.Reference),
		nullable(f.InstalledOn),
	)
	if err != nil {
		return nil, fmt.Errorf("creating furniture: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting furniture id: %w", err)
	}

	return GetFurniture(ctx, db, strconv.FormatInt(id, 10))
}

// GetFurniture returns a record by id, including its photo as a data URI.
// It returns nil if the record does not exist.
func GetFurniture(ctx context.Context, db *sql.DB, id string) (*model.Furniture, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	f, err := scanFurniture(db.QueryRowContext(ctx,
		`SELECT `+furnitureColumns+` FROM furniture WHERE id = ?`, n,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting furniture: %w", err)
	}

	if f.HasPhoto {
		data, mime, err := GetFurniturePhoto(ctx, db, id)
		if err != nil {
			return nil, err
		}
		f.Photo = imaging.EncodeDataURI(&imaging.Photo{Data: data, MIME: mime})
	}
	return f, nil
}

// GetFurniturePhoto returns a record's photo bytes and MIME type.
func GetFurniturePhoto(ctx context.Context, db *sql.DB, id string) ([]byte, string, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, "", nil
	}

	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM furniture WHERE id = ?`, n,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting furniture photo: %w", err)
	}
	return photo, mime.String, nil
}

// ListFurniture returns records newest first. Photos are not loaded.
func ListFurniture(ctx context.Context, db *sql.DB, filter Filter) ([]model.Furniture, error) {
	var where []string
	var args []any
	for _, c := range []struct {
		column, value string
	}{
		{"category", filter.Category},
		{"state", filter.State},
		{"manager", filter.Manager},
		{"agent", filter.Agent},
	} {
		if c.value != "" {
			where = append(where, c.column+" = ?")
			args = append(args, c.value)
		}
	}

	query := `SELECT ` + furnitureColumns + ` FROM furniture`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY recorded_at DESC, id DESC`

	all, err := queryFurniture(ctx, db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing furniture: %w", err)
	}

	if filter.Query == "" && filter.Processed == nil {
		return all, nil
	}

	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(filter.Query))
	out := make([]model.Furniture, 0, len(all))
	for _, f := range all {
		if filter.Processed != nil && model.IsFullyProcessed(f) != *filter.Processed {
			continue
		}
		if needle != "" &&
			!strings.Contains(fold.String(f.Type), needle) &&
			!strings.Contains(fold.String(f.Comment), needle) &&
			!strings.Contains(fold.String(f.Agent), needle) {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// ListFurnitureInCells returns the records whose geohash falls inside one of
// the given cells. A nil cell list returns every record.
func ListFurnitureInCells(ctx context.Context, db *sql.DB, cells []string) ([]model.Furniture, error) {
	query := `SELECT ` + furnitureColumns + ` FROM furniture`
	var args []any
	if cells != nil {
		ranges := make([]string, 0, len(cells))
		for _, c := range cells {
			// '{' sorts after every geohash character.
			ranges = append(ranges, "(geohash >= ? AND geohash < ?)")
			args = append(args, c, c+"{")
		}
		query += ` WHERE ` + strings.Join(ranges, " OR ")
	}
	query += ` ORDER BY recorded_at DESC, id DESC`

	items, err := queryFurniture(ctx, db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing furniture in cells: %w", err)
	}
	return items, nil
}

// UpdateFurniture overwrites a record's mutable fields and refreshes its
// timestamp. Coordinates never change. An empty photo keeps the stored one.
func UpdateFurniture(ctx context.Context, db *sql.DB, f model.Furniture) error {
	n, ok := parseID(f.ID)
	if !ok {
		return ErrNotFound
	}

	photo, mime, err := photoColumns(f.Photo)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx,
		`UPDATE furniture SET type = ?, category = ?, state = ?, manager = ?, criticality = ?,
		     comment = ?, photo = COALESCE(?, photo), photo_mime = COALESCE(?, photo_mime),
		     recorded_at = ?, agent = ?, distributor = ?, technical_description = ?,
		     reference = ?, installed_on = ?
		 WHERE id = ?`,
		f.Type, f.Category, f.State, f.Manager, f.Criticality,
		nullable(f.Comment), photo, mime,
		time.Now().UTC(), f.Agent, nullable(f.Distributor), nullable(f.TechnicalDescription),
		nullable(f.Reference), nullable(f.InstalledOn), n,
	)
	if err != nil {
		return fmt.Errorf("updating furniture: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking updated furniture: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertFurniture creates f when its id is temporary and updates the stored
// record otherwise. It reports whether a record was created.
func UpsertFurniture(ctx context.Context, db *sql.DB, f model.Furniture) (*model.Furniture, bool, error) {
	if model.IsTemporaryID(f.ID) {
		created, err := CreateFurniture(ctx, db, f)
		return created, true, err
	}

	if err := UpdateFurniture(ctx, db, f); err != nil {
		return nil, false, err
	}
	updated, err := GetFurniture(ctx, db, f.ID)
	return updated, false, err
}

func queryFurniture(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.Furniture, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.Furniture{}
	for rows.Next() {
		f, err := scanFurniture(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning furniture: %w", err)
		}
		items = append(items, *f)
	}
	return items, rows.Err()
}

// photoColumns splits a data URI into the photo and photo_mime values.
// An empty URI yields NULLs.
func photoColumns(uri string) (any, any, error) {
	if uri == "" {
		return nil, nil, nil
	}
	p, err := imaging.DecodeDataURI(uri)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding photo: %w", err)
	}
	return p.Data, p.MIME, nil
}

func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
