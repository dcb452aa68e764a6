// Package export writes the census as a spreadsheet-friendly CSV file.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/erazemk/mobilier/internal/model"
)

// Header is the first CSV row.
var Header = []string{
	"ID", "Type", "Category", "State", "Latitude", "Longitude", "Manager",
	"Criticality", "Agent", "Date", "Comment", "Distributor", "Technical description",
}

// DateLayout is the day-first layout used for the Date column.
const DateLayout = "02/01/2006 15:04:05"

// FileName returns the download name for an export taken at t.
func FileName(t time.Time) string {
	return "recensement_mobilier_" + t.Format("2006-01-02") + ".csv"
}

// WriteCSV writes items as semicolon-separated values, dates in loc.
func WriteCSV(w io.Writer, items []model.Furniture, loc *time.Location) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, f := range items {
		row := []string{
			f.ID,
			f.Type,
			model.Label(model.CategoryLabels, f.Category),
			model.Label(model.StateLabels, f.State),
			strconv.FormatFloat(f.Latitude, 'f', -1, 64),
			strconv.FormatFloat(f.Longitude, 'f', -1, 64),
			f.Manager,
			f.Criticality,
			f.Agent,
			f.RecordedAt.In(loc).Format(DateLayout),
			f.Comment,
			f.Distributor,
			f.TechnicalDescription,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing record %s: %w", f.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
