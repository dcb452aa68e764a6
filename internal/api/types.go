package api

import (
	"net/http"

	"github.com/erazemk/mobilier/internal/model"
)

type typeEntry struct {
	model.KnownType
	CategoryLabel string `json:"categoryLabel"`
}

// HandleTypes handles GET /api/types. The field form offers these labels so
// the same furniture is submitted under the same type.
func HandleTypes(w http.ResponseWriter, r *http.Request) {
	out := make([]typeEntry, 0, len(model.KnownTypes))
	for _, kt := range model.KnownTypes {
		out = append(out, typeEntry{KnownType: kt, CategoryLabel: model.Label(model.CategoryLabels, kt.Category)})
	}
	jsonResponse(w, http.StatusOK, out)
}
