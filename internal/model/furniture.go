package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/mobilier/internal/geo"
)

// TemporaryIDPrefix marks ids minted by clients before the record is stored.
const TemporaryIDPrefix = "mob-"

// Furniture is one piece of urban furniture recorded in the field.
// Photo holds a data URI; listings leave it empty and only set HasPhoto.
type Furniture struct {
	ID                   string    `json:"id"`
	Type                 string    `json:"type"`
	Category             string    `json:"category"`
	State                string    `json:"state"`
	Latitude             float64   `json:"latitude"`
	Longitude            float64   `json:"longitude"`
	Manager              string    `json:"manager"`
	Criticality          string    `json:"criticality"`
	Comment              string    `json:"comment,omitempty"`
	Photo                string    `json:"photo,omitempty"`
	HasPhoto             bool      `json:"hasPhoto"`
	RecordedAt           time.Time `json:"recordedAt"`
	Agent                string    `json:"agent"`
	Distributor          string    `json:"distributor,omitempty"`
	TechnicalDescription string    `json:"technicalDescription,omitempty"`
	Reference            string    `json:"reference,omitempty"`
	InstalledOn          string    `json:"installedOn,omitempty"`
}

// Categories.
const (
	CategoryComfort       = "comfort"
	CategoryHygiene       = "hygiene"
	CategoryInformation   = "information"
	CategoryMobility      = "mobility"
	CategorySecurity      = "security"
	CategoryLighting      = "lighting"
	CategoryVegetation    = "vegetation"
	CategorySmartServices = "smart-services"
)

// Physical states.
const (
	StateNew       = "new"
	StateCorrect   = "correct"
	StateDamaged   = "damaged"
	StateDangerous = "dangerous"
)

// Presumed managers.
const (
	ManagerRegionalAuthority = "regional-authority"
	ManagerMunicipality      = "municipality"
	ManagerUnknown           = "unknown"
)

// Criticality levels.
const (
	CriticalityOK           = "ok"
	CriticalityToWatch      = "to-watch"
	CriticalityUrgentSafety = "urgent-safety"
)

// Categories lists every category in display order.
var Categories = []string{
	CategoryComfort,
	CategoryHygiene,
	CategoryInformation,
	CategoryMobility,
	CategorySecurity,
	CategoryLighting,
	CategoryVegetation,
	CategorySmartServices,
}

// States lists every physical state, best first.
var States = []string{StateNew, StateCorrect, StateDamaged, StateDangerous}

// Managers lists every manager value.
var Managers = []string{ManagerRegionalAuthority, ManagerMunicipality, ManagerUnknown}

// Criticalities lists every criticality level.
var Criticalities = []string{CriticalityOK, CriticalityToWatch, CriticalityUrgentSafety}

// Validation errors.
var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidType        = errors.New("type required")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidState       = errors.New("invalid state")
	ErrInvalidManager     = errors.New("invalid manager")
	ErrInvalidCriticality = errors.New("invalid criticality")
)

// IsTemporaryID reports whether id was never assigned by the store. Stored
// ids are positive decimal integers; anything else was minted by a client.
func IsTemporaryID(id string) bool {
	if id == "" || strings.HasPrefix(id, TemporaryIDPrefix) {
		return true
	}
	n, err := strconv.ParseInt(id, 10, 64)
	return err != nil || n <= 0
}

// IsFullyProcessed reports whether office validation filled in both the
// distributor and the technical description.
func IsFullyProcessed(f Furniture) bool {
	return strings.TrimSpace(f.Distributor) != "" && strings.TrimSpace(f.TechnicalDescription) != ""
}

// Position returns the record's coordinates.
func (f Furniture) Position() geo.Point {
	return geo.Point{Lat: f.Latitude, Lng: f.Longitude}
}

// TypeLabel returns the free-text furniture type.
func (f Furniture) TypeLabel() string {
	return f.Type
}

// Validate checks coordinates and enumerated fields.
func (f Furniture) Validate() error {
	if !f.Position().Valid() {
		return fmt.Errorf("%w: %v, %v", ErrInvalidCoordinates, f.Latitude, f.Longitude)
	}
	if strings.TrimSpace(f.Type) == "" {
		return ErrInvalidType
	}
	if !oneOf(f.Category, Categories) {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, f.Category)
	}
	if !oneOf(f.State, States) {
		return fmt.Errorf("%w: %q", ErrInvalidState, f.State)
	}
	if !oneOf(f.Manager, Managers) {
		return fmt.Errorf("%w: %q", ErrInvalidManager, f.Manager)
	}
	if !oneOf(f.Criticality, Criticalities) {
		return fmt.Errorf("%w: %q", ErrInvalidCriticality, f.Criticality)
	}
	return nil
}

// ApplyDefaults fills the optional enumerations a field form leaves unset.
func (f *Furniture) ApplyDefaults() {
	if f.State == "" {
		f.State = StateCorrect
	}
	if f.Manager == "" {
		f.Manager = ManagerUnknown
	}
	if f.Criticality == "" {
		f.Criticality = CriticalityOK
	}
}

// ApplyCorrection merges a field agent's correction of an existing record.
// Only condition fields change; an empty comment or photo keeps the stored one.
func (f *Furniture) ApplyCorrection(c Furniture) {
	if c.State != "" {
		f.State = c.State
	}
	if c.Manager != "" {
		f.Manager = c.Manager
	}
	if c.Criticality != "" {
		f.Criticality = c.Criticality
	}
	if strings.TrimSpace(c.Comment) != "" {
		f.Comment = strings.TrimSpace(c.Comment)
	}
	if c.Photo != "" {
		f.Photo = c.Photo
		f.HasPhoto = true
	}
}

// ApplyValidation merges an office agent's enrichment of an existing record.
func (f *Furniture) ApplyValidation(v Furniture) {
	if v.Type != "" {
		f.Type = v.Type
	}
	if v.Category != "" {
		f.Category = v.Category
	}
	if v.State != "" {
		f.State = v.State
	}
	if v.Manager != "" {
		f.Manager = v.Manager
	}
	if v.Criticality != "" {
		f.Criticality = v.Criticality
	}
	if v.Photo != "" {
		f.Photo = v.Photo
		f.HasPhoto = true
	}
	f.Comment = v.Comment
	f.Distributor = strings.TrimSpace(v.Distributor)
	f.TechnicalDescription = strings.TrimSpace(v.TechnicalDescription)
	f.Reference = v.Reference
	f.InstalledOn = v.InstalledOn
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

var _ geo.Typed = Furniture{}
