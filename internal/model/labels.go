package model

// CategoryLabels maps categories to their numbered display names.
var CategoryLabels = map[string]string{
	CategoryComfort:       "1. Rest and comfort",
	CategoryHygiene:       "2. Cleanliness and hygiene",
	CategoryInformation:   "3. Information and advertising",
	CategoryMobility:      "4. Mobility and transport",
	CategorySecurity:      "5. Safety and demarcation",
	CategoryLighting:      "6. Lighting and networks",
	CategoryVegetation:    "7. Planting and amenity",
	CategorySmartServices: "8. New uses (smart and health)",
}

// StateLabels maps physical states to display names.
var StateLabels = map[string]string{
	StateNew:       "New / Excellent",
	StateCorrect:   "Good condition",
	StateDamaged:   "Damaged",
	StateDangerous: "Dangerous",
}

// ManagerLabels maps managers to display names.
var ManagerLabels = map[string]string{
	ManagerRegionalAuthority: "Regional authority",
	ManagerMunicipality:      "Municipality",
	ManagerUnknown:           "Unknown",
}

// CriticalityLabels maps criticality levels to display names.
var CriticalityLabels = map[string]string{
	CriticalityOK:           "OK",
	CriticalityToWatch:      "To watch",
	CriticalityUrgentSafety: "Urgent safety",
}

// KnownType is a catalogued furniture type offered by the field form.
type KnownType struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Category string `json:"category"`
}

// KnownTypes is the catalogue of common furniture types.
var KnownTypes = []KnownType{
	{ID: "bench", Label: "Public bench", Category: CategoryComfort},
	{ID: "bin", Label: "Litter bin", Category: CategoryHygiene},
	{ID: "street-light", Label: "Street light", Category: CategoryLighting},
	{ID: "bollard", Label: "Bollard", Category: CategorySecurity},
	{ID: "bus-shelter", Label: "Bus shelter", Category: CategoryMobility},
	{ID: "notice-board", Label: "Notice board", Category: CategoryInformation},
	{ID: "planter", Label: "Planter", Category: CategoryVegetation},
	{ID: "charging-point", Label: "Charging point", Category: CategorySmartServices},
}

// LookupType finds a catalogued type by id.
func LookupType(id string) (KnownType, bool) {
	for _, kt := range KnownTypes {
		if kt.ID == id {
			return kt, true
		}
	}
	return KnownType{}, false
}

// Label returns the display name for key in labels, or key itself.
func Label(labels map[string]string, key string) string {
	if l, ok := labels[key]; ok {
		return l
	}
	return key
}
