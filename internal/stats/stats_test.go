package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erazemk/mobilier/internal/model"
)

func item(agent, state, manager, criticality string, photo bool) model.Furniture {
	return model.Furniture{
		Agent:       agent,
		Category:    model.CategoryComfort,
		State:       state,
		Manager:     manager,
		Criticality: criticality,
		HasPhoto:    photo,
	}
}

var census = []model.Furniture{
	item("claire", model.StateNew, model.ManagerMunicipality, model.CriticalityOK, true),
	item("claire", model.StateCorrect, model.ManagerUnknown, model.CriticalityToWatch, false),
	item("claire", model.StateDangerous, model.ManagerMunicipality, model.CriticalityUrgentSafety, true),
	item("marc", model.StateDamaged, model.ManagerRegionalAuthority, model.CriticalityToWatch, false),
}

func TestNewDashboard(t *testing.T) {
	processed := item("marc", model.StateCorrect, model.ManagerUnknown, model.CriticalityOK, false)
	processed.Distributor = "JCDecaux"
	processed.TechnicalDescription = "Concrete"

	d := NewDashboard(append(census, processed))

	assert.Equal(t, 5, d.Total)
	assert.Equal(t, 1, d.Dangerous)
	assert.Equal(t, 3, d.Good)
	assert.Equal(t, 1, d.Processed)
	assert.Equal(t, 2, d.ByState[model.StateCorrect])
	assert.Equal(t, 1, d.ByManager[model.ManagerRegionalAuthority])
	assert.Equal(t, 5, d.ByCategory[model.CategoryComfort])
	assert.Equal(t, 0, d.ByCategory[model.CategoryLighting])
	assert.Contains(t, d.ByCategory, model.CategoryLighting)
	assert.Equal(t, 2, d.ByCriticality[model.CriticalityToWatch])
}

func TestNewDashboardEmpty(t *testing.T) {
	d := NewDashboard(nil)
	assert.Zero(t, d.Total)
	assert.Len(t, d.ByState, len(model.States))
}

func TestNewProfile(t *testing.T) {
	p := NewProfile("claire", census)

	assert.Equal(t, "claire", p.Agent)
	assert.Equal(t, 3, p.Total)
	assert.Equal(t, 2, p.WithPhoto)
	assert.Equal(t, 1, p.Urgent)
	assert.Equal(t, 1, p.ToWatch)
	assert.Equal(t, 1, p.ByState[model.StateDangerous])
	assert.Equal(t, 2, p.ByManager[model.ManagerMunicipality])

	empty := NewProfile("nobody", census)
	assert.Zero(t, empty.Total)
}
