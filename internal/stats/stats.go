// Package stats computes dashboard and per-agent counters over the census.
package stats

import "github.com/erazemk/mobilier/internal/model"

// Dashboard is the office overview.
type Dashboard struct {
	Total         int            `json:"total"`
	Dangerous     int            `json:"dangerous"`
	Good          int            `json:"good"`
	Processed     int            `json:"processed"`
	ByState       map[string]int `json:"byState"`
	ByManager     map[string]int `json:"byManager"`
	ByCategory    map[string]int `json:"byCategory"`
	ByCriticality map[string]int `json:"byCriticality"`
}

// Profile is one agent's contribution.
type Profile struct {
	Agent     string         `json:"agent"`
	Total     int            `json:"total"`
	WithPhoto int            `json:"withPhoto"`
	Urgent    int            `json:"urgent"`
	ToWatch   int            `json:"toWatch"`
	ByState   map[string]int `json:"byState"`
	ByManager map[string]int `json:"byManager"`
}

// NewDashboard counts items. Every known enum value appears in the maps,
// zero or not.
func NewDashboard(items []model.Furniture) Dashboard {
	d := Dashboard{
		ByState:       zeroed(model.States),
		ByManager:     zeroed(model.Managers),
		ByCategory:    zeroed(model.Categories),
		ByCriticality: zeroed(model.Criticalities),
	}
	for _, f := range items {
		d.Total++
		switch f.State {
		case model.StateDangerous:
			d.Dangerous++
		case model.StateNew, model.StateCorrect:
			d.Good++
		}
		if model.IsFullyProcessed(f) {
			d.Processed++
		}
		d.ByState[f.State]++
		d.ByManager[f.Manager]++
		d.ByCategory[f.Category]++
		d.ByCriticality[f.Criticality]++
	}
	return d
}

// NewProfile counts the items recorded by agent.
func NewProfile(agent string, items []model.Furniture) Profile {
	p := Profile{
		Agent:     agent,
		ByState:   zeroed(model.States),
		ByManager: zeroed(model.Managers),
	}
	for _, f := range items {
		if f.Agent != agent {
			continue
		}
		p.Total++
		if f.HasPhoto || f.Photo != "" {
			p.WithPhoto++
		}
		switch f.Criticality {
		case model.CriticalityUrgentSafety:
			p.Urgent++
		case model.CriticalityToWatch:
			p.ToWatch++
		}
		p.ByState[f.State]++
		p.ByManager[f.Manager]++
	}
	return p
}

func zeroed(keys []string) map[string]int {
	m := make(map[string]int, len(keys))
	for _, k := range keys {
		m[k] = 0
	}
	return m
}
