// Package fieldwork tracks where field agents are and which records they
// may edit from there.
package fieldwork

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/erazemk/mobilier/internal/geo"
	"github.com/erazemk/mobilier/internal/model"
)

// Source supplies candidate records around a point. It may return more than
// the records within radius; the board filters exactly.
type Source interface {
	Candidates(ctx context.Context, at geo.Point, radius float64) ([]model.Furniture, error)
}

// Config holds the proximity settings of a board.
type Config struct {
	EditRadius      float64   // meters around an agent in which records are editable
	DuplicateRadius float64   // meters searched for duplicate submissions
	Fallback        geo.Point // position assumed before any fix arrives
}

// DefaultConfig matches the field app: 15 m edit gate, 10 m duplicate
// search, centred on Lille.
var DefaultConfig = Config{
	EditRadius:      15,
	DuplicateRadius: 10,
	Fallback:        geo.Point{Lat: 50.6292, Lng: 3.0573},
}

// Fix is an agent's last known position and the records around it.
type Fix struct {
	Agent    string            `json:"agent"`
	Position geo.Point         `json:"position"`
	At       time.Time         `json:"at"`
	Known    bool              `json:"known"`
	Nearby   []model.Furniture `json:"nearby"`
}

// Board holds the live position of each agent and the editable set
// computed from it.
type Board struct {
	source Source
	cfg    Config

	mu    sync.RWMutex
	fixes map[string]Fix
}

// NewBoard creates a board reading candidates from source.
func NewBoard(source Source, cfg Config) *Board {
	return &Board{
		source: source,
		cfg:    cfg,
		fixes:  make(map[string]Fix),
	}
}

// Config returns the board's proximity settings.
func (b *Board) Config() Config {
	return b.cfg
}

// Apply records a new position for agent and returns the records within
// the edit radius, in store order.
func (b *Board) Apply(ctx context.Context, agent string, p geo.Point) ([]model.Furniture, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %v, %v", model.ErrInvalidCoordinates, p.Lat, p.Lng)
	}

	nearby, err := b.Nearby(ctx, p, b.cfg.EditRadius)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.fixes[agent] = Fix{Agent: agent, Position: p, At: time.Now(), Known: true, Nearby: nearby}
	b.mu.Unlock()

	return nearby, nil
}

// Nearby returns the records within radius meters of p.
func (b *Board) Nearby(ctx context.Context, p geo.Point, radius float64) ([]model.Furniture, error) {
	candidates, err := b.source.Candidates(ctx, p, radius)
	if err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}
	return geo.FindNearby(candidates, p, radius), nil
}

// Duplicates returns the records of the same type as f within the duplicate
// radius of f's position, excluding f itself.
func (b *Board) Duplicates(ctx context.Context, f model.Furniture) ([]model.Furniture, error) {
	candidates, err := b.source.Candidates(ctx, f.Position(), b.cfg.DuplicateRadius)
	if err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}

	dups := geo.FindPotentialDuplicates(candidates, f.Position(), f.Type, b.cfg.DuplicateRadius)
	out := dups[:0]
	for _, d := range dups {
		if f.ID != "" && d.ID == f.ID {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// Position returns the agent's last position, or the fallback coordinate
// when none was ever reported.
func (b *Board) Position(agent string) (geo.Point, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if fix, ok := b.fixes[agent]; ok {
		return fix.Position, true
	}
	return b.cfg.Fallback, false
}

// Fix returns the agent's last fix. Unknown agents get the fallback position
// and no nearby records.
func (b *Board) Fix(agent string) Fix {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if fix, ok := b.fixes[agent]; ok {
		return fix
	}
	return Fix{Agent: agent, Position: b.cfg.Fallback, Nearby: []model.Furniture{}}
}

// Follow applies every position received on fixes until the channel closes
// or ctx is done. onChange, if set, is called with each new nearby set.
// Positions that fail to apply are logged and skipped.
func (b *Board) Follow(ctx context.Context, agent string, fixes <-chan geo.Point, onChange func(geo.Point, []model.Furniture)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok := <-fixes:
			if !ok {
				return nil
			}
			nearby, err := b.Apply(ctx, agent, p)
			if err != nil {
				slog.Warn("applying position", "agent", agent, "lat", p.Lat, "lng", p.Lng, "error", err)
				continue
			}
			if onChange != nil {
				onChange(p, nearby)
			}
		}
	}
}

// CanEdit reports whether an agent with role, standing at pos, may edit
// record. Office agents may edit anything; field agents only records within
// radius meters.
func CanEdit(role string, record model.Furniture, pos geo.Point, radius float64) bool {
	if role == model.RoleOffice {
		return true
	}
	if role != model.RoleField {
		return false
	}
	return len(geo.FindNearby([]model.Furniture{record}, pos, radius)) == 1
}
