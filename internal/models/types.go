package models

import (
	"sort"
	"time"
)

// DefaultResource is the channel that legacy scalar rates and costs fall
// back to when an entity carries no per-resource map.
const DefaultResource = "gold"

// Generator is a production source. Each owned unit produces the
// per-resource rates in Resources every second; legacy generators carry a
// single scalar Rate instead.
type Generator struct {
	Name string

	// Per-unit production rate per resource. May be empty, in which case
	// the scalar Rate applies to DefaultResource.
	Resources map[string]float64
	Rate      float64

	Count int

	// Cost of the next unit. May span several resources; legacy
	// generators carry a single scalar Cost instead.
	ResourceCosts map[string]float64
	Cost          float64

	// CostRatio multiplies every cost component after each purchase.
	CostRatio float64

	RequiredGenerators []string
	RequiredResearch   []string

	// IsUnlocked is derived from the prerequisites and recomputed on
	// every ranking pass.
	IsUnlocked bool
}

// ProductionPerResource returns the generator's current output per
// resource: count times the per-unit rate, with the scalar fallback when
// no per-resource rates are defined.
func (g *Generator) ProductionPerResource() map[string]float64 {
	out := make(map[string]float64)
	if g.Count <= 0 {
		return out
	}
	if len(g.Resources) == 0 {
		if g.Rate != 0 {
			out[DefaultResource] = g.Rate * float64(g.Count)
		}
		return out
	}
	for res, rate := range g.Resources {
		out[res] = rate * float64(g.Count)
	}
	return out
}

// UnitProduction returns the per-unit rates, with the scalar fallback.
func (g *Generator) UnitProduction() map[string]float64 {
	out := make(map[string]float64)
	if len(g.Resources) == 0 {
		if g.Rate != 0 {
			out[DefaultResource] = g.Rate
		}
		return out
	}
	for res, rate := range g.Resources {
		out[res] = rate
	}
	return out
}

// PurchaseCosts returns the cost of the next unit per resource, with the
// scalar fallback under DefaultResource.
func (g *Generator) PurchaseCosts() map[string]float64 {
	if len(g.ResourceCosts) > 0 {
		out := make(map[string]float64, len(g.ResourceCosts))
		for res, amount := range g.ResourceCosts {
			out[res] = amount
		}
		return out
	}
	out := make(map[string]float64)
	if g.Cost != 0 {
		out[DefaultResource] = g.Cost
	}
	return out
}

// TotalCost returns the summed purchase cost across all resources.
func (g *Generator) TotalCost() float64 {
	return sumCosts(g.PurchaseCosts())
}

// Research is a one-time purchasable multiplier applied to the current
// production rates of its target generators. Application is irreversible
// outside of a prestige reset.
type Research struct {
	Name string

	// Per-target multipliers. Legacy research carries a single scalar
	// Multiplier applied to every target instead.
	TargetMultipliers map[string]float64
	Multiplier        float64

	ResourceCosts map[string]float64
	Cost          float64

	TargetGenerators   []string
	RequiredGenerators []string
	RequiredResearch   []string

	IsApplied  bool
	IsUnlocked bool
}

// MultiplierFor returns the multiplier this research applies to the named
// generator. Absent data means no change (1.0).
func (r *Research) MultiplierFor(generator string) float64 {
	if m, ok := r.TargetMultipliers[generator]; ok {
		return m
	}
	if r.Multiplier != 0 {
		return r.Multiplier
	}
	return 1.0
}

// PurchaseCosts returns the research cost per resource, with the scalar
// fallback under DefaultResource.
func (r *Research) PurchaseCosts() map[string]float64 {
	if len(r.ResourceCosts) > 0 {
		out := make(map[string]float64, len(r.ResourceCosts))
		for res, amount := range r.ResourceCosts {
			out[res] = amount
		}
		return out
	}
	out := make(map[string]float64)
	if r.Cost != 0 {
		out[DefaultResource] = r.Cost
	}
	return out
}

// TotalCost returns the summed research cost across all resources.
func (r *Research) TotalCost() float64 {
	return sumCosts(r.PurchaseCosts())
}

// sumCosts adds cost components in key order so repeated calls return
// bit-identical totals.
func sumCosts(costs map[string]float64) float64 {
	keys := make([]string, 0, len(costs))
	for k := range costs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var total float64
	for _, k := range keys {
		total += costs[k]
	}
	return total
}

// Resource is a named production channel. TotalProduction is a cached
// snapshot refreshed from aggregation, never an independent source of
// truth.
type Resource struct {
	Name            string
	TotalProduction float64
}

// UpgradeKind tags an UpgradeResult's source entity.
type UpgradeKind int

const (
	KindGenerator UpgradeKind = iota
	KindResearch
)

func (k UpgradeKind) String() string {
	switch k {
	case KindGenerator:
		return "generator"
	case KindResearch:
		return "research"
	}
	return "unknown"
}

// UpgradeResult is the ephemeral output of evaluating one candidate in a
// ranking pass. It is never mutated after construction and holds only a
// back-reference to its source entity.
type UpgradeResult struct {
	Name string      `json:"name"`
	Kind UpgradeKind `json:"kind"`

	Cost           float64            `json:"cost"`
	EffectiveGain  float64            `json:"effective_gain"`
	GainByResource map[string]float64 `json:"gain_by_resource"`

	// Seconds. Unaffordable candidates carry +Inf, never NaN.
	TimeToAfford  float64 `json:"time_to_afford"`
	TimeToPayback float64 `json:"time_to_payback"`

	CascadeScore float64 `json:"cascade_score"`

	// AvailableAt is nil when the candidate is unaffordable.
	AvailableAt *time.Time `json:"available_at,omitempty"`

	// Exactly one of these is non-nil, matching Kind.
	Generator *Generator `json:"-"`
	Research  *Research  `json:"-"`
}

// GameState is the top-level container owning all generators, research
// and the resource cache.
type GameState struct {
	Generators []*Generator
	Research   []*Research
	Resources  []*Resource
}

// NewGameState creates an empty game state.
func NewGameState() *GameState {
	return &GameState{}
}

// Generator returns the named generator, or nil.
func (gs *GameState) Generator(name string) *Generator {
	for _, g := range gs.Generators {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// ResearchByName returns the named research, or nil.
func (gs *GameState) ResearchByName(name string) *Research {
	for _, r := range gs.Research {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// RefreshResourceCache replaces the cached per-resource totals with a
// fresh production snapshot, keeping entries in name order.
func (gs *GameState) RefreshResourceCache(production map[string]float64) {
	names := make([]string, 0, len(production))
	for name := range production {
		names = append(names, name)
	}
	sort.Strings(names)

	resources := make([]*Resource, 0, len(names))
	for _, name := range names {
		resources = append(resources, &Resource{Name: name, TotalProduction: production[name]})
	}
	gs.Resources = resources
}
