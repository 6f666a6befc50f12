package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/quarryhill/idle-advisor/internal/models"
)

// Engine orchestrates a full ranking pass and carries the bottleneck
// weights between passes for smoothing. Ranking passes and purchase
// application are serialized on the internal mutex; the scale (tens to
// low hundreds of candidates) needs nothing finer.
type Engine struct {
	mu          sync.Mutex
	prevWeights map[string]float64
	costValue   CostValuation
	now         func() time.Time
}

// New creates an engine with the value-weighted cost valuation.
func New() *Engine {
	return &Engine{
		prevWeights: make(map[string]float64),
		costValue:   ValueWeightedCost,
		now:         time.Now,
	}
}

// SetCostValuation swaps the effective-cost weighting used by evaluation.
func (e *Engine) SetCostValuation(f CostValuation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if f != nil {
		e.costValue = f
	}
}

// Weights returns a copy of the smoothing state, for persistence across
// process restarts.
func (e *Engine) Weights() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]float64, len(e.prevWeights))
	for res, w := range e.prevWeights {
		out[res] = w
	}
	return out
}

// RestoreWeights seeds the smoothing state, typically from a saved
// session.
func (e *Engine) RestoreWeights(weights map[string]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prevWeights = make(map[string]float64, len(weights))
	for res, w := range weights {
		e.prevWeights[res] = w
	}
}

// RankedUpgrades runs one full ranking pass: recompute unlocks, aggregate
// production, derive valuations and smoothed weights, evaluate every
// unlocked candidate, and return results sorted by cascade score
// (descending, stable, insertion order breaking ties).
func (e *Engine) RankedUpgrades(gs *models.GameState) []*models.UpgradeResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	RefreshUnlocks(gs)

	production := TotalProductionByResource(gs.Generators)
	gs.RefreshResourceCache(production)

	values := ResourceValuations(gs.Generators, gs.Research, production)
	weights := BottleneckWeights(gs.Generators, gs.Research, production, e.prevWeights)
	e.prevWeights = weights

	evaluator := &Evaluator{
		Production: production,
		Values:     values,
		Weights:    weights,
		CostValue:  e.costValue,
	}

	now := e.now()
	var results []*models.UpgradeResult

	for _, g := range gs.Generators {
		if !g.IsUnlocked {
			continue
		}
		eval := evaluator.EvaluateGenerator(g)
		results = append(results, buildResult(models.KindGenerator, g.Name, g, nil, eval, gs, production, now))
	}
	for _, r := range gs.Research {
		if !r.IsUnlocked || r.IsApplied {
			continue
		}
		eval := evaluator.EvaluateResearch(r, gs.Generators)
		results = append(results, buildResult(models.KindResearch, r.Name, nil, r, eval, gs, production, now))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CascadeScore > results[j].CascadeScore
	})
	return results
}

func buildResult(kind models.UpgradeKind, name string, g *models.Generator, r *models.Research, eval Evaluation, gs *models.GameState, production map[string]float64, now time.Time) *models.UpgradeResult {
	multiplier := CascadeMultiplier(kind, name, eval.TimeToAfford, gs.Generators, gs.Research, production, eval.NewProduction)
	score := CompositeScore(ScoreInputs{
		EffectiveGain:     eval.EffectiveGain,
		EffectiveCost:     eval.EffectiveCost,
		TimeToAfford:      eval.TimeToAfford,
		TimeToPayback:     eval.TimeToPayback,
		CascadeMultiplier: multiplier,
	})

	var cost float64
	switch kind {
	case models.KindGenerator:
		cost = g.TotalCost()
	case models.KindResearch:
		cost = r.TotalCost()
	}

	return &models.UpgradeResult{
		Name:           name,
		Kind:           kind,
		Cost:           cost,
		EffectiveGain:  eval.EffectiveGain,
		GainByResource: eval.GainByResource,
		TimeToAfford:   eval.TimeToAfford,
		TimeToPayback:  eval.TimeToPayback,
		CascadeScore:   score,
		AvailableAt:    AvailableAt(now, eval.TimeToAfford),
		Generator:      g,
		Research:       r,
	}
}

// RefreshUnlocks recomputes every entity's unlock flag: all required
// generators owned (count > 0) and all required research applied.
func RefreshUnlocks(gs *models.GameState) {
	for _, g := range gs.Generators {
		g.IsUnlocked = prerequisitesMet(gs, g.RequiredGenerators, g.RequiredResearch)
	}
	for _, r := range gs.Research {
		r.IsUnlocked = prerequisitesMet(gs, r.RequiredGenerators, r.RequiredResearch)
	}
}

func prerequisitesMet(gs *models.GameState, generators, research []string) bool {
	for _, name := range generators {
		g := gs.Generator(name)
		if g == nil || g.Count <= 0 {
			return false
		}
	}
	for _, name := range research {
		r := gs.ResearchByName(name)
		if r == nil || !r.IsApplied {
			return false
		}
	}
	return true
}

// ApplyPurchase mutates game state for a ranked result: a generator gains
// a unit and its costs grow by the cost ratio; research multiplies its
// targets' current rates and is marked applied (kept in the list so it
// can still be displayed). The result must reference an entity present in
// the provided state.
func (e *Engine) ApplyPurchase(gs *models.GameState, result *models.UpgradeResult) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch result.Kind {
	case models.KindGenerator:
		g := gs.Generator(result.Name)
		if g == nil || g != result.Generator {
			return fmt.Errorf("generator %q is not part of this game state", result.Name)
		}
		applyGeneratorPurchase(g)
		return nil
	case models.KindResearch:
		r := gs.ResearchByName(result.Name)
		if r == nil || r != result.Research {
			return fmt.Errorf("research %q is not part of this game state", result.Name)
		}
		if r.IsApplied {
			return fmt.Errorf("research %q is already applied", result.Name)
		}
		applyResearchPurchase(gs, r)
		return nil
	}
	return fmt.Errorf("unknown upgrade kind %d", result.Kind)
}

// PurchaseByName applies a purchase looked up by entity name, generators
// first. Used by callers that do not hold an UpgradeResult.
func (e *Engine) PurchaseByName(gs *models.GameState, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if g := gs.Generator(name); g != nil {
		applyGeneratorPurchase(g)
		return nil
	}
	if r := gs.ResearchByName(name); r != nil {
		if r.IsApplied {
			return fmt.Errorf("research %q is already applied", name)
		}
		applyResearchPurchase(gs, r)
		return nil
	}
	return fmt.Errorf("no generator or research named %q", name)
}

func applyGeneratorPurchase(g *models.Generator) {
	g.Count++
	ratio := g.CostRatio
	if ratio <= 0 {
		ratio = 1
	}
	for res := range g.ResourceCosts {
		g.ResourceCosts[res] *= ratio
	}
	g.Cost *= ratio
}

// applyResearchPurchase multiplies the targets' current rates in place;
// the order of research application is therefore significant.
func applyResearchPurchase(gs *models.GameState, r *models.Research) {
	for _, target := range r.TargetGenerators {
		g := gs.Generator(target)
		if g == nil {
			continue
		}
		mult := r.MultiplierFor(target)
		if len(g.Resources) == 0 {
			g.Rate *= mult
			continue
		}
		for res := range g.Resources {
			g.Resources[res] *= mult
		}
	}
	r.IsApplied = true
}

// unapplyResearch divides the targets' current rates back out, the
// inverse of applyResearchPurchase. A zero multiplier destroyed the rate
// and cannot be inverted; it stays zero.
func unapplyResearch(gs *models.GameState, r *models.Research) {
	for _, target := range r.TargetGenerators {
		g := gs.Generator(target)
		if g == nil {
			continue
		}
		mult := r.MultiplierFor(target)
		if mult <= 0 {
			continue
		}
		if len(g.Resources) == 0 {
			g.Rate /= mult
			continue
		}
		for res := range g.Resources {
			g.Resources[res] /= mult
		}
	}
	r.IsApplied = false
}

// Prestige performs the full-state reset transform: counts drop to zero,
// research effects back out of the generators' rates, and base rates and
// costs rescale by the supplied multipliers. Backing out before the
// rescale keeps the reset at true base rates, so a research bought again
// after prestige applies once, not on top of its old effect. It also
// discards the smoothing state, since the weights of the previous run say
// nothing about a fresh one.
func (e *Engine) Prestige(gs *models.GameState, rateMultiplier, costMultiplier float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, r := range gs.Research {
		if r.IsApplied {
			unapplyResearch(gs, r)
		}
	}

	for _, g := range gs.Generators {
		g.Count = 0
		g.IsUnlocked = false
		g.Rate *= rateMultiplier
		for res := range g.Resources {
			g.Resources[res] *= rateMultiplier
		}
		g.Cost *= costMultiplier
		for res := range g.ResourceCosts {
			g.ResourceCosts[res] *= costMultiplier
		}
	}
	for _, r := range gs.Research {
		r.IsApplied = false
		r.IsUnlocked = false
		for res := range r.ResourceCosts {
			r.ResourceCosts[res] *= costMultiplier
		}
		r.Cost *= costMultiplier
	}
	gs.Resources = nil
	e.prevWeights = make(map[string]float64)

	RefreshUnlocks(gs)
}
