package engine

import (
	"math"
	"time"

	"github.com/quarryhill/idle-advisor/internal/models"
)

// maxAffordHorizon caps AvailableAt timestamps: anything further out than
// a century is clamped so far-future waits stay representable.
const maxAffordHorizon = 100 * 365 * 24 * time.Hour

// CostValuation converts a cost map into a single effective cost given
// the current resource values. The weighting is an evolving design
// parameter, so it is pluggable on the Evaluator.
type CostValuation func(costs, values map[string]float64) float64

// ValueWeightedCost prices each cost component by its scarcity value
// (clamped), the default valuation.
func ValueWeightedCost(costs, values map[string]float64) float64 {
	var total float64
	for _, res := range sortedKeys(costs) {
		total += costs[res] * clampValue(values[res])
	}
	return total
}

// RawCost ignores scarcity and sums the raw cost amounts.
func RawCost(costs, values map[string]float64) float64 {
	var total float64
	for _, res := range sortedKeys(costs) {
		total += costs[res]
	}
	return total
}

// Evaluation is the per-candidate output of a simulated purchase.
type Evaluation struct {
	EffectiveGain  float64
	EffectiveCost  float64
	GainByResource map[string]float64

	// Seconds. +Inf when unaffordable; never NaN.
	TimeToAfford  float64
	TimeToPayback float64

	// Production snapshot after the hypothetical purchase.
	NewProduction map[string]float64
}

// Evaluator scores candidates against one ranking pass's valuations,
// weights and production snapshot. It never mutates game state.
type Evaluator struct {
	Production map[string]float64
	Values     map[string]float64
	Weights    map[string]float64
	CostValue  CostValuation
}

// EvaluateGenerator simulates buying one more unit of g.
func (e *Evaluator) EvaluateGenerator(g *models.Generator) Evaluation {
	newProduction := cloneProduction(e.Production)
	for res, rate := range g.UnitProduction() {
		newProduction[res] += rate
	}
	return e.evaluate(g.PurchaseCosts(), newProduction)
}

// EvaluateResearch simulates applying r: every target generator's current
// per-resource output is multiplied by the research's multiplier for it.
func (e *Evaluator) EvaluateResearch(r *models.Research, generators []*models.Generator) Evaluation {
	newProduction := cloneProduction(e.Production)
	for _, target := range r.TargetGenerators {
		var gen *models.Generator
		for _, g := range generators {
			if g.Name == target {
				gen = g
				break
			}
		}
		if gen == nil {
			continue
		}
		mult := r.MultiplierFor(target)
		for res, rate := range gen.ProductionPerResource() {
			newProduction[res] += rate * (mult - 1)
		}
	}
	return e.evaluate(r.PurchaseCosts(), newProduction)
}

func (e *Evaluator) evaluate(costs, newProduction map[string]float64) Evaluation {
	gain := make(map[string]float64)
	for res, rate := range newProduction {
		if d := rate - e.Production[res]; d != 0 {
			gain[res] = d
		}
	}
	for res, rate := range e.Production {
		if _, ok := newProduction[res]; !ok && rate != 0 {
			gain[res] = -rate
		}
	}

	var effectiveGain float64
	for _, res := range sortedKeys(gain) {
		weight := 1.0
		if w, ok := e.Weights[res]; ok {
			weight = w
		}
		effectiveGain += gain[res] * clampValue(e.Values[res]) * weight
	}

	costValue := e.CostValue
	if costValue == nil {
		costValue = ValueWeightedCost
	}
	effectiveCost := costValue(costs, e.Values)

	eval := Evaluation{
		EffectiveGain:  effectiveGain,
		EffectiveCost:  effectiveCost,
		GainByResource: gain,
		TimeToAfford:   timeToAfford(costs, e.Production),
		NewProduction:  newProduction,
	}
	eval.TimeToPayback = e.timeToPayback(eval, costs, newProduction)
	return eval
}

// timeToAfford is the longest per-resource wait for the cost at current
// production. Any required resource without production makes the whole
// upgrade unaffordable.
func timeToAfford(costs, production map[string]float64) float64 {
	var worst float64
	for res, amount := range costs {
		if amount <= 0 {
			continue
		}
		rate := production[res]
		if rate <= 0 {
			return math.Inf(1)
		}
		if wait := amount / rate; wait > worst {
			worst = wait
		}
	}
	return worst
}

// timeToPayback prefers effective cost over effective gain, falls back to
// the raw total-production comparison, and finally to the sentinel.
func (e *Evaluator) timeToPayback(eval Evaluation, costs, newProduction map[string]float64) float64 {
	if eval.EffectiveGain > 0 {
		payback := eval.EffectiveCost / eval.EffectiveGain
		if !math.IsNaN(payback) && !math.IsInf(payback, 0) {
			return payback
		}
	}
	rawGain := totalProduction(newProduction) - totalProduction(e.Production)
	if rawGain > 0 {
		return RawCost(costs, nil) / rawGain
	}
	return math.Inf(1)
}

// AvailableAt converts a time-to-afford into a wall-clock timestamp,
// clamped to the horizon. Unaffordable waits yield nil.
func AvailableAt(now time.Time, timeToAfford float64) *time.Time {
	if math.IsNaN(timeToAfford) || math.IsInf(timeToAfford, 0) || timeToAfford < 0 {
		return nil
	}
	wait := maxAffordHorizon
	if timeToAfford < maxAffordHorizon.Seconds() {
		wait = time.Duration(timeToAfford * float64(time.Second))
	}
	at := now.Add(wait)
	return &at
}
