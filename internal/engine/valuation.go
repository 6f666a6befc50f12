package engine

import (
	"math"
	"sort"

	"github.com/quarryhill/idle-advisor/internal/models"
)

const (
	// valueClamp replaces infinite resource values before they enter any
	// multiplication, so "not produced yet" stays comparable instead of
	// poisoning scores.
	valueClamp = 1e10

	// Exponential smoothing mix for bottleneck weights across ranking
	// passes. The low-pass keeps the ordering from oscillating as the
	// resource mix shifts; the ratio is part of the scoring contract.
	smoothingNew  = 0.4
	smoothingPrev = 0.6

	// Below this many pending upgrades the weight calculation uses the
	// shortage-based early-game regime.
	steadyStateThreshold = 3
)

// pendingCost is one unlocked, still-purchasable upgrade's cost map.
type pendingCost struct {
	key   string
	costs map[string]float64
}

// pendingUpgrades collects the cost maps of every unlocked generator and
// every unlocked, unapplied research, in insertion order.
func pendingUpgrades(generators []*models.Generator, research []*models.Research) []pendingCost {
	var pending []pendingCost
	for _, g := range generators {
		if !g.IsUnlocked {
			continue
		}
		pending = append(pending, pendingCost{key: upgradeKey(models.KindGenerator, g.Name), costs: g.PurchaseCosts()})
	}
	for _, r := range research {
		if !r.IsUnlocked || r.IsApplied {
			continue
		}
		pending = append(pending, pendingCost{key: upgradeKey(models.KindResearch, r.Name), costs: r.PurchaseCosts()})
	}
	return pending
}

func upgradeKey(kind models.UpgradeKind, name string) string {
	return kind.String() + ":" + name
}

// ResourceValuations derives a scarcity value per resource: the total
// outstanding cost demand for it across every generator's next purchase
// and every unapplied research, divided by current production. Demand
// with zero production yields +Inf (unaffordable sentinel, clamped before
// use). Resources with neither demand nor production are omitted.
func ResourceValuations(generators []*models.Generator, research []*models.Research, production map[string]float64) map[string]float64 {
	demand := make(map[string]float64)
	for _, g := range generators {
		addDemand(demand, g.PurchaseCosts(), g.ResourceCosts, production)
	}
	for _, r := range research {
		if r.IsApplied {
			continue
		}
		addDemand(demand, r.PurchaseCosts(), r.ResourceCosts, production)
	}

	values := make(map[string]float64)
	for res, amount := range demand {
		if amount <= 0 {
			continue
		}
		rate := production[res]
		if rate <= 0 {
			values[res] = math.Inf(1)
			continue
		}
		values[res] = amount / rate
	}
	// Produced resources without demand carry zero value.
	for res, rate := range production {
		if rate > 0 {
			if _, ok := values[res]; !ok {
				values[res] = 0
			}
		}
	}
	return values
}

// addDemand accumulates one upgrade's costs into the demand map. Legacy
// scalar costs (no explicit per-resource map) are prorated across the
// currently produced resources in proportion to their production share;
// with no production at all the whole amount lands on DefaultResource so
// demand is never silently dropped.
func addDemand(demand, costs, explicit map[string]float64, production map[string]float64) {
	if len(explicit) > 0 {
		for res, amount := range costs {
			demand[res] += amount
		}
		return
	}
	scalar := costs[models.DefaultResource]
	if scalar <= 0 {
		return
	}
	total := totalProduction(production)
	if total <= 0 {
		demand[models.DefaultResource] += scalar
		return
	}
	for _, res := range sortedKeys(production) {
		share := production[res] / total
		if share > 0 {
			demand[res] += scalar * share
		}
	}
}

// BottleneckWeights computes a weight >= 1 per resource reflecting how
// strongly it limits the pending upgrade frontier, then blends the raw
// weights with the previous pass via exponential smoothing
// (smoothingNew*raw + smoothingPrev*previous, previous defaulting to 1).
// The caller owns the previous-weights session state.
func BottleneckWeights(generators []*models.Generator, research []*models.Research, production, previous map[string]float64) map[string]float64 {
	pending := pendingUpgrades(generators, research)

	var raw map[string]float64
	if len(pending) < steadyStateThreshold {
		raw = earlyGameWeights(pending, production)
	} else {
		raw = steadyStateWeights(pending, production)
	}

	return smoothWeights(raw, previous)
}

// smoothWeights blends raw weights with the previous pass over the union
// of both key sets: weight = smoothingNew*raw + smoothingPrev*previous,
// with raw defaulting to 1 for resources that dropped out and previous
// defaulting to 1 for resources seen for the first time.
func smoothWeights(raw, previous map[string]float64) map[string]float64 {
	smoothed := make(map[string]float64, len(raw))
	for res, w := range raw {
		prev, ok := previous[res]
		if !ok {
			prev = 1.0
		}
		smoothed[res] = smoothingNew*w + smoothingPrev*prev
	}
	for res, prev := range previous {
		if _, ok := smoothed[res]; !ok {
			smoothed[res] = smoothingNew*1.0 + smoothingPrev*prev
		}
	}
	return smoothed
}

// earlyGameWeights weights each resource by its immediate shortage
// relative to the total immediate cost need.
func earlyGameWeights(pending []pendingCost, production map[string]float64) map[string]float64 {
	costDemand := make(map[string]float64)
	var totalNeed float64
	for _, p := range pending {
		for _, res := range sortedKeys(p.costs) {
			costDemand[res] += p.costs[res]
			totalNeed += p.costs[res]
		}
	}
	if totalNeed < 1 {
		totalNeed = 1
	}

	weights := make(map[string]float64, len(costDemand))
	for res, need := range costDemand {
		shortage := need - production[res]
		if shortage < 0 {
			shortage = 0
		}
		weights[res] = 1 + shortage/totalNeed
	}
	return weights
}

// steadyStateWeights attributes each pending upgrade's wait time to its
// bottleneck resource and weights resources by their share of the total
// path time.
func steadyStateWeights(pending []pendingCost, production map[string]float64) map[string]float64 {
	delay := make(map[string]float64)
	var totalPathTime float64
	for _, p := range pending {
		res, ok := IdentifyBottleneckResource(p.costs, production)
		if !ok {
			continue
		}
		wait := p.costs[res] / production[res]
		delay[res] += wait
		totalPathTime += wait
	}

	weights := make(map[string]float64, len(delay))
	if totalPathTime <= 0 {
		for res := range delay {
			weights[res] = 1
		}
		return weights
	}
	for res, d := range delay {
		weights[res] = 1 + d/totalPathTime
	}
	return weights
}

// IdentifyBottleneckResource returns the cost component with the longest
// wait at current production. Resources without production are skipped
// here; the unaffordable case is short-circuited upstream.
func IdentifyBottleneckResource(costs, production map[string]float64) (string, bool) {
	var (
		bottleneck string
		worst      float64
		found      bool
	)
	for _, res := range sortedKeys(costs) {
		amount := costs[res]
		if amount <= 0 {
			continue
		}
		rate := production[res]
		if rate <= 0 {
			continue
		}
		wait := amount / rate
		if !found || wait > worst {
			bottleneck = res
			worst = wait
			found = true
		}
	}
	return bottleneck, found
}

// clampValue normalizes a resource value before multiplication: +Inf and
// anything beyond the clamp collapse to valueClamp, NaN to zero.
func clampValue(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if math.IsInf(v, 1) || v > valueClamp {
		return valueClamp
	}
	if v < 0 {
		return 0
	}
	return v
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
