package engine

import (
	"math"

	"github.com/quarryhill/idle-advisor/internal/models"
)

const (
	// Floor for the bottleneck-shift bonus weight once the frontier is
	// large.
	minShiftWeight = 0.1

	// Effective cost floor before the efficiency division.
	costEpsilon = 1e-9

	// Payback bonus half-life reference: one hour of payback halves the
	// bonus.
	paybackScaleSeconds = 3600
)

// CascadeMultiplier estimates how much a candidate accelerates the rest
// of the upgrade frontier. For every other pending upgrade it compares
// the bottleneck wait under the current and post-purchase production
// snapshots, accumulating positive time savings and counting bottleneck
// identity shifts.
func CascadeMultiplier(kind models.UpgradeKind, name string, selfTimeToAfford float64, generators []*models.Generator, research []*models.Research, currentProduction, newProduction map[string]float64) float64 {
	baseline := selfTimeToAfford
	if baseline <= 0 || math.IsInf(baseline, 0) || math.IsNaN(baseline) {
		baseline = 1.0
	}

	pending := pendingUpgrades(generators, research)
	self := upgradeKey(kind, name)

	var (
		totalFutureTimeSaved float64
		bottleneckShifts     int
	)
	for _, p := range pending {
		if p.key == self {
			continue
		}
		beforeRes, beforeOK := IdentifyBottleneckResource(p.costs, currentProduction)
		afterRes, afterOK := IdentifyBottleneckResource(p.costs, newProduction)

		if beforeOK && afterOK {
			beforeWait := p.costs[beforeRes] / currentProduction[beforeRes]
			afterWait := p.costs[afterRes] / newProduction[afterRes]
			if saved := beforeWait - afterWait; saved > 0 {
				totalFutureTimeSaved += saved
			}
		}
		if beforeOK != afterOK || (beforeOK && beforeRes != afterRes) {
			bottleneckShifts++
		}
	}

	shiftWeight := bottleneckShiftWeight(len(pending))
	return 1 + totalFutureTimeSaved/baseline + shiftWeight*float64(bottleneckShifts)
}

// bottleneckShiftWeight decays logarithmically with the size of the
// pending frontier so shift bonuses cannot dominate late game.
func bottleneckShiftWeight(pending int) float64 {
	if pending < 1 {
		pending = 1
	}
	w := 0.5 / (1 + math.Log10(float64(pending)))
	if w < minShiftWeight {
		return minShiftWeight
	}
	return w
}

// ScoreInputs carries the components blended into a final priority.
type ScoreInputs struct {
	EffectiveGain     float64
	EffectiveCost     float64
	TimeToAfford      float64
	TimeToPayback     float64
	CascadeMultiplier float64
}

// CompositeScore is the authoritative blend: scarcity-weighted efficiency
// times the cascade multiplier times payback-speed and afford-speed
// bonuses. It is monotonic in more gain, less cost, faster payback,
// shorter afford wait and more cascade benefit. The afford term is what
// pushes unaffordable candidates (infinite wait) below every finite one.
func CompositeScore(in ScoreInputs) float64 {
	cost := in.EffectiveCost
	if cost < costEpsilon {
		cost = costEpsilon
	}
	efficiency := in.EffectiveGain / cost

	paybackBonus := speedBonus(in.TimeToPayback)
	affordBonus := speedBonus(in.TimeToAfford)

	return efficiency * in.CascadeMultiplier * paybackBonus * affordBonus
}

// speedBonus maps a wait in seconds into (0, 1]: 1 for an instant wait,
// halved after an hour, with degenerate waits normalized to the sentinel
// first.
func speedBonus(seconds float64) float64 {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds > valueClamp {
		seconds = valueClamp
	}
	if seconds < 0 {
		seconds = 0
	}
	return 1 / (1 + seconds/paybackScaleSeconds)
}
