package engine

import "github.com/quarryhill/idle-advisor/internal/models"

// TotalProductionByResource sums count times per-unit rate over all
// generators, grouped by resource name. It is the single source of truth
// for current output and is recomputed fresh on every ranking pass.
func TotalProductionByResource(generators []*models.Generator) map[string]float64 {
	total := make(map[string]float64)
	for _, g := range generators {
		for res, rate := range g.ProductionPerResource() {
			total[res] += rate
		}
	}
	return total
}

// totalProduction sums a production snapshot into a single scalar.
// Accumulation runs in key order so repeated passes produce bit-identical
// results.
func totalProduction(production map[string]float64) float64 {
	var total float64
	for _, res := range sortedKeys(production) {
		total += production[res]
	}
	return total
}

// cloneProduction copies a production snapshot so simulated purchases
// never touch the live one.
func cloneProduction(production map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(production))
	for res, rate := range production {
		out[res] = rate
	}
	return out
}
