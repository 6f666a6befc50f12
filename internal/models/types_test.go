package models

import (
	"math"
	"testing"
)

func TestGeneratorProductionFallbacks(t *testing.T) {
	modern := &Generator{Resources: map[string]float64{"wood": 2, "sap": 0.5}, Count: 3}
	got := modern.ProductionPerResource()
	if got["wood"] != 6 || got["sap"] != 1.5 {
		t.Errorf("production = %v, want wood=6 sap=1.5", got)
	}

	legacy := &Generator{Rate: 4, Count: 2}
	if got := legacy.ProductionPerResource(); got[DefaultResource] != 8 {
		t.Errorf("legacy production = %v, want %s=8", got, DefaultResource)
	}

	unowned := &Generator{Resources: map[string]float64{"wood": 2}}
	if got := unowned.ProductionPerResource(); len(got) != 0 {
		t.Errorf("zero-count production = %v, want empty", got)
	}
}

func TestGeneratorCostFallbacks(t *testing.T) {
	multi := &Generator{ResourceCosts: map[string]float64{"wood": 10, "stone": 5}}
	if got := multi.TotalCost(); math.Abs(got-15) > 1e-12 {
		t.Errorf("total cost = %v, want 15", got)
	}

	legacy := &Generator{Cost: 10}
	costs := legacy.PurchaseCosts()
	if costs[DefaultResource] != 10 {
		t.Errorf("legacy costs = %v, want %s=10", costs, DefaultResource)
	}
}

func TestResearchMultiplierFor(t *testing.T) {
	r := &Research{
		TargetMultipliers: map[string]float64{"sawmill": 2},
		Multiplier:        1.5,
	}
	if got := r.MultiplierFor("sawmill"); got != 2 {
		t.Errorf("explicit multiplier = %v, want 2", got)
	}
	if got := r.MultiplierFor("camp"); got != 1.5 {
		t.Errorf("scalar fallback = %v, want 1.5", got)
	}

	empty := &Research{}
	if got := empty.MultiplierFor("anything"); got != 1 {
		t.Errorf("absent multiplier = %v, want 1 (no change)", got)
	}
}

func TestRefreshResourceCacheOrdered(t *testing.T) {
	gs := NewGameState()
	gs.RefreshResourceCache(map[string]float64{"wood": 11, "coal": 0, "stone": 4})

	if len(gs.Resources) != 3 {
		t.Fatalf("got %d resources, want 3", len(gs.Resources))
	}
	wantOrder := []string{"coal", "stone", "wood"}
	for i, name := range wantOrder {
		if gs.Resources[i].Name != name {
			t.Errorf("position %d = %s, want %s", i, gs.Resources[i].Name, name)
		}
	}
	if gs.Resources[2].TotalProduction != 11 {
		t.Errorf("wood production = %v, want 11", gs.Resources[2].TotalProduction)
	}
}
