package engine

import (
	"math"
	"testing"

	"github.com/quarryhill/idle-advisor/internal/models"
)

// woodEconomy builds the two-generator wood scenario: 5x1 + 3x2 = 11
// wood/s, a doubling research, and a generator whose cost resource is not
// produced at all.
func woodEconomy() *models.GameState {
	return &models.GameState{
		Generators: []*models.Generator{
			{
				Name:          "sawmill",
				Resources:     map[string]float64{"wood": 1},
				Count:         5,
				ResourceCosts: map[string]float64{"wood": 10},
				CostRatio:     1.15,
			},
			{
				Name:          "lumber_camp",
				Resources:     map[string]float64{"wood": 2},
				Count:         3,
				ResourceCosts: map[string]float64{"wood": 25},
				CostRatio:     1.15,
			},
			{
				Name:          "coal_mine",
				Resources:     map[string]float64{"coal": 5},
				Count:         0,
				ResourceCosts: map[string]float64{"coal": 10},
				CostRatio:     1.15,
			},
		},
		Research: []*models.Research{
			{
				Name:              "sharper_blades",
				TargetGenerators:  []string{"sawmill"},
				TargetMultipliers: map[string]float64{"sawmill": 2},
				ResourceCosts:     map[string]float64{"wood": 50},
			},
		},
	}
}

func findResult(t *testing.T, results []*models.UpgradeResult, name string) (*models.UpgradeResult, int) {
	t.Helper()
	for i, r := range results {
		if r.Name == name {
			return r, i
		}
	}
	t.Fatalf("result %q not found in ranking", name)
	return nil, -1
}

func TestRankedUpgradesEndToEnd(t *testing.T) {
	gs := woodEconomy()
	eng := New()

	results := eng.RankedUpgrades(gs)
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}

	research, researchIdx := findResult(t, results, "sharper_blades")
	if research.EffectiveGain <= 0 {
		t.Errorf("research effective gain = %v, want > 0", research.EffectiveGain)
	}
	if math.Abs(research.TimeToAfford-50.0/11.0) > 1e-9 {
		t.Errorf("research time to afford = %v, want %v", research.TimeToAfford, 50.0/11.0)
	}
	if research.AvailableAt == nil {
		t.Error("research should carry an availability timestamp")
	}

	mine, mineIdx := findResult(t, results, "coal_mine")
	if !math.IsInf(mine.TimeToAfford, 1) {
		t.Errorf("coal mine time to afford = %v, want +Inf", mine.TimeToAfford)
	}
	if mine.AvailableAt != nil {
		t.Errorf("coal mine available at = %v, want nil", mine.AvailableAt)
	}
	if researchIdx > mineIdx {
		t.Errorf("research ranked %d, below unaffordable generator at %d", researchIdx, mineIdx)
	}

	// Cached resource snapshot reflects the aggregation.
	var wood *models.Resource
	for _, res := range gs.Resources {
		if res.Name == "wood" {
			wood = res
		}
	}
	if wood == nil || math.Abs(wood.TotalProduction-11.0) > 1e-9 {
		t.Errorf("cached wood production = %+v, want 11", wood)
	}
}

// Repeated passes over unchanged state with unchanged previous weights
// must produce identical orderings.
func TestRankingDeterminism(t *testing.T) {
	baselineEngine := New()
	baseline := baselineEngine.RankedUpgrades(woodEconomy())

	for i := 0; i < 50; i++ {
		results := New().RankedUpgrades(woodEconomy())
		if len(results) != len(baseline) {
			t.Fatalf("run %d: got %d results, want %d", i, len(results), len(baseline))
		}
		for j := range results {
			if results[j].Name != baseline[j].Name {
				t.Fatalf("run %d: position %d is %s, want %s", i, j, results[j].Name, baseline[j].Name)
			}
			if results[j].CascadeScore != baseline[j].CascadeScore {
				t.Fatalf("run %d: %s score %v, want %v", i, results[j].Name, results[j].CascadeScore, baseline[j].CascadeScore)
			}
		}
	}
}

func TestRankingSmoothingCarriesAcrossPasses(t *testing.T) {
	eng := New()
	gs := woodEconomy()

	eng.RankedUpgrades(gs)
	first := eng.Weights()

	eng.RankedUpgrades(gs)
	second := eng.Weights()

	if len(second) == 0 {
		t.Fatal("smoothing state empty after two passes")
	}

	// Same state, so the raw weights repeat. With w1 = 0.4r + 0.6 (first
	// pass smooths against the implicit previous 1.0), the second pass
	// must satisfy w2 = 0.4r + 0.6*w1 = 1.6*w1 - 0.6.
	for res, w1 := range first {
		w2, ok := second[res]
		if !ok {
			t.Fatalf("resource %s dropped from smoothing state", res)
		}
		if want := 1.6*w1 - 0.6; math.Abs(w2-want) > 1e-9 {
			t.Errorf("resource %s: second-pass weight = %v, want %v", res, w2, want)
		}
	}
}

func TestApplyPurchaseGenerator(t *testing.T) {
	gs := &models.GameState{
		Generators: []*models.Generator{
			{Name: "mill", Cost: 10, CostRatio: 1.15, Rate: 1},
		},
	}
	eng := New()
	results := eng.RankedUpgrades(gs)
	mill, _ := findResult(t, results, "mill")

	if err := eng.ApplyPurchase(gs, mill); err != nil {
		t.Fatalf("apply purchase: %v", err)
	}

	g := gs.Generator("mill")
	if g.Count != 1 {
		t.Errorf("count = %d, want 1", g.Count)
	}
	if math.Abs(g.Cost-11.5) > 1e-9 {
		t.Errorf("cost = %v, want 11.5", g.Cost)
	}
}

func TestApplyPurchaseGeneratorMapCosts(t *testing.T) {
	gs := &models.GameState{
		Generators: []*models.Generator{
			{Name: "mill", ResourceCosts: map[string]float64{"wood": 10, "stone": 4}, CostRatio: 2},
		},
	}
	eng := New()
	if err := eng.PurchaseByName(gs, "mill"); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	g := gs.Generator("mill")
	if g.ResourceCosts["wood"] != 20 || g.ResourceCosts["stone"] != 8 {
		t.Errorf("costs = %v, want wood=20 stone=8", g.ResourceCosts)
	}
}

func TestApplyPurchaseResearch(t *testing.T) {
	gs := &models.GameState{
		Generators: []*models.Generator{
			{Name: "sawmill", Resources: map[string]float64{"wood": 1}, Count: 5},
		},
		Research: []*models.Research{
			{
				Name:              "sharper_blades",
				TargetGenerators:  []string{"sawmill"},
				TargetMultipliers: map[string]float64{"sawmill": 2},
				ResourceCosts:     map[string]float64{"wood": 50},
			},
		},
	}
	eng := New()

	if err := eng.PurchaseByName(gs, "sharper_blades"); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	r := gs.ResearchByName("sharper_blades")
	if !r.IsApplied {
		t.Error("research not marked applied")
	}
	if got := gs.Generator("sawmill").Resources["wood"]; math.Abs(got-2.0) > 1e-9 {
		t.Errorf("sawmill rate = %v, want 2.0 (current rate doubled)", got)
	}

	// Second application is an error, and the research leaves the
	// candidate pool.
	if err := eng.PurchaseByName(gs, "sharper_blades"); err == nil {
		t.Error("expected error re-applying research")
	}
	for _, res := range eng.RankedUpgrades(gs) {
		if res.Name == "sharper_blades" {
			t.Error("applied research still ranked")
		}
	}
}

func TestApplyPurchaseForeignResult(t *testing.T) {
	eng := New()
	gs := woodEconomy()
	results := eng.RankedUpgrades(gs)
	mill, _ := findResult(t, results, "sawmill")

	other := woodEconomy()
	if err := eng.ApplyPurchase(other, mill); err == nil {
		t.Error("expected error applying a result from a different game state")
	}
}

func TestRefreshUnlocks(t *testing.T) {
	gs := &models.GameState{
		Generators: []*models.Generator{
			{Name: "base", Rate: 1, Count: 0, Cost: 5, CostRatio: 1.1},
			{Name: "advanced", Rate: 10, Cost: 50, CostRatio: 1.1, RequiredGenerators: []string{"base"}},
			{Name: "endgame", Rate: 100, Cost: 500, CostRatio: 1.1, RequiredResearch: []string{"theory"}},
		},
		Research: []*models.Research{
			{Name: "theory", Cost: 25, TargetGenerators: []string{"base"}, Multiplier: 2, RequiredGenerators: []string{"base"}},
		},
	}
	eng := New()

	results := eng.RankedUpgrades(gs)
	if len(results) != 1 || results[0].Name != "base" {
		t.Fatalf("expected only the base generator unlocked, got %v", names(results))
	}

	if err := eng.PurchaseByName(gs, "base"); err != nil {
		t.Fatal(err)
	}
	results = eng.RankedUpgrades(gs)
	findResult(t, results, "advanced") // unlocks once base is owned
	findResult(t, results, "theory")

	if err := eng.PurchaseByName(gs, "theory"); err != nil {
		t.Fatal(err)
	}
	results = eng.RankedUpgrades(gs)
	findResult(t, results, "endgame") // unlocks once theory is applied
}

func TestPrestige(t *testing.T) {
	gs := woodEconomy()
	eng := New()

	if err := eng.PurchaseByName(gs, "sharper_blades"); err != nil {
		t.Fatal(err)
	}
	eng.RankedUpgrades(gs)

	eng.Prestige(gs, 2.0, 0.5)

	for _, g := range gs.Generators {
		if g.Count != 0 {
			t.Errorf("generator %s count = %d, want 0", g.Name, g.Count)
		}
	}
	if gs.ResearchByName("sharper_blades").IsApplied {
		t.Error("research still applied after prestige")
	}
	// sawmill rate: research doubling backs out to the base 1, then x2
	// prestige.
	if got := gs.Generator("sawmill").Resources["wood"]; math.Abs(got-2.0) > 1e-9 {
		t.Errorf("sawmill rate = %v, want 2.0", got)
	}
	if got := gs.Generator("sawmill").ResourceCosts["wood"]; math.Abs(got-5.0) > 1e-9 {
		t.Errorf("sawmill cost = %v, want 5.0", got)
	}
	if len(eng.Weights()) != 0 {
		t.Error("smoothing state survived prestige")
	}
}

// A neutral prestige must return every rate to its base value, and a
// research bought again afterwards applies once rather than stacking on
// its pre-reset effect.
func TestPrestigeRestoresBaseRates(t *testing.T) {
	gs := woodEconomy()
	eng := New()

	if err := eng.PurchaseByName(gs, "sharper_blades"); err != nil {
		t.Fatal(err)
	}
	eng.Prestige(gs, 1.0, 1.0)

	if got := gs.Generator("sawmill").Resources["wood"]; math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("sawmill rate after neutral prestige = %v, want base 1.0", got)
	}

	if err := eng.PurchaseByName(gs, "sharper_blades"); err != nil {
		t.Fatal(err)
	}
	if got := gs.Generator("sawmill").Resources["wood"]; math.Abs(got-2.0) > 1e-9 {
		t.Errorf("sawmill rate after re-applying research = %v, want 2.0", got)
	}
}

func TestRankingEmptyState(t *testing.T) {
	eng := New()
	if results := eng.RankedUpgrades(models.NewGameState()); len(results) != 0 {
		t.Errorf("expected empty ranking, got %d results", len(results))
	}
}

func names(results []*models.UpgradeResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Name
	}
	return out
}
