package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quarryhill/idle-advisor/internal/models"
)

// GeneratorYAML is the YAML shape of a generator definition.
type GeneratorYAML struct {
	Name               string             `yaml:"name"`
	Resources          map[string]float64 `yaml:"resources,omitempty"`
	Rate               float64            `yaml:"rate,omitempty"`
	Count              int                `yaml:"count,omitempty"`
	ResourceCosts      map[string]float64 `yaml:"resource_costs,omitempty"`
	Cost               float64            `yaml:"cost,omitempty"`
	CostRatio          float64            `yaml:"cost_ratio,omitempty"`
	RequiredGenerators []string           `yaml:"required_generators,omitempty"`
	RequiredResearch   []string           `yaml:"required_research,omitempty"`
}

// ResearchYAML is the YAML shape of a research definition.
type ResearchYAML struct {
	Name               string             `yaml:"name"`
	TargetMultipliers  map[string]float64 `yaml:"target_multipliers,omitempty"`
	Multiplier         float64            `yaml:"multiplier,omitempty"`
	ResourceCosts      map[string]float64 `yaml:"resource_costs,omitempty"`
	Cost               float64            `yaml:"cost,omitempty"`
	TargetGenerators   []string           `yaml:"target_generators,omitempty"`
	RequiredGenerators []string           `yaml:"required_generators,omitempty"`
	RequiredResearch   []string           `yaml:"required_research,omitempty"`
	Applied            bool               `yaml:"applied,omitempty"`
}

// ScenarioYAML is a complete game definition plus starting state.
type ScenarioYAML struct {
	Generators []GeneratorYAML `yaml:"generators"`
	Research   []ResearchYAML  `yaml:"research"`
}

// LoadScenario reads and validates a scenario file into a game state.
func LoadScenario(path string) (*models.GameState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*models.GameState, error) {
	var scenario ScenarioYAML
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	gs := models.NewGameState()
	for _, raw := range scenario.Generators {
		gs.Generators = append(gs.Generators, &models.Generator{
			Name:               raw.Name,
			Resources:          raw.Resources,
			Rate:               raw.Rate,
			Count:              raw.Count,
			ResourceCosts:      raw.ResourceCosts,
			Cost:               raw.Cost,
			CostRatio:          defaultCostRatio(raw.CostRatio),
			RequiredGenerators: raw.RequiredGenerators,
			RequiredResearch:   raw.RequiredResearch,
		})
	}
	for _, raw := range scenario.Research {
		gs.Research = append(gs.Research, &models.Research{
			Name:               raw.Name,
			TargetMultipliers:  raw.TargetMultipliers,
			Multiplier:         raw.Multiplier,
			ResourceCosts:      raw.ResourceCosts,
			Cost:               raw.Cost,
			TargetGenerators:   raw.TargetGenerators,
			RequiredGenerators: raw.RequiredGenerators,
			RequiredResearch:   raw.RequiredResearch,
			IsApplied:          raw.Applied,
		})
	}
	return gs, nil
}

// defaultCostRatio keeps omitted ratios at the common idle-game default.
func defaultCostRatio(ratio float64) float64 {
	if ratio == 0 {
		return 1.15
	}
	return ratio
}

func validateScenario(scenario *ScenarioYAML) error {
	generatorNames := make(map[string]bool, len(scenario.Generators))
	for _, g := range scenario.Generators {
		if g.Name == "" {
			return fmt.Errorf("generator with empty name")
		}
		if generatorNames[g.Name] {
			return fmt.Errorf("duplicate generator %q", g.Name)
		}
		generatorNames[g.Name] = true

		if g.CostRatio != 0 && g.CostRatio <= 1 {
			return fmt.Errorf("generator %q: cost_ratio must be > 1, got %v", g.Name, g.CostRatio)
		}
		if g.Count < 0 {
			return fmt.Errorf("generator %q: count must be >= 0, got %d", g.Name, g.Count)
		}
	}

	researchNames := make(map[string]bool, len(scenario.Research))
	for _, r := range scenario.Research {
		if r.Name == "" {
			return fmt.Errorf("research with empty name")
		}
		if researchNames[r.Name] {
			return fmt.Errorf("duplicate research %q", r.Name)
		}
		researchNames[r.Name] = true

		for target, mult := range r.TargetMultipliers {
			if mult < 0 {
				return fmt.Errorf("research %q: multiplier for %q must be >= 0, got %v", r.Name, target, mult)
			}
		}
		if r.Multiplier < 0 {
			return fmt.Errorf("research %q: multiplier must be >= 0, got %v", r.Name, r.Multiplier)
		}
		for _, target := range r.TargetGenerators {
			if !generatorNames[target] {
				return fmt.Errorf("research %q targets unknown generator %q", r.Name, target)
			}
		}
	}

	// Prerequisite references must resolve.
	for _, g := range scenario.Generators {
		if err := checkRefs(g.Name, g.RequiredGenerators, g.RequiredResearch, generatorNames, researchNames); err != nil {
			return err
		}
	}
	for _, r := range scenario.Research {
		if err := checkRefs(r.Name, r.RequiredGenerators, r.RequiredResearch, generatorNames, researchNames); err != nil {
			return err
		}
	}
	return nil
}

func checkRefs(owner string, generators, research []string, generatorNames, researchNames map[string]bool) error {
	for _, name := range generators {
		if !generatorNames[name] {
			return fmt.Errorf("%q requires unknown generator %q", owner, name)
		}
	}
	for _, name := range research {
		if !researchNames[name] {
			return fmt.Errorf("%q requires unknown research %q", owner, name)
		}
	}
	return nil
}
