package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/quarryhill/idle-advisor/internal/display"
	"github.com/quarryhill/idle-advisor/internal/models"
)

func printRanking(results []*models.UpgradeResult, top int) {
	if len(results) == 0 {
		color.Yellow("Nothing to buy: no unlocked upgrades")
		return
	}
	if top > 0 && top < len(results) {
		results = results[:top]
	}

	titleColor := color.New(color.FgCyan, color.Bold)
	titleColor.Printf("\n📈 Upgrade ranking (%d candidates)\n\n", len(results))

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"#", "Upgrade", "Kind", "Score", "Gain", "Cost", "Afford In"}),
	)
	for i, res := range results {
		kind := "🏭 Generator"
		if res.Kind == models.KindResearch {
			kind = "🔬 Research"
		}
		row := []string{
			fmt.Sprintf("%d", i+1),
			res.Name,
			kind,
			formatScore(res.CascadeScore),
			display.Abbreviate(res.EffectiveGain),
			display.Abbreviate(res.Cost),
			display.CountdownSeconds(res.TimeToAfford),
		}
		_ = table.Append(row)
	}
	_ = table.Render()

	best := results[0]
	if math.IsInf(best.TimeToAfford, 1) {
		color.Yellow("\n⚠️  Best candidate %s is currently unaffordable", best.Name)
		return
	}
	color.Green("\n👉 Buy next: %s (ready %s)", best.Name, formatAvailableAt(best.AvailableAt))
}

// affordableWithin keeps only results whose wait fits inside the horizon.
// Unaffordable results (infinite wait) never pass.
func affordableWithin(results []*models.UpgradeResult, horizon time.Duration) []*models.UpgradeResult {
	limit := horizon.Seconds()
	var out []*models.UpgradeResult
	for _, res := range results {
		if res.TimeToAfford <= limit {
			out = append(out, res)
		}
	}
	return out
}

func formatScore(score float64) string {
	if math.IsInf(score, 0) || math.IsNaN(score) {
		return "-"
	}
	return fmt.Sprintf("%.4g", score)
}

func formatAvailableAt(at *time.Time) string {
	if at == nil {
		return "never"
	}
	wait := time.Until(*at)
	if wait <= 0 {
		return "now"
	}
	return "in " + strings.TrimSpace(display.Countdown(wait))
}

func printJSON(results []*models.UpgradeResult, top int) error {
	if top > 0 && top < len(results) {
		results = results[:top]
	}
	// Infinities are not valid JSON numbers; surface them as nulls via a
	// shadow type.
	type jsonResult struct {
		Name          string   `json:"name"`
		Kind          string   `json:"kind"`
		Score         float64  `json:"score"`
		EffectiveGain float64  `json:"effective_gain"`
		Cost          float64  `json:"cost"`
		TimeToAfford  *float64 `json:"time_to_afford,omitempty"`
		TimeToPayback *float64 `json:"time_to_payback,omitempty"`
		AvailableAt   *string  `json:"available_at,omitempty"`
	}

	out := make([]jsonResult, 0, len(results))
	for _, res := range results {
		jr := jsonResult{
			Name:          res.Name,
			Kind:          res.Kind.String(),
			Score:         res.CascadeScore,
			EffectiveGain: res.EffectiveGain,
			Cost:          res.Cost,
			TimeToAfford:  finiteOrNil(res.TimeToAfford),
			TimeToPayback: finiteOrNil(res.TimeToPayback),
		}
		if res.AvailableAt != nil {
			s := res.AvailableAt.Format(time.RFC3339)
			jr.AvailableAt = &s
		}
		out = append(out, jr)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func finiteOrNil(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
