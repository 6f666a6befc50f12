package store

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
	"strings"

	"github.com/quarryhill/idle-advisor/internal/models"
)

// CSV layouts. Map fields serialize as "k=v;k2=v2" with sorted keys, set
// fields as "a;b". Unlock flags are derived state and are not persisted.

var generatorHeader = []string{
	"name", "count", "cost_ratio", "rate", "cost",
	"resources", "resource_costs", "required_generators", "required_research",
}

var researchHeader = []string{
	"name", "applied", "multiplier", "cost",
	"target_multipliers", "resource_costs", "target_generators",
	"required_generators", "required_research",
}

var resourceHeader = []string{"name", "total_production"}

// SaveGenerators persists the generator list. Fire-and-forget.
func (s *Store) SaveGenerators(generators []*models.Generator) {
	records := [][]string{generatorHeader}
	for _, g := range generators {
		records = append(records, []string{
			g.Name,
			strconv.Itoa(g.Count),
			formatFloat(g.CostRatio),
			formatFloat(g.Rate),
			formatFloat(g.Cost),
			encodeMap(g.Resources),
			encodeMap(g.ResourceCosts),
			encodeSet(g.RequiredGenerators),
			encodeSet(g.RequiredResearch),
		})
	}
	s.writeCSV(keyGenerators, records)
}

// LoadGenerators returns the persisted generators, empty when absent.
func (s *Store) LoadGenerators() []*models.Generator {
	generators := []*models.Generator{}
	for _, row := range s.readCSV(keyGenerators, len(generatorHeader)) {
		generators = append(generators, &models.Generator{
			Name:               row[0],
			Count:              parseInt(row[1]),
			CostRatio:          parseFloat(row[2]),
			Rate:               parseFloat(row[3]),
			Cost:               parseFloat(row[4]),
			Resources:          decodeMap(row[5]),
			ResourceCosts:      decodeMap(row[6]),
			RequiredGenerators: decodeSet(row[7]),
			RequiredResearch:   decodeSet(row[8]),
		})
	}
	return generators
}

// SaveResearch persists the research list. Fire-and-forget.
func (s *Store) SaveResearch(research []*models.Research) {
	records := [][]string{researchHeader}
	for _, r := range research {
		records = append(records, []string{
			r.Name,
			strconv.FormatBool(r.IsApplied),
			formatFloat(r.Multiplier),
			formatFloat(r.Cost),
			encodeMap(r.TargetMultipliers),
			encodeMap(r.ResourceCosts),
			encodeSet(r.TargetGenerators),
			encodeSet(r.RequiredGenerators),
			encodeSet(r.RequiredResearch),
		})
	}
	s.writeCSV(keyResearch, records)
}

// LoadResearch returns the persisted research, empty when absent.
func (s *Store) LoadResearch() []*models.Research {
	research := []*models.Research{}
	for _, row := range s.readCSV(keyResearch, len(researchHeader)) {
		research = append(research, &models.Research{
			Name:               row[0],
			IsApplied:          row[1] == "true",
			Multiplier:         parseFloat(row[2]),
			Cost:               parseFloat(row[3]),
			TargetMultipliers:  decodeMap(row[4]),
			ResourceCosts:      decodeMap(row[5]),
			TargetGenerators:   decodeSet(row[6]),
			RequiredGenerators: decodeSet(row[7]),
			RequiredResearch:   decodeSet(row[8]),
		})
	}
	return research
}

// SaveResources persists the cached resource snapshot. Fire-and-forget.
func (s *Store) SaveResources(resources []*models.Resource) {
	records := [][]string{resourceHeader}
	for _, r := range resources {
		records = append(records, []string{r.Name, formatFloat(r.TotalProduction)})
	}
	s.writeCSV(keyResources, records)
}

// LoadResources returns the persisted resource snapshot, empty when
// absent.
func (s *Store) LoadResources() []*models.Resource {
	resources := []*models.Resource{}
	for _, row := range s.readCSV(keyResources, len(resourceHeader)) {
		resources = append(resources, &models.Resource{
			Name:            row[0],
			TotalProduction: parseFloat(row[1]),
		})
	}
	return resources
}

func (s *Store) writeCSV(key string, records [][]string) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		s.logger.Warn("failed to encode csv", "key", key, "error", err)
		return
	}
	s.write(key, buf.Bytes())
}

// readCSV returns the data rows (header stripped), skipping rows of the
// wrong width rather than failing the whole load.
func (s *Store) readCSV(key string, width int) [][]string {
	data := s.read(key)
	if data == nil {
		return nil
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		s.logger.Warn("corrupt csv entry", "key", key, "error", err)
		return nil
	}
	var rows [][]string
	for i, row := range records {
		if i == 0 {
			continue
		}
		if len(row) != width {
			s.logger.Warn("skipping malformed csv row", "key", key, "row", i)
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func encodeMap(m map[string]float64) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+formatFloat(m[k]))
	}
	return strings.Join(parts, ";")
}

func decodeMap(s string) map[string]float64 {
	if s == "" {
		return nil
	}
	m := make(map[string]float64)
	for _, part := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		m[k] = parseFloat(v)
	}
	return m
}

func encodeSet(values []string) string {
	return strings.Join(values, ";")
}

func decodeSet(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ";")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
