package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// knownColumns are the fixed AggregatedGoalRow columns; any
// other header in a fixture file is treated as a dimension column.
var knownColumns = map[string]bool{
	"exp_id":         true,
	"exp_variant_id": true,
	"unit_type":      true,
	"agg_type":       true,
	"goal":           true,
	"count":          true,
	"sum_sqr_count":  true,
	"sum_value":      true,
	"sum_sqr_value":  true,
	"count_unique":   true,
}

// CSVCollaborator is a Collaborator backed by a single in-memory CSV table,
// used by test fixtures and local development rather than a real store. The
// header row names the fixed columns plus any dimension columns; reading
// follows the same encoding/csv-over-io.Reader shape the rest of the example
// corpus uses for flat-file ingestion.
type CSVCollaborator struct {
	rows []Row
}

// LoadCSVFile opens path and builds a CSVCollaborator from its contents.
func LoadCSVFile(path string) (*CSVCollaborator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("data: open fixture %s: %w", path, err)
	}
	defer f.Close()
	return LoadCSV(f)
}

// LoadCSV builds a CSVCollaborator by reading a full CSV table from r.
func LoadCSV(r io.Reader) (*CSVCollaborator, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("data: read csv header: %w", err)
	}
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(name)] = i
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("data: read csv record: %w", err)
		}
		row, err := rowFromRecord(colIndex, record)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return &CSVCollaborator{rows: rows}, nil
}

func rowFromRecord(colIndex map[string]int, record []string) (Row, error) {
	field := func(name string) string {
		idx, ok := colIndex[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}
	num := func(name string) (float64, error) {
		s := field(name)
		if s == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("data: column %q: %w", name, err)
		}
		return v, nil
	}

	row := Row{
		ExpID:        field("exp_id"),
		ExpVariantID: field("exp_variant_id"),
		UnitType:     field("unit_type"),
		AggType:      field("agg_type"),
		Goal:         field("goal"),
		Dimensions:   map[string]string{},
	}
	var err error
	if row.Count, err = num("count"); err != nil {
		return Row{}, err
	}
	if row.SumSqrCount, err = num("sum_sqr_count"); err != nil {
		return Row{}, err
	}
	if row.SumValue, err = num("sum_value"); err != nil {
		return Row{}, err
	}
	if row.SumSqrValue, err = num("sum_sqr_value"); err != nil {
		return Row{}, err
	}
	if row.CountUnique, err = num("count_unique"); err != nil {
		return Row{}, err
	}
	for name, idx := range colIndex {
		if knownColumns[name] {
			continue
		}
		if idx < len(record) {
			row.Dimensions[name] = record[idx]
		}
	}
	return row, nil
}

// GetAggGoals implements Collaborator by filtering the in-memory table to the
// requested experiment id and applying Filters (scope "exposure" restricts
// rows whose goal == "exposure", scope "goal" restricts every other row).
// Date-range filtering is a no-op: CSV fixtures carry no event timestamps,
// only pre-aggregated counters, so date_from/date_to/date_for only matter to
// a real time-series-backed collaborator.
func (c *CSVCollaborator) GetAggGoals(_ context.Context, q Query) ([]Row, error) {
	out := make([]Row, 0, len(c.rows))
	for _, row := range c.rows {
		if row.ExpID != q.ExpID {
			continue
		}
		if !matchesFilters(row, q.Filters) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// Close releases no resources: the table is held entirely in memory.
func (c *CSVCollaborator) Close() error { return nil }

func matchesFilters(row Row, filters []Filter) bool {
	isExposure := row.Goal == "exposure"
	for _, f := range filters {
		inScope := (f.Scope == ScopeExposure && isExposure) || (f.Scope == ScopeGoal && !isExposure)
		if !inScope {
			continue
		}
		if !containsString(f.Values, row.Dim(f.Dimension)) {
			return false
		}
	}
	return true
}

func containsString(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
