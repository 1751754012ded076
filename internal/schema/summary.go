package schema

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// maxColumns caps column enumeration for wide datasets.
	maxColumns = 40

	// distinctListLimit: columns with fewer distinct values than this list
	// them all as examples.
	distinctListLimit = 20

	// sampleLimit bounds examples for high-cardinality columns.
	sampleLimit = 5
)

// ColumnSummary describes one retained column.
type ColumnSummary struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	NonNullRatio  float64  `json:"non_null_ratio"`
	DistinctCount int      `json:"distinct_count"`
	Examples      []string `json:"examples"`
}

// Summary is the derived, read-only structural description of a dataset.
// Produced once per upload; read by the clarifier, the generators and the
// confidence auditor.
type Summary struct {
	RowCount  int             `json:"row_count"`
	Columns   []ColumnSummary `json:"columns"`
	Truncated bool            `json:"truncated"`
}

// Summarize derives a Summary from a table. Deterministic: the same table
// always yields the same summary.
func Summarize(t *Table) *Summary {
	if t == nil {
		return nil
	}

	sum := &Summary{RowCount: len(t.Rows)}

	columns := t.Columns
	if len(columns) > maxColumns {
		columns = columns[:maxColumns]
		sum.Truncated = true
	}

	for idx, name := range columns {
		col := ColumnSummary{Name: name}

		seen := make(map[string]bool)
		var distinct []string
		nonNull := 0
		for _, row := range t.Rows {
			v := ""
			if idx < len(row) {
				v = strings.TrimSpace(row[idx])
			}
			if v == "" {
				continue
			}
			nonNull++
			if !seen[v] {
				seen[v] = true
				distinct = append(distinct, v)
			}
		}

		col.DistinctCount = len(distinct)
		if len(t.Rows) > 0 {
			col.NonNullRatio = float64(nonNull) / float64(len(t.Rows))
		}
		col.Type = inferType(distinct)

		if len(distinct) < distinctListLimit {
			col.Examples = distinct
		} else {
			col.Examples = distinct[:sampleLimit]
		}

		sum.Columns = append(sum.Columns, col)
	}

	return sum
}

// inferType picks the narrowest type that fits every non-null value.
func inferType(values []string) string {
	if len(values) == 0 {
		return "string"
	}

	isInt, isFloat, isBool := true, true, true
	for _, v := range values {
		if isInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			switch strings.ToLower(v) {
			case "true", "false", "yes", "no":
			default:
				isBool = false
			}
		}
	}

	switch {
	case isBool:
		return "bool"
	case isInt:
		return "integer"
	case isFloat:
		return "float"
	default:
		return "string"
	}
}

// Render produces the compact text form injected into prompts. A nil summary
// renders the explicit no-schema marker the prompts key off.
func (s *Summary) Render() string {
	if s == nil {
		return "No Schema Provided"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Rows: %d\n", s.RowCount)
	b.WriteString("Columns:\n")
	for _, col := range s.Columns {
		fmt.Fprintf(&b, "- %s (%s, %d distinct, %.0f%% non-null)", col.Name, col.Type, col.DistinctCount, col.NonNullRatio*100)
		if len(col.Examples) > 0 {
			fmt.Fprintf(&b, ": %s", strings.Join(col.Examples, ", "))
		}
		b.WriteByte('\n')
	}
	if s.Truncated {
		fmt.Fprintf(&b, "(column list truncated at %d)\n", maxColumns)
	}
	return b.String()
}
