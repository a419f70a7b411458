package join

import (
	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/transform"
)

// Sign values for ExtremeIndex.
const (
	Maximum = 1.0
	Minimum = -1.0
)

// ExtremeIndex returns the index of the row maximizing sign*row[field]. Use
// Minimum to pick the smallest p-value. The first row wins ties and rows
// without a numeric value are skipped; if no row has one, index 0 is returned.
func ExtremeIndex(rows []chain.Record, field string, sign float64) (int, error) {
	if len(rows) == 0 {
		return 0, &errors.EmptySequenceError{Field: field}
	}

	best := -1
	var bestVal float64
	for i, row := range rows {
		v, ok := transform.ToFloat(row[field])
		if !ok {
			continue
		}
		v *= sign
		if best == -1 || v > bestVal {
			best, bestVal = i, v
		}
	}
	if best == -1 {
		return 0, nil
	}
	return best, nil
}

// BestByGroup keeps, for each distinct value of groupField, the row that
// maximizes sign*row[valueField]. Keys are stringified group values. Rows
// with no group value are ignored.
func BestByGroup(rows []chain.Record, groupField, valueField string, sign float64) map[string]chain.Record {
	best := make(map[string]chain.Record)
	for _, row := range rows {
		g, ok := row[groupField]
		if !ok || g == nil {
			continue
		}
		key := stringify(g)

		current, seen := best[key]
		if !seen {
			best[key] = row
			continue
		}
		v, vok := transform.ToFloat(row[valueField])
		if !vok {
			continue
		}
		cv, cok := transform.ToFloat(current[valueField])
		if !cok || v*sign > cv*sign {
			best[key] = row
		}
	}
	return best
}
