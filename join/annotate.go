package join

import (
	"fmt"
	"math"
	"strings"

	"github.com/statgen/locuszoom-sub005/chain"
)

// StripVersion removes a trailing ".N" version tag from an identifier, as in
// ENSG00000123.5 -> ENSG00000123.
func StripVersion(id string) string {
	if i := strings.Index(id, "."); i >= 0 {
		return id[:i]
	}
	return id
}

// AnnotateFromDictionary returns copies of rows enriched from dict. Each row's
// keyField value is version-stripped and looked up; on a hit every field in
// fields is copied, with non-integral floats rounded to precision decimals; on
// a miss each field is set to nil so all rows share one schema. Fields already
// present on a row are never overwritten. A negative precision disables rounding.
func AnnotateFromDictionary(rows []chain.Record, keyField string, dict map[string]map[string]any, fields []string, precision int) []chain.Record {
	out := chain.CloneRecords(rows)
	for _, row := range out {
		key := StripVersion(stringify(row[keyField]))
		entry, found := dict[key]
		for _, f := range fields {
			if _, exists := row[f]; exists {
				continue
			}
			if !found {
				row[f] = nil
				continue
			}
			row[f] = Round(entry[f], precision)
		}
	}
	return out
}

// Round limits a float with a fractional part to precision decimals. Other
// values are returned unchanged.
func Round(v any, precision int) any {
	f, ok := v.(float64)
	if !ok || precision < 0 || f == math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return v
	}
	scale := math.Pow(10, float64(precision))
	return math.Round(f*scale) / scale
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}
