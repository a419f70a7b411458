package join

import (
	"sort"

	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/transform"
)

// SortedLeftJoin copies right[rightValue] onto left[outField] for every left
// row whose leftKey equals some right row's rightKey. Both slices must already
// be sorted ascending by their key; unsorted input yields a partial join. Left
// rows are modified in place and unmatched rows receive no field. Rows whose
// key is not numeric are skipped. It returns the number of matched rows.
func SortedLeftJoin(left, right []chain.Record, leftKey, rightKey, rightValue, outField string) int {
	matched := 0
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		lpos, lok := transform.ToFloat(left[i][leftKey])
		if !lok {
			i++
			continue
		}
		rpos, rok := transform.ToFloat(right[j][rightKey])
		if !rok {
			j++
			continue
		}

		switch {
		case lpos == rpos:
			left[i][outField] = right[j][rightValue]
			matched++
			i++
			j++
		case lpos < rpos:
			i++
		default:
			j++
		}
	}
	return matched
}

// GroupSortedMatches walks two position-sorted row sets and calls fn once per
// left row with every right row sharing its key. Several right rows may share
// one position; several left rows at the same position each see the group.
func GroupSortedMatches(left, right []chain.Record, leftKey, rightKey string, fn func(row chain.Record, matches []chain.Record)) {
	j := 0
	for i := 0; i < len(left); i++ {
		lpos, ok := transform.ToFloat(left[i][leftKey])
		if !ok {
			continue
		}
		for j < len(right) {
			rpos, rok := transform.ToFloat(right[j][rightKey])
			if rok && rpos >= lpos {
				break
			}
			j++
		}

		end := j
		for end < len(right) {
			rpos, rok := transform.ToFloat(right[end][rightKey])
			if !rok || rpos != lpos {
				break
			}
			end++
		}
		if end > j {
			fn(left[i], right[j:end])
		}
	}
}

// SortByField stable-sorts rows ascending by a numeric field in place. Rows
// without a numeric value sort last, keeping their relative order.
func SortByField(rows []chain.Record, field string) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, aok := transform.ToFloat(rows[i][field])
		b, bok := transform.ToFloat(rows[j][field])
		switch {
		case aok && bok:
			return a < b
		default:
			return aok && !bok
		}
	})
}
