// Package join holds the pure merge and selection algorithms adapters use to
// stitch independently fetched datasets into one row set:
//
//   - SortedLeftJoin: two-cursor merge of position-sorted row sets
//   - ExtremeIndex and BestByGroup: extremal-value selection
//   - FindField and FindMergeColumns: fuzzy column-name matching
//   - AnnotateFromDictionary: keyed enrichment with a stable schema
//
// None of these functions sort their input or retain state between calls.
package join
