package join

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/statgen/locuszoom-sub005/errors"
)

// Default patterns locating the logical merge columns of association data.
var (
	IDPatterns       = []*regexp.Regexp{regexp.MustCompile(`\bvariant\b`), regexp.MustCompile(`\bid\b`)}
	PositionPatterns = []*regexp.Regexp{regexp.MustCompile(`(?i)\bposition\b`), regexp.MustCompile(`(?i)\bpos\b`)}
	PValuePatterns   = []*regexp.Regexp{regexp.MustCompile(`(?i)\bpvalue\b`), regexp.MustCompile(`(?i)\blog_pvalue\b`)}
)

// FindField returns the first candidate matching the first pattern that has
// any match, trying patterns in order. Underscores in candidates count as word
// separators, so `\bpos\b` matches "pos_hg19".
func FindField(candidates []string, patterns ...*regexp.Regexp) (string, bool) {
	for _, re := range patterns {
		for _, c := range candidates {
			if re.MatchString(c) || re.MatchString(strings.ReplaceAll(c, "_", " ")) {
				return c, true
			}
		}
	}
	return "", false
}

// MergeColumns names the columns of a row set used to merge other data onto it.
// Empty strings mean unresolved.
type MergeColumns struct {
	ID       string
	Position string
	PValue   string
	Names    []string
}

// FindMergeColumns resolves id, position and p-value columns among names.
// Non-empty fields of overrides are used as given.
func FindMergeColumns(names []string, overrides MergeColumns) MergeColumns {
	sorted := append([]string(nil), names...)
	// Map iteration order is random upstream; sort for deterministic matches
	sort.Strings(sorted)

	cols := overrides
	cols.Names = sorted
	if cols.ID == "" {
		cols.ID, _ = FindField(sorted, IDPatterns...)
	}
	if cols.Position == "" {
		cols.Position, _ = FindField(sorted, PositionPatterns...)
	}
	if cols.PValue == "" {
		cols.PValue, _ = FindField(sorted, PValuePatterns...)
	}
	return cols
}

// Require fails with a MissingMergeColumnError naming each requested logical
// column ("id", "position", "pvalue") that was not resolved. Any other name is
// an invalid error.
func (m MergeColumns) Require(logical ...string) error {
	var missing []string
	for _, name := range logical {
		var value string
		switch name {
		case "id":
			value = m.ID
		case "position":
			value = m.Position
		case "pvalue":
			value = m.PValue
		default:
			return errors.WrapInvalid(errors.ErrInvalidField, "join", "Require", "resolve column "+strconv.Quote(name))
		}
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &errors.MissingMergeColumnError{Missing: missing, Available: m.Names}
	}
	return nil
}
