package join

import (
	"regexp"
	"strings"
)

var variantPattern = regexp.MustCompile(`^(?:chr)?([a-zA-Z0-9]+?)[_:-](\d+)[_:-]?(\w+)?[/_:|-]?([^_]+)?_?(.*)?`)

// NormalizeVariant rewrites a variant identifier such as "chr1-12345-A-G" or
// "1_12345_A/G" into the chrom:pos_ref/alt form LD servers expect. Identifiers
// that do not look like variants are returned unchanged.
func NormalizeVariant(id string) string {
	m := variantPattern.FindStringSubmatch(id)
	if m == nil {
		return id
	}
	var b strings.Builder
	b.WriteString(m[1])
	b.WriteString(":")
	b.WriteString(m[2])
	if m[3] != "" {
		b.WriteString("_")
		b.WriteString(m[3])
		if m[4] != "" {
			b.WriteString("/")
			b.WriteString(m[4])
		}
	}
	return b.String()
}
