package transform

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

func builtins() map[string]Func {
	return map[string]Func{
		"neglog10":         NegLog10,
		"log10":            Log10,
		"logtoscinotation": LogToSciNotation,
		"scinotation":      SciNotation,
		"urlencode":        URLEncode,
		"htmlescape":       HTMLEscape,
	}
}

// NegLog10 returns -log10(x), or nil when x is not a positive number.
func NegLog10(v any) any {
	x, ok := ToFloat(v)
	if !ok || x <= 0 {
		return nil
	}
	return -math.Log10(x)
}

// Log10 returns log10(x), or nil when x is not a positive number.
func Log10(v any) any {
	x, ok := ToFloat(v)
	if !ok || x <= 0 {
		return nil
	}
	return math.Log10(x)
}

// LogToSciNotation renders a -log10 p-value as the p-value it encodes.
func LogToSciNotation(v any) any {
	x, ok := ToFloat(v)
	if !ok {
		return "NaN"
	}
	if x == 0 {
		return "1"
	}
	exp := math.Ceil(x)
	base := math.Pow(10, exp-x)
	switch exp {
	case 1:
		return strconv.FormatFloat(base/10, 'f', 4, 64)
	case 2:
		return strconv.FormatFloat(base/100, 'f', 3, 64)
	default:
		return fmt.Sprintf("%s × 10^-%d", strconv.FormatFloat(base, 'f', 2, 64), int(exp))
	}
}

// SciNotation formats x with three decimals when its magnitude is moderate,
// and as "m.mm × 10^e" otherwise.
func SciNotation(v any) any {
	x, ok := ToFloat(v)
	if !ok {
		return "NaN"
	}
	if x == 0 {
		return "0"
	}

	abs := math.Abs(x)
	var magnitude float64
	if abs > 1 {
		magnitude = math.Ceil(math.Log10(abs))
	} else {
		magnitude = math.Floor(math.Log10(abs))
	}
	if math.Abs(magnitude) <= 3 {
		return strconv.FormatFloat(x, 'f', 3, 64)
	}

	formatted := strconv.FormatFloat(x, 'e', 2, 64)
	mantissa, exponent, _ := strings.Cut(formatted, "e")
	e, err := strconv.Atoi(exponent)
	if err != nil {
		return formatted
	}
	return fmt.Sprintf("%s × 10^%d", mantissa, e)
}

// URLEncode percent-encodes the string form of v for use in a URL component.
func URLEncode(v any) any {
	if v == nil {
		return ""
	}
	return strings.ReplaceAll(url.QueryEscape(fmt.Sprint(v)), "+", "%20")
}

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
	"`", "&#x60;",
)

// HTMLEscape escapes the string form of v for inclusion in markup.
func HTMLEscape(v any) any {
	if v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	if s == "" {
		return ""
	}
	return htmlReplacer.Replace(s)
}

// ToFloat coerces JSON-decoded and database values to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), !math.IsNaN(float64(n))
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsNaN(f)
	default:
		return 0, false
	}
}
