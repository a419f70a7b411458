// Package field parses field tokens of the form namespace:name|transform1|transform2
// and resolves them against records.
package field

import (
	"regexp"
	"strings"

	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/transform"
)

// DefaultNamespace is used for tokens without a namespace prefix.
const DefaultNamespace = "base"

var tokenPattern = regexp.MustCompile(`^(?:([^:]+):)?([^:|]*)(\|.+)*$`)

// Reference is a parsed field token. It is never mutated after Parse.
type Reference struct {
	FullName        string
	Namespace       string // empty means the default namespace
	Name            string
	Transformations []transform.Func
}

// Parse splits token into namespace, bare name and resolved transformations.
// A nil registry means transform.Default.
func Parse(token string, reg *transform.Registry) (*Reference, error) {
	if reg == nil {
		reg = transform.Default
	}

	m := tokenPattern.FindStringSubmatch(token)
	if m == nil {
		return nil, &errors.InvalidFieldError{Token: token}
	}

	ref := &Reference{
		FullName:  token,
		Namespace: m[1],
		Name:      m[2],
	}

	// The regexp only captures the last repetition of the transform group, so
	// take everything after the bare name instead.
	if i := strings.Index(token, "|"); i >= 0 {
		for _, name := range strings.Split(token[i+1:], "|") {
			if name == "" {
				continue
			}
			fn, err := reg.Get(name)
			if err != nil {
				return nil, &errors.UnknownTransformError{Name: name, Token: token}
			}
			ref.Transformations = append(ref.Transformations, fn)
		}
	}

	return ref, nil
}

// NamespaceOrDefault returns the namespace, substituting DefaultNamespace when empty.
func (r *Reference) NamespaceOrDefault() string {
	if r.Namespace == "" {
		return DefaultNamespace
	}
	return r.Namespace
}

// Transform returns the composition of the reference's transformations, or
// nil when there are none.
func (r *Reference) Transform() transform.Func {
	return transform.Compose(r.Transformations...)
}

// Resolve returns the transformed value of the field in rec. The raw value is
// looked up under the full token, then namespace:name, then the bare name. The
// result is stored back on rec under the full token, so later calls return it
// directly.
func (r *Reference) Resolve(rec chain.Record) any {
	if v, ok := rec[r.FullName]; ok {
		return v
	}

	var val any
	if v, ok := rec[r.Namespace+":"+r.Name]; ok && r.Namespace != "" {
		val = v
	} else if v, ok := rec[r.Name]; ok {
		val = v
	}
	for _, fn := range r.Transformations {
		val = fn(val)
	}

	rec[r.FullName] = val
	return val
}
