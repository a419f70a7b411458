package requester

import (
	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/field"
	"github.com/statgen/locuszoom-sub005/transform"
)

// Plan is a field request grouped by namespace.
type Plan struct {
	// Namespaces lists each namespace once, in order of first appearance.
	Namespaces []string
	// Requests holds each namespace's fields in request order.
	Requests map[string]*adapter.Request
}

// Split parses tokens and groups them by namespace. Tokens without a
// namespace go to field.DefaultNamespace. Each request keeps the bare field
// name, the raw token as output name and the composed transform (nil when the
// token has none). A nil registry means transform.Default.
func Split(tokens []string, reg *transform.Registry) (*Plan, error) {
	plan := &Plan{Requests: make(map[string]*adapter.Request)}

	for _, token := range tokens {
		ref, err := field.Parse(token, reg)
		if err != nil {
			return nil, err
		}
		ns := ref.NamespaceOrDefault()

		req, ok := plan.Requests[ns]
		if !ok {
			req = &adapter.Request{}
			plan.Requests[ns] = req
			plan.Namespaces = append(plan.Namespaces, ns)
		}
		req.Fields = append(req.Fields, ref.Name)
		req.Outnames = append(req.Outnames, ref.FullName)
		req.Transforms = append(req.Transforms, ref.Transform())
	}
	return plan, nil
}
