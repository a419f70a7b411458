// Package sourceregistry registers every built-in adapter type.
package sourceregistry

import (
	stderrors "errors"
	"fmt"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/connector/aggregation"
	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/source/association"
	"github.com/statgen/locuszoom-sub005/source/blob"
	"github.com/statgen/locuszoom-sub005/source/constraint"
	"github.com/statgen/locuszoom-sub005/source/gene"
	"github.com/statgen/locuszoom-sub005/source/gwascatalog"
	"github.com/statgen/locuszoom-sub005/source/interval"
	"github.com/statgen/locuszoom-sub005/source/ld"
	"github.com/statgen/locuszoom-sub005/source/natsreq"
	"github.com/statgen/locuszoom-sub005/source/phewas"
	"github.com/statgen/locuszoom-sub005/source/recomb"
	"github.com/statgen/locuszoom-sub005/source/sqlsource"
	"github.com/statgen/locuszoom-sub005/source/static"
)

// Registrations lists the built-in adapters:
//
// Remote sources (HTTP):
//   - association, ld, gene, recomb, interval, phewas, gwascatalog
//   - constraint (gnomAD GraphQL)
//
// Other backends:
//   - static (configuration data), sql (sqlite or Postgres), blob (S3), nats (request/reply)
//
// Connectors:
//   - gene_aggregation
func Registrations() []*adapter.Registration {
	return []*adapter.Registration{
		association.Registration(),
		ld.Registration(),
		gene.Registration(),
		recomb.Registration(),
		interval.Registration(),
		phewas.Registration(),
		gwascatalog.Registration(),
		constraint.Registration(),
		static.Registration(),
		sqlsource.Registration(),
		blob.Registration(),
		natsreq.Registration(),
		aggregation.Registration(),
	}
}

// Register adds every built-in adapter factory to registry.
func Register(registry *adapter.Registry) error {
	// Nil registry is a programming error (fatal), not invalid input
	if registry == nil {
		return errors.WrapFatal(stderrors.New("registry cannot be nil"), "SourceRegistry", "Register", "registry validation")
	}

	for _, reg := range Registrations() {
		if err := registry.RegisterFactory(reg.Name, reg); err != nil {
			return errors.WrapInvalid(err, "SourceRegistry", "Register", fmt.Sprintf("%s adapter registration", reg.Name))
		}
	}
	return nil
}

// NewRegistry returns a registry holding every built-in adapter.
func NewRegistry() (*adapter.Registry, error) {
	registry := adapter.NewRegistry()
	if err := Register(registry); err != nil {
		return nil, err
	}
	return registry, nil
}
