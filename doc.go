// Package locuszoom assembles the rows behind a genome browser panel.
//
// A request names a region (chromosome, start, end) and a list of field
// tokens such as "assoc:position", "assoc:pvalue|neglog10" or "ld:state".
// Each token's namespace selects a configured source; the requester asks
// the sources for their fields one namespace at a time, in order of first
// appearance, and each source merges its rows into the chain built so far:
//
//	assoc -> ld -> gene -> constraint
//
// Dependent sources (ld, gwascatalog, constraint) read the body produced by
// earlier stages: LD picks its reference variant from the association rows
// and joins r² onto them by position; the constraint source annotates gene
// rows with gnomAD metrics.
//
// # Packages
//
//   - chain: Record, State and Chain, the values threaded through a run
//   - field: parser for "namespace:name|transform" tokens
//   - transform: named value transforms (neglog10, scinotation, ...)
//   - adapter: the source contract, its fetch/normalize/extract/combine
//     pipeline, HTTP transport and the adapter type registry
//   - join: sorted joins, extreme selection and dictionary annotation
//   - requester: request splitting and the sequential stage runner
//   - source/...: association, ld, gene, constraint, recomb, interval,
//     phewas, gwascatalog, static, sql, blob (S3) and nats sources
//   - connector/aggregation: joins gene rows with aggregation test results
//   - sourceregistry: registers every built-in adapter type
//   - config: JSON/YAML configuration with schema validation
//   - gateway/http: GET /api/v1/data
//   - cmd/lzdata: one-shot queries and the HTTP service
//
// # Usage
//
//	registry, _ := sourceregistry.NewRegistry()
//	sources, err := requester.FromSpecs(registry, cfg.Sources, adapter.Dependencies{Logger: logger})
//	if err != nil {
//		return err
//	}
//	req := requester.New(sources, requester.WithLogger(logger))
//	defer req.Close(ctx)
//
//	c, err := req.GetData(ctx, chain.State{Chr: "10", Start: 114550000, End: 115067678},
//		[]string{"assoc:position", "assoc:log_pvalue", "ld:state"})
//
// Errors are classified (invalid, transient, fatal) by package errors; an
// unknown namespace or transform is reported before any source is called.
package locuszoom
