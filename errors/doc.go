// Package errors provides standardized error handling for the data-chain engine.
//
// # Overview
//
// Two layers live here. The first is the three-class classification inherited
// by every component: Transient (provider timeouts, unavailable upstreams),
// Invalid (bad requests, malformed responses) and Fatal (misconfiguration).
// The second is the engine's typed error taxonomy:
//
//   - UnknownNamespaceError: a requested field's namespace has no adapter
//   - UnknownTransformError / DuplicateTransformError: transform registry misuse
//   - InvalidFieldError: a token that is not namespace:name|transform
//   - MissingFieldError: an adapter response lacks a requested field
//   - EmptySequenceError / MissingMergeColumnError: join preconditions violated
//   - MissingDependencyError: a connector ran before its upstream source
//
// Each typed error matches a package sentinel through its Is method, so both
// styles work after any amount of %w wrapping:
//
//	if errors.Is(err, errors.ErrUnknownNamespace) { ... }
//
//	var nsErr *errors.UnknownNamespaceError
//	if errors.As(err, &nsErr) { log(nsErr.Namespace) }
//
// # Wrapping
//
// Wrap produces "component.method: action failed: cause". WrapTransient,
// WrapInvalid and WrapFatal additionally attach a class:
//
//	resp, err := client.Do(req)
//	if err != nil {
//	    return nil, errors.WrapTransient(err, "HTTPClient", "GetJSON", "request")
//	}
//
// The requester never retries. Sources retry transient failures only when
// their retries param is set, and the HTTP gateway maps Invalid to 400 and
// everything else to 502.
package errors
