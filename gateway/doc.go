// Package gateway exposes data requests to rendering clients over HTTP.
//
// The gateway turns one query string into a chain.State plus field tokens,
// runs the requester and returns the resulting body:
//
//	GET /api/v1/data?chr=10&start=114550000&end=115067678&fields=assoc:position,assoc:log_pvalue,ld:state&ldrefvar=10:114758349_C/T
//
//	{"run_id": "...", "header": {"ldrefvar": "10:114758349_C/T"}, "body": [...]}
//
// Failures return {"error": "data could not be loaded", "class": "<class>"}.
// Request errors (unknown namespace or transform, malformed field, bad
// region) are 400; failures while fetching are 502.
//
// Interactive clients can keep one websocket open on /api/v1/stream and send
// the same query as JSON, tagged with an id that is echoed in the reply:
//
//	{"id": "7", "chr": "10", "start": 114550000, "end": 115067678, "fields": ["assoc:position"]}
//
// Setting tls in the config serves both routes over HTTPS.
//
// Implementations by protocol:
//
//   - HTTP: gateway/http
package gateway
