// Package config loads the lzdata configuration file.
//
// A configuration names the sources of a run by namespace, plus the optional
// NATS connection, metrics server and HTTP gateway:
//
//	sources:
//	  assoc:
//	    type: association
//	    url: https://portaldev.sph.umich.edu/api/v1/statistic/single/
//	    params: {source: 45}
//	  ld:
//	    type: ld
//	    url: https://portaldev.sph.umich.edu/ld/
//	    cache: {strategy: lru, max_size: 8}
//	gateway:
//	  address: ":8080"
//
// Files may be JSON (.json) or YAML (.yaml, .yml). Both are converted to JSON
// and checked against the embedded schema before decoding, then
// LZDATA_NATS_URLS, LZDATA_NATS_USERNAME, LZDATA_NATS_PASSWORD,
// LZDATA_NATS_TOKEN, LZDATA_GATEWAY_ADDRESS and LZDATA_METRICS_PORT override
// the file, and Config.Validate runs last.
//
//	cfg, err := config.NewLoader().LoadFile("lzdata.yaml")
package config
