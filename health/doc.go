// Package health reports whether lzdata's dependencies are usable.
//
// A Checker holds named CheckFuncs; Check runs them and aggregates the
// results (unhealthy beats degraded beats healthy). Checker is an
// http.Handler, mounted by the gateway at {prefix}/health:
//
//	checker := health.NewChecker("lzdata")
//	checker.Register("nats", func(context.Context) health.Status {
//	    if client.IsHealthy() {
//	        return health.NewHealthy("nats", "connected")
//	    }
//	    return health.NewDegraded("nats", client.Status().String())
//	})
//
// Messages built with FromError have URLs, paths, addresses and credentials
// removed so the endpoint can be public.
package health
