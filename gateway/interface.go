package gateway

import (
	"context"
	"net/http"

	"github.com/statgen/locuszoom-sub005/chain"
)

// Runner executes one data request. *requester.Requester satisfies it.
type Runner interface {
	Run(ctx context.Context, state chain.State, tokens []string) (*chain.Chain, string, error)
}

// HTTPHandler is implemented by anything that mounts routes on a shared mux.
type HTTPHandler interface {
	RegisterHTTPHandlers(prefix string, mux *http.ServeMux)
}
