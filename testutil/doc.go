// Package testutil provides fakes and fixtures for adapter and pipeline tests.
//
// MockSource is a spy adapter.Source that counts stage runs. MockRequester
// stands in for a NATS request/reply client. FixtureServer is an httptest
// server that answers with canned JSON and records every request it saw.
// The data.go fixtures are small association, LD and gene payloads in the
// column-oriented shape the public LocusZoom APIs return.
//
// Prefer real dependencies where they are cheap: httptest servers over mocks
// for HTTP sources, in-memory sqlite for SQL sources, and testcontainers NATS
// (natsclient.NewTestClient) for integration tests gated by INTEGRATION_TESTS.
package testutil
