// Package retry retries transient failures with exponential backoff.
//
// Do stops early when fn returns an error that is not transient: one wrapped
// with NonRetryable, or one classified invalid or fatal by the errors
// package. Unclassified errors count as transient.
//
//	reply, err := retry.DoWithResult(ctx, retry.Attempts(2), func() ([]byte, error) {
//	    return client.Request(ctx, subject, body)
//	})
//
// Presets:
//
//   - DefaultConfig(): 3 attempts, 100ms-5s delay (upstream requests)
//   - Quick(): 10 attempts, 50ms-1s delay (connecting at startup)
//   - Attempts(n): DefaultConfig with n retries
//
// Cancelling ctx stops the loop between attempts and during backoff.
package retry
