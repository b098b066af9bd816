// Package resilience provides patterns for building fault-tolerant systems.
//
// This package includes:
//   - CircuitBreaker: Prevents cascading failures by failing fast
//   - Retry: Retries failed operations with exponential backoff
//   - RateLimiter: Controls request rate with token bucket algorithm
//
// The patterns compose: wrap a retried call in a circuit breaker so a
// persistently failing dependency trips the breaker instead of burning
// retry budgets.
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("backend"))
//	err := cb.Execute(func() error {
//	    _, err := resilience.Retry(ctx, cfg, callBackend)
//	    return err
//	})
package resilience
