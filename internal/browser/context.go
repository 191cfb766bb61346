// internal/browser/context.go
package browser

import "context"

// CombineContext returns a context carrying tab's values that ends when
// either tab or op ends. chromedp finds its target through the values of
// tab; op carries the caller's deadline.
func CombineContext(tab, op context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(tab)
	stop := context.AfterFunc(op, func() {
		cancel(context.Cause(op))
	})
	return ctx, func() {
		stop()
		cancel(context.Canceled)
	}
}

// Detach keeps ctx's values but drops its deadline and cancellation. The
// shared browser is launched under a detached context so the request that
// happened to start it cannot tear it down.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
