package provider

import (
	"context"
	"iter"
	"time"

	"reggie/internal/core/ports"
	"reggie/internal/shared/observability"
	"reggie/internal/shared/util"
)

// Throttled limits the rate of calls reaching an underlying provider. An
// enumeration costs one token however many names it yields.
type Throttled struct {
	inner   ports.NodeProvider
	limiter *util.Limiter
}

func Throttle(inner ports.NodeProvider, limiter *util.Limiter) *Throttled {
	return &Throttled{inner: inner, limiter: limiter}
}

func (t *Throttled) wait() {
	start := time.Now()
	// Background never cancels, so Wait only fails for a burst below one.
	_ = t.limiter.Wait(context.Background(), 1)
	observability.ProviderThrottleSeconds.Observe(time.Since(start).Seconds())
}

func (t *Throttled) OpenRoot(rootID string) (ports.Handle, error) {
	t.wait()
	return t.inner.OpenRoot(rootID)
}

func (t *Throttled) Children(node ports.Handle) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		t.wait()
		for name, err := range t.inner.Children(node) {
			if !yield(name, err) {
				return
			}
		}
	}
}

func (t *Throttled) OpenChild(node ports.Handle, name string) (ports.Handle, error) {
	t.wait()
	return t.inner.OpenChild(node, name)
}
