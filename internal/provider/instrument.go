package provider

import (
	"iter"

	"reggie/internal/core/ports"
	"reggie/internal/shared/observability"
)

// Instrumented counts provider calls and failures. Engines treat child and
// entry failures as silent pruning, so these counters are the only place
// they remain visible.
type Instrumented struct {
	inner ports.NodeProvider
}

func Instrument(inner ports.NodeProvider) *Instrumented {
	return &Instrumented{inner: inner}
}

func (p *Instrumented) OpenRoot(rootID string) (ports.Handle, error) {
	observability.ProviderCallsTotal.WithLabelValues(observability.OpOpenRoot).Inc()
	h, err := p.inner.OpenRoot(rootID)
	if err != nil {
		observability.ProviderFailuresTotal.WithLabelValues(observability.OpOpenRoot).Inc()
	}
	return h, err
}

func (p *Instrumented) Children(node ports.Handle) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		observability.ProviderCallsTotal.WithLabelValues(observability.OpChildren).Inc()
		for name, err := range p.inner.Children(node) {
			if err != nil {
				observability.ProviderFailuresTotal.WithLabelValues(observability.OpChildren).Inc()
			}
			if !yield(name, err) {
				return
			}
		}
	}
}

func (p *Instrumented) OpenChild(node ports.Handle, name string) (ports.Handle, error) {
	observability.ProviderCallsTotal.WithLabelValues(observability.OpOpenChild).Inc()
	h, err := p.inner.OpenChild(node, name)
	if err != nil {
		observability.ProviderFailuresTotal.WithLabelValues(observability.OpOpenChild).Inc()
	}
	return h, err
}
