//go:build !windows

package provider

import (
	"iter"

	"reggie/internal/core/errors"
	"reggie/internal/core/ports"
)

// Registry is unavailable off Windows: every root fails to open.
type Registry struct{}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) OpenRoot(rootID string) (ports.Handle, error) {
	err := errors.New(errors.CodeNotSupported, "the registry provider requires windows")
	return nil, errors.AddContext(errors.Wrap(err, errors.CodeRootUnavailable, "open hive"), errors.CtxRoot, rootID)
}

func (r *Registry) Children(ports.Handle) iter.Seq2[string, error] {
	return func(func(string, error) bool) {}
}

func (r *Registry) OpenChild(ports.Handle, string) (ports.Handle, error) {
	return nil, errors.New(errors.CodeNotSupported, "the registry provider requires windows")
}
