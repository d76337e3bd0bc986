//go:build windows

package provider

import (
	"iter"

	"golang.org/x/sys/windows/registry"

	"reggie/internal/core/errors"
	"reggie/internal/core/ports"
)

// Registry walks the Windows registry. Roots are hive names; see Hives.
type Registry struct{}

func NewRegistry() *Registry {
	return &Registry{}
}

type keyHandle struct {
	key registry.Key
}

func (h keyHandle) Close() error {
	return h.key.Close()
}

func (r *Registry) OpenRoot(rootID string) (ports.Handle, error) {
	hive, ok := LookupHive(rootID)
	if !ok {
		return nil, errors.AddContext(errors.New(errors.CodeRootUnavailable, "unknown hive"), errors.CtxRoot, rootID)
	}
	k, err := registry.OpenKey(registry.Key(hive.Key), "", registry.READ)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeRootUnavailable, "open hive"), errors.CtxRoot, rootID)
	}
	return keyHandle{key: k}, nil
}

func (r *Registry) Children(node ports.Handle) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		h, ok := node.(keyHandle)
		if !ok {
			yield("", errors.New(errors.CodeInternal, "foreign handle"))
			return
		}
		names, err := h.key.ReadSubKeyNames(-1)
		for _, name := range names {
			if !yield(name, nil) {
				return
			}
		}
		if err != nil {
			yield("", errors.Wrap(err, errors.CodeEnumeration, "enumerate subkeys"))
		}
	}
}

func (r *Registry) OpenChild(node ports.Handle, name string) (ports.Handle, error) {
	h, ok := node.(keyHandle)
	if !ok {
		return nil, errors.New(errors.CodeInternal, "foreign handle")
	}
	k, err := registry.OpenKey(h.key, name, registry.READ)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeChildUnavailable, "open subkey"), errors.CtxChild, name)
	}
	return keyHandle{key: k}, nil
}
