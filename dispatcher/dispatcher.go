package dispatcher

import (
	"context"
	"fmt"

	"goa.design/goa-ai/model"
)

// DefaultBackend is used when a request does not name one, per §4.7.
const DefaultBackend = "google-native"

// Dispatcher resolves a request's backend in the registry and forwards it
// to the adapter. It emits one terminal error delta itself when the lookup
// fails or the adapter returns an error or panics; when the adapter returns
// nil, the terminal delta is the one the adapter emitted.
type Dispatcher struct {
	Registry *Registry
}

// New returns a Dispatcher backed by registry.
func New(registry *Registry) *Dispatcher {
	return &Dispatcher{Registry: registry}
}

// Dispatch resolves req.Selector.Backend (defaulting to DefaultBackend),
// looks it up in the registry, and streams the request through it. Any
// error the adapter returns, and any panic it raises, is converted into a
// single terminal error delta rather than propagated to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, req model.Request, emit func(model.Delta) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = emit(model.Delta{
				Type:  model.DeltaError,
				Err:   &model.Error{Message: fmt.Sprintf("internal error: %v", r), Code: model.ErrCodeInternal, Retryable: false},
				Final: true,
			})
		}
	}()

	backend := req.Selector.Backend
	if backend == "" {
		backend = DefaultBackend
	}

	adapter, err := d.Registry.Get(backend)
	if err != nil {
		return emit(model.Delta{
			Type:  model.DeltaError,
			Err:   &model.Error{Message: err.Error(), Code: model.ErrCodeInvalidBackend, Retryable: false},
			Final: true,
		})
	}

	if err := adapter.Stream(ctx, req, emit); err != nil {
		return emit(model.Delta{
			Type:  model.DeltaError,
			Err:   &model.Error{Message: err.Error(), Code: model.ErrCodeInternal, Retryable: false},
			Final: true,
		})
	}
	return nil
}
