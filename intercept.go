package cachesnap

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/goforj/cachesnap/snapcore"
)

// EventFunc receives one event per externally-triggered cache operation.
type EventFunc func(Event)

// recordedStore is the instrumented drop-in for a backend store. It emits an
// event for every externally-triggered operation, then delegates to the
// wrapped store with the original arguments; results pass through unchanged.
type recordedStore struct {
	inner Store
	alias string
	emit  EventFunc

	// depth guards against internal calls: a backend whose composite
	// operation re-enters its own instrumented surface must record only the
	// outermost call. The guard is per-backend, so calls between different
	// backends still record.
	depth int32
}

// enter emits an event unless this is an internal call, and reserves the
// reentrancy guard. Callers must invoke the returned func after delegating.
// The guard cannot tell goroutines apart: a concurrent external call on the
// same backend while another is in flight is treated as internal and not
// recorded. A session expects one test goroutine driving its backends.
func (s *recordedStore) enter(op Op, keyOrKeys any) (func(), error) {
	if atomic.AddInt32(&s.depth, 1) == 1 {
		ev, err := snapcore.NewEvent(s.alias, op, keyOrKeys)
		if err != nil {
			atomic.AddInt32(&s.depth, -1)
			return nil, err
		}
		s.emit(ev)
	}
	return func() { atomic.AddInt32(&s.depth, -1) }, nil
}

func (s *recordedStore) Driver() Driver { return s.inner.Driver() }

func (s *recordedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	exit, err := s.enter(snapcore.OpGet, key)
	if err != nil {
		return nil, false, err
	}
	defer exit()
	return s.inner.Get(ctx, key)
}

func (s *recordedStore) GetMany(ctx context.Context, keys ...string) (map[string][]byte, error) {
	exit, err := s.enter(snapcore.OpGetMany, keys)
	if err != nil {
		return nil, err
	}
	defer exit()
	return s.inner.GetMany(ctx, keys...)
}

func (s *recordedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	exit, err := s.enter(snapcore.OpSet, key)
	if err != nil {
		return err
	}
	defer exit()
	return s.inner.Set(ctx, key, value, ttl)
}

func (s *recordedStore) SetMany(ctx context.Context, values map[string][]byte, ttl time.Duration) error {
	exit, err := s.enter(snapcore.OpSetMany, values)
	if err != nil {
		return err
	}
	defer exit()
	return s.inner.SetMany(ctx, values, ttl)
}

func (s *recordedStore) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	exit, err := s.enter(snapcore.OpAdd, key)
	if err != nil {
		return false, err
	}
	defer exit()
	return s.inner.Add(ctx, key, value, ttl)
}

func (s *recordedStore) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	exit, err := s.enter(snapcore.OpIncrement, key)
	if err != nil {
		return 0, err
	}
	defer exit()
	return s.inner.Increment(ctx, key, delta, ttl)
}

func (s *recordedStore) Decrement(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	exit, err := s.enter(snapcore.OpDecrement, key)
	if err != nil {
		return 0, err
	}
	defer exit()
	return s.inner.Decrement(ctx, key, delta, ttl)
}

func (s *recordedStore) Delete(ctx context.Context, key string) error {
	exit, err := s.enter(snapcore.OpDelete, key)
	if err != nil {
		return err
	}
	defer exit()
	return s.inner.Delete(ctx, key)
}

func (s *recordedStore) DeleteMany(ctx context.Context, keys ...string) error {
	exit, err := s.enter(snapcore.OpDeleteMany, keys)
	if err != nil {
		return err
	}
	defer exit()
	return s.inner.DeleteMany(ctx, keys...)
}

// Interceptor instruments one backend for the duration of a recording.
type Interceptor struct {
	reg   *Registry
	alias string
	orig  Store
}

// Intercept swaps an instrumented wrapper into the registry under alias and
// keeps the original store for restoration.
func Intercept(reg *Registry, alias string, emit EventFunc) (*Interceptor, error) {
	orig, err := reg.swap(alias, func(current Store) Store {
		return &recordedStore{inner: current, alias: alias, emit: emit}
	})
	if err != nil {
		return nil, err
	}
	return &Interceptor{reg: reg, alias: alias, orig: orig}, nil
}

// Detach restores the original store. It must run however the recording
// scope exits, so instrumentation never leaks into subsequent tests.
func (i *Interceptor) Detach() {
	if i.orig == nil {
		return
	}
	i.reg.Register(i.alias, i.orig)
	i.orig = nil
}

// Recorder instruments every backend in a registry with a shared callback.
type Recorder struct {
	interceptors []*Interceptor
}

// InterceptAll attaches an interceptor to each configured backend, in sorted
// alias order. A mid-attach failure detaches whatever already attached
// before returning the error.
func InterceptAll(reg *Registry, emit EventFunc) (*Recorder, error) {
	rec := &Recorder{}
	for _, alias := range reg.Aliases() {
		interceptor, err := Intercept(reg, alias, emit)
		if err != nil {
			rec.Detach()
			return nil, err
		}
		rec.interceptors = append(rec.interceptors, interceptor)
	}
	return rec, nil
}

// Detach releases every interceptor in the exact reverse order of
// acquisition.
func (r *Recorder) Detach() {
	for i := len(r.interceptors) - 1; i >= 0; i-- {
		r.interceptors[i].Detach()
	}
	r.interceptors = nil
}
