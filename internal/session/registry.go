package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"jobmate/salary-service/internal/view"
)

const persistTimeout = 2 * time.Second

type entry struct {
	ctrl     *view.Controller
	lastSeen time.Time
}

// Registry hands out the live controller of a session, restoring it from
// the Store on first use and persisting every state change back.
type Registry struct {
	cfg   view.Config
	store Store
	idle  time.Duration
	now   func() time.Time

	mu   sync.Mutex
	live map[string]*entry
}

// NewRegistry returns a Registry building controllers from cfg. Sessions
// untouched for longer than idle are dropped by Sweep.
func NewRegistry(cfg view.Config, store Store, idle time.Duration) *Registry {
	return &Registry{
		cfg:   cfg,
		store: store,
		idle:  idle,
		now:   time.Now,
		live:  make(map[string]*entry),
	}
}

// Get returns the controller of session id, creating it if needed. A store
// failure degrades to a fresh page rather than an error.
func (r *Registry) Get(ctx context.Context, id string) *view.Controller {
	if ctrl := r.touch(id); ctrl != nil {
		return ctrl
	}

	var ctrl *view.Controller
	st, err := r.store.Load(ctx, id)
	switch {
	case err == nil:
		ctrl = view.Restore(r.cfg, st)
	case errors.Is(err, ErrNotFound):
		ctrl = view.New(r.cfg)
	default:
		slog.Warn("session load failed, starting fresh", "session", id, "err", err)
		ctrl = view.New(r.cfg)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.live[id]; ok {
		// another request restored it first
		e.lastSeen = r.now()
		return e.ctrl
	}
	ctrl.OnChange(r.persist(id))
	r.live[id] = &entry{ctrl: ctrl, lastSeen: r.now()}
	return ctrl
}

func (r *Registry) touch(id string) *view.Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.live[id]
	if !ok {
		return nil
	}
	e.lastSeen = r.now()
	return e.ctrl
}

func (r *Registry) persist(id string) func(view.State) {
	return func(st view.State) {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := r.store.Save(ctx, id, st); err != nil {
			slog.Warn("session persist failed", "session", id, "err", err)
		}
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// Sweep drops sessions idle for longer than the registry's idle window and
// deletes their stored state. It returns how many were dropped.
func (r *Registry) Sweep(ctx context.Context) int {
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	var expired []string
	for id, e := range r.live {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, id)
			delete(r.live, id)
		}
	}
	r.mu.Unlock()

	for _, id := range expired {
		if err := r.store.Delete(ctx, id); err != nil {
			slog.Warn("session delete failed", "session", id, "err", err)
		}
	}
	return len(expired)
}
