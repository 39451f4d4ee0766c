package view

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"jobmate/salary-service/internal/adzuna"
	"jobmate/salary-service/internal/model"
)

var (
	// ErrNoCountry is returned when an operation needs a selected country.
	ErrNoCountry = errors.New("no country selected")
	// ErrUnknownCountry is returned for a country outside the supported set.
	ErrUnknownCountry = errors.New("unsupported country")
	// ErrUnknownCategory is returned for a tag not in the loaded categories.
	ErrUnknownCategory = errors.New("unknown category for selected country")
)

// Endpoints resolves fetch URLs. *adzuna.Resolver implements it.
type Endpoints interface {
	Categories(country string) string
	SalaryHistory(country, category string) string
	Search(country, category string) string
}

// Config carries the controller's collaborators.
type Config struct {
	Endpoints Endpoints
	Fetcher   adzuna.Fetcher
	Countries []string
	Now       func() time.Time
}

// Controller owns one visitor's State. Fetches run outside the lock; every
// committed mutation is pushed to the OnChange observers in commit order.
type Controller struct {
	cfg       Config
	supported map[string]bool

	notifyMu   sync.Mutex // serialises commit+notify so observers see ordered states
	mu         sync.Mutex
	state      State
	countryGen uint64 // bumped by SelectCountry; stale category responses are dropped
	submitGen  uint64 // bumped by Submit and SelectCountry; stale datasets are dropped
	observers  []func(State)
}

// New returns a controller for a fresh page.
func New(cfg Config) *Controller {
	return Restore(cfg, NewState())
}

// Restore rebuilds a controller from persisted state.
func Restore(cfg Config, st State) *Controller {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	supported := make(map[string]bool, len(cfg.Countries))
	for _, c := range cfg.Countries {
		supported[strings.ToLower(c)] = true
	}
	st = st.Clone()
	st.settle()
	return &Controller{cfg: cfg, supported: supported, state: st}
}

// OnChange registers an observer called after every committed mutation.
// Observers must not call back into mutating controller methods.
func (c *Controller) OnChange(fn func(State)) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.observers = append(c.observers, fn)
}

// State returns a copy of the current view state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// SelectCountry records the country, synchronously invalidates the
// category selection and previous datasets, then loads the category list.
// Fetch failures land in CategoriesStatus, not in the returned error.
func (c *Controller) SelectCountry(ctx context.Context, country string) error {
	country = strings.ToLower(strings.TrimSpace(country))
	if !c.supported[country] {
		return ErrUnknownCountry
	}

	var gen uint64
	c.commit(func(s *State) bool {
		c.countryGen++
		c.submitGen++
		gen = c.countryGen

		s.Country = country
		s.Category = ""
		s.Categories = []model.Category{}
		s.CategoriesStatus = StatusLoading
		s.CategoriesErr = ""
		s.SalaryHistory, s.HistoryStatus, s.HistoryErr = nil, StatusIdle, ""
		s.Search, s.SearchStatus, s.SearchErr = nil, StatusIdle, ""
		s.HistoryCategory, s.SearchCategory, s.SubmittedCategory = "", "", ""
		return true
	})

	res := c.cfg.Fetcher.Fetch(ctx, c.cfg.Endpoints.Categories(country))
	var cats []model.Category
	err := res.Err
	if err == nil {
		cats, err = adzuna.DecodeCategories(res.Data)
	}

	c.commit(func(s *State) bool {
		if c.countryGen != gen {
			return false
		}
		if err != nil {
			s.CategoriesStatus = StatusError
			s.CategoriesErr = err.Error()
			return true
		}
		s.Categories = cats
		s.CategoriesStatus = StatusReady
		return true
	})
	if err != nil {
		slog.Warn("category list unavailable", "country", country, "err", err)
	}
	return nil
}

// SelectCategory records the category tag. No network call is made.
// An empty tag clears the selection.
func (c *Controller) SelectCategory(tag string) error {
	tag = strings.TrimSpace(tag)
	var opErr error
	c.commit(func(s *State) bool {
		if s.Country == "" {
			opErr = ErrNoCountry
			return false
		}
		if tag != "" && len(s.Categories) > 0 && !hasTag(s.Categories, tag) {
			opErr = ErrUnknownCategory
			return false
		}
		s.Category = tag
		return true
	})
	return opErr
}

// Submit fetches salary history and search data for the current selection
// concurrently and waits for both. Each field moves from loading to ready
// or error on its own; one failing never cancels the other.
func (c *Controller) Submit(ctx context.Context) error {
	done, err := c.Start(ctx)
	if err != nil {
		return err
	}
	<-done
	return nil
}

// Start marks both datasets loading and launches their fetches. The
// loading state is committed before Start returns; the channel closes once
// both fetches have settled.
func (c *Controller) Start(ctx context.Context) (<-chan struct{}, error) {
	var (
		country, category string
		gen               uint64
		opErr             error
	)
	c.commit(func(s *State) bool {
		if s.Country == "" {
			opErr = ErrNoCountry
			return false
		}
		c.submitGen++
		gen = c.submitGen
		country, category = s.Country, s.Category
		s.SubmittedCategory = category
		s.HistoryStatus, s.HistoryErr = StatusLoading, ""
		s.SearchStatus, s.SearchErr = StatusLoading, ""
		return true
	})
	if opErr != nil {
		return nil, opErr
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var g errgroup.Group
		g.Go(func() error {
			c.loadHistory(ctx, gen, country, category)
			return nil
		})
		g.Go(func() error {
			c.loadSearch(ctx, gen, country, category)
			return nil
		})
		_ = g.Wait()
	}()
	return done, nil
}

func (c *Controller) loadHistory(ctx context.Context, gen uint64, country, category string) {
	res := c.cfg.Fetcher.Fetch(ctx, c.cfg.Endpoints.SalaryHistory(country, category))
	var h *model.SalaryHistory
	err := res.Err
	if err == nil {
		h, err = adzuna.DecodeSalaryHistory(res.Data)
	}

	c.commit(func(s *State) bool {
		if c.submitGen != gen {
			return false
		}
		if err != nil {
			s.HistoryStatus, s.HistoryErr = StatusError, err.Error()
			return true
		}
		s.SalaryHistory, s.HistoryStatus, s.HistoryCategory = h, StatusReady, category
		return true
	})
}

func (c *Controller) loadSearch(ctx context.Context, gen uint64, country, category string) {
	res := c.cfg.Fetcher.Fetch(ctx, c.cfg.Endpoints.Search(country, category))
	var r *model.SearchResults
	err := res.Err
	if err == nil {
		r, err = adzuna.DecodeSearch(res.Data)
	}

	c.commit(func(s *State) bool {
		if c.submitGen != gen {
			return false
		}
		if err != nil {
			s.SearchStatus, s.SearchErr = StatusError, err.Error()
			return true
		}
		s.Search, s.SearchStatus, s.SearchCategory = r, StatusReady, category
		return true
	})
}

// commit applies mutate under the state lock. When mutate reports a change
// the observers receive the new state before commit returns.
func (c *Controller) commit(mutate func(*State) bool) bool {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	changed := mutate(&c.state)
	if changed {
		c.state.UpdatedAt = c.cfg.Now().UTC()
	}
	snap := c.state.Clone()
	c.mu.Unlock()

	if changed {
		for _, fn := range c.observers {
			fn(snap)
		}
	}
	return changed
}

func hasTag(cats []model.Category, tag string) bool {
	for _, c := range cats {
		if c.Tag == tag {
			return true
		}
	}
	return false
}
