package view_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"jobmate/salary-service/internal/adzuna"
	"jobmate/salary-service/internal/view"
)

const (
	categoriesGB = `{"results":[{"label":"IT Jobs","tag":"it-jobs"},{"label":"Teaching Jobs","tag":"teaching-jobs"}]}`
	categoriesUS = `{"results":[{"label":"Engineering Jobs","tag":"engineering-jobs"}]}`
	historyJSON  = `{"month":{"2024-01":40000,"2024-02":41000}}`
	searchJSON   = `{"count":2,"mean":50000,"results":[{"salary_max":90000},{"salary_max":60000}]}`
)

// fakeEndpoints builds readable URLs so the fake fetcher can key on them.
type fakeEndpoints struct{}

func (fakeEndpoints) Categories(country string) string { return "categories/" + country }
func (fakeEndpoints) SalaryHistory(country, category string) string {
	return "history/" + country + "/" + category
}
func (fakeEndpoints) Search(country, category string) string {
	return "search/" + country + "/" + category
}

// fakeFetcher answers from a URL table. A URL with a gate blocks until the
// gate is closed.
type fakeFetcher struct {
	mu      sync.Mutex
	bodies  map[string]string
	fail    map[string]bool
	gates   map[string]chan struct{}
	fetched []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		bodies: map[string]string{},
		fail:   map[string]bool{},
		gates:  map[string]chan struct{}{},
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) adzuna.Result {
	f.mu.Lock()
	f.fetched = append(f.fetched, url)
	gate := f.gates[url]
	body, ok := f.bodies[url]
	fail := f.fail[url]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if fail || !ok {
		return adzuna.Result{Err: errors.New("fetch failed: " + url), Data: json.RawMessage(`[]`)}
	}
	return adzuna.Result{Data: json.RawMessage(body)}
}

func newController(f *fakeFetcher) *view.Controller {
	return view.New(view.Config{
		Endpoints: fakeEndpoints{},
		Fetcher:   f,
		Countries: []string{"gb", "us"},
	})
}

func seeded() *fakeFetcher {
	f := newFakeFetcher()
	f.bodies["categories/gb"] = categoriesGB
	f.bodies["categories/us"] = categoriesUS
	f.bodies["history/gb/it-jobs"] = historyJSON
	f.bodies["search/gb/it-jobs"] = searchJSON
	return f
}

// ── Initial state ──────────────────────────────────────────────────────────

func TestNew_IdleState(t *testing.T) {
	st := newController(seeded()).State()
	if st.Country != "" || st.Category != "" || len(st.Categories) != 0 {
		t.Errorf("fresh state should be empty, got %+v", st)
	}
	for name, s := range map[string]view.Status{
		"categories": st.CategoriesStatus,
		"history":    st.HistoryStatus,
		"search":     st.SearchStatus,
	} {
		if s != view.StatusIdle {
			t.Errorf("%s status = %q, want idle", name, s)
		}
	}
}

// ── SelectCountry ──────────────────────────────────────────────────────────

func TestSelectCountry_LoadsCategories(t *testing.T) {
	c := newController(seeded())
	if err := c.SelectCountry(context.Background(), "GB"); err != nil {
		t.Fatalf("SelectCountry: %v", err)
	}
	st := c.State()
	if st.Country != "gb" {
		t.Errorf("Country = %q, want gb", st.Country)
	}
	if st.CategoriesStatus != view.StatusReady {
		t.Errorf("CategoriesStatus = %q, want ready", st.CategoriesStatus)
	}
	if len(st.Categories) != 2 || st.Categories[0].Tag != "it-jobs" {
		t.Errorf("Categories = %+v", st.Categories)
	}
}

func TestSelectCountry_Unsupported(t *testing.T) {
	c := newController(seeded())
	if err := c.SelectCountry(context.Background(), "fr"); !errors.Is(err, view.ErrUnknownCountry) {
		t.Errorf("err = %v, want ErrUnknownCountry", err)
	}
	if c.State().Country != "" {
		t.Error("unsupported country must not be recorded")
	}
}

func TestSelectCountry_FetchFailureSetsError(t *testing.T) {
	f := seeded()
	f.fail["categories/gb"] = true
	c := newController(f)

	if err := c.SelectCountry(context.Background(), "gb"); err != nil {
		t.Fatalf("fetch failures must not surface as errors, got %v", err)
	}
	st := c.State()
	if st.CategoriesStatus != view.StatusError || st.CategoriesErr == "" {
		t.Errorf("status = %q err = %q, want error + message", st.CategoriesStatus, st.CategoriesErr)
	}
	if len(st.Categories) != 0 {
		t.Errorf("Categories = %+v, want empty", st.Categories)
	}
}

// Changing country clears the selected category and the category list
// before the new list is requested.
func TestSelectCountry_InvalidatesCategorySynchronously(t *testing.T) {
	f := seeded()
	c := newController(f)
	ctx := context.Background()

	if err := c.SelectCountry(ctx, "gb"); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectCategory("it-jobs"); err != nil {
		t.Fatal(err)
	}

	gate := make(chan struct{})
	f.mu.Lock()
	f.gates["categories/us"] = gate
	f.mu.Unlock()

	changes := make(chan view.State, 8)
	c.OnChange(func(s view.State) { changes <- s })

	done := make(chan error)
	go func() { done <- c.SelectCountry(ctx, "us") }()

	// While the new category fetch is in flight the old selection is gone.
	got := <-changes
	if got.Country != "us" || got.Category != "" || len(got.Categories) != 0 {
		t.Errorf("in-flight state = %+v, want country us with empty category state", got)
	}
	if got.CategoriesStatus != view.StatusLoading {
		t.Errorf("CategoriesStatus = %q, want loading", got.CategoriesStatus)
	}
	close(gate)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	st := c.State()
	if len(st.Categories) != 1 || st.Categories[0].Tag != "engineering-jobs" {
		t.Errorf("Categories = %+v, want the us list", st.Categories)
	}
}

// A slow response for a country the user already moved away from is dropped.
func TestSelectCountry_DiscardsStaleResponse(t *testing.T) {
	f := seeded()
	gate := make(chan struct{})
	f.gates["categories/gb"] = gate
	c := newController(f)
	ctx := context.Background()

	started := make(chan struct{})
	var once sync.Once
	c.OnChange(func(s view.State) {
		if s.Country == "gb" {
			once.Do(func() { close(started) })
		}
	})

	done := make(chan error)
	go func() { done <- c.SelectCountry(ctx, "gb") }()
	<-started

	if err := c.SelectCountry(ctx, "us"); err != nil {
		t.Fatal(err)
	}
	close(gate)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	st := c.State()
	if st.Country != "us" || len(st.Categories) != 1 || st.Categories[0].Tag != "engineering-jobs" {
		t.Errorf("state = %+v, want us categories only", st)
	}
}

// ── SelectCategory ─────────────────────────────────────────────────────────

func TestSelectCategory(t *testing.T) {
	f := newFakeFetcher()
	c := newController(f)
	if err := c.SelectCategory("it-jobs"); !errors.Is(err, view.ErrNoCountry) {
		t.Errorf("without country: err = %v, want ErrNoCountry", err)
	}

	f = seeded()
	c = newController(f)
	if err := c.SelectCountry(context.Background(), "gb"); err != nil {
		t.Fatal(err)
	}
	fetchesBefore := len(f.fetched)

	if err := c.SelectCategory("teaching-jobs"); err != nil {
		t.Fatalf("SelectCategory: %v", err)
	}
	if got := c.State().Category; got != "teaching-jobs" {
		t.Errorf("Category = %q", got)
	}
	if len(f.fetched) != fetchesBefore {
		t.Error("SelectCategory must not fetch")
	}
	if err := c.SelectCategory("plumbing"); !errors.Is(err, view.ErrUnknownCategory) {
		t.Errorf("err = %v, want ErrUnknownCategory", err)
	}
	if got := c.State().Category; got != "teaching-jobs" {
		t.Errorf("rejected tag changed selection to %q", got)
	}
	if err := c.SelectCategory(""); err != nil || c.State().Category != "" {
		t.Errorf("empty tag should clear selection, err = %v", err)
	}
}

// ── Submit ─────────────────────────────────────────────────────────────────

func TestSubmit_RequiresCountry(t *testing.T) {
	if err := newController(seeded()).Submit(context.Background()); !errors.Is(err, view.ErrNoCountry) {
		t.Errorf("err = %v, want ErrNoCountry", err)
	}
}

func TestSubmit_BothSucceed(t *testing.T) {
	c := newController(seeded())
	ctx := context.Background()
	if err := c.SelectCountry(ctx, "gb"); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectCategory("it-jobs"); err != nil {
		t.Fatal(err)
	}
	if err := c.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	st := c.State()
	if st.HistoryStatus != view.StatusReady || st.SearchStatus != view.StatusReady {
		t.Errorf("statuses = %q/%q, want ready/ready", st.HistoryStatus, st.SearchStatus)
	}
	if st.Loading() {
		t.Error("Loading() should be false after both fetches")
	}
	if st.SalaryHistory == nil || len(st.SalaryHistory.Month) != 2 {
		t.Errorf("SalaryHistory = %+v", st.SalaryHistory)
	}
	if st.Search == nil || st.Search.Mean != 50000 {
		t.Errorf("Search = %+v", st.Search)
	}
}

// The history failure is visible as an error while the search chart data
// still arrives.
func TestSubmit_HistoryFailsSearchSucceeds(t *testing.T) {
	f := seeded()
	f.fail["history/gb/it-jobs"] = true
	c := newController(f)
	ctx := context.Background()
	c.SelectCountry(ctx, "gb")
	c.SelectCategory("it-jobs")

	if err := c.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	st := c.State()
	if st.SearchStatus != view.StatusReady || st.Search == nil {
		t.Errorf("search = %q %+v, want ready with data", st.SearchStatus, st.Search)
	}
	if st.HistoryStatus != view.StatusError || st.HistoryErr == "" {
		t.Errorf("history = %q %q, want error with message", st.HistoryStatus, st.HistoryErr)
	}
	if st.SalaryHistory != nil {
		t.Error("failed history must not invent data")
	}
}

func TestSubmit_FailureKeepsPriorData(t *testing.T) {
	f := seeded()
	c := newController(f)
	ctx := context.Background()
	c.SelectCountry(ctx, "gb")
	c.SelectCategory("it-jobs")
	if err := c.Submit(ctx); err != nil {
		t.Fatal(err)
	}

	f.mu.Lock()
	f.fail["history/gb/it-jobs"] = true
	f.fail["search/gb/it-jobs"] = true
	f.mu.Unlock()
	if err := c.Submit(ctx); err != nil {
		t.Fatal(err)
	}

	st := c.State()
	if st.SalaryHistory == nil || st.Search == nil {
		t.Fatal("prior datasets should survive a failed refresh")
	}
	if st.HistoryStatus != view.StatusError || st.SearchStatus != view.StatusError {
		t.Errorf("statuses = %q/%q, want error/error", st.HistoryStatus, st.SearchStatus)
	}
}

// Both fetches are in flight at the same time.
func TestSubmit_FetchesConcurrently(t *testing.T) {
	f := seeded()
	historyGate := make(chan struct{})
	f.gates["history/gb/it-jobs"] = historyGate
	c := newController(f)
	ctx := context.Background()
	c.SelectCountry(ctx, "gb")
	c.SelectCategory("it-jobs")

	searchDone := make(chan struct{})
	var once sync.Once
	c.OnChange(func(s view.State) {
		if s.SearchStatus == view.StatusReady && s.HistoryStatus == view.StatusLoading {
			once.Do(func() { close(searchDone) })
		}
	})

	done := make(chan error)
	go func() { done <- c.Submit(ctx) }()

	// Search completes while history is still blocked.
	<-searchDone
	if st := c.State(); st.HistoryStatus != view.StatusLoading {
		t.Errorf("HistoryStatus = %q, want loading while gated", st.HistoryStatus)
	}
	close(historyGate)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if st := c.State(); st.HistoryStatus != view.StatusReady {
		t.Errorf("HistoryStatus = %q, want ready", st.HistoryStatus)
	}
}

// Start commits the loading state before returning, so a page rendered
// right after it shows both placeholders.
func TestStart_LoadingVisibleImmediately(t *testing.T) {
	f := seeded()
	gate := make(chan struct{})
	f.gates["history/gb/it-jobs"] = gate
	f.gates["search/gb/it-jobs"] = gate
	c := newController(f)
	ctx := context.Background()
	c.SelectCountry(ctx, "gb")
	c.SelectCategory("it-jobs")

	done, err := c.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	st := c.State()
	if st.HistoryStatus != view.StatusLoading || st.SearchStatus != view.StatusLoading {
		t.Errorf("statuses = %q/%q, want loading/loading", st.HistoryStatus, st.SearchStatus)
	}
	if !st.Loading() {
		t.Error("Loading() = false during fetch")
	}
	close(gate)
	<-done
	if c.State().Loading() {
		t.Error("still loading after done closed")
	}
}

// A newer submit supersedes an older one still in flight.
func TestStart_NewerSubmitWins(t *testing.T) {
	f := seeded()
	gate := make(chan struct{})
	f.gates["search/gb/it-jobs"] = gate
	c := newController(f)
	ctx := context.Background()
	c.SelectCountry(ctx, "gb")
	c.SelectCategory("it-jobs")

	first, err := c.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// switching country abandons the pending search
	if err := c.SelectCountry(ctx, "us"); err != nil {
		t.Fatal(err)
	}
	close(gate)
	<-first

	st := c.State()
	if st.Search != nil || st.SearchStatus != view.StatusIdle {
		t.Errorf("stale search landed: status %q data %+v", st.SearchStatus, st.Search)
	}
}

// Datasets remember the category they were fetched for even when the
// selection changes while the fetch is in flight.
func TestStart_CategoryChangedMidSubmit(t *testing.T) {
	f := seeded()
	gate := make(chan struct{})
	f.gates["history/gb/it-jobs"] = gate
	f.gates["search/gb/it-jobs"] = gate
	c := newController(f)
	ctx := context.Background()
	c.SelectCountry(ctx, "gb")
	c.SelectCategory("it-jobs")

	done, err := c.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SelectCategory("teaching-jobs"); err != nil {
		t.Fatal(err)
	}
	close(gate)
	<-done

	st := c.State()
	if st.Category != "teaching-jobs" {
		t.Errorf("Category = %q, want the new selection", st.Category)
	}
	if st.SearchStatus != view.StatusReady || st.HistoryStatus != view.StatusReady {
		t.Fatalf("statuses = %q/%q", st.HistoryStatus, st.SearchStatus)
	}
	if st.SearchCategory != "it-jobs" || st.HistoryCategory != "it-jobs" || st.SubmittedCategory != "it-jobs" {
		t.Errorf("fetched for %q/%q (submitted %q), want it-jobs",
			st.HistoryCategory, st.SearchCategory, st.SubmittedCategory)
	}
	if got := st.LabelFor(st.SearchCategory); got != "IT Jobs" {
		t.Errorf("LabelFor = %q, want IT Jobs", got)
	}
}

func TestSelectCountry_ClearsFetchedCategories(t *testing.T) {
	c := newController(seeded())
	ctx := context.Background()
	c.SelectCountry(ctx, "gb")
	c.SelectCategory("it-jobs")
	if err := c.Submit(ctx); err != nil {
		t.Fatal(err)
	}
	c.SelectCountry(ctx, "us")

	st := c.State()
	if st.HistoryCategory != "" || st.SearchCategory != "" || st.SubmittedCategory != "" {
		t.Errorf("provenance survived country change: %q/%q/%q",
			st.HistoryCategory, st.SearchCategory, st.SubmittedCategory)
	}
}

func TestState_Settled(t *testing.T) {
	cases := []struct {
		history, search view.Status
		want            bool
	}{
		{view.StatusIdle, view.StatusIdle, false},
		{view.StatusLoading, view.StatusLoading, false},
		{view.StatusReady, view.StatusLoading, true},
		{view.StatusIdle, view.StatusError, true},
	}
	for _, tc := range cases {
		st := view.NewState()
		st.HistoryStatus, st.SearchStatus = tc.history, tc.search
		if got := st.Settled(); got != tc.want {
			t.Errorf("Settled(%s, %s) = %v, want %v", tc.history, tc.search, got, tc.want)
		}
	}
}

func TestSubmit_WithoutCategoryUsesEmptyTag(t *testing.T) {
	f := seeded()
	f.bodies["history/gb/"] = historyJSON
	f.bodies["search/gb/"] = searchJSON
	c := newController(f)
	ctx := context.Background()
	c.SelectCountry(ctx, "gb")

	if err := c.Submit(ctx); err != nil {
		t.Fatal(err)
	}
	if st := c.State(); st.HistoryStatus != view.StatusReady || st.SearchStatus != view.StatusReady {
		t.Errorf("statuses = %q/%q", st.HistoryStatus, st.SearchStatus)
	}
}

// ── Render trigger ─────────────────────────────────────────────────────────

func TestOnChange_ReceivesEveryMutation(t *testing.T) {
	c := newController(seeded())
	var states []view.State
	c.OnChange(func(s view.State) { states = append(states, s) })

	ctx := context.Background()
	c.SelectCountry(ctx, "gb")  // loading + ready
	c.SelectCategory("it-jobs") // 1
	c.Submit(ctx)               // loading + 2 results

	if len(states) != 6 {
		t.Fatalf("observer called %d times, want 6", len(states))
	}
	last := states[len(states)-1]
	if last.HistoryStatus != view.StatusReady || last.SearchStatus != view.StatusReady {
		t.Errorf("last notified state = %+v", last)
	}
}

// ── Restore ────────────────────────────────────────────────────────────────

func TestRestore_SettlesInterruptedLoads(t *testing.T) {
	st := view.NewState()
	st.Country = "gb"
	st.HistoryStatus = view.StatusLoading
	st.SearchStatus = view.StatusReady

	got := view.Restore(view.Config{Endpoints: fakeEndpoints{}, Fetcher: seeded(), Countries: []string{"gb"}}, st).State()
	if got.HistoryStatus != view.StatusIdle {
		t.Errorf("HistoryStatus = %q, want idle", got.HistoryStatus)
	}
	if got.SearchStatus != view.StatusReady || got.Country != "gb" {
		t.Errorf("restored state = %+v", got)
	}
}

// ── Dev mode ───────────────────────────────────────────────────────────────

// In dev mode every supported country resolves to the same fixture list.
func TestDevMode_AnyCountryYieldsFixtureCategories(t *testing.T) {
	r := adzuna.NewResolver(adzuna.ModeDev, adzuna.DefaultBaseURL, "", "", "http://fixtures")
	f := newFakeFetcher()
	f.bodies[r.Categories("")] = categoriesGB

	countries := []string{"gb", "us", "de", "fr", "au"}
	for _, country := range countries {
		c := view.New(view.Config{Endpoints: r, Fetcher: f, Countries: countries})
		if err := c.SelectCountry(context.Background(), country); err != nil {
			t.Fatalf("SelectCountry(%q): %v", country, err)
		}
		st := c.State()
		if st.CategoriesStatus != view.StatusReady || len(st.Categories) != 2 {
			t.Errorf("%s: status %q categories %+v", country, st.CategoriesStatus, st.Categories)
		}
	}
}
