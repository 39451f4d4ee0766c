// Package adzuna resolves and fetches the three Adzuna endpoints the salary
// page reads: category listing, salary history and job search.
package adzuna

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultBaseURL is the public Adzuna jobs API root.
	DefaultBaseURL = "https://api.adzuna.com/v1/api/jobs"

	// SearchPageSize is the fixed results_per_page of the search endpoint.
	SearchPageSize = 30

	fixtureCategories    = "/cached_responses/job_categories.json"
	fixtureSalaryHistory = "/cached_responses/salary_history.json"
	fixtureSearch        = "/cached_responses/search_results.json"
)

// Mode selects where endpoints point. It is fixed at process start.
type Mode string

const (
	ModeLive Mode = "live"
	ModeDev  Mode = "dev"
)

// ParseMode converts a raw flag value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeLive, ModeDev:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeLive, ModeDev)
}

// Resolver maps (country, category) to a ready-to-fetch URL. It never
// touches the network.
type Resolver struct {
	mode        Mode
	baseURL     string
	fixtureBase string
	creds       url.Values
}

// NewResolver builds a Resolver. In dev mode only fixtureBase is used; in
// live mode baseURL and the credential pair are embedded in every URL.
func NewResolver(mode Mode, baseURL, appID, appKey, fixtureBase string) *Resolver {
	creds := url.Values{}
	creds.Set("app_id", appID)
	creds.Set("app_key", appKey)
	return &Resolver{
		mode:        mode,
		baseURL:     strings.TrimRight(baseURL, "/"),
		fixtureBase: strings.TrimRight(fixtureBase, "/"),
		creds:       creds,
	}
}

// Mode reports the resolver's mode.
func (r *Resolver) Mode() Mode { return r.mode }

// Categories returns the category-listing URL for country.
func (r *Resolver) Categories(country string) string {
	if r.mode == ModeDev {
		return r.fixtureBase + fixtureCategories
	}
	return r.live(country, "categories", nil)
}

// SalaryHistory returns the salary-history URL for (country, category).
// Without a category the API reports the whole market.
func (r *Resolver) SalaryHistory(country, category string) string {
	if r.mode == ModeDev {
		return r.fixtureBase + fixtureSalaryHistory
	}
	extra := url.Values{}
	if category != "" {
		extra.Set("category", category)
	}
	return r.live(country, "history", extra)
}

// Search returns the first page of job search results for country,
// narrowed to category when one is given.
func (r *Resolver) Search(country, category string) string {
	if r.mode == ModeDev {
		return r.fixtureBase + fixtureSearch
	}
	extra := url.Values{}
	extra.Set("results_per_page", strconv.Itoa(SearchPageSize))
	if category != "" {
		extra.Set("category", category)
	}
	return r.live(country, "search/1", extra)
}

func (r *Resolver) live(country, path string, extra url.Values) string {
	params := url.Values{}
	for k, v := range r.creds {
		params[k] = v
	}
	for k, v := range extra {
		params[k] = v
	}
	return fmt.Sprintf("%s/%s/%s?%s", r.baseURL, url.PathEscape(country), path, params.Encode())
}
