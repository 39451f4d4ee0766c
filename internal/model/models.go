// Package model defines the job-market data structures shared by the
// salary service. Field names mirror the Adzuna JSON responses; only the
// fields the page actually consumes are decoded.
package model

import (
	"sort"
	"strings"
)

// Category is a job classification offered for a country.
// Tag is the machine-readable key used in subsequent queries.
type Category struct {
	Label string `json:"label"`
	Tag   string `json:"tag"`
}

// CategoryList mirrors the categories endpoint response.
type CategoryList struct {
	Results []Category `json:"results"`
}

// SalaryHistory mirrors the history endpoint response: month ("YYYY-MM")
// to average advertised salary.
type SalaryHistory struct {
	Month map[string]float64 `json:"month"`
}

// SalaryPoint is one month of a SalaryHistory.
type SalaryPoint struct {
	Month  string  `json:"month"`
	Salary float64 `json:"salary"`
}

// Points returns the history sorted by month, oldest first.
func (h SalaryHistory) Points() []SalaryPoint {
	points := make([]SalaryPoint, 0, len(h.Month))
	for month, salary := range h.Month {
		points = append(points, SalaryPoint{Month: month, Salary: salary})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Month < points[j].Month })
	return points
}

// SearchResults mirrors the search endpoint response.
type SearchResults struct {
	Count   int     `json:"count"`
	Mean    float64 `json:"mean"`
	Results []Job   `json:"results"`
}

// Job mirrors a single Adzuna job listing.
type Job struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Company      DisplayName `json:"company"`
	Location     DisplayName `json:"location"`
	SalaryMin    float64     `json:"salary_min"`
	SalaryMax    float64     `json:"salary_max"`
	ContractTime string      `json:"contract_time,omitempty"`
	ContractType string      `json:"contract_type,omitempty"`
	RedirectURL  string      `json:"redirect_url"`
	Created      string      `json:"created"`
}

// DisplayName is the {"display_name": ...} wrapper Adzuna uses for
// companies and locations.
type DisplayName struct {
	DisplayName string `json:"display_name"`
}

// Country is a supported job market.
type Country struct {
	Code   string
	Name   string
	Locale string // BCP 47 tag used to format salaries
}

// countries lists every market the Adzuna API serves.
var countries = map[string]Country{
	"at": {Code: "at", Name: "Austria", Locale: "de-AT"},
	"au": {Code: "au", Name: "Australia", Locale: "en-AU"},
	"be": {Code: "be", Name: "Belgium", Locale: "fr-BE"},
	"br": {Code: "br", Name: "Brazil", Locale: "pt-BR"},
	"ca": {Code: "ca", Name: "Canada", Locale: "en-CA"},
	"ch": {Code: "ch", Name: "Switzerland", Locale: "de-CH"},
	"de": {Code: "de", Name: "Germany", Locale: "de-DE"},
	"es": {Code: "es", Name: "Spain", Locale: "es-ES"},
	"fr": {Code: "fr", Name: "France", Locale: "fr-FR"},
	"gb": {Code: "gb", Name: "United Kingdom", Locale: "en-GB"},
	"in": {Code: "in", Name: "India", Locale: "en-IN"},
	"it": {Code: "it", Name: "Italy", Locale: "it-IT"},
	"mx": {Code: "mx", Name: "Mexico", Locale: "es-MX"},
	"nl": {Code: "nl", Name: "Netherlands", Locale: "nl-NL"},
	"nz": {Code: "nz", Name: "New Zealand", Locale: "en-NZ"},
	"pl": {Code: "pl", Name: "Poland", Locale: "pl-PL"},
	"sg": {Code: "sg", Name: "Singapore", Locale: "en-SG"},
	"us": {Code: "us", Name: "United States", Locale: "en-US"},
	"za": {Code: "za", Name: "South Africa", Locale: "en-ZA"},
}

// LookupCountry returns the market for code (case-insensitive).
func LookupCountry(code string) (Country, bool) {
	c, ok := countries[strings.ToLower(strings.TrimSpace(code))]
	return c, ok
}

// AllCountryCodes returns every known market code, sorted.
func AllCountryCodes() []string {
	codes := make([]string, 0, len(countries))
	for code := range countries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
