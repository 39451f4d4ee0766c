// Package view holds the salary page's view state and the controller that
// mutates it in response to the four user operations: select country,
// select category, submit, and the implicit re-render on every change.
package view

import (
	"time"

	"jobmate/salary-service/internal/model"
)

// Status tracks one asynchronously loaded field.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusReady   Status = "ready"
)

// State is everything the presentation layer renders from.
type State struct {
	Country    string           `json:"country"`
	Categories []model.Category `json:"categories"`
	Category   string           `json:"category"`

	SalaryHistory *model.SalaryHistory `json:"salaryHistory,omitempty"`
	Search        *model.SearchResults `json:"search,omitempty"`

	// Category tags the datasets above were fetched for, and the tag of
	// the latest submit. Category may have moved on since.
	HistoryCategory   string `json:"historyCategory"`
	SearchCategory    string `json:"searchCategory"`
	SubmittedCategory string `json:"submittedCategory"`

	CategoriesStatus Status `json:"categoriesStatus"`
	HistoryStatus    Status `json:"historyStatus"`
	SearchStatus     Status `json:"searchStatus"`

	CategoriesErr string `json:"categoriesError,omitempty"`
	HistoryErr    string `json:"historyError,omitempty"`
	SearchErr     string `json:"searchError,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// NewState returns the state of a page nobody has interacted with yet.
func NewState() State {
	return State{
		Categories:       []model.Category{},
		CategoriesStatus: StatusIdle,
		HistoryStatus:    StatusIdle,
		SearchStatus:     StatusIdle,
	}
}

// Loading reports whether any field is still being fetched.
func (s State) Loading() bool {
	return s.CategoriesStatus == StatusLoading ||
		s.HistoryStatus == StatusLoading ||
		s.SearchStatus == StatusLoading
}

// CategoryLabel returns the display label of the selected category.
func (s State) CategoryLabel() string {
	return s.LabelFor(s.Category)
}

// LabelFor returns the display label of tag, or tag itself when it is not
// in the loaded categories.
func (s State) LabelFor(tag string) string {
	for _, c := range s.Categories {
		if c.Tag == tag {
			return c.Label
		}
	}
	return tag
}

// Settled reports whether either dataset finished its latest fetch.
func (s State) Settled() bool {
	done := func(st Status) bool { return st == StatusReady || st == StatusError }
	return done(s.HistoryStatus) || done(s.SearchStatus)
}

// Clone returns a deep copy; the controller hands out only clones.
func (s State) Clone() State {
	out := s
	out.Categories = append([]model.Category{}, s.Categories...)
	if s.SalaryHistory != nil {
		h := model.SalaryHistory{Month: make(map[string]float64, len(s.SalaryHistory.Month))}
		for k, v := range s.SalaryHistory.Month {
			h.Month[k] = v
		}
		out.SalaryHistory = &h
	}
	if s.Search != nil {
		r := *s.Search
		r.Results = append([]model.Job(nil), s.Search.Results...)
		out.Search = &r
	}
	return out
}

// settle turns statuses left at loading by an interrupted process back
// into idle; nothing is fetching for a restored state.
func (s *State) settle() {
	for _, st := range []*Status{&s.CategoriesStatus, &s.HistoryStatus, &s.SearchStatus} {
		if *st == StatusLoading || *st == "" {
			*st = StatusIdle
		}
	}
	if s.Categories == nil {
		s.Categories = []model.Category{}
	}
}
