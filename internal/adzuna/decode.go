package adzuna

import (
	"encoding/json"
	"fmt"

	"jobmate/salary-service/internal/model"
)

// DecodeCategories reads the "results" array of a categories response.
func DecodeCategories(data json.RawMessage) ([]model.Category, error) {
	var list model.CategoryList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	out := make([]model.Category, 0, len(list.Results))
	for _, c := range list.Results {
		if c.Tag == "" {
			continue
		}
		if c.Label == "" {
			c.Label = c.Tag
		}
		out = append(out, c)
	}
	return out, nil
}

// DecodeSalaryHistory reads a salary-history response.
func DecodeSalaryHistory(data json.RawMessage) (*model.SalaryHistory, error) {
	var h model.SalaryHistory
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("decode salary history: %w", err)
	}
	if h.Month == nil {
		h.Month = map[string]float64{}
	}
	return &h, nil
}

// DecodeSearch reads a job search response.
func DecodeSearch(data json.RawMessage) (*model.SearchResults, error) {
	var s model.SearchResults
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	return &s, nil
}
