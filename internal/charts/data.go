// Package charts reshapes Adzuna responses into chart-ready series and
// renders them with go-chart.
package charts

import (
	"errors"
	"strings"

	"jobmate/salary-service/internal/model"
)

// ErrNoResults is returned when a search response has no listings to
// compare against the mean.
var ErrNoResults = errors.New("search returned no results")

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to chart")

// Palette used by the comparison and contract charts.
const (
	ColorMean     = "#FF6384"
	ColorMax      = "#36A2EB"
	ColorTertiary = "#FFCE56"
	ColorLine     = "#4BC0C0"
)

// Dataset is one labelled series of a chart.
type Dataset struct {
	Label           string    `json:"label"`
	BackgroundColor []string  `json:"backgroundColor,omitempty"`
	BorderColor     string    `json:"borderColor,omitempty"`
	Data            []float64 `json:"data"`
}

// Data is the chart input: category labels plus datasets aligned to them.
type Data struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// BarChartData compares the mean salary with the maximum salary of the
// first listing in the search response.
func BarChartData(s *model.SearchResults) (Data, error) {
	if s == nil || len(s.Results) == 0 {
		return Data{}, ErrNoResults
	}
	return Data{
		Labels: []string{"Mean Salary", "Maximum Salary"},
		Datasets: []Dataset{{
			Label:           "Salary",
			BackgroundColor: []string{ColorMean, ColorMax},
			Data:            []float64{s.Mean, s.Results[0].SalaryMax},
		}},
	}, nil
}

// LineChartData turns a salary history into one series ordered by month.
func LineChartData(h *model.SalaryHistory) (Data, error) {
	if h == nil || len(h.Month) == 0 {
		return Data{}, ErrNoData
	}
	points := h.Points()
	labels := make([]string, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		labels[i] = p.Month
		values[i] = p.Salary
	}
	return Data{
		Labels: labels,
		Datasets: []Dataset{{
			Label:       "Average Salary",
			BorderColor: ColorLine,
			Data:        values,
		}},
	}, nil
}

// contractBuckets fixes the slice order of the contract mix chart.
var contractBuckets = []struct {
	key, label, color string
}{
	{"permanent", "Permanent", ColorMean},
	{"contract", "Contract", ColorMax},
	{"", "Unspecified", ColorTertiary},
}

// ContractMixData counts search listings per contract type. Empty buckets
// are left out.
func ContractMixData(s *model.SearchResults) (Data, error) {
	if s == nil || len(s.Results) == 0 {
		return Data{}, ErrNoResults
	}
	counts := make(map[string]float64)
	for _, job := range s.Results {
		key := strings.ToLower(strings.TrimSpace(job.ContractType))
		if key != "permanent" && key != "contract" {
			key = ""
		}
		counts[key]++
	}

	out := Data{Datasets: []Dataset{{Label: "Listings"}}}
	for _, b := range contractBuckets {
		n := counts[b.key]
		if n == 0 {
			continue
		}
		out.Labels = append(out.Labels, b.label)
		out.Datasets[0].Data = append(out.Datasets[0].Data, n)
		out.Datasets[0].BackgroundColor = append(out.Datasets[0].BackgroundColor, b.color)
	}
	return out, nil
}

// HasPositive reports whether the first dataset holds a value above zero.
// Bar and pie charts have nothing to draw otherwise.
func HasPositive(d Data) bool {
	if len(d.Datasets) == 0 {
		return false
	}
	for _, v := range d.Datasets[0].Data {
		if v > 0 {
			return true
		}
	}
	return false
}
