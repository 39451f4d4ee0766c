package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"jobmate/salary-service/internal/charts"
	"jobmate/salary-service/internal/model"
	"jobmate/salary-service/internal/snapshot"
	"jobmate/salary-service/internal/view"
)

const (
	refreshSeconds = 2
	maxJobRows     = 10
	afterTimeout   = 5 * time.Second
)

type pageData struct {
	State          view.State
	Countries      []model.Country
	HistoryLabel   string
	SearchLabel    string
	Loading        bool
	RefreshSeconds int
	Flash          string

	History    section
	Comparison section
	Contracts  section
	Summary    *summary
	Jobs       []jobRow

	Version string
	Mode    string
}

// section is one chart slot: a status line plus the chart image or an
// empty-data note.
type section struct {
	Status      view.Status
	Err         string
	LoadingText string
	ImageURL    string
	Alt         string
	Empty       string
}

type summary struct {
	Mean  string
	Max   string
	Count string
}

type jobRow struct {
	Title    string
	Company  string
	Location string
	Salary   string
	URL      string
}

func (h *Handler) index(c *gin.Context) {
	_, ctrl := h.controller(c)
	st := ctrl.State()
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "page.html", h.buildPage(st, c.Query("error")))
}

func (h *Handler) buildPage(st view.State, flash string) pageData {
	money := h.formatter(st.Country)
	stamp := strconv.FormatInt(st.UpdatedAt.UnixNano(), 36)

	d := pageData{
		State:          st,
		Countries:      h.countries,
		Loading:        st.Loading(),
		RefreshSeconds: refreshSeconds,
		Flash:          flash,
		Version:        h.version,
		Mode:           string(h.mode),
		History: section{
			Status:      st.HistoryStatus,
			Err:         st.HistoryErr,
			LoadingText: "Loading salary history chart...",
			Alt:         "Average advertised salary per month",
		},
		Comparison: section{
			Status:      st.SearchStatus,
			Err:         st.SearchErr,
			LoadingText: "Loading chart ...",
			Alt:         "Mean salary compared with the maximum salary of the top listing",
		},
		Contracts: section{
			Status:      st.SearchStatus,
			Err:         st.SearchErr,
			LoadingText: "Loading chart ...",
			Alt:         "Listings per contract type",
		},
	}
	if st.SalaryHistory != nil && st.HistoryCategory != "" {
		d.HistoryLabel = st.LabelFor(st.HistoryCategory)
	}
	if st.Search != nil && st.SearchCategory != "" {
		d.SearchLabel = st.LabelFor(st.SearchCategory)
	}

	if st.SalaryHistory != nil {
		if _, err := charts.LineChartData(st.SalaryHistory); err == nil {
			d.History.ImageURL = "/charts/history.png?v=" + stamp
		} else {
			d.History.Empty = "No salary history reported for this selection."
		}
	}
	if st.Search != nil {
		if bars, err := charts.BarChartData(st.Search); err == nil {
			d.Contracts.ImageURL = "/charts/contracts.png?v=" + stamp
			d.Summary = &summary{
				Mean:  money(st.Search.Mean),
				Max:   money(st.Search.Results[0].SalaryMax),
				Count: money(float64(st.Search.Count)),
			}
			if charts.HasPositive(bars) {
				d.Comparison.ImageURL = "/charts/comparison.png?v=" + stamp
			} else {
				d.Comparison.Empty = "No salary figures reported for these listings."
			}
		} else {
			d.Comparison.Empty = "No listings found for this selection."
			d.Contracts.Empty = d.Comparison.Empty
		}
		for i, job := range st.Search.Results {
			if i == maxJobRows {
				break
			}
			d.Jobs = append(d.Jobs, jobRow{
				Title:    job.Title,
				Company:  job.Company.DisplayName,
				Location: job.Location.DisplayName,
				Salary:   salaryRange(money, job.SalaryMin, job.SalaryMax),
				URL:      safeURL(job.RedirectURL),
			})
		}
	}
	return d
}

func salaryRange(money func(float64) string, lo, hi float64) string {
	switch {
	case lo > 0 && hi > 0 && lo != hi:
		return money(lo) + " – " + money(hi)
	case hi > 0:
		return money(hi)
	case lo > 0:
		return money(lo)
	}
	return "n/a"
}

// safeURL keeps only absolute http(s) links from listing data.
func safeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}

// ─── Form posts (PRG) ────────────────────────────────────────────────────────

func (h *Handler) postCountry(c *gin.Context) {
	var req countryRequest
	if err := c.ShouldBind(&req); err != nil {
		redirectWithError(c, &ValidationError{Msg: "invalid form"})
		return
	}
	if err := validateStruct(req); err != nil {
		redirectWithError(c, err)
		return
	}

	id, ctrl := h.controller(c)
	if err := ctrl.SelectCountry(c.Request.Context(), req.Country); err != nil {
		redirectWithError(c, err)
		return
	}
	h.events.CountrySelected(c.Request.Context(), id, ctrl.State())
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) postCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBind(&req); err != nil {
		redirectWithError(c, &ValidationError{Msg: "invalid form"})
		return
	}
	if err := validateStruct(req); err != nil {
		redirectWithError(c, err)
		return
	}

	_, ctrl := h.controller(c)
	if err := ctrl.SelectCategory(req.Category); err != nil {
		redirectWithError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// postSearch starts both fetches and redirects immediately; the page polls
// via meta refresh until they settle.
func (h *Handler) postSearch(c *gin.Context) {
	id, ctrl := h.controller(c)

	// The search outlives this request.
	ctx, cancel := context.WithTimeout(context.Background(), h.searchTimeout)
	done, err := ctrl.Start(ctx)
	if err != nil {
		cancel()
		redirectWithError(c, err)
		return
	}

	h.bg.Add(1)
	go func() {
		defer h.bg.Done()
		defer cancel()
		<-done
		h.afterSearch(id, ctrl.State())
	}()
	c.Redirect(http.StatusSeeOther, "/")
}

// afterSearch announces a settled search and records it. Both are
// best-effort. A search superseded by a country change is dropped.
func (h *Handler) afterSearch(id string, st view.State) {
	if !st.Settled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), afterTimeout)
	defer cancel()

	h.events.SearchCompleted(ctx, id, st)
	if snap, ok := snapshot.FromState(id, st); ok {
		if err := h.snapshots.Record(ctx, snap); err != nil {
			slog.Warn("record salary snapshot failed", "session", id, "err", err)
		}
	}
}

func redirectWithError(c *gin.Context, err error) {
	c.Redirect(http.StatusSeeOther, "/?error="+url.QueryEscape(userMessage(err)))
}

// userMessage turns controller and validation errors into page text.
func userMessage(err error) string {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Msg
	case errors.Is(err, view.ErrNoCountry):
		return "Select a country first."
	case errors.Is(err, view.ErrUnknownCountry):
		return "That country is not available."
	case errors.Is(err, view.ErrUnknownCategory):
		return "That category is not offered for the selected country."
	}
	return fmt.Sprintf("Something went wrong: %v", err)
}
