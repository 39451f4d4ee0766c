// Package web is the presentation layer: a gin router serving the salary
// page, its chart images, a JSON API over the same view controller, and the
// cached fixture responses used in dev mode.
//
// Routes:
//
//	GET  /                          → salary page
//	POST /country                   → select country, redirect to /
//	POST /category                  → select category, redirect to /
//	POST /search                    → start fetches in background, redirect to /
//	GET  /charts/history.png        → salary history line chart
//	GET  /charts/comparison.png     → mean vs maximum bar chart
//	GET  /charts/contracts.png      → contract type pie chart
//	GET  /api/state                 → view state as JSON
//	POST /api/country               → select country (blocking)
//	POST /api/category              → select category
//	POST /api/search                → fetch both datasets (blocking)
//	GET  /api/charts/{name}         → chart data as JSON
//	GET  /api/snapshots             → recent completed searches
//	GET  /cached_responses/*        → dev fixtures
//	GET  /health                    → liveness
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"jobmate/salary-service/internal/adzuna"
	"jobmate/salary-service/internal/charts"
	"jobmate/salary-service/internal/events"
	"jobmate/salary-service/internal/model"
	"jobmate/salary-service/internal/session"
	"jobmate/salary-service/internal/snapshot"
)

//go:embed templates/page.html
var templateFS embed.FS

//go:embed fixtures/cached_responses/*.json
var fixtureFS embed.FS

// Fixtures returns the dev-mode response files, rooted so that
// "job_categories.json" etc. sit at the top level.
func Fixtures() fs.FS {
	sub, err := fs.Sub(fixtureFS, "fixtures/cached_responses")
	if err != nil {
		panic(err)
	}
	return sub
}

const defaultSearchTimeout = 45 * time.Second

// Deps are the collaborators of the presentation layer.
type Deps struct {
	Sessions      *session.Registry
	Tokens        *session.TokenService
	Events        events.Publisher
	Snapshots     snapshot.Recorder
	Countries     []string
	Mode          adzuna.Mode
	SearchTimeout time.Duration
	Version       string
}

// Handler serves every route of the service.
type Handler struct {
	sessions      *session.Registry
	tokens        *session.TokenService
	events        events.Publisher
	snapshots     snapshot.Recorder
	countries     []model.Country
	money         map[string]func(float64) string
	mode          adzuna.Mode
	searchTimeout time.Duration
	version       string
	page          *template.Template

	bg sync.WaitGroup // background searches started by POST /search
}

// NewHandler parses the page template and prepares per-country formatters.
func NewHandler(d Deps) (*Handler, error) {
	if d.Sessions == nil || d.Tokens == nil {
		return nil, fmt.Errorf("web: sessions and tokens are required")
	}
	page, err := template.New("page.html").ParseFS(templateFS, "templates/page.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}

	h := &Handler{
		sessions:      d.Sessions,
		tokens:        d.Tokens,
		events:        d.Events,
		snapshots:     d.Snapshots,
		money:         make(map[string]func(float64) string),
		mode:          d.Mode,
		searchTimeout: d.SearchTimeout,
		version:       d.Version,
		page:          page,
	}
	if h.events == nil {
		h.events = events.Nop{}
	}
	if h.snapshots == nil {
		h.snapshots = snapshot.Nop{}
	}
	if h.searchTimeout <= 0 {
		h.searchTimeout = defaultSearchTimeout
	}
	for _, code := range d.Countries {
		c, ok := model.LookupCountry(code)
		if !ok {
			return nil, fmt.Errorf("web: unknown country %q", code)
		}
		h.countries = append(h.countries, c)
		h.money[c.Code] = charts.MoneyFormatter(c.Locale)
	}
	sort.Slice(h.countries, func(i, j int) bool { return h.countries[i].Name < h.countries[j].Name })
	return h, nil
}

// Router builds the gin engine.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.SetHTMLTemplate(h.page)

	r.GET("/health", h.health)
	r.StaticFS("/cached_responses", http.FS(Fixtures()))

	s := r.Group("/", h.withSession())
	s.GET("/", h.index)
	s.POST("/country", h.postCountry)
	s.POST("/category", h.postCategory)
	s.POST("/search", h.postSearch)

	s.GET("/charts/history.png", h.historyPNG)
	s.GET("/charts/comparison.png", h.comparisonPNG)
	s.GET("/charts/contracts.png", h.contractsPNG)

	api := s.Group("/api")
	api.GET("/state", h.apiState)
	api.POST("/country", h.apiCountry)
	api.POST("/category", h.apiCategory)
	api.POST("/search", h.apiSearch)
	api.GET("/charts/:name", h.apiChart)
	api.GET("/snapshots", h.apiSnapshots)
	return r
}

// Wait blocks until background searches started by form posts finish.
func (h *Handler) Wait() {
	h.bg.Wait()
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"service":  "salary-service",
		"version":  h.version,
		"mode":     h.mode,
		"sessions": h.sessions.Len(),
	})
}

func (h *Handler) formatter(country string) func(float64) string {
	if f, ok := h.money[country]; ok {
		return f
	}
	return charts.MoneyFormatter("en")
}
