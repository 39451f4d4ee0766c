package web

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobmate/salary-service/internal/charts"
	"jobmate/salary-service/internal/view"
)

// ─── JSON API ────────────────────────────────────────────────────────────────

func (h *Handler) apiState(c *gin.Context) {
	_, ctrl := h.controller(c)
	c.JSON(http.StatusOK, ctrl.State())
}

func (h *Handler) apiCountry(c *gin.Context) {
	var req countryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, &ValidationError{Msg: "invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		jsonError(c, err)
		return
	}

	id, ctrl := h.controller(c)
	if err := ctrl.SelectCountry(c.Request.Context(), req.Country); err != nil {
		jsonError(c, err)
		return
	}
	st := ctrl.State()
	h.events.CountrySelected(c.Request.Context(), id, st)
	c.JSON(http.StatusOK, st)
}

func (h *Handler) apiCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, &ValidationError{Msg: "invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		jsonError(c, err)
		return
	}

	_, ctrl := h.controller(c)
	if err := ctrl.SelectCategory(req.Category); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}

// apiSearch blocks until both datasets settle. Fetch failures are reported
// through the per-field statuses, not the HTTP status.
func (h *Handler) apiSearch(c *gin.Context) {
	id, ctrl := h.controller(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.searchTimeout)
	defer cancel()

	if err := ctrl.Submit(ctx); err != nil {
		jsonError(c, err)
		return
	}
	st := ctrl.State()
	h.afterSearch(id, st)
	c.JSON(http.StatusOK, st)
}

func (h *Handler) apiChart(c *gin.Context) {
	_, ctrl := h.controller(c)
	st := ctrl.State()

	var (
		d   charts.Data
		err error
	)
	switch c.Param("name") {
	case "history":
		d, err = charts.LineChartData(st.SalaryHistory)
	case "comparison":
		d, err = charts.BarChartData(st.Search)
	case "contracts":
		d, err = charts.ContractMixData(st.Search)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown chart"})
		return
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) apiSnapshots(c *gin.Context) {
	var q snapshotsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		jsonError(c, &ValidationError{Msg: "limit must be a number"})
		return
	}
	if err := validateStruct(q); err != nil {
		jsonError(c, err)
		return
	}

	snaps, err := h.snapshots.Recent(c.Request.Context(), q.Limit)
	if err != nil {
		slog.Error("list salary snapshots", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshots unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snaps})
}

// ─── Chart images ────────────────────────────────────────────────────────────

func (h *Handler) historyPNG(c *gin.Context) {
	_, ctrl := h.controller(c)
	st := ctrl.State()
	d, err := charts.LineChartData(st.SalaryHistory)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	title := "Average salary"
	if st.HistoryCategory != "" {
		title += ": " + st.LabelFor(st.HistoryCategory)
	}
	h.png(c, func(buf *bytes.Buffer) error {
		return charts.RenderLine(buf, d, charts.Options{Title: title, Money: h.formatter(st.Country)})
	})
}

func (h *Handler) comparisonPNG(c *gin.Context) {
	_, ctrl := h.controller(c)
	st := ctrl.State()
	d, err := charts.BarChartData(st.Search)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	h.png(c, func(buf *bytes.Buffer) error {
		return charts.RenderBar(buf, d, charts.Options{Title: "Salary", Money: h.formatter(st.Country)})
	})
}

func (h *Handler) contractsPNG(c *gin.Context) {
	_, ctrl := h.controller(c)
	st := ctrl.State()
	d, err := charts.ContractMixData(st.Search)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	h.png(c, func(buf *bytes.Buffer) error {
		return charts.RenderPie(buf, d, charts.Options{Width: 400, Height: 400})
	})
}

func (h *Handler) png(c *gin.Context, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		if errors.Is(err, charts.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		slog.Error("render chart", "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "chart rendering failed"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// jsonError maps input errors to 400 and anything else to 500.
func jsonError(c *gin.Context, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Msg})
	case errors.Is(err, view.ErrNoCountry),
		errors.Is(err, view.ErrUnknownCountry),
		errors.Is(err, view.ErrUnknownCategory):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error("request failed", "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
