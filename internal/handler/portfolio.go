package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fundtrack/internal/client/tefas"
	"fundtrack/internal/models"
	"fundtrack/internal/service"
)

type PortfolioHandler struct {
	Portfolio *service.PortfolioService
	History   *service.HistoryService
	Snapshots *service.SnapshotService
}

func (h *PortfolioHandler) Register(r *gin.Engine) {
	g := r.Group("/api/portfolio")
	g.POST("/calculate", h.calculate)
	g.GET("/history", h.history)
	g.POST("/backfill", h.backfill)
}

type calculateRequest struct {
	Positions []models.Position `json:"positions" binding:"required,min=1,dive"`
}

func (h *PortfolioHandler) calculate(c *gin.Context) {
	if h.Portfolio == nil {
		Error(c, http.StatusInternalServerError, "portfolio service unavailable", nil)
		return
	}
	var req calculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	summary, err := h.Portfolio.Calculate(c.Request.Context(), req.Positions)
	if err != nil {
		var parseErr *tefas.ParseError
		if errors.As(err, &parseErr) {
			Error(c, http.StatusBadGateway, err.Error(), nil)
			return
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, summary, map[string]any{"funds": len(summary.Funds)})
}

func (h *PortfolioHandler) history(c *gin.Context) {
	if h.History == nil {
		Error(c, http.StatusInternalServerError, "history service unavailable", nil)
		return
	}
	rng, err := service.ParseRange(c.Query("range"))
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	out, err := h.History.PortfolioHistory(c.Request.Context(), rng, c.Query("fund_code"))
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, out, map[string]any{"points": len(out.Points)})
}

type backfillRequest struct {
	FundCode string `json:"fund_code"`
	From     string `json:"from"`
	To       string `json:"to"`
}

func (h *PortfolioHandler) backfill(c *gin.Context) {
	if h.Snapshots == nil {
		Error(c, http.StatusInternalServerError, "snapshot service unavailable", nil)
		return
	}
	var req backfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.FundCode))
	if code == "" {
		code = models.TotalFundCode
	}
	from, err := parseBackfillDate(req.From)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid from, expected YYYY-MM-DD", nil)
		return
	}
	to, err := parseBackfillDate(req.To)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid to, expected YYYY-MM-DD", nil)
		return
	}
	committed, err := h.Snapshots.Backfill(c.Request.Context(), code, from, to)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, committed, map[string]any{"committed": len(committed)})
}

func parseBackfillDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateQueryLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
