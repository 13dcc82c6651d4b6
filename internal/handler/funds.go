package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fundtrack/internal/client/tefas"
	"fundtrack/internal/service"
)

type FundsHandler struct {
	Client   *tefas.Client
	Resolver *service.PriceResolver
}

func (h *FundsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/funds")
	g.GET("/price/:code", h.price)
	g.GET("/history/:code", h.history)
	g.GET("/search", h.search)
}

func (h *FundsHandler) price(c *gin.Context) {
	if h.Resolver == nil {
		Error(c, http.StatusInternalServerError, "resolver unavailable", nil)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	if code == "" {
		Error(c, http.StatusBadRequest, "fund code required", nil)
		return
	}
	date, ok := dateQuery(c, "date")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", nil)
		return
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}
	fp, err := h.Resolver.Resolve(c.Request.Context(), code, date, intQuery(c, "lookback", 0))
	if err != nil {
		status, msg := fundErrorStatus(err)
		Error(c, status, msg, nil)
		return
	}
	Ok(c, fp, nil)
}

func (h *FundsHandler) history(c *gin.Context) {
	if h.Client == nil {
		Error(c, http.StatusInternalServerError, "client unavailable", nil)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	if code == "" {
		Error(c, http.StatusBadRequest, "fund code required", nil)
		return
	}
	days := intQuery(c, "days", 30)
	if days < 1 {
		days = 1
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)
	prices, err := h.Client.FetchHistory(c.Request.Context(), code, start, end)
	if err != nil {
		status, msg := fundErrorStatus(err)
		Error(c, status, msg, nil)
		return
	}
	Ok(c, prices, map[string]any{"days": days, "count": len(prices)})
}

func (h *FundsHandler) search(c *gin.Context) {
	if h.Client == nil {
		Error(c, http.StatusInternalServerError, "client unavailable", nil)
		return
	}
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		Error(c, http.StatusBadRequest, "query required", nil)
		return
	}
	limit := intQuery(c, "limit", 20)
	funds, err := h.Client.SearchFunds(c.Request.Context(), query, limit)
	if err != nil {
		if errors.Is(err, tefas.ErrNotFound) {
			Ok(c, []any{}, nil)
			return
		}
		status, msg := fundErrorStatus(err)
		Error(c, status, msg, nil)
		return
	}
	Ok(c, funds, map[string]any{"count": len(funds)})
}

// fundErrorStatus maps the fetcher's error taxonomy onto HTTP statuses:
// missing data is 404, upstream trouble is 502, anything else is 500.
func fundErrorStatus(err error) (int, string) {
	var parseErr *tefas.ParseError
	var srcErr *tefas.SourceError
	switch {
	case errors.Is(err, tefas.ErrNotFound):
		return http.StatusNotFound, "no price data for fund"
	case errors.As(err, &parseErr):
		return http.StatusBadGateway, err.Error()
	case errors.As(err, &srcErr):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
