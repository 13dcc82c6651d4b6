package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fundtrack/internal/models"
	"fundtrack/internal/service"
)

type AdviceHandler struct {
	Advisor   *service.AdvisorService
	Portfolio *service.PortfolioService
}

func (h *AdviceHandler) Register(r *gin.Engine) {
	g := r.Group("/api/ai")
	g.POST("/chat", h.chat)
	g.POST("/analyze-portfolio", h.analyze)
	g.GET("/suggestions", h.suggestions)
}

type chatRequest struct {
	Message   string            `json:"message" binding:"required"`
	Context   json.RawMessage   `json:"context"`
	Positions []models.Position `json:"positions"`
}

func (h *AdviceHandler) chat(c *gin.Context) {
	if h.Advisor == nil {
		Error(c, http.StatusServiceUnavailable, "advisor disabled", nil)
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	// The caller's context blob is forwarded untouched. Only when it is
	// absent do we fall back to valuing the optional positions.
	blob := []byte(req.Context)
	if len(blob) == 0 {
		if summary := h.summarize(c, req.Positions); summary != nil {
			blob, _ = json.Marshal(summary)
		}
	}
	response, err := h.Advisor.Chat(c.Request.Context(), strings.TrimSpace(req.Message), blob)
	if err != nil {
		if errors.Is(err, service.ErrAdvisorDisabled) {
			Error(c, http.StatusServiceUnavailable, "advisor disabled", nil)
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"response": response}, nil)
}

type analyzeRequest struct {
	Positions []models.Position `json:"positions" binding:"required,min=1,dive"`
	Question  string            `json:"question"`
}

func (h *AdviceHandler) analyze(c *gin.Context) {
	if h.Advisor == nil || h.Portfolio == nil {
		Error(c, http.StatusServiceUnavailable, "advisor disabled", nil)
		return
	}
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	summary, err := h.Portfolio.Calculate(c.Request.Context(), req.Positions)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	response, err := h.Advisor.AnalyzePortfolio(c.Request.Context(), summary, strings.TrimSpace(req.Question))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"response": response, "portfolio": summary}, nil)
}

func (h *AdviceHandler) suggestions(c *gin.Context) {
	if h.Advisor == nil {
		Error(c, http.StatusServiceUnavailable, "advisor disabled", nil)
		return
	}
	limit := intQuery(c, "limit", 20)
	items, err := h.Advisor.Suggestions(c.Request.Context(), limit)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

// summarize values the optional positions for chat context. Failures are
// swallowed; chat still works without portfolio grounding.
func (h *AdviceHandler) summarize(c *gin.Context, positions []models.Position) *models.PortfolioSummary {
	if h.Portfolio == nil || len(positions) == 0 {
		return nil
	}
	summary, err := h.Portfolio.Calculate(c.Request.Context(), positions)
	if err != nil {
		return nil
	}
	return summary
}
