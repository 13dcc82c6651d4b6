package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
	"gorm.io/datatypes"

	"fundtrack/internal/config"
	"fundtrack/internal/models"
	"fundtrack/internal/repository"
)

const (
	suggestionKindChat     = "chat"
	suggestionKindAnalysis = "analysis"
)

// ErrAdvisorDisabled is returned when no API key is configured.
var ErrAdvisorDisabled = errors.New("advisor disabled")

// TextGenerator is the slice of the Gemini client the advisor uses.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g *geminiGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no content generated")
	}
	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// AdvisorService answers free-form questions about the portfolio with a
// Gemini model and records every exchange for later review.
type AdvisorService struct {
	Generator TextGenerator
	Repo      repository.Repository
	Logger    *zap.Logger
	Model     string
}

// NewAdvisorService wires a Gemini-backed advisor from config. Returns nil
// when the advisor is disabled; callers treat a nil advisor as feature-off.
func NewAdvisorService(ctx context.Context, cfg config.AdvisorConfig, repo repository.Repository, logger *zap.Logger) (*AdvisorService, error) {
	if !cfg.Enabled || cfg.APIKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &AdvisorService{
		Generator: &geminiGenerator{client: client, model: cfg.Model},
		Repo:      repo,
		Logger:    logger,
		Model:     cfg.Model,
	}, nil
}

// Chat answers a free-form question, optionally grounded on a caller-supplied
// JSON context blob. The blob is passed through opaquely: it reaches the
// prompt and the suggestion store as-is.
func (s *AdvisorService) Chat(ctx context.Context, message string, contextBlob []byte) (string, error) {
	if s == nil || s.Generator == nil {
		return "", ErrAdvisorDisabled
	}
	prompt := chatPrompt(message, contextBlob)
	response, err := s.Generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}
	s.persist(ctx, suggestionKindChat, message, response, contextBlob)
	return response, nil
}

// AnalyzePortfolio produces a structured review of the given summary.
func (s *AdvisorService) AnalyzePortfolio(ctx context.Context, portfolio *models.PortfolioSummary, question string) (string, error) {
	if s == nil || s.Generator == nil {
		return "", ErrAdvisorDisabled
	}
	if portfolio == nil {
		return "", errors.New("portfolio summary required")
	}
	prompt := analysisPrompt(portfolio, question)
	response, err := s.Generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}
	blob, _ := json.Marshal(portfolio)
	s.persist(ctx, suggestionKindAnalysis, question, response, blob)
	return response, nil
}

// Suggestions returns the most recent stored exchanges, newest first.
func (s *AdvisorService) Suggestions(ctx context.Context, limit int) ([]models.AISuggestion, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	return s.Repo.ListAISuggestions(ctx, limit)
}

func (s *AdvisorService) persist(ctx context.Context, kind, question, response string, contextBlob []byte) {
	if s.Repo == nil {
		return
	}
	item := &models.AISuggestion{
		Kind:     kind,
		Question: question,
		Response: response,
		Model:    s.Model,
	}
	if len(contextBlob) > 0 {
		item.Context = datatypes.JSON(contextBlob)
	}
	if err := s.Repo.InsertAISuggestion(ctx, item); err != nil && s.Logger != nil {
		s.Logger.Warn("suggestion persist failed", zap.String("kind", kind), zap.Error(err))
	}
}

func chatPrompt(message string, contextBlob []byte) string {
	var sb strings.Builder
	sb.WriteString("You are a financial assistant for a Turkish mutual fund (TEFAS) portfolio. ")
	sb.WriteString("Answer in the language of the question. Be concise and factual; ")
	sb.WriteString("remind the user that this is not investment advice.\n\n")
	if len(contextBlob) > 0 {
		sb.WriteString("Context:\n")
		sb.Write(contextBlob)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Question: ")
	sb.WriteString(message)
	return sb.String()
}

func analysisPrompt(portfolio *models.PortfolioSummary, question string) string {
	var sb strings.Builder
	sb.WriteString(`Review the following TEFAS fund portfolio and provide:
1. A brief summary of overall performance
2. The strongest and weakest holdings
3. Concentration or diversification concerns
4. Points worth monitoring

`)
	writePortfolioContext(&sb, portfolio)
	if question != "" {
		sb.WriteString("Additional question: ")
		sb.WriteString(question)
		sb.WriteString("\n")
	}
	sb.WriteString("\nKeep the analysis concise. This is informational, not investment advice.")
	return sb.String()
}

func writePortfolioContext(sb *strings.Builder, portfolio *models.PortfolioSummary) {
	if portfolio == nil {
		return
	}
	fmt.Fprintf(sb, "Portfolio:\n- Total investment: %s TRY\n- Current value: %s TRY\n- Profit/loss: %s TRY (%.2f%%)\n",
		portfolio.TotalInvestment.StringFixed(2),
		portfolio.CurrentValue.StringFixed(2),
		portfolio.TotalProfitLoss.StringFixed(2),
		portfolio.ProfitLossPercent,
	)
	for _, fund := range portfolio.Funds {
		if fund.Status != models.StatusOK || fund.CurrentValue == nil || fund.ProfitLoss == nil {
			fmt.Fprintf(sb, "- %s (%s): price unavailable, invested %s TRY\n",
				fund.FundCode, fund.FundName, fund.InvestmentAmount.StringFixed(2))
			continue
		}
		fmt.Fprintf(sb, "- %s (%s): invested %s TRY, now %s TRY (%+.2f%%)\n",
			fund.FundCode, fund.FundName,
			fund.InvestmentAmount.StringFixed(2),
			fund.CurrentValue.StringFixed(2),
			fund.ProfitLossPercent,
		)
	}
	sb.WriteString("\n")
}
