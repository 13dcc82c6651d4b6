package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fundtrack/internal/models"
)

type fakeGenerator struct {
	response string
	err      error
	prompt   string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func TestChat_PersistsSuggestion(t *testing.T) {
	repo := newStubRepo()
	gen := &fakeGenerator{response: "hold steady"}
	svc := &AdvisorService{Generator: gen, Repo: repo, Model: "test-model"}

	out, err := svc.Chat(context.Background(), "should I rebalance?", nil)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if out != "hold steady" {
		t.Fatalf("out=%q", out)
	}
	if len(repo.suggestions) != 1 {
		t.Fatalf("suggestions=%d want 1", len(repo.suggestions))
	}
	s := repo.suggestions[0]
	if s.Kind != suggestionKindChat || s.Question != "should I rebalance?" || s.Model != "test-model" {
		t.Fatalf("stored=%+v", s)
	}
	if !strings.Contains(gen.prompt, "should I rebalance?") {
		t.Fatalf("prompt=%q", gen.prompt)
	}
}

func TestChat_ContextBlobPassedThrough(t *testing.T) {
	repo := newStubRepo()
	gen := &fakeGenerator{response: "noted"}
	svc := &AdvisorService{Generator: gen, Repo: repo}

	blob := []byte(`{"total_value":"5250","funds":["TQE"]}`)
	if _, err := svc.Chat(context.Background(), "how am I doing?", blob); err != nil {
		t.Fatalf("err=%v", err)
	}
	if !strings.Contains(gen.prompt, `{"total_value":"5250","funds":["TQE"]}`) {
		t.Fatalf("prompt missing context blob: %q", gen.prompt)
	}
	if len(repo.suggestions) != 1 {
		t.Fatalf("suggestions=%d want 1", len(repo.suggestions))
	}
	if string(repo.suggestions[0].Context) != string(blob) {
		t.Fatalf("stored context=%q", repo.suggestions[0].Context)
	}
}

func TestAnalyzePortfolio_IncludesHoldings(t *testing.T) {
	repo := newStubRepo()
	gen := &fakeGenerator{response: "looks balanced"}
	svc := &AdvisorService{Generator: gen, Repo: repo}

	positions := []models.Position{
		{FundCode: "TQE", FundName: "Test Fund", InvestmentAmount: dec("1000"), PurchasePrice: dec("1")},
		{FundCode: "GAP", InvestmentAmount: dec("500"), PurchasePrice: dec("1")},
	}
	results := EvaluatePortfolio(positions, fixedLookup(map[string]*models.FundPrice{
		"TQE": {FundCode: "TQE", FundName: "Test Fund", Price: dec("1.2")},
	}))
	summary := SummaryFromResults(results)

	if _, err := svc.AnalyzePortfolio(context.Background(), &summary, "any risks?"); err != nil {
		t.Fatalf("err=%v", err)
	}
	if !strings.Contains(gen.prompt, "TQE") {
		t.Fatalf("prompt missing holding: %q", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "price unavailable") {
		t.Fatalf("prompt missing degraded row: %q", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "any risks?") {
		t.Fatalf("prompt missing question: %q", gen.prompt)
	}
	if len(repo.suggestions) != 1 || repo.suggestions[0].Kind != suggestionKindAnalysis {
		t.Fatalf("suggestions=%+v", repo.suggestions)
	}
	if len(repo.suggestions[0].Context) == 0 {
		t.Fatalf("context blob not stored")
	}
}

func TestAnalyzePortfolio_RequiresSummary(t *testing.T) {
	svc := &AdvisorService{Generator: &fakeGenerator{}}
	if _, err := svc.AnalyzePortfolio(context.Background(), nil, ""); err == nil {
		t.Fatalf("expected error")
	}
}

func TestAdvisor_DisabledWhenNil(t *testing.T) {
	var svc *AdvisorService
	if _, err := svc.Chat(context.Background(), "hi", nil); !errors.Is(err, ErrAdvisorDisabled) {
		t.Fatalf("err=%v want ErrAdvisorDisabled", err)
	}
}

func TestAdvisor_GeneratorErrorNotPersisted(t *testing.T) {
	repo := newStubRepo()
	svc := &AdvisorService{Generator: &fakeGenerator{err: errors.New("quota")}, Repo: repo}
	if _, err := svc.Chat(context.Background(), "hi", nil); err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.suggestions) != 0 {
		t.Fatalf("suggestion stored on failure")
	}
}
