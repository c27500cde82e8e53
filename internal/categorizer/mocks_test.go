package categorizer

import (
	"context"
	"sync"

	"fjacquet/cascade-categorizer/internal/external"
	"fjacquet/cascade-categorizer/internal/models"
	"fjacquet/cascade-categorizer/internal/rules"

	"github.com/shopspring/decimal"
)

type mockDetector struct {
	mu           sync.Mutex
	analyzeCalls int
	analyzeErr   error
	internalFunc func(description string, amount decimal.Decimal, hint, thirdParty string) bool
}

func (m *mockDetector) Analyze(_ []models.Transaction, _ ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyzeCalls++
	return m.analyzeErr
}

func (m *mockDetector) IsInternal(description string, amount decimal.Decimal, hint, thirdParty string) bool {
	if m.internalFunc != nil {
		return m.internalFunc(description, amount, hint, thirdParty)
	}
	return false
}

type mockRules struct {
	matchFunc func(key string) (rules.Match, bool)
}

func (m *mockRules) Match(key string) (rules.Match, bool) {
	if m.matchFunc != nil {
		return m.matchFunc(key)
	}
	return rules.Match{}, false
}

func fixedRule(code string, confidence float64) *mockRules {
	return &mockRules{matchFunc: func(string) (rules.Match, bool) {
		return rules.Match{Code: code, Confidence: confidence, Reason: "test rule", Keyword: "test"}, true
	}}
}

type addCall struct {
	Raw        string
	Category   string
	Confidence float64
	Source     string
}

type mockCache struct {
	mu         sync.Mutex
	lookupFunc func(raw string) (models.LearnedPattern, bool)
	similar    []models.SimilarPattern
	adds       []addCall
	saveCalls  int
}

func (m *mockCache) Lookup(raw string) (models.LearnedPattern, bool) {
	if m.lookupFunc != nil {
		return m.lookupFunc(raw)
	}
	return models.LearnedPattern{}, false
}

func (m *mockCache) Add(raw, category string, confidence float64, source string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adds = append(m.adds, addCall{raw, category, confidence, source})
	return true, nil
}

func (m *mockCache) Similar(string, int) []models.SimilarPattern {
	return m.similar
}

func (m *mockCache) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	return nil
}

func (m *mockCache) addCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.adds)
}

type mockPredictor struct {
	mu          sync.Mutex
	calls       int
	requests    []external.Request
	predictFunc func(req external.Request) external.Prediction
}

func (m *mockPredictor) Predict(_ context.Context, req external.Request) external.Prediction {
	m.mu.Lock()
	m.calls++
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.predictFunc != nil {
		return m.predictFunc(req)
	}
	return external.Prediction{
		Code:       models.SentinelFor(req.Amount.Sign()),
		Confidence: external.FailureConfidence,
		Reasoning:  "no answer",
	}
}

func (m *mockPredictor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func answer(code string, confidence float64) *mockPredictor {
	return &mockPredictor{predictFunc: func(external.Request) external.Prediction {
		return external.Prediction{Code: code, Confidence: confidence, Reasoning: "mock answer"}
	}}
}
