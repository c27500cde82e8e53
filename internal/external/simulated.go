package external

import (
	"context"
	"encoding/json"
	"strings"

	"fjacquet/cascade-categorizer/internal/models"
)

// SimulatedName is the Name of SimulatedBackend.
const SimulatedName = "simulated"

type simulatedRule struct {
	words      []string
	code       string
	confidence float64
	reasoning  string
}

var simulatedRules = []simulatedRule{
	{[]string{"kfc", "mcdonalds", "hungry", "subway"}, "EXP-008", 0.96, "Test mode: Fast food detected"},
	{[]string{"woolworths", "coles", "aldi"}, "EXP-016", 0.97, "Test mode: Supermarket detected"},
	{[]string{"energy", "electricity", "gas"}, "EXP-040", 0.95, "Test mode: Utility detected"},
	{[]string{"salary", "pay/"}, "INC-009", 0.98, "Test mode: Salary detected"},
}

// SimulatedBackend answers from keyword heuristics without network access.
// It returns the same JSON shape as a real service.
type SimulatedBackend struct{}

// NewSimulatedBackend creates an offline backend.
func NewSimulatedBackend() *SimulatedBackend {
	return &SimulatedBackend{}
}

func (s *SimulatedBackend) Name() string   { return SimulatedName }
func (s *SimulatedBackend) Billable() bool { return false }

// Complete ignores the prompt and inspects the request description.
func (s *SimulatedBackend) Complete(ctx context.Context, _ string, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	desc := strings.ToLower(req.Description)
	resp := map[string]interface{}{
		"category":   models.SentinelFor(req.Amount.Sign()),
		"confidence": 0.5,
		"reasoning":  "Test mode: No pattern match",
	}
	for _, r := range simulatedRules {
		if containsAny(desc, r.words) {
			resp["category"] = r.code
			resp["confidence"] = r.confidence
			resp["reasoning"] = r.reasoning
			break
		}
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
