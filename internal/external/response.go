package external

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"fjacquet/cascade-categorizer/internal/models"
	"fjacquet/cascade-categorizer/internal/parsererror"
)

// FailureConfidence is attached to sentinel predictions produced on errors.
const FailureConfidence = 0.3

const noReasoning = "No reasoning provided"

type wireResponse struct {
	Category   string          `json:"category"`
	Confidence json.RawMessage `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
}

// ParseResponse turns backend text into a Prediction. It never fails: any
// problem yields the sentinel for amountSign with the cause in Reasoning.
func ParseResponse(text string, amountSign int) Prediction {
	p, err := parseResponse(text)
	if err != nil {
		return failure(amountSign, "Parse error", err)
	}
	return p
}

func parseResponse(text string) (Prediction, error) {
	body := extractJSON(stripFences(text))
	if body == "" {
		return Prediction{}, parseErr("body", text, errors.New("no JSON object found"))
	}

	var wire wireResponse
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return Prediction{}, parseErr("body", body, err)
	}

	code := strings.ToUpper(strings.TrimSpace(wire.Category))
	if code == "" {
		return Prediction{}, parseErr("category", body, errors.New("missing required field"))
	}
	if len(wire.Confidence) == 0 {
		return Prediction{}, parseErr("confidence", body, errors.New("missing required field"))
	}
	confidence, err := parseConfidence(wire.Confidence)
	if err != nil {
		return Prediction{}, parseErr("confidence", string(wire.Confidence), err)
	}

	reasoning := strings.TrimSpace(wire.Reasoning)
	if reasoning == "" {
		reasoning = noReasoning
	}
	return Prediction{Code: code, Confidence: confidence, Reasoning: reasoning}, nil
}

func parseConfidence(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("not a number")
		}
		if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0, fmt.Errorf("not a number")
		}
	}
	if f < 0 || f > 1 {
		return 0, fmt.Errorf("%.2f outside [0,1]", f)
	}
	return f, nil
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// maxErrorValue caps the raw text kept in a ParseError, in bytes.
const maxErrorValue = 200

func parseErr(field, value string, err error) error {
	if len(value) > maxErrorValue {
		cut := maxErrorValue
		for cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		value = value[:cut]
	}
	return &parsererror.ParseError{Source: "external response", Field: field, Value: value, Err: err}
}

func failure(amountSign int, kind string, err error) Prediction {
	return Prediction{
		Code:       models.SentinelFor(amountSign),
		Confidence: FailureConfidence,
		Reasoning:  fmt.Sprintf("%s: %v", kind, err),
	}
}
