package parsererror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ParseError
		expected string
	}{
		{
			name: "amount",
			err: &ParseError{
				Source: "transactions.csv:4",
				Field:  "amount",
				Value:  "abc",
				Err:    errors.New("invalid decimal"),
			},
			expected: "transactions.csv:4: failed to parse amount='abc': invalid decimal",
		},
		{
			name: "empty date",
			err: &ParseError{
				Source: "transactions.csv:9",
				Field:  "date",
				Value:  "",
				Err:    errors.New("empty date"),
			},
			expected: "transactions.csv:9: failed to parse date='': empty date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestParseError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	parseErr := &ParseError{Source: "csv", Field: "amount", Value: "x", Err: originalErr}

	assert.Equal(t, originalErr, parseErr.Unwrap())
	assert.True(t, errors.Is(parseErr, originalErr))
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{FilePath: "database/rules.yaml", Reason: "rule 3 has an empty pattern"}
	assert.Equal(t, "validation failed for database/rules.yaml: rule 3 has an empty pattern", err.Error())
}

func TestCategorizationError(t *testing.T) {
	err := &CategorizationError{
		Transaction: "SALARY ACME",
		Code:        "EXP-016",
		Source:      "rule_db",
		Err:         ErrDirectionViolation,
	}

	assert.Equal(t,
		"categorization failed for SALARY ACME (EXP-016 via rule_db): category direction does not match amount sign",
		err.Error())
	assert.True(t, errors.Is(err, ErrDirectionViolation))

	wrapped := fmt.Errorf("batch row 7: %w", err)
	var catErr *CategorizationError
	assert.True(t, errors.As(wrapped, &catErr))
	assert.Equal(t, "rule_db", catErr.Source)
}

func TestInvalidFormatError(t *testing.T) {
	err := &InvalidFormatError{
		FilePath:       "in.csv",
		ExpectedFormat: "date,description,amount",
		Msg:            "missing column amount",
	}
	assert.Equal(t, "invalid format in file 'in.csv': missing column amount. Expected: date,description,amount", err.Error())
}
