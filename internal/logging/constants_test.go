package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldConstants(t *testing.T) {
	assert.Equal(t, "file_path", FieldFile)
	assert.Equal(t, "count", FieldCount)
	assert.Equal(t, "category", FieldCategory)
	assert.Equal(t, "source", FieldSource)
	assert.Equal(t, "merchant_key", FieldMerchantKey)
	assert.Equal(t, "run_id", FieldRunID)

	names := []string{
		FieldFile, FieldInputFile, FieldOutputFile, FieldCount, FieldError,
		FieldOperation, FieldDuration, FieldRunID, FieldDescription,
		FieldMerchantKey, FieldTxType, FieldAmount, FieldHint, FieldCategory,
		FieldConfidence, FieldSource, FieldTier, FieldReason, FieldBackend,
		FieldAccount,
	}
	seen := make(map[string]bool)
	for _, n := range names {
		assert.NotEmpty(t, n)
		assert.False(t, seen[n], "duplicate field name %q", n)
		seen[n] = true
	}
}
