package logging

// Field names used across the cascade so that log output can be filtered
// consistently.
const (
	FieldFile        = "file_path"
	FieldInputFile   = "input_file"
	FieldOutputFile  = "output_file"
	FieldCount       = "count"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldDuration    = "duration_ms"
	FieldRunID       = "run_id"
	FieldDescription = "description"
	FieldMerchantKey = "merchant_key"
	FieldTxType      = "transaction_type"
	FieldAmount      = "amount"
	FieldHint        = "hint_category"
	FieldCategory    = "category"
	FieldConfidence  = "confidence"
	FieldSource      = "source"
	FieldTier        = "tier"
	FieldReason      = "reason"
	FieldBackend     = "backend"
	FieldAccount     = "account"
)
