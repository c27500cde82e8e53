package models

// HintMapping maps an upstream hint label to a taxonomy code.
type HintMapping struct {
	Hint       string  `yaml:"hint" json:"hint"`
	Code       string  `yaml:"code" json:"code"`
	Confidence float64 `yaml:"confidence,omitempty" json:"confidence,omitempty"`
}

// HintTable is the static hint collaborator. Vague hints are known but not
// trusted for direct mapping; ignored hints never map at all.
type HintTable struct {
	Mappings []HintMapping `yaml:"mappings" json:"mappings"`
	Vague    []string      `yaml:"vague,omitempty" json:"vague,omitempty"`
	Ignored  []string      `yaml:"ignored,omitempty" json:"ignored,omitempty"`
}

// IsEmpty reports whether the table carries no mappings.
func (h HintTable) IsEmpty() bool {
	return len(h.Mappings) == 0
}
