package store

import (
	"fjacquet/cascade-categorizer/internal/models"
	"fjacquet/cascade-categorizer/internal/rules"
)

// MockDataStore is an in-memory Loader for tests.
type MockDataStore struct {
	Taxonomy []models.Category
	Rules    []rules.Rule
	Hints    models.HintTable

	LoadTaxonomyError     error
	LoadRulesError        error
	LoadHintMappingsError error
}

// LoadTaxonomy returns a taxonomy built from the mock categories.
func (m *MockDataStore) LoadTaxonomy() (*models.Taxonomy, error) {
	if m.LoadTaxonomyError != nil {
		return nil, m.LoadTaxonomyError
	}
	return models.NewTaxonomy(m.Taxonomy), nil
}

// LoadRules returns a copy of the mock rules.
func (m *MockDataStore) LoadRules() ([]rules.Rule, error) {
	if m.LoadRulesError != nil {
		return nil, m.LoadRulesError
	}
	out := make([]rules.Rule, len(m.Rules))
	copy(out, m.Rules)
	return out, nil
}

// LoadHintMappings returns the mock hint table.
func (m *MockDataStore) LoadHintMappings() (models.HintTable, error) {
	if m.LoadHintMappingsError != nil {
		return models.HintTable{}, m.LoadHintMappingsError
	}
	return m.Hints, nil
}

var _ Loader = (*MockDataStore)(nil)
var _ Loader = (*DataStore)(nil)
