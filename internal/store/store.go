// Package store loads the static collaborators of the categorizer: the
// taxonomy, the ordered rule table and the hint mappings.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/cascade-categorizer/internal/logging"
	"fjacquet/cascade-categorizer/internal/models"
	"fjacquet/cascade-categorizer/internal/parsererror"
	"fjacquet/cascade-categorizer/internal/rules"

	"gopkg.in/yaml.v3"
)

// Default file names inside the data directory.
const (
	DefaultTaxonomyFile = "taxonomy.yaml"
	DefaultRulesFile    = "rules.yaml"
	DefaultHintsFile    = "hint_mappings.yaml"
)

// Loader is what the container needs from a store.
type Loader interface {
	LoadTaxonomy() (*models.Taxonomy, error)
	LoadRules() ([]rules.Rule, error)
	LoadHintMappings() (models.HintTable, error)
}

type taxonomyDocument struct {
	Groups []models.Category `yaml:"groups"`
}

type rulesDocument struct {
	Rules []rules.Rule `yaml:"rules"`
}

// DataStore reads YAML collaborator files.
type DataStore struct {
	Directory    string
	TaxonomyFile string
	RulesFile    string
	HintsFile    string
	logger       logging.Logger
}

// NewDataStore creates a store rooted at directory. Empty file names fall
// back to the defaults.
func NewDataStore(directory, taxonomyFile, rulesFile, hintsFile string, logger logging.Logger) *DataStore {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &DataStore{
		Directory:    directory,
		TaxonomyFile: orDefault(taxonomyFile, DefaultTaxonomyFile),
		RulesFile:    orDefault(rulesFile, DefaultRulesFile),
		HintsFile:    orDefault(hintsFile, DefaultHintsFile),
		logger:       logger,
	}
}

// FindConfigFile looks for filename in the data directory, the working
// directory, ./config, ./database and ~/.config/cascade.
func (s *DataStore) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	var locations []string
	if s.Directory != "" {
		locations = append(locations, filepath.Join(s.Directory, filename))
	}
	locations = append(locations,
		filename,
		filepath.Join("config", filename),
		filepath.Join("database", filename),
	)
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, ".config", "cascade", filename))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}

// LoadTaxonomy loads the closed set of category codes. A missing file yields
// an empty taxonomy, which accepts any code in the two namespaces.
func (s *DataStore) LoadTaxonomy() (*models.Taxonomy, error) {
	var doc taxonomyDocument
	path, err := s.loadYAML(s.TaxonomyFile, &doc)
	if err != nil {
		return nil, err
	}

	for i, c := range doc.Groups {
		if !models.IsExpenseCode(c.Code) && !models.IsIncomeCode(c.Code) {
			return nil, &parsererror.ValidationError{
				FilePath: path,
				Reason:   fmt.Sprintf("group %d has code %q outside the EXP-/INC- namespaces", i, c.Code),
			}
		}
	}

	taxonomy := models.NewTaxonomy(doc.Groups)
	s.logger.Debug("Loaded taxonomy",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, taxonomy.Len()))
	return taxonomy, nil
}

// LoadRules loads the ordered rule table. Order is preserved as written.
func (s *DataStore) LoadRules() ([]rules.Rule, error) {
	var doc rulesDocument
	path, err := s.loadYAML(s.RulesFile, &doc)
	if err != nil {
		return nil, err
	}

	for i, r := range doc.Rules {
		if r.Confidence <= 0 || r.Confidence > 1 {
			return nil, &parsererror.ValidationError{
				FilePath: path,
				Reason:   fmt.Sprintf("rule %d (%s) has confidence %.2f outside (0,1]", i, r.Code, r.Confidence),
			}
		}
	}

	if doc.Rules == nil {
		doc.Rules = []rules.Rule{}
	}
	s.logger.Debug("Loaded rule table",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(doc.Rules)))
	return doc.Rules, nil
}

// LoadHintMappings loads the hint table.
func (s *DataStore) LoadHintMappings() (models.HintTable, error) {
	var table models.HintTable
	path, err := s.loadYAML(s.HintsFile, &table)
	if err != nil {
		return models.HintTable{}, err
	}

	for i, m := range table.Mappings {
		if strings.TrimSpace(m.Hint) == "" || strings.TrimSpace(m.Code) == "" {
			return models.HintTable{}, &parsererror.ValidationError{
				FilePath: path,
				Reason:   fmt.Sprintf("mapping %d needs both hint and code", i),
			}
		}
	}

	s.logger.Debug("Loaded hint mappings",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(table.Mappings)))
	return table, nil
}

// loadYAML resolves filename and unmarshals it into out. A missing file is
// logged and leaves out untouched; the returned path is then empty.
func (s *DataStore) loadYAML(filename string, out interface{}) (string, error) {
	path, err := s.FindConfigFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Data file not found, using empty defaults",
				logging.F(logging.FieldFile, filename))
			return "", nil
		}
		return "", fmt.Errorf("error resolving %s: %w", filename, err)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- resolved from configured locations
	if err != nil {
		return "", fmt.Errorf("error reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return "", &parsererror.ValidationError{FilePath: path, Reason: err.Error()}
	}
	return path, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
