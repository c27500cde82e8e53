// Package patterns implements the persisted learned-pattern cache that
// remembers categories resolved by the external service.
package patterns

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"fjacquet/cascade-categorizer/internal/logging"
	"fjacquet/cascade-categorizer/internal/models"
	"fjacquet/cascade-categorizer/internal/normalizer"

	"github.com/agnivade/levenshtein"
)

const (
	// DefaultLearnThreshold is the minimum confidence accepted by Add.
	DefaultLearnThreshold = 0.90
	// DefaultPruneMinConfidence is the floor used by Prune when none is given.
	DefaultPruneMinConfidence = 0.85
	// DefaultSimilarLimit bounds Similar when limit is not positive.
	DefaultSimilarLimit = 5
)

// Metadata is the bookkeeping block persisted alongside the patterns.
type Metadata struct {
	TotalPatterns int       `json:"total_patterns"`
	LastUpdated   time.Time `json:"last_updated"`
	CallsSaved    int       `json:"calls_saved"`
	TotalLookups  int       `json:"total_lookups"`
	TotalHits     int       `json:"total_hits"`
}

type document struct {
	Patterns map[string]*models.LearnedPattern `json:"patterns"`
	Metadata Metadata                          `json:"metadata"`
}

// Cache maps normalized merchant keys to learned categories.
type Cache struct {
	mu        sync.RWMutex
	path      string
	threshold float64
	patterns  map[string]*models.LearnedPattern
	meta      Metadata
	logger    logging.Logger
	now       func() time.Time
}

// NewCache loads the cache stored at path. An empty path keeps the cache in
// memory only. A missing or unreadable file yields an empty cache. The learn
// threshold may be raised but never drops below DefaultLearnThreshold.
func NewCache(path string, learnThreshold float64, logger logging.Logger) *Cache {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if learnThreshold < DefaultLearnThreshold {
		learnThreshold = DefaultLearnThreshold
	}
	c := &Cache{
		path:      path,
		threshold: learnThreshold,
		patterns:  make(map[string]*models.LearnedPattern),
		logger:    logger,
		now:       time.Now,
	}
	c.load()
	return c
}

func (c *Cache) load() {
	if c.path == "" {
		return
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("Learned pattern file not found, starting with an empty cache",
				logging.F(logging.FieldFile, c.path))
		} else {
			c.logger.WithError(err).Warn("Failed to read learned pattern file, starting with an empty cache",
				logging.F(logging.FieldFile, c.path))
		}
		return
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		c.logger.WithError(err).Warn("Learned pattern file is corrupt, starting with an empty cache",
			logging.F(logging.FieldFile, c.path))
		return
	}

	for key, p := range doc.Patterns {
		if p == nil || key == "" {
			continue
		}
		c.patterns[key] = p
	}
	c.meta = doc.Metadata
	c.meta.TotalPatterns = len(c.patterns)

	c.logger.Info("Loaded learned patterns",
		logging.F(logging.FieldFile, c.path),
		logging.F(logging.FieldCount, len(c.patterns)))
}

// Lookup returns the pattern stored for raw, trying the full normalized key
// and then its variants. A hit counts as one saved external call. Hit
// counters are flushed by the next write or Save.
func (c *Cache) Lookup(raw string) (models.LearnedPattern, bool) {
	candidates := normalizer.Variants(raw)

	c.mu.RLock()
	var hitKey string
	for _, key := range candidates {
		if _, ok := c.patterns[key]; ok {
			hitKey = key
			break
		}
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.meta.TotalLookups++
	if hitKey == "" {
		return models.LearnedPattern{}, false
	}
	p, ok := c.patterns[hitKey]
	if !ok {
		return models.LearnedPattern{}, false
	}

	now := c.now()
	p.UsageCount++
	p.LastUsed = &now
	c.meta.TotalHits++
	c.meta.CallsSaved++

	c.logger.Debug("Learned pattern hit",
		logging.F(logging.FieldMerchantKey, hitKey),
		logging.F(logging.FieldCategory, p.Category))
	return p.Clone(), true
}

// Add learns category for raw. Entries below the learning threshold and
// generic sentinels are rejected. For an existing key the example is
// recorded and the confidence is raised, never lowered. It returns true only
// when a new entry was created.
func (c *Cache) Add(raw, category string, confidence float64, source string) (bool, error) {
	category = strings.ToUpper(strings.TrimSpace(category))
	if category == "" || models.IsSentinel(category) || confidence < c.threshold {
		return false, nil
	}

	key := normalizer.Key(raw)
	if key == "" {
		return false, nil
	}
	example := strings.TrimSpace(raw)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.patterns[key]; ok {
		addExample(existing, example)
		if confidence > existing.Confidence {
			existing.Confidence = confidence
		}
		return false, c.saveLocked()
	}

	p := &models.LearnedPattern{
		Category:   category,
		Confidence: confidence,
		Source:     source,
		LearnedAt:  c.now(),
	}
	addExample(p, example)
	c.patterns[key] = p

	c.logger.Info("Learned new pattern",
		logging.F(logging.FieldMerchantKey, key),
		logging.F(logging.FieldCategory, category),
		logging.F(logging.FieldConfidence, confidence))
	return true, c.saveLocked()
}

func addExample(p *models.LearnedPattern, example string) {
	if example == "" || len(p.ExampleDescriptions) >= models.MaxExampleDescriptions {
		return
	}
	for _, e := range p.ExampleDescriptions {
		if e == example {
			return
		}
	}
	p.ExampleDescriptions = append(p.ExampleDescriptions, example)
}

// Similar ranks learned patterns by word overlap with the normalized key of
// raw. Ties are broken by edit distance, then by key.
func (c *Cache) Similar(raw string, limit int) []models.SimilarPattern {
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	query := normalizer.Key(raw)
	queryWords := wordSet(query)
	if len(queryWords) == 0 {
		return nil
	}

	type ranked struct {
		models.SimilarPattern
		distance int
	}

	c.mu.RLock()
	var matches []ranked
	for key, p := range c.patterns {
		score := overlap(queryWords, wordSet(key))
		if score == 0 {
			continue
		}
		matches = append(matches, ranked{
			SimilarPattern: models.SimilarPattern{Key: key, Pattern: p.Clone(), Similarity: score},
			distance:       levenshtein.ComputeDistance(query, key),
		})
	}
	c.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].Key < matches[j].Key
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]models.SimilarPattern, len(matches))
	for i, m := range matches {
		out[i] = m.SimilarPattern
	}
	return out
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func overlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	return float64(shared) / float64(denom)
}

// Prune removes entries that were never reused and sit below minConfidence.
// A non-positive floor uses DefaultPruneMinConfidence.
func (c *Cache) Prune(minConfidence float64) (int, error) {
	if minConfidence <= 0 {
		minConfidence = DefaultPruneMinConfidence
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, p := range c.patterns {
		if p.UsageCount == 0 && p.Confidence < minConfidence {
			delete(c.patterns, key)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}

	c.logger.Info("Pruned learned patterns",
		logging.F(logging.FieldCount, removed),
		logging.F(logging.FieldConfidence, minConfidence))
	return removed, c.saveLocked()
}

// Save persists the cache, including hit counters accumulated by Lookup.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked()
}

func (c *Cache) saveLocked() error {
	c.meta.TotalPatterns = len(c.patterns)
	c.meta.LastUpdated = c.now()
	if c.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(document{Patterns: c.patterns, Metadata: c.meta}, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling learned patterns: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".learned-*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("error writing learned patterns: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("error closing learned patterns: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("error replacing learned patterns: %w", err)
	}
	return nil
}

// Len returns the number of learned patterns.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.patterns)
}

// Get returns the pattern stored under an already-normalized key without
// touching the hit counters.
func (c *Cache) Get(key string) (models.LearnedPattern, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.patterns[key]
	if !ok {
		return models.LearnedPattern{}, false
	}
	return p.Clone(), true
}

// Metadata returns a copy of the bookkeeping counters.
func (c *Cache) Metadata() Metadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := c.meta
	m.TotalPatterns = len(c.patterns)
	return m
}
