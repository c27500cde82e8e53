package external

import (
	"context"
	"io"
	"sync"
	"time"

	"fjacquet/cascade-categorizer/internal/logging"
	"fjacquet/cascade-categorizer/internal/models"

	"golang.org/x/time/rate"
)

// charsPerToken is the rough ratio used to estimate token usage.
const charsPerToken = 4

// Config tunes the adapter.
type Config struct {
	Timeout              time.Duration
	RequestsPerMinute    int
	InputCostPerMillion  float64
	OutputCostPerMillion float64
}

// Stats are cumulative counters for one adapter.
type Stats struct {
	Calls                 int
	Errors                int
	ParseErrors           int
	EstimatedInputTokens  int
	EstimatedOutputTokens int
	EstimatedCost         float64
}

// Adapter is the fail-soft entry point to the external service.
type Adapter struct {
	backend  Backend
	taxonomy *models.Taxonomy
	cfg      Config
	limiter  *rate.Limiter
	logger   logging.Logger

	mu    sync.Mutex
	stats Stats
}

// NewAdapter wraps backend. Billable backends are rate limited when
// RequestsPerMinute is positive.
func NewAdapter(backend Backend, taxonomy *models.Taxonomy, cfg Config, logger logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	a := &Adapter{
		backend:  backend,
		taxonomy: taxonomy,
		cfg:      cfg,
		logger:   logger,
	}
	if backend.Billable() && cfg.RequestsPerMinute > 0 {
		a.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return a
}

// BackendName reports which backend is in use.
func (a *Adapter) BackendName() string {
	return a.backend.Name()
}

// Predict asks the backend for a category. Errors, timeouts and malformed
// replies come back as a low-confidence sentinel, never as an error.
func (a *Adapter) Predict(ctx context.Context, req Request) Prediction {
	sign := req.Amount.Sign()

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			a.countError()
			return failure(sign, "API error", err)
		}
	}

	prompt := RenderPrompt(req, a.taxonomy)
	text, err := a.backend.Complete(ctx, prompt, req)
	a.record(prompt, text)
	if err != nil {
		a.countError()
		a.logger.WithError(err).Warn("External categorization failed",
			logging.F(logging.FieldBackend, a.backend.Name()),
			logging.F(logging.FieldDescription, req.Description))
		return failure(sign, "API error", err)
	}

	p, err := parseResponse(text)
	if err != nil {
		a.mu.Lock()
		a.stats.ParseErrors++
		a.mu.Unlock()
		a.logger.WithError(err).Warn("Unparseable external response",
			logging.F(logging.FieldBackend, a.backend.Name()))
		return failure(sign, "Parse error", err)
	}

	a.logger.Debug("External prediction",
		logging.F(logging.FieldBackend, a.backend.Name()),
		logging.F(logging.FieldCategory, p.Code),
		logging.F(logging.FieldConfidence, p.Confidence))
	return p
}

func (a *Adapter) record(prompt, response string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.Calls++
	if !a.backend.Billable() {
		return
	}
	in := len(prompt) / charsPerToken
	out := len(response) / charsPerToken
	a.stats.EstimatedInputTokens += in
	a.stats.EstimatedOutputTokens += out
	a.stats.EstimatedCost += float64(in)/1_000_000*a.cfg.InputCostPerMillion +
		float64(out)/1_000_000*a.cfg.OutputCostPerMillion
}

func (a *Adapter) countError() {
	a.mu.Lock()
	a.stats.Errors++
	a.mu.Unlock()
}

// Stats returns a snapshot of the counters.
func (a *Adapter) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// LogStats writes the counters at info level.
func (a *Adapter) LogStats() {
	s := a.Stats()
	a.logger.Info("External service usage",
		logging.F(logging.FieldBackend, a.backend.Name()),
		logging.F("calls", s.Calls),
		logging.F("errors", s.Errors),
		logging.F("parse_errors", s.ParseErrors),
		logging.F("estimated_input_tokens", s.EstimatedInputTokens),
		logging.F("estimated_output_tokens", s.EstimatedOutputTokens),
		logging.F("estimated_cost", s.EstimatedCost))
}

// Close releases the backend if it holds resources.
func (a *Adapter) Close() error {
	if c, ok := a.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
