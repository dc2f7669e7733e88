// Package severity derives log levels from operation outcome signals.
package severity

import (
	"strings"
	"time"

	"github.com/trahulprabhu38/prometheus-prod/pkg/observability"
)

// Well-known categories carrying tighter latency expectations than the
// general warning threshold.
const (
	CategoryDatabase = "database"
	CategoryExternal = "external"
)

// Default latency thresholds above which an otherwise healthy operation is
// classified as a warning.
const (
	DefaultGeneralThreshold  = 1000 * time.Millisecond
	DefaultDatabaseThreshold = 300 * time.Millisecond
	DefaultExternalThreshold = 200 * time.Millisecond
)

// Signal carries the outcome of one operation. Zero values mean "not
// observed": a zero status code or empty outcome contributes nothing to
// classification, and a fully empty signal classifies as info.
type Signal struct {
	StatusCode int
	Outcome    string
	Duration   time.Duration
	Category   string
}

// degraded outcomes describe handled-but-unhealthy results that warrant a
// warning rather than an error.
var degradedOutcomes = map[string]struct{}{
	"refunded":  {},
	"half-open": {},
	"throttled": {},
	"degraded":  {},
	"retrying":  {},
}

// Classifier maps outcome signals onto log levels. Classification is
// deterministic: identical signals always produce identical levels.
type Classifier struct {
	general    time.Duration
	categories map[string]time.Duration
}

// Option customises classifier thresholds.
type Option func(*Classifier)

// WithGeneralThreshold overrides the fallback latency threshold.
func WithGeneralThreshold(d time.Duration) Option {
	return func(c *Classifier) {
		if d > 0 {
			c.general = d
		}
	}
}

// WithCategoryThreshold sets the latency threshold for a single category.
func WithCategoryThreshold(category string, d time.Duration) Option {
	return func(c *Classifier) {
		if category != "" && d > 0 {
			c.categories[category] = d
		}
	}
}

// New builds a classifier with the default threshold table.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		general: DefaultGeneralThreshold,
		categories: map[string]time.Duration{
			CategoryDatabase: DefaultDatabaseThreshold,
			CategoryExternal: DefaultExternalThreshold,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify derives a level from the signal:
//
//  1. status >= 500 or outcome "failed" -> error
//  2. status >= 400, a degraded outcome, or duration above the category
//     threshold -> warn
//  3. everything else, including malformed or absent signals -> info
func (c *Classifier) Classify(sig Signal) observability.Level {
	outcome := strings.ToLower(strings.TrimSpace(sig.Outcome))

	if sig.StatusCode >= 500 || outcome == "failed" {
		return observability.LevelError
	}

	if sig.StatusCode >= 400 {
		return observability.LevelWarn
	}
	if _, ok := degradedOutcomes[outcome]; ok {
		return observability.LevelWarn
	}
	if sig.Duration > c.Threshold(sig.Category) {
		return observability.LevelWarn
	}

	return observability.LevelInfo
}

// Threshold returns the latency threshold for a category, falling back to
// the general threshold for unknown categories.
func (c *Classifier) Threshold(category string) time.Duration {
	if d, ok := c.categories[category]; ok {
		return d
	}
	return c.general
}
