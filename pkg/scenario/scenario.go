// Package scenario holds the catalog of stateless event generators driven
// by the continuous scheduler.
package scenario

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/trahulprabhu38/prometheus-prod/pkg/observability"
)

// Scenario produces exactly one structured event per invocation, drawing
// only from the shared read-only domain tables and the supplied random
// source. Implementations must be stateless and safe for concurrent use.
type Scenario interface {
	Name() string
	Generate(r *rand.Rand) observability.Event
}

type generatorFunc struct {
	name string
	fn   func(r *rand.Rand) observability.Event
}

func (g generatorFunc) Name() string { return g.name }

func (g generatorFunc) Generate(r *rand.Rand) observability.Event { return g.fn(r) }

// NewFunc adapts a plain function into a Scenario.
func NewFunc(name string, fn func(r *rand.Rand) observability.Event) Scenario {
	return generatorFunc{name: name, fn: fn}
}

// Registry is the scenario catalog. Scenarios are registered once and then
// selected with uniform probability on every draw.
type Registry struct {
	scenarios []Scenario
	byName    map[string]Scenario
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Scenario)}
}

// Register adds a scenario to the catalog. Names must be unique.
func (reg *Registry) Register(s Scenario) error {
	if s == nil {
		return fmt.Errorf("scenario must not be nil")
	}
	name := s.Name()
	if name == "" {
		return fmt.Errorf("scenario name must not be empty")
	}
	if _, exists := reg.byName[name]; exists {
		return fmt.Errorf("scenario %q already registered", name)
	}
	reg.byName[name] = s
	reg.scenarios = append(reg.scenarios, s)
	return nil
}

// Get returns the named scenario, if registered.
func (reg *Registry) Get(name string) (Scenario, bool) {
	s, ok := reg.byName[name]
	return s, ok
}

// Names lists registered scenario names in sorted order.
func (reg *Registry) Names() []string {
	names := make([]string, 0, len(reg.byName))
	for name := range reg.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the catalog size.
func (reg *Registry) Len() int {
	return len(reg.scenarios)
}

// Pick selects one scenario uniformly at random.
func (reg *Registry) Pick(r *rand.Rand) Scenario {
	if len(reg.scenarios) == 0 {
		return nil
	}
	return reg.scenarios[r.Intn(len(reg.scenarios))]
}

// Generate picks a scenario and invokes it. A panicking generator never
// reaches the caller: the draw falls back to a safe placeholder event so a
// malformed scenario cannot abort a scheduler tick.
func (reg *Registry) Generate(r *rand.Rand) (event observability.Event) {
	s := reg.Pick(r)
	if s == nil {
		return fallbackEvent("catalog")
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			event = fallbackEvent(s.Name())
		}
	}()

	event = s.Generate(r)
	if event.Type == "" {
		event.Type = s.Name()
	}
	if !event.Level.Valid() {
		event.Level = observability.LevelInfo
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return event
}

func fallbackEvent(name string) observability.Event {
	return observability.Event{
		Timestamp: time.Now(),
		Level:     observability.LevelInfo,
		Message:   "scenario generation failed, emitting placeholder",
		Type:      name,
		Attributes: map[string]interface{}{
			"fallback": true,
		},
	}
}
