package strategy

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"trading-botv1/internal/model"
)

var (
	// ErrStrategyNotFound is returned when a named strategy is not registered.
	ErrStrategyNotFound = errors.New("strategy: not found")

	// ErrNoActiveStrategy is returned when no strategy has been activated yet.
	ErrNoActiveStrategy = errors.New("strategy: no active strategy")
)

// Info describes one registered strategy for listing endpoints.
type Info struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Config      model.StrategyConfig `json:"config"`
	Active      bool                 `json:"active"`
}

// Registry holds the set of registered strategies and exactly one active
// strategy at a time. The registry, not individual strategies, is what the
// rest of the system depends on: swapping the active strategy changes all
// subsequent evaluations without restarting the data feed.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	active     Strategy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register adds a strategy under its Name. Duplicate names are rejected.
func (r *Registry) Register(s Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := s.Name()
	if _, ok := r.strategies[name]; ok {
		return fmt.Errorf("strategy: %q already registered", name)
	}
	r.strategies[name] = s
	return nil
}

// Names returns the sorted names of all registered strategies.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.strategies))
	for n := range r.strategies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Describe lists all registered strategies with their metadata.
func (r *Registry) Describe() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]Info, 0, len(r.strategies))
	for _, s := range r.strategies {
		infos = append(infos, Info{
			Name:        s.Name(),
			Description: s.Description(),
			Config:      s.Config(),
			Active:      r.active != nil && r.active.Name() == s.Name(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// SetActive atomically replaces the active strategy. The previous active
// strategy stays registered and can be re-activated later.
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.strategies[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrStrategyNotFound, name)
	}
	r.active = s
	return nil
}

// ActiveName returns the active strategy's name, or "" when none is set.
func (r *Registry) ActiveName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == nil {
		return ""
	}
	return r.active.Name()
}

// Evaluate delegates to the active strategy.
func (r *Registry) Evaluate(candles []model.Candle) (model.SignalResult, error) {
	r.mu.RLock()
	s := r.active
	r.mu.RUnlock()
	if s == nil {
		return model.NoSignal(""), ErrNoActiveStrategy
	}
	return s.Evaluate(candles), nil
}

// CalculateTPSL delegates to the active strategy.
func (r *Registry) CalculateTPSL(entryPrice float64, side model.Side, atr float64) (tp, sl float64, err error) {
	r.mu.RLock()
	s := r.active
	r.mu.RUnlock()
	if s == nil {
		return 0, 0, ErrNoActiveStrategy
	}
	tp, sl = s.CalculateTPSL(entryPrice, side, atr)
	return tp, sl, nil
}

// Config returns the active strategy's configuration.
func (r *Registry) Config() (model.StrategyConfig, error) {
	r.mu.RLock()
	s := r.active
	r.mu.RUnlock()
	if s == nil {
		return model.StrategyConfig{}, ErrNoActiveStrategy
	}
	return s.Config(), nil
}

// UpdateConfig installs a new config value on the active strategy.
// Configuration updates produce a new value; nothing is mutated in place.
func (r *Registry) UpdateConfig(cfg model.StrategyConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return ErrNoActiveStrategy
	}
	return r.active.SetConfig(cfg)
}
