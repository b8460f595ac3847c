package strategy

import (
	"errors"
	"reflect"
	"testing"

	"trading-botv1/internal/model"
)

// stubStrategy returns a canned result so registry behavior can be
// observed independently of indicator math.
type stubStrategy struct {
	name string
	conf float64
	cfg  model.StrategyConfig
}

func (s *stubStrategy) Name() string        { return s.name }
func (s *stubStrategy) Description() string { return "stub" }

func (s *stubStrategy) Config() model.StrategyConfig { return s.cfg }

func (s *stubStrategy) SetConfig(cfg model.StrategyConfig) error {
	s.cfg = cfg
	return nil
}

func (s *stubStrategy) Evaluate(candles []model.Candle) model.SignalResult {
	return model.SignalResult{Signal: model.SignalLong, Confidence: s.conf}
}

func (s *stubStrategy) CalculateTPSL(entry float64, side model.Side, atr float64) (float64, float64) {
	return entry * 1.02, entry * 0.99
}

// ────────────────────────────────────────────────────────────────────────────

func TestRegistry_NoActiveStrategy(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Evaluate(nil); !errors.Is(err, ErrNoActiveStrategy) {
		t.Fatalf("Evaluate: got %v, want ErrNoActiveStrategy", err)
	}
	if _, _, err := r.CalculateTPSL(100, model.SideLong, 1); !errors.Is(err, ErrNoActiveStrategy) {
		t.Fatalf("CalculateTPSL: got %v, want ErrNoActiveStrategy", err)
	}
	if _, err := r.Config(); !errors.Is(err, ErrNoActiveStrategy) {
		t.Fatalf("Config: got %v, want ErrNoActiveStrategy", err)
	}
	if err := r.UpdateConfig(model.StrategyConfig{}); !errors.Is(err, ErrNoActiveStrategy) {
		t.Fatalf("UpdateConfig: got %v, want ErrNoActiveStrategy", err)
	}
	if name := r.ActiveName(); name != "" {
		t.Fatalf("ActiveName: got %q, want empty", name)
	}
}

func TestRegistry_SetActiveUnknown(t *testing.T) {
	r := NewRegistry()
	if err := r.SetActive("ghost"); !errors.Is(err, ErrStrategyNotFound) {
		t.Fatalf("got %v, want ErrStrategyNotFound", err)
	}
}

func TestRegistry_DuplicateRegister(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubStrategy{name: "alpha"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(&stubStrategy{name: "alpha"}); err == nil {
		t.Fatal("duplicate register should fail")
	}
}

func TestRegistry_Names_Sorted(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(&stubStrategy{name: n}); err != nil {
			t.Fatalf("register %s: %v", n, err)
		}
	}
	want := []string{"alpha", "mid", "zeta"}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names: got %v, want %v", got, want)
	}
}

// Swapping the active strategy must change subsequent evaluations without
// re-registering anything.
func TestRegistry_SwapChangesEvaluation(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubStrategy{name: "cautious", conf: 40}); err != nil {
		t.Fatalf("register cautious: %v", err)
	}
	if err := r.Register(&stubStrategy{name: "aggressive", conf: 90}); err != nil {
		t.Fatalf("register aggressive: %v", err)
	}

	if err := r.SetActive("cautious"); err != nil {
		t.Fatalf("activate cautious: %v", err)
	}
	res, err := r.Evaluate(nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Confidence != 40 {
		t.Errorf("cautious confidence: got %.1f, want 40", res.Confidence)
	}

	if err := r.SetActive("aggressive"); err != nil {
		t.Fatalf("activate aggressive: %v", err)
	}
	res, err = r.Evaluate(nil)
	if err != nil {
		t.Fatalf("evaluate after swap: %v", err)
	}
	if res.Confidence != 90 {
		t.Errorf("aggressive confidence: got %.1f, want 90", res.Confidence)
	}

	// Swapping back reuses the still-registered strategy.
	if err := r.SetActive("cautious"); err != nil {
		t.Fatalf("re-activate cautious: %v", err)
	}
	if name := r.ActiveName(); name != "cautious" {
		t.Errorf("ActiveName: got %q, want cautious", name)
	}
}

func TestRegistry_Describe_MarksActive(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubStrategy{name: "alpha"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&stubStrategy{name: "beta"}); err != nil {
		t.Fatal(err)
	}
	if err := r.SetActive("beta"); err != nil {
		t.Fatal(err)
	}

	infos := r.Describe()
	if len(infos) != 2 {
		t.Fatalf("Describe: got %d entries, want 2", len(infos))
	}
	for _, info := range infos {
		wantActive := info.Name == "beta"
		if info.Active != wantActive {
			t.Errorf("%s: active=%v, want %v", info.Name, info.Active, wantActive)
		}
	}
}

func TestRegistry_UpdateConfig_ReachesActive(t *testing.T) {
	r := NewRegistry()
	stub := &stubStrategy{name: "alpha"}
	if err := r.Register(stub); err != nil {
		t.Fatal(err)
	}
	if err := r.SetActive("alpha"); err != nil {
		t.Fatal(err)
	}

	cfg := model.StrategyConfig{Pair: "B-ETH_USDT", Leverage: 3}
	if err := r.UpdateConfig(cfg); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	got, err := r.Config()
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if got.Pair != "B-ETH_USDT" || got.Leverage != 3 {
		t.Errorf("config not installed: %+v", got)
	}
}
