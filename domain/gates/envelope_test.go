package gates

import (
	"errors"
	"testing"

	"venturi/domain/core"
)

func TestCheckRatioBounds(t *testing.T) {
	env := DefaultEnvelope()

	cases := []struct {
		ratio float64
		ok    bool
	}{
		{0.3, true},
		{0.95, true},
		{0.6, true},
		{0.29, false},
		{0.96, false},
		{0, false},
		{-1, false},
	}
	for _, tc := range cases {
		err := env.CheckRatio(GateInput, tc.ratio)
		if tc.ok && err != nil {
			t.Errorf("ratio %.2f rejected: %v", tc.ratio, err)
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("ratio %.2f accepted", tc.ratio)
				continue
			}
			if !errors.Is(err, core.ErrEnvelope) {
				t.Errorf("ratio %.2f: err = %v, want ErrEnvelope", tc.ratio, err)
			}
		}
	}
}

func TestCheckSetRejectsExcessiveAmplification(t *testing.T) {
	env := DefaultEnvelope()

	set := DefaultSet()
	if err := env.CheckSet(set); err != nil {
		t.Fatalf("default set rejected: %v", err)
	}

	// Three gates at the minimum ratio amplify (1/0.3)^3 = 37x, inside the
	// 40x cap; tightening the cap must reject the same set
	for _, p := range set.All() {
		p.ConstrictionRatio = 0.3
		set = set.With(p)
	}
	if err := env.CheckSet(set); err != nil {
		t.Fatalf("37x amplification rejected under the 40x cap: %v", err)
	}

	tight := env
	tight.MaxAmplification = 30
	if err := tight.CheckSet(set); err == nil {
		t.Error("37x amplification accepted under a 30x cap")
	}
}

func TestVelocityFactorIsInverseRatio(t *testing.T) {
	p := Parameters{Name: GateCore, ConstrictionRatio: 0.5, Enabled: true}
	if got := p.VelocityFactor(); got != 2 {
		t.Errorf("velocity factor = %f, want 2", got)
	}
}

func TestSetWithReplacesOnlyNamedGate(t *testing.T) {
	set := DefaultSet()
	p, ok := set.Get(GateCore)
	if !ok {
		t.Fatal("core gate missing from default set")
	}
	p.ConstrictionRatio = 0.5

	next := set.With(p)
	if next.Core.ConstrictionRatio != 0.5 {
		t.Errorf("core ratio = %f, want 0.5", next.Core.ConstrictionRatio)
	}
	if next.Input != set.Input || next.Output != set.Output {
		t.Error("With touched gates it was not given")
	}
	// The original set is a value and stays unchanged
	if set.Core.ConstrictionRatio == 0.5 {
		t.Error("With mutated the receiver")
	}
}
