package strategy

import (
	"math/rand"
	"testing"
)

func TestLiveBeatsSymmetry(t *testing.T) {
	for _, phase := range LiveStrategies {
		for _, s := range LiveStrategies {
			target, ok := LiveBeats(s, phase)
			if !ok {
				t.Fatalf("phase %s: %s has no beats relation", phase, s)
			}
			if target == s {
				t.Fatalf("phase %s: %s beats itself", phase, s)
			}
			// if s beats target, target must lose to s from the other side
			if got := LiveAdvantage(s, target, phase); got <= 1.0 {
				t.Fatalf("phase %s: advantage(%s,%s)=%v, want >1", phase, s, target, got)
			}
			if got := LiveAdvantage(target, s, phase); got >= 1.0 {
				t.Fatalf("phase %s: advantage(%s,%s)=%v, want <1", phase, target, s, got)
			}
		}
	}
}

func TestLiveCycleClosed(t *testing.T) {
	for _, phase := range LiveStrategies {
		seen := map[LiveStrategy]bool{}
		cur := LiveAggressive
		for i := 0; i < len(LiveStrategies); i++ {
			next, _ := LiveBeats(cur, phase)
			if seen[next] {
				t.Fatalf("phase %s: cycle revisits %s early", phase, next)
			}
			seen[next] = true
			cur = next
		}
		if cur != LiveAggressive {
			t.Fatalf("phase %s: cycle does not close, ended at %s", phase, cur)
		}
	}
}

func TestTurnBeatsSymmetry(t *testing.T) {
	phases := []TurnPhase{PhaseLaning, PhaseTeamfight, PhaseMacro}
	strategies := []TurnStrategy{TurnAggressive, TurnBalanced, TurnDefensive}
	for _, phase := range phases {
		for _, s := range strategies {
			target, ok := TurnBeats(s, phase)
			if !ok {
				t.Fatalf("phase %s: %s has no beats relation", phase, s)
			}
			if got := TurnAdvantage(s, target, phase); got != 1.15 {
				t.Fatalf("phase %s: advantage(%s,%s)=%v, want 1.15", phase, s, target, got)
			}
			if got := TurnAdvantage(target, s, phase); got != 0.85 {
				t.Fatalf("phase %s: advantage(%s,%s)=%v, want 0.85", phase, target, s, got)
			}
		}
	}
}

func TestNeutralSelfMatch(t *testing.T) {
	for _, phase := range LiveStrategies {
		for _, s := range LiveStrategies {
			if got := LiveAdvantage(s, s, phase); got != 1.0 {
				t.Fatalf("phase %s: self advantage for %s = %v, want 1.0", phase, s, got)
			}
		}
	}
}

func TestCategoryForRoundCycles(t *testing.T) {
	want := []LiveStrategy{LiveAggressive, LiveTeamfight, LiveDefensive, LiveAggressive, LiveTeamfight}
	for i, w := range want {
		if got := CategoryForRound(i + 1); got != w {
			t.Fatalf("round %d: got %s, want %s", i+1, got, w)
		}
	}
}

func TestParseLiveRejectsUnknown(t *testing.T) {
	if _, ok := ParseLive("macro"); ok {
		t.Fatal("expected macro to be rejected as a live strategy")
	}
	if s, ok := ParseLive("teamfight"); !ok || s != LiveTeamfight {
		t.Fatalf("expected teamfight to parse, got %v %v", s, ok)
	}
}

func TestRandomLiveCoversAll(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seen := map[LiveStrategy]bool{}
	for i := 0; i < 100; i++ {
		seen[RandomLive(rng)] = true
	}
	if len(seen) != len(LiveStrategies) {
		t.Fatalf("expected all strategies drawn, got %v", seen)
	}
}
