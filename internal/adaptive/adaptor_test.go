package adaptive

import (
	"math"
	"testing"

	"github.com/marat/lexdrill/internal/memory"
)

func TestNext_StaysBounded(t *testing.T) {
	cfg := DefaultConfig()
	grades := []memory.Grade{
		memory.Easy, memory.Easy, memory.Again, memory.Good,
		memory.Hard, memory.Easy, memory.Again, memory.Again,
		memory.Good, memory.Easy, memory.Skip, memory.Easy,
	}

	for _, start := range []float64{0, 0.5, 1} {
		v := start
		for _, g := range grades {
			v = Next(v, g, 1000, false, cfg)
			if v < 0 || v > 1 {
				t.Fatalf("estimate %v escaped [0, 1] after grade %v (start %v)", v, g, start)
			}
		}
	}
}

func TestNext_EasyStreakRaises(t *testing.T) {
	cfg := DefaultConfig()
	v := 0.5
	for i := 0; i < 5; i++ {
		v = Next(v, memory.Easy, 2000, false, cfg)
	}
	if v <= 0.8 {
		t.Errorf("five fast Easy answers moved estimate to %v, want > 0.8", v)
	}
	if v >= 1 {
		t.Errorf("estimate reached %v, should approach but not hit 1", v)
	}
}

func TestNext_AgainStreakLowers(t *testing.T) {
	cfg := DefaultConfig()
	v := 0.5
	for i := 0; i < 5; i++ {
		v = Next(v, memory.Again, 2000, false, cfg)
	}
	if v >= 0.2 {
		t.Errorf("five Again answers moved estimate to %v, want < 0.2", v)
	}
}

func TestNext_SingleAnswerNeverResets(t *testing.T) {
	cfg := DefaultConfig()
	high := Next(0.9, memory.Again, 2000, false, cfg)
	if high < 0.5 {
		t.Errorf("one Again dropped 0.9 to %v, the estimate should decay gradually", high)
	}
	low := Next(0.1, memory.Easy, 2000, false, cfg)
	if low > 0.5 {
		t.Errorf("one Easy raised 0.1 to %v, the estimate should climb gradually", low)
	}
}

func TestNext_SpeedMatters(t *testing.T) {
	cfg := DefaultConfig()
	fast := Next(0.5, memory.Good, cfg.FastResponseMs/4, false, cfg)
	slow := Next(0.5, memory.Good, cfg.FastResponseMs*3, false, cfg)
	if fast <= slow {
		t.Errorf("fast Good (%v) should pull higher than slow Good (%v)", fast, slow)
	}

	// Unknown latency lands between the two.
	mid := Next(0.5, memory.Good, 0, false, cfg)
	if mid <= slow || mid >= fast {
		t.Errorf("unknown latency estimate %v should sit between %v and %v", mid, slow, fast)
	}
}

func TestNext_SkipIsNeutral(t *testing.T) {
	cfg := DefaultConfig()
	for _, v := range []float64{0, 0.33, 0.5, 0.91, 1} {
		if got := Next(v, memory.Skip, 5000, false, cfg); got != v {
			t.Errorf("Next(%v, Skip) = %v, want unchanged", v, got)
		}
	}
}

func TestNext_HintCapsTarget(t *testing.T) {
	cfg := DefaultConfig()
	hinted := Next(0.5, memory.Easy, 1000, true, cfg)
	unhinted := Next(0.5, memory.Easy, 1000, false, cfg)
	if hinted >= unhinted {
		t.Errorf("hinted Easy (%v) should pull less than clean Easy (%v)", hinted, unhinted)
	}
	// Target capped at 0.3 pulls a 0.5 estimate down, not up.
	if hinted >= 0.5 {
		t.Errorf("hinted Easy from 0.5 gave %v, want below 0.5", hinted)
	}
}

func TestNext_ExactStep(t *testing.T) {
	cfg := DefaultConfig()
	// Easy target is 1.0, so one step from 0.5 lands at 0.5 + 0.3*0.5.
	got := Next(0.5, memory.Easy, 1000, false, cfg)
	if math.Abs(got-0.65) > 1e-9 {
		t.Errorf("Next(0.5, Easy) = %v, want 0.65", got)
	}
	// Again target is 0.0.
	got = Next(0.5, memory.Again, 1000, false, cfg)
	if math.Abs(got-0.35) > 1e-9 {
		t.Errorf("Next(0.5, Again) = %v, want 0.35", got)
	}
}

func TestTracker(t *testing.T) {
	tr := NewTracker(0.5, DefaultConfig())
	if tr.Value() != 0.5 {
		t.Fatalf("opening value = %v, want 0.5", tr.Value())
	}
	got := tr.Update(memory.Easy, 1000, false)
	if got != tr.Value() {
		t.Errorf("Update return %v != Value %v", got, tr.Value())
	}
	if got <= 0.5 {
		t.Errorf("Easy update gave %v, want above opening", got)
	}

	// Out-of-range opening values are clamped.
	if v := NewTracker(1.7, DefaultConfig()).Value(); v != 1 {
		t.Errorf("opening 1.7 clamped to %v, want 1", v)
	}

	// A broken step falls back to the default rather than freezing.
	tr = NewTracker(0.5, Config{Step: 0, FastResponseMs: 8000})
	if v := tr.Update(memory.Easy, 1000, false); v == 0.5 {
		t.Error("tracker with zero step should still move")
	}
}
