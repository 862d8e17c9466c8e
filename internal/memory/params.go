package memory

import (
	"fmt"
	"time"
)

// Initial seeds the memory record on an item's first review.
type Initial struct {
	// Stability is the first-review stability in days, keyed by grade.
	// Indexed Again..Easy; Skip never creates state.
	Stability map[Grade]float64 `mapstructure:"stability"`
	// Difficulty is the first-review difficulty estimate.
	Difficulty float64 `mapstructure:"difficulty"`
}

// Params are the product-tunable constants of the memory model.
// They are configuration, not code: see internal/config.
type Params struct {
	// Decay is the (positive) exponent of the forgetting curve.
	Decay float64 `mapstructure:"decay"`

	// TargetRetention is the predicted retrievability at the scheduled due
	// date. With the derived curve factor, interval(S, 0.9) == S days.
	TargetRetention float64 `mapstructure:"target_retention"`

	// Multiplier applies to stability per grade. Again must be < 1,
	// Hard < Good < Easy with Hard > 1.
	Multiplier map[Grade]float64 `mapstructure:"multiplier"`

	// RelearnInterval is the short re-test delay after Again.
	// Minutes-to-hours scale, strictly under a day.
	RelearnInterval time.Duration `mapstructure:"relearn_interval"`

	// MaxIntervalDays caps the scheduled interval.
	MaxIntervalDays float64 `mapstructure:"max_interval_days"`

	// DifficultyStep sizes the per-grade difficulty drift.
	// Again uses a damped step toward 10, Easy a flat step toward 1,
	// Good mean-reverts toward NeutralDifficulty.
	DifficultyStep float64 `mapstructure:"difficulty_step"`

	// NeutralDifficulty is the mean-reversion target for Good answers.
	NeutralDifficulty float64 `mapstructure:"neutral_difficulty"`

	// MeanReversion is the fraction of the gap to NeutralDifficulty closed
	// by a Good answer.
	MeanReversion float64 `mapstructure:"mean_reversion"`

	// Default seeds first reviews when no category override applies.
	Default Initial `mapstructure:"default"`

	// ByCategory overrides first-review seeds per item category tag.
	ByCategory map[string]Initial `mapstructure:"by_category"`
}

// Difficulty bounds.
const (
	MinDifficulty = 1.0
	MaxDifficulty = 10.0
)

const minStability = 0.001

// DefaultParams returns the tuning used when no configuration overrides it.
// First-review stabilities follow the shape of published FSRS seeds;
// a brand-new Good answer lands 1-3 days out, Again inside the same day.
func DefaultParams() Params {
	return Params{
		Decay:           0.5,
		TargetRetention: 0.9,
		Multiplier: map[Grade]float64{
			Again: 0.5,
			Hard:  1.2,
			Good:  2.4,
			Easy:  3.6,
		},
		RelearnInterval:   30 * time.Minute,
		MaxIntervalDays:   365,
		DifficultyStep:    0.8,
		NeutralDifficulty: 5.0,
		MeanReversion:     0.1,
		Default: Initial{
			Stability: map[Grade]float64{
				Again: 0.4,
				Hard:  1.2,
				Good:  2.5,
				Easy:  6.0,
			},
			Difficulty: 5.0,
		},
	}
}

// Validate checks the parameter set for internal consistency.
func (p Params) Validate() error {
	if p.Decay <= 0 {
		return fmt.Errorf("memory: decay must be positive, got %f", p.Decay)
	}
	if p.TargetRetention <= 0 || p.TargetRetention >= 1 {
		return fmt.Errorf("memory: target_retention must be in (0, 1), got %f", p.TargetRetention)
	}
	if p.RelearnInterval <= 0 || p.RelearnInterval >= 24*time.Hour {
		return fmt.Errorf("memory: relearn_interval must be under a day, got %s", p.RelearnInterval)
	}
	again, hard, good, easy := p.Multiplier[Again], p.Multiplier[Hard], p.Multiplier[Good], p.Multiplier[Easy]
	if again <= 0 || again >= 1 {
		return fmt.Errorf("memory: Again multiplier must be in (0, 1), got %f", again)
	}
	if !(1 < hard && hard < good && good < easy) {
		return fmt.Errorf("memory: multipliers must satisfy 1 < Hard < Good < Easy, got %f/%f/%f", hard, good, easy)
	}
	for g := Again; g <= Easy; g++ {
		if p.Default.Stability[g] <= 0 {
			return fmt.Errorf("memory: default initial stability for %s must be positive", g)
		}
	}
	if s := p.Default.Stability; !(s[Again] < s[Hard] && s[Hard] < s[Good] && s[Good] < s[Easy]) {
		return fmt.Errorf("memory: initial stabilities must increase Again < Hard < Good < Easy")
	}
	if p.MeanReversion <= 0 || p.MeanReversion >= 1 {
		return fmt.Errorf("memory: mean_reversion must be in (0, 1), got %f", p.MeanReversion)
	}
	if p.Default.Difficulty < MinDifficulty || p.Default.Difficulty > MaxDifficulty {
		return fmt.Errorf("memory: default initial difficulty %f outside [%v, %v]",
			p.Default.Difficulty, MinDifficulty, MaxDifficulty)
	}
	return nil
}

// initial returns the first-review seeds for an item category.
func (p Params) initial(category string) Initial {
	if init, ok := p.ByCategory[category]; ok {
		if init.Stability != nil && init.Difficulty > 0 {
			return init
		}
		// Partial override: fill gaps from the default.
		out := p.Default
		if init.Stability != nil {
			out.Stability = init.Stability
		}
		if init.Difficulty > 0 {
			out.Difficulty = init.Difficulty
		}
		return out
	}
	return p.Default
}
