// Package config loads engine tuning from file and environment. Every
// numeric constant of the scheduling and validation policies is
// configuration, not code.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/marat/lexdrill/internal/adaptive"
	"github.com/marat/lexdrill/internal/answercheck"
	"github.com/marat/lexdrill/internal/engine"
	"github.com/marat/lexdrill/internal/memory"
	"github.com/marat/lexdrill/internal/quiz"
)

// Config holds all configuration for the application.
type Config struct {
	Student string       `mapstructure:"student"`
	Session SessionCfg   `mapstructure:"session"`
	Memory  MemoryCfg    `mapstructure:"memory"`
	Checker CheckerCfg   `mapstructure:"checker"`
	Adapt   AdaptCfg     `mapstructure:"adaptive"`
	Quiz    QuizCfg      `mapstructure:"quiz"`
	Saver   SaverCfg     `mapstructure:"saver"`
	Log     LogCfg       `mapstructure:"log"`
}

// SessionCfg holds session defaults.
type SessionCfg struct {
	Size int    `mapstructure:"size"`
	Mode string `mapstructure:"mode"`
}

// MemoryCfg mirrors memory.Params with config-friendly keys.
type MemoryCfg struct {
	Decay             float64            `mapstructure:"decay"`
	TargetRetention   float64            `mapstructure:"target_retention"`
	Multipliers       map[string]float64 `mapstructure:"multipliers"`
	RelearnMinutes    int                `mapstructure:"relearn_minutes"`
	MaxIntervalDays   float64            `mapstructure:"max_interval_days"`
	DifficultyStep    float64            `mapstructure:"difficulty_step"`
	NeutralDifficulty float64            `mapstructure:"neutral_difficulty"`
	MeanReversion     float64            `mapstructure:"mean_reversion"`
	InitialStability  map[string]float64 `mapstructure:"initial_stability"`
	InitialDifficulty float64            `mapstructure:"initial_difficulty"`
}

// CheckerCfg holds answer-validation tuning.
type CheckerCfg struct {
	TypoTolerance  bool    `mapstructure:"typo_tolerance"`
	ToleranceRatio float64 `mapstructure:"tolerance_ratio"`
	MinFuzzyLen    int     `mapstructure:"min_fuzzy_len"`
	FastResponseMs int64   `mapstructure:"fast_response_ms"`
}

// AdaptCfg holds difficulty-adaptor tuning.
type AdaptCfg struct {
	Step           float64 `mapstructure:"step"`
	FastResponseMs int64   `mapstructure:"fast_response_ms"`
	Default        float64 `mapstructure:"default"`
}

// QuizCfg holds question-generator tuning.
type QuizCfg struct {
	DistractorCount int `mapstructure:"distractor_count"`
}

// SaverCfg holds async-persistence tuning.
type SaverCfg struct {
	QueueSize       int    `mapstructure:"queue_size"`
	Retries         int    `mapstructure:"retries"`
	BackoffMs       int    `mapstructure:"backoff_ms"`
	WriteTimeoutMs  int    `mapstructure:"write_timeout_ms"`
	BreakerFailures uint32 `mapstructure:"breaker_failures"`
}

// LogCfg holds logging configuration.
type LogCfg struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional lexdrill.yaml (working
// directory or $XDG_CONFIG_HOME/lexdrill) and LEXDRILL_* environment
// variables, on top of the built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("lexdrill")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$XDG_CONFIG_HOME/lexdrill")
	v.AddConfigPath("$HOME/.config/lexdrill")

	setDefaults(v)

	v.SetEnvPrefix("LEXDRILL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	mp := memory.DefaultParams()

	v.SetDefault("student", "default")
	v.SetDefault("session.size", 10)
	v.SetDefault("session.mode", string(quiz.ModeMixed))

	v.SetDefault("memory.decay", mp.Decay)
	v.SetDefault("memory.target_retention", mp.TargetRetention)
	v.SetDefault("memory.multipliers", map[string]float64{
		"again": mp.Multiplier[memory.Again],
		"hard":  mp.Multiplier[memory.Hard],
		"good":  mp.Multiplier[memory.Good],
		"easy":  mp.Multiplier[memory.Easy],
	})
	v.SetDefault("memory.relearn_minutes", int(mp.RelearnInterval/time.Minute))
	v.SetDefault("memory.max_interval_days", mp.MaxIntervalDays)
	v.SetDefault("memory.difficulty_step", mp.DifficultyStep)
	v.SetDefault("memory.neutral_difficulty", mp.NeutralDifficulty)
	v.SetDefault("memory.mean_reversion", mp.MeanReversion)
	v.SetDefault("memory.initial_stability", map[string]float64{
		"again": mp.Default.Stability[memory.Again],
		"hard":  mp.Default.Stability[memory.Hard],
		"good":  mp.Default.Stability[memory.Good],
		"easy":  mp.Default.Stability[memory.Easy],
	})
	v.SetDefault("memory.initial_difficulty", mp.Default.Difficulty)

	cc := answercheck.DefaultConfig()
	v.SetDefault("checker.typo_tolerance", cc.TypoTolerance)
	v.SetDefault("checker.tolerance_ratio", cc.ToleranceRatio)
	v.SetDefault("checker.min_fuzzy_len", cc.MinFuzzyLen)
	v.SetDefault("checker.fast_response_ms", cc.FastResponseMs)

	ac := adaptive.DefaultConfig()
	v.SetDefault("adaptive.step", ac.Step)
	v.SetDefault("adaptive.fast_response_ms", ac.FastResponseMs)
	v.SetDefault("adaptive.default", ac.Default)

	v.SetDefault("quiz.distractor_count", quiz.DefaultConfig().DistractorCount)

	sc := engine.DefaultSaverConfig()
	v.SetDefault("saver.queue_size", sc.QueueSize)
	v.SetDefault("saver.retries", sc.Retries)
	v.SetDefault("saver.backoff_ms", int(sc.Backoff/time.Millisecond))
	v.SetDefault("saver.write_timeout_ms", int(sc.WriteTimeout/time.Millisecond))
	v.SetDefault("saver.breaker_failures", sc.BreakerFailures)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
}

// EngineConfig assembles the engine's configuration from the loaded file.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		Memory:      c.memoryParams(),
		Checker:     answercheck.Config(c.Checker),
		Adaptive:    adaptive.Config(c.Adapt),
		Generator:   quiz.Config(c.Quiz),
		SessionSize: c.Session.Size,
		Saver: engine.SaverConfig{
			QueueSize:       c.Saver.QueueSize,
			Retries:         c.Saver.Retries,
			Backoff:         time.Duration(c.Saver.BackoffMs) * time.Millisecond,
			WriteTimeout:    time.Duration(c.Saver.WriteTimeoutMs) * time.Millisecond,
			BreakerFailures: c.Saver.BreakerFailures,
		},
	}
}

func (c *Config) memoryParams() memory.Params {
	p := memory.DefaultParams()
	p.Decay = c.Memory.Decay
	p.TargetRetention = c.Memory.TargetRetention
	p.RelearnInterval = time.Duration(c.Memory.RelearnMinutes) * time.Minute
	p.MaxIntervalDays = c.Memory.MaxIntervalDays
	p.DifficultyStep = c.Memory.DifficultyStep
	p.NeutralDifficulty = c.Memory.NeutralDifficulty
	p.MeanReversion = c.Memory.MeanReversion
	if m := gradeMap(c.Memory.Multipliers); m != nil {
		p.Multiplier = m
	}
	if m := gradeMap(c.Memory.InitialStability); m != nil {
		p.Default.Stability = m
	}
	if c.Memory.InitialDifficulty > 0 {
		p.Default.Difficulty = c.Memory.InitialDifficulty
	}
	return p
}

// gradeMap converts lowercase grade keys to the Grade enum, returning nil
// when any expected key is missing.
func gradeMap(m map[string]float64) map[memory.Grade]float64 {
	if m == nil {
		return nil
	}
	out := make(map[memory.Grade]float64, 4)
	for name, g := range map[string]memory.Grade{
		"again": memory.Again,
		"hard":  memory.Hard,
		"good":  memory.Good,
		"easy":  memory.Easy,
	} {
		v, ok := m[name]
		if !ok {
			return nil
		}
		out[g] = v
	}
	return out
}

// Mode returns the configured session mode.
func (c *Config) Mode() quiz.Mode {
	return quiz.Mode(c.Session.Mode)
}
