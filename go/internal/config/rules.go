package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Goal times always fall within this range, whatever the rules file says.
const (
	MinGoalFloorMs   = 5000
	MaxGoalCeilingMs = 10000
)

// Rules are the tunable timings and limits of a duel.
type Rules struct {
	TotalRounds      int           `yaml:"total_rounds"`
	Countdown        time.Duration `yaml:"countdown"`
	InterRoundDelay  time.Duration `yaml:"inter_round_delay"`
	NextRoundDelay   time.Duration `yaml:"next_round_delay"`
	FinishGrace      time.Duration `yaml:"finish_grace"`
	ForfeitGrace     time.Duration `yaml:"forfeit_grace"`
	StaleThreshold   time.Duration `yaml:"stale_threshold"`
	SweepInterval    time.Duration `yaml:"sweep_interval"`
	PresenceInterval time.Duration `yaml:"presence_interval"`
	SessionTTL       time.Duration `yaml:"session_ttl"`
	MinGoalMs        int           `yaml:"min_goal_ms"`
	MaxGoalMs        int           `yaml:"max_goal_ms"`
}

// DefaultRules returns the standard best-of-three rules.
func DefaultRules() Rules {
	return Rules{
		TotalRounds:      3,
		Countdown:        3000 * time.Millisecond,
		InterRoundDelay:  3000 * time.Millisecond,
		NextRoundDelay:   3000 * time.Millisecond,
		FinishGrace:      15 * time.Second,
		ForfeitGrace:     2 * time.Second,
		StaleThreshold:   30 * time.Second,
		SweepInterval:    30 * time.Second,
		PresenceInterval: 30 * time.Second,
		SessionTTL:       30 * time.Minute,
		MinGoalMs:        MinGoalFloorMs,
		MaxGoalMs:        MaxGoalCeilingMs,
	}
}

// WinThreshold is the score that ends a match early.
func (r Rules) WinThreshold() int {
	return (r.TotalRounds + 1) / 2
}

// Validate checks that the rules describe a playable match.
func (r Rules) Validate() error {
	var errs []error
	if r.TotalRounds < 1 {
		errs = append(errs, fmt.Errorf("total_rounds must be at least 1, got %d", r.TotalRounds))
	}
	if r.MinGoalMs < MinGoalFloorMs || r.MaxGoalMs > MaxGoalCeilingMs || r.MaxGoalMs < r.MinGoalMs {
		errs = append(errs, fmt.Errorf("goal bounds [%d,%d] must lie within [%d,%d]",
			r.MinGoalMs, r.MaxGoalMs, MinGoalFloorMs, MaxGoalCeilingMs))
	}
	if r.Countdown < 0 || r.InterRoundDelay < 0 || r.NextRoundDelay < 0 || r.FinishGrace < 0 || r.ForfeitGrace < 0 {
		errs = append(errs, errors.New("delays cannot be negative"))
	}
	if r.SweepInterval <= 0 || r.PresenceInterval <= 0 {
		errs = append(errs, errors.New("sweep_interval and presence_interval must be positive"))
	}
	if r.StaleThreshold <= 0 || r.SessionTTL <= 0 {
		errs = append(errs, errors.New("stale_threshold and session_ttl must be positive"))
	}
	return errors.Join(errs...)
}

// LoadRules reads a YAML rules file over the defaults. An empty path
// returns the defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, fmt.Errorf("invalid rules: %w", err)
	}
	return rules, nil
}
