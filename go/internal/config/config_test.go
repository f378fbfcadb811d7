package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRulesDefaults(t *testing.T) {
	rules, err := LoadRules("")
	require.NoError(t, err)

	assert.Equal(t, DefaultRules(), rules)
	assert.Equal(t, 2, rules.WinThreshold())
	assert.NoError(t, rules.Validate())
}

func TestLoadRulesOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	body := "total_rounds: 5\ncountdown: 1500ms\nforfeit_grace: 0s\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)

	assert.Equal(t, 5, rules.TotalRounds)
	assert.Equal(t, 3, rules.WinThreshold())
	assert.Equal(t, 1500*time.Millisecond, rules.Countdown)
	assert.Equal(t, time.Duration(0), rules.ForfeitGrace)
	assert.Equal(t, 15*time.Second, rules.FinishGrace, "unset keys keep defaults")
}

func TestLoadRulesRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("total_rounds: 0\nmin_goal_ms: 9000\nmax_goal_ms: 1000\n"), 0o600))

	_, err := LoadRules(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total_rounds")
	assert.Contains(t, err.Error(), "goal bounds")
}

func TestValidateGoalBounds(t *testing.T) {
	cases := []struct {
		name     string
		min, max int
		ok       bool
	}{
		{"full range", 5000, 10000, true},
		{"narrowed", 6000, 8000, true},
		{"single goal", 7000, 7000, true},
		{"below floor", 4999, 10000, false},
		{"above ceiling", 5000, 10001, false},
		{"inverted", 9000, 6000, false},
		{"zero", 0, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rules := DefaultRules()
			rules.MinGoalMs = tc.min
			rules.MaxGoalMs = tc.max

			err := rules.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "goal bounds")
		})
	}
}

func TestLoadRulesRejectsGoalOutsideRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_goal_ms: 1000\nmax_goal_ms: 20000\n"), 0o600))

	_, err := LoadRules(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must lie within [5000,10000]")
}

func TestLoadRulesMissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadServerConfig(t *testing.T) {
	t.Setenv("DUEL_PORT", "9999")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.Empty(t, cfg.RedisURL)
}

func TestServerConfigLevelFallback(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ServerConfig{LogLevel: "loud"}.Level())
	assert.Equal(t, zerolog.InfoLevel, ServerConfig{}.Level())
}
