package rescue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_AccumulatesAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ThrottleMin = 1700
	cfg.ThrottleMax = 1600
	cfg.AngleDeg = 0
	cfg.RollMixPct = 150

	err := cfg.Validate()
	assert.Error(t, err)
	assert.ErrorContains(t, err, "throttle_min")
	assert.ErrorContains(t, err, "angle_deg")
	assert.ErrorContains(t, err, "roll_mix_pct")
}

func TestLoadConfig_WritesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gps_rescue.yaml")

	cfg, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestLoadConfig_OverlaysExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gps_rescue.yaml")

	seed := DefaultConfig()
	seed.AngleDeg = 45
	assert.NoError(t, SaveConfig(path, seed))

	cfg, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, 45.0, cfg.AngleDeg)
	assert.Equal(t, seed.ThrottleHover, cfg.ThrottleHover)
}

func TestLoadConfig_RejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gps_rescue.yaml")

	seed := DefaultConfig()
	seed.DescentDistanceM = -5
	assert.NoError(t, SaveConfig(path, seed))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "descent_distance_m")
}
