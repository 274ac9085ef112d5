// Package rescue implements the GPS Return-to-Home Rescue controller: the
// phase state machine, cascaded heading/velocity/altitude controllers, and
// sanity supervisor that fly a multirotor home and land it without pilot
// input once a rescue is triggered.
package rescue

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigVersion is the persisted schema version of Config, matching the
// original firmware's PG_REGISTER_WITH_RESET_TEMPLATE version tag.
const ConfigVersion = 2

// SanityPolicy selects how strictly the sanity supervisor reacts to a
// non-healthy Failure state.
type SanityPolicy int

const (
	// SanityOff does not abort directly on a sanity failure; the engine
	// holds position (RESCUE_DO_NOTHING), and the DoNothing timeout aborts
	// after 10 seconds.
	SanityOff SanityPolicy = iota
	// SanityOn always aborts (disarms) on a sanity failure.
	SanityOn
	// SanityFailsafeOnly aborts only when the RC receiver has also lost
	// signal (a "hard" failsafe); otherwise it holds position.
	SanityFailsafeOnly
)

func (p SanityPolicy) String() string {
	switch p {
	case SanityOff:
		return "off"
	case SanityOn:
		return "on"
	case SanityFailsafeOnly:
		return "failsafe_only"
	default:
		return "unknown"
	}
}

// AltitudeMode selects how the return altitude is derived at rescue entry.
type AltitudeMode int

const (
	// AltitudeMax returns at the highest altitude seen since last disarm,
	// plus a buffer. This is the default and safest choice when terrain is
	// unknown.
	AltitudeMax AltitudeMode = iota
	// AltitudeFixed always returns at a fixed configured altitude.
	AltitudeFixed
	// AltitudeCurrent returns at the altitude held at rescue entry, plus a
	// buffer.
	AltitudeCurrent
)

func (m AltitudeMode) String() string {
	switch m {
	case AltitudeMax:
		return "max"
	case AltitudeFixed:
		return "fixed"
	case AltitudeCurrent:
		return "current"
	default:
		return "unknown"
	}
}

// Config holds the user-configurable parameters of a rescue. It is
// immutable for the duration of any single rescue; values are read, never
// mutated, by the engine's components.
type Config struct {
	Version int `yaml:"version"`

	AngleDeg                 float64 `yaml:"angle_deg"`
	InitialAltitudeM         float64 `yaml:"initial_altitude_m"`
	RescueAltitudeBufferM    float64 `yaml:"rescue_altitude_buffer_m"`
	TargetLandingAltitudeM   float64 `yaml:"target_landing_altitude_m"`
	DescentDistanceM         float64 `yaml:"descent_distance_m"`
	MinRescueDistM           float64 `yaml:"min_rescue_dth_m"`
	RescueGroundspeedCmS     float64 `yaml:"rescue_groundspeed_cm_s"`

	ThrottleP float64 `yaml:"throttle_p"`
	ThrottleI float64 `yaml:"throttle_i"`
	ThrottleD float64 `yaml:"throttle_d"`
	VelP      float64 `yaml:"vel_p"`
	VelI      float64 `yaml:"vel_i"`
	VelD      float64 `yaml:"vel_d"`
	YawP      float64 `yaml:"yaw_p"`

	ThrottleMin   float64 `yaml:"throttle_min"`
	ThrottleMax   float64 `yaml:"throttle_max"`
	ThrottleHover float64 `yaml:"throttle_hover"`

	AscendRateCmS  float64 `yaml:"ascend_rate_cm_s"`
	DescendRateCmS float64 `yaml:"descend_rate_cm_s"`

	SanityChecks SanityPolicy `yaml:"sanity_checks"`
	AltitudeMode AltitudeMode `yaml:"altitude_mode"`

	UseMag bool `yaml:"use_mag"`
	// AllowArmingWithoutFix mirrors the original firmware's general arming
	// precheck (whether the vehicle may arm at all without a GPS fix) and
	// is surfaced here only for config-file parity; it does not gate the
	// rescue engine's own phase entry, which is unconditional on mode
	// activation per spec.md §4.3.
	AllowArmingWithoutFix bool    `yaml:"allow_arming_without_fix"`
	RollMixPct            float64 `yaml:"roll_mix_pct"`

	YawControlReversed bool `yaml:"yaw_control_reversed"`
	MinSats            int  `yaml:"min_sats"`
}

// DefaultConfig returns the reset-template defaults from spec.md §3,
// matching the original firmware's PG_RESET_TEMPLATE block.
func DefaultConfig() *Config {
	return &Config{
		Version: ConfigVersion,

		AngleDeg:               32,
		InitialAltitudeM:       30,
		RescueAltitudeBufferM:  10,
		TargetLandingAltitudeM: 5,
		DescentDistanceM:       20,
		MinRescueDistM:         30,
		RescueGroundspeedCmS:   500,

		ThrottleP: 20,
		ThrottleI: 20,
		ThrottleD: 10,
		VelP:      6,
		VelI:      20,
		VelD:      70,
		YawP:      25,

		ThrottleMin:   1100,
		ThrottleMax:   1600,
		ThrottleHover: 1275,

		AscendRateCmS:  500,
		DescendRateCmS: 125,

		SanityChecks: SanityFailsafeOnly,
		AltitudeMode: AltitudeMax,

		UseMag:                false,
		AllowArmingWithoutFix: false,
		RollMixPct:            100,

		YawControlReversed: false,
		MinSats:            6,
	}
}

// Validate checks the cross-field invariants implied by spec.md §3 and
// returns a single error describing every violation found, not just the
// first.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.ThrottleMin > c.ThrottleHover {
		add("throttle_min (%.0f) must not exceed throttle_hover (%.0f)", c.ThrottleMin, c.ThrottleHover)
	}
	if c.ThrottleHover > c.ThrottleMax {
		add("throttle_hover (%.0f) must not exceed throttle_max (%.0f)", c.ThrottleHover, c.ThrottleMax)
	}
	if c.ThrottleMin >= c.ThrottleMax {
		add("throttle_min (%.0f) must be less than throttle_max (%.0f)", c.ThrottleMin, c.ThrottleMax)
	}
	if c.MinRescueDistM < 0 {
		add("min_rescue_dth_m (%.1f) must not be negative", c.MinRescueDistM)
	}
	if c.DescentDistanceM <= 0 {
		add("descent_distance_m (%.1f) must be positive", c.DescentDistanceM)
	}
	if c.AngleDeg <= 0 || c.AngleDeg > 90 {
		add("angle_deg (%.1f) must be in (0, 90]", c.AngleDeg)
	}
	if c.RollMixPct < 0 || c.RollMixPct > 100 {
		add("roll_mix_pct (%.1f) must be in [0, 100]", c.RollMixPct)
	}
	if c.MinSats < 0 {
		add("min_sats (%d) must not be negative", c.MinSats)
	}

	if len(problems) == 0 {
		return nil
	}
	err := fmt.Errorf("invalid gps rescue config:")
	for _, p := range problems {
		err = fmt.Errorf("%w\n  - %s", err, p)
	}
	return err
}

// LoadConfig reads a YAML-encoded Config from path, seeded with
// DefaultConfig for any field the file omits. If path does not exist, the
// defaults are written to path and returned.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read gps rescue config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse gps rescue config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if err := SaveConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("write default gps rescue config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML to path, creating parent directories as
// needed.
func SaveConfig(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal gps rescue config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
