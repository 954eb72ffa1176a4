package depthnoise

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Units is the depth unit of incoming samples.
type Units string

// The supported depth units.
const (
	Meters      Units = "meters"
	Millimeters Units = "millimeters"
)

// ParseUnits accepts both the short and long unit names. An empty string means meters.
func ParseUnits(s string) (Units, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "m", "meters":
		return Meters, nil
	case "mm", "millimeters":
		return Millimeters, nil
	default:
		return "", NewInvalidConfigurationError("depth_units", fmt.Sprintf("unknown depth units %q", s))
	}
}

// Config holds noise parameters as configured. Depths and coefficients are always given in
// meters; DepthUnits declares the unit of the incoming samples.
type Config struct {
	Constant         float64 `json:"constant_noise"`
	Linear           float64 `json:"linear_noise"`
	Quadratic        float64 `json:"quadratic_noise"`
	PixelInterval    int     `json:"pixel_interval_for_noise_addition"`
	ZMax             float64 `json:"z_max_for_noise_addition"`
	ZMin             float64 `json:"z_min_for_noise_addition"`
	DepthUnits       string  `json:"depth_units"`
	ClipAbove        float64 `json:"clip_depth_after"`
	ClipBelow        float64 `json:"clip_depth_before"`
	InjectEverywhere bool    `json:"add_noise_everywhere"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	field := func(name string) string {
		if path == "" {
			return name
		}
		return path + "." + name
	}
	if cfg.PixelInterval < 1 {
		return NewInvalidConfigurationError(field("pixel_interval_for_noise_addition"),
			fmt.Sprintf("must be at least 1, got %d", cfg.PixelInterval))
	}
	if cfg.ZMin > cfg.ZMax {
		return NewInvalidConfigurationError(field("z_min_for_noise_addition"),
			fmt.Sprintf("%v is greater than z_max_for_noise_addition %v", cfg.ZMin, cfg.ZMax))
	}
	if cfg.ClipBelow > cfg.ClipAbove {
		return NewInvalidConfigurationError(field("clip_depth_before"),
			fmt.Sprintf("%v is greater than clip_depth_after %v", cfg.ClipBelow, cfg.ClipAbove))
	}
	if _, err := ParseUnits(cfg.DepthUnits); err != nil {
		var invalid *InvalidConfigurationError
		if errors.As(err, &invalid) {
			invalid.Field = field(invalid.Field)
		}
		return err
	}
	return nil
}

// NoiseModel is a validated noise configuration expressed in the units of the incoming samples.
// It is immutable once built.
type NoiseModel struct {
	Constant         float64
	Linear           float64
	Quadratic        float64
	PixelInterval    int
	ZMin             float64
	ZMax             float64
	ClipBelow        float64
	ClipAbove        float64
	Units            Units
	InjectEverywhere bool
}

// NewNoiseModel validates cfg and scales it into sample units. For millimeter samples every
// depth and coefficient is multiplied by 1000, once, here.
func NewNoiseModel(cfg *Config) (*NoiseModel, error) {
	if cfg == nil {
		return nil, errors.New("no noise config")
	}
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	units, err := ParseUnits(cfg.DepthUnits)
	if err != nil {
		return nil, err
	}
	scale := 1.0
	if units == Millimeters {
		scale = 1000
	}
	return &NoiseModel{
		Constant:         cfg.Constant * scale,
		Linear:           cfg.Linear * scale,
		Quadratic:        cfg.Quadratic * scale,
		PixelInterval:    cfg.PixelInterval,
		ZMin:             cfg.ZMin * scale,
		ZMax:             cfg.ZMax * scale,
		ClipBelow:        cfg.ClipBelow * scale,
		ClipAbove:        cfg.ClipAbove * scale,
		Units:            units,
		InjectEverywhere: cfg.InjectEverywhere,
	}, nil
}

// Validate checks the invariants the transform relies on. Models built by NewNoiseModel always
// pass; literal models may not.
func (m *NoiseModel) Validate() error {
	if m.PixelInterval < 1 {
		return NewInvalidConfigurationError("pixel_interval_for_noise_addition",
			fmt.Sprintf("must be at least 1, got %d", m.PixelInterval))
	}
	if m.ZMin > m.ZMax {
		return NewInvalidConfigurationError("z_min_for_noise_addition",
			fmt.Sprintf("%v is greater than z_max_for_noise_addition %v", m.ZMin, m.ZMax))
	}
	return nil
}

// Sigma is the noise standard deviation at the given depth.
func (m *NoiseModel) Sigma(depth float64) float64 {
	return m.Constant + m.Linear*depth + m.Quadratic*depth*depth
}

// Clipped reports whether a depth lies outside the clip band.
func (m *NoiseModel) Clipped(depth float64) bool {
	return depth < m.ClipBelow || depth > m.ClipAbove
}

// InNoiseBand reports whether a depth lies inside [ZMin, ZMax].
func (m *NoiseModel) InNoiseBand(depth float64) bool {
	return depth >= m.ZMin && depth <= m.ZMax
}

// Sampled reports whether the pixel at index i receives noise computation.
func (m *NoiseModel) Sampled(i int) bool {
	return i%m.PixelInterval == 0
}

// MidBand is the depth everywhere-injection centers its noise on.
func (m *NoiseModel) MidBand() float64 {
	return (m.ZMax + m.ZMin) / 2
}
