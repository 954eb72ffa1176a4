// Package config defines the configuration of a depth noiser process.
package config

import (
	"time"

	"github.com/pkg/errors"

	"go.viam.com/depthnoise/rimage/depthnoise"
	"go.viam.com/depthnoise/utils"
)

// DefaultRateHz matches the polling rate of a typical depth camera driver.
const DefaultRateHz = 60

// Config describes how frames are noised and delivered.
type Config struct {
	ConfigFilePath string `json:"-"`

	// Noise holds the depthnoise.Config attributes.
	Noise utils.AttributeMap `json:"noise"`
	// Seed seeds the normal draw stream once at startup.
	Seed uint64 `json:"seed"`
	// RateHz is how often the host checks for a new frame.
	RateHz float64 `json:"rate_hz,omitempty"`
	// Topic is the sensor_msgs/Image topic to read depth frames from.
	Topic string `json:"topic,omitempty"`
	// DropUnsupportedEncodings skips frames of unknown encoding instead of stopping.
	DropUnsupportedEncodings bool `json:"drop_unsupported_encodings,omitempty"`
	// Workers > 1 processes rows concurrently with one draw stream per row.
	Workers int `json:"workers,omitempty"`

	noise *depthnoise.Config
}

// Validate ensures all parts of the config are valid and decodes the noise attributes.
func (c *Config) Validate() error {
	if c.Noise == nil {
		return depthnoise.NewInvalidConfigurationError("noise", "noise attributes are required")
	}
	noise, err := utils.TransformAttributeMap[*depthnoise.Config](c.Noise)
	if err != nil {
		return errors.Wrap(err, "cannot parse noise attributes")
	}
	if err := noise.Validate("noise"); err != nil {
		return err
	}
	if c.RateHz < 0 {
		return errors.Errorf("rate_hz must not be negative, got %v", c.RateHz)
	}
	if c.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", c.Workers)
	}
	c.noise = noise
	return nil
}

// NoiseModel builds the noise model, scaling units exactly once.
func (c *Config) NoiseModel() (*depthnoise.NoiseModel, error) {
	if c.noise == nil {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	return depthnoise.NewNoiseModel(c.noise)
}

// Period is the interval between checks for a new frame.
func (c *Config) Period() time.Duration {
	rate := c.RateHz
	if rate == 0 {
		rate = DefaultRateHz
	}
	return time.Duration(float64(time.Second) / rate)
}
