// Package features orchestrates the terrain, climate and temporal engines:
// it turns a bundle of raw input grids into a named feature set, produces a
// per-run quality report, and flattens feature grids into the point
// matrices consumed by model training and the spatial splitter.
package features

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aquapredict-data/feature-engine/internal/climate"
	"github.com/aquapredict-data/feature-engine/internal/terrain"
)

// Config holds the tunable parameters of the feature pipeline. Fields are
// pointers (or nil-able slices) so a partial JSON config only overrides
// what it mentions; the Get* accessors supply defaults for the rest.
type Config struct {
	// TWIEpsilon bounds the TWI slope denominator away from zero.
	TWIEpsilon *float64 `json:"twi_epsilon,omitempty"`

	// TPIWindow is the neighborhood size for the topographic position
	// index; must be odd and >= 3.
	TPIWindow *int `json:"tpi_window,omitempty"`

	// SPITimescales / SPEITimescales are index timescales in time steps.
	SPITimescales  []int `json:"spi_timescales,omitempty"`
	SPEITimescales []int `json:"spei_timescales,omitempty"`

	// Distribution is the model fitted for SPI ("gamma" or "normal").
	Distribution *string `json:"distribution,omitempty"`

	// ETMethod selects the evapotranspiration estimate; only "hargreaves"
	// is supported.
	ETMethod *string `json:"et_method,omitempty"`

	// TemporalWindows are rolling-statistic window lengths in time steps.
	TemporalWindows []int `json:"temporal_windows,omitempty"`

	// LagPeriods are lag-feature shifts in time steps.
	LagPeriods []int `json:"lag_periods,omitempty"`

	// NSpatialClusters is the fold count for the spatial block splitter.
	NSpatialClusters *int `json:"n_spatial_clusters,omitempty"`
}

// Default timescale and window lists for the index and rolling features.
var (
	defaultSPITimescales   = []int{1, 3, 6, 12}
	defaultSPEITimescales  = []int{1, 3, 6, 12}
	defaultTemporalWindows = []int{7, 30, 90, 365}
	defaultLagPeriods      = []int{1, 3, 6, 12}
)

const (
	defaultTPIWindow       = 3
	defaultSpatialClusters = 5
)

// EmptyConfig returns a Config with every field unset; accessors fall back
// to defaults.
func EmptyConfig() *Config { return &Config{} }

// LoadConfig reads a JSON config file. Fields omitted from the file keep
// their defaults, so partial configs are safe.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every set field; unset fields are always valid because
// the defaults are.
func (c *Config) Validate() error {
	if c.TWIEpsilon != nil && *c.TWIEpsilon <= 0 {
		return fmt.Errorf("twi_epsilon must be > 0, got %v", *c.TWIEpsilon)
	}
	if c.TPIWindow != nil && (*c.TPIWindow < 3 || *c.TPIWindow%2 == 0) {
		return fmt.Errorf("tpi_window must be an odd integer >= 3, got %d", *c.TPIWindow)
	}
	if d := c.Distribution; d != nil {
		if *d != string(climate.DistGamma) && *d != string(climate.DistNormal) {
			return fmt.Errorf("%w: %q", climate.ErrDistribution, *d)
		}
	}
	if m := c.ETMethod; m != nil && *m != climate.MethodHargreaves {
		return fmt.Errorf("%w: %q", climate.ErrMethod, *m)
	}
	for _, ts := range append(append([]int{}, c.SPITimescales...), c.SPEITimescales...) {
		if ts < 1 {
			return fmt.Errorf("%w: got %d", climate.ErrTimescale, ts)
		}
	}
	for _, w := range c.TemporalWindows {
		if w < 1 {
			return fmt.Errorf("temporal_windows entries must be >= 1, got %d", w)
		}
	}
	for _, l := range c.LagPeriods {
		if l < 1 {
			return fmt.Errorf("lag_periods entries must be >= 1, got %d", l)
		}
	}
	if c.NSpatialClusters != nil && *c.NSpatialClusters < 1 {
		return fmt.Errorf("n_spatial_clusters must be >= 1, got %d", *c.NSpatialClusters)
	}
	return nil
}

// GetTWIEpsilon returns the configured TWI epsilon or the default.
func (c *Config) GetTWIEpsilon() float64 {
	if c.TWIEpsilon != nil {
		return *c.TWIEpsilon
	}
	return terrain.DefaultTWIEpsilon
}

// GetTPIWindow returns the configured TPI window or the default.
func (c *Config) GetTPIWindow() int {
	if c.TPIWindow != nil {
		return *c.TPIWindow
	}
	return defaultTPIWindow
}

// GetSPITimescales returns the configured SPI timescales or the defaults.
func (c *Config) GetSPITimescales() []int {
	if len(c.SPITimescales) > 0 {
		return c.SPITimescales
	}
	return defaultSPITimescales
}

// GetSPEITimescales returns the configured SPEI timescales or the defaults.
func (c *Config) GetSPEITimescales() []int {
	if len(c.SPEITimescales) > 0 {
		return c.SPEITimescales
	}
	return defaultSPEITimescales
}

// GetDistribution returns the configured SPI distribution or gamma.
func (c *Config) GetDistribution() climate.Distribution {
	if c.Distribution != nil {
		return climate.Distribution(*c.Distribution)
	}
	return climate.DistGamma
}

// GetETMethod returns the configured evapotranspiration method.
func (c *Config) GetETMethod() string {
	if c.ETMethod != nil {
		return *c.ETMethod
	}
	return climate.MethodHargreaves
}

// GetTemporalWindows returns the configured rolling windows or the defaults.
func (c *Config) GetTemporalWindows() []int {
	if len(c.TemporalWindows) > 0 {
		return c.TemporalWindows
	}
	return defaultTemporalWindows
}

// GetLagPeriods returns the configured lag periods or the defaults.
func (c *Config) GetLagPeriods() []int {
	if len(c.LagPeriods) > 0 {
		return c.LagPeriods
	}
	return defaultLagPeriods
}

// GetNSpatialClusters returns the configured spatial fold count or the
// default.
func (c *Config) GetNSpatialClusters() int {
	if c.NSpatialClusters != nil {
		return *c.NSpatialClusters
	}
	return defaultSpatialClusters
}
