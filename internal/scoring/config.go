package scoring

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const weightTolerance = 1e-9

// Weights are the per-dimension contributions to the raw total. They must sum to 1.
type Weights struct {
	Feelings      float64 `yaml:"feelings"`
	Understanding float64 `yaml:"understanding"`
	Interaction   float64 `yaml:"interaction"`
	Energy        float64 `yaml:"energy"`
	Drive         float64 `yaml:"drive"`
	Stability     float64 `yaml:"stability"`
}

func (w Weights) vector() [NumDimensions]float64 {
	return [NumDimensions]float64{w.Feelings, w.Understanding, w.Interaction, w.Energy, w.Drive, w.Stability}
}

func (w Weights) Sum() float64 {
	sum := 0.0
	for _, v := range w.vector() {
		sum += v
	}
	return sum
}

// Smoothing blends today's raw total with the mean of up to Window prior raw totals.
type Smoothing struct {
	TodayWeight   float64 `yaml:"today_weight"`
	HistoryWeight float64 `yaml:"history_weight"`
	Window        int     `yaml:"window"`
}

// GoodEnough is the conjunctive gate: smoothed >= MinSmoothed and at least
// MinComponents component scores >= ComponentFloor.
type GoodEnough struct {
	MinSmoothed    float64 `yaml:"min_smoothed"`
	ComponentFloor float64 `yaml:"component_floor"`
	MinComponents  int     `yaml:"min_components"`
}

// BandRule applies to smoothed scores >= Min. Rules are ordered highest Min first;
// the last rule is the catch-all.
type BandRule struct {
	Min   float64 `yaml:"min"`
	Label string  `yaml:"label"`
	Color string  `yaml:"color"`
}

type Config struct {
	Weights    Weights    `yaml:"weights"`
	Smoothing  Smoothing  `yaml:"smoothing"`
	GoodEnough GoodEnough `yaml:"good_enough"`
	Bands      []BandRule `yaml:"bands"`
}

func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Feelings:      0.20,
			Understanding: 0.15,
			Interaction:   0.15,
			Energy:        0.20,
			Drive:         0.15,
			Stability:     0.15,
		},
		Smoothing: Smoothing{
			TodayWeight:   0.7,
			HistoryWeight: 0.3,
			Window:        3,
		},
		GoodEnough: GoodEnough{
			MinSmoothed:    70,
			ComponentFloor: 60,
			MinComponents:  5,
		},
		Bands: []BandRule{
			{Min: 80, Label: "Very Good", Color: "#28a745"},
			{Min: 60, Label: "Good", Color: "#74c655"},
			{Min: 40, Label: "Fair", Color: "#ffc107"},
			{Min: math.Inf(-1), Label: "High Risk", Color: "#dc3545"},
		},
	}
}

func (c Config) Validate() error {
	var errs []error
	for i, w := range c.Weights.vector() {
		if w < 0 {
			errs = append(errs, fmt.Errorf("weight for %s is negative: %v", Dimension(i), w))
		}
	}
	if sum := c.Weights.Sum(); math.Abs(sum-1.0) > weightTolerance {
		errs = append(errs, fmt.Errorf("weights must sum to 1.0, got %v", sum))
	}
	if c.Smoothing.TodayWeight < 0 || c.Smoothing.HistoryWeight < 0 {
		errs = append(errs, errors.New("smoothing weights must be non-negative"))
	}
	if sum := c.Smoothing.TodayWeight + c.Smoothing.HistoryWeight; math.Abs(sum-1.0) > weightTolerance {
		errs = append(errs, fmt.Errorf("smoothing weights must sum to 1.0, got %v", sum))
	}
	if c.Smoothing.Window <= 0 {
		errs = append(errs, fmt.Errorf("smoothing window must be positive, got %d", c.Smoothing.Window))
	}
	if c.GoodEnough.MinComponents < 0 || c.GoodEnough.MinComponents > NumDimensions {
		errs = append(errs, fmt.Errorf("good_enough.min_components must be in [0,%d], got %d", NumDimensions, c.GoodEnough.MinComponents))
	}
	if len(c.Bands) == 0 {
		errs = append(errs, errors.New("at least one band is required"))
	}
	for i, b := range c.Bands {
		if strings.TrimSpace(b.Label) == "" {
			errs = append(errs, fmt.Errorf("band %d has no label", i))
		}
		if i > 0 && b.Min >= c.Bands[i-1].Min {
			errs = append(errs, fmt.Errorf("bands must be ordered by descending min (band %d)", i))
		}
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML file over DefaultConfig. Omitted sections keep their
// defaults; a supplied bands list replaces the default list wholesale.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read scoring config: %w", err)
	}
	var file struct {
		Weights    *Weights    `yaml:"weights"`
		Smoothing  *Smoothing  `yaml:"smoothing"`
		GoodEnough *GoodEnough `yaml:"good_enough"`
		Bands      []bandFile  `yaml:"bands"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Config{}, fmt.Errorf("parse scoring config: %w", err)
	}
	if file.Weights != nil {
		cfg.Weights = *file.Weights
	}
	if file.Smoothing != nil {
		cfg.Smoothing = *file.Smoothing
	}
	if file.GoodEnough != nil {
		cfg.GoodEnough = *file.GoodEnough
	}
	if len(file.Bands) > 0 {
		cfg.Bands = make([]BandRule, 0, len(file.Bands))
		for _, b := range file.Bands {
			floor := math.Inf(-1)
			if b.Min != nil {
				floor = *b.Min
			}
			cfg.Bands = append(cfg.Bands, BandRule{Min: floor, Label: b.Label, Color: b.Color})
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid scoring config %s: %w", path, err)
	}
	return cfg, nil
}

// A band without min is the catch-all.
type bandFile struct {
	Min   *float64 `yaml:"min"`
	Label string   `yaml:"label"`
	Color string   `yaml:"color"`
}
