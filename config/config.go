// Package config holds the tunable parameter sets for each strategy module.
// Defaults mirror the tuned values the strategies ship with; Validate keeps
// every knob inside the range it was tuned over.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EMADualTrend parametrizes the dual-timeframe EMA trend strategy.
type EMADualTrend struct {
	FastPeriod int `yaml:"fast_period"`
	SlowPeriod int `yaml:"slow_period"`
}

// DefaultEMADualTrend returns the shipped EMA periods.
func DefaultEMADualTrend() EMADualTrend {
	return EMADualTrend{FastPeriod: 13, SlowPeriod: 21}
}

func (c *EMADualTrend) Validate() error {
	if c.FastPeriod <= 0 || c.SlowPeriod <= 0 {
		return fmt.Errorf("EMA periods must be positive, got fast=%d slow=%d", c.FastPeriod, c.SlowPeriod)
	}
	if c.FastPeriod >= c.SlowPeriod {
		return fmt.Errorf("fast period (%d) must be shorter than slow period (%d)", c.FastPeriod, c.SlowPeriod)
	}
	return nil
}

func (c *EMADualTrend) UnmarshalYAML(value *yaml.Node) error {
	*c = DefaultEMADualTrend()
	type plain EMADualTrend
	return value.Decode((*plain)(c))
}

// BandReversion parametrizes the Bollinger band reversion strategy.
type BandReversion struct {
	BBLength     int     `yaml:"bb_length"`     // band window, tuned over 10..30
	BBDev        float64 `yaml:"bb_dev"`        // band width in stddevs, tuned over 1.4..2.2
	VolumeFilter float64 `yaml:"volume_filter"` // volume vs volume-MA multiple, tuned over 1.0..1.5
	TrendFilter  bool    `yaml:"trend_filter"`  // require ADX > 30 on entries

	ATRPeriod   int `yaml:"atr_period"`
	ADXPeriod   int `yaml:"adx_period"`
	VolMAPeriod int `yaml:"vol_ma_period"`

	// Dynamic stop and take-profit bounds.
	MinStop     float64 `yaml:"min_stop"`
	MaxStop     float64 `yaml:"max_stop"`
	RewardRatio float64 `yaml:"reward_ratio"`
	MinTarget   float64 `yaml:"min_target"`
	MaxTarget   float64 `yaml:"max_target"`
}

// DefaultBandReversion returns the shipped band-reversion parameters.
func DefaultBandReversion() BandReversion {
	return BandReversion{
		BBLength:     20,
		BBDev:        1.8,
		VolumeFilter: 1.1,
		TrendFilter:  true,
		ATRPeriod:    14,
		ADXPeriod:    14,
		VolMAPeriod:  20,
		MinStop:      0.03,
		MaxStop:      0.07,
		RewardRatio:  4,
		MinTarget:    0.05,
		MaxTarget:    0.15,
	}
}

func (c *BandReversion) Validate() error {
	if c.BBLength < 10 || c.BBLength > 30 {
		return fmt.Errorf("bb_length (%d) must be within [10,30]", c.BBLength)
	}
	if c.BBDev < 1.4 || c.BBDev > 2.2 {
		return fmt.Errorf("bb_dev (%g) must be within [1.4,2.2]", c.BBDev)
	}
	if c.VolumeFilter < 1.0 || c.VolumeFilter > 1.5 {
		return fmt.Errorf("volume_filter (%g) must be within [1.0,1.5]", c.VolumeFilter)
	}
	if c.ATRPeriod <= 0 || c.ADXPeriod <= 0 || c.VolMAPeriod <= 0 {
		return fmt.Errorf("indicator periods must be positive")
	}
	if c.MinStop <= 0 || c.MaxStop < c.MinStop {
		return fmt.Errorf("stop bounds [%g,%g] are not an increasing positive range", c.MinStop, c.MaxStop)
	}
	if c.RewardRatio <= 0 {
		return fmt.Errorf("reward_ratio (%g) must be positive", c.RewardRatio)
	}
	if c.MinTarget <= 0 || c.MaxTarget < c.MinTarget {
		return fmt.Errorf("target bounds [%g,%g] are not an increasing positive range", c.MinTarget, c.MaxTarget)
	}
	return nil
}

func (c *BandReversion) UnmarshalYAML(value *yaml.Node) error {
	*c = DefaultBandReversion()
	type plain BandReversion
	return value.Decode((*plain)(c))
}

// WeightedDMI parametrizes the volume-weighted directional momentum strategy.
type WeightedDMI struct {
	ADXThreshold float64 `yaml:"adx_threshold"` // tuned over 20..40
	RSIThreshold float64 `yaml:"rsi_threshold"` // tuned over 30..70

	ATRPeriod       int `yaml:"atr_period"`
	RSIPeriod       int `yaml:"rsi_period"`
	TrendEMAPeriod  int `yaml:"trend_ema_period"`
	SmoothingPeriod int `yaml:"smoothing_period"` // SMA window of the volume weighting

	MaxVolatility float64 `yaml:"max_volatility"` // ATR/close ceiling on entries
	ATRMultiplier float64 `yaml:"atr_multiplier"` // dynamic stop distance, tuned over 1.0..5.0

	// DCA head-room and adjustment thresholds.
	MaxDCAMultiplier  float64 `yaml:"max_dca_multiplier"`
	ProfitTakeTrigger float64 `yaml:"profit_take_trigger"`
	DCAStakeFactor    float64 `yaml:"dca_stake_factor"`

	// Protections surfaced to the host.
	CooldownLookback  int  `yaml:"cooldown_lookback"`
	StopDuration      int  `yaml:"stop_duration"`
	UseStopProtection bool `yaml:"use_stop_protection"`
}

// DefaultWeightedDMI returns the shipped weighted-DMI parameters.
func DefaultWeightedDMI() WeightedDMI {
	return WeightedDMI{
		ADXThreshold:      21,
		RSIThreshold:      64,
		ATRPeriod:         14,
		RSIPeriod:         14,
		TrendEMAPeriod:    200,
		SmoothingPeriod:   30,
		MaxVolatility:     0.05,
		ATRMultiplier:     4.097,
		MaxDCAMultiplier:  1.5,
		ProfitTakeTrigger: 0.10,
		DCAStakeFactor:    0.6,
		CooldownLookback:  3,
		StopDuration:      224,
		UseStopProtection: false,
	}
}

func (c *WeightedDMI) Validate() error {
	if c.ADXThreshold < 20 || c.ADXThreshold > 40 {
		return fmt.Errorf("adx_threshold (%g) must be within [20,40]", c.ADXThreshold)
	}
	if c.RSIThreshold < 30 || c.RSIThreshold > 70 {
		return fmt.Errorf("rsi_threshold (%g) must be within [30,70]", c.RSIThreshold)
	}
	if c.ATRMultiplier < 1.0 || c.ATRMultiplier > 5.0 {
		return fmt.Errorf("atr_multiplier (%g) must be within [1.0,5.0]", c.ATRMultiplier)
	}
	if c.ATRPeriod <= 0 || c.RSIPeriod <= 0 || c.TrendEMAPeriod <= 0 || c.SmoothingPeriod <= 0 {
		return fmt.Errorf("indicator periods must be positive")
	}
	if c.MaxVolatility <= 0 || c.MaxVolatility > 1 {
		return fmt.Errorf("max_volatility (%g) must be within (0,1]", c.MaxVolatility)
	}
	if c.MaxDCAMultiplier < 1 {
		return fmt.Errorf("max_dca_multiplier (%g) must be at least 1", c.MaxDCAMultiplier)
	}
	if c.DCAStakeFactor <= 0 || c.DCAStakeFactor > 1 {
		return fmt.Errorf("dca_stake_factor (%g) must be within (0,1]", c.DCAStakeFactor)
	}
	if c.CooldownLookback < 2 || c.CooldownLookback > 48 {
		return fmt.Errorf("cooldown_lookback (%d) must be within [2,48]", c.CooldownLookback)
	}
	if c.StopDuration < 12 || c.StopDuration > 240 {
		return fmt.Errorf("stop_duration (%d) must be within [12,240]", c.StopDuration)
	}
	return nil
}

func (c *WeightedDMI) UnmarshalYAML(value *yaml.Node) error {
	*c = DefaultWeightedDMI()
	type plain WeightedDMI
	return value.Decode((*plain)(c))
}

// File is the on-disk configuration: one optional section per strategy.
type File struct {
	EMADualTrend  *EMADualTrend  `yaml:"ema_dual_trend"`
	BandReversion *BandReversion `yaml:"band_reversion"`
	WeightedDMI   *WeightedDMI   `yaml:"weighted_dmi"`
}

// Load reads and validates a YAML config file. Sections that are absent stay
// nil; present sections are filled over their defaults.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML config bytes.
func Parse(data []byte) (*File, error) {
	f := &File{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if f.EMADualTrend != nil {
		if err := f.EMADualTrend.Validate(); err != nil {
			return nil, fmt.Errorf("ema_dual_trend: %w", err)
		}
	}
	if f.BandReversion != nil {
		if err := f.BandReversion.Validate(); err != nil {
			return nil, fmt.Errorf("band_reversion: %w", err)
		}
	}
	if f.WeightedDMI != nil {
		if err := f.WeightedDMI.Validate(); err != nil {
			return nil, fmt.Errorf("weighted_dmi: %w", err)
		}
	}
	return f, nil
}
