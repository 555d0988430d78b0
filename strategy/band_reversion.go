package strategy

import (
	"math"
	"time"

	"github.com/nandiva/stratkit/config"
	"github.com/nandiva/stratkit/indicator"
	"github.com/nandiva/stratkit/logger"
	"github.com/nandiva/stratkit/risk"
	"github.com/nandiva/stratkit/series"
)

// BandReversion fades moves beyond the Bollinger bands when volume confirms
// and the directional indicators agree. Stops and take-profit scale with ATR
// through the custom stop-loss and custom exit hooks.
type BandReversion struct {
	Base
	cfg config.BandReversion
}

// NewBandReversion validates the config and wires the strategy.
func NewBandReversion(cfg config.BandReversion, log logger.Logger) (*BandReversion, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &BandReversion{
		Base: newBase("band_reversion", nil, log),
		cfg:  cfg,
	}, nil
}

func (s *BandReversion) Settings() Settings {
	startup := s.cfg.BBLength
	if s.cfg.VolMAPeriod > startup {
		startup = s.cfg.VolMAPeriod
	}
	if adx := 2 * s.cfg.ADXPeriod; adx > startup {
		startup = adx
	}
	return Settings{
		Timeframe:      "15m",
		StartupCandles: startup,
		Stoploss:       -0.15,
		// Exits come from CustomExit; the single huge ROI target disables
		// the table without removing it.
		ROI: risk.ROITable{{After: 0, Target: 100}},

		TrailingStop:              true,
		TrailingPositive:          0.07,
		TrailingOnlyOffsetReached: true,

		// Short signals are still populated, but the host only acts on them
		// when shorting is enabled; this module leaves it off.
		CanShort: false,
	}
}

func (s *BandReversion) PopulateIndicators(f *series.Frame, meta Metadata) error {
	s.observeHook("populate_indicators")

	upper, middle, lower := indicator.Bollinger(f.Close, s.cfg.BBLength, s.cfg.BBDev)
	if err := f.SetCol("bb_upper", upper); err != nil {
		return err
	}
	if err := f.SetCol("bb_middle", middle); err != nil {
		return err
	}
	if err := f.SetCol("bb_lower", lower); err != nil {
		return err
	}

	if err := f.SetCol("atr", indicator.ATR(f.High, f.Low, f.Close, s.cfg.ATRPeriod)); err != nil {
		return err
	}
	if err := f.SetCol("volume_ma", indicator.SMA(f.Volume, s.cfg.VolMAPeriod)); err != nil {
		return err
	}

	plusDI, minusDI, _, adx := indicator.DMI(f.High, f.Low, f.Close, s.cfg.ADXPeriod)
	if err := f.SetCol("plus_di", plusDI); err != nil {
		return err
	}
	if err := f.SetCol("minus_di", minusDI); err != nil {
		return err
	}
	return f.SetCol("adx", adx)
}

func (s *BandReversion) PopulateEntrySignals(f *series.Frame, meta Metadata) error {
	s.observeHook("populate_entry")

	cols, err := requireCols(f, "bb_lower", "bb_upper", "volume_ma", "adx", "plus_di", "minus_di")
	if err != nil {
		return err
	}
	bbLower, bbUpper, volMA := cols[0], cols[1], cols[2]
	adx, plusDI, minusDI := cols[3], cols[4], cols[5]

	long := make([]bool, f.Len())
	short := make([]bool, f.Len())
	for i := range long {
		volumeOK := f.Volume[i] > volMA[i]*s.cfg.VolumeFilter
		trendOK := !s.cfg.TrendFilter || adx[i] > 30

		long[i] = f.Close[i] < bbLower[i] && volumeOK && trendOK && plusDI[i] > minusDI[i]
		short[i] = f.Close[i] > bbUpper[i] && volumeOK && trendOK && minusDI[i] > plusDI[i]
	}

	if err := f.MarkWhere(long, series.EnterLong, series.EnterTag, "close under lower band"); err != nil {
		return err
	}
	if err := f.MarkWhere(short, series.EnterShort, series.EnterTag, "close over upper band"); err != nil {
		return err
	}
	s.recordSignals(f, series.EnterLong, series.EnterShort)
	return nil
}

func (s *BandReversion) PopulateExitSignals(f *series.Frame, meta Metadata) error {
	s.observeHook("populate_exit")

	cols, err := requireCols(f, "bb_middle", "plus_di", "minus_di")
	if err != nil {
		return err
	}
	bbMiddle, plusDI, minusDI := cols[0], cols[1], cols[2]

	bearFlip := indicator.CrossedAbove(minusDI, plusDI)
	bullFlip := indicator.CrossedAbove(plusDI, minusDI)

	exitLong := make([]bool, f.Len())
	exitShort := make([]bool, f.Len())
	for i := range exitLong {
		exitLong[i] = f.Close[i] > bbMiddle[i] && bearFlip[i]
		exitShort[i] = f.Close[i] < bbMiddle[i] && bullFlip[i]
	}

	if err := f.MarkWhere(exitLong, series.ExitLong, series.ExitTag, "momentum flipped over middle band"); err != nil {
		return err
	}
	if err := f.MarkWhere(exitShort, series.ExitShort, series.ExitTag, "momentum flipped under middle band"); err != nil {
		return err
	}
	s.recordSignals(f, series.ExitLong, series.ExitShort)
	return nil
}

// CustomStoploss scales the stop with ATR relative to the current rate,
// clamped to the configured bounds. Longs get the negative ratio, shorts the
// positive magnitude. Without a usable ATR the host keeps the static stop.
func (s *BandReversion) CustomStoploss(f *series.Frame, trade *Trade, now time.Time, rate, profit float64) (float64, bool) {
	s.observeHook("custom_stoploss")

	atr, ok := f.Last("atr")
	if !ok || math.IsNaN(atr) || rate <= 0 {
		return 0, false
	}
	dyn := risk.Clamp(atr/rate, s.cfg.MinStop, s.cfg.MaxStop)
	if trade.IsShort {
		return dyn, true
	}
	return -dyn, true
}

// CustomExit takes profit at a fixed multiple of the dynamic stop distance,
// bounded to the configured target range.
func (s *BandReversion) CustomExit(f *series.Frame, trade *Trade, now time.Time, rate, profit float64) (string, bool) {
	s.observeHook("custom_exit")

	atr, ok := f.Last("atr")
	if !ok || math.IsNaN(atr) || rate <= 0 {
		return "", false
	}
	stopDist := risk.Clamp(atr/rate, s.cfg.MinStop, s.cfg.MaxStop)
	target := risk.Clamp(s.cfg.RewardRatio*stopDist, s.cfg.MinTarget, s.cfg.MaxTarget)
	if profit >= target {
		return "dynamic take profit", true
	}
	return "", false
}
