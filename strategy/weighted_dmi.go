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

// dcaDrawdownScale scales the ATR-relative drawdown that triggers an
// averaging-down buy.
const dcaDrawdownScale = 0.05

// WeightedDMI trades directional momentum measured by a volume-weighted ADX
// system, gated by a long EMA regime filter and a volatility ceiling. It
// averages down on ATR-scaled drawdowns and banks half the stake once a
// trade runs far enough.
type WeightedDMI struct {
	Base
	cfg config.WeightedDMI
}

// NewWeightedDMI validates the config and wires the strategy.
func NewWeightedDMI(cfg config.WeightedDMI, log logger.Logger) (*WeightedDMI, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &WeightedDMI{
		Base: newBase("weighted_dmi", nil, log),
		cfg:  cfg,
	}, nil
}

func (s *WeightedDMI) Settings() Settings {
	protections := []ProtectionRule{
		{Method: ProtectionCooldown, StopDurationCandles: s.cfg.CooldownLookback},
	}
	if s.cfg.UseStopProtection {
		protections = append(protections, ProtectionRule{
			Method:              ProtectionStoplossGuard,
			LookbackCandles:     24 * 3,
			TradeLimit:          1,
			StopDurationCandles: s.cfg.StopDuration,
			OnlyPerPair:         false,
		})
	}
	return Settings{
		Timeframe:      "5m",
		StartupCandles: 200,
		Stoploss:       -0.349,
		ROI: risk.ROITable{
			{After: 0, Target: 0.253},
			{After: 16 * time.Minute, Target: 0.075},
			{After: 70 * time.Minute, Target: 0.025},
			{After: 112 * time.Minute, Target: 0},
		},

		TrailingStop:     true,
		TrailingPositive: 0.2,
		TrailingOffset:   0.276,

		CanShort:               true,
		ExitProfitOnly:         true,
		IgnoreROIIfEntrySignal: true,
		ProcessOnlyNewCandles:  true,

		PositionAdjustment:  true,
		MaxEntryAdjustments: 3,

		Protections: protections,
	}
}

func (s *WeightedDMI) PopulateIndicators(f *series.Frame, meta Metadata) error {
	s.observeHook("populate_indicators")

	atr := indicator.ATR(f.High, f.Low, f.Close, s.cfg.ATRPeriod)
	if err := f.SetCol("atr", atr); err != nil {
		return err
	}
	if err := f.SetCol("rsi", indicator.RSI(f.Close, s.cfg.RSIPeriod)); err != nil {
		return err
	}

	trendEMA := indicator.EMA(f.Close, s.cfg.TrendEMAPeriod)
	if err := f.SetCol("trend_ema", trendEMA); err != nil {
		return err
	}
	regime := make([]float64, f.Len())
	for i := range regime {
		switch {
		case math.IsNaN(trendEMA[i]):
			regime[i] = math.NaN()
		case f.Close[i] > trendEMA[i]:
			regime[i] = 1
		default:
			regime[i] = -1
		}
	}
	if err := f.SetCol("market_trend", regime); err != nil {
		return err
	}

	// The directional system is smoothed by volume so that thin bars carry
	// less weight than busy ones.
	rawPlus, rawMinus, rawDX, rawADX := indicator.DMI(f.High, f.Low, f.Close, s.cfg.ATRPeriod)
	if err := f.SetCol("dx", indicator.VolumeWeighted(rawDX, f.Volume, s.cfg.SmoothingPeriod)); err != nil {
		return err
	}
	if err := f.SetCol("adx", indicator.VolumeWeighted(rawADX, f.Volume, s.cfg.SmoothingPeriod)); err != nil {
		return err
	}
	if err := f.SetCol("plus_di", indicator.VolumeWeighted(rawPlus, f.Volume, s.cfg.SmoothingPeriod)); err != nil {
		return err
	}
	if err := f.SetCol("minus_di", indicator.VolumeWeighted(rawMinus, f.Volume, s.cfg.SmoothingPeriod)); err != nil {
		return err
	}

	volatility := make([]float64, f.Len())
	for i := range volatility {
		if f.Close[i] > 0 {
			volatility[i] = atr[i] / f.Close[i]
		} else {
			volatility[i] = math.NaN()
		}
	}
	return f.SetCol("volatility", volatility)
}

func (s *WeightedDMI) PopulateEntrySignals(f *series.Frame, meta Metadata) error {
	s.observeHook("populate_entry")

	cols, err := requireCols(f, "market_trend", "dx", "plus_di", "minus_di", "adx", "rsi", "volatility")
	if err != nil {
		return err
	}
	regime, dx, plusDI, minusDI := cols[0], cols[1], cols[2], cols[3]
	adx, rsi, volatility := cols[4], cols[5], cols[6]

	dxOverPlus := indicator.CrossedAbove(dx, plusDI)
	dxOverMinus := indicator.CrossedAbove(dx, minusDI)

	long := make([]bool, f.Len())
	short := make([]bool, f.Len())
	for i := range long {
		calm := volatility[i] < s.cfg.MaxVolatility

		long[i] = regime[i] == 1 && dxOverPlus[i] &&
			adx[i] > s.cfg.ADXThreshold &&
			plusDI[i] > minusDI[i] &&
			rsi[i] > s.cfg.RSIThreshold &&
			calm

		short[i] = regime[i] == -1 && dxOverMinus[i] &&
			adx[i] > s.cfg.ADXThreshold &&
			minusDI[i] > plusDI[i] &&
			rsi[i] < (100-s.cfg.RSIThreshold) &&
			calm
	}

	if err := f.MarkWhere(long, series.EnterLong, series.EnterTag, "weighted dmi breakout long"); err != nil {
		return err
	}
	if err := f.MarkWhere(short, series.EnterShort, series.EnterTag, "weighted dmi breakout short"); err != nil {
		return err
	}
	s.recordSignals(f, series.EnterLong, series.EnterShort)
	return nil
}

func (s *WeightedDMI) PopulateExitSignals(f *series.Frame, meta Metadata) error {
	s.observeHook("populate_exit")

	cols, err := requireCols(f, "dx", "adx", "atr")
	if err != nil {
		return err
	}
	dx, adx, atr := cols[0], cols[1], cols[2]

	// Dynamic stop distance surfaced as a column for the host.
	stopDist := make([]float64, f.Len())
	for i := range stopDist {
		stopDist[i] = atr[i] * s.cfg.ATRMultiplier
	}
	if err := f.SetCol("stop_dist", stopDist); err != nil {
		return err
	}

	fading := indicator.CrossedBelow(dx, adx)

	exitLong := make([]bool, f.Len())
	exitShort := make([]bool, f.Len())
	for i := range exitLong {
		exitLong[i] = fading[i] && adx[i] > s.cfg.ADXThreshold
		exitShort[i] = fading[i] && adx[i] <= s.cfg.ADXThreshold
	}

	if err := f.MarkWhere(exitLong, series.ExitLong, series.ExitTag, "directional momentum fading"); err != nil {
		return err
	}
	if err := f.MarkWhere(exitShort, series.ExitShort, series.ExitTag, "directional momentum fading"); err != nil {
		return err
	}
	s.recordSignals(f, series.ExitLong, series.ExitShort)
	return nil
}

// CustomStake shrinks the host's proposed stake so later averaging-down buys
// fit inside the same budget.
func (s *WeightedDMI) CustomStake(proposed, minStake, maxStake float64, isShort bool) float64 {
	s.observeHook("custom_stake")

	adjusted := proposed / s.cfg.MaxDCAMultiplier
	if adjusted < minStake {
		return minStake
	}
	return adjusted
}

// AdjustPosition banks half the stake once profit clears the trigger (once
// per trade), and averages down when the drawdown beats an ATR-scaled
// threshold.
func (s *WeightedDMI) AdjustPosition(f *series.Frame, trade *Trade, now time.Time, rate, profit, minStake, maxStake float64) (float64, bool) {
	s.observeHook("adjust_position")

	if profit > s.cfg.ProfitTakeTrigger && trade.SuccessfulExits == 0 {
		return -(trade.StakeAmount / 2), true
	}

	atr, ok := f.Last("atr")
	if !ok || math.IsNaN(atr) || rate <= 0 {
		return 0, false
	}
	if profit < -dcaDrawdownScale*(atr/rate) {
		add := trade.StakeAmount * s.cfg.DCAStakeFactor
		if maxStake > 0 && add > maxStake {
			add = maxStake
		}
		s.Log.Info("averaging_down",
			logger.String("trade", trade.ID),
			logger.Float64("profit", profit),
			logger.Float64("add_stake", add),
		)
		return add, true
	}
	return 0, false
}
