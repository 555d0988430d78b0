package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/nandiva/stratkit/config"
	"github.com/nandiva/stratkit/indicator"
	"github.com/nandiva/stratkit/logger"
	"github.com/nandiva/stratkit/risk"
	"github.com/nandiva/stratkit/series"
)

// EMADualTrend trades EMA alignment on the working timeframe, confirmed by
// the same alignment on a higher timeframe. Long when price sits above both
// EMAs and the fast EMA leads on 5m and 1h alike; exits when price falls back
// through the fast EMA.
type EMADualTrend struct {
	Base
	cfg config.EMADualTrend

	fastCol string
	slowCol string
}

// NewEMADualTrend validates the config and wires the strategy. The provider
// must be able to serve the 1h frame for the traded pair.
func NewEMADualTrend(cfg config.EMADualTrend, provider DataProvider, log logger.Logger) (*EMADualTrend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("strategy: EMADualTrend needs a data provider for the confirmation timeframe")
	}
	return &EMADualTrend{
		Base:    newBase("ema_dual_trend", provider, log),
		cfg:     cfg,
		fastCol: fmt.Sprintf("ema%d", cfg.FastPeriod),
		slowCol: fmt.Sprintf("ema%d", cfg.SlowPeriod),
	}, nil
}

func (s *EMADualTrend) Settings() Settings {
	return Settings{
		Timeframe:            "5m",
		InformativeTimeframe: "1h",
		StartupCandles:       50,
		Stoploss:             -0.03,
		ROI: risk.ROITable{
			{After: 0, Target: 0.05},
			{After: 10 * time.Minute, Target: 0.03},
			{After: 20 * time.Minute, Target: 0.01},
			{After: 30 * time.Minute, Target: 0},
		},
		CanShort: true,
	}
}

func (s *EMADualTrend) PopulateIndicators(f *series.Frame, meta Metadata) error {
	s.observeHook("populate_indicators")

	if err := f.SetCol(s.fastCol, indicator.EMA(f.Close, s.cfg.FastPeriod)); err != nil {
		return err
	}
	if err := f.SetCol(s.slowCol, indicator.EMA(f.Close, s.cfg.SlowPeriod)); err != nil {
		return err
	}

	infoTF := s.Settings().InformativeTimeframe
	suffix := "_" + infoTF
	info, ok := s.Provider.Frame(meta.Pair, infoTF)
	if !ok || info.Len() == 0 {
		// Without confirmation data the merged columns stay NaN, which
		// silences every entry instead of trading unconfirmed.
		s.Log.Warn("informative_frame_missing",
			logger.String("pair", meta.Pair),
			logger.String("timeframe", infoTF),
		)
		return s.setNaNConfirmation(f, suffix)
	}

	if err := info.SetCol(s.fastCol, indicator.EMA(info.Close, s.cfg.FastPeriod)); err != nil {
		return err
	}
	if err := info.SetCol(s.slowCol, indicator.EMA(info.Close, s.cfg.SlowPeriod)); err != nil {
		return err
	}
	infoDur, err := series.ParseTimeframe(infoTF)
	if err != nil {
		return err
	}
	return series.MergeInformative(f, info, []string{"close", s.fastCol, s.slowCol}, suffix, infoDur)
}

func (s *EMADualTrend) setNaNConfirmation(f *series.Frame, suffix string) error {
	nan := make([]float64, f.Len())
	for i := range nan {
		nan[i] = math.NaN()
	}
	for _, name := range []string{"close" + suffix, s.fastCol + suffix, s.slowCol + suffix} {
		cp := make([]float64, len(nan))
		copy(cp, nan)
		if err := f.SetCol(name, cp); err != nil {
			return err
		}
	}
	return nil
}

func (s *EMADualTrend) PopulateEntrySignals(f *series.Frame, meta Metadata) error {
	s.observeHook("populate_entry")

	suffix := "_" + s.Settings().InformativeTimeframe
	cols, err := requireCols(f,
		s.fastCol, s.slowCol,
		"close"+suffix, s.fastCol+suffix, s.slowCol+suffix,
	)
	if err != nil {
		return err
	}
	fast, slow := cols[0], cols[1]
	closeInf, fastInf, slowInf := cols[2], cols[3], cols[4]

	long := make([]bool, f.Len())
	short := make([]bool, f.Len())
	for i := range long {
		c := f.Close[i]
		long[i] = c > fast[i] && c > slow[i] && fast[i] > slow[i] &&
			closeInf[i] > fastInf[i] && closeInf[i] > slowInf[i] && fastInf[i] > slowInf[i]
		short[i] = c < fast[i] && c < slow[i] && fast[i] < slow[i] &&
			closeInf[i] < fastInf[i] && closeInf[i] < slowInf[i] && fastInf[i] < slowInf[i]
	}

	if err := f.MarkWhere(long, series.EnterLong, series.EnterTag, "ema trend up on both timeframes"); err != nil {
		return err
	}
	if err := f.MarkWhere(short, series.EnterShort, series.EnterTag, "ema trend down on both timeframes"); err != nil {
		return err
	}
	s.recordSignals(f, series.EnterLong, series.EnterShort)
	return nil
}

func (s *EMADualTrend) PopulateExitSignals(f *series.Frame, meta Metadata) error {
	s.observeHook("populate_exit")

	cols, err := requireCols(f, s.fastCol)
	if err != nil {
		return err
	}
	fast := cols[0]

	exitLong := make([]bool, f.Len())
	exitShort := make([]bool, f.Len())
	for i := range exitLong {
		exitLong[i] = f.Close[i] < fast[i]
		exitShort[i] = f.Close[i] > fast[i]
	}

	if err := f.MarkWhere(exitLong, series.ExitLong, series.ExitTag, "price below fast ema"); err != nil {
		return err
	}
	if err := f.MarkWhere(exitShort, series.ExitShort, series.ExitTag, "price above fast ema"); err != nil {
		return err
	}
	s.recordSignals(f, series.ExitLong, series.ExitShort)
	return nil
}
