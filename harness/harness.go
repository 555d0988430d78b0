// Package harness replays a candle frame through a strategy's hook surface
// the way a host engine would: populate hooks once, then a per-row pass over
// entries, stops, ROI targets and adjustments against a simulated trade.
// Fills are trivial close-price fills. It is test tooling, not an execution
// engine: no scheduling, no persistence, no concurrency.
package harness

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/nandiva/stratkit/logger"
	"github.com/nandiva/stratkit/metrics"
	"github.com/nandiva/stratkit/risk"
	"github.com/nandiva/stratkit/series"
	"github.com/nandiva/stratkit/strategy"
)

// Exit reasons recorded on closed trades.
const (
	ReasonStoploss   = "stoploss"
	ReasonTrailing   = "trailing_stop"
	ReasonROI        = "roi"
	ReasonExitSignal = "exit_signal"
)

// Options configure a run.
type Options struct {
	Pair          string
	InitialEquity float64
	Stake         float64 // proposed stake per trade, before CustomStake
	MinStake      float64
	MaxStake      float64

	// RiskPerTrade, when positive, derives the proposed stake from current
	// equity and the strategy's static stop distance instead of Stake.
	RiskPerTrade float64
	// StakeStep, when positive, floors stakes to this step size.
	StakeStep float64
}

// ClosedTrade is a finished simulated position.
type ClosedTrade struct {
	Trade     strategy.Trade
	CloseTime time.Time
	CloseRate float64
	Profit    float64 // ratio on the final stake
	Reason    string
}

// Result summarizes a run.
type Result struct {
	Closed      []ClosedTrade
	Open        *strategy.Trade // position still open at the end, if any
	FinalEquity float64
}

// Runner drives one strategy over one frame.
type Runner struct {
	Strat strategy.Strategy
	Log   logger.Logger
	Opts  Options
}

// New wires a runner with sane defaults for zero-valued options.
func New(strat strategy.Strategy, log logger.Logger, opts Options) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.InitialEquity == 0 {
		opts.InitialEquity = 1000
	}
	if opts.Stake == 0 {
		opts.Stake = opts.InitialEquity / 10
	}
	if opts.MaxStake == 0 {
		opts.MaxStake = opts.InitialEquity
	}
	return &Runner{Strat: strat, Log: log, Opts: opts}
}

// position carries the mutable per-trade state between rows.
type position struct {
	trade       strategy.Trade
	peakProfit  float64
	adjustments int
}

// Run replays the frame. The populate hooks run once over the whole frame,
// then each row past the warm-up window is evaluated in order: exit checks on
// the open position, position adjustment, then entries.
func (r *Runner) Run(f *series.Frame, meta strategy.Metadata) (Result, error) {
	if err := r.Strat.PopulateIndicators(f, meta); err != nil {
		return Result{}, fmt.Errorf("harness: populate indicators: %w", err)
	}
	if err := r.Strat.PopulateEntrySignals(f, meta); err != nil {
		return Result{}, fmt.Errorf("harness: populate entries: %w", err)
	}
	if err := r.Strat.PopulateExitSignals(f, meta); err != nil {
		return Result{}, fmt.Errorf("harness: populate exits: %w", err)
	}

	set := r.Strat.Settings()
	cooldown := cooldownCandles(set.Protections)

	res := Result{FinalEquity: r.Opts.InitialEquity}
	var pos *position
	lastClose := -1 << 30 // row index of the most recent close

	for i := set.StartupCandles; i < f.Len(); i++ {
		rate := f.Close[i]
		now := f.Time[i]
		if rate <= 0 {
			continue
		}

		if pos != nil {
			profit := profitRatio(&pos.trade, rate)
			if profit > pos.peakProfit {
				pos.peakProfit = profit
			}

			if reason, ok := r.exitCheck(f, pos, i, rate, profit, set); ok {
				r.close(&res, pos, now, rate, profit, reason)
				pos = nil
				lastClose = i
				continue
			}
			r.adjust(&res, f, pos, now, rate, profit, set)
			continue
		}

		if cooldown > 0 && i-lastClose <= cooldown {
			continue
		}
		pos = r.tryOpen(f, i, rate, now, meta.Pair, set, res.FinalEquity)
	}

	if pos != nil {
		res.Open = &pos.trade
	}
	metrics.EquityGauge.Set(res.FinalEquity)
	return res, nil
}

// exitCheck runs the per-row exit cascade: stop level (dynamic or static,
// trailing folded in), ROI table, the strategy's custom exit, then the
// vectorized exit flags.
func (r *Runner) exitCheck(f *series.Frame, pos *position, i int, rate, profit float64, set strategy.Settings) (string, bool) {
	trade := &pos.trade
	now := f.Time[i]

	stop := set.Stoploss
	if sp, ok := r.Strat.(strategy.StoplossProvider); ok {
		if dyn, used := sp.CustomStoploss(f, trade, now, rate, profit); used {
			stop = dyn
			if trade.IsShort && stop > 0 {
				// Shorts report the stop as a positive magnitude.
				stop = -stop
			}
		}
	}
	if set.TrailingStop {
		level := risk.TrailingStopLevel(pos.peakProfit, stop, set.TrailingPositive, set.TrailingOffset, set.TrailingOnlyOffsetReached)
		if level > stop && profit <= level {
			return ReasonTrailing, true
		}
	}
	if profit <= stop {
		return ReasonStoploss, true
	}

	entryFlag := series.EnterLong
	exitFlag := series.ExitLong
	if trade.IsShort {
		entryFlag = series.EnterShort
		exitFlag = series.ExitShort
	}

	roiBlocked := set.IgnoreROIIfEntrySignal && f.FlagAt(entryFlag, i)
	if !roiBlocked && set.ROI.Reached(now.Sub(trade.OpenTime), profit) {
		return ReasonROI, true
	}

	if ep, ok := r.Strat.(strategy.ExitProvider); ok {
		if reason, used := ep.CustomExit(f, trade, now, rate, profit); used {
			return reason, true
		}
	}

	if f.FlagAt(exitFlag, i) {
		if set.ExitProfitOnly && profit <= 0 {
			return "", false
		}
		return ReasonExitSignal, true
	}
	return "", false
}

func (r *Runner) adjust(res *Result, f *series.Frame, pos *position, now time.Time, rate, profit float64, set strategy.Settings) {
	if !set.PositionAdjustment {
		return
	}
	pa, ok := r.Strat.(strategy.PositionAdjuster)
	if !ok {
		return
	}
	amount, ok := pa.AdjustPosition(f, &pos.trade, now, rate, profit, r.Opts.MinStake, r.Opts.MaxStake)
	if !ok || amount == 0 {
		return
	}

	trade := &pos.trade
	if amount > 0 {
		if pos.adjustments >= set.MaxEntryAdjustments {
			return
		}
		trade.OpenRate = (trade.OpenRate*trade.StakeAmount + rate*amount) / (trade.StakeAmount + amount)
		trade.StakeAmount += amount
		pos.adjustments++
		r.Log.Info("position_increased",
			logger.String("trade", trade.ID),
			logger.Float64("added", amount),
			logger.Float64("open_rate", trade.OpenRate),
		)
		return
	}

	removed := -amount
	if removed >= trade.StakeAmount {
		removed = trade.StakeAmount
	}
	res.FinalEquity += removed * profit
	trade.StakeAmount -= removed
	trade.SuccessfulExits++
	r.Log.Info("partial_exit",
		logger.String("trade", trade.ID),
		logger.Float64("removed", removed),
		logger.Float64("profit", profit),
	)
}

func (r *Runner) tryOpen(f *series.Frame, i int, rate float64, now time.Time, pair string, set strategy.Settings, equity float64) *position {
	var isShort bool
	switch {
	case f.FlagAt(series.EnterLong, i):
		isShort = false
	case set.CanShort && f.FlagAt(series.EnterShort, i):
		isShort = true
	default:
		return nil
	}

	stake := r.Opts.Stake
	if r.Opts.RiskPerTrade > 0 {
		stake = risk.CalcStake(equity, r.Opts.RiskPerTrade, math.Abs(set.Stoploss))
		if r.Opts.MaxStake > 0 && stake > r.Opts.MaxStake {
			stake = r.Opts.MaxStake
		}
	}
	if sp, ok := r.Strat.(strategy.StakeProvider); ok {
		stake = sp.CustomStake(stake, r.Opts.MinStake, r.Opts.MaxStake, isShort)
	}
	if r.Opts.StakeStep > 0 {
		stake = risk.RoundStep(stake, r.Opts.StakeStep, r.Opts.MinStake, -1)
	}
	if stake <= 0 {
		return nil
	}

	trade := strategy.Trade{
		ID:          uuid.NewString(),
		Pair:        pair,
		IsShort:     isShort,
		OpenRate:    rate,
		OpenTime:    now,
		StakeAmount: stake,
	}
	metrics.TradesOpened.WithLabelValues(r.Strat.Name()).Inc()
	r.Log.Info("trade_opened",
		logger.String("trade", trade.ID),
		logger.String("pair", pair),
		logger.Bool("short", isShort),
		logger.Float64("rate", rate),
		logger.Float64("stake", stake),
	)
	return &position{trade: trade}
}

func (r *Runner) close(res *Result, pos *position, now time.Time, rate, profit float64, reason string) {
	trade := pos.trade
	res.FinalEquity += trade.StakeAmount * profit
	res.Closed = append(res.Closed, ClosedTrade{
		Trade:     trade,
		CloseTime: now,
		CloseRate: rate,
		Profit:    profit,
		Reason:    reason,
	})
	metrics.TradesClosed.WithLabelValues(r.Strat.Name(), reason).Inc()
	r.Log.Info("trade_closed",
		logger.String("trade", trade.ID),
		logger.String("reason", reason),
		logger.Float64("profit", profit),
		logger.Float64("equity", res.FinalEquity),
	)
}

// profitRatio is the close-price profit of the position at the given rate.
func profitRatio(t *strategy.Trade, rate float64) float64 {
	if t.OpenRate <= 0 {
		return 0
	}
	if t.IsShort {
		return t.OpenRate/rate - 1
	}
	return rate/t.OpenRate - 1
}

func cooldownCandles(rules []strategy.ProtectionRule) int {
	for _, p := range rules {
		if p.Method == strategy.ProtectionCooldown {
			return p.StopDurationCandles
		}
	}
	return 0
}
