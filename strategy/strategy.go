// Package strategy defines the callback contract a host trading engine
// invokes per time step, and the strategy modules that implement it. The host
// owns the candle loop, order execution and accounting; everything here is a
// pure function over the frame the host supplies.
package strategy

import (
	"time"

	"github.com/nandiva/stratkit/risk"
	"github.com/nandiva/stratkit/series"
)

// Metadata identifies the market a hook invocation refers to.
type Metadata struct {
	Pair string
}

// Trade is the host's view of a single open position, passed into the
// stop-loss, exit and adjustment hooks.
type Trade struct {
	ID              string
	Pair            string
	IsShort         bool
	OpenRate        float64
	OpenTime        time.Time
	StakeAmount     float64
	SuccessfulExits int // partial exits already taken on this trade
}

// ProtectionRule is a host-applied trading guard surfaced by a strategy.
type ProtectionRule struct {
	Method              string
	LookbackCandles     int
	StopDurationCandles int
	TradeLimit          int
	OnlyPerPair         bool
}

// Protection method names understood by hosts.
const (
	ProtectionCooldown      = "cooldown"
	ProtectionStoplossGuard = "stoploss_guard"
)

// Settings carries the static, per-strategy knobs the host reads once at
// load time.
type Settings struct {
	Timeframe            string
	InformativeTimeframe string // empty when unused
	StartupCandles       int

	Stoploss float64 // static stop, a negative profit ratio
	ROI      risk.ROITable

	TrailingStop              bool
	TrailingPositive          float64
	TrailingOffset            float64
	TrailingOnlyOffsetReached bool

	CanShort               bool
	ExitProfitOnly         bool
	IgnoreROIIfEntrySignal bool
	ProcessOnlyNewCandles  bool

	PositionAdjustment  bool
	MaxEntryAdjustments int

	Protections []ProtectionRule
}

// Strategy is the fixed hook surface every module implements. The host calls
// the three populate hooks over the full frame once per new candle and reads
// the signal columns back through the frame's flag columns.
type Strategy interface {
	Name() string
	Settings() Settings

	PopulateIndicators(f *series.Frame, meta Metadata) error
	PopulateEntrySignals(f *series.Frame, meta Metadata) error
	PopulateExitSignals(f *series.Frame, meta Metadata) error
}

// StoplossProvider is implemented by strategies with a dynamic stop. The
// returned value replaces the static stop for the current step: negative for
// longs, positive magnitude for shorts. ok=false falls back to the static
// stop.
type StoplossProvider interface {
	CustomStoploss(f *series.Frame, trade *Trade, now time.Time, rate, profit float64) (float64, bool)
}

// ExitProvider is implemented by strategies with a bespoke exit rule beyond
// the vectorized exit columns. A true return closes the trade; the string
// names the reason.
type ExitProvider interface {
	CustomExit(f *series.Frame, trade *Trade, now time.Time, rate, profit float64) (string, bool)
}

// StakeProvider lets a strategy reshape the host's proposed stake before a
// trade opens.
type StakeProvider interface {
	CustomStake(proposed, minStake, maxStake float64, isShort bool) float64
}

// PositionAdjuster is implemented by DCA-style strategies. A positive return
// adds stake, a negative one realizes a partial exit; ok=false leaves the
// trade untouched.
type PositionAdjuster interface {
	AdjustPosition(f *series.Frame, trade *Trade, now time.Time, rate, profit, minStake, maxStake float64) (float64, bool)
}

// DataProvider hands strategies analyzed frames for other timeframes of the
// same pair, e.g. the 1h confirmation series.
type DataProvider interface {
	Frame(pair, timeframe string) (*series.Frame, bool)
}

// MapProvider is a DataProvider backed by a map. Hosts and tests register
// frames up front.
type MapProvider struct {
	frames map[string]*series.Frame
}

// NewMapProvider returns an empty provider.
func NewMapProvider() *MapProvider {
	return &MapProvider{frames: make(map[string]*series.Frame)}
}

// Register stores a frame for a pair and timeframe.
func (p *MapProvider) Register(pair, timeframe string, f *series.Frame) {
	p.frames[pair+"/"+timeframe] = f
}

// Frame returns the registered frame, if any.
func (p *MapProvider) Frame(pair, timeframe string) (*series.Frame, bool) {
	f, ok := p.frames[pair+"/"+timeframe]
	return f, ok
}
