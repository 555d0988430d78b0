// signalscan replays a candle file through one of the strategy modules and
// prints what the hook surface would have told a host engine: entries, exits,
// stop levels and the resulting simulated equity.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nandiva/stratkit/config"
	"github.com/nandiva/stratkit/harness"
	"github.com/nandiva/stratkit/logger"
	"github.com/nandiva/stratkit/series"
	"github.com/nandiva/stratkit/strategy"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML strategy config (built-in defaults when empty)")
		candlePath = flag.String("candles", "", "candle JSON file (required)")
		stratName  = flag.String("strategy", "band_reversion", "strategy to run: ema_dual_trend, band_reversion or weighted_dmi")
		pair       = flag.String("pair", "BTC/USDT", "pair label for logs and hook metadata")
		listen     = flag.String("listen", "", "serve prometheus metrics on this address after the run")
		riskFrac   = flag.Float64("risk", 0, "equity fraction risked per trade; 0 keeps the flat default stake")
	)
	flag.Parse()

	log, err := logger.NewZapLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}

	if err := run(log, *configPath, *candlePath, *stratName, *pair, *listen, *riskFrac); err != nil {
		log.Error("run failed", logger.Err(err))
		os.Exit(1)
	}
}

func run(log logger.Logger, configPath, candlePath, stratName, pair, listen string, riskFrac float64) error {
	if candlePath == "" {
		return fmt.Errorf("-candles is required")
	}

	cfg := &config.File{}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	data, err := os.ReadFile(candlePath)
	if err != nil {
		return err
	}
	candles, err := series.FromJSON(data)
	if err != nil {
		return err
	}
	frame := series.FromCandles(candles)

	provider := strategy.NewMapProvider()
	strat, err := buildStrategy(stratName, cfg, provider, log)
	if err != nil {
		return err
	}

	set := strat.Settings()
	if tf := set.InformativeTimeframe; tf != "" {
		d, err := series.ParseTimeframe(tf)
		if err != nil {
			return err
		}
		provider.Register(pair, tf, series.FromCandles(series.Resample(candles, d)))
	}

	log.Info("replaying candles",
		logger.String("strategy", strat.Name()),
		logger.String("pair", pair),
		logger.Int("rows", frame.Len()),
	)

	runner := harness.New(strat, log, harness.Options{Pair: pair, RiskPerTrade: riskFrac})
	res, err := runner.Run(frame, strategy.Metadata{Pair: pair})
	if err != nil {
		return err
	}

	for _, ct := range res.Closed {
		log.Info("closed trade",
			logger.String("trade", ct.Trade.ID),
			logger.Bool("short", ct.Trade.IsShort),
			logger.Time("opened", ct.Trade.OpenTime),
			logger.Time("closed", ct.CloseTime),
			logger.Float64("profit", ct.Profit),
			logger.String("reason", ct.Reason),
		)
	}
	log.Info("replay finished",
		logger.Int("closed", len(res.Closed)),
		logger.Bool("still_open", res.Open != nil),
		logger.Float64("equity", res.FinalEquity),
	)

	if listen != "" {
		http.Handle("/metrics", promhttp.Handler())
		log.Info("serving metrics", logger.String("addr", listen))
		return http.ListenAndServe(listen, nil)
	}
	return nil
}

func buildStrategy(name string, cfg *config.File, provider strategy.DataProvider, log logger.Logger) (strategy.Strategy, error) {
	switch name {
	case "ema_dual_trend":
		c := config.DefaultEMADualTrend()
		if cfg.EMADualTrend != nil {
			c = *cfg.EMADualTrend
		}
		return strategy.NewEMADualTrend(c, provider, log)
	case "band_reversion":
		c := config.DefaultBandReversion()
		if cfg.BandReversion != nil {
			c = *cfg.BandReversion
		}
		return strategy.NewBandReversion(c, log)
	case "weighted_dmi":
		c := config.DefaultWeightedDMI()
		if cfg.WeightedDMI != nil {
			c = *cfg.WeightedDMI
		}
		return strategy.NewWeightedDMI(c, log)
	}
	return nil, fmt.Errorf("unknown strategy %q", name)
}
