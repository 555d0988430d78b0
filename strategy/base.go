package strategy

import (
	"fmt"

	"github.com/nandiva/stratkit/logger"
	"github.com/nandiva/stratkit/metrics"
	"github.com/nandiva/stratkit/series"
)

// Base bundles the dependencies every strategy module shares and the hook
// bookkeeping around them.
type Base struct {
	Log      logger.Logger
	Provider DataProvider

	name string
}

func newBase(name string, provider DataProvider, log logger.Logger) Base {
	if log == nil {
		log = logger.NewNop()
	}
	return Base{Log: log, Provider: provider, name: name}
}

// Name returns the strategy identifier used in logs and metrics.
func (b *Base) Name() string { return b.name }

func (b *Base) observeHook(hook string) {
	metrics.HookInvocations.WithLabelValues(b.name, hook).Inc()
}

// recordSignals counts freshly flagged rows into the signal metrics and logs
// a summary per column.
func (b *Base) recordSignals(f *series.Frame, cols ...string) {
	for _, col := range cols {
		n := 0
		for _, v := range f.Flag(col) {
			if v {
				n++
			}
		}
		if n == 0 {
			continue
		}
		metrics.SignalsFlagged.WithLabelValues(b.name, col).Add(float64(n))
		b.Log.Info("signals_flagged",
			logger.String("strategy", b.name),
			logger.String("column", col),
			logger.Int("rows", n),
		)
	}
}

// requireCols resolves named columns off the frame, erroring when any is
// missing. Entry and exit hooks use it so that running them before the
// indicator hook fails loudly instead of flagging nothing.
func requireCols(f *series.Frame, names ...string) ([][]float64, error) {
	out := make([][]float64, len(names))
	for i, name := range names {
		col := f.Col(name)
		if col == nil {
			return nil, fmt.Errorf("strategy: missing column %q, indicators not populated", name)
		}
		out[i] = col
	}
	return out, nil
}
