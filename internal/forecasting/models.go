package forecasting

import (
	"fmt"
	"math"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/decomposition"
	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/stats"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

// model is the fit/predict contract shared by the candidates. The set is
// closed: newCandidates lists every implementation.
type model interface {
	id() domain.ModelID
	fit(history []float64, period int, d *domain.Decomposition) error
	predict(horizon int) []float64
	// seasonal reports whether the fitted model carries a seasonal pattern.
	seasonal() bool
	// needsSeason reports whether the model is only valid for series long
	// enough to decompose.
	needsSeason() bool
}

// newCandidates returns fresh candidates in tie-break priority order, simplest
// first.
func newCandidates() []model {
	return []model{&linearTrend{}, &expSmoothing{}, &naiveSeasonal{}}
}

func newModel(id domain.ModelID) model {
	for _, m := range newCandidates() {
		if m.id() == id {
			return m
		}
	}
	return nil
}

func fitError(id domain.ModelID, format string, args ...any) error {
	return apperrors.NewModelFitError(string(id), fmt.Sprintf(format, args...))
}

// linearTrend extrapolates an OLS line over the period index.
type linearTrend struct {
	line stats.LineFit
	n    int
}

func (m *linearTrend) id() domain.ModelID { return domain.ModelLinearTrend }
func (m *linearTrend) seasonal() bool     { return false }
func (m *linearTrend) needsSeason() bool  { return false }

func (m *linearTrend) fit(history []float64, _ int, _ *domain.Decomposition) error {
	line, err := stats.OLSIndex(history)
	if err != nil {
		return fitError(m.id(), "%v", err)
	}
	m.line, m.n = line, len(history)
	return nil
}

func (m *linearTrend) predict(horizon int) []float64 {
	out := make([]float64, horizon)
	for h := range out {
		out[h] = m.line.At(float64(m.n + h))
	}
	return out
}

// naiveSeasonal repeats the last full cycle, shifted by the change in cycle
// means between the last two cycles for every cycle elapsed. Cycle means
// carry the trend without the within-cycle pattern.
type naiveSeasonal struct {
	lastCycle []float64
	drift     float64
}

func (m *naiveSeasonal) id() domain.ModelID { return domain.ModelNaiveSeasonal }
func (m *naiveSeasonal) seasonal() bool     { return true }
func (m *naiveSeasonal) needsSeason() bool  { return true }

func (m *naiveSeasonal) fit(history []float64, period int, _ *domain.Decomposition) error {
	if period < 1 {
		return fitError(m.id(), "invalid period %d", period)
	}
	if len(history) < period {
		return fitError(m.id(), "needs one full cycle of %d periods, got %d", period, len(history))
	}
	if !stats.Finite(history) {
		return fitError(m.id(), "history contains non-finite values")
	}

	n := len(history)
	m.lastCycle = append([]float64(nil), history[n-period:]...)
	m.drift = 0
	if n >= 2*period {
		m.drift = stats.Mean(history[n-period:]) - stats.Mean(history[n-2*period:n-period])
	}
	return nil
}

func (m *naiveSeasonal) predict(horizon int) []float64 {
	period := len(m.lastCycle)
	out := make([]float64, horizon)
	for h := 1; h <= horizon; h++ {
		cycles := math.Ceil(float64(h) / float64(period))
		out[h-1] = m.lastCycle[(h-1)%period] + m.drift*cycles
	}
	return out
}

// expSmoothing is Holt's linear method, run on the seasonally adjusted
// series when a decomposition is available.
type expSmoothing struct {
	holt   holtState
	season *domain.Decomposition
	n      int
}

func (m *expSmoothing) id() domain.ModelID { return domain.ModelExpSmoothing }
func (m *expSmoothing) seasonal() bool     { return m.season != nil }
func (m *expSmoothing) needsSeason() bool  { return false }

func (m *expSmoothing) fit(history []float64, _ int, d *domain.Decomposition) error {
	if len(history) < 2 {
		return fitError(m.id(), "needs at least 2 periods, got %d", len(history))
	}
	if !stats.Finite(history) {
		return fitError(m.id(), "history contains non-finite values")
	}

	series := history
	m.season = nil
	if d != nil && len(d.Observed) >= len(history) {
		m.season = d
		series = decomposition.SeasonallyAdjust(d, history, 0)
	}
	m.holt = fitHolt(series)
	m.n = len(history)
	return nil
}

func (m *expSmoothing) predict(horizon int) []float64 {
	out := m.holt.forecast(horizon)
	if m.season != nil {
		out = decomposition.Reseasonalize(m.season, out, m.n)
	}
	return out
}

// smoothingGrid is searched in order; the first minimum wins.
var smoothingGrid = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}

type holtState struct {
	alpha, beta float64
	level       float64
	trend       float64
	sse         float64
}

func (s holtState) forecast(horizon int) []float64 {
	out := make([]float64, horizon)
	for h := 1; h <= horizon; h++ {
		out[h-1] = s.level + float64(h)*s.trend
	}
	return out
}

// fitHolt grid-searches alpha and beta by one-step-ahead squared error.
func fitHolt(y []float64) holtState {
	best := holtState{sse: math.Inf(1)}
	for _, alpha := range smoothingGrid {
		for _, beta := range smoothingGrid {
			s := runHolt(y, alpha, beta)
			if s.sse < best.sse {
				best = s
			}
		}
	}
	return best
}

func runHolt(y []float64, alpha, beta float64) holtState {
	level, trend := y[0], y[1]-y[0]
	var sse float64
	for t := 1; t < len(y); t++ {
		forecast := level + trend
		e := y[t] - forecast
		sse += e * e
		prevLevel := level
		level = alpha*y[t] + (1-alpha)*(level+trend)
		trend = beta*(level-prevLevel) + (1-beta)*trend
	}
	return holtState{alpha: alpha, beta: beta, level: level, trend: trend, sse: sse}
}
