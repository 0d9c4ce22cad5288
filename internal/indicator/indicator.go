package indicator

import (
	"math"

	"bandarscan/internal/domain/models"
)

// Periods are intentionally short: the synthesized series represents a single
// session, so the indicators are tuned for intraday signals.
const (
	RSIPeriod        = 9
	SMAPeriod        = 10
	EMAPeriod        = 5
	MACDFast         = 5
	MACDSlow         = 13
	MACDSignal       = 4
	BollingerPeriod  = 10
	BollingerStdDev  = 1.5
	StochasticPeriod = 5
	StochasticSignal = 2
	VWAPWindow       = 5
)

// Every function returns nil when the input series is shorter than the
// indicator's minimum required length. Callers treat nil as "undecidable".

// SMA returns the simple moving average of the last period values.
func SMA(values []float64, period int) *float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return ptr(sum / float64(period))
}

// EMA returns the exponential moving average seeded with an SMA of the first
// period values.
func EMA(values []float64, period int) *float64 {
	s := emaSeries(values, period)
	if len(s) == 0 {
		return nil
	}
	return ptr(s[len(s)-1])
}

// emaSeries returns the EMA value for each index from period-1 onward.
func emaSeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	mult := 2.0 / float64(period+1)
	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	out := make([]float64, 0, len(values)-period+1)
	cur := seed / float64(period)
	out = append(out, cur)
	for _, v := range values[period:] {
		cur = v*mult + cur*(1-mult)
		out = append(out, cur)
	}
	return out
}

// RSI returns the Relative Strength Index using Wilder's smoothing.
// Requires period+1 values (one delta per period).
func RSI(values []float64, period int) *float64 {
	if period <= 0 || len(values) < period+1 {
		return nil
	}
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	p := float64(period)
	for i := period + 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
	}

	if avgLoss == 0 {
		return ptr(100.0)
	}
	rs := avgGain / avgLoss
	return ptr(100 - 100/(1+rs))
}

// MACD returns the MACD line, signal line and histogram for the final bar.
// Requires slow+signal-1 values so the signal line has enough MACD points.
func MACD(values []float64, fast, slow, signal int) models.MACDValue {
	if len(values) < slow+signal-1 {
		return models.MACDValue{}
	}
	fastS := emaSeries(values, fast)
	slowS := emaSeries(values, slow)

	// Align: slowS starts (slow-fast) entries later than fastS.
	offset := slow - fast
	macd := make([]float64, len(slowS))
	for i := range slowS {
		macd[i] = fastS[i+offset] - slowS[i]
	}

	sigS := emaSeries(macd, signal)
	if len(sigS) == 0 {
		return models.MACDValue{}
	}
	line := macd[len(macd)-1]
	sig := sigS[len(sigS)-1]
	return models.MACDValue{
		Line:      ptr(line),
		Signal:    ptr(sig),
		Histogram: ptr(line - sig),
	}
}

// Bollinger returns the upper/middle/lower bands over the last period values.
func Bollinger(values []float64, period int, stdDev float64) models.BollingerValue {
	mid := SMA(values, period)
	if mid == nil {
		return models.BollingerValue{}
	}
	window := values[len(values)-period:]
	var variance float64
	for _, v := range window {
		d := v - *mid
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(period))
	return models.BollingerValue{
		Upper:  ptr(*mid + stdDev*sd),
		Middle: mid,
		Lower:  ptr(*mid - stdDev*sd),
	}
}

// Stochastic returns the fast %K and its %D signal for the final bar.
// Requires period+signal-1 bars.
func Stochastic(highs, lows, closes []float64, period, signal int) models.StochasticValue {
	n := len(closes)
	if n < period+signal-1 || len(highs) != n || len(lows) != n {
		return models.StochasticValue{}
	}

	kAt := func(i int) float64 {
		hh := highs[i-period+1]
		ll := lows[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			hh = math.Max(hh, highs[j])
			ll = math.Min(ll, lows[j])
		}
		if hh == ll {
			return 50
		}
		return (closes[i] - ll) / (hh - ll) * 100
	}

	var dSum float64
	for i := n - signal; i < n; i++ {
		dSum += kAt(i)
	}
	return models.StochasticValue{
		K: ptr(kAt(n - 1)),
		D: ptr(dSum / float64(signal)),
	}
}

// TrailingVWAP averages the running VWAP over the last window bars.
func TrailingVWAP(bars []models.SyntheticBar, window int) *float64 {
	if window <= 0 || len(bars) < window {
		return nil
	}
	var sum float64
	for _, b := range bars[len(bars)-window:] {
		sum += b.VWAP
	}
	return ptr(sum / float64(window))
}

// Compute evaluates the full indicator set over a synthesized series.
func Compute(bars []models.SyntheticBar) models.IndicatorSet {
	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}
	return models.IndicatorSet{
		RSI:   RSI(closes, RSIPeriod),
		SMA:   SMA(closes, SMAPeriod),
		EMA:   EMA(closes, EMAPeriod),
		MACD:  MACD(closes, MACDFast, MACDSlow, MACDSignal),
		BB:    Bollinger(closes, BollingerPeriod, BollingerStdDev),
		Stoch: Stochastic(highs, lows, closes, StochasticPeriod, StochasticSignal),
		VWAP:  TrailingVWAP(bars, VWAPWindow),
	}
}

func ptr(v float64) *float64 { return &v }
