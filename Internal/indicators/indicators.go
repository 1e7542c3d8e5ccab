// Package indicators holds the technical indicator math. Every function is
// pure and total: short or empty series produce the documented fallback value
// instead of an error.
package indicators

import (
	"math"

	"github.com/fazecat/signalpulse/Internal/types"
)

const (
	RSIPeriod       = 14
	MACDFastPeriod  = 12
	MACDSlowPeriod  = 26
	EMAShortPeriod  = 50
	EMALongPeriod   = 200
	BollingerPeriod = 20
	BollingerStdDev = 2.0
	ATRPeriod       = 14
)

// RSI computes the relative strength index over the trailing period closes.
// Returns 50 (neutral) when fewer than period+1 closes are available and 100
// when the window contains no losses.
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50
	}

	var gains, losses float64
	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// EMA computes an exponential moving average seeded with the simple average
// of the first period closes. Series shorter than the period degrade to the
// available length as the effective period.
func EMA(closes []float64, period int) float64 {
	if len(closes) == 0 {
		return 0
	}
	if len(closes) < period {
		period = len(closes)
	}

	multiplier := 2.0 / float64(period+1)

	var ema float64
	for _, c := range closes[:period] {
		ema += c
	}
	ema /= float64(period)

	for _, c := range closes[period:] {
		ema = (c-ema)*multiplier + ema
	}

	return ema
}

// MACD is EMA(12) minus EMA(26) over the same close series.
func MACD(closes []float64) float64 {
	return EMA(closes, MACDFastPeriod) - EMA(closes, MACDSlowPeriod)
}

type BollingerBands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bollinger computes SMA(period) +/- stdDev standard deviations. With fewer
// than period closes the bands fall back to +/-2% of the last close.
func Bollinger(closes []float64, period int, stdDev float64) BollingerBands {
	if len(closes) < period {
		price := 100.0
		if len(closes) > 0 {
			price = closes[len(closes)-1]
		}
		return BollingerBands{Upper: price * 1.02, Middle: price, Lower: price * 0.98}
	}

	window := closes[len(closes)-period:]

	var sma float64
	for _, c := range window {
		sma += c
	}
	sma /= float64(period)

	var variance float64
	for _, c := range window {
		diff := c - sma
		variance += diff * diff
	}
	variance /= float64(period)

	sigma := math.Sqrt(variance)

	return BollingerBands{
		Upper:  sma + sigma*stdDev,
		Middle: sma,
		Lower:  sma - sigma*stdDev,
	}
}

// ATR averages the true range over the trailing period. Defaults to 1 when
// the series is too short.
func ATR(highs, lows, closes []float64, period int) float64 {
	if len(highs) < period+1 || len(lows) < period+1 || len(closes) < period+1 {
		return 1
	}

	trueRanges := make([]float64, 0, len(highs)-1)
	for i := 1; i < len(highs); i++ {
		tr := highs[i] - lows[i]
		if hc := math.Abs(highs[i] - closes[i-1]); hc > tr {
			tr = hc
		}
		if lc := math.Abs(lows[i] - closes[i-1]); lc > tr {
			tr = lc
		}
		trueRanges = append(trueRanges, tr)
	}

	window := trueRanges[len(trueRanges)-period:]
	var sum float64
	for _, tr := range window {
		sum += tr
	}
	return sum / float64(period)
}

// AvgVolume is the simple average volume over the whole window.
func AvgVolume(volumes []float64) float64 {
	if len(volumes) == 0 {
		return 0
	}
	var sum float64
	for _, v := range volumes {
		sum += v
	}
	return sum / float64(len(volumes))
}

// OBVChange is the relative change between the last two volume samples,
// 0 when fewer than 2 are available.
func OBVChange(volumes []float64) float64 {
	if len(volumes) < 2 {
		return 0
	}
	prev := volumes[len(volumes)-2]
	if prev == 0 {
		return 0
	}
	return (volumes[len(volumes)-1] - prev) / prev
}

// Compute derives the full indicator set from a daily candle series.
func Compute(candles []types.Candle) types.IndicatorSet {
	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
		volumes[i] = c.Volume
	}

	bb := Bollinger(closes, BollingerPeriod, BollingerStdDev)

	return types.IndicatorSet{
		RSI:            round2(RSI(closes, RSIPeriod)),
		MACD:           round4(MACD(closes)),
		EMA50:          round2(EMA(closes, EMAShortPeriod)),
		EMA200:         round2(EMA(closes, EMALongPeriod)),
		BollingerUpper: round2(bb.Upper),
		BollingerLower: round2(bb.Lower),
		ATR:            round4(ATR(highs, lows, closes, ATRPeriod)),
		Volume:         int64(AvgVolume(volumes)),
		OBVChange:      round4(OBVChange(volumes)),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
