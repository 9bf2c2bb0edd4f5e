// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

// Package timeseries implements the smoothing and forecasting primitives
// used by the sales and inventory forecasting services: simple moving
// average, single exponential smoothing, and Holt-Winters additive triple
// exponential smoothing, plus the MAE/RMSE/MAPE error metrics.
//
// Points with no defined value (the leading moving-average window, for
// example) are represented as math.NaN(); the error metrics skip them.
package timeseries

import "math"

// Default smoothing parameters.
const (
	DefaultAlpha = 0.3 // level smoothing
	DefaultBeta  = 0.1 // trend smoothing
	DefaultGamma = 0.2 // seasonal smoothing

	// DefaultSeasonPeriod is the seasonal cycle length: weekly seasonality.
	DefaultSeasonPeriod = 7
)

// Smoother applies exponential smoothing with configured constants.
// The zero value is not usable; construct with NewSmoother.
type Smoother struct {
	alpha float64
	beta  float64
	gamma float64
}

// NewSmoother creates a Smoother. Non-positive constants fall back to the
// defaults (0.3 / 0.1 / 0.2).
func NewSmoother(alpha, beta, gamma float64) *Smoother {
	if alpha <= 0 {
		alpha = DefaultAlpha
	}
	if beta <= 0 {
		beta = DefaultBeta
	}
	if gamma <= 0 {
		gamma = DefaultGamma
	}
	return &Smoother{alpha: alpha, beta: beta, gamma: gamma}
}

// Alpha returns the level smoothing constant.
func (s *Smoother) Alpha() float64 { return s.alpha }

// Beta returns the trend smoothing constant.
func (s *Smoother) Beta() float64 { return s.beta }

// Gamma returns the seasonal smoothing constant.
func (s *Smoother) Gamma() float64 { return s.gamma }

// MovingAverage computes the simple moving average over a trailing window.
// The first window-1 points are NaN (not enough data). Each defined point is
// the arithmetic mean of the trailing window, rounded to 2 decimals.
// If the series is shorter than the window, a copy of the input is returned.
func MovingAverage(data []float64, window int) []float64 {
	if len(data) < window {
		out := make([]float64, len(data))
		copy(out, data)
		return out
	}

	result := make([]float64, len(data))
	for i := 0; i < window-1; i++ {
		result[i] = math.NaN()
	}
	for i := window - 1; i < len(data); i++ {
		sum := 0.0
		for _, v := range data[i-window+1 : i+1] {
			sum += v
		}
		result[i] = Round2(sum / float64(window))
	}
	return result
}

// MovingAverageForecast projects a flat line repeating the most recent
// window average for horizon steps. With fewer points than the window the
// average of the whole series is used, and 0 for an empty series.
func MovingAverageForecast(data []float64, window, horizon int) []float64 {
	var lastAvg float64
	switch {
	case len(data) == 0:
		lastAvg = 0
	case len(data) < window:
		sum := 0.0
		for _, v := range data {
			sum += v
		}
		lastAvg = sum / float64(len(data))
	default:
		sum := 0.0
		for _, v := range data[len(data)-window:] {
			sum += v
		}
		lastAvg = sum / float64(window)
	}

	forecast := make([]float64, horizon)
	for i := range forecast {
		forecast[i] = Round2(lastAvg)
	}
	return forecast
}

// SingleExponentialSmoothing applies SES: s[0] = x[0],
// s[t] = α·x[t] + (1−α)·s[t−1]. Suitable for series with no clear trend or
// seasonality; used as the Holt-Winters fallback for short series.
func (s *Smoother) SingleExponentialSmoothing(data []float64) []float64 {
	if len(data) == 0 {
		return []float64{}
	}

	result := make([]float64, len(data))
	result[0] = data[0]
	for i := 1; i < len(data); i++ {
		result[i] = Round2(s.alpha*data[i] + (1-s.alpha)*result[i-1])
	}
	return result
}

// HoltWinters applies the additive Holt-Winters method, decomposing the
// series into level, trend and seasonal components.
//
// It requires at least two full seasons of data; shorter series degrade to
// single exponential smoothing and the returned level, trend and season
// slices are nil, signalling that no seasonal decomposition is available.
func (s *Smoother) HoltWinters(data []float64, seasonPeriod int) (smoothed, levels, trends, seasons []float64) {
	m := seasonPeriod
	if m <= 0 {
		m = DefaultSeasonPeriod
	}
	n := len(data)

	if n < 2*m {
		return s.SingleExponentialSmoothing(data), nil, nil, nil
	}

	// Initial level: mean of the first season.
	l0 := mean(data[:m])

	// Initial trend: averaged season-over-season difference.
	b0 := (mean(data[m:2*m]) - l0) / float64(m)

	// Initial seasonal components: deviation from the initial level.
	season := make([]float64, m)
	for i := 0; i < m; i++ {
		season[i] = data[i] - l0
	}

	levels = append(levels, l0)
	trends = append(trends, b0)
	seasons = append(seasons, season...)
	smoothed = append(smoothed, l0+b0+season[0])

	for t := 1; t < n; t++ {
		var sPrev float64
		if t < m {
			sPrev = season[t]
		} else {
			sPrev = seasons[t-m]
		}

		lt := s.alpha*(data[t]-sPrev) + (1-s.alpha)*(levels[len(levels)-1]+trends[len(trends)-1])
		bt := s.beta*(lt-levels[len(levels)-1]) + (1-s.beta)*trends[len(trends)-1]
		st := s.gamma*(data[t]-lt) + (1-s.gamma)*sPrev

		levels = append(levels, lt)
		trends = append(trends, bt)
		seasons = append(seasons, st)
		smoothed = append(smoothed, Round2(lt+bt+st))
	}

	return smoothed, levels, trends, seasons
}

// HoltWintersForecast extrapolates level + h·trend + seasonal component for
// h = 1..horizon, reusing the last observed season circularly. Forecast
// values are clamped to be non-negative: sales and demand cannot go below
// zero. The smoothed history is returned alongside the forecast.
func (s *Smoother) HoltWintersForecast(data []float64, horizon, seasonPeriod int) (forecast, smoothed []float64) {
	m := seasonPeriod
	if m <= 0 {
		m = DefaultSeasonPeriod
	}

	smoothed, levels, trends, seasons := s.HoltWinters(data, m)

	if levels == nil {
		// No seasonal decomposition available: flat-line the last
		// smoothed value.
		lastVal := 0.0
		if len(smoothed) > 0 {
			lastVal = smoothed[len(smoothed)-1]
		}
		forecast = make([]float64, horizon)
		for i := range forecast {
			forecast[i] = Round2(lastVal)
		}
		return forecast, smoothed
	}

	lastLevel := levels[len(levels)-1]
	lastTrend := trends[len(trends)-1]

	forecast = make([]float64, 0, horizon)
	for h := 1; h <= horizon; h++ {
		seasonIdx := len(seasons) - m + ((h - 1) % m)
		sc := 0.0
		if seasonIdx >= 0 && seasonIdx < len(seasons) {
			sc = seasons[seasonIdx]
		}
		yHat := lastLevel + float64(h)*lastTrend + sc
		forecast = append(forecast, Round2(math.Max(yHat, 0)))
	}

	return forecast, smoothed
}

func mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round1 rounds to 1 decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round3 rounds to 3 decimal places.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
