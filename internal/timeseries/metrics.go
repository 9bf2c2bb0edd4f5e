// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

package timeseries

import "math"

// Metrics bundles the forecast error metrics computed over a smoothed
// history.
type Metrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	MAPE float64 `json:"mape"`
}

// ComputeMetrics returns MAE, RMSE and MAPE for the given series.
func ComputeMetrics(actual, predicted []float64) Metrics {
	return Metrics{
		MAE:  MAE(actual, predicted),
		RMSE: RMSE(actual, predicted),
		MAPE: MAPE(actual, predicted),
	}
}

// MAE computes the mean absolute error over pairs where the prediction is
// defined (non-NaN). Returns 0 when no pairs qualify.
func MAE(actual, predicted []float64) float64 {
	sum, n := 0.0, 0
	for i := 0; i < len(actual) && i < len(predicted); i++ {
		if math.IsNaN(predicted[i]) {
			continue
		}
		sum += math.Abs(actual[i] - predicted[i])
		n++
	}
	if n == 0 {
		return 0
	}
	return Round2(sum / float64(n))
}

// RMSE computes the root mean square error over pairs where the prediction
// is defined (non-NaN). Returns 0 when no pairs qualify.
func RMSE(actual, predicted []float64) float64 {
	sum, n := 0.0, 0
	for i := 0; i < len(actual) && i < len(predicted); i++ {
		if math.IsNaN(predicted[i]) {
			continue
		}
		d := actual[i] - predicted[i]
		sum += d * d
		n++
	}
	if n == 0 {
		return 0
	}
	return Round2(math.Sqrt(sum / float64(n)))
}

// MAPE computes the mean absolute percentage error, in percent, over pairs
// where the prediction is defined and the actual value is non-zero.
//
// Skipping zero actuals is a known blind spot for sparse series (a day with
// zero sales contributes nothing to the error), but it is the documented
// behaviour and changing it would break comparability of historical metrics.
func MAPE(actual, predicted []float64) float64 {
	sum, n := 0.0, 0
	for i := 0; i < len(actual) && i < len(predicted); i++ {
		if math.IsNaN(predicted[i]) || actual[i] == 0 {
			continue
		}
		sum += math.Abs((actual[i] - predicted[i]) / actual[i])
		n++
	}
	if n == 0 {
		return 0
	}
	return Round1(sum / float64(n) * 100)
}
