// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

// Package inventory predicts per-product stock requirements: demand
// forecasting combined with safety stock, reorder points and recommended
// order quantities.
package inventory

import (
	"math"

	"github.com/andreyyy363/Coffee-Shop/internal/timeseries"
)

// serviceLevelZ maps target service levels to standard-normal quantiles.
var serviceLevelZ = map[int]float64{
	90: 1.28,
	95: 1.645,
	97: 1.96,
	99: 2.33,
}

// defaultZ is used for unrecognized service levels (95%).
const defaultZ = 1.645

// ZScore returns the Z-score for a service level, defaulting to 1.645.
func ZScore(serviceLevel int) float64 {
	if z, ok := serviceLevelZ[serviceLevel]; ok {
		return z
	}
	return defaultZ
}

// SafetyStock computes the stock buffer against demand variability:
// Z(service level) × sample stdev of daily demand × √lead time.
// Fewer than two demand observations yield (0, 0).
func SafetyStock(dailyDemand []float64, leadTimeDays, serviceLevel int) (safetyStock, stdDev float64) {
	if len(dailyDemand) < 2 {
		return 0, 0
	}

	z := ZScore(serviceLevel)

	n := float64(len(dailyDemand))
	mean := 0.0
	for _, v := range dailyDemand {
		mean += v
	}
	mean /= n

	variance := 0.0
	for _, v := range dailyDemand {
		variance += (v - mean) * (v - mean)
	}
	variance /= n - 1
	stdDev = math.Sqrt(variance)

	safetyStock = z * stdDev * math.Sqrt(float64(leadTimeDays))
	return timeseries.Round1(safetyStock), timeseries.Round2(stdDev)
}

// ReorderPoint is the stock level that triggers a resupply order:
// expected demand over the lead time plus the safety buffer.
func ReorderPoint(avgDailyDemand float64, leadTimeDays int, safetyStock float64) float64 {
	return timeseries.Round1(avgDailyDemand*float64(leadTimeDays) + safetyStock)
}

// RecommendedOrderQty is the total forecast demand over the planning
// horizon plus safety stock, rounded up to whole units.
func RecommendedOrderQty(forecastTotal, safetyStock float64) int {
	return int(math.Ceil(forecastTotal + safetyStock))
}

// CoefficientOfVariation returns σ/μ rounded to 2 decimals, or 0 when the
// mean is not positive.
func CoefficientOfVariation(stdDev, avgDemand float64) float64 {
	if avgDemand <= 0 {
		return 0
	}
	return timeseries.Round2(stdDev / avgDemand)
}

// ClassifyDemandPattern buckets demand variability by its coefficient of
// variation.
func ClassifyDemandPattern(cv float64) string {
	switch {
	case cv < 0.5:
		return "stable"
	case cv < 1.0:
		return "variable"
	default:
		return "highly_variable"
	}
}

// ClassifyTrend compares the first and last forecast points with a 5%
// deadband.
func ClassifyTrend(forecast []float64) string {
	if len(forecast) < 2 {
		return "stable"
	}
	first, last := forecast[0], forecast[len(forecast)-1]
	switch {
	case last > first*1.05:
		return "growing"
	case last < first*0.95:
		return "declining"
	default:
		return "stable"
	}
}
