// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

package forecast

import (
	"math"
	"time"

	"github.com/andreyyy363/Coffee-Shop/internal/timeseries"
)

// Metric selects which order aggregate is forecast.
type Metric string

const (
	// MetricRevenue forecasts daily revenue.
	MetricRevenue Metric = "revenue"
	// MetricOrders forecasts daily order counts.
	MetricOrders Metric = "orders"
)

// Valid reports whether the metric is one the data layer can aggregate.
func (m Metric) Valid() bool {
	return m == MetricRevenue || m == MetricOrders
}

// Method identifies which forecasting method produced a result.
type Method int

const (
	// MethodNoData indicates the history was empty or all zeros.
	MethodNoData Method = iota
	// MethodMovingAverage is the 7-day moving-average fallback.
	MethodMovingAverage
	// MethodHoltWinters is triple exponential smoothing with weekly seasonality.
	MethodHoltWinters
)

// String returns the method identifier used in reports and logs.
func (m Method) String() string {
	switch m {
	case MethodHoltWinters:
		return "holt_winters"
	case MethodMovingAverage:
		return "moving_average"
	case MethodNoData:
		return "no_data"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the method as its string identifier.
func (m Method) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// DailyPoint is one calendar day of an aggregated series.
type DailyPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// DemandForecast is the outcome of forecasting a single demand series.
type DemandForecast struct {
	// Forecast holds non-negative predicted values, one per horizon day.
	Forecast []float64 `json:"forecast"`

	// Smoothed is the smoothed history; empty for MethodNoData. Leading
	// moving-average points may be NaN (undefined).
	Smoothed []float64 `json:"-"`

	// Method is the forecasting method that was selected.
	Method Method `json:"method"`

	// Metrics are the error metrics of the smoothed history.
	Metrics timeseries.Metrics `json:"metrics"`
}

// Summary aggregates a generated forecast for dashboard display.
type Summary struct {
	Total            float64 `json:"total"`
	AvgDaily         float64 `json:"avg_daily"`
	DaysWithSales    int     `json:"days_with_sales"`
	TotalDays        int     `json:"total_days"`
	ForecastTotal    float64 `json:"forecast_total"`
	ForecastAvgDaily float64 `json:"forecast_avg_daily"`
	Trend            string  `json:"trend"`
}

// Params echoes the parameters a forecast was generated with.
type Params struct {
	Metric       Metric  `json:"metric"`
	DaysBack     int     `json:"days_back"`
	ForecastDays int     `json:"forecast_days"`
	Alpha        float64 `json:"alpha"`
	Beta         float64 `json:"beta"`
	Gamma        float64 `json:"gamma"`
	SeasonPeriod int     `json:"season_period"`
	MAWindow     int     `json:"ma_window"`
}

// Report is the full sales forecast payload returned to the presentation
// layer: history, both smoothers, both forecasts, error metrics and summary.
type Report struct {
	Dates         []string                      `json:"dates"`
	Actual        []float64                     `json:"actual"`
	HWSmoothed    []*float64                    `json:"hw_smoothed"`
	HWForecast    []float64                     `json:"hw_forecast"`
	MASmoothed    []*float64                    `json:"ma_smoothed"`
	MAForecast    []float64                     `json:"ma_forecast"`
	ForecastDates []string                      `json:"forecast_dates"`
	Metrics       map[string]timeseries.Metrics `json:"metrics"`
	Summary       *Summary                      `json:"summary,omitempty"`
	Params        Params                        `json:"params"`
}

// ProductSales is one row of the top-selling-products ranking.
type ProductSales struct {
	ProductID int     `json:"product_id"`
	Name      string  `json:"product_name"`
	Quantity  int     `json:"total_qty"`
	Revenue   float64 `json:"total_revenue"`
}

// optionalSeries converts a smoothed series into a JSON-friendly form where
// undefined (NaN) points become null.
func optionalSeries(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if math.IsNaN(values[i]) {
			continue
		}
		v := values[i]
		out[i] = &v
	}
	return out
}
