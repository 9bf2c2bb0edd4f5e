// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

// Package forecast extracts daily demand series from order history and
// generates sales forecasts with Holt-Winters smoothing, falling back to a
// moving average for short histories.
package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/andreyyy363/Coffee-Shop/internal/config"
	"github.com/andreyyy363/Coffee-Shop/internal/timeseries"
)

// SalesData is the order aggregate access the forecaster consumes.
// Implemented by the store; cancelled orders are always excluded.
type SalesData interface {
	// DailyAggregate returns one point per day with recorded sales in
	// [start, end]. Days with no sales are absent; the service zero-fills.
	DailyAggregate(ctx context.Context, metric Metric, start, end time.Time) ([]DailyPoint, error)

	// TopProducts returns the best-selling products of the trailing window,
	// ordered by revenue descending.
	TopProducts(ctx context.Context, daysBack, limit int) ([]ProductSales, error)
}

// Service generates sales and demand forecasts.
type Service struct {
	cfg      config.ForecastConfig
	smoother *timeseries.Smoother
	data     SalesData
	logger   zerolog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewService creates a forecast service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(cfg config.ForecastConfig, data SalesData, logger zerolog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		smoother: timeseries.NewSmoother(cfg.Alpha, cfg.Beta, cfg.Gamma),
		data:     data,
		logger:   logger.With().Str("component", "forecast").Logger(),
		now:      time.Now,
	}
}

// Smoother exposes the configured smoother for services that share it.
func (s *Service) Smoother() *timeseries.Smoother { return s.smoother }

// SeasonPeriod returns the configured seasonal cycle length.
func (s *Service) SeasonPeriod() int { return s.cfg.SeasonPeriod }

// MovingAverageWindow returns the configured fallback window.
func (s *Service) MovingAverageWindow() int { return s.cfg.MovingAverageWindow }

// DailySeries returns the zero-filled daily series for a metric over the
// trailing daysBack window. The result always has exactly daysBack points
// with strictly increasing dates.
func (s *Service) DailySeries(ctx context.Context, metric Metric, daysBack int) ([]DailyPoint, error) {
	end := truncateToDay(s.now())
	start := end.AddDate(0, 0, -(daysBack - 1))

	points, err := s.data.DailyAggregate(ctx, metric, start, end)
	if err != nil {
		return nil, fmt.Errorf("daily aggregate %s: %w", metric, err)
	}

	return ZeroFill(points, start, end), nil
}

// ForecastDemand selects a forecasting method for a demand series and runs
// it. All-zero histories short-circuit to a constant zero forecast; at least
// two full seasons of data select Holt-Winters; anything shorter falls back
// to the moving average. Forecast values are never negative.
func (s *Service) ForecastDemand(values []float64, horizon int) DemandForecast {
	if allZero(values) {
		return DemandForecast{
			Forecast: make([]float64, horizon),
			Smoothed: []float64{},
			Method:   MethodNoData,
		}
	}

	if len(values) >= 2*s.cfg.SeasonPeriod {
		fc, smoothed := s.smoother.HoltWintersForecast(values, horizon, s.cfg.SeasonPeriod)
		return DemandForecast{
			Forecast: fc,
			Smoothed: smoothed,
			Method:   MethodHoltWinters,
			Metrics:  timeseries.ComputeMetrics(values, smoothed),
		}
	}

	smoothed := timeseries.MovingAverage(values, s.cfg.MovingAverageWindow)
	fc := timeseries.MovingAverageForecast(values, s.cfg.MovingAverageWindow, horizon)
	for i, v := range fc {
		if v < 0 {
			fc[i] = 0
		}
	}
	return DemandForecast{
		Forecast: fc,
		Smoothed: smoothed,
		Method:   MethodMovingAverage,
		Metrics:  timeseries.ComputeMetrics(values, smoothed),
	}
}

// GenerateForecast builds the full sales forecast report for a metric:
// history, moving-average and Holt-Winters smoothing and forecasts, error
// metrics for both methods, and a summary with the forecast trend.
//
// Numeric inputs are expected to be range-clamped by the caller.
func (s *Service) GenerateForecast(ctx context.Context, metric Metric, daysBack, forecastDays int) (*Report, error) {
	daily, err := s.DailySeries(ctx, metric, daysBack)
	if err != nil {
		return nil, err
	}

	params := Params{
		Metric:       metric,
		DaysBack:     daysBack,
		ForecastDays: forecastDays,
		Alpha:        s.smoother.Alpha(),
		Beta:         s.smoother.Beta(),
		Gamma:        s.smoother.Gamma(),
		SeasonPeriod: s.cfg.SeasonPeriod,
		MAWindow:     s.cfg.MovingAverageWindow,
	}

	if len(daily) == 0 {
		return &Report{
			Dates:         []string{},
			Actual:        []float64{},
			HWSmoothed:    []*float64{},
			HWForecast:    []float64{},
			MASmoothed:    []*float64{},
			MAForecast:    []float64{},
			ForecastDates: []string{},
			Metrics:       map[string]timeseries.Metrics{},
			Params:        params,
		}, nil
	}

	values := make([]float64, len(daily))
	dates := make([]string, len(daily))
	for i, p := range daily {
		values[i] = p.Value
		dates[i] = p.Date.Format("2006-01-02")
	}

	maSmoothed := timeseries.MovingAverage(values, s.cfg.MovingAverageWindow)
	maForecast := timeseries.MovingAverageForecast(values, s.cfg.MovingAverageWindow, forecastDays)
	hwForecast, hwSmoothed := s.smoother.HoltWintersForecast(values, forecastDays, s.cfg.SeasonPeriod)

	lastDate := daily[len(daily)-1].Date
	forecastDates := make([]string, forecastDays)
	for i := 0; i < forecastDays; i++ {
		forecastDates[i] = lastDate.AddDate(0, 0, i+1).Format("2006-01-02")
	}

	report := &Report{
		Dates:         dates,
		Actual:        values,
		HWSmoothed:    optionalSeries(hwSmoothed),
		HWForecast:    hwForecast,
		MASmoothed:    optionalSeries(maSmoothed),
		MAForecast:    maForecast,
		ForecastDates: forecastDates,
		Metrics: map[string]timeseries.Metrics{
			"moving_average": timeseries.ComputeMetrics(values, maSmoothed),
			"holt_winters":   timeseries.ComputeMetrics(values, hwSmoothed),
		},
		Summary: buildSummary(values, hwForecast, forecastDays),
		Params:  params,
	}

	s.logger.Debug().
		Str("metric", string(metric)).
		Int("days_back", daysBack).
		Int("forecast_days", forecastDays).
		Str("trend", report.Summary.Trend).
		Msg("forecast generated")

	return report, nil
}

// TopProducts returns the best-selling products for the trailing window.
func (s *Service) TopProducts(ctx context.Context, daysBack, limit int) ([]ProductSales, error) {
	products, err := s.data.TopProducts(ctx, daysBack, limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	return products, nil
}

// buildSummary computes aggregate stats and the forecast trend direction.
func buildSummary(values, hwForecast []float64, forecastDays int) *Summary {
	total := 0.0
	daysWithSales := 0
	for _, v := range values {
		total += v
		if v > 0 {
			daysWithSales++
		}
	}

	forecastTotal := 0.0
	for _, v := range hwForecast {
		forecastTotal += v
	}

	trend := "stable"
	if len(hwForecast) > 0 {
		switch {
		case hwForecast[len(hwForecast)-1] > hwForecast[0]:
			trend = "up"
		case hwForecast[len(hwForecast)-1] < hwForecast[0]:
			trend = "down"
		}
	}

	sum := &Summary{
		Total:         timeseries.Round2(total),
		DaysWithSales: daysWithSales,
		TotalDays:     len(values),
		ForecastTotal: timeseries.Round2(forecastTotal),
		Trend:         trend,
	}
	if len(values) > 0 {
		sum.AvgDaily = timeseries.Round2(total / float64(len(values)))
	}
	if forecastDays > 0 {
		sum.ForecastAvgDaily = timeseries.Round2(forecastTotal / float64(forecastDays))
	}
	return sum
}

// ZeroFill expands sparse daily points into a continuous series covering
// [start, end], one entry per calendar day, zero for missing days.
func ZeroFill(points []DailyPoint, start, end time.Time) []DailyPoint {
	byDay := make(map[string]float64, len(points))
	for _, p := range points {
		byDay[p.Date.Format("2006-01-02")] = p.Value
	}

	var out []DailyPoint
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, DailyPoint{
			Date:  d,
			Value: byDay[d.Format("2006-01-02")],
		})
	}
	return out
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func allZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}
