// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/andreyyy363/Coffee-Shop/internal/config"
	"github.com/andreyyy363/Coffee-Shop/internal/forecast"
	"github.com/andreyyy363/Coffee-Shop/internal/timeseries"
)

// ErrNoData indicates a product has no demand history in the window.
var ErrNoData = errors.New("no demand data")

// DemandData is the per-product demand access the planner consumes.
// Implemented by the store; cancelled orders are always excluded.
type DemandData interface {
	// ProductDailyQuantity returns per-day sold quantities for one product
	// in [start, end]. Days with no sales are absent.
	ProductDailyQuantity(ctx context.Context, productID int, start, end time.Time) ([]forecast.DailyPoint, error)

	// SoldProducts returns every product sold in [start, end] with its
	// total units, ordered by units descending.
	SoldProducts(ctx context.Context, start, end time.Time) ([]SoldProduct, error)

	// ProductName resolves a product's display name, falling back to the
	// denormalized order-line snapshot when the product row is gone.
	ProductName(ctx context.Context, productID int) (string, error)
}

// SoldProduct is one row of the sold-products aggregate.
type SoldProduct struct {
	ProductID int
	Name      string
	TotalSold int
}

// ProductAnalysis is the full inventory recommendation for one product.
type ProductAnalysis struct {
	ProductID   int    `json:"product_id"`
	ProductName string `json:"product_name"`
	TotalSold   int    `json:"total_sold"`

	// Historical stats
	AvgDailyDemand float64 `json:"avg_daily_demand"`
	MaxDailyDemand float64 `json:"max_daily_demand"`
	DemandStd      float64 `json:"demand_std"`
	DaysWithSales  int     `json:"days_with_sales"`
	TotalDays      int     `json:"total_days"`
	CV             float64 `json:"cv"`
	DemandPattern  string  `json:"demand_pattern"`

	// Forecast
	Forecast         []float64          `json:"forecast"`
	ForecastTotal    float64            `json:"forecast_total"`
	ForecastAvgDaily float64            `json:"forecast_avg_daily"`
	ForecastMethod   forecast.Method    `json:"forecast_method"`
	ForecastMetrics  timeseries.Metrics `json:"forecast_metrics"`
	Trend            string             `json:"trend"`

	// Inventory recommendations
	SafetyStock         float64 `json:"safety_stock"`
	ReorderPoint        float64 `json:"reorder_point"`
	RecommendedOrderQty int     `json:"recommended_order_qty"`

	// Chart data
	Dates         []string   `json:"dates,omitempty"`
	History       []float64  `json:"history,omitempty"`
	Smoothed      []*float64 `json:"smoothed,omitempty"`
	ForecastDates []string   `json:"forecast_dates,omitempty"`
}

// Summary aggregates an inventory forecast run.
type Summary struct {
	TotalProducts         int     `json:"total_products"`
	TotalRecommendedUnits int     `json:"total_recommended_units"`
	GrowingProducts       int     `json:"growing_products"`
	DecliningProducts     int     `json:"declining_products"`
	StableProducts        int     `json:"stable_products"`
	AvgSafetyStock        float64 `json:"avg_safety_stock"`
}

// Params echoes the parameters an inventory forecast was generated with.
type Params struct {
	DaysBack     int     `json:"days_back"`
	ForecastDays int     `json:"forecast_days"`
	LeadTime     int     `json:"lead_time"`
	ServiceLevel int     `json:"service_level"`
	Alpha        float64 `json:"alpha"`
	Beta         float64 `json:"beta"`
	Gamma        float64 `json:"gamma"`
	ZScore       float64 `json:"z_score"`
}

// Report is the inventory recommendation payload for the whole catalog.
type Report struct {
	Products []ProductAnalysis `json:"products"`
	Summary  Summary           `json:"summary"`
	Params   Params            `json:"params"`
}

// Planner generates inventory recommendations from demand forecasts.
type Planner struct {
	cfg        config.InventoryConfig
	forecaster *forecast.Service
	data       DemandData
	logger     zerolog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewPlanner creates an inventory planner sharing the forecast service's
// smoothing engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPlanner(cfg config.InventoryConfig, forecaster *forecast.Service, data DemandData, logger zerolog.Logger) *Planner {
	return &Planner{
		cfg:        cfg,
		forecaster: forecaster,
		data:       data,
		logger:     logger.With().Str("component", "inventory").Logger(),
		now:        time.Now,
	}
}

// ProductDemand returns the zero-filled daily demand series for a product.
func (p *Planner) ProductDemand(ctx context.Context, productID, daysBack int) (dates []string, values []float64, err error) {
	end := truncateToDay(p.now())
	start := end.AddDate(0, 0, -(daysBack - 1))

	points, err := p.data.ProductDailyQuantity(ctx, productID, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("product %d daily demand: %w", productID, err)
	}

	filled := forecast.ZeroFill(points, start, end)
	dates = make([]string, len(filled))
	values = make([]float64, len(filled))
	for i, pt := range filled {
		dates[i] = pt.Date.Format("2006-01-02")
		values[i] = pt.Value
	}
	return dates, values, nil
}

// GenerateInventoryForecast builds recommendations for every product sold
// in the trailing window, sorted by units sold descending.
//
// Numeric inputs are expected to be range-clamped by the caller.
func (p *Planner) GenerateInventoryForecast(ctx context.Context, daysBack, forecastDays, leadTime, serviceLevel int) (*Report, error) {
	end := truncateToDay(p.now())
	start := end.AddDate(0, 0, -(daysBack - 1))

	sold, err := p.data.SoldProducts(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("sold products: %w", err)
	}

	params := p.params(daysBack, forecastDays, leadTime, serviceLevel)
	report := &Report{Products: []ProductAnalysis{}, Params: params}

	for _, sp := range sold {
		_, values, err := p.ProductDemand(ctx, sp.ProductID, daysBack)
		if err != nil {
			return nil, err
		}

		analysis := p.analyzeProduct(sp, values, forecastDays, leadTime, serviceLevel)
		// Chart payloads are only attached to single-product reports.
		analysis.Dates = nil
		analysis.History = nil
		analysis.Smoothed = nil
		report.Products = append(report.Products, analysis)
	}

	sort.SliceStable(report.Products, func(i, j int) bool {
		return report.Products[i].TotalSold > report.Products[j].TotalSold
	})

	report.Summary = buildSummary(report.Products)

	p.logger.Debug().
		Int("products", len(report.Products)).
		Int("days_back", daysBack).
		Int("forecast_days", forecastDays).
		Msg("inventory forecast generated")

	return report, nil
}

// SingleProductForecast builds a detailed forecast for one product,
// including the chart time series. Returns ErrNoData when the product has
// no demand in the window.
func (p *Planner) SingleProductForecast(ctx context.Context, productID, daysBack, forecastDays, leadTime, serviceLevel int) (*ProductAnalysis, error) {
	dates, values, err := p.ProductDemand(ctx, productID, daysBack)
	if err != nil {
		return nil, err
	}

	if len(values) == 0 || allZero(values) {
		return nil, ErrNoData
	}

	name, err := p.data.ProductName(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("product %d name: %w", productID, err)
	}

	totalSold := 0
	for _, v := range values {
		totalSold += int(v)
	}

	analysis := p.analyzeProduct(SoldProduct{
		ProductID: productID,
		Name:      name,
		TotalSold: totalSold,
	}, values, forecastDays, leadTime, serviceLevel)

	analysis.Dates = dates
	analysis.History = values

	lastDate := truncateToDay(p.now())
	analysis.ForecastDates = make([]string, forecastDays)
	for i := 0; i < forecastDays; i++ {
		analysis.ForecastDates[i] = lastDate.AddDate(0, 0, i+1).Format("2006-01-02")
	}

	return &analysis, nil
}

// analyzeProduct computes demand stats, forecast and inventory
// recommendations for one demand series.
func (p *Planner) analyzeProduct(sp SoldProduct, values []float64, forecastDays, leadTime, serviceLevel int) ProductAnalysis {
	avgDaily, maxDaily := 0.0, 0.0
	daysWithSales := 0
	for _, v := range values {
		avgDaily += v
		if v > maxDaily {
			maxDaily = v
		}
		if v > 0 {
			daysWithSales++
		}
	}
	if len(values) > 0 {
		avgDaily /= float64(len(values))
	}

	df := p.forecaster.ForecastDemand(values, forecastDays)

	roundedForecast := make([]float64, len(df.Forecast))
	forecastTotal := 0.0
	for i, v := range df.Forecast {
		roundedForecast[i] = timeseries.Round1(v)
		forecastTotal += v
	}

	safetyStock, demandStd := SafetyStock(values, leadTime, serviceLevel)
	cv := CoefficientOfVariation(demandStd, avgDaily)

	analysis := ProductAnalysis{
		ProductID:   sp.ProductID,
		ProductName: sp.Name,
		TotalSold:   sp.TotalSold,

		AvgDailyDemand: timeseries.Round2(avgDaily),
		MaxDailyDemand: maxDaily,
		DemandStd:      demandStd,
		DaysWithSales:  daysWithSales,
		TotalDays:      len(values),
		CV:             cv,
		DemandPattern:  ClassifyDemandPattern(cv),

		Forecast:        roundedForecast,
		ForecastTotal:   timeseries.Round1(forecastTotal),
		ForecastMethod:  df.Method,
		ForecastMetrics: df.Metrics,
		Trend:           ClassifyTrend(df.Forecast),

		SafetyStock:         safetyStock,
		ReorderPoint:        ReorderPoint(avgDaily, leadTime, safetyStock),
		RecommendedOrderQty: RecommendedOrderQty(forecastTotal, safetyStock),

		Smoothed: optionalSeries(df.Smoothed),
	}
	if forecastDays > 0 {
		analysis.ForecastAvgDaily = timeseries.Round2(forecastTotal / float64(forecastDays))
	}
	return analysis
}

func (p *Planner) params(daysBack, forecastDays, leadTime, serviceLevel int) Params {
	sm := p.forecaster.Smoother()
	return Params{
		DaysBack:     daysBack,
		ForecastDays: forecastDays,
		LeadTime:     leadTime,
		ServiceLevel: serviceLevel,
		Alpha:        sm.Alpha(),
		Beta:         sm.Beta(),
		Gamma:        sm.Gamma(),
		ZScore:       ZScore(serviceLevel),
	}
}

func buildSummary(products []ProductAnalysis) Summary {
	s := Summary{TotalProducts: len(products)}
	totalSafety := 0.0
	for _, p := range products {
		s.TotalRecommendedUnits += p.RecommendedOrderQty
		totalSafety += p.SafetyStock
		switch p.Trend {
		case "growing":
			s.GrowingProducts++
		case "declining":
			s.DecliningProducts++
		}
	}
	s.StableProducts = len(products) - s.GrowingProducts - s.DecliningProducts
	if len(products) > 0 {
		s.AvgSafetyStock = timeseries.Round1(totalSafety / float64(len(products)))
	}
	return s
}

// optionalSeries converts a smoothed series into a JSON-friendly form where
// undefined (NaN) points become null.
func optionalSeries(values []float64) []*float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]*float64, len(values))
	for i := range values {
		if isNaN(values[i]) {
			continue
		}
		v := values[i]
		out[i] = &v
	}
	return out
}

func isNaN(v float64) bool { return v != v }

func allZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
