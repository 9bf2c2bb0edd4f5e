// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

package config

import (
	"fmt"
	"math"
)

// weightSumTolerance is the allowed drift when weights must sum to 1.0.
const weightSumTolerance = 0.01

// Validate checks that the configuration is internally consistent.
// It is called once at load time; services receive already-validated
// settings and do not re-check them per calculation.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateForecast(); err != nil {
		return err
	}
	if err := c.validateInventory(); err != nil {
		return err
	}
	if err := c.validateDiscount(); err != nil {
		return err
	}
	return c.validateRecommend()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}
	return nil
}

func (c *Config) validateForecast() error {
	for name, v := range map[string]float64{
		"forecast.alpha": c.Forecast.Alpha,
		"forecast.beta":  c.Forecast.Beta,
		"forecast.gamma": c.Forecast.Gamma,
	} {
		if v <= 0 || v >= 1 {
			return fmt.Errorf("%s must be in (0, 1), got %v", name, v)
		}
	}
	if c.Forecast.SeasonPeriod < 2 {
		return fmt.Errorf("forecast.season_period must be >= 2, got %d", c.Forecast.SeasonPeriod)
	}
	if c.Forecast.MovingAverageWindow < 1 {
		return fmt.Errorf("forecast.moving_average_window must be >= 1, got %d", c.Forecast.MovingAverageWindow)
	}
	return nil
}

func (c *Config) validateInventory() error {
	if c.Inventory.LeadTimeDays < 1 {
		return fmt.Errorf("inventory.lead_time_days must be >= 1, got %d", c.Inventory.LeadTimeDays)
	}
	switch c.Inventory.ServiceLevel {
	case 90, 95, 97, 99:
		return nil
	default:
		return fmt.Errorf("inventory.service_level must be one of 90, 95, 97, 99, got %d", c.Inventory.ServiceLevel)
	}
}

func (c *Config) validateDiscount() error {
	d := &c.Discount

	sum := d.WeightRecency + d.WeightFrequency + d.WeightMonetary
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("discount RFM weights must sum to 1.0, got %.3f", sum)
	}

	if d.CurveExponent < 0.1 || d.CurveExponent > 3 {
		return fmt.Errorf("discount.curve_exponent must be in [0.1, 3], got %v", d.CurveExponent)
	}
	if d.MaxDiscountRate < d.BaseDiscountRate {
		return fmt.Errorf("discount.max_discount_rate (%v) must be >= base_discount_rate (%v)",
			d.MaxDiscountRate, d.BaseDiscountRate)
	}
	if d.RecencyMaxDays < 1 {
		return fmt.Errorf("discount.recency_max_days must be >= 1, got %d", d.RecencyMaxDays)
	}
	if d.FrequencyTarget < 1 {
		return fmt.Errorf("discount.frequency_target must be >= 1, got %d", d.FrequencyTarget)
	}
	if d.MonetaryTarget < 0 {
		return fmt.Errorf("discount.monetary_target must be >= 0, got %v", d.MonetaryTarget)
	}
	if d.MaxTotalDiscount < 0 || d.MaxTotalDiscount > 100 {
		return fmt.Errorf("discount.max_total_discount must be in [0, 100], got %v", d.MaxTotalDiscount)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := &c.Recommend

	// Hybrid weights need not sum to 1, but must not be negative.
	for name, v := range map[string]float64{
		"recommend.weight_content":       r.WeightContent,
		"recommend.weight_collaborative": r.WeightCollaborative,
		"recommend.weight_popularity":    r.WeightPopularity,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be >= 0, got %v", name, v)
		}
	}

	featureSum := r.FeatureCountryWeight + r.FeatureRoastWeight + r.FeatureBeanWeight + r.FeaturePriceWeight
	if math.Abs(featureSum-1.0) > weightSumTolerance {
		return fmt.Errorf("recommend feature weights must sum to 1.0, got %.3f", featureSum)
	}

	if r.TimeDecayRate < 0 {
		return fmt.Errorf("recommend.time_decay_rate must be >= 0, got %v", r.TimeDecayRate)
	}
	if r.DefaultLimit < 1 {
		return fmt.Errorf("recommend.default_limit must be >= 1, got %d", r.DefaultLimit)
	}
	if r.ProfileCacheTTL <= 0 {
		return fmt.Errorf("recommend.profile_cache_ttl must be positive")
	}
	return nil
}
