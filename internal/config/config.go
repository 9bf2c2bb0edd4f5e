// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

// Package config provides layered configuration loading with koanf:
// struct defaults, then an optional YAML file, then environment variables.
package config

import "time"

// Config is the root configuration for the service.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Logging    LoggingConfig    `koanf:"logging"`
	Forecast   ForecastConfig   `koanf:"forecast"`
	Inventory  InventoryConfig  `koanf:"inventory"`
	Discount   DiscountConfig   `koanf:"discount"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Similarity SimilarityConfig `koanf:"similarity"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file path. Empty means in-memory.
	Path string `koanf:"path"`

	// Threads limits DuckDB worker threads. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`

	// MaxMemory is the DuckDB memory limit (e.g. "2GB").
	MaxMemory string `koanf:"max_memory"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ForecastConfig holds smoothing parameters for sales forecasting.
type ForecastConfig struct {
	// Alpha is the level smoothing constant.
	Alpha float64 `koanf:"alpha"`

	// Beta is the trend smoothing constant.
	Beta float64 `koanf:"beta"`

	// Gamma is the seasonal smoothing constant.
	Gamma float64 `koanf:"gamma"`

	// SeasonPeriod is the seasonal cycle length in days.
	SeasonPeriod int `koanf:"season_period"`

	// MovingAverageWindow is the window for the moving-average fallback.
	MovingAverageWindow int `koanf:"moving_average_window"`

	// DefaultDaysBack is the default history window.
	DefaultDaysBack int `koanf:"default_days_back"`

	// DefaultForecastDays is the default forecast horizon.
	DefaultForecastDays int `koanf:"default_forecast_days"`
}

// InventoryConfig holds inventory planning defaults.
type InventoryConfig struct {
	// LeadTimeDays is the default supplier lead time.
	LeadTimeDays int `koanf:"lead_time_days"`

	// ServiceLevel is the default target service level (90, 95, 97 or 99).
	ServiceLevel int `koanf:"service_level"`
}

// DiscountConfig holds the RFM discount settings.
//
// Weights must sum to 1.0 (±0.01); this is enforced when the configuration
// is loaded, not when scores are computed.
type DiscountConfig struct {
	// Enabled toggles the whole personal discount system.
	Enabled bool `koanf:"enabled"`

	// WeightRecency, WeightFrequency and WeightMonetary are the RFM
	// composite weights.
	WeightRecency   float64 `koanf:"weight_recency"`
	WeightFrequency float64 `koanf:"weight_frequency"`
	WeightMonetary  float64 `koanf:"weight_monetary"`

	// BaseDiscountRate and MaxDiscountRate bound the RFM discount curve,
	// in percent.
	BaseDiscountRate float64 `koanf:"base_discount_rate"`
	MaxDiscountRate  float64 `koanf:"max_discount_rate"`

	// CurveExponent shapes the discount curve. Values below 1 favour
	// low-engagement customers; above 1 require high engagement.
	CurveExponent float64 `koanf:"curve_exponent"`

	// RecencyMaxDays is the span of the linear recency decay.
	RecencyMaxDays int `koanf:"recency_max_days"`

	// FrequencyTarget is the order count that earns a full frequency score.
	FrequencyTarget int `koanf:"frequency_target"`

	// MonetaryTarget is the total spend that earns a full monetary score.
	MonetaryTarget float64 `koanf:"monetary_target"`

	// FirstPurchaseDiscount is the bonus percent for brand-new customers.
	FirstPurchaseDiscount float64 `koanf:"first_purchase_discount"`

	// BirthdayDiscount is the bonus percent within the birthday window.
	BirthdayDiscount float64 `koanf:"birthday_discount"`

	// BirthdayDiscountDays is the half-width of the birthday window in days.
	BirthdayDiscountDays int `koanf:"birthday_discount_days"`

	// MaxTotalDiscount caps the combined percentage discount.
	MaxTotalDiscount float64 `koanf:"max_total_discount"`
}

// RecommendConfig holds the hybrid recommendation settings.
type RecommendConfig struct {
	// Enabled toggles personalized recommendations.
	Enabled bool `koanf:"enabled"`

	// WeightContent, WeightCollaborative and WeightPopularity blend the
	// hybrid score. They do not need to sum to 1.
	WeightContent       float64 `koanf:"weight_content"`
	WeightCollaborative float64 `koanf:"weight_collaborative"`
	WeightPopularity    float64 `koanf:"weight_popularity"`

	// Content-feature sub-weights for the per-user content similarity.
	FeatureCountryWeight float64 `koanf:"feature_country_weight"`
	FeatureRoastWeight   float64 `koanf:"feature_roast_weight"`
	FeatureBeanWeight    float64 `koanf:"feature_bean_weight"`
	FeaturePriceWeight   float64 `koanf:"feature_price_weight"`

	// TimeDecayRate is the λ in weight × e^(−λ·days).
	TimeDecayRate float64 `koanf:"time_decay_rate"`

	// MinInteractionsForCF is the interaction threshold below which
	// collaborative scoring is skipped.
	MinInteractionsForCF int `koanf:"min_interactions_for_cf"`

	// DefaultLimit is the default recommendation list length.
	DefaultLimit int `koanf:"default_limit"`

	// ProfileCacheTTL bounds the cached user preference profile.
	ProfileCacheTTL time.Duration `koanf:"profile_cache_ttl"`
}

// SimilarityConfig holds the product-similarity batch job settings.
type SimilarityConfig struct {
	// Enabled toggles the periodic rebuild job.
	Enabled bool `koanf:"enabled"`

	// Interval is how often the similarity table is rebuilt.
	Interval time.Duration `koanf:"interval"`
}

// defaultConfig returns a Config with all default values.
// Defaults mirror the storefront's historical settings so that scores and
// discounts stay comparable across deployments.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Database: DatabaseConfig{
			Path:      "/data/coffeeshop.duckdb",
			Threads:   0,
			MaxMemory: "2GB",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Forecast: ForecastConfig{
			Alpha:               0.3,
			Beta:                0.1,
			Gamma:               0.2,
			SeasonPeriod:        7,
			MovingAverageWindow: 7,
			DefaultDaysBack:     90,
			DefaultForecastDays: 14,
		},
		Inventory: InventoryConfig{
			LeadTimeDays: 7,
			ServiceLevel: 95,
		},
		Discount: DiscountConfig{
			Enabled:               true,
			WeightRecency:         0.25,
			WeightFrequency:       0.35,
			WeightMonetary:        0.40,
			BaseDiscountRate:      0.00,
			MaxDiscountRate:       15.00,
			CurveExponent:         0.70,
			RecencyMaxDays:        90,
			FrequencyTarget:       10,
			MonetaryTarget:        500.00,
			FirstPurchaseDiscount: 5.00,
			BirthdayDiscount:      10.00,
			BirthdayDiscountDays:  7,
			MaxTotalDiscount:      25.00,
		},
		Recommend: RecommendConfig{
			Enabled:              true,
			WeightContent:        0.35,
			WeightCollaborative:  0.40,
			WeightPopularity:     0.25,
			FeatureCountryWeight: 0.25,
			FeatureRoastWeight:   0.30,
			FeatureBeanWeight:    0.25,
			FeaturePriceWeight:   0.20,
			TimeDecayRate:        0.050,
			MinInteractionsForCF: 3,
			DefaultLimit:         6,
			ProfileCacheTTL:      time.Hour,
		},
		Similarity: SimilarityConfig{
			Enabled:  true,
			Interval: 24 * time.Hour,
		},
	}
}

// Default returns the default configuration without touching files or the
// environment. Useful for tests.
func Default() *Config {
	return defaultConfig()
}
