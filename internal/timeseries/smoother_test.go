// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

package timeseries

import (
	"math"
	"testing"
)

func TestMovingAverage(t *testing.T) {
	tests := []struct {
		name   string
		data   []float64
		window int
		verify func(t *testing.T, got []float64)
	}{
		{
			name:   "shorter than window returns copy",
			data:   []float64{1, 2, 3},
			window: 7,
			verify: func(t *testing.T, got []float64) {
				want := []float64{1, 2, 3}
				if len(got) != len(want) {
					t.Fatalf("len = %d, want %d", len(got), len(want))
				}
				for i := range want {
					if got[i] != want[i] {
						t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
					}
				}
			},
		},
		{
			name:   "leading window is undefined",
			data:   []float64{1, 2, 3, 4, 5},
			window: 3,
			verify: func(t *testing.T, got []float64) {
				if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
					t.Errorf("first window-1 points = %v, %v, want NaN", got[0], got[1])
				}
				if got[2] != 2.0 {
					t.Errorf("got[2] = %v, want 2.0", got[2])
				}
				if got[4] != 4.0 {
					t.Errorf("got[4] = %v, want 4.0", got[4])
				}
			},
		},
		{
			name:   "zero run stays zero and never negative",
			data:   []float64{5, 0, 0, 0, 0, 0, 3},
			window: 3,
			verify: func(t *testing.T, got []float64) {
				// Positions where the trailing window is fully zero.
				for _, i := range []int{3, 4, 5} {
					if got[i] != 0 {
						t.Errorf("got[%d] = %v, want 0 for all-zero window", i, got[i])
					}
				}
				for i, v := range got {
					if !math.IsNaN(v) && v < 0 {
						t.Errorf("got[%d] = %v, negative moving average", i, v)
					}
				}
			},
		},
		{
			name:   "rounds to 2 decimals",
			data:   []float64{1, 1, 2},
			window: 3,
			verify: func(t *testing.T, got []float64) {
				if got[2] != 1.33 {
					t.Errorf("got[2] = %v, want 1.33", got[2])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MovingAverage(tt.data, tt.window)
			if len(got) != len(tt.data) {
				t.Fatalf("output length = %d, want %d", len(got), len(tt.data))
			}
			tt.verify(t, got)
		})
	}
}

func TestMovingAverageForecast(t *testing.T) {
	tests := []struct {
		name    string
		data    []float64
		window  int
		horizon int
		want    float64
	}{
		{"flat line from last window", []float64{1, 2, 3, 10, 10, 10}, 3, 5, 10},
		{"short series uses full average", []float64{2, 4}, 7, 3, 3},
		{"empty series forecasts zero", nil, 7, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MovingAverageForecast(tt.data, tt.window, tt.horizon)
			if len(got) != tt.horizon {
				t.Fatalf("horizon = %d, want %d", len(got), tt.horizon)
			}
			for i, v := range got {
				if v != tt.want {
					t.Errorf("forecast[%d] = %v, want %v", i, v, tt.want)
				}
			}
		})
	}
}

func TestSingleExponentialSmoothing(t *testing.T) {
	s := NewSmoother(0.5, 0, 0)

	got := s.SingleExponentialSmoothing([]float64{10, 20, 30})

	if got[0] != 10 {
		t.Errorf("s[0] = %v, want x[0] = 10", got[0])
	}
	if got[1] != 15 { // 0.5*20 + 0.5*10
		t.Errorf("s[1] = %v, want 15", got[1])
	}
	if got[2] != 22.5 { // 0.5*30 + 0.5*15
		t.Errorf("s[2] = %v, want 22.5", got[2])
	}

	if out := s.SingleExponentialSmoothing(nil); len(out) != 0 {
		t.Errorf("SES(nil) length = %d, want 0", len(out))
	}
}

func TestHoltWintersFallsBackToSES(t *testing.T) {
	s := NewSmoother(0.3, 0.1, 0.2)

	// 13 points < 2 * 7: not enough for weekly decomposition.
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}
	smoothed, levels, trends, seasons := s.HoltWinters(data, 7)

	if levels != nil || trends != nil || seasons != nil {
		t.Error("expected nil decomposition state on fallback")
	}
	want := s.SingleExponentialSmoothing(data)
	for i := range want {
		if smoothed[i] != want[i] {
			t.Errorf("smoothed[%d] = %v, want SES value %v", i, smoothed[i], want[i])
		}
	}
}

func TestHoltWintersInitialization(t *testing.T) {
	s := NewSmoother(0.3, 0.1, 0.2)

	// Two seasons of period 2: [10, 20], [30, 40].
	data := []float64{10, 20, 30, 40}
	_, levels, trends, seasons := s.HoltWinters(data, 2)

	if levels == nil {
		t.Fatal("expected full decomposition for 2 seasons of data")
	}
	if levels[0] != 15 { // mean of first season
		t.Errorf("initial level = %v, want 15", levels[0])
	}
	if trends[0] != 10 { // (35 - 15) / 2
		t.Errorf("initial trend = %v, want 10", trends[0])
	}
	if seasons[0] != -5 || seasons[1] != 5 {
		t.Errorf("initial seasons = %v, %v, want -5, 5", seasons[0], seasons[1])
	}
}

func TestHoltWintersSmoothedLength(t *testing.T) {
	s := NewSmoother(0.3, 0.1, 0.2)

	data := make([]float64, 28)
	for i := range data {
		data[i] = float64(10 + i%7)
	}

	smoothed, levels, _, seasons := s.HoltWinters(data, 7)
	if len(smoothed) != len(data) {
		t.Errorf("smoothed length = %d, want %d", len(smoothed), len(data))
	}
	if len(levels) != len(data) {
		t.Errorf("levels length = %d, want %d", len(levels), len(data))
	}
	// seasons holds 7 initial components plus n-1 updates.
	if len(seasons) != len(data)+6 {
		t.Errorf("seasons length = %d, want %d", len(seasons), len(data)+6)
	}
}

func TestHoltWintersForecastNonNegative(t *testing.T) {
	s := NewSmoother(0.3, 0.1, 0.2)

	tests := []struct {
		name string
		data []float64
	}{
		{
			name: "steep decline",
			data: []float64{100, 90, 80, 70, 60, 50, 40, 30, 20, 10, 5, 2, 1, 0, 0, 0},
		},
		{
			name: "negative inputs",
			data: []float64{-5, -10, -3, -8, -5, -10, -3, -8, -5, -10, -3, -8, -5, -10},
		},
		{
			name: "all zeros",
			data: make([]float64, 20),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forecast, _ := s.HoltWintersForecast(tt.data, 14, 7)
			if len(forecast) != 14 {
				t.Fatalf("horizon = %d, want 14", len(forecast))
			}
			for h, v := range forecast {
				if v < 0 {
					t.Errorf("forecast[%d] = %v, want >= 0", h, v)
				}
			}
		})
	}
}

func TestHoltWintersForecastFallback(t *testing.T) {
	s := NewSmoother(0.3, 0.1, 0.2)

	// Too short for decomposition: forecast flat-lines the last SES value.
	data := []float64{10, 10, 10}
	forecast, smoothed := s.HoltWintersForecast(data, 5, 7)

	if len(smoothed) != 3 {
		t.Fatalf("smoothed length = %d, want 3", len(smoothed))
	}
	last := smoothed[len(smoothed)-1]
	for h, v := range forecast {
		if v != Round2(last) {
			t.Errorf("forecast[%d] = %v, want flat %v", h, v, last)
		}
	}
}

func TestNewSmootherDefaults(t *testing.T) {
	s := NewSmoother(0, 0, 0)
	if s.Alpha() != DefaultAlpha || s.Beta() != DefaultBeta || s.Gamma() != DefaultGamma {
		t.Errorf("defaults = %v/%v/%v, want %v/%v/%v",
			s.Alpha(), s.Beta(), s.Gamma(), DefaultAlpha, DefaultBeta, DefaultGamma)
	}
}
