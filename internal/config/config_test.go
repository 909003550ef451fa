package config

import (
	"strings"
	"testing"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
	if cfg.Detection != detection.DefaultParams() {
		t.Errorf("Detection: got %+v, want defaults", cfg.Detection)
	}
	if cfg.Enhance != imaging.DefaultEnhanceParams() {
		t.Errorf("Enhance: got %+v, want defaults", cfg.Enhance)
	}
	if cfg.Workers < 1 {
		t.Errorf("Workers: got %d, want >= 1", cfg.Workers)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("DOCSCAN_LOG_LEVEL", "debug")
	t.Setenv("DOCSCAN_WORKERS", "3")
	t.Setenv("DOCSCAN_OVERLAY_COLOR", "#FF00FF")
	t.Setenv("DOCSCAN_CHANNEL_ORDER", "BGR")
	t.Setenv("DOCSCAN_DETECT_REFERENCE_HEIGHT", "400")
	t.Setenv("DOCSCAN_DETECT_EPSILON_FACTOR", "0.03")
	t.Setenv("DOCSCAN_DETECT_MAX_CANDIDATES", "25")
	t.Setenv("DOCSCAN_ENHANCE_BLOCK_SIZE", "21")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q, want debug", cfg.LogLevel)
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers: got %d, want 3", cfg.Workers)
	}
	if cfg.OverlayColor != "#FF00FF" {
		t.Errorf("OverlayColor: got %q", cfg.OverlayColor)
	}
	if cfg.ChannelOrder != imaging.OrderBGRA {
		t.Errorf("ChannelOrder: got %v, want bgra", cfg.ChannelOrder)
	}
	if cfg.Detection.ReferenceHeight != 400 {
		t.Errorf("ReferenceHeight: got %d, want 400", cfg.Detection.ReferenceHeight)
	}
	if cfg.Detection.EpsilonFactor != 0.03 {
		t.Errorf("EpsilonFactor: got %v, want 0.03", cfg.Detection.EpsilonFactor)
	}
	if cfg.Detection.MaxCandidates != 25 {
		t.Errorf("MaxCandidates: got %d, want 25", cfg.Detection.MaxCandidates)
	}
	if cfg.Detection.CannyHigh != 100 {
		t.Errorf("unset fields should keep defaults, CannyHigh = %v", cfg.Detection.CannyHigh)
	}
	if cfg.Enhance.BlockSize != 21 || cfg.Enhance.Offset != 15 {
		t.Errorf("Enhance: got %+v", cfg.Enhance)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantMsg string
	}{
		{"bad workers", "DOCSCAN_WORKERS", "many", "DOCSCAN_WORKERS"},
		{"zero workers", "DOCSCAN_WORKERS", "0", "workers"},
		{"bad level", "DOCSCAN_LOG_LEVEL", "chatty", "log level"},
		{"bad color", "DOCSCAN_OVERLAY_COLOR", "green", "overlay color"},
		{"bad order", "DOCSCAN_CHANNEL_ORDER", "cmyk", "channel order"},
		{"unknown detect key", "DOCSCAN_DETECT_THRESHOLD", "5", "detection overrides"},
		{"bad detect value", "DOCSCAN_DETECT_REFERENCE_HEIGHT", "tall", "detection overrides"},
		{"even block size", "DOCSCAN_ENHANCE_BLOCK_SIZE", "16", "enhance overrides"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestApplyDetection(t *testing.T) {
	base := detection.DefaultParams()

	got, err := ApplyDetection(base, map[string]interface{}{
		"reference_height": float64(640),
		"canny_low":        "60",
		"resample_filter":  "lanczos",
		"min_contour_area": 10000,
	})
	if err != nil {
		t.Fatalf("ApplyDetection failed: %v", err)
	}
	if got.ReferenceHeight != 640 || got.CannyLow != 60 || got.ResampleFilter != "lanczos" || got.MinContourArea != 10000 {
		t.Errorf("overrides not applied: %+v", got)
	}
	if base.ReferenceHeight != 500 {
		t.Error("base params were modified")
	}
}

func TestApplyDetection_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]interface{}
	}{
		{"unknown key", map[string]interface{}{"sharpness": 3}},
		{"wrong type", map[string]interface{}{"reference_height": map[string]int{"px": 1}}},
		{"out of range", map[string]interface{}{"reference_height": 0}},
		{"inverted thresholds", map[string]interface{}{"canny_low": 200}},
		{"unknown filter", map[string]interface{}{"resample_filter": "bicubic-ish"}},
	}

	base := detection.DefaultParams()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyDetection(base, tt.overrides)
			if err == nil {
				t.Fatal("expected error")
			}
			if got != base {
				t.Errorf("base should be returned on error, got %+v", got)
			}
		})
	}
}

func TestApplyEnhance(t *testing.T) {
	got, err := ApplyEnhance(imaging.DefaultEnhanceParams(), map[string]interface{}{"offset": "7.5"})
	if err != nil {
		t.Fatalf("ApplyEnhance failed: %v", err)
	}
	if got.Offset != 7.5 || got.BlockSize != 15 {
		t.Errorf("got %+v", got)
	}

	if _, err := ApplyEnhance(imaging.DefaultEnhanceParams(), map[string]interface{}{"block_size": 4}); err == nil {
		t.Error("expected error for even block size")
	}
}

func TestApply_EmptyOverrides(t *testing.T) {
	got, err := ApplyDetection(detection.DefaultParams(), nil)
	if err != nil {
		t.Fatalf("ApplyDetection(nil) failed: %v", err)
	}
	if got != detection.DefaultParams() {
		t.Errorf("nil overrides changed params: %+v", got)
	}
}
