// Package config assembles scanner settings from defaults, DOCSCAN_*
// environment variables and per-call override maps.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mitchellh/mapstructure"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/logging"
)

// Environment variable prefixes for pipeline overrides. The remainder of the
// name, lowercased, is the mapstructure key of the field, for example
// DOCSCAN_DETECT_REFERENCE_HEIGHT or DOCSCAN_ENHANCE_BLOCK_SIZE.
const (
	detectPrefix  = "DOCSCAN_DETECT_"
	enhancePrefix = "DOCSCAN_ENHANCE_"
)

// Config holds everything the outer surfaces need to build a scanner.
type Config struct {
	LogLevel     string
	Workers      int
	OverlayColor string
	ChannelOrder imaging.ChannelOrder
	Detection    detection.Params
	Enhance      imaging.EnhanceParams
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:     "info",
		Workers:      runtime.NumCPU(),
		OverlayColor: imaging.DefaultOverlayColor,
		ChannelOrder: imaging.OrderRGBA,
		Detection:    detection.DefaultParams(),
		Enhance:      imaging.DefaultEnhanceParams(),
	}
}

// Load reads the environment over Default and validates the result.
func Load() (*Config, error) {
	cfg := Default()
	cfg.LogLevel = getEnv("DOCSCAN_LOG_LEVEL", cfg.LogLevel)
	cfg.OverlayColor = getEnv("DOCSCAN_OVERLAY_COLOR", cfg.OverlayColor)

	if v := getEnv("DOCSCAN_WORKERS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("DOCSCAN_WORKERS: %w", err)
		}
		cfg.Workers = n
	}

	order, err := imaging.ParseChannelOrder(strings.ToLower(getEnv("DOCSCAN_CHANNEL_ORDER", "")))
	if err != nil {
		return nil, fmt.Errorf("DOCSCAN_CHANNEL_ORDER: %w", err)
	}
	cfg.ChannelOrder = order

	if cfg.Detection, err = ApplyDetection(cfg.Detection, envOverrides(detectPrefix)); err != nil {
		return nil, err
	}
	if cfg.Enhance, err = ApplyEnhance(cfg.Enhance, envOverrides(enhancePrefix)); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that are not covered by the pipeline's own
// parameter validation.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if _, err := colorful.Hex(c.OverlayColor); err != nil {
		return fmt.Errorf("invalid overlay color %q: %w", c.OverlayColor, err)
	}
	if err := c.Detection.Validate(); err != nil {
		return err
	}
	return c.Enhance.Validate()
}

// ApplyDetection decodes overrides onto a copy of base. Keys are the
// mapstructure tags of detection.Params; values may be strings or numbers.
// Unknown keys and out-of-range results are errors, and base is returned
// unchanged with them.
func ApplyDetection(base detection.Params, overrides map[string]interface{}) (detection.Params, error) {
	p := base
	if err := decode(overrides, &p); err != nil {
		return base, fmt.Errorf("invalid detection overrides: %w", err)
	}
	if err := p.Validate(); err != nil {
		return base, fmt.Errorf("invalid detection overrides: %w", err)
	}
	return p, nil
}

// ApplyEnhance is ApplyDetection for the contrast enhancement settings.
func ApplyEnhance(base imaging.EnhanceParams, overrides map[string]interface{}) (imaging.EnhanceParams, error) {
	p := base
	if err := decode(overrides, &p); err != nil {
		return base, fmt.Errorf("invalid enhance overrides: %w", err)
	}
	if err := p.Validate(); err != nil {
		return base, fmt.Errorf("invalid enhance overrides: %w", err)
	}
	return p, nil
}

func decode(overrides map[string]interface{}, out interface{}) error {
	if len(overrides) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(overrides)
}

// envOverrides collects variables starting with prefix into a map keyed by
// the lowercased remainder of their names.
func envOverrides(prefix string) map[string]interface{} {
	out := make(map[string]interface{})
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) || value == "" {
			continue
		}
		out[strings.ToLower(strings.TrimPrefix(name, prefix))] = value
	}
	return out
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
