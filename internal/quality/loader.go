package quality

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ValidationError reports an out-of-range threshold
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadConfig reads thresholds from YAML. Omitted fields keep their defaults.
// KnownFields(true): 오타/미사용 필드는 즉시 실패
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return DefaultConfig(), fmt.Errorf("parse %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

// Validate checks every threshold is a ratio
func Validate(cfg Config) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"min_price_coverage", cfg.MinPriceCoverage},
		{"min_volume_coverage", cfg.MinVolumeCoverage},
		{"min_avg_volume_coverage", cfg.MinAvgVolumeCoverage},
	}
	for _, f := range fields {
		if f.value < 0 || f.value > 1 {
			return ValidationError{f.name, "must be in [0, 1]"}
		}
	}
	return nil
}
