package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Variant is a named pipeline configuration: a date window and a metric set.
// Empty fields keep the environment value.
type Variant struct {
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
	MetricSet string `yaml:"metric_set"`
}

type variantsFile struct {
	Variants map[string]Variant `yaml:"variants"`
}

// LoadVariant reads the named variant from a YAML file of the form
//
//	variants:
//	  snapshot:
//	    start_date: "2021-03-07"
//	    end_date: "2021-03-07"
//	    metric_set: extended
func LoadVariant(path, name string) (Variant, error) {
	if path == "" {
		return Variant{}, errors.New("VARIANTS_FILE is required when VARIANT is set")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Variant{}, fmt.Errorf("read VARIANTS_FILE: %w", err)
	}

	var f variantsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Variant{}, fmt.Errorf("parse VARIANTS_FILE: %w", err)
	}

	v, ok := f.Variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("VARIANT %q not found in %s", name, path)
	}
	return v, nil
}

func (v Variant) apply(start, end, metricSet string) (string, string, string) {
	if v.StartDate != "" {
		start = v.StartDate
	}
	if v.EndDate != "" {
		end = v.EndDate
	}
	if v.MetricSet != "" {
		metricSet = v.MetricSet
	}
	return start, end, metricSet
}
