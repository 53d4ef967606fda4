package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

const (
	defaultCasesURL        = "https://api.covidtracking.com/v1/states/daily.json"
	defaultVaccinationsURL = "https://raw.githubusercontent.com/owid/covid-19-data/master/public/data/vaccinations/us_state_vaccinations.csv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	CasesURL        string
	VaccinationsURL string
	FetchTimeout    time.Duration

	Window    domain.DateWindow
	MetricSet domain.MetricSet
	Variant   string

	// Snapshot sinks. Each is disabled when its location is empty.
	SnapshotDir        string
	S3Bucket           string
	S3Prefix           string
	S3Endpoint         string
	KafkaBrokers       []string
	KafkaSnapshotTopic string

	ChartDir string
	MapDate  string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("FETCH_TIMEOUT", "60s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	start := sharedcfg.EnvOrDefault("START_DATE", "2021-01-12")
	end := sharedcfg.EnvOrDefault("END_DATE", "2021-03-07")
	metricSet := sharedcfg.EnvOrDefault("METRIC_SET", string(domain.MetricSetMinimal))

	variantName := os.Getenv("VARIANT")
	if variantName != "" {
		v, err := LoadVariant(os.Getenv("VARIANTS_FILE"), variantName)
		if err != nil {
			return nil, err
		}
		start, end, metricSet = v.apply(start, end, metricSet)
	}

	window, err := domain.NewDateWindow(start, end)
	if err != nil {
		return nil, fmt.Errorf("invalid START_DATE/END_DATE: %w", err)
	}

	set, err := domain.ParseMetricSet(metricSet)
	if err != nil {
		return nil, fmt.Errorf("invalid METRIC_SET: %w", err)
	}

	mapDate := sharedcfg.EnvOrDefault("MAP_DATE", window.End)
	if err := domain.ValidateISODate(mapDate); err != nil {
		return nil, fmt.Errorf("invalid MAP_DATE: %w", err)
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		CasesURL:        sharedcfg.EnvOrDefault("CASES_URL", defaultCasesURL),
		VaccinationsURL: sharedcfg.EnvOrDefault("VACCINATIONS_URL", defaultVaccinationsURL),
		FetchTimeout:    fetchTimeout,

		Window:    window,
		MetricSet: set,
		Variant:   variantName,

		SnapshotDir:        envOrDefaultAllowEmpty("SNAPSHOT_DIR", "data"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3Prefix:           sharedcfg.EnvOrDefault("S3_PREFIX", "snapshots"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		KafkaBrokers:       brokers,
		KafkaSnapshotTopic: sharedcfg.EnvOrDefault("KAFKA_SNAPSHOT_TOPIC", "covid-snapshots"),

		ChartDir: envOrDefaultAllowEmpty("CHART_DIR", "charts"),
		MapDate:  mapDate,

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.CasesURL == "" {
		return nil, errors.New("CASES_URL is required")
	}
	if cfg.VaccinationsURL == "" {
		return nil, errors.New("VACCINATIONS_URL is required")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaSnapshotTopic == "" {
		return nil, errors.New("KAFKA_SNAPSHOT_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// envOrDefaultAllowEmpty returns def only when key is unset, so an explicitly
// empty value can disable a feature.
func envOrDefaultAllowEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
