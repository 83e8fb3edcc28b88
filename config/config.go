package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/rzzdr/ccr-analytics/pkg/models"
	"github.com/spf13/viper"
)

// Config for the whole application
type Config struct {
	App      AppConfig
	API      APIConfig
	Metrics  MetricsConfig
	Kafka    KafkaConfig
	Base     models.BaseParameters
	Exposure   ExposureConfig
	Simulation SimulationConfig
	Stress     StressConfig
}

// General application configuration
type AppConfig struct {
	Name        string
	Environment string
	LogLevel    string `mapstructure:"log_level"`
}

// Configuration for the API server
type APIConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
}

// Configuration for metrics
type MetricsConfig struct {
	Prometheus PrometheusConfig
}

// Configuration for Prometheus metrics
type PrometheusConfig struct {
	Enabled bool
	Port    int
}

// Configuration for publishing stress results to Kafka
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	Topic        string
	Compression  string
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

// Configuration of the exposure aggregation
type ExposureConfig struct {
	PFEQuantile float64 `mapstructure:"pfe_quantile"`
}

// Limits on a single simulation
type SimulationConfig struct {
	MaxCells int `mapstructure:"max_cells"`
}

// Configuration of the stress runner
type StressConfig struct {
	Workers   int
	Scenarios []models.Scenario
}

// Load loads the configuration from the file named by GetConfigPath and
// the environment
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads the configuration from path; a missing file leaves the
// defaults in place. Environment variables prefixed with CCR_ win over both.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvPrefix("CCR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "ccr-analytics")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "10s")
	v.SetDefault("api.write_timeout", "60s")
	v.SetDefault("api.shutdown_timeout", "30s")
	v.SetDefault("api.allowed_origins", []string{"*"})
	v.SetDefault("api.rate_limit", 5.0)
	v.SetDefault("api.rate_burst", 10)

	// Metrics defaults
	v.SetDefault("metrics.prometheus.enabled", true)
	v.SetDefault("metrics.prometheus.port", 9090)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "ccr.stress.results")
	v.SetDefault("kafka.compression", "gzip")
	v.SetDefault("kafka.write_timeout", "10s")
	v.SetDefault("kafka.max_attempts", 3)

	// Base parameter defaults
	base := models.DefaultBaseParameters()
	v.SetDefault("base.s0", base.S0)
	v.SetDefault("base.mu", base.Mu)
	v.SetDefault("base.sigma", base.Sigma)
	v.SetDefault("base.t", base.Horizon)
	v.SetDefault("base.n_steps", base.NSteps)
	v.SetDefault("base.n_paths", base.NPaths)
	v.SetDefault("base.strike", base.Strike)
	v.SetDefault("base.hazard_rate", base.HazardRate)
	v.SetDefault("base.recovery_rate", base.RecoveryRate)
	v.SetDefault("base.discount_rate", base.DiscountRate)

	// Exposure defaults
	v.SetDefault("exposure.pfe_quantile", 0.95)

	// Simulation defaults
	v.SetDefault("simulation.max_cells", models.DefaultMaxCells)

	// Stress defaults
	v.SetDefault("stress.workers", 1)
	v.SetDefault("stress.scenarios", []map[string]interface{}{
		{"name": "Base"},
		{"name": "High Volatility (+50%)", "overrides": map[string]interface{}{"sigma": 0.225}},
		{"name": "Credit Stress (HR x2)", "overrides": map[string]interface{}{"hazard_rate": 0.04}},
		{"name": "Severe Stress", "overrides": map[string]interface{}{"sigma": 0.30, "hazard_rate": 0.05}},
	})
}

// GetConfigPath returns the config file location, overridable with CCR_CONFIG_PATH
func GetConfigPath() string {
	configPath := os.Getenv("CCR_CONFIG_PATH")
	if configPath != "" {
		return configPath
	}

	return "./config/config.yaml"
}
