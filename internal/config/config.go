// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Regions  RegionsConfig  `yaml:"regions" mapstructure:"regions"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Atlas    AtlasConfig    `yaml:"atlas" mapstructure:"atlas"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the optional database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PipelineConfig carries every tunable the disclosure pipeline uses. The
// duration thresholds are domain heuristics with no empirical derivation, so
// they live here as configuration rather than as constants in the allocator.
type PipelineConfig struct {
	WaterDensityLbsPerGal float64 `yaml:"water_density_lbs_per_gal" mapstructure:"water_density_lbs_per_gal"`
	ShortJobMaxDays       int     `yaml:"short_job_max_days" mapstructure:"short_job_max_days"`
	OutlierJobDays        int     `yaml:"outlier_job_days" mapstructure:"outlier_job_days"`
	MassCompletenessMin   float64 `yaml:"mass_completeness_min" mapstructure:"mass_completeness_min"`
	PercentPlausibleMax   float64 `yaml:"percent_plausible_max" mapstructure:"percent_plausible_max"`
	WaterCeilingGal       float64 `yaml:"water_ceiling_gal" mapstructure:"water_ceiling_gal"`
	WaterWarnGal          float64 `yaml:"water_warn_gal" mapstructure:"water_warn_gal"`
	ConservationTolerance float64 `yaml:"conservation_tolerance" mapstructure:"conservation_tolerance"`
	ChunkSize             int     `yaml:"chunk_size" mapstructure:"chunk_size"`
	Workers               int     `yaml:"workers" mapstructure:"workers"`
	CrossCheckSample      int     `yaml:"cross_check_sample" mapstructure:"cross_check_sample"`
	Encoding              string  `yaml:"encoding" mapstructure:"encoding"` // "utf-8" or "windows-1252"
}

// RegionsConfig configures the basin lookup table.
type RegionsConfig struct {
	Path        string `yaml:"path" mapstructure:"path"`                 // YAML basin table; empty = embedded default
	FilterBasin string `yaml:"filter_basin" mapstructure:"filter_basin"` // basin for the filtered county table
}

// OutputConfig configures output artifact placement.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// AtlasConfig configures the supplier-filtered pass.
type AtlasConfig struct {
	SupplierPatterns []string `yaml:"supplier_patterns" mapstructure:"supplier_patterns"`
	ProductsInclude  []string `yaml:"products_include" mapstructure:"products_include"`
	ProductsExclude  []string `yaml:"products_exclude" mapstructure:"products_exclude"`
	PricePerTon      float64  `yaml:"price_per_ton" mapstructure:"price_per_ton"`
	ContractPct      float64  `yaml:"contract_pct" mapstructure:"contract_pct"`
	SpotAdjustment   float64  `yaml:"spot_adjustment" mapstructure:"spot_adjustment"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FRACFOCUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "fracfocus.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("output.dir", "output")
	v.SetDefault("regions.filter_basin", "Permian Basin")
	v.SetDefault("pipeline.water_density_lbs_per_gal", 8.34)
	v.SetDefault("pipeline.short_job_max_days", 45)
	v.SetDefault("pipeline.outlier_job_days", 365)
	v.SetDefault("pipeline.mass_completeness_min", 0.5)
	v.SetDefault("pipeline.percent_plausible_max", 80.0)
	v.SetDefault("pipeline.water_ceiling_gal", 50_000_000)
	v.SetDefault("pipeline.water_warn_gal", 20_000_000)
	v.SetDefault("pipeline.conservation_tolerance", 1e-6)
	v.SetDefault("pipeline.chunk_size", 50_000)
	v.SetDefault("pipeline.workers", 8)
	v.SetDefault("pipeline.cross_check_sample", 100)
	v.SetDefault("pipeline.encoding", "utf-8")
	v.SetDefault("atlas.price_per_ton", 60.0)
	v.SetDefault("atlas.contract_pct", 0.80)
	v.SetDefault("atlas.spot_adjustment", 1.0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
