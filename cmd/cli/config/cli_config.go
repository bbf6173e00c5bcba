// Package config loads the optional CLI configuration file. Values from the
// file override the built-in defaults; command flags override both.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/gridseer/gridseer/internal/stats"
	apperrors "github.com/gridseer/gridseer/pkg/errors"
	"github.com/gridseer/gridseer/pkg/models"
)

type CLIConfig struct {
	DefaultOutput string         `mapstructure:"default_output"`
	ChartFormat   string         `mapstructure:"chart_format"`
	Cleaning      CleaningConfig `mapstructure:"cleaning"`
	Forecast      ForecastConfig `mapstructure:"forecast"`
}

type CleaningConfig struct {
	IQRMultiplier float64 `mapstructure:"iqr_multiplier"`
}

type ForecastConfig struct {
	Horizon    int      `mapstructure:"horizon"`
	Holdout    int      `mapstructure:"holdout"`
	Metric     string   `mapstructure:"metric"`
	Methods    []string `mapstructure:"methods"`
	Confidence float64  `mapstructure:"confidence"`
}

// Default returns the built-in configuration: week-ahead forecasts selected
// by MAPE, conventional 1.5 IQR fences, interactive HTML charts.
func Default() *CLIConfig {
	return &CLIConfig{
		DefaultOutput: "-",
		ChartFormat:   "html",
		Cleaning: CleaningConfig{
			IQRMultiplier: stats.DefaultIQRMultiplier,
		},
		Forecast: ForecastConfig{
			Horizon:    models.PointsPerWeek,
			Holdout:    0, // sized from the data
			Metric:     stats.MetricMAPE,
			Confidence: 0.95,
		},
	}
}

// LoadConfig reads cfgFile, or $HOME/.gridseer/config.yaml when empty, over
// the defaults. GRIDSEER_* environment variables override file values. A
// missing default file is not an error.
func LoadConfig(cfgFile string) (*CLIConfig, error) {
	config := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}

		viper.AddConfigPath(filepath.Join(home, ".gridseer"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GRIDSEER")
	viper.AutomaticEnv()

	viper.SetDefault("default_output", config.DefaultOutput)
	viper.SetDefault("chart_format", config.ChartFormat)
	viper.SetDefault("cleaning.iqr_multiplier", config.Cleaning.IQRMultiplier)
	viper.SetDefault("forecast.horizon", config.Forecast.Horizon)
	viper.SetDefault("forecast.holdout", config.Forecast.Holdout)
	viper.SetDefault("forecast.metric", config.Forecast.Metric)
	viper.SetDefault("forecast.confidence", config.Forecast.Confidence)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, apperrors.WrapError(err, apperrors.ErrorTypeConfiguration,
				apperrors.CodeConfigurationLoad, "error reading config file")
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrorTypeConfiguration,
			apperrors.CodeInvalidConfiguration, "error unmarshaling config")
	}

	return config, nil
}

// DefaultConfigPath returns where LoadConfig looks when --config is not set.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".gridseer", "config.yaml")
}
