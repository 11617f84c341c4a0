package config

import (
	"time"
)

type Config struct {
	Version   string          `mapstructure:"version"`
	Cities    []City          `mapstructure:"cities" validate:"required,min=1,dive"`
	Extract   ExtractConfig   `mapstructure:"extract"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Charts    ChartsConfig    `mapstructure:"charts"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type City struct {
	Name      string  `mapstructure:"name" validate:"required"`
	Latitude  float64 `mapstructure:"latitude" validate:"latitude"`
	Longitude float64 `mapstructure:"longitude" validate:"longitude"`
}

type ExtractConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	// Hourly variable names requested from the API. They double as processed
	// table columns, hence the varname constraint.
	Variables []string `mapstructure:"variables" validate:"required,min=1,dive,varname"`
	Timezone  string   `mapstructure:"timezone" validate:"required"`
	// Empty start/end dates mean "yesterday through today".
	StartDate      string `mapstructure:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string `mapstructure:"end_date" validate:"omitempty,datetime=2006-01-02"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"min=1"`
}

type StorageConfig struct {
	RawDir        string `mapstructure:"raw_dir" validate:"required"`
	ProcessedFile string `mapstructure:"processed_file" validate:"required"`
	DatabaseFile  string `mapstructure:"database_file" validate:"required"`
}

type ChartsConfig struct {
	Dir     string   `mapstructure:"dir" validate:"required"`
	Metrics []string `mapstructure:"metrics" validate:"required,min=1,dive,varname"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
	Dir    string `mapstructure:"dir" validate:"required"`
}

type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// DateRange resolves the configured extraction window. An empty range defaults
// to yesterday through today so an unattended run always has recent hourly data.
func (e ExtractConfig) DateRange(now time.Time) (start, end string) {
	if e.StartDate != "" && e.EndDate != "" {
		return e.StartDate, e.EndDate
	}
	end = now.Format("2006-01-02")
	start = now.AddDate(0, 0, -1).Format("2006-01-02")
	return start, end
}

func (e ExtractConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

func NewDefaultConfig() *Config {
	return &Config{
		Version: "1.0.0",
		Cities: []City{
			{Name: "Karachi", Latitude: 24.8607, Longitude: 67.0011},
			{Name: "Lahore", Latitude: 31.5204, Longitude: 74.3587},
			{Name: "Islamabad", Latitude: 33.6844, Longitude: 73.0479},
			{Name: "Multan", Latitude: 30.1575, Longitude: 71.5249},
			{Name: "Quetta", Latitude: 30.1798, Longitude: 66.9750},
		},
		Extract: ExtractConfig{
			BaseURL: "https://api.open-meteo.com/v1/forecast",
			Variables: []string{
				"temperature_2m",
				"relativehumidity_2m",
				"precipitation",
				"weathercode",
			},
			Timezone:       "Asia/Karachi",
			TimeoutSeconds: 10,
		},
		Storage: StorageConfig{
			RawDir:        "data/raw",
			ProcessedFile: "data/processed/all_cities_hourly.csv",
			DatabaseFile:  "data/weather.db",
		},
		Charts: ChartsConfig{
			Dir: "reports",
			Metrics: []string{
				"temperature_2m",
				"relativehumidity_2m",
				"precipitation",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Dir:    "logs",
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Endpoint: "tempo:4317",
		},
	}
}
