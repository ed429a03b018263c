package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all the configuration for the application.
type Config struct {
	Env         string `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer  `yaml:"http_server"`
	StatsAPI    `yaml:"stats_api"`
	CityDataset `yaml:"city_dataset"`
	Dashboard   `yaml:"dashboard"`
}

// HTTPServer holds boundary server specific configuration.
type HTTPServer struct {
	Port         int           `yaml:"port" env:"HTTP_SERVER_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// StatsAPI holds configuration for the upstream shortener backend.
type StatsAPI struct {
	BaseURL      string        `yaml:"base_url" env:"STATS_API_BASE_URL" env-default:"http://localhost:8000/api"`
	Timeout      time.Duration `yaml:"timeout" env:"STATS_API_TIMEOUT" env-default:"10s"`
	PollInterval time.Duration `yaml:"poll_interval" env:"STATS_POLL_INTERVAL" env-default:"30s"`
}

// CityDataset holds configuration for the external city coordinate dataset.
type CityDataset struct {
	URL     string        `yaml:"url" env:"CITY_DATASET_URL" env-default:"https://raw.githubusercontent.com/datasets/world-cities/master/data/worldcities.csv"`
	Timeout time.Duration `yaml:"timeout" env:"CITY_DATASET_TIMEOUT" env-default:"60s"`
	Preload bool          `yaml:"preload" env:"CITY_DATASET_PRELOAD" env-default:"true"`
}

// Dashboard holds view-building configuration.
type Dashboard struct {
	PageSize       int     `yaml:"page_size" env:"DASHBOARD_PAGE_SIZE" env-default:"10"`
	LowColor       string  `yaml:"low_color" env:"DASHBOARD_LOW_COLOR" env-default:"#e0f2fe"`
	HighColor      string  `yaml:"high_color" env:"DASHBOARD_HIGH_COLOR" env-default:"#0c4a6e"`
	NoDataColor    string  `yaml:"no_data_color" env:"DASHBOARD_NO_DATA_COLOR" env-default:"#d1d5db"`
	MinRadius      float64 `yaml:"min_radius" env:"DASHBOARD_MIN_RADIUS" env-default:"4"`
	MaxRadius      float64 `yaml:"max_radius" env:"DASHBOARD_MAX_RADIUS" env-default:"18"`
	UARegexesPath  string  `yaml:"ua_regexes_path" env:"DASHBOARD_UA_REGEXES_PATH" env-default:"assets/regexes.yaml"`
}

// MustLoad loads the application configuration.
func MustLoad() *Config {
	// Try to load .env file (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	var cfg Config

	// Check if config file path is specified
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/local.yml" // default path
	}

	// Try to load config file
	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			log.Fatalf("cannot read config: %s", err)
		}
	} else {
		// If config file doesn't exist, use environment variables only
		log.Println("Config file not found, using environment variables only")
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read config from environment: %s", err)
		}
	}

	return &cfg
}
