// Package cfg loads service configuration from a YAML file or environment
// variables. A YAML file is used when CONFIG_FILE is set; individual values
// can still be overridden from the environment.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	ListenPort    int
	MetricsPort   int
	ModelPath     string
	EnsemblePath  string
	SamplePath    string
	DataPath      string
	DatasetPath   string
	DatasetURL    string
	DefaultEngine string
	HistoryLimit  int
	HTTPTimeout   time.Duration
	FetchTimeout  time.Duration
	LearningRate  float64
	Epochs        int
}

type ConfigFile struct {
	Server struct {
		ListenPort  int    `yaml:"listenPort"`
		MetricsPort int    `yaml:"metricsPort"`
		HTTPTimeout string `yaml:"httpTimeout"`
	} `yaml:"server"`

	Model struct {
		Path          string `yaml:"path"`
		EnsemblePath  string `yaml:"ensemblePath"`
		SamplePath    string `yaml:"samplePath"`
		DefaultEngine string `yaml:"defaultEngine"`
	} `yaml:"model"`

	Training struct {
		DatasetPath  string  `yaml:"datasetPath"`
		DatasetURL   string  `yaml:"datasetURL"`
		FetchTimeout string  `yaml:"fetchTimeout"`
		LearningRate float64 `yaml:"learningRate"`
		Epochs       int     `yaml:"epochs"`
	} `yaml:"training"`

	System struct {
		DataPath     string `yaml:"dataPath"`
		HistoryLimit int    `yaml:"historyLimit"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}

	settings := loadFromEnv()
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	httpTimeout, err := time.ParseDuration(config.Server.HTTPTimeout)
	if err != nil {
		httpTimeout = 30 * time.Second
	}
	fetchTimeout, err := time.ParseDuration(config.Training.FetchTimeout)
	if err != nil {
		fetchTimeout = 2 * time.Minute
	}

	settings := Settings{
		ListenPort:    getIntOrDefault("LISTEN_PORT", intOr(config.Server.ListenPort, 8000)),
		MetricsPort:   getIntOrDefault("METRICS_PORT", intOr(config.Server.MetricsPort, 9090)),
		ModelPath:     getEnvOrDefault("MODEL_PATH", stringOr(config.Model.Path, "lightweight_model.json")),
		EnsemblePath:  getEnvOrDefault("ENSEMBLE_PATH", config.Model.EnsemblePath),
		SamplePath:    getEnvOrDefault("SAMPLE_PATH", stringOr(config.Model.SamplePath, "test_data.json")),
		DataPath:      getEnvOrDefault("DATA_PATH", config.System.DataPath),
		DatasetPath:   getEnvOrDefault("DATASET_PATH", stringOr(config.Training.DatasetPath, "dataset/cumulative.csv")),
		DatasetURL:    getEnvOrDefault("DATASET_URL", config.Training.DatasetURL),
		DefaultEngine: getEnvOrDefault("DEFAULT_ENGINE", stringOr(config.Model.DefaultEngine, "lightweight")),
		HistoryLimit:  getIntOrDefault("HISTORY_LIMIT", intOr(config.System.HistoryLimit, 50)),
		HTTPTimeout:   httpTimeout,
		FetchTimeout:  fetchTimeout,
		LearningRate:  getFloatOrDefault("LEARNING_RATE", floatOr(config.Training.LearningRate, 0.05)),
		Epochs:        getIntOrDefault("EPOCHS", intOr(config.Training.Epochs, 50)),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() Settings {
	return Settings{
		ListenPort:    getIntOrDefault("LISTEN_PORT", 8000),
		MetricsPort:   getIntOrDefault("METRICS_PORT", 9090),
		ModelPath:     getEnvOrDefault("MODEL_PATH", "lightweight_model.json"),
		EnsemblePath:  os.Getenv("ENSEMBLE_PATH"), // optional
		SamplePath:    getEnvOrDefault("SAMPLE_PATH", "test_data.json"),
		DataPath:      os.Getenv("DATA_PATH"), // optional
		DatasetPath:   getEnvOrDefault("DATASET_PATH", "dataset/cumulative.csv"),
		DatasetURL:    os.Getenv("DATASET_URL"),
		DefaultEngine: getEnvOrDefault("DEFAULT_ENGINE", "lightweight"),
		HistoryLimit:  getIntOrDefault("HISTORY_LIMIT", 50),
		HTTPTimeout:   getDurationOrDefault("HTTP_TIMEOUT", 30*time.Second),
		FetchTimeout:  getDurationOrDefault("FETCH_TIMEOUT", 2*time.Minute),
		LearningRate:  getFloatOrDefault("LEARNING_RATE", 0.05),
		Epochs:        getIntOrDefault("EPOCHS", 50),
	}
}

func validateSettings(s *Settings) error {
	if s.ListenPort <= 0 || s.ListenPort > 65535 {
		return fmt.Errorf("listen port %d out of range", s.ListenPort)
	}
	if s.MetricsPort <= 0 || s.MetricsPort > 65535 {
		return fmt.Errorf("metrics port %d out of range", s.MetricsPort)
	}
	if s.ModelPath == "" {
		return fmt.Errorf("model path is required")
	}
	if s.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive")
	}
	if s.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func stringOr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func intOr(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

func floatOr(v, def float64) float64 {
	if v != 0 {
		return v
	}
	return def
}
