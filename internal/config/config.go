package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"sponsorscout-engine/internal/scrape/simplify"
	"sponsorscout-engine/internal/sponsor"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Source struct {
		URL            string `yaml:"url" json:"url"`
		TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	} `yaml:"source" json:"source"`

	Sponsorship struct {
		// ReferenceFiles are delimited employer exports of unknown encoding.
		ReferenceFiles []string `yaml:"reference_files" json:"reference_files"`
		FuzzyThreshold int      `yaml:"fuzzy_threshold" json:"fuzzy_threshold"`
		MinCases       int      `yaml:"min_cases" json:"min_cases"`
	} `yaml:"sponsorship" json:"sponsorship"`

	Polling struct {
		ScrapeSeconds int `yaml:"scrape_seconds" json:"scrape_seconds"`
		// RetentionDays <= 0 disables the retention sweep entirely.
		RetentionDays int `yaml:"retention_days" json:"retention_days"`
	} `yaml:"polling" json:"polling"`

	Notify struct {
		Enabled bool `yaml:"enabled" json:"enabled"`
	} `yaml:"notify" json:"notify"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return applyDefaults(cfg), nil
}

func applyDefaults(cfg Config) Config {
	if cfg.App.Port == 0 {
		cfg.App.Port = 38472
	}
	if cfg.Source.URL == "" {
		cfg.Source.URL = simplify.DefaultURL
	}
	if cfg.Source.TimeoutSeconds <= 0 {
		cfg.Source.TimeoutSeconds = 20
	}
	if cfg.Sponsorship.FuzzyThreshold == 0 {
		cfg.Sponsorship.FuzzyThreshold = sponsor.DefaultThreshold
	}
	if cfg.Polling.ScrapeSeconds <= 0 {
		cfg.Polling.ScrapeSeconds = 6 * 60 * 60
	}
	return cfg
}
