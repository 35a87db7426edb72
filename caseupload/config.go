// Package caseupload is the HTTP service layer around the docingest
// pipeline: upload validation, ingestion-result persistence, and retention.
package caseupload

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/caseingest/docingest"
)

// Config holds the full caseupload service configuration.
type Config struct {
	Listen            string       `yaml:"listen"`
	DBPath            string       `yaml:"db_path"`
	MaxFileMB         int          `yaml:"max_file_mb"`
	AllowedExtensions []string     `yaml:"allowed_extensions"`
	RetentionHours    int          `yaml:"retention_hours"`
	IngestTimeoutSec  int          `yaml:"ingest_timeout_sec"`
	Pipeline          PipelineOpts `yaml:"pipeline"`
	OCR               OCROpts      `yaml:"ocr"`
}

// PipelineOpts exposes the docingest tunables in the config file.
type PipelineOpts struct {
	OCRWordsPerPageThreshold  float64 `yaml:"ocr_words_per_page_threshold"`
	HeaderFooterMaxLineLength int     `yaml:"header_footer_max_line_length"`
	HeaderFooterMinFrequency  int     `yaml:"header_footer_min_frequency"`
	OCRConcurrency            int     `yaml:"ocr_concurrency"`
}

// OCROpts configures the local Tesseract engine.
type OCROpts struct {
	Language string `yaml:"language"`
	DPI      int    `yaml:"dpi"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:            ":8086",
		DBPath:            "caseingest.db",
		MaxFileMB:         100,
		AllowedExtensions: []string{"pdf", "docx", "txt"},
		RetentionHours:    24,
		IngestTimeoutSec:  120,
	}
}

// LoadConfig reads and parses a YAML config file. Returns DefaultConfig
// merged with the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.MaxFileMB <= 0 {
		return fmt.Errorf("max_file_mb must be > 0")
	}
	if c.RetentionHours < 0 {
		return fmt.Errorf("retention_hours must be >= 0")
	}
	if c.IngestTimeoutSec <= 0 {
		return fmt.Errorf("ingest_timeout_sec must be > 0")
	}
	if len(c.AllowedExtensions) == 0 {
		return fmt.Errorf("allowed_extensions must not be empty")
	}
	for _, ext := range c.AllowedExtensions {
		if strings.HasPrefix(ext, ".") || ext != strings.ToLower(ext) {
			return fmt.Errorf("allowed_extensions entries must be lowercase without a leading dot, got %q", ext)
		}
	}
	return nil
}

// MaxFileBytes returns the max upload size in bytes.
func (c *Config) MaxFileBytes() int64 { return int64(c.MaxFileMB) * 1024 * 1024 }

// IngestTimeout returns the per-document processing deadline.
func (c *Config) IngestTimeout() time.Duration {
	return time.Duration(c.IngestTimeoutSec) * time.Second
}

// Retention returns the document retention window; 0 disables the sweep.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionHours) * time.Hour
}

// ExtensionAllowed reports whether a lowercase extension (no dot) is in the
// allow-list.
func (c *Config) ExtensionAllowed(ext string) bool {
	for _, allowed := range c.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// PipelineConfig builds the docingest configuration from the service config.
func (c *Config) PipelineConfig() docingest.Config {
	return docingest.Config{
		OCRWordsPerPageThreshold:  c.Pipeline.OCRWordsPerPageThreshold,
		HeaderFooterMaxLineLength: c.Pipeline.HeaderFooterMaxLineLength,
		HeaderFooterMinFrequency:  c.Pipeline.HeaderFooterMinFrequency,
		OCRConcurrency:            c.Pipeline.OCRConcurrency,
		OCR: docingest.NewTesseractEngine(docingest.TesseractConfig{
			Language: c.OCR.Language,
			DPI:      c.OCR.DPI,
		}),
	}
}
