package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

// LabelStudioConfig points the exporter at a Label Studio instance.
type LabelStudioConfig struct {
	URL       string `koanf:"url"`
	APIKey    string `koanf:"apikey"`
	ProjectID int    `koanf:"projectid"`
}

// ExportConfig defines where the raw export layout is written.
type ExportConfig struct {
	OutputDir string `koanf:"outputdir"`
}

// DatasetConfig drives the export-to-dataset conversion.
type DatasetConfig struct {
	ExportDir   string `koanf:"exportdir"`
	OutputDir   string `koanf:"outputdir"`
	ClassPolicy string `koanf:"classpolicy"`
	Workers     int    `koanf:"workers"`
	Overlays    bool   `koanf:"overlays"`
}

// CatalogConfig locates the sqlite catalog database.
type CatalogConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// AppConfig defines the processor configuration tree.
type AppConfig struct {
	Debug       bool              `koanf:"debug"`
	LabelStudio LabelStudioConfig `koanf:"labelstudio"`
	Export      ExportConfig      `koanf:"export"`
	Dataset     DatasetConfig     `koanf:"dataset"`
	Catalog     CatalogConfig     `koanf:"catalog"`
}

// Config - Global variable to export
var Config AppConfig

// Init - Assign global config to decoded config struct
func Init(filePath string) error {
	k := koanf.New(".")
	parser := yaml.Parser()

	if err := k.Load(confmap.Provider(map[string]any{
		"labelstudio.url":     "http://localhost:8080",
		"dataset.classpolicy": "default-zero",
		"dataset.workers":     1,
		"catalog.path":        "catalog.db",
	}, "."), nil); err != nil {
		log.Fatal(err.Error())
	}

	if err := k.Load(file.Provider(filePath), parser); err != nil {
		log.Fatal(err.Error())
	}

	if err := k.Load(env.ProviderWithValue("CFG_", ".", func(s string, v string) (string, any) {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "CFG_")), "_", ".")
		if strings.Contains(v, ",") {
			return key, strings.Split(strings.TrimSpace(v), ",")
		}
		return key, v
	}), nil); err != nil {
		return err
	}

	if err := k.Unmarshal("", &Config); err != nil {
		return err
	}

	return ValidateConfig(&Config)
}

// ValidateConfig is for custom validation rules for the configuration
func ValidateConfig(cfg *AppConfig) error {
	switch cfg.Dataset.ClassPolicy {
	case "default-zero", "skip-unlabeled":
	default:
		return fmt.Errorf("config: unknown dataset.classpolicy %q", cfg.Dataset.ClassPolicy)
	}
	if cfg.Dataset.Workers < 1 {
		return fmt.Errorf("config: dataset.workers must be >= 1, got %d", cfg.Dataset.Workers)
	}
	return nil
}

var defaultConfigPath = "config/config.yaml"

// ParseConfigFlag allows clients to specify the relative path to the file from
// which the configuration will be loaded.
func ParseConfigFlag() string {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath := fs.String("file", defaultConfigPath, "configuration file")
	_ = fs.Parse(os.Args[1:])

	return *configPath
}
