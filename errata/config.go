package errata

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DBPath    string `toml:"db_path"`
	Pulp      PulpConfig
	Importers Importers
	Dashboard Dashboard
	Rewriters []Rewriter
}

type PulpConfig struct {
	URL          string            `toml:"url"`
	Repositories []string          `toml:"repositories"`
	PageSize     int               `toml:"page_size"`
	MaxElapsed   time.Duration     `toml:"max_elapsed"`
	Headers      map[string]string `toml:"headers"`
}

type Importers struct {
	Git GitImporter `toml:"git"`
}

type GitImporter struct {
	Remote       string        `toml:"remote"`
	Path         string        `toml:"path"`
	Repository   string        `toml:"repository"`
	LookupPeriod time.Duration `toml:"lookup_period"`
}

type Dashboard struct {
	Limit int `toml:"limit"`
}

// Rewriter is an expr rule applied to advisory payloads before ingestion.
type Rewriter struct {
	Field       string
	Predicate   string
	RewriteRule string `toml:"rewrite_rule"`
}

func ParseConfig(config io.Reader) (c Config, err error) {
	tomlData, err := io.ReadAll(config)
	if err != nil {
		return c, fmt.Errorf("could not read config file: %w", err)
	}
	_, err = toml.Decode(string(tomlData), &c)
	if err != nil {
		return c, fmt.Errorf("could not decode toml: %w", err)
	}
	c.setDefaults()
	return c, nil
}

func ParseConfigFromFile(path string) (c Config, err error) {
	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("could not open config file: %w", err)
	}
	defer f.Close()

	return ParseConfig(f)
}

func (c *Config) setDefaults() {
	if c.DBPath == "" {
		c.DBPath = "errata.db"
	}
	if c.Pulp.PageSize < 1 {
		c.Pulp.PageSize = 100
	}
	if c.Pulp.MaxElapsed <= 0 {
		c.Pulp.MaxElapsed = time.Minute
	}
	if c.Importers.Git.Path == "" {
		c.Importers.Git.Path = "advisories.git"
	}
	if c.Dashboard.Limit < 1 {
		c.Dashboard.Limit = DefaultDashboardLimit
	}
}
