// Package config defines the configuration model for a scrape run: where the
// page comes from, how rows and fields are selected, where records go, and
// the ambient metrics and logging settings.
//
// Default() holds the fixed values for the nominal GDP table. A pipeline file
// (YAML or JSON, see Load) overrides fields on top of those defaults, and a
// few environment variables override the file (see ApplyEnv).
//
// Example (YAML, trimmed):
//
//	job: countries-gdp
//	source:
//	  kind: http
//	  url: https://en.wikipedia.org/wiki/List_of_countries_by_GDP_(nominal)
//	storage:
//	  kind: sqlite
//	  db: { dsn: countries_gdp.db, on_conflict: fail }
//	output: { path: gdp.json }
package config

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run in logs and metrics.
	Job string `yaml:"job" json:"job"`

	Source  Source  `yaml:"source" json:"source"`
	Parser  Parser  `yaml:"parser" json:"parser"`
	Storage Storage `yaml:"storage" json:"storage"`
	Output  Output  `yaml:"output" json:"output"`
	Metrics Metrics `yaml:"metrics" json:"metrics"`
	Log     Log     `yaml:"log" json:"log"`
}

// Source identifies where the page comes from.
type Source struct {
	// Kind is "http" (live fetch) or "file" (saved snapshot).
	Kind string `yaml:"kind" json:"kind"`

	// URL is the page fetched by the "http" kind.
	URL string `yaml:"url" json:"url"`

	// AllowedDomains restricts request and redirect hosts; subdomains match.
	AllowedDomains []string `yaml:"allowed_domains" json:"allowed_domains"`

	// UserAgent overrides the default User-Agent header.
	UserAgent string `yaml:"user_agent" json:"user_agent"`

	// TimeoutSeconds bounds the fetch; 0 uses the client default.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`

	// Headers are sent on every request, redirects included.
	Headers map[string]string `yaml:"headers" json:"headers"`

	// InsecureSkipVerify disables TLS certificate checks. Only for mirrors
	// with self-signed certificates.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" json:"insecure_skip_verify"`

	// File carries options for the "file" kind.
	File SourceFile `yaml:"file" json:"file"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `yaml:"path" json:"path"`
}

// Parser selects table rows and the fields inside each row.
type Parser struct {
	// Kind is "htmltable".
	Kind string `yaml:"kind" json:"kind"`

	// Row selects the table rows.
	Row string `yaml:"row" json:"row"`

	// Fields binds each record field to a selector relative to a row.
	Fields []Field `yaml:"fields" json:"fields"`
}

// Field binds a record field name to a CSS selector.
type Field struct {
	Name     string `yaml:"name" json:"name"`
	Selector string `yaml:"selector" json:"selector"`
}

// Storage selects the store records are persisted to.
type Storage struct {
	// Kind is "sqlite", "postgres" or "mssql".
	Kind string   `yaml:"kind" json:"kind"`
	DB   DBConfig `yaml:"db" json:"db"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	// DSN is the driver connection string (file path for SQLite).
	DSN string `yaml:"dsn" json:"dsn"`

	// Table is the destination table name.
	Table string `yaml:"table" json:"table"`

	// AutoCreateTable runs CREATE TABLE IF NOT EXISTS on open.
	AutoCreateTable bool `yaml:"auto_create_table" json:"auto_create_table"`

	// OnConflict is "fail" (abort the run) or "skip" (drop the row) when an
	// insert hits an existing primary key.
	OnConflict string `yaml:"on_conflict" json:"on_conflict"`
}

// Output configures the optional record feed.
type Output struct {
	// Path is the feed file ("-" for stdout). Empty disables the feed.
	Path string `yaml:"path" json:"path"`

	// Format is json, jsonl, csv or table; empty infers from Path.
	Format string `yaml:"format" json:"format"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "none", "prompush" or "datadog".
	Backend string `yaml:"backend" json:"backend"`

	// PushgatewayURL is required by "prompush".
	PushgatewayURL string `yaml:"pushgateway_url" json:"pushgateway_url"`

	// DatadogAddr is the DogStatsD address required by "datadog".
	DatadogAddr string `yaml:"datadog_addr" json:"datadog_addr"`

	// Namespace prefixes Datadog metric names.
	Namespace string `yaml:"namespace" json:"namespace"`
}

// Log configures structured logging.
type Log struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level" json:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format" json:"format"`

	// File, when set, receives a copy of the log with size-based rotation.
	File       string `yaml:"file" json:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
}

// DefaultURL is the nominal GDP list on English Wikipedia.
const DefaultURL = "https://en.wikipedia.org/wiki/List_of_countries_by_GDP_(nominal)"

// Default returns the built-in configuration.
func Default() Pipeline {
	return Pipeline{
		Job: "countries-gdp",
		Source: Source{
			Kind:           "http",
			URL:            DefaultURL,
			AllowedDomains: []string{"wikipedia.org"},
		},
		Parser: Parser{
			Kind: "htmltable",
			Row:  "table.wikitable.sortable tbody tr:not([class])",
			Fields: []Field{
				{Name: "country_name", Selector: "td:nth-child(1) a"},
				{Name: "region", Selector: "td:nth-child(2) a"},
				{Name: "gdp", Selector: "td:nth-child(3)"},
				{Name: "year", Selector: "td:nth-child(4)"},
			},
		},
		Storage: Storage{
			Kind: "sqlite",
			DB: DBConfig{
				DSN:             "countries_gdp.db",
				Table:           "countries_gdp",
				AutoCreateTable: true,
				OnConflict:      "fail",
			},
		},
		Metrics: Metrics{Backend: "none"},
		Log: Log{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}
