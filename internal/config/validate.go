// Package config provides configuration models and helpers for scrape runs.
//
// This file adds a lightweight linter for Pipeline values. It performs static
// checks over a decoded Pipeline and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a problem worth surfacing that does not block.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "parser.fields[2].selector"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation of p. It does not mutate p and
// does not compile selectors; the parser does that when it is built.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels logs and metrics",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateOutput(p.Output)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	issues = append(issues, validateLog(p.Log)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	switch s.Kind {
	case "http":
		u, err := url.Parse(s.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.url",
				Message:  fmt.Sprintf("source.url %q must be an absolute http(s) URL", s.URL),
			})
			break
		}
		if len(s.AllowedDomains) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "source.allowed_domains",
				Message:  "no allowed domains; redirects may leave the target site",
			})
		} else if !hostAllowed(u.Hostname(), s.AllowedDomains) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.url",
				Message:  fmt.Sprintf("host %q is outside allowed_domains %v", u.Hostname(), s.AllowedDomains),
			})
		}
		if s.InsecureSkipVerify {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "source.insecure_skip_verify",
				Message:  "TLS certificate verification is disabled",
			})
		}
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q (want http|file)", s.Kind),
		})
	}
	if s.TimeoutSeconds < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.timeout_seconds",
			Message:  "timeout must be >= 0",
		})
	}
	return issues
}

func hostAllowed(host string, domains []string) bool {
	host = strings.ToLower(host)
	for _, d := range domains {
		d = strings.Trim(strings.ToLower(strings.TrimSpace(d)), ".")
		if d != "" && (host == d || strings.HasSuffix(host, "."+d)) {
			return true
		}
	}
	return false
}

var knownFields = map[string]bool{"country_name": true, "region": true, "gdp": true, "year": true}

func validateParser(p Parser) []Issue {
	var issues []Issue

	if p.Kind != "htmltable" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unknown parser kind %q (want htmltable)", p.Kind),
		})
	}
	if strings.TrimSpace(p.Row) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.row",
			Message:  "row selector must not be empty",
		})
	}

	seen := map[string]bool{}
	for i, f := range p.Fields {
		path := fmt.Sprintf("parser.fields[%d]", i)
		switch {
		case !knownFields[f.Name]:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".name",
				Message:  fmt.Sprintf("unknown field %q (want country_name|region|gdp|year)", f.Name),
			})
		case seen[f.Name]:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".name",
				Message:  fmt.Sprintf("field %q selected more than once", f.Name),
			})
		}
		seen[f.Name] = true
		if strings.TrimSpace(f.Selector) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".selector",
				Message:  "selector must not be empty",
			})
		}
	}
	for _, name := range []string{"country_name", "gdp"} {
		if !seen[name] {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.fields",
				Message:  fmt.Sprintf("field %q is required", name),
			})
		}
	}
	for _, name := range []string{"region", "year"} {
		if !seen[name] {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "parser.fields",
				Message:  fmt.Sprintf("field %q has no selector; it will always be empty", name),
			})
		}
	}
	return issues
}

// StorageKinds lists the storage backends linked into the binary. The
// storage registry installs it (see storage/all); nil falls back to
// builtinStorageKinds.
var StorageKinds func() []string

var builtinStorageKinds = []string{"mssql", "postgres", "sqlite"}

func storageKinds() []string {
	if StorageKinds != nil {
		if ks := StorageKinds(); len(ks) > 0 {
			return ks
		}
	}
	return builtinStorageKinds
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	kinds := storageKinds()
	switch {
	case s.Kind == "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
	case !slices.Contains(kinds, s.Kind):
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q (want %s)", s.Kind, strings.Join(kinds, "|")),
		})
	}
	switch dsn := strings.TrimSpace(s.DB.DSN); {
	case dsn == "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "dsn must not be empty",
		})
	case s.Kind != "sqlite" && s.Kind != "" && dsn == Default().Storage.DB.DSN:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.db.dsn",
			Message:  fmt.Sprintf("dsn is still the sqlite default %q; set a %s connection string", dsn, s.Kind),
		})
	}
	if strings.TrimSpace(s.DB.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.db.table",
			Message:  "table is empty; countries_gdp will be used",
		})
	}
	switch strings.ToLower(s.DB.OnConflict) {
	case "", "fail", "skip":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.on_conflict",
			Message:  fmt.Sprintf("unknown on_conflict %q (want fail|skip)", s.DB.OnConflict),
		})
	}
	if !s.DB.AutoCreateTable {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.db.auto_create_table",
			Message:  "auto_create_table is off; the table must already exist",
		})
	}
	return issues
}

func validateOutput(o Output) []Issue {
	switch strings.ToLower(o.Format) {
	case "", "json", "jsonl", "csv", "table":
		return nil
	}
	return []Issue{{
		Severity: SeverityError,
		Path:     "output.format",
		Message:  fmt.Sprintf("unknown output format %q (want json|jsonl|csv|table)", o.Format),
	}}
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "", "none":
	case "prompush":
		if m.PushgatewayURL == "" {
			return []Issue{{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "prompush backend requires pushgateway_url (or " + EnvPushgatewayURL + ")",
			}}
		}
	case "datadog":
		if m.DatadogAddr == "" {
			return []Issue{{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires datadog_addr",
			}}
		}
	default:
		return []Issue{{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q (want none|prompush|datadog)", m.Backend),
		}}
	}
	return nil
}

func validateLog(l Log) []Issue {
	var issues []Issue
	switch strings.ToLower(l.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "log.level",
			Message:  fmt.Sprintf("unknown log level %q", l.Level),
		})
	}
	switch strings.ToLower(l.Format) {
	case "", "text", "json":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "log.format",
			Message:  fmt.Sprintf("unknown log format %q (want text|json)", l.Format),
		})
	}
	return issues
}
