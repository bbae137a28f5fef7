package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvDSN            = "COUNTRIESGDP_DSN"
	EnvPushgatewayURL = "PUSHGATEWAY_URL"
	EnvMetricsBackend = "METRICS_BACKEND"
)

// Load reads a pipeline file on top of Default(). Files ending in .json are
// decoded as JSON; everything else as YAML. Unknown keys are errors.
func Load(path string) (Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	p, err := Decode(b, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return Pipeline{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return p, nil
}

// Decode parses b (JSON when isJSON, YAML otherwise) on top of Default().
// Lists in the file replace the default lists rather than merging.
func Decode(b []byte, isJSON bool) (Pipeline, error) {
	p := Default()
	if len(bytes.TrimSpace(b)) == 0 {
		return p, nil
	}
	if isJSON {
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return Pipeline{}, fmt.Errorf("decode json: %w", err)
		}
		return p, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode yaml: %w", err)
	}
	return p, nil
}

// ApplyEnv overrides p from the environment through getenv (os.Getenv in
// production). Flags applied afterwards win over the environment.
func ApplyEnv(p *Pipeline, getenv func(string) string) {
	if v := getenv(EnvDSN); v != "" {
		p.Storage.DB.DSN = v
	}
	if v := getenv(EnvPushgatewayURL); v != "" {
		p.Metrics.PushgatewayURL = v
		if p.Metrics.Backend == "" || p.Metrics.Backend == "none" {
			p.Metrics.Backend = "prompush"
		}
	}
	if v := getenv(EnvMetricsBackend); v != "" {
		p.Metrics.Backend = v
	}
}
