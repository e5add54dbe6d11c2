package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadYAML decodes one Config document from a YAML file. Multiple files
// (e.g. one per federated source) are loaded individually and combined
// with MergeRight by the caller, in file-argument order.
func LoadYAML(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c, nil
}

// LoadAll loads and federates every path in order with MergeRight, which
// merges same-named types field by field and fails on a conflict.
func LoadAll(paths []string) (Config, error) {
	if len(paths) == 0 {
		return Config{}, fmt.Errorf("config: no source files given")
	}
	merged, err := LoadYAML(paths[0])
	if err != nil {
		return Config{}, err
	}
	for _, p := range paths[1:] {
		next, err := LoadYAML(p)
		if err != nil {
			return Config{}, err
		}
		result := MergeRight(merged, next)
		if !result.OK() {
			msgs := make([]string, len(result.Causes()))
			for i, c := range result.Causes() {
				msgs[i] = c.String()
			}
			return Config{}, fmt.Errorf("config: merging %s: %s", p, strings.Join(msgs, "; "))
		}
		merged = result.Value()
	}
	return merged, nil
}
